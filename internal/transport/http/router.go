package httptransport

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"savora/internal/cart"
	cartHandler "savora/internal/cart/handler"
	"savora/internal/catalog"
	"savora/internal/events"
	"savora/internal/platform/metrics"
	"savora/internal/platform/middleware"
)

// Deps carries everything the public router mounts.
type Deps struct {
	Carts     *cart.Manager
	Catalog   catalog.Resolver
	Publisher *events.Publisher
	Logger    *slog.Logger
	Metrics   *metrics.Metrics
	Validator middleware.JWTValidator
}

// NewRouter wires all public endpoints. Domain handlers own their
// middleware chains; only the unauthenticated operational endpoints live
// on the root router.
func NewRouter(d Deps) http.Handler {
	r := chi.NewRouter()

	cartHandler.New(d.Carts, d.Catalog, d.Publisher, d.Logger, d.Metrics, d.Validator).Register(r)

	r.Handle("/metrics", promhttp.Handler())
	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	return r
}
