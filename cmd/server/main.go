package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"savora/internal/cart"
	cartmetrics "savora/internal/cart/metrics"
	persistfile "savora/internal/cart/persist/file"
	persistmemory "savora/internal/cart/persist/memory"
	persistpg "savora/internal/cart/persist/postgres"
	persistredis "savora/internal/cart/persist/redis"
	"savora/internal/catalog"
	"savora/internal/events"
	"savora/internal/platform/config"
	"savora/internal/platform/httpserver"
	"savora/internal/platform/logger"
	"savora/internal/platform/metrics"
	platformredis "savora/internal/platform/redis"
	"savora/internal/sessiontoken"
	httptransport "savora/internal/transport/http"
)

const (
	tokenIssuer   = "savora"
	tokenAudience = "savora-storefront"
)

// main wires dependencies and keeps the server lifecycle small. Business
// logic lives in the internal packages.
func main() {
	cfg := config.FromEnv()
	log := logger.New()

	factory, cleanup, err := buildPersistence(cfg, log)
	if err != nil {
		log.Error("persistence setup failed", "backend", cfg.Persistence, "error", err)
		os.Exit(1)
	}
	defer cleanup()

	m := metrics.New()
	carts := cart.NewManager(factory,
		cart.WithLogger(log),
		cart.WithMetrics(cartmetrics.New()),
	)

	publisher, closePublisher, err := buildPublisher(cfg, log)
	if err != nil {
		log.Error("event sink setup failed", "error", err)
		os.Exit(1)
	}
	defer closePublisher()

	tokens := sessiontoken.NewService(cfg.JWTSigningKey, tokenIssuer, tokenAudience)

	router := httptransport.NewRouter(httptransport.Deps{
		Carts:     carts,
		Catalog:   catalog.NewMemory(catalog.DefaultMenu()...),
		Publisher: publisher,
		Logger:    log,
		Metrics:   m,
		Validator: sessiontoken.NewValidator(tokens),
	})

	srv := httpserver.New(cfg.Addr, router)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info("starting savora storefront", "addr", cfg.Addr, "backend", cfg.Persistence)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		log.Error("server exited", "error", err)
		os.Exit(1)
	}
	log.Info("savora storefront stopped")
}

// buildPersistence selects the cart record backend from configuration. The
// returned cleanup releases backend connections on shutdown.
func buildPersistence(cfg config.Server, log *slog.Logger) (cart.Factory, func(), error) {
	noop := func() {}
	switch cfg.Persistence {
	case "memory":
		return persistmemory.NewFactory(persistmemory.WithLogger(log)), noop, nil
	case "file":
		return persistfile.NewFactory(cfg.DataDir, persistfile.WithLogger(log)), noop, nil
	case "redis":
		client, err := platformredis.New(cfg.Redis)
		if err != nil {
			return nil, noop, err
		}
		if client == nil {
			return nil, noop, errors.New("redis backend selected but SAVORA_REDIS_URL is empty")
		}
		return persistredis.NewFactory(client.Client, persistredis.WithLogger(log)),
			func() { _ = client.Close() }, nil
	case "postgres":
		if cfg.PostgresURL == "" {
			return nil, noop, errors.New("postgres backend selected but SAVORA_POSTGRES_URL is empty")
		}
		db, err := persistpg.Open(cfg.PostgresURL)
		if err != nil {
			return nil, noop, err
		}
		if _, err := db.Exec(persistpg.Schema); err != nil {
			_ = db.Close()
			return nil, noop, err
		}
		return persistpg.NewFactory(db, persistpg.WithLogger(log)),
			func() { _ = db.Close() }, nil
	default:
		return nil, noop, errors.New("unknown cart backend " + cfg.Persistence)
	}
}

// buildPublisher wires the cart activity log: always the in-process store,
// plus the Kafka sink when brokers are configured.
func buildPublisher(cfg config.Server, log *slog.Logger) (*events.Publisher, func(), error) {
	sink := events.Store(events.NewMemoryStore())
	closeSink := func() {}
	if len(cfg.Kafka.Brokers) > 0 {
		kafka, err := events.NewKafkaSink(cfg.Kafka.Brokers, cfg.Kafka.Topic, log)
		if err != nil {
			return nil, closeSink, err
		}
		sink = events.Multi(sink, kafka)
		closeSink = kafka.Close
	}
	publisher := events.NewPublisher(sink,
		events.WithAsyncBuffer(64),
		events.WithLogger(log),
	)
	return publisher, func() {
		publisher.Close()
		closeSink()
	}, nil
}
