package handler

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"savora/internal/cart"
	"savora/internal/catalog"
	"savora/internal/events"
	"savora/internal/platform/metrics"
	"savora/internal/platform/middleware"
	dErrors "savora/pkg/domain-errors"
	"savora/pkg/platform/httputil"
)

// Handler wires cart endpoints to the per-owner cart stores.
type Handler struct {
	carts        *cart.Manager
	catalog      catalog.Resolver
	publisher    *events.Publisher
	logger       *slog.Logger
	metrics      *metrics.Metrics
	jwtValidator middleware.JWTValidator
}

// New constructs a cart handler with its dependencies.
func New(
	carts *cart.Manager,
	resolver catalog.Resolver,
	publisher *events.Publisher,
	logger *slog.Logger,
	metrics *metrics.Metrics,
	jwtValidator middleware.JWTValidator) *Handler {
	return &Handler{
		carts:        carts,
		catalog:      resolver,
		publisher:    publisher,
		logger:       logger,
		metrics:      metrics,
		jwtValidator: jwtValidator,
	}
}

// Register registers the cart routes with the chi router.
func (h *Handler) Register(r chi.Router) {
	cartRouter := chi.NewRouter()
	cartRouter.Use(middleware.Recovery(h.logger))
	cartRouter.Use(middleware.RequestID)
	cartRouter.Use(middleware.Logger(h.logger))
	cartRouter.Use(middleware.Timeout(30 * time.Second))
	cartRouter.Use(middleware.ContentTypeJSON)
	cartRouter.Use(middleware.LatencyMiddleware(h.metrics))
	cartRouter.Use(middleware.RequireAuth(h.jwtValidator, h.logger))
	h.routes(cartRouter)

	r.Mount("/", cartRouter)
}

func (h *Handler) routes(r chi.Router) {
	r.Get("/cart", h.HandleGetCart)
	r.Delete("/cart", h.HandleClearCart)
	r.Post("/cart/items", h.HandleAddItem)
	r.Patch("/cart/items/{id}", h.HandleUpdateQuantity)
	r.Delete("/cart/items/{id}", h.HandleRemoveItem)
	r.Get("/cart/notifications", h.HandleGetNotifications)
	r.Delete("/cart/notifications", h.HandleClearNotifications)
}

// storeFor resolves the caller's cart, waiting out the initial load so a
// request right after process start still sees persisted state.
func (h *Handler) storeFor(w http.ResponseWriter, r *http.Request) (*cart.Store, string, bool) {
	userID := middleware.GetUserID(r.Context())
	if userID == "" {
		httputil.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "authentication required"))
		return nil, "", false
	}
	s := h.carts.ForOwner(userID)
	if err := s.WaitReady(r.Context()); err != nil {
		httputil.WriteError(w, dErrors.Wrap(dErrors.CodeUnavailable, "cart is still loading", err))
		return nil, "", false
	}
	return s, userID, true
}

// HandleGetCart handles GET /cart requests.
func (h *Handler) HandleGetCart(w http.ResponseWriter, r *http.Request) {
	s, _, ok := h.storeFor(w, r)
	if !ok {
		return
	}
	httputil.WriteJSON(w, http.StatusOK, FromSnapshot(s.Snapshot()))
}

// HandleAddItem handles POST /cart/items requests.
func (h *Handler) HandleAddItem(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := middleware.GetRequestID(ctx)

	s, owner, ok := h.storeFor(w, r)
	if !ok {
		return
	}
	req, ok := httputil.DecodeAndPrepare[AddItemRequest](w, r, h.logger, requestID)
	if !ok {
		return
	}

	cand, err := h.catalog.Resolve(ctx, req.CatalogItemID, req.AddOnIDs, req.SpecialInstructions)
	if err != nil {
		h.logger.WarnContext(ctx, "catalog resolution failed",
			"request_id", requestID,
			"catalog_item_id", req.CatalogItemID,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}

	snap := s.AddLineItem(ctx, cand, req.Quantity)
	h.publisher.Emit(ctx, events.Event{
		Owner:           owner,
		Action:          events.ActionItemAdded,
		CatalogItemID:   cand.CatalogItemID,
		Quantity:        req.Quantity,
		ItemCount:       snap.ItemCount,
		TotalPriceCents: snap.TotalPriceCents,
	})
	httputil.WriteJSON(w, http.StatusCreated, FromSnapshot(snap))
}

// HandleUpdateQuantity handles PATCH /cart/items/{id} requests. Unknown
// line-item ids are a silent no-op and still return the current snapshot.
func (h *Handler) HandleUpdateQuantity(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	s, owner, ok := h.storeFor(w, r)
	if !ok {
		return
	}
	id, ok := lineItemID(w, r)
	if !ok {
		return
	}
	req, ok := httputil.DecodeAndPrepare[UpdateQuantityRequest](w, r, h.logger, middleware.GetRequestID(ctx))
	if !ok {
		return
	}

	snap, changed := s.UpdateQuantity(ctx, id, *req.Quantity)
	if changed {
		action := events.ActionQuantityUpdated
		if *req.Quantity <= 0 {
			action = events.ActionItemRemoved
		}
		h.publisher.Emit(ctx, events.Event{
			Owner:           owner,
			Action:          action,
			LineItemID:      id.String(),
			Quantity:        *req.Quantity,
			ItemCount:       snap.ItemCount,
			TotalPriceCents: snap.TotalPriceCents,
		})
	}
	httputil.WriteJSON(w, http.StatusOK, FromSnapshot(snap))
}

// HandleRemoveItem handles DELETE /cart/items/{id} requests.
func (h *Handler) HandleRemoveItem(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	s, owner, ok := h.storeFor(w, r)
	if !ok {
		return
	}
	id, ok := lineItemID(w, r)
	if !ok {
		return
	}

	snap, removed := s.RemoveLineItem(ctx, id)
	if removed {
		h.publisher.Emit(ctx, events.Event{
			Owner:           owner,
			Action:          events.ActionItemRemoved,
			LineItemID:      id.String(),
			ItemCount:       snap.ItemCount,
			TotalPriceCents: snap.TotalPriceCents,
		})
	}
	httputil.WriteJSON(w, http.StatusOK, FromSnapshot(snap))
}

// HandleClearCart handles DELETE /cart requests. Notifications survive.
func (h *Handler) HandleClearCart(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	s, owner, ok := h.storeFor(w, r)
	if !ok {
		return
	}
	snap := s.Clear(ctx)
	h.publisher.Emit(ctx, events.Event{
		Owner:  owner,
		Action: events.ActionCartCleared,
	})
	httputil.WriteJSON(w, http.StatusOK, FromSnapshot(snap))
}

// HandleGetNotifications handles GET /cart/notifications requests.
func (h *Handler) HandleGetNotifications(w http.ResponseWriter, r *http.Request) {
	s, _, ok := h.storeFor(w, r)
	if !ok {
		return
	}
	httputil.WriteJSON(w, http.StatusOK, NotificationsResponse{NotificationCount: s.NotificationCount()})
}

// HandleClearNotifications handles DELETE /cart/notifications requests.
func (h *Handler) HandleClearNotifications(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	s, owner, ok := h.storeFor(w, r)
	if !ok {
		return
	}
	s.ClearNotifications(ctx)
	h.publisher.Emit(ctx, events.Event{
		Owner:  owner,
		Action: events.ActionNotificationsCleared,
	})
	w.WriteHeader(http.StatusNoContent)
}

func lineItemID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "line item id must be a UUID"))
		return uuid.Nil, false
	}
	return id, true
}
