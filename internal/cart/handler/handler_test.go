package handler

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"savora/internal/cart"
	"savora/internal/cart/models"
	"savora/internal/cart/persist/memory"
	"savora/internal/catalog/mocks"
	"savora/internal/events"
	"savora/internal/platform/middleware"
	dErrors "savora/pkg/domain-errors"
)

type testServer struct {
	router   *chi.Mux
	resolver *mocks.MockResolver
	log      *events.MemoryStore
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	ctrl := gomock.NewController(t)
	resolver := mocks.NewMockResolver(ctrl)
	log := events.NewMemoryStore()

	h := New(
		cart.NewManager(memory.NewFactory()),
		resolver,
		events.NewPublisher(log),
		slog.New(slog.DiscardHandler),
		nil, nil,
	)

	// Route directly, bypassing the auth middleware chain; tests inject
	// the authenticated user themselves.
	r := chi.NewRouter()
	r.Use(asUser("alice"))
	h.routes(r)
	return &testServer{router: r, resolver: resolver, log: log}
}

func asUser(userID string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if userID != "" {
				ctx := context.WithValue(r.Context(), middleware.ContextKeyUserID, userID)
				r = r.WithContext(ctx)
			}
			next.ServeHTTP(w, r)
		})
	}
}

func (ts *testServer) do(t *testing.T, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var reader *strings.Reader
	if body == "" {
		reader = strings.NewReader("")
	} else {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	w := httptest.NewRecorder()
	ts.router.ServeHTTP(w, req)
	return w
}

func decodeSnapshot(t *testing.T, w *httptest.ResponseRecorder) SnapshotResponse {
	t.Helper()
	var snap SnapshotResponse
	require.NoError(t, json.NewDecoder(w.Body).Decode(&snap))
	return snap
}

func padThaiCandidate() models.Candidate {
	return models.Candidate{
		CatalogItemID:  "pad-thai",
		Name:           "Pad Thai",
		UnitPriceCents: 1250,
		VendorID:       "thai-corner",
		VendorName:     "Thai Corner",
		Kind:           models.KindCatalogItem,
	}
}

func TestGetCartStartsEmpty(t *testing.T) {
	ts := newTestServer(t)

	w := ts.do(t, http.MethodGet, "/cart", "")
	require.Equal(t, http.StatusOK, w.Code)

	// Capture before decoding; decoding drains the recorder body.
	raw := w.Body.String()
	assert.Contains(t, raw, `"items":[]`, "empty cart must encode as an array, not null")

	var snap SnapshotResponse
	require.NoError(t, json.Unmarshal([]byte(raw), &snap))
	assert.NotNil(t, snap.Items)
	assert.Empty(t, snap.Items)
	assert.Zero(t, snap.ItemCount)
	assert.Zero(t, snap.NotificationCount)
}

func TestAddItemCreatesAndMerges(t *testing.T) {
	ts := newTestServer(t)
	ts.resolver.EXPECT().
		Resolve(gomock.Any(), "pad-thai", nil, "").
		Return(padThaiCandidate(), nil).
		Times(2)

	w := ts.do(t, http.MethodPost, "/cart/items", `{"catalog_item_id":"pad-thai","quantity":1}`)
	require.Equal(t, http.StatusCreated, w.Code)
	snap := decodeSnapshot(t, w)
	require.Len(t, snap.Items, 1)
	assert.Equal(t, 1, snap.ItemCount)
	assert.Equal(t, int64(1250), snap.TotalPriceCents)
	assert.Equal(t, 1, snap.NotificationCount)

	w = ts.do(t, http.MethodPost, "/cart/items", `{"catalog_item_id":"pad-thai","quantity":2}`)
	require.Equal(t, http.StatusCreated, w.Code)
	snap = decodeSnapshot(t, w)
	require.Len(t, snap.Items, 1, "same configuration must merge into one line item")
	assert.Equal(t, 3, snap.ItemCount)
	assert.Equal(t, 2, snap.NotificationCount)

	listed, err := ts.log.ListByOwner(context.Background(), "alice")
	require.NoError(t, err)
	assert.Len(t, listed, 2)
	assert.Equal(t, events.ActionItemAdded, listed[0].Action)
}

func TestAddItemUnknownCatalogItem(t *testing.T) {
	ts := newTestServer(t)
	ts.resolver.EXPECT().
		Resolve(gomock.Any(), "sushi", nil, "").
		Return(models.Candidate{}, dErrors.New(dErrors.CodeNotFound, "catalog item not found"))

	w := ts.do(t, http.MethodPost, "/cart/items", `{"catalog_item_id":"sushi"}`)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestAddItemRejectsMissingCatalogItemID(t *testing.T) {
	ts := newTestServer(t)

	w := ts.do(t, http.MethodPost, "/cart/items", `{"quantity":2}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestAddItemRejectsMalformedBody(t *testing.T) {
	ts := newTestServer(t)

	w := ts.do(t, http.MethodPost, "/cart/items", `{`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestUpdateQuantity(t *testing.T) {
	ts := newTestServer(t)
	ts.resolver.EXPECT().
		Resolve(gomock.Any(), "pad-thai", nil, "").
		Return(padThaiCandidate(), nil)

	w := ts.do(t, http.MethodPost, "/cart/items", `{"catalog_item_id":"pad-thai","quantity":1}`)
	id := decodeSnapshot(t, w).Items[0].ID

	w = ts.do(t, http.MethodPatch, "/cart/items/"+id.String(), `{"quantity":5}`)
	require.Equal(t, http.StatusOK, w.Code)
	snap := decodeSnapshot(t, w)
	assert.Equal(t, 5, snap.ItemCount)

	// Zero removes the item.
	w = ts.do(t, http.MethodPatch, "/cart/items/"+id.String(), `{"quantity":0}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, decodeSnapshot(t, w).Items)
}

func TestUpdateQuantityUnknownIDIsSilentNoOp(t *testing.T) {
	ts := newTestServer(t)

	w := ts.do(t, http.MethodPatch, "/cart/items/"+uuid.NewString(), `{"quantity":5}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, decodeSnapshot(t, w).Items)

	listed, err := ts.log.ListByOwner(context.Background(), "alice")
	require.NoError(t, err)
	assert.Empty(t, listed, "no-op mutations emit no events")
}

func TestUpdateQuantityRequiresQuantityField(t *testing.T) {
	ts := newTestServer(t)

	w := ts.do(t, http.MethodPatch, "/cart/items/"+uuid.NewString(), `{}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestItemRoutesRejectNonUUIDIDs(t *testing.T) {
	ts := newTestServer(t)

	w := ts.do(t, http.MethodPatch, "/cart/items/not-a-uuid", `{"quantity":1}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = ts.do(t, http.MethodDelete, "/cart/items/not-a-uuid", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestRemoveItem(t *testing.T) {
	ts := newTestServer(t)
	ts.resolver.EXPECT().
		Resolve(gomock.Any(), "pad-thai", nil, "").
		Return(padThaiCandidate(), nil)

	w := ts.do(t, http.MethodPost, "/cart/items", `{"catalog_item_id":"pad-thai"}`)
	id := decodeSnapshot(t, w).Items[0].ID

	w = ts.do(t, http.MethodDelete, "/cart/items/"+id.String(), "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, decodeSnapshot(t, w).Items)

	// Deleting again stays a silent no-op.
	w = ts.do(t, http.MethodDelete, "/cart/items/"+id.String(), "")
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestClearCartKeepsNotifications(t *testing.T) {
	ts := newTestServer(t)
	ts.resolver.EXPECT().
		Resolve(gomock.Any(), "pad-thai", nil, "").
		Return(padThaiCandidate(), nil)

	ts.do(t, http.MethodPost, "/cart/items", `{"catalog_item_id":"pad-thai"}`)

	w := ts.do(t, http.MethodDelete, "/cart", "")
	require.Equal(t, http.StatusOK, w.Code)
	snap := decodeSnapshot(t, w)
	assert.Empty(t, snap.Items)
	assert.Equal(t, 1, snap.NotificationCount, "clearing the cart must not clear notifications")
}

func TestNotificationLifecycle(t *testing.T) {
	ts := newTestServer(t)
	ts.resolver.EXPECT().
		Resolve(gomock.Any(), "pad-thai", nil, "").
		Return(padThaiCandidate(), nil)

	ts.do(t, http.MethodPost, "/cart/items", `{"catalog_item_id":"pad-thai"}`)

	w := ts.do(t, http.MethodGet, "/cart/notifications", "")
	require.Equal(t, http.StatusOK, w.Code)
	var resp NotificationsResponse
	require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
	assert.Equal(t, 1, resp.NotificationCount)

	w = ts.do(t, http.MethodDelete, "/cart/notifications", "")
	require.Equal(t, http.StatusNoContent, w.Code)

	w = ts.do(t, http.MethodGet, "/cart/notifications", "")
	require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
	assert.Zero(t, resp.NotificationCount)

	// Items are untouched by the notification reset.
	w = ts.do(t, http.MethodGet, "/cart", "")
	assert.Equal(t, 1, decodeSnapshot(t, w).ItemCount)
}

func TestUnauthenticatedRequestsRejected(t *testing.T) {
	ctrl := gomock.NewController(t)
	h := New(
		cart.NewManager(memory.NewFactory()),
		mocks.NewMockResolver(ctrl),
		events.NewPublisher(events.NewMemoryStore()),
		slog.New(slog.DiscardHandler),
		nil, nil,
	)
	r := chi.NewRouter()
	h.routes(r)

	req := httptest.NewRequest(http.MethodGet, "/cart", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestOwnersDoNotShareCarts(t *testing.T) {
	ctrl := gomock.NewController(t)
	resolver := mocks.NewMockResolver(ctrl)
	resolver.EXPECT().
		Resolve(gomock.Any(), "pad-thai", nil, "").
		Return(padThaiCandidate(), nil)

	h := New(
		cart.NewManager(memory.NewFactory()),
		resolver,
		events.NewPublisher(events.NewMemoryStore()),
		slog.New(slog.DiscardHandler),
		nil, nil,
	)

	aliceRouter := chi.NewRouter()
	aliceRouter.Use(asUser("alice"))
	h.routes(aliceRouter)
	bobRouter := chi.NewRouter()
	bobRouter.Use(asUser("bob"))
	h.routes(bobRouter)

	req := httptest.NewRequest(http.MethodPost, "/cart/items", strings.NewReader(`{"catalog_item_id":"pad-thai"}`))
	w := httptest.NewRecorder()
	aliceRouter.ServeHTTP(w, req)
	require.Equal(t, http.StatusCreated, w.Code)

	req = httptest.NewRequest(http.MethodGet, "/cart", nil)
	w = httptest.NewRecorder()
	bobRouter.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Zero(t, decodeSnapshot(t, w).ItemCount)
}
