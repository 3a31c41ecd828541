package file

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"savora/internal/cart/models"
)

func TestRoundTrip(t *testing.T) {
	dir := t.TempDir()
	p := NewFactory(dir).ForOwner("alice")
	ctx := context.Background()

	items := []models.LineItem{{
		ID:             uuid.New(),
		CatalogItemID:  "pad-thai",
		Name:           "Pad Thai",
		UnitPriceCents: 100,
		Kind:           models.KindCatalogItem,
		AddOns:         []models.AddOn{{ID: "egg", Name: "Egg", PriceCents: 20}},
		Quantity:       2,
	}}
	require.NoError(t, p.SaveItems(ctx, items))
	require.NoError(t, p.SaveNotifications(ctx, 4))

	state, err := NewFactory(dir).ForOwner("alice").Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, items, state.Items)
	assert.Equal(t, 4, state.Notifications)
}

func TestLoadWithNoFilesIsEmpty(t *testing.T) {
	state, err := NewFactory(t.TempDir()).ForOwner("alice").Load(context.Background())
	require.NoError(t, err)
	assert.Empty(t, state.Items)
	assert.Zero(t, state.Notifications)
}

func TestCorruptItemsFileIsRemoved(t *testing.T) {
	dir := t.TempDir()
	ownerDir := filepath.Join(dir, "alice")
	require.NoError(t, os.MkdirAll(ownerDir, 0o755))
	itemsPath := filepath.Join(ownerDir, "items.json")
	require.NoError(t, os.WriteFile(itemsPath, []byte("undefined"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(ownerDir, "notifications.json"), []byte("2"), 0o644))

	state, err := NewFactory(dir).ForOwner("alice").Load(context.Background())
	require.NoError(t, err, "corruption never surfaces as an error")
	assert.Empty(t, state.Items)
	assert.Equal(t, 2, state.Notifications, "the intact record survives")

	_, statErr := os.Stat(itemsPath)
	assert.True(t, os.IsNotExist(statErr), "corrupt file must be deleted")
}

func TestCorruptNotificationFileIsRemoved(t *testing.T) {
	dir := t.TempDir()
	ownerDir := filepath.Join(dir, "alice")
	require.NoError(t, os.MkdirAll(ownerDir, 0o755))
	notifsPath := filepath.Join(ownerDir, "notifications.json")
	require.NoError(t, os.WriteFile(notifsPath, []byte("-5"), 0o644))

	state, err := NewFactory(dir).ForOwner("alice").Load(context.Background())
	require.NoError(t, err)
	assert.Zero(t, state.Notifications)

	_, statErr := os.Stat(notifsPath)
	assert.True(t, os.IsNotExist(statErr))
}

func TestEmptiedCartRoundTripsAsEmpty(t *testing.T) {
	dir := t.TempDir()
	p := NewFactory(dir).ForOwner("alice")
	ctx := context.Background()

	require.NoError(t, p.SaveItems(ctx, nil))
	raw, err := os.ReadFile(filepath.Join(dir, "alice", "items.json"))
	require.NoError(t, err)
	assert.Equal(t, "[]", string(raw))
}

func TestOwnerNamesAreEscapedToSafePaths(t *testing.T) {
	dir := t.TempDir()
	p := NewFactory(dir).ForOwner("../escape")
	require.NoError(t, p.SaveNotifications(context.Background(), 1))

	_, err := os.Stat(filepath.Join(dir, "..", "escape"))
	assert.True(t, os.IsNotExist(err), "owner id must not traverse outside the data dir")
}
