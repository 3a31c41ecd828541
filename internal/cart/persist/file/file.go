package file

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"path/filepath"
	"sync"

	"savora/internal/cart"
	"savora/internal/cart/models"
	"savora/internal/cart/persist/record"
)

const (
	itemsFile  = "items.json"
	notifsFile = "notifications.json"
)

// Factory persists cart records as JSON files under a data directory, one
// subdirectory per owner. This is the dependency-free durable default for
// single-node deployments.
type Factory struct {
	dir    string
	logger *slog.Logger
}

// Option configures a Factory.
type Option func(*Factory)

// WithLogger attaches a logger for self-healing events.
func WithLogger(logger *slog.Logger) Option {
	return func(f *Factory) { f.logger = logger }
}

// NewFactory builds a file-backed record store rooted at dir.
func NewFactory(dir string, opts ...Option) *Factory {
	f := &Factory{
		dir:    dir,
		logger: slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(f)
		}
	}
	return f
}

// ForOwner returns the persistence handle for one owner's records.
func (f *Factory) ForOwner(owner string) cart.Persistence {
	return &ownerFiles{
		dir:    filepath.Join(f.dir, url.PathEscape(owner)),
		logger: f.logger,
	}
}

type ownerFiles struct {
	// mu serializes file writes for this owner; readers tolerate the
	// rename-based atomic replace.
	mu     sync.Mutex
	dir    string
	logger *slog.Logger
}

func (o *ownerFiles) Load(_ context.Context) (cart.SavedState, error) {
	var state cart.SavedState

	if raw, ok := o.read(itemsFile); ok {
		items, err := record.DecodeItems(raw)
		if err != nil {
			o.selfHeal(itemsFile, err)
		} else {
			state.Items = items
		}
	}
	if raw, ok := o.read(notifsFile); ok {
		count, err := record.DecodeCount(raw)
		if err != nil {
			o.selfHeal(notifsFile, err)
		} else {
			state.Notifications = count
		}
	}
	return state, nil
}

func (o *ownerFiles) SaveItems(_ context.Context, items []models.LineItem) error {
	raw, err := record.EncodeItems(items)
	if err != nil {
		return err
	}
	return o.write(itemsFile, raw)
}

func (o *ownerFiles) SaveNotifications(_ context.Context, count int) error {
	raw, err := record.EncodeCount(count)
	if err != nil {
		return err
	}
	return o.write(notifsFile, raw)
}

// read returns the record bytes and whether the record exists. Read errors
// other than absence are treated as absence; load is best-effort.
func (o *ownerFiles) read(name string) ([]byte, bool) {
	raw, err := os.ReadFile(filepath.Join(o.dir, name))
	if err != nil {
		if !os.IsNotExist(err) {
			o.logger.Warn("cart record unreadable; treating as absent",
				"path", filepath.Join(o.dir, name), "error", err)
		}
		return nil, false
	}
	return raw, true
}

// write replaces the record atomically via temp file + rename so a crash
// mid-write cannot leave a half-written record behind.
func (o *ownerFiles) write(name string, raw []byte) error {
	o.mu.Lock()
	defer o.mu.Unlock()

	if err := os.MkdirAll(o.dir, 0o755); err != nil {
		return fmt.Errorf("create cart data dir: %w", err)
	}
	path := filepath.Join(o.dir, name)
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, raw, 0o644); err != nil {
		return fmt.Errorf("write cart record: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("replace cart record: %w", err)
	}
	return nil
}

// selfHeal removes a corrupt record so the corruption cannot recur on the
// next load.
func (o *ownerFiles) selfHeal(name string, cause error) {
	path := filepath.Join(o.dir, name)
	o.logger.Warn("discarding corrupt cart record", "path", path, "error", cause)
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		o.logger.Warn("failed to remove corrupt cart record", "path", path, "error", err)
	}
}
