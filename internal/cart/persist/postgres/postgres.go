package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	// database/sql driver for PostgreSQL
	_ "github.com/jackc/pgx/v5/stdlib"

	"savora/internal/cart"
	"savora/internal/cart/models"
	"savora/internal/cart/persist/record"
)

const (
	recordItems         = "items"
	recordNotifications = "notifications"
)

// Schema is the DDL for the cart record table; applied by deployment
// tooling, kept here so the store and its migrations cannot drift apart.
const Schema = `
CREATE TABLE IF NOT EXISTS cart_records (
	owner_id   TEXT        NOT NULL,
	record     TEXT        NOT NULL,
	payload    JSONB       NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL DEFAULT now(),
	PRIMARY KEY (owner_id, record)
);
`

// Open connects to PostgreSQL via the pgx stdlib driver.
func Open(url string) (*sql.DB, error) {
	db, err := sql.Open("pgx", url)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("postgres ping failed: %w", err)
	}
	return db, nil
}

// Factory persists cart records as JSONB rows, two per owner. Suited to
// deployments that already run PostgreSQL and want cart durability in the
// same backup domain as orders.
type Factory struct {
	db     *sql.DB
	logger *slog.Logger
}

// Option configures a Factory.
type Option func(*Factory)

// WithLogger attaches a logger for self-healing events.
func WithLogger(logger *slog.Logger) Option {
	return func(f *Factory) { f.logger = logger }
}

// NewFactory builds a PostgreSQL-backed record store.
func NewFactory(db *sql.DB, opts ...Option) *Factory {
	f := &Factory{
		db:     db,
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
	return &ownerRows{db: f.db, logger: f.logger, owner: owner}
}

type ownerRows struct {
	db     *sql.DB
	logger *slog.Logger
	owner  string
}

func (o *ownerRows) Load(ctx context.Context) (cart.SavedState, error) {
	var state cart.SavedState

	raw, ok, err := o.fetch(ctx, recordItems)
	if err != nil {
		return cart.SavedState{}, fmt.Errorf("load line-item record: %w", err)
	}
	if ok {
		items, decErr := record.DecodeItems(raw)
		if decErr != nil {
			o.selfHeal(ctx, recordItems, decErr)
		} else {
			state.Items = items
		}
	}

	raw, ok, err = o.fetch(ctx, recordNotifications)
	if err != nil {
		return cart.SavedState{}, fmt.Errorf("load notification record: %w", err)
	}
	if ok {
		count, decErr := record.DecodeCount(raw)
		if decErr != nil {
			o.selfHeal(ctx, recordNotifications, decErr)
		} else {
			state.Notifications = count
		}
	}

	return state, nil
}

func (o *ownerRows) SaveItems(ctx context.Context, items []models.LineItem) error {
	raw, err := record.EncodeItems(items)
	if err != nil {
		return err
	}
	return o.upsert(ctx, recordItems, raw)
}

func (o *ownerRows) SaveNotifications(ctx context.Context, count int) error {
	raw, err := record.EncodeCount(count)
	if err != nil {
		return err
	}
	return o.upsert(ctx, recordNotifications, raw)
}

func (o *ownerRows) fetch(ctx context.Context, name string) ([]byte, bool, error) {
	var raw []byte
	err := o.db.QueryRowContext(ctx,
		`SELECT payload FROM cart_records WHERE owner_id = $1 AND record = $2`,
		o.owner, name,
	).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return raw, true, nil
}

func (o *ownerRows) upsert(ctx context.Context, name string, raw []byte) error {
	query := `
		INSERT INTO cart_records (owner_id, record, payload, updated_at)
		VALUES ($1, $2, $3, now())
		ON CONFLICT (owner_id, record) DO UPDATE SET
			payload = EXCLUDED.payload,
			updated_at = EXCLUDED.updated_at
	`
	if _, err := o.db.ExecContext(ctx, query, o.owner, name, raw); err != nil {
		return fmt.Errorf("save %s record: %w", name, err)
	}
	return nil
}

func (o *ownerRows) selfHeal(ctx context.Context, name string, cause error) {
	o.logger.Warn("discarding corrupt cart record",
		"owner", o.owner, "record", name, "error", cause)
	_, err := o.db.ExecContext(ctx,
		`DELETE FROM cart_records WHERE owner_id = $1 AND record = $2`,
		o.owner, name,
	)
	if err != nil {
		o.logger.Warn("failed to remove corrupt cart record",
			"owner", o.owner, "record", name, "error", err)
	}
}
