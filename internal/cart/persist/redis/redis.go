package redis

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/redis/go-redis/v9"

	"savora/internal/cart"
	"savora/internal/cart/models"
	"savora/internal/cart/persist/record"
)

var corruptRecordsDiscarded = promauto.NewCounter(prometheus.CounterOpts{
	Name: "savora_cart_redis_corrupt_records_total",
	Help: "Corrupt cart records discarded from Redis during load",
})

// Key layout for the two records of one owner.
const (
	itemsKeyPrefix  = "cart:items:"
	notifsKeyPrefix = "cart:notifications:"
)

// Factory persists cart records as keyed Redis strings. This is the
// recommended backend when several storefront instances share one cache
// tier; records remain last-writer-wins across instances.
type Factory struct {
	client *redis.Client
	logger *slog.Logger
}

// Option configures a Factory.
type Option func(*Factory)

// WithLogger attaches a logger for self-healing events.
func WithLogger(logger *slog.Logger) Option {
	return func(f *Factory) { f.logger = logger }
}

// NewFactory builds a Redis-backed record store.
func NewFactory(client *redis.Client, opts ...Option) *Factory {
	f := &Factory{
		client: client,
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
	return &ownerKeys{
		client:    f.client,
		logger:    f.logger,
		itemsKey:  itemsKeyPrefix + owner,
		notifsKey: notifsKeyPrefix + owner,
	}
}

type ownerKeys struct {
	client    *redis.Client
	logger    *slog.Logger
	itemsKey  string
	notifsKey string
}

func (o *ownerKeys) Load(ctx context.Context) (cart.SavedState, error) {
	var state cart.SavedState

	raw, err := o.client.Get(ctx, o.itemsKey).Bytes()
	switch {
	case errors.Is(err, redis.Nil):
		// nothing previously stored
	case err != nil:
		return cart.SavedState{}, fmt.Errorf("load line-item record: %w", err)
	default:
		items, decErr := record.DecodeItems(raw)
		if decErr != nil {
			o.selfHeal(ctx, o.itemsKey, decErr)
		} else {
			state.Items = items
		}
	}

	raw, err = o.client.Get(ctx, o.notifsKey).Bytes()
	switch {
	case errors.Is(err, redis.Nil):
	case err != nil:
		return cart.SavedState{}, fmt.Errorf("load notification record: %w", err)
	default:
		count, decErr := record.DecodeCount(raw)
		if decErr != nil {
			o.selfHeal(ctx, o.notifsKey, decErr)
		} else {
			state.Notifications = count
		}
	}

	return state, nil
}

func (o *ownerKeys) SaveItems(ctx context.Context, items []models.LineItem) error {
	raw, err := record.EncodeItems(items)
	if err != nil {
		return err
	}
	if err := o.client.Set(ctx, o.itemsKey, raw, 0).Err(); err != nil {
		return fmt.Errorf("save line-item record: %w", err)
	}
	return nil
}

func (o *ownerKeys) SaveNotifications(ctx context.Context, count int) error {
	raw, err := record.EncodeCount(count)
	if err != nil {
		return err
	}
	if err := o.client.Set(ctx, o.notifsKey, raw, 0).Err(); err != nil {
		return fmt.Errorf("save notification record: %w", err)
	}
	return nil
}

func (o *ownerKeys) selfHeal(ctx context.Context, key string, cause error) {
	corruptRecordsDiscarded.Inc()
	o.logger.Warn("discarding corrupt cart record", "key", key, "error", cause)
	if err := o.client.Del(ctx, key).Err(); err != nil {
		o.logger.Warn("failed to remove corrupt cart record", "key", key, "error", err)
	}
}
