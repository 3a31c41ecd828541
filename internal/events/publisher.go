package events

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// Publisher captures cart activity events. It is append-only and uses the
// store for persistence so tests can swap sinks easily. With an async
// buffer, Emit enqueues and a background worker drains; a full buffer drops
// the event rather than stalling a request.
type Publisher struct {
	store  Store
	logger *slog.Logger

	inbox chan Event
	done  chan struct{}
	wg    sync.WaitGroup
}

// Option configures a Publisher.
type Option func(*Publisher)

// WithAsyncBuffer makes Emit non-blocking behind a buffered channel of the
// given size.
func WithAsyncBuffer(size int) Option {
	return func(p *Publisher) {
		if size > 0 {
			p.inbox = make(chan Event, size)
		}
	}
}

// WithLogger attaches a logger for dropped or failed events.
func WithLogger(logger *slog.Logger) Option {
	return func(p *Publisher) { p.logger = logger }
}

func NewPublisher(store Store, opts ...Option) *Publisher {
	p := &Publisher{
		store:  store,
		logger: slog.New(slog.DiscardHandler),
		done:   make(chan struct{}),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(p)
		}
	}
	if p.inbox != nil {
		p.wg.Add(1)
		go p.drain()
	}
	return p
}

// Emit records the event. Failures are logged, never returned: cart
// operations must not fail because the activity log is unhappy.
func (p *Publisher) Emit(ctx context.Context, event Event) {
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}
	if p.inbox == nil {
		p.append(ctx, event)
		return
	}
	select {
	case p.inbox <- event:
	default:
		p.logger.Warn("event buffer full; dropping cart event",
			"action", event.Action, "owner", event.Owner)
	}
}

// Close stops the background worker after flushing buffered events. Safe
// only once.
func (p *Publisher) Close() {
	if p.inbox == nil {
		return
	}
	close(p.done)
	p.wg.Wait()
}

func (p *Publisher) drain() {
	defer p.wg.Done()
	for {
		select {
		case event := <-p.inbox:
			p.append(context.Background(), event)
		case <-p.done:
			for {
				select {
				case event := <-p.inbox:
					p.append(context.Background(), event)
				default:
					return
				}
			}
		}
	}
}

func (p *Publisher) append(ctx context.Context, event Event) {
	if err := p.store.Append(ctx, event); err != nil {
		p.logger.Warn("cart event append failed",
			"action", event.Action, "owner", event.Owner, "error", err)
	}
}
