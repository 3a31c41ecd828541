package events

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEmitStampsTimestampAndAppends(t *testing.T) {
	store := NewMemoryStore()
	p := NewPublisher(store)

	p.Emit(context.Background(), Event{Owner: "alice", Action: ActionItemAdded})

	listed, err := store.ListByOwner(context.Background(), "alice")
	require.NoError(t, err)
	require.Len(t, listed, 1)
	assert.False(t, listed[0].Timestamp.IsZero())
}

func TestEmitKeepsCallerTimestamp(t *testing.T) {
	store := NewMemoryStore()
	p := NewPublisher(store)
	at := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	p.Emit(context.Background(), Event{Owner: "alice", Action: ActionCartCleared, Timestamp: at})

	listed, _ := store.ListByOwner(context.Background(), "alice")
	require.Len(t, listed, 1)
	assert.Equal(t, at, listed[0].Timestamp)
}

func TestListByOwnerFiltersOtherOwners(t *testing.T) {
	store := NewMemoryStore()
	p := NewPublisher(store)
	ctx := context.Background()

	p.Emit(ctx, Event{Owner: "alice", Action: ActionItemAdded})
	p.Emit(ctx, Event{Owner: "bob", Action: ActionItemAdded})
	p.Emit(ctx, Event{Owner: "alice", Action: ActionItemRemoved})

	listed, err := store.ListByOwner(ctx, "alice")
	require.NoError(t, err)
	require.Len(t, listed, 2)
	assert.Equal(t, ActionItemAdded, listed[0].Action)
	assert.Equal(t, ActionItemRemoved, listed[1].Action)
}

func TestAsyncPublisherFlushesOnClose(t *testing.T) {
	store := NewMemoryStore()
	p := NewPublisher(store, WithAsyncBuffer(10))
	ctx := context.Background()

	for range 5 {
		p.Emit(ctx, Event{Owner: "alice", Action: ActionItemAdded})
	}
	p.Close()

	listed, err := store.ListByOwner(ctx, "alice")
	require.NoError(t, err)
	assert.Len(t, listed, 5)
}

type failingStore struct{ calls int }

func (s *failingStore) Append(context.Context, Event) error {
	s.calls++
	return errors.New("sink down")
}

func TestEmitSwallowsStoreFailures(t *testing.T) {
	store := &failingStore{}
	p := NewPublisher(store)

	p.Emit(context.Background(), Event{Owner: "alice", Action: ActionItemAdded})
	p.Emit(context.Background(), Event{Owner: "alice", Action: ActionItemRemoved})
	assert.Equal(t, 2, store.calls)
}

func TestMultiFansOutToEverySink(t *testing.T) {
	a := NewMemoryStore()
	b := &failingStore{}
	c := NewMemoryStore()
	store := Multi(a, b, c)

	err := store.Append(context.Background(), Event{Owner: "alice", Action: ActionItemAdded})
	assert.Error(t, err)

	listed, _ := a.ListByOwner(context.Background(), "alice")
	assert.Len(t, listed, 1)
	listed, _ = c.ListByOwner(context.Background(), "alice")
	assert.Len(t, listed, 1, "failure in one sink must not starve the others")
}
