package audit

import (
	"context"
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/facilityos/facilityos/internal/store"
	storebuntdb "github.com/facilityos/facilityos/internal/store/buntdb"
)

// captureSink records delivered events for assertions.
type captureSink struct {
	mu     sync.Mutex
	events []Event
}

func (s *captureSink) Append(ctx context.Context, event Event) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, event)
}

func (s *captureSink) all() []Event {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Event(nil), s.events...)
}

func TestDispatcher_DeliversToAllSinks(t *testing.T) {
	first := &captureSink{}
	second := &captureSink{}
	d := NewDispatcher(16, first, second)

	d.Log(context.Background(), Event{Type: TypeLogin, ActorID: "usr-0001"})
	d.Close()

	require.Len(t, first.all(), 1)
	require.Len(t, second.all(), 1)
	assert.Equal(t, TypeLogin, first.all()[0].Type)
	assert.False(t, first.all()[0].Timestamp.IsZero(), "dispatcher must stamp events")
}

func TestDispatcher_CloseDrainsQueue(t *testing.T) {
	sink := &captureSink{}
	d := NewDispatcher(64, sink)

	for i := 0; i < 20; i++ {
		d.Log(context.Background(), Event{Type: TypeUserUpdated})
	}
	d.Close()

	assert.Len(t, sink.all(), 20)
}

func TestDispatcher_LogAfterCloseIsDroppedAndCounted(t *testing.T) {
	sink := &captureSink{}
	d := NewDispatcher(4, sink)
	d.Close()

	d.Log(context.Background(), Event{Type: TypeLogout})
	d.Log(context.Background(), Event{Type: TypeLogin})
	assert.Empty(t, sink.all())
	assert.Equal(t, uint64(2), d.Dropped(), "events arriving at shutdown must still be accounted for")
}

func TestStoreSink_AppendsAndCaps(t *testing.T) {
	db, err := storebuntdb.Open(":memory:")
	require.NoError(t, err)
	defer db.Close()
	ctx := context.Background()
	sink := NewStoreSink(db)

	sink.Append(ctx, Event{Type: TypeLogin, ActorID: "usr-0001", Timestamp: time.Now()})
	sink.Append(ctx, Event{Type: TypeLogout, ActorID: "usr-0001", Timestamp: time.Now()})

	raw, found, err := db.Get(ctx, store.KeyAuditLog)
	require.NoError(t, err)
	require.True(t, found)
	var events []Event
	require.NoError(t, json.Unmarshal([]byte(raw), &events))
	require.Len(t, events, 2)
	assert.Equal(t, TypeLogin, events[0].Type)
	assert.Equal(t, TypeLogout, events[1].Type)
}

// A corrupted persisted log restarts instead of poisoning future appends.
func TestStoreSink_RecoversFromCorruptLog(t *testing.T) {
	db, err := storebuntdb.Open(":memory:")
	require.NoError(t, err)
	defer db.Close()
	ctx := context.Background()
	require.NoError(t, db.Set(ctx, store.KeyAuditLog, "{not json"))

	sink := NewStoreSink(db)
	sink.Append(ctx, Event{Type: TypeLogin, Timestamp: time.Now()})

	raw, _, err := db.Get(ctx, store.KeyAuditLog)
	require.NoError(t, err)
	var events []Event
	require.NoError(t, json.Unmarshal([]byte(raw), &events))
	assert.Len(t, events, 1)
}
