package audit

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/facilityos/facilityos/internal/store"
)

// maxStoredEvents caps the persisted log so the store entry cannot grow
// without bound. Older events roll off; durability beyond best effort is
// out of scope.
const maxStoredEvents = 500

// StoreSink appends events to the AUDIT_LOG_V1 store entry. Every
// failure is swallowed after a debug log; audit persistence is best
// effort and must never propagate to the caller.
type StoreSink struct {
	store store.Store
}

// NewStoreSink creates a store-backed sink.
func NewStoreSink(s store.Store) *StoreSink {
	return &StoreSink{store: s}
}

// Append reads the current log, appends the event, and writes the log
// back, trimming to the newest maxStoredEvents entries.
func (s *StoreSink) Append(ctx context.Context, event Event) {
	var events []Event
	raw, found, err := s.store.Get(ctx, store.KeyAuditLog)
	if err != nil {
		slog.DebugContext(ctx, "audit store read failed", "error", err.Error())
		return
	}
	if found {
		// A corrupted log is discarded and restarted rather than surfaced.
		if err := json.Unmarshal([]byte(raw), &events); err != nil {
			events = nil
		}
	}
	events = append(events, event)
	if len(events) > maxStoredEvents {
		events = events[len(events)-maxStoredEvents:]
	}
	encoded, err := json.Marshal(events)
	if err != nil {
		slog.DebugContext(ctx, "audit event encode failed", "error", err.Error())
		return
	}
	if err := s.store.Set(ctx, store.KeyAuditLog, string(encoded)); err != nil {
		slog.DebugContext(ctx, "audit store write failed", "error", err.Error())
	}
}
