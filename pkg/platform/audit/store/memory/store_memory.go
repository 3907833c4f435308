package memory

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"customerapi/pkg/platform/audit"

	"github.com/google/uuid"
)

// DefaultHistoryLimit bounds how many events ListAll and ListBySubject can see.
const DefaultHistoryLimit = 1000

// InMemoryStore keeps audit events in process memory. It also behaves as an
// outbox so the relay worker runs the same way without PostgreSQL.
// Published entries are released; only the most recent events stay queryable.
type InMemoryStore struct {
	mu           sync.RWMutex
	pending      []audit.OutboxEntry
	history      []audit.Event
	historyLimit int
}

type Option func(*InMemoryStore)

// WithHistoryLimit caps the retained event history. Values below 1 are ignored.
func WithHistoryLimit(n int) Option {
	return func(s *InMemoryStore) {
		if n > 0 {
			s.historyLimit = n
		}
	}
}

func NewInMemoryStore(opts ...Option) *InMemoryStore {
	s := &InMemoryStore{historyLimit: DefaultHistoryLimit}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *InMemoryStore) Append(_ context.Context, event audit.Event) error {
	eventID := uuid.New()
	payload, err := json.Marshal(audit.NewPayload(eventID, event))
	if err != nil {
		return fmt.Errorf("marshal audit payload: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.pending = append(s.pending, audit.OutboxEntry{
		ID:          eventID,
		AggregateID: event.Subject,
		EventType:   event.Action,
		Payload:     payload,
		CreatedAt:   time.Now(),
	})
	if len(s.history) == s.historyLimit {
		copy(s.history, s.history[1:])
		s.history[len(s.history)-1] = event
	} else {
		s.history = append(s.history, event)
	}
	return nil
}

// ListAll returns the retained events in append order.
func (s *InMemoryStore) ListAll(_ context.Context) ([]audit.Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]audit.Event, len(s.history))
	copy(out, s.history)
	return out, nil
}

// ListBySubject returns retained events whose Subject matches subject.
func (s *InMemoryStore) ListBySubject(_ context.Context, subject string) ([]audit.Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []audit.Event
	for _, e := range s.history {
		if e.Subject == subject {
			out = append(out, e)
		}
	}
	return out, nil
}

// FetchUnpublished returns up to limit entries not yet marked published.
func (s *InMemoryStore) FetchUnpublished(_ context.Context, limit int) ([]audit.OutboxEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	n := min(limit, len(s.pending))
	if n <= 0 {
		return nil, nil
	}
	out := make([]audit.OutboxEntry, n)
	copy(out, s.pending[:n])
	return out, nil
}

// MarkPublished drops the given entries from the outbox.
func (s *InMemoryStore) MarkPublished(_ context.Context, ids []uuid.UUID) error {
	done := make(map[uuid.UUID]struct{}, len(ids))
	for _, id := range ids {
		done[id] = struct{}{}
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	kept := s.pending[:0]
	for _, e := range s.pending {
		if _, ok := done[e.ID]; !ok {
			kept = append(kept, e)
		}
	}
	clear(s.pending[len(kept):])
	s.pending = kept
	return nil
}
