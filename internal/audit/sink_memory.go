package audit

import (
	"context"
	"sync"

	id "lgac/pkg/domain"
)

// MemorySink keeps events in memory for tests and local runs.
type MemorySink struct {
	mu     sync.Mutex
	events []Event
}

func NewMemorySink() *MemorySink {
	return &MemorySink{}
}

func (s *MemorySink) Append(_ context.Context, event Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, event)
	return nil
}

// Events returns a copy of everything appended so far.
func (s *MemorySink) Events() []Event {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Event, len(s.events))
	copy(out, s.events)
	return out
}

// ListByActor filters recorded events by actor, newest last.
func (s *MemorySink) ListByActor(actor id.UserID) []Event {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []Event
	for _, e := range s.events {
		if e.ActorID == actor {
			out = append(out, e)
		}
	}
	return out
}
