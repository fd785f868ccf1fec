package store

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"lgac/internal/payment"
	id "lgac/pkg/domain"
	"lgac/pkg/platform/sentinel"
)

// InMemory is a mutex-guarded payment store for tests and local runs.
type InMemory struct {
	mu sync.Mutex
	// byApp holds the authoritative rows; byRef indexes every reference ever
	// issued, including ones replaced by an initiation retry.
	byApp map[id.ApplicationID]*payment.Payment
	byRef map[string]id.ApplicationID
}

func NewInMemory() *InMemory {
	return &InMemory{
		byApp: make(map[id.ApplicationID]*payment.Payment),
		byRef: make(map[string]id.ApplicationID),
	}
}

func (s *InMemory) Upsert(_ context.Context, p *payment.Payment) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, taken := s.byRef[p.Reference]; taken {
		return sentinel.ErrConflict
	}
	clone := *p
	s.byApp[p.ApplicationID] = &clone
	s.byRef[p.Reference] = p.ApplicationID
	return nil
}

func (s *InMemory) FindByReference(_ context.Context, reference string) (*payment.Payment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lookupLocked(reference)
}

func (s *InMemory) FindByApplication(_ context.Context, appID id.ApplicationID) (*payment.Payment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.byApp[appID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	clone := *p
	return &clone, nil
}

func (s *InMemory) MarkSuccess(_ context.Context, reference string, payload json.RawMessage, paidAt time.Time) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, err := s.currentLocked(reference)
	if err != nil {
		return false, err
	}
	if p.Status == payment.StatusSuccess {
		return false, nil
	}
	p.Status = payment.StatusSuccess
	p.GatewayResponse = payload
	p.PaidAt = paidAt
	return true, nil
}

func (s *InMemory) MarkFailed(_ context.Context, reference string, payload json.RawMessage) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, err := s.currentLocked(reference)
	if err != nil {
		return false, err
	}
	if p.Status == payment.StatusSuccess {
		return false, nil
	}
	p.Status = payment.StatusFailed
	p.GatewayResponse = payload
	return true, nil
}

// lookupLocked resolves a reference to a copy of its payment row.
func (s *InMemory) lookupLocked(reference string) (*payment.Payment, error) {
	p, err := s.currentLocked(reference)
	if err != nil {
		return nil, err
	}
	clone := *p
	return &clone, nil
}

// currentLocked resolves a reference to the live row, but only while the row
// still carries that reference; superseded references are dead.
func (s *InMemory) currentLocked(reference string) (*payment.Payment, error) {
	appID, ok := s.byRef[reference]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	p, ok := s.byApp[appID]
	if !ok || p.Reference != reference {
		return nil, sentinel.ErrNotFound
	}
	return p, nil
}
