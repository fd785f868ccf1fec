package store

import (
	"context"
	"sort"
	"strings"
	"sync"

	"lgac/internal/lga"
	id "lgac/pkg/domain"
	"lgac/pkg/platform/sentinel"
)

// InMemory is the test and development LGA store.
type InMemory struct {
	mu    sync.RWMutex
	areas map[id.LGAID]lga.LGA
}

func NewInMemory() *InMemory {
	return &InMemory{areas: make(map[id.LGAID]lga.LGA)}
}

func (s *InMemory) Create(_ context.Context, area *lga.LGA) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.areas {
		if strings.EqualFold(existing.Name, area.Name) {
			return sentinel.ErrConflict
		}
		if area.Code != "" && strings.EqualFold(existing.Code, area.Code) {
			return sentinel.ErrConflict
		}
	}
	s.areas[area.ID] = *area
	return nil
}

func (s *InMemory) Update(_ context.Context, area *lga.LGA) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.areas[area.ID]; !ok {
		return sentinel.ErrNotFound
	}
	for otherID, existing := range s.areas {
		if otherID == area.ID {
			continue
		}
		if strings.EqualFold(existing.Name, area.Name) {
			return sentinel.ErrConflict
		}
		if area.Code != "" && strings.EqualFold(existing.Code, area.Code) {
			return sentinel.ErrConflict
		}
	}
	s.areas[area.ID] = *area
	return nil
}

func (s *InMemory) FindByID(_ context.Context, lgaID id.LGAID) (*lga.LGA, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	area, ok := s.areas[lgaID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	copied := area
	return &copied, nil
}

func (s *InMemory) ListActive(_ context.Context) ([]*lga.LGA, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*lga.LGA
	for _, area := range s.areas {
		if area.Active {
			copied := area
			out = append(out, &copied)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}
