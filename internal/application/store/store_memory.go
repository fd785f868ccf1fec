package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"lgac/internal/application"
	id "lgac/pkg/domain"
	"lgac/pkg/platform/sentinel"
)

// InMemory is a mutex-guarded application store for tests and local runs.
type InMemory struct {
	mu     sync.Mutex
	nextID int64
	apps   map[id.ApplicationID]*application.Application
}

func NewInMemory() *InMemory {
	return &InMemory{nextID: 1, apps: make(map[id.ApplicationID]*application.Application)}
}

func (s *InMemory) Create(_ context.Context, app *application.Application) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	app.ID = id.ApplicationID(s.nextID)
	s.nextID++
	clone := *app
	s.apps[app.ID] = &clone
	return nil
}

func (s *InMemory) Update(_ context.Context, app *application.Application) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.apps[app.ID]; !ok {
		return sentinel.ErrNotFound
	}
	clone := *app
	s.apps[app.ID] = &clone
	return nil
}

func (s *InMemory) FindByID(_ context.Context, appID id.ApplicationID) (*application.Application, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	app, ok := s.apps[appID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	clone := *app
	return &clone, nil
}

func (s *InMemory) FindByHash(_ context.Context, hash string) (*application.Application, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if hash == "" {
		return nil, sentinel.ErrNotFound
	}
	for _, app := range s.apps {
		if app.CertificateHash == hash {
			clone := *app
			return &clone, nil
		}
	}
	return nil, sentinel.ErrNotFound
}

func (s *InMemory) ListByApplicant(_ context.Context, applicant id.UserID) ([]*application.Application, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []*application.Application
	for _, app := range s.apps {
		if app.ApplicantID == applicant {
			clone := *app
			out = append(out, &clone)
		}
	}
	sortByID(out)
	return out, nil
}

func (s *InMemory) ListByLGA(_ context.Context, lga id.LGAID, statuses ...application.Status) ([]*application.Application, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []*application.Application
	for _, app := range s.apps {
		if app.LGAID != lga {
			continue
		}
		if len(statuses) > 0 && !statusIn(app.Status, statuses) {
			continue
		}
		clone := *app
		out = append(out, &clone)
	}
	sortByID(out)
	return out, nil
}

func (s *InMemory) UpdateStatus(_ context.Context, appID id.ApplicationID, from, to application.Status) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	app, ok := s.apps[appID]
	if !ok {
		return false, sentinel.ErrNotFound
	}
	if app.Status != from {
		return false, nil
	}
	app.Status = to
	return true, nil
}

func (s *InMemory) SetCertificate(_ context.Context, appID id.ApplicationID, number, hash string, approvedAt time.Time) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	app, ok := s.apps[appID]
	if !ok {
		return false, sentinel.ErrNotFound
	}
	if app.CertificateNumber != "" {
		return false, nil
	}
	app.CertificateNumber = number
	app.CertificateHash = hash
	app.ApprovedAt = approvedAt
	return true, nil
}

func (s *InMemory) SetReviewNotes(_ context.Context, appID id.ApplicationID, notes string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	app, ok := s.apps[appID]
	if !ok {
		return sentinel.ErrNotFound
	}
	app.ReviewNotes = notes
	return nil
}

func sortByID(apps []*application.Application) {
	sort.Slice(apps, func(i, j int) bool { return apps[i].ID < apps[j].ID })
}

func statusIn(s application.Status, set []application.Status) bool {
	for _, candidate := range set {
		if s == candidate {
			return true
		}
	}
	return false
}
