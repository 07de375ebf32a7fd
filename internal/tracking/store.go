package tracking

import (
	"context"
	"errors"
	"sync"

	"projectpulse/internal/model"
)

// ErrNotFound is returned by Get when no record exists for a project id.
var ErrNotFound = errors.New("tracking record not found")

// Store persists tracking records keyed by project id. Records must
// survive a JSON round trip without losing any field.
type Store interface {
	Get(ctx context.Context, projectID string) (*model.TrackingRecord, error)
	Put(ctx context.Context, record *model.TrackingRecord) error
}

// MemoryStore keeps records in process memory. Used in tests and in
// deployments that accept losing baselines on restart.
type MemoryStore struct {
	mu      sync.RWMutex
	records map[string]model.TrackingRecord
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{records: make(map[string]model.TrackingRecord)}
}

func (s *MemoryStore) Get(_ context.Context, projectID string) (*model.TrackingRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rec, ok := s.records[projectID]
	if !ok {
		return nil, ErrNotFound
	}
	copied := rec
	copied.Milestones = append([]model.MilestoneBaseline(nil), rec.Milestones...)
	return &copied, nil
}

func (s *MemoryStore) Put(_ context.Context, record *model.TrackingRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	copied := *record
	copied.Milestones = append([]model.MilestoneBaseline(nil), record.Milestones...)
	s.records[record.ProjectID] = copied
	return nil
}
