package procedure

import (
	"context"
	"sort"
	"sync"
	"time"

	id "inkregister/pkg/domain"
	"inkregister/pkg/platform/sentinel"
)

// InMemoryStore keeps procedures and waivers in maps; the single mutex makes
// CreateWithWaiver naturally atomic.
type InMemoryStore struct {
	mu         sync.Mutex
	procedures map[id.ProcedureID]Procedure
	waivers    map[id.ProcedureID]Waiver
	// FailCreates forces CreateWithWaiver to fail; lets workflow tests
	// exercise the compensation path.
	FailCreates bool
	// FailWaiverLookups forces WaiverByProcedure to fail so callers'
	// degraded paths can be exercised.
	FailWaiverLookups bool
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{
		procedures: make(map[id.ProcedureID]Procedure),
		waivers:    make(map[id.ProcedureID]Waiver),
	}
}

func (s *InMemoryStore) CreateWithWaiver(_ context.Context, proc Procedure, waiver Waiver) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.FailCreates {
		return sentinel.ErrUnavailable
	}
	if _, exists := s.procedures[proc.ID]; exists {
		return sentinel.ErrConflict
	}
	s.procedures[proc.ID] = proc
	s.waivers[waiver.ProcedureID] = waiver
	return nil
}

func (s *InMemoryStore) FindByID(_ context.Context, procedureID id.ProcedureID) (Procedure, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	proc, ok := s.procedures[procedureID]
	if !ok {
		return Procedure{}, sentinel.ErrNotFound
	}
	return proc, nil
}

func (s *InMemoryStore) ListByMaster(_ context.Context, masterID id.MasterID) ([]Procedure, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []Procedure
	for _, proc := range s.procedures {
		if proc.MasterID == masterID {
			out = append(out, proc)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (s *InMemoryStore) CountByClientSince(_ context.Context, clientID id.ClientID, cutoff time.Time) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	count := 0
	for _, proc := range s.procedures {
		if proc.ClientID == clientID && !proc.CreatedAt.Before(cutoff) {
			count++
		}
	}
	return count, nil
}

func (s *InMemoryStore) CountByClient(_ context.Context, clientID id.ClientID) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	count := 0
	for _, proc := range s.procedures {
		if proc.ClientID == clientID {
			count++
		}
	}
	return count, nil
}

func (s *InMemoryStore) WaiverByProcedure(_ context.Context, procedureID id.ProcedureID) (Waiver, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.FailWaiverLookups {
		return Waiver{}, sentinel.ErrUnavailable
	}
	waiver, ok := s.waivers[procedureID]
	if !ok {
		return Waiver{}, sentinel.ErrNotFound
	}
	return waiver, nil
}
