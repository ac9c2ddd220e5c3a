package adverse

import (
	"context"
	"errors"
	"sort"
	"sync"

	id "inkregister/pkg/domain"
)

var errCreateFailed = errors.New("adverse: create failed")

// InMemoryStore keeps events in a slice guarded by a mutex.
type InMemoryStore struct {
	mu     sync.Mutex
	events []Event

	// FailCreates forces Create to fail; lets workflow tests exercise the
	// store-failure path.
	FailCreates bool
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{}
}

func (s *InMemoryStore) Create(_ context.Context, event Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.FailCreates {
		return errCreateFailed
	}
	s.events = append(s.events, event)
	return nil
}

func (s *InMemoryStore) ListByMaster(_ context.Context, masterID id.MasterID) ([]Event, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []Event
	for _, e := range s.events {
		if e.MasterID == masterID {
			out = append(out, e)
		}
	}
	sortNewestFirst(out)
	return out, nil
}

func (s *InMemoryStore) ListByProcedure(_ context.Context, procedureID id.ProcedureID) ([]Event, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []Event
	for _, e := range s.events {
		if e.ProcedureID == procedureID {
			out = append(out, e)
		}
	}
	sortNewestFirst(out)
	return out, nil
}

// Len reports the number of stored events; test helper.
func (s *InMemoryStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.events)
}

func sortNewestFirst(events []Event) {
	sort.Slice(events, func(i, j int) bool {
		return events[i].CreatedAt.After(events[j].CreatedAt)
	})
}
