package client

import (
	"context"
	"sync"

	id "inkregister/pkg/domain"
	"inkregister/pkg/platform/sentinel"
)

// InMemoryStore keeps clients in maps guarded by one mutex, mirroring the
// storage-level uniqueness guarantee on the personal-code hash.
type InMemoryStore struct {
	mu      sync.Mutex
	byID    map[id.ClientID]Client
	byHash  map[string]id.ClientID
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{
		byID:   make(map[id.ClientID]Client),
		byHash: make(map[string]id.ClientID),
	}
}

func (s *InMemoryStore) FindOrCreate(_ context.Context, candidate Client) (Client, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if existingID, ok := s.byHash[candidate.PersonalCodeHash]; ok {
		return s.byID[existingID], false, nil
	}
	s.byID[candidate.ID] = candidate
	s.byHash[candidate.PersonalCodeHash] = candidate.ID
	return candidate, true, nil
}

func (s *InMemoryStore) FindByID(_ context.Context, clientID id.ClientID) (Client, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.byID[clientID]
	if !ok {
		return Client{}, sentinel.ErrNotFound
	}
	return c, nil
}

func (s *InMemoryStore) SetStatus(_ context.Context, clientID id.ClientID, status Status) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.byID[clientID]
	if !ok {
		return sentinel.ErrNotFound
	}
	c.Status = status
	s.byID[clientID] = c
	return nil
}

func (s *InMemoryStore) Anonymize(_ context.Context, clientID id.ClientID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.byID[clientID]
	if !ok {
		return sentinel.ErrNotFound
	}
	delete(s.byHash, c.PersonalCodeHash)
	c.FullName = AnonymizedName
	c.PersonalCodeHash = AnonymizedHash(clientID)
	c.BirthDate = AnonymizedBirthDate
	c.Status = StatusDeleted
	s.byID[clientID] = c
	s.byHash[c.PersonalCodeHash] = clientID
	return nil
}

// Len reports the number of stored clients; test helper.
func (s *InMemoryStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.byID)
}

func (s *InMemoryStore) Delete(_ context.Context, clientID id.ClientID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.byID[clientID]
	if !ok {
		return sentinel.ErrNotFound
	}
	delete(s.byHash, c.PersonalCodeHash)
	delete(s.byID, clientID)
	return nil
}
