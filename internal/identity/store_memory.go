package identity

import (
	"context"
	"sync"
	"time"

	id "inkregister/pkg/domain"
	"inkregister/pkg/platform/sentinel"
)

// InMemoryProfileStore keeps profiles in a map; used in tests and single-node
// development.
type InMemoryProfileStore struct {
	mu       sync.RWMutex
	profiles map[id.MasterID]Profile
}

func NewInMemoryProfileStore() *InMemoryProfileStore {
	return &InMemoryProfileStore{profiles: make(map[id.MasterID]Profile)}
}

func (s *InMemoryProfileStore) Save(_ context.Context, profile Profile) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.profiles[profile.MasterID] = profile
	return nil
}

func (s *InMemoryProfileStore) FindByID(_ context.Context, masterID id.MasterID) (Profile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	profile, ok := s.profiles[masterID]
	if !ok {
		return Profile{}, sentinel.ErrNotFound
	}
	return profile, nil
}

// InMemoryTRL is a map-backed token revocation list for tests and
// single-instance deployments without Redis.
type InMemoryTRL struct {
	mu      sync.RWMutex
	revoked map[string]time.Time
}

func NewInMemoryTRL() *InMemoryTRL {
	return &InMemoryTRL{revoked: make(map[string]time.Time)}
}

func (t *InMemoryTRL) RevokeToken(_ context.Context, jti string, ttl time.Duration) error {
	if jti == "" {
		return nil
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	t.revoked[jti] = time.Now().Add(ttl)
	return nil
}

func (t *InMemoryTRL) IsRevoked(_ context.Context, jti string) (bool, error) {
	if jti == "" {
		return false, nil
	}
	t.mu.RLock()
	expiry, ok := t.revoked[jti]
	t.mu.RUnlock()
	if !ok {
		return false, nil
	}
	if time.Now().After(expiry) {
		t.mu.Lock()
		delete(t.revoked, jti)
		t.mu.Unlock()
		return false, nil
	}
	return true, nil
}
