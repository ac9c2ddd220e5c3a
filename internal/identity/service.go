package identity

import (
	"context"
	"errors"
	"time"

	id "inkregister/pkg/domain"
	dErrors "inkregister/pkg/domain-errors"
	"inkregister/pkg/platform/sentinel"
)

// ProfileStore persists profile records.
type ProfileStore interface {
	Save(ctx context.Context, profile Profile) error
	FindByID(ctx context.Context, masterID id.MasterID) (Profile, error)
}

// TokenRevocationList tracks revoked token IDs until their natural expiry.
type TokenRevocationList interface {
	RevokeToken(ctx context.Context, jti string, ttl time.Duration) error
	IsRevoked(ctx context.Context, jti string) (bool, error)
}

// Service answers role questions and handles logout.
type Service struct {
	profiles ProfileStore
	trl      TokenRevocationList
}

func NewService(profiles ProfileStore, trl TokenRevocationList) *Service {
	return &Service{profiles: profiles, trl: trl}
}

// Role resolves the role for a master. Unknown masters get an error, not a
// default role.
func (s *Service) Role(ctx context.Context, masterID id.MasterID) (string, error) {
	profile, err := s.profiles.FindByID(ctx, masterID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return "", dErrors.New(dErrors.CodeForbidden, "no profile for caller")
		}
		return "", dErrors.Wrap(err, dErrors.CodeInternal, "profile lookup failed")
	}
	return profile.Role, nil
}

// Logout revokes the presented token until its expiry.
func (s *Service) Logout(ctx context.Context, jti string, ttl time.Duration) error {
	if s.trl == nil {
		return dErrors.New(dErrors.CodeInternal, "revocation store not configured")
	}
	if jti == "" {
		return dErrors.New(dErrors.CodeBadRequest, "token carries no ID")
	}
	if ttl <= 0 {
		// Already expired; nothing to revoke.
		return nil
	}
	if err := s.trl.RevokeToken(ctx, jti, ttl); err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to revoke token")
	}
	return nil
}

// IsRevoked satisfies middleware.RevocationChecker. A missing revocation
// store means no token is ever considered revoked.
func (s *Service) IsRevoked(ctx context.Context, jti string) (bool, error) {
	if s.trl == nil {
		return false, nil
	}
	return s.trl.IsRevoked(ctx, jti)
}
