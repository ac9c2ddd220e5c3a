package identity_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"

	"inkregister/internal/identity"
	id "inkregister/pkg/domain"
	dErrors "inkregister/pkg/domain-errors"
)

type IdentityServiceSuite struct {
	suite.Suite
	profiles *identity.InMemoryProfileStore
	trl      *identity.InMemoryTRL
	service  *identity.Service
}

func TestIdentityServiceSuite(t *testing.T) {
	suite.Run(t, new(IdentityServiceSuite))
}

func (s *IdentityServiceSuite) SetupTest() {
	s.profiles = identity.NewInMemoryProfileStore()
	s.trl = identity.NewInMemoryTRL()
	s.service = identity.NewService(s.profiles, s.trl)
}

func (s *IdentityServiceSuite) TestRole() {
	ctx := context.Background()
	masterID := id.MasterID(uuid.New())
	s.Require().NoError(s.profiles.Save(ctx, identity.Profile{
		MasterID:  masterID,
		FullName:  "Liis Lepp",
		Role:      identity.RoleMaster,
		CreatedAt: time.Now(),
	}))

	s.Run("known profile resolves", func() {
		role, err := s.service.Role(ctx, masterID)
		s.Require().NoError(err)
		s.Equal(identity.RoleMaster, role)
	})

	s.Run("unknown master is forbidden, not defaulted", func() {
		_, err := s.service.Role(ctx, id.MasterID(uuid.New()))
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeForbidden))
	})
}

func (s *IdentityServiceSuite) TestLogout() {
	ctx := context.Background()

	s.Run("revokes until expiry", func() {
		s.Require().NoError(s.service.Logout(ctx, "jti-1", time.Minute))
		revoked, err := s.service.IsRevoked(ctx, "jti-1")
		s.Require().NoError(err)
		s.True(revoked)
	})

	s.Run("expired token is a no-op", func() {
		s.Require().NoError(s.service.Logout(ctx, "jti-2", -time.Second))
		revoked, err := s.service.IsRevoked(ctx, "jti-2")
		s.Require().NoError(err)
		s.False(revoked)
	})

	s.Run("missing token ID rejected", func() {
		err := s.service.Logout(ctx, "", time.Minute)
		s.True(dErrors.HasCode(err, dErrors.CodeBadRequest))
	})
}

func (s *IdentityServiceSuite) TestNoRevocationStore() {
	ctx := context.Background()
	bare := identity.NewService(s.profiles, nil)

	revoked, err := bare.IsRevoked(ctx, "anything")
	s.Require().NoError(err)
	s.False(revoked)

	err = bare.Logout(ctx, "jti", time.Minute)
	s.True(dErrors.HasCode(err, dErrors.CodeInternal))
}

func TestValidRole(t *testing.T) {
	for _, role := range []string{identity.RoleAdmin, identity.RoleMaster, identity.RoleClient} {
		if !identity.ValidRole(role) {
			t.Errorf("expected %q to be valid", role)
		}
	}
	if identity.ValidRole("superuser") {
		t.Error("unknown role accepted")
	}
}
