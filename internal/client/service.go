package client

import (
	"context"
	"errors"

	id "inkregister/pkg/domain"
	dErrors "inkregister/pkg/domain-errors"
	"inkregister/pkg/platform/sentinel"
	"inkregister/pkg/requestcontext"
)

// Service exposes read access to client records.
type Service struct {
	clients Store
}

func NewService(clients Store) *Service {
	return &Service{clients: clients}
}

// Get returns one client record for an authenticated caller.
func (s *Service) Get(ctx context.Context, clientID id.ClientID) (Client, error) {
	if requestcontext.MasterID(ctx).IsNil() {
		return Client{}, dErrors.New(dErrors.CodeUnauthorized, "authentication required")
	}
	c, err := s.clients.FindByID(ctx, clientID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return Client{}, dErrors.Wrap(err, dErrors.CodeNotFound, "client not found")
		}
		return Client{}, dErrors.Wrap(err, dErrors.CodeInternal, "error loading client")
	}
	return c, nil
}
