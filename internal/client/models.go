// Package client holds the identity records of procedure recipients and the
// storage contract the retention policy mutates.
package client

import (
	"context"
	"time"

	id "inkregister/pkg/domain"
)

// Status tracks where a client sits in the personal-data lifecycle.
type Status string

const (
	StatusActive    Status = "active"
	StatusLegalHold Status = "legal_hold"
	StatusDeleted   Status = "deleted"
)

// Anonymization sentinel values. The overwrite must keep the row (and its
// foreign-key-linked procedures) intact for statistical continuity while
// breaking the personal-data link.
const (
	AnonymizedName       = "DELETED_USER"
	anonymizedHashPrefix = "DELETED_"
)

// AnonymizedBirthDate is the sentinel birth date written on anonymization.
var AnonymizedBirthDate = time.Date(1900, time.January, 1, 0, 0, 0, 0, time.UTC)

// AnonymizedHash derives a per-client hash replacement that can never match
// a personal-code lookup again.
func AnonymizedHash(clientID id.ClientID) string {
	return anonymizedHashPrefix + clientID.String()
}

// Client is one identity record. The raw national personal identifier is
// never persisted; PersonalCodeHash is the one-way lookup key.
type Client struct {
	ID               id.ClientID
	FullName         string
	PersonalCodeHash string
	BirthDate        time.Time
	Status           Status
	CreatedAt        time.Time
}

// IsAnonymized reports whether the personal fields already hold sentinel
// values, making a repeat anonymization a no-op in effect.
func (c Client) IsAnonymized() bool {
	return c.Status == StatusDeleted && c.FullName == AnonymizedName
}

// Store persists client records. Uniqueness of PersonalCodeHash is enforced
// here (unique index / map key), not by application locking, so concurrent
// find-or-create calls converge on one row.
type Store interface {
	// FindOrCreate returns the client row owning the candidate's
	// PersonalCodeHash, inserting the candidate when no such row exists.
	// The boolean reports whether an insert happened.
	FindOrCreate(ctx context.Context, candidate Client) (Client, bool, error)
	FindByID(ctx context.Context, clientID id.ClientID) (Client, error)
	SetStatus(ctx context.Context, clientID id.ClientID, status Status) error
	// Anonymize overwrites the personal fields with sentinel values and sets
	// status deleted, preserving the row.
	Anonymize(ctx context.Context, clientID id.ClientID) error
	// Delete removes the row entirely. Only legal for clients with zero
	// procedures; the store's foreign keys back this up.
	Delete(ctx context.Context, clientID id.ClientID) error
}
