// Package domain defines strongly typed identifiers shared across the
// application. Wrapping uuid.UUID in distinct types lets the compiler catch
// a master ID being passed where a client ID belongs.
package domain

import (
	"github.com/google/uuid"

	dErrors "inkregister/pkg/domain-errors"
)

// MasterID identifies the professional user performing procedures.
type MasterID uuid.UUID

// ClientID identifies the recipient of a procedure and the subject of the
// personal-data lifecycle.
type ClientID uuid.UUID

// ProcedureID identifies one completed service event.
type ProcedureID uuid.UUID

func (m MasterID) String() string    { return uuid.UUID(m).String() }
func (c ClientID) String() string    { return uuid.UUID(c).String() }
func (p ProcedureID) String() string { return uuid.UUID(p).String() }

func (m MasterID) IsNil() bool    { return uuid.UUID(m) == uuid.Nil }
func (c ClientID) IsNil() bool    { return uuid.UUID(c) == uuid.Nil }
func (p ProcedureID) IsNil() bool { return uuid.UUID(p) == uuid.Nil }

// NewClientID returns a freshly generated client ID.
func NewClientID() ClientID { return ClientID(uuid.New()) }

// NewProcedureID returns a freshly generated procedure ID.
func NewProcedureID() ProcedureID { return ProcedureID(uuid.New()) }

// parseUUID enforces the shared invariant: IDs must be valid, non-empty,
// non-nil UUIDs.
func parseUUID(raw, kind string) (uuid.UUID, error) {
	if raw == "" {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, kind+" must not be empty")
	}
	parsed, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, kind+" must be a valid UUID")
	}
	if parsed == uuid.Nil {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, kind+" must not be the nil UUID")
	}
	return parsed, nil
}

// ParseMasterID validates and converts a raw string into a MasterID.
func ParseMasterID(raw string) (MasterID, error) {
	parsed, err := parseUUID(raw, "master ID")
	if err != nil {
		return MasterID{}, err
	}
	return MasterID(parsed), nil
}

// ParseClientID validates and converts a raw string into a ClientID.
func ParseClientID(raw string) (ClientID, error) {
	parsed, err := parseUUID(raw, "client ID")
	if err != nil {
		return ClientID{}, err
	}
	return ClientID(parsed), nil
}

// ParseProcedureID validates and converts a raw string into a ProcedureID.
func ParseProcedureID(raw string) (ProcedureID, error) {
	parsed, err := parseUUID(raw, "procedure ID")
	if err != nil {
		return ProcedureID{}, err
	}
	return ProcedureID(parsed), nil
}
