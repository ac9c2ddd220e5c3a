// Package adverse records safety incidents observed after a procedure, the
// vigilance trail health authorities ask for.
package adverse

import (
	"context"
	"time"

	"github.com/google/uuid"

	id "inkregister/pkg/domain"
)

// Severity grades an incident. The scale is fixed; reports outside it are
// rejected at validation.
type Severity string

const (
	SeverityMild     Severity = "mild"
	SeverityModerate Severity = "moderate"
	SeveritySevere   Severity = "severe"
	SeverityCritical Severity = "critical"
)

// Event is one reported incident tied to the procedure it followed. Rows are
// append-only.
type Event struct {
	ID          uuid.UUID
	ProcedureID id.ProcedureID
	ClientID    id.ClientID
	MasterID    id.MasterID
	Severity    Severity
	Description string
	ActionTaken string
	CreatedAt   time.Time
}

// Store persists adverse events.
type Store interface {
	Create(ctx context.Context, event Event) error
	ListByMaster(ctx context.Context, masterID id.MasterID) ([]Event, error)
	ListByProcedure(ctx context.Context, procedureID id.ProcedureID) ([]Event, error)
}
