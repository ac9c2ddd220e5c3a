// Package procedure holds the immutable service-event records that anchor
// liability, and the 1:1 waiver documents sealed with them.
package procedure

import (
	"context"
	"time"

	id "inkregister/pkg/domain"
)

// StatusCompleted is the only status written today; the column exists so a
// draft/void lifecycle can be added without a migration.
const StatusCompleted = "completed"

// HealthScreening is the structured health questionnaire captured at intake.
// Known contraindication flags are typed; anything else the form collects
// rides in Extra.
type HealthScreening struct {
	Pregnant          bool           `json:"pregnant"`
	Diabetes          bool           `json:"diabetes"`
	BloodDisorder     bool           `json:"blood_disorder"`
	SkinCondition     bool           `json:"skin_condition"`
	Allergies         bool           `json:"allergies"`
	BloodThinners     bool           `json:"blood_thinners"`
	RecentSunExposure bool           `json:"recent_sun_exposure"`
	Notes             string         `json:"notes,omitempty"`
	Extra             map[string]any `json:"extra,omitempty"`
}

// Procedure is one completed service event. Client name and personal-code
// hash are denormalized onto the row so the record keeps point-in-time audit
// fidelity even after the client is anonymized. Rows are append-only.
type Procedure struct {
	ID          id.ProcedureID
	MasterID    id.MasterID
	ClientID    id.ClientID
	Type        string
	Pigment     string
	Shade       string
	BatchNumber string
	NeedleSize  string

	ClientName             string
	ClientPersonalCodeHash string
	ClientBirthDate        time.Time

	HealthData HealthScreening
	Status     string
	CreatedAt  time.Time
}

// Waiver is the signed consent document tied 1:1 to a procedure.
type Waiver struct {
	ProcedureID id.ProcedureID
	StoragePath string
	CreatedAt   time.Time
}

// Store persists procedures and waivers. CreateWithWaiver is the single
// write path and must be atomic: a procedure row without its waiver is a
// compliance defect, not a partial success.
type Store interface {
	CreateWithWaiver(ctx context.Context, proc Procedure, waiver Waiver) error
	FindByID(ctx context.Context, procedureID id.ProcedureID) (Procedure, error)
	ListByMaster(ctx context.Context, masterID id.MasterID) ([]Procedure, error)
	// CountByClientSince counts procedures for a client created at or after
	// cutoff. The boundary is inclusive: a procedure dated exactly at the
	// cutoff instant still anchors liability.
	CountByClientSince(ctx context.Context, clientID id.ClientID, cutoff time.Time) (int, error)
	CountByClient(ctx context.Context, clientID id.ClientID) (int, error)
	WaiverByProcedure(ctx context.Context, procedureID id.ProcedureID) (Waiver, error)
}
