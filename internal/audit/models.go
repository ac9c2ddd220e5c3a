// Package audit provides the append-only accountability trail. Every
// state-changing or denied operation produces exactly one entry; entries are
// never mutated or deleted.
package audit

import (
	"time"

	"github.com/google/uuid"

	id "inkregister/pkg/domain"
)

// Action enumerates auditable actions.
type Action string

const (
	// ActionProcedureCompleted seals a procedure with its waiver; the entry
	// carries the content hash for non-repudiation.
	ActionProcedureCompleted Action = "PROCEDURE_COMPLETED_WITH_WAIVER"

	// ActionDeletionDeniedLegalHold records a denied erasure request under
	// the legal-claims retention exception (GDPR Art 17(3)(e)).
	ActionDeletionDeniedLegalHold Action = "DATA_DELETION_DENIED_LEGAL_HOLD"

	// ActionClientAnonymized records erasure satisfied by anonymization.
	ActionClientAnonymized Action = "DATA_ANONYMIZED"

	// ActionClientHardDeleted records erasure satisfied by row removal.
	ActionClientHardDeleted Action = "DATA_HARD_DELETED"

	// ActionAdverseEventReported seals a safety incident report.
	ActionAdverseEventReported Action = "ADVERSE_EVENT_REPORTED"
)

// Entry is one accountability record. Keep it transport-agnostic so stores
// and sinks can fan out.
type Entry struct {
	ID        uuid.UUID
	ActorID   id.MasterID
	Action    Action
	TableName string
	RecordID  string
	Details   map[string]any
	IP        string
	UserAgent string
	RequestID string
	CreatedAt time.Time
}
