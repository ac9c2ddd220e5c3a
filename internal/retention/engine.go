// Package retention implements the erasure-vs-legal-claims decision for
// client deletion requests (GDPR Art 17 right to erasure against the
// Art 17(3)(e) legal-claims exception).
package retention

// Outcome is the decision for one deletion request.
type Outcome string

const (
	// OutcomeLegalHold denies erasure: procedures inside the liability
	// window mean the data must be retained for legal defense.
	OutcomeLegalHold Outcome = "legal_hold"
	// OutcomeAnonymized erases personal data but keeps the row for its
	// foreign-key-linked procedure history.
	OutcomeAnonymized Outcome = "anonymized"
	// OutcomeHardDeleted removes the client row entirely.
	OutcomeHardDeleted Outcome = "hard_deleted"
)

// Engine evaluates liability counts into an outcome. The rules are kept
// centralized and pure so they stay testable without a store.
type Engine struct{}

func NewEngine() Engine { return Engine{} }

// Decide applies the retention rules. Legal hold always wins over erasure
// regardless of how old other procedures are, because legal defense needs
// the client context even for claims tied only to recent procedures.
func (Engine) Decide(activeLiabilityCount, totalCount int) Outcome {
	if activeLiabilityCount > 0 {
		return OutcomeLegalHold
	}
	if totalCount > 0 {
		return OutcomeAnonymized
	}
	return OutcomeHardDeleted
}
