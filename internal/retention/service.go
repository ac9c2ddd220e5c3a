package retention

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"inkregister/internal/audit"
	"inkregister/internal/client"
	"inkregister/internal/platform/metrics"
	id "inkregister/pkg/domain"
	dErrors "inkregister/pkg/domain-errors"
	"inkregister/pkg/platform/sentinel"
	"inkregister/pkg/requestcontext"
)

// ProcedureCounter is the slice of the procedure store the policy needs.
type ProcedureCounter interface {
	CountByClientSince(ctx context.Context, clientID id.ClientID, cutoff time.Time) (int, error)
	CountByClient(ctx context.Context, clientID id.ClientID) (int, error)
}

// Result is the caller-visible decision. A legal-hold denial is a successful
// decision with Success=false, not an error.
type Result struct {
	Outcome          Outcome
	Success          bool
	Message          string
	ActiveProcedures int
}

// TxRunner runs fn inside one storage transaction. Stores that honor the
// context-carried transaction commit or roll back together.
type TxRunner interface {
	RunInTx(ctx context.Context, fn func(ctx context.Context) error) error
}

// Service orchestrates the retention decision against the stores and audit
// trail.
type Service struct {
	engine     Engine
	clients    client.Store
	procedures ProcedureCounter
	auditor    *audit.Publisher
	logger     *slog.Logger
	metrics    *metrics.Metrics
	runner     TxRunner

	// retentionYears is the assumed statute-of-limitations window.
	retentionYears int
}

func NewService(
	clients client.Store,
	procedures ProcedureCounter,
	auditor *audit.Publisher,
	logger *slog.Logger,
	m *metrics.Metrics,
	retentionYears int,
) *Service {
	if retentionYears <= 0 {
		retentionYears = 3
	}
	return &Service{
		engine:         NewEngine(),
		clients:        clients,
		procedures:     procedures,
		auditor:        auditor,
		logger:         logger,
		metrics:        m,
		retentionYears: retentionYears,
	}
}

// WithTxRunner makes the erasure mutations transactional: the client
// mutation and its audit entry commit together. Without a runner the audit
// write stays best-effort.
func (s *Service) WithTxRunner(runner TxRunner) *Service {
	s.runner = runner
	return s
}

// RequestDeletion runs the decision procedure for one client.
func (s *Service) RequestDeletion(ctx context.Context, clientID id.ClientID) (Result, error) {
	actorID := requestcontext.MasterID(ctx)
	if actorID.IsNil() {
		return Result{}, dErrors.New(dErrors.CodeUnauthorized, "authentication required")
	}

	c, err := s.clients.FindByID(ctx, clientID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return Result{}, dErrors.New(dErrors.CodeNotFound, "client not found")
		}
		return Result{}, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load client")
	}

	now := requestcontext.Now(ctx)
	cutoff := now.AddDate(-s.retentionYears, 0, 0)

	activeCount, err := s.procedures.CountByClientSince(ctx, clientID, cutoff)
	if err != nil {
		return Result{}, dErrors.Wrap(err, dErrors.CodeInternal, "error checking liability records")
	}

	totalCount := 0
	if activeCount == 0 {
		totalCount, err = s.procedures.CountByClient(ctx, clientID)
		if err != nil {
			return Result{}, dErrors.Wrap(err, dErrors.CodeInternal, "error checking procedure history")
		}
	}

	outcome := s.engine.Decide(activeCount, totalCount)
	var result Result
	switch outcome {
	case OutcomeLegalHold:
		result, err = s.applyLegalHold(ctx, c, activeCount)
	case OutcomeAnonymized:
		result, err = s.applyAnonymize(ctx, c)
	case OutcomeHardDeleted:
		result, err = s.applyHardDelete(ctx, c)
	}
	if err != nil {
		return Result{}, err
	}

	if s.metrics != nil {
		s.metrics.IncRetentionDecision(string(outcome))
	}
	return result, nil
}

func (s *Service) applyLegalHold(ctx context.Context, c client.Client, activeCount int) (Result, error) {
	if err := s.clients.SetStatus(ctx, c.ID, client.StatusLegalHold); err != nil {
		return Result{}, dErrors.Wrap(err, dErrors.CodeInternal, "failed to apply legal hold")
	}

	s.emit(ctx, audit.Entry{
		Action:    audit.ActionDeletionDeniedLegalHold,
		TableName: "clients",
		RecordID:  c.ID.String(),
		ActorID:   requestcontext.MasterID(ctx),
		Details: map[string]any{
			"reason":           fmt.Sprintf("Active liability period (procedures < %d years old)", s.retentionYears),
			"procedures_count": activeCount,
		},
	})

	return Result{
		Outcome:          OutcomeLegalHold,
		Success:          false,
		ActiveProcedures: activeCount,
		Message: fmt.Sprintf(
			"Deletion DENIED. Client placed on LEGAL HOLD. %d procedures found within the %d-year liability period. Data must be retained for legal defense until all procedures expire.",
			activeCount, s.retentionYears,
		),
	}, nil
}

func (s *Service) applyAnonymize(ctx context.Context, c client.Client) (Result, error) {
	entry := audit.Entry{
		Action:    audit.ActionClientAnonymized,
		TableName: "clients",
		RecordID:  c.ID.String(),
		ActorID:   requestcontext.MasterID(ctx),
	}

	// Anonymize writes the same sentinel values every time, so repeating it
	// on an already-anonymized client is a no-op in effect.
	err := s.mutateAndAudit(ctx, entry, func(ctx context.Context) error {
		return s.clients.Anonymize(ctx, c.ID)
	})
	if err != nil {
		return Result{}, dErrors.Wrap(err, dErrors.CodeInternal, "failed to anonymize client")
	}

	return Result{
		Outcome: OutcomeAnonymized,
		Success: true,
		Message: "Client liability expired. Personal data successfully ANONYMIZED.",
	}, nil
}

func (s *Service) applyHardDelete(ctx context.Context, c client.Client) (Result, error) {
	entry := audit.Entry{
		Action:    audit.ActionClientHardDeleted,
		TableName: "clients",
		RecordID:  c.ID.String(),
		ActorID:   requestcontext.MasterID(ctx),
	}

	err := s.mutateAndAudit(ctx, entry, func(ctx context.Context) error {
		return s.clients.Delete(ctx, c.ID)
	})
	if err != nil {
		return Result{}, dErrors.Wrap(err, dErrors.CodeInternal, "failed to delete client")
	}

	return Result{
		Outcome: OutcomeHardDeleted,
		Success: true,
		Message: "Client successfully PERMANENTLY DELETED.",
	}, nil
}

// mutateAndAudit applies an erasure mutation together with its audit entry.
// With a TxRunner both writes commit or roll back as one; without one the
// mutation happens first and the audit entry is best-effort.
func (s *Service) mutateAndAudit(ctx context.Context, entry audit.Entry, mutate func(ctx context.Context) error) error {
	if s.runner == nil {
		if err := mutate(ctx); err != nil {
			return err
		}
		s.emit(ctx, entry)
		return nil
	}
	return s.runner.RunInTx(ctx, func(txCtx context.Context) error {
		if err := mutate(txCtx); err != nil {
			return err
		}
		return s.auditor.Emit(txCtx, entry)
	})
}

// emit writes the accountability entry best-effort: an audit failure is
// logged and counted but never changes the retention decision reported to
// the caller.
func (s *Service) emit(ctx context.Context, entry audit.Entry) {
	if err := s.auditor.Emit(ctx, entry); err != nil {
		s.logger.ErrorContext(ctx, "audit append failed",
			"error", err,
			"action", string(entry.Action),
			"record_id", entry.RecordID,
		)
		if s.metrics != nil {
			s.metrics.AuditSinkFailures.Inc()
		}
	}
}
