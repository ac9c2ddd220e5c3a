package adverse

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"inkregister/internal/audit"
	"inkregister/internal/platform/metrics"
	"inkregister/internal/procedure"
	dErrors "inkregister/pkg/domain-errors"
	id "inkregister/pkg/domain"
	"inkregister/pkg/platform/sentinel"
	"inkregister/pkg/requestcontext"
)

// Request is one incoming incident report.
type Request struct {
	ProcedureID string `validate:"required,uuid"`
	ClientID    string `validate:"required,uuid"`
	Severity    string `validate:"required,oneof=mild moderate severe critical"`
	Description string `validate:"required,min=10"`
	ActionTaken string `validate:"required,min=5"`
}

var fieldMessages = map[string]string{
	"ProcedureID": "Invalid procedure ID",
	"ClientID":    "Invalid client ID",
	"Severity":    "Severity must be one of: mild, moderate, severe, critical",
	"Description": "Description must be at least 10 characters",
	"ActionTaken": "Action taken must be at least 5 characters",
}

// Service validates and persists incident reports.
type Service struct {
	events     Store
	procedures procedure.Store
	auditor    *audit.Publisher
	validate   *validator.Validate
	logger     *slog.Logger
	metrics    *metrics.Metrics
}

func NewService(
	events Store,
	procedures procedure.Store,
	auditor *audit.Publisher,
	logger *slog.Logger,
	m *metrics.Metrics,
) *Service {
	return &Service{
		events:     events,
		procedures: procedures,
		auditor:    auditor,
		validate:   validator.New(validator.WithRequiredStructEnabled()),
		logger:     logger,
		metrics:    m,
	}
}

// Report validates and stores one incident. The referenced procedure must
// exist and belong to the reporting master.
func (s *Service) Report(ctx context.Context, req Request) (Event, error) {
	actorID := requestcontext.MasterID(ctx)
	if actorID.IsNil() {
		return Event{}, dErrors.New(dErrors.CodeUnauthorized, "authentication required")
	}

	if err := s.validateRequest(req); err != nil {
		return Event{}, err
	}

	procID, err := id.ParseProcedureID(req.ProcedureID)
	if err != nil {
		return Event{}, err
	}
	clientID, err := id.ParseClientID(req.ClientID)
	if err != nil {
		return Event{}, err
	}

	proc, err := s.procedures.FindByID(ctx, procID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return Event{}, dErrors.Wrap(err, dErrors.CodeNotFound, "procedure not found")
		}
		return Event{}, dErrors.Wrap(err, dErrors.CodeInternal, "error loading procedure")
	}
	if proc.MasterID != actorID {
		return Event{}, dErrors.New(dErrors.CodeNotFound, "procedure not found")
	}
	if proc.ClientID != clientID {
		return Event{}, dErrors.New(dErrors.CodeBadRequest, "client does not match procedure")
	}

	event := Event{
		ID:          uuid.New(),
		ProcedureID: procID,
		ClientID:    clientID,
		MasterID:    actorID,
		Severity:    Severity(req.Severity),
		Description: strings.TrimSpace(req.Description),
		ActionTaken: strings.TrimSpace(req.ActionTaken),
		CreatedAt:   requestcontext.Now(ctx),
	}
	if err := s.events.Create(ctx, event); err != nil {
		return Event{}, dErrors.Wrap(err, dErrors.CodeInternal, "error saving adverse event")
	}

	s.metrics.AdverseEvents.WithLabelValues(string(event.Severity)).Inc()
	s.emit(ctx, audit.Entry{
		ActorID:   actorID,
		Action:    audit.ActionAdverseEventReported,
		TableName: "adverse_events",
		RecordID:  event.ID.String(),
		Details: map[string]any{
			"procedure_id": procID.String(),
			"client_id":    clientID.String(),
			"severity":     string(event.Severity),
		},
	})

	return event, nil
}

// ListForMaster returns the acting master's reported incidents.
func (s *Service) ListForMaster(ctx context.Context) ([]Event, error) {
	actorID := requestcontext.MasterID(ctx)
	if actorID.IsNil() {
		return nil, dErrors.New(dErrors.CodeUnauthorized, "authentication required")
	}
	events, err := s.events.ListByMaster(ctx, actorID)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "error listing adverse events")
	}
	return events, nil
}

func (s *Service) validateRequest(req Request) error {
	err := s.validate.Struct(req)
	if err == nil {
		return nil
	}
	fieldErrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return dErrors.Wrap(err, dErrors.CodeBadRequest, "validation failed")
	}
	messages := make([]string, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		if msg, known := fieldMessages[fe.StructField()]; known {
			messages = append(messages, msg)
		} else {
			messages = append(messages, fmt.Sprintf("%s is invalid", fe.StructField()))
		}
	}
	sort.Strings(messages)
	return dErrors.New(dErrors.CodeBadRequest, "Validation failed: "+strings.Join(messages, ", "))
}

func (s *Service) emit(ctx context.Context, entry audit.Entry) {
	if err := s.auditor.Emit(ctx, entry); err != nil {
		s.logger.Error("audit emit failed", "action", entry.Action, "error", err)
		s.metrics.AuditSinkFailures.Inc()
	}
}
