package intake

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"inkregister/internal/audit"
	"inkregister/internal/client"
	"inkregister/internal/objectstore"
	"inkregister/internal/platform/metrics"
	"inkregister/internal/procedure"
	dErrors "inkregister/pkg/domain-errors"
	id "inkregister/pkg/domain"
	"inkregister/pkg/platform/sentinel"
	"inkregister/pkg/requestcontext"
)

const birthDateLayout = "2006-01-02"

// Result reports a completed intake back to the caller.
type Result struct {
	Procedure  procedure.Procedure
	WaiverPath string
	NewClient  bool
}

// Service runs the procedure intake workflow: validation, the age gate,
// client find-or-create, waiver upload and the atomic procedure+waiver write.
type Service struct {
	clients    client.Store
	procedures procedure.Store
	objects    objectstore.Store
	auditor    *audit.Publisher
	validate   *validator.Validate
	logger     *slog.Logger
	metrics    *metrics.Metrics
	minAge     int
}

func NewService(
	clients client.Store,
	procedures procedure.Store,
	objects objectstore.Store,
	auditor *audit.Publisher,
	logger *slog.Logger,
	m *metrics.Metrics,
	minAge int,
) *Service {
	return &Service{
		clients:    clients,
		procedures: procedures,
		objects:    objects,
		auditor:    auditor,
		validate:   validator.New(validator.WithRequiredStructEnabled()),
		logger:     logger,
		metrics:    m,
		minAge:     minAge,
	}
}

// Record validates and persists one procedure with its signed waiver. The age
// gate runs before any persistent write: an underage client leaves no trace
// in any store.
func (s *Service) Record(ctx context.Context, req Request) (Result, error) {
	actorID := requestcontext.MasterID(ctx)
	if actorID.IsNil() {
		return Result{}, dErrors.New(dErrors.CodeUnauthorized, "authentication required")
	}

	if err := validateRequest(s.validate, req); err != nil {
		return Result{}, err
	}

	birthDate, err := time.ParseInLocation(birthDateLayout, req.BirthDate, time.UTC)
	if err != nil {
		return Result{}, dErrors.Wrap(err, dErrors.CodeBadRequest, "Invalid birth date")
	}

	now := requestcontext.Now(ctx)
	if ageAt(birthDate, now) < s.minAge {
		return Result{}, dErrors.New(dErrors.CodeAgeRestricted,
			fmt.Sprintf("Client must be at least %d years old", s.minAge))
	}

	screening, err := parseHealthScreening(req.HealthData)
	if err != nil {
		return Result{}, err
	}

	codeHash := HashPersonalCode(req.PersonalCode)

	cl, created, err := s.clients.FindOrCreate(ctx, client.Client{
		ID:               id.NewClientID(),
		FullName:         strings.TrimSpace(req.ClientName),
		PersonalCodeHash: codeHash,
		BirthDate:        birthDate,
		Status:           client.StatusActive,
		CreatedAt:        now,
	})
	if err != nil {
		return Result{}, dErrors.Wrap(err, dErrors.CodeInternal, "error registering client")
	}
	if created {
		s.metrics.ClientsCreated.Inc()
	}

	procID := id.NewProcedureID()
	waiverPath := fmt.Sprintf("waivers/%s/%s_%d.pdf", actorID, procID, now.UnixMilli())

	if _, err := s.objects.Put(ctx, waiverPath, req.WaiverPDF, "application/pdf", false); err != nil {
		return Result{}, dErrors.Wrap(err, dErrors.CodeUploadFailed, "Failed to upload waiver")
	}

	proc := procedure.Procedure{
		ID:                     procID,
		MasterID:               actorID,
		ClientID:               cl.ID,
		ClientName:             cl.FullName,
		ClientPersonalCodeHash: cl.PersonalCodeHash,
		ClientBirthDate:        cl.BirthDate,
		Type:                   strings.TrimSpace(req.ProcedureType),
		Pigment:                req.Pigment,
		Shade:                  req.Shade,
		BatchNumber:            req.BatchNumber,
		NeedleSize:             req.NeedleSize,
		HealthData:             screening,
		Status:                 procedure.StatusCompleted,
		CreatedAt:              now,
	}
	waiver := procedure.Waiver{
		ProcedureID: procID,
		StoragePath: waiverPath,
		CreatedAt:   now,
	}

	if err := s.procedures.CreateWithWaiver(ctx, proc, waiver); err != nil {
		// The object upload already happened; undo it so a failed write
		// does not leave an orphaned waiver document behind.
		if delErr := s.objects.Delete(ctx, waiverPath); delErr != nil {
			s.logger.Error("compensating waiver delete failed",
				"path", waiverPath, "error", delErr)
		}
		if errors.Is(err, sentinel.ErrConflict) {
			return Result{}, dErrors.Wrap(err, dErrors.CodeConflict, "procedure already recorded")
		}
		return Result{}, dErrors.Wrap(err, dErrors.CodeInternal, "error saving procedure")
	}

	s.metrics.ProceduresRecorded.Inc()

	contentHash, err := contentHash(proc)
	if err != nil {
		s.logger.Error("content hash failed", "procedure_id", procID, "error", err)
	}
	s.emit(ctx, audit.Entry{
		ActorID:   actorID,
		Action:    audit.ActionProcedureCompleted,
		TableName: "procedures",
		RecordID:  procID.String(),
		Details: map[string]any{
			"event":        "legal_document_sealed",
			"content_hash": contentHash,
			"client_id":    cl.ID.String(),
			"waiver_path":  waiverPath,
		},
	})

	return Result{Procedure: proc, WaiverPath: waiverPath, NewClient: created}, nil
}

// Get returns one procedure, restricted to its owning master.
func (s *Service) Get(ctx context.Context, procID id.ProcedureID) (procedure.Procedure, error) {
	actorID := requestcontext.MasterID(ctx)
	if actorID.IsNil() {
		return procedure.Procedure{}, dErrors.New(dErrors.CodeUnauthorized, "authentication required")
	}
	proc, err := s.procedures.FindByID(ctx, procID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return procedure.Procedure{}, dErrors.Wrap(err, dErrors.CodeNotFound, "procedure not found")
		}
		return procedure.Procedure{}, dErrors.Wrap(err, dErrors.CodeInternal, "error loading procedure")
	}
	if proc.MasterID != actorID {
		return procedure.Procedure{}, dErrors.New(dErrors.CodeNotFound, "procedure not found")
	}
	return proc, nil
}

// Waiver returns the consent document record sealing a procedure. Ownership
// is checked through Get first.
func (s *Service) Waiver(ctx context.Context, procID id.ProcedureID) (procedure.Waiver, error) {
	if _, err := s.Get(ctx, procID); err != nil {
		return procedure.Waiver{}, err
	}
	waiver, err := s.procedures.WaiverByProcedure(ctx, procID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return procedure.Waiver{}, dErrors.Wrap(err, dErrors.CodeNotFound, "waiver not found")
		}
		return procedure.Waiver{}, dErrors.Wrap(err, dErrors.CodeInternal, "error loading waiver")
	}
	return waiver, nil
}

// List returns the acting master's procedures, newest first.
func (s *Service) List(ctx context.Context) ([]procedure.Procedure, error) {
	actorID := requestcontext.MasterID(ctx)
	if actorID.IsNil() {
		return nil, dErrors.New(dErrors.CodeUnauthorized, "authentication required")
	}
	procs, err := s.procedures.ListByMaster(ctx, actorID)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "error listing procedures")
	}
	return procs, nil
}

func (s *Service) emit(ctx context.Context, entry audit.Entry) {
	if err := s.auditor.Emit(ctx, entry); err != nil {
		s.logger.Error("audit emit failed", "action", entry.Action, "error", err)
		s.metrics.AuditSinkFailures.Inc()
	}
}

// HashPersonalCode derives the pseudonymous lookup key for a national ID:
// SHA-256 over the trimmed, uppercased code, hex encoded. The same person
// always hashes to the same key regardless of input casing or whitespace.
func HashPersonalCode(code string) string {
	normalized := strings.ToUpper(strings.TrimSpace(code))
	sum := sha256.Sum256([]byte(normalized))
	return hex.EncodeToString(sum[:])
}

// ageAt computes completed years of age at the reference instant. The
// birthday itself counts: a client turns 18 on the day, not the day after.
func ageAt(birthDate, at time.Time) int {
	years := at.Year() - birthDate.Year()
	anniversary := birthDate.AddDate(years, 0, 0)
	if anniversary.After(at) {
		years--
	}
	return years
}

// contentHash seals the persisted record: SHA-256 over the canonical JSON of
// the procedure row so later tampering is detectable against the audit trail.
func contentHash(proc procedure.Procedure) (string, error) {
	payload := map[string]any{
		"id":                 proc.ID.String(),
		"master_id":          proc.MasterID.String(),
		"client_id":          proc.ClientID.String(),
		"client_name":        proc.ClientName,
		"personal_code_hash": proc.ClientPersonalCodeHash,
		"birth_date":         proc.ClientBirthDate.UTC().Format(birthDateLayout),
		"procedure_type":     proc.Type,
		"pigment":            proc.Pigment,
		"shade":              proc.Shade,
		"batch_number":       proc.BatchNumber,
		"needle_size":        proc.NeedleSize,
		"health_data":        proc.HealthData,
		"status":             proc.Status,
		"created_at":         proc.CreatedAt.UTC().Format(time.RFC3339Nano),
	}
	raw, err := json.Marshal(payload)
	if err != nil {
		return "", err
	}
	sum := sha256.Sum256(raw)
	return hex.EncodeToString(sum[:]), nil
}
