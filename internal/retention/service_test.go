package retention

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/suite"

	"inkregister/internal/audit"
	"inkregister/internal/client"
	"inkregister/internal/platform/metrics"
	"inkregister/internal/procedure"
	dErrors "inkregister/pkg/domain-errors"
	id "inkregister/pkg/domain"
	"inkregister/pkg/platform/sentinel"
	"inkregister/pkg/requestcontext"
)

// =============================================================================
// Retention Service Test Suite
// =============================================================================
// Justification for unit tests: the decision tree pivots on procedure ages
// relative to an injected clock. Seeding procedures on exact boundary dates
// is only deterministic with requestcontext time injection.

type RetentionServiceSuite struct {
	suite.Suite
	clients    *client.InMemoryStore
	procedures *procedure.InMemoryStore
	auditStore *audit.InMemoryStore
	service    *Service

	masterID id.MasterID
	now      time.Time
}

func TestRetentionServiceSuite(t *testing.T) {
	suite.Run(t, new(RetentionServiceSuite))
}

func (s *RetentionServiceSuite) SetupTest() {
	s.clients = client.NewInMemoryStore()
	s.procedures = procedure.NewInMemoryStore()
	s.auditStore = audit.NewInMemoryStore()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	s.service = NewService(
		s.clients,
		s.procedures,
		audit.NewPublisher(s.auditStore),
		logger,
		metrics.New(prometheus.NewRegistry()),
		3,
	)

	var err error
	s.masterID, err = id.ParseMasterID("6f1d1d84-9a3e-4e1c-8f3b-2a1afc0a9b01")
	s.Require().NoError(err)
	s.now = time.Date(2026, time.September, 1, 12, 0, 0, 0, time.UTC)
}

func (s *RetentionServiceSuite) ctx() context.Context {
	ctx := requestcontext.WithTime(context.Background(), s.now)
	return requestcontext.WithMasterID(ctx, s.masterID)
}

func (s *RetentionServiceSuite) seedClient() client.Client {
	c, created, err := s.clients.FindOrCreate(context.Background(), client.Client{
		ID:               id.NewClientID(),
		FullName:         "Mari Tamm",
		PersonalCodeHash: "a3f1c2" + id.NewClientID().String(),
		BirthDate:        time.Date(1989, time.May, 15, 0, 0, 0, 0, time.UTC),
		Status:           client.StatusActive,
		CreatedAt:        s.now.AddDate(-4, 0, 0),
	})
	s.Require().NoError(err)
	s.Require().True(created)
	return c
}

func (s *RetentionServiceSuite) seedProcedure(clientID id.ClientID, createdAt time.Time) {
	procID := id.NewProcedureID()
	err := s.procedures.CreateWithWaiver(context.Background(), procedure.Procedure{
		ID:        procID,
		MasterID:  s.masterID,
		ClientID:  clientID,
		Type:      "microblading",
		Status:    procedure.StatusCompleted,
		CreatedAt: createdAt,
	}, procedure.Waiver{
		ProcedureID: procID,
		StoragePath: "waivers/seed.pdf",
		CreatedAt:   createdAt,
	})
	s.Require().NoError(err)
}

// =============================================================================
// Legal Hold
// =============================================================================

func (s *RetentionServiceSuite) TestRequestDeletion_LegalHold() {
	c := s.seedClient()
	for i := 0; i < 4; i++ {
		s.seedProcedure(c.ID, s.now.AddDate(0, -6*(i+1), 0))
	}

	res, err := s.service.RequestDeletion(s.ctx(), c.ID)
	s.Require().NoError(err)

	s.Equal(OutcomeLegalHold, res.Outcome)
	s.False(res.Success)
	s.Equal(4, res.ActiveProcedures)
	s.Contains(res.Message, "LEGAL HOLD")
	s.Contains(res.Message, "4 procedures")

	held, err := s.clients.FindByID(context.Background(), c.ID)
	s.Require().NoError(err)
	s.Equal(client.StatusLegalHold, held.Status)
	s.Equal("Mari Tamm", held.FullName, "personal data untouched under hold")

	entries := s.auditStore.ByAction(audit.ActionDeletionDeniedLegalHold)
	s.Require().Len(entries, 1)
	s.Equal(c.ID.String(), entries[0].RecordID)
	s.Equal(4, entries[0].Details["procedures_count"])
}

func (s *RetentionServiceSuite) TestRequestDeletion_CutoffBoundaryInclusive() {
	c := s.seedClient()
	// Exactly three years old today. The boundary procedure still anchors
	// liability.
	s.seedProcedure(c.ID, s.now.AddDate(-3, 0, 0))

	res, err := s.service.RequestDeletion(s.ctx(), c.ID)
	s.Require().NoError(err)
	s.Equal(OutcomeLegalHold, res.Outcome)
	s.Equal(1, res.ActiveProcedures)
}

func (s *RetentionServiceSuite) TestRequestDeletion_LegalHoldWinsOverExpiredHistory() {
	c := s.seedClient()
	s.seedProcedure(c.ID, s.now.AddDate(-5, 0, 0))
	s.seedProcedure(c.ID, s.now.AddDate(0, -1, 0))

	res, err := s.service.RequestDeletion(s.ctx(), c.ID)
	s.Require().NoError(err)
	s.Equal(OutcomeLegalHold, res.Outcome)
	s.Equal(1, res.ActiveProcedures)
}

// =============================================================================
// Anonymization
// =============================================================================

func (s *RetentionServiceSuite) TestRequestDeletion_Anonymize() {
	c := s.seedClient()
	s.seedProcedure(c.ID, s.now.AddDate(-3, 0, -1))
	s.seedProcedure(c.ID, s.now.AddDate(-5, 0, 0))

	res, err := s.service.RequestDeletion(s.ctx(), c.ID)
	s.Require().NoError(err)

	s.Equal(OutcomeAnonymized, res.Outcome)
	s.True(res.Success)
	s.Contains(res.Message, "ANONYMIZED")

	anon, err := s.clients.FindByID(context.Background(), c.ID)
	s.Require().NoError(err)
	s.Equal(client.AnonymizedName, anon.FullName)
	s.Equal(client.AnonymizedHash(c.ID), anon.PersonalCodeHash)
	s.Equal(client.AnonymizedBirthDate, anon.BirthDate)
	s.Equal(client.StatusDeleted, anon.Status)
	s.True(anon.IsAnonymized())

	entries := s.auditStore.ByAction(audit.ActionClientAnonymized)
	s.Len(entries, 1)
}

func (s *RetentionServiceSuite) TestRequestDeletion_AnonymizeIdempotent() {
	c := s.seedClient()
	s.seedProcedure(c.ID, s.now.AddDate(-4, 0, 0))

	first, err := s.service.RequestDeletion(s.ctx(), c.ID)
	s.Require().NoError(err)
	s.Equal(OutcomeAnonymized, first.Outcome)

	second, err := s.service.RequestDeletion(s.ctx(), c.ID)
	s.Require().NoError(err)
	s.Equal(OutcomeAnonymized, second.Outcome)

	anon, err := s.clients.FindByID(context.Background(), c.ID)
	s.Require().NoError(err)
	s.True(anon.IsAnonymized())
}

// =============================================================================
// Hard Delete
// =============================================================================

func (s *RetentionServiceSuite) TestRequestDeletion_HardDelete() {
	c := s.seedClient()

	res, err := s.service.RequestDeletion(s.ctx(), c.ID)
	s.Require().NoError(err)

	s.Equal(OutcomeHardDeleted, res.Outcome)
	s.True(res.Success)
	s.Contains(res.Message, "PERMANENTLY DELETED")

	_, err = s.clients.FindByID(context.Background(), c.ID)
	s.ErrorIs(err, sentinel.ErrNotFound)

	entries := s.auditStore.ByAction(audit.ActionClientHardDeleted)
	s.Len(entries, 1)
}

// =============================================================================
// Guards
// =============================================================================

func (s *RetentionServiceSuite) TestRequestDeletion_UnknownClient() {
	_, err := s.service.RequestDeletion(s.ctx(), id.NewClientID())
	s.Require().Error(err)
	s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
}

func (s *RetentionServiceSuite) TestRequestDeletion_Unauthenticated() {
	c := s.seedClient()

	_, err := s.service.RequestDeletion(requestcontext.WithTime(context.Background(), s.now), c.ID)
	s.Require().Error(err)
	s.True(dErrors.HasCode(err, dErrors.CodeUnauthorized))

	got, err := s.clients.FindByID(context.Background(), c.ID)
	s.Require().NoError(err)
	s.Equal(client.StatusActive, got.Status)
}
