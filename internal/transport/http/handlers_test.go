package httptransport

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/suite"

	"inkregister/internal/adverse"
	"inkregister/internal/audit"
	"inkregister/internal/client"
	"inkregister/internal/identity"
	"inkregister/internal/intake"
	"inkregister/internal/jwttoken"
	"inkregister/internal/objectstore"
	"inkregister/internal/platform/metrics"
	"inkregister/internal/procedure"
	"inkregister/internal/retention"
	id "inkregister/pkg/domain"
)

// =============================================================================
// Router Test Suite
// =============================================================================
// These tests run the full middleware chain and route tree against in-memory
// backends, covering the end-to-end flows: intake, retention decisions,
// adverse events, audit review, logout.

type RouterSuite struct {
	suite.Suite
	router     http.Handler
	clients    *client.InMemoryStore
	procedures *procedure.InMemoryStore
	objects    *objectstore.Memory
	auditStore *audit.InMemoryStore
	profiles   *identity.InMemoryProfileStore
	jwt        *jwttoken.JWTService

	masterID    id.MasterID
	adminID     id.MasterID
	masterToken string
	adminToken  string
}

func TestRouterSuite(t *testing.T) {
	suite.Run(t, new(RouterSuite))
}

func (s *RouterSuite) SetupTest() {
	s.clients = client.NewInMemoryStore()
	s.procedures = procedure.NewInMemoryStore()
	s.objects = objectstore.NewMemory()
	s.auditStore = audit.NewInMemoryStore()
	s.profiles = identity.NewInMemoryProfileStore()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	registry := prometheus.NewRegistry()
	m := metrics.New(registry)
	auditor := audit.NewPublisher(s.auditStore)

	identitySvc := identity.NewService(s.profiles, identity.NewInMemoryTRL())
	s.jwt = jwttoken.NewJWTService("router-test-key", "inkregister", "inkregister")

	s.router = NewRouter(Deps{
		Logger:    logger,
		Intake:    intake.NewService(s.clients, s.procedures, s.objects, auditor, logger, m, 18),
		Retention: retention.NewService(s.clients, s.procedures, auditor, logger, m, 3),
		Clients:   client.NewService(s.clients),
		Adverse:   adverse.NewService(adverse.NewInMemoryStore(), s.procedures, auditor, logger, m),
		AuditLog:  s.auditStore,
		Identity:  identitySvc,
		Tokens:    s.jwt,
		Validator: jwttoken.NewJWTServiceAdapter(s.jwt),
		Metrics:   m,
		Registry:  registry,
	})

	s.masterID = s.seedProfile(identity.RoleMaster)
	s.adminID = s.seedProfile(identity.RoleAdmin)
	s.masterToken = s.tokenFor(s.masterID)
	s.adminToken = s.tokenFor(s.adminID)
}

func (s *RouterSuite) seedProfile(role string) id.MasterID {
	masterID := id.MasterID(uuid.New())
	err := s.profiles.Save(context.Background(), identity.Profile{
		MasterID:  masterID,
		FullName:  "Test " + role,
		Role:      role,
		CreatedAt: time.Now(),
	})
	s.Require().NoError(err)
	return masterID
}

func (s *RouterSuite) tokenFor(masterID id.MasterID) string {
	token, err := s.jwt.GenerateAccessToken(uuid.UUID(masterID), time.Hour)
	s.Require().NoError(err)
	return token
}

func (s *RouterSuite) do(method, path, token string, body io.Reader, contentType string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, body)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	return rec
}

func (s *RouterSuite) decode(rec *httptest.ResponseRecorder) map[string]any {
	var payload map[string]any
	s.Require().NoError(json.Unmarshal(rec.Body.Bytes(), &payload))
	return payload
}

func (s *RouterSuite) intakeForm(personalCode, birthDate string) (*bytes.Buffer, string) {
	var buf bytes.Buffer
	form := multipart.NewWriter(&buf)
	fields := map[string]string{
		"clientName":    "Mari Tamm",
		"personalCode":  personalCode,
		"birthDate":     birthDate,
		"procedureType": "microblading",
		"pigment":       "Perma Blend",
		"shade":         "Espresso",
		"batchNumber":   "PB-2026-0142",
		"needleSize":    "0.18",
		"healthData":    `{"pregnant":false,"allergies":false}`,
	}
	for name, value := range fields {
		s.Require().NoError(form.WriteField(name, value))
	}
	file, err := form.CreateFormFile("waiverFile", "waiver.pdf")
	s.Require().NoError(err)
	_, err = file.Write([]byte("%PDF-1.7 signed waiver"))
	s.Require().NoError(err)
	s.Require().NoError(form.Close())
	return &buf, form.FormDataContentType()
}

func (s *RouterSuite) recordProcedure(personalCode string) (procedureID, clientID string) {
	body, contentType := s.intakeForm(personalCode, "1989-05-15")
	rec := s.do(http.MethodPost, "/procedures", s.masterToken, body, contentType)
	s.Require().Equal(http.StatusCreated, rec.Code, rec.Body.String())
	payload := s.decode(rec)
	return payload["procedure_id"].(string), payload["client_id"].(string)
}

// =============================================================================
// Auth Chain
// =============================================================================

func (s *RouterSuite) TestAuth() {
	s.Run("missing token rejected", func() {
		rec := s.do(http.MethodGet, "/procedures", "", nil, "")
		s.Equal(http.StatusUnauthorized, rec.Code)
	})

	s.Run("garbage token rejected", func() {
		rec := s.do(http.MethodGet, "/procedures", "not-a-jwt", nil, "")
		s.Equal(http.StatusUnauthorized, rec.Code)
	})

	s.Run("unknown profile forbidden", func() {
		strayToken := s.tokenFor(id.MasterID(uuid.New()))
		rec := s.do(http.MethodGet, "/procedures", strayToken, nil, "")
		s.Equal(http.StatusForbidden, rec.Code)
	})

	s.Run("client role cannot record procedures", func() {
		clientToken := s.tokenFor(s.seedProfile(identity.RoleClient))
		body, contentType := s.intakeForm("38905150211", "1989-05-15")
		rec := s.do(http.MethodPost, "/procedures", clientToken, body, contentType)
		s.Equal(http.StatusForbidden, rec.Code)
	})
}

func (s *RouterSuite) TestLogoutRevokesToken() {
	rec := s.do(http.MethodPost, "/auth/logout", s.masterToken, nil, "")
	s.Require().Equal(http.StatusOK, rec.Code)
	s.Equal(true, s.decode(rec)["success"])

	rec = s.do(http.MethodGet, "/procedures", s.masterToken, nil, "")
	s.Equal(http.StatusUnauthorized, rec.Code)
}

// =============================================================================
// Procedures
// =============================================================================

func (s *RouterSuite) TestProcedures() {
	s.Run("intake records procedure and waiver", func() {
		procID, _ := s.recordProcedure("38905150211")
		s.Equal(1, s.objects.Len())

		rec := s.do(http.MethodGet, "/procedures/"+procID, s.masterToken, nil, "")
		s.Require().Equal(http.StatusOK, rec.Code)
		payload := s.decode(rec)
		s.Equal("microblading", payload["type"])
		s.Equal("Mari Tamm", payload["client_name"])
		s.Contains(payload["waiver_path"], procID)
	})

	s.Run("list returns recorded procedures", func() {
		rec := s.do(http.MethodGet, "/procedures", s.masterToken, nil, "")
		s.Require().Equal(http.StatusOK, rec.Code)

		var list []map[string]any
		s.Require().NoError(json.Unmarshal(rec.Body.Bytes(), &list))
		s.Len(list, 1)
	})

	s.Run("waiver lookup failure degrades the response, still 200", func() {
		procID, _ := s.recordProcedure("48905150210")
		s.procedures.FailWaiverLookups = true
		defer func() { s.procedures.FailWaiverLookups = false }()

		rec := s.do(http.MethodGet, "/procedures/"+procID, s.masterToken, nil, "")
		s.Require().Equal(http.StatusOK, rec.Code)
		payload := s.decode(rec)
		s.Equal("microblading", payload["type"])
		s.NotContains(payload, "waiver_path")
	})

	s.Run("validation failures aggregated in error envelope", func() {
		var buf bytes.Buffer
		form := multipart.NewWriter(&buf)
		s.Require().NoError(form.WriteField("clientName", "Mari Tamm"))
		s.Require().NoError(form.Close())

		rec := s.do(http.MethodPost, "/procedures", s.masterToken, &buf, form.FormDataContentType())
		s.Require().Equal(http.StatusBadRequest, rec.Code)
		s.Contains(s.decode(rec)["error"], "Validation failed")
	})

	s.Run("underage client rejected", func() {
		birthDate := time.Now().UTC().AddDate(-17, 0, 0).Format("2006-01-02")
		body, contentType := s.intakeForm("61201010007", birthDate)
		rec := s.do(http.MethodPost, "/procedures", s.masterToken, body, contentType)
		s.Equal(http.StatusBadRequest, rec.Code)
		s.Contains(s.decode(rec)["error"], "18")
	})
}

// =============================================================================
// Retention Decisions
// =============================================================================

func (s *RouterSuite) TestDeleteClient() {
	s.Run("recent procedure forces legal hold", func() {
		_, clientID := s.recordProcedure("38905150211")

		rec := s.do(http.MethodDelete, "/clients/"+clientID, s.masterToken, nil, "")
		s.Require().Equal(http.StatusOK, rec.Code)
		payload := s.decode(rec)
		s.Equal(false, payload["success"])
		s.Equal("legal_hold", payload["outcome"])
		s.Contains(payload["message"], "LEGAL HOLD")

		rec = s.do(http.MethodGet, "/clients/"+clientID, s.masterToken, nil, "")
		s.Require().Equal(http.StatusOK, rec.Code)
		s.Equal("legal_hold", s.decode(rec)["status"])
	})

	s.Run("expired history anonymizes", func() {
		c, created, err := s.clients.FindOrCreate(context.Background(), client.Client{
			ID:               id.NewClientID(),
			FullName:         "Expired History",
			PersonalCodeHash: "hash-expired-history",
			BirthDate:        time.Date(1980, time.March, 2, 0, 0, 0, 0, time.UTC),
			Status:           client.StatusActive,
			CreatedAt:        time.Now().AddDate(-5, 0, 0),
		})
		s.Require().NoError(err)
		s.Require().True(created)
		procID := id.NewProcedureID()
		s.Require().NoError(s.procedures.CreateWithWaiver(context.Background(), procedure.Procedure{
			ID:        procID,
			MasterID:  s.masterID,
			ClientID:  c.ID,
			Type:      "microblading",
			Status:    procedure.StatusCompleted,
			CreatedAt: time.Now().AddDate(-5, 0, 0),
		}, procedure.Waiver{ProcedureID: procID, StoragePath: "waivers/x.pdf", CreatedAt: time.Now().AddDate(-5, 0, 0)}))

		rec := s.do(http.MethodDelete, "/clients/"+c.ID.String(), s.masterToken, nil, "")
		s.Require().Equal(http.StatusOK, rec.Code)
		payload := s.decode(rec)
		s.Equal(true, payload["success"])
		s.Contains(payload["message"], "ANONYMIZED")

		rec = s.do(http.MethodGet, "/clients/"+c.ID.String(), s.masterToken, nil, "")
		s.Require().Equal(http.StatusOK, rec.Code)
		s.Equal(client.AnonymizedName, s.decode(rec)["full_name"])
	})

	s.Run("no history hard deletes", func() {
		c, _, err := s.clients.FindOrCreate(context.Background(), client.Client{
			ID:               id.NewClientID(),
			FullName:         "No History",
			PersonalCodeHash: "hash-no-history",
			Status:           client.StatusActive,
			CreatedAt:        time.Now(),
		})
		s.Require().NoError(err)

		rec := s.do(http.MethodDelete, "/clients/"+c.ID.String(), s.masterToken, nil, "")
		s.Require().Equal(http.StatusOK, rec.Code)
		s.Contains(s.decode(rec)["message"], "PERMANENTLY DELETED")

		rec = s.do(http.MethodGet, "/clients/"+c.ID.String(), s.masterToken, nil, "")
		s.Equal(http.StatusNotFound, rec.Code)
	})

	s.Run("unknown client not found", func() {
		rec := s.do(http.MethodDelete, "/clients/"+id.NewClientID().String(), s.masterToken, nil, "")
		s.Equal(http.StatusNotFound, rec.Code)
	})

	s.Run("malformed client id rejected", func() {
		rec := s.do(http.MethodDelete, "/clients/not-a-uuid", s.masterToken, nil, "")
		s.Equal(http.StatusBadRequest, rec.Code)
	})
}

// =============================================================================
// Adverse Events
// =============================================================================

func (s *RouterSuite) TestAdverseEvents() {
	procID, clientID := s.recordProcedure("38905150211")

	s.Run("valid report accepted", func() {
		body := fmt.Sprintf(`{
			"procedure_id": %q,
			"client_id": %q,
			"severity": "severe",
			"description": "Allergic reaction around the treated area",
			"action_taken": "Referred client to dermatologist"
		}`, procID, clientID)

		rec := s.do(http.MethodPost, "/adverse-events", s.masterToken,
			bytes.NewBufferString(body), "application/json")
		s.Require().Equal(http.StatusCreated, rec.Code, rec.Body.String())
		s.Equal(true, s.decode(rec)["success"])
	})

	s.Run("invalid severity rejected", func() {
		body := fmt.Sprintf(`{
			"procedure_id": %q,
			"client_id": %q,
			"severity": "apocalyptic",
			"description": "Allergic reaction around the treated area",
			"action_taken": "Referred client to dermatologist"
		}`, procID, clientID)

		rec := s.do(http.MethodPost, "/adverse-events", s.masterToken,
			bytes.NewBufferString(body), "application/json")
		s.Require().Equal(http.StatusBadRequest, rec.Code)
		s.Contains(s.decode(rec)["error"], "Severity must be one of")
	})

	s.Run("listing returns reported events", func() {
		rec := s.do(http.MethodGet, "/adverse-events", s.masterToken, nil, "")
		s.Require().Equal(http.StatusOK, rec.Code)
		var list []map[string]any
		s.Require().NoError(json.Unmarshal(rec.Body.Bytes(), &list))
		s.Len(list, 1)
	})
}

// =============================================================================
// Audit Review
// =============================================================================

func (s *RouterSuite) TestAuditEvents() {
	s.recordProcedure("38905150211")

	s.Run("master role forbidden", func() {
		rec := s.do(http.MethodGet, "/audit/events", s.masterToken, nil, "")
		s.Equal(http.StatusForbidden, rec.Code)
	})

	s.Run("admin sees the trail", func() {
		rec := s.do(http.MethodGet, "/audit/events", s.adminToken, nil, "")
		s.Require().Equal(http.StatusOK, rec.Code)

		var list []map[string]any
		s.Require().NoError(json.Unmarshal(rec.Body.Bytes(), &list))
		s.Require().NotEmpty(list)
		s.Equal(string(audit.ActionProcedureCompleted), list[0]["action"])
	})

	s.Run("actor filter narrows the trail", func() {
		rec := s.do(http.MethodGet, "/audit/events?actor="+s.masterID.String(), s.adminToken, nil, "")
		s.Require().Equal(http.StatusOK, rec.Code)

		var list []map[string]any
		s.Require().NoError(json.Unmarshal(rec.Body.Bytes(), &list))
		s.Require().NotEmpty(list)
		for _, entry := range list {
			s.Equal(s.masterID.String(), entry["actor_id"])
		}

		rec = s.do(http.MethodGet, "/audit/events?actor="+s.adminID.String(), s.adminToken, nil, "")
		s.Require().Equal(http.StatusOK, rec.Code)
		s.Require().NoError(json.Unmarshal(rec.Body.Bytes(), &list))
		s.Empty(list)
	})

	s.Run("bad actor rejected", func() {
		rec := s.do(http.MethodGet, "/audit/events?actor=not-a-uuid", s.adminToken, nil, "")
		s.Equal(http.StatusBadRequest, rec.Code)
	})

	s.Run("bad limit rejected", func() {
		rec := s.do(http.MethodGet, "/audit/events?limit=zero", s.adminToken, nil, "")
		s.Equal(http.StatusBadRequest, rec.Code)
	})
}

// =============================================================================
// Health and Metrics
// =============================================================================

func (s *RouterSuite) TestHealthAndMetrics() {
	s.Run("health reports ok with no failing probes", func() {
		rec := s.do(http.MethodGet, "/healthz", "", nil, "")
		s.Require().Equal(http.StatusOK, rec.Code)
		payload := s.decode(rec)
		s.Equal("ok", payload["status"])
		s.Equal(true, payload["database"])
	})

	s.Run("metrics endpoint serves the registry", func() {
		rec := s.do(http.MethodGet, "/metrics", "", nil, "")
		s.Equal(http.StatusOK, rec.Code)
		s.Contains(rec.Body.String(), "inkregister_procedures_recorded_total")
	})

	s.Run("latency labeled by route pattern, not raw path", func() {
		procID, _ := s.recordProcedure("38905150211")
		rec := s.do(http.MethodGet, "/procedures/"+procID, s.masterToken, nil, "")
		s.Require().Equal(http.StatusOK, rec.Code)

		rec = s.do(http.MethodGet, "/metrics", "", nil, "")
		s.Require().Equal(http.StatusOK, rec.Code)
		body := rec.Body.String()
		s.Contains(body, `route="/procedures/{procedureID}"`)
		s.NotContains(body, `route="/procedures/`+procID+`"`)
	})
}
