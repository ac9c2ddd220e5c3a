// Package httptransport is the thin HTTP layer. Handlers delegate to domain
// services and keep transport concerns (envelopes, status codes, multipart
// parsing) out of the services.
package httptransport

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"inkregister/internal/adverse"
	"inkregister/internal/audit"
	"inkregister/internal/client"
	"inkregister/internal/identity"
	"inkregister/internal/intake"
	"inkregister/internal/jwttoken"
	"inkregister/internal/platform/metrics"
	"inkregister/internal/platform/middleware"
	"inkregister/internal/retention"
	"inkregister/pkg/requestcontext"
)

// TokenInspector re-validates a token to read its registered claims; logout
// needs the expiry to bound the revocation record.
type TokenInspector interface {
	ValidateToken(tokenString string) (*jwttoken.AccessTokenClaims, error)
}

// IdentityService is the slice of the identity service the transport needs.
type IdentityService interface {
	Logout(ctx context.Context, jti string, ttl time.Duration) error
}

// Handler holds the wired services behind every route.
type Handler struct {
	logger    *slog.Logger
	intake    *intake.Service
	retention *retention.Service
	clients   *client.Service
	adverse   *adverse.Service
	auditLog  audit.Store
	identity  IdentityService
	tokens    TokenInspector
	health    HealthChecks
	validate  *validator.Validate
}

// Deps carries everything the router needs; all collaborators are injected,
// nothing is reached through package globals.
type Deps struct {
	Logger    *slog.Logger
	Intake    *intake.Service
	Retention *retention.Service
	Clients   *client.Service
	Adverse   *adverse.Service
	AuditLog  audit.Store
	Identity  *identity.Service
	Tokens    TokenInspector
	// Validator is the middleware-facing view of the token service, the
	// jwttoken adapter in production.
	Validator middleware.TokenValidator
	Metrics   *metrics.Metrics
	Registry  *prometheus.Registry
	Health    HealthChecks
}

func NewHandler(deps Deps) *Handler {
	return &Handler{
		logger:    deps.Logger,
		intake:    deps.Intake,
		retention: deps.Retention,
		clients:   deps.Clients,
		adverse:   deps.Adverse,
		auditLog:  deps.AuditLog,
		identity:  deps.Identity,
		tokens:    deps.Tokens,
		health:    deps.Health,
		validate:  validator.New(validator.WithRequiredStructEnabled()),
	}
}

// NewRouter builds the full route tree. The authenticated group carries the
// bearer-token chain; health and metrics stay open.
func NewRouter(deps Deps) http.Handler {
	h := NewHandler(deps)

	r := chi.NewRouter()
	r.Use(middleware.Recovery(deps.Logger))
	r.Use(middleware.RequestID)
	r.Use(middleware.RequestTime)
	r.Use(middleware.ClientMetadata)
	r.Use(middleware.Logger(deps.Logger))
	r.Use(middleware.Latency(deps.Metrics))

	r.Get("/healthz", h.handleHealth)
	if deps.Registry != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(deps.Registry, promhttp.HandlerOpts{}))
	}

	r.Group(func(r chi.Router) {
		r.Use(middleware.RequireAuth(deps.Validator, deps.Identity, deps.Logger))

		r.Post("/auth/logout", h.handleLogout)

		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireRole(deps.Identity, deps.Logger,
				identity.RoleMaster, identity.RoleAdmin))

			r.Post("/procedures", h.handleCreateProcedure)
			r.Get("/procedures", h.handleListProcedures)
			r.Get("/procedures/{procedureID}", h.handleGetProcedure)

			r.Delete("/clients/{clientID}", h.handleDeleteClient)
			r.Get("/clients/{clientID}", h.handleGetClient)

			r.Post("/adverse-events", h.handleReportAdverseEvent)
			r.Get("/adverse-events", h.handleListAdverseEvents)
		})

		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireRole(deps.Identity, deps.Logger, identity.RoleAdmin))
			r.Get("/audit/events", h.handleListAuditEvents)
		})
	})

	return r
}

func (h *Handler) logError(r *http.Request, msg string, err error) {
	h.logger.ErrorContext(r.Context(), msg,
		"error", err,
		"request_id", requestcontext.RequestID(r.Context()),
		"path", r.URL.Path,
	)
}
