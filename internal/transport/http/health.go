package httptransport

import (
	"context"
	"net/http"
	"time"

	"inkregister/internal/transport/http/shared"
)

// HealthChecker probes one dependency.
type HealthChecker func(ctx context.Context) error

// HealthResponse is the fixed health schema: typed flags for the known
// dependencies plus an open extension map for deployment-specific probes.
// Consumers can rely on the typed fields without breaking when probes are
// added.
type HealthResponse struct {
	Status    string          `json:"status" validate:"required,oneof=ok degraded"`
	Database  bool            `json:"database"`
	Redis     bool            `json:"redis"`
	Storage   bool            `json:"storage"`
	Timestamp time.Time       `json:"timestamp" validate:"required"`
	Extra     map[string]bool `json:"extra,omitempty"`
}

const healthProbeTimeout = 2 * time.Second

func (h *Handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), healthProbeTimeout)
	defer cancel()

	resp := HealthResponse{
		Status:    "ok",
		Database:  h.probe(ctx, h.health.Database),
		Redis:     h.probe(ctx, h.health.Redis),
		Storage:   h.probe(ctx, h.health.Storage),
		Timestamp: time.Now().UTC(),
	}
	for name, check := range h.health.Extra {
		if resp.Extra == nil {
			resp.Extra = make(map[string]bool, len(h.health.Extra))
		}
		resp.Extra[name] = h.probe(ctx, check)
	}

	degraded := !resp.Database || !resp.Redis || !resp.Storage
	for _, up := range resp.Extra {
		if !up {
			degraded = true
		}
	}

	status := http.StatusOK
	if degraded {
		resp.Status = "degraded"
		status = http.StatusServiceUnavailable
	}

	// The schema is validated before it leaves the process; a payload that
	// fails its own contract is a programming error worth failing loudly on.
	if err := h.validate.Struct(resp); err != nil {
		h.logError(r, "health payload failed schema validation", err)
		w.WriteHeader(http.StatusInternalServerError)
		return
	}
	shared.WriteJSON(w, status, resp)
}

// probe runs one checker; a nil checker means the dependency is not
// configured and counts as healthy.
func (h *Handler) probe(ctx context.Context, check HealthChecker) bool {
	if check == nil {
		return true
	}
	return check(ctx) == nil
}

// HealthChecks groups the dependency probes the handler reports on.
type HealthChecks struct {
	Database HealthChecker
	Redis    HealthChecker
	Storage  HealthChecker
	Extra    map[string]HealthChecker
}
