package httptransport

import (
	"net/http"
	"strconv"

	"inkregister/internal/audit"
	"inkregister/internal/transport/http/shared"
	id "inkregister/pkg/domain"
	dErrors "inkregister/pkg/domain-errors"
)

const defaultAuditLimit = 100

// handleListAuditEvents is the accountability review endpoint; the router
// gates it to admins.
func (h *Handler) handleListAuditEvents(w http.ResponseWriter, r *http.Request) {
	limit := defaultAuditLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 {
			shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "limit must be a positive integer"))
			return
		}
		limit = parsed
	}

	var (
		entries []audit.Entry
		err     error
	)
	if raw := r.URL.Query().Get("actor"); raw != "" {
		actorID, parseErr := id.ParseMasterID(raw)
		if parseErr != nil {
			shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "Invalid actor ID"))
			return
		}
		entries, err = h.auditLog.ListByActor(r.Context(), actorID)
		if err == nil && len(entries) > limit {
			entries = entries[:limit]
		}
	} else {
		entries, err = h.auditLog.ListRecent(r.Context(), limit)
	}
	if err != nil {
		h.logError(r, "audit listing failed", err)
		shared.WriteError(w, dErrors.Wrap(err, dErrors.CodeInternal, "error listing audit events"))
		return
	}

	out := make([]map[string]any, 0, len(entries))
	for _, e := range entries {
		out = append(out, map[string]any{
			"id":         e.ID.String(),
			"actor_id":   e.ActorID.String(),
			"action":     string(e.Action),
			"table_name": e.TableName,
			"record_id":  e.RecordID,
			"details":    e.Details,
			"ip_address": e.IP,
			"created_at": e.CreatedAt,
		})
	}
	shared.WriteJSON(w, http.StatusOK, out)
}
