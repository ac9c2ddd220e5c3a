package httptransport

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"inkregister/internal/transport/http/shared"
	id "inkregister/pkg/domain"
)

// handleDeleteClient runs the retention decision for one client. A legal-hold
// denial is a decided request, not a transport error, so it still answers 200
// with success=false.
func (h *Handler) handleDeleteClient(w http.ResponseWriter, r *http.Request) {
	clientID, err := id.ParseClientID(chi.URLParam(r, "clientID"))
	if err != nil {
		shared.WriteError(w, err)
		return
	}

	res, err := h.retention.RequestDeletion(r.Context(), clientID)
	if err != nil {
		h.logError(r, "retention decision failed", err)
		shared.WriteError(w, err)
		return
	}

	payload := map[string]any{
		"success": res.Success,
		"message": res.Message,
		"outcome": string(res.Outcome),
	}
	if res.ActiveProcedures > 0 {
		payload["active_procedures"] = res.ActiveProcedures
	}
	shared.WriteJSON(w, http.StatusOK, payload)
}

func (h *Handler) handleGetClient(w http.ResponseWriter, r *http.Request) {
	clientID, err := id.ParseClientID(chi.URLParam(r, "clientID"))
	if err != nil {
		shared.WriteError(w, err)
		return
	}

	c, err := h.clients.Get(r.Context(), clientID)
	if err != nil {
		shared.WriteError(w, err)
		return
	}

	shared.WriteJSON(w, http.StatusOK, map[string]any{
		"id":         c.ID.String(),
		"full_name":  c.FullName,
		"birth_date": c.BirthDate.Format("2006-01-02"),
		"status":     string(c.Status),
		"created_at": c.CreatedAt,
	})
}
