package httptransport

import (
	"encoding/json"
	"net/http"

	"inkregister/internal/adverse"
	"inkregister/internal/transport/http/shared"
	dErrors "inkregister/pkg/domain-errors"
)

type adverseEventRequest struct {
	ProcedureID string `json:"procedure_id"`
	ClientID    string `json:"client_id"`
	Severity    string `json:"severity"`
	Description string `json:"description"`
	ActionTaken string `json:"action_taken"`
}

func (h *Handler) handleReportAdverseEvent(w http.ResponseWriter, r *http.Request) {
	var body adverseEventRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		shared.WriteError(w, dErrors.Wrap(err, dErrors.CodeBadRequest, "invalid request body"))
		return
	}

	event, err := h.adverse.Report(r.Context(), adverse.Request{
		ProcedureID: body.ProcedureID,
		ClientID:    body.ClientID,
		Severity:    body.Severity,
		Description: body.Description,
		ActionTaken: body.ActionTaken,
	})
	if err != nil {
		h.logError(r, "adverse event report failed", err)
		shared.WriteError(w, err)
		return
	}

	shared.WriteJSON(w, http.StatusCreated, map[string]any{
		"success":  true,
		"message":  "Adverse event reported.",
		"event_id": event.ID.String(),
	})
}

func (h *Handler) handleListAdverseEvents(w http.ResponseWriter, r *http.Request) {
	events, err := h.adverse.ListForMaster(r.Context())
	if err != nil {
		shared.WriteError(w, err)
		return
	}

	out := make([]map[string]any, 0, len(events))
	for _, e := range events {
		out = append(out, map[string]any{
			"id":           e.ID.String(),
			"procedure_id": e.ProcedureID.String(),
			"client_id":    e.ClientID.String(),
			"severity":     string(e.Severity),
			"description":  e.Description,
			"action_taken": e.ActionTaken,
			"created_at":   e.CreatedAt,
		})
	}
	shared.WriteJSON(w, http.StatusOK, out)
}
