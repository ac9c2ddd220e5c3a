package httptransport

import (
	"io"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"inkregister/internal/intake"
	"inkregister/internal/procedure"
	"inkregister/internal/transport/http/shared"
	id "inkregister/pkg/domain"
	dErrors "inkregister/pkg/domain-errors"
)

// maxWaiverBytes caps the multipart memory budget; waiver PDFs are single
// signed consent forms, not scans of whole folders.
const maxWaiverBytes = 10 << 20

// handleCreateProcedure accepts the multipart intake form: text fields plus
// the signed waiver under "waiverFile".
func (h *Handler) handleCreateProcedure(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(maxWaiverBytes); err != nil {
		shared.WriteError(w, dErrors.Wrap(err, dErrors.CodeBadRequest, "invalid multipart form"))
		return
	}

	req := intake.Request{
		ClientName:    r.FormValue("clientName"),
		PersonalCode:  r.FormValue("personalCode"),
		BirthDate:     r.FormValue("birthDate"),
		ProcedureType: r.FormValue("procedureType"),
		Pigment:       r.FormValue("pigment"),
		Shade:         r.FormValue("shade"),
		BatchNumber:   r.FormValue("batchNumber"),
		NeedleSize:    r.FormValue("needleSize"),
		HealthData:    r.FormValue("healthData"),
	}

	file, _, err := r.FormFile("waiverFile")
	if err == nil {
		defer file.Close()
		req.WaiverPDF, err = io.ReadAll(file)
		if err != nil {
			shared.WriteError(w, dErrors.Wrap(err, dErrors.CodeBadRequest, "could not read waiver file"))
			return
		}
	}

	res, err := h.intake.Record(r.Context(), req)
	if err != nil {
		h.logError(r, "procedure intake failed", err)
		shared.WriteError(w, err)
		return
	}

	shared.WriteJSON(w, http.StatusCreated, map[string]any{
		"success":      true,
		"message":      "Procedure recorded with sealed waiver.",
		"procedure_id": res.Procedure.ID.String(),
		"client_id":    res.Procedure.ClientID.String(),
		"waiver_path":  res.WaiverPath,
	})
}

func (h *Handler) handleListProcedures(w http.ResponseWriter, r *http.Request) {
	procs, err := h.intake.List(r.Context())
	if err != nil {
		h.logError(r, "procedure list failed", err)
		shared.WriteError(w, err)
		return
	}

	out := make([]procedureResponse, 0, len(procs))
	for _, p := range procs {
		out = append(out, toProcedureResponse(p))
	}
	shared.WriteJSON(w, http.StatusOK, out)
}

func (h *Handler) handleGetProcedure(w http.ResponseWriter, r *http.Request) {
	procID, err := id.ParseProcedureID(chi.URLParam(r, "procedureID"))
	if err != nil {
		shared.WriteError(w, err)
		return
	}

	proc, err := h.intake.Get(r.Context(), procID)
	if err != nil {
		shared.WriteError(w, err)
		return
	}

	resp := toProcedureResponse(proc)
	// The procedure itself is the primary resource; a failed waiver lookup
	// degrades the response instead of failing it, but never silently.
	if waiver, err := h.intake.Waiver(r.Context(), procID); err != nil {
		h.logError(r, "waiver lookup failed", err)
	} else {
		resp.WaiverPath = waiver.StoragePath
	}
	shared.WriteJSON(w, http.StatusOK, resp)
}

type procedureResponse struct {
	ID              string                    `json:"id"`
	ClientID        string                    `json:"client_id"`
	ClientName      string                    `json:"client_name"`
	ClientBirthDate string                    `json:"client_birth_date"`
	Type            string                    `json:"type"`
	Pigment         string                    `json:"pigment"`
	Shade           string                    `json:"shade,omitempty"`
	BatchNumber     string                    `json:"batch_number"`
	NeedleSize      string                    `json:"needle_size,omitempty"`
	HealthData      procedure.HealthScreening `json:"health_data"`
	Status          string                    `json:"status"`
	CreatedAt       time.Time                 `json:"created_at"`
	WaiverPath      string                    `json:"waiver_path,omitempty"`
}

func toProcedureResponse(p procedure.Procedure) procedureResponse {
	return procedureResponse{
		ID:              p.ID.String(),
		ClientID:        p.ClientID.String(),
		ClientName:      p.ClientName,
		ClientBirthDate: p.ClientBirthDate.Format("2006-01-02"),
		Type:            p.Type,
		Pigment:         p.Pigment,
		Shade:           p.Shade,
		BatchNumber:     p.BatchNumber,
		NeedleSize:      p.NeedleSize,
		HealthData:      p.HealthData,
		Status:          p.Status,
		CreatedAt:       p.CreatedAt,
	}
}
