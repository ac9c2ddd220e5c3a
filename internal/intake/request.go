package intake

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/go-playground/validator/v10"

	"inkregister/internal/procedure"
	dErrors "inkregister/pkg/domain-errors"
)

// Request carries one procedure submission. PersonalCode is transient: it is
// normalized, hashed, and discarded, never persisted.
type Request struct {
	ClientName   string `validate:"required,min=2"`
	PersonalCode string `validate:"required,min=5"`
	BirthDate    string `validate:"required,datetime=2006-01-02"`

	ProcedureType string `validate:"required,min=2"`
	Pigment       string `validate:"required"`
	Shade         string
	BatchNumber   string `validate:"required"`
	NeedleSize    string

	// HealthData is the raw JSON questionnaire payload from the form.
	HealthData string `validate:"required,json"`

	// WaiverPDF holds the signed consent document bytes.
	WaiverPDF []byte `validate:"required"`
}

// fieldMessages maps struct fields to caller-facing validation messages.
var fieldMessages = map[string]string{
	"ClientName":    "Client name required",
	"PersonalCode":  "Personal ID required",
	"BirthDate":     "Invalid birth date",
	"ProcedureType": "Procedure type required",
	"Pigment":       "Pigment required",
	"BatchNumber":   "Batch number required (REACH)",
	"HealthData":    "Invalid JSON for health data",
	"WaiverPDF":     "Waiver PDF file is required",
}

// validateRequest checks every field and aggregates all violations into one
// error; it never stops at the first failure.
func validateRequest(v *validator.Validate, req Request) error {
	err := v.Struct(req)
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

// healthScreeningFields lists the typed questionnaire flags; everything else
// in the payload lands in Extra.
var healthScreeningFields = map[string]func(*procedure.HealthScreening, bool){
	"pregnant":            func(h *procedure.HealthScreening, v bool) { h.Pregnant = v },
	"diabetes":            func(h *procedure.HealthScreening, v bool) { h.Diabetes = v },
	"blood_disorder":      func(h *procedure.HealthScreening, v bool) { h.BloodDisorder = v },
	"skin_condition":      func(h *procedure.HealthScreening, v bool) { h.SkinCondition = v },
	"allergies":           func(h *procedure.HealthScreening, v bool) { h.Allergies = v },
	"blood_thinners":      func(h *procedure.HealthScreening, v bool) { h.BloodThinners = v },
	"recent_sun_exposure": func(h *procedure.HealthScreening, v bool) { h.RecentSunExposure = v },
}

// parseHealthScreening converts the raw JSON payload into the structured
// questionnaire: known boolean flags are typed, unknown keys are preserved
// in the open extension map.
func parseHealthScreening(raw string) (procedure.HealthScreening, error) {
	var payload map[string]any
	if err := json.Unmarshal([]byte(raw), &payload); err != nil {
		return procedure.HealthScreening{}, dErrors.Wrap(err, dErrors.CodeBadRequest, "Invalid JSON for health data")
	}

	var screening procedure.HealthScreening
	for key, value := range payload {
		if key == "notes" {
			if s, ok := value.(string); ok {
				screening.Notes = s
				continue
			}
		}
		if setter, known := healthScreeningFields[key]; known {
			if b, ok := value.(bool); ok {
				setter(&screening, b)
				continue
			}
		}
		if screening.Extra == nil {
			screening.Extra = make(map[string]any)
		}
		screening.Extra[key] = value
	}
	return screening, nil
}
