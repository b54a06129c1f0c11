package safety

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
)

type Handler struct {
	svc       *VerificationService
	formulary Formulary
	log       zerolog.Logger
}

func NewHandler(svc *VerificationService, formulary Formulary, log zerolog.Logger) *Handler {
	return &Handler{svc: svc, formulary: formulary, log: log}
}

// HandleDrugVerification cross-checks a medication list against the
// patient profile. Malformed input is the caller's error (400); anything
// after that degrades into a renderable 200 payload.
func (h *Handler) HandleDrugVerification(w http.ResponseWriter, r *http.Request) {
	var req VerificationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if len(req.Medications) == 0 {
		writeError(w, http.StatusBadRequest, "medications is required")
		return
	}

	result, err := h.svc.Verify(r.Context(), req)
	if err != nil {
		h.log.Error().Err(err).Msg("drug verification degraded")
		writeJSON(w, http.StatusOK, map[string]any{
			"success":  true,
			"fallback": true,
			"verification": &VerificationResult{
				Medications: conservativeReports(req.Medications),
				Findings:    []Finding{},
			},
			"metadata": newMetadata(true),
		})
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"success":      true,
		"verification": result,
		"metadata":     newMetadata(false),
	})
}

type drugInfoRequest struct {
	Medications []string `json:"medications"`
	DrugName    string   `json:"drugName"`
}

// HandleDrugInfo serves reference profiles for one or more drug names.
// Unmatched names get a conservative record rather than being omitted.
func (h *Handler) HandleDrugInfo(w http.ResponseWriter, r *http.Request) {
	var req drugInfoRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	names := req.Medications
	if len(names) == 0 && req.DrugName != "" {
		names = []string{req.DrugName}
	}
	if len(names) == 0 {
		writeError(w, http.StatusBadRequest, "medications or drugName is required")
		return
	}

	profiles := make([]DrugProfile, len(names))
	for i, name := range names {
		profiles[i] = h.formulary.Lookup(name)
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"success":  true,
		"drugs":    profiles,
		"metadata": newMetadata(false),
	})
}

func RegisterRoutes(r chi.Router, h *Handler) {
	r.Post("/drug-verification", h.HandleDrugVerification)
	r.Post("/fda-drug-info", h.HandleDrugInfo)
}

// conservativeReports marks every medication for professional review when
// verification itself could not complete.
func conservativeReports(names []string) []MedicationReport {
	reports := make([]MedicationReport, len(names))
	for i, name := range names {
		reports[i] = MedicationReport{
			Name:  name,
			State: StateFlagged,
			Findings: []Finding{{
				Severity: SeverityInfo,
				Subject:  name,
				Rule:     "verification-unavailable",
				Message:  "Automated verification unavailable; review with a pharmacist before dispensing.",
			}},
			Profile: StaticFormulary{}.Lookup(name),
		}
	}
	return reports
}

func newMetadata(fallback bool) map[string]any {
	return map[string]any{
		"generatedAt": time.Now().UTC().Format(time.RFC3339),
		"fallback":    fallback,
	}
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]any{"success": false, "error": msg})
}
