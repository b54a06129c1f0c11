package pipeline

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
)

type Handler struct {
	svc *Service
	log zerolog.Logger
}

func NewHandler(svc *Service, log zerolog.Logger) *Handler {
	return &Handler{svc: svc, log: log}
}

// Request bodies use pointer fields so a missing section is
// distinguishable from an empty one: missing required input is the
// caller's error (400), everything after that is absorbed into a
// degraded-but-200 response.

type diagnosisRequest struct {
	PatientData   *PatientProfile       `json:"patientData"`
	ClinicalData  *ClinicalPresentation `json:"clinicalData"`
	QuestionsData map[string]string     `json:"questionsData"`
}

type examsRequest struct {
	PatientData   *PatientProfile       `json:"patientData"`
	DiagnosisData *Diagnosis            `json:"diagnosisData"`
	ClinicalData  *ClinicalPresentation `json:"clinicalData"`
}

type prescriptionRequest struct {
	PatientData   *PatientProfile       `json:"patientData"`
	DiagnosisData *Diagnosis            `json:"diagnosisData"`
	ClinicalData  *ClinicalPresentation `json:"clinicalData"`
	ExamsData     *ExamPlan             `json:"examensData"`
}

func (h *Handler) HandleDiagnosis(w http.ResponseWriter, r *http.Request) {
	var req diagnosisRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.PatientData == nil || req.ClinicalData == nil {
		writeError(w, http.StatusBadRequest, "patientData and clinicalData are required")
		return
	}

	run, err := h.svc.Diagnose(r.Context(), *req.PatientData, *req.ClinicalData, req.QuestionsData)
	if err != nil {
		// Only caller cancellation reaches here; nobody is waiting for
		// the body anymore.
		h.log.Warn().Err(err).Msg("diagnosis request abandoned")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"success":   true,
		"fallback":  run.Diagnosis.Degraded(),
		"diagnosis": run.Diagnosis.Value,
		"metadata":  Aggregate(run).Metadata,
	})
}

func (h *Handler) HandleExams(w http.ResponseWriter, r *http.Request) {
	var req examsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.PatientData == nil || req.DiagnosisData == nil || req.ClinicalData == nil {
		writeError(w, http.StatusBadRequest, "patientData, diagnosisData and clinicalData are required")
		return
	}

	run, err := h.svc.PlanExams(r.Context(), *req.PatientData, *req.ClinicalData, *req.DiagnosisData)
	if err != nil {
		h.log.Warn().Err(err).Msg("exams request abandoned")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"success":  true,
		"fallback": run.Exams.Degraded(),
		"examens":  run.Exams.Value,
		"safety":   safetySummaryOf(run),
		"metadata": Aggregate(run).Metadata,
	})
}

func (h *Handler) HandlePrescription(w http.ResponseWriter, r *http.Request) {
	var req prescriptionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.PatientData == nil || req.DiagnosisData == nil || req.ClinicalData == nil {
		writeError(w, http.StatusBadRequest, "patientData, diagnosisData and clinicalData are required")
		return
	}

	run, err := h.svc.Prescribe(r.Context(), *req.PatientData, *req.ClinicalData, *req.DiagnosisData, req.ExamsData)
	if err != nil {
		h.log.Warn().Err(err).Msg("prescription request abandoned")
		return
	}

	meta := Aggregate(run).Metadata
	writeJSON(w, http.StatusOK, map[string]any{
		"success":         true,
		"fallback":        run.Prescription.Degraded(),
		"prescription":    run.Prescription.Value,
		"safety":          safetySummaryOf(run),
		"medicationCount": meta.MedicationCount,
		"complexityLevel": meta.ComplexityLevel,
		"riskLevel":       meta.RiskLevel,
		"metadata":        meta,
	})
}

func (h *Handler) HandleConsultation(w http.ResponseWriter, r *http.Request) {
	var req diagnosisRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.PatientData == nil || req.ClinicalData == nil {
		writeError(w, http.StatusBadRequest, "patientData and clinicalData are required")
		return
	}

	bundle, err := h.svc.RunConsultation(r.Context(), *req.PatientData, *req.ClinicalData, req.QuestionsData)
	if err != nil {
		h.log.Warn().Err(err).Msg("consultation request abandoned")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"success":      true,
		"consultation": bundle,
		"metadata":     bundle.Metadata,
	})
}

func RegisterRoutes(r chi.Router, h *Handler) {
	r.Post("/diagnosis", h.HandleDiagnosis)
	r.Post("/examens-generator", h.HandleExams)
	r.Post("/prescription-generator", h.HandlePrescription)
	r.Post("/consultation", h.HandleConsultation)
}

func safetySummaryOf(run *Run) SafetySummary {
	return Aggregate(run).Safety
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]any{"success": false, "error": msg})
}
