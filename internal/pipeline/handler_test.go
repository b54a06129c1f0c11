package pipeline

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"teleconsult-ai/internal/gateway"
)

func newTestRouter(gw gateway.Gateway) http.Handler {
	orch := newTestOrchestrator(gw)
	svc := NewService(orch, nil, nil, zerolog.Nop())
	r := chi.NewRouter()
	RegisterRoutes(r, NewHandler(svc, zerolog.Nop()))
	return r
}

func postJSON(t *testing.T, h http.Handler, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

const patientJSON = `{"firstName":"Marie","lastName":"Ramsamy","age":34,"sex":"F","allergies":[],"medicalHistory":[],"currentMedications":[]}`
const clinicalJSON = `{"chiefComplaint":"productive cough","symptoms":["cough","fever"],"duration":"4 days","painScale":3,"vitalSigns":{"temperature":"38.2","heartRate":"92","systolic":"118","diastolic":"76"}}`
const diagnosisJSON = `{"primary":{"condition":"Acute bronchitis","confidence":80,"rationale":""},"differential":[],"redFlags":[],"confidence":78}`

func TestHandleDiagnosis_MissingSections(t *testing.T) {
	h := newTestRouter(&scriptedGateway{})

	cases := []string{
		`{}`,
		`{"patientData":` + patientJSON + `}`,
		`{"clinicalData":` + clinicalJSON + `}`,
	}
	for _, body := range cases {
		rec := postJSON(t, h, "/diagnosis", body)
		if rec.Code != http.StatusBadRequest {
			t.Errorf("body %s: status = %d, want 400", body, rec.Code)
		}
	}
}

func TestHandleDiagnosis_MalformedBody(t *testing.T) {
	h := newTestRouter(&scriptedGateway{})
	rec := postJSON(t, h, "/diagnosis", `{"patientData": [not json`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
}

func TestHandleDiagnosis_Success(t *testing.T) {
	h := newTestRouter(&scriptedGateway{replies: []string{diagnosisReply}})
	rec := postJSON(t, h, "/diagnosis", `{"patientData":`+patientJSON+`,"clinicalData":`+clinicalJSON+`}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200: %s", rec.Code, rec.Body.String())
	}

	var resp struct {
		Success   bool      `json:"success"`
		Fallback  bool      `json:"fallback"`
		Diagnosis Diagnosis `json:"diagnosis"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if !resp.Success || resp.Fallback {
		t.Fatalf("unexpected flags: success=%v fallback=%v", resp.Success, resp.Fallback)
	}
	if resp.Diagnosis.Primary.Condition != "Acute bronchitis" {
		t.Fatalf("diagnosis = %q", resp.Diagnosis.Primary.Condition)
	}
}

func TestHandleDiagnosis_GatewayFailureStill200(t *testing.T) {
	gw := &scriptedGateway{errs: []error{&gateway.UpstreamError{Op: "generate", Err: errors.New("503")}}}
	h := newTestRouter(gw)
	rec := postJSON(t, h, "/diagnosis", `{"patientData":`+patientJSON+`,"clinicalData":`+clinicalJSON+`}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("gateway failure must degrade, not fail: status = %d", rec.Code)
	}

	var resp struct {
		Fallback  bool      `json:"fallback"`
		Diagnosis Diagnosis `json:"diagnosis"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if !resp.Fallback {
		t.Fatal("fallback flag should be set")
	}
	if resp.Diagnosis.Primary.Condition == "" {
		t.Fatal("fallback diagnosis must still be populated")
	}
}

func TestHandleExams_RequiresDiagnosis(t *testing.T) {
	h := newTestRouter(&scriptedGateway{})
	rec := postJSON(t, h, "/examens-generator", `{"patientData":`+patientJSON+`,"clinicalData":`+clinicalJSON+`}`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
}

func TestHandleExams_Success(t *testing.T) {
	gw := &scriptedGateway{replies: []string{
		`{"laboratory":[{"name":"FBC","reason":"baseline","urgency":"routine"}],"imaging":[],"priority":"routine"}`,
	}}
	h := newTestRouter(gw)
	body := `{"patientData":` + patientJSON + `,"clinicalData":` + clinicalJSON + `,"diagnosisData":` + diagnosisJSON + `}`
	rec := postJSON(t, h, "/examens-generator", body)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body.String())
	}

	var resp struct {
		Examens ExamPlan `json:"examens"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(resp.Examens.Laboratory) != 1 || resp.Examens.Laboratory[0].Name != "FBC" {
		t.Fatalf("unexpected exam plan: %+v", resp.Examens)
	}
	if !strings.Contains(gw.prompts[0], "Acute bronchitis") {
		t.Fatal("exams prompt must carry the supplied diagnosis")
	}
}

func TestHandlePrescription_SafetyAnnotations(t *testing.T) {
	gw := &scriptedGateway{replies: []string{
		`{"medications":[{"name":"Warfarin","dosage":"5mg","frequency":"1x/day","duration":"ongoing"},{"name":"Aspirin","dosage":"100mg","frequency":"1x/day","duration":"ongoing"}],"advice":[],"followUp":"1 week"}`,
	}}
	h := newTestRouter(gw)
	body := `{"patientData":` + patientJSON + `,"clinicalData":` + clinicalJSON + `,"diagnosisData":` + diagnosisJSON + `}`
	rec := postJSON(t, h, "/prescription-generator", body)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body.String())
	}

	var resp struct {
		Prescription Prescription  `json:"prescription"`
		Safety       SafetySummary `json:"safety"`
		RiskLevel    string        `json:"riskLevel"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.Safety.CriticalCount == 0 {
		t.Fatal("warfarin + aspirin must raise a critical finding")
	}
	if len(resp.Prescription.Medications) != 2 {
		t.Fatal("flagged medications must not be removed")
	}
	if resp.RiskLevel == "" {
		t.Fatal("riskLevel missing from response")
	}
}

func TestHandleConsultation_FullBundle(t *testing.T) {
	gw := &scriptedGateway{replies: []string{
		diagnosisReply,
		`{"laboratory":[{"name":"FBC","reason":"baseline","urgency":"routine"}],"imaging":[],"priority":"routine"}`,
		`{"medications":[{"name":"Paracetamol","dosage":"1g","frequency":"3x/day","duration":"5 days"}],"advice":["hydration"],"followUp":"48h"}`,
		`{"summary":"Consultation complete.","clinicalFindings":"","diagnosticSummary":"","treatmentPlan":"","followUpPlan":"","patientGuidance":""}`,
	}}
	h := newTestRouter(gw)
	rec := postJSON(t, h, "/consultation", `{"patientData":`+patientJSON+`,"clinicalData":`+clinicalJSON+`}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body.String())
	}

	var resp struct {
		Consultation Bundle `json:"consultation"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	b := resp.Consultation
	if b.Diagnosis.Primary.Condition == "" || b.Report.Summary == "" {
		t.Fatal("bundle missing artifacts")
	}
	if b.Metadata.MedicationCount != 1 || b.Metadata.ExamCount != 1 {
		t.Fatalf("unexpected counts: %+v", b.Metadata)
	}
	if b.Metadata.DegradedStages == nil {
		t.Fatal("degradedStages must never be null")
	}
}
