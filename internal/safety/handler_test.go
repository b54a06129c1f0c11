package safety

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
)

func newTestRouter() *chi.Mux {
	rules := StaticRules{}
	formulary := StaticFormulary{}
	svc := NewVerificationService(NewValidator(rules), formulary, rules, zerolog.Nop())
	h := NewHandler(svc, formulary, zerolog.Nop())

	r := chi.NewRouter()
	RegisterRoutes(r, h)
	return r
}

func TestDrugVerification_MissingMedicationsIs400(t *testing.T) {
	r := newTestRouter()

	req := httptest.NewRequest(http.MethodPost, "/drug-verification", strings.NewReader(`{"patientProfile":{"age":30}}`))
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestDrugVerification_Success(t *testing.T) {
	r := newTestRouter()

	body := `{"medications":["Warfarin","Aspirin"],"patientProfile":{"age":70,"allergies":[],"medicalHistory":[],"currentMedications":[]}}`
	req := httptest.NewRequest(http.MethodPost, "/drug-verification", strings.NewReader(body))
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var resp struct {
		Success      bool                `json:"success"`
		Verification *VerificationResult `json:"verification"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid response JSON: %v", err)
	}
	if !resp.Success || resp.Verification == nil {
		t.Fatalf("unexpected response: %s", rec.Body.String())
	}
	if len(resp.Verification.Findings) == 0 {
		t.Fatal("expected interaction findings for warfarin+aspirin")
	}
}

func TestDrugInfo_MissingNamesIs400(t *testing.T) {
	r := newTestRouter()

	req := httptest.NewRequest(http.MethodPost, "/fda-drug-info", strings.NewReader(`{}`))
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestDrugInfo_UnmatchedNameNeverOmitted(t *testing.T) {
	r := newTestRouter()

	body := `{"medications":["Paracetamol","Completelymadeupol"]}`
	req := httptest.NewRequest(http.MethodPost, "/fda-drug-info", strings.NewReader(body))
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	var resp struct {
		Drugs []DrugProfile `json:"drugs"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid response JSON: %v", err)
	}
	if len(resp.Drugs) != 2 {
		t.Fatalf("expected 2 profiles, got %d", len(resp.Drugs))
	}
	if !resp.Drugs[0].Matched {
		t.Fatal("paracetamol should match the formulary")
	}
	if resp.Drugs[1].Matched {
		t.Fatal("made-up drug must not claim a match")
	}
	if len(resp.Drugs[1].Contraindications) == 0 {
		t.Fatal("unmatched drug still needs the conservative record")
	}
}

func TestDrugInfo_SingleDrugNameField(t *testing.T) {
	r := newTestRouter()

	req := httptest.NewRequest(http.MethodPost, "/fda-drug-info", strings.NewReader(`{"drugName":"Metformin"}`))
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var resp struct {
		Drugs []DrugProfile `json:"drugs"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid response JSON: %v", err)
	}
	if len(resp.Drugs) != 1 || resp.Drugs[0].GenericName != "metformin" {
		t.Fatalf("unexpected profiles: %+v", resp.Drugs)
	}
}
