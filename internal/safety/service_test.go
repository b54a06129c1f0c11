package safety

import (
	"context"
	"reflect"
	"testing"

	"github.com/rs/zerolog"
)

func newTestVerificationService() *VerificationService {
	rules := StaticRules{}
	return NewVerificationService(NewValidator(rules), StaticFormulary{}, rules, zerolog.Nop())
}

func TestVerify_KeepsMedicationOrder(t *testing.T) {
	svc := newTestVerificationService()
	req := VerificationRequest{
		Medications: []string{"Paracetamol", "Ibuprofen", "Unknownol"},
		Profile:     Profile{Age: 30},
	}

	result, err := svc.Verify(context.Background(), req)
	if err != nil {
		t.Fatalf("verify failed: %v", err)
	}
	if len(result.Medications) != 3 {
		t.Fatalf("expected 3 reports, got %d", len(result.Medications))
	}
	for i, name := range req.Medications {
		if result.Medications[i].Name != name {
			t.Fatalf("report %d out of order: got %s want %s", i, result.Medications[i].Name, name)
		}
	}
}

func TestVerify_UnknownDrugGetsConservativeProfile(t *testing.T) {
	svc := newTestVerificationService()
	result, err := svc.Verify(context.Background(), VerificationRequest{
		Medications: []string{"Obscuretol 10mg"},
	})
	if err != nil {
		t.Fatalf("verify failed: %v", err)
	}

	profile := result.Medications[0].Profile
	if profile.Matched {
		t.Fatal("unknown drug must not claim a formulary match")
	}
	if len(profile.Contraindications) == 0 {
		t.Fatal("unknown drug still needs a consult-a-professional record")
	}
}

func TestVerify_CriticalCountMatchesFindings(t *testing.T) {
	svc := newTestVerificationService()
	result, err := svc.Verify(context.Background(), VerificationRequest{
		Medications: []string{"Warfarin", "Aspirin"},
		Profile:     Profile{Age: 70, Allergies: []string{"aspirin"}},
	})
	if err != nil {
		t.Fatalf("verify failed: %v", err)
	}

	criticals := 0
	for _, f := range result.Findings {
		if f.Severity == SeverityCritical {
			criticals++
		}
	}
	if result.CriticalCount != criticals {
		t.Fatalf("criticalCount %d does not match findings %d", result.CriticalCount, criticals)
	}
	if result.CriticalCount == 0 {
		t.Fatal("expected critical findings for allergy plus warfarin+aspirin")
	}

	// The allergic medication must surface as contraindicated, not vanish.
	var aspirin *MedicationReport
	for i := range result.Medications {
		if result.Medications[i].Name == "Aspirin" {
			aspirin = &result.Medications[i]
		}
	}
	if aspirin == nil {
		t.Fatal("aspirin report missing from output")
	}
	if aspirin.State != StateContraindicated {
		t.Fatalf("expected contraindicated aspirin, got %s", aspirin.State)
	}
}

func TestVerify_TraditionalMedicineChecks(t *testing.T) {
	svc := newTestVerificationService()

	without, err := svc.Verify(context.Background(), VerificationRequest{
		Medications: []string{"Warfarin", "Ginger extract"},
	})
	if err != nil {
		t.Fatalf("verify failed: %v", err)
	}
	for _, f := range without.Findings {
		if f.Rule == "traditional-medicine" {
			t.Fatal("traditional checks must be opt-in")
		}
	}

	with, err := svc.Verify(context.Background(), VerificationRequest{
		Medications:              []string{"Warfarin", "Ginger extract"},
		CheckTraditionalMedicine: true,
	})
	if err != nil {
		t.Fatalf("verify failed: %v", err)
	}
	found := false
	for _, f := range with.Findings {
		if f.Rule == "traditional-medicine" {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected traditional-medicine finding, got %+v", with.Findings)
	}
}

func TestVerify_MauritianContextTogglesLocalNote(t *testing.T) {
	svc := newTestVerificationService()

	plain, err := svc.Verify(context.Background(), VerificationRequest{
		Medications: []string{"Paracetamol"},
	})
	if err != nil {
		t.Fatalf("verify failed: %v", err)
	}
	if plain.Medications[0].Profile.LocalNote != "" {
		t.Fatal("local note should be omitted without mauritianContext")
	}

	local, err := svc.Verify(context.Background(), VerificationRequest{
		Medications:      []string{"Paracetamol"},
		MauritianContext: true,
	})
	if err != nil {
		t.Fatalf("verify failed: %v", err)
	}
	if local.Medications[0].Profile.LocalNote == "" {
		t.Fatal("expected local note with mauritianContext")
	}
}

func TestVerify_Deterministic(t *testing.T) {
	svc := newTestVerificationService()
	req := VerificationRequest{
		Medications:              []string{"Warfarin", "Ibuprofen", "Paracetamol"},
		Profile:                  Profile{Age: 77, MedicalHistory: []string{"renal impairment"}},
		CheckTraditionalMedicine: true,
	}

	first, err := svc.Verify(context.Background(), req)
	if err != nil {
		t.Fatalf("verify failed: %v", err)
	}
	second, err := svc.Verify(context.Background(), req)
	if err != nil {
		t.Fatalf("verify failed: %v", err)
	}

	if !reflect.DeepEqual(first, second) {
		t.Fatal("verification is not deterministic for identical inputs")
	}
}
