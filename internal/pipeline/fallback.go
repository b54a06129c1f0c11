package pipeline

import (
	"fmt"
	"strings"
)

// Conservative substitutes used when a stage's model output is missing or
// unparseable. Each preserves the shape of the parsed artifact so
// downstream stages and the UI can proceed, with deliberately cautious
// content. Fallback confidence never exceeds this cap.
const fallbackConfidenceCap = 70

func fallbackDiagnosis(run *Run) func(reason string) Diagnosis {
	return func(reason string) Diagnosis {
		condition := "Clinical evaluation in progress"
		if run.Clinical.ChiefComplaint != "" {
			condition = fmt.Sprintf("Symptomatic presentation: %s (evaluation in progress)", run.Clinical.ChiefComplaint)
		}
		return Diagnosis{
			Primary: DiagnosisHypothesis{
				Condition:  condition,
				Confidence: 50,
				Rationale:  "Automated analysis was unavailable; a physician must establish the diagnosis.",
			},
			Differential: []DiagnosisHypothesis{},
			RedFlags:     []string{"Automated assessment unavailable; apply standard triage vigilance."},
			Confidence:   fallbackConfidenceCap,
		}
	}
}

func fallbackExams(run *Run) func(reason string) ExamPlan {
	return func(reason string) ExamPlan {
		return ExamPlan{
			Laboratory: []ExamItem{
				{Name: "Full blood count", Reason: "Baseline screening pending physician review", Urgency: "routine"},
				{Name: "C-reactive protein", Reason: "Baseline inflammation marker pending physician review", Urgency: "routine"},
			},
			Imaging:      []ExamItem{},
			Priority:     "routine",
			Instructions: "Exam plan generated as a conservative default; the physician should adjust it to the working diagnosis.",
		}
	}
}

func fallbackPrescription(run *Run) func(reason string) Prescription {
	return func(reason string) Prescription {
		return Prescription{
			// No medications: prescribing without model guidance is less
			// safe than prescribing nothing.
			Medications: []MedicationItem{},
			Advice: []string{
				"Symptomatic care (rest, hydration) pending physician validation.",
				"Seek in-person care if symptoms worsen or new symptoms appear.",
			},
			FollowUp: "Physician review required within 24-48 hours; automated prescribing was unavailable.",
		}
	}
}

func fallbackReport(run *Run) func(reason string) Report {
	return func(reason string) Report {
		symptoms := strings.Join(run.Clinical.Symptoms, ", ")
		if symptoms == "" {
			symptoms = "not specified"
		}
		return Report{
			Summary: fmt.Sprintf("Teleconsultation for %s %s (%d years). Chief complaint: %s. Sections marked as conservative defaults require physician completion.",
				run.Patient.FirstName, run.Patient.LastName, run.Patient.Age, run.Clinical.ChiefComplaint),
			ClinicalFindings:  fmt.Sprintf("Reported symptoms: %s. Duration: %s. Pain scale: %d/10.", symptoms, run.Clinical.Duration, run.Clinical.PainScale),
			DiagnosticSummary: fmt.Sprintf("Working hypothesis: %s (confidence %d%%).", run.Diagnosis.Value.Primary.Condition, run.Diagnosis.Value.Primary.Confidence),
			TreatmentPlan:     fmt.Sprintf("%d medication(s) proposed, %d safety finding(s) recorded. See prescription section.", len(run.Prescription.Value.Medications), len(run.Findings)),
			FollowUpPlan:      run.Prescription.Value.FollowUp,
			PatientGuidance:   "This report contains automatically generated sections that your physician will confirm with you.",
		}
	}
}
