package pipeline

// prompts.go defines the prompt templates for the four generation stages.
// Keeping them in a separate file makes them easy to tweak without touching
// the orchestration code. Every template demands a bare JSON object so the
// recovery layer has a fair chance of parsing the completion.

import (
	"encoding/json"
	"fmt"
	"strings"
)

const promptPreamble = `You are a clinical decision-support assistant for a remote physician conducting a teleconsultation in Mauritius. You never address the patient directly. Return ONLY a valid JSON object matching the requested schema: no markdown fences, no commentary before or after the JSON.`

const diagnosisSchema = `{
  "primary": {"condition": string, "confidence": number (0-100), "rationale": string},
  "differential": [{"condition": string, "confidence": number (0-100), "rationale": string}] (2-4 items),
  "redFlags": string[] (0-4 items, warning signs that require urgent escalation),
  "confidence": number (0-100, overall confidence in the assessment)
}`

const examsSchema = `{
  "laboratory": [{"name": string, "reason": string, "urgency": "routine"|"urgent"}] (0-5 items),
  "imaging": [{"name": string, "reason": string, "urgency": "routine"|"urgent"}] (0-3 items),
  "priority": "routine"|"urgent",
  "instructions": string (patient preparation instructions, may be empty)
}`

const prescriptionSchema = `{
  "medications": [{"name": string (generic name), "dosage": string, "frequency": string, "duration": string, "instructions": string}] (0-6 items),
  "advice": string[] (2-5 non-drug recommendations),
  "followUp": string (when and how the patient should be reassessed)
}`

const reportSchema = `{
  "summary": string (2-3 sentences),
  "clinicalFindings": string,
  "diagnosticSummary": string,
  "treatmentPlan": string,
  "followUpPlan": string,
  "patientGuidance": string (plain-language guidance for the patient)
}`

func buildDiagnosisPrompt(run *Run) string {
	var b strings.Builder
	b.WriteString(promptPreamble)
	b.WriteString("\n\nTask: establish a differential diagnosis from the intake below.\nSchema:\n")
	b.WriteString(diagnosisSchema)
	writePatientContext(&b, run)
	if len(run.Questions) > 0 {
		b.WriteString("\nTriage question answers:\n")
		b.WriteString(asJSON(run.Questions))
	}
	return b.String()
}

func buildExamsPrompt(run *Run) string {
	var b strings.Builder
	b.WriteString(promptPreamble)
	b.WriteString("\n\nTask: recommend laboratory and imaging exams that confirm or exclude the established diagnosis. Reference the diagnosis below; do not re-derive one.\nSchema:\n")
	b.WriteString(examsSchema)
	writePatientContext(&b, run)
	b.WriteString("\nEstablished diagnosis:\n")
	b.WriteString(asJSON(run.Diagnosis.Value))
	return b.String()
}

func buildPrescriptionPrompt(run *Run) string {
	var b strings.Builder
	b.WriteString(promptPreamble)
	b.WriteString("\n\nTask: propose a medication prescription for the established diagnosis. Use generic names. Account for the allergies, history and current medications below. Reference the diagnosis; do not re-derive one.\nSchema:\n")
	b.WriteString(prescriptionSchema)
	writePatientContext(&b, run)
	b.WriteString("\nEstablished diagnosis:\n")
	b.WriteString(asJSON(run.Diagnosis.Value))
	b.WriteString("\nRecommended exams:\n")
	b.WriteString(asJSON(run.Exams.Value))
	return b.String()
}

func buildReportPrompt(run *Run) string {
	var b strings.Builder
	b.WriteString(promptPreamble)
	b.WriteString("\n\nTask: write the consolidated consultation report from the artifacts below. Stay consistent with them; do not introduce new clinical conclusions.\nSchema:\n")
	b.WriteString(reportSchema)
	writePatientContext(&b, run)
	b.WriteString("\nDiagnosis:\n")
	b.WriteString(asJSON(run.Diagnosis.Value))
	b.WriteString("\nExams:\n")
	b.WriteString(asJSON(run.Exams.Value))
	b.WriteString("\nPrescription:\n")
	b.WriteString(asJSON(run.Prescription.Value))
	if len(run.Findings) > 0 {
		b.WriteString("\nSafety findings (must be reflected in the treatment plan):\n")
		b.WriteString(asJSON(run.Findings))
	}
	return b.String()
}

func writePatientContext(b *strings.Builder, run *Run) {
	fmt.Fprintf(b, "\n\nPatient profile:\n%s\nClinical presentation:\n%s\n",
		asJSON(run.Patient), asJSON(run.Clinical))
}

func asJSON(v any) string {
	data, err := json.Marshal(v)
	if err != nil {
		return "{}"
	}
	return string(data)
}
