package pipeline

import (
	"time"

	"github.com/google/uuid"

	"teleconsult-ai/internal/recovery"
	"teleconsult-ai/internal/safety"
)

// PatientProfile is the intake identity and background of the patient.
// It is borrowed from the consultation form for the duration of one run
// and never mutated by the pipeline.
type PatientProfile struct {
	FirstName          string   `json:"firstName"`
	LastName           string   `json:"lastName"`
	BirthDate          string   `json:"birthDate"`
	Age                int      `json:"age"`
	Sex                string   `json:"sex"`
	WeightKg           float64  `json:"weight"`
	HeightCm           float64  `json:"height"`
	Allergies          []string `json:"allergies"`
	MedicalHistory     []string `json:"medicalHistory"`
	CurrentMedications []string `json:"currentMedications"`
}

// Vitals are free-text so the form can submit "N/A" for unmeasured signs.
type Vitals struct {
	Temperature string `json:"temperature"`
	HeartRate   string `json:"heartRate"`
	Systolic    string `json:"systolic"`
	Diastolic   string `json:"diastolic"`
}

// ClinicalPresentation captures the current complaint.
type ClinicalPresentation struct {
	ChiefComplaint string   `json:"chiefComplaint"`
	Symptoms       []string `json:"symptoms"`
	Duration       string   `json:"duration"`
	PainScale      int      `json:"painScale"`
	Vitals         Vitals   `json:"vitalSigns"`
}

// DiagnosisHypothesis is one candidate condition with the model's
// confidence in percent.
type DiagnosisHypothesis struct {
	Condition  string `json:"condition"`
	Confidence int    `json:"confidence"`
	Rationale  string `json:"rationale"`
}

// Diagnosis is the first stage artifact: primary hypothesis plus the
// differential.
type Diagnosis struct {
	Primary      DiagnosisHypothesis   `json:"primary"`
	Differential []DiagnosisHypothesis `json:"differential"`
	RedFlags     []string              `json:"redFlags"`
	Confidence   int                   `json:"confidence"`
}

// ExamItem is one recommended laboratory or imaging exam.
type ExamItem struct {
	Name     string           `json:"name"`
	Reason   string           `json:"reason"`
	Urgency  string           `json:"urgency"`
	State    safety.ItemState `json:"state,omitempty"`
	Findings []safety.Finding `json:"findings,omitempty"`
}

// ExamPlan is the second stage artifact.
type ExamPlan struct {
	Laboratory   []ExamItem `json:"laboratory"`
	Imaging      []ExamItem `json:"imaging"`
	Priority     string     `json:"priority"`
	Instructions string     `json:"instructions,omitempty"`
}

// MedicationItem is one prescribed medication with its safety verdict.
type MedicationItem struct {
	Name         string           `json:"name"`
	Dosage       string           `json:"dosage"`
	Frequency    string           `json:"frequency"`
	Duration     string           `json:"duration"`
	Instructions string           `json:"instructions,omitempty"`
	State        safety.ItemState `json:"state,omitempty"`
	Findings     []safety.Finding `json:"findings,omitempty"`
}

// Prescription is the third stage artifact.
type Prescription struct {
	Medications []MedicationItem `json:"medications"`
	Advice      []string         `json:"advice"`
	FollowUp    string           `json:"followUp"`
}

// Report is the final consolidated consultation document.
type Report struct {
	Summary           string `json:"summary"`
	ClinicalFindings  string `json:"clinicalFindings"`
	DiagnosticSummary string `json:"diagnosticSummary"`
	TreatmentPlan     string `json:"treatmentPlan"`
	FollowUpPlan      string `json:"followUpPlan"`
	PatientGuidance   string `json:"patientGuidance"`
}

// Run is the aggregate root for one pipeline execution. It is exclusively
// owned by the request that created it and fully materialized before it is
// handed to the caller; long-term storage belongs to the archive
// collaborator, not the pipeline.
type Run struct {
	ID        uuid.UUID            `json:"id"`
	Patient   PatientProfile       `json:"patient"`
	Clinical  ClinicalPresentation `json:"clinical"`
	Questions map[string]string    `json:"questions,omitempty"`

	Diagnosis    recovery.StageResult[Diagnosis]    `json:"diagnosis"`
	Exams        recovery.StageResult[ExamPlan]     `json:"exams"`
	Prescription recovery.StageResult[Prescription] `json:"prescription"`
	Report       recovery.StageResult[Report]       `json:"report"`

	Findings       []safety.Finding `json:"findings"`
	DegradedStages []string         `json:"degradedStages"`
	Model          string           `json:"model"`
	StartedAt      time.Time        `json:"startedAt"`
	CompletedAt    time.Time        `json:"completedAt"`
}

// NewRun seeds a run from intake data.
func NewRun(patient PatientProfile, clinical ClinicalPresentation, questions map[string]string, model string) *Run {
	return &Run{
		ID:        uuid.New(),
		Patient:   patient,
		Clinical:  clinical,
		Questions: questions,
		Model:     model,
		StartedAt: time.Now().UTC(),
	}
}

// SafetyProfile projects the patient onto the validator's view.
func (r *Run) SafetyProfile() safety.Profile {
	return safety.Profile{
		Age:                r.Patient.Age,
		Allergies:          r.Patient.Allergies,
		MedicalHistory:     r.Patient.MedicalHistory,
		CurrentMedications: r.Patient.CurrentMedications,
	}
}
