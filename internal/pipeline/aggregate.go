package pipeline

import (
	"time"

	"teleconsult-ai/internal/safety"
)

// SafetySummary is the run-level view of every finding. Critical findings
// are never dropped from it.
type SafetySummary struct {
	Findings      []safety.Finding `json:"findings"`
	CriticalCount int              `json:"criticalCount"`
}

// Metadata carries the derived summary fields the UI displays.
type Metadata struct {
	RunID           string    `json:"runId"`
	GeneratedAt     time.Time `json:"generatedAt"`
	Model           string    `json:"model"`
	DegradedStages  []string  `json:"degradedStages"`
	MedicationCount int       `json:"medicationCount"`
	ExamCount       int       `json:"examCount"`
	ComplexityLevel string    `json:"complexityLevel"`
	RiskLevel       string    `json:"riskLevel"`
	Confidence      int       `json:"confidence"`
	DurationMs      int64     `json:"durationMs"`
}

// Bundle is the consolidated document set returned to the caller. All four
// artifacts are always present, parsed or fallback.
type Bundle struct {
	Diagnosis    Diagnosis     `json:"diagnosis"`
	Exams        ExamPlan      `json:"exams"`
	Prescription Prescription  `json:"prescription"`
	Report       Report        `json:"report"`
	Safety       SafetySummary `json:"safety"`
	Metadata     Metadata      `json:"metadata"`
}

// Aggregate merges the four stage results and the accumulated findings
// into the final bundle. It is a pure function of the run: no clocks
// beyond the run's own timestamps, no I/O.
func Aggregate(run *Run) Bundle {
	findings := run.Findings
	if findings == nil {
		findings = []safety.Finding{}
	}
	critical := 0
	for _, f := range findings {
		if f.Severity == safety.SeverityCritical {
			critical++
		}
	}

	degraded := run.DegradedStages
	if degraded == nil {
		degraded = []string{}
	}

	medCount := len(run.Prescription.Value.Medications)
	examCount := len(run.Exams.Value.Laboratory) + len(run.Exams.Value.Imaging)

	generatedAt := run.CompletedAt
	if generatedAt.IsZero() {
		generatedAt = run.StartedAt
	}

	return Bundle{
		Diagnosis:    run.Diagnosis.Value,
		Exams:        run.Exams.Value,
		Prescription: run.Prescription.Value,
		Report:       run.Report.Value,
		Safety: SafetySummary{
			Findings:      findings,
			CriticalCount: critical,
		},
		Metadata: Metadata{
			RunID:           run.ID.String(),
			GeneratedAt:     generatedAt,
			Model:           run.Model,
			DegradedStages:  degraded,
			MedicationCount: medCount,
			ExamCount:       examCount,
			ComplexityLevel: complexityLevel(medCount + examCount),
			RiskLevel:       riskLevel(run.Patient, medCount),
			Confidence:      run.Diagnosis.Value.Confidence,
			DurationMs:      generatedAt.Sub(run.StartedAt).Milliseconds(),
		},
	}
}

// complexityLevel tiers the consultation by total item count at fixed
// thresholds.
func complexityLevel(itemCount int) string {
	switch {
	case itemCount > 6:
		return "elevated"
	case itemCount > 3:
		return "moderate"
	default:
		return "standard"
	}
}

// riskLevel applies the fixed point table over age, allergy count,
// comorbidity count and medication count.
func riskLevel(p PatientProfile, medCount int) string {
	score := 0
	switch {
	case p.Age >= 75:
		score += 3
	case p.Age >= 65:
		score += 2
	case p.Age >= 55:
		score++
	}
	score += capAt(len(p.Allergies), 3)
	score += capAt(len(p.MedicalHistory), 3)
	switch {
	case medCount >= 4:
		score += 2
	case medCount >= 2:
		score++
	}

	switch {
	case score >= 8:
		return "HIGH"
	case score >= 4:
		return "MEDIUM"
	default:
		return "LOW"
	}
}

func capAt(n, limit int) int {
	if n > limit {
		return limit
	}
	return n
}
