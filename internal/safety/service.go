package safety

import (
	"context"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

// VerificationRequest is one cross-verification of a medication list
// against a patient profile.
type VerificationRequest struct {
	Medications              []string `json:"medications"`
	Profile                  Profile  `json:"patientProfile"`
	CheckTraditionalMedicine bool     `json:"checkTraditionalMedicine"`
	MauritianContext         bool     `json:"mauritianContext"`
}

// MedicationReport is the per-medication slice of a verification result.
type MedicationReport struct {
	Name     string      `json:"name"`
	State    ItemState   `json:"state"`
	Findings []Finding   `json:"findings,omitempty"`
	Profile  DrugProfile `json:"profile"`
}

// VerificationResult aggregates per-medication reports with the
// cross-interaction findings.
type VerificationResult struct {
	Medications   []MedicationReport `json:"medications"`
	Findings      []Finding          `json:"findings"`
	CriticalCount int                `json:"criticalCount"`
}

// VerificationService cross-checks medication lists. Profile lookups are
// mutually independent, so they fan out concurrently and join before the
// sequential validation pass.
type VerificationService struct {
	validator *Validator
	formulary Formulary
	rules     RuleSource
	log       zerolog.Logger
}

func NewVerificationService(validator *Validator, formulary Formulary, rules RuleSource, log zerolog.Logger) *VerificationService {
	return &VerificationService{
		validator: validator,
		formulary: formulary,
		rules:     rules,
		log:       log,
	}
}

func (s *VerificationService) Verify(ctx context.Context, req VerificationRequest) (*VerificationResult, error) {
	profiles := make([]DrugProfile, len(req.Medications))

	g, ctx := errgroup.WithContext(ctx)
	for i, name := range req.Medications {
		i, name := i, name
		g.Go(func() error {
			select {
			case <-ctx.Done():
				return ctx.Err()
			default:
			}
			profiles[i] = s.formulary.Lookup(name)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	candidates := make([]Candidate, len(req.Medications))
	for i, name := range req.Medications {
		candidates[i] = Candidate{Name: name, Kind: "medication"}
	}

	annotated, findings := s.validator.Validate(candidates, req.Profile)

	if req.CheckTraditionalMedicine {
		traditional := s.checkTraditional(candidates, req.Profile.CurrentMedications)
		for _, f := range traditional {
			findings = append(findings, f)
			for i := range annotated {
				if containsKeyword(f.Subject, annotated[i].Name) {
					annotated[i].apply(f)
				}
			}
		}
	}

	result := &VerificationResult{
		Medications: make([]MedicationReport, len(annotated)),
		Findings:    findings,
	}
	for i, a := range annotated {
		profile := profiles[i]
		if !req.MauritianContext {
			profile.LocalNote = ""
		}
		result.Medications[i] = MedicationReport{
			Name:     a.Name,
			State:    a.State,
			Findings: a.Findings,
			Profile:  profile,
		}
	}
	for _, f := range findings {
		if f.Severity == SeverityCritical {
			result.CriticalCount++
		}
	}

	if result.CriticalCount > 0 {
		s.log.Warn().
			Int("critical", result.CriticalCount).
			Int("medications", len(req.Medications)).
			Msg("drug verification found critical findings")
	}
	return result, nil
}

// checkTraditional scans every medication pair, and each medication against
// the patient's current intake, using the traditional-remedy table.
func (s *VerificationService) checkTraditional(items []Candidate, current []string) []Finding {
	rules := s.rules.TraditionalRules()
	var findings []Finding
	for i := 0; i < len(items); i++ {
		for j := i + 1; j < len(items); j++ {
			findings = append(findings, s.validator.matchInteraction(rules, items[i].Name, items[j].Name)...)
		}
		for _, c := range current {
			findings = append(findings, s.validator.matchInteraction(rules, items[i].Name, c)...)
		}
	}
	for i := range findings {
		findings[i].Rule = "traditional-medicine"
	}
	return findings
}
