package safety

import (
	"fmt"
)

// Profile is the validator's view of the patient: just the fields the
// safety rules consult.
type Profile struct {
	Age                int      `json:"age"`
	Allergies          []string `json:"allergies"`
	MedicalHistory     []string `json:"medicalHistory"`
	CurrentMedications []string `json:"currentMedications"`
}

// Validator enforces patient-safety invariants over candidate prescription
// and exam items. It is deterministic: the same inputs always yield the
// same findings in the same order, which matters because a stage may be
// re-validated after a fallback.
type Validator struct {
	rules RuleSource
}

func NewValidator(rules RuleSource) *Validator {
	return &Validator{rules: rules}
}

// CheckAllergy matches the item name against each recorded allergy,
// case-insensitively and accent-folded. Any match is an absolute
// contraindication.
func (v *Validator) CheckAllergy(item Candidate, p Profile) *Finding {
	for _, allergy := range p.Allergies {
		if allergy == "" {
			continue
		}
		if containsKeyword(item.Name, allergy) || containsKeyword(allergy, item.Name) {
			return &Finding{
				Severity: SeverityCritical,
				Subject:  item.Name,
				Rule:     "allergy",
				Message:  fmt.Sprintf("Documented allergy to %s: %s is absolutely contraindicated.", allergy, item.Name),
			}
		}
	}
	return nil
}

// CheckAgeAdjustment emits an advisory for elderly patients. The message
// escalates at 75 but the severity stays moderate: it is guidance, not a
// hard block.
func (v *Validator) CheckAgeAdjustment(item Candidate, age int) *Finding {
	switch {
	case age >= 75:
		return &Finding{
			Severity: SeverityModerate,
			Subject:  item.Name,
			Rule:     "age-adjustment",
			Message:  fmt.Sprintf("Patient aged %d: consider dose reduction for %s and reinforced monitoring for falls, renal function and cumulative sedation.", age, item.Name),
		}
	case age >= 65:
		return &Finding{
			Severity: SeverityModerate,
			Subject:  item.Name,
			Rule:     "age-adjustment",
			Message:  fmt.Sprintf("Patient aged %d: consider dose reduction and reinforced monitoring for %s.", age, item.Name),
		}
	}
	return nil
}

// CheckComorbidity matches medical history entries against the comorbidity
// table. Unmatched combinations emit nothing; the table is not exhaustive
// and silence is not evidence of safety.
func (v *Validator) CheckComorbidity(item Candidate, history []string) []Finding {
	var findings []Finding
	for _, rule := range v.rules.ComorbidityRules() {
		if !historyMentions(history, rule.Condition) {
			continue
		}
		for _, drug := range rule.Drugs {
			if containsKeyword(item.Name, drug) {
				findings = append(findings, Finding{
					Severity: SeverityModerate,
					Subject:  item.Name,
					Rule:     "comorbidity",
					Message:  fmt.Sprintf(rule.Message, item.Name),
				})
				break
			}
		}
	}
	return findings
}

// CheckPairwiseInteractions consults the interaction table for every
// unordered pair of items. n is small (typically under 10) so the O(n²)
// scan is fine.
func (v *Validator) CheckPairwiseInteractions(items []Candidate) []Finding {
	var findings []Finding
	for i := 0; i < len(items); i++ {
		for j := i + 1; j < len(items); j++ {
			findings = append(findings, v.matchInteraction(v.rules.Interactions(), items[i].Name, items[j].Name)...)
		}
	}
	return findings
}

// Validate runs every check per item plus the pairwise scan, including the
// patient's current medications as interaction partners. Items are
// annotated or blocked, never removed.
func (v *Validator) Validate(items []Candidate, p Profile) ([]Annotated, []Finding) {
	annotated := make([]Annotated, len(items))
	var all []Finding

	record := func(idx int, f Finding) {
		annotated[idx].apply(f)
		all = append(all, f)
	}

	for i, item := range items {
		annotated[i] = Annotated{Candidate: item, State: StateProposed}

		if f := v.CheckAllergy(item, p); f != nil {
			record(i, *f)
		}
		if item.Kind != "medication" {
			continue
		}
		if f := v.CheckAgeAdjustment(item, p.Age); f != nil {
			record(i, *f)
		}
		for _, f := range v.CheckComorbidity(item, p.MedicalHistory) {
			record(i, f)
		}
		for _, current := range p.CurrentMedications {
			for _, f := range v.matchInteraction(v.rules.Interactions(), item.Name, current) {
				f.Rule = "current-medication-interaction"
				record(i, f)
			}
		}
	}

	meds := medicationsOnly(items)
	pairwise := v.CheckPairwiseInteractions(meds)
	for _, f := range pairwise {
		all = append(all, f)
		for i := range annotated {
			if annotated[i].Kind == "medication" && containsKeyword(f.Subject, annotated[i].Name) {
				annotated[i].apply(f)
			}
		}
	}

	for i := range annotated {
		if annotated[i].State == StateProposed {
			annotated[i].State = StateApproved
		}
	}
	return annotated, all
}

// matchInteraction checks one name pair against a rule table, in both
// directions.
func (v *Validator) matchInteraction(rules []InteractionRule, a, b string) []Finding {
	var findings []Finding
	for _, rule := range rules {
		hit := (containsKeyword(a, rule.A) && containsKeyword(b, rule.B)) ||
			(containsKeyword(a, rule.B) && containsKeyword(b, rule.A))
		if !hit {
			continue
		}
		management := rule.Management
		if management == "" {
			management = "Reinforced clinical monitoring recommended."
		}
		findings = append(findings, Finding{
			Severity: rule.Severity,
			Subject:  fmt.Sprintf("%s + %s", a, b),
			Rule:     "drug-interaction",
			Message:  fmt.Sprintf("%s %s", rule.Message, management),
		})
	}
	return findings
}

func medicationsOnly(items []Candidate) []Candidate {
	var meds []Candidate
	for _, it := range items {
		if it.Kind == "medication" {
			meds = append(meds, it)
		}
	}
	return meds
}

func historyMentions(history []string, keyword string) bool {
	for _, entry := range history {
		if containsKeyword(entry, keyword) {
			return true
		}
	}
	return false
}
