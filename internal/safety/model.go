package safety

// Severity ranks a finding. Critical findings block an item; moderate and
// info findings annotate it.
type Severity string

const (
	SeverityCritical Severity = "critical"
	SeverityModerate Severity = "moderate"
	SeverityInfo     Severity = "info"
)

// Finding is a structured safety warning attached to a candidate item and
// collected into the run-level list. Generated once, never mutated.
type Finding struct {
	Severity Severity `json:"severity"`
	Subject  string   `json:"subject"`
	Rule     string   `json:"rule"`
	Message  string   `json:"message"`
}

// ItemState is the per-item verdict. Contraindicated is terminal within a
// run: a later check can add findings but never clear a critical flag.
type ItemState string

const (
	StateProposed        ItemState = "proposed"
	StateApproved        ItemState = "approved"
	StateFlagged         ItemState = "flagged"
	StateContraindicated ItemState = "contraindicated"
)

// Candidate is one prescription or exam item submitted for validation.
type Candidate struct {
	Name string `json:"name"`
	Kind string `json:"kind"` // "medication" or "exam"
}

// Annotated is a candidate with its verdict and the findings that led to
// it. Items are annotated or blocked, never removed: silent removal would
// look like an oversight to the reviewing clinician.
type Annotated struct {
	Candidate
	State    ItemState `json:"state"`
	Findings []Finding `json:"findings,omitempty"`
}

// apply folds a new finding into the item state.
func (a *Annotated) apply(f Finding) {
	a.Findings = append(a.Findings, f)
	if a.State == StateContraindicated {
		return
	}
	if f.Severity == SeverityCritical {
		a.State = StateContraindicated
		return
	}
	a.State = StateFlagged
}
