package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"teleconsult-ai/internal/gateway"
	"teleconsult-ai/internal/recovery"
	"teleconsult-ai/internal/safety"
)

type StageName string

const (
	StageDiagnosis    StageName = "diagnosis"
	StageExams        StageName = "exams"
	StagePrescription StageName = "prescription"
	StageReport       StageName = "report"
)

// stage is one descriptor in the ordered pipeline: who it is, how to build
// its prompt from everything settled so far, and how to settle its result
// into the run. One generic loop interprets the list.
type stage struct {
	name   StageName
	prompt func(run *Run) string
	settle func(run *Run, raw string, callErr error)
}

// Orchestrator runs the four generation stages in strict order. It owns
// the degrade-gracefully policy: a stage failure substitutes the stage's
// conservative fallback and the pipeline continues, because a
// partial-but-safe document set is more useful to the physician than
// nothing. Only caller cancellation abandons a run.
type Orchestrator struct {
	gw        gateway.Gateway
	validator *safety.Validator
	model     string
	timeout   time.Duration
	maxTokens int
	log       zerolog.Logger
}

func NewOrchestrator(gw gateway.Gateway, validator *safety.Validator, model string, timeout time.Duration, maxTokens int, log zerolog.Logger) *Orchestrator {
	if timeout <= 0 {
		timeout = 45 * time.Second
	}
	return &Orchestrator{
		gw:        gw,
		validator: validator,
		model:     model,
		timeout:   timeout,
		maxTokens: maxTokens,
		log:       log,
	}
}

func (o *Orchestrator) stages() []stage {
	return []stage{
		{
			name:   StageDiagnosis,
			prompt: buildDiagnosisPrompt,
			settle: func(run *Run, raw string, callErr error) {
				run.Diagnosis = settleStage(run, StageDiagnosis, raw, callErr, fallbackDiagnosis(run))
			},
		},
		{
			name:   StageExams,
			prompt: buildExamsPrompt,
			settle: func(run *Run, raw string, callErr error) {
				res := settleStage(run, StageExams, raw, callErr, fallbackExams(run))
				o.validateExams(run, &res.Value)
				run.Exams = res
			},
		},
		{
			name:   StagePrescription,
			prompt: buildPrescriptionPrompt,
			settle: func(run *Run, raw string, callErr error) {
				res := settleStage(run, StagePrescription, raw, callErr, fallbackPrescription(run))
				o.validatePrescription(run, &res.Value)
				run.Prescription = res
			},
		},
		{
			name:   StageReport,
			prompt: buildReportPrompt,
			settle: func(run *Run, raw string, callErr error) {
				run.Report = settleStage(run, StageReport, raw, callErr, fallbackReport(run))
			},
		},
	}
}

// RunAll executes the full Diagnosis → Exams → Prescription → Report
// sequence. Each stage reads only results that have already settled.
func (o *Orchestrator) RunAll(ctx context.Context, patient PatientProfile, clinical ClinicalPresentation, questions map[string]string) (*Run, error) {
	run := NewRun(patient, clinical, questions, o.model)
	for _, st := range o.stages() {
		if err := o.runStage(ctx, run, st); err != nil {
			// Caller cancelled: the whole run is discarded, no partial
			// bundle is returned.
			return nil, err
		}
	}
	run.CompletedAt = time.Now().UTC()
	return run, nil
}

// RunStage executes a single named stage on a prepared run, for the
// per-stage endpoints whose predecessor artifacts arrive in the request.
func (o *Orchestrator) RunStage(ctx context.Context, run *Run, name StageName) error {
	for _, st := range o.stages() {
		if st.name != name {
			continue
		}
		if err := o.runStage(ctx, run, st); err != nil {
			return err
		}
		run.CompletedAt = time.Now().UTC()
		return nil
	}
	return fmt.Errorf("unknown stage %q", name)
}

func (o *Orchestrator) runStage(ctx context.Context, run *Run, st stage) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	prompt := st.prompt(run)

	callCtx, cancel := context.WithTimeout(ctx, o.timeout)
	raw, err := o.gw.Generate(callCtx, prompt, gateway.Options{
		MaxTokens:   o.maxTokens,
		Temperature: 0.2,
	})
	cancel()

	if err != nil && ctx.Err() != nil {
		// The invoking request aborted mid-call; a timeout of our own
		// would leave ctx alive and fall through to fallback instead.
		return ctx.Err()
	}

	st.settle(run, raw, err)

	evt := o.log.Info()
	if err != nil {
		evt = o.log.Warn().Err(err)
	}
	evt.Str("run_id", run.ID.String()).
		Str("stage", string(st.name)).
		Bool("degraded", stageDegraded(run, st.name)).
		Msg("stage settled")
	return nil
}

// settleStage converts a raw gateway outcome into the stage's StageResult.
// A failed call skips recovery and substitutes the fallback directly.
func settleStage[T any](run *Run, name StageName, raw string, callErr error, build func(reason string) T) recovery.StageResult[T] {
	var res recovery.StageResult[T]
	if callErr != nil {
		reason := callErr.Error()
		res = recovery.Fallback(build(reason), reason)
	} else {
		res = recovery.Recover(raw, recovery.FallbackBuilder[T](build))
	}
	if res.Degraded() {
		run.DegradedStages = append(run.DegradedStages, string(name))
	}
	return res
}

// validateExams annotates exam items in place and accumulates findings on
// the run. Items are never removed.
func (o *Orchestrator) validateExams(run *Run, plan *ExamPlan) {
	candidates := make([]safety.Candidate, 0, len(plan.Laboratory)+len(plan.Imaging))
	for _, it := range plan.Laboratory {
		candidates = append(candidates, safety.Candidate{Name: it.Name, Kind: "exam"})
	}
	for _, it := range plan.Imaging {
		candidates = append(candidates, safety.Candidate{Name: it.Name, Kind: "exam"})
	}
	if len(candidates) == 0 {
		return
	}

	annotated, findings := o.validator.Validate(candidates, run.SafetyProfile())
	for i := range plan.Laboratory {
		plan.Laboratory[i].State = annotated[i].State
		plan.Laboratory[i].Findings = annotated[i].Findings
	}
	offset := len(plan.Laboratory)
	for i := range plan.Imaging {
		plan.Imaging[i].State = annotated[offset+i].State
		plan.Imaging[i].Findings = annotated[offset+i].Findings
	}
	run.Findings = append(run.Findings, findings...)
}

// validatePrescription annotates medication items in place and accumulates
// findings on the run.
func (o *Orchestrator) validatePrescription(run *Run, p *Prescription) {
	if len(p.Medications) == 0 {
		return
	}
	candidates := make([]safety.Candidate, len(p.Medications))
	for i, m := range p.Medications {
		candidates[i] = safety.Candidate{Name: m.Name, Kind: "medication"}
	}

	annotated, findings := o.validator.Validate(candidates, run.SafetyProfile())
	for i := range p.Medications {
		p.Medications[i].State = annotated[i].State
		p.Medications[i].Findings = annotated[i].Findings
	}
	run.Findings = append(run.Findings, findings...)
}

func stageDegraded(run *Run, name StageName) bool {
	for _, s := range run.DegradedStages {
		if s == string(name) {
			return true
		}
	}
	return false
}
