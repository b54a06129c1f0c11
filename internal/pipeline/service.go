package pipeline

import (
	"context"

	"github.com/rs/zerolog"

	"teleconsult-ai/internal/recovery"
)

// Archiver persists completed runs. The pipeline does not own storage;
// this is the external collaborator that does.
type Archiver interface {
	SaveRun(ctx context.Context, run *Run, bundle Bundle) error
}

// Notifier alerts the consulting physician once a bundle is ready.
type Notifier interface {
	NotifyRunCompleted(ctx context.Context, bundle Bundle) error
}

// Service fronts the orchestrator for the HTTP layer and triggers the
// out-of-band collaborators after a full run. Archive and notification
// failures are logged, never surfaced to the caller.
type Service struct {
	orch     *Orchestrator
	archive  Archiver
	notifier Notifier
	log      zerolog.Logger
}

func NewService(orch *Orchestrator, archive Archiver, notifier Notifier, log zerolog.Logger) *Service {
	return &Service{
		orch:     orch,
		archive:  archive,
		notifier: notifier,
		log:      log,
	}
}

// RunConsultation executes the full four-stage pipeline and returns the
// consolidated bundle. Persistence and physician notification run in the
// background on a detached context so a slow collaborator never delays the
// response.
func (s *Service) RunConsultation(ctx context.Context, patient PatientProfile, clinical ClinicalPresentation, questions map[string]string) (Bundle, error) {
	run, err := s.orch.RunAll(ctx, patient, clinical, questions)
	if err != nil {
		return Bundle{}, err
	}
	bundle := Aggregate(run)

	go s.finalize(*run, bundle)

	return bundle, nil
}

func (s *Service) finalize(run Run, bundle Bundle) {
	bgCtx := context.Background()
	if s.archive != nil {
		if err := s.archive.SaveRun(bgCtx, &run, bundle); err != nil {
			s.log.Error().Err(err).Str("run_id", run.ID.String()).Msg("failed to archive run")
		}
	}
	if s.notifier != nil {
		if err := s.notifier.NotifyRunCompleted(bgCtx, bundle); err != nil {
			s.log.Error().Err(err).Str("run_id", run.ID.String()).Msg("failed to notify physician")
		}
	}
}

// Diagnose runs only the diagnosis stage.
func (s *Service) Diagnose(ctx context.Context, patient PatientProfile, clinical ClinicalPresentation, questions map[string]string) (*Run, error) {
	run := NewRun(patient, clinical, questions, s.orch.model)
	if err := s.orch.RunStage(ctx, run, StageDiagnosis); err != nil {
		return nil, err
	}
	return run, nil
}

// PlanExams runs only the exams stage against an already established
// diagnosis supplied by the caller.
func (s *Service) PlanExams(ctx context.Context, patient PatientProfile, clinical ClinicalPresentation, diagnosis Diagnosis) (*Run, error) {
	run := NewRun(patient, clinical, nil, s.orch.model)
	run.Diagnosis = recovery.StageResult[Diagnosis]{Kind: recovery.KindParsed, Value: diagnosis}
	if err := s.orch.RunStage(ctx, run, StageExams); err != nil {
		return nil, err
	}
	return run, nil
}

// Prescribe runs only the prescription stage against an established
// diagnosis. Exam context is optional for this path.
func (s *Service) Prescribe(ctx context.Context, patient PatientProfile, clinical ClinicalPresentation, diagnosis Diagnosis, exams *ExamPlan) (*Run, error) {
	run := NewRun(patient, clinical, nil, s.orch.model)
	run.Diagnosis = recovery.StageResult[Diagnosis]{Kind: recovery.KindParsed, Value: diagnosis}
	if exams != nil {
		run.Exams = recovery.StageResult[ExamPlan]{Kind: recovery.KindParsed, Value: *exams}
	}
	if err := s.orch.RunStage(ctx, run, StagePrescription); err != nil {
		return nil, err
	}
	return run, nil
}
