// Package report notifies the consulting physician when a pipeline run
// completes. Document rendering stays with the UI; this sends a compact
// text summary so critical findings reach the physician without opening
// the application.
package report

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"teleconsult-ai/internal/pipeline"
	"teleconsult-ai/internal/safety"
)

// TelegramClient is the messaging surface the service needs.
type TelegramClient interface {
	SendMessage(chatID int64, text string) error
}

type Service struct {
	tgClient        TelegramClient
	physicianChatID int64
	log             zerolog.Logger
}

func NewService(tg TelegramClient, physicianChatID int64, log zerolog.Logger) *Service {
	return &Service{
		tgClient:        tg,
		physicianChatID: physicianChatID,
		log:             log,
	}
}

// NotifyRunCompleted sends the bundle summary to the physician chat. It is
// a no-op when messaging is unconfigured.
func (s *Service) NotifyRunCompleted(ctx context.Context, bundle pipeline.Bundle) error {
	if s == nil || s.tgClient == nil || s.physicianChatID == 0 {
		return nil
	}

	msg := buildSummary(bundle)
	if err := s.tgClient.SendMessage(s.physicianChatID, msg); err != nil {
		return fmt.Errorf("failed to send physician notification: %w", err)
	}
	s.log.Info().
		Str("run_id", bundle.Metadata.RunID).
		Int("critical", bundle.Safety.CriticalCount).
		Msg("physician notified")
	return nil
}

func buildSummary(bundle pipeline.Bundle) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Consultation %s completed\n", bundle.Metadata.RunID)
	fmt.Fprintf(&b, "Diagnosis: %s (confidence %d%%)\n",
		bundle.Diagnosis.Primary.Condition, bundle.Diagnosis.Primary.Confidence)
	fmt.Fprintf(&b, "Medications: %d | Exams: %d | Complexity: %s | Risk: %s\n",
		bundle.Metadata.MedicationCount, bundle.Metadata.ExamCount,
		bundle.Metadata.ComplexityLevel, bundle.Metadata.RiskLevel)

	if len(bundle.Metadata.DegradedStages) > 0 {
		fmt.Fprintf(&b, "Degraded stages: %s\n", strings.Join(bundle.Metadata.DegradedStages, ", "))
	}

	if bundle.Safety.CriticalCount > 0 {
		fmt.Fprintf(&b, "\nCRITICAL FINDINGS (%d):\n", bundle.Safety.CriticalCount)
		for _, f := range bundle.Safety.Findings {
			if f.Severity == safety.SeverityCritical {
				fmt.Fprintf(&b, "- [%s] %s\n", f.Subject, f.Message)
			}
		}
	} else if len(bundle.Safety.Findings) > 0 {
		fmt.Fprintf(&b, "Safety findings: %d (none critical)\n", len(bundle.Safety.Findings))
	}

	return b.String()
}
