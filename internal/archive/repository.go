// Package archive persists completed pipeline runs. The pipeline itself is
// storage-free; this repository is the collaborator that owns consultation
// state once a bundle has been handed to the caller.
package archive

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"teleconsult-ai/internal/pipeline"
)

type Repository struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

// SaveRun stores the run's intake data and the final bundle as jsonb rows.
// A nil database is tolerated so the server can run without persistence.
func (r *Repository) SaveRun(ctx context.Context, run *pipeline.Run, bundle pipeline.Bundle) error {
	if r == nil || r.db == nil {
		return nil
	}

	patientJSON, err := json.Marshal(run.Patient)
	if err != nil {
		return fmt.Errorf("failed to marshal patient: %w", err)
	}
	clinicalJSON, err := json.Marshal(run.Clinical)
	if err != nil {
		return fmt.Errorf("failed to marshal clinical data: %w", err)
	}
	bundleJSON, err := json.Marshal(bundle)
	if err != nil {
		return fmt.Errorf("failed to marshal bundle: %w", err)
	}

	query := `
		INSERT INTO pipeline_runs (id, patient, clinical, bundle, degraded_stages, critical_findings, model, started_at, completed_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (id) DO UPDATE SET
			bundle = $4,
			degraded_stages = $5,
			critical_findings = $6,
			completed_at = $9
	`
	degradedJSON, err := json.Marshal(bundle.Metadata.DegradedStages)
	if err != nil {
		return fmt.Errorf("failed to marshal degraded stages: %w", err)
	}

	completedAt := run.CompletedAt
	if completedAt.IsZero() {
		completedAt = time.Now()
	}

	_, err = r.db.ExecContext(ctx, query,
		run.ID, patientJSON, clinicalJSON, bundleJSON, degradedJSON,
		bundle.Safety.CriticalCount, run.Model, run.StartedAt, completedAt)
	return err
}

// GetBundle loads a stored bundle by run id.
func (r *Repository) GetBundle(ctx context.Context, id uuid.UUID) (*pipeline.Bundle, error) {
	if r == nil || r.db == nil {
		return nil, fmt.Errorf("archive not configured")
	}

	query := `SELECT bundle FROM pipeline_runs WHERE id = $1`
	row := r.db.QueryRowContext(ctx, query, id)

	var bundleJSON []byte
	if err := row.Scan(&bundleJSON); err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("run not found")
		}
		return nil, err
	}

	var bundle pipeline.Bundle
	if err := json.Unmarshal(bundleJSON, &bundle); err != nil {
		return nil, fmt.Errorf("failed to unmarshal bundle: %w", err)
	}
	return &bundle, nil
}
