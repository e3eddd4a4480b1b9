package db

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/david/opportunity-sync/internal/ingest"
	"github.com/david/opportunity-sync/internal/models"
	"github.com/google/uuid"
)

const (
	RunStatusRunning   = "running"
	RunStatusCompleted = "completed"
	RunStatusPartial   = "partial"
	RunStatusFailed    = "failed"
)

// StartRun inserts a running import_runs row and returns its id.
func (s *Store) StartRun(ctx context.Context, source string) (string, error) {
	id := uuid.New()
	_, err := s.pool.Exec(ctx,
		"INSERT INTO import_runs (id, source, status) VALUES ($1, $2, $3)",
		id, source, RunStatusRunning)
	if err != nil {
		return "", fmt.Errorf("create import run: %w", err)
	}
	return id.String(), nil
}

// CompleteRun stores the final counts and errors of a run.
func (s *Store) CompleteRun(ctx context.Context, runID string, result ingest.ImportResult) error {
	id, err := uuid.Parse(runID)
	if err != nil {
		return fmt.Errorf("invalid run id %q: %w", runID, err)
	}

	errs := result.Errors
	if errs == nil {
		errs = []ingest.ImportError{}
	}
	errorsJSON, err := json.Marshal(errs)
	if err != nil {
		return fmt.Errorf("encode run errors: %w", err)
	}

	_, err = s.pool.Exec(ctx,
		`UPDATE import_runs SET
			status = $1,
			completed_at = NOW(),
			opportunities_total = $2,
			opportunities_new = $3,
			quotes_total = $4,
			jobs_total = $5,
			jobs_linked = $6,
			requests_total = $7,
			requests_saved = $8,
			error_count = $9,
			errors = $10,
			details = jsonb_build_object('duration_ms', (EXTRACT(EPOCH FROM NOW() - started_at) * 1000)::bigint)
		WHERE id = $11`,
		RunStatus(result),
		result.Opportunities.Total, result.Opportunities.New,
		result.Quotes.Total,
		result.Jobs.Total, result.Jobs.Linked,
		result.Requests.Total, result.Requests.Saved,
		len(result.Errors), errorsJSON,
		id,
	)
	if err != nil {
		return fmt.Errorf("update import run %s: %w", runID, err)
	}
	return nil
}

// RunStatus classifies a finished run: no errors is completed, errors with
// something persisted is partial, anything else failed.
func RunStatus(result ingest.ImportResult) string {
	if result.Success {
		return RunStatusCompleted
	}
	saved := result.Quotes.New + result.Quotes.Updated +
		result.Opportunities.New + result.Opportunities.Updated +
		result.Requests.Saved
	if saved > 0 {
		return RunStatusPartial
	}
	return RunStatusFailed
}

func (s *Store) ListImportRuns(ctx context.Context, limit int) ([]models.ImportRun, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.pool.Query(ctx, `
		SELECT id, source, status, started_at, completed_at,
			opportunities_total, opportunities_new, quotes_total,
			jobs_total, jobs_linked, requests_total, requests_saved,
			error_count, errors
		FROM import_runs
		ORDER BY started_at DESC
		LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("query import runs: %w", err)
	}
	defer rows.Close()

	runs := []models.ImportRun{}
	for rows.Next() {
		var r models.ImportRun
		var errorsRaw []byte
		if err := rows.Scan(
			&r.ID, &r.Source, &r.Status, &r.StartedAt, &r.CompletedAt,
			&r.OpportunitiesTotal, &r.OpportunitiesNew, &r.QuotesTotal,
			&r.JobsTotal, &r.JobsLinked, &r.RequestsTotal, &r.RequestsSaved,
			&r.ErrorCount, &errorsRaw,
		); err != nil {
			return nil, fmt.Errorf("scan import run: %w", err)
		}
		r.Errors = json.RawMessage(errorsRaw)
		runs = append(runs, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration failed: %w", err)
	}
	return runs, nil
}
