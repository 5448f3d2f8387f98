package sqlstore

import (
	"context"
	"fmt"
	"time"

	"github.com/kirillkom/sermon-ledger/internal/core/domain"
)

func (s *Store) RecordOutcome(ctx context.Context, runID string, outcome domain.FileOutcome) error {
	_, err := s.db.ExecContext(ctx, s.rebind(`
INSERT INTO file_attempts (run_id, file_id, name, url, status, reason, duration_ms, recorded_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?)
ON CONFLICT (run_id, file_id) DO UPDATE
SET status = excluded.status, reason = excluded.reason, duration_ms = excluded.duration_ms, recorded_at = excluded.recorded_at
`), runID, outcome.FileID, outcome.Name, outcome.URL, string(outcome.Status), outcome.Reason,
		outcome.Duration.Milliseconds(), s.now().UTC().UnixMilli())
	if err != nil {
		return fmt.Errorf("record file outcome: %w", err)
	}
	return nil
}

func (s *Store) ListOutcomes(ctx context.Context, runID string) ([]domain.FileOutcome, error) {
	rows, err := s.db.QueryContext(ctx, s.rebind(`
SELECT file_id, name, url, status, reason, duration_ms
FROM file_attempts
WHERE run_id = ?
ORDER BY recorded_at, file_id
`), runID)
	if err != nil {
		return nil, fmt.Errorf("list file outcomes: %w", err)
	}
	defer rows.Close()

	out := make([]domain.FileOutcome, 0)
	for rows.Next() {
		var (
			outcome    domain.FileOutcome
			status     string
			durationMS int64
		)
		if err := rows.Scan(&outcome.FileID, &outcome.Name, &outcome.URL, &status, &outcome.Reason, &durationMS); err != nil {
			return nil, fmt.Errorf("scan file outcome: %w", err)
		}
		outcome.Status = domain.OutcomeStatus(status)
		outcome.Duration = time.Duration(durationMS) * time.Millisecond
		out = append(out, outcome)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate file outcomes: %w", err)
	}
	return out, nil
}
