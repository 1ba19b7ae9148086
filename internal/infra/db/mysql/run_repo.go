package mysql

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	domain "github.com/bryanwahyu/sparklens/internal/domain/analysis"
)

type RunRepository struct {
	db *sql.DB
}

func NewRunRepository(db *sql.DB) *RunRepository {
	return &RunRepository{db: db}
}

// Save inserts a run. Runs are immutable, so there is no upsert.
func (r *RunRepository) Save(ctx context.Context, run *domain.Run) error {
	const q = `
INSERT INTO analysis_runs
  (id, user_id, fingerprint, schema_version, summary, result_json, cached, created_at)
VALUES (?,?,?,?,?,?,?,?)
`
	createdAt := run.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now()
	}
	_, err := r.db.ExecContext(ctx, q,
		run.ID, stringOrDash(run.UserID), run.Fingerprint, run.SchemaVersion,
		run.Summary, jsonOrEmpty(string(run.Result)), run.Cached, createdAt,
	)
	if err != nil {
		return fmt.Errorf("insert run: %w", err)
	}
	return nil
}

func (r *RunRepository) Get(ctx context.Context, userID, runID string) (*domain.Run, error) {
	const q = `
SELECT id, user_id, fingerprint, schema_version, summary, result_json, cached, created_at
FROM analysis_runs
WHERE user_id=? AND id=? LIMIT 1;
`
	run, err := scanRun(r.db.QueryRowContext(ctx, q, userID, runID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrRunNotFound
	}
	return run, err
}

// Paginate returns a page of runs ordered by created_at desc
func (r *RunRepository) Paginate(ctx context.Context, userID string, page, pageSize int) ([]*domain.Run, error) {
	limit, offset := pageBounds(page, pageSize)
	const q = `
SELECT id, user_id, fingerprint, schema_version, summary, result_json, cached, created_at
FROM analysis_runs
WHERE user_id=?
ORDER BY created_at DESC, id DESC
LIMIT ? OFFSET ?;
`
	rows, err := r.db.QueryContext(ctx, q, userID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("querying runs: %w", err)
	}
	defer rows.Close()

	var out []*domain.Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning row: %w", err)
		}
		out = append(out, run)
	}
	return out, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRun(row rowScanner) (*domain.Run, error) {
	var run domain.Run
	var result []byte
	if err := row.Scan(
		&run.ID, &run.UserID, &run.Fingerprint, &run.SchemaVersion,
		&run.Summary, &result, &run.Cached, &run.CreatedAt,
	); err != nil {
		return nil, err
	}
	run.Result = json.RawMessage(result)
	return &run, nil
}
