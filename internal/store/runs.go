package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/abhisek/teacherbean/internal/assembly"
)

// runRepo implements RunRepo. Structured fields are stored as JSON text.
type runRepo struct {
	db *sql.DB
}

func (r *runRepo) AppendRun(ctx context.Context, run RunRecord) error {
	if run.ID == "" {
		run.ID = newID()
	}
	requested, err := json.Marshal(run.Requested)
	if err != nil {
		return fmt.Errorf("marshal requested config: %w", err)
	}
	adjusted := ""
	if run.Adjusted != nil {
		b, err := json.Marshal(run.Adjusted)
		if err != nil {
			return fmt.Errorf("marshal adjusted config: %w", err)
		}
		adjusted = string(b)
	}
	fallbacks, err := json.Marshal(nonNil(run.Fallbacks))
	if err != nil {
		return fmt.Errorf("marshal fallbacks: %w", err)
	}
	warnings, err := json.Marshal(nonNil(run.Warnings))
	if err != nil {
		return fmt.Errorf("marshal warnings: %w", err)
	}
	itemIDs, err := json.Marshal(nonNil(run.ItemIDs))
	if err != nil {
		return fmt.Errorf("marshal item ids: %w", err)
	}

	_, err = r.db.ExecContext(ctx, `INSERT INTO assembly_runs
  (id, created_at, success, requested, adjusted, fallbacks, warnings, item_ids)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		run.ID, run.CreatedAt.UnixNano(), run.Success,
		string(requested), adjusted, string(fallbacks), string(warnings), string(itemIDs),
	)
	if err != nil {
		return fmt.Errorf("append run: %w", err)
	}
	return nil
}

func (r *runRepo) ListRuns(ctx context.Context, opts QueryOpts) ([]RunRecord, error) {
	var (
		where []string
		args  []any
	)
	arg := func(v any) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}
	if !opts.From.IsZero() {
		where = append(where, "created_at >= "+arg(opts.From.UnixNano()))
	}
	if !opts.To.IsZero() {
		where = append(where, "created_at <= "+arg(opts.To.UnixNano()))
	}

	q := `SELECT id, created_at, success, requested, adjusted, fallbacks, warnings, item_ids FROM assembly_runs`
	if len(where) > 0 {
		q += " WHERE " + strings.Join(where, " AND ")
	}
	q += " ORDER BY created_at DESC, id"
	if opts.Limit > 0 {
		q += " LIMIT " + arg(opts.Limit)
	}

	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	defer rows.Close()

	runs := []RunRecord{}
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	return runs, nil
}

func (r *runRepo) Prune(ctx context.Context, keep int) error {
	// Find the threshold: the Nth most recent run.
	var threshold int64
	err := r.db.QueryRowContext(ctx,
		`SELECT created_at FROM assembly_runs ORDER BY created_at DESC LIMIT 1 OFFSET $1`, keep,
	).Scan(&threshold)
	if err == sql.ErrNoRows {
		return nil // fewer than keep runs exist
	}
	if err != nil {
		return fmt.Errorf("query runs for prune: %w", err)
	}

	if _, err := r.db.ExecContext(ctx, `DELETE FROM assembly_runs WHERE created_at <= $1`, threshold); err != nil {
		return fmt.Errorf("prune runs: %w", err)
	}
	return nil
}

func scanRun(rows *sql.Rows) (RunRecord, error) {
	var (
		run                                     RunRecord
		createdAt                               int64
		requested, adjusted, fallbacks, warning string
		itemIDs                                 string
	)
	err := rows.Scan(&run.ID, &createdAt, &run.Success, &requested, &adjusted, &fallbacks, &warning, &itemIDs)
	if err != nil {
		return RunRecord{}, fmt.Errorf("scan run: %w", err)
	}
	run.CreatedAt = time.Unix(0, createdAt).UTC()

	if err := json.Unmarshal([]byte(requested), &run.Requested); err != nil {
		return RunRecord{}, fmt.Errorf("decode run %s requested config: %w", run.ID, err)
	}
	if adjusted != "" {
		var cfg assembly.Config
		if err := json.Unmarshal([]byte(adjusted), &cfg); err != nil {
			return RunRecord{}, fmt.Errorf("decode run %s adjusted config: %w", run.ID, err)
		}
		run.Adjusted = &cfg
	}
	if err := json.Unmarshal([]byte(fallbacks), &run.Fallbacks); err != nil {
		return RunRecord{}, fmt.Errorf("decode run %s fallbacks: %w", run.ID, err)
	}
	if err := json.Unmarshal([]byte(warning), &run.Warnings); err != nil {
		return RunRecord{}, fmt.Errorf("decode run %s warnings: %w", run.ID, err)
	}
	if err := json.Unmarshal([]byte(itemIDs), &run.ItemIDs); err != nil {
		return RunRecord{}, fmt.Errorf("decode run %s item ids: %w", run.ID, err)
	}
	return run, nil
}

func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
