package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/abhisek/teacherbean/internal/itembank"
)

var newID = uuid.NewString

// itemRepo implements ItemRepo with plain SQL shared by both drivers.
type itemRepo struct {
	db *sql.DB
}

func (r *itemRepo) PutItems(ctx context.Context, items []itembank.Item) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin put items: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `INSERT INTO items
  (id, owner_id, type, level, difficulty_score, usage_count, data, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
ON CONFLICT (id) DO UPDATE SET
  owner_id = excluded.owner_id,
  type = excluded.type,
  level = excluded.level,
  difficulty_score = excluded.difficulty_score,
  usage_count = excluded.usage_count,
  data = excluded.data,
  created_at = excluded.created_at,
  updated_at = excluded.updated_at`)
	if err != nil {
		return fmt.Errorf("prepare put items: %w", err)
	}
	defer stmt.Close()

	for _, it := range items {
		data, err := json.Marshal(it)
		if err != nil {
			return fmt.Errorf("marshal item %s: %w", it.ID, err)
		}
		_, err = stmt.ExecContext(ctx,
			it.ID, it.OwnerID, string(it.Type), string(it.Level),
			it.DifficultyScore, it.UsageCount, string(data),
			it.CreatedAt.UnixNano(), it.UpdatedAt.UnixNano(),
		)
		if err != nil {
			return fmt.Errorf("put item %s: %w", it.ID, err)
		}
	}
	return tx.Commit()
}

func (r *itemRepo) GetItem(ctx context.Context, id string) (itembank.Item, error) {
	var (
		data  string
		usage int
	)
	err := r.db.QueryRowContext(ctx, `SELECT data, usage_count FROM items WHERE id = $1`, id).Scan(&data, &usage)
	if errors.Is(err, sql.ErrNoRows) {
		return itembank.Item{}, fmt.Errorf("item %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return itembank.Item{}, fmt.Errorf("get item %s: %w", id, err)
	}
	return decodeItem(data, usage)
}

func (r *itemRepo) ListItems(ctx context.Context, f ItemFilter) ([]itembank.Item, error) {
	var (
		where []string
		args  []any
	)
	arg := func(v any) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}
	if f.OwnerID != "" {
		where = append(where, "owner_id = "+arg(f.OwnerID))
	}
	if f.Level != "" {
		where = append(where, "level = "+arg(string(f.Level)))
	}
	if len(f.Types) > 0 {
		ph := make([]string, len(f.Types))
		for i, t := range f.Types {
			ph[i] = arg(string(t))
		}
		where = append(where, "type IN ("+strings.Join(ph, ", ")+")")
	}

	q := `SELECT data, usage_count FROM items`
	if len(where) > 0 {
		q += " WHERE " + strings.Join(where, " AND ")
	}
	q += " ORDER BY created_at, id"
	// Tags live inside the JSON document, so the limit has to wait for
	// the tag filter when one is set.
	if f.Limit > 0 && len(f.Tags) == 0 {
		q += " LIMIT " + arg(f.Limit)
	}

	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("list items: %w", err)
	}
	defer rows.Close()

	items := []itembank.Item{}
	for rows.Next() {
		var (
			data  string
			usage int
		)
		if err := rows.Scan(&data, &usage); err != nil {
			return nil, fmt.Errorf("scan item: %w", err)
		}
		it, err := decodeItem(data, usage)
		if err != nil {
			return nil, err
		}
		if !hasAllTags(it, f.Tags) {
			continue
		}
		items = append(items, it)
		if f.Limit > 0 && len(items) == f.Limit {
			break
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list items: %w", err)
	}
	return items, nil
}

func (r *itemRepo) IncrementUsage(ctx context.Context, ids []string) error {
	if len(ids) == 0 {
		return nil
	}
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin increment usage: %w", err)
	}
	defer tx.Rollback()

	for _, id := range ids {
		if _, err := tx.ExecContext(ctx, `UPDATE items SET usage_count = usage_count + 1 WHERE id = $1`, id); err != nil {
			return fmt.Errorf("increment usage %s: %w", id, err)
		}
	}
	return tx.Commit()
}

func (r *itemRepo) CountByType(ctx context.Context, ownerID string) (map[itembank.ItemType]int, error) {
	q := `SELECT type, COUNT(*) FROM items`
	var args []any
	if ownerID != "" {
		q += ` WHERE owner_id = $1`
		args = append(args, ownerID)
	}
	q += ` GROUP BY type`

	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("count items: %w", err)
	}
	defer rows.Close()

	counts := make(map[itembank.ItemType]int)
	for rows.Next() {
		var (
			t string
			n int
		)
		if err := rows.Scan(&t, &n); err != nil {
			return nil, fmt.Errorf("scan count: %w", err)
		}
		counts[itembank.ItemType(t)] = n
	}
	return counts, rows.Err()
}

// decodeItem passes a stored document back through the normalizer, so a
// row edited outside the CLI still comes back canonical or not at all.
func decodeItem(data string, usage int) (itembank.Item, error) {
	dec := json.NewDecoder(strings.NewReader(data))
	dec.UseNumber()
	var rec map[string]any
	if err := dec.Decode(&rec); err != nil {
		return itembank.Item{}, fmt.Errorf("decode stored item: %w", err)
	}
	if rec == nil {
		return itembank.Item{}, fmt.Errorf("decode stored item: %w", itembank.ErrNotRecord)
	}
	rec["usage_count"] = usage

	it, err := itembank.Normalize(rec)
	if err != nil {
		return itembank.Item{}, fmt.Errorf("stored item %v: %w", rec["id"], err)
	}
	return it, nil
}

func hasAllTags(it itembank.Item, tags []string) bool {
	for _, tag := range tags {
		if !it.HasTag(tag) {
			return false
		}
	}
	return true
}
