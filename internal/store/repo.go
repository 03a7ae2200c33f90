package store

import (
	"context"
	"time"

	"github.com/abhisek/teacherbean/internal/assembly"
	"github.com/abhisek/teacherbean/internal/itembank"
)

// QueryOpts configures run queries with filtering and pagination.
type QueryOpts struct {
	Limit int       // max results (0 = unlimited)
	From  time.Time // created_at >= From
	To    time.Time // created_at <= To
}

// ItemFilter narrows ListItems. Zero fields match everything.
type ItemFilter struct {
	OwnerID string
	Level   itembank.Level
	Types   []itembank.ItemType

	// Tags must all be present on an item (case-insensitive).
	Tags []string

	Limit int
}

// ItemRepo persists canonical items.
type ItemRepo interface {
	// PutItems inserts items, replacing any with the same ID.
	PutItems(ctx context.Context, items []itembank.Item) error

	// GetItem returns the item with id, or ErrNotFound.
	GetItem(ctx context.Context, id string) (itembank.Item, error)

	// ListItems returns matching items ordered by creation time, then ID.
	ListItems(ctx context.Context, f ItemFilter) ([]itembank.Item, error)

	// IncrementUsage adds one to the usage count of each listed item.
	IncrementUsage(ctx context.Context, ids []string) error

	// CountByType returns item counts per type, optionally for one owner.
	CountByType(ctx context.Context, ownerID string) (map[itembank.ItemType]int, error)
}

// RunRecord is the audit entry for one assembly run.
type RunRecord struct {
	ID        string
	CreatedAt time.Time
	Success   bool
	Requested assembly.Config
	Adjusted  *assembly.Config
	Fallbacks []assembly.Fallback
	Warnings  []string
	ItemIDs   []string
}

// NewRunRecord captures an assembly result. The ID is a fresh UUID.
func NewRunRecord(requested assembly.Config, res assembly.Result, at time.Time) RunRecord {
	ids := make([]string, len(res.SelectedItems))
	for i, it := range res.SelectedItems {
		ids[i] = it.ID
	}
	return RunRecord{
		ID:        newID(),
		CreatedAt: at,
		Success:   res.Success,
		Requested: requested,
		Adjusted:  res.AdjustedConfig,
		Fallbacks: res.FallbacksApplied,
		Warnings:  res.Warnings,
		ItemIDs:   ids,
	}
}

// RunRepo records assembly runs.
type RunRepo interface {
	// AppendRun stores a run.
	AppendRun(ctx context.Context, run RunRecord) error

	// ListRuns returns runs newest first.
	ListRuns(ctx context.Context, opts QueryOpts) ([]RunRecord, error)

	// Prune deletes all but the N most recent runs.
	Prune(ctx context.Context, keep int) error
}
