package repository

import (
	"context"

	"vodsearch/internal/domain/model"
)

// VideoQuery describes a filtered, sorted, paginated read of stored videos.
// All supplied filters are ANDed; zero values impose no constraint.
type VideoQuery struct {
	GameID   string
	Language string
	Period   model.Period
	Sort     model.Sort
	Skip     int
	Limit    int
}

// QueryResult is one page of videos plus the total count of the filtered
// set before skip/limit were applied. Count and page are evaluated against
// the same filter within a single call.
type QueryResult struct {
	Videos     []*model.Video
	TotalCount int
}

// UpsertResult reports per-item outcomes of a batch upsert.
type UpsertResult struct {
	SuccessCount int
	ErrorCount   int
}

// VideoRepository defines the interface for video persistence operations.
// Implementations should be provided by the infrastructure layer (e.g., PostgreSQL).
type VideoRepository interface {
	// UpsertMany inserts or replaces videos keyed by their external ID.
	// Per-item failures are isolated; the call fails only when every item
	// fails. Partial failures are reported through UpsertResult.
	UpsertMany(ctx context.Context, videos []*model.Video) (UpsertResult, error)

	// FindByID retrieves a video by its external ID.
	// Returns nil and ErrVideoNotFound if the video does not exist.
	FindByID(ctx context.Context, id string) (*model.Video, error)

	// Query answers a filtered/sorted/paginated read over the stored corpus.
	Query(ctx context.Context, q VideoQuery) (QueryResult, error)
}
