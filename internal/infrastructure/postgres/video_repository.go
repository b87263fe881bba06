package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"vodsearch/internal/domain/apperr"
	"vodsearch/internal/domain/model"
	"vodsearch/internal/domain/repository"
	"vodsearch/internal/infrastructure/metrics"
)

// DBTX is an interface that abstracts pgxpool.Pool and pgx.Tx for testability.
type DBTX interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Begin(ctx context.Context) (pgx.Tx, error)
}

// VideoRepository implements repository.VideoRepository using PostgreSQL.
//
// Timestamps are stored as fixed-width ISO-8601 UTC TEXT so the period
// lower bound can be compared lexicographically against created_at.
type VideoRepository struct {
	db DBTX

	// now is injectable for tests of the period lower bound.
	now func() time.Time
}

// NewVideoRepository creates a new VideoRepository instance.
func NewVideoRepository(db DBTX) *VideoRepository {
	return &VideoRepository{db: db, now: time.Now}
}

const videoColumns = `id, stream_id, user_id, user_login, user_name, title, description,
		created_at, published_at, url, thumbnail_url, viewable, view_count,
		language, type, duration, muted_segments, game_id, tag_ids`

const upsertVideoQuery = `
	INSERT INTO videos (
		internal_id, id, stream_id, user_id, user_login, user_name, title, description,
		created_at, published_at, url, thumbnail_url, viewable, view_count,
		language, type, duration, muted_segments, game_id, tag_ids
	)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20)
	ON CONFLICT (id) DO UPDATE SET
		stream_id = EXCLUDED.stream_id,
		user_id = EXCLUDED.user_id,
		user_login = EXCLUDED.user_login,
		user_name = EXCLUDED.user_name,
		title = EXCLUDED.title,
		description = EXCLUDED.description,
		created_at = EXCLUDED.created_at,
		published_at = EXCLUDED.published_at,
		url = EXCLUDED.url,
		thumbnail_url = EXCLUDED.thumbnail_url,
		viewable = EXCLUDED.viewable,
		view_count = EXCLUDED.view_count,
		language = EXCLUDED.language,
		type = EXCLUDED.type,
		duration = EXCLUDED.duration,
		muted_segments = EXCLUDED.muted_segments,
		game_id = EXCLUDED.game_id,
		tag_ids = EXCLUDED.tag_ids
`

// UpsertMany inserts or replaces videos keyed by external ID, last write wins.
// Per-item failures are isolated; the batch fails only when every item fails.
func (r *VideoRepository) UpsertMany(ctx context.Context, videos []*model.Video) (repository.UpsertResult, error) {
	var result repository.UpsertResult
	var lastErr error

	for _, video := range videos {
		if err := r.upsertOne(ctx, video); err != nil {
			result.ErrorCount++
			lastErr = err
			metrics.VideoUpsertsTotal.WithLabelValues(metrics.StatusError).Inc()
			slog.Warn("video upsert failed",
				slog.String("video_id", video.ID),
				slog.Any("error", err),
			)
			continue
		}
		result.SuccessCount++
		metrics.VideoUpsertsTotal.WithLabelValues(metrics.StatusSuccess).Inc()
	}

	if len(videos) > 0 && result.SuccessCount == 0 {
		return result, &apperr.StoreError{Operation: "upsert", Cause: lastErr}
	}

	return result, nil
}

func (r *VideoRepository) upsertOne(ctx context.Context, video *model.Video) error {
	mutedSegments, err := encodeMutedSegments(video.MutedSegments)
	if err != nil {
		return fmt.Errorf("encode muted segments: %w", err)
	}

	// internal_id is store bookkeeping only; it is kept on conflict and
	// never exposed as the entity's identity.
	_, err = r.db.Exec(ctx, upsertVideoQuery,
		uuid.New(),
		video.ID,
		nullString(video.StreamID),
		video.UserID,
		nullString(video.UserLogin),
		video.UserName,
		video.Title,
		nullString(video.Description),
		video.CreatedAt,
		video.PublishedAt,
		video.URL,
		video.ThumbnailURL,
		video.Viewable,
		video.ViewCount,
		video.Language,
		video.Type,
		video.Duration,
		mutedSegments,
		nullString(video.GameID),
		video.TagIDs,
	)
	if err != nil {
		return fmt.Errorf("failed to upsert video: %w", err)
	}

	return nil
}

// FindByID retrieves a video by its external ID.
func (r *VideoRepository) FindByID(ctx context.Context, id string) (*model.Video, error) {
	query := `SELECT ` + videoColumns + ` FROM videos WHERE id = $1`

	video, err := scanVideo(r.db.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, repository.ErrVideoNotFound
		}
		return nil, &apperr.StoreError{Operation: "find", Cause: err}
	}

	return video, nil
}

// Query answers a filtered/sorted/paginated read. Count and page run inside
// one transaction so both see the same filter evaluation.
func (r *VideoRepository) Query(ctx context.Context, q repository.VideoQuery) (repository.QueryResult, error) {
	where, args := r.buildFilter(q)

	tx, err := r.db.Begin(ctx)
	if err != nil {
		return repository.QueryResult{}, &apperr.StoreError{Operation: "query", Cause: err}
	}
	defer tx.Rollback(ctx)

	var total int
	countQuery := `SELECT COUNT(*) FROM videos` + where
	if err := tx.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return repository.QueryResult{}, &apperr.StoreError{Operation: "query", Cause: err}
	}

	pageQuery := `SELECT ` + videoColumns + ` FROM videos` + where + orderBy(q.Sort)
	args = append(args, q.Skip, q.Limit)
	pageQuery += fmt.Sprintf(" OFFSET $%d LIMIT $%d", len(args)-1, len(args))

	rows, err := tx.Query(ctx, pageQuery, args...)
	if err != nil {
		return repository.QueryResult{}, &apperr.StoreError{Operation: "query", Cause: err}
	}
	defer rows.Close()

	var videos []*model.Video
	for rows.Next() {
		video, err := scanVideo(rows)
		if err != nil {
			return repository.QueryResult{}, &apperr.StoreError{Operation: "query", Cause: err}
		}
		videos = append(videos, video)
	}
	if err := rows.Err(); err != nil {
		return repository.QueryResult{}, &apperr.StoreError{Operation: "query", Cause: err}
	}
	rows.Close()

	if err := tx.Commit(ctx); err != nil {
		return repository.QueryResult{}, &apperr.StoreError{Operation: "query", Cause: err}
	}

	return repository.QueryResult{Videos: videos, TotalCount: total}, nil
}

// buildFilter composes the WHERE clause. All supplied filters are ANDed.
// The period bound is computed at query time and serialized in the stored
// timestamp format so the comparison happens on equal footing.
func (r *VideoRepository) buildFilter(q repository.VideoQuery) (string, []any) {
	var conditions []string
	var args []any

	if q.GameID != "" {
		args = append(args, q.GameID)
		conditions = append(conditions, fmt.Sprintf("game_id = $%d", len(args)))
	}
	if q.Language != "" {
		args = append(args, q.Language)
		conditions = append(conditions, fmt.Sprintf("language = $%d", len(args)))
	}
	if bound, ok := q.Period.LowerBound(r.now()); ok {
		args = append(args, bound)
		conditions = append(conditions, fmt.Sprintf("created_at >= $%d", len(args)))
	}

	if len(conditions) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(conditions, " AND "), args
}

// orderBy translates the sort key. Trending breaks view-count ties by
// recency; no sort key means the store's natural order.
func orderBy(sort model.Sort) string {
	switch sort {
	case model.SortTime:
		return " ORDER BY created_at DESC"
	case model.SortViews:
		return " ORDER BY view_count DESC"
	case model.SortTrending:
		return " ORDER BY view_count DESC, created_at DESC"
	default:
		return ""
	}
}

// scanVideo scans a single row into a Video model.
func scanVideo(row pgx.Row) (*model.Video, error) {
	var (
		video         model.Video
		streamID      *string
		userLogin     *string
		description   *string
		mutedSegments []byte
		gameID        *string
	)

	err := row.Scan(
		&video.ID,
		&streamID,
		&video.UserID,
		&userLogin,
		&video.UserName,
		&video.Title,
		&description,
		&video.CreatedAt,
		&video.PublishedAt,
		&video.URL,
		&video.ThumbnailURL,
		&video.Viewable,
		&video.ViewCount,
		&video.Language,
		&video.Type,
		&video.Duration,
		&mutedSegments,
		&gameID,
		&video.TagIDs,
	)
	if err != nil {
		return nil, err
	}

	if streamID != nil {
		video.StreamID = *streamID
	}
	if userLogin != nil {
		video.UserLogin = *userLogin
	}
	if description != nil {
		video.Description = *description
	}
	if gameID != nil {
		video.GameID = *gameID
	}
	if len(mutedSegments) > 0 {
		if err := json.Unmarshal(mutedSegments, &video.MutedSegments); err != nil {
			return nil, fmt.Errorf("decode muted segments: %w", err)
		}
	}

	return &video, nil
}

// encodeMutedSegments serializes muted segments for the JSONB column.
// Returns nil for an absent sequence so the store never sees an empty sentinel.
func encodeMutedSegments(segments []map[string]any) ([]byte, error) {
	if len(segments) == 0 {
		return nil, nil
	}
	return json.Marshal(segments)
}

// nullString returns nil for empty strings, otherwise returns a pointer to the string.
// Optional fields must reach the store as NULL, never as empty-string sentinels.
func nullString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

// Compile-time verification that VideoRepository implements repository.VideoRepository.
var _ repository.VideoRepository = (*VideoRepository)(nil)
