package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"vodsearch/internal/domain/apperr"
	"vodsearch/internal/domain/model"
	"vodsearch/internal/domain/repository"
	"vodsearch/internal/twitch"
)

// maxPageSize caps client-requested page sizes.
const maxPageSize = 100

// TwitchAPI is the surface of the upstream client used by the service.
type TwitchAPI interface {
	AutocompleteGames(ctx context.Context, query string) ([]twitch.Game, error)
	LookupGameID(ctx context.Context, name string) (string, error)
	ListVideos(ctx context.Context, gameID, language string, sort model.Sort, period model.Period) ([]twitch.RawVideo, error)
}

// GameCache is the read-through cache in front of upstream game lookups.
type GameCache interface {
	GetGames(ctx context.Context, query string) ([]twitch.Game, error)
	SetGames(ctx context.Context, query string, games []twitch.Game, ttl time.Duration) error
	GetGameID(ctx context.Context, name string) (string, bool, error)
	SetGameID(ctx context.Context, name, id string, ttl time.Duration) error
}

// SearchInput contains the parameters for a live upstream search.
type SearchInput struct {
	GameID   string
	Language string
	Sort     model.Sort
	Period   model.Period
	Page     int
	PageSize int
}

// SearchOutput is one page of the freshly fetched upstream batch.
type SearchOutput struct {
	Videos   []*model.Video
	Total    int
	Page     int
	PageSize int
	Pages    int
}

// BrowseInput contains the parameters for a read over the stored corpus.
type BrowseInput struct {
	GameID   string
	Language string
	Sort     model.Sort
	Period   model.Period
	Page     int
	PageSize int
}

// BrowseOutput is one page of the stored corpus. Total counts the filtered
// stored set, not the live upstream batch; search and browse intentionally
// paginate different collections and may diverge.
type BrowseOutput struct {
	Videos   []*model.Video
	Total    int
	Page     int
	PageSize int
	Pages    int
}

// SearchService defines the video retrieval operations exposed to the
// transport layer.
type SearchService interface {
	// Search fetches one upstream batch for a game, caches it, and
	// paginates the fresh batch in memory.
	Search(ctx context.Context, input SearchInput) (*SearchOutput, error)

	// SearchByName resolves a game name to its ID and then searches.
	// An unresolvable name yields an empty result, not an error.
	SearchByName(ctx context.Context, gameName string, input SearchInput) (*SearchOutput, error)

	// Browse paginates the locally stored corpus with filters and sorting.
	Browse(ctx context.Context, input BrowseInput) (*BrowseOutput, error)

	// GetByID retrieves a single stored video by its external ID.
	GetByID(ctx context.Context, id string) (*model.Video, error)

	// Autocomplete suggests games matching a partial name, served from
	// cache when possible.
	Autocomplete(ctx context.Context, query string) ([]twitch.Game, error)
}

// SearchServiceConfig holds configuration for SearchService.
type SearchServiceConfig struct {
	AutocompleteTTL time.Duration
	GameIDTTL       time.Duration
}

// DefaultSearchServiceConfig returns the default configuration.
func DefaultSearchServiceConfig() SearchServiceConfig {
	return SearchServiceConfig{
		AutocompleteTTL: 5 * time.Minute,
		GameIDTTL:       time.Hour,
	}
}

type searchService struct {
	upstream TwitchAPI
	repo     repository.VideoRepository
	games    GameCache

	autocompleteTTL time.Duration
	gameIDTTL       time.Duration
}

// NewSearchService creates a new SearchService instance.
func NewSearchService(
	upstream TwitchAPI,
	repo repository.VideoRepository,
	games GameCache,
	cfg SearchServiceConfig,
) SearchService {
	return &searchService{
		upstream:        upstream,
		repo:            repo,
		games:           games,
		autocompleteTTL: cfg.AutocompleteTTL,
		gameIDTTL:       cfg.GameIDTTL,
	}
}

// Search fetches the upstream batch, persists it best-effort, and paginates
// the batch in memory. Persistence failure is logged and surfaced in metrics
// but does not block the response.
func (s *searchService) Search(ctx context.Context, input SearchInput) (*SearchOutput, error) {
	if err := validatePagination(input.Page, input.PageSize); err != nil {
		return nil, err
	}

	raw, err := s.upstream.ListVideos(ctx, input.GameID, input.Language, input.Sort, input.Period)
	if err != nil {
		return nil, err
	}
	if len(raw) == 0 {
		return nil, &apperr.NotFoundError{Resource: "videos", ID: input.GameID}
	}

	videos := make([]*model.Video, len(raw))
	for i, rv := range raw {
		videos[i] = twitch.Normalize(rv, input.GameID)
	}

	result, err := s.repo.UpsertMany(ctx, videos)
	if err != nil {
		slog.Warn("failed to persist search results",
			slog.String("game_id", input.GameID),
			slog.Any("error", err),
		)
	} else if result.ErrorCount > 0 {
		slog.Warn("search results persisted partially",
			slog.String("game_id", input.GameID),
			slog.Int("success_count", result.SuccessCount),
			slog.Int("error_count", result.ErrorCount),
		)
	}

	return paginate(videos, input.Page, input.PageSize), nil
}

// SearchByName resolves the game name (via cache, then upstream) and
// delegates to Search. A name matching no category yields an empty page.
func (s *searchService) SearchByName(ctx context.Context, gameName string, input SearchInput) (*SearchOutput, error) {
	if err := validatePagination(input.Page, input.PageSize); err != nil {
		return nil, err
	}

	gameID, cached, err := s.games.GetGameID(ctx, gameName)
	if err != nil {
		slog.Warn("game ID cache read failed", slog.Any("error", err))
		cached = false
	}

	if !cached {
		gameID, err = s.upstream.LookupGameID(ctx, gameName)
		if err != nil {
			return nil, err
		}
		if err := s.games.SetGameID(ctx, gameName, gameID, s.gameIDTTL); err != nil {
			slog.Warn("game ID cache write failed", slog.Any("error", err))
		}
	}

	if gameID == "" {
		return &SearchOutput{
			Videos:   []*model.Video{},
			Page:     input.Page,
			PageSize: input.PageSize,
		}, nil
	}

	input.GameID = gameID
	return s.Search(ctx, input)
}

// Browse is a thin pass-through to the store's query operation.
func (s *searchService) Browse(ctx context.Context, input BrowseInput) (*BrowseOutput, error) {
	if err := validatePagination(input.Page, input.PageSize); err != nil {
		return nil, err
	}

	result, err := s.repo.Query(ctx, repository.VideoQuery{
		GameID:   input.GameID,
		Language: input.Language,
		Period:   input.Period,
		Sort:     input.Sort,
		Skip:     (input.Page - 1) * input.PageSize,
		Limit:    input.PageSize,
	})
	if err != nil {
		return nil, err
	}

	return &BrowseOutput{
		Videos:   result.Videos,
		Total:    result.TotalCount,
		Page:     input.Page,
		PageSize: input.PageSize,
		Pages:    pageCount(result.TotalCount, input.PageSize),
	}, nil
}

// GetByID retrieves a single stored video by its external ID.
func (s *searchService) GetByID(ctx context.Context, id string) (*model.Video, error) {
	video, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrVideoNotFound) {
			return nil, &apperr.NotFoundError{Resource: "video", ID: id}
		}
		return nil, err
	}
	return video, nil
}

// Autocomplete serves game suggestions cache-first; cache failures fall
// through to the upstream call.
func (s *searchService) Autocomplete(ctx context.Context, query string) ([]twitch.Game, error) {
	games, err := s.games.GetGames(ctx, query)
	if err != nil {
		slog.Warn("autocomplete cache read failed", slog.Any("error", err))
	}
	if games != nil {
		return games, nil
	}

	games, err = s.upstream.AutocompleteGames(ctx, query)
	if err != nil {
		return nil, err
	}
	if len(games) == 0 {
		return nil, &apperr.NotFoundError{Resource: "games", ID: query}
	}

	if err := s.games.SetGames(ctx, query, games, s.autocompleteTTL); err != nil {
		slog.Warn("autocomplete cache write failed", slog.Any("error", err))
	}

	return games, nil
}

// paginate slices the live upstream batch in memory. Search paginates the
// fresh batch while Browse paginates the stored corpus; the two may diverge.
func paginate(videos []*model.Video, page, pageSize int) *SearchOutput {
	total := len(videos)

	start := (page - 1) * pageSize
	if start > total {
		start = total
	}
	end := start + pageSize
	if end > total {
		end = total
	}

	return &SearchOutput{
		Videos:   videos[start:end],
		Total:    total,
		Page:     page,
		PageSize: pageSize,
		Pages:    pageCount(total, pageSize),
	}
}

func pageCount(total, pageSize int) int {
	if total == 0 {
		return 0
	}
	return (total + pageSize - 1) / pageSize
}

func validatePagination(page, pageSize int) error {
	if page < 1 {
		return &apperr.ValidationError{Message: fmt.Sprintf("page must be >= 1, got %d", page)}
	}
	if pageSize < 1 {
		return &apperr.ValidationError{Message: fmt.Sprintf("page_size must be >= 1, got %d", pageSize)}
	}
	if pageSize > maxPageSize {
		return &apperr.ValidationError{Message: fmt.Sprintf("page_size must be <= %d, got %d", maxPageSize, pageSize)}
	}
	return nil
}
