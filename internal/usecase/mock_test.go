package usecase

import (
	"context"
	"time"

	"vodsearch/internal/domain/model"
	"vodsearch/internal/domain/repository"
	"vodsearch/internal/twitch"
)

type mockTwitchAPI struct {
	autocompleteGamesFn func(ctx context.Context, query string) ([]twitch.Game, error)
	lookupGameIDFn      func(ctx context.Context, name string) (string, error)
	listVideosFn        func(ctx context.Context, gameID, language string, sort model.Sort, period model.Period) ([]twitch.RawVideo, error)

	autocompleteCalls int
	lookupCalls       int
	listCalls         int
}

func (m *mockTwitchAPI) AutocompleteGames(ctx context.Context, query string) ([]twitch.Game, error) {
	m.autocompleteCalls++
	if m.autocompleteGamesFn != nil {
		return m.autocompleteGamesFn(ctx, query)
	}
	return nil, nil
}

func (m *mockTwitchAPI) LookupGameID(ctx context.Context, name string) (string, error) {
	m.lookupCalls++
	if m.lookupGameIDFn != nil {
		return m.lookupGameIDFn(ctx, name)
	}
	return "", nil
}

func (m *mockTwitchAPI) ListVideos(ctx context.Context, gameID, language string, sort model.Sort, period model.Period) ([]twitch.RawVideo, error) {
	m.listCalls++
	if m.listVideosFn != nil {
		return m.listVideosFn(ctx, gameID, language, sort, period)
	}
	return nil, nil
}

type mockVideoRepository struct {
	upsertManyFn func(ctx context.Context, videos []*model.Video) (repository.UpsertResult, error)
	findByIDFn   func(ctx context.Context, id string) (*model.Video, error)
	queryFn      func(ctx context.Context, q repository.VideoQuery) (repository.QueryResult, error)
}

func (m *mockVideoRepository) UpsertMany(ctx context.Context, videos []*model.Video) (repository.UpsertResult, error) {
	if m.upsertManyFn != nil {
		return m.upsertManyFn(ctx, videos)
	}
	return repository.UpsertResult{SuccessCount: len(videos)}, nil
}

func (m *mockVideoRepository) FindByID(ctx context.Context, id string) (*model.Video, error) {
	if m.findByIDFn != nil {
		return m.findByIDFn(ctx, id)
	}
	return nil, repository.ErrVideoNotFound
}

func (m *mockVideoRepository) Query(ctx context.Context, q repository.VideoQuery) (repository.QueryResult, error) {
	if m.queryFn != nil {
		return m.queryFn(ctx, q)
	}
	return repository.QueryResult{}, nil
}

// mockGameCache defaults to always-miss, never-fail behavior.
type mockGameCache struct {
	getGamesFn  func(ctx context.Context, query string) ([]twitch.Game, error)
	setGamesFn  func(ctx context.Context, query string, games []twitch.Game, ttl time.Duration) error
	getGameIDFn func(ctx context.Context, name string) (string, bool, error)
	setGameIDFn func(ctx context.Context, name, id string, ttl time.Duration) error
}

func (m *mockGameCache) GetGames(ctx context.Context, query string) ([]twitch.Game, error) {
	if m.getGamesFn != nil {
		return m.getGamesFn(ctx, query)
	}
	return nil, nil
}

func (m *mockGameCache) SetGames(ctx context.Context, query string, games []twitch.Game, ttl time.Duration) error {
	if m.setGamesFn != nil {
		return m.setGamesFn(ctx, query, games, ttl)
	}
	return nil
}

func (m *mockGameCache) GetGameID(ctx context.Context, name string) (string, bool, error) {
	if m.getGameIDFn != nil {
		return m.getGameIDFn(ctx, name)
	}
	return "", false, nil
}

func (m *mockGameCache) SetGameID(ctx context.Context, name, id string, ttl time.Duration) error {
	if m.setGameIDFn != nil {
		return m.setGameIDFn(ctx, name, id, ttl)
	}
	return nil
}
