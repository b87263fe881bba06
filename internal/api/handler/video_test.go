package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"

	"vodsearch/internal/domain/apperr"
	"vodsearch/internal/domain/model"
	"vodsearch/internal/twitch"
	"vodsearch/internal/usecase"
)

// Mock SearchService

type mockSearchService struct {
	searchFn       func(ctx context.Context, input usecase.SearchInput) (*usecase.SearchOutput, error)
	searchByNameFn func(ctx context.Context, gameName string, input usecase.SearchInput) (*usecase.SearchOutput, error)
	browseFn       func(ctx context.Context, input usecase.BrowseInput) (*usecase.BrowseOutput, error)
	getByIDFn      func(ctx context.Context, id string) (*model.Video, error)
	autocompleteFn func(ctx context.Context, query string) ([]twitch.Game, error)
}

func (m *mockSearchService) Search(ctx context.Context, input usecase.SearchInput) (*usecase.SearchOutput, error) {
	if m.searchFn != nil {
		return m.searchFn(ctx, input)
	}
	return nil, nil
}

func (m *mockSearchService) SearchByName(ctx context.Context, gameName string, input usecase.SearchInput) (*usecase.SearchOutput, error) {
	if m.searchByNameFn != nil {
		return m.searchByNameFn(ctx, gameName, input)
	}
	return nil, nil
}

func (m *mockSearchService) Browse(ctx context.Context, input usecase.BrowseInput) (*usecase.BrowseOutput, error) {
	if m.browseFn != nil {
		return m.browseFn(ctx, input)
	}
	return nil, nil
}

func (m *mockSearchService) GetByID(ctx context.Context, id string) (*model.Video, error) {
	if m.getByIDFn != nil {
		return m.getByIDFn(ctx, id)
	}
	return nil, nil
}

func (m *mockSearchService) Autocomplete(ctx context.Context, query string) ([]twitch.Game, error) {
	if m.autocompleteFn != nil {
		return m.autocompleteFn(ctx, query)
	}
	return nil, nil
}

func newTestRouter(svc usecase.SearchService) *chi.Mux {
	h := NewVideoHandler(svc)
	r := chi.NewRouter()
	r.Get("/v1/videos/search", h.Search)
	r.Get("/v1/videos", h.Browse)
	r.Get("/v1/videos/{id}", h.Get)
	r.Get("/v1/games/autocomplete", h.Autocomplete)
	return r
}

func doRequest(t *testing.T, router *chi.Mux, target string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, target, nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestVideoHandler_Search(t *testing.T) {
	tests := []struct {
		name           string
		target         string
		setupMock      func(m *mockSearchService)
		wantStatusCode int
		checkResponse  func(t *testing.T, body []byte)
	}{
		{
			name:   "search by game id",
			target: "/v1/videos/search?game_id=123&sort=trending&page=2&page_size=10",
			setupMock: func(m *mockSearchService) {
				m.searchFn = func(ctx context.Context, input usecase.SearchInput) (*usecase.SearchOutput, error) {
					if input.GameID != "123" {
						t.Errorf("expected game_id 123, got %q", input.GameID)
					}
					if input.Sort != model.SortTrending {
						t.Errorf("expected trending sort, got %q", input.Sort)
					}
					if input.Page != 2 || input.PageSize != 10 {
						t.Errorf("unexpected pagination: %+v", input)
					}
					return &usecase.SearchOutput{
						Videos:   []*model.Video{{ID: "v11", Title: "Run 11"}},
						Total:    25,
						Page:     2,
						PageSize: 10,
						Pages:    3,
					}, nil
				}
			},
			wantStatusCode: http.StatusOK,
			checkResponse: func(t *testing.T, body []byte) {
				var resp VideoListResponse
				if err := json.Unmarshal(body, &resp); err != nil {
					t.Fatalf("failed to unmarshal response: %v", err)
				}
				if resp.Total != 25 || resp.Pages != 3 {
					t.Errorf("unexpected totals: %+v", resp)
				}
				if len(resp.Videos) != 1 || resp.Videos[0].ID != "v11" {
					t.Errorf("unexpected videos: %+v", resp.Videos)
				}
			},
		},
		{
			name:   "search by game name",
			target: "/v1/videos/search?game=Celeste",
			setupMock: func(m *mockSearchService) {
				m.searchByNameFn = func(ctx context.Context, gameName string, input usecase.SearchInput) (*usecase.SearchOutput, error) {
					if gameName != "Celeste" {
						t.Errorf("expected game name Celeste, got %q", gameName)
					}
					return &usecase.SearchOutput{Videos: []*model.Video{}, Page: 1, PageSize: 20}, nil
				}
			},
			wantStatusCode: http.StatusOK,
		},
		{
			name:           "missing game parameter",
			target:         "/v1/videos/search",
			setupMock:      func(m *mockSearchService) {},
			wantStatusCode: http.StatusUnprocessableEntity,
		},
		{
			name:           "non-numeric page",
			target:         "/v1/videos/search?game_id=123&page=abc",
			setupMock:      func(m *mockSearchService) {},
			wantStatusCode: http.StatusUnprocessableEntity,
		},
		{
			name:   "validation error maps to 422",
			target: "/v1/videos/search?game_id=123&page=0",
			setupMock: func(m *mockSearchService) {
				m.searchFn = func(ctx context.Context, input usecase.SearchInput) (*usecase.SearchOutput, error) {
					return nil, &apperr.ValidationError{Message: "page must be >= 1, got 0"}
				}
			},
			wantStatusCode: http.StatusUnprocessableEntity,
		},
		{
			name:   "not found maps to 404",
			target: "/v1/videos/search?game_id=123",
			setupMock: func(m *mockSearchService) {
				m.searchFn = func(ctx context.Context, input usecase.SearchInput) (*usecase.SearchOutput, error) {
					return nil, &apperr.NotFoundError{Resource: "videos", ID: "123"}
				}
			},
			wantStatusCode: http.StatusNotFound,
		},
		{
			name:   "external service error maps to 503",
			target: "/v1/videos/search?game_id=123",
			setupMock: func(m *mockSearchService) {
				m.searchFn = func(ctx context.Context, input usecase.SearchInput) (*usecase.SearchOutput, error) {
					return nil, &apperr.ExternalServiceError{Service: "twitch", Operation: "videos", Cause: errors.New("timeout")}
				}
			},
			wantStatusCode: http.StatusServiceUnavailable,
		},
		{
			name:   "store error maps to 500",
			target: "/v1/videos/search?game_id=123",
			setupMock: func(m *mockSearchService) {
				m.searchFn = func(ctx context.Context, input usecase.SearchInput) (*usecase.SearchOutput, error) {
					return nil, &apperr.StoreError{Operation: "query", Cause: errors.New("connection refused")}
				}
			},
			wantStatusCode: http.StatusInternalServerError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := &mockSearchService{}
			tt.setupMock(svc)

			rec := doRequest(t, newTestRouter(svc), tt.target)

			if rec.Code != tt.wantStatusCode {
				t.Fatalf("status = %d, want %d; body: %s", rec.Code, tt.wantStatusCode, rec.Body.String())
			}
			if tt.checkResponse != nil {
				tt.checkResponse(t, rec.Body.Bytes())
			}
		})
	}
}

func TestVideoHandler_Browse(t *testing.T) {
	svc := &mockSearchService{
		browseFn: func(ctx context.Context, input usecase.BrowseInput) (*usecase.BrowseOutput, error) {
			if input.GameID != "123" || input.Language != "en" || input.Period != model.PeriodWeek {
				t.Errorf("filters not forwarded: %+v", input)
			}
			return &usecase.BrowseOutput{
				Videos:   []*model.Video{{ID: "v1"}},
				Total:    1,
				Page:     1,
				PageSize: 20,
				Pages:    1,
			}, nil
		},
	}

	rec := doRequest(t, newTestRouter(svc), "/v1/videos?game_id=123&language=en&period=week")

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200; body: %s", rec.Code, rec.Body.String())
	}

	var resp VideoListResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to unmarshal response: %v", err)
	}
	if resp.Total != 1 || len(resp.Videos) != 1 {
		t.Errorf("unexpected response: %+v", resp)
	}
}

func TestVideoHandler_Get(t *testing.T) {
	t.Run("found", func(t *testing.T) {
		svc := &mockSearchService{
			getByIDFn: func(ctx context.Context, id string) (*model.Video, error) {
				return &model.Video{ID: id, Title: "Run 1", ViewCount: 42}, nil
			},
		}

		rec := doRequest(t, newTestRouter(svc), "/v1/videos/v1")

		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d, want 200", rec.Code)
		}

		var resp VideoResponse
		if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
			t.Fatalf("failed to unmarshal response: %v", err)
		}
		if resp.ID != "v1" || resp.ViewCount != 42 {
			t.Errorf("unexpected response: %+v", resp)
		}
	})

	t.Run("missing video", func(t *testing.T) {
		svc := &mockSearchService{
			getByIDFn: func(ctx context.Context, id string) (*model.Video, error) {
				return nil, &apperr.NotFoundError{Resource: "video", ID: id}
			},
		}

		rec := doRequest(t, newTestRouter(svc), "/v1/videos/missing")

		if rec.Code != http.StatusNotFound {
			t.Fatalf("status = %d, want 404", rec.Code)
		}
	})
}

func TestVideoHandler_Autocomplete(t *testing.T) {
	t.Run("suggestions returned", func(t *testing.T) {
		svc := &mockSearchService{
			autocompleteFn: func(ctx context.Context, query string) ([]twitch.Game, error) {
				if query != "cel" {
					t.Errorf("expected query cel, got %q", query)
				}
				return []twitch.Game{{ID: "123", Name: "Celeste", BoxArtURL: "https://img/celeste.jpg"}}, nil
			},
		}

		rec := doRequest(t, newTestRouter(svc), "/v1/games/autocomplete?query=cel")

		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d, want 200", rec.Code)
		}

		var resp AutocompleteResponse
		if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
			t.Fatalf("failed to unmarshal response: %v", err)
		}
		if len(resp.Games) != 1 || resp.Games[0].Name != "Celeste" {
			t.Errorf("unexpected response: %+v", resp)
		}
	})

	t.Run("missing query", func(t *testing.T) {
		rec := doRequest(t, newTestRouter(&mockSearchService{}), "/v1/games/autocomplete")

		if rec.Code != http.StatusUnprocessableEntity {
			t.Fatalf("status = %d, want 422", rec.Code)
		}
	})
}
