package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"vodsearch/internal/domain/apperr"
	"vodsearch/internal/domain/model"
	"vodsearch/internal/twitch"
	"vodsearch/internal/usecase"
)

// Response types

type VideoResponse struct {
	ID            string           `json:"id"`
	StreamID      string           `json:"stream_id,omitempty"`
	UserID        string           `json:"user_id"`
	UserLogin     string           `json:"user_login,omitempty"`
	UserName      string           `json:"user_name"`
	Title         string           `json:"title"`
	Description   string           `json:"description,omitempty"`
	CreatedAt     string           `json:"created_at"`
	PublishedAt   string           `json:"published_at"`
	URL           string           `json:"url"`
	ThumbnailURL  string           `json:"thumbnail_url"`
	Viewable      string           `json:"viewable"`
	ViewCount     int              `json:"view_count"`
	Language      string           `json:"language"`
	Type          string           `json:"type"`
	Duration      string           `json:"duration"`
	MutedSegments []map[string]any `json:"muted_segments,omitempty"`
	GameID        string           `json:"game_id,omitempty"`
	TagIDs        []string         `json:"tag_ids,omitempty"`
}

type VideoListResponse struct {
	Videos   []VideoResponse `json:"videos"`
	Total    int             `json:"total"`
	Page     int             `json:"page"`
	PageSize int             `json:"page_size"`
	Pages    int             `json:"pages"`
}

type GameResponse struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	BoxArtURL string `json:"box_art_url"`
}

type AutocompleteResponse struct {
	Games []GameResponse `json:"games"`
}

// VideoHandler handles video-related HTTP requests.
type VideoHandler struct {
	svc usecase.SearchService
}

// NewVideoHandler creates a new VideoHandler.
func NewVideoHandler(svc usecase.SearchService) *VideoHandler {
	return &VideoHandler{svc: svc}
}

// Search handles GET /v1/videos/search
// Accepts either game_id or game (a name to resolve upstream).
func (h *VideoHandler) Search(w http.ResponseWriter, r *http.Request) {
	gameID := r.URL.Query().Get("game_id")
	gameName := r.URL.Query().Get("game")
	if gameID == "" && gameName == "" {
		Error(w, http.StatusUnprocessableEntity, "missing_game", "Either game_id or game is required")
		return
	}

	page, pageSize, ok := parsePagination(w, r)
	if !ok {
		return
	}

	input := usecase.SearchInput{
		GameID:   gameID,
		Language: r.URL.Query().Get("language"),
		Sort:     model.ParseSort(r.URL.Query().Get("sort")),
		Period:   model.ParsePeriod(r.URL.Query().Get("period")),
		Page:     page,
		PageSize: pageSize,
	}

	var output *usecase.SearchOutput
	var err error
	if gameID != "" {
		output, err = h.svc.Search(r.Context(), input)
	} else {
		output, err = h.svc.SearchByName(r.Context(), gameName, input)
	}
	if err != nil {
		h.handleServiceError(w, err)
		return
	}

	JSON(w, http.StatusOK, VideoListResponse{
		Videos:   toVideoResponses(output.Videos),
		Total:    output.Total,
		Page:     output.Page,
		PageSize: output.PageSize,
		Pages:    output.Pages,
	})
}

// Browse handles GET /v1/videos
func (h *VideoHandler) Browse(w http.ResponseWriter, r *http.Request) {
	page, pageSize, ok := parsePagination(w, r)
	if !ok {
		return
	}

	output, err := h.svc.Browse(r.Context(), usecase.BrowseInput{
		GameID:   r.URL.Query().Get("game_id"),
		Language: r.URL.Query().Get("language"),
		Sort:     model.ParseSort(r.URL.Query().Get("sort")),
		Period:   model.ParsePeriod(r.URL.Query().Get("period")),
		Page:     page,
		PageSize: pageSize,
	})
	if err != nil {
		h.handleServiceError(w, err)
		return
	}

	JSON(w, http.StatusOK, VideoListResponse{
		Videos:   toVideoResponses(output.Videos),
		Total:    output.Total,
		Page:     output.Page,
		PageSize: output.PageSize,
		Pages:    output.Pages,
	})
}

// Get handles GET /v1/videos/{id}
func (h *VideoHandler) Get(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		Error(w, http.StatusUnprocessableEntity, "missing_video_id", "Video ID is required")
		return
	}

	video, err := h.svc.GetByID(r.Context(), id)
	if err != nil {
		h.handleServiceError(w, err)
		return
	}

	JSON(w, http.StatusOK, toVideoResponse(video))
}

// Autocomplete handles GET /v1/games/autocomplete
func (h *VideoHandler) Autocomplete(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("query")
	if query == "" {
		Error(w, http.StatusUnprocessableEntity, "missing_query", "Query is required")
		return
	}

	games, err := h.svc.Autocomplete(r.Context(), query)
	if err != nil {
		h.handleServiceError(w, err)
		return
	}

	JSON(w, http.StatusOK, toAutocompleteResponse(games))
}

// handleServiceError maps the closed error taxonomy onto transport status
// codes. This is the only place that mapping happens.
func (h *VideoHandler) handleServiceError(w http.ResponseWriter, err error) {
	var validationErr *apperr.ValidationError
	var notFoundErr *apperr.NotFoundError
	var externalErr *apperr.ExternalServiceError
	var storeErr *apperr.StoreError

	switch {
	case errors.As(err, &validationErr):
		Error(w, http.StatusUnprocessableEntity, "validation_error", validationErr.Message)
	case errors.As(err, &notFoundErr):
		Error(w, http.StatusNotFound, "not_found", notFoundErr.Error())
	case errors.As(err, &externalErr):
		Error(w, http.StatusServiceUnavailable, "external_service_error", externalErr.Service+" is unavailable")
	case errors.As(err, &storeErr):
		Error(w, http.StatusInternalServerError, "store_error", "Persistence operation failed")
	default:
		Error(w, http.StatusInternalServerError, "internal_error", "An unexpected error occurred")
	}
}

func parsePagination(w http.ResponseWriter, r *http.Request) (page, pageSize int, ok bool) {
	page, ok = intParam(w, r, "page", 1)
	if !ok {
		return 0, 0, false
	}
	pageSize, ok = intParam(w, r, "page_size", 20)
	if !ok {
		return 0, 0, false
	}
	return page, pageSize, true
}

func intParam(w http.ResponseWriter, r *http.Request, name string, fallback int) (int, bool) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return fallback, true
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		Error(w, http.StatusUnprocessableEntity, "validation_error", name+" must be an integer")
		return 0, false
	}
	return value, true
}

func toVideoResponse(v *model.Video) VideoResponse {
	return VideoResponse{
		ID:            v.ID,
		StreamID:      v.StreamID,
		UserID:        v.UserID,
		UserLogin:     v.UserLogin,
		UserName:      v.UserName,
		Title:         v.Title,
		Description:   v.Description,
		CreatedAt:     v.CreatedAt,
		PublishedAt:   v.PublishedAt,
		URL:           v.URL,
		ThumbnailURL:  v.ThumbnailURL,
		Viewable:      v.Viewable,
		ViewCount:     v.ViewCount,
		Language:      v.Language,
		Type:          v.Type,
		Duration:      v.Duration,
		MutedSegments: v.MutedSegments,
		GameID:        v.GameID,
		TagIDs:        v.TagIDs,
	}
}

func toVideoResponses(videos []*model.Video) []VideoResponse {
	responses := make([]VideoResponse, len(videos))
	for i, v := range videos {
		responses[i] = toVideoResponse(v)
	}
	return responses
}

func toAutocompleteResponse(games []twitch.Game) AutocompleteResponse {
	responses := make([]GameResponse, len(games))
	for i, g := range games {
		responses[i] = GameResponse{ID: g.ID, Name: g.Name, BoxArtURL: g.BoxArtURL}
	}
	return AutocompleteResponse{Games: responses}
}
