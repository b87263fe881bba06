package twitch

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"vodsearch/internal/domain/apperr"
	"vodsearch/internal/domain/model"
	"vodsearch/internal/infrastructure/metrics"
)

// ServiceAPI is the service name reported on Helix API failures.
const ServiceAPI = "twitch"

// upstreamPageSize is the fixed number of videos requested per upstream call.
// Pagination beyond this batch is handled against the local store.
const upstreamPageSize = 50

// Game is a Twitch category as returned by the search and games endpoints.
type Game struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	BoxArtURL string `json:"box_art_url"`
}

// RawVideo mirrors the Helix video payload. The bulk video list does not
// carry a game ID; the orchestrator injects it during normalization.
type RawVideo struct {
	ID            string           `json:"id"`
	StreamID      string           `json:"stream_id"`
	UserID        string           `json:"user_id"`
	UserLogin     string           `json:"user_login"`
	UserName      string           `json:"user_name"`
	Title         string           `json:"title"`
	Description   string           `json:"description"`
	CreatedAt     string           `json:"created_at"`
	PublishedAt   string           `json:"published_at"`
	URL           string           `json:"url"`
	ThumbnailURL  string           `json:"thumbnail_url"`
	Viewable      string           `json:"viewable"`
	ViewCount     int              `json:"view_count"`
	Language      string           `json:"language"`
	Type          string           `json:"type"`
	Duration      string           `json:"duration"`
	MutedSegments []map[string]any `json:"muted_segments"`
	TagIDs        []string         `json:"tag_ids"`
}

// Client issues authenticated requests against the Twitch Helix API.
// Every operation attaches a bearer credential from the TokenSource and the
// client ID header. Transport failures are wrapped into ExternalServiceError
// and never retried here.
type Client struct {
	apiURL     string
	clientID   string
	tokens     *TokenSource
	httpClient *http.Client
}

// NewClient creates a Helix API client backed by the given token source.
func NewClient(apiURL, clientID string, tokens *TokenSource, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 10 * time.Second}
	}
	return &Client{
		apiURL:     apiURL,
		clientID:   clientID,
		tokens:     tokens,
		httpClient: httpClient,
	}
}

// AutocompleteGames searches Twitch categories matching a partial name.
func (c *Client) AutocompleteGames(ctx context.Context, query string) ([]Game, error) {
	params := url.Values{}
	params.Set("query", query)

	var games []Game
	if err := c.get(ctx, "/search/categories", "search_categories", params, &games); err != nil {
		return nil, err
	}
	return games, nil
}

// LookupGameID resolves an exact game name to its Twitch category ID.
// Returns the empty string, not an error, when no category matches.
func (c *Client) LookupGameID(ctx context.Context, name string) (string, error) {
	params := url.Values{}
	params.Set("name", name)

	var games []Game
	if err := c.get(ctx, "/games", "games", params, &games); err != nil {
		return "", err
	}
	if len(games) == 0 {
		return "", nil
	}
	return games[0].ID, nil
}

// ListVideos fetches one upstream batch of videos for a game. Sort and
// period are forwarded only when they are valid Helix values; anything else
// is silently dropped to tolerate client-supplied noise.
func (c *Client) ListVideos(ctx context.Context, gameID, language string, sort model.Sort, period model.Period) ([]RawVideo, error) {
	params := url.Values{}
	params.Set("game_id", gameID)
	params.Set("first", strconv.Itoa(upstreamPageSize))
	if language != "" {
		params.Set("language", language)
	}
	if sort.IsValid() {
		params.Set("sort", sort.String())
	}
	if period.IsValid() {
		params.Set("period", period.String())
	}

	var videos []RawVideo
	if err := c.get(ctx, "/videos", "videos", params, &videos); err != nil {
		return nil, err
	}
	return videos, nil
}

// get issues a single authenticated GET and decodes the {"data": [...]}
// envelope into out, which must be a pointer to a slice.
func (c *Client) get(ctx context.Context, path, endpoint string, params url.Values, out any) error {
	cred, err := c.tokens.Token(ctx)
	if err != nil {
		return err
	}

	reqURL := c.apiURL + path
	if len(params) > 0 {
		reqURL += "?" + params.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return c.fail(endpoint, err)
	}
	req.Header.Set("Authorization", "Bearer "+cred.AccessToken)
	req.Header.Set("Client-Id", c.clientID)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return c.fail(endpoint, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return c.fail(endpoint, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return c.fail(endpoint, fmt.Errorf("request failed with status %d: %s", resp.StatusCode, string(body)))
	}

	envelope := struct {
		Data json.RawMessage `json:"data"`
	}{}
	if err := json.Unmarshal(body, &envelope); err != nil {
		return c.fail(endpoint, err)
	}
	if len(envelope.Data) > 0 {
		if err := json.Unmarshal(envelope.Data, out); err != nil {
			return c.fail(endpoint, err)
		}
	}

	metrics.UpstreamRequestsTotal.WithLabelValues(endpoint, metrics.StatusSuccess).Inc()
	return nil
}

func (c *Client) fail(endpoint string, cause error) error {
	metrics.UpstreamRequestsTotal.WithLabelValues(endpoint, metrics.StatusError).Inc()
	return &apperr.ExternalServiceError{Service: ServiceAPI, Operation: endpoint, Cause: cause}
}
