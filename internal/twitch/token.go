package twitch

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"vodsearch/internal/domain/apperr"
	"vodsearch/internal/infrastructure/metrics"
)

// ServiceOAuth is the service name reported on token endpoint failures.
const ServiceOAuth = "twitch-oauth"

// Credential is a time-bounded app access token for the Twitch API.
type Credential struct {
	AccessToken string
	ExpiresAt   time.Time
}

// Valid reports whether the credential can still authorize requests at now.
func (c Credential) Valid(now time.Time) bool {
	return c.AccessToken != "" && now.Before(c.ExpiresAt)
}

// TokenSource obtains and caches an app access token via the client
// credentials grant, refreshing on expiry.
//
// The cached credential is replaced wholesale under the mutex; readers see
// either the previous valid credential or the fully written new one.
// Concurrent refreshes coalesce into a single upstream call via singleflight.
type TokenSource struct {
	clientID     string
	clientSecret string
	tokenURL     string
	httpClient   *http.Client

	mu   sync.RWMutex
	cred Credential

	group singleflight.Group

	// now is injectable for tests.
	now func() time.Time
}

// NewTokenSource creates a TokenSource for the given client credentials.
func NewTokenSource(clientID, clientSecret, tokenURL string, httpClient *http.Client) *TokenSource {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 10 * time.Second}
	}
	return &TokenSource{
		clientID:     clientID,
		clientSecret: clientSecret,
		tokenURL:     tokenURL,
		httpClient:   httpClient,
		now:          time.Now,
	}
}

// Token returns a credential whose expiry is strictly in the future.
// A cached, unexpired credential is returned without any network call.
func (ts *TokenSource) Token(ctx context.Context) (Credential, error) {
	ts.mu.RLock()
	cred := ts.cred
	ts.mu.RUnlock()

	if cred.Valid(ts.now()) {
		return cred, nil
	}

	result, err, shared := ts.group.Do("token", func() (any, error) {
		return ts.refresh(ctx)
	})

	if shared {
		metrics.SingleflightRequestsTotal.WithLabelValues(metrics.SingleflightShared).Inc()
	} else {
		metrics.SingleflightRequestsTotal.WithLabelValues(metrics.SingleflightInitiated).Inc()
	}

	if err != nil {
		return Credential{}, err
	}
	return result.(Credential), nil
}

// refresh issues a client-credentials grant and replaces the cached credential.
func (ts *TokenSource) refresh(ctx context.Context) (Credential, error) {
	// Another caller in the same flight window may have refreshed already.
	ts.mu.RLock()
	cred := ts.cred
	ts.mu.RUnlock()
	if cred.Valid(ts.now()) {
		return cred, nil
	}

	cred, err := ts.requestToken(ctx)
	if err != nil {
		metrics.TokenRefreshesTotal.WithLabelValues(metrics.StatusError).Inc()
		return Credential{}, err
	}
	metrics.TokenRefreshesTotal.WithLabelValues(metrics.StatusSuccess).Inc()

	ts.mu.Lock()
	ts.cred = cred
	ts.mu.Unlock()

	return cred, nil
}

func (ts *TokenSource) requestToken(ctx context.Context) (Credential, error) {
	data := url.Values{}
	data.Set("client_id", ts.clientID)
	data.Set("client_secret", ts.clientSecret)
	data.Set("grant_type", "client_credentials")

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, ts.tokenURL, strings.NewReader(data.Encode()))
	if err != nil {
		return Credential{}, &apperr.ExternalServiceError{Service: ServiceOAuth, Operation: "token", Cause: err}
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := ts.httpClient.Do(req)
	if err != nil {
		return Credential{}, &apperr.ExternalServiceError{Service: ServiceOAuth, Operation: "token", Cause: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return Credential{}, &apperr.ExternalServiceError{Service: ServiceOAuth, Operation: "token", Cause: err}
	}

	if resp.StatusCode != http.StatusOK {
		return Credential{}, &apperr.ExternalServiceError{
			Service:   ServiceOAuth,
			Operation: "token",
			Cause:     fmt.Errorf("token request failed with status %d: %s", resp.StatusCode, string(body)),
		}
	}

	var result struct {
		AccessToken string `json:"access_token"`
		ExpiresIn   int    `json:"expires_in"`
	}
	if err := json.Unmarshal(body, &result); err != nil {
		return Credential{}, &apperr.ExternalServiceError{Service: ServiceOAuth, Operation: "token", Cause: err}
	}

	if result.AccessToken == "" {
		return Credential{}, &apperr.ExternalServiceError{
			Service:   ServiceOAuth,
			Operation: "token",
			Cause:     fmt.Errorf("token response missing access_token"),
		}
	}

	// An absent expires_in yields a credential that is already expired and
	// will be refreshed on the next call.
	return Credential{
		AccessToken: result.AccessToken,
		ExpiresAt:   ts.now().Add(time.Duration(result.ExpiresIn) * time.Second),
	}, nil
}
