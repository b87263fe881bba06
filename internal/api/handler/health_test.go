package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestHealthHandler(t *testing.T) {
	healthy := PingerFunc(func(ctx context.Context) error { return nil })
	unhealthy := PingerFunc(func(ctx context.Context) error { return errors.New("connection refused") })

	tests := []struct {
		name           string
		db             Pinger
		cache          Pinger
		wantStatusCode int
		wantStatus     string
	}{
		{
			name:           "all dependencies reachable",
			db:             healthy,
			cache:          healthy,
			wantStatusCode: http.StatusOK,
			wantStatus:     "ok",
		},
		{
			name:           "store unreachable",
			db:             unhealthy,
			cache:          healthy,
			wantStatusCode: http.StatusServiceUnavailable,
			wantStatus:     "degraded",
		},
		{
			name:           "cache unreachable",
			db:             healthy,
			cache:          unhealthy,
			wantStatusCode: http.StatusServiceUnavailable,
			wantStatus:     "degraded",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := NewHealthHandler(tt.db, tt.cache)

			req := httptest.NewRequest(http.MethodGet, "/health", nil)
			rec := httptest.NewRecorder()
			h.Health(rec, req)

			if rec.Code != tt.wantStatusCode {
				t.Fatalf("status = %d, want %d", rec.Code, tt.wantStatusCode)
			}

			var resp HealthResponse
			if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
				t.Fatalf("failed to unmarshal response: %v", err)
			}
			if resp.Status != tt.wantStatus {
				t.Errorf("status = %q, want %q", resp.Status, tt.wantStatus)
			}
			if len(resp.Dependencies) != 2 {
				t.Errorf("expected 2 dependencies, got %d", len(resp.Dependencies))
			}
		})
	}
}
