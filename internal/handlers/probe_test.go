package handlers

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v3"

	"painel/internal/models"
	"painel/internal/testutil"
)

type fakePinger struct {
	err error
}

func (p fakePinger) Ping(context.Context) error { return p.err }

func TestProbeHandler_Readiness(t *testing.T) {
	tests := []struct {
		name   string
		db     Pinger
		result models.DeputyResult
		want   int
	}{
		{
			name:   "ready with data",
			result: models.DeputyResult{Deputies: testutil.Deputies(), Source: models.SourceAPI},
			want:   fiber.StatusOK,
		},
		{
			name:   "stale data is still ready",
			result: models.DeputyResult{Deputies: testutil.Deputies(), Source: models.SourceCacheStale, Err: errors.New("timeout")},
			want:   fiber.StatusOK,
		},
		{
			name: "empty before first fetch",
			want: fiber.StatusOK,
		},
		{
			name:   "empty after failed fetch",
			result: models.DeputyResult{Source: models.SourceError, Err: errors.New("timeout")},
			want:   fiber.StatusServiceUnavailable,
		},
		{
			name:   "database down",
			db:     fakePinger{err: errors.New("refused")},
			result: models.DeputyResult{Deputies: testutil.Deputies(), Source: models.SourceAPI},
			want:   fiber.StatusServiceUnavailable,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cache := &testutil.FakeDeputies{Result: tt.result}
			h := NewProbeHandler(tt.db, cache)

			app := fiber.New()
			app.Get("/healthz", h.Liveness)
			app.Get("/readyz", h.Readiness)

			resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/readyz", nil))
			if err != nil {
				t.Fatalf("request failed: %v", err)
			}
			if resp.StatusCode != tt.want {
				t.Errorf("status = %d, want %d", resp.StatusCode, tt.want)
			}

			resp, err = app.Test(httptest.NewRequest(http.MethodGet, "/healthz", nil))
			if err != nil {
				t.Fatalf("request failed: %v", err)
			}
			if resp.StatusCode != fiber.StatusOK {
				t.Errorf("liveness status = %d, want 200", resp.StatusCode)
			}
		})
	}
}
