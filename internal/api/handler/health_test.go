package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"testing"

	"github.com/greenleaf/storefront/internal/core/ports"
)

type stubPinger struct{ err error }

func (s stubPinger) Ping(context.Context) error { return s.err }

func TestHealthHandler_Liveness(t *testing.T) {
	env := newTestEnv(t)
	rec, err := env.call(NewHealthHandler().Liveness, http.MethodGet, "/health", nil)
	expectStatus(t, rec, err, http.StatusOK)
}

func TestHealthDependenciesHandler_Readiness(t *testing.T) {
	tests := []struct {
		name       string
		deps       map[string]ports.Pinger
		wantCode   int
		wantStatus string
	}{
		{
			name:       "all healthy",
			deps:       map[string]ports.Pinger{"storage": stubPinger{}},
			wantCode:   http.StatusOK,
			wantStatus: "ok",
		},
		{
			name:       "storage down",
			deps:       map[string]ports.Pinger{"storage": stubPinger{err: errors.New("connection refused")}},
			wantCode:   http.StatusServiceUnavailable,
			wantStatus: "degraded",
		},
		{
			name:       "no dependencies",
			deps:       nil,
			wantCode:   http.StatusOK,
			wantStatus: "ok",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnv(t)
			rec, err := env.call(NewHealthDependenciesHandler(tt.deps).Readiness, http.MethodGet, "/health/ready", nil)
			expectStatus(t, rec, err, tt.wantCode)

			var got readinessResponse
			if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
				t.Fatalf("invalid json: %v", err)
			}
			if got.Status != tt.wantStatus {
				t.Fatalf("status = %s, want %s", got.Status, tt.wantStatus)
			}
			if d, ok := got.Dependencies["storage"]; ok && tt.wantCode != http.StatusOK && d.Error != "connection refused" {
				t.Fatalf("dependency = %+v", d)
			}
		})
	}
}
