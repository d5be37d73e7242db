package health

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

type stubChecker struct {
	dbErr    error
	redisErr error
}

func (c stubChecker) PingDB(ctx context.Context, timeout time.Duration) error {
	return c.dbErr
}

func (c stubChecker) PingRedis(ctx context.Context, timeout time.Duration) error {
	return c.redisErr
}

func TestLive(t *testing.T) {
	rec := httptest.NewRecorder()
	Handler{}.Live(rec, httptest.NewRequest(http.MethodGet, "/health/live", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("Live status = %d, want %d", rec.Code, http.StatusOK)
	}
	if rec.Body.String() != "ok" {
		t.Fatalf("Live body = %q, want %q", rec.Body.String(), "ok")
	}
}

func TestReadyAllHealthy(t *testing.T) {
	h := Handler{Checker: stubChecker{}}
	rec := httptest.NewRecorder()
	h.Ready(rec, httptest.NewRequest(http.MethodGet, "/health/ready", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("Ready status = %d, want %d", rec.Code, http.StatusOK)
	}
}

func TestReadyDependencyDown(t *testing.T) {
	cases := []struct {
		name    string
		checker stubChecker
	}{
		{"db down", stubChecker{dbErr: errors.New("db unreachable")}},
		{"redis down", stubChecker{redisErr: errors.New("redis unreachable")}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			h := Handler{Checker: tc.checker}
			rec := httptest.NewRecorder()
			h.Ready(rec, httptest.NewRequest(http.MethodGet, "/health/ready", nil))
			if rec.Code != http.StatusServiceUnavailable {
				t.Fatalf("Ready status = %d, want %d", rec.Code, http.StatusServiceUnavailable)
			}
		})
	}
}

func TestReadyWithoutChecker(t *testing.T) {
	rec := httptest.NewRecorder()
	Handler{}.Ready(rec, httptest.NewRequest(http.MethodGet, "/health/ready", nil))
	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("Ready status = %d, want %d", rec.Code, http.StatusServiceUnavailable)
	}
}
