package health

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestRootReportsRunning(t *testing.T) {
	s := NewServer(Options{})
	rec := httptest.NewRecorder()
	s.Router().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("code = %d", rec.Code)
	}
	var body rootResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.Status != "running" {
		t.Fatalf("status = %q", body.Status)
	}
}

func TestHealthReportsUptimeAndProbes(t *testing.T) {
	now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	clock := now
	s := NewServer(Options{
		Model: "deepseek-chat",
		Now:   func() time.Time { return clock },
		Probes: map[string]Probe{
			"sessions": func(context.Context) (any, error) { return 3, nil },
		},
	})
	clock = now.Add(90 * time.Second)

	rec := httptest.NewRecorder()
	s.Router().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("code = %d", rec.Code)
	}
	var body struct {
		Status        string         `json:"status"`
		UptimeSeconds int64          `json:"uptime_seconds"`
		Model         string         `json:"model"`
		Checks        map[string]any `json:"checks"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.Status != "healthy" || body.UptimeSeconds != 90 || body.Model != "deepseek-chat" {
		t.Fatalf("body = %+v", body)
	}
	if body.Checks["sessions"] != float64(3) {
		t.Fatalf("checks = %v", body.Checks)
	}
}

func TestHealthDegradedOnProbeFailure(t *testing.T) {
	s := NewServer(Options{Probes: map[string]Probe{
		"db": func(context.Context) (any, error) { return nil, errors.New("down") },
	}})
	rec := httptest.NewRecorder()
	s.Router().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("code = %d", rec.Code)
	}
}

func TestUnknownRouteIs404(t *testing.T) {
	rec := httptest.NewRecorder()
	NewServer(Options{}).Router().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/nope", nil))
	if rec.Code != http.StatusNotFound {
		t.Fatalf("code = %d", rec.Code)
	}
}

func TestRunStopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	s := NewServer(Options{Listen: "127.0.0.1:0"})
	done := make(chan error, 1)
	go func() { done <- s.Run(ctx) }()
	time.Sleep(50 * time.Millisecond)
	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("Run: %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return after cancel")
	}
}
