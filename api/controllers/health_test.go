package controllers

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/biscenic/commerce-backend/pkg/config"
)

type stubPinger struct {
	err error
}

func (s stubPinger) Ping(ctx context.Context) error {
	return s.err
}

func TestHealthLive(t *testing.T) {
	handler := HealthLive(&config.Config{App: config.AppConfig{Env: "test"}})

	req := httptest.NewRequest(http.MethodGet, "/health/live", nil)
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}
	if resp.Header().Get("X-Biscenic-Env") != "test" {
		t.Fatal("env header missing")
	}
}

func TestHealthReadyAllUp(t *testing.T) {
	handler := HealthReady(&config.Config{}, nil, map[string]Pinger{
		"database": stubPinger{},
		"redis":    stubPinger{},
	})

	req := httptest.NewRequest(http.MethodGet, "/health/ready", nil)
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}
}

func TestHealthReadyDependencyDown(t *testing.T) {
	handler := HealthReady(&config.Config{}, nil, map[string]Pinger{
		"database": stubPinger{},
		"redis":    stubPinger{err: errors.New("connection refused")},
	})

	req := httptest.NewRequest(http.MethodGet, "/health/ready", nil)
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503 got %d", resp.Code)
	}
}
