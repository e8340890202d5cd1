package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
)

func serve(t *testing.T, h echo.HandlerFunc) (*httptest.ResponseRecorder, readinessResponse) {
	t.Helper()
	e := echo.New()
	rec := httptest.NewRecorder()
	c := e.NewContext(httptest.NewRequest(http.MethodGet, "/health/ready", nil), rec)
	if err := h(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	var resp readinessResponse
	_ = json.Unmarshal(rec.Body.Bytes(), &resp)
	return rec, resp
}

func TestLiveness(t *testing.T) {
	rec, _ := serve(t, NewHealthHandler().Liveness)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
}

func TestReadiness_AllHealthy(t *testing.T) {
	ok := func(context.Context) error { return nil }
	rec, resp := serve(t, NewReadinessHandler(
		Dependency{Name: "mongodb", Check: ok},
		Dependency{Name: "redis", Check: ok},
	).Readiness)

	if rec.Code != http.StatusOK || resp.Status != "ok" {
		t.Fatalf("expected ready, got %d %+v", rec.Code, resp)
	}
	if resp.Dependencies["mongodb"].Status != "ok" || resp.Dependencies["redis"].Status != "ok" {
		t.Fatalf("unexpected dependencies: %+v", resp.Dependencies)
	}
}

func TestReadiness_Degraded(t *testing.T) {
	rec, resp := serve(t, NewReadinessHandler(
		Dependency{Name: "mongodb", Check: func(context.Context) error { return nil }},
		Dependency{Name: "redis", Check: func(context.Context) error { return errors.New("connection refused") }},
	).Readiness)

	if rec.Code != http.StatusServiceUnavailable || resp.Status != "degraded" {
		t.Fatalf("expected degraded, got %d %+v", rec.Code, resp)
	}
	if got := resp.Dependencies["redis"]; got.Status != "unhealthy" || got.Error != "connection refused" {
		t.Fatalf("unexpected redis status: %+v", got)
	}
}

func TestReadiness_NoDependencies(t *testing.T) {
	rec, _ := serve(t, NewReadinessHandler().Readiness)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
}
