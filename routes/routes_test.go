package routes

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"giftapp/config"
	"giftapp/controllers/miniapp"
)

func testRouter() http.Handler {
	cfg := &config.Config{
		Env:            "test",
		AllowedOrigins: []string{"*"},
		JWTSecret:      "test-secret",
		SessionTTL:     time.Hour,
	}
	return InitRouter(cfg, miniapp.NewController(nil, cfg, nil))
}

func TestHealthEndpoint(t *testing.T) {
	r := testRouter()
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
}

func TestDispatchRejectsNonPOST(t *testing.T) {
	r := testRouter()
	req := httptest.NewRequest(http.MethodGet, "/v1/app", nil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	if rec.Code != http.StatusMethodNotAllowed {
		t.Fatalf("expected 405 for GET on the dispatch endpoint, got %d", rec.Code)
	}
}

func TestMetricsEndpoint(t *testing.T) {
	r := testRouter()
	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
}
