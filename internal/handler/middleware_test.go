package handler

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"

	memoryrepository "investtrack/internal/repository/memory"
	"investtrack/internal/service"
)

func newAuthRouter(t *testing.T, enabled bool) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)
	repo := memoryrepository.New()
	r := gin.New()
	r.Use(RequireBearerMiddleware(enabled))

	health := &HealthHandler{Demo: true}
	health.Register(r)
	positions := &PositionHandler{
		Repo:    repo,
		Service: &service.PositionService{Repo: repo},
	}
	positions.Register(r)
	return r
}

func get(r *gin.Engine, path string, bearer bool) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if bearer {
		req.Header.Set("Authorization", "Bearer token-from-gateway")
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestBearerCheckDisabledByDefault(t *testing.T) {
	r := newAuthRouter(t, false)

	if w := get(r, "/api/positions", false); w.Code != http.StatusOK {
		t.Fatalf("api without token status=%d want=200", w.Code)
	}
	if w := get(r, "/healthz", false); w.Code != http.StatusOK {
		t.Fatalf("healthz status=%d want=200", w.Code)
	}
}

func TestBearerCheckEnabled(t *testing.T) {
	r := newAuthRouter(t, true)

	if w := get(r, "/api/positions", false); w.Code != http.StatusUnauthorized {
		t.Fatalf("api without token status=%d want=401", w.Code)
	}
	if w := get(r, "/api/positions", true); w.Code != http.StatusOK {
		t.Fatalf("api with token status=%d want=200", w.Code)
	}
	// Infra endpoints stay open even with the check on.
	if w := get(r, "/healthz", false); w.Code != http.StatusOK {
		t.Fatalf("healthz status=%d want=200", w.Code)
	}
	if w := get(r, "/readyz", false); w.Code != http.StatusOK {
		t.Fatalf("readyz status=%d want=200", w.Code)
	}
}
