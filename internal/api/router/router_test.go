package router

import (
	"net/http"
	"net/http/httptest"
	"sort"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/go-cmp/cmp"
	"go.uber.org/zap"

	"bookkeeping/config"
	"bookkeeping/internal/api/handler"
	"bookkeeping/internal/service"
	"bookkeeping/pkg/jwt"
)

func setupTestRouter() *gin.Engine {
	cfg := &config.Config{
		Auth:      config.AuthConfig{JWTSecret: "test-secret-key-32-bytes-long!!!", AccessTokenTTL: time.Hour},
		EosReport: config.EosReportConfig{RateLimit: 10, RateLimitWindow: time.Minute},
	}
	h := handler.NewHandler(&service.Service{})
	return Setup(cfg, h, jwt.NewManager(&cfg.Auth), nil, nil, zap.NewNop())
}

func TestSetup_Routes(t *testing.T) {
	engine := setupTestRouter()

	var got []string
	for _, r := range engine.Routes() {
		got = append(got, r.Method+" "+r.Path)
	}
	sort.Strings(got)

	want := []string{
		"GET /api/v1/auth/me",
		"GET /api/v1/shifts/at",
		"GET /api/v1/shifts/calendar",
		"GET /api/v1/shifts/current",
		"GET /api/v1/shifts/export",
		"GET /health",
		"POST /api/v1/auth/login",
		"POST /api/v1/auth/logout",
		"POST /api/v1/eos-reports",
		"POST /api/v1/eos-reports/preview",
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("路由不符 (-want +got):\n%s", diff)
	}
}

func TestSetup_ProtectedRoutesRequireToken(t *testing.T) {
	r := setupTestRouter()

	for _, target := range []string{
		"POST /api/v1/eos-reports?reportType=ECS",
		"GET /api/v1/shifts/current?shiftType=ECS",
		"GET /api/v1/shifts/export?shiftType=SL&shiftStart=1",
	} {
		method, path, _ := strings.Cut(target, " ")
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(method, path, nil))
		if w.Code != http.StatusUnauthorized {
			t.Errorf("%s: expected 401, got %d", target, w.Code)
		}
	}
}

func TestSetup_GlobalMiddleware(t *testing.T) {
	r := setupTestRouter()

	w := httptest.NewRecorder()
	req := httptest.NewRequest("POST", "/api/v1/auth/login", strings.NewReader("{"))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", w.Code)
	}
	if w.Header().Get("X-Request-ID") == "" {
		t.Error("expected X-Request-ID header")
	}
	if w.Header().Get("X-Content-Type-Options") != "nosniff" {
		t.Error("expected security headers")
	}
}
