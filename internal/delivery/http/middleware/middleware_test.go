package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"settlement-engine/config"
	"settlement-engine/internal/domain"
	"settlement-engine/pkg/utils"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/time/rate"
)

var ok = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusNoContent)
})

func bearer(t *testing.T, userID, role string) string {
	t.Helper()
	utils.SetSecret("middleware-test")
	tok, err := utils.GenerateJWT(userID, "", role, time.Minute)
	require.NoError(t, err)
	return "Bearer " + tok
}

func serve(h http.Handler, auth string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "10.0.0.1:5000"
	if auth != "" {
		req.Header.Set("Authorization", auth)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestRequireRoles(t *testing.T) {
	h := AuthMiddleware(RequireRoles(domain.RoleStaff, domain.RoleAdmin)(ok))

	assert.Equal(t, http.StatusUnauthorized, serve(h, "").Code)
	assert.Equal(t, http.StatusUnauthorized, serve(h, "Bearer garbage").Code)
	assert.Equal(t, http.StatusForbidden, serve(h, bearer(t, "u1", domain.RoleCustomer)).Code)
	assert.Equal(t, http.StatusNoContent, serve(h, bearer(t, "s1", domain.RoleStaff)).Code)
}

func TestOptionalAuth(t *testing.T) {
	var seen *domain.User
	h := OptionalAuth(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = UserFromContext(r.Context())
	}))

	serve(h, "")
	assert.Nil(t, seen)

	serve(h, bearer(t, "u1", domain.RoleCustomer))
	require.NotNil(t, seen)
	assert.Equal(t, "u1", seen.ID)
	assert.Equal(t, domain.RoleCustomer, seen.Role)
}

func TestRateLimiter_PerCaller(t *testing.T) {
	rl := NewRateLimiter(t.Context(), rate.Limit(0.001), 2, time.Minute, time.Minute)
	defer rl.Shutdown()
	h := rl.Middleware()(ok)

	assert.Equal(t, http.StatusNoContent, serve(h, "").Code)
	assert.Equal(t, http.StatusNoContent, serve(h, "").Code)
	rec := serve(h, "")
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "1", rec.Header().Get("Retry-After"))

	// same IP, different bucket once authenticated
	assert.Equal(t, http.StatusNoContent, serve(h, bearer(t, "cashier", domain.RoleStaff)).Code)
}

func TestCORS(t *testing.T) {
	h := NewCORSMiddleware(&config.Config{AllowedOrigin: "https://shop.example, https://pos.example"})(ok)

	req := httptest.NewRequest(http.MethodOptions, "/", nil)
	req.Header.Set("Origin", "https://pos.example")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "https://pos.example", rec.Header().Get("Access-Control-Allow-Origin"))

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Origin", "https://evil.example")
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestRequestLogger_SetsRequestID(t *testing.T) {
	h := RequestLogger(ok)

	rec := serve(h, "")
	assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-Request-ID", "abc-123")
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, "abc-123", rec.Header().Get("X-Request-ID"))
}
