package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIsPublicRoute(t *testing.T) {
	assert.True(t, isPublicRoute("/api/v1/auth/login"))
	assert.True(t, isPublicRoute("/api/v1/auth/register"))
	assert.True(t, isPublicRoute("/api/v1/tips/free"))
	assert.True(t, isPublicRoute("/api/v1/payments/details"))
	assert.True(t, isPublicRoute("/health"))
	assert.True(t, isPublicRoute("/metrics"))

	assert.False(t, isPublicRoute("/api/v1/session"))
	assert.False(t, isPublicRoute("/api/v1/forecasts"))
	assert.False(t, isPublicRoute("/api/v1/accounts"))
	assert.False(t, isPublicRoute("/api/v1/payments/proof"))
}

func TestMiddleware(t *testing.T) {
	cfg := Config{JWTSecret: "test-secret", AccessTokenTTL: DefaultConfig().AccessTokenTTL}

	var gotUser *AuthUser
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUser = GetAuthUser(r.Context())
		w.WriteHeader(http.StatusOK)
	})
	handler := Middleware(cfg)(next)

	t.Run("公开路由放行", func(t *testing.T) {
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
		assert.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("缺少令牌返回401", func(t *testing.T) {
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/session", nil))
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("非法令牌返回401", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/v1/session", nil)
		req.Header.Set("Authorization", "Bearer not-a-token")
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("非Bearer格式返回401", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/v1/session", nil)
		req.Header.Set("Authorization", "Basic dXNlcjpwYXNz")
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("有效令牌注入用户上下文", func(t *testing.T) {
		token, err := GenerateAccessToken(cfg, "usr-1", "a@x.ao", "user")
		require.NoError(t, err)

		req := httptest.NewRequest(http.MethodGet, "/api/v1/session", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		require.Equal(t, http.StatusOK, rec.Code)
		require.NotNil(t, gotUser)
		assert.Equal(t, "usr-1", gotUser.ID)
		assert.Equal(t, "a@x.ao", gotUser.Email)
		assert.Equal(t, "user", gotUser.Role)
	})

	t.Run("密钥不符的令牌被拒绝", func(t *testing.T) {
		other := Config{JWTSecret: "other-secret", AccessTokenTTL: cfg.AccessTokenTTL}
		token, err := GenerateAccessToken(other, "usr-1", "a@x.ao", "user")
		require.NoError(t, err)

		req := httptest.NewRequest(http.MethodGet, "/api/v1/session", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})
}

func TestAdminOnly(t *testing.T) {
	next := func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusOK) }
	handler := AdminOnly(next)

	t.Run("管理员放行", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/v1/accounts", nil)
		req = req.WithContext(WithAuthUser(req.Context(), &AuthUser{ID: "admin", Role: "admin"}))
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("普通用户返回403", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/v1/accounts", nil)
		req = req.WithContext(WithAuthUser(req.Context(), &AuthUser{ID: "usr-1", Role: "user"}))
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusForbidden, rec.Code)
	})

	t.Run("无认证上下文返回403", func(t *testing.T) {
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/accounts", nil))
		assert.Equal(t, http.StatusForbidden, rec.Code)
	})
}
