package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/hamroengineering/hamro/internal/model"
	"github.com/hamroengineering/hamro/pkg/auth"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func newRouter(jwt *auth.JWTManager, bl auth.Blacklist) *gin.Engine {
	r := gin.New()
	r.GET("/me", AuthMiddleware(jwt, bl), func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"user_id": c.MustGet("user_id"), "role": c.GetString("role")})
	})
	r.GET("/admin", AuthMiddleware(jwt, bl), RequireAdmin(), func(c *gin.Context) {
		c.Status(http.StatusNoContent)
	})
	r.GET("/page", OptionalAuth(jwt, bl), func(c *gin.Context) {
		_, ok := c.Get("user_id")
		c.JSON(http.StatusOK, gin.H{"signed_in": ok})
	})
	return r
}

func do(r *gin.Engine, path string, mutate func(*http.Request)) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if mutate != nil {
		mutate(req)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func bearer(token string) func(*http.Request) {
	return func(r *http.Request) { r.Header.Set("Authorization", "Bearer "+token) }
}

func TestAuthMiddleware(t *testing.T) {
	jwt := auth.NewJWTManager("test-secret", time.Hour)
	bl := auth.NewMemoryBlacklist()
	r := newRouter(jwt, bl)

	student, err := jwt.GenerateToken(uuid.New(), "s@example.com", "Sita Sharma", "student")
	require.NoError(t, err)
	admin, err := jwt.GenerateToken(uuid.New(), "a@example.com", "Admin", "admin")
	require.NoError(t, err)

	t.Run("missing token", func(t *testing.T) {
		assert.Equal(t, http.StatusUnauthorized, do(r, "/me", nil).Code)
	})

	t.Run("malformed header", func(t *testing.T) {
		w := do(r, "/me", func(req *http.Request) { req.Header.Set("Authorization", "Token abc") })
		assert.Equal(t, http.StatusUnauthorized, w.Code)
		var body model.ErrorResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
		assert.Equal(t, "Invalid authorization format. Use: Bearer <token>", body.Error)
	})

	t.Run("garbage token", func(t *testing.T) {
		assert.Equal(t, http.StatusUnauthorized, do(r, "/me", bearer("nope")).Code)
	})

	t.Run("header token", func(t *testing.T) {
		w := do(r, "/me", bearer(student))
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), `"role":"student"`)
	})

	t.Run("cookie token", func(t *testing.T) {
		w := do(r, "/me", func(req *http.Request) {
			req.AddCookie(&http.Cookie{Name: TokenCookie, Value: student})
		})
		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("admin gate", func(t *testing.T) {
		assert.Equal(t, http.StatusForbidden, do(r, "/admin", bearer(student)).Code)
		assert.Equal(t, http.StatusNoContent, do(r, "/admin", bearer(admin)).Code)
	})

	t.Run("revoked token", func(t *testing.T) {
		revoked, err := jwt.GenerateToken(uuid.New(), "r@example.com", "Ram", "student")
		require.NoError(t, err)
		require.NoError(t, bl.Revoke(context.Background(), revoked, time.Hour))

		w := do(r, "/me", bearer(revoked))
		assert.Equal(t, http.StatusUnauthorized, w.Code)
		assert.Contains(t, w.Body.String(), "revoked")
	})
}

func TestOptionalAuth(t *testing.T) {
	jwt := auth.NewJWTManager("test-secret", time.Hour)
	r := newRouter(jwt, auth.NewMemoryBlacklist())
	token, err := jwt.GenerateToken(uuid.New(), "s@example.com", "Sita", "student")
	require.NoError(t, err)

	w := do(r, "/page", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"signed_in":false`)

	w = do(r, "/page", bearer("expired-or-garbage"))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"signed_in":false`)

	w = do(r, "/page", bearer(token))
	assert.Contains(t, w.Body.String(), `"signed_in":true`)
}
