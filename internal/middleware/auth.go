package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/hamroengineering/hamro/internal/model"
	"github.com/hamroengineering/hamro/pkg/auth"
	"github.com/rs/zerolog/log"
)

// TokenCookie is the cookie the website pages authenticate with
const TokenCookie = "access_token"

// extractToken reads a bearer token from the Authorization header, falling
// back to the access_token cookie
func extractToken(c *gin.Context) (string, string) {
	if authHeader := c.GetHeader("Authorization"); authHeader != "" {
		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" {
			return "", "Invalid authorization format. Use: Bearer <token>"
		}
		return parts[1], ""
	}
	if cookie, err := c.Cookie(TokenCookie); err == nil && cookie != "" {
		return cookie, ""
	}
	return "", "Authorization header required"
}

// authenticate validates the token and checks it has not been revoked.
// It returns the HTTP status to abort with, or 0 on success.
func authenticate(c *gin.Context, jwtManager *auth.JWTManager, blacklist auth.Blacklist, tokenString string) (*auth.Claims, int, string) {
	revoked, err := blacklist.IsRevoked(c.Request.Context(), tokenString)
	if err != nil {
		// Fail closed when the blacklist is unreachable
		log.Error().Err(err).Msg("Blacklist lookup failed")
		return nil, http.StatusInternalServerError, "Auth server error"
	}
	if revoked {
		return nil, http.StatusUnauthorized, "Token has been revoked"
	}

	claims, err := jwtManager.ValidateToken(tokenString)
	if err != nil {
		return nil, http.StatusUnauthorized, "Invalid or expired token"
	}
	return claims, 0, ""
}

func setClaims(c *gin.Context, claims *auth.Claims, tokenString string) {
	c.Set("user_id", claims.UserID)
	c.Set("email", claims.Email)
	c.Set("role", claims.Role)
	c.Set("token", tokenString)
}

// AuthMiddleware validates JWT tokens and injects user claims into context
func AuthMiddleware(jwtManager *auth.JWTManager, blacklist auth.Blacklist) gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenString, problem := extractToken(c)
		if tokenString == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, model.ErrorResponse{Error: problem})
			return
		}

		claims, status, msg := authenticate(c, jwtManager, blacklist, tokenString)
		if status != 0 {
			c.AbortWithStatusJSON(status, model.ErrorResponse{Error: msg})
			return
		}

		setClaims(c, claims, tokenString)
		c.Next()
	}
}

// OptionalAuth injects user claims when a valid token is present and never aborts
func OptionalAuth(jwtManager *auth.JWTManager, blacklist auth.Blacklist) gin.HandlerFunc {
	return func(c *gin.Context) {
		if tokenString, _ := extractToken(c); tokenString != "" {
			if claims, status, _ := authenticate(c, jwtManager, blacklist, tokenString); status == 0 {
				setClaims(c, claims, tokenString)
			}
		}
		c.Next()
	}
}

// RequireAdmin rejects callers whose token does not carry the admin role.
// It must run after AuthMiddleware.
func RequireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.GetString("role") != string(model.RoleAdmin) {
			c.AbortWithStatusJSON(http.StatusForbidden, model.ErrorResponse{Error: "Admin access required"})
			return
		}
		c.Next()
	}
}
