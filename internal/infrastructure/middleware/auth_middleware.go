package middleware

import (
	"net/http"
	"strings"

	"mswdportal/internal/core/domain"
	"mswdportal/internal/core/ports"

	"github.com/gin-gonic/gin"
)

// AuthMiddleware validates the bearer token and stores the caller's
// identity in the request context.
func AuthMiddleware(provider ports.IdentityProvider) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "authorization header required"})
			c.Abort()
			return
		}

		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || parts[0] != "Bearer" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid authorization header format"})
			c.Abort()
			return
		}

		claims, err := provider.ValidateToken(parts[1])
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid or expired token"})
			c.Abort()
			return
		}

		c.Set("user_id", claims.UserID)
		c.Set("session_id", claims.SessionID)
		c.Set("email", claims.Email)
		c.Next()
	}
}

// RequireRole gates a route on the live session's role. The check reads the
// session manager, never the token, so a role switch takes effect on the
// next request without re-issuing tokens.
func RequireRole(sessions ports.SessionService, allowed ...domain.Role) gin.HandlerFunc {
	allowedSet := make(map[domain.Role]bool, len(allowed))
	for _, role := range allowed {
		allowedSet[role] = true
	}

	return func(c *gin.Context) {
		sessionIDVal, exists := c.Get("session_id")
		if !exists {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "authentication required"})
			c.Abort()
			return
		}
		sessionID, ok := sessionIDVal.(domain.SessionID)
		if !ok {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid session context"})
			c.Abort()
			return
		}

		session, err := sessions.Session(sessionID)
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "no active session"})
			c.Abort()
			return
		}

		if !allowedSet[session.Role] {
			c.JSON(http.StatusForbidden, gin.H{"error": "insufficient permissions"})
			c.Abort()
			return
		}

		c.Set("role", session.Role)
		c.Next()
	}
}

// SessionID pulls the authenticated session id out of the gin context.
func SessionID(c *gin.Context) (domain.SessionID, bool) {
	val, exists := c.Get("session_id")
	if !exists {
		return "", false
	}
	id, ok := val.(domain.SessionID)
	return id, ok
}

// UserID pulls the authenticated user id out of the gin context.
func UserID(c *gin.Context) (domain.UserID, bool) {
	val, exists := c.Get("user_id")
	if !exists {
		return "", false
	}
	id, ok := val.(domain.UserID)
	return id, ok
}
