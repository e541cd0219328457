package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"inventrobil-pos/internal/auth"
	"inventrobil-pos/internal/models"

	"github.com/gin-gonic/gin"
)

// TokenCookie carries the session token for browser clients.
const TokenCookie = "token"

const userKey = "user"

// UserResolver re-reads the account behind a session.
type UserResolver interface {
	UserByID(ctx context.Context, id uint) (*models.User, error)
}

// SessionGate authenticates requests and checks capabilities.
type SessionGate struct {
	tokens *auth.Tokens
	users  UserResolver
}

func NewSessionGate(tokens *auth.Tokens, users UserResolver) *SessionGate {
	return &SessionGate{tokens: tokens, users: users}
}

// AuthMiddleware checks for a valid session token and loads the current user.
// The token may arrive as "Authorization: Bearer <token>" or in the token cookie.
// The account is looked up again so a deleted user or changed role takes effect immediately.
func (g *SessionGate) AuthMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenString := bearerToken(c)
		if tokenString == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Authentication required"})
			return
		}

		claims, err := g.tokens.ValidateToken(tokenString)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Invalid or expired token"})
			return
		}

		user, err := g.users.UserByID(c.Request.Context(), claims.UserID)
		if errors.Is(err, models.ErrNotFound) {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Invalid or expired token"})
			return
		}
		if err != nil {
			_ = c.Error(err)
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
			return
		}

		c.Set(userKey, user)
		c.Next()
	}
}

func bearerToken(c *gin.Context) string {
	if header := c.GetHeader("Authorization"); header != "" {
		if token, ok := strings.CutPrefix(header, "Bearer "); ok {
			return strings.TrimSpace(token)
		}
		return ""
	}
	if cookie, err := c.Cookie(TokenCookie); err == nil {
		return cookie
	}
	return ""
}

// Require lets the request through only when the current role has capability.
// It must run after AuthMiddleware.
func Require(capability auth.Capability) gin.HandlerFunc {
	return func(c *gin.Context) {
		user, ok := CurrentUser(c)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Authentication required"})
			return
		}
		if !auth.Can(user.Role, capability) {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{
				"error":      "Forbidden: " + capability.Label() + " permission required",
				"capability": string(capability),
			})
			return
		}
		c.Next()
	}
}

// CurrentUser returns the user AuthMiddleware resolved for this request.
func CurrentUser(c *gin.Context) (*models.User, bool) {
	v, ok := c.Get(userKey)
	if !ok {
		return nil, false
	}
	user, ok := v.(*models.User)
	return user, ok && user != nil
}
