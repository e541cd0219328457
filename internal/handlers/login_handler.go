package handlers

import (
	"errors"
	"net/http"

	"inventrobil-pos/internal/auth"
	"inventrobil-pos/internal/middleware"
	"inventrobil-pos/internal/models"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type LoginRequest struct {
	Username string `json:"username" form:"username" binding:"required"`
	Password string `json:"password" form:"password" binding:"required"`
}

// Login accepts JSON or form credentials, returns a session token and sets it as a cookie.
func (h *Handler) Login(c *gin.Context) {
	var input LoginRequest
	if err := c.ShouldBind(&input); err != nil {
		badRequest(c, "Username and password are required")
		return
	}

	user, err := h.Users.Authenticate(c.Request.Context(), input.Username, input.Password)
	if errors.Is(err, models.ErrInvalidCredentials) {
		h.Metrics.LoginAttempts.WithLabelValues("rejected").Inc()
		c.JSON(http.StatusUnauthorized, gin.H{"success": false, "error": "Invalid username or password"})
		return
	}
	if err != nil {
		h.fail(c, err)
		return
	}

	token, expires, err := h.Tokens.GenerateToken(*user)
	if err != nil {
		h.fail(c, err)
		return
	}
	h.Metrics.LoginAttempts.WithLabelValues("accepted").Inc()
	h.logger(c).Info("User logged in", zap.String("username", user.Username))

	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(middleware.TokenCookie, token, int(h.Tokens.TTL().Seconds()), "/", "", h.SecureCookies, true)
	c.JSON(http.StatusOK, gin.H{
		"success":    true,
		"token":      token,
		"expires_at": expires,
		"username":   user.Username,
		"role":       user.Role,
		"redirect":   "/",
	})
}

// Logout clears the session cookie. Bearer tokens simply expire.
func (h *Handler) Logout(c *gin.Context) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(middleware.TokenCookie, "", -1, "/", "", h.SecureCookies, true)
	c.JSON(http.StatusOK, gin.H{"success": true})
}

// UserInfo returns the current user and the full capability map for their role.
func (h *Handler) UserInfo(c *gin.Context) {
	user, _ := middleware.CurrentUser(c)
	c.JSON(http.StatusOK, gin.H{
		"user":        user,
		"permissions": auth.Capabilities(user.Role),
	})
}

type changePasswordRequest struct {
	OldPassword string `json:"old_password"`
	NewPassword string `json:"new_password"`
}

// ChangePassword changes the caller's own password.
func (h *Handler) ChangePassword(c *gin.Context) {
	var req changePasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request body")
		return
	}
	user, _ := middleware.CurrentUser(c)

	err := h.Users.ChangePassword(c.Request.Context(), user.Username, req.OldPassword, req.NewPassword)
	if errors.Is(err, models.ErrInvalidCredentials) {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Current password is incorrect"})
		return
	}
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "message": "Password changed successfully"})
}
