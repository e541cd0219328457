package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"inventrobil-pos/internal/auth"
	"inventrobil-pos/internal/models"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeUsers map[uint]*models.User

func (f fakeUsers) UserByID(_ context.Context, id uint) (*models.User, error) {
	if u, ok := f[id]; ok {
		return u, nil
	}
	return nil, models.ErrNotFound
}

func newRouter(users fakeUsers, tokens *auth.Tokens) *gin.Engine {
	gin.SetMode(gin.TestMode)
	gate := NewSessionGate(tokens, users)

	r := gin.New()
	r.Use(RequestID())
	api := r.Group("/api", gate.AuthMiddleware())
	api.GET("/products", Require(auth.ViewInventory), func(c *gin.Context) { c.Status(http.StatusOK) })
	api.POST("/product", Require(auth.EditInventory), func(c *gin.Context) { c.Status(http.StatusCreated) })
	api.GET("/whoami", func(c *gin.Context) {
		u, _ := CurrentUser(c)
		c.String(http.StatusOK, u.Username)
	})
	return r
}

func token(t *testing.T, tokens *auth.Tokens, u *models.User) string {
	t.Helper()
	s, _, err := tokens.GenerateToken(*u)
	require.NoError(t, err)
	return s
}

func TestSessionGate(t *testing.T) {
	tokens := auth.NewTokens("gate-secret", time.Hour)
	cashier := &models.User{ID: 1, Username: "cashier", Role: models.RoleCashier}
	manager := &models.User{ID: 2, Username: "manager", Role: models.RoleManager}
	users := fakeUsers{1: cashier, 2: manager}
	r := newRouter(users, tokens)

	tests := []struct {
		name   string
		method string
		path   string
		auth   func(*http.Request)
		status int
	}{
		{"no token", http.MethodGet, "/api/products", func(*http.Request) {}, http.StatusUnauthorized},
		{"garbage token", http.MethodGet, "/api/products", func(r *http.Request) { r.Header.Set("Authorization", "Bearer nope") }, http.StatusUnauthorized},
		{"non-bearer header", http.MethodGet, "/api/products", func(r *http.Request) { r.Header.Set("Authorization", token(t, tokens, cashier)) }, http.StatusUnauthorized},
		{"cashier may view", http.MethodGet, "/api/products", func(r *http.Request) { r.Header.Set("Authorization", "Bearer "+token(t, tokens, cashier)) }, http.StatusOK},
		{"cashier may not edit", http.MethodPost, "/api/product", func(r *http.Request) { r.Header.Set("Authorization", "Bearer "+token(t, tokens, cashier)) }, http.StatusForbidden},
		{"manager may edit", http.MethodPost, "/api/product", func(r *http.Request) { r.Header.Set("Authorization", "Bearer "+token(t, tokens, manager)) }, http.StatusCreated},
		{"cookie works", http.MethodGet, "/api/products", func(r *http.Request) {
			r.AddCookie(&http.Cookie{Name: TokenCookie, Value: token(t, tokens, cashier)})
		}, http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(tt.method, tt.path, nil)
			tt.auth(req)
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)
			assert.Equal(t, tt.status, w.Code)
			assert.NotEmpty(t, w.Header().Get("X-Request-ID"))
		})
	}
}

func TestForbiddenNamesCapability(t *testing.T) {
	tokens := auth.NewTokens("gate-secret", time.Hour)
	cashier := &models.User{ID: 1, Username: "cashier", Role: models.RoleCashier}
	r := newRouter(fakeUsers{1: cashier}, tokens)

	req := httptest.NewRequest(http.MethodPost, "/api/product", nil)
	req.Header.Set("Authorization", "Bearer "+token(t, tokens, cashier))
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Contains(t, w.Body.String(), "edit inventory")
}

func TestDeletedUserLosesSession(t *testing.T) {
	tokens := auth.NewTokens("gate-secret", time.Hour)
	cashier := &models.User{ID: 1, Username: "cashier", Role: models.RoleCashier}
	users := fakeUsers{1: cashier}
	r := newRouter(users, tokens)
	signed := token(t, tokens, cashier)

	delete(users, 1)

	req := httptest.NewRequest(http.MethodGet, "/api/whoami", nil)
	req.Header.Set("Authorization", "Bearer "+signed)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestRoleChangeTakesEffectImmediately(t *testing.T) {
	tokens := auth.NewTokens("gate-secret", time.Hour)
	user := &models.User{ID: 3, Username: "promoted", Role: models.RoleCashier}
	r := newRouter(fakeUsers{3: user}, tokens)
	signed := token(t, tokens, user) // token still says Cashier

	user.Role = models.RoleManager

	req := httptest.NewRequest(http.MethodPost, "/api/product", nil)
	req.Header.Set("Authorization", "Bearer "+signed)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusCreated, w.Code)
}

func TestRequestIDIsPropagated(t *testing.T) {
	r := newRouter(fakeUsers{}, auth.NewTokens("s", time.Hour))
	req := httptest.NewRequest(http.MethodGet, "/api/products", nil)
	req.Header.Set("X-Request-ID", "abc-123")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, "abc-123", w.Header().Get("X-Request-ID"))
}

type brokenUsers struct{}

func (brokenUsers) UserByID(context.Context, uint) (*models.User, error) {
	return nil, errors.New("connection refused")
}

func TestUserLookupFailureIsNotABadSession(t *testing.T) {
	gin.SetMode(gin.TestMode)
	tokens := auth.NewTokens("gate-secret", time.Hour)
	gate := NewSessionGate(tokens, brokenUsers{})

	r := gin.New()
	r.GET("/api/products", gate.AuthMiddleware(), func(c *gin.Context) { c.Status(http.StatusOK) })

	req := httptest.NewRequest(http.MethodGet, "/api/products", nil)
	req.Header.Set("Authorization", "Bearer "+token(t, tokens, &models.User{ID: 1, Username: "cashier", Role: models.RoleCashier}))
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.JSONEq(t, `{"error":"Internal server error"}`, w.Body.String())
}
