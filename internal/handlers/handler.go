package handlers

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"inventrobil-pos/internal/auth"
	"inventrobil-pos/internal/database"
	"inventrobil-pos/internal/events"
	"inventrobil-pos/internal/logger"
	"inventrobil-pos/internal/metrics"
	"inventrobil-pos/internal/models"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// UserService is the account store.
type UserService interface {
	Authenticate(ctx context.Context, username, password string) (*models.User, error)
	ListUsers(ctx context.Context) ([]models.User, error)
	CreateUser(ctx context.Context, username, password string, role models.Role, email string) (*models.User, error)
	ChangePassword(ctx context.Context, username, oldPassword, newPassword string) error
	ResetPassword(ctx context.Context, username, newPassword string) error
	DeleteUser(ctx context.Context, actor, target string) error
}

// Catalog is the product store.
type Catalog interface {
	ListProducts(ctx context.Context) ([]models.Product, error)
	CreateProduct(ctx context.Context, p models.Product) (*models.Product, error)
	UpdateProduct(ctx context.Context, id uint, patch models.ProductPatch) (*models.Product, error)
	DeleteProduct(ctx context.Context, id uint) error
	ReplaceCatalog(ctx context.Context, products []models.Product) (int, error)
}

// Ledger is the sale store.
type Ledger interface {
	Checkout(ctx context.Context, co models.Checkout) (*models.Sale, error)
	History(ctx context.Context) ([]models.Sale, error)
	SaleByNumber(ctx context.Context, number int64) (*models.Sale, error)
}

// Reports are the read-only aggregates.
type Reports interface {
	SalesReport(ctx context.Context, period database.Period) (*database.SalesReport, error)
	Stats(ctx context.Context, lowStockThreshold int) (*database.Stats, error)
	StockValuation(ctx context.Context) (*database.Valuation, error)
}

// CatalogArchiver keeps catalog snapshots outside the database.
type CatalogArchiver interface {
	SaveCatalog(ctx context.Context, reason string, snapshot []byte) (string, error)
}

// Asker answers free-form questions about the shop.
type Asker interface {
	Ask(ctx context.Context, question string) (string, error)
}

// Deps are everything the handlers call into. Archive and Assistant may be nil.
type Deps struct {
	Users     UserService
	Catalog   Catalog
	Ledger    Ledger
	Reports   Reports
	Tokens    *auth.Tokens
	Publisher events.Publisher
	Archive   CatalogArchiver
	Assistant Asker
	Metrics   *metrics.Metrics
	Pinger    func() error
	Log       *zap.Logger

	StoreName         string
	LowStockThreshold int
	SecureCookies     bool
}

type Handler struct {
	Deps
}

func New(d Deps) *Handler {
	if d.Log == nil {
		d.Log = zap.NewNop()
	}
	if d.Publisher == nil {
		d.Publisher = events.Noop{}
	}
	if d.Metrics == nil {
		d.Metrics = metrics.New()
	}
	return &Handler{Deps: d}
}

func (h *Handler) logger(c *gin.Context) *zap.Logger {
	return logger.FromContext(c, h.Log)
}

// fail translates a domain error into a status code and body.
// Anything unrecognised is logged and reported as a bare 500.
func (h *Handler) fail(c *gin.Context, err error) {
	var (
		stockErr *models.InsufficientStockError
		valErr   *models.ValidationError
	)
	switch {
	case errors.As(err, &stockErr):
		c.JSON(http.StatusBadRequest, gin.H{"error": stockErr.Error(), "product": stockErr.ProductName})
	case errors.As(err, &valErr):
		c.JSON(http.StatusBadRequest, gin.H{"error": valErr.Error(), "field": valErr.Field})
	case errors.Is(err, models.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, models.ErrConflict), errors.Is(err, models.ErrSelfDeletion):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, models.ErrInvalidCredentials):
		c.JSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
	default:
		_ = c.Error(err)
		h.logger(c).Error("Request failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
	}
}

func badRequest(c *gin.Context, msg string) {
	c.JSON(http.StatusBadRequest, gin.H{"error": msg})
}

func parseUintParam(c *gin.Context, name string) (uint, bool) {
	id, err := strconv.ParseUint(c.Param(name), 10, 32)
	if err != nil || id == 0 {
		badRequest(c, "Invalid "+name)
		return 0, false
	}
	return uint(id), true
}
