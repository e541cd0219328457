package routes

import (
	"os"
	"path/filepath"
	"time"

	"inventrobil-pos/internal/auth"
	"inventrobil-pos/internal/handlers"
	"inventrobil-pos/internal/logger"
	"inventrobil-pos/internal/middleware"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

// Options controls the ambient middleware.
type Options struct {
	CORSOrigins []string
	WebDir      string // built frontend; served when it contains index.html
}

// New builds the router. Every /api route passes the session gate, then the
// capability check for its tier.
func New(h *handlers.Handler, gate *middleware.SessionGate, opts Options) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RequestID())
	r.Use(logger.Middleware(h.Log))
	r.Use(h.Metrics.Middleware())

	origins := opts.CORSOrigins
	if len(origins) == 0 {
		origins = []string{"http://localhost:5173"}
	}
	r.Use(cors.New(cors.Config{
		AllowOrigins:     origins,
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization", logger.RequestIDHeader},
		ExposeHeaders:    []string{"Content-Length", "Content-Disposition", logger.RequestIDHeader},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	r.GET("/health", h.Health)
	r.GET("/metrics", h.PrometheusMetrics)
	r.POST("/login", h.Login)
	r.POST("/logout", h.Logout)

	authed := r.Group("/")
	authed.Use(gate.AuthMiddleware())
	{
		// Login tier
		authed.GET("/user-info", h.UserInfo)
		authed.GET("/api/stats", h.Stats)
		authed.POST("/api/user/change-password", h.ChangePassword)

		api := authed.Group("/api")

		// Cashier tier
		api.GET("/products", middleware.Require(auth.ViewInventory), h.ListProducts)

		billing := api.Group("/billing", middleware.Require(auth.ManageBilling))
		{
			billing.POST("", h.Checkout)
			billing.GET("", h.History)
			billing.GET("/:id", h.GetSale)
			billing.GET("/:id/invoice", h.Invoice)
		}

		// Manager tier
		inventory := api.Group("/product", middleware.Require(auth.EditInventory))
		{
			inventory.POST("", h.CreateProduct)
			inventory.PUT("/:id", h.UpdateProduct)
			inventory.DELETE("/:id", h.DeleteProduct)
		}

		reports := api.Group("/", middleware.Require(auth.ViewReports))
		{
			reports.GET("/reports", h.SalesReport)
			reports.GET("/reports/valuation", h.StockValuation)
			reports.POST("/ask", h.AskAI)
		}

		// Owner tier
		settings := api.Group("/", middleware.Require(auth.AccessSettings))
		{
			settings.GET("/export", h.ExportCatalog)
			settings.POST("/import", h.ImportCatalog)
		}

		users := api.Group("/", middleware.Require(auth.ManageUsers))
		{
			users.GET("/users", h.ListUsers)
			users.POST("/user", h.CreateUser)
			users.DELETE("/user/:username", h.DeleteUser)
			users.POST("/user/:username/reset-password", h.ResetPassword)
		}
	}

	serveFrontend(r, opts.WebDir)
	return r
}

// serveFrontend serves the built single-page app. Unknown paths fall back to
// index.html so client-side routes survive a refresh.
func serveFrontend(r *gin.Engine, dir string) {
	if dir == "" {
		return
	}
	index := filepath.Join(dir, "index.html")
	if _, err := os.Stat(index); err != nil {
		return
	}
	r.Static("/assets", filepath.Join(dir, "assets"))
	r.NoRoute(func(c *gin.Context) {
		c.File(index)
	})
}
