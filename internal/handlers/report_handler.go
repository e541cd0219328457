package handlers

import (
	"net/http"
	"time"

	"inventrobil-pos/internal/database"

	"github.com/gin-gonic/gin"
)

// --- GET: /api/stats ---
// Dashboard counters; low stock means stock below the configured threshold.
func (h *Handler) Stats(c *gin.Context) {
	stats, err := h.Reports.Stats(c.Request.Context(), h.LowStockThreshold)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, stats)
}

// --- GET: /api/reports?from=YYYY-MM-DD&to=YYYY-MM-DD ---
// Both bounds are optional and inclusive.
func (h *Handler) SalesReport(c *gin.Context) {
	var period database.Period
	if from := c.Query("from"); from != "" {
		t, err := time.Parse("2006-01-02", from)
		if err != nil {
			badRequest(c, "from must be YYYY-MM-DD")
			return
		}
		period.From = t
	}
	if to := c.Query("to"); to != "" {
		t, err := time.Parse("2006-01-02", to)
		if err != nil {
			badRequest(c, "to must be YYYY-MM-DD")
			return
		}
		period.To = t.AddDate(0, 0, 1)
	}

	done := h.Metrics.TrackDBOperation("sales_report")
	report, err := h.Reports.SalesReport(c.Request.Context(), period)
	done()
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, report)
}

// --- GET: /api/reports/valuation ---
// Total monetary value of stock on hand, grouped by category.
func (h *Handler) StockValuation(c *gin.Context) {
	valuation, err := h.Reports.StockValuation(c.Request.Context())
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, valuation)
}
