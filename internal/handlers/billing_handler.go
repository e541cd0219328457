package handlers

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"inventrobil-pos/internal/invoice"
	"inventrobil-pos/internal/middleware"
	"inventrobil-pos/internal/models"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// CheckoutRequest is what the till sends. Totals are the ones shown to the
// customer and are stored as given.
type CheckoutRequest struct {
	Items []struct {
		ID       uint `json:"id"`
		Quantity int  `json:"quantity"`
	} `json:"items"`
	Subtotal        *decimal.Decimal `json:"subtotal"`
	DiscountPercent decimal.Decimal  `json:"discountPercent"`
	DiscountAmount  decimal.Decimal  `json:"discountAmount"`
	GSTRate         decimal.Decimal  `json:"gstRate"`
	GSTAmount       decimal.Decimal  `json:"gstAmount"`
	Total           *decimal.Decimal `json:"total"`
}

func (r CheckoutRequest) toCheckout(createdBy string) (models.Checkout, error) {
	if r.Subtotal == nil {
		return models.Checkout{}, models.Invalid("subtotal", "is required")
	}
	if r.Total == nil {
		return models.Checkout{}, models.Invalid("total", "is required")
	}
	co := models.Checkout{
		Items:           make([]models.CartLine, len(r.Items)),
		Subtotal:        *r.Subtotal,
		DiscountPercent: r.DiscountPercent,
		DiscountAmount:  r.DiscountAmount,
		GSTRate:         r.GSTRate,
		GSTAmount:       r.GSTAmount,
		Total:           *r.Total,
		CreatedBy:       createdBy,
	}
	for i, item := range r.Items {
		if item.ID == 0 {
			return models.Checkout{}, models.Invalid(fmt.Sprintf("items[%d].id", i), "is required")
		}
		co.Items[i] = models.CartLine{ProductID: item.ID, Quantity: item.Quantity}
	}
	return co, nil
}

// --- POST: Checkout ---
func (h *Handler) Checkout(c *gin.Context) {
	var req CheckoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request body")
		return
	}
	var createdBy string
	if user, ok := middleware.CurrentUser(c); ok {
		createdBy = user.Username
	}

	co, err := req.toCheckout(createdBy)
	if err != nil {
		h.fail(c, err)
		return
	}

	done := h.Metrics.TrackDBOperation("checkout")
	sale, err := h.Ledger.Checkout(c.Request.Context(), co)
	done()
	if err != nil {
		outcome := "failed"
		if errors.Is(err, models.ErrInsufficientStock) || errors.Is(err, models.ErrValidation) {
			outcome = "rejected"
		}
		h.Metrics.CheckoutsTotal.WithLabelValues(outcome).Inc()
		h.fail(c, err)
		return
	}

	h.Metrics.CheckoutsTotal.WithLabelValues("committed").Inc()
	h.Metrics.SaleRevenue.Add(sale.Total.InexactFloat64())
	for _, item := range sale.Items {
		h.Metrics.ItemsSold.Add(float64(item.Quantity))
	}

	// The sale is committed; a broker outage is only worth a warning.
	if err := h.Publisher.SaleCompleted(context.WithoutCancel(c.Request.Context()), sale); err != nil {
		h.logger(c).Warn("Could not publish sale event", zap.Int64("sale", sale.Number), zap.Error(err))
	}

	c.JSON(http.StatusCreated, sale)
}

// --- GET: Sales history, newest first ---
func (h *Handler) History(c *gin.Context) {
	sales, err := h.Ledger.History(c.Request.Context())
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, sales)
}

func (h *Handler) loadSale(c *gin.Context) (*models.Sale, bool) {
	number, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || number <= 0 {
		badRequest(c, "Invalid sale id")
		return nil, false
	}
	sale, err := h.Ledger.SaleByNumber(c.Request.Context(), number)
	if err != nil {
		h.fail(c, err)
		return nil, false
	}
	return sale, true
}

// --- GET: One sale ---
func (h *Handler) GetSale(c *gin.Context) {
	if sale, ok := h.loadSale(c); ok {
		c.JSON(http.StatusOK, sale)
	}
}

// --- GET: Printable invoice for one sale ---
func (h *Handler) Invoice(c *gin.Context) {
	sale, ok := h.loadSale(c)
	if !ok {
		return
	}

	var buf bytes.Buffer
	if err := invoice.Render(&buf, h.StoreName, sale); err != nil {
		h.fail(c, fmt.Errorf("render invoice %d: %w", sale.Number, err))
		return
	}
	c.Header("Content-Disposition", fmt.Sprintf(`inline; filename="invoice-%d.pdf"`, sale.Number))
	c.Data(http.StatusOK, "application/pdf", buf.Bytes())
}
