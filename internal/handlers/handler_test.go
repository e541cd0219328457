package handlers

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"inventrobil-pos/internal/models"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestFailMapsDomainErrors(t *testing.T) {
	gin.SetMode(gin.TestMode)

	tests := []struct {
		name string
		err  error
		code int
		body string
	}{
		{"stock", &models.InsufficientStockError{ProductName: "Copper Wire 2.5mm"}, 400, `{"error":"Insufficient stock for Copper Wire 2.5mm","product":"Copper Wire 2.5mm"}`},
		{"validation", models.Invalid("price", "must be a number"), 400, `{"error":"price: must be a number","field":"price"}`},
		{"weak password", models.WeakPassword(), 400, `{"error":"password: must be at least 6 characters","field":"password"}`},
		{"not found", fmt.Errorf("product 9: %w", models.ErrNotFound), 404, `{"error":"product 9: not found"}`},
		{"conflict", fmt.Errorf("sku PVC001: %w", models.ErrConflict), 400, `{"error":"sku PVC001: already exists"}`},
		{"self deletion", models.ErrSelfDeletion, 400, `{"error":"cannot delete your own account"}`},
		{"credentials", models.ErrInvalidCredentials, 401, `{"error":"invalid credentials"}`},
		{"internal", errors.New("disk on fire"), 500, `{"error":"Internal server error"}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := New(Deps{})
			w := httptest.NewRecorder()
			c, _ := gin.CreateTestContext(w)
			c.Request = httptest.NewRequest(http.MethodGet, "/", nil)

			h.fail(c, tt.err)

			assert.Equal(t, tt.code, w.Code)
			assert.JSONEq(t, tt.body, w.Body.String())
		})
	}
}

type stubLedger struct {
	sale *models.Sale
	err  error
}

func (s stubLedger) Checkout(_ context.Context, co models.Checkout) (*models.Sale, error) {
	if s.err != nil {
		return nil, s.err
	}
	sale := *s.sale
	sale.CreatedBy = co.CreatedBy
	return &sale, nil
}

func (s stubLedger) History(context.Context) ([]models.Sale, error) { return nil, nil }

func (s stubLedger) SaleByNumber(context.Context, int64) (*models.Sale, error) {
	return nil, models.ErrNotFound
}

type brokenPublisher struct{}

func (brokenPublisher) SaleCompleted(context.Context, *models.Sale) error {
	return errors.New("broker down")
}

func (brokenPublisher) Close() error { return nil }

func TestCheckoutSurvivesPublisherFailure(t *testing.T) {
	gin.SetMode(gin.TestMode)
	core, logs := observer.New(zapcore.WarnLevel)

	sale := &models.Sale{
		Number: 1700000000000,
		Total:  decimal.RequireFromString("32.97"),
		Items:  []models.SaleItem{{ProductID: 1, ProductName: "PVC Pipe 1/2 inch", Quantity: 3}},
	}
	h := New(Deps{Ledger: stubLedger{sale: sale}, Publisher: brokenPublisher{}, Log: zap.New(core)})

	r := gin.New()
	r.POST("/api/billing", h.Checkout)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/api/billing",
		strings.NewReader(`{"items":[{"id":1,"quantity":3}],"subtotal":32.97,"total":32.97}`)))

	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	assert.Equal(t, 1, logs.FilterMessage("Could not publish sale event").Len())
	assert.Equal(t, 1.0, testutil.ToFloat64(h.Metrics.CheckoutsTotal.WithLabelValues("committed")))
	assert.Equal(t, 3.0, testutil.ToFloat64(h.Metrics.ItemsSold))
}

func TestCheckoutRejectionIsCounted(t *testing.T) {
	gin.SetMode(gin.TestMode)
	h := New(Deps{Ledger: stubLedger{err: &models.InsufficientStockError{ProductName: "Switch Socket"}}})

	r := gin.New()
	r.POST("/api/billing", h.Checkout)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/api/billing",
		strings.NewReader(`{"items":[{"id":3,"quantity":99}],"subtotal":0,"total":0}`)))

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, 1.0, testutil.ToFloat64(h.Metrics.CheckoutsTotal.WithLabelValues("rejected")))
	assert.Equal(t, 0.0, testutil.ToFloat64(h.Metrics.CheckoutsTotal.WithLabelValues("committed")))
}
