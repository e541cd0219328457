package handlers

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"inventrobil-pos/internal/models"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// --- GET: List all products ---
func (h *Handler) ListProducts(c *gin.Context) {
	products, err := h.Catalog.ListProducts(c.Request.Context())
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, products)
}

// --- POST: Add a new product ---
func (h *Handler) CreateProduct(c *gin.Context) {
	var input models.ProductInput
	if err := c.ShouldBindJSON(&input); err != nil {
		badRequest(c, "Invalid input")
		return
	}
	p, err := input.Product()
	if err != nil {
		h.fail(c, err)
		return
	}

	created, err := h.Catalog.CreateProduct(c.Request.Context(), p)
	if err != nil {
		h.fail(c, err)
		return
	}
	h.Metrics.ProductOps.WithLabelValues("create").Inc()
	c.JSON(http.StatusCreated, created)
}

// --- PUT: Partial update; fields not sent keep their value ---
func (h *Handler) UpdateProduct(c *gin.Context) {
	id, ok := parseUintParam(c, "id")
	if !ok {
		return
	}
	var input models.ProductInput
	if err := c.ShouldBindJSON(&input); err != nil {
		badRequest(c, "Invalid input")
		return
	}
	patch, err := input.Patch()
	if err != nil {
		h.fail(c, err)
		return
	}

	updated, err := h.Catalog.UpdateProduct(c.Request.Context(), id, patch)
	if err != nil {
		h.fail(c, err)
		return
	}
	h.Metrics.ProductOps.WithLabelValues("update").Inc()
	c.JSON(http.StatusOK, updated)
}

// --- DELETE: Remove a product (idempotent) ---
func (h *Handler) DeleteProduct(c *gin.Context) {
	id, ok := parseUintParam(c, "id")
	if !ok {
		return
	}
	if err := h.Catalog.DeleteProduct(c.Request.Context(), id); err != nil {
		h.fail(c, err)
		return
	}
	h.Metrics.ProductOps.WithLabelValues("delete").Inc()
	c.JSON(http.StatusOK, gin.H{"success": true})
}

// CatalogExport is the export/import file format.
type CatalogExport struct {
	ExportDate    time.Time        `json:"exportDate"`
	TotalProducts int              `json:"totalProducts"`
	Products      []models.Product `json:"products"`
}

func (h *Handler) snapshot(c *gin.Context) ([]byte, *CatalogExport, error) {
	products, err := h.Catalog.ListProducts(c.Request.Context())
	if err != nil {
		return nil, nil, err
	}
	export := &CatalogExport{
		ExportDate:    time.Now(),
		TotalProducts: len(products),
		Products:      products,
	}
	body, err := json.Marshal(export)
	return body, export, err
}

// --- GET: Export the whole catalog as JSON ---
func (h *Handler) ExportCatalog(c *gin.Context) {
	body, _, err := h.snapshot(c)
	if err != nil {
		h.fail(c, err)
		return
	}

	if h.Archive != nil {
		if key, err := h.Archive.SaveCatalog(c.Request.Context(), "export", body); err != nil {
			h.logger(c).Warn("Could not archive catalog export", zap.Error(err))
		} else {
			c.Header("X-Archive-Key", key)
		}
	}
	c.Data(http.StatusOK, "application/json; charset=utf-8", body)
}

type importProduct struct {
	ID uint `json:"id"`
	models.ProductInput
}

// --- POST: Replace the catalog from an export file ---
func (h *Handler) ImportCatalog(c *gin.Context) {
	var req struct {
		Products json.RawMessage `json:"products"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid inventory data format")
		return
	}
	raw := bytes.TrimSpace(req.Products)
	if len(raw) == 0 || raw[0] != '[' {
		badRequest(c, "Invalid inventory data format")
		return
	}
	var items []importProduct
	if err := json.Unmarshal(raw, &items); err != nil {
		badRequest(c, "Invalid inventory data format")
		return
	}

	products := make([]models.Product, len(items))
	for i, item := range items {
		p, err := item.Product()
		if err != nil {
			if ve, ok := err.(*models.ValidationError); ok {
				err = models.Invalid(fmt.Sprintf("products[%d].%s", i, ve.Field), ve.Reason)
			}
			h.fail(c, err)
			return
		}
		p.ID = item.ID
		products[i] = p
	}

	if h.Archive != nil {
		body, _, err := h.snapshot(c)
		if err != nil {
			h.fail(c, err)
			return
		}
		if _, err := h.Archive.SaveCatalog(c.Request.Context(), "pre-import", body); err != nil {
			h.fail(c, fmt.Errorf("archive catalog before import: %w", err))
			return
		}
	}

	done := h.Metrics.TrackDBOperation("replace_catalog")
	n, err := h.Catalog.ReplaceCatalog(c.Request.Context(), products)
	done()
	if err != nil {
		h.fail(c, err)
		return
	}
	h.Metrics.CatalogImports.Inc()
	c.JSON(http.StatusOK, gin.H{"success": true, "imported": n})
}
