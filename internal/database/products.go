package database

import (
	"context"
	"fmt"

	"inventrobil-pos/internal/models"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// ListProducts returns the whole catalog ordered by id.
func (s *Store) ListProducts(ctx context.Context) ([]models.Product, error) {
	products := []models.Product{}
	if err := s.db.WithContext(ctx).Order("id").Find(&products).Error; err != nil {
		return nil, err
	}
	return products, nil
}

func (s *Store) ProductByID(ctx context.Context, id uint) (*models.Product, error) {
	var p models.Product
	if err := s.db.WithContext(ctx).First(&p, id).Error; err != nil {
		return nil, translate(err, "Product")
	}
	return &p, nil
}

// CreateProduct assigns id = max(id)+1 (1 on an empty catalog). Any id on p is ignored.
func (s *Store) CreateProduct(ctx context.Context, p models.Product) (*models.Product, error) {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := skuFree(tx, p.SKU, 0); err != nil {
			return err
		}
		next, err := nextProductID(tx)
		if err != nil {
			return err
		}
		p.ID = next
		return translate(tx.Create(&p).Error, "Product with this SKU")
	})
	if err != nil {
		return nil, err
	}
	s.log.Info("Product created", zap.Uint("id", p.ID), zap.String("sku", p.SKU))
	return &p, nil
}

// UpdateProduct applies a partial update; fields absent from patch keep their value.
func (s *Store) UpdateProduct(ctx context.Context, id uint, patch models.ProductPatch) (*models.Product, error) {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	var p models.Product
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Clauses(lockForUpdate).First(&p, id).Error; err != nil {
			return translate(err, "Product")
		}
		if patch.SKU != nil && *patch.SKU != p.SKU {
			if err := skuFree(tx, *patch.SKU, id); err != nil {
				return err
			}
		}
		patch.Apply(&p)
		return translate(tx.Save(&p).Error, "Product with this SKU")
	})
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// DeleteProduct is idempotent. Sale lines keep their snapshot of the product.
func (s *Store) DeleteProduct(ctx context.Context, id uint) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	res := s.db.WithContext(ctx).Delete(&models.Product{}, id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected > 0 {
		s.log.Info("Product deleted", zap.Uint("id", id))
	}
	return nil
}

// ReplaceCatalog discards every product and inserts products in one transaction.
// Incoming ids are kept when positive and unused by an earlier entry; the rest are
// numbered after the highest kept id.
func (s *Store) ReplaceCatalog(ctx context.Context, products []models.Product) (int, error) {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	seenSKU := make(map[string]bool, len(products))
	usedID := make(map[uint]bool, len(products))
	var maxID uint
	for i, p := range products {
		if seenSKU[p.SKU] {
			return 0, &conflictError{what: fmt.Sprintf("SKU %q (entry %d)", p.SKU, i)}
		}
		seenSKU[p.SKU] = true
		if p.ID > 0 && !usedID[p.ID] {
			usedID[p.ID] = true
			if p.ID > maxID {
				maxID = p.ID
			}
		}
	}

	rows := make([]models.Product, len(products))
	claimed := make(map[uint]bool, len(products))
	for i, p := range products {
		if p.ID == 0 || claimed[p.ID] {
			maxID++
			p.ID = maxID
		}
		claimed[p.ID] = true
		rows[i] = p
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Session(&gorm.Session{AllowGlobalUpdate: true}).Delete(&models.Product{}).Error; err != nil {
			return err
		}
		if len(rows) == 0 {
			return nil
		}
		return translate(tx.CreateInBatches(rows, 100).Error, "Product")
	})
	if err != nil {
		return 0, err
	}
	s.log.Info("Catalog replaced", zap.Int("products", len(rows)))
	return len(rows), nil
}

// SeedSampleCatalog loads the demo catalog into an empty store.
func (s *Store) SeedSampleCatalog(ctx context.Context) (bool, error) {
	var count int64
	if err := s.db.WithContext(ctx).Model(&models.Product{}).Count(&count).Error; err != nil {
		return false, err
	}
	if count > 0 {
		return false, nil
	}
	_, err := s.ReplaceCatalog(ctx, SampleCatalog())
	return err == nil, err
}

// SampleCatalog is the hardware-store demo data.
func SampleCatalog() []models.Product {
	return []models.Product{
		{ID: 1, Name: "PVC Pipe 1/2 inch", Category: "Plumbing", Stock: 50, Price: decimal.RequireFromString("10.99"), SKU: "PVC001"},
		{ID: 2, Name: "Copper Wire 2.5mm", Category: "Electronics", Stock: 5, Price: decimal.RequireFromString("15.50"), SKU: "COP001"},
		{ID: 3, Name: "Switch Socket", Category: "Electronics", Stock: 20, Price: decimal.RequireFromString("5.50"), SKU: "SWT001"},
		{ID: 4, Name: "PVC Pipe 1 inch", Category: "Plumbing", Stock: 35, Price: decimal.RequireFromString("18.99"), SKU: "PVC002"},
		{ID: 5, Name: "Electrical Box", Category: "Electronics", Stock: 8, Price: decimal.RequireFromString("8.75"), SKU: "ELB001"},
	}
}

func nextProductID(tx *gorm.DB) (uint, error) {
	var maxID uint
	if err := tx.Model(&models.Product{}).Select("COALESCE(MAX(id), 0)").Scan(&maxID).Error; err != nil {
		return 0, err
	}
	return maxID + 1, nil
}

// skuFree fails with ErrConflict when another product (other than exceptID) holds sku.
func skuFree(tx *gorm.DB, sku string, exceptID uint) error {
	var count int64
	q := tx.Model(&models.Product{}).Where("sku = ?", sku)
	if exceptID != 0 {
		q = q.Where("id <> ?", exceptID)
	}
	if err := q.Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return &conflictError{what: "Product with this SKU"}
	}
	return nil
}
