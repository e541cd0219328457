package database

import (
	"context"
	"errors"

	"inventrobil-pos/internal/models"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// UnknownProductName is snapshotted for a cart line whose product id does not exist.
const UnknownProductName = "Unknown Product"

var lockForUpdate = clause.Locking{Strength: "UPDATE"}

// Checkout validates the whole cart against stock, decrements it and appends the sale
// with name/price snapshots, all in one transaction. On any failure nothing is written.
func (s *Store) Checkout(ctx context.Context, co models.Checkout) (*models.Sale, error) {
	if len(co.Items) == 0 {
		return nil, models.Invalid("items", "cart is empty")
	}
	for _, line := range co.Items {
		if line.Quantity <= 0 {
			return nil, models.Invalid("quantity", "must be a positive whole number")
		}
	}

	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	sale := models.Sale{
		Subtotal:        co.Subtotal,
		DiscountPercent: co.DiscountPercent,
		DiscountAmount:  co.DiscountAmount,
		GSTRate:         co.GSTRate,
		GSTAmount:       co.GSTAmount,
		Total:           co.Total,
		CreatedBy:       co.CreatedBy,
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// 1. Resolve and lock every product, checking cumulative demand per product.
		products := make(map[uint]*models.Product)
		remaining := make(map[uint]int)
		for _, line := range co.Items {
			p, seen := products[line.ProductID]
			if !seen {
				var row models.Product
				err := tx.Clauses(lockForUpdate).First(&row, line.ProductID).Error
				switch {
				case errors.Is(err, gorm.ErrRecordNotFound):
					products[line.ProductID] = nil
					continue
				case err != nil:
					return err
				}
				p = &row
				products[line.ProductID] = p
				remaining[p.ID] = p.Stock
			}
			if p == nil {
				continue
			}
			if remaining[p.ID] < line.Quantity {
				return &models.InsufficientStockError{
					ProductName: p.Name,
					Available:   remaining[p.ID],
					Requested:   line.Quantity,
				}
			}
			remaining[p.ID] -= line.Quantity
		}

		// 2. Decrement.
		for id, stock := range remaining {
			if err := tx.Model(&models.Product{}).Where("id = ?", id).Update("stock", stock).Error; err != nil {
				return err
			}
		}

		// 3. Number the sale.
		number, err := s.nextSaleNumber(tx)
		if err != nil {
			return err
		}
		sale.Number = number
		sale.CreatedAt = s.now()

		// 4. Snapshot lines.
		sale.Items = make([]models.SaleItem, len(co.Items))
		for i, line := range co.Items {
			item := models.SaleItem{
				Line:        i,
				ProductID:   line.ProductID,
				ProductName: UnknownProductName,
				Quantity:    line.Quantity,
				UnitPrice:   decimal.Zero,
			}
			if p := products[line.ProductID]; p != nil {
				item.ProductName = p.Name
				item.UnitPrice = p.Price
			}
			item.LineTotal = item.UnitPrice.Mul(decimal.NewFromInt(int64(line.Quantity)))
			sale.Items[i] = item
		}

		// 5. Persist header and lines together.
		return translate(tx.Create(&sale).Error, "Sale")
	})
	if err != nil {
		return nil, err
	}

	s.log.Info("Sale recorded",
		zap.Int64("sale", sale.Number),
		zap.String("total", sale.Total.String()),
		zap.Int("lines", len(sale.Items)),
		zap.String("by", sale.CreatedBy))
	return &sale, nil
}

// nextSaleNumber is the current wall-clock millisecond, bumped past the last
// issued number so a collision never reuses one.
func (s *Store) nextSaleNumber(tx *gorm.DB) (int64, error) {
	var last int64
	if err := tx.Model(&models.Sale{}).Select("COALESCE(MAX(number), 0)").Scan(&last).Error; err != nil {
		return 0, err
	}
	number := s.now().UnixMilli()
	if number <= last {
		s.log.Warn("Sale number collided with an earlier sale, bumping",
			zap.Int64("wanted", number), zap.Int64("assigned", last+1))
		number = last + 1
	}
	return number, nil
}

func preloadLines(db *gorm.DB) *gorm.DB {
	return db.Order("line")
}

// History lists every sale, newest first.
func (s *Store) History(ctx context.Context) ([]models.Sale, error) {
	return s.recentSales(ctx, 0)
}

func (s *Store) recentSales(ctx context.Context, limit int) ([]models.Sale, error) {
	sales := []models.Sale{}
	q := s.db.WithContext(ctx).
		Preload("Items", preloadLines).
		Order("created_at DESC").
		Order("number DESC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	if err := q.Find(&sales).Error; err != nil {
		return nil, err
	}
	return sales, nil
}

// SaleByNumber looks a sale up by its receipt number.
func (s *Store) SaleByNumber(ctx context.Context, number int64) (*models.Sale, error) {
	var sale models.Sale
	err := s.db.WithContext(ctx).
		Preload("Items", preloadLines).
		Where("number = ?", number).
		First(&sale).Error
	if err != nil {
		return nil, translate(err, "Sale")
	}
	return &sale, nil
}
