package database

import (
	"context"
	"sort"
	"time"

	"inventrobil-pos/internal/models"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// SalesReport holds revenue figures for a period.
type SalesReport struct {
	TotalRevenue decimal.Decimal `json:"total_revenue"`
	TotalOrders  int64           `json:"total_orders"`
	TopSelling   []TopProduct    `json:"top_selling"`
	RecentSales  []models.Sale   `json:"recent_sales"`
}

// TopProduct aggregates line snapshots, so deleted products still count.
type TopProduct struct {
	ProductName string          `json:"product_name"`
	Sold        int64           `json:"sold"`
	Revenue     decimal.Decimal `json:"revenue"`
}

// Period bounds a report; a zero bound is open.
type Period struct {
	From time.Time
	To   time.Time
}

func (p Period) apply(q *gorm.DB, column string) *gorm.DB {
	if !p.From.IsZero() {
		q = q.Where(column+" >= ?", p.From)
	}
	if !p.To.IsZero() {
		q = q.Where(column+" < ?", p.To)
	}
	return q
}

// SalesReport calculates revenue, order count, the five best sellers and the ten latest sales.
func (s *Store) SalesReport(ctx context.Context, period Period) (*SalesReport, error) {
	result := SalesReport{TopSelling: []TopProduct{}, RecentSales: []models.Sale{}}
	db := s.db.WithContext(ctx)

	revenue, err := sumTotals(period.apply(db.Model(&models.Sale{}), "created_at"))
	if err != nil {
		return nil, err
	}
	result.TotalRevenue = revenue

	err = period.apply(db.Model(&models.Sale{}), "created_at").Count(&result.TotalOrders).Error
	if err != nil {
		return nil, err
	}

	err = period.apply(db.Table("sale_items").Joins("JOIN sales ON sales.id = sale_items.sale_id"), "sales.created_at").
		Select("sale_items.product_name AS product_name, SUM(sale_items.quantity) AS sold, SUM(sale_items.line_total) AS revenue").
		Group("sale_items.product_name").
		Order("sold DESC").
		Order("product_name").
		Limit(5).
		Scan(&result.TopSelling).Error
	if err != nil {
		return nil, err
	}
	for i := range result.TopSelling {
		result.TopSelling[i].Revenue = result.TopSelling[i].Revenue.Round(moneyScale)
	}

	err = period.apply(db.Preload("Items", preloadLines), "created_at").
		Order("created_at DESC").
		Order("number DESC").
		Limit(10).
		Find(&result.RecentSales).Error
	if err != nil {
		return nil, err
	}

	return &result, nil
}

// sumTotals adds up sales.total over q. COALESCE gives 0 instead of NULL when no sales exist.
// sqlite sums NUMERIC columns as floats, so the result is rounded back to the column scale.
func sumTotals(q *gorm.DB) (decimal.Decimal, error) {
	var row struct {
		Revenue decimal.Decimal
	}
	if err := q.Select("COALESCE(SUM(total), 0) AS revenue").Scan(&row).Error; err != nil {
		return decimal.Zero, err
	}
	return row.Revenue.Round(moneyScale), nil
}

// moneyScale matches the decimal(20,4) money columns.
const moneyScale = 4

// Stats is the dashboard summary.
type Stats struct {
	TotalProducts     int64           `json:"totalProducts"`
	LowStockCount     int64           `json:"lowStockCount"`
	TotalTransactions int64           `json:"totalTransactions"`
	TotalRevenue      decimal.Decimal `json:"totalRevenue"`
}

// Stats counts products, low-stock products (stock < threshold), sales and revenue.
func (s *Store) Stats(ctx context.Context, lowStockThreshold int) (*Stats, error) {
	var st Stats
	db := s.db.WithContext(ctx)

	if err := db.Model(&models.Product{}).Count(&st.TotalProducts).Error; err != nil {
		return nil, err
	}
	if err := db.Model(&models.Product{}).Where("stock < ?", lowStockThreshold).Count(&st.LowStockCount).Error; err != nil {
		return nil, err
	}
	if err := db.Model(&models.Sale{}).Count(&st.TotalTransactions).Error; err != nil {
		return nil, err
	}
	revenue, err := sumTotals(db.Model(&models.Sale{}))
	if err != nil {
		return nil, err
	}
	st.TotalRevenue = revenue
	return &st, nil
}

// ValuationItem is one product row of the stock valuation.
type ValuationItem struct {
	Name      string          `json:"name"`
	SKU       string          `json:"sku"`
	Quantity  int             `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unit_price"`
	Total     decimal.Decimal `json:"total"`
}

// CategoryGroup is one category table with its subtotal.
type CategoryGroup struct {
	CategoryName string          `json:"category_name"`
	Items        []ValuationItem `json:"items"`
	Subtotal     decimal.Decimal `json:"subtotal"`
}

type Valuation struct {
	Categories []CategoryGroup `json:"categories"`
	GrandTotal decimal.Decimal `json:"grand_total"`
}

// StockValuation values every product at stock × price, grouped by category.
func (s *Store) StockValuation(ctx context.Context) (*Valuation, error) {
	products, err := s.ListProducts(ctx)
	if err != nil {
		return nil, err
	}

	out := Valuation{Categories: []CategoryGroup{}, GrandTotal: decimal.Zero}
	grouped := make(map[string]*CategoryGroup)
	for _, p := range products {
		name := p.Category
		if name == "" {
			name = "Uncategorized"
		}
		group, ok := grouped[name]
		if !ok {
			group = &CategoryGroup{CategoryName: name, Items: []ValuationItem{}, Subtotal: decimal.Zero}
			grouped[name] = group
		}

		total := p.Price.Mul(decimal.NewFromInt(int64(p.Stock)))
		group.Items = append(group.Items, ValuationItem{
			Name:      p.Name,
			SKU:       p.SKU,
			Quantity:  p.Stock,
			UnitPrice: p.Price,
			Total:     total,
		})
		group.Subtotal = group.Subtotal.Add(total)
		out.GrandTotal = out.GrandTotal.Add(total)
	}

	for _, g := range grouped {
		out.Categories = append(out.Categories, *g)
	}
	sort.Slice(out.Categories, func(i, j int) bool {
		return out.Categories[i].CategoryName < out.Categories[j].CategoryName
	})
	return &out, nil
}
