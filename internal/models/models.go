package models

import (
	"time"

	"github.com/shopspring/decimal"
)

func init() {
	// Prices and totals go over the wire as JSON numbers, the way the till sends them.
	decimal.MarshalJSONWithoutQuotes = true
}

// Role - one of the three fixed staff tiers
type Role string

const (
	RoleOwner   Role = "Owner"
	RoleManager Role = "Manager"
	RoleCashier Role = "Cashier"
)

// Valid reports whether r is one of the fixed roles.
func (r Role) Valid() bool {
	switch r {
	case RoleOwner, RoleManager, RoleCashier:
		return true
	}
	return false
}

// User - a staff account
type User struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	Username     string    `gorm:"uniqueIndex;size:80;not null" json:"username"` // always stored lowercase
	PasswordHash string    `gorm:"size:256;not null" json:"-"`                  // Never return this in JSON
	Role         Role      `gorm:"size:20;not null" json:"role"`
	Email        string    `gorm:"size:120" json:"email"`
	CreatedAt    time.Time `json:"created_at"`
}

// Product - The Inventory
type Product struct {
	ID       uint            `gorm:"primaryKey" json:"id"`
	Name     string          `gorm:"size:100;not null" json:"name"`
	Category string          `gorm:"size:50" json:"category"`
	Stock    int             `gorm:"not null;default:0" json:"stock"`
	Price    decimal.Decimal `gorm:"type:decimal(20,4);not null" json:"price"`
	SKU      string          `gorm:"uniqueIndex;size:50;not null" json:"sku"`
}

// Sale - The Transaction Header. Written once at checkout and never updated.
type Sale struct {
	ID              uint            `gorm:"primaryKey" json:"-"`
	Number          int64           `gorm:"uniqueIndex;not null" json:"id"` // millisecond-derived, shown on receipts
	CreatedAt       time.Time       `gorm:"index;not null" json:"timestamp"`
	Subtotal        decimal.Decimal `gorm:"type:decimal(20,4);not null" json:"subtotal"`
	DiscountPercent decimal.Decimal `gorm:"type:decimal(20,4);not null" json:"discountPercent"`
	DiscountAmount  decimal.Decimal `gorm:"type:decimal(20,4);not null" json:"discountAmount"`
	GSTRate         decimal.Decimal `gorm:"type:decimal(20,4);not null" json:"gstRate"`
	GSTAmount       decimal.Decimal `gorm:"type:decimal(20,4);not null" json:"gstAmount"`
	Total           decimal.Decimal `gorm:"type:decimal(20,4);not null" json:"total"`
	CreatedBy       string          `gorm:"size:80;index" json:"created_by"`
	Items           []SaleItem      `gorm:"foreignKey:SaleID;constraint:OnDelete:CASCADE" json:"items"`
}

// SaleItem - one cart line, frozen at sale time.
// ProductID is a plain reference: deleting the product leaves the line intact.
type SaleItem struct {
	ID          uint            `gorm:"primaryKey" json:"-"`
	SaleID      uint            `gorm:"index;not null" json:"-"`
	Line        int             `gorm:"not null" json:"-"`
	ProductID   uint            `gorm:"index" json:"id"`
	ProductName string          `gorm:"size:100;not null" json:"name"`
	Quantity    int             `gorm:"not null" json:"quantity"`
	UnitPrice   decimal.Decimal `gorm:"type:decimal(20,4);not null" json:"price"`     // Snapshot of price at time of sale
	LineTotal   decimal.Decimal `gorm:"type:decimal(20,4);not null" json:"lineTotal"` // UnitPrice * Quantity
}

// CartLine is what the till sends per item.
type CartLine struct {
	ProductID uint
	Quantity  int
}

// Checkout carries a cart together with the totals the cashier saw on screen.
// The totals are stored as given; the ledger never recomputes them.
type Checkout struct {
	Items           []CartLine
	Subtotal        decimal.Decimal
	DiscountPercent decimal.Decimal
	DiscountAmount  decimal.Decimal
	GSTRate         decimal.Decimal
	GSTAmount       decimal.Decimal
	Total           decimal.Decimal
	CreatedBy       string
}
