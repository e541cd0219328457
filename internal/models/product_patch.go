package models

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

// ProductPatch is a partial update: nil fields keep their previous value.
type ProductPatch struct {
	Name     *string
	Category *string
	Stock    *int
	Price    *decimal.Decimal
	SKU      *string
}

// Apply copies the provided fields onto p.
func (patch ProductPatch) Apply(p *Product) {
	if patch.Name != nil {
		p.Name = *patch.Name
	}
	if patch.Category != nil {
		p.Category = *patch.Category
	}
	if patch.Stock != nil {
		p.Stock = *patch.Stock
	}
	if patch.Price != nil {
		p.Price = *patch.Price
	}
	if patch.SKU != nil {
		p.SKU = *patch.SKU
	}
}

// ProductInput is the loosely typed body accepted for create, update and import.
// Stock and price may arrive as JSON numbers or numeric strings.
type ProductInput struct {
	Name     *string         `json:"name"`
	Category *string         `json:"category"`
	Stock    json.RawMessage `json:"stock"`
	Price    json.RawMessage `json:"price"`
	SKU      *string         `json:"sku"`
}

// Patch coerces the fields that were sent.
func (in ProductInput) Patch() (ProductPatch, error) {
	var patch ProductPatch
	if in.Name != nil {
		name := strings.TrimSpace(*in.Name)
		if name == "" {
			return patch, Invalid("name", "must not be empty")
		}
		patch.Name = &name
	}
	if in.Category != nil {
		category := strings.TrimSpace(*in.Category)
		patch.Category = &category
	}
	if len(in.Stock) > 0 {
		stock, err := ParseStock(in.Stock)
		if err != nil {
			return patch, err
		}
		patch.Stock = &stock
	}
	if len(in.Price) > 0 {
		price, err := ParsePrice(in.Price)
		if err != nil {
			return patch, err
		}
		patch.Price = &price
	}
	if in.SKU != nil {
		sku := strings.TrimSpace(*in.SKU)
		if sku == "" {
			return patch, Invalid("sku", "must not be empty")
		}
		patch.SKU = &sku
	}
	return patch, nil
}

// Product builds a complete product; name, stock, price and sku are required.
func (in ProductInput) Product() (Product, error) {
	switch {
	case in.Name == nil:
		return Product{}, Invalid("name", "is required")
	case len(in.Stock) == 0:
		return Product{}, Invalid("stock", "is required")
	case len(in.Price) == 0:
		return Product{}, Invalid("price", "is required")
	case in.SKU == nil:
		return Product{}, Invalid("sku", "is required")
	}
	patch, err := in.Patch()
	if err != nil {
		return Product{}, err
	}
	var p Product
	patch.Apply(&p)
	return p, nil
}

// MaxStock is the largest stock level that fits every supported database's integer column.
const MaxStock = math.MaxInt32

var maxStock = decimal.NewFromInt(MaxStock)

// ParseStock coerces a JSON number or numeric string into a whole number in [0, MaxStock].
func ParseStock(raw json.RawMessage) (int, error) {
	d, ok := parseNumber(raw)
	if !ok || !d.IsInteger() {
		return 0, Invalid("stock", "must be a whole number")
	}
	if d.IsNegative() {
		return 0, Invalid("stock", "must not be negative")
	}
	if d.GreaterThan(maxStock) {
		return 0, Invalid("stock", fmt.Sprintf("must be at most %d", MaxStock))
	}
	return int(d.IntPart()), nil
}

// ParsePrice coerces a JSON number or numeric string into a non-negative decimal.
func ParsePrice(raw json.RawMessage) (decimal.Decimal, error) {
	d, ok := parseNumber(raw)
	if !ok {
		return decimal.Zero, Invalid("price", "must be a number")
	}
	if d.IsNegative() {
		return decimal.Zero, Invalid("price", "must not be negative")
	}
	return d, nil
}

func parseNumber(raw json.RawMessage) (decimal.Decimal, bool) {
	s := strings.TrimSpace(string(raw))
	if unquoted, err := strconv.Unquote(s); err == nil {
		s = strings.TrimSpace(unquoted)
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, false
	}
	return d, true
}
