package models

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseStock(t *testing.T) {
	cases := []struct {
		raw     string
		want    int
		wantErr bool
	}{
		{raw: `50`, want: 50},
		{raw: `"12"`, want: 12},
		{raw: `0`, want: 0},
		{raw: `5.5`, wantErr: true},
		{raw: `"five"`, wantErr: true},
		{raw: `-1`, wantErr: true},
		{raw: `null`, wantErr: true},
		{raw: `2147483647`, want: MaxStock},
		{raw: `2147483648`, wantErr: true},
		{raw: `"9223372036854775808"`, wantErr: true},
		{raw: `18446744073709551615`, wantErr: true},
	}
	for _, tc := range cases {
		got, err := ParseStock(json.RawMessage(tc.raw))
		if tc.wantErr {
			require.Error(t, err, tc.raw)
			assert.True(t, errors.Is(err, ErrValidation), tc.raw)
			var verr *ValidationError
			require.True(t, errors.As(err, &verr))
			assert.Equal(t, "stock", verr.Field)
			continue
		}
		require.NoError(t, err, tc.raw)
		assert.Equal(t, tc.want, got, tc.raw)
	}
}

func TestParsePrice(t *testing.T) {
	p, err := ParsePrice(json.RawMessage(`10.99`))
	require.NoError(t, err)
	assert.True(t, p.Equal(decimal.RequireFromString("10.99")))

	p, err = ParsePrice(json.RawMessage(`"15.50"`))
	require.NoError(t, err)
	assert.True(t, p.Equal(decimal.RequireFromString("15.5")))

	_, err = ParsePrice(json.RawMessage(`"abc"`))
	assert.ErrorIs(t, err, ErrValidation)

	_, err = ParsePrice(json.RawMessage(`-0.01`))
	assert.ErrorIs(t, err, ErrValidation)
}

func TestProductInputPatchKeepsUnsentFields(t *testing.T) {
	var in ProductInput
	require.NoError(t, json.Unmarshal([]byte(`{"price": "12.00"}`), &in))

	patch, err := in.Patch()
	require.NoError(t, err)

	p := Product{ID: 3, Name: "Switch Socket", Category: "Electronics", Stock: 20, Price: decimal.RequireFromString("5.50"), SKU: "SWT001"}
	patch.Apply(&p)

	assert.Equal(t, "Switch Socket", p.Name)
	assert.Equal(t, "Electronics", p.Category)
	assert.Equal(t, 20, p.Stock)
	assert.Equal(t, "SWT001", p.SKU)
	assert.True(t, p.Price.Equal(decimal.NewFromInt(12)))
}

func TestProductInputRequiresFields(t *testing.T) {
	var in ProductInput
	require.NoError(t, json.Unmarshal([]byte(`{"name": "Pipe", "stock": 1, "price": 2}`), &in))

	_, err := in.Product()
	var verr *ValidationError
	require.True(t, errors.As(err, &verr))
	assert.Equal(t, "sku", verr.Field)
}

func TestInsufficientStockErrorNamesProduct(t *testing.T) {
	err := error(&InsufficientStockError{ProductName: "Copper Wire 2.5mm", Available: 5, Requested: 6})
	assert.ErrorIs(t, err, ErrInsufficientStock)
	assert.Equal(t, "Insufficient stock for Copper Wire 2.5mm", err.Error())
}

func TestRoleValid(t *testing.T) {
	assert.True(t, RoleOwner.Valid())
	assert.True(t, RoleManager.Valid())
	assert.True(t, RoleCashier.Valid())
	assert.False(t, Role("owner").Valid())
	assert.False(t, Role("Admin").Valid())
}
