// internal/services/order_service_test.go
package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCalculateTotals(t *testing.T) {
	tests := []struct {
		name         string
		itemsPrice   float64
		wantShipping float64
		wantTax      float64
		wantTotal    float64
	}{
		{
			name:         "above free shipping threshold",
			itemsPrice:   120.00,
			wantShipping: 0,
			wantTax:      18.00,
			wantTotal:    138.00,
		},
		{
			name:         "below free shipping threshold",
			itemsPrice:   80.00,
			wantShipping: 10.00,
			wantTax:      12.00,
			wantTotal:    102.00,
		},
		{
			name:         "exactly at threshold pays flat shipping",
			itemsPrice:   100.00,
			wantShipping: 10.00,
			wantTax:      15.00,
			wantTotal:    125.00,
		},
		{
			name:         "just over threshold ships free",
			itemsPrice:   100.01,
			wantShipping: 0,
			wantTax:      15.00,
			wantTotal:    115.01,
		},
		{
			name:         "tax rounds to cents",
			itemsPrice:   33.33,
			wantShipping: 10.00,
			wantTax:      5.00,
			wantTotal:    48.33,
		},
		{
			name:         "empty order",
			itemsPrice:   0,
			wantShipping: 10.00,
			wantTax:      0,
			wantTotal:    10.00,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			totals := CalculateTotals(tt.itemsPrice)

			assert.Equal(t, tt.itemsPrice, totals.ItemsPrice)
			assert.Equal(t, tt.wantShipping, totals.ShippingPrice)
			assert.Equal(t, tt.wantTax, totals.TaxPrice)
			assert.Equal(t, tt.wantTotal, totals.TotalPrice)
		})
	}
}

func TestCalculateTotalsTotalIsSumOfParts(t *testing.T) {
	for _, itemsPrice := range []float64{0.01, 9.99, 49.95, 99.99, 100.00, 250.75, 1234.56} {
		totals := CalculateTotals(itemsPrice)
		assert.Equal(t, round2(totals.ItemsPrice+totals.ShippingPrice+totals.TaxPrice), totals.TotalPrice,
			"itemsPrice=%v", itemsPrice)
	}
}
