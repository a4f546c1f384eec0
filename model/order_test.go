package model

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func validOrder() *Order {
	return &Order{
		ClientName:  "Jane Doe",
		ClientEmail: "jane@example.com",
		Commercial:  "Alex Martin",
		Lines: []OrderLine{
			{Reference: "REF-1", Quantity: 3, UnitPrice: decimal.NewFromFloat(9.99)},
			{Reference: "REF-2", Quantity: 1, UnitPrice: decimal.NewFromFloat(120.50)},
		},
		Signature: "data:image/png;base64,c2ln",
	}
}

func TestOrderValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Order)
		wantErr bool
	}{
		{"valid order", func(o *Order) {}, false},
		{"missing client name", func(o *Order) { o.ClientName = "" }, true},
		{"missing client email", func(o *Order) { o.ClientEmail = "" }, true},
		{"malformed client email", func(o *Order) { o.ClientEmail = "not-an-email" }, true},
		{"email domain without mail records", func(o *Order) { o.ClientEmail = "jane.doe@no-mx-here.example" }, false},
		{"missing commercial", func(o *Order) { o.Commercial = "" }, true},
		{"no lines", func(o *Order) { o.Lines = nil }, true},
		{"missing signature", func(o *Order) { o.Signature = "" }, true},
		{"optional fields empty", func(o *Order) { o.Supplier, o.Theme, o.Notes = "", "", "" }, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			order := validOrder()
			tt.mutate(order)
			err := order.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestOrderTotal(t *testing.T) {
	order := validOrder()

	// 3 * 9.99 + 1 * 120.50, exact in decimal
	assert.True(t, order.Total().Equal(decimal.NewFromFloat(150.47)))
}

func TestOrderLineTotal(t *testing.T) {
	line := OrderLine{Quantity: 4, UnitPrice: decimal.NewFromFloat(2.25)}
	assert.True(t, line.Total().Equal(decimal.NewFromInt(9)))
}

func TestGenerateOfflineCode(t *testing.T) {
	code := GenerateOfflineCode()
	assert.True(t, IsOfflineCode(code))
	assert.Greater(t, len(code), len(OfflineCodePrefix))

	assert.False(t, IsOfflineCode("CMD-2024-001"))
}
