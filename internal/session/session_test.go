package session_test

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"github.com/MrJamesThe3rd/ordertransfer/internal/session"
)

func TestCart_Total(t *testing.T) {
	type testCase struct {
		name string
		cart session.Cart
		want string
	}

	tests := []testCase{
		{
			name: "items only",
			cart: session.Cart{Items: []session.CartItem{
				{ProductID: 1, Quantity: 2, UnitPrice: decimal.RequireFromString("10.00")},
				{ProductID: 2, Quantity: 1, UnitPrice: decimal.RequireFromString("25.00")},
			}},
			want: "45",
		},
		{
			name: "credit fee reduces total",
			cart: session.Cart{
				Items: []session.CartItem{{ProductID: 1, Quantity: 1, UnitPrice: decimal.RequireFromString("45.00")}},
				Fees:  []session.Fee{{Key: session.EditCreditFeeKey, Amount: decimal.RequireFromString("-30.00")}},
			},
			want: "15",
		},
		{
			name: "credit larger than items clamps to zero",
			cart: session.Cart{
				Items: []session.CartItem{{ProductID: 1, Quantity: 1, UnitPrice: decimal.RequireFromString("10.00")}},
				Fees:  []session.Fee{{Key: session.EditCreditFeeKey, Amount: decimal.RequireFromString("-30.00")}},
			},
			want: "0",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.True(t, decimal.RequireFromString(tc.want).Equal(tc.cart.Total()), "got %s", tc.cart.Total())
		})
	}
}

func TestCart_SetFee_ReplacesSameKey(t *testing.T) {
	var c session.Cart

	c.SetFee(session.Fee{Key: "edit_credit", Amount: decimal.NewFromInt(-30)})
	c.SetFee(session.Fee{Key: "edit_credit", Amount: decimal.NewFromInt(-30)})

	assert.Len(t, c.Fees, 1)

	c.RemoveFee("edit_credit")

	_, ok := c.Fee("edit_credit")
	assert.False(t, ok)
}

func TestCart_Empty(t *testing.T) {
	c := session.Cart{
		Items: []session.CartItem{{ProductID: 1, Quantity: 1}},
		Fees:  []session.Fee{{Key: "x"}},
	}

	c.Empty()

	assert.True(t, c.IsEmpty())
	assert.Empty(t, c.Fees)
}
