package cart

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func d(v string) decimal.Decimal {
	return decimal.RequireFromString(v)
}

func TestLineTotal(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		line Line
		want string
	}{
		{
			name: "single unit",
			line: Line{ID: "dish-1", UnitPrice: d("28"), Quantity: 1},
			want: "28",
		},
		{
			name: "multiple units",
			line: Line{ID: "dish-1", UnitPrice: d("9.9"), Quantity: 3},
			want: "29.7",
		},
		{
			name: "zero quantity",
			line: Line{ID: "dish-1", UnitPrice: d("28"), Quantity: 0},
			want: "0",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			assert.True(t, tt.line.Total().Equal(d(tt.want)), "got %s", tt.line.Total())
		})
	}
}

func TestSubtotal(t *testing.T) {
	t.Parallel()

	lines := []Line{
		{ID: "dish-1", UnitPrice: d("28"), Quantity: 2},
		{ID: "dish-2", UnitPrice: d("16.5"), Quantity: 1},
	}
	assert.True(t, Subtotal(lines).Equal(d("72.5")))
	assert.True(t, Subtotal(nil).IsZero())
}
