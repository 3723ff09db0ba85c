package coupon

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/feastkit/storefront/internal/domain/cart"
)

func TestComputeDiscountCashVoucher(t *testing.T) {
	t.Parallel()

	tmpl := &Template{Type: TypeCashVoucher, Value: Value{Amount: d("15")}}

	// Flat face value regardless of the cart.
	for _, lines := range [][]cart.Line{
		nil,
		{line("dish-1", "Soup", "10", 1, "soups")},
		{line("dish-1", "Soup", "10", 1, "soups"), line("dish-2", "Duck", "88", 3, "hot")},
	} {
		savings, binding := computeDiscount(tmpl, lines, nil)
		assert.True(t, savings.Equal(d("15")))
		assert.Nil(t, binding)
	}
}

func TestComputeDiscountPercentage(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		tmpl    Template
		lines   []cart.Line
		binding *LineBinding
		want    string
	}{
		{
			name: "whole cart without cap",
			tmpl: Template{Type: TypePercentageDiscount, Value: Value{Percentage: d("20")}},
			lines: []cart.Line{
				line("dish-1", "Soup", "40", 1, "soups"),
				line("dish-2", "Duck", "30", 2, "hot"),
			},
			want: "20",
		},
		{
			name:  "cap limits the discount",
			tmpl:  Template{Type: TypePercentageDiscount, Value: Value{Percentage: d("20"), MaxOff: d("15")}},
			lines: []cart.Line{line("dish-1", "Banquet Set", "100", 1, "sets")},
			want:  "15",
		},
		{
			name:  "cap leaves a smaller discount alone",
			tmpl:  Template{Type: TypePercentageDiscount, Value: Value{Percentage: d("10"), MaxOff: d("15")}},
			lines: []cart.Line{line("dish-1", "Banquet Set", "100", 1, "sets")},
			want:  "10",
		},
		{
			name: "restriction binds one unit of the bound line",
			tmpl: Template{
				Type:  TypePercentageDiscount,
				Value: Value{Percentage: d("10")},
				UsageRules: []Rule{
					ItemEligibility{Categories: []IDName{{ID: "hot", Name: "Hot Dishes"}}},
				},
			},
			lines: []cart.Line{
				line("dish-1", "Mapo Tofu", "30", 2, "hot"),
				line("dish-2", "Kung Pao Chicken", "50", 1, "hot"),
			},
			binding: &LineBinding{Index: 1, ItemID: "dish-2", ItemName: "Kung Pao Chicken"},
			want:    "5",
		},
		{
			name: "binding without a real restriction falls back to the whole cart",
			tmpl: Template{
				Type:       TypePercentageDiscount,
				Value:      Value{Percentage: d("10")},
				UsageRules: []Rule{ItemEligibility{}},
			},
			lines: []cart.Line{
				line("dish-1", "Mapo Tofu", "30", 2, "hot"),
			},
			binding: &LineBinding{Index: 0, ItemID: "dish-1", ItemName: "Mapo Tofu"},
			want:    "6",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			savings, binding := computeDiscount(&tt.tmpl, tt.lines, tt.binding)
			assert.True(t, savings.Equal(d(tt.want)), "got %s, want %s", savings, tt.want)
			assert.Equal(t, tt.binding, binding)
		})
	}
}

func TestComputeDiscountFreeItem(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		value Value
		want  string
	}{
		{
			name:  "dish price wins",
			value: Value{DishPrice: d("18"), Amount: d("10")},
			want:  "18",
		},
		{
			name:  "amount as fallback",
			value: Value{Amount: d("10")},
			want:  "10",
		},
		{
			name:  "zero when nothing is priced",
			value: Value{DishID: "dish-7", DishName: "Egg Tart"},
			want:  "0",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			tmpl := &Template{Type: TypeFreeItem, Value: tt.value}
			savings, _ := computeDiscount(tmpl, nil, nil)
			assert.True(t, savings.Equal(d(tt.want)), "got %s, want %s", savings, tt.want)
		})
	}
}

func TestEvaluateRestrictedPercentageEndToEnd(t *testing.T) {
	t.Parallel()

	// Two qualifying lines: 30x2 and 50x1, 10% bound to one unit of the 50
	// line yields 5.00 savings.
	c := unusedCoupon(Template{
		ID:    "t-1",
		Type:  TypePercentageDiscount,
		Value: Value{Percentage: d("10")},
		UsageRules: []Rule{
			ItemEligibility{Categories: []IDName{{ID: "hot", Name: "Hot Dishes"}}},
		},
	})
	lines := []cart.Line{
		line("dish-1", "Mapo Tofu", "30", 2, "hot"),
		line("dish-2", "Kung Pao Chicken", "50", 1, "hot"),
	}

	got := testEngine().Evaluate(c, lines)
	require.True(t, got.Eligible)
	assert.True(t, got.Savings.Equal(d("5")))
	require.NotNil(t, got.Line)
	assert.Equal(t, "dish-2", got.Line.ItemID)
}
