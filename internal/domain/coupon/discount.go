package coupon

import (
	"github.com/shopspring/decimal"

	"github.com/feastkit/storefront/internal/domain/cart"
)

var hundred = decimal.NewFromInt(100)

// computeDiscount calculates the savings for a template whose usage rules all
// passed. binding is the line an item-restricted percentage discount bound to,
// or nil. Results keep full precision; rounding happens at formatting time.
func computeDiscount(tmpl *Template, lines []cart.Line, binding *LineBinding) (decimal.Decimal, *LineBinding) {
	switch tmpl.Type {
	case TypeCashVoucher:
		// Flat face value, independent of cart composition.
		return tmpl.Value.Amount, binding

	case TypePercentageDiscount:
		var savings decimal.Decimal
		if binding != nil && hasItemRestriction(tmpl) {
			// Restricted: the discount applies to exactly one unit of the
			// bound line, regardless of its quantity.
			savings = lines[binding.Index].UnitPrice.Mul(tmpl.Value.Percentage).Div(hundred)
		} else {
			savings = cart.Subtotal(lines).Mul(tmpl.Value.Percentage).Div(hundred)
		}
		if tmpl.Value.MaxOff.IsPositive() {
			savings = decimal.Min(savings, tmpl.Value.MaxOff)
		}
		return savings, binding

	case TypeFreeItem:
		// Retail value of the gift: dish price, falling back to amount.
		switch {
		case tmpl.Value.DishPrice.IsPositive():
			return tmpl.Value.DishPrice, binding
		case tmpl.Value.Amount.IsPositive():
			return tmpl.Value.Amount, binding
		default:
			return decimal.Zero, binding
		}

	default:
		return decimal.Zero, binding
	}
}

// hasItemRestriction reports whether any ITEM_ELIGIBILITY rule on the
// template actually restricts items or categories.
func hasItemRestriction(tmpl *Template) bool {
	for _, r := range tmpl.UsageRules {
		if ie, ok := r.(ItemEligibility); ok {
			if len(ie.Items) > 0 || len(ie.Categories) > 0 {
				return true
			}
		}
	}
	return false
}
