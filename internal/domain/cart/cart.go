// Package cart defines the read-only cart snapshot the coupon engine
// evaluates against. Cart state itself (adding, removing, changing
// quantities) lives with the storefront session and never enters this module.
package cart

import "github.com/shopspring/decimal"

// Line is one purchased item with its chosen variant options and quantity.
// Line order is significant: eligibility results reference lines by position,
// so callers must pass lines in display order.
type Line struct {
	// ID is the dish identifier.
	ID   string
	Name string
	// UnitPrice is the price of a single unit with the chosen options.
	UnitPrice decimal.Decimal
	Quantity  int
	// CategoryID is the dish category, empty when uncategorized.
	CategoryID string
	// Options maps variant name to chosen value ("spiciness" -> "mild").
	Options map[string]string
}

// Total returns the line's unit price multiplied by its quantity.
func (l Line) Total() decimal.Decimal {
	return l.UnitPrice.Mul(decimal.NewFromInt(int64(l.Quantity)))
}

// Subtotal returns the sum of unit price times quantity across all lines.
func Subtotal(lines []Line) decimal.Decimal {
	sum := decimal.Zero
	for _, l := range lines {
		sum = sum.Add(l.Total())
	}
	return sum
}
