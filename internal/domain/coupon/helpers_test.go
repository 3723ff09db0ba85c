package coupon

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/feastkit/storefront/internal/domain/cart"
)

func d(v string) decimal.Decimal {
	return decimal.RequireFromString(v)
}

// evalAt is a fixed evaluation instant shared by the engine tests.
var evalAt = time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)

func testEngine() *Engine {
	return &Engine{now: func() time.Time { return evalAt }}
}

func line(id, name, price string, qty int, category string) cart.Line {
	return cart.Line{
		ID:         id,
		Name:       name,
		UnitPrice:  d(price),
		Quantity:   qty,
		CategoryID: category,
	}
}

func unusedCoupon(tmpl Template) Coupon {
	return Coupon{
		ID:        "c-1",
		UserID:    "u-1",
		Status:    StatusUnused,
		ExpiresAt: evalAt.Add(24 * time.Hour),
		Template:  tmpl,
	}
}
