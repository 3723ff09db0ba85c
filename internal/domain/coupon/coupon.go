// Package coupon implements the coupon eligibility and discount calculation
// engine. Given a user's coupon and a read-only cart snapshot it decides
// whether the coupon may be applied and, if so, how much it saves and which
// cart line the discount binds to. The engine is pure: it performs no I/O and
// never mutates its inputs.
package coupon

import (
	"context"
	"time"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
)

// Status is the lifecycle state of an issued coupon. Transitions happen
// outside this package (UNUSED -> USED at checkout); the engine only reads it.
type Status string

const (
	StatusUnused  Status = "UNUSED"
	StatusUsed    Status = "USED"
	StatusExpired Status = "EXPIRED"
)

// Type enumerates the supported coupon template kinds.
type Type string

const (
	// TypeCashVoucher deducts a flat amount from the order total.
	TypeCashVoucher Type = "CASH_VOUCHER"
	// TypePercentageDiscount deducts a percentage, either of the whole cart
	// or of one unit of a restricted line, optionally capped.
	TypePercentageDiscount Type = "PERCENTAGE_DISCOUNT"
	// TypeFreeItem grants a gift dish; the saving is its retail value.
	TypeFreeItem Type = "FREE_ITEM"
)

// ErrNotFound is returned when a requested coupon does not exist.
var ErrNotFound = errors.New("coupon not found")

// IDName pairs an identifier with its display name. Matching uses the ID,
// rule reasons quote the name.
type IDName struct {
	ID   string
	Name string
}

// Value is the benefit payload of a template, tagged by the template Type.
// Fields not relevant to a type stay at their zero value; missing numeric
// fields in source data likewise decode to zero rather than failing, so
// consumers treat zero as absent.
type Value struct {
	// Amount is the CASH_VOUCHER face value. FREE_ITEM templates may carry
	// it as a fallback for DishPrice.
	Amount decimal.Decimal
	// Percentage is the PERCENTAGE_DISCOUNT rate in the range 0-100.
	Percentage decimal.Decimal
	// MaxOff caps a percentage discount when positive.
	MaxOff decimal.Decimal
	// DishID, DishName and DishPrice describe the FREE_ITEM gift.
	DishID    string
	DishName  string
	DishPrice decimal.Decimal
}

// Template is the reusable definition of a promotion. A Coupon is one user's
// redeemable grant of a template.
type Template struct {
	ID         string
	Name       string
	Type       Type
	Value      Value
	UsageRules []Rule
	// IssueStart and IssueEnd bound the issuing window. The window is only
	// enforced when both ends are present.
	IssueStart *time.Time
	IssueEnd   *time.Time
}

// Coupon is a single user's grant of a template. Templates arrive fully
// hydrated; the engine never loads anything lazily.
type Coupon struct {
	ID        string
	UserID    string
	Status    Status
	ExpiresAt time.Time
	Template  Template
}

// LineBinding identifies the single cart line an item-scoped discount is
// bound to. Index is the line's position in the evaluated cart snapshot.
type LineBinding struct {
	Index    int
	ItemID   string
	ItemName string
}

// Eligibility is the outcome of evaluating one coupon against one cart.
// Reason explains ineligibility and is displayed verbatim. Savings carries
// full precision; round only when formatting.
type Eligibility struct {
	Eligible bool
	Reason   string
	Savings  decimal.Decimal
	Line     *LineBinding
}

// Repository provides access to issued coupons with hydrated templates.
type Repository interface {
	// ListForUser returns all coupons granted to the user, templates included.
	ListForUser(ctx context.Context, userID string) ([]Coupon, error)
	GetByID(ctx context.Context, id string) (*Coupon, error)
	// MarkUsed records redemption at checkout. The eligibility engine never
	// calls it; it exists for the order flow.
	MarkUsed(ctx context.Context, id, orderID string) error
}
