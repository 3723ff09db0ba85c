package coupon

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"github.com/feastkit/storefront/internal/domain/cart"
)

// Engine evaluates coupons against cart snapshots. It is stateless and safe
// for concurrent use.
type Engine struct {
	now func() time.Time
}

// NewEngine creates an Engine using the wall clock.
func NewEngine() *Engine {
	return &Engine{now: time.Now}
}

// Evaluate decides whether the coupon may be applied to the cart and computes
// its savings. Checks run fail-fast in a fixed order: status, expiry, issue
// window, then usage rules in declared order; the first failing check's
// reason is authoritative. Business-rule failures surface as an ineligible
// result, never as an error.
func (e *Engine) Evaluate(c Coupon, lines []cart.Line) Eligibility {
	now := e.now()

	if c.Status != StatusUnused {
		return ineligible("coupon already used")
	}
	if now.After(c.ExpiresAt) {
		return ineligible("coupon expired")
	}

	tmpl := &c.Template
	if tmpl.IssueStart != nil && tmpl.IssueEnd != nil {
		if now.Before(*tmpl.IssueStart) {
			return ineligible("coupon not yet valid")
		}
		if now.After(*tmpl.IssueEnd) {
			return ineligible("coupon no longer issuable")
		}
	}

	// Fold rule outcomes: a later binding replaces an earlier one, mirroring
	// declared rule order.
	var binding *LineBinding
	for _, rule := range tmpl.UsageRules {
		out := checkRule(rule, lines, tmpl)
		if !out.valid {
			return ineligible(out.reason)
		}
		if out.binding != nil {
			binding = out.binding
		}
	}

	savings, bound := computeDiscount(tmpl, lines, binding)
	return Eligibility{
		Eligible: true,
		Savings:  savings,
		Line:     bound,
	}
}

func ineligible(reason string) Eligibility {
	return Eligibility{Reason: reason, Savings: decimal.Zero}
}

// Evaluated pairs a coupon with its eligibility against a given cart.
type Evaluated struct {
	Coupon Coupon
	Result Eligibility
}

// EvaluateAll evaluates every coupon against the same cart snapshot
// concurrently, preserving input order. Callers must not mutate the cart
// while the batch runs.
func (e *Engine) EvaluateAll(ctx context.Context, coupons []Coupon, lines []cart.Line) ([]Evaluated, error) {
	out := make([]Evaluated, len(coupons))

	g, ctx := errgroup.WithContext(ctx)
	for i, c := range coupons {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			out[i] = Evaluated{Coupon: c, Result: e.Evaluate(c, lines)}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}
