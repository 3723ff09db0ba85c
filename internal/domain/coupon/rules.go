package coupon

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/feastkit/storefront/internal/domain/cart"
)

// Rule is a usage restriction attached to a coupon template. The set of
// variants is closed: MinimumSpend, ItemEligibility, GiftCondition and
// UnknownRule. Unknown rule types never block a coupon, so newly introduced
// rules degrade to no-ops on older deployments.
type Rule interface {
	isRule()
}

// MinimumSpend requires the whole-cart subtotal to reach MinSpend.
// The boundary is inclusive: a subtotal exactly equal to MinSpend passes.
type MinimumSpend struct {
	MinSpend decimal.Decimal
}

// ItemEligibility restricts the coupon to carts containing at least one line
// whose dish ID is in Items or whose category is in Categories (either
// suffices). With both lists empty the rule imposes no restriction.
type ItemEligibility struct {
	Items      []IDName
	Categories []IDName
}

// GiftCondition gates a gift coupon on purchasing qualifying lines, with an
// optional minimum spend. When a restriction is present the spend is summed
// over the qualifying lines only, otherwise over the whole cart.
type GiftCondition struct {
	Items      []IDName
	Categories []IDName
	MinSpend   decimal.Decimal
}

// UnknownRule preserves a rule type this engine does not recognize.
// It always evaluates as valid.
type UnknownRule struct {
	Type string
}

func (MinimumSpend) isRule()    {}
func (ItemEligibility) isRule() {}
func (GiftCondition) isRule()   {}
func (UnknownRule) isRule()     {}

// ruleOutcome is the result of checking a single rule. Rules are pure: any
// line binding they produce is returned here and folded by the engine rather
// than written into shared state.
type ruleOutcome struct {
	valid   bool
	reason  string
	binding *LineBinding
}

func pass() ruleOutcome { return ruleOutcome{valid: true} }

func fail(reason string) ruleOutcome { return ruleOutcome{reason: reason} }

func bind(b *LineBinding) ruleOutcome { return ruleOutcome{valid: true, binding: b} }

// checkRule evaluates one usage rule against the cart snapshot. tmpl provides
// the template type: an item restriction on a percentage template additionally
// binds the discount to the most expensive qualifying line.
func checkRule(r Rule, lines []cart.Line, tmpl *Template) ruleOutcome {
	switch rule := r.(type) {
	case MinimumSpend:
		total := cart.Subtotal(lines)
		if total.LessThan(rule.MinSpend) {
			return fail(needsSpendReason(rule.MinSpend, total))
		}
		return pass()

	case ItemEligibility:
		if len(rule.Items) == 0 && len(rule.Categories) == 0 {
			return pass()
		}
		matched := matchingLines(lines, rule.Items, rule.Categories)
		if len(matched) == 0 {
			return fail("requires purchase of " + restrictionNames(rule.Items, rule.Categories))
		}
		if tmpl.Type == TypePercentageDiscount {
			return bind(mostExpensive(lines, matched))
		}
		return pass()

	case GiftCondition:
		restricted := len(rule.Items) > 0 || len(rule.Categories) > 0
		var matched []int
		if restricted {
			matched = matchingLines(lines, rule.Items, rule.Categories)
			if len(matched) == 0 {
				return fail("must purchase " + restrictionNames(rule.Items, rule.Categories))
			}
		}
		if rule.MinSpend.IsPositive() {
			spend := cart.Subtotal(lines)
			if restricted {
				spend = decimal.Zero
				for _, i := range matched {
					spend = spend.Add(lines[i].Total())
				}
			}
			if spend.LessThan(rule.MinSpend) {
				return fail(needsSpendReason(rule.MinSpend, spend))
			}
		}
		return pass()

	default:
		// Forward compatibility: unrecognized rules never block usage.
		return pass()
	}
}

// matchingLines returns the indices of lines whose dish ID appears in items
// or whose category appears in categories, preserving cart order.
func matchingLines(lines []cart.Line, items, categories []IDName) []int {
	ids := make(map[string]struct{}, len(items))
	for _, it := range items {
		ids[it.ID] = struct{}{}
	}
	cats := make(map[string]struct{}, len(categories))
	for _, c := range categories {
		cats[c.ID] = struct{}{}
	}

	var matched []int
	for i, l := range lines {
		if _, ok := ids[l.ID]; ok {
			matched = append(matched, i)
			continue
		}
		if l.CategoryID != "" {
			if _, ok := cats[l.CategoryID]; ok {
				matched = append(matched, i)
			}
		}
	}
	return matched
}

// mostExpensive selects the qualifying line with the highest unit price,
// breaking ties by first occurrence in cart order. This maximizes the
// customer's benefit when a restricted percentage discount applies to a
// single unit.
func mostExpensive(lines []cart.Line, matched []int) *LineBinding {
	best := matched[0]
	for _, i := range matched[1:] {
		if lines[i].UnitPrice.GreaterThan(lines[best].UnitPrice) {
			best = i
		}
	}
	return &LineBinding{
		Index:    best,
		ItemID:   lines[best].ID,
		ItemName: lines[best].Name,
	}
}

// restrictionNames renders the restricted item and category names for
// ineligibility reasons, e.g. `"Kung Pao Chicken", "Mapo Tofu" or "Soups"`.
func restrictionNames(items, categories []IDName) string {
	var groups []string
	if s := joinNames(items); s != "" {
		groups = append(groups, s)
	}
	if s := joinNames(categories); s != "" {
		groups = append(groups, s)
	}
	return strings.Join(groups, " or ")
}

func joinNames(entries []IDName) string {
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		names = append(names, fmt.Sprintf("%q", e.Name))
	}
	return strings.Join(names, ", ")
}

func needsSpendReason(min, got decimal.Decimal) string {
	return fmt.Sprintf("needs spend ≥%s, currently %s", min.String(), got.StringFixed(2))
}
