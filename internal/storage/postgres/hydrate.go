package postgres

import (
	"strings"

	"github.com/go-faster/errors"
	"github.com/go-faster/jx"
	"github.com/shopspring/decimal"

	"github.com/feastkit/storefront/internal/domain/coupon"
)

// Template value payloads and usage rules are stored as JSONB. Decoding is
// deliberately tolerant: unknown keys are skipped, missing numerics stay
// zero and unknown rule types map to coupon.UnknownRule, because templates
// originate from an external admin system the engine must not crash on.

// decodeValue parses a template's value JSONB payload.
func decodeValue(raw []byte) (coupon.Value, error) {
	var v coupon.Value
	if len(raw) == 0 {
		return v, nil
	}

	d := jx.DecodeBytes(raw)
	if d.Next() == jx.Null {
		return v, d.Null()
	}

	err := d.ObjBytes(func(d *jx.Decoder, key []byte) error {
		switch string(key) {
		case "amount":
			return decodeDecimal(d, &v.Amount)
		case "percentage":
			return decodeDecimal(d, &v.Percentage)
		case "max_off":
			return decodeDecimal(d, &v.MaxOff)
		case "dish_price":
			return decodeDecimal(d, &v.DishPrice)
		case "dish_id", "item_id":
			return decodeString(d, &v.DishID)
		case "dish_name", "item_name":
			return decodeString(d, &v.DishName)
		default:
			return d.Skip()
		}
	})
	if err != nil {
		return coupon.Value{}, errors.Wrap(err, "decode template value")
	}
	return v, nil
}

// decodeRules parses a template's usage_rules JSONB array into the closed
// rule union.
func decodeRules(raw []byte) ([]coupon.Rule, error) {
	if len(raw) == 0 {
		return nil, nil
	}

	d := jx.DecodeBytes(raw)
	if d.Next() == jx.Null {
		return nil, d.Null()
	}

	var rules []coupon.Rule
	err := d.Arr(func(d *jx.Decoder) error {
		rule, err := decodeRule(d)
		if err != nil {
			return err
		}
		rules = append(rules, rule)
		return nil
	})
	if err != nil {
		return nil, errors.Wrap(err, "decode usage rules")
	}
	return rules, nil
}

// ruleParams collects every field any rule variant can carry. Historical
// template exports disagree on field names (amount vs min_spend, items vs
// required_items); both spellings are accepted with the canonical one
// winning.
type ruleParams struct {
	minSpend      decimal.Decimal
	amount        decimal.Decimal
	items         []coupon.IDName
	categories    []coupon.IDName
	altItems      []coupon.IDName
	altCategories []coupon.IDName
}

func decodeRule(d *jx.Decoder) (coupon.Rule, error) {
	var (
		ruleType string
		p        ruleParams
	)

	err := d.ObjBytes(func(d *jx.Decoder, key []byte) error {
		switch string(key) {
		case "rule_type":
			return decodeString(d, &ruleType)
		case "params":
			if d.Next() == jx.Null {
				return d.Null()
			}
			return d.ObjBytes(func(d *jx.Decoder, key []byte) error {
				return decodeRuleParam(d, string(key), &p)
			})
		default:
			return d.Skip()
		}
	})
	if err != nil {
		return nil, err
	}

	minSpend := p.minSpend
	if minSpend.IsZero() {
		minSpend = p.amount
	}
	items := p.items
	if len(items) == 0 {
		items = p.altItems
	}
	categories := p.categories
	if len(categories) == 0 {
		categories = p.altCategories
	}

	switch ruleType {
	case "MINIMUM_SPEND":
		return coupon.MinimumSpend{MinSpend: minSpend}, nil
	case "ITEM_ELIGIBILITY":
		return coupon.ItemEligibility{Items: items, Categories: categories}, nil
	case "GIFT_CONDITION":
		return coupon.GiftCondition{Items: items, Categories: categories, MinSpend: minSpend}, nil
	default:
		return coupon.UnknownRule{Type: ruleType}, nil
	}
}

func decodeRuleParam(d *jx.Decoder, key string, p *ruleParams) error {
	switch key {
	case "min_spend":
		return decodeDecimal(d, &p.minSpend)
	case "amount":
		return decodeDecimal(d, &p.amount)
	case "required_items":
		return decodeIDNames(d, &p.items)
	case "items":
		return decodeIDNames(d, &p.altItems)
	case "required_categories":
		return decodeIDNames(d, &p.categories)
	case "categories":
		return decodeIDNames(d, &p.altCategories)
	default:
		return d.Skip()
	}
}

func decodeIDNames(d *jx.Decoder, out *[]coupon.IDName) error {
	if d.Next() == jx.Null {
		return d.Null()
	}
	return d.Arr(func(d *jx.Decoder) error {
		var entry coupon.IDName
		err := d.ObjBytes(func(d *jx.Decoder, key []byte) error {
			switch string(key) {
			case "id":
				return decodeString(d, &entry.ID)
			case "name":
				return decodeString(d, &entry.Name)
			default:
				return d.Skip()
			}
		})
		if err != nil {
			return err
		}
		*out = append(*out, entry)
		return nil
	})
}

// decodeDecimal reads a JSON number (or numeric string) into dst. Null leaves
// dst at zero.
func decodeDecimal(d *jx.Decoder, dst *decimal.Decimal) error {
	if d.Next() == jx.Null {
		return d.Null()
	}
	n, err := d.Num()
	if err != nil {
		return err
	}
	v, err := decimal.NewFromString(strings.Trim(string(n), `"`))
	if err != nil {
		return err
	}
	*dst = v
	return nil
}

// decodeString reads a JSON string into dst, tolerating non-string IDs
// (numeric template IDs appear in older exports).
func decodeString(d *jx.Decoder, dst *string) error {
	switch d.Next() {
	case jx.Null:
		return d.Null()
	case jx.Number:
		n, err := d.Num()
		if err != nil {
			return err
		}
		*dst = string(n)
		return nil
	default:
		s, err := d.Str()
		if err != nil {
			return err
		}
		*dst = s
		return nil
	}
}
