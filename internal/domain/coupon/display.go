package coupon

import "fmt"

// DisplayRule is one line of usage-rule copy on a coupon card.
type DisplayRule struct {
	Type string
	Text string
}

// DisplayInfo is the structured presentation of a coupon for the storefront
// UI: a title, a one-line benefit summary and the usage-rule lines.
type DisplayInfo struct {
	MainTitle string
	Subtitle  string
	Rules     []DisplayRule
}

// RenderDisplay formats a coupon for display. It is pure string formatting
// over the template data and carries no eligibility logic.
func RenderDisplay(c Coupon) DisplayInfo {
	tmpl := c.Template
	info := DisplayInfo{MainTitle: tmpl.Name}

	switch tmpl.Type {
	case TypeCashVoucher:
		info.Subtitle = fmt.Sprintf("Worth ¥%s", tmpl.Value.Amount.String())
	case TypePercentageDiscount:
		info.Subtitle = fmt.Sprintf("%s%% off", tmpl.Value.Percentage.String())
		if tmpl.Value.MaxOff.IsPositive() {
			info.Subtitle += fmt.Sprintf(", up to ¥%s off", tmpl.Value.MaxOff.String())
		}
	case TypeFreeItem:
		name := tmpl.Value.DishName
		if name == "" {
			name = "selected gift"
		}
		info.Subtitle = fmt.Sprintf("Redeemable for %q", name)
	default:
		info.Subtitle = "Unknown offer"
	}

	info.Rules = append(info.Rules, DisplayRule{
		Type: "VALIDITY",
		Text: "Valid until " + c.ExpiresAt.Format("2006-01-02 15:04"),
	})
	if tmpl.Value.MaxOff.IsPositive() {
		info.Rules = append(info.Rules, DisplayRule{Type: "MAX_OFF", Text: info.Subtitle})
	}

	scoped := false
	for _, r := range tmpl.UsageRules {
		switch rule := r.(type) {
		case MinimumSpend:
			if rule.MinSpend.IsPositive() {
				info.Rules = append(info.Rules, DisplayRule{
					Type: "MINIMUM_SPEND",
					Text: fmt.Sprintf("Orders over ¥%s", rule.MinSpend.String()),
				})
			}
		case ItemEligibility:
			scoped = true
			if len(rule.Items) > 0 {
				info.Rules = append(info.Rules, DisplayRule{
					Type: "ITEM_ELIGIBILITY",
					Text: "Only valid on " + joinNames(rule.Items),
				})
			} else if len(rule.Categories) > 0 {
				info.Rules = append(info.Rules, DisplayRule{
					Type: "ITEM_ELIGIBILITY",
					Text: "Only valid on " + joinNames(rule.Categories),
				})
			}
		case GiftCondition:
			var conditions []string
			if len(rule.Items) > 0 {
				conditions = append(conditions, "purchase "+joinNames(rule.Items))
			} else if len(rule.Categories) > 0 {
				conditions = append(conditions, "purchase any "+joinNames(rule.Categories))
			}
			if rule.MinSpend.IsPositive() {
				conditions = append(conditions, fmt.Sprintf("spend ¥%s or more", rule.MinSpend.String()))
			}
			if len(conditions) > 0 {
				text := conditions[0]
				for _, c := range conditions[1:] {
					text += " and " + c
				}
				info.Rules = append(info.Rules, DisplayRule{
					Type: "GIFT_CONDITION",
					Text: "Gifted when you " + text,
				})
			}
		}
	}

	// Without a scope restriction the coupon is storewide, except gift
	// coupons whose scope is the gift itself.
	if !scoped && tmpl.Type != TypeFreeItem {
		text := "Valid storewide"
		if tmpl.Type == TypePercentageDiscount {
			text = "Discount applies storewide"
		}
		info.Rules = append(info.Rules, DisplayRule{Type: "DEFAULT_SCOPE", Text: text})
	}

	return info
}
