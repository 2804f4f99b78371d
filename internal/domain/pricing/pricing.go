// Package pricing computes cart totals and rule-based promotions. It is pure:
// no I/O, integer minor-unit arithmetic only. The storefront runs the same
// computation client-side for display, but settlement always re-runs it here
// against authoritative product rows.
package pricing

import (
	"strings"

	"github.com/tehorna/checkout-api/internal/domain/product"
)

// Item is one cart line: an authoritative product row plus a quantity.
type Item struct {
	Product  product.Product
	Quantity int
}

// LineTotal returns the pre-discount total for this line.
func (i Item) LineTotal() int64 {
	return i.Product.PriceCents * int64(i.Quantity)
}

// AppliedPromotion is one promotion that fired for the cart.
type AppliedPromotion struct {
	Code          string `json:"code"`
	Label         string `json:"label"`
	DiscountCents int64  `json:"discount_cents"`
}

// Quote is the result of pricing a cart.
type Quote struct {
	SubtotalCents int64              `json:"subtotal_cents"`
	Promotions    []AppliedPromotion `json:"promotions"`
	DiscountCents int64              `json:"discount_cents"`
	TotalCents    int64              `json:"total_cents"`
}

// Rule inspects the full item set and either fires with a promotion or
// returns nil. Rules are independent: each computes its discount from the
// pre-discount line totals of its target items, so evaluation order does not
// affect the result.
type Rule interface {
	Evaluate(items []Item) *AppliedPromotion
}

// BundleRule fires when the cart contains at least one item from a trigger
// category (or with a trigger slug prefix) and at least one item from a fixed
// set of paired slugs. The discount is Bps basis points of the paired items'
// line totals, floored.
type BundleRule struct {
	Code            string
	Label           string
	TriggerCategory string
	TriggerPrefix   string
	PairedSlugs     []string
	Bps             int64
}

// Evaluate implements Rule.
func (r BundleRule) Evaluate(items []Item) *AppliedPromotion {
	triggered := false
	var pairedTotal int64
	for _, it := range items {
		if r.triggers(it.Product) {
			triggered = true
		}
		if r.paired(it.Product.Slug) {
			pairedTotal += it.LineTotal()
		}
	}
	if !triggered || pairedTotal == 0 {
		return nil
	}

	discount := pairedTotal * r.Bps / 10000
	if discount == 0 {
		return nil
	}
	return &AppliedPromotion{
		Code:          r.Code,
		Label:         r.Label,
		DiscountCents: discount,
	}
}

func (r BundleRule) triggers(p product.Product) bool {
	if r.TriggerCategory != "" && p.Category == r.TriggerCategory {
		return true
	}
	return r.TriggerPrefix != "" && strings.HasPrefix(p.Slug, r.TriggerPrefix)
}

func (r BundleRule) paired(slug string) bool {
	for _, s := range r.PairedSlugs {
		if s == slug {
			return true
		}
	}
	return false
}

// DefaultRules is the promotion set currently live in the store: buying any
// tea together with one of the pairing products gives 10% off the pairing
// line.
var DefaultRules = []Rule{
	BundleRule{
		Code:            "TEA_PAIRING",
		Label:           "10% off tea pairings",
		TriggerCategory: "tea",
		TriggerPrefix:   "te-",
		PairedSlugs:     []string{"ljunghonung", "akaciahonung", "havrekex"},
		Bps:             1000,
	},
}

// Price computes the subtotal, applicable promotions, and total for the given
// items. Discounts are additive across rules; total is floored at zero.
func Price(items []Item, rules []Rule) Quote {
	var q Quote
	for _, it := range items {
		q.SubtotalCents += it.LineTotal()
	}

	for _, rule := range rules {
		if p := rule.Evaluate(items); p != nil {
			q.Promotions = append(q.Promotions, *p)
			q.DiscountCents += p.DiscountCents
		}
	}

	q.TotalCents = q.SubtotalCents - q.DiscountCents
	if q.TotalCents < 0 {
		q.TotalCents = 0
	}
	return q
}
