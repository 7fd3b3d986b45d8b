package pricing

import "errors"

// ErrCannotCompute signals that no line in a non-empty cart could be resolved
// against the catalog, so a total would be misleading. Callers must block
// checkout rather than present a zero total.
var ErrCannotCompute = errors.New("pricing: totals cannot be computed")

// QuoteInput is the full immutable snapshot a totals computation consumes.
// The calculator holds no state of its own; callers pass everything in on
// each invocation.
type QuoteInput struct {
	Lines       []CartLine
	Catalog     map[string]ProductSnapshot
	Tiers       []Tier
	Loyalty     LoyaltyRequest
	Zone        Zone
	Fees        FeeTable
	GiftWrap    bool
	GiftWrapFee Money
}

// Totals is the order total breakdown persisted on the order record.
type Totals struct {
	Subtotal        Money `json:"subtotal"`
	BulkDiscount    Money `json:"bulkDiscount"`
	LoyaltyDiscount Money `json:"loyaltyDiscount"`
	PointsApplied   int64 `json:"pointsApplied"`
	DeliveryFee     Money `json:"deliveryFee"`
	GiftWrapFee     Money `json:"giftWrapFee"`
	TotalPayable    Money `json:"totalPayable"`
	AppliedTier     *Tier `json:"appliedTier,omitempty"`
}

// Compute reconciles the cart against the live catalog, evaluates the
// discount stack and assembles the payable total. It is deterministic and
// idempotent: identical inputs always produce identical outputs.
//
// Compute returns ErrCannotCompute when the cart is empty, or when the cart
// is non-empty but no line has any catalog entry at all. Lines that exist in
// the catalog yet are inactive still allow a quote; they are simply excluded
// from the subtotal.
func Compute(in QuoteInput) ([]ReconciledLine, Totals, error) {
	if len(in.Lines) == 0 {
		return nil, Totals{}, ErrCannotCompute
	}
	resolved := 0
	for _, line := range in.Lines {
		if _, ok := in.Catalog[line.ProductID]; ok {
			resolved++
		}
	}
	if resolved == 0 {
		return nil, Totals{}, ErrCannotCompute
	}

	lines := Reconcile(in.Lines, in.Catalog)
	subtotal := AvailableSubtotal(lines)
	qty := AvailableQty(lines)

	discounts := EvaluateDiscounts(subtotal, qty, in.Tiers, in.Loyalty)

	totals := Totals{
		Subtotal:        subtotal,
		BulkDiscount:    discounts.BulkAmount,
		LoyaltyDiscount: discounts.LoyaltyAmount,
		PointsApplied:   discounts.PointsApplied,
		DeliveryFee:     in.Fees.Resolve(in.Zone),
		AppliedTier:     discounts.AppliedTier,
	}
	if in.GiftWrap && in.GiftWrapFee > 0 {
		totals.GiftWrapFee = in.GiftWrapFee
	}

	discounted := subtotal - totals.BulkDiscount - totals.LoyaltyDiscount
	if discounted < 0 {
		discounted = 0
	}
	totals.TotalPayable = discounted + totals.DeliveryFee + totals.GiftWrapFee
	return lines, totals, nil
}
