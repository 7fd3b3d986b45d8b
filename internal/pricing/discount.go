package pricing

// TierBasis tells which cart measure a bulk tier is compared against.
type TierBasis string

const (
	// BasisQuantity qualifies a tier by total item quantity.
	BasisQuantity TierBasis = "quantity"
	// BasisSubtotal qualifies a tier by the reconciled subtotal.
	BasisSubtotal TierBasis = "subtotal"
)

// Tier describes a single bulk discount tier. Each tier declares exactly one
// qualification basis; quantity and subtotal predicates are never mixed
// within a tier.
type Tier struct {
	Basis     TierBasis
	Threshold int64
	Percent   int
}

// LoyaltyRequest is a redemption of reward points against the order.
// PointValue is the currency value of a single point.
type LoyaltyRequest struct {
	Points     int64
	PointValue Money
}

// DiscountResult carries the evaluated discount stack.
type DiscountResult struct {
	BulkAmount    Money
	AppliedTier   *Tier
	LoyaltyAmount Money
	PointsApplied int64
}

// EvaluateDiscounts computes the bulk tier and loyalty discounts for the
// reconciled subtotal. The bulk discount is applied first; the loyalty
// discount is capped against the post-bulk remainder so the stack can never
// exceed the subtotal. The bulk amount floors to a whole currency unit via
// integer division. Negative or malformed loyalty inputs clamp to zero, and a
// zero subtotal resolves every discount to zero.
func EvaluateDiscounts(subtotal Money, totalQty int, tiers []Tier, loyalty LoyaltyRequest) DiscountResult {
	var res DiscountResult
	if subtotal <= 0 {
		return res
	}

	if tier := selectTier(subtotal, totalQty, tiers); tier != nil {
		res.AppliedTier = tier
		res.BulkAmount = subtotal * Money(tier.Percent) / 100
		if res.BulkAmount > subtotal {
			res.BulkAmount = subtotal
		}
	}

	remaining := subtotal - res.BulkAmount
	if remaining <= 0 || loyalty.Points <= 0 || loyalty.PointValue <= 0 {
		return res
	}
	points := loyalty.Points
	if maxPoints := remaining / loyalty.PointValue; points > maxPoints {
		points = maxPoints
	}
	res.PointsApplied = points
	res.LoyaltyAmount = points * loyalty.PointValue
	return res
}

// selectTier returns the qualifying tier with the highest discount percent,
// or nil when none qualifies. Exactly one tier ever applies.
func selectTier(subtotal Money, totalQty int, tiers []Tier) *Tier {
	var best *Tier
	for i := range tiers {
		t := tiers[i]
		if t.Percent <= 0 {
			continue
		}
		qualifies := false
		switch t.Basis {
		case BasisQuantity:
			qualifies = int64(totalQty) >= t.Threshold
		case BasisSubtotal:
			qualifies = subtotal >= t.Threshold
		}
		if !qualifies {
			continue
		}
		if best == nil || t.Percent > best.Percent {
			best = &tiers[i]
		}
	}
	return best
}
