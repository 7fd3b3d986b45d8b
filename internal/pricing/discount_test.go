package pricing

import "testing"

func TestEvaluateDiscountsHighestTierWins(t *testing.T) {
	tiers := []Tier{
		{Basis: BasisQuantity, Threshold: 2, Percent: 5},
		{Basis: BasisQuantity, Threshold: 5, Percent: 10},
		{Basis: BasisSubtotal, Threshold: 10000, Percent: 15},
	}
	res := EvaluateDiscounts(2000, 6, tiers, LoyaltyRequest{})
	if res.AppliedTier == nil || res.AppliedTier.Percent != 10 {
		t.Fatalf("expected 10%% tier, got %+v", res.AppliedTier)
	}
	if res.BulkAmount != 200 {
		t.Fatalf("expected bulk discount 200, got %d", res.BulkAmount)
	}
}

func TestEvaluateDiscountsFloorsBulkAmount(t *testing.T) {
	tiers := []Tier{{Basis: BasisSubtotal, Threshold: 1, Percent: 7}}
	// 999 * 7 / 100 = 69.93, floored by integer division.
	res := EvaluateDiscounts(999, 1, tiers, LoyaltyRequest{})
	if res.BulkAmount != 69 {
		t.Fatalf("expected floored bulk discount 69, got %d", res.BulkAmount)
	}
}

func TestEvaluateDiscountsLoyaltyCappedAgainstRemainder(t *testing.T) {
	tiers := []Tier{{Basis: BasisSubtotal, Threshold: 1, Percent: 20}}
	res := EvaluateDiscounts(500, 1, tiers, LoyaltyRequest{Points: 100, PointValue: 1})
	if res.BulkAmount != 100 {
		t.Fatalf("expected bulk 100, got %d", res.BulkAmount)
	}
	// Remainder after bulk is 400; the full 100-point redemption fits.
	if res.LoyaltyAmount != 100 || res.PointsApplied != 100 {
		t.Fatalf("expected loyalty 100/100 points, got %d/%d", res.LoyaltyAmount, res.PointsApplied)
	}
}

func TestEvaluateDiscountsLoyaltyClampedPoints(t *testing.T) {
	res := EvaluateDiscounts(300, 1, nil, LoyaltyRequest{Points: 1000, PointValue: 2})
	// 300 / 2 = 150 points at most.
	if res.PointsApplied != 150 {
		t.Fatalf("expected 150 points applied, got %d", res.PointsApplied)
	}
	if res.LoyaltyAmount != 300 {
		t.Fatalf("expected loyalty 300, got %d", res.LoyaltyAmount)
	}
}

func TestEvaluateDiscountsLoyaltyRedeemsWholePointsOnly(t *testing.T) {
	// Remainder 5 with 2-unit points: only 2 of the 3 points fit, so the
	// discount is 4, not the full remaining 5.
	res := EvaluateDiscounts(5, 1, nil, LoyaltyRequest{Points: 3, PointValue: 2})
	if res.PointsApplied != 2 {
		t.Fatalf("expected 2 points applied, got %d", res.PointsApplied)
	}
	if res.LoyaltyAmount != 4 {
		t.Fatalf("expected loyalty 4, got %d", res.LoyaltyAmount)
	}

	// Same shape after a bulk tier: 205 - 198 bulk leaves 7, which holds
	// three 2-unit points with one unit left untouched.
	tiers := []Tier{{Basis: BasisSubtotal, Threshold: 1, Percent: 97}}
	res = EvaluateDiscounts(205, 1, tiers, LoyaltyRequest{Points: 10, PointValue: 2})
	if res.BulkAmount != 198 {
		t.Fatalf("expected bulk 198, got %d", res.BulkAmount)
	}
	if res.PointsApplied != 3 || res.LoyaltyAmount != 6 {
		t.Fatalf("expected loyalty 6/3 points, got %d/%d", res.LoyaltyAmount, res.PointsApplied)
	}
}

func TestEvaluateDiscountsNegativePointsClampToZero(t *testing.T) {
	res := EvaluateDiscounts(1000, 1, nil, LoyaltyRequest{Points: -50, PointValue: 1})
	if res.LoyaltyAmount != 0 || res.PointsApplied != 0 {
		t.Fatalf("expected zero loyalty, got %d/%d", res.LoyaltyAmount, res.PointsApplied)
	}
}

func TestEvaluateDiscountsZeroSubtotal(t *testing.T) {
	tiers := []Tier{{Basis: BasisQuantity, Threshold: 0, Percent: 50}}
	res := EvaluateDiscounts(0, 10, tiers, LoyaltyRequest{Points: 100, PointValue: 1})
	if res.BulkAmount != 0 || res.LoyaltyAmount != 0 || res.AppliedTier != nil {
		t.Fatalf("expected all discounts zero on empty subtotal, got %+v", res)
	}
}

func TestEvaluateDiscountsNoQualifyingTier(t *testing.T) {
	tiers := []Tier{{Basis: BasisSubtotal, Threshold: 5000, Percent: 10}}
	res := EvaluateDiscounts(1000, 1, tiers, LoyaltyRequest{})
	if res.AppliedTier != nil || res.BulkAmount != 0 {
		t.Fatalf("expected no tier, got %+v", res)
	}
}

func TestEvaluateDiscountsTiersNeverStack(t *testing.T) {
	tiers := []Tier{
		{Basis: BasisQuantity, Threshold: 1, Percent: 10},
		{Basis: BasisSubtotal, Threshold: 1, Percent: 10},
	}
	res := EvaluateDiscounts(1000, 5, tiers, LoyaltyRequest{})
	if res.BulkAmount != 100 {
		t.Fatalf("expected exactly one 10%% tier applied, got %d", res.BulkAmount)
	}
}
