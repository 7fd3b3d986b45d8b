package quote

import (
	"context"
	"errors"

	"github.com/SnigdhoNext27/bliss-store-api/internal/cart"
	"github.com/SnigdhoNext27/bliss-store-api/internal/obs"
	"github.com/SnigdhoNext27/bliss-store-api/internal/pricing"
)

// CartSource supplies the stored cart lines for a quote.
type CartSource interface {
	Items(ctx context.Context, cartID string) ([]cart.Item, error)
}

// SnapshotProvider supplies live catalog snapshots.
type SnapshotProvider interface {
	Snapshots(ctx context.Context, ids []string) (map[string]pricing.ProductSnapshot, error)
}

// Request carries the buyer-selected options for a quote.
type Request struct {
	Zone          string `json:"zone" validate:"required"`
	GiftWrap      bool   `json:"giftWrap"`
	LoyaltyPoints int64  `json:"loyaltyPoints" validate:"min=0"`
}

// LineView is the per-line reconciliation outcome returned to the client.
type LineView struct {
	ProductID    string        `json:"productId"`
	Qty          int           `json:"qty"`
	Size         string        `json:"size,omitempty"`
	Color        string        `json:"color,omitempty"`
	StoredPrice  pricing.Money `json:"storedPrice"`
	LivePrice    pricing.Money `json:"livePrice"`
	PriceChanged bool          `json:"priceChanged"`
	Unavailable  bool          `json:"unavailable"`
	LineTotal    pricing.Money `json:"lineTotal"`
}

// Result is a full quote: the reconciled lines plus the total breakdown.
type Result struct {
	Lines  []LineView     `json:"lines"`
	Totals pricing.Totals `json:"totals"`
}

// Service computes order quotes from stored carts and the live catalog.
// Pricing policy (tiers, fees, point value) is fixed at construction.
type Service struct {
	Carts       CartSource
	Catalog     SnapshotProvider
	Tiers       []pricing.Tier
	Fees        pricing.FeeTable
	GiftWrapFee pricing.Money
	PointValue  pricing.Money
}

// Quote reconciles the cart against the live catalog and assembles totals.
// It returns pricing.ErrCannotCompute when no line can be resolved and
// catalog.ErrUnreachable when the live catalog cannot be read.
func (s *Service) Quote(ctx context.Context, cartID string, req Request) (Result, error) {
	if s == nil || s.Carts == nil || s.Catalog == nil {
		return Result{}, errors.New("quote service not configured")
	}
	items, err := s.Carts.Items(ctx, cartID)
	if err != nil {
		return Result{}, err
	}
	lines := cart.Lines(items)

	ids := make([]string, 0, len(lines))
	for _, ln := range lines {
		ids = append(ids, ln.ProductID)
	}
	catalogSnaps, err := s.Catalog.Snapshots(ctx, ids)
	if err != nil {
		countQuote("catalog_unavailable")
		return Result{}, err
	}

	reconciled, totals, err := pricing.Compute(pricing.QuoteInput{
		Lines:       lines,
		Catalog:     catalogSnaps,
		Tiers:       s.Tiers,
		Loyalty:     pricing.LoyaltyRequest{Points: req.LoyaltyPoints, PointValue: s.PointValue},
		Zone:        pricing.ParseZone(req.Zone),
		Fees:        s.Fees,
		GiftWrap:    req.GiftWrap,
		GiftWrapFee: s.GiftWrapFee,
	})
	if err != nil {
		countQuote("cannot_compute")
		return Result{}, err
	}

	views := make([]LineView, 0, len(reconciled))
	for _, ln := range reconciled {
		countLine(ln)
		views = append(views, LineView{
			ProductID:    ln.ProductID,
			Qty:          ln.Qty,
			Size:         ln.Size,
			Color:        ln.Color,
			StoredPrice:  ln.StoredPrice,
			LivePrice:    ln.LivePrice,
			PriceChanged: ln.PriceChanged,
			Unavailable:  ln.Unavailable,
			LineTotal:    ln.LineTotal,
		})
	}
	countQuote("ok")
	return Result{Lines: views, Totals: totals}, nil
}

func countQuote(outcome string) {
	if obs.QuoteTotal != nil {
		obs.QuoteTotal.WithLabelValues(outcome).Inc()
	}
}

func countLine(ln pricing.ReconciledLine) {
	if ln.PriceChanged && obs.PriceDriftTotal != nil {
		obs.PriceDriftTotal.Inc()
	}
	if ln.Unavailable && obs.UnavailableLineTotal != nil {
		obs.UnavailableLineTotal.Inc()
	}
}
