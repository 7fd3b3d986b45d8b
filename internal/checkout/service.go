package checkout

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/SnigdhoNext27/bliss-store-api/internal/cart"
	"github.com/SnigdhoNext27/bliss-store-api/internal/events"
	"github.com/SnigdhoNext27/bliss-store-api/internal/obs"
	"github.com/SnigdhoNext27/bliss-store-api/internal/order"
	"github.com/SnigdhoNext27/bliss-store-api/internal/pricing"
	"github.com/SnigdhoNext27/bliss-store-api/internal/quote"
)

// Input carries the checkout request. Totals are never accepted from the
// client; they are recomputed server side against the live catalog.
type Input struct {
	CartID        string `json:"cartId" validate:"required"`
	AnonID        string `json:"anonId" validate:"required"`
	Zone          string `json:"zone" validate:"required"`
	GiftWrap      bool   `json:"giftWrap"`
	LoyaltyPoints int64  `json:"loyaltyPoints" validate:"min=0"`
	Email         string `json:"email" validate:"omitempty,email"`
}

// Output is the created order summary returned to the client.
type Output struct {
	OrderID string         `json:"orderId"`
	Status  string         `json:"status"`
	Totals  pricing.Totals `json:"totals"`
}

// Service turns a cart into a persisted order with recomputed totals.
type Service struct {
	Orders order.Store
	Quotes *quote.Service
	Events *events.Bus
	Log    zerolog.Logger
}

// Create recomputes totals for the cart and persists the order with its
// reconciled lines frozen at checkout time.
func (s *Service) Create(ctx context.Context, in Input) (Output, error) {
	if s == nil || s.Orders == nil || s.Quotes == nil {
		return Output{}, errors.New("checkout service not configured")
	}
	if strings.TrimSpace(in.CartID) == "" {
		return Output{}, fmt.Errorf("cartId is required: %w", cart.ErrInvalidInput)
	}
	if strings.TrimSpace(in.AnonID) == "" {
		return Output{}, fmt.Errorf("anonId is required: %w", cart.ErrInvalidInput)
	}

	res, err := s.Quotes.Quote(ctx, in.CartID, quote.Request{
		Zone:          in.Zone,
		GiftWrap:      in.GiftWrap,
		LoyaltyPoints: in.LoyaltyPoints,
	})
	if err != nil {
		countOrder("rejected")
		return Output{}, err
	}

	orderID := uuid.NewString()
	items := make([]order.Item, 0, len(res.Lines))
	for _, ln := range res.Lines {
		if ln.Unavailable {
			continue
		}
		items = append(items, order.Item{
			ID:           uuid.NewString(),
			OrderID:      orderID,
			ProductID:    ln.ProductID,
			Qty:          ln.Qty,
			Size:         ln.Size,
			Color:        ln.Color,
			StoredPrice:  ln.StoredPrice,
			LivePrice:    ln.LivePrice,
			PriceChanged: ln.PriceChanged,
			LineTotal:    ln.LineTotal,
		})
	}

	zone := string(pricing.ParseZone(in.Zone))
	created := order.Order{
		ID:              orderID,
		AnonID:          in.AnonID,
		CartID:          in.CartID,
		Status:          order.StatusConfirmed,
		Zone:            zone,
		GiftWrap:        in.GiftWrap,
		Subtotal:        res.Totals.Subtotal,
		BulkDiscount:    res.Totals.BulkDiscount,
		LoyaltyDiscount: res.Totals.LoyaltyDiscount,
		PointsApplied:   res.Totals.PointsApplied,
		DeliveryFee:     res.Totals.DeliveryFee,
		GiftWrapFee:     res.Totals.GiftWrapFee,
		TotalPayable:    res.Totals.TotalPayable,
	}
	if err := s.Orders.Create(ctx, created, items); err != nil {
		countOrder("error")
		return Output{}, err
	}
	countOrder("ok")
	if obs.OrderValue != nil {
		obs.OrderValue.Observe(float64(res.Totals.TotalPayable))
	}

	if s.Events != nil {
		payload := map[string]any{
			"orderId":      orderID,
			"anonId":       in.AnonID,
			"totalPayable": res.Totals.TotalPayable,
		}
		if email := strings.TrimSpace(in.Email); email != "" {
			payload["email"] = email
		}
		if _, err := s.Events.Emit(ctx, events.TopicOrderCreated, orderID, payload); err != nil {
			// the order is already persisted; a lost notification only
			// delays the confirmation email
			s.Log.Error().Err(err).Str("order_id", orderID).Msg("emit order created event")
		}
	}

	return Output{OrderID: orderID, Status: created.Status, Totals: res.Totals}, nil
}

func countOrder(outcome string) {
	if obs.OrderCreatedTotal != nil {
		obs.OrderCreatedTotal.WithLabelValues(outcome).Inc()
	}
}
