package cart

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/SnigdhoNext27/bliss-store-api/internal/events"
	"github.com/SnigdhoNext27/bliss-store-api/internal/pricing"
)

// ErrInvalidInput is returned when the provided payload is invalid.
var ErrInvalidInput = errors.New("invalid input")

// SnapshotProvider resolves live catalog snapshots for cart operations.
type SnapshotProvider interface {
	Snapshots(ctx context.Context, ids []string) (map[string]pricing.ProductSnapshot, error)
}

// Service encapsulates cart domain operations.
type Service struct {
	Store   Store
	Catalog SnapshotProvider
	Events  *events.Bus
	Log     zerolog.Logger
	TTL     time.Duration
	Now     func() time.Time
}

func (s *Service) ttl() time.Duration {
	if s == nil || s.TTL <= 0 {
		return 7 * 24 * time.Hour
	}
	return s.TTL
}

func (s *Service) now() time.Time {
	if s != nil && s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

// EnsureCart loads the active cart for the anonymous id, creating one when
// none exists.
func (s *Service) EnsureCart(ctx context.Context, anonID string) (Cart, error) {
	if s == nil || s.Store == nil {
		return Cart{}, errors.New("cart service not configured")
	}
	anonID = strings.TrimSpace(anonID)
	if anonID == "" {
		return Cart{}, fmt.Errorf("anon id required: %w", ErrInvalidInput)
	}
	expires := s.now().Add(s.ttl())
	existing, err := s.Store.GetCartByAnon(ctx, anonID)
	if err == nil {
		_ = s.Store.TouchCart(ctx, existing.ID, expires)
		return existing, nil
	}
	if !errors.Is(err, ErrNotFound) {
		return Cart{}, err
	}
	created := Cart{ID: uuid.NewString(), AnonID: anonID, ExpiresAt: expires}
	if err := s.Store.CreateCart(ctx, created); err != nil {
		return Cart{}, err
	}
	return created, nil
}

// AddItem inserts or increments a cart line, capturing the live catalog
// price as the stored unit price for new lines.
func (s *Service) AddItem(ctx context.Context, cartID, productID, size, color string, qty int) error {
	if s == nil || s.Store == nil {
		return errors.New("cart service not configured")
	}
	if qty <= 0 {
		return fmt.Errorf("qty must be positive: %w", ErrInvalidInput)
	}
	productID = strings.TrimSpace(productID)
	if productID == "" {
		return fmt.Errorf("product id required: %w", ErrInvalidInput)
	}
	cart, err := s.Store.GetCart(ctx, cartID)
	if err != nil {
		return err
	}
	expires := s.now().Add(s.ttl())

	existing, err := s.Store.FindItem(ctx, cart.ID, productID, size, color)
	if err == nil {
		if err := s.Store.UpdateItemQty(ctx, existing.ID, existing.Qty+qty); err != nil {
			return err
		}
		_ = s.Store.TouchCart(ctx, cart.ID, expires)
		return nil
	}
	if !errors.Is(err, ErrNotFound) {
		return err
	}

	if s.Catalog == nil {
		return errors.New("cart service catalog not configured")
	}
	snapshots, err := s.Catalog.Snapshots(ctx, []string{productID})
	if err != nil {
		return err
	}
	snap, ok := snapshots[productID]
	if !ok || !snap.Active {
		return fmt.Errorf("product unavailable: %w", ErrInvalidInput)
	}
	if snap.Stock <= 0 {
		return fmt.Errorf("product out of stock: %w", ErrInvalidInput)
	}
	if err := s.Store.InsertItem(ctx, Item{
		ID:        uuid.NewString(),
		CartID:    cart.ID,
		ProductID: productID,
		Qty:       qty,
		UnitPrice: snap.UnitPrice,
		Size:      size,
		Color:     color,
	}); err != nil {
		return err
	}
	_ = s.Store.TouchCart(ctx, cart.ID, expires)
	return nil
}

// UpdateQty updates the quantity for a cart line.
func (s *Service) UpdateQty(ctx context.Context, cartID, itemID string, qty int) error {
	if s == nil || s.Store == nil {
		return errors.New("cart service not configured")
	}
	if qty <= 0 {
		return fmt.Errorf("qty must be positive: %w", ErrInvalidInput)
	}
	if err := s.Store.UpdateItemQty(ctx, itemID, qty); err != nil {
		return err
	}
	_ = s.Store.TouchCart(ctx, cartID, s.now().Add(s.ttl()))
	return nil
}

// RemoveItem deletes a cart line.
func (s *Service) RemoveItem(ctx context.Context, cartID, itemID string) error {
	if s == nil || s.Store == nil {
		return errors.New("cart service not configured")
	}
	if err := s.Store.DeleteItem(ctx, cartID, itemID); err != nil {
		return err
	}
	_ = s.Store.TouchCart(ctx, cartID, s.now().Add(s.ttl()))
	return nil
}

// Items returns the lines of a cart.
func (s *Service) Items(ctx context.Context, cartID string) ([]Item, error) {
	if s == nil || s.Store == nil {
		return nil, errors.New("cart service not configured")
	}
	if _, err := s.Store.GetCart(ctx, cartID); err != nil {
		return nil, err
	}
	return s.Store.ListItems(ctx, cartID)
}

// Lines converts cart items into pricing cart lines, preserving order.
func Lines(items []Item) []pricing.CartLine {
	lines := make([]pricing.CartLine, 0, len(items))
	for _, it := range items {
		lines = append(lines, pricing.CartLine{
			ProductID:       it.ProductID,
			StoredUnitPrice: it.UnitPrice,
			Qty:             it.Qty,
			Size:            it.Size,
			Color:           it.Color,
		})
	}
	return lines
}

// PurgeUnavailable removes lines whose product is missing from or inactive in
// the live catalog. Purging only happens through this explicit call; quoting
// never mutates the cart.
func (s *Service) PurgeUnavailable(ctx context.Context, cartID string) (int, error) {
	if s == nil || s.Store == nil || s.Catalog == nil {
		return 0, errors.New("cart service not configured")
	}
	items, err := s.Items(ctx, cartID)
	if err != nil {
		return 0, err
	}
	if len(items) == 0 {
		return 0, nil
	}
	ids := make([]string, 0, len(items))
	for _, it := range items {
		ids = append(ids, it.ProductID)
	}
	snapshots, err := s.Catalog.Snapshots(ctx, ids)
	if err != nil {
		return 0, err
	}
	var doomed []string
	for _, it := range items {
		snap, ok := snapshots[it.ProductID]
		if !ok || !snap.Active {
			doomed = append(doomed, it.ID)
		}
	}
	if len(doomed) == 0 {
		return 0, nil
	}
	if err := s.Store.DeleteItems(ctx, cartID, doomed); err != nil {
		return 0, err
	}
	_ = s.Store.TouchCart(ctx, cartID, s.now().Add(s.ttl()))
	if s.Events != nil {
		payload := map[string]any{"cartId": cartID, "removed": len(doomed)}
		if _, err := s.Events.Emit(ctx, events.TopicCartPurged, cartID, payload); err != nil {
			s.Log.Error().Err(err).Str("cart_id", cartID).Msg("emit cart purged event")
		}
	}
	return len(doomed), nil
}
