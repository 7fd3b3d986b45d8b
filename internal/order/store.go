package order

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/SnigdhoNext27/bliss-store-api/internal/pricing"
)

var ErrNotFound = errors.New("order not found")

// Status values an order moves through.
const (
	StatusConfirmed = "CONFIRMED"
	StatusCanceled  = "CANCELED"
)

// Order is a persisted order with its frozen total breakdown.
type Order struct {
	ID              string
	AnonID          string
	CartID          string
	Status          string
	Zone            string
	GiftWrap        bool
	Subtotal        pricing.Money
	BulkDiscount    pricing.Money
	LoyaltyDiscount pricing.Money
	PointsApplied   int64
	DeliveryFee     pricing.Money
	GiftWrapFee     pricing.Money
	TotalPayable    pricing.Money
	CreatedAt       time.Time
}

// Item is a persisted order line with the reconciliation outcome frozen
// at checkout time.
type Item struct {
	ID           string
	OrderID      string
	ProductID    string
	Qty          int
	Size         string
	Color        string
	StoredPrice  pricing.Money
	LivePrice    pricing.Money
	PriceChanged bool
	LineTotal    pricing.Money
}

// Store persists orders.
type Store interface {
	Create(ctx context.Context, o Order, items []Item) error
	Get(ctx context.Context, id string) (Order, []Item, error)
	ListByAnon(ctx context.Context, anonID string, limit, offset int) ([]Order, error)
	CountByAnon(ctx context.Context, anonID string) (int64, error)
	UpdateStatus(ctx context.Context, id, status string) error
}

// PGStore is the postgres-backed order store.
type PGStore struct {
	Pool *pgxpool.Pool
}

const orderColumns = `id, anon_id, cart_id, status, zone, gift_wrap,
	subtotal, bulk_discount, loyalty_discount, points_applied,
	delivery_fee, gift_wrap_fee, total_payable, created_at`

// Create writes the order and its items in one transaction.
func (s *PGStore) Create(ctx context.Context, o Order, items []Item) error {
	tx, err := s.Pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()
	if _, err := tx.Exec(ctx, `
		INSERT INTO orders (id, anon_id, cart_id, status, zone, gift_wrap,
			subtotal, bulk_discount, loyalty_discount, points_applied,
			delivery_fee, gift_wrap_fee, total_payable)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13)`,
		o.ID, o.AnonID, o.CartID, o.Status, o.Zone, o.GiftWrap,
		o.Subtotal, o.BulkDiscount, o.LoyaltyDiscount, o.PointsApplied,
		o.DeliveryFee, o.GiftWrapFee, o.TotalPayable,
	); err != nil {
		return err
	}
	for _, it := range items {
		if _, err := tx.Exec(ctx, `
			INSERT INTO order_items (id, order_id, product_id, qty, size, color,
				stored_price, live_price, price_changed, line_total)
			VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)`,
			it.ID, it.OrderID, it.ProductID, it.Qty, it.Size, it.Color,
			it.StoredPrice, it.LivePrice, it.PriceChanged, it.LineTotal,
		); err != nil {
			return err
		}
	}
	return tx.Commit(ctx)
}

func (s *PGStore) Get(ctx context.Context, id string) (Order, []Item, error) {
	row := s.Pool.QueryRow(ctx, `SELECT `+orderColumns+` FROM orders WHERE id = $1`, id)
	o, err := scanOrder(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Order{}, nil, ErrNotFound
		}
		return Order{}, nil, err
	}
	rows, err := s.Pool.Query(ctx, `
		SELECT id, order_id, product_id, qty, size, color,
			stored_price, live_price, price_changed, line_total
		FROM order_items WHERE order_id = $1 ORDER BY id`, id)
	if err != nil {
		return Order{}, nil, err
	}
	defer rows.Close()
	var items []Item
	for rows.Next() {
		var it Item
		if err := rows.Scan(&it.ID, &it.OrderID, &it.ProductID, &it.Qty, &it.Size, &it.Color,
			&it.StoredPrice, &it.LivePrice, &it.PriceChanged, &it.LineTotal); err != nil {
			return Order{}, nil, err
		}
		items = append(items, it)
	}
	return o, items, rows.Err()
}

func (s *PGStore) ListByAnon(ctx context.Context, anonID string, limit, offset int) ([]Order, error) {
	rows, err := s.Pool.Query(ctx, `
		SELECT `+orderColumns+` FROM orders
		WHERE anon_id = $1 ORDER BY created_at DESC LIMIT $2 OFFSET $3`,
		anonID, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Order
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, o)
	}
	return out, rows.Err()
}

func (s *PGStore) CountByAnon(ctx context.Context, anonID string) (int64, error) {
	var n int64
	err := s.Pool.QueryRow(ctx, `SELECT COUNT(*) FROM orders WHERE anon_id = $1`, anonID).Scan(&n)
	return n, err
}

func (s *PGStore) UpdateStatus(ctx context.Context, id, status string) error {
	tag, err := s.Pool.Exec(ctx, `UPDATE orders SET status = $2 WHERE id = $1`, id, status)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func scanOrder(row pgx.Row) (Order, error) {
	var o Order
	err := row.Scan(&o.ID, &o.AnonID, &o.CartID, &o.Status, &o.Zone, &o.GiftWrap,
		&o.Subtotal, &o.BulkDiscount, &o.LoyaltyDiscount, &o.PointsApplied,
		&o.DeliveryFee, &o.GiftWrapFee, &o.TotalPayable, &o.CreatedAt)
	return o, err
}
