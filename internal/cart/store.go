package cart

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/SnigdhoNext27/bliss-store-api/internal/pricing"
)

// ErrNotFound indicates the requested cart or cart item could not be located.
var ErrNotFound = errors.New("cart not found")

// Cart is a guest shopping cart. Carts are keyed by an anonymous id issued to
// the browser; they expire after a configured idle period.
type Cart struct {
	ID        string
	AnonID    string
	CreatedAt time.Time
	UpdatedAt time.Time
	ExpiresAt time.Time
}

// Item is a single cart line. UnitPrice is the catalog price at the moment
// the line was added; totals always re-resolve against the live catalog.
type Item struct {
	ID        string
	CartID    string
	ProductID string
	Qty       int
	UnitPrice pricing.Money
	Size      string
	Color     string
	CreatedAt time.Time
}

// Store abstracts cart persistence.
type Store interface {
	CreateCart(ctx context.Context, c Cart) error
	GetCart(ctx context.Context, id string) (Cart, error)
	GetCartByAnon(ctx context.Context, anonID string) (Cart, error)
	TouchCart(ctx context.Context, id string, expiresAt time.Time) error
	ListItems(ctx context.Context, cartID string) ([]Item, error)
	FindItem(ctx context.Context, cartID, productID, size, color string) (Item, error)
	InsertItem(ctx context.Context, it Item) error
	UpdateItemQty(ctx context.Context, itemID string, qty int) error
	DeleteItem(ctx context.Context, cartID, itemID string) error
	DeleteItems(ctx context.Context, cartID string, itemIDs []string) error
}

// PGStore implements Store on postgres.
type PGStore struct {
	Pool *pgxpool.Pool
}

func (s *PGStore) CreateCart(ctx context.Context, c Cart) error {
	_, err := s.Pool.Exec(ctx,
		`INSERT INTO carts (id, anon_id, expires_at) VALUES ($1, $2, $3)`,
		c.ID, c.AnonID, c.ExpiresAt)
	if err != nil {
		return fmt.Errorf("insert cart: %w", err)
	}
	return nil
}

func (s *PGStore) GetCart(ctx context.Context, id string) (Cart, error) {
	row := s.Pool.QueryRow(ctx,
		`SELECT id, anon_id, created_at, updated_at, expires_at FROM carts WHERE id = $1`, id)
	return scanCart(row)
}

func (s *PGStore) GetCartByAnon(ctx context.Context, anonID string) (Cart, error) {
	row := s.Pool.QueryRow(ctx,
		`SELECT id, anon_id, created_at, updated_at, expires_at
		 FROM carts WHERE anon_id = $1 AND expires_at > now()
		 ORDER BY created_at DESC LIMIT 1`, anonID)
	return scanCart(row)
}

func (s *PGStore) TouchCart(ctx context.Context, id string, expiresAt time.Time) error {
	_, err := s.Pool.Exec(ctx,
		`UPDATE carts SET updated_at = now(), expires_at = $2 WHERE id = $1`, id, expiresAt)
	return err
}

func (s *PGStore) ListItems(ctx context.Context, cartID string) ([]Item, error) {
	rows, err := s.Pool.Query(ctx,
		`SELECT id, cart_id, product_id, qty, unit_price, size, color, created_at
		 FROM cart_items WHERE cart_id = $1 ORDER BY created_at, id`, cartID)
	if err != nil {
		return nil, fmt.Errorf("list cart items: %w", err)
	}
	defer rows.Close()
	var items []Item
	for rows.Next() {
		var it Item
		if err := rows.Scan(&it.ID, &it.CartID, &it.ProductID, &it.Qty, &it.UnitPrice, &it.Size, &it.Color, &it.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan cart item: %w", err)
		}
		items = append(items, it)
	}
	return items, rows.Err()
}

func (s *PGStore) FindItem(ctx context.Context, cartID, productID, size, color string) (Item, error) {
	row := s.Pool.QueryRow(ctx,
		`SELECT id, cart_id, product_id, qty, unit_price, size, color, created_at
		 FROM cart_items WHERE cart_id = $1 AND product_id = $2 AND size = $3 AND color = $4`,
		cartID, productID, size, color)
	return scanItem(row)
}

func (s *PGStore) InsertItem(ctx context.Context, it Item) error {
	_, err := s.Pool.Exec(ctx,
		`INSERT INTO cart_items (id, cart_id, product_id, qty, unit_price, size, color)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		it.ID, it.CartID, it.ProductID, it.Qty, it.UnitPrice, it.Size, it.Color)
	if err != nil {
		return fmt.Errorf("insert cart item: %w", err)
	}
	return nil
}

func (s *PGStore) UpdateItemQty(ctx context.Context, itemID string, qty int) error {
	tag, err := s.Pool.Exec(ctx,
		`UPDATE cart_items SET qty = $2 WHERE id = $1`, itemID, qty)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *PGStore) DeleteItem(ctx context.Context, cartID, itemID string) error {
	_, err := s.Pool.Exec(ctx,
		`DELETE FROM cart_items WHERE id = $1 AND cart_id = $2`, itemID, cartID)
	return err
}

func (s *PGStore) DeleteItems(ctx context.Context, cartID string, itemIDs []string) error {
	if len(itemIDs) == 0 {
		return nil
	}
	_, err := s.Pool.Exec(ctx,
		`DELETE FROM cart_items WHERE cart_id = $1 AND id = ANY($2)`, cartID, itemIDs)
	return err
}

func scanCart(row pgx.Row) (Cart, error) {
	var c Cart
	err := row.Scan(&c.ID, &c.AnonID, &c.CreatedAt, &c.UpdatedAt, &c.ExpiresAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return Cart{}, ErrNotFound
	}
	return c, err
}

func scanItem(row pgx.Row) (Item, error) {
	var it Item
	err := row.Scan(&it.ID, &it.CartID, &it.ProductID, &it.Qty, &it.UnitPrice, &it.Size, &it.Color, &it.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return Item{}, ErrNotFound
	}
	return it, err
}
