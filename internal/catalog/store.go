package catalog

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/SnigdhoNext27/bliss-store-api/internal/pricing"
)

// ErrUnreachable indicates the catalog could not be consulted at all. Quotes
// must not be computed in this state; callers surface a retryable error
// instead of degrading every line to unavailable.
var ErrUnreachable = errors.New("catalog: unreachable")

// Store reads product snapshots from postgres.
type Store struct {
	Pool *pgxpool.Pool
}

// SnapshotsByIDs fetches the current snapshot for each requested product.
// Products absent from the result are simply missing from the catalog; only a
// query failure is an error.
func (s *Store) SnapshotsByIDs(ctx context.Context, ids []string) (map[string]pricing.ProductSnapshot, error) {
	if s == nil || s.Pool == nil {
		return nil, fmt.Errorf("catalog store not configured: %w", ErrUnreachable)
	}
	out := make(map[string]pricing.ProductSnapshot, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	rows, err := s.Pool.Query(ctx,
		`SELECT id, price, is_active, stock FROM products WHERE id = ANY($1)`, ids)
	if err != nil {
		return nil, fmt.Errorf("query products: %w: %w", err, ErrUnreachable)
	}
	defer rows.Close()
	for rows.Next() {
		var snap pricing.ProductSnapshot
		if err := rows.Scan(&snap.ProductID, &snap.UnitPrice, &snap.Active, &snap.Stock); err != nil {
			return nil, fmt.Errorf("scan product: %w: %w", err, ErrUnreachable)
		}
		out[snap.ProductID] = snap
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate products: %w: %w", err, ErrUnreachable)
	}
	return out, nil
}
