package catalog

import (
	"context"
	"errors"
	"fmt"

	"github.com/SnigdhoNext27/bliss-store-api/internal/pricing"
	"github.com/SnigdhoNext27/bliss-store-api/internal/resilience"
)

// SnapshotSource provides authoritative product snapshots.
type SnapshotSource interface {
	SnapshotsByIDs(ctx context.Context, ids []string) (map[string]pricing.ProductSnapshot, error)
}

// Service serves live product snapshots with a short-lived cache in front of
// the store. Cache misses and cache errors fall through to the store; only a
// store failure propagates, wrapped as ErrUnreachable.
// A breaker, when configured, sheds load while the store is failing;
// refused requests surface as ErrUnreachable so callers treat them like
// any other catalog outage.
type Service struct {
	Source  SnapshotSource
	Cache   *Cache
	Breaker *resilience.Breaker
}

const snapshotKeyPrefix = "catalog:snapshot:"

// Snapshots resolves the current snapshot for every requested product id.
// Products unknown to the catalog are absent from the returned map.
func (s *Service) Snapshots(ctx context.Context, ids []string) (map[string]pricing.ProductSnapshot, error) {
	if s == nil || s.Source == nil {
		return nil, errors.New("catalog service not configured")
	}
	unique := dedupe(ids)
	out := make(map[string]pricing.ProductSnapshot, len(unique))
	missing := make([]string, 0, len(unique))
	for _, id := range unique {
		var snap pricing.ProductSnapshot
		found, err := s.Cache.GetJSON(ctx, snapshotKeyPrefix+id, &snap)
		if err == nil && found && snap.ProductID == id {
			out[id] = snap
			continue
		}
		missing = append(missing, id)
	}
	if len(missing) == 0 {
		return out, nil
	}
	if s.Breaker != nil && !s.Breaker.Allow(ctx) {
		return nil, fmt.Errorf("catalog store refused by breaker: %w", ErrUnreachable)
	}
	fetched, err := s.Source.SnapshotsByIDs(ctx, missing)
	if s.Breaker != nil {
		s.Breaker.Report(ctx, err == nil)
	}
	if err != nil {
		return nil, err
	}
	for id, snap := range fetched {
		out[id] = snap
		_ = s.Cache.SetJSON(ctx, snapshotKeyPrefix+id, snap)
	}
	return out, nil
}

func dedupe(ids []string) []string {
	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if id == "" {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
