package catalog_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"github.com/SnigdhoNext27/bliss-store-api/internal/catalog"
	"github.com/SnigdhoNext27/bliss-store-api/internal/pricing"
	"github.com/SnigdhoNext27/bliss-store-api/internal/resilience"
)

type stubSource struct {
	snapshots map[string]pricing.ProductSnapshot
	calls     int
	err       error
}

func (s *stubSource) SnapshotsByIDs(_ context.Context, ids []string) (map[string]pricing.ProductSnapshot, error) {
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	out := make(map[string]pricing.ProductSnapshot)
	for _, id := range ids {
		if snap, ok := s.snapshots[id]; ok {
			out[id] = snap
		}
	}
	return out, nil
}

func TestSnapshotsCached(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("start miniredis: %v", err)
	}
	defer mr.Close()
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})

	source := &stubSource{snapshots: map[string]pricing.ProductSnapshot{
		"p1": {ProductID: "p1", UnitPrice: 500, Active: true, Stock: 3},
	}}
	svc := &catalog.Service{Source: source, Cache: catalog.NewCache(rdb, time.Minute)}

	first, err := svc.Snapshots(context.Background(), []string{"p1"})
	if err != nil {
		t.Fatalf("first call: %v", err)
	}
	second, err := svc.Snapshots(context.Background(), []string{"p1"})
	if err != nil {
		t.Fatalf("second call: %v", err)
	}
	if source.calls != 1 {
		t.Fatalf("expected 1 store call, got %d", source.calls)
	}
	if first["p1"].UnitPrice != 500 || second["p1"].UnitPrice != 500 {
		t.Fatalf("unexpected prices: %+v %+v", first["p1"], second["p1"])
	}
}

func TestSnapshotsMissingProductAbsent(t *testing.T) {
	svc := &catalog.Service{Source: &stubSource{snapshots: map[string]pricing.ProductSnapshot{}}}
	out, err := svc.Snapshots(context.Background(), []string{"ghost", "ghost", ""})
	if err != nil {
		t.Fatalf("snapshots: %v", err)
	}
	if len(out) != 0 {
		t.Fatalf("expected empty map, got %+v", out)
	}
}

func TestSnapshotsStoreFailurePropagates(t *testing.T) {
	svc := &catalog.Service{Source: &stubSource{err: catalog.ErrUnreachable}}
	_, err := svc.Snapshots(context.Background(), []string{"p1"})
	if !errors.Is(err, catalog.ErrUnreachable) {
		t.Fatalf("expected ErrUnreachable, got %v", err)
	}
}

func TestSnapshotsBreakerShedsLoadWhileOpen(t *testing.T) {
	source := &stubSource{err: errors.New("connection refused")}
	svc := &catalog.Service{
		Source:  source,
		Breaker: resilience.NewBreaker(1, 1, time.Minute),
	}

	if _, err := svc.Snapshots(context.Background(), []string{"p1"}); err == nil {
		t.Fatal("expected store failure")
	}
	callsAfterFailure := source.calls

	_, err := svc.Snapshots(context.Background(), []string{"p1"})
	if !errors.Is(err, catalog.ErrUnreachable) {
		t.Fatalf("expected ErrUnreachable from open breaker, got %v", err)
	}
	if source.calls != callsAfterFailure {
		t.Fatalf("expected no additional store calls while open, got %d", source.calls)
	}
}
