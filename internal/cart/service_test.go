package cart

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/SnigdhoNext27/bliss-store-api/internal/events"
	"github.com/SnigdhoNext27/bliss-store-api/internal/pricing"
)

type memStore struct {
	carts map[string]Cart
	items map[string]Item
}

func newMemStore() *memStore {
	return &memStore{carts: map[string]Cart{}, items: map[string]Item{}}
}

func (m *memStore) CreateCart(_ context.Context, c Cart) error {
	m.carts[c.ID] = c
	return nil
}

func (m *memStore) GetCart(_ context.Context, id string) (Cart, error) {
	c, ok := m.carts[id]
	if !ok {
		return Cart{}, ErrNotFound
	}
	return c, nil
}

func (m *memStore) GetCartByAnon(_ context.Context, anonID string) (Cart, error) {
	for _, c := range m.carts {
		if c.AnonID == anonID {
			return c, nil
		}
	}
	return Cart{}, ErrNotFound
}

func (m *memStore) TouchCart(_ context.Context, id string, expiresAt time.Time) error {
	c, ok := m.carts[id]
	if !ok {
		return ErrNotFound
	}
	c.ExpiresAt = expiresAt
	m.carts[id] = c
	return nil
}

func (m *memStore) ListItems(_ context.Context, cartID string) ([]Item, error) {
	var out []Item
	for _, it := range m.items {
		if it.CartID == cartID {
			out = append(out, it)
		}
	}
	return out, nil
}

func (m *memStore) FindItem(_ context.Context, cartID, productID, size, color string) (Item, error) {
	for _, it := range m.items {
		if it.CartID == cartID && it.ProductID == productID && it.Size == size && it.Color == color {
			return it, nil
		}
	}
	return Item{}, ErrNotFound
}

func (m *memStore) InsertItem(_ context.Context, it Item) error {
	m.items[it.ID] = it
	return nil
}

func (m *memStore) UpdateItemQty(_ context.Context, itemID string, qty int) error {
	it, ok := m.items[itemID]
	if !ok {
		return ErrNotFound
	}
	it.Qty = qty
	m.items[itemID] = it
	return nil
}

func (m *memStore) DeleteItem(_ context.Context, cartID, itemID string) error {
	it, ok := m.items[itemID]
	if !ok || it.CartID != cartID {
		return ErrNotFound
	}
	delete(m.items, itemID)
	return nil
}

func (m *memStore) DeleteItems(_ context.Context, cartID string, itemIDs []string) error {
	for _, id := range itemIDs {
		if it, ok := m.items[id]; ok && it.CartID == cartID {
			delete(m.items, id)
		}
	}
	return nil
}

type stubCatalog struct {
	snaps map[string]pricing.ProductSnapshot
	err   error
}

func (s *stubCatalog) Snapshots(_ context.Context, ids []string) (map[string]pricing.ProductSnapshot, error) {
	if s.err != nil {
		return nil, s.err
	}
	out := map[string]pricing.ProductSnapshot{}
	for _, id := range ids {
		if snap, ok := s.snaps[id]; ok {
			out[id] = snap
		}
	}
	return out, nil
}

func newTestService(store Store, cat SnapshotProvider) *Service {
	return &Service{
		Store:   store,
		Catalog: cat,
		TTL:     time.Hour,
		Now:     func() time.Time { return time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC) },
	}
}

func TestEnsureCartCreatesThenReuses(t *testing.T) {
	store := newMemStore()
	svc := newTestService(store, &stubCatalog{})

	first, err := svc.EnsureCart(context.Background(), "anon-1")
	if err != nil {
		t.Fatalf("EnsureCart: %v", err)
	}
	if first.ID == "" {
		t.Fatal("expected generated cart id")
	}

	second, err := svc.EnsureCart(context.Background(), "anon-1")
	if err != nil {
		t.Fatalf("EnsureCart repeat: %v", err)
	}
	if second.ID != first.ID {
		t.Fatalf("expected same cart, got %s and %s", first.ID, second.ID)
	}
	if len(store.carts) != 1 {
		t.Fatalf("expected 1 cart, got %d", len(store.carts))
	}
}

func TestEnsureCartRequiresAnonID(t *testing.T) {
	svc := newTestService(newMemStore(), &stubCatalog{})
	if _, err := svc.EnsureCart(context.Background(), "  "); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
}

func TestAddItemCapturesLivePrice(t *testing.T) {
	store := newMemStore()
	cat := &stubCatalog{snaps: map[string]pricing.ProductSnapshot{
		"shirt-red": {ProductID: "shirt-red", UnitPrice: 1480, Active: true, Stock: 5},
	}}
	svc := newTestService(store, cat)

	c, err := svc.EnsureCart(context.Background(), "anon-1")
	if err != nil {
		t.Fatalf("EnsureCart: %v", err)
	}
	if err := svc.AddItem(context.Background(), c.ID, "shirt-red", "M", "red", 2); err != nil {
		t.Fatalf("AddItem: %v", err)
	}

	items, err := svc.Items(context.Background(), c.ID)
	if err != nil {
		t.Fatalf("Items: %v", err)
	}
	if len(items) != 1 {
		t.Fatalf("expected 1 item, got %d", len(items))
	}
	if items[0].UnitPrice != 1480 {
		t.Fatalf("expected captured unit price 1480, got %d", items[0].UnitPrice)
	}
}

func TestAddItemIncrementsExistingLine(t *testing.T) {
	store := newMemStore()
	cat := &stubCatalog{snaps: map[string]pricing.ProductSnapshot{
		"shirt-red": {ProductID: "shirt-red", UnitPrice: 1480, Active: true, Stock: 5},
	}}
	svc := newTestService(store, cat)

	c, _ := svc.EnsureCart(context.Background(), "anon-1")
	if err := svc.AddItem(context.Background(), c.ID, "shirt-red", "M", "red", 2); err != nil {
		t.Fatalf("AddItem: %v", err)
	}
	if err := svc.AddItem(context.Background(), c.ID, "shirt-red", "M", "red", 3); err != nil {
		t.Fatalf("AddItem repeat: %v", err)
	}

	items, _ := svc.Items(context.Background(), c.ID)
	if len(items) != 1 {
		t.Fatalf("expected single merged line, got %d", len(items))
	}
	if items[0].Qty != 5 {
		t.Fatalf("expected qty 5, got %d", items[0].Qty)
	}
}

func TestAddItemRejectsInactiveProduct(t *testing.T) {
	store := newMemStore()
	cat := &stubCatalog{snaps: map[string]pricing.ProductSnapshot{
		"retired": {ProductID: "retired", UnitPrice: 900, Active: false, Stock: 5},
	}}
	svc := newTestService(store, cat)

	c, _ := svc.EnsureCart(context.Background(), "anon-1")
	if err := svc.AddItem(context.Background(), c.ID, "retired", "", "", 1); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput for inactive product, got %v", err)
	}
	if err := svc.AddItem(context.Background(), c.ID, "ghost", "", "", 1); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput for unknown product, got %v", err)
	}
}

func TestPurgeUnavailableRemovesOnlyDeadLines(t *testing.T) {
	store := newMemStore()
	cat := &stubCatalog{snaps: map[string]pricing.ProductSnapshot{
		"alive":   {ProductID: "alive", UnitPrice: 500, Active: true, Stock: 3},
		"retired": {ProductID: "retired", UnitPrice: 900, Active: true, Stock: 3},
	}}
	svc := newTestService(store, cat)

	c, _ := svc.EnsureCart(context.Background(), "anon-1")
	if err := svc.AddItem(context.Background(), c.ID, "alive", "", "", 1); err != nil {
		t.Fatalf("AddItem alive: %v", err)
	}
	if err := svc.AddItem(context.Background(), c.ID, "retired", "", "", 1); err != nil {
		t.Fatalf("AddItem retired: %v", err)
	}

	// Product goes away after it was added to the cart.
	snap := cat.snaps["retired"]
	snap.Active = false
	cat.snaps["retired"] = snap

	removed, err := svc.PurgeUnavailable(context.Background(), c.ID)
	if err != nil {
		t.Fatalf("PurgeUnavailable: %v", err)
	}
	if removed != 1 {
		t.Fatalf("expected 1 removed, got %d", removed)
	}

	items, _ := svc.Items(context.Background(), c.ID)
	if len(items) != 1 || items[0].ProductID != "alive" {
		t.Fatalf("expected only the live line to survive, got %+v", items)
	}
}

type recordingEventStore struct {
	events []events.Event
}

func (r *recordingEventStore) InsertDomainEvent(_ context.Context, ev events.Event) (events.Event, error) {
	r.events = append(r.events, ev)
	return ev, nil
}

func TestPurgeUnavailableEmitsCartPurgedEvent(t *testing.T) {
	store := newMemStore()
	cat := &stubCatalog{snaps: map[string]pricing.ProductSnapshot{
		"gone": {ProductID: "gone", UnitPrice: 700, Active: true, Stock: 1},
	}}
	eventStore := &recordingEventStore{}
	svc := newTestService(store, cat)
	svc.Events = &events.Bus{Store: eventStore}

	c, _ := svc.EnsureCart(context.Background(), "anon-evt")
	if err := svc.AddItem(context.Background(), c.ID, "gone", "", "", 1); err != nil {
		t.Fatalf("AddItem: %v", err)
	}
	delete(cat.snaps, "gone")

	removed, err := svc.PurgeUnavailable(context.Background(), c.ID)
	if err != nil {
		t.Fatalf("PurgeUnavailable: %v", err)
	}
	if removed != 1 {
		t.Fatalf("expected 1 removed, got %d", removed)
	}
	if len(eventStore.events) != 1 {
		t.Fatalf("expected one event, got %d", len(eventStore.events))
	}
	ev := eventStore.events[0]
	if ev.Topic != events.TopicCartPurged || ev.AggregateID != c.ID {
		t.Fatalf("unexpected event %+v", ev)
	}
}

func TestPurgeUnavailableWithNothingToRemoveEmitsNothing(t *testing.T) {
	store := newMemStore()
	cat := &stubCatalog{snaps: map[string]pricing.ProductSnapshot{
		"alive": {ProductID: "alive", UnitPrice: 500, Active: true, Stock: 3},
	}}
	eventStore := &recordingEventStore{}
	svc := newTestService(store, cat)
	svc.Events = &events.Bus{Store: eventStore}

	c, _ := svc.EnsureCart(context.Background(), "anon-noop")
	if err := svc.AddItem(context.Background(), c.ID, "alive", "", "", 1); err != nil {
		t.Fatalf("AddItem: %v", err)
	}

	removed, err := svc.PurgeUnavailable(context.Background(), c.ID)
	if err != nil {
		t.Fatalf("PurgeUnavailable: %v", err)
	}
	if removed != 0 {
		t.Fatalf("expected 0 removed, got %d", removed)
	}
	if len(eventStore.events) != 0 {
		t.Fatalf("expected no events, got %d", len(eventStore.events))
	}
}

func TestLinesPreservesItemData(t *testing.T) {
	items := []Item{
		{ProductID: "a", Qty: 2, UnitPrice: 100, Size: "M", Color: "red"},
		{ProductID: "b", Qty: 1, UnitPrice: 250},
	}
	lines := Lines(items)
	if len(lines) != 2 {
		t.Fatalf("expected 2 lines, got %d", len(lines))
	}
	if lines[0].ProductID != "a" || lines[0].Qty != 2 || lines[0].StoredUnitPrice != 100 {
		t.Fatalf("unexpected first line %+v", lines[0])
	}
	if lines[1].StoredUnitPrice != 250 {
		t.Fatalf("unexpected second line %+v", lines[1])
	}
}
