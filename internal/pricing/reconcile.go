package pricing

// Money represents a monetary value in whole currency units. The storefront
// has no fractional currency, so every amount is an integer.
type Money = int64

// CartLine is a single cart entry as stored when the customer added it.
// StoredUnitPrice is the price at add-to-cart time and is informational only;
// totals are always computed from the live catalog price.
type CartLine struct {
	ProductID       string
	StoredUnitPrice Money
	Qty             int
	Size            string
	Color           string
}

// ProductSnapshot is the current catalog state for a product at quote time.
type ProductSnapshot struct {
	ProductID string
	UnitPrice Money
	Active    bool
	Stock     int
}

// ReconciledLine is a cart line resolved against the live catalog.
// Unavailable lines contribute zero to the subtotal but remain in the result
// so the customer can see and remove them.
type ReconciledLine struct {
	ProductID    string
	Qty          int
	Size         string
	Color        string
	StoredPrice  Money
	LivePrice    Money
	PriceChanged bool
	Unavailable  bool
	LineTotal    Money
}

// Reconcile resolves each cart line against the catalog snapshot, preserving
// line order. A missing or inactive product marks the line unavailable;
// unavailability takes precedence over price-change flagging. The function is
// pure: purging unavailable lines is an explicit caller action.
func Reconcile(lines []CartLine, catalog map[string]ProductSnapshot) []ReconciledLine {
	out := make([]ReconciledLine, 0, len(lines))
	for _, line := range lines {
		rl := ReconciledLine{
			ProductID:   line.ProductID,
			Qty:         line.Qty,
			Size:        line.Size,
			Color:       line.Color,
			StoredPrice: line.StoredUnitPrice,
		}
		snap, ok := catalog[line.ProductID]
		if !ok || !snap.Active {
			rl.Unavailable = true
			out = append(out, rl)
			continue
		}
		rl.LivePrice = snap.UnitPrice
		rl.PriceChanged = snap.UnitPrice != line.StoredUnitPrice
		if line.Qty > 0 && snap.UnitPrice > 0 {
			rl.LineTotal = Money(line.Qty) * snap.UnitPrice
		}
		out = append(out, rl)
	}
	return out
}

// AvailableSubtotal sums line totals over available lines.
func AvailableSubtotal(lines []ReconciledLine) Money {
	var subtotal Money
	for _, l := range lines {
		if l.Unavailable {
			continue
		}
		subtotal += l.LineTotal
	}
	return subtotal
}

// AvailableQty sums quantities over available lines.
func AvailableQty(lines []ReconciledLine) int {
	var qty int
	for _, l := range lines {
		if l.Unavailable || l.Qty <= 0 {
			continue
		}
		qty += l.Qty
	}
	return qty
}
