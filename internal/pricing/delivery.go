package pricing

import "strings"

// Zone identifies the delivery area the customer selected.
type Zone string

const (
	// ZoneInside covers addresses within the primary delivery area.
	ZoneInside Zone = "insideZone"
	// ZoneOutside covers everything else.
	ZoneOutside Zone = "outsideZone"
)

// FeeTable maps delivery zones to flat fees, sourced from configuration.
type FeeTable struct {
	InsideZone  Money
	OutsideZone Money
}

// Resolve returns the fee for the selected zone. Unknown or missing
// selections fall back to the outside-zone fee so a malformed request can
// never under-charge delivery.
func (t FeeTable) Resolve(zone Zone) Money {
	if zone == ZoneInside {
		return t.InsideZone
	}
	return t.OutsideZone
}

// ParseZone normalises a wire value into a Zone. Anything unrecognised maps
// to ZoneOutside, matching the fail-safe in Resolve.
func ParseZone(value string) Zone {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "insidezone", "inside", "inside_zone":
		return ZoneInside
	default:
		return ZoneOutside
	}
}
