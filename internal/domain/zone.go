package domain

// ZoneKind classifies how a supply/demand zone was formed.
type ZoneKind string

const (
	ZoneALevel ZoneKind = "A"    // bullish candle followed by bearish candle
	ZoneVLevel ZoneKind = "V"    // bearish candle followed by bullish candle
	ZoneOCGap  ZoneKind = "OC"   // same-direction pair with an open/close gap
	ZoneFlip   ZoneKind = "FLIP" // spawned by a body break of another zone
)

// ZoneDirection is the side of the market a zone represents.
type ZoneDirection string

const (
	Supply ZoneDirection = "supply"
	Demand ZoneDirection = "demand"
)

// Opposite returns the other zone direction.
func (d ZoneDirection) Opposite() ZoneDirection {
	if d == Supply {
		return Demand
	}
	return Supply
}

// ZoneState is a zone's freshness lifecycle state. FRESH and MISS remain
// tradeable; MITIGATED and FLIPPED are terminal and never revert.
type ZoneState string

const (
	ZoneFresh     ZoneState = "FRESH"
	ZoneMiss      ZoneState = "MISS"
	ZoneMitigated ZoneState = "MITIGATED"
	ZoneFlipped   ZoneState = "FLIPPED"
)

// Zone is a candidate institutional supply or demand price interval.
// Zones live in an append-only store per scan; a FLIP spawns a new Zone with
// its own lifecycle and a Lineage back-reference, never mutating the parent's
// identity. Invariant: Top >= Bottom.
type Zone struct {
	ID             int
	Kind           ZoneKind
	Direction      ZoneDirection
	Top            float64
	Bottom         float64
	FormationIndex int // index of the bar the zone's lifecycle clock starts at
	Lineage        int // parent zone ID for FLIP zones, 0 otherwise
	State          ZoneState
}

// Eligible reports whether the zone can still anchor a trade.
func (z Zone) Eligible() bool {
	return z.State == ZoneFresh || z.State == ZoneMiss
}

// Mid returns the zone midpoint price.
func (z Zone) Mid() float64 { return (z.Top + z.Bottom) / 2 }

// SameBounds reports whether another zone covers the identical price interval.
func (z Zone) SameBounds(o Zone) bool {
	return z.Top == o.Top && z.Bottom == o.Bottom
}
