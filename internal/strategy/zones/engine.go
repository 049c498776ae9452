package zones

import (
	"fmt"
	"sort"

	"sniperbot/internal/domain"
)

// Config holds the tunable thresholds of zone detection and lifecycle
// tracking.
type Config struct {
	Lookback         int     // bars scanned for zone formations, e.g. 40
	MitigationBuffer float64 // fraction of the zone midpoint, e.g. 0.001
	MissWindow       int     // bars after formation that define a MISS, e.g. 3
}

// Engine detects supply/demand zones on a candle series and tracks each
// zone's freshness lifecycle. All state is recomputed from the snapshot on
// every call; the engine itself is stateless and safe to share.
type Engine struct {
	cfg Config
}

// New creates a zone engine. Zero config fields fall back to the defaults
// used by the original protocol.
func New(cfg Config) (*Engine, error) {
	if cfg.Lookback == 0 {
		cfg.Lookback = 40
	}
	if cfg.MitigationBuffer == 0 {
		cfg.MitigationBuffer = 0.001
	}
	if cfg.MissWindow == 0 {
		cfg.MissWindow = 3
	}
	if cfg.Lookback < 2 {
		return nil, fmt.Errorf("zone lookback must be at least 2, got %d", cfg.Lookback)
	}
	if cfg.MitigationBuffer < 0 {
		return nil, fmt.Errorf("mitigation buffer cannot be negative")
	}
	if cfg.MissWindow <= 0 {
		return nil, fmt.Errorf("miss window must be positive")
	}
	return &Engine{cfg: cfg}, nil
}

// Scan returns the append-only zone store for the snapshot: every zone
// formed within the lookback, with lifecycle states resolved up to the
// present bar. FLIP children appear after their parents; a zone's ID is its
// position in the store plus one.
func (e *Engine) Scan(series domain.Series) []domain.Zone {
	candles := series.Candles
	if len(candles) < 2 {
		return nil
	}

	store := e.detect(candles)

	// Resolve lifecycles in formation order. Flips append children to the
	// store; children get their own lifecycle pass afterwards.
	var children []domain.Zone
	for i := range store {
		if child := e.resolve(&store[i], candles, len(store)+len(children)+1); child != nil {
			children = append(children, *child)
		}
	}
	for i := range children {
		e.resolveFlip(&children[i], candles)
	}
	return append(store, children...)
}

// detect classifies every adjacent candle pair within the lookback.
func (e *Engine) detect(candles []domain.Candle) []domain.Zone {
	start := len(candles) - e.cfg.Lookback
	if start < 0 {
		start = 0
	}

	var store []domain.Zone
	for i := start; i < len(candles)-1; i++ {
		c1, c2 := candles[i], candles[i+1]
		top := maxF(c1.Close, c2.Open)
		bottom := minF(c1.Close, c2.Open)
		if top <= bottom {
			continue
		}

		var kind domain.ZoneKind
		var dir domain.ZoneDirection
		switch {
		case c1.Bullish() && !c2.Bullish():
			kind, dir = domain.ZoneALevel, domain.Supply
		case !c1.Bullish() && c2.Bullish():
			kind, dir = domain.ZoneVLevel, domain.Demand
		default:
			// Same-direction pair with a gap between c1 close and c2 open.
			kind = domain.ZoneOCGap
			if c2.Close > c2.Open {
				dir = domain.Demand
			} else {
				dir = domain.Supply
			}
		}

		store = append(store, domain.Zone{
			ID:             len(store) + 1,
			Kind:           kind,
			Direction:      dir,
			Top:            top,
			Bottom:         bottom,
			FormationIndex: i,
			State:          domain.ZoneFresh,
		})
	}
	return store
}

// resolve walks the candles after a pair zone's formation and settles its
// state. A body close through the boundary flips the zone, returning the
// spawned opposite-direction child; a buffered wick touch mitigates it; a
// full miss window with no touch marks it MISS.
func (e *Engine) resolve(z *domain.Zone, candles []domain.Candle, childID int) *domain.Zone {
	// The zone forms across bars FormationIndex and FormationIndex+1.
	startCheck := z.FormationIndex + 2
	buffer := z.Mid() * e.cfg.MitigationBuffer
	missCount := 0

	for j := startCheck; j < len(candles); j++ {
		c := candles[j]

		// Body close through the boundary breaks the zone and flips it.
		if z.Direction == domain.Demand && c.BodyBottom() < z.Bottom {
			z.State = domain.ZoneFlipped
			return &domain.Zone{
				ID:             childID,
				Kind:           domain.ZoneFlip,
				Direction:      domain.Supply,
				Top:            z.Top,
				Bottom:         z.Bottom,
				FormationIndex: j,
				Lineage:        z.ID,
				State:          domain.ZoneFresh,
			}
		}
		if z.Direction == domain.Supply && c.BodyTop() > z.Top {
			z.State = domain.ZoneFlipped
			return &domain.Zone{
				ID:             childID,
				Kind:           domain.ZoneFlip,
				Direction:      domain.Demand,
				Top:            z.Top,
				Bottom:         z.Bottom,
				FormationIndex: j,
				Lineage:        z.ID,
				State:          domain.ZoneFresh,
			}
		}

		// A wick entering the buffered zone mitigates without flipping.
		if c.Low <= z.Top+buffer && c.High >= z.Bottom-buffer {
			z.State = domain.ZoneMitigated
			return nil
		}

		if j-startCheck < e.cfg.MissWindow {
			missCount++
		}
	}

	if z.State == domain.ZoneFresh && missCount >= e.cfg.MissWindow {
		z.State = domain.ZoneMiss
	}
	return nil
}

// resolveFlip settles a FLIP child's lifecycle from its flip bar onward.
// Children can be mitigated or missed but never re-flip.
func (e *Engine) resolveFlip(z *domain.Zone, candles []domain.Candle) {
	startCheck := z.FormationIndex + 1
	buffer := z.Mid() * e.cfg.MitigationBuffer
	missCount := 0

	for j := startCheck; j < len(candles); j++ {
		c := candles[j]
		if c.Low <= z.Top+buffer && c.High >= z.Bottom-buffer {
			z.State = domain.ZoneMitigated
			return
		}
		if j-startCheck < e.cfg.MissWindow {
			missCount++
		}
	}
	if missCount >= e.cfg.MissWindow {
		z.State = domain.ZoneMiss
	}
}

// FreshZones returns the eligible zones in the requested direction, ordered
// by priority: FLIP first, then MISS, then the rest by most recent
// formation. An empty result is the Layer-1 kill, not an error.
func (e *Engine) FreshZones(series domain.Series, dir domain.ZoneDirection) []domain.Zone {
	var out []domain.Zone
	for _, z := range e.Scan(series) {
		if z.Eligible() && z.Direction == dir {
			out = append(out, z)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		a, b := priorityRank(out[i]), priorityRank(out[j])
		if a != b {
			return a < b
		}
		return out[i].FormationIndex > out[j].FormationIndex
	})
	return out
}

// EligibleZones returns every still-eligible zone regardless of direction,
// as consumed by the roadblock screen.
func (e *Engine) EligibleZones(series domain.Series) []domain.Zone {
	var out []domain.Zone
	for _, z := range e.Scan(series) {
		if z.Eligible() {
			out = append(out, z)
		}
	}
	return out
}

func priorityRank(z domain.Zone) int {
	switch {
	case z.Kind == domain.ZoneFlip:
		return 0
	case z.State == domain.ZoneMiss:
		return 1
	default:
		return 2
	}
}

func maxF(a, b float64) float64 {
	if a > b {
		return a
	}
	return b
}

func minF(a, b float64) float64 {
	if a < b {
		return a
	}
	return b
}
