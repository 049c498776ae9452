package filters

import (
	"fmt"
	"math"

	"sniperbot/internal/domain"
)

// RoadblockConfig holds the reward:risk screening threshold.
type RoadblockConfig struct {
	MinRR float64 // minimum reward:risk to the nearest blocker, e.g. 2.0
}

// RoadblockFilter screens the path from entry to target for intervening
// opposing fresh zones that would cap the reward.
type RoadblockFilter struct {
	cfg RoadblockConfig
}

// NewRoadblock creates a roadblock filter.
func NewRoadblock(cfg RoadblockConfig) (*RoadblockFilter, error) {
	if cfg.MinRR == 0 {
		cfg.MinRR = 2.0
	}
	if cfg.MinRR < 0 {
		return nil, fmt.Errorf("minimum RR cannot be negative")
	}
	return &RoadblockFilter{cfg: cfg}, nil
}

// Check finds the nearest opposing fresh zone strictly between entry and
// target. The verdict passes when no such zone exists (RR is +Inf) or the
// nearest one sits at least MinRR risk distances away; a blocker at exactly
// MinRR×risk passes.
func (f *RoadblockFilter) Check(entry float64, dir domain.Direction, zones []domain.Zone, riskDistance, tpTarget float64) domain.RoadblockVerdict {
	if riskDistance <= 0 {
		return domain.RoadblockVerdict{Pass: true, RR: math.Inf(1)}
	}

	var nearest *domain.Zone
	nearestDist := math.Inf(1)

	for i := range zones {
		z := zones[i]
		var d float64
		if dir == domain.Buy {
			if z.Direction != domain.Supply || z.Bottom <= entry || z.Bottom >= tpTarget {
				continue
			}
			d = z.Bottom - entry
		} else {
			if z.Direction != domain.Demand || z.Top >= entry || z.Top <= tpTarget {
				continue
			}
			d = entry - z.Top
		}
		if d < nearestDist {
			nearestDist = d
			nearest = &zones[i]
		}
	}

	if nearest == nil {
		return domain.RoadblockVerdict{Pass: true, RR: math.Inf(1)}
	}
	rr := nearestDist / riskDistance
	return domain.RoadblockVerdict{
		Pass:           rr >= f.cfg.MinRR,
		NearestBlocker: nearest,
		RR:             rr,
	}
}
