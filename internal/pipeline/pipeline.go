package pipeline

import (
	"fmt"

	"sniperbot/internal/domain"
	"sniperbot/internal/ports"
	"sniperbot/internal/risk"
	"sniperbot/internal/strategy/filters"
	"sniperbot/internal/strategy/storyline"
	"sniperbot/internal/strategy/structure"
	"sniperbot/internal/strategy/trigger"
	"sniperbot/internal/strategy/zones"
)

// Phase marks how far an evaluation cycle progressed before emitting or
// being killed.
type Phase string

const (
	PhaseIdle             Phase = "IDLE"
	PhaseStorylineChecked Phase = "STORYLINE_CHECKED"
	PhaseZoneSelected     Phase = "ZONE_SELECTED"
	PhaseArrivalPassed    Phase = "ARRIVAL_PASSED"
	PhaseRoadblockPassed  Phase = "ROADBLOCK_PASSED"
	PhaseTriggered        Phase = "TRIGGERED"
	PhaseEmitted          Phase = "EMITTED"
)

// Config holds the pipeline-level knobs; engine thresholds live in the
// engines themselves.
type Config struct {
	ExecMode          domain.EntryMode
	LimitExpiryBars   int
	MaxRiskPips       float64 // fallback risk distance for degenerate zone heights
	MinEntryBars      int     // minimum entry-timeframe history, e.g. 23
	MinStorylineBars  int     // minimum higher-timeframe history, e.g. 20
}

// Account is the per-cycle account/instrument snapshot the caller fetched
// from its collaborators; the pipeline itself performs no I/O.
type Account struct {
	Balance   float64
	TickValue float64
	TickSize  float64
}

// Result is the tagged outcome of one evaluation cycle: either an intent or
// a kill reason, plus the snapshot handed to observers. Kills are expected
// outcomes; faults are returned as errors instead.
type Result struct {
	Phase    Phase
	Kill     domain.KillReason
	Intent   *domain.TradeIntent
	Snapshot ports.CycleSnapshot
}

// Emitted reports whether the cycle produced a trade intent.
func (r Result) Emitted() bool { return r.Intent != nil }

// Pipeline runs the five invalidation layers in strict order per evaluation
// event, short-circuiting on the first kill. It holds no per-symbol state;
// callers own State and pass fresh series snapshots each cycle.
type Pipeline struct {
	cfg       Config
	logger    ports.Logger
	zones     *zones.Engine
	structure *structure.Engine
	storyline *storyline.Engine
	arrival   *filters.ArrivalFilter
	roadblock *filters.RoadblockFilter
	trigger   *trigger.Engine
	calc      *risk.Calculator
}

// Deps bundles the engines the pipeline orchestrates.
type Deps struct {
	Logger    ports.Logger
	Zones     *zones.Engine
	Structure *structure.Engine
	Storyline *storyline.Engine
	Arrival   *filters.ArrivalFilter
	Roadblock *filters.RoadblockFilter
	Trigger   *trigger.Engine
	Calc      *risk.Calculator
}

// New creates a pipeline, validating that every layer is present.
func New(cfg Config, deps Deps) (*Pipeline, error) {
	if deps.Logger == nil || deps.Zones == nil || deps.Structure == nil || deps.Storyline == nil ||
		deps.Arrival == nil || deps.Roadblock == nil || deps.Trigger == nil || deps.Calc == nil {
		return nil, fmt.Errorf("missing required engines for pipeline")
	}
	if cfg.ExecMode == "" {
		cfg.ExecMode = domain.EntryMarket
	}
	if cfg.LimitExpiryBars == 0 {
		cfg.LimitExpiryBars = 8
	}
	if cfg.MinEntryBars == 0 {
		cfg.MinEntryBars = 23
	}
	if cfg.MinStorylineBars == 0 {
		cfg.MinStorylineBars = 20
	}
	if cfg.MaxRiskPips <= 0 {
		return nil, fmt.Errorf("%w: pipeline needs a positive MaxRiskPips fallback", ports.ErrConfigurationError)
	}
	return &Pipeline{
		cfg:       cfg,
		logger:    deps.Logger,
		zones:     deps.Zones,
		structure: deps.Structure,
		storyline: deps.Storyline,
		arrival:   deps.Arrival,
		roadblock: deps.Roadblock,
		trigger:   deps.Trigger,
		calc:      deps.Calc,
	}, nil
}

// Evaluate runs one cycle over fresh entry and storyline snapshots.
// It returns a kill-tagged Result for expected no-trade outcomes and an
// error only for faults (insufficient history, degenerate geometry), which
// must never produce an intent.
func (p *Pipeline) Evaluate(entry, htf domain.Series, acct Account) (Result, error) {
	res := Result{Phase: PhaseIdle, Snapshot: ports.CycleSnapshot{Symbol: entry.Symbol}}

	last, ok := entry.Last()
	if !ok || entry.Len() < p.cfg.MinEntryBars || htf.Len() < p.cfg.MinStorylineBars {
		return res, fmt.Errorf("%w: entry %d/%d storyline %d/%d bars",
			ports.ErrInsufficientHistory, entry.Len(), p.cfg.MinEntryBars, htf.Len(), p.cfg.MinStorylineBars)
	}
	res.Snapshot.BarTime = last.CloseTime

	// Layer 2 first: the storyline gate is cheaper than a zone scan and the
	// ordering contract requires it never to reach zone selection unconfirmed.
	story := p.storyline.Derive(htf, last.Close)
	res.Snapshot.Storyline = story
	structSnap := p.structure.Analyze(entry)
	if story.Bias == domain.BiasNone || !structSnap.HasBOS(story.Bias) {
		return p.kill(res, domain.KillBiasUnconfirmed), nil
	}
	res.Phase = PhaseStorylineChecked

	dir := domain.Buy
	zoneDir := domain.Demand
	if story.Bias == domain.BiasBear {
		dir = domain.Sell
		zoneDir = domain.Supply
	}

	// Layer 1: freshest eligible zone in the trade direction.
	candidates := p.zones.FreshZones(entry, zoneDir)
	if len(candidates) == 0 {
		return p.kill(res, domain.KillNoFreshZone), nil
	}
	zone := candidates[0]
	res.Snapshot.SelectedZone = &zone
	res.Phase = PhaseZoneSelected

	limitEntry := zone.Top
	if dir == domain.Sell {
		limitEntry = zone.Bottom
	}

	// Layer 3: arrival physics.
	arrival := p.arrival.Classify(entry)
	res.Snapshot.Arrival = arrival
	if arrival == domain.ArrivalMomentum {
		return p.kill(res, domain.KillMomentumArrival), nil
	}
	res.Phase = PhaseArrivalPassed

	// Layer 4: roadblock reward:risk screen against every eligible zone.
	riskDistance := zone.Top - zone.Bottom
	if riskDistance <= 0 {
		riskDistance = p.cfg.MaxRiskPips / domain.PipValue(entry.Symbol)
	}
	verdict := p.roadblock.Check(limitEntry, dir, p.zones.EligibleZones(entry), riskDistance, story.TPTarget)
	res.Snapshot.Roadblock = &verdict
	if !verdict.Pass {
		return p.kill(res, domain.KillRoadblockTooClose), nil
	}
	res.Phase = PhaseRoadblockPassed

	// Layer 5: trigger confirmation.
	trig := p.trigger.Confirm(entry, zone, dir, structSnap)
	res.Snapshot.Trigger = &trig
	if trig.Engulfing == nil {
		return p.kill(res, domain.KillNoTrigger), nil
	}
	res.Phase = PhaseTriggered

	entryPrice := last.Close
	expiry := 0
	if p.cfg.ExecMode == domain.EntryLimit {
		entryPrice = limitEntry
		expiry = p.cfg.LimitExpiryBars
	}

	params, err := p.calc.Resolve(risk.Inputs{
		Symbol:         entry.Symbol,
		Direction:      dir,
		Entry:          entryPrice,
		Zone:           zone,
		Sweep:          trig.Sweep,
		TPTarget:       story.TPTarget,
		AccountBalance: acct.Balance,
		TickValue:      acct.TickValue,
		TickSize:       acct.TickSize,
	})
	if err != nil {
		return res, err
	}

	intent := &domain.TradeIntent{
		Symbol:     entry.Symbol,
		Direction:  dir,
		EntryMode:  p.cfg.ExecMode,
		EntryPrice: entryPrice,
		StopLoss:   params.StopLoss,
		TakeProfit: params.TakeProfit,
		Lots:       params.Lots,
		ExpiryBars: expiry,
		Confidence: trig.Confidence,
		ZoneKind:   zone.Kind,
		ZoneMiss:   zone.State == domain.ZoneMiss,
		SweepTaken: trig.Sweep != nil,
	}
	res.Intent = intent
	res.Snapshot.Intent = intent
	res.Phase = PhaseEmitted
	return res, nil
}

func (p *Pipeline) kill(res Result, reason domain.KillReason) Result {
	res.Kill = reason
	res.Snapshot.Kill = reason
	return res
}
