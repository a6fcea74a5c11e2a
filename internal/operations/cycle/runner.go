package cycle

import (
	"context"
	"sync"
	"time"

	"DayTradeBot/config"
	"DayTradeBot/internal/models"
	"DayTradeBot/internal/operations/market"
	"DayTradeBot/internal/services/momentum"
	"DayTradeBot/internal/services/portfolio"
	"DayTradeBot/internal/services/risk"
	"DayTradeBot/internal/services/riskguard"
	"DayTradeBot/internal/services/series"

	"github.com/rs/zerolog"
)

// Report is the outcome of one cycle: the scores, the proposed plan, and
// the assets that had to be excluded with the reason for each.
type Report struct {
	Timestamp    time.Time
	TotalCapital float64
	Momentum     map[string]*momentum.Result
	Risk         *risk.Result
	Plan         *portfolio.Plan
	Excluded     map[string]string
}

// PositionSource provides the current portfolio state for a cycle.
type PositionSource interface {
	FindActive() ([]models.Position, error)
}

// AnalysisSink records per-asset audit rows.
type AnalysisSink interface {
	Create(*models.Analysis) error
}

// PlanApplier applies the proposed plan to position storage.
type PlanApplier interface {
	Apply(plan *portfolio.Plan, prices map[string]float64, irqScore float64, momentumScores map[string]float64) error
}

// Alerter receives notable cycle events. Implementations must not block the
// cycle on delivery.
type Alerter interface {
	ProtectionEscalated(ctx context.Context, level string, irq, reduction float64)
	StopLossTriggered(ctx context.Context, asset string, lossPct float64)
	TakeProfitTriggered(ctx context.Context, asset string, gainPct float64)
	CycleCompleted(ctx context.Context, irq float64, level string, buys, sells int)
}

// TriggerSource evaluates the always-on stop-loss and take-profit rules
// against live prices.
type TriggerSource interface {
	CheckAll(prices map[string]float64) []riskguard.Trigger
}

// Runner drives one synchronous pass: snapshot market data, score momentum
// per asset, score the market-wide IRQ once, allocate once, all against
// the same snapshot. Cycles are serialized with an internal mutex so two
// allocation proposals can never race against the same position state.
type Runner struct {
	cfg      *config.Config
	provider market.Provider
	momentum *momentum.Analyzer
	risk     *risk.Analyzer
	alloc    *portfolio.Allocator

	positions PositionSource
	analysis  AnalysisSink
	applier   PlanApplier

	log zerolog.Logger

	mu        sync.Mutex
	capital   float64
	alerter   Alerter
	guard     TriggerSource
	lastLevel risk.Level
}

func NewRunner(
	cfg *config.Config,
	provider market.Provider,
	momentumAnalyzer *momentum.Analyzer,
	riskAnalyzer *risk.Analyzer,
	allocator *portfolio.Allocator,
	positions PositionSource,
	analysis AnalysisSink,
	applier PlanApplier,
	log zerolog.Logger,
) *Runner {
	return &Runner{
		cfg:       cfg,
		provider:  provider,
		momentum:  momentumAnalyzer,
		risk:      riskAnalyzer,
		alloc:     allocator,
		positions: positions,
		analysis:  analysis,
		applier:   applier,
		log:       log.With().Str("component", "cycle").Logger(),
		capital:   cfg.Trading.InitialCapital,
	}
}

// SetAlerter attaches an alert channel for escalations and forced exits.
func (r *Runner) SetAlerter(a Alerter) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.alerter = a
}

// SetGuard attaches the trigger source whose stop-loss and take-profit
// rules override the allocation on every cycle.
func (r *Runner) SetGuard(g TriggerSource) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.guard = g
}

// SetCapital replaces the working capital used by subsequent cycles.
func (r *Runner) SetCapital(capital float64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if capital > 0 {
		r.capital = capital
	}
}

// Capital returns the working capital.
func (r *Runner) Capital() float64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.capital
}

// Run executes one full cycle. Per-asset scoring failures exclude the asset
// and are reported; they never abort the rest of the cycle. Only position
// loading or plan application can fail the cycle as a whole.
func (r *Runner) Run(ctx context.Context) (*Report, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	started := time.Now()
	snapshot := r.provider.Snapshot(ctx, r.cfg.Symbols, r.cfg.Interval, r.cfg.Lookback)

	report := &Report{
		Timestamp:    started,
		TotalCapital: r.capital,
		Momentum:     make(map[string]*momentum.Result, len(r.cfg.Symbols)),
		Excluded:     make(map[string]string),
	}

	for _, asset := range r.cfg.Symbols {
		s, ok := snapshot[asset]
		if !ok {
			report.Excluded[asset] = "no market data"
			continue
		}
		res, err := r.momentum.Score(asset, s)
		if err != nil {
			report.Excluded[asset] = err.Error()
			continue
		}
		report.Momentum[asset] = res
	}

	riskResult, err := r.risk.Score(snapshot[r.risk.ReferenceAsset()])
	if err != nil {
		// a malformed reference series degrades to the worst case rather
		// than letting the cycle run unprotected
		r.log.Error().Err(err).Str("asset", r.risk.ReferenceAsset()).Msg("reference series invalid, assuming critical risk")
		riskResult, _ = r.risk.Score(series.Series{})
	}
	report.Risk = riskResult

	positions, lastPrices, err := r.currentPositions(snapshot)
	if err != nil {
		return nil, err
	}

	report.Plan = r.alloc.Allocate(report.Momentum, riskResult, positions, r.capital)

	r.applyTriggers(report, positions, lastPrices)

	r.record(report, positions)

	if r.applier != nil {
		scores := make(map[string]float64, len(report.Momentum))
		for asset, res := range report.Momentum {
			scores[asset] = res.MomentumScore
		}
		if err := r.applier.Apply(report.Plan, lastPrices, riskResult.IRQScore, scores); err != nil {
			return report, err
		}
	}

	r.notify(ctx, report, positions)

	r.log.Info().
		Float64("irq", riskResult.IRQScore).
		Str("level", riskResult.Level.String()).
		Int("scored", len(report.Momentum)).
		Int("excluded", len(report.Excluded)).
		Dur("took", time.Since(started)).
		Msg("cycle completed")
	return report, nil
}

// currentPositions builds the allocator's read-only view of the stored
// portfolio, valuing unrealized P&L against the snapshot's last prices.
func (r *Runner) currentPositions(snapshot map[string]series.Series) (map[string]portfolio.Position, map[string]float64, error) {
	rows, err := r.positions.FindActive()
	if err != nil {
		return nil, nil, err
	}

	lastPrices := make(map[string]float64, len(snapshot))
	for asset, s := range snapshot {
		lastPrices[asset] = s.LastPrice()
	}

	out := make(map[string]portfolio.Position, len(rows))
	for _, row := range rows {
		pos := portfolio.Position{
			Asset:         row.Asset,
			CurrentAmount: row.AllocatedAmount,
		}
		if r.capital > 0 {
			pos.PctOfCapital = row.AllocatedAmount / r.capital
		}
		if price, ok := lastPrices[row.Asset]; ok && row.EntryPrice > 0 {
			pos.UnrealizedPnLPct = (price - row.EntryPrice) / row.EntryPrice
		}
		out[row.Asset] = pos
	}
	return out, lastPrices, nil
}

// applyTriggers overrides the plan with forced full exits for every held
// position the guard flags. The guard tracks entry prices from executed
// buys, so its stop loss and take profit fire even when stored entry data
// disagrees with the allocator's P&L view.
func (r *Runner) applyTriggers(report *Report, positions map[string]portfolio.Position, lastPrices map[string]float64) {
	if r.guard == nil {
		return
	}
	for _, trig := range r.guard.CheckAll(lastPrices) {
		pos, held := positions[trig.Asset]
		if !held || pos.CurrentAmount <= 0 {
			continue
		}
		reason := portfolio.ReasonStopLoss
		if trig.Kind == riskguard.TriggerTakeProfit {
			reason = portfolio.ReasonTakeProfit
		}

		d := report.Plan.Decisions[trig.Asset]
		report.Plan.UnallocatedCash += d.RecommendedAmount
		d.Asset = trig.Asset
		d.Action = portfolio.ActionSell
		d.RecommendedAmount = 0
		d.ChangePercentage = -100
		d.Reason = reason
		report.Plan.Decisions[trig.Asset] = d

		r.log.Warn().
			Str("asset", trig.Asset).
			Str("trigger", trig.Kind.String()).
			Float64("change_pct", trig.ChangePct).
			Msg("forced exit")
	}
}

// notify pushes escalations, forced exits and the cycle summary to the
// attached alerter.
func (r *Runner) notify(ctx context.Context, report *Report, positions map[string]portfolio.Position) {
	level := report.Risk.Level
	if r.alerter == nil {
		r.lastLevel = level
		return
	}

	if level > r.lastLevel && level > risk.LevelNormal {
		r.alerter.ProtectionEscalated(ctx, level.String(), report.Risk.IRQScore, report.Risk.ReductionPercentage)
	}
	r.lastLevel = level

	buys, sells := 0, 0
	for asset, d := range report.Plan.Decisions {
		switch d.Action {
		case portfolio.ActionBuy:
			buys++
		case portfolio.ActionSell:
			sells++
		}
		switch d.Reason {
		case portfolio.ReasonStopLoss:
			r.alerter.StopLossTriggered(ctx, asset, positions[asset].UnrealizedPnLPct)
		case portfolio.ReasonTakeProfit:
			r.alerter.TakeProfitTriggered(ctx, asset, positions[asset].UnrealizedPnLPct)
		}
	}
	r.alerter.CycleCompleted(ctx, report.Risk.IRQScore, level.String(), buys, sells)
}

func (r *Runner) record(report *Report, positions map[string]portfolio.Position) {
	if r.analysis == nil {
		return
	}
	for asset, res := range report.Momentum {
		decision := report.Plan.Decisions[asset]
		row := &models.Analysis{
			Timestamp:              report.Timestamp,
			Asset:                  asset,
			MomentumScore:          res.MomentumScore,
			MomentumClassification: res.Classification.String(),
			IRQScore:               report.Risk.IRQScore,
			IRQLevel:               report.Risk.Level.String(),
			RecommendedAllocation:  decision.RecommendedAmount,
			CurrentAllocation:      positions[asset].CurrentAmount,
		}
		if err := r.analysis.Create(row); err != nil {
			r.log.Warn().Err(err).Str("asset", asset).Msg("analysis row not recorded")
		}
	}
}
