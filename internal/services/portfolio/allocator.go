package portfolio

import (
	"math"
	"sort"

	"DayTradeBot/config"
	"DayTradeBot/internal/services/momentum"
	"DayTradeBot/internal/services/risk"
)

// Action is the per-asset outcome of an allocation cycle.
type Action int

const (
	ActionHold Action = iota
	ActionBuy
	ActionSell
)

func (a Action) String() string {
	switch a {
	case ActionBuy:
		return "BUY"
	case ActionSell:
		return "SELL"
	case ActionHold:
		return "HOLD"
	}
	return "UNKNOWN"
}

// Reasons attached to decisions forced outside the classification rules.
const (
	ReasonStopLoss   = "stop loss triggered"
	ReasonTakeProfit = "take profit triggered"
)

// Position is the allocator's read-only view of one held asset. The caller
// owns position state; the allocator returns a proposal and never mutates
// positions in place.
type Position struct {
	Asset            string
	CurrentAmount    float64 // money currently allocated
	PctOfCapital     float64
	UnrealizedPnLPct float64 // fractional live P&L, -0.06 = 6% loss
}

// Decision is the proposed move for one asset.
type Decision struct {
	Asset             string
	Action            Action
	RecommendedAmount float64
	ChangePercentage  float64
	Classification    momentum.Classification
	Reason            string
}

// Plan is the full cycle output: one decision per scored asset plus the
// cash left unallocated.
type Plan struct {
	Decisions       map[string]Decision
	UnallocatedCash float64
}

// Allocator converts momentum scores, the market-wide IRQ and the current
// positions into bounded position changes. It is stateless between calls:
// identical inputs produce identical plans.
type Allocator struct {
	cfg config.TradingConfig
}

func NewAllocator(cfg config.TradingConfig) *Allocator {
	return &Allocator{cfg: cfg}
}

// Allocate runs one allocation pass.
//
// Raw weights come from positive momentum only; the investable pool is the
// total capital scaled down by the IRQ reduction; per-asset targets are then
// layered with the classification rules, the stop-loss override, the hard
// per-asset cap, the dust rule, and finally the CRITICO full exit.
func (a *Allocator) Allocate(
	results map[string]*momentum.Result,
	riskResult *risk.Result,
	positions map[string]Position,
	totalCapital float64,
) *Plan {
	assets := make([]string, 0, len(results))
	for asset := range results {
		assets = append(assets, asset)
	}
	sort.Strings(assets)

	positiveSum := 0.0
	for _, asset := range assets {
		if s := results[asset].MomentumScore; s > 0 {
			positiveSum += s
		}
	}

	investable := totalCapital * (1 - riskResult.ReductionPercentage)
	maxPosition := a.cfg.MaxPositionPct * totalCapital

	targets := make(map[string]float64, len(assets))
	reasons := make(map[string]string, len(assets))

	for _, asset := range assets {
		res := results[asset]
		pos := positions[asset]
		current := pos.CurrentAmount

		weight := 0.0
		if positiveSum > 0 && res.MomentumScore > 0 {
			weight = res.MomentumScore / positiveSum
		}
		target := investable * weight

		switch res.Classification {
		case momentum.ClassificationForteAlta:
			// strong momentum grows the position by 20% when that beats
			// the weight-driven target
			target = math.Max(target, current*1.20)
			reasons[asset] = "forte alta: increase"
		case momentum.ClassificationAltaLeve:
			target = current
			reasons[asset] = "alta leve: hold"
		case momentum.ClassificationLateral:
			if current < a.cfg.MinPositionAmount {
				target = 0
			} else {
				target = a.cfg.MinPositionAmount
			}
			reasons[asset] = "lateral: reduce to minimum"
		case momentum.ClassificationQueda:
			target = current * 0.5
			reasons[asset] = "queda: halve position"
		}

		// Stop loss beats the classification rules, the cap and the dust
		// rule; only the CRITICO exit below is a superset of it.
		if current > 0 && pos.UnrealizedPnLPct <= -a.cfg.StopLossPct {
			target = 0
			reasons[asset] = ReasonStopLoss
		}

		target = math.Min(math.Max(target, 0), maxPosition)
		if target < a.cfg.MinPositionAmount {
			target = 0
		}
		targets[asset] = target
	}

	if riskResult.Level == risk.LevelCritico {
		for _, asset := range assets {
			targets[asset] = 0
			reasons[asset] = "IRQ critical: full exit"
		}
	}

	a.capTotal(assets, targets, totalCapital)

	plan := &Plan{Decisions: make(map[string]Decision, len(assets))}
	allocated := 0.0
	for _, asset := range assets {
		target := targets[asset]
		current := positions[asset].CurrentAmount
		allocated += target

		plan.Decisions[asset] = Decision{
			Asset:             asset,
			Action:            a.action(current, target),
			RecommendedAmount: target,
			ChangePercentage:  (target - current) / math.Max(current, a.cfg.ActionEpsilon) * 100,
			Classification:    results[asset].Classification,
			Reason:            reasons[asset],
		}
	}
	plan.UnallocatedCash = math.Max(0, totalCapital-allocated)
	return plan
}

// capTotal scales every target down proportionally when the classification
// rules pushed the sum above the available capital, then re-applies the
// dust rule to whatever fell below the minimum.
func (a *Allocator) capTotal(assets []string, targets map[string]float64, totalCapital float64) {
	sum := 0.0
	for _, asset := range assets {
		sum += targets[asset]
	}
	if sum <= totalCapital || sum == 0 {
		return
	}
	scale := totalCapital / sum
	for _, asset := range assets {
		scaled := targets[asset] * scale
		if scaled < a.cfg.MinPositionAmount {
			scaled = 0
		}
		targets[asset] = scaled
	}
}

func (a *Allocator) action(current, target float64) Action {
	switch {
	case target > current+a.cfg.ActionEpsilon:
		return ActionBuy
	case target < current-a.cfg.ActionEpsilon:
		return ActionSell
	default:
		return ActionHold
	}
}
