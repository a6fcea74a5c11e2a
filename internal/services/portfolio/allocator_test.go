package portfolio

import (
	"testing"

	"DayTradeBot/config"
	"DayTradeBot/internal/services/momentum"
	"DayTradeBot/internal/services/risk"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig() config.TradingConfig {
	return config.TradingConfig{
		InitialCapital:    150,
		MaxPositionPct:    0.30,
		MinPositionAmount: 10,
		StopLossPct:       0.05,
		TakeProfitPct:     0.10,
		ActionEpsilon:     0.01,
	}
}

func result(score float64, c momentum.Classification) *momentum.Result {
	return &momentum.Result{MomentumScore: score, Classification: c}
}

func riskAt(level risk.Level, reduction float64) *risk.Result {
	return &risk.Result{Level: level, ReductionPercentage: reduction}
}

func TestAllocateSingleWinnerHitsPositionCap(t *testing.T) {
	a := NewAllocator(testConfig())

	results := map[string]*momentum.Result{
		"A": result(0.6, momentum.ClassificationForteAlta),
		"B": result(-0.3, momentum.ClassificationQueda),
	}

	plan := a.Allocate(results, riskAt(risk.LevelNormal, 0), nil, 150)

	// A carries all the positive weight but gets clamped at 30% of capital
	decA := plan.Decisions["A"]
	assert.Equal(t, ActionBuy, decA.Action)
	assert.InDelta(t, 45.0, decA.RecommendedAmount, 1e-9)

	decB := plan.Decisions["B"]
	assert.Equal(t, ActionHold, decB.Action)
	assert.Zero(t, decB.RecommendedAmount)

	assert.InDelta(t, 105.0, plan.UnallocatedCash, 1e-9)
}

func TestAllocateCriticoExitsEverything(t *testing.T) {
	a := NewAllocator(testConfig())

	results := map[string]*momentum.Result{
		"A": result(0.8, momentum.ClassificationForteAlta),
		"B": result(0.2, momentum.ClassificationAltaLeve),
	}
	positions := map[string]Position{
		"A": {Asset: "A", CurrentAmount: 40},
		"B": {Asset: "B", CurrentAmount: 30},
	}

	plan := a.Allocate(results, riskAt(risk.LevelCritico, 1.0), positions, 150)

	for asset, d := range plan.Decisions {
		assert.Zerof(t, d.RecommendedAmount, "asset %s", asset)
		assert.Equalf(t, ActionSell, d.Action, "asset %s", asset)
		assert.Equal(t, "IRQ critical: full exit", d.Reason)
	}
	assert.InDelta(t, 150.0, plan.UnallocatedCash, 1e-9)
}

func TestAllocateReductionShrinksInvestablePool(t *testing.T) {
	a := NewAllocator(testConfig())

	// three equal winners split the pool, below the per-asset cap
	results := map[string]*momentum.Result{
		"A": result(0.3, momentum.ClassificationAltaLeve),
		"B": result(0.3, momentum.ClassificationAltaLeve),
		"C": result(0.3, momentum.ClassificationAltaLeve),
	}
	positions := map[string]Position{
		"A": {Asset: "A", CurrentAmount: 30},
		"B": {Asset: "B", CurrentAmount: 30},
		"C": {Asset: "C", CurrentAmount: 30},
	}

	// ALTA_LEVE holds regardless of the pool, so use FORTE_ALTA to see the
	// reduction flow through the weight targets
	for k := range results {
		results[k] = result(0.3, momentum.ClassificationForteAlta)
	}

	full := a.Allocate(results, riskAt(risk.LevelNormal, 0), positions, 150)
	reduced := a.Allocate(results, riskAt(risk.LevelAlto, 0.40), positions, 150)

	for _, asset := range []string{"A", "B", "C"} {
		assert.LessOrEqual(t, reduced.Decisions[asset].RecommendedAmount, full.Decisions[asset].RecommendedAmount)
	}
	assert.Greater(t, reduced.UnallocatedCash, full.UnallocatedCash)
}

func TestAllocateClassificationRules(t *testing.T) {
	a := NewAllocator(testConfig())

	results := map[string]*momentum.Result{
		"FORTE": result(0.6, momentum.ClassificationForteAlta),
		"LEVE":  result(0.2, momentum.ClassificationAltaLeve),
		"LAT":   result(0.0, momentum.ClassificationLateral),
		"QUEDA": result(-0.4, momentum.ClassificationQueda),
	}
	positions := map[string]Position{
		"FORTE": {Asset: "FORTE", CurrentAmount: 20},
		"LEVE":  {Asset: "LEVE", CurrentAmount: 25},
		"LAT":   {Asset: "LAT", CurrentAmount: 30},
		"QUEDA": {Asset: "QUEDA", CurrentAmount: 40},
	}

	plan := a.Allocate(results, riskAt(risk.LevelNormal, 0), positions, 150)

	// FORTE: weight target (its score is the only positive one bar LEVE's)
	// or current*1.2, whichever is larger, capped at 45
	assert.Equal(t, ActionBuy, plan.Decisions["FORTE"].Action)
	assert.InDelta(t, 45.0, plan.Decisions["FORTE"].RecommendedAmount, 1e-9)

	// ALTA_LEVE holds its current allocation
	assert.Equal(t, ActionHold, plan.Decisions["LEVE"].Action)
	assert.InDelta(t, 25.0, plan.Decisions["LEVE"].RecommendedAmount, 1e-9)

	// LATERAL shrinks to the floor
	assert.Equal(t, ActionSell, plan.Decisions["LAT"].Action)
	assert.InDelta(t, 10.0, plan.Decisions["LAT"].RecommendedAmount, 1e-9)

	// QUEDA halves
	assert.Equal(t, ActionSell, plan.Decisions["QUEDA"].Action)
	assert.InDelta(t, 20.0, plan.Decisions["QUEDA"].RecommendedAmount, 1e-9)
}

func TestAllocateLateralBelowFloorGoesToZero(t *testing.T) {
	a := NewAllocator(testConfig())

	results := map[string]*momentum.Result{
		"A": result(0.0, momentum.ClassificationLateral),
	}
	positions := map[string]Position{
		"A": {Asset: "A", CurrentAmount: 6},
	}

	plan := a.Allocate(results, riskAt(risk.LevelNormal, 0), positions, 150)
	assert.Zero(t, plan.Decisions["A"].RecommendedAmount)
	assert.Equal(t, ActionSell, plan.Decisions["A"].Action)
}

func TestAllocateDustRule(t *testing.T) {
	a := NewAllocator(testConfig())

	// tiny positive weight lands below the R$10 floor and is dropped
	results := map[string]*momentum.Result{
		"BIG":  result(0.99, momentum.ClassificationAltaLeve),
		"TINY": result(0.01, momentum.ClassificationForteAlta),
	}

	plan := a.Allocate(results, riskAt(risk.LevelNormal, 0), nil, 150)

	// TINY's weight target is 150*0.01 = 1.50, below the floor
	assert.Zero(t, plan.Decisions["TINY"].RecommendedAmount)
	assert.Equal(t, ActionHold, plan.Decisions["TINY"].Action)
}

func TestAllocateStopLossOverridesClassification(t *testing.T) {
	a := NewAllocator(testConfig())

	results := map[string]*momentum.Result{
		"A": result(0.9, momentum.ClassificationForteAlta),
	}
	positions := map[string]Position{
		"A": {Asset: "A", CurrentAmount: 40, UnrealizedPnLPct: -0.06},
	}

	plan := a.Allocate(results, riskAt(risk.LevelNormal, 0), positions, 150)

	d := plan.Decisions["A"]
	assert.Zero(t, d.RecommendedAmount)
	assert.Equal(t, ActionSell, d.Action)
	assert.Equal(t, ReasonStopLoss, d.Reason)
}

func TestAllocateStopLossExactBoundary(t *testing.T) {
	a := NewAllocator(testConfig())

	results := map[string]*momentum.Result{
		"A": result(0.2, momentum.ClassificationAltaLeve),
	}

	// exactly -5% triggers; -4.9% does not
	at := map[string]Position{"A": {Asset: "A", CurrentAmount: 40, UnrealizedPnLPct: -0.05}}
	plan := a.Allocate(results, riskAt(risk.LevelNormal, 0), at, 150)
	assert.Zero(t, plan.Decisions["A"].RecommendedAmount)

	above := map[string]Position{"A": {Asset: "A", CurrentAmount: 40, UnrealizedPnLPct: -0.049}}
	plan = a.Allocate(results, riskAt(risk.LevelNormal, 0), above, 150)
	assert.InDelta(t, 40.0, plan.Decisions["A"].RecommendedAmount, 1e-9)
}

func TestAllocateTotalNeverExceedsCapital(t *testing.T) {
	a := NewAllocator(testConfig())

	// four large held positions all flagged FORTE_ALTA: the 1.2x growth
	// rule pushes the raw sum past the capital
	results := map[string]*momentum.Result{}
	positions := map[string]Position{}
	for _, asset := range []string{"A", "B", "C", "D"} {
		results[asset] = result(0.7, momentum.ClassificationForteAlta)
		positions[asset] = Position{Asset: asset, CurrentAmount: 45}
	}

	plan := a.Allocate(results, riskAt(risk.LevelNormal, 0), positions, 150)

	total := 0.0
	for _, d := range plan.Decisions {
		total += d.RecommendedAmount
	}
	assert.LessOrEqual(t, total, 150.0+1e-9)
	assert.GreaterOrEqual(t, plan.UnallocatedCash, 0.0)
}

func TestAllocateIdempotent(t *testing.T) {
	a := NewAllocator(testConfig())

	results := map[string]*momentum.Result{
		"A": result(0.6, momentum.ClassificationForteAlta),
		"B": result(0.1, momentum.ClassificationLateral),
		"C": result(-0.4, momentum.ClassificationQueda),
	}
	positions := map[string]Position{
		"A": {Asset: "A", CurrentAmount: 20},
		"B": {Asset: "B", CurrentAmount: 15},
		"C": {Asset: "C", CurrentAmount: 30},
	}
	riskRes := riskAt(risk.LevelAlto, 0.40)

	first := a.Allocate(results, riskRes, positions, 150)
	second := a.Allocate(results, riskRes, positions, 150)
	assert.Equal(t, first, second)
}

func TestAllocateDoesNotMutatePositions(t *testing.T) {
	a := NewAllocator(testConfig())

	positions := map[string]Position{
		"A": {Asset: "A", CurrentAmount: 40, PctOfCapital: 40.0 / 150, UnrealizedPnLPct: 0.02},
	}
	before := positions["A"]

	_ = a.Allocate(map[string]*momentum.Result{
		"A": result(-0.4, momentum.ClassificationQueda),
	}, riskAt(risk.LevelNormal, 0), positions, 150)

	assert.Equal(t, before, positions["A"])
}

func TestAllocateHoldWithinEpsilon(t *testing.T) {
	a := NewAllocator(testConfig())

	results := map[string]*momentum.Result{
		"A": result(0.2, momentum.ClassificationAltaLeve),
	}
	positions := map[string]Position{
		"A": {Asset: "A", CurrentAmount: 25},
	}

	plan := a.Allocate(results, riskAt(risk.LevelNormal, 0), positions, 150)
	d := plan.Decisions["A"]
	assert.Equal(t, ActionHold, d.Action)
	assert.Zero(t, d.ChangePercentage)
}

func TestAllocateChangePercentage(t *testing.T) {
	a := NewAllocator(testConfig())

	results := map[string]*momentum.Result{
		"A": result(-0.4, momentum.ClassificationQueda),
	}
	positions := map[string]Position{
		"A": {Asset: "A", CurrentAmount: 40},
	}

	plan := a.Allocate(results, riskAt(risk.LevelNormal, 0), positions, 150)
	require.Contains(t, plan.Decisions, "A")
	assert.InDelta(t, -50.0, plan.Decisions["A"].ChangePercentage, 1e-9)
}

func TestActionStrings(t *testing.T) {
	assert.Equal(t, "BUY", ActionBuy.String())
	assert.Equal(t, "SELL", ActionSell.String())
	assert.Equal(t, "HOLD", ActionHold.String())
}
