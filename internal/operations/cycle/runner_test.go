package cycle

import (
	"context"
	"errors"
	"testing"
	"time"

	"DayTradeBot/config"
	"DayTradeBot/internal/models"
	"DayTradeBot/internal/services/momentum"
	"DayTradeBot/internal/services/portfolio"
	"DayTradeBot/internal/services/risk"
	"DayTradeBot/internal/services/riskguard"
	"DayTradeBot/internal/services/series"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubProvider struct {
	data map[string]series.Series
}

func (p *stubProvider) Snapshot(_ context.Context, _ []string, _ string, _ int) map[string]series.Series {
	return p.data
}

type stubPositions struct {
	rows []models.Position
	err  error
}

func (s *stubPositions) FindActive() ([]models.Position, error) {
	return s.rows, s.err
}

type stubSink struct {
	rows []*models.Analysis
}

func (s *stubSink) Create(row *models.Analysis) error {
	s.rows = append(s.rows, row)
	return nil
}

type stubApplier struct {
	plan *portfolio.Plan
	err  error
}

func (s *stubApplier) Apply(plan *portfolio.Plan, _ map[string]float64, _ float64, _ map[string]float64) error {
	s.plan = plan
	return s.err
}

type stubAlerter struct {
	escalations int
	stopLosses  []string
	takeProfits []string
	cycles      int
}

func (a *stubAlerter) ProtectionEscalated(_ context.Context, _ string, _, _ float64) {
	a.escalations++
}

func (a *stubAlerter) StopLossTriggered(_ context.Context, asset string, _ float64) {
	a.stopLosses = append(a.stopLosses, asset)
}

func (a *stubAlerter) TakeProfitTriggered(_ context.Context, asset string, _ float64) {
	a.takeProfits = append(a.takeProfits, asset)
}

func (a *stubAlerter) CycleCompleted(_ context.Context, _ float64, _ string, _, _ int) {
	a.cycles++
}

func testCycleConfig(symbols ...string) *config.Config {
	return &config.Config{
		Trading: config.TradingConfig{
			InitialCapital:    150,
			MaxPositionPct:    0.30,
			MinPositionAmount: 10,
			StopLossPct:       0.05,
			TakeProfitPct:     0.10,
			ActionEpsilon:     0.01,
		},
		Momentum: config.MomentumConfig{
			WeightReturn: 0.50, WeightTrend: 0.30, WeightVolume: 0.20,
			ReturnWindow: 5, ShortMAWindow: 9, LongMAWindow: 21,
			VolumeRecent: 5, VolumeBaseline: 20,
			ForteAltaCut: 0.50, LateralBand: 0.15,
		},
		Risk: config.RiskConfig{
			WeightTrendLoss: 0.25, WeightSellingPressure: 0.25,
			WeightVolatility: 0.15, WeightRSIDivergence: 0.15, WeightLosingStreak: 0.20,
			TrendShortWindow: 9, TrendLongWindow: 21,
			TrendLossScale: 20, SellingPressureScale: 10,
			VolatilityClipMultiple: 2, VolatilityRecentWindow: 10, VolatilityBaseWindow: 30,
			LosingStreakWindow: 5, RSIPeriod: 14,
			ThresholdHigh: 0.70, ThresholdVeryHigh: 0.80, ThresholdCritical: 0.90,
			ReductionModerate: 0.40, ReductionHigh: 0.70,
			ReferenceAsset: "BTC",
		},
		Symbols:  symbols,
		Interval: "5m",
		Lookback: 50,
	}
}

func flatSeries(n int, price float64) series.Series {
	base := time.Date(2026, 1, 5, 10, 0, 0, 0, time.UTC)
	s := make(series.Series, n)
	for i := 0; i < n; i++ {
		s[i] = series.Point{Timestamp: base.Add(time.Duration(i) * time.Minute), Price: price, Volume: 1000}
	}
	return s
}

func newTestRunner(cfg *config.Config, provider *stubProvider, positions *stubPositions, sink *stubSink, applier *stubApplier) *Runner {
	return NewRunner(
		cfg,
		provider,
		momentum.NewAnalyzer(cfg.Momentum),
		risk.NewAnalyzer(cfg.Risk),
		portfolio.NewAllocator(cfg.Trading),
		positions,
		sink,
		applier,
		zerolog.Nop(),
	)
}

func TestRunExcludesAssetsWithoutData(t *testing.T) {
	cfg := testCycleConfig("BTC", "ETH", "SOL")
	provider := &stubProvider{data: map[string]series.Series{
		"BTC": flatSeries(40, 100),
		"ETH": flatSeries(5, 200), // too short to score
	}}
	sink := &stubSink{}
	applier := &stubApplier{}

	runner := newTestRunner(cfg, provider, &stubPositions{}, sink, applier)

	report, err := runner.Run(context.Background())
	require.NoError(t, err)

	assert.Contains(t, report.Momentum, "BTC")
	assert.Equal(t, "no market data", report.Excluded["SOL"])
	assert.Contains(t, report.Excluded["ETH"], "insufficient data")
	assert.NotContains(t, report.Momentum, "ETH")

	// the cycle still completes for the scored asset
	require.NotNil(t, report.Plan)
	assert.Contains(t, report.Plan.Decisions, "BTC")
	assert.NotContains(t, report.Plan.Decisions, "ETH")
	assert.Same(t, report.Plan, applier.plan)
}

func TestRunMissingReferenceAssumesCritical(t *testing.T) {
	cfg := testCycleConfig("ETH")
	provider := &stubProvider{data: map[string]series.Series{
		"ETH": flatSeries(40, 200), // no BTC reference series at all
	}}

	runner := newTestRunner(cfg, provider, &stubPositions{}, &stubSink{}, &stubApplier{})

	report, err := runner.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, risk.LevelCritico, report.Risk.Level)
	assert.Zero(t, report.Plan.Decisions["ETH"].RecommendedAmount)
}

func TestRunValuesPositionsFromSnapshot(t *testing.T) {
	cfg := testCycleConfig("BTC", "ETH")

	// ETH entered at 100 and the snapshot last price is 90: a 10% loss,
	// deep past the stop
	ethSeries := flatSeries(40, 100)
	ethSeries[39].Price = 90

	provider := &stubProvider{data: map[string]series.Series{
		"BTC": flatSeries(40, 100),
		"ETH": ethSeries,
	}}
	positions := &stubPositions{rows: []models.Position{
		{Asset: "ETH", EntryPrice: 100, AllocatedAmount: 40, IsActive: true},
	}}
	alerter := &stubAlerter{}

	runner := newTestRunner(cfg, provider, positions, &stubSink{}, &stubApplier{})
	runner.SetAlerter(alerter)

	report, err := runner.Run(context.Background())
	require.NoError(t, err)

	d := report.Plan.Decisions["ETH"]
	assert.Equal(t, portfolio.ActionSell, d.Action)
	assert.Zero(t, d.RecommendedAmount)
	assert.Equal(t, portfolio.ReasonStopLoss, d.Reason)
	assert.Equal(t, []string{"ETH"}, alerter.stopLosses)
}

func TestRunGuardTakeProfitForcesExit(t *testing.T) {
	cfg := testCycleConfig("BTC", "ETH")

	// ETH entered at 100 and now trades at 112, past the 10% take profit
	ethSeries := flatSeries(40, 100)
	ethSeries[39].Price = 112

	provider := &stubProvider{data: map[string]series.Series{
		"BTC": flatSeries(40, 100),
		"ETH": ethSeries,
	}}
	positions := &stubPositions{rows: []models.Position{
		{Asset: "ETH", EntryPrice: 100, AllocatedAmount: 40, IsActive: true},
	}}
	guard := riskguard.New(config.LimitsConfig{MaxDailyLossPct: 0.15, MaxTradesPerHour: 10, MaxTradesPerDay: 50}, cfg.Trading)
	guard.RegisterPosition("ETH", 100, 40)
	alerter := &stubAlerter{}

	runner := newTestRunner(cfg, provider, positions, &stubSink{}, &stubApplier{})
	runner.SetGuard(guard)
	runner.SetAlerter(alerter)

	report, err := runner.Run(context.Background())
	require.NoError(t, err)

	d := report.Plan.Decisions["ETH"]
	assert.Equal(t, portfolio.ActionSell, d.Action)
	assert.Zero(t, d.RecommendedAmount)
	assert.Equal(t, portfolio.ReasonTakeProfit, d.Reason)
	assert.Equal(t, []string{"ETH"}, alerter.takeProfits)
	assert.Empty(t, alerter.stopLosses)
}

func TestRunGuardIgnoresUnheldAssets(t *testing.T) {
	cfg := testCycleConfig("BTC")
	provider := &stubProvider{data: map[string]series.Series{"BTC": flatSeries(40, 100)}}

	// the guard still tracks an entry the portfolio no longer holds
	guard := riskguard.New(config.LimitsConfig{MaxDailyLossPct: 0.15, MaxTradesPerHour: 10, MaxTradesPerDay: 50}, cfg.Trading)
	guard.RegisterPosition("BTC", 200, 40)

	runner := newTestRunner(cfg, provider, &stubPositions{}, &stubSink{}, &stubApplier{})
	runner.SetGuard(guard)

	report, err := runner.Run(context.Background())
	require.NoError(t, err)
	assert.NotEqual(t, portfolio.ReasonStopLoss, report.Plan.Decisions["BTC"].Reason)
}

func TestRunRecordsAnalysisRows(t *testing.T) {
	cfg := testCycleConfig("BTC", "ETH")
	provider := &stubProvider{data: map[string]series.Series{
		"BTC": flatSeries(40, 100),
		"ETH": flatSeries(40, 200),
	}}
	sink := &stubSink{}

	runner := newTestRunner(cfg, provider, &stubPositions{}, sink, &stubApplier{})

	report, err := runner.Run(context.Background())
	require.NoError(t, err)

	require.Len(t, sink.rows, len(report.Momentum))
	for _, row := range sink.rows {
		assert.Equal(t, report.Risk.IRQScore, row.IRQScore)
		assert.Equal(t, report.Risk.Level.String(), row.IRQLevel)
		assert.Equal(t, report.Timestamp, row.Timestamp)
	}
}

func TestRunPositionLoadFailureAborts(t *testing.T) {
	cfg := testCycleConfig("BTC")
	provider := &stubProvider{data: map[string]series.Series{"BTC": flatSeries(40, 100)}}
	positions := &stubPositions{err: errors.New("db down")}

	runner := newTestRunner(cfg, provider, positions, &stubSink{}, &stubApplier{})

	report, err := runner.Run(context.Background())
	assert.Error(t, err)
	assert.Nil(t, report)
}

func TestRunApplierFailureReturnsReport(t *testing.T) {
	cfg := testCycleConfig("BTC")
	provider := &stubProvider{data: map[string]series.Series{"BTC": flatSeries(40, 100)}}
	applier := &stubApplier{err: errors.New("exchange rejected order")}

	runner := newTestRunner(cfg, provider, &stubPositions{}, &stubSink{}, applier)

	report, err := runner.Run(context.Background())
	assert.Error(t, err)
	require.NotNil(t, report)
	assert.NotNil(t, report.Plan)
}

func TestRunEscalationAlertFiresOnce(t *testing.T) {
	cfg := testCycleConfig("ETH")
	// missing reference series keeps every cycle at CRITICO
	provider := &stubProvider{data: map[string]series.Series{"ETH": flatSeries(40, 200)}}
	alerter := &stubAlerter{}

	runner := newTestRunner(cfg, provider, &stubPositions{}, &stubSink{}, &stubApplier{})
	runner.SetAlerter(alerter)

	_, err := runner.Run(context.Background())
	require.NoError(t, err)
	_, err = runner.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 1, alerter.escalations)
	assert.Equal(t, 2, alerter.cycles)
}

func TestSetCapital(t *testing.T) {
	cfg := testCycleConfig("BTC")
	provider := &stubProvider{data: map[string]series.Series{"BTC": flatSeries(40, 100)}}

	runner := newTestRunner(cfg, provider, &stubPositions{}, &stubSink{}, &stubApplier{})
	assert.Equal(t, 150.0, runner.Capital())

	runner.SetCapital(300)
	assert.Equal(t, 300.0, runner.Capital())

	runner.SetCapital(-50) // ignored
	assert.Equal(t, 300.0, runner.Capital())

	report, err := runner.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 300.0, report.TotalCapital)
}
