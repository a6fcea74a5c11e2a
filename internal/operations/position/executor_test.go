package position

import (
	"testing"

	"DayTradeBot/config"
	"DayTradeBot/internal/models"
	"DayTradeBot/internal/services/portfolio"
	"DayTradeBot/internal/services/riskguard"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakePositionStore struct {
	active      map[string]*models.Position
	created     []*models.Position
	updated     []*models.Position
	deactivated []*models.Position
}

func newFakePositionStore() *fakePositionStore {
	return &fakePositionStore{active: make(map[string]*models.Position)}
}

func (f *fakePositionStore) FindActiveByAsset(asset string) (*models.Position, error) {
	return f.active[asset], nil
}

func (f *fakePositionStore) Create(p *models.Position) error {
	f.created = append(f.created, p)
	f.active[p.Asset] = p
	return nil
}

func (f *fakePositionStore) Update(p *models.Position) error {
	f.updated = append(f.updated, p)
	return nil
}

func (f *fakePositionStore) Deactivate(p *models.Position) error {
	f.deactivated = append(f.deactivated, p)
	delete(f.active, p.Asset)
	return nil
}

type fakeTradeStore struct {
	trades []*models.Trade
}

func (f *fakeTradeStore) Create(t *models.Trade) error {
	f.trades = append(f.trades, t)
	return nil
}

func openGuard() *riskguard.Guard {
	return riskguard.New(
		config.LimitsConfig{MaxDailyLossPct: 0.10, MaxTradesPerHour: 100, MaxTradesPerDay: 1000},
		config.TradingConfig{InitialCapital: 150, StopLossPct: 0.05, TakeProfitPct: 0.10},
	)
}

func plan(decisions ...portfolio.Decision) *portfolio.Plan {
	p := &portfolio.Plan{Decisions: make(map[string]portfolio.Decision, len(decisions))}
	for _, d := range decisions {
		p.Decisions[d.Asset] = d
	}
	return p
}

func TestApplyBuyOpensPosition(t *testing.T) {
	positions := newFakePositionStore()
	trades := &fakeTradeStore{}
	guard := openGuard()
	e := NewExecutor(positions, trades, guard, zerolog.Nop())

	err := e.Apply(
		plan(portfolio.Decision{Asset: "BTC", Action: portfolio.ActionBuy, RecommendedAmount: 45, Reason: "forte alta: increase"}),
		map[string]float64{"BTC": 90000},
		0.2,
		map[string]float64{"BTC": 0.6},
	)
	require.NoError(t, err)

	require.Len(t, positions.created, 1)
	created := positions.created[0]
	assert.Equal(t, "BTC", created.Asset)
	assert.Equal(t, 45.0, created.AllocatedAmount)
	assert.Equal(t, 90000.0, created.EntryPrice)
	assert.InDelta(t, 45.0/90000, created.Quantity, 1e-12)
	assert.True(t, created.IsActive)

	require.Len(t, trades.trades, 1)
	assert.Equal(t, models.TradeTypeBuy, trades.trades[0].TradeType)
	assert.Equal(t, 45.0, trades.trades[0].Amount)
	assert.Equal(t, 45.0, trades.trades[0].ResultingAmount)
	assert.Equal(t, 0.2, trades.trades[0].IRQScore)
	assert.Equal(t, 0.6, trades.trades[0].MomentumScore)

	assert.Equal(t, 1, guard.OpenPositions())
}

func TestApplySellToZeroDeactivates(t *testing.T) {
	positions := newFakePositionStore()
	positions.active["ETH"] = &models.Position{Asset: "ETH", EntryPrice: 2000, AllocatedAmount: 30, IsActive: true}
	trades := &fakeTradeStore{}
	e := NewExecutor(positions, trades, openGuard(), zerolog.Nop())

	err := e.Apply(
		plan(portfolio.Decision{Asset: "ETH", Action: portfolio.ActionSell, RecommendedAmount: 0, Reason: portfolio.ReasonStopLoss}),
		map[string]float64{"ETH": 1880},
		0.4,
		map[string]float64{"ETH": -0.2},
	)
	require.NoError(t, err)

	require.Len(t, positions.deactivated, 1)
	assert.Empty(t, positions.created)

	require.Len(t, trades.trades, 1)
	assert.Equal(t, models.TradeTypeSell, trades.trades[0].TradeType)
	assert.Equal(t, portfolio.ReasonStopLoss, trades.trades[0].Reason)

	// the full exit moved the whole 30, not the zero target
	assert.Equal(t, 30.0, trades.trades[0].Amount)
	assert.Zero(t, trades.trades[0].ResultingAmount)
}

func TestApplyResizeUpdatesPosition(t *testing.T) {
	positions := newFakePositionStore()
	positions.active["SOL"] = &models.Position{Asset: "SOL", EntryPrice: 100, AllocatedAmount: 20, Quantity: 0.2, IsActive: true}
	trades := &fakeTradeStore{}
	e := NewExecutor(positions, trades, openGuard(), zerolog.Nop())

	err := e.Apply(
		plan(portfolio.Decision{Asset: "SOL", Action: portfolio.ActionBuy, RecommendedAmount: 35, Reason: "forte alta: increase"}),
		map[string]float64{"SOL": 110},
		0.1,
		map[string]float64{"SOL": 0.55},
	)
	require.NoError(t, err)

	require.Len(t, positions.updated, 1)
	updated := positions.updated[0]
	assert.Equal(t, 35.0, updated.AllocatedAmount)
	assert.Equal(t, 110.0, updated.CurrentPrice)
	assert.InDelta(t, 35.0/110, updated.Quantity, 1e-12)
	assert.Empty(t, positions.created)
	assert.Empty(t, positions.deactivated)

	require.Len(t, trades.trades, 1)
	assert.Equal(t, 15.0, trades.trades[0].Amount)
	assert.Equal(t, 35.0, trades.trades[0].ResultingAmount)
}

func TestApplySkipsHolds(t *testing.T) {
	positions := newFakePositionStore()
	trades := &fakeTradeStore{}
	e := NewExecutor(positions, trades, openGuard(), zerolog.Nop())

	err := e.Apply(
		plan(portfolio.Decision{Asset: "BTC", Action: portfolio.ActionHold, RecommendedAmount: 20}),
		map[string]float64{"BTC": 90000},
		0.1,
		nil,
	)
	require.NoError(t, err)
	assert.Empty(t, positions.created)
	assert.Empty(t, trades.trades)
}

func TestApplyBlockedByGuard(t *testing.T) {
	positions := newFakePositionStore()
	trades := &fakeTradeStore{}
	blocked := riskguard.New(
		config.LimitsConfig{MaxDailyLossPct: 0.10, MaxTradesPerHour: 0, MaxTradesPerDay: 0},
		config.TradingConfig{InitialCapital: 150, StopLossPct: 0.05, TakeProfitPct: 0.10},
	)
	e := NewExecutor(positions, trades, blocked, zerolog.Nop())

	err := e.Apply(
		plan(portfolio.Decision{Asset: "BTC", Action: portfolio.ActionBuy, RecommendedAmount: 45}),
		map[string]float64{"BTC": 90000},
		0.1,
		nil,
	)
	assert.ErrorContains(t, err, "trading blocked")
	assert.Empty(t, trades.trades)
	assert.Empty(t, positions.created)
}
