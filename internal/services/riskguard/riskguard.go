package riskguard

import (
	"fmt"
	"sync"
	"time"

	"DayTradeBot/config"
)

// TriggerKind tells why a position must be force-closed.
type TriggerKind int

const (
	TriggerNone TriggerKind = iota
	TriggerStopLoss
	TriggerTakeProfit
)

func (k TriggerKind) String() string {
	switch k {
	case TriggerStopLoss:
		return "STOP_LOSS"
	case TriggerTakeProfit:
		return "TAKE_PROFIT"
	}
	return "NONE"
}

// Trigger is the outcome of a stop-loss/take-profit check.
type Trigger struct {
	Kind         TriggerKind
	Asset        string
	EntryPrice   float64
	CurrentPrice float64
	ChangePct    float64
	Amount       float64
}

type position struct {
	entryPrice   float64
	amount       float64
	highestPrice float64
	openedAt     time.Time
}

// Guard enforces the operational limits that sit outside the pure
// allocation math: stop loss / take profit per position, the daily loss
// lock and the anti-overtrading rate limits. It is the only stateful piece
// of the risk layer and is safe for concurrent use.
type Guard struct {
	limits  config.LimitsConfig
	trading config.TradingConfig

	mu         sync.Mutex
	positions  map[string]position
	tradeTimes []time.Time
	dailyPnL   float64
	day        string
	locked     bool
	lockReason string

	now func() time.Time
}

func New(limits config.LimitsConfig, trading config.TradingConfig) *Guard {
	return &Guard{
		limits:    limits,
		trading:   trading,
		positions: make(map[string]position),
		now:       time.Now,
	}
}

// RegisterPosition records an opened position for P&L tracking.
func (g *Guard) RegisterPosition(asset string, entryPrice, amount float64) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.positions[asset] = position{
		entryPrice:   entryPrice,
		amount:       amount,
		highestPrice: entryPrice,
		openedAt:     g.now(),
	}
}

// Check evaluates stop loss and take profit for one asset against the live
// price. The stop-loss rule is always on, independent of the allocation
// cycle.
func (g *Guard) Check(asset string, currentPrice float64) Trigger {
	g.mu.Lock()
	defer g.mu.Unlock()

	pos, ok := g.positions[asset]
	if !ok || pos.entryPrice == 0 {
		return Trigger{Kind: TriggerNone, Asset: asset}
	}

	if currentPrice > pos.highestPrice {
		pos.highestPrice = currentPrice
		g.positions[asset] = pos
	}

	changePct := (currentPrice - pos.entryPrice) / pos.entryPrice
	trigger := Trigger{
		Asset:        asset,
		EntryPrice:   pos.entryPrice,
		CurrentPrice: currentPrice,
		ChangePct:    changePct,
		Amount:       pos.amount,
	}

	switch {
	case changePct <= -g.trading.StopLossPct:
		trigger.Kind = TriggerStopLoss
	case changePct >= g.trading.TakeProfitPct:
		trigger.Kind = TriggerTakeProfit
	default:
		trigger.Kind = TriggerNone
	}
	return trigger
}

// CheckAll evaluates every tracked position against the given prices and
// returns the triggered ones.
func (g *Guard) CheckAll(prices map[string]float64) []Trigger {
	var triggered []Trigger
	for asset, price := range prices {
		if t := g.Check(asset, price); t.Kind != TriggerNone {
			triggered = append(triggered, t)
		}
	}
	return triggered
}

// ClosePosition removes a tracked position, returning its realized P&L and
// feeding the daily loss accounting.
func (g *Guard) ClosePosition(asset string, exitPrice float64) (float64, bool) {
	g.mu.Lock()
	defer g.mu.Unlock()

	pos, ok := g.positions[asset]
	if !ok {
		return 0, false
	}
	delete(g.positions, asset)

	pnl := 0.0
	if pos.entryPrice > 0 {
		pnl = (exitPrice - pos.entryPrice) / pos.entryPrice * pos.amount
	}

	g.resetDailyIfNeeded()
	g.dailyPnL += pnl
	return pnl, true
}

// CanTrade combines every pre-trade condition: the emergency lock, the
// daily loss limit and the trade-rate limits.
func (g *Guard) CanTrade() (bool, string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.resetDailyIfNeeded()

	if g.locked {
		return false, g.lockReason
	}

	maxLoss := g.trading.InitialCapital * g.limits.MaxDailyLossPct
	if g.dailyPnL <= -maxLoss {
		g.locked = true
		g.lockReason = fmt.Sprintf("daily loss %.2f exceeded limit %.2f", -g.dailyPnL, maxLoss)
		return false, g.lockReason
	}

	if n := g.tradesSince(g.now().Add(-time.Hour)); n >= g.limits.MaxTradesPerHour {
		return false, fmt.Sprintf("hourly trade limit reached (%d)", n)
	}
	if n := g.tradesSince(g.now().Add(-24 * time.Hour)); n >= g.limits.MaxTradesPerDay {
		return false, fmt.Sprintf("daily trade limit reached (%d)", n)
	}
	return true, "ok"
}

// RecordTrade counts an executed trade against the rate limits and starts
// P&L tracking for buys. Entries older than the 24h daily window are
// dropped on insert so the history stays bounded in a long-lived process.
func (g *Guard) RecordTrade(asset string, buy bool, price, amount float64) {
	g.mu.Lock()
	now := g.now()
	cutoff := now.Add(-24 * time.Hour)
	kept := g.tradeTimes[:0]
	for _, ts := range g.tradeTimes {
		if !ts.Before(cutoff) {
			kept = append(kept, ts)
		}
	}
	g.tradeTimes = append(kept, now)
	g.mu.Unlock()

	if buy {
		g.RegisterPosition(asset, price, amount)
	}
}

// DailyPnL returns the running realized P&L for the current day.
func (g *Guard) DailyPnL() float64 {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.resetDailyIfNeeded()
	return g.dailyPnL
}

// OpenPositions returns the number of tracked positions.
func (g *Guard) OpenPositions() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.positions)
}

func (g *Guard) tradesSince(cutoff time.Time) int {
	n := 0
	for _, ts := range g.tradeTimes {
		if !ts.Before(cutoff) {
			n++
		}
	}
	return n
}

// resetDailyIfNeeded rolls the daily counters at midnight. Callers must
// hold the mutex.
func (g *Guard) resetDailyIfNeeded() {
	today := g.now().Format("2006-01-02")
	if today != g.day {
		g.day = today
		g.dailyPnL = 0
		g.locked = false
		g.lockReason = ""
	}
}
