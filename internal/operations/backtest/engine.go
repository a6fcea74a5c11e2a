package backtest

import (
	"fmt"
	"sort"
	"time"

	"DayTradeBot/internal/models"
	"DayTradeBot/internal/services/momentum"
	"DayTradeBot/internal/services/portfolio"
	"DayTradeBot/internal/services/risk"
	"DayTradeBot/internal/services/series"

	"github.com/rs/zerolog"
)

// CandleSource provides the stored candle history a simulation replays.
type CandleSource interface {
	FindByAssetAndInterval(asset, interval string, start, end time.Time) ([]models.Price, error)
}

// Engine replays stored candles through the same momentum, IRQ and
// allocation pipeline a live cycle uses, carrying simulated positions
// forward and marking them to market between steps.
type Engine struct {
	priceRepo CandleSource
	momentum  *momentum.Analyzer
	risk      *risk.Analyzer
	alloc     *portfolio.Allocator
	config    Config
	log       zerolog.Logger
}

func NewEngine(
	priceRepo CandleSource,
	momentumAnalyzer *momentum.Analyzer,
	riskAnalyzer *risk.Analyzer,
	allocator *portfolio.Allocator,
	config Config,
	log zerolog.Logger,
) *Engine {
	return &Engine{
		priceRepo: priceRepo,
		momentum:  momentumAnalyzer,
		risk:      riskAnalyzer,
		alloc:     allocator,
		config:    config,
		log:       log.With().Str("component", "backtest").Logger(),
	}
}

type simPosition struct {
	amount     float64
	entryPrice float64
}

// Run walks the candle history step by step. Each step values the held
// positions at the new prices, re-scores every symbol on its trailing
// window, allocates, and books the resulting trades.
func (e *Engine) Run() (*Results, error) {
	history, steps, err := e.loadHistory()
	if err != nil {
		return nil, err
	}
	if steps <= e.config.Window {
		return nil, fmt.Errorf("not enough candles: %d steps for a %d-candle window", steps, e.config.Window)
	}

	cash := e.config.InitialCapital
	positions := make(map[string]simPosition)
	results := &Results{}
	maxBalance := cash
	prevBalance := cash

	for step := e.config.Window; step < steps; step++ {
		// mark to market
		for asset, pos := range positions {
			candles := history[asset]
			prev := candles[step-1].Close
			curr := candles[step].Close
			if prev > 0 {
				pos.amount *= curr / prev
				positions[asset] = pos
			}
		}

		report := e.runStep(history, positions, cash, step)
		trades := e.applyPlan(report, positions, &cash, history, step)
		results.Trades += trades
		results.Cycles++

		balance := cash
		for _, pos := range positions {
			balance += pos.amount
		}
		if balance > prevBalance {
			results.WinningCycles++
		} else if balance < prevBalance {
			results.LosingCycles++
		}
		prevBalance = balance

		if balance > maxBalance {
			maxBalance = balance
		}
		if maxBalance > 0 {
			drawdown := (maxBalance - balance) / maxBalance
			if drawdown > results.MaxDrawdown {
				results.MaxDrawdown = drawdown
			}
		}
		ts := history[e.config.Symbols[0]][step].OpenTime
		results.EquityCurve = append(results.EquityCurve, EquityPoint{Timestamp: ts, Balance: balance})
	}

	results.FinalBalance = prevBalance
	if results.Cycles > 0 {
		results.WinRate = float64(results.WinningCycles) / float64(results.Cycles)
	}

	e.log.Info().
		Int("cycles", results.Cycles).
		Int("trades", results.Trades).
		Float64("final_balance", results.FinalBalance).
		Float64("max_drawdown", results.MaxDrawdown).
		Msg("backtest finished")
	return results, nil
}

func (e *Engine) loadHistory() (map[string][]models.Price, int, error) {
	history := make(map[string][]models.Price, len(e.config.Symbols))
	steps := -1
	for _, symbol := range e.config.Symbols {
		candles, err := e.priceRepo.FindByAssetAndInterval(symbol, e.config.Interval, e.config.StartTime, e.config.EndTime)
		if err != nil {
			return nil, 0, fmt.Errorf("load candles for %s: %w", symbol, err)
		}
		history[symbol] = candles
		if steps == -1 || len(candles) < steps {
			steps = len(candles)
		}
	}
	if steps < 0 {
		steps = 0
	}
	return history, steps, nil
}

func (e *Engine) runStep(history map[string][]models.Price, positions map[string]simPosition, cash float64, step int) *stepReport {
	report := &stepReport{momentum: make(map[string]*momentum.Result)}

	capital := cash
	for _, pos := range positions {
		capital += pos.amount
	}
	report.capital = capital

	var refSeries series.Series
	for _, symbol := range e.config.Symbols {
		window := toSeries(history[symbol][step-e.config.Window : step])
		if symbol == e.risk.ReferenceAsset() {
			refSeries = window
		}
		res, err := e.momentum.Score(symbol, window)
		if err != nil {
			continue
		}
		report.momentum[symbol] = res
	}

	riskResult, err := e.risk.Score(refSeries)
	if err != nil {
		riskResult, _ = e.risk.Score(series.Series{})
	}
	report.risk = riskResult

	current := make(map[string]portfolio.Position, len(positions))
	for asset, pos := range positions {
		p := portfolio.Position{Asset: asset, CurrentAmount: pos.amount}
		if price := history[asset][step].Close; pos.entryPrice > 0 {
			p.UnrealizedPnLPct = (price - pos.entryPrice) / pos.entryPrice
		}
		current[asset] = p
	}

	report.plan = e.alloc.Allocate(report.momentum, riskResult, current, capital)
	return report
}

// applyPlan books the proposed amounts, moving the difference through cash.
// Sells settle before buys so freed cash is available within the same step,
// and assets are walked in sorted order to keep runs reproducible.
func (e *Engine) applyPlan(report *stepReport, positions map[string]simPosition, cash *float64, history map[string][]models.Price, step int) int {
	assets := make([]string, 0, len(report.plan.Decisions))
	for asset := range report.plan.Decisions {
		assets = append(assets, asset)
	}
	sort.Slice(assets, func(i, j int) bool {
		di := report.plan.Decisions[assets[i]].RecommendedAmount - positions[assets[i]].amount
		dj := report.plan.Decisions[assets[j]].RecommendedAmount - positions[assets[j]].amount
		if (di < 0) != (dj < 0) {
			return di < 0
		}
		return assets[i] < assets[j]
	})

	trades := 0
	for _, asset := range assets {
		decision := report.plan.Decisions[asset]
		pos := positions[asset]
		delta := decision.RecommendedAmount - pos.amount
		if decision.Action == portfolio.ActionHold || delta == 0 {
			continue
		}
		if delta > *cash {
			delta = *cash
		}
		if delta == 0 {
			continue
		}
		*cash -= delta
		pos.amount += delta
		if pos.amount <= 0 {
			delete(positions, asset)
		} else {
			if pos.entryPrice == 0 {
				pos.entryPrice = history[asset][step].Close
			}
			positions[asset] = pos
		}
		trades++
	}
	return trades
}

type stepReport struct {
	capital  float64
	momentum map[string]*momentum.Result
	risk     *risk.Result
	plan     *portfolio.Plan
}

func toSeries(candles []models.Price) series.Series {
	s := make(series.Series, 0, len(candles))
	for _, c := range candles {
		s = append(s, series.Point{Timestamp: c.OpenTime, Price: c.Close, Volume: c.Volume})
	}
	return s
}
