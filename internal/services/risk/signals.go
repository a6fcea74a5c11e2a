package risk

import (
	"math"

	"DayTradeBot/internal/services/series"
)

// Signal names, in aggregation order.
const (
	SignalTrendLoss       = "S1_trend_loss"
	SignalSellingPressure = "S2_selling_pressure"
	SignalVolatility      = "S3_volatility"
	SignalRSIDivergence   = "S4_rsi_divergence"
	SignalLosingStreak    = "S5_losing_streak"
)

// signalFunc computes one bounded fall-risk signal in [0,1]. The five
// signals are structurally identical, so they live in one fixed table: the
// weighted sum and the insufficient-data fallback stay uniform across all
// of them.
type signalFunc func(prices, volumes []float64) (float64, error)

type signal struct {
	name    string
	weight  float64
	compute signalFunc
}

func (a *Analyzer) signalTable() []signal {
	return []signal{
		{SignalTrendLoss, a.cfg.WeightTrendLoss, a.trendLoss},
		{SignalSellingPressure, a.cfg.WeightSellingPressure, a.sellingPressure},
		{SignalVolatility, a.cfg.WeightVolatility, a.volatility},
		{SignalRSIDivergence, a.cfg.WeightRSIDivergence, a.rsiDivergence},
		{SignalLosingStreak, a.cfg.WeightLosingStreak, a.losingStreak},
	}
}

// S1: magnitude of a negative trend, amplified so that a large loss of trend
// approaches 1. A flat or positive trend scores 0.
func (a *Analyzer) trendLoss(prices, _ []float64) (float64, error) {
	t, err := series.Trend(prices, a.cfg.TrendShortWindow, a.cfg.TrendLongWindow)
	if err != nil {
		return 0, err
	}
	return clamp01(math.Max(0, -t) * a.cfg.TrendLossScale), nil
}

// S2: co-occurrence of a negative last return and elevated volume. Scores 0
// when the return is non-negative or the volume is not above its baseline.
func (a *Analyzer) sellingPressure(prices, volumes []float64) (float64, error) {
	ret, err := series.ReturnOverPeriod(prices, 1)
	if err != nil {
		return 0, err
	}
	strength, err := series.VolumeStrength(volumes, 1, a.cfg.TrendLongWindow)
	if err != nil {
		return 0, err
	}
	if ret >= 0 || strength <= 1.0 {
		return 0, nil
	}
	return clamp01(math.Abs(ret) * strength * a.cfg.SellingPressureScale), nil
}

// S3: recent volatility relative to the longer baseline, clipped to 1 at
// VolatilityClipMultiple times the baseline.
func (a *Analyzer) volatility(prices, _ []float64) (float64, error) {
	recent, err := series.Volatility(prices, a.cfg.VolatilityRecentWindow)
	if err != nil {
		return 0, err
	}
	baseline, err := series.Volatility(prices, a.cfg.VolatilityBaseWindow)
	if err != nil {
		return 0, err
	}
	if baseline == 0 {
		if recent == 0 {
			return 0, nil
		}
		return 1, nil
	}
	return clamp01(recent / (baseline * a.cfg.VolatilityClipMultiple)), nil
}

// S4: distance of the RSI from neutral (50) in the bearish direction,
// reaching 1 at RSI 0. A neutral or bullish RSI scores 0.
func (a *Analyzer) rsiDivergence(prices, _ []float64) (float64, error) {
	rsi, err := series.RSI(prices, a.cfg.RSIPeriod)
	if err != nil {
		return 0, err
	}
	if rsi >= 50 {
		return 0, nil
	}
	return clamp01((50 - rsi) / 50), nil
}

// S5: fraction of the last LosingStreakWindow returns that were negative.
func (a *Analyzer) losingStreak(prices, _ []float64) (float64, error) {
	n := a.cfg.LosingStreakWindow
	if len(prices) < n+1 {
		return 0, &series.InsufficientDataError{Op: "losing streak", Need: n + 1, Got: len(prices)}
	}
	losses := 0
	for i := len(prices) - n; i < len(prices); i++ {
		if prices[i] < prices[i-1] {
			losses++
		}
	}
	return float64(losses) / float64(n), nil
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
