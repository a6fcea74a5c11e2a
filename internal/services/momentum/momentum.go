package momentum

import (
	"DayTradeBot/config"
	"DayTradeBot/internal/services/series"
)

// Result is the per-asset momentum output for one cycle. It is created
// fresh each cycle and owned by the caller.
type Result struct {
	Asset          string
	MomentumScore  float64
	ReturnPct      float64 // fractional return over the scoring window
	TrendStatus    TrendStatus
	Classification Classification

	// Sub-terms, kept for the audit trail.
	ReturnTerm float64
	TrendTerm  float64
	VolumeTerm float64
}

// Analyzer turns a price/volume series into a momentum score and a discrete
// classification.
//
// score = Wr*R + Wt*T + Wv*V, with all three sub-terms expressed as
// same-order fractions so the weights stay comparable:
//
//	R = fractional return over ReturnWindow (3% gain => 0.03)
//	T = (shortMA - longMA) / longMA
//	V = volumeStrength - 1 (centered: neutral volume contributes 0)
type Analyzer struct {
	cfg config.MomentumConfig
}

func NewAnalyzer(cfg config.MomentumConfig) *Analyzer {
	return &Analyzer{cfg: cfg}
}

// MinPoints is the shortest series Score accepts: the long MA window plus
// one extra candle for the return sub-term.
func (a *Analyzer) MinPoints() int {
	min := a.cfg.LongMAWindow
	if a.cfg.ReturnWindow+1 > min {
		min = a.cfg.ReturnWindow + 1
	}
	if a.cfg.VolumeBaseline > min {
		min = a.cfg.VolumeBaseline
	}
	return min
}

// Score computes the momentum result for one asset. Insufficient series
// length surfaces as a series.InsufficientDataError; the caller excludes the
// asset from the cycle instead of aborting it.
func (a *Analyzer) Score(asset string, s series.Series) (*Result, error) {
	if err := s.Validate(); err != nil {
		return nil, err
	}
	prices := s.Prices()
	volumes := s.Volumes()

	r, err := series.ReturnOverPeriod(prices, a.cfg.ReturnWindow)
	if err != nil {
		return nil, err
	}
	t, err := series.Trend(prices, a.cfg.ShortMAWindow, a.cfg.LongMAWindow)
	if err != nil {
		return nil, err
	}
	strength, err := series.VolumeStrength(volumes, a.cfg.VolumeRecent, a.cfg.VolumeBaseline)
	if err != nil {
		return nil, err
	}
	v := strength - 1.0

	score := a.cfg.WeightReturn*r + a.cfg.WeightTrend*t + a.cfg.WeightVolume*v

	return &Result{
		Asset:          asset,
		MomentumScore:  score,
		ReturnPct:      r,
		TrendStatus:    trendStatus(t),
		Classification: a.Classify(score),
		ReturnTerm:     r,
		TrendTerm:      t,
		VolumeTerm:     v,
	}, nil
}

// Classify maps a composite score onto the fixed cut points. The LATERAL
// band is inclusive on both ends.
func (a *Analyzer) Classify(score float64) Classification {
	switch {
	case score > a.cfg.ForteAltaCut:
		return ClassificationForteAlta
	case score > a.cfg.LateralBand:
		return ClassificationAltaLeve
	case score >= -a.cfg.LateralBand:
		return ClassificationLateral
	default:
		return ClassificationQueda
	}
}

func trendStatus(t float64) TrendStatus {
	switch {
	case t > 0:
		return TrendAlta
	case t < 0:
		return TrendBaixa
	default:
		return TrendLateral
	}
}
