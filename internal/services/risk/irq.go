package risk

import (
	"DayTradeBot/config"
	"DayTradeBot/internal/services/series"
)

// Result is the market-wide fall-risk output of one cycle.
type Result struct {
	IRQScore            float64
	Level               Level
	ReductionPercentage float64
	RSI                 float64
	SignalScores        map[string]float64
	// Degraded lists the signals that could not be computed and were
	// substituted with their worst-case value.
	Degraded []string
}

// Analyzer computes the IRQ (Índice de Risco de Queda): five independent
// fall-risk signals in [0,1] aggregated by a weighted sum, plus the
// protection band the score lands in.
//
// The series it scores is fixed by configuration (one reference asset for
// the whole market) and never switches between cycles.
type Analyzer struct {
	cfg config.RiskConfig
}

func NewAnalyzer(cfg config.RiskConfig) *Analyzer {
	return &Analyzer{cfg: cfg}
}

// ReferenceAsset is the configured market-wide series source.
func (a *Analyzer) ReferenceAsset() string {
	return a.cfg.ReferenceAsset
}

// Score computes the IRQ for the given market series. A signal that cannot
// be computed (insufficient data) is substituted with 1.0, its worst case:
// the engine errs toward caution, never optimism. Only a malformed series
// is an error.
func (a *Analyzer) Score(s series.Series) (*Result, error) {
	if err := s.Validate(); err != nil {
		return nil, err
	}
	prices := s.Prices()
	volumes := s.Volumes()

	res := &Result{SignalScores: make(map[string]float64, 5)}

	irq := 0.0
	for _, sig := range a.signalTable() {
		score, err := sig.compute(prices, volumes)
		if err != nil {
			score = 1.0
			res.Degraded = append(res.Degraded, sig.name)
		}
		res.SignalScores[sig.name] = score
		irq += sig.weight * score
	}
	res.IRQScore = clamp01(irq)

	rsi, err := series.RSI(prices, a.cfg.RSIPeriod)
	if err != nil {
		rsi = 50
	}
	res.RSI = rsi

	res.Level, res.ReductionPercentage = a.Protection(res.IRQScore)
	return res, nil
}
