package backtest

import "time"

// Config pins down one simulation run.
type Config struct {
	InitialCapital float64
	Symbols        []string
	Interval       string
	Window         int // candles per analysis series
	StartTime      time.Time
	EndTime        time.Time
}

// EquityPoint is one sample of the simulated balance.
type EquityPoint struct {
	Timestamp time.Time
	Balance   float64
}

// Results summarizes a finished simulation.
type Results struct {
	Cycles        int
	Trades        int
	WinningCycles int
	LosingCycles  int
	WinRate       float64
	MaxDrawdown   float64
	FinalBalance  float64
	EquityCurve   []EquityPoint
}
