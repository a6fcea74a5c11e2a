package risk

// Level is the discrete protection band derived from the IRQ score.
type Level int

const (
	LevelNormal Level = iota
	LevelAlto
	LevelMuitoAlto
	LevelCritico
)

func (l Level) String() string {
	switch l {
	case LevelNormal:
		return "NORMAL"
	case LevelAlto:
		return "ALTO"
	case LevelMuitoAlto:
		return "MUITO_ALTO"
	case LevelCritico:
		return "CRITICO"
	}
	return "UNKNOWN"
}

// Protection maps an IRQ score onto its band and capital reduction. The
// bands are closed at the lower bound: an IRQ of exactly 0.70 is still
// NORMAL, 0.80 is still ALTO, 0.90 is still MUITO_ALTO.
func (a *Analyzer) Protection(irq float64) (Level, float64) {
	switch {
	case irq > a.cfg.ThresholdCritical:
		return LevelCritico, 1.0
	case irq > a.cfg.ThresholdVeryHigh:
		return LevelMuitoAlto, a.cfg.ReductionHigh
	case irq > a.cfg.ThresholdHigh:
		return LevelAlto, a.cfg.ReductionModerate
	default:
		return LevelNormal, 0.0
	}
}

// AllowNewPositions reports whether the band still permits opening positions.
func (l Level) AllowNewPositions() bool {
	return l == LevelNormal || l == LevelAlto
}
