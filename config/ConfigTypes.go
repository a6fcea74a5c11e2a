package config

import "time"

type Config struct {
	Exchange ExchangeConfig
	Database DatabaseConfig
	Server   ServerConfig
	Alerts   AlertConfig
	Trading  TradingConfig
	Momentum MomentumConfig
	Risk     RiskConfig
	Limits   LimitsConfig
	Symbols  []string
	LogLevel string
	Interval string // kline interval used for analysis series
	Lookback int    // candles fetched per asset each cycle
}

type ExchangeConfig struct {
	APIKey    string
	SecretKey string
}

type DatabaseConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	DBName   string
}

type ServerConfig struct {
	Port int
}

type AlertConfig struct {
	TelegramBotToken  string
	TelegramChatID    string
	DiscordWebhookURL string
}

// TradingConfig holds the capital allocation constants: 30% hard cap per
// asset, R$10 minimum position, 5% stop loss, 10% take profit, 300s
// rebalance interval.
type TradingConfig struct {
	InitialCapital    float64
	MaxPositionPct    float64
	MinPositionAmount float64
	StopLossPct       float64
	TakeProfitPct     float64
	RebalanceInterval time.Duration
	ActionEpsilon     float64 // BUY/SELL threshold and change% denominator floor
}

// MomentumConfig holds the momentum score weights and classification cut
// points. Weights must sum to 1.0; the LATERAL band is [-LateralBand, LateralBand].
type MomentumConfig struct {
	WeightReturn float64
	WeightTrend  float64
	WeightVolume float64

	ReturnWindow   int // candles back for the return sub-term
	ShortMAWindow  int
	LongMAWindow   int
	VolumeRecent   int // recent volume window
	VolumeBaseline int // baseline volume window

	ForteAltaCut float64 // score above this => FORTE_ALTA
	LateralBand  float64 // |score| within this => LATERAL
}

// RiskConfig holds the IRQ signal weights, scaling constants and protection
// thresholds. Signal weights must sum to 1.0; thresholds must be strictly
// increasing.
type RiskConfig struct {
	WeightTrendLoss       float64 // S1
	WeightSellingPressure float64 // S2
	WeightVolatility      float64 // S3
	WeightRSIDivergence   float64 // S4
	WeightLosingStreak    float64 // S5

	TrendShortWindow       int
	TrendLongWindow        int
	TrendLossScale         float64 // amplifies small negative trend fractions
	SellingPressureScale   float64
	VolatilityClipMultiple float64 // recent vol hits 1.0 at this multiple of baseline
	VolatilityRecentWindow int
	VolatilityBaseWindow   int
	LosingStreakWindow     int
	RSIPeriod              int

	ThresholdHigh     float64 // above => ALTO
	ThresholdVeryHigh float64 // above => MUITO_ALTO
	ThresholdCritical float64 // above => CRITICO
	ReductionModerate float64 // ALTO reduction
	ReductionHigh     float64 // MUITO_ALTO reduction

	ReferenceAsset string // fixed market-wide series source, never switched mid-run
}

// LimitsConfig holds the operational guard rails (anti-overtrading and
// daily loss protection).
type LimitsConfig struct {
	MaxDailyLossPct  float64
	MaxTradesPerHour int
	MaxTradesPerDay  int
}
