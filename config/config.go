package config

import (
	"fmt"
	"math"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// ConfigurationError marks a fatal startup misconfiguration (weights not
// summing to 1, inverted thresholds). A cycle must never run with one.
type ConfigurationError struct {
	Field  string
	Reason string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("configuration error: %s: %s", e.Field, e.Reason)
}

func Load() (*Config, error) {
	// .env is optional: env vars may come from the environment directly
	_ = godotenv.Load()

	cfg := &Config{
		Exchange: ExchangeConfig{
			APIKey:    os.Getenv("BINANCE_API_KEY"),
			SecretKey: os.Getenv("BINANCE_SECRET_KEY"),
		},
		Database: DatabaseConfig{
			Host:     envString("DB_HOST", "localhost"),
			Port:     envInt("DB_PORT", 5432),
			User:     os.Getenv("DB_USER"),
			Password: os.Getenv("DB_PASSWORD"),
			DBName:   envString("DB_NAME", "daytradebot"),
		},
		Server: ServerConfig{
			Port: envInt("SERVER_PORT", 8000),
		},
		Alerts: AlertConfig{
			TelegramBotToken:  os.Getenv("TELEGRAM_BOT_TOKEN"),
			TelegramChatID:    os.Getenv("TELEGRAM_CHAT_ID"),
			DiscordWebhookURL: os.Getenv("DISCORD_WEBHOOK_URL"),
		},
		Trading: TradingConfig{
			InitialCapital:    envFloat("INITIAL_CAPITAL", 150),
			MaxPositionPct:    envFloat("MAX_POSITION_PCT", 0.30),
			MinPositionAmount: envFloat("MIN_POSITION_AMOUNT", 10),
			StopLossPct:       envFloat("STOP_LOSS_PCT", 0.05),
			TakeProfitPct:     envFloat("TAKE_PROFIT_PCT", 0.10),
			RebalanceInterval: time.Duration(envInt("REBALANCE_INTERVAL_SECONDS", 300)) * time.Second,
			ActionEpsilon:     envFloat("ACTION_EPSILON", 0.01),
		},
		Momentum: MomentumConfig{
			WeightReturn:   envFloat("MOMENTUM_WEIGHT_RETURN", 0.50),
			WeightTrend:    envFloat("MOMENTUM_WEIGHT_TREND", 0.30),
			WeightVolume:   envFloat("MOMENTUM_WEIGHT_VOLUME", 0.20),
			ReturnWindow:   envInt("MOMENTUM_RETURN_WINDOW", 5),
			ShortMAWindow:  envInt("MOMENTUM_SHORT_MA", 9),
			LongMAWindow:   envInt("MOMENTUM_LONG_MA", 21),
			VolumeRecent:   envInt("MOMENTUM_VOLUME_RECENT", 5),
			VolumeBaseline: envInt("MOMENTUM_VOLUME_BASELINE", 20),
			ForteAltaCut:   envFloat("MOMENTUM_FORTE_ALTA_CUT", 0.50),
			LateralBand:    envFloat("MOMENTUM_LATERAL_BAND", 0.15),
		},
		Risk: RiskConfig{
			WeightTrendLoss:        envFloat("IRQ_WEIGHT_TREND_LOSS", 0.25),
			WeightSellingPressure:  envFloat("IRQ_WEIGHT_SELLING_PRESSURE", 0.25),
			WeightVolatility:       envFloat("IRQ_WEIGHT_VOLATILITY", 0.15),
			WeightRSIDivergence:    envFloat("IRQ_WEIGHT_RSI_DIVERGENCE", 0.15),
			WeightLosingStreak:     envFloat("IRQ_WEIGHT_LOSING_STREAK", 0.20),
			TrendShortWindow:       envInt("IRQ_TREND_SHORT_WINDOW", 9),
			TrendLongWindow:        envInt("IRQ_TREND_LONG_WINDOW", 21),
			TrendLossScale:         envFloat("IRQ_TREND_LOSS_SCALE", 20),
			SellingPressureScale:   envFloat("IRQ_SELLING_PRESSURE_SCALE", 10),
			VolatilityClipMultiple: envFloat("IRQ_VOLATILITY_CLIP_MULTIPLE", 2),
			VolatilityRecentWindow: envInt("IRQ_VOLATILITY_RECENT_WINDOW", 10),
			VolatilityBaseWindow:   envInt("IRQ_VOLATILITY_BASE_WINDOW", 30),
			LosingStreakWindow:     envInt("IRQ_LOSING_STREAK_WINDOW", 5),
			RSIPeriod:              envInt("IRQ_RSI_PERIOD", 14),
			ThresholdHigh:          envFloat("IRQ_THRESHOLD_HIGH", 0.70),
			ThresholdVeryHigh:      envFloat("IRQ_THRESHOLD_VERY_HIGH", 0.80),
			ThresholdCritical:      envFloat("IRQ_THRESHOLD_CRITICAL", 0.90),
			ReductionModerate:      envFloat("IRQ_REDUCTION_MODERATE", 0.40),
			ReductionHigh:          envFloat("IRQ_REDUCTION_HIGH", 0.70),
			ReferenceAsset:         envString("IRQ_REFERENCE_ASSET", "BTC"),
		},
		Limits: LimitsConfig{
			MaxDailyLossPct:  envFloat("MAX_DAILY_LOSS_PCT", 0.10),
			MaxTradesPerHour: envInt("MAX_TRADES_PER_HOUR", 20),
			MaxTradesPerDay:  envInt("MAX_TRADES_PER_DAY", 100),
		},
		Symbols:  getSymbols(),
		LogLevel: envString("LOG_LEVEL", "info"),
		Interval: envString("MARKET_INTERVAL", "5m"),
		Lookback: envInt("MARKET_LOOKBACK", 50),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate enforces the invariants that make the engines meaningful. Any
// violation is fatal: a cycle must not run with a broken configuration.
func (c *Config) Validate() error {
	const tol = 1e-9

	mw := c.Momentum.WeightReturn + c.Momentum.WeightTrend + c.Momentum.WeightVolume
	if math.Abs(mw-1.0) > tol {
		return &ConfigurationError{"momentum weights", fmt.Sprintf("must sum to 1.0, got %v", mw)}
	}
	rw := c.Risk.WeightTrendLoss + c.Risk.WeightSellingPressure + c.Risk.WeightVolatility +
		c.Risk.WeightRSIDivergence + c.Risk.WeightLosingStreak
	if math.Abs(rw-1.0) > tol {
		return &ConfigurationError{"irq weights", fmt.Sprintf("must sum to 1.0, got %v", rw)}
	}

	if !(c.Risk.ThresholdHigh < c.Risk.ThresholdVeryHigh && c.Risk.ThresholdVeryHigh < c.Risk.ThresholdCritical) {
		return &ConfigurationError{"irq thresholds", "must be strictly increasing"}
	}
	if c.Risk.ReductionModerate < 0 || c.Risk.ReductionModerate > 1 ||
		c.Risk.ReductionHigh < 0 || c.Risk.ReductionHigh > 1 ||
		c.Risk.ReductionModerate > c.Risk.ReductionHigh {
		return &ConfigurationError{"irq reductions", "must be in [0,1] and non-decreasing"}
	}

	if c.Momentum.ForteAltaCut <= c.Momentum.LateralBand {
		return &ConfigurationError{"momentum cut points", "FORTE_ALTA cut must be above LATERAL band"}
	}
	if c.Momentum.ShortMAWindow >= c.Momentum.LongMAWindow {
		return &ConfigurationError{"momentum MA windows", "short window must be below long window"}
	}
	if c.Momentum.VolumeRecent >= c.Momentum.VolumeBaseline {
		return &ConfigurationError{"momentum volume windows", "recent window must be below baseline window"}
	}
	if c.Risk.TrendShortWindow >= c.Risk.TrendLongWindow {
		return &ConfigurationError{"irq trend windows", "short window must be below long window"}
	}
	if c.Risk.VolatilityRecentWindow >= c.Risk.VolatilityBaseWindow {
		return &ConfigurationError{"irq volatility windows", "recent window must be below baseline window"}
	}

	if c.Trading.MaxPositionPct <= 0 || c.Trading.MaxPositionPct > 1 {
		return &ConfigurationError{"max position pct", "must be in (0,1]"}
	}
	if c.Trading.MinPositionAmount < 0 {
		return &ConfigurationError{"min position amount", "must be non-negative"}
	}
	if c.Trading.StopLossPct <= 0 || c.Trading.StopLossPct >= 1 {
		return &ConfigurationError{"stop loss pct", "must be in (0,1)"}
	}
	if c.Trading.InitialCapital <= 0 {
		return &ConfigurationError{"initial capital", "must be positive"}
	}
	if c.Risk.ReferenceAsset == "" {
		return &ConfigurationError{"irq reference asset", "must be set"}
	}
	return nil
}

func envString(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return i
}

func envFloat(key string, fallback float64) float64 {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return fallback
	}
	return f
}

func getSymbols() []string {
	symbols := os.Getenv("TRADING_SYMBOLS")
	if symbols == "" {
		return []string{"BTC", "ETH", "BNB", "SOL", "ADA"}
	}
	parts := strings.Split(symbols, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if s := strings.TrimSpace(strings.ToUpper(p)); s != "" {
			out = append(out, s)
		}
	}
	return out
}
