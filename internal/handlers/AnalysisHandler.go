package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"DayTradeBot/config"
	"DayTradeBot/internal/models"
	"DayTradeBot/internal/operations/backtest"
	"DayTradeBot/internal/operations/cycle"
	"DayTradeBot/internal/repositories"
	"DayTradeBot/internal/services/momentum"
	"DayTradeBot/internal/services/portfolio"
	"DayTradeBot/internal/services/risk"
	"DayTradeBot/internal/services/riskguard"
	"DayTradeBot/internal/services/series"

	"github.com/rs/zerolog"
)

// CandleFetcher pulls raw candles from the exchange for persistence.
type CandleFetcher interface {
	Candles(ctx context.Context, asset, interval string, start, end time.Time) ([]models.Price, error)
}

// PositionReader is the slice of position storage the API surfaces.
type PositionReader interface {
	FindActive() ([]models.Position, error)
	TotalAllocated() (float64, error)
}

// Handler exposes the engine over HTTP: ad-hoc momentum/risk scoring of a
// posted series, cycle triggering, portfolio state and backtests.
type Handler struct {
	cfg          *config.Config
	runner       *cycle.Runner
	momentum     *momentum.Analyzer
	risk         *risk.Analyzer
	alloc        *portfolio.Allocator
	guard        *riskguard.Guard
	positionRepo PositionReader
	tradeRepo    *repositories.TradeRepository
	priceRepo    *repositories.PriceRepository
	fetcher      CandleFetcher
	log          zerolog.Logger
}

func NewHandler(
	cfg *config.Config,
	runner *cycle.Runner,
	momentumAnalyzer *momentum.Analyzer,
	riskAnalyzer *risk.Analyzer,
	allocator *portfolio.Allocator,
	guard *riskguard.Guard,
	positionRepo PositionReader,
	tradeRepo *repositories.TradeRepository,
	priceRepo *repositories.PriceRepository,
	fetcher CandleFetcher,
	log zerolog.Logger,
) *Handler {
	return &Handler{
		cfg:          cfg,
		runner:       runner,
		momentum:     momentumAnalyzer,
		risk:         riskAnalyzer,
		alloc:        allocator,
		guard:        guard,
		positionRepo: positionRepo,
		tradeRepo:    tradeRepo,
		priceRepo:    priceRepo,
		fetcher:      fetcher,
		log:          log.With().Str("component", "http").Logger(),
	}
}

type seriesRequest struct {
	Asset   string    `json:"asset"`
	Prices  []float64 `json:"prices"`
	Volumes []float64 `json:"volumes"`
}

// toSeries builds an analysis series from parallel price/volume arrays,
// spacing the synthetic timestamps one interval apart.
func (req *seriesRequest) toSeries() series.Series {
	n := len(req.Prices)
	s := make(series.Series, 0, n)
	base := time.Now().Add(-time.Duration(n) * time.Minute)
	for i := 0; i < n; i++ {
		vol := 0.0
		if i < len(req.Volumes) {
			vol = req.Volumes[i]
		}
		s = append(s, series.Point{
			Timestamp: base.Add(time.Duration(i) * time.Minute),
			Price:     req.Prices[i],
			Volume:    vol,
		})
	}
	return s
}

// HandleHealth handles GET /health
func (h *Handler) HandleHealth(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// HandleAnalyzeMomentum handles POST /api/analyze/momentum
func (h *Handler) HandleAnalyzeMomentum(w http.ResponseWriter, r *http.Request) {
	var req seriesRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	res, err := h.momentum.Score(req.Asset, req.toSeries())
	if err != nil {
		h.writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"asset":           res.Asset,
		"momentum_score":  res.MomentumScore,
		"return_pct":      res.ReturnPct,
		"trend_status":    res.TrendStatus.String(),
		"classification":  res.Classification.String(),
	})
}

// HandleAnalyzeRisk handles POST /api/analyze/risk
func (h *Handler) HandleAnalyzeRisk(w http.ResponseWriter, r *http.Request) {
	var req seriesRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	res, err := h.risk.Score(req.toSeries())
	if err != nil {
		h.writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"irq_score":            res.IRQScore,
		"level":                res.Level.String(),
		"reduction_percentage": res.ReductionPercentage,
		"rsi":                  res.RSI,
		"signal_scores":        res.SignalScores,
		"degraded_signals":     res.Degraded,
	})
}

// HandleAnalyzeFull handles POST /api/analyze/full: momentum and fall risk
// scored against the same posted series.
func (h *Handler) HandleAnalyzeFull(w http.ResponseWriter, r *http.Request) {
	var req seriesRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	s := req.toSeries()

	momentumRes, err := h.momentum.Score(req.Asset, s)
	if err != nil {
		h.writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}
	riskRes, err := h.risk.Score(s)
	if err != nil {
		h.writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"asset":                req.Asset,
		"momentum_score":       momentumRes.MomentumScore,
		"classification":       momentumRes.Classification.String(),
		"trend_status":         momentumRes.TrendStatus.String(),
		"irq_score":            riskRes.IRQScore,
		"level":                riskRes.Level.String(),
		"reduction_percentage": riskRes.ReductionPercentage,
	})
}

// HandleRunCycle handles POST /api/trade/cycle
func (h *Handler) HandleRunCycle(w http.ResponseWriter, r *http.Request) {
	report, err := h.runner.Run(r.Context())
	if err != nil {
		h.log.Error().Err(err).Msg("cycle failed")
		h.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	h.writeJSON(w, http.StatusOK, cycleResponse(report))
}

// HandleStatus handles GET /api/status
func (h *Handler) HandleStatus(w http.ResponseWriter, r *http.Request) {
	canTrade, reason := h.guard.CanTrade()
	capital := h.runner.Capital()

	allocated, err := h.positionRepo.TotalAllocated()
	if err != nil {
		h.log.Error().Err(err).Msg("allocated total unavailable")
		h.writeError(w, http.StatusInternalServerError, "failed to load positions")
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"capital":        capital,
		"allocated":      allocated,
		"free_capital":   capital - allocated,
		"can_trade":      canTrade,
		"trade_block":    reason,
		"daily_pnl":      h.guard.DailyPnL(),
		"open_positions": h.guard.OpenPositions(),
		"symbols":        h.cfg.Symbols,
	})
}

// HandleConfig handles GET /api/config
func (h *Handler) HandleConfig(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"symbols":             h.cfg.Symbols,
		"interval":            h.cfg.Interval,
		"max_position_pct":    h.cfg.Trading.MaxPositionPct,
		"min_position_amount": h.cfg.Trading.MinPositionAmount,
		"stop_loss_pct":       h.cfg.Trading.StopLossPct,
		"take_profit_pct":     h.cfg.Trading.TakeProfitPct,
		"rebalance_interval":  h.cfg.Trading.RebalanceInterval.String(),
		"irq_reference_asset": h.cfg.Risk.ReferenceAsset,
	})
}

// HandleSetCapital handles POST /api/trade/capital
func (h *Handler) HandleSetCapital(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Capital float64 `json:"capital"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Capital <= 0 {
		h.writeError(w, http.StatusBadRequest, "capital must be a positive number")
		return
	}
	h.runner.SetCapital(req.Capital)
	h.writeJSON(w, http.StatusOK, map[string]float64{"capital": req.Capital})
}

// HandlePositions handles GET /api/positions
func (h *Handler) HandlePositions(w http.ResponseWriter, r *http.Request) {
	positions, err := h.positionRepo.FindActive()
	if err != nil {
		h.writeError(w, http.StatusInternalServerError, "failed to load positions")
		return
	}
	h.writeJSON(w, http.StatusOK, positions)
}

// HandleTrades handles GET /api/trades
func (h *Handler) HandleTrades(w http.ResponseWriter, r *http.Request) {
	trades, err := h.tradeRepo.FindRecent(100)
	if err != nil {
		h.writeError(w, http.StatusInternalServerError, "failed to load trades")
		return
	}
	h.writeJSON(w, http.StatusOK, trades)
}

// HandleCollectCandles handles POST /api/candles/collect
func (h *Handler) HandleCollectCandles(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Asset    string    `json:"asset"`
		Interval string    `json:"interval"`
		Start    time.Time `json:"start"`
		End      time.Time `json:"end"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Asset == "" {
		h.writeError(w, http.StatusBadRequest, "asset, interval, start and end are required")
		return
	}
	if req.Interval == "" {
		req.Interval = h.cfg.Interval
	}

	candles, err := h.fetcher.Candles(r.Context(), req.Asset, req.Interval, req.Start, req.End)
	if err != nil {
		h.writeError(w, http.StatusBadGateway, err.Error())
		return
	}
	if err := h.priceRepo.CreateBatch(candles); err != nil {
		h.writeError(w, http.StatusInternalServerError, "failed to store candles")
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"asset":    req.Asset,
		"interval": req.Interval,
		"stored":   len(candles),
	})
}

// HandleBacktest handles POST /api/backtest
func (h *Handler) HandleBacktest(w http.ResponseWriter, r *http.Request) {
	req := struct {
		Symbols        []string  `json:"symbols"`
		Interval       string    `json:"interval"`
		Window         int       `json:"window"`
		InitialCapital float64   `json:"initial_capital"`
		Start          time.Time `json:"start"`
		End            time.Time `json:"end"`
	}{
		Symbols:        h.cfg.Symbols,
		Interval:       h.cfg.Interval,
		Window:         h.cfg.Lookback,
		InitialCapital: h.cfg.Trading.InitialCapital,
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	engine := backtest.NewEngine(h.priceRepo, h.momentum, h.risk, h.alloc, backtest.Config{
		InitialCapital: req.InitialCapital,
		Symbols:        req.Symbols,
		Interval:       req.Interval,
		Window:         req.Window,
		StartTime:      req.Start,
		EndTime:        req.End,
	}, h.log)

	results, err := engine.Run()
	if err != nil {
		h.writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"cycles":         results.Cycles,
		"trades":         results.Trades,
		"winning_cycles": results.WinningCycles,
		"losing_cycles":  results.LosingCycles,
		"win_rate":       results.WinRate,
		"max_drawdown":   results.MaxDrawdown,
		"final_balance":  results.FinalBalance,
	})
}

func cycleResponse(report *cycle.Report) map[string]interface{} {
	decisions := make(map[string]interface{}, len(report.Plan.Decisions))
	for asset, d := range report.Plan.Decisions {
		decisions[asset] = map[string]interface{}{
			"action":             d.Action.String(),
			"recommended_amount": d.RecommendedAmount,
			"change_percentage":  d.ChangePercentage,
			"classification":     d.Classification.String(),
			"reason":             d.Reason,
		}
	}
	return map[string]interface{}{
		"timestamp":        report.Timestamp.Format(time.RFC3339),
		"total_capital":    report.TotalCapital,
		"irq_score":        report.Risk.IRQScore,
		"level":            report.Risk.Level.String(),
		"decisions":        decisions,
		"unallocated_cash": report.Plan.UnallocatedCash,
		"excluded":         report.Excluded,
	}
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		h.log.Error().Err(err).Msg("response encode failed")
	}
}

func (h *Handler) writeError(w http.ResponseWriter, status int, message string) {
	h.writeJSON(w, status, map[string]string{"error": message})
}
