package position

import (
	"fmt"
	"math"
	"time"

	"DayTradeBot/internal/models"
	"DayTradeBot/internal/services/portfolio"
	"DayTradeBot/internal/services/riskguard"

	"github.com/rs/zerolog"
)

// PositionStore is the slice of position persistence the executor needs.
type PositionStore interface {
	FindActiveByAsset(asset string) (*models.Position, error)
	Create(position *models.Position) error
	Update(position *models.Position) error
	Deactivate(position *models.Position) error
}

// TradeStore records executed trades.
type TradeStore interface {
	Create(trade *models.Trade) error
}

// Executor applies an allocation plan to the persisted portfolio state. It
// is the separate execution component the allocator proposes to: the
// allocator itself never touches position storage.
type Executor struct {
	positionRepo PositionStore
	tradeRepo    TradeStore
	guard        *riskguard.Guard
	log          zerolog.Logger
}

func NewExecutor(
	positionRepo PositionStore,
	tradeRepo TradeStore,
	guard *riskguard.Guard,
	log zerolog.Logger,
) *Executor {
	return &Executor{
		positionRepo: positionRepo,
		tradeRepo:    tradeRepo,
		guard:        guard,
		log:          log.With().Str("component", "executor").Logger(),
	}
}

// Apply moves every position toward its decision's recommended amount and
// records the resulting trades. HOLD decisions are skipped; the guard's
// pre-trade checks gate every BUY and SELL.
func (e *Executor) Apply(plan *portfolio.Plan, prices map[string]float64, irqScore float64, momentumScores map[string]float64) error {
	for asset, decision := range plan.Decisions {
		if decision.Action == portfolio.ActionHold {
			continue
		}

		if ok, reason := e.guard.CanTrade(); !ok {
			e.log.Warn().Str("reason", reason).Msg("trading blocked, plan partially applied")
			return fmt.Errorf("trading blocked: %s", reason)
		}

		if err := e.applyDecision(asset, decision, prices[asset], irqScore, momentumScores[asset]); err != nil {
			return fmt.Errorf("apply %s for %s: %w", decision.Action, asset, err)
		}
	}
	return nil
}

func (e *Executor) applyDecision(asset string, decision portfolio.Decision, price, irqScore, momentumScore float64) error {
	existing, err := e.positionRepo.FindActiveByAsset(asset)
	if err != nil {
		return err
	}

	target := decision.RecommendedAmount
	traded := target
	if existing != nil {
		traded = target - existing.AllocatedAmount
	}

	switch {
	case existing == nil && target > 0:
		pos := &models.Position{
			Asset:           asset,
			EntryPrice:      price,
			CurrentPrice:    price,
			AllocatedAmount: target,
			EnteredAt:       time.Now(),
			IsActive:        true,
		}
		if price > 0 {
			pos.Quantity = target / price
		}
		if err := e.positionRepo.Create(pos); err != nil {
			return err
		}
	case existing != nil && target == 0:
		if err := e.positionRepo.Deactivate(existing); err != nil {
			return err
		}
		e.guard.ClosePosition(asset, price)
	case existing != nil:
		existing.AllocatedAmount = target
		existing.CurrentPrice = price
		if price > 0 {
			existing.Quantity = target / price
		}
		if err := e.positionRepo.Update(existing); err != nil {
			return err
		}
	default:
		return nil
	}

	// the trade row carries the moved amount so P&L can be rebuilt from
	// history; the direction lives in TradeType
	trade := &models.Trade{
		Asset:           asset,
		TradeType:       models.TradeTypeBuy,
		Amount:          math.Abs(traded),
		ResultingAmount: target,
		Price:           price,
		Reason:          decision.Reason,
		MomentumScore:   momentumScore,
		IRQScore:        irqScore,
	}
	if decision.Action == portfolio.ActionSell {
		trade.TradeType = models.TradeTypeSell
	}
	if err := e.tradeRepo.Create(trade); err != nil {
		return err
	}

	e.guard.RecordTrade(asset, decision.Action == portfolio.ActionBuy, price, target)

	e.log.Info().
		Str("asset", asset).
		Str("action", decision.Action.String()).
		Float64("amount", target).
		Str("reason", decision.Reason).
		Msg("decision applied")
	return nil
}
