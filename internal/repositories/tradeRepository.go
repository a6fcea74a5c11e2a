package repositories

import (
	"errors"
	"time"

	"DayTradeBot/internal/models"

	"gorm.io/gorm"
)

type TradeRepository struct {
	db *gorm.DB
}

// NewTradeRepository creates a new instance of TradeRepository
func NewTradeRepository(db *gorm.DB) *TradeRepository {
	return &TradeRepository{db: db}
}

// Create adds a new Trade record to the database
func (r *TradeRepository) Create(trade *models.Trade) error {
	if trade == nil {
		return errors.New("trade cannot be nil")
	}
	return r.db.Create(trade).Error
}

// FindRecent retrieves the latest trades, newest first
func (r *TradeRepository) FindRecent(limit int) ([]models.Trade, error) {
	var trades []models.Trade
	err := r.db.Order("executed_at DESC").Limit(limit).Find(&trades).Error
	return trades, err
}

// FindByTimeRange retrieves trades executed within a window
func (r *TradeRepository) FindByTimeRange(start, end time.Time) ([]models.Trade, error) {
	var trades []models.Trade
	err := r.db.Where("executed_at BETWEEN ? AND ?", start, end).Find(&trades).Error
	return trades, err
}
