package repositories

import (
	"errors"
	"time"

	"DayTradeBot/internal/models"

	"gorm.io/gorm"
)

type PriceRepository struct {
	db *gorm.DB
}

// NewPriceRepository creates a new instance of PriceRepository
func NewPriceRepository(db *gorm.DB) *PriceRepository {
	return &PriceRepository{db: db}
}

// Create adds a new Price record to the database
func (r *PriceRepository) Create(price *models.Price) error {
	if price == nil {
		return errors.New("price cannot be nil")
	}
	return r.db.Create(price).Error
}

// CreateBatch stores a chunk of candles in one insert
func (r *PriceRepository) CreateBatch(prices []models.Price) error {
	if len(prices) == 0 {
		return nil
	}
	return r.db.CreateInBatches(prices, 200).Error
}

// FindByAssetAndInterval retrieves candles for one asset within a window,
// oldest first
func (r *PriceRepository) FindByAssetAndInterval(asset, interval string, start, end time.Time) ([]models.Price, error) {
	if asset == "" {
		return nil, errors.New("invalid asset")
	}
	var prices []models.Price
	err := r.db.
		Where("asset = ? AND interval = ? AND open_time BETWEEN ? AND ?", asset, interval, start, end).
		Order("open_time ASC").
		Find(&prices).Error
	return prices, err
}

// FindLatest retrieves the last n candles for one asset, oldest first
func (r *PriceRepository) FindLatest(asset, interval string, n int) ([]models.Price, error) {
	if asset == "" {
		return nil, errors.New("invalid asset")
	}
	var prices []models.Price
	err := r.db.
		Where("asset = ? AND interval = ?", asset, interval).
		Order("open_time DESC").
		Limit(n).
		Find(&prices).Error
	if err != nil {
		return nil, err
	}
	// reverse into chronological order
	for i, j := 0, len(prices)-1; i < j; i, j = i+1, j-1 {
		prices[i], prices[j] = prices[j], prices[i]
	}
	return prices, nil
}
