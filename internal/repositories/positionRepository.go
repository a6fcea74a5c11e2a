package repositories

import (
	"errors"

	"DayTradeBot/internal/models"

	"gorm.io/gorm"
)

type PositionRepository struct {
	db *gorm.DB
}

// NewPositionRepository creates a new instance of PositionRepository
func NewPositionRepository(db *gorm.DB) *PositionRepository {
	return &PositionRepository{db: db}
}

// Create adds a new Position record to the database
func (r *PositionRepository) Create(position *models.Position) error {
	if position == nil {
		return errors.New("position cannot be nil")
	}
	return r.db.Create(position).Error
}

// Update modifies an existing Position record
func (r *PositionRepository) Update(position *models.Position) error {
	if position == nil {
		return errors.New("position cannot be nil")
	}
	return r.db.Save(position).Error
}

// FindActive retrieves every active Position record
func (r *PositionRepository) FindActive() ([]models.Position, error) {
	var positions []models.Position
	err := r.db.Where("is_active = ?", true).Find(&positions).Error
	return positions, err
}

// FindActiveByAsset retrieves the active Position for one asset, nil when
// there is none
func (r *PositionRepository) FindActiveByAsset(asset string) (*models.Position, error) {
	if asset == "" {
		return nil, errors.New("invalid asset")
	}
	var position models.Position
	err := r.db.Where("asset = ? AND is_active = ?", asset, true).First(&position).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	return &position, err
}

// Deactivate closes out a position row
func (r *PositionRepository) Deactivate(position *models.Position) error {
	if position == nil {
		return errors.New("position cannot be nil")
	}
	position.IsActive = false
	return r.db.Save(position).Error
}

// TotalAllocated sums the money held in active positions
func (r *PositionRepository) TotalAllocated() (float64, error) {
	var total float64
	err := r.db.Model(&models.Position{}).
		Where("is_active = ?", true).
		Select("COALESCE(SUM(allocated_amount), 0)").
		Scan(&total).Error
	return total, err
}
