package repositories

import (
	"errors"

	"DayTradeBot/internal/models"

	"gorm.io/gorm"
)

type AnalysisRepository struct {
	db *gorm.DB
}

// NewAnalysisRepository creates a new instance of AnalysisRepository
func NewAnalysisRepository(db *gorm.DB) *AnalysisRepository {
	return &AnalysisRepository{db: db}
}

// Create adds a new Analysis record to the database
func (r *AnalysisRepository) Create(analysis *models.Analysis) error {
	if analysis == nil {
		return errors.New("analysis cannot be nil")
	}
	return r.db.Create(analysis).Error
}

// FindRecentByAsset retrieves the latest analysis rows for one asset
func (r *AnalysisRepository) FindRecentByAsset(asset string, limit int) ([]models.Analysis, error) {
	if asset == "" {
		return nil, errors.New("invalid asset")
	}
	var rows []models.Analysis
	err := r.db.Where("asset = ?", asset).Order("timestamp DESC").Limit(limit).Find(&rows).Error
	return rows, err
}

// FindRecent retrieves the latest analysis rows across all assets
func (r *AnalysisRepository) FindRecent(limit int) ([]models.Analysis, error) {
	var rows []models.Analysis
	err := r.db.Order("timestamp DESC").Limit(limit).Find(&rows).Error
	return rows, err
}
