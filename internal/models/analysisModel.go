package models

import "time"

// Analysis is the audit record of one asset scored in one cycle.
type Analysis struct {
	ID        uint      `gorm:"primaryKey"`
	Timestamp time.Time `gorm:"index;autoCreateTime"`
	Asset     string    `gorm:"index;not null"`

	MomentumScore          float64 `gorm:"type:decimal(20,8)"`
	MomentumClassification string
	IRQScore               float64 `gorm:"type:decimal(20,8)"`
	IRQLevel               string
	RecommendedAllocation  float64 `gorm:"type:decimal(20,8)"`
	CurrentAllocation      float64 `gorm:"type:decimal(20,8)"`
}
