package models

import "time"

// Price is one stored market candle, the raw material for backtests.
type Price struct {
	ID        uint      `gorm:"primaryKey"`
	Asset     string    `gorm:"index;not null"`
	Interval  string    `gorm:"not null"`
	OpenTime  time.Time `gorm:"index;not null"`
	CloseTime time.Time `gorm:"index"`
	Open      float64   `gorm:"type:decimal(20,8)"`
	High      float64   `gorm:"type:decimal(20,8)"`
	Low       float64   `gorm:"type:decimal(20,8)"`
	Close     float64   `gorm:"type:decimal(20,8)"`
	Volume    float64   `gorm:"type:decimal(20,8)"`
}

const (
	PriceInterval5m  = "5m"
	PriceInterval15m = "15m"
	PriceInterval1h  = "1h"
	PriceInterval1d  = "1d"
)

// TableName sets the table name for the Price model
func (Price) TableName() string {
	return "prices"
}
