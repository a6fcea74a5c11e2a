package models

import "time"

type Trade struct {
	ID              uint    `gorm:"primaryKey"`
	Asset           string  `gorm:"index;not null"`
	TradeType       string  `gorm:"not null"`
	Amount          float64 `gorm:"type:decimal(20,8);not null"`
	ResultingAmount float64 `gorm:"type:decimal(20,8)"`
	Price           float64 `gorm:"type:decimal(20,8)"`
	Reason          string
	MomentumScore   float64 `gorm:"type:decimal(20,8)"`
	IRQScore        float64 `gorm:"type:decimal(20,8)"`

	ExecutedAt time.Time `gorm:"index;autoCreateTime"`
}

const (
	TradeTypeBuy  = "BUY"
	TradeTypeSell = "SELL"
)
