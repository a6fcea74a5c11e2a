package models

import "time"

// Position is the persisted portfolio state carried between cycles. The
// allocator never writes these rows itself; the executor applies the
// proposed plan.
type Position struct {
	ID              uint    `gorm:"primaryKey"`
	Asset           string  `gorm:"index;not null"`
	Quantity        float64 `gorm:"type:decimal(20,8)"`
	EntryPrice      float64 `gorm:"type:decimal(20,8)"`
	CurrentPrice    float64 `gorm:"type:decimal(20,8)"`
	AllocatedAmount float64 `gorm:"type:decimal(20,8);not null"`
	UnrealizedPnL   float64 `gorm:"type:decimal(20,8)"`

	EnteredAt time.Time `gorm:"index"`
	UpdatedAt time.Time `gorm:"autoUpdateTime"`
	IsActive  bool      `gorm:"index;default:true"`
}
