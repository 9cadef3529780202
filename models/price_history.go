package models

import "time"

// PriceHistoryPoint is append-only; rows are never updated after insert.
type PriceHistoryPoint struct {
	ID           uint      `gorm:"column:id;primaryKey" json:"id"`
	MaterialType string    `gorm:"column:material_type;index:idx_history_material_time" json:"material_type"`
	Price        float64   `gorm:"column:price" json:"price"`
	ObservedAt   time.Time `gorm:"column:observed_at;index:idx_history_material_time" json:"observed_at"`
	Source       string    `gorm:"column:source" json:"source"`
}

func (PriceHistoryPoint) TableName() string { return "price_history" }
