package models

import "time"

// TrendSnapshot is one reconciler-computed summary of a material's price
// movement over a trailing window. Snapshots append each cycle; the API
// serves the latest per material.
type TrendSnapshot struct {
	ID           uint      `gorm:"column:id;primaryKey" json:"id"`
	MaterialType string    `gorm:"column:material_type;index:idx_trend_material_time" json:"material_type"`
	WindowDays   int       `gorm:"column:window_days" json:"window_days"`
	MeanPrice    float64   `gorm:"column:mean_price" json:"mean_price"`
	StdDevPrice  float64   `gorm:"column:stddev_price" json:"stddev_price"`
	DailyDrift   float64   `gorm:"column:daily_drift" json:"daily_drift"`
	Direction    string    `gorm:"column:direction" json:"direction"`
	SampleCount  int       `gorm:"column:sample_count" json:"sample_count"`
	ComputedAt   time.Time `gorm:"column:computed_at;index:idx_trend_material_time" json:"computed_at"`
}

func (TrendSnapshot) TableName() string { return "trend_snapshots" }
