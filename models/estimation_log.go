package models

import "time"

// EstimationLog records every successful estimate so predictions can be
// reconciled against the real sale price once a pickup completes.
type EstimationLog struct {
	ID                uint      `gorm:"column:id;primaryKey" json:"id"`
	MaterialType      string    `gorm:"column:material_type;index" json:"material_type"`
	SubCategory       string    `gorm:"column:sub_category" json:"sub_category,omitempty"`
	LeafType          string    `gorm:"column:leaf_type" json:"leaf_type,omitempty"`
	Weight            float64   `gorm:"column:weight" json:"weight"`
	PredictedPrice    float64   `gorm:"column:predicted_price" json:"predicted_price"`
	Confidence        float64   `gorm:"column:confidence" json:"confidence"`
	BasePrice         float64   `gorm:"column:base_price" json:"base_price"`
	WeightMultiplier  float64   `gorm:"column:weight_multiplier" json:"weight_multiplier"`
	TrendMultiplier   float64   `gorm:"column:trend_multiplier" json:"trend_multiplier"`
	QualityMultiplier float64   `gorm:"column:quality_multiplier" json:"quality_multiplier"`
	Strategy          string    `gorm:"column:strategy" json:"strategy"`
	Description       string    `gorm:"column:description" json:"description,omitempty"`
	ActualPrice       *float64  `gorm:"column:actual_price" json:"actual_price"`
	Accuracy          *float64  `gorm:"column:accuracy" json:"accuracy"`
	CreatedAt         time.Time `gorm:"column:created_at;index" json:"created_at"`
}

func (EstimationLog) TableName() string { return "estimation_logs" }
