package models

import "time"

// SourceSeed marks reference prices that came from the initial seed migration
// rather than a live feed or an admin update.
const SourceSeed = "initial_seed"

// DefaultMarketLocation is used until per-region pricing is rolled out.
const DefaultMarketLocation = "national"

type ReferencePrice struct {
	ID             uint      `gorm:"column:id;primaryKey" json:"id"`
	MaterialType   string    `gorm:"column:material_type;uniqueIndex:idx_material_market" json:"material_type"`
	MarketLocation string    `gorm:"column:market_location;uniqueIndex:idx_material_market;default:national" json:"market_location"`
	CurrentPrice   float64   `gorm:"column:current_price" json:"current_price"`
	LastUpdated    time.Time `gorm:"column:last_updated" json:"last_updated"`
	Source         string    `gorm:"column:source" json:"source"`
}

func (ReferencePrice) TableName() string { return "reference_prices" }
