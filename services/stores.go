package services

import (
	"context"
	"time"

	"github.com/vaishnavius/scraplink/models"

	"gorm.io/gorm"
)

// PriceSource supplies the full current reference price list. The market data
// cache reads through it on refresh.
type PriceSource interface {
	FetchCurrent(ctx context.Context) ([]models.ReferencePrice, error)
}

// HistorySource returns history points for one material since a cutoff,
// ordered oldest first.
type HistorySource interface {
	RecentHistory(ctx context.Context, materialType string, since time.Time) ([]models.PriceHistoryPoint, error)
}

// EstimationSink persists estimation results for later accuracy reconciliation.
type EstimationSink interface {
	SaveEstimation(ctx context.Context, rec *models.EstimationLog) (uint, error)
}

// Store is the gorm-backed implementation used by the API server.
type Store struct {
	db *gorm.DB
}

func NewStore(db *gorm.DB) *Store {
	return &Store{db: db}
}

func (s *Store) FetchCurrent(ctx context.Context) ([]models.ReferencePrice, error) {
	var prices []models.ReferencePrice
	err := s.db.WithContext(ctx).Order("material_type, market_location").Find(&prices).Error
	if err != nil {
		return nil, err
	}
	return prices, nil
}

func (s *Store) RecentHistory(ctx context.Context, materialType string, since time.Time) ([]models.PriceHistoryPoint, error) {
	var points []models.PriceHistoryPoint
	err := s.db.WithContext(ctx).
		Where("material_type = ? AND observed_at >= ?", materialType, since).
		Order("observed_at ASC").
		Find(&points).Error
	if err != nil {
		return nil, err
	}
	return points, nil
}

func (s *Store) SaveEstimation(ctx context.Context, rec *models.EstimationLog) (uint, error) {
	if err := s.db.WithContext(ctx).Create(rec).Error; err != nil {
		return 0, err
	}
	return rec.ID, nil
}
