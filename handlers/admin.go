package handlers

import (
	"context"
	"errors"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/vaishnavius/scraplink/models"
	"github.com/vaishnavius/scraplink/services"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// AdminHandler owns the write side of the reference price table: manual
// upserts and bulk syncs from a published market index.
type AdminHandler struct {
	db      *gorm.DB
	cache   *services.CacheService
	market  *services.MarketDataCache
	scraper *services.IndexScraper
}

func NewAdminHandler(db *gorm.DB, cache *services.CacheService, market *services.MarketDataCache, scraper *services.IndexScraper) *AdminHandler {
	return &AdminHandler{db: db, cache: cache, market: market, scraper: scraper}
}

type priceUpsertRequest struct {
	MaterialType   string  `json:"material_type"`
	Price          float64 `json:"price"`
	MarketLocation string  `json:"market_location"`
	Source         string  `json:"source"`
}

// UpsertPrice creates or updates one reference price and appends the
// observation to the history table, then invalidates the market snapshot so
// estimates pick the new price up immediately.
func (h *AdminHandler) UpsertPrice(c *gin.Context) {
	var req priceUpsertRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	material := services.NormalizeMaterialName(req.MaterialType)
	if material == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "material_type must not be empty"})
		return
	}
	if req.Price <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "price must be a positive number"})
		return
	}

	source := strings.TrimSpace(req.Source)
	if source == "" {
		source = "admin"
	}
	location := strings.TrimSpace(req.MarketLocation)
	if location == "" {
		location = models.DefaultMarketLocation
	}

	row, err := h.applyPrice(c.Request.Context(), material, location, req.Price, source)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "price update failed"})
		return
	}

	h.market.Invalidate()
	h.publish(gin.H{"event": "price_update", "material_type": row.MaterialType, "price": row.CurrentPrice})

	c.JSON(http.StatusOK, row)
}

type syncRequest struct {
	URL string `json:"url"`
}

// SyncPrices scrapes a market index page and upserts every parseable row.
// Individual row failures are counted, not fatal.
func (h *AdminHandler) SyncPrices(c *gin.Context) {
	var req syncRequest
	if err := c.ShouldBindJSON(&req); err != nil || strings.TrimSpace(req.URL) == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "url is required"})
		return
	}

	rows, err := h.scraper.FetchIndex(c.Request.Context(), req.URL)
	if err != nil {
		log.Printf("price index fetch failed: %v", err)
		c.JSON(http.StatusBadGateway, gin.H{"error": "market index fetch failed"})
		return
	}

	synced, failed := 0, 0
	for _, row := range rows {
		material := services.NormalizeMaterialName(row.MaterialType)
		if material == "" || row.Price <= 0 {
			failed++
			continue
		}
		location := strings.TrimSpace(row.MarketLocation)
		if location == "" {
			location = models.DefaultMarketLocation
		}
		if _, err := h.applyPrice(c.Request.Context(), material, location, row.Price, "market_sync"); err != nil {
			log.Printf("price sync failed for %s: %v", material, err)
			failed++
			continue
		}
		synced++
	}

	if synced > 0 {
		h.market.Invalidate()
		h.publish(gin.H{"event": "price_sync", "updated": synced})
	}

	c.JSON(http.StatusOK, gin.H{"synced": synced, "failed": failed})
}

// applyPrice writes the reference row and its history observation in one
// transaction so the tables cannot drift apart.
func (h *AdminHandler) applyPrice(ctx context.Context, material, location string, price float64, source string) (*models.ReferencePrice, error) {
	now := time.Now().UTC()
	var row models.ReferencePrice

	err := h.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		err := tx.Where("material_type = ? AND market_location = ?", material, location).First(&row).Error
		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
			row = models.ReferencePrice{
				MaterialType:   material,
				MarketLocation: location,
				CurrentPrice:   price,
				LastUpdated:    now,
				Source:         source,
			}
			if err := tx.Create(&row).Error; err != nil {
				return err
			}
		case err != nil:
			return err
		default:
			row.CurrentPrice = price
			row.LastUpdated = now
			row.Source = source
			if err := tx.Save(&row).Error; err != nil {
				return err
			}
		}

		return tx.Create(&models.PriceHistoryPoint{
			MaterialType: material,
			Price:        price,
			ObservedAt:   now,
			Source:       source,
		}).Error
	})
	if err != nil {
		return nil, err
	}
	return &row, nil
}

func (h *AdminHandler) publish(payload interface{}) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := h.cache.Publish(ctx, services.PriceUpdatesChannel, payload); err != nil {
		log.Printf("price update publish failed: %v", err)
	}
}
