package handlers

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/vaishnavius/scraplink/models"
	"github.com/vaishnavius/scraplink/services"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

type PricesHandler struct {
	db     *gorm.DB
	cache  *services.CacheService
	market *services.MarketDataCache
}

func NewPricesHandler(db *gorm.DB, cache *services.CacheService, market *services.MarketDataCache) *PricesHandler {
	return &PricesHandler{db: db, cache: cache, market: market}
}

// GetPrices serves the reference price list from the in-process market
// snapshot, so a response is at most one cache TTL stale.
func (h *PricesHandler) GetPrices(c *gin.Context) {
	prices := h.market.GetCurrentPrices(c.Request.Context())

	c.JSON(http.StatusOK, gin.H{
		"data":           prices,
		"last_refreshed": h.market.LastRefresh(),
	})
}

// GetTrend serves the most recent reconciler trend snapshot for a material.
func (h *PricesHandler) GetTrend(c *gin.Context) {
	material := services.NormalizeMaterialName(c.Param("material"))
	if material == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid material name"})
		return
	}

	cacheKey := "prices:trend:" + material

	var cached models.TrendSnapshot
	if err := h.cache.Get(c.Request.Context(), cacheKey, &cached); err == nil && cached.ID != 0 {
		c.JSON(http.StatusOK, cached)
		return
	}

	var snap models.TrendSnapshot
	err := h.db.Where("material_type = ?", material).
		Order("computed_at DESC").
		First(&snap).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "no trend data for " + material})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "database query failed"})
		return
	}

	go h.cache.Set(context.Background(), cacheKey, snap, 60*time.Second)

	c.JSON(http.StatusOK, snap)
}

// GetPriceHistory pages through one material's observations, newest first.
func (h *PricesHandler) GetPriceHistory(c *gin.Context) {
	material := services.NormalizeMaterialName(c.Param("material"))
	if material == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid material name"})
		return
	}

	p := ParsePagination(c)
	days := ParseWindowDays(c, 30, 365)

	beforeStr := ""
	if p.Before != nil {
		beforeStr = Cursor(*p.Before)
	}
	cacheKey := fmt.Sprintf("prices:history:%s:%d:%d:%s", material, days, p.Limit, beforeStr)

	var cached CursorResponse
	if err := h.cache.Get(c.Request.Context(), cacheKey, &cached); err == nil && cached.Data != nil {
		c.JSON(http.StatusOK, cached)
		return
	}

	since := time.Now().AddDate(0, 0, -days)
	query := h.db.Model(&models.PriceHistoryPoint{}).
		Where("material_type = ? AND observed_at >= ?", material, since).
		Order("observed_at DESC").
		Limit(p.Limit + 1)

	if p.Before != nil {
		query = query.Where("observed_at < ?", *p.Before)
	}

	var rows []models.PriceHistoryPoint
	if err := query.Find(&rows).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "database query failed"})
		return
	}

	hasMore := len(rows) > p.Limit
	if hasMore {
		rows = rows[:p.Limit]
	}

	var nextCursor string
	if hasMore && len(rows) > 0 {
		nextCursor = Cursor(rows[len(rows)-1].ObservedAt)
	}

	resp := CursorResponse{Data: rows, NextCursor: nextCursor, HasMore: hasMore}
	go h.cache.Set(context.Background(), cacheKey, resp, 30*time.Second)

	c.JSON(http.StatusOK, resp)
}
