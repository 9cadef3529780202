package handlers

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/vaishnavius/scraplink/models"
	"github.com/vaishnavius/scraplink/services"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

type EstimationsHandler struct {
	db    *gorm.DB
	cache *services.CacheService
}

func NewEstimationsHandler(db *gorm.DB, cache *services.CacheService) *EstimationsHandler {
	return &EstimationsHandler{db: db, cache: cache}
}

// GetEstimations pages through the estimation log, newest first, optionally
// filtered by material or strategy.
func (h *EstimationsHandler) GetEstimations(c *gin.Context) {
	p := ParsePagination(c)
	material := c.Query("material")
	strategy := c.Query("strategy")

	beforeStr := ""
	if p.Before != nil {
		beforeStr = Cursor(*p.Before)
	}
	cacheKey := fmt.Sprintf("estimations:%s:%s:%d:%s", material, strategy, p.Limit, beforeStr)

	var cached CursorResponse
	if err := h.cache.Get(c.Request.Context(), cacheKey, &cached); err == nil && cached.Data != nil {
		c.JSON(http.StatusOK, cached)
		return
	}

	query := h.db.Model(&models.EstimationLog{}).
		Order("created_at DESC").
		Limit(p.Limit + 1)

	if p.Before != nil {
		query = query.Where("created_at < ?", *p.Before)
	}
	if material != "" {
		query = query.Where("material_type = ?", services.NormalizeMaterialName(material))
	}
	if strategy != "" {
		query = query.Where("strategy = ?", strategy)
	}

	var rows []models.EstimationLog
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
		nextCursor = Cursor(rows[len(rows)-1].CreatedAt)
	}

	resp := CursorResponse{Data: rows, NextCursor: nextCursor, HasMore: hasMore}
	go h.cache.Set(context.Background(), cacheKey, resp, 10*time.Second)

	c.JSON(http.StatusOK, resp)
}

type actualPriceRequest struct {
	ActualPrice float64 `json:"actual_price"`
}

// RecordActual stores the realized sale price against a past estimate and
// scores its accuracy, feeding the reconciliation reports.
func (h *EstimationsHandler) RecordActual(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid estimation id"})
		return
	}

	var req actualPriceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	if req.ActualPrice <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "actual_price must be a positive number"})
		return
	}

	var rec models.EstimationLog
	if err := h.db.First(&rec, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "estimation not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "database query failed"})
		return
	}

	accuracy := services.Accuracy(rec.PredictedPrice, req.ActualPrice)
	updates := map[string]interface{}{
		"actual_price": req.ActualPrice,
		"accuracy":     accuracy,
	}
	if err := h.db.Model(&rec).Updates(updates).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "database update failed"})
		return
	}

	rec.ActualPrice = &req.ActualPrice
	rec.Accuracy = &accuracy
	c.JSON(http.StatusOK, rec)
}
