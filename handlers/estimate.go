package handlers

import (
	"errors"
	"net/http"

	"github.com/vaishnavius/scraplink/services"

	"github.com/gin-gonic/gin"
)

type EstimateHandler struct {
	estimator  services.Estimator
	aggregator *services.Aggregator
}

func NewEstimateHandler(estimator services.Estimator, aggregator *services.Aggregator) *EstimateHandler {
	return &EstimateHandler{estimator: estimator, aggregator: aggregator}
}

// Estimate prices a single leaf item through the configured strategy.
func (h *EstimateHandler) Estimate(c *gin.Context) {
	var req services.EstimationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	result, err := h.estimator.Estimate(c.Request.Context(), req)
	if err != nil {
		respondEstimateError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

type batchRequest struct {
	Items []services.ListingItem `json:"items"`
}

// EstimateBatch prices a whole listing and returns per-category subtotals
// plus the grand total.
func (h *EstimateHandler) EstimateBatch(c *gin.Context) {
	var req batchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	if len(req.Items) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "items must not be empty"})
		return
	}

	result, err := h.aggregator.EstimateBatch(c.Request.Context(), req.Items)
	if err != nil {
		respondEstimateError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// respondEstimateError maps estimation failures to HTTP statuses: rejected
// input is the caller's problem, a missing reference price is a lookup miss,
// and a prediction-service failure is an upstream problem.
func respondEstimateError(c *gin.Context, err error) {
	var invalid *services.InvalidInputError
	var unavailable *services.PriceUnavailableError
	var svcErr *services.PredictionServiceError

	switch {
	case errors.As(err, &invalid):
		c.JSON(http.StatusBadRequest, gin.H{"error": invalid.Error()})
	case errors.As(err, &unavailable):
		c.JSON(http.StatusNotFound, gin.H{"error": unavailable.Error()})
	case errors.As(err, &svcErr):
		c.JSON(http.StatusBadGateway, gin.H{"error": svcErr.Error()})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "estimation failed"})
	}
}
