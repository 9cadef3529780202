package services

import (
	"context"
	"strings"
)

// ListingItem is one leaf selection on a multi-material listing form.
type ListingItem struct {
	Category    string  `json:"category"`
	SubCategory string  `json:"sub_category,omitempty"`
	LeafType    string  `json:"leaf_type,omitempty"`
	Weight      float64 `json:"weight"`
	Description string  `json:"description,omitempty"`
}

type CategoryTotal struct {
	TotalWeight float64 `json:"total_weight"`
	TotalPrice  float64 `json:"total_price"`
}

// BatchResult is a receipt-style breakdown: per-category subtotals plus the
// grand total across every priced leaf.
type BatchResult struct {
	PerCategory map[string]CategoryTotal `json:"per_category"`
	GrandTotal  float64                  `json:"grand_total"`
}

// Aggregator prices a whole multi-leaf submission through the configured
// estimator, one leaf at a time.
type Aggregator struct {
	estimator Estimator
}

func NewAggregator(estimator Estimator) *Aggregator {
	return &Aggregator{estimator: estimator}
}

// EstimateBatch sums leaf estimates into category and grand totals. Leaves
// with zero weight are skipped silently — the seller just has not filled
// them in yet. Any estimation failure aborts the whole batch; there is no
// partial result.
func (a *Aggregator) EstimateBatch(ctx context.Context, items []ListingItem) (*BatchResult, error) {
	result := &BatchResult{PerCategory: make(map[string]CategoryTotal)}

	for _, item := range items {
		if item.Weight == 0 {
			continue
		}

		est, err := a.estimator.Estimate(ctx, EstimationRequest{
			MaterialType: item.Category,
			SubCategory:  item.SubCategory,
			LeafType:     item.LeafType,
			Weight:       item.Weight,
			Description:  item.Description,
		})
		if err != nil {
			return nil, err
		}

		key := strings.TrimSpace(item.Category)
		total := result.PerCategory[key]
		total.TotalWeight += item.Weight
		total.TotalPrice = round2(total.TotalPrice + est.PredictedPrice)
		result.PerCategory[key] = total

		result.GrandTotal = round2(result.GrandTotal + est.PredictedPrice)
	}

	return result, nil
}
