package services

import (
	"context"
	"errors"
	"strings"
	"testing"
)

// scriptedEstimator prices each leaf at a fixed per-kg rate, or fails for
// materials it does not know.
type scriptedEstimator struct {
	rates map[string]float64
	calls int
}

func (s *scriptedEstimator) Estimate(ctx context.Context, req EstimationRequest) (*EstimationResult, error) {
	s.calls++
	rate, ok := s.rates[strings.ToLower(lookupName(req))]
	if !ok {
		return nil, &PriceUnavailableError{MaterialType: lookupName(req)}
	}
	return &EstimationResult{
		PredictedPrice: round2(rate * req.Weight),
		Confidence:     0.7,
		Strategy:       "local",
	}, nil
}

func TestEstimateBatchTotals(t *testing.T) {
	est := &scriptedEstimator{rates: map[string]float64{
		"copper":   670,
		"aluminum": 195,
		"paper":    18,
	}}
	agg := NewAggregator(est)

	got, err := agg.EstimateBatch(context.Background(), []ListingItem{
		{Category: "Metal", LeafType: "Copper", Weight: 10},
		{Category: "Metal", LeafType: "Aluminum", Weight: 20},
		{Category: "Paper", LeafType: "Paper", Weight: 5},
	})
	if err != nil {
		t.Fatalf("EstimateBatch failed: %v", err)
	}

	metal, ok := got.PerCategory["Metal"]
	if !ok {
		t.Fatal("missing Metal category total")
	}
	if metal.TotalWeight != 30 {
		t.Errorf("Metal TotalWeight = %v, want 30", metal.TotalWeight)
	}
	if metal.TotalPrice != 10600.00 { // 6700 + 3900
		t.Errorf("Metal TotalPrice = %v, want 10600.00", metal.TotalPrice)
	}

	paper, ok := got.PerCategory["Paper"]
	if !ok {
		t.Fatal("missing Paper category total")
	}
	if paper.TotalPrice != 90.00 {
		t.Errorf("Paper TotalPrice = %v, want 90.00", paper.TotalPrice)
	}

	if got.GrandTotal != 10690.00 {
		t.Errorf("GrandTotal = %v, want 10690.00", got.GrandTotal)
	}
}

func TestEstimateBatchSkipsZeroWeight(t *testing.T) {
	est := &scriptedEstimator{rates: map[string]float64{"copper": 670}}
	agg := NewAggregator(est)

	got, err := agg.EstimateBatch(context.Background(), []ListingItem{
		{Category: "Metal", LeafType: "Copper", Weight: 0}, // not filled in yet
		{Category: "Metal", LeafType: "Copper", Weight: 10},
	})
	if err != nil {
		t.Fatalf("EstimateBatch failed: %v", err)
	}

	if est.calls != 1 {
		t.Errorf("estimator called %d times, want 1 (zero-weight leaf skipped)", est.calls)
	}
	if got.PerCategory["Metal"].TotalWeight != 10 {
		t.Errorf("TotalWeight = %v, want 10", got.PerCategory["Metal"].TotalWeight)
	}
	if got.GrandTotal != 6700.00 {
		t.Errorf("GrandTotal = %v, want 6700.00", got.GrandTotal)
	}
}

func TestEstimateBatchAbortsOnError(t *testing.T) {
	est := &scriptedEstimator{rates: map[string]float64{"copper": 670}}
	agg := NewAggregator(est)

	got, err := agg.EstimateBatch(context.Background(), []ListingItem{
		{Category: "Metal", LeafType: "Copper", Weight: 10},
		{Category: "Exotic", LeafType: "Unobtainium", Weight: 5},
		{Category: "Metal", LeafType: "Copper", Weight: 10},
	})

	var unavailable *PriceUnavailableError
	if !errors.As(err, &unavailable) {
		t.Fatalf("err = %v, want *PriceUnavailableError", err)
	}
	if got != nil {
		t.Errorf("result = %+v, want nil on failure (no partial totals)", got)
	}
	if est.calls != 2 {
		t.Errorf("estimator called %d times, want 2 (abort on first failure)", est.calls)
	}
}

func TestEstimateBatchEmpty(t *testing.T) {
	agg := NewAggregator(&scriptedEstimator{})

	got, err := agg.EstimateBatch(context.Background(), nil)
	if err != nil {
		t.Fatalf("EstimateBatch failed: %v", err)
	}
	if len(got.PerCategory) != 0 {
		t.Errorf("PerCategory has %d entries, want 0", len(got.PerCategory))
	}
	if got.GrandTotal != 0 {
		t.Errorf("GrandTotal = %v, want 0", got.GrandTotal)
	}
}
