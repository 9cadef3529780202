package services

import (
	"context"
	"log"
	"math"
	"strings"
	"time"

	"github.com/vaishnavius/scraplink/models"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	bulkWeightThreshold  = 100.0
	smallWeightThreshold = 10.0
	bulkDiscount         = 0.95
	smallLoadPremium     = 1.05

	qualityPremium  = 1.10
	qualityDiscount = 0.85

	baseConfidence = 0.7

	historyLookback = 30 * 24 * time.Hour
	trendWindowSize = 7
)

var (
	positiveQualityTerms = []string{"high quality", "pure", "clean"}
	negativeQualityTerms = []string{"mixed", "contaminated", "rusty"}
)

var (
	estimatesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "scraplink_estimates_total",
		Help: "Total number of successful price estimates.",
	}, []string{"strategy"})
	estimateFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "scraplink_estimate_failures_total",
		Help: "Total number of failed estimate requests.",
	}, []string{"reason"})
)

// EstimationRequest describes one leaf item to price. MaterialType is the
// top-level category; SubCategory and LeafType narrow it down when the seller
// picked from the full taxonomy. Requests are transient and never persisted.
type EstimationRequest struct {
	MaterialType string  `json:"material_type"`
	SubCategory  string  `json:"sub_category,omitempty"`
	LeafType     string  `json:"leaf_type,omitempty"`
	Weight       float64 `json:"weight"`
	Description  string  `json:"description,omitempty"`
}

type EstimationFactors struct {
	BasePrice             float64 `json:"base_price"`
	WeightMultiplier      float64 `json:"weight_multiplier"`
	MarketTrendMultiplier float64 `json:"market_trend_multiplier"`
	QualityMultiplier     float64 `json:"quality_multiplier"`
}

// EstimationResult carries the price, a heuristic confidence in [0,1] (not a
// calibrated prediction interval), and the factors behind the number so the
// frontend can show a breakdown.
type EstimationResult struct {
	PredictedPrice float64           `json:"predicted_price"`
	Confidence     float64           `json:"confidence"`
	Factors        EstimationFactors `json:"factors"`
	Strategy       string            `json:"strategy"`
	EstimationID   uint              `json:"estimation_id,omitempty"`
}

// Estimator is the single estimation capability. Exactly one strategy is
// active per deployment, selected by ESTIMATOR_MODE.
type Estimator interface {
	Estimate(ctx context.Context, req EstimationRequest) (*EstimationResult, error)
}

// LocalEstimator prices a material from cached reference prices blended with
// the 30-day price trend, a weight tier and description-derived quality
// signals.
type LocalEstimator struct {
	prices   *MarketDataCache
	history  HistorySource
	sink     EstimationSink
	families *FamilyTable

	now func() time.Time
}

func NewLocalEstimator(prices *MarketDataCache, history HistorySource, sink EstimationSink, families *FamilyTable) *LocalEstimator {
	return &LocalEstimator{
		prices:   prices,
		history:  history,
		sink:     sink,
		families: families,
		now:      time.Now,
	}
}

func (e *LocalEstimator) Estimate(ctx context.Context, req EstimationRequest) (*EstimationResult, error) {
	material, err := validateRequest(req)
	if err != nil {
		estimateFailures.WithLabelValues("invalid_input").Inc()
		return nil, err
	}

	normalized := normalizeMaterial(material)

	basePrice, source, exact := e.resolveBasePrice(ctx, normalized)
	if basePrice == 0 {
		estimateFailures.WithLabelValues("price_unavailable").Inc()
		return nil, &PriceUnavailableError{MaterialType: material}
	}

	points := e.loadHistory(ctx, normalized)

	trend := trendMultiplier(points)
	tier := weightTierMultiplier(req.Weight)
	quality := qualityMultiplier(req.Description)

	predicted := round2(basePrice * req.Weight * trend * tier * quality)

	confidence := baseConfidence
	if len(points) > 10 {
		confidence += 0.1
	}
	if exact && source != models.SourceSeed {
		confidence += 0.1
	}
	if len(req.Description) > 20 {
		confidence += 0.1
	}
	confidence = round2(math.Min(confidence, 1.0))

	result := &EstimationResult{
		PredictedPrice: predicted,
		Confidence:     confidence,
		Factors: EstimationFactors{
			BasePrice:             basePrice,
			WeightMultiplier:      tier,
			MarketTrendMultiplier: trend,
			QualityMultiplier:     quality,
		},
		Strategy: "local",
	}

	e.record(ctx, req, result)
	estimatesTotal.WithLabelValues("local").Inc()
	return result, nil
}

// resolveBasePrice tries an exact match against the cached reference prices
// first, then the family fallback. A material priced in several market
// locations resolves to the national row, then the first location in lexical
// order, regardless of snapshot row order. A zero return means neither
// resolved; zero-priced reference rows are treated as not on file.
func (e *LocalEstimator) resolveBasePrice(ctx context.Context, normalized string) (price float64, source string, exact bool) {
	var best models.ReferencePrice
	for _, p := range e.prices.GetCurrentPrices(ctx) {
		if p.CurrentPrice <= 0 || normalizeMaterial(p.MaterialType) != normalized {
			continue
		}
		if best.CurrentPrice == 0 || preferLocation(p.MarketLocation, best.MarketLocation) {
			best = p
		}
	}
	if best.CurrentPrice > 0 {
		return best.CurrentPrice, best.Source, true
	}
	if fam, ok := e.families.Match(normalized); ok {
		return fam.BasePrice, "", false
	}
	return 0, "", false
}

// preferLocation ranks the national market above region rows; regions break
// ties on lexical order.
func preferLocation(a, b string) bool {
	if a == models.DefaultMarketLocation {
		return b != models.DefaultMarketLocation
	}
	if b == models.DefaultMarketLocation {
		return false
	}
	return a < b
}

func (e *LocalEstimator) loadHistory(ctx context.Context, normalized string) []models.PriceHistoryPoint {
	points, err := e.history.RecentHistory(ctx, normalized, e.now().Add(-historyLookback))
	if err != nil {
		// Degrade to a neutral trend rather than failing the estimate.
		log.Printf("price history load failed for %s: %v", normalized, err)
		return nil
	}
	return points
}

// record persists the estimate for accuracy reconciliation. Failures are
// logged and never fail the estimate itself.
func (e *LocalEstimator) record(ctx context.Context, req EstimationRequest, result *EstimationResult) {
	rec := buildLogRecord(req, result)
	id, err := e.sink.SaveEstimation(ctx, rec)
	if err != nil {
		log.Printf("estimation log save failed: %v", err)
		return
	}
	result.EstimationID = id
}

func buildLogRecord(req EstimationRequest, result *EstimationResult) *models.EstimationLog {
	return &models.EstimationLog{
		MaterialType:      normalizeMaterial(lookupName(req)),
		SubCategory:       strings.TrimSpace(req.SubCategory),
		LeafType:          strings.TrimSpace(req.LeafType),
		Weight:            req.Weight,
		PredictedPrice:    result.PredictedPrice,
		Confidence:        result.Confidence,
		BasePrice:         result.Factors.BasePrice,
		WeightMultiplier:  result.Factors.WeightMultiplier,
		TrendMultiplier:   result.Factors.MarketTrendMultiplier,
		QualityMultiplier: result.Factors.QualityMultiplier,
		Strategy:          result.Strategy,
		Description:       strings.TrimSpace(req.Description),
	}
}

// validateRequest rejects missing weights and empty material names. It
// returns the most specific material name the request carries.
func validateRequest(req EstimationRequest) (string, error) {
	if req.Weight <= 0 {
		return "", &InvalidInputError{Field: "weight", Reason: "must be a positive number"}
	}
	material := lookupName(req)
	if material == "" {
		return "", &InvalidInputError{Field: "material_type", Reason: "must not be empty"}
	}
	return material, nil
}

// lookupName picks the most specific classification on the request: the leaf
// when present, otherwise the top-level material type.
func lookupName(req EstimationRequest) string {
	if leaf := strings.TrimSpace(req.LeafType); leaf != "" {
		return leaf
	}
	return strings.TrimSpace(req.MaterialType)
}

// NormalizeMaterialName is the canonical key for reference price and history
// rows. Handlers and workers must normalize before querying or writing.
func NormalizeMaterialName(name string) string {
	return normalizeMaterial(name)
}

// normalizeMaterial lowercases, trims, collapses whitespace and singularizes
// the last word, so "Circuit Boards " and "circuit board" hit the same row.
func normalizeMaterial(name string) string {
	fields := strings.Fields(strings.ToLower(strings.TrimSpace(name)))
	if len(fields) == 0 {
		return ""
	}
	fields[len(fields)-1] = singularize(fields[len(fields)-1])
	return strings.Join(fields, " ")
}

// singularize applies just enough English to cover the material taxonomy:
// batteries -> battery, boards -> board, while brass/glass keep their "ss".
func singularize(word string) string {
	switch {
	case len(word) > 3 && strings.HasSuffix(word, "ies"):
		return word[:len(word)-3] + "y"
	case strings.HasSuffix(word, "ss"):
		return word
	case len(word) > 1 && strings.HasSuffix(word, "s"):
		return word[:len(word)-1]
	default:
		return word
	}
}

// trendMultiplier is the ratio of the average of the most recent (up to) 7
// observations to the average of the earliest (up to) 7 in the window. The
// two windows overlap when history is short. Fewer than 2 points is neutral.
func trendMultiplier(points []models.PriceHistoryPoint) float64 {
	if len(points) < 2 {
		return 1.0
	}

	window := trendWindowSize
	if len(points) < window {
		window = len(points)
	}

	oldAvg := avgPrice(points[:window])
	newAvg := avgPrice(points[len(points)-window:])
	if oldAvg == 0 {
		return 1.0
	}
	return newAvg / oldAvg
}

func avgPrice(points []models.PriceHistoryPoint) float64 {
	var sum float64
	for _, p := range points {
		sum += p.Price
	}
	return sum / float64(len(points))
}

// weightTierMultiplier gives bulk loads a discount and small loads a handling
// premium. Thresholds are fixed; 10.0 and 100.0 themselves are neutral.
func weightTierMultiplier(weight float64) float64 {
	switch {
	case weight > bulkWeightThreshold:
		return bulkDiscount
	case weight < smallWeightThreshold:
		return smallLoadPremium
	default:
		return 1.0
	}
}

// qualityMultiplier scans the description for quality keywords. The positive
// check runs first, so a description with both "clean" and "rusty" earns the
// premium.
func qualityMultiplier(description string) float64 {
	if description == "" {
		return 1.0
	}
	lower := strings.ToLower(description)
	for _, term := range positiveQualityTerms {
		if strings.Contains(lower, term) {
			return qualityPremium
		}
	}
	for _, term := range negativeQualityTerms {
		if strings.Contains(lower, term) {
			return qualityDiscount
		}
	}
	return 1.0
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
