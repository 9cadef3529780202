package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"strings"
	"time"
)

const (
	// remoteConfidence is a placeholder until the prediction service starts
	// reporting a real confidence alongside the price.
	remoteConfidence = 0.75

	// minWeightMultiplier floors the back-computed multiplier so division
	// artifacts from tiny base prices cannot produce garbage factors.
	minWeightMultiplier = 0.01

	defaultPredictionTimeout = 10 * time.Second
)

type predictRequest struct {
	ScrapType      string  `json:"scrap_type"`
	SubCategory    string  `json:"sub_category,omitempty"`
	SubSubCategory string  `json:"sub_sub_category,omitempty"`
	Weight         float64 `json:"weight"`
}

type predictResponse struct {
	BasePrice      float64 `json:"base_price"`
	PredictedPrice float64 `json:"predicted_price"`
	Weight         float64 `json:"weight"`
	Error          string  `json:"error"`
}

// RemoteEstimator delegates pricing to the regression service's /predict
// endpoint and reports the returned numbers verbatim.
type RemoteEstimator struct {
	endpoint string
	client   *http.Client
	sink     EstimationSink
}

func NewRemoteEstimator(endpoint string, timeout time.Duration, sink EstimationSink) *RemoteEstimator {
	if timeout <= 0 {
		timeout = defaultPredictionTimeout
	}
	return &RemoteEstimator{
		endpoint: strings.TrimRight(endpoint, "/"),
		client:   &http.Client{Timeout: timeout},
		sink:     sink,
	}
}

func (e *RemoteEstimator) Estimate(ctx context.Context, req EstimationRequest) (*EstimationResult, error) {
	if _, err := validateRequest(req); err != nil {
		estimateFailures.WithLabelValues("invalid_input").Inc()
		return nil, err
	}

	out, err := e.predict(ctx, predictRequest{
		ScrapType:      slugify(req.MaterialType),
		SubCategory:    strings.TrimSpace(req.SubCategory),
		SubSubCategory: strings.TrimSpace(req.LeafType),
		Weight:         req.Weight,
	})
	if err != nil {
		estimateFailures.WithLabelValues("prediction_service").Inc()
		return nil, err
	}

	result := &EstimationResult{
		PredictedPrice: out.PredictedPrice,
		Confidence:     remoteConfidence,
		Factors: EstimationFactors{
			BasePrice:        out.BasePrice,
			WeightMultiplier: backComputeWeightMultiplier(out.PredictedPrice, out.BasePrice, req.Weight),
			// The service does not expose trend or quality signals.
			MarketTrendMultiplier: 1.0,
			QualityMultiplier:     1.0,
		},
		Strategy: "remote",
	}

	e.record(ctx, req, result)
	estimatesTotal.WithLabelValues("remote").Inc()
	return result, nil
}

func (e *RemoteEstimator) predict(ctx context.Context, body predictRequest) (*predictResponse, error) {
	payload, err := json.Marshal(body)
	if err != nil {
		return nil, &PredictionServiceError{Message: "encode request", Err: err}
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, e.endpoint+"/predict", bytes.NewReader(payload))
	if err != nil {
		return nil, &PredictionServiceError{Message: "build request", Err: err}
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := e.client.Do(httpReq)
	if err != nil {
		return nil, &PredictionServiceError{Message: "prediction service unreachable", Err: err}
	}
	defer resp.Body.Close()

	var out predictResponse
	if decodeErr := json.NewDecoder(resp.Body).Decode(&out); decodeErr != nil {
		if resp.StatusCode != http.StatusOK {
			return nil, &PredictionServiceError{Message: fmt.Sprintf("unexpected status %s", resp.Status)}
		}
		return nil, &PredictionServiceError{Message: "decode response", Err: decodeErr}
	}

	if resp.StatusCode != http.StatusOK {
		msg := out.Error
		if msg == "" {
			msg = fmt.Sprintf("unexpected status %s", resp.Status)
		}
		return nil, &PredictionServiceError{Message: msg}
	}

	return &out, nil
}

func (e *RemoteEstimator) record(ctx context.Context, req EstimationRequest, result *EstimationResult) {
	rec := buildLogRecord(req, result)
	id, err := e.sink.SaveEstimation(ctx, rec)
	if err != nil {
		log.Printf("estimation log save failed: %v", err)
		return
	}
	result.EstimationID = id
}

// backComputeWeightMultiplier recovers the effective weight factor from the
// service's absolute numbers, floored to keep it a sane positive value.
func backComputeWeightMultiplier(predicted, base, weight float64) float64 {
	denom := base * weight
	if denom <= 0 {
		return minWeightMultiplier
	}
	mult := predicted / denom
	if mult < minWeightMultiplier {
		return minWeightMultiplier
	}
	return mult
}

// slugify mirrors the normalization the prediction service applies to
// scrap_type: trimmed, lowercased, spaces to hyphens.
func slugify(s string) string {
	return strings.ReplaceAll(strings.ToLower(strings.TrimSpace(s)), " ", "-")
}
