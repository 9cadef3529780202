package services

import "fmt"

// InvalidInputError rejects a request before any pricing work happens.
// It is never retried; callers surface it so the user can correct the form.
type InvalidInputError struct {
	Field  string
	Reason string
}

func (e *InvalidInputError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// PriceUnavailableError means neither an exact reference price nor a family
// fallback matched the requested material.
type PriceUnavailableError struct {
	MaterialType string
}

func (e *PriceUnavailableError) Error() string {
	return fmt.Sprintf("no reference price available for %q", e.MaterialType)
}

// PredictionServiceError wraps a failed call to the remote prediction service,
// carrying the service's reported message when one was returned.
type PredictionServiceError struct {
	Message string
	Err     error
}

func (e *PredictionServiceError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("prediction service: %s: %v", e.Message, e.Err)
	}
	return fmt.Sprintf("prediction service: %s", e.Message)
}

func (e *PredictionServiceError) Unwrap() error { return e.Err }
