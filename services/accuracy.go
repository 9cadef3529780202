package services

import "math"

// Accuracy scores a past estimate against the realized sale price as
// 1 - |actual - predicted| / actual, clamped to [0, 1]. An estimate off by
// the full sale price (or more) scores zero; a perfect estimate scores one.
func Accuracy(predicted, actual float64) float64 {
	if actual <= 0 {
		return 0
	}
	acc := 1 - math.Abs(actual-predicted)/actual
	if acc < 0 {
		return 0
	}
	return round2(acc)
}
