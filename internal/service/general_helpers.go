package service

import "math"

// RoundingPrecision is the multiplier used to round monetary values to two
// decimal places.
const RoundingPrecision = 100.0

// round rounds a float64 value to two decimal places using the package RoundingPrecision constant.
// Used throughout the service layer to ensure consistent rounding of monetary
// values in API responses.
func round(value float64) float64 {
	return math.Round(value*RoundingPrecision) / RoundingPrecision
}
