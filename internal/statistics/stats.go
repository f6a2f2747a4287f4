// Package statistics holds the small numeric helpers used by the dataset
// heuristics.
package statistics

import (
	"errors"
	"math"
)

// ErrTooFewValues is returned by StdDev when fewer than two values exist.
var ErrTooFewValues = errors.New("statistics: need at least two values")

// Mean returns the arithmetic mean, or 0 for an empty slice.
func Mean(values []float64) float64 {
	if len(values) == 0 {
		return 0.0
	}
	sum := 0.0
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

// StdDev returns the sample standard deviation (n-1 denominator).
func StdDev(values []float64) (float64, error) {
	n := len(values)
	if n < 2 {
		return 0, ErrTooFewValues
	}
	m := Mean(values)
	ss := 0.0
	for _, v := range values {
		d := v - m
		ss += d * d
	}
	return math.Sqrt(ss / float64(n-1)), nil
}

// CoefficientOfVariation returns StdDev/Mean. ok is false when the mean is
// zero or there are too few values.
func CoefficientOfVariation(values []float64) (cv float64, ok bool) {
	m := Mean(values)
	if m == 0 {
		return 0, false
	}
	sd, err := StdDev(values)
	if err != nil {
		return 0, false
	}
	return sd / m, true
}

// Lengths converts string lengths (in characters) to float64 for the helpers
// above.
func Lengths(texts []string) []float64 {
	out := make([]float64, len(texts))
	for i, t := range texts {
		out[i] = float64(len([]rune(t)))
	}
	return out
}

// Round rounds v to the given number of decimal places. Halves go to the
// even neighbour, so Round(0.125, 2) is 0.12.
func Round(v float64, places int) float64 {
	p := math.Pow(10, float64(places))
	return math.RoundToEven(v*p) / p
}
