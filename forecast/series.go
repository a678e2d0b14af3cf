// Package forecast defines the external-facing forecast/measurement surface the optimizer
// consumes (spec §6.1/§6.2: Prediction and Measurement) and an Series helper type for the hourly
// data that flows through it: PV generation, load, grid import/export price, and ambient
// temperature.
package forecast

import "fmt"

// Series is a fixed-length, hourly-aligned sequence of values, one per horizon slot. Every
// forecast and measurement input the optimizer consumes is a Series of the same length as the
// run's horizon; a length mismatch is an InputValidationError (spec §7), not silently truncated or
// padded.
type Series []float64

// ValidateLength returns an error if the series does not have exactly want elements.
func (s Series) ValidateLength(want int) error {
	if len(s) != want {
		return fmt.Errorf("series has %d elements, want %d", len(s), want)
	}
	return nil
}

// Sum returns the sum of all elements in the series.
func (s Series) Sum() float64 {
	var total float64
	for _, v := range s {
		total += v
	}
	return total
}
