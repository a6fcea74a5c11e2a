package series

import (
	"fmt"
	"time"
)

// Point is one observation of an asset: price and traded volume at a moment
// in time. Series are immutable once ingested.
type Point struct {
	Timestamp time.Time
	Price     float64
	Volume    float64
}

// Series is an ordered sequence of points for one asset, ascending by
// timestamp with no duplicates.
type Series []Point

// Validate checks the ordering and price invariants. It returns an
// InvalidInputError describing the first violation found.
func (s Series) Validate() error {
	for i, p := range s {
		if p.Price < 0 {
			return &InvalidInputError{Reason: fmt.Sprintf("negative price %v at index %d", p.Price, i)}
		}
		if i == 0 {
			continue
		}
		if p.Timestamp.Equal(s[i-1].Timestamp) {
			return &InvalidInputError{Reason: fmt.Sprintf("duplicate timestamp %s at index %d", p.Timestamp.Format(time.RFC3339), i)}
		}
		if p.Timestamp.Before(s[i-1].Timestamp) {
			return &InvalidInputError{Reason: fmt.Sprintf("non-monotonic timestamp at index %d", i)}
		}
	}
	return nil
}

// Prices returns the price column.
func (s Series) Prices() []float64 {
	out := make([]float64, len(s))
	for i, p := range s {
		out[i] = p.Price
	}
	return out
}

// Volumes returns the volume column.
func (s Series) Volumes() []float64 {
	out := make([]float64, len(s))
	for i, p := range s {
		out[i] = p.Volume
	}
	return out
}

// LastPrice returns the most recent price, or 0 for an empty series.
func (s Series) LastPrice() float64 {
	if len(s) == 0 {
		return 0
	}
	return s[len(s)-1].Price
}
