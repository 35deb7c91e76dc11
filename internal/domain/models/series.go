package models

import (
	"fmt"
	"math"
	"time"
)

// Series is an ordered univariate time series: parallel timestamp and value
// slices with strictly increasing timestamps. Ordering is enforced by the
// ingestion side; consumers may call Validate when reading untrusted input.
type Series struct {
	Times  []time.Time
	Values []float64
}

// NewSeries builds a Series from parallel slices.
func NewSeries(times []time.Time, values []float64) (Series, error) {
	if len(times) != len(values) {
		return Series{}, fmt.Errorf("series: %d timestamps vs %d values", len(times), len(values))
	}
	s := Series{Times: times, Values: values}
	if err := s.Validate(); err != nil {
		return Series{}, err
	}
	return s, nil
}

// Len returns the number of points.
func (s Series) Len() int { return len(s.Times) }

// Slice returns a view of points [i, j). The underlying arrays are shared
// with the receiver; callers must not mutate through the view.
func (s Series) Slice(i, j int) Series {
	return Series{Times: s.Times[i:j], Values: s.Values[i:j]}
}

// After returns the suffix of points with timestamp >= t.
func (s Series) After(t time.Time) Series {
	i := 0
	for i < s.Len() && s.Times[i].Before(t) {
		i++
	}
	return s.Slice(i, s.Len())
}

// Validate checks the strictly-increasing timestamp invariant.
func (s Series) Validate() error {
	for i := 1; i < len(s.Times); i++ {
		if !s.Times[i].After(s.Times[i-1]) {
			return fmt.Errorf("series: timestamps not strictly increasing at index %d (%v >= %v)",
				i, s.Times[i-1], s.Times[i])
		}
	}
	return nil
}

// At returns the value at timestamp t, if present.
func (s Series) At(t time.Time) (float64, bool) {
	// binary search over the sorted index
	lo, hi := 0, s.Len()
	for lo < hi {
		mid := (lo + hi) / 2
		if s.Times[mid].Before(t) {
			lo = mid + 1
		} else {
			hi = mid
		}
	}
	if lo < s.Len() && s.Times[lo].Equal(t) {
		return s.Values[lo], true
	}
	return math.NaN(), false
}

// FeatureTable carries exogenous features sharing a Series timestamp index.
type FeatureTable struct {
	Times []time.Time
	Names []string
	Cols  map[string][]float64
}

// Len returns the number of rows.
func (f *FeatureTable) Len() int {
	if f == nil {
		return 0
	}
	return len(f.Times)
}

// Slice returns a row view [i, j) sharing column storage.
func (f *FeatureTable) Slice(i, j int) *FeatureTable {
	if f == nil {
		return nil
	}
	cols := make(map[string][]float64, len(f.Cols))
	for _, name := range f.Names {
		cols[name] = f.Cols[name][i:j]
	}
	return &FeatureTable{Times: f.Times[i:j], Names: f.Names, Cols: cols}
}
