package features

import (
	"math"
	"testing"
	"time"

	models "PowerCast/internal/domain/models"
)

func hourly(start time.Time, n int) []time.Time {
	out := make([]time.Time, n)
	for i := range out {
		out[i] = start.Add(time.Duration(i) * time.Hour)
	}
	return out
}

func TestCalendarCyclicEncoding(t *testing.T) {
	start := time.Date(2024, 3, 4, 0, 0, 0, 0, time.UTC) // a Monday, midnight
	y := models.Series{Times: hourly(start, 2), Values: []float64{1, 2}}

	table := Calendar(y)
	if len(table.Times) != 2 {
		t.Fatalf("index len = %d", len(table.Times))
	}
	if v := table.Cols[HourSin][0]; math.Abs(v) > 1e-12 {
		t.Fatalf("hour_sin at midnight = %v", v)
	}
	if v := table.Cols[HourCos][0]; math.Abs(v-1) > 1e-12 {
		t.Fatalf("hour_cos at midnight = %v", v)
	}
}

func TestAlignReindexes(t *testing.T) {
	start := time.Date(2024, 3, 4, 0, 0, 0, 0, time.UTC)
	target := hourly(start, 4)

	// Table covers hours 1-2 plus an hour outside the target index.
	table := &models.FeatureTable{
		Times: []time.Time{target[1], target[2], start.Add(10 * time.Hour)},
		Names: []string{"temperature"},
		Cols:  map[string][]float64{"temperature": {5, 6, 99}},
	}

	out := Align(table, target)
	if len(out.Times) != len(target) {
		t.Fatalf("aligned index len = %d", len(out.Times))
	}
	col := out.Cols["temperature"]
	if !math.IsNaN(col[0]) || !math.IsNaN(col[3]) {
		t.Fatalf("uncovered hours not NaN: %v", col)
	}
	if col[1] != 5 || col[2] != 6 {
		t.Fatalf("covered hours misaligned: %v", col)
	}
}

func TestAlignNil(t *testing.T) {
	if out := Align(nil, hourly(time.Now(), 2)); out != nil {
		t.Fatalf("expected nil, got %+v", out)
	}
}

func TestMergeAppendsColumns(t *testing.T) {
	start := time.Date(2024, 3, 4, 0, 0, 0, 0, time.UTC)
	y := models.Series{Times: hourly(start, 3), Values: []float64{1, 2, 3}}

	base := Calendar(y)
	extra := &models.FeatureTable{
		Times: y.Times,
		Names: []string{"temperature", HourSin}, // HourSin collides with base
		Cols: map[string][]float64{
			"temperature": {10, 11, 12},
			HourSin:       {-1, -1, -1},
		},
	}

	merged := Merge(base, extra)
	if merged.Cols["temperature"][2] != 12 {
		t.Fatalf("temperature not merged: %v", merged.Cols["temperature"])
	}
	// Colliding names keep the base column.
	if merged.Cols[HourSin][0] == -1 {
		t.Fatalf("base column overwritten")
	}
	last := merged.Names[len(merged.Names)-1]
	if last != "temperature" {
		t.Fatalf("names = %v", merged.Names)
	}
}
