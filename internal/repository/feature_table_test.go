package repository

import (
	"math"
	"testing"
	"time"

	models "PowerCast/internal/domain/models"
)

func ts(h int) time.Time {
	return time.Date(2024, 3, 1, h, 0, 0, 0, time.UTC)
}

func TestFeatureTableSortsUnionIndex(t *testing.T) {
	// The second metric carries timestamps earlier than the first metric's:
	// the merged index must still come out chronological.
	bySeries := map[string]models.Series{
		"temperature": {Times: []time.Time{ts(10), ts(11)}, Values: []float64{5, 6}},
		"price":       {Times: []time.Time{ts(8), ts(9), ts(10)}, Values: []float64{100, 110, 120}},
	}

	table := featureTable([]string{"temperature", "price"}, bySeries)

	want := []time.Time{ts(8), ts(9), ts(10), ts(11)}
	if len(table.Times) != len(want) {
		t.Fatalf("index len = %d, want %d", len(table.Times), len(want))
	}
	for i, ts := range want {
		if !table.Times[i].Equal(ts) {
			t.Fatalf("index[%d] = %v, want %v", i, table.Times[i], ts)
		}
	}

	temp := table.Cols["temperature"]
	if !math.IsNaN(temp[0]) || !math.IsNaN(temp[1]) {
		t.Fatalf("temperature missing hours not NaN: %v", temp)
	}
	if temp[2] != 5 || temp[3] != 6 {
		t.Fatalf("temperature misaligned: %v", temp)
	}

	price := table.Cols["price"]
	if price[0] != 100 || price[1] != 110 || price[2] != 120 {
		t.Fatalf("price misaligned: %v", price)
	}
	if !math.IsNaN(price[3]) {
		t.Fatalf("price trailing hour not NaN: %v", price)
	}
}

func TestFeatureTableColumnOrder(t *testing.T) {
	bySeries := map[string]models.Series{
		"a": {Times: []time.Time{ts(1)}, Values: []float64{1}},
		"b": {Times: []time.Time{ts(1)}, Values: []float64{2}},
	}
	table := featureTable([]string{"b", "a"}, bySeries)
	if table.Names[0] != "b" || table.Names[1] != "a" {
		t.Fatalf("column order = %v", table.Names)
	}
}
