package forecast

import (
	"context"
	"testing"
	"time"

	"PowerCast/internal/domain/models"
)

func hourly(values []float64) models.Series {
	t0 := time.Date(2024, 10, 10, 0, 0, 0, 0, time.UTC)
	times := make([]time.Time, len(values))
	for i := range values {
		times[i] = t0.Add(time.Duration(i) * time.Hour)
	}
	return models.Series{Times: times, Values: values}
}

func TestSeasonalNaivePhaseMeans(t *testing.T) {
	// period 3, two full cycles: phase means are (1+4)/2, (2+5)/2, (3+6)/2
	y := hourly([]float64{1, 2, 3, 4, 5, 6})
	fit, err := NewSeasonalNaive(3).Fit(context.Background(), y, nil)
	if err != nil {
		t.Fatalf("fit: %v", err)
	}
	got, err := fit.Predict(context.Background(), 4, nil)
	if err != nil {
		t.Fatalf("predict: %v", err)
	}
	want := []float64{2.5, 3.5, 4.5, 2.5}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("forecast[%d] = %g, want %g", i, got[i], want[i])
		}
	}
}

func TestSeasonalNaiveLookback(t *testing.T) {
	// lookback 3 with period 3 uses only the last cycle, so the forecast
	// repeats the last three values
	y := hourly([]float64{1, 2, 3, 10, 20, 30})
	fit, err := NewSeasonalNaive(3).WithLookback(3).Fit(context.Background(), y, nil)
	if err != nil {
		t.Fatalf("fit: %v", err)
	}
	got, _ := fit.Predict(context.Background(), 3, nil)
	want := []float64{10, 20, 30}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("forecast[%d] = %g, want %g", i, got[i], want[i])
		}
	}
}

func TestSeasonalNaivePhaseContinuity(t *testing.T) {
	// train length not a multiple of the period: the first forecast point
	// continues the phase sequence, not the series start
	y := hourly([]float64{1, 2, 3, 4, 5})
	fit, _ := NewSeasonalNaive(3).Fit(context.Background(), y, nil)
	got, _ := fit.Predict(context.Background(), 1, nil)
	// position 5 has phase 2: mean of values at indices 2 -> 3.0
	if got[0] != 3 {
		t.Fatalf("forecast[0] = %g, want 3", got[0])
	}
}

func TestSeasonalNaiveEmptyTrain(t *testing.T) {
	if _, err := NewSeasonalNaive(3).Fit(context.Background(), models.Series{}, nil); err == nil {
		t.Fatalf("expected error on empty training series")
	}
}

func TestNaiveLastRepeats(t *testing.T) {
	y := hourly([]float64{5, 6, 9})
	fit, err := NewNaiveLast().Fit(context.Background(), y, nil)
	if err != nil {
		t.Fatalf("fit: %v", err)
	}
	got, _ := fit.Predict(context.Background(), 3, nil)
	for i, v := range got {
		if v != 9 {
			t.Fatalf("forecast[%d] = %g, want 9", i, v)
		}
	}
}

func TestDriftExtrapolates(t *testing.T) {
	y := hourly([]float64{1, 2, 3, 4})
	fit, err := NewDrift().Fit(context.Background(), y, nil)
	if err != nil {
		t.Fatalf("fit: %v", err)
	}
	got, _ := fit.Predict(context.Background(), 3, nil)
	want := []float64{5, 6, 7}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("forecast[%d] = %g, want %g", i, got[i], want[i])
		}
	}
}

func TestModelsByName(t *testing.T) {
	m, err := ModelsByName([]string{NaiveLastName, DriftName})
	if err != nil {
		t.Fatalf("models: %v", err)
	}
	names := m.Names()
	if len(names) != 2 || names[0] != NaiveLastName || names[1] != DriftName {
		t.Fatalf("unexpected registry order %v", names)
	}

	if _, err := ModelsByName([]string{"ARIMA_9000"}); err == nil {
		t.Fatalf("expected error for unknown model name")
	}

	def, err := ModelsByName(nil)
	if err != nil {
		t.Fatalf("default models: %v", err)
	}
	if def.Len() != 2 {
		t.Fatalf("expected 2 default models, got %d", def.Len())
	}
}
