package backtest

import (
	"math"
	"testing"

	"PowerCast/internal/domain/models"
)

func TestMetricValues(t *testing.T) {
	actual := []float64{10, 20, 40}
	forecast := []float64{12, 18, 44}

	if got := MAE(actual, forecast); math.Abs(got-8.0/3) > 1e-12 {
		t.Fatalf("MAE = %g", got)
	}
	wantMAPE := (2.0/10 + 2.0/20 + 4.0/40) / 3
	if got := MAPE(actual, forecast); math.Abs(got-wantMAPE) > 1e-12 {
		t.Fatalf("MAPE = %g, want %g", got, wantMAPE)
	}
	wantRMSE := math.Sqrt((4.0 + 4.0 + 16.0) / 3)
	if got := RMSE(actual, forecast); math.Abs(got-wantRMSE) > 1e-12 {
		t.Fatalf("RMSE = %g, want %g", got, wantRMSE)
	}
}

func TestMetricsEmptyInputIsNaN(t *testing.T) {
	for name, fn := range map[string]Metric{"MAPE": MAPE, "MAE": MAE, "RMSE": RMSE} {
		if got := fn(nil, nil); !math.IsNaN(got) {
			t.Fatalf("%s(empty) = %g, want NaN", name, got)
		}
	}
}

func TestScorePerfectForecastIsZero(t *testing.T) {
	y := hourlySeries(6)
	table := models.NewForecastTable(y.Times, []string{"M", models.ActualColumn})
	copy(table.Values["M"], y.Values)
	copy(table.Values[models.ActualColumn], y.Values)

	errs := Score(table, y, DefaultMetrics())
	for _, metric := range errs.Metrics {
		if v, _ := errs.Score("M", metric); v != 0 {
			t.Fatalf("%s = %g for a perfect forecast", metric, v)
		}
	}
}

func TestScoreIntersectsMissingValues(t *testing.T) {
	y := hourlySeries(6)
	table := models.NewForecastTable(y.Times, []string{"M", models.ActualColumn})
	// model forecast missing at row 0; rows 1..5 off by one
	for i := 1; i < 6; i++ {
		table.Values["M"][i] = y.Values[i] + 1
	}
	// actuals only cover rows 0..3
	actual := y.Slice(0, 4)

	errs := Score(table, actual, DefaultMetrics())
	// aligned pairs are rows 1..3, each with absolute error 1
	if v, _ := errs.Score("M", "MAE"); v != 1 {
		t.Fatalf("MAE = %g, want 1", v)
	}
	if v, _ := errs.Score("M", "RMSE"); v != 1 {
		t.Fatalf("RMSE = %g, want 1", v)
	}
}

func TestScoreNoOverlapYieldsNaN(t *testing.T) {
	y := hourlySeries(12)
	table := models.NewForecastTable(y.Times[:3], []string{"M", models.ActualColumn})
	for i := range table.Values["M"] {
		table.Values["M"][i] = 1
	}
	// actuals start after the forecast index ends
	actual := y.Slice(6, 12)

	errs := Score(table, actual, DefaultMetrics())
	if v, _ := errs.Score("M", "MAE"); !math.IsNaN(v) {
		t.Fatalf("MAE = %g for disjoint series, want NaN", v)
	}
}

func TestErrorTableLexicographicRanking(t *testing.T) {
	table := &models.ErrorTable{
		Metrics: []string{"MAPE", "MAE"},
		Rows: []models.ErrorRow{
			{Model: "C", Scores: map[string]float64{"MAPE": 0.2, "MAE": 5}},
			{Model: "A", Scores: map[string]float64{"MAPE": 0.1, "MAE": 9}},
			{Model: "D", Scores: map[string]float64{"MAPE": math.NaN(), "MAE": 1}},
			{Model: "B", Scores: map[string]float64{"MAPE": 0.2, "MAE": 3}},
		},
	}
	table.Sort()

	want := []string{"A", "B", "C", "D"}
	for i, row := range table.Rows {
		if row.Model != want[i] {
			got := make([]string, len(table.Rows))
			for j, r := range table.Rows {
				got[j] = r.Model
			}
			t.Fatalf("ranking %v, want %v", got, want)
		}
	}
}

func TestMetricsRegistryRejectsDuplicates(t *testing.T) {
	m := NewMetrics()
	if err := m.Add("MAE", MAE); err != nil {
		t.Fatalf("add: %v", err)
	}
	if err := m.Add("MAE", MAE); !IsConfigError(err) {
		t.Fatalf("expected config error, got %v", err)
	}
	if err := m.Add("", MAE); !IsConfigError(err) {
		t.Fatalf("expected config error for empty name, got %v", err)
	}
}
