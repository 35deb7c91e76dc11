package backtest

import (
	"math"

	"PowerCast/internal/domain/models"
)

// Score aligns each model's forecast column against the actual series and
// computes every configured metric over the aligned pairs.
//
// Alignment drops missing entries independently from each side and then
// intersects the remaining timestamps: partially overlapping ranges are not
// an error, they just shrink the scored sample. The returned table is sorted
// ascending lexicographically across the metric columns, best model first.
func Score(forecasts *models.ForecastTable, actual models.Series, metrics *Metrics) *models.ErrorTable {
	table := &models.ErrorTable{Metrics: metrics.Names()}

	for _, col := range forecasts.Columns {
		if col == models.ActualColumn {
			continue
		}
		a, f := alignColumn(forecasts, col, actual)

		scores := make(map[string]float64, metrics.Len())
		for _, name := range metrics.Names() {
			fn, _ := metrics.Get(name)
			scores[name] = fn(a, f)
		}
		table.Rows = append(table.Rows, models.ErrorRow{Model: col, Scores: scores})
	}

	table.Sort()
	return table
}

// alignColumn walks the forecast index and keeps the (actual, forecast)
// pairs where both sides carry a value.
func alignColumn(forecasts *models.ForecastTable, col string, actual models.Series) (a, f []float64) {
	preds := forecasts.Values[col]
	for i, ts := range forecasts.Index {
		pv := preds[i]
		if math.IsNaN(pv) {
			continue
		}
		av, ok := actual.At(ts)
		if !ok || math.IsNaN(av) {
			continue
		}
		a = append(a, av)
		f = append(f, pv)
	}
	return a, f
}
