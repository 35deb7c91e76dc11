package models

import (
	"encoding/json"
	"math"
	"sort"
	"time"
)

// ActualColumn is the reserved forecast-table column holding ground truth.
const ActualColumn = "actual"

// ForecastTable is the assembled backtest output: one row per timestamp that
// appears in any model's out-of-sample forecast, one column per model plus
// the "actual" column. NaN marks entries a model did not forecast.
type ForecastTable struct {
	Index   []time.Time
	Columns []string
	Values  map[string][]float64
}

// NewForecastTable allocates a table over the given sorted index with all
// cells set to NaN.
func NewForecastTable(index []time.Time, columns []string) *ForecastTable {
	values := make(map[string][]float64, len(columns))
	for _, col := range columns {
		cells := make([]float64, len(index))
		for i := range cells {
			cells[i] = math.NaN()
		}
		values[col] = cells
	}
	return &ForecastTable{Index: index, Columns: columns, Values: values}
}

// Column returns the series of one column aligned to the table index.
// Missing entries are NaN.
func (t *ForecastTable) Column(name string) Series {
	return Series{Times: t.Index, Values: t.Values[name]}
}

// ErrorRow is one model's scores across all configured metrics.
type ErrorRow struct {
	Model  string             `json:"model"`
	Scores map[string]float64 `json:"scores"`
}

// MarshalJSON renders NaN scores as null, which encoding/json cannot emit
// as a float.
func (r ErrorRow) MarshalJSON() ([]byte, error) {
	scores := make(map[string]interface{}, len(r.Scores))
	for k, v := range r.Scores {
		if math.IsNaN(v) {
			scores[k] = nil
		} else {
			scores[k] = v
		}
	}
	return json.Marshal(struct {
		Model  string                 `json:"model"`
		Scores map[string]interface{} `json:"scores"`
	}{r.Model, scores})
}

// ErrorTable ranks models by their metric scores. Metrics preserves the
// configured column order; Rows are sorted ascending lexicographically
// across those columns, best model first.
type ErrorTable struct {
	Metrics []string   `json:"metrics"`
	Rows    []ErrorRow `json:"rows"`
}

// Sort orders rows ascending by the metric columns in order. NaN sorts last
// within a column so unscorable models never outrank scored ones.
func (t *ErrorTable) Sort() {
	sort.SliceStable(t.Rows, func(i, j int) bool {
		for _, m := range t.Metrics {
			a, b := t.Rows[i].Scores[m], t.Rows[j].Scores[m]
			if math.IsNaN(a) && math.IsNaN(b) {
				continue
			}
			if math.IsNaN(a) {
				return false
			}
			if math.IsNaN(b) {
				return true
			}
			if a != b {
				return a < b
			}
		}
		return false
	})
}

// Score returns the score for (model, metric), if present.
func (t *ErrorTable) Score(model, metric string) (float64, bool) {
	for _, r := range t.Rows {
		if r.Model == model {
			v, ok := r.Scores[metric]
			return v, ok
		}
	}
	return math.NaN(), false
}
