package backtest

import (
	"math"
)

// Metric scores one model: aligned actual/forecast pairs in, scalar out.
// Lower is better for every built-in metric.
type Metric func(actual, forecast []float64) float64

// MAPE is the mean absolute percentage error.
func MAPE(actual, forecast []float64) float64 {
	if len(actual) == 0 {
		return math.NaN()
	}
	var sum float64
	for i := range actual {
		sum += math.Abs((actual[i] - forecast[i]) / actual[i])
	}
	return sum / float64(len(actual))
}

// MAE is the mean absolute error.
func MAE(actual, forecast []float64) float64 {
	if len(actual) == 0 {
		return math.NaN()
	}
	var sum float64
	for i := range actual {
		sum += math.Abs(actual[i] - forecast[i])
	}
	return sum / float64(len(actual))
}

// RMSE is the root mean squared error.
func RMSE(actual, forecast []float64) float64 {
	if len(actual) == 0 {
		return math.NaN()
	}
	var sum float64
	for i := range actual {
		d := actual[i] - forecast[i]
		sum += d * d
	}
	return math.Sqrt(sum / float64(len(actual)))
}

// Metrics is an ordered metric registry. Order matters twice: it fixes the
// error-table column order and thereby the lexicographic model ranking.
type Metrics struct {
	names  []string
	byName map[string]Metric
}

// NewMetrics creates an empty registry.
func NewMetrics() *Metrics {
	return &Metrics{byName: make(map[string]Metric)}
}

// DefaultMetrics returns the standard metric set: MAPE, MAE, RMSE.
func DefaultMetrics() *Metrics {
	m := NewMetrics()
	_ = m.Add("MAPE", MAPE)
	_ = m.Add("MAE", MAE)
	_ = m.Add("RMSE", RMSE)
	return m
}

// Add registers a metric; duplicate names are rejected.
func (m *Metrics) Add(name string, fn Metric) error {
	if name == "" {
		return configErrorf("metrics: empty metric name")
	}
	if fn == nil {
		return configErrorf("metrics: nil metric %q", name)
	}
	if _, dup := m.byName[name]; dup {
		return configErrorf("metrics: duplicate metric %q", name)
	}
	m.names = append(m.names, name)
	m.byName[name] = fn
	return nil
}

// Names returns metric names in registration order.
func (m *Metrics) Names() []string { return m.names }

// Get returns the metric registered under name.
func (m *Metrics) Get(name string) (Metric, bool) {
	fn, ok := m.byName[name]
	return fn, ok
}

// Len returns the number of registered metrics.
func (m *Metrics) Len() int { return len(m.names) }
