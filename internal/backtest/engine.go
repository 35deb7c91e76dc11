package backtest

import (
	"context"
	"fmt"
	"sort"
	"sync/atomic"
	"time"

	"PowerCast/internal/domain/models"
	domrepo "PowerCast/internal/domain/repository"
	domsvc "PowerCast/internal/domain/service"
	applogger "PowerCast/pkg/logger"
)

// Interrupt is a cooperative cancellation token. The engine polls it only at
// window boundaries, never mid-fit or mid-predict. A signal stops the window
// loop of whichever model observes it, keeps that model's accumulated
// forecasts, and lets the engine continue with the next model.
type Interrupt struct {
	flag atomic.Bool
}

// NewInterrupt creates an unsignalled token.
func NewInterrupt() *Interrupt { return &Interrupt{} }

// Signal requests early termination of the current model's window loop.
func (i *Interrupt) Signal() { i.flag.Store(true) }

// take consumes a pending signal. Consuming scopes the interruption to the
// model loop that observed it.
func (i *Interrupt) take() bool {
	return i.flag.CompareAndSwap(true, false)
}

// Models is an ordered name -> Forecaster registry. Evaluation runs in
// registration order; duplicate names are rejected at construction.
type Models struct {
	names  []string
	byName map[string]domsvc.Forecaster
}

// NewModels creates an empty registry.
func NewModels() *Models {
	return &Models{byName: make(map[string]domsvc.Forecaster)}
}

// Add registers a forecaster under name.
func (m *Models) Add(name string, f domsvc.Forecaster) error {
	if name == "" || name == models.ActualColumn {
		return configErrorf("models: invalid model name %q", name)
	}
	if f == nil {
		return configErrorf("models: nil forecaster %q", name)
	}
	if _, dup := m.byName[name]; dup {
		return configErrorf("models: duplicate model %q", name)
	}
	m.names = append(m.names, name)
	m.byName[name] = f
	return nil
}

// Names returns model names in registration order.
func (m *Models) Names() []string { return m.names }

// Len reports the number of registered models.
func (m *Models) Len() int { return len(m.names) }

// Get returns the forecaster registered under name.
func (m *Models) Get(name string) (domsvc.Forecaster, bool) {
	f, ok := m.byName[name]
	return f, ok
}

// Result is what one Evaluate call produces. The caller owns both tables.
type Result struct {
	Forecasts *models.ForecastTable
	Errors    *models.ErrorTable
}

// Option configures an Engine.
type Option func(*Engine)

// WithLogger enables per-window progress logging.
func WithLogger(l *applogger.Logger) Option {
	return func(e *Engine) { e.log = l }
}

// WithRecorder wires an operational metrics recorder.
func WithRecorder(rec domrepo.Metrics) Option {
	return func(e *Engine) { e.rec = rec }
}

// WithInterrupt installs a cooperative cancellation token.
func WithInterrupt(i *Interrupt) Option {
	return func(e *Engine) { e.interrupt = i }
}

// WithMetrics replaces the default MAPE/MAE/RMSE metric set.
func WithMetrics(m *Metrics) Option {
	return func(e *Engine) { e.metrics = m }
}

// Engine drives walk-forward backtesting: for every registered model it
// consumes the full window sequence, fits on each train slice, predicts the
// following horizon, and assembles the out-of-sample forecast and error
// tables. Execution is single-threaded; fit/predict cost is opaque.
type Engine struct {
	splitter  Splitter
	models    *Models
	metrics   *Metrics
	log       *applogger.Logger
	rec       domrepo.Metrics
	interrupt *Interrupt
}

// New builds an engine over a splitter and model registry.
func New(splitter Splitter, mods *Models, opts ...Option) (*Engine, error) {
	if splitter == nil {
		return nil, configErrorf("engine: splitter is nil")
	}
	if mods == nil || len(mods.Names()) == 0 {
		return nil, configErrorf("engine: no models registered")
	}
	e := &Engine{splitter: splitter, models: mods, metrics: DefaultMetrics()}
	for _, opt := range opts {
		opt(e)
	}
	if e.metrics == nil || e.metrics.Len() == 0 {
		return nil, configErrorf("engine: no metrics registered")
	}
	return e, nil
}

// column accumulates one model's out-of-sample predictions in window order.
type column struct {
	times  []time.Time
	values []float64
}

// Evaluate runs every model through repeated fit/predict cycles over the
// window sequence. The input series and features are never mutated, only
// sliced. A fit/predict error aborts the whole call with the originating
// error wrapped; an interrupt only ends the current model's loop.
func (e *Engine) Evaluate(ctx context.Context, y models.Series, features *models.FeatureTable) (*Result, error) {
	byModel := make(map[string]*column, len(e.models.Names()))

	for _, name := range e.models.Names() {
		forecaster, _ := e.models.Get(name)
		acc := &column{}
		byModel[name] = acc

		it := e.splitter.Windows(y.Len())
		windows := 0
		for {
			if e.interrupt != nil && e.interrupt.take() {
				if e.log != nil {
					e.log.Warn("backtest interrupted",
						applogger.String("model", name),
						applogger.Int("windows", windows),
					)
				}
				break
			}
			w, ok := it.Next()
			if !ok {
				break
			}
			windows++

			train := y.Slice(w.TrainStart, w.TrainEnd)
			var trainX, testX *models.FeatureTable
			if features != nil {
				trainX = features.Slice(w.TrainStart, w.TrainEnd)
				testX = features.Slice(w.TestStart, w.TestEnd)
			}

			fitted, err := forecaster.Fit(ctx, train, trainX)
			if err != nil {
				if e.rec != nil {
					e.rec.RecordModelFailure(name)
				}
				return nil, fmt.Errorf("model %s window %d fit: %w", name, windows, err)
			}
			preds, err := fitted.Predict(ctx, w.Horizon(), testX)
			if err != nil {
				if e.rec != nil {
					e.rec.RecordModelFailure(name)
				}
				return nil, fmt.Errorf("model %s window %d predict: %w", name, windows, err)
			}
			if len(preds) != w.Horizon() {
				return nil, fmt.Errorf("model %s window %d: predicted %d values for horizon %d",
					name, windows, len(preds), w.Horizon())
			}

			acc.times = append(acc.times, y.Times[w.TestStart:w.TestEnd]...)
			acc.values = append(acc.values, preds...)

			if e.rec != nil {
				e.rec.RecordWindow(name)
			}
			if e.log != nil {
				e.log.Info(fmt.Sprintf("%d forecast", windows),
					applogger.String("model", name),
					applogger.Any("last_index", y.Times[w.TestEnd-1]),
				)
			}
		}
	}

	forecasts := assemble(byModel, e.models.Names(), y)
	errors := Score(forecasts, y, e.metrics)
	return &Result{Forecasts: forecasts, Errors: errors}, nil
}

// assemble builds the forecast table over the union of all test timestamps,
// one column per model plus the actual values.
func assemble(byModel map[string]*column, order []string, y models.Series) *models.ForecastTable {
	seen := make(map[time.Time]struct{})
	var index []time.Time
	for _, name := range order {
		for _, ts := range byModel[name].times {
			if _, ok := seen[ts]; !ok {
				seen[ts] = struct{}{}
				index = append(index, ts)
			}
		}
	}
	sort.Slice(index, func(i, j int) bool { return index[i].Before(index[j]) })

	columns := append(append([]string{}, order...), models.ActualColumn)
	table := models.NewForecastTable(index, columns)

	pos := make(map[time.Time]int, len(index))
	for i, ts := range index {
		pos[ts] = i
	}
	for _, name := range order {
		acc := byModel[name]
		cells := table.Values[name]
		for i, ts := range acc.times {
			cells[pos[ts]] = acc.values[i]
		}
	}
	actuals := table.Values[models.ActualColumn]
	for i, ts := range index {
		if v, ok := y.At(ts); ok {
			actuals[i] = v
		}
	}
	return table
}
