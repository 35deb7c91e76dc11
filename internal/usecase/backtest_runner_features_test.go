package usecase

import (
	"context"
	"math"
	"testing"
	"time"

	"PowerCast/internal/backtest"
	models "PowerCast/internal/domain/models"
	domrepo "PowerCast/internal/domain/repository"
	"PowerCast/internal/forecast"
	applogger "PowerCast/pkg/logger"
)

// featureStore serves a fixed hourly series and records which exogenous
// metrics an evaluation asked for.
type featureStore struct {
	y              models.Series
	featureMetrics []string
}

func (s *featureStore) Init(ctx context.Context) error                               { return nil }
func (s *featureStore) Store(ctx context.Context, o *models.Observation) error       { return nil }
func (s *featureStore) StoreBatch(ctx context.Context, o []*models.Observation) error { return nil }
func (s *featureStore) LoadSeries(ctx context.Context, source, metric string, from, to time.Time, res domrepo.Resolution) (models.Series, error) {
	return s.y, nil
}
func (s *featureStore) LoadFeatures(ctx context.Context, source string, metrics []string, from, to time.Time, res domrepo.Resolution) (*models.FeatureTable, error) {
	s.featureMetrics = append([]string{}, metrics...)
	col := make([]float64, s.y.Len())
	for i := range col {
		col[i] = float64(i)
	}
	return &models.FeatureTable{
		Times: s.y.Times,
		Names: metrics,
		Cols:  map[string][]float64{metrics[0]: col},
	}, nil
}
func (s *featureStore) SaveRun(ctx context.Context, run *models.BacktestRun) error { return nil }
func (s *featureStore) GetRun(ctx context.Context, id string) (*models.BacktestRun, error) {
	return nil, nil
}
func (s *featureStore) SaveForecasts(ctx context.Context, runID string, t *models.ForecastTable) error {
	return nil
}
func (s *featureStore) LoadForecasts(ctx context.Context, runID string) (*models.ForecastTable, error) {
	return nil, nil
}
func (s *featureStore) SaveScores(ctx context.Context, runID string, t *models.ErrorTable) error {
	return nil
}
func (s *featureStore) Health(ctx context.Context) error { return nil }
func (s *featureStore) Close() error                     { return nil }

type noopMetrics struct{}

func (noopMetrics) RecordObservation(source, metric string)          {}
func (noopMetrics) RecordError(kind string)                          {}
func (noopMetrics) RecordWindow(model string)                        {}
func (noopMetrics) RecordModelFailure(model string)                  {}
func (noopMetrics) RecordRunDuration(seconds float64)                {}
func (noopMetrics) RecordScore(model, metric string, value float64)  {}
func (noopMetrics) RecordLatency(op string, seconds float64)         {}

func TestEvaluateLoadsRequestedFeatures(t *testing.T) {
	start := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)
	n := 72
	y := models.Series{Times: make([]time.Time, n), Values: make([]float64, n)}
	for i := 0; i < n; i++ {
		y.Times[i] = start.Add(time.Duration(i) * time.Hour)
		y.Values[i] = 100 + math.Sin(float64(i))
	}

	store := &featureStore{y: y}
	log, err := applogger.New(&applogger.Config{Level: "error", Format: "console", Output: "stdout"})
	if err != nil {
		t.Fatalf("logger: %v", err)
	}
	r := NewBacktestRunner(store, noopMetrics{}, nil, nil, log)

	spec := models.RunSpec{
		Source:        "pse",
		Metric:        "demand",
		Mode:          string(backtest.ModeExpanding),
		InitialWindow: 24,
		StepLength:    12,
		Horizon:       12,
		Frac:          1,
		Models:        []string{forecast.NaiveLastName},
		Features:      []string{"temperature"},
		From:          start,
		To:            start.Add(time.Duration(n) * time.Hour),
	}

	res, err := r.evaluate(context.Background(), spec, backtest.NewInterrupt())
	if err != nil {
		t.Fatalf("evaluate: %v", err)
	}
	if res == nil || len(res.Forecasts.Index) == 0 {
		t.Fatalf("no forecasts produced")
	}
	if len(store.featureMetrics) != 1 || store.featureMetrics[0] != "temperature" {
		t.Fatalf("loaded features = %v", store.featureMetrics)
	}
}

func TestEvaluateSkipsFeatureLoadWhenUnrequested(t *testing.T) {
	start := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)
	n := 48
	y := models.Series{Times: make([]time.Time, n), Values: make([]float64, n)}
	for i := 0; i < n; i++ {
		y.Times[i] = start.Add(time.Duration(i) * time.Hour)
		y.Values[i] = float64(i)
	}

	store := &featureStore{y: y}
	log, err := applogger.New(&applogger.Config{Level: "error", Format: "console", Output: "stdout"})
	if err != nil {
		t.Fatalf("logger: %v", err)
	}
	r := NewBacktestRunner(store, noopMetrics{}, nil, nil, log)

	spec := models.RunSpec{
		Source:        "pse",
		Metric:        "demand",
		Mode:          string(backtest.ModeExpanding),
		InitialWindow: 24,
		StepLength:    12,
		Horizon:       12,
		Frac:          1,
		Models:        []string{forecast.NaiveLastName},
		From:          start,
		To:            start.Add(time.Duration(n) * time.Hour),
	}

	if _, err := r.evaluate(context.Background(), spec, backtest.NewInterrupt()); err != nil {
		t.Fatalf("evaluate: %v", err)
	}
	if store.featureMetrics != nil {
		t.Fatalf("features loaded without being requested: %v", store.featureMetrics)
	}
}
