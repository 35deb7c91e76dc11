package repository

import (
	"context"
	"time"

	"PowerCast/internal/domain/models"
)

// MarketStream is a live feed of grid observations (prices, load).
type MarketStream interface {
	Connect(ctx context.Context) error
	Subscribe(ctx context.Context) error
	Read(ctx context.Context) (<-chan *models.Observation, <-chan error)
	Reconnect(ctx context.Context) error
	Close() error
	IsConnected() bool
}

// Publisher forwards observations to a message backend.
type Publisher interface {
	Publish(ctx context.Context, o *models.Observation) error
	PublishBatch(ctx context.Context, obs []*models.Observation) error
	Close() error
}

// SeriesStore persists observations and backtest artifacts.
type SeriesStore interface {
	Init(ctx context.Context) error // ensure tables, health checks
	Store(ctx context.Context, o *models.Observation) error
	StoreBatch(ctx context.Context, obs []*models.Observation) error

	// LoadSeries returns the [from, to) series for one source/metric pair,
	// ordered by timestamp ascending.
	LoadSeries(ctx context.Context, source, metric string, from, to time.Time, res Resolution) (models.Series, error)
	// LoadFeatures returns exogenous columns aligned to the same index.
	LoadFeatures(ctx context.Context, source string, metrics []string, from, to time.Time, res Resolution) (*models.FeatureTable, error)

	SaveRun(ctx context.Context, run *models.BacktestRun) error
	GetRun(ctx context.Context, id string) (*models.BacktestRun, error)
	SaveForecasts(ctx context.Context, runID string, table *models.ForecastTable) error
	LoadForecasts(ctx context.Context, runID string) (*models.ForecastTable, error)
	SaveScores(ctx context.Context, runID string, table *models.ErrorTable) error

	Health(ctx context.Context) error // ping
	Close() error
}

// Metrics records operational counters and gauges.
type Metrics interface {
	RecordObservation(source, metric string)
	RecordError(kind string)
	RecordWindow(model string)
	RecordModelFailure(model string)
	RecordRunDuration(seconds float64)
	RecordScore(model, metric string, value float64)
	RecordLatency(op string, seconds float64)
}
