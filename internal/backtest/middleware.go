package backtest

import (
	"context"
	"time"

	"PowerCast/internal/domain/models"
	domrepo "PowerCast/internal/domain/repository"
	applogger "PowerCast/pkg/logger"
)

// EvaluateFunc is the core call signature instrumentation wraps around.
type EvaluateFunc func(ctx context.Context, y models.Series, features *models.FeatureTable) (*Result, error)

// Middleware wraps an EvaluateFunc. Wrappers may inspect and post-process
// the returned result (log it, persist it, record it) but must not alter
// the computed values.
type Middleware func(EvaluateFunc) EvaluateFunc

// Chain composes middlewares around core so that the first middleware is
// the outermost wrapper.
func Chain(core EvaluateFunc, mw ...Middleware) EvaluateFunc {
	for i := len(mw) - 1; i >= 0; i-- {
		core = mw[i](core)
	}
	return core
}

// WithRunLogging logs evaluation start, duration and the ranked scores.
func WithRunLogging(l *applogger.Logger) Middleware {
	return func(next EvaluateFunc) EvaluateFunc {
		return func(ctx context.Context, y models.Series, features *models.FeatureTable) (*Result, error) {
			start := time.Now()
			l.Info("backtest started", applogger.Int("points", y.Len()))

			res, err := next(ctx, y, features)
			if err != nil {
				l.Error("backtest failed", applogger.Error(err))
				return nil, err
			}

			for _, row := range res.Errors.Rows {
				fields := []applogger.Field{applogger.String("model", row.Model)}
				for _, m := range res.Errors.Metrics {
					fields = append(fields, applogger.Any(m, row.Scores[m]))
				}
				l.Info("model scored", fields...)
			}
			l.Info("backtest finished",
				applogger.Int("rows", len(res.Forecasts.Index)),
				applogger.Duration("duration_ms", time.Since(start)),
			)
			return res, nil
		}
	}
}

// WithRunRecorder reports run duration and final scores to the operational
// metrics recorder.
func WithRunRecorder(rec domrepo.Metrics) Middleware {
	return func(next EvaluateFunc) EvaluateFunc {
		return func(ctx context.Context, y models.Series, features *models.FeatureTable) (*Result, error) {
			start := time.Now()
			res, err := next(ctx, y, features)
			rec.RecordRunDuration(time.Since(start).Seconds())
			if err != nil {
				rec.RecordError("backtest")
				return nil, err
			}
			for _, row := range res.Errors.Rows {
				for _, m := range res.Errors.Metrics {
					rec.RecordScore(row.Model, m, row.Scores[m])
				}
			}
			return res, nil
		}
	}
}
