package service

import (
	"context"

	"PowerCast/internal/domain/models"
)

// Forecaster is the capability a backtest drives: fit on a training slice,
// then predict a fixed horizon through the fitted state. Implementations are
// interchangeable strategies selected by name; each Fit is independent and
// carries no state between calls.
type Forecaster interface {
	Fit(ctx context.Context, train models.Series, features *models.FeatureTable) (FittedModel, error)
}

// FittedModel is the transient result of one Fit call. Predict returns the
// next `horizon` values after the training range; the caller attaches
// timestamps.
type FittedModel interface {
	Predict(ctx context.Context, horizon int, features *models.FeatureTable) ([]float64, error)
}
