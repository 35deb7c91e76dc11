package forecast

import (
	"context"
	"fmt"

	"PowerCast/internal/domain/models"
	domsvc "PowerCast/internal/domain/service"
)

// Seasonal period of hourly energy data: one day.
const DefaultSeasonalPeriod = 24

// SeasonalNaive forecasts each future point as the mean of the training
// values sharing its seasonal position. An optional lookback restricts the
// mean to the most recent window of training data.
type SeasonalNaive struct {
	sp       int
	lookback int // 0 means the whole training range
}

// NewSeasonalNaive creates a seasonal mean forecaster with period sp.
func NewSeasonalNaive(sp int) *SeasonalNaive {
	if sp <= 0 {
		sp = DefaultSeasonalPeriod
	}
	return &SeasonalNaive{sp: sp}
}

// WithLookback restricts fitting to the last n training points.
func (f *SeasonalNaive) WithLookback(n int) *SeasonalNaive {
	f.lookback = n
	return f
}

func (f *SeasonalNaive) Fit(_ context.Context, train models.Series, _ *models.FeatureTable) (domsvc.FittedModel, error) {
	n := train.Len()
	if n == 0 {
		return nil, fmt.Errorf("seasonal naive: empty training series")
	}
	start := 0
	if f.lookback > 0 && n > f.lookback {
		start = n - f.lookback
	}

	sums := make([]float64, f.sp)
	counts := make([]int, f.sp)
	for i := start; i < n; i++ {
		phase := i % f.sp
		sums[phase] += train.Values[i]
		counts[phase]++
	}
	means := make([]float64, f.sp)
	for p := range means {
		if counts[p] > 0 {
			means[p] = sums[p] / float64(counts[p])
		} else {
			// seasonal position unseen in the lookback; fall back to the
			// last training value
			means[p] = train.Values[n-1]
		}
	}
	return &seasonalFit{sp: f.sp, trainLen: n, means: means}, nil
}

type seasonalFit struct {
	sp       int
	trainLen int
	means    []float64
}

func (m *seasonalFit) Predict(_ context.Context, horizon int, _ *models.FeatureTable) ([]float64, error) {
	out := make([]float64, horizon)
	for j := 0; j < horizon; j++ {
		out[j] = m.means[(m.trainLen+j)%m.sp]
	}
	return out, nil
}

// NaiveLast repeats the last training value across the horizon.
type NaiveLast struct{}

func NewNaiveLast() *NaiveLast { return &NaiveLast{} }

func (f *NaiveLast) Fit(_ context.Context, train models.Series, _ *models.FeatureTable) (domsvc.FittedModel, error) {
	if train.Len() == 0 {
		return nil, fmt.Errorf("naive last: empty training series")
	}
	return constantFit(train.Values[train.Len()-1]), nil
}

type constantFit float64

func (v constantFit) Predict(_ context.Context, horizon int, _ *models.FeatureTable) ([]float64, error) {
	out := make([]float64, horizon)
	for i := range out {
		out[i] = float64(v)
	}
	return out, nil
}

// Drift extrapolates the average historical step from the last value.
type Drift struct{}

func NewDrift() *Drift { return &Drift{} }

func (f *Drift) Fit(_ context.Context, train models.Series, _ *models.FeatureTable) (domsvc.FittedModel, error) {
	n := train.Len()
	if n == 0 {
		return nil, fmt.Errorf("drift: empty training series")
	}
	var slope float64
	if n > 1 {
		slope = (train.Values[n-1] - train.Values[0]) / float64(n-1)
	}
	return &driftFit{last: train.Values[n-1], slope: slope}, nil
}

type driftFit struct {
	last  float64
	slope float64
}

func (m *driftFit) Predict(_ context.Context, horizon int, _ *models.FeatureTable) ([]float64, error) {
	out := make([]float64, horizon)
	for j := 0; j < horizon; j++ {
		out[j] = m.last + float64(j+1)*m.slope
	}
	return out, nil
}
