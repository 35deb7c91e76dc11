package forecast

import (
	"context"
	"fmt"
	"time"

	"PowerCast/internal/domain/models"
	domsvc "PowerCast/internal/domain/service"
	xhttp "PowerCast/pkg/http"
)

// RemoteForecaster drives an external model service over HTTP. Heavyweight
// models (gradient boosting, neural nets) live behind a /forecast endpoint;
// the backtest engine treats them like any in-process strategy.
type RemoteForecaster struct {
	baseURL string
	model   string
	client  *xhttp.Client
}

// NewRemoteForecaster builds a client for the model service at baseURL.
func NewRemoteForecaster(baseURL, model string, timeout time.Duration) *RemoteForecaster {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &RemoteForecaster{
		baseURL: baseURL,
		model:   model,
		client:  xhttp.NewClient(xhttp.WithTimeout(timeout)),
	}
}

type remoteReq struct {
	Model    string               `json:"model"`
	Times    []int64              `json:"times"`
	Values   []float64            `json:"values"`
	Horizon  int                  `json:"horizon"`
	Features map[string][]float64 `json:"features,omitempty"`
}

type remoteResp struct {
	Forecast []float64 `json:"forecast"`
}

// Fit captures the training slice; the remote service fits and predicts in
// one round trip at Predict time, keeping the per-window contract of a
// fresh fit every window.
func (f *RemoteForecaster) Fit(_ context.Context, train models.Series, features *models.FeatureTable) (domsvc.FittedModel, error) {
	if f.baseURL == "" {
		return nil, fmt.Errorf("remote forecaster: base URL not configured")
	}
	if train.Len() == 0 {
		return nil, fmt.Errorf("remote forecaster: empty training series")
	}
	return &remoteFit{f: f, train: train, features: features}, nil
}

type remoteFit struct {
	f        *RemoteForecaster
	train    models.Series
	features *models.FeatureTable
}

func (m *remoteFit) Predict(ctx context.Context, horizon int, _ *models.FeatureTable) ([]float64, error) {
	req := remoteReq{
		Model:   m.f.model,
		Times:   make([]int64, m.train.Len()),
		Values:  m.train.Values,
		Horizon: horizon,
	}
	for i, ts := range m.train.Times {
		req.Times[i] = ts.Unix()
	}
	if m.features != nil {
		req.Features = m.features.Cols
	}

	var resp remoteResp
	err := m.f.client.SendAndParse(ctx, &xhttp.RequestOptions{
		Method: xhttp.MethodPost,
		URL:    m.f.baseURL + "/forecast",
		Body:   req,
	}, &resp)
	if err != nil {
		return nil, fmt.Errorf("remote forecast %s: %w", m.f.model, err)
	}
	if len(resp.Forecast) != horizon {
		return nil, fmt.Errorf("remote forecast %s: got %d values for horizon %d",
			m.f.model, len(resp.Forecast), horizon)
	}
	return resp.Forecast, nil
}
