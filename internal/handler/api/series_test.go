package api

import (
	"context"
	"encoding/json"
	"net/http/httptest"
	"testing"
	"time"

	models "PowerCast/internal/domain/models"
	domrepo "PowerCast/internal/domain/repository"
	icache "PowerCast/internal/service/cache"
	"PowerCast/internal/usecase"
)

// rangeEchoStore serves an hourly series spanning exactly the requested
// range, so a response reveals which range produced it.
type rangeEchoStore struct{}

func (rangeEchoStore) Init(ctx context.Context) error                          { return nil }
func (rangeEchoStore) Store(ctx context.Context, o *models.Observation) error  { return nil }
func (rangeEchoStore) StoreBatch(ctx context.Context, o []*models.Observation) error { return nil }
func (rangeEchoStore) LoadSeries(ctx context.Context, source, metric string, from, to time.Time, res domrepo.Resolution) (models.Series, error) {
	var s models.Series
	for ts := from; ts.Before(to); ts = ts.Add(time.Hour) {
		s.Times = append(s.Times, ts)
		s.Values = append(s.Values, 1)
	}
	return s, nil
}
func (rangeEchoStore) LoadFeatures(ctx context.Context, source string, metrics []string, from, to time.Time, res domrepo.Resolution) (*models.FeatureTable, error) {
	return nil, nil
}
func (rangeEchoStore) SaveRun(ctx context.Context, run *models.BacktestRun) error { return nil }
func (rangeEchoStore) GetRun(ctx context.Context, id string) (*models.BacktestRun, error) {
	return nil, nil
}
func (rangeEchoStore) SaveForecasts(ctx context.Context, runID string, t *models.ForecastTable) error {
	return nil
}
func (rangeEchoStore) LoadForecasts(ctx context.Context, runID string) (*models.ForecastTable, error) {
	return nil, nil
}
func (rangeEchoStore) SaveScores(ctx context.Context, runID string, t *models.ErrorTable) error {
	return nil
}
func (rangeEchoStore) Health(ctx context.Context) error { return nil }
func (rangeEchoStore) Close() error                     { return nil }

func TestSeriesCacheKeyedByRange(t *testing.T) {
	h := NewSeriesHandler(usecase.NewSeriesUseCase(rangeEchoStore{}))
	h.SetCache(icache.NewTTLCache())
	serve := h.Series()

	get := func(from, to string) usecase.GetSeriesResult {
		t.Helper()
		req := httptest.NewRequest("GET",
			"/api/series/raw?source=pse&metric=demand&from="+from+"&to="+to, nil)
		req.RemoteAddr = "10.0.0.1:1234"
		rec := httptest.NewRecorder()
		serve(rec, req)
		if rec.Code != 200 {
			t.Fatalf("status %d: %s", rec.Code, rec.Body.String())
		}
		var out usecase.GetSeriesResult
		if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
			t.Fatalf("decode: %v", err)
		}
		return out
	}

	first := get("2024-06-01T00:00:00Z", "2024-06-02T00:00:00Z")
	if first.Count != 24 {
		t.Fatalf("first count = %d", first.Count)
	}

	// A different range must not be answered from the first range's cache.
	second := get("2024-01-01T00:00:00Z", "2024-01-08T00:00:00Z")
	if second.Count != 7*24 {
		t.Fatalf("second count = %d, served a stale range", second.Count)
	}
	if !second.From.Equal(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)) {
		t.Fatalf("second from = %v", second.From)
	}

	// The identical request is served from cache with the same payload.
	repeat := get("2024-06-01T00:00:00Z", "2024-06-02T00:00:00Z")
	if repeat.Count != first.Count || !repeat.From.Equal(first.From) {
		t.Fatalf("repeat = %+v, want %+v", repeat, first)
	}
}
