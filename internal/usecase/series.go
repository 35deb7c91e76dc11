package usecase

import (
	"context"
	"fmt"
	"time"

	"PowerCast/internal/domain/models"
	domrepo "PowerCast/internal/domain/repository"
)

// SeriesUseCase provides business logic for retrieving stored series.
type SeriesUseCase struct {
	store domrepo.SeriesStore
}

func NewSeriesUseCase(store domrepo.SeriesStore) *SeriesUseCase {
	return &SeriesUseCase{store: store}
}

type GetSeriesParams struct {
	Source     string
	Metric     string
	From       time.Time
	To         time.Time
	Resolution domrepo.Resolution
	Limit      int
}

type GetSeriesResult struct {
	Source     string
	Metric     string
	Resolution string
	From       time.Time
	To         time.Time
	Count      int
	Series     models.Series
}

func (uc *SeriesUseCase) GetSeries(ctx context.Context, p GetSeriesParams) (*GetSeriesResult, error) {
	if p.Source == "" || p.Metric == "" {
		return nil, fmt.Errorf("source and metric required")
	}
	if p.From.After(p.To) {
		return nil, fmt.Errorf("from must be <= to")
	}
	if p.Limit <= 0 {
		p.Limit = 10000
	}
	if p.Limit > 50000 {
		p.Limit = 50000
	}

	series, err := uc.store.LoadSeries(ctx, p.Source, p.Metric, p.From, p.To, p.Resolution)
	if err != nil {
		return nil, fmt.Errorf("load series: %w", err)
	}
	if series.Len() > p.Limit {
		series = series.Slice(0, p.Limit)
	}

	return &GetSeriesResult{
		Source:     p.Source,
		Metric:     p.Metric,
		Resolution: string(p.Resolution),
		From:       p.From,
		To:         p.To,
		Count:      series.Len(),
		Series:     series,
	}, nil
}
