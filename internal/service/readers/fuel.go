package readers

import (
	"context"
	"fmt"
	"time"

	"PowerCast/internal/domain/models"
	xhttp "PowerCast/pkg/http"
)

const fuelSourceName = "fuel"

// FuelReader fetches daily fuel price quotes (coal, gas) from a commodities
// API. Prices are daily; the series store keeps them at daily resolution.
type FuelReader struct {
	client  *xhttp.Client
	baseURL string
	apiKey  string
	symbols []string // e.g. COAL, TTF
}

func NewFuelReader(client *xhttp.Client, baseURL, apiKey string, symbols []string) *FuelReader {
	return &FuelReader{client: client, baseURL: baseURL, apiKey: apiKey, symbols: symbols}
}

func (r *FuelReader) Source() string { return fuelSourceName }

type fuelQuote struct {
	Date  string  `json:"date"`
	Close float64 `json:"close"`
}

func (r *FuelReader) Fetch(ctx context.Context, from, to time.Time) ([]*models.Observation, error) {
	var out []*models.Observation
	for _, sym := range r.symbols {
		var quotes []fuelQuote
		err := r.client.SendAndParse(ctx, &xhttp.RequestOptions{
			Method: xhttp.MethodGet,
			URL:    fmt.Sprintf("%s/quotes/%s", r.baseURL, sym),
			Headers: map[string]string{
				"Authorization": "Bearer " + r.apiKey,
			},
			QueryParams: map[string][]string{
				"from": {from.Format("2006-01-02")},
				"to":   {to.Format("2006-01-02")},
			},
		}, &quotes)
		if err != nil {
			return nil, fmt.Errorf("fuel %s: %w", sym, err)
		}
		for _, q := range quotes {
			t, err := time.Parse("2006-01-02", q.Date)
			if err != nil {
				continue
			}
			out = append(out, &models.Observation{
				Source: fuelSourceName,
				Metric: sym,
				Time:   t.Unix(),
				Value:  q.Close,
			})
		}
	}
	return out, nil
}
