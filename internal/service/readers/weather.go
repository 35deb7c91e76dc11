package readers

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"PowerCast/internal/domain/models"
	xhttp "PowerCast/pkg/http"
)

const weatherSourceName = "weather"

// WeatherReader fetches hourly temperature from the Open-Meteo archive API
// for one location. Temperature drives demand, so it is the main exogenous
// feature candidate.
type WeatherReader struct {
	client   *xhttp.Client
	baseURL  string
	lat, lon float64
}

func NewWeatherReader(client *xhttp.Client, baseURL string, lat, lon float64) *WeatherReader {
	return &WeatherReader{client: client, baseURL: baseURL, lat: lat, lon: lon}
}

func (r *WeatherReader) Source() string { return weatherSourceName }

type meteoResponse struct {
	Hourly struct {
		Time          []string  `json:"time"`
		Temperature2m []float64 `json:"temperature_2m"`
	} `json:"hourly"`
}

func (r *WeatherReader) Fetch(ctx context.Context, from, to time.Time) ([]*models.Observation, error) {
	var resp meteoResponse
	err := r.client.SendAndParse(ctx, &xhttp.RequestOptions{
		Method: xhttp.MethodGet,
		URL:    r.baseURL + "/v1/archive",
		QueryParams: map[string][]string{
			"latitude":   {strconv.FormatFloat(r.lat, 'f', 4, 64)},
			"longitude":  {strconv.FormatFloat(r.lon, 'f', 4, 64)},
			"hourly":     {"temperature_2m"},
			"start_date": {from.Format("2006-01-02")},
			"end_date":   {to.Format("2006-01-02")},
			"timezone":   {"UTC"},
		},
	}, &resp)
	if err != nil {
		return nil, fmt.Errorf("open-meteo: %w", err)
	}

	n := len(resp.Hourly.Time)
	if n != len(resp.Hourly.Temperature2m) {
		return nil, fmt.Errorf("open-meteo: %d timestamps for %d values", n, len(resp.Hourly.Temperature2m))
	}
	out := make([]*models.Observation, 0, n)
	for i := 0; i < n; i++ {
		t, err := time.Parse("2006-01-02T15:04", resp.Hourly.Time[i])
		if err != nil {
			continue
		}
		if t.Before(from) || !t.Before(to) {
			continue
		}
		out = append(out, &models.Observation{
			Source: weatherSourceName,
			Metric: "temperature",
			Time:   t.Unix(),
			Value:  resp.Hourly.Temperature2m[i],
		})
	}
	return out, nil
}
