package readers

import (
	"context"
	"fmt"
	"time"

	"PowerCast/internal/domain/models"
	xhttp "PowerCast/pkg/http"
)

// PSE reports demand and balancing-market prices through its public reports
// API. One reader instance covers one report endpoint.
const (
	pseSourceName = "pse"

	MetricDemand = "demand"
	MetricPrice  = "price"
)

// pse report endpoints and their value columns.
var pseReports = map[string]struct {
	endpoint string
	column   string
}{
	MetricDemand: {endpoint: "kse-zapotrzebowanie", column: "zapotrzebowanie"},
	MetricPrice:  {endpoint: "rce-pln", column: "rce_pln"},
}

// PSEReader fetches one metric from the PSE reports API.
type PSEReader struct {
	client  *xhttp.Client
	baseURL string
	metric  string
}

func NewPSEReader(client *xhttp.Client, baseURL, metric string) (*PSEReader, error) {
	if _, ok := pseReports[metric]; !ok {
		return nil, fmt.Errorf("pse: unsupported metric %q", metric)
	}
	return &PSEReader{client: client, baseURL: baseURL, metric: metric}, nil
}

func (r *PSEReader) Source() string { return pseSourceName }

type pseResponse struct {
	Value []map[string]interface{} `json:"value"`
}

func (r *PSEReader) Fetch(ctx context.Context, from, to time.Time) ([]*models.Observation, error) {
	report := pseReports[r.metric]
	filter := fmt.Sprintf("doba ge '%s' and doba le '%s'",
		from.Format("2006-01-02"), to.Format("2006-01-02"))

	var resp pseResponse
	err := r.client.SendAndParse(ctx, &xhttp.RequestOptions{
		Method: xhttp.MethodGet,
		URL:    fmt.Sprintf("%s/api/%s", r.baseURL, report.endpoint),
		QueryParams: map[string][]string{
			"$filter": {filter},
			"$select": {"udtczas," + report.column},
		},
	}, &resp)
	if err != nil {
		return nil, fmt.Errorf("pse %s: %w", report.endpoint, err)
	}

	out := make([]*models.Observation, 0, len(resp.Value))
	for _, row := range resp.Value {
		ts, ok := row["udtczas"].(string)
		if !ok {
			continue
		}
		// timestamps come back in local market time without a zone
		t, err := time.ParseInLocation("2006-01-02 15:04", ts, time.Local)
		if err != nil {
			continue
		}
		v, ok := row[report.column].(float64)
		if !ok {
			continue
		}
		if t.Before(from) || !t.Before(to) {
			continue
		}
		out = append(out, &models.Observation{
			Source: pseSourceName,
			Metric: r.metric,
			Time:   t.Unix(),
			Value:  v,
		})
	}
	return out, nil
}
