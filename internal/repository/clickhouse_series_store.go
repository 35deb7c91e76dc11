package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"PowerCast/internal/domain/models"
	domrepo "PowerCast/internal/domain/repository"
	pkgch "PowerCast/pkg/clickhouse"
	applogger "PowerCast/pkg/logger"
)

// CHSeriesStore implements SeriesStore backed by ClickHouse.
type CHSeriesStore struct {
	db *sql.DB
	l  *applogger.Logger
}

func NewCHSeriesStore(ch *pkgch.Client) *CHSeriesStore {
	return &CHSeriesStore{db: ch.DB()}
}

// SetLogger injects a structured logger.
func (s *CHSeriesStore) SetLogger(l *applogger.Logger) { s.l = l }

// Schema returns the idempotent DDL for the observation and backtest tables.
func Schema(database string) []string {
	return []string{
		fmt.Sprintf(`CREATE DATABASE IF NOT EXISTS %s`, database),
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s.observations (
            ts      DateTime,
            source  LowCardinality(String),
            metric  LowCardinality(String),
            value   Float64
        ) ENGINE = ReplacingMergeTree
        PARTITION BY toYYYYMM(ts)
        ORDER BY (source, metric, ts)`, database),
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s.backtest_runs (
            id       String,
            spec     String,
            status   LowCardinality(String),
            started  DateTime,
            finished DateTime,
            error    String,
            updated  DateTime DEFAULT now()
        ) ENGINE = ReplacingMergeTree(updated)
        ORDER BY id`, database),
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s.backtest_forecasts (
            run_id String,
            model  LowCardinality(String),
            ts     DateTime,
            value  Float64
        ) ENGINE = MergeTree
        ORDER BY (run_id, model, ts)`, database),
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s.backtest_scores (
            run_id String,
            model  LowCardinality(String),
            metric LowCardinality(String),
            value  Float64
        ) ENGINE = MergeTree
        ORDER BY (run_id, model, metric)`, database),
	}
}

func (s *CHSeriesStore) Init(ctx context.Context) error {
	return nil // Schema init in pkg
}

func (s *CHSeriesStore) Store(ctx context.Context, o *models.Observation) error {
	const q = `INSERT INTO powercast.observations (ts, source, metric, value) VALUES (?, ?, ?, ?)`
	_, err := s.db.ExecContext(ctx, q, o.Timestamp(), o.Source, o.Metric, o.Value)
	return err
}

func (s *CHSeriesStore) StoreBatch(ctx context.Context, obs []*models.Observation) error {
	if len(obs) == 0 {
		return nil
	}
	// Batch insert using VALUES multi-row to reduce round-trips.
	const chunkSize = 2000
	for start := 0; start < len(obs); start += chunkSize {
		end := start + chunkSize
		if end > len(obs) {
			end = len(obs)
		}

		values := make([]string, 0, end-start)
		args := make([]interface{}, 0, (end-start)*4)
		for _, o := range obs[start:end] {
			if o == nil || o.Source == "" || o.Metric == "" || o.Time == 0 {
				continue
			}
			values = append(values, "(?, ?, ?, ?)")
			args = append(args, o.Timestamp(), o.Source, o.Metric, o.Value)
		}
		if len(values) == 0 {
			continue
		}
		q := fmt.Sprintf("INSERT INTO powercast.observations (ts, source, metric, value) VALUES %s",
			strings.Join(values, ","))
		if _, err := s.db.ExecContext(ctx, q, args...); err != nil {
			return err
		}
	}
	return nil
}

// bucketExpr maps a resolution to the ClickHouse bucketing expression.
func bucketExpr(res domrepo.Resolution) (string, error) {
	switch res {
	case domrepo.ResHourly:
		return "toStartOfHour(ts)", nil
	case domrepo.ResDaily:
		return "toStartOfDay(ts)", nil
	default:
		return "", fmt.Errorf("unsupported resolution: %s", res)
	}
}

func (s *CHSeriesStore) LoadSeries(ctx context.Context, source, metric string, from, to time.Time, res domrepo.Resolution) (models.Series, error) {
	start := time.Now()
	bucket, err := bucketExpr(res)
	if err != nil {
		return models.Series{}, err
	}
	q := fmt.Sprintf(`
        SELECT %s AS bucket, avg(value) AS v
        FROM powercast.observations FINAL
        WHERE source = ? AND metric = ? AND ts >= ? AND ts < ?
        GROUP BY bucket
        ORDER BY bucket ASC
    `, bucket)
	rows, err := s.db.QueryContext(ctx, q, source, metric, from, to)
	if err != nil {
		if s.l != nil {
			s.l.Error("clickhouse load_series query error",
				applogger.String("source", source),
				applogger.String("metric", metric),
				applogger.Error(err),
			)
		}
		return models.Series{}, fmt.Errorf("load series: %w", err)
	}
	defer rows.Close()

	out := models.Series{
		Times:  make([]time.Time, 0, 1024),
		Values: make([]float64, 0, 1024),
	}
	for rows.Next() {
		var ts time.Time
		var v float64
		if err := rows.Scan(&ts, &v); err != nil {
			return models.Series{}, fmt.Errorf("scan observation: %w", err)
		}
		out.Times = append(out.Times, ts)
		out.Values = append(out.Values, v)
	}
	if err := rows.Err(); err != nil {
		return models.Series{}, fmt.Errorf("rows: %w", err)
	}
	if s.l != nil {
		s.l.Info("clickhouse load_series ok",
			applogger.String("source", source),
			applogger.String("metric", metric),
			applogger.String("res", string(res)),
			applogger.Int("rows", out.Len()),
			applogger.Duration("duration_ms", time.Since(start)),
		)
	}
	return out, nil
}

func (s *CHSeriesStore) LoadFeatures(ctx context.Context, source string, metrics []string, from, to time.Time, res domrepo.Resolution) (*models.FeatureTable, error) {
	if len(metrics) == 0 {
		return nil, nil
	}
	bySeries := make(map[string]models.Series, len(metrics))
	for _, metric := range metrics {
		series, err := s.LoadSeries(ctx, source, metric, from, to, res)
		if err != nil {
			return nil, fmt.Errorf("load feature %s: %w", metric, err)
		}
		bySeries[metric] = series
	}
	return featureTable(metrics, bySeries), nil
}

// featureTable merges per-metric series into one table over the sorted union
// of their timestamps. Metrics missing a timestamp carry NaN there, so every
// column spans the full monotonic index.
func featureTable(order []string, bySeries map[string]models.Series) *models.FeatureTable {
	seen := make(map[time.Time]struct{})
	var index []time.Time
	for _, metric := range order {
		for _, ts := range bySeries[metric].Times {
			if _, ok := seen[ts]; !ok {
				seen[ts] = struct{}{}
				index = append(index, ts)
			}
		}
	}
	sort.Slice(index, func(i, j int) bool { return index[i].Before(index[j]) })

	pos := make(map[time.Time]int, len(index))
	for i, ts := range index {
		pos[ts] = i
	}

	table := &models.FeatureTable{Times: index, Cols: make(map[string][]float64, len(order))}
	for _, metric := range order {
		col := make([]float64, len(index))
		for i := range col {
			col[i] = math.NaN()
		}
		series := bySeries[metric]
		for i, ts := range series.Times {
			col[pos[ts]] = series.Values[i]
		}
		table.Names = append(table.Names, metric)
		table.Cols[metric] = col
	}
	return table
}

func (s *CHSeriesStore) SaveRun(ctx context.Context, run *models.BacktestRun) error {
	spec, err := json.Marshal(run.Spec)
	if err != nil {
		return fmt.Errorf("marshal run spec: %w", err)
	}
	const q = `INSERT INTO powercast.backtest_runs (id, spec, status, started, finished, error, updated)
        VALUES (?, ?, ?, ?, ?, ?, now())`
	finished := run.Finished
	if finished.IsZero() {
		finished = time.Unix(0, 0).UTC()
	}
	_, err = s.db.ExecContext(ctx, q, run.ID, string(spec), run.Status, run.Started, finished, run.Error)
	return err
}

func (s *CHSeriesStore) GetRun(ctx context.Context, id string) (*models.BacktestRun, error) {
	const q = `
        SELECT id, spec, status, started, finished, error
        FROM powercast.backtest_runs FINAL
        WHERE id = ?
        LIMIT 1
    `
	var run models.BacktestRun
	var spec string
	err := s.db.QueryRowContext(ctx, q, id).Scan(
		&run.ID, &spec, &run.Status, &run.Started, &run.Finished, &run.Error,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get run: %w", err)
	}
	if err := json.Unmarshal([]byte(spec), &run.Spec); err != nil {
		return nil, fmt.Errorf("unmarshal run spec: %w", err)
	}
	if run.Finished.Unix() == 0 {
		run.Finished = time.Time{}
	}
	if run.Status == models.RunFinished {
		errs, err := s.loadScores(ctx, id)
		if err != nil {
			return nil, err
		}
		run.Errors = errs
	}
	return &run, nil
}

// loadScores rebuilds the error table of a finished run from its persisted
// per-metric scores. Row order follows the table's own sort, not insert order.
func (s *CHSeriesStore) loadScores(ctx context.Context, runID string) (*models.ErrorTable, error) {
	const q = `
        SELECT model, metric, value
        FROM powercast.backtest_scores
        WHERE run_id = ?
        ORDER BY model ASC, metric ASC
    `
	rows, err := s.db.QueryContext(ctx, q, runID)
	if err != nil {
		return nil, fmt.Errorf("load scores: %w", err)
	}
	defer rows.Close()

	var modelOrder []string
	var metricOrder []string
	byModel := make(map[string]map[string]float64)
	seenMetric := make(map[string]bool)
	for rows.Next() {
		var model, metric string
		var value float64
		if err := rows.Scan(&model, &metric, &value); err != nil {
			return nil, fmt.Errorf("scan score: %w", err)
		}
		scores, ok := byModel[model]
		if !ok {
			scores = make(map[string]float64)
			byModel[model] = scores
			modelOrder = append(modelOrder, model)
		}
		scores[metric] = value
		if !seenMetric[metric] {
			seenMetric[metric] = true
			metricOrder = append(metricOrder, metric)
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("load scores: %w", err)
	}
	if len(modelOrder) == 0 {
		return nil, nil
	}

	table := &models.ErrorTable{Metrics: metricOrder}
	for _, model := range modelOrder {
		table.Rows = append(table.Rows, models.ErrorRow{Model: model, Scores: byModel[model]})
	}
	table.Sort()
	return table, nil
}

func (s *CHSeriesStore) SaveForecasts(ctx context.Context, runID string, table *models.ForecastTable) error {
	if table == nil || len(table.Index) == 0 {
		return nil
	}
	values := make([]string, 0, len(table.Index)*len(table.Columns))
	args := make([]interface{}, 0, len(table.Index)*len(table.Columns)*4)
	for _, col := range table.Columns {
		cells := table.Values[col]
		for i, ts := range table.Index {
			if math.IsNaN(cells[i]) {
				continue
			}
			values = append(values, "(?, ?, ?, ?)")
			args = append(args, runID, col, ts, cells[i])
		}
	}
	if len(values) == 0 {
		return nil
	}
	q := fmt.Sprintf("INSERT INTO powercast.backtest_forecasts (run_id, model, ts, value) VALUES %s",
		strings.Join(values, ","))
	_, err := s.db.ExecContext(ctx, q, args...)
	return err
}

func (s *CHSeriesStore) LoadForecasts(ctx context.Context, runID string) (*models.ForecastTable, error) {
	const q = `
        SELECT model, ts, value
        FROM powercast.backtest_forecasts
        WHERE run_id = ?
        ORDER BY ts ASC, model ASC
    `
	rows, err := s.db.QueryContext(ctx, q, runID)
	if err != nil {
		return nil, fmt.Errorf("load forecasts: %w", err)
	}
	defer rows.Close()

	type cell struct {
		model string
		ts    time.Time
		value float64
	}
	var cells []cell
	var index []time.Time
	seen := make(map[time.Time]bool)
	var columns []string
	seenCol := make(map[string]bool)
	for rows.Next() {
		var c cell
		if err := rows.Scan(&c.model, &c.ts, &c.value); err != nil {
			return nil, fmt.Errorf("scan forecast: %w", err)
		}
		cells = append(cells, c)
		if !seen[c.ts] {
			seen[c.ts] = true
			index = append(index, c.ts)
		}
		if !seenCol[c.model] {
			seenCol[c.model] = true
			columns = append(columns, c.model)
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows: %w", err)
	}
	if len(cells) == 0 {
		return nil, nil
	}

	table := models.NewForecastTable(index, columns)
	pos := make(map[time.Time]int, len(index))
	for i, ts := range index {
		pos[ts] = i
	}
	for _, c := range cells {
		table.Values[c.model][pos[c.ts]] = c.value
	}
	return table, nil
}

func (s *CHSeriesStore) SaveScores(ctx context.Context, runID string, table *models.ErrorTable) error {
	if table == nil || len(table.Rows) == 0 {
		return nil
	}
	values := make([]string, 0, len(table.Rows)*len(table.Metrics))
	args := make([]interface{}, 0, len(table.Rows)*len(table.Metrics)*4)
	for _, row := range table.Rows {
		for _, metric := range table.Metrics {
			v := row.Scores[metric]
			if math.IsNaN(v) {
				continue
			}
			values = append(values, "(?, ?, ?, ?)")
			args = append(args, runID, row.Model, metric, v)
		}
	}
	if len(values) == 0 {
		return nil
	}
	q := fmt.Sprintf("INSERT INTO powercast.backtest_scores (run_id, model, metric, value) VALUES %s",
		strings.Join(values, ","))
	_, err := s.db.ExecContext(ctx, q, args...)
	return err
}

func (s *CHSeriesStore) Health(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *CHSeriesStore) Close() error {
	return nil // Managed by pkg
}
