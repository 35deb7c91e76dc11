package usecase

import (
	"context"
	"fmt"
	"sync"
	"time"

	"PowerCast/internal/backtest"
	"PowerCast/internal/domain/models"
	domrepo "PowerCast/internal/domain/repository"
	"PowerCast/internal/forecast"
	"PowerCast/internal/service/features"
	pkgcache "PowerCast/pkg/cache"
	applogger "PowerCast/pkg/logger"
	"PowerCast/pkg/queue"
)

// JobTypeBacktestRun is the queue message type for asynchronous runs.
const JobTypeBacktestRun = "backtest.run"

const (
	runCacheTTL       = 10 * time.Minute
	defaultLookbackTo = 90 * 24 * time.Hour
)

// BacktestRunner orchestrates one evaluation end to end: load the series,
// build the splitter and model registry, run the engine, persist artifacts.
type BacktestRunner struct {
	store   domrepo.SeriesStore
	metrics domrepo.Metrics
	cache   pkgcache.Service
	qsvc    queue.QueueService
	log     *applogger.Logger

	mu         sync.Mutex
	interrupts map[string]*backtest.Interrupt
}

func NewBacktestRunner(
	store domrepo.SeriesStore,
	metrics domrepo.Metrics,
	cache pkgcache.Service,
	qsvc queue.QueueService,
	log *applogger.Logger,
) *BacktestRunner {
	return &BacktestRunner{
		store:      store,
		metrics:    metrics,
		cache:      cache,
		qsvc:       qsvc,
		log:        log,
		interrupts: make(map[string]*backtest.Interrupt),
	}
}

// Submit starts a run. Synchronous submissions block until the evaluation
// finishes; asynchronous ones persist a queued run and hand the spec to the
// queue workers.
func (r *BacktestRunner) Submit(ctx context.Context, spec models.RunSpec, async bool) (*models.BacktestRun, error) {
	if err := normalizeSpec(&spec); err != nil {
		return nil, err
	}

	run := &models.BacktestRun{
		ID:      newRunID(),
		Spec:    spec,
		Status:  models.RunQueued,
		Started: time.Now().UTC(),
	}
	if err := r.store.SaveRun(ctx, run); err != nil {
		return nil, fmt.Errorf("save run: %w", err)
	}

	if async {
		if r.qsvc == nil {
			return nil, fmt.Errorf("async runs disabled: no queue configured")
		}
		if err := r.qsvc.PublishMessage(ctx, JobTypeBacktestRun, runMessage{ID: run.ID, Spec: spec}); err != nil {
			return nil, fmt.Errorf("enqueue run: %w", err)
		}
		r.log.Info("backtest queued",
			applogger.String("run_id", run.ID),
			applogger.String("source", spec.Source),
			applogger.String("metric", spec.Metric),
		)
		return run, nil
	}

	if err := r.Execute(ctx, run); err != nil {
		return run, err
	}
	return run, nil
}

// Cancel signals the interrupt token of a running evaluation. The current
// model stops at its next window boundary; remaining models still run.
func (r *BacktestRunner) Cancel(runID string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	tok, ok := r.interrupts[runID]
	if !ok {
		return false
	}
	tok.Signal()
	return true
}

// GetRun returns a run record, serving repeated reads from cache.
func (r *BacktestRunner) GetRun(ctx context.Context, id string) (*models.BacktestRun, error) {
	key := runCacheKey(id)
	if r.cache != nil {
		var cached models.BacktestRun
		if err := r.cache.Get(ctx, key, &cached); err == nil {
			return &cached, nil
		}
	}
	run, err := r.store.GetRun(ctx, id)
	if err != nil || run == nil {
		return run, err
	}
	if r.cache != nil && run.Status != models.RunRunning && run.Status != models.RunQueued {
		_ = r.cache.Set(ctx, key, run, runCacheTTL)
	}
	return run, nil
}

// Forecasts loads the persisted forecast table of a finished run.
func (r *BacktestRunner) Forecasts(ctx context.Context, runID string) (*models.ForecastTable, error) {
	return r.store.LoadForecasts(ctx, runID)
}

// Execute runs the evaluation for an already persisted run record.
func (r *BacktestRunner) Execute(ctx context.Context, run *models.BacktestRun) error {
	spec := run.Spec
	run.Status = models.RunRunning
	_ = r.store.SaveRun(ctx, run)

	interrupt := backtest.NewInterrupt()
	r.mu.Lock()
	r.interrupts[run.ID] = interrupt
	r.mu.Unlock()
	defer func() {
		r.mu.Lock()
		delete(r.interrupts, run.ID)
		r.mu.Unlock()
	}()

	res, err := r.evaluate(ctx, spec, interrupt)
	run.Finished = time.Now().UTC()
	if err != nil {
		run.Status = models.RunFailed
		run.Error = err.Error()
		_ = r.store.SaveRun(ctx, run)
		return err
	}

	run.Status = models.RunFinished
	run.Errors = res.Errors
	if err := r.store.SaveForecasts(ctx, run.ID, res.Forecasts); err != nil {
		r.log.Error("save forecasts failed", applogger.String("run_id", run.ID), applogger.Error(err))
	}
	if err := r.store.SaveScores(ctx, run.ID, res.Errors); err != nil {
		r.log.Error("save scores failed", applogger.String("run_id", run.ID), applogger.Error(err))
	}
	if err := r.store.SaveRun(ctx, run); err != nil {
		return fmt.Errorf("save run: %w", err)
	}
	if r.cache != nil {
		_ = r.cache.Set(ctx, runCacheKey(run.ID), run, runCacheTTL)
	}
	return nil
}

func (r *BacktestRunner) evaluate(ctx context.Context, spec models.RunSpec, interrupt *backtest.Interrupt) (*backtest.Result, error) {
	y, err := r.store.LoadSeries(ctx, spec.Source, spec.Metric, spec.From, spec.To, domrepo.DefaultResolution())
	if err != nil {
		return nil, fmt.Errorf("load series: %w", err)
	}
	if y.Len() < spec.InitialWindow+spec.Horizon {
		return nil, fmt.Errorf("series too short: %d points, need at least %d",
			y.Len(), spec.InitialWindow+spec.Horizon)
	}
	X := features.Calendar(y)
	if len(spec.Features) > 0 {
		exog, err := r.store.LoadFeatures(ctx, spec.Source, spec.Features, spec.From, spec.To, domrepo.DefaultResolution())
		if err != nil {
			return nil, fmt.Errorf("load features: %w", err)
		}
		X = features.Merge(X, features.Align(exog, y.Times))
	}

	mods, err := forecast.ModelsByName(spec.Models)
	if err != nil {
		return nil, err
	}

	var splitter backtest.Splitter
	ws, err := backtest.NewWindowSplitter(backtest.Mode(spec.Mode), spec.InitialWindow, spec.StepLength, spec.Horizon)
	if err != nil {
		return nil, err
	}
	splitter = ws
	if spec.Frac < 1 {
		splitter, err = backtest.NewSubsamplingSplitter(ws, spec.Frac, spec.Seed)
		if err != nil {
			return nil, err
		}
	}

	eng, err := backtest.New(splitter, mods,
		backtest.WithLogger(r.log),
		backtest.WithRecorder(r.metrics),
		backtest.WithInterrupt(interrupt),
	)
	if err != nil {
		return nil, err
	}

	run := backtest.Chain(eng.Evaluate,
		backtest.WithRunLogging(r.log),
		backtest.WithRunRecorder(r.metrics),
	)
	return run(ctx, y, X)
}

func normalizeSpec(spec *models.RunSpec) error {
	if spec.Source == "" || spec.Metric == "" {
		return fmt.Errorf("source and metric required")
	}
	if spec.Mode == "" {
		spec.Mode = string(backtest.ModeExpanding)
	}
	if spec.StepLength <= 0 {
		spec.StepLength = backtest.DefaultStepLength
	}
	if spec.Horizon <= 0 {
		spec.Horizon = backtest.DefaultHorizon
	}
	if spec.Frac == 0 {
		spec.Frac = 1
	}
	if spec.Frac < 0 || spec.Frac > 1 {
		return fmt.Errorf("frac must be in [0, 1]")
	}
	if spec.Seed == 0 {
		spec.Seed = backtest.DefaultSeed
	}
	if spec.To.IsZero() {
		spec.To = time.Now().UTC().Truncate(time.Hour)
	}
	if spec.From.IsZero() {
		spec.From = spec.To.Add(-defaultLookbackTo)
	}
	if spec.From.After(spec.To) {
		return fmt.Errorf("from must be <= to")
	}
	return nil
}

func newRunID() string {
	return fmt.Sprintf("bt-%d", time.Now().UnixNano())
}

func runCacheKey(id string) string { return pkgcache.GenerateKey("powercast:run", id) }

// runMessage is the queue payload for asynchronous runs.
type runMessage struct {
	ID   string         `json:"id"`
	Spec models.RunSpec `json:"spec"`
}

// BacktestRunJob executes queued runs on the queue workers.
type BacktestRunJob struct {
	runner *BacktestRunner
}

func NewBacktestRunJob(runner *BacktestRunner) *BacktestRunJob {
	return &BacktestRunJob{runner: runner}
}

func (j *BacktestRunJob) Name() string { return "backtest-run" }
func (j *BacktestRunJob) Type() string { return JobTypeBacktestRun }

func (j *BacktestRunJob) Handle(ctx context.Context, payload interface{}) error {
	msg, err := queue.ParsePayload[runMessage](payload)
	if err != nil {
		return fmt.Errorf("parse run payload: %w", err)
	}
	run := &models.BacktestRun{
		ID:      msg.ID,
		Spec:    msg.Spec,
		Status:  models.RunRunning,
		Started: time.Now().UTC(),
	}
	return j.runner.Execute(ctx, run)
}

var _ queue.Job = (*BacktestRunJob)(nil)
