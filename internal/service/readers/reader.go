package readers

import (
	"context"
	"time"

	"PowerCast/internal/domain/models"
	domrepo "PowerCast/internal/domain/repository"
	applogger "PowerCast/pkg/logger"
)

// Reader pulls historical observations from an external HTTP source.
type Reader interface {
	Source() string
	Fetch(ctx context.Context, from, to time.Time) ([]*models.Observation, error)
}

// BatchProc is the downstream sink readers deliver to.
type BatchProc interface {
	ProcessBatch(ctx context.Context, obs []*models.Observation) error
}

// Collector polls a set of readers on an interval and forwards batches
// downstream. Each poll re-fetches a trailing window so late corrections
// from the operators are picked up.
type Collector struct {
	readers  []Reader
	proc     BatchProc
	metrics  domrepo.Metrics
	log      *applogger.Logger
	interval time.Duration
	lookback time.Duration
	stopCh   chan struct{}
}

func NewCollector(readers []Reader, proc BatchProc, metrics domrepo.Metrics, log *applogger.Logger, interval, lookback time.Duration) *Collector {
	if interval <= 0 {
		interval = time.Hour
	}
	if lookback <= 0 {
		lookback = 48 * time.Hour
	}
	return &Collector{
		readers:  readers,
		proc:     proc,
		metrics:  metrics,
		log:      log,
		interval: interval,
		lookback: lookback,
		stopCh:   make(chan struct{}),
	}
}

// Start launches the poll loop. The first poll runs immediately.
func (c *Collector) Start(ctx context.Context) {
	go func() {
		c.pollAll(ctx)
		ticker := time.NewTicker(c.interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-c.stopCh:
				return
			case <-ticker.C:
				c.pollAll(ctx)
			}
		}
	}()
}

func (c *Collector) Stop() { close(c.stopCh) }

func (c *Collector) pollAll(ctx context.Context) {
	to := time.Now().UTC()
	from := to.Add(-c.lookback)
	for _, r := range c.readers {
		obs, err := r.Fetch(ctx, from, to)
		if err != nil {
			c.metrics.RecordError("reader_" + r.Source())
			c.log.Error("reader fetch failed",
				applogger.String("source", r.Source()),
				applogger.Error(err),
			)
			continue
		}
		if len(obs) == 0 {
			continue
		}
		if err := c.proc.ProcessBatch(ctx, obs); err != nil {
			c.metrics.RecordError("reader_store")
			c.log.Error("reader batch store failed",
				applogger.String("source", r.Source()),
				applogger.Error(err),
			)
			continue
		}
		c.log.Info("reader batch stored",
			applogger.String("source", r.Source()),
			applogger.Int("rows", len(obs)),
		)
	}
}
