package lifecycle

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/serroba/linkcycle/internal/shortener"
	"go.uber.org/zap"
)

// Config holds the timer cadences and age thresholds for the scheduler.
type Config struct {
	PurgeEvery     time.Duration
	AggregateEvery time.Duration
	CompressEvery  time.Duration

	AggregateAge time.Duration
	CompressAge  time.Duration
}

// DefaultConfig returns the default cadences: purge daily, aggregate
// weekly, compress monthly; aggregate clicks older than 30 days and
// compress links dormant for 90.
func DefaultConfig() Config {
	return Config{
		PurgeEvery:     24 * time.Hour,
		AggregateEvery: 7 * 24 * time.Hour,
		CompressEvery:  30 * 24 * time.Hour,
		AggregateAge:   30 * 24 * time.Hour,
		CompressAge:    90 * 24 * time.Hour,
	}
}

// Scheduler drives the purger, aggregator, and compressor on independent
// timers and exposes the same operations for on-demand maintenance. Each
// operation is single-flight: a timer tick is skipped while the previous
// run of that operation is still in progress, but different operations may
// run concurrently with each other.
type Scheduler struct {
	purger     *Purger
	aggregator *Aggregator
	compressor *Compressor
	store      shortener.Store
	cfg        Config
	logger     *zap.Logger

	cron   *cron.Cron
	ctx    context.Context
	cancel context.CancelFunc
}

// NewScheduler composes the three retention components over the store.
func NewScheduler(store shortener.Store, cfg Config, logger *zap.Logger) *Scheduler {
	ctx, cancel := context.WithCancel(context.Background())

	cronLogger := newCronLogger(logger)

	return &Scheduler{
		purger:     NewPurger(store, logger),
		aggregator: NewAggregator(store, logger),
		compressor: NewCompressor(store, logger),
		store:      store,
		cfg:        cfg,
		logger:     logger,
		cron: cron.New(cron.WithChain(
			cron.SkipIfStillRunning(cronLogger),
			cron.Recover(cronLogger),
		)),
		ctx:    ctx,
		cancel: cancel,
	}
}

// Start runs an initial purge pass and begins the periodic timers.
func (s *Scheduler) Start() {
	s.logger.Info("lifecycle scheduler starting",
		zap.Duration("purgeEvery", s.cfg.PurgeEvery),
		zap.Duration("aggregateEvery", s.cfg.AggregateEvery),
		zap.Duration("compressEvery", s.cfg.CompressEvery),
	)

	s.cron.Schedule(cron.Every(s.cfg.PurgeEvery), cron.FuncJob(func() {
		s.runLogged("purge", func(ctx context.Context) (int, error) {
			return s.purger.PurgeExpired(ctx, time.Now())
		})
	}))

	s.cron.Schedule(cron.Every(s.cfg.AggregateEvery), cron.FuncJob(func() {
		s.runLogged("aggregate", func(ctx context.Context) (int, error) {
			return s.aggregator.AggregateOlderThan(ctx, time.Now(), s.cfg.AggregateAge)
		})
	}))

	s.cron.Schedule(cron.Every(s.cfg.CompressEvery), cron.FuncJob(func() {
		s.runLogged("compress", func(ctx context.Context) (int, error) {
			return s.compressor.CompressOlderThan(ctx, time.Now(), s.cfg.CompressAge)
		})
	}))

	// Reclaim whatever expired while the process was down.
	go s.runLogged("purge", func(ctx context.Context) (int, error) {
		return s.purger.PurgeExpired(ctx, time.Now())
	})

	s.cron.Start()
}

// Shutdown cancels in-flight runs and stops the timers, waiting for any
// running job to observe the cancellation.
func (s *Scheduler) Shutdown() error {
	s.cancel()
	<-s.cron.Stop().Done()

	s.logger.Info("lifecycle scheduler stopped")

	return nil
}

// runLogged executes one scheduled pass, logging the outcome. Errors are
// swallowed here so one failing tick never stops the loop; the next tick
// retries, throttled by the interval itself.
func (s *Scheduler) runLogged(task string, run func(context.Context) (int, error)) {
	count, err := run(s.ctx)
	if err != nil {
		s.logger.Error("lifecycle task failed",
			zap.String("task", task),
			zap.Error(err),
		)

		return
	}

	s.logger.Info("lifecycle task completed",
		zap.String("task", task),
		zap.Int("records", count),
	)
}

// RunPurgeNow synchronously purges expired links.
func (s *Scheduler) RunPurgeNow(ctx context.Context) (int, error) {
	return s.purger.PurgeExpired(ctx, time.Now())
}

// RunAggregateNow synchronously aggregates clicks older than age.
func (s *Scheduler) RunAggregateNow(ctx context.Context, age time.Duration) (int, error) {
	return s.aggregator.AggregateOlderThan(ctx, time.Now(), age)
}

// RunCompressNow synchronously compresses links dormant for age.
func (s *Scheduler) RunCompressNow(ctx context.Context, age time.Duration) (int, error) {
	return s.compressor.CompressOlderThan(ctx, time.Now(), age)
}

// Statistics reports current storage usage.
func (s *Scheduler) Statistics(ctx context.Context) (*StorageStatistics, error) {
	return CollectStatistics(ctx, s.store, time.Now())
}
