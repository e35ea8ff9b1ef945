// Package job provides background job schedulers.
package job

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"watchlist-service/internal/domain"
	"watchlist-service/pkg/locker"
)

// warmupLockKey coordinates warmup runs across instances.
const warmupLockKey = "warmup:popular:lock"

// PopularLoader loads the popular list through the response cache.
// Implementations: service.MovieGateway, service.CatalogService
type PopularLoader interface {
	Popular(ctx context.Context, limit int) ([]domain.TitleDocument, error)
}

// WarmupConfig holds warmup scheduler configuration.
type WarmupConfig struct {
	Interval time.Duration
	Timeout  time.Duration
	Limit    int
}

// WarmupScheduler keeps the popular list cache filled. At most one instance
// runs a warmup per interval.
type WarmupScheduler struct {
	loader   PopularLoader
	interval time.Duration
	timeout  time.Duration
	limit    int
	logger   *zap.Logger
	locker   locker.DistributedLocker

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewWarmupScheduler creates a new WarmupScheduler.
func NewWarmupScheduler(
	loader PopularLoader,
	cfg WarmupConfig,
	logger *zap.Logger,
	locker locker.DistributedLocker,
) *WarmupScheduler {
	return &WarmupScheduler{
		loader:   loader,
		interval: cfg.Interval,
		timeout:  cfg.Timeout,
		limit:    cfg.Limit,
		logger:   logger,
		locker:   locker,
	}
}

// Start begins the background warmup loop.
func (s *WarmupScheduler) Start(runOnStartup bool) {
	var ctx context.Context
	ctx, s.cancel = context.WithCancel(context.Background())

	s.logger.Info("starting popular warmup scheduler",
		zap.Duration("interval", s.interval),
		zap.Int("limit", s.limit),
		zap.Bool("run_on_startup", runOnStartup),
	)

	s.wg.Add(1)
	go s.run(ctx, runOnStartup)
}

// Stop cancels a running warmup and waits for the loop to exit.
func (s *WarmupScheduler) Stop() {
	if s.cancel == nil {
		return
	}

	s.logger.Info("stopping popular warmup scheduler")
	s.cancel()
	s.wg.Wait()
	s.logger.Info("popular warmup scheduler stopped")
}

func (s *WarmupScheduler) run(ctx context.Context, runOnStartup bool) {
	defer s.wg.Done()

	if runOnStartup {
		s.warm(ctx)
	}

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.warm(ctx)
		}
	}
}

// warm loads the popular list once, if no other instance did so this interval.
//
// The lock TTL is the interval: on success the lock is left to expire as a
// cooldown, on failure it is released so the next tick anywhere can retry.
func (s *WarmupScheduler) warm(ctx context.Context) {
	acquired, err := s.locker.Acquire(ctx, warmupLockKey, s.interval)
	if err != nil {
		s.logger.Error("failed to acquire warmup lock", zap.Error(err))
		return
	}
	if !acquired {
		s.logger.Debug("popular list warmed by another instance, skipping")
		return
	}

	runCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	started := time.Now()
	docs, err := s.loader.Popular(runCtx, s.limit)
	if err != nil {
		if err := s.locker.Release(ctx, warmupLockKey); err != nil {
			s.logger.Error("failed to release warmup lock", zap.Error(err))
		}
		s.logger.Warn("popular warmup failed, lock released for retry", zap.Error(err))

		return
	}

	s.logger.Info("popular list warmed",
		zap.Int("titles", len(docs)),
		zap.Duration("took", time.Since(started)),
		zap.Duration("cooldown", s.interval),
	)
}
