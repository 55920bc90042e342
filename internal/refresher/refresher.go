// Package refresher runs the background cache-warming loop: it periodically
// re-enumerates every entity set so API reads mostly hit warm cache entries.
package refresher

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/cenkalti/backoff/v4"
	"go.uber.org/zap"

	"github.com/agora-social/agora-sync/internal/adapter"
	"github.com/agora-social/agora-sync/internal/logger"
	"github.com/agora-social/agora-sync/internal/social"
)

// Config holds refresher configuration
type Config struct {
	// Interval is the sleep between refresh passes
	Interval time.Duration
	// MaxRetryElapsed bounds the retries of a single failing pass before the
	// loop gives up on it and sleeps until the next interval
	MaxRetryElapsed time.Duration
}

// Refresher periodically snapshots the full entity graph through the service
type Refresher struct {
	config    Config
	service   *social.Service
	clock     adapter.Clock
	running   atomic.Bool
	stopChan  chan struct{}
	stoppedCh chan struct{}
}

// New creates a refresher over the entity service
func New(cfg Config, service *social.Service, clock adapter.Clock) *Refresher {
	if cfg.Interval <= 0 {
		cfg.Interval = time.Minute
	}
	if cfg.MaxRetryElapsed <= 0 {
		cfg.MaxRetryElapsed = cfg.Interval
	}
	return &Refresher{
		config:    cfg,
		service:   service,
		clock:     clock,
		stopChan:  make(chan struct{}),
		stoppedCh: make(chan struct{}),
	}
}

// Start begins the refresh loop. This is a blocking call that runs until the
// context is canceled or Stop is called.
func (r *Refresher) Start(ctx context.Context) error {
	if !r.running.CompareAndSwap(false, true) {
		return fmt.Errorf("refresher already running")
	}
	defer func() {
		r.running.Store(false)
		close(r.stoppedCh)
	}()

	logger.InfoCtx(ctx, "Starting entity refresher",
		zap.Duration("interval", r.config.Interval),
	)

	for {
		if err := r.refreshWithRetry(ctx); err != nil {
			logger.ErrorCtx(ctx, fmt.Errorf("refresh pass abandoned: %w", err))
		}

		select {
		case <-ctx.Done():
			logger.InfoCtx(ctx, "Entity refresher stopping due to context cancellation", zap.Error(ctx.Err()))
			return nil
		case <-r.stopChan:
			logger.InfoCtx(ctx, "Entity refresher stop requested")
			return nil
		case <-r.clock.After(r.config.Interval):
		}
	}
}

// Stop gracefully stops the refresher and waits for the loop to exit
func (r *Refresher) Stop(ctx context.Context) error {
	if !r.running.CompareAndSwap(true, false) {
		return nil // Already stopped
	}

	logger.InfoCtx(ctx, "Stopping entity refresher")
	close(r.stopChan)

	select {
	case <-r.stoppedCh:
		logger.InfoCtx(ctx, "Entity refresher stopped gracefully")
		return nil
	case <-ctx.Done():
		logger.WarnCtx(ctx, "Entity refresher stop interrupted by context timeout")
		return ctx.Err()
	}
}

// refreshWithRetry runs one refresh pass, retrying transient failures with
// exponential backoff until MaxRetryElapsed is spent.
func (r *Refresher) refreshWithRetry(ctx context.Context) error {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = 2 * time.Second
	b.MaxInterval = 30 * time.Second
	b.MaxElapsedTime = r.config.MaxRetryElapsed
	b.RandomizationFactor = 0.5

	operation := func() error {
		start := r.clock.Now()
		snapshot, err := r.service.Refresh(ctx)
		if err != nil {
			return err
		}
		logger.InfoCtx(ctx, "Refresh pass completed",
			zap.Int("communities", len(snapshot.Communities)),
			zap.Int("events", len(snapshot.Events)),
			zap.Int("feed_posts", len(snapshot.Feed.Posts)),
			zap.Bool("feed_degraded", snapshot.Feed.Degraded()),
			zap.Duration("duration", r.clock.Since(start)),
		)
		return nil
	}

	var attemptCount int
	notifyOnError := func(err error, duration time.Duration) {
		attemptCount++
		logger.WarnCtx(ctx, "Refresh pass failed, retrying",
			zap.Error(err),
			zap.Int("attempt", attemptCount),
			zap.Duration("next_retry_in", duration),
		)
	}

	if err := backoff.RetryNotify(operation, backoff.WithContext(b, ctx), notifyOnError); err != nil {
		return fmt.Errorf("failed after %d attempts: %w", attemptCount, err)
	}
	return nil
}
