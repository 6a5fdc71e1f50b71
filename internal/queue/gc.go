package queue

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
)

// purgeTimeout bounds one pass over the dead letter queue
const purgeTimeout = 2 * time.Minute

// GarbageCollector drops dead-lettered reschedule jobs once they are older than retention.
// Failed jobs stay inspectable for the retention window and then stop piling up.
type GarbageCollector struct {
	purger    DLQPurger
	interval  time.Duration
	retention time.Duration
	log       *zap.Logger
}

// NewGarbageCollector creates a garbage collector. A nil purger makes every run a no-op.
func NewGarbageCollector(purger DLQPurger, interval, retention time.Duration, log *zap.Logger) *GarbageCollector {
	if log == nil {
		log = zap.NewNop()
	}
	return &GarbageCollector{
		purger:    purger,
		interval:  interval,
		retention: retention,
		log:       log,
	}
}

// Start purges once immediately and then every interval until ctx is cancelled
func (gc *GarbageCollector) Start(ctx context.Context) error {
	if gc.interval <= 0 {
		return errors.New("dlq gc interval must be positive")
	}
	gc.runLogged(ctx)

	ticker := time.NewTicker(gc.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			gc.runLogged(ctx)
		}
	}
}

// RunOnce performs a single purge and returns how many jobs were dropped
func (gc *GarbageCollector) RunOnce(ctx context.Context) (int, error) {
	if gc.purger == nil {
		return 0, nil
	}
	ctx, cancel := context.WithTimeout(ctx, purgeTimeout)
	defer cancel()
	n, err := gc.purger.PurgeOlderThan(ctx, gc.retention)
	if err != nil {
		return n, fmt.Errorf("failed to purge dead letter queue: %w", err)
	}
	return n, nil
}

func (gc *GarbageCollector) runLogged(ctx context.Context) {
	n, err := gc.RunOnce(ctx)
	if err != nil {
		if ctx.Err() == nil {
			gc.log.Warn("dlq_gc_failed", zap.Error(err))
		}
		return
	}
	if n > 0 {
		gc.log.Info("dlq_gc_purged",
			zap.Int("count", n),
			zap.Duration("retention", gc.retention),
		)
	}
}
