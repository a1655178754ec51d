package ttl

import (
	"context"
	"time"

	"genweb/internal/logs"
	"genweb/internal/metrics"
)

// Store defines the minimal contract required by the cleaner.
// Both the response cache and the rate limiter satisfy it.
type Store interface {
	RemoveExpired() int
}

// Cleaner periodically removes expired entries from a Store.
type Cleaner struct {
	name     string
	store    Store
	interval time.Duration
	logger   *logs.Logger
	metrics  *metrics.Registry
}

// NewCleaner creates a Cleaner; name only labels its log lines.
func NewCleaner(
	name string,
	store Store,
	interval time.Duration,
	logger *logs.Logger,
	metricsRegistry *metrics.Registry,
) *Cleaner {
	return &Cleaner{
		name:     name,
		store:    store,
		interval: interval,
		logger:   logger,
		metrics:  metricsRegistry,
	}
}

// Start runs the cleanup loop until the context is cancelled.
// It blocks and should typically be run in a separate goroutine.
func (c *Cleaner) Start(ctx context.Context) {
	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			c.runOnce()
		case <-ctx.Done():
			c.logger.Debugf("%s sweeper stopped", c.name)
			return
		}
	}
}

// runOnce performs a single cleanup cycle
func (c *Cleaner) runOnce() {
	c.metrics.Inc(metrics.SweepRunsTotal)

	removed := c.store.RemoveExpired()
	if removed > 0 {
		c.metrics.Add(metrics.SweepRemovedTotal, int64(removed))
		c.logger.Debugf("%s sweeper removed %d expired entries", c.name, removed)
	}
}
