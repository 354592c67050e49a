package scheduler

import (
	"context"
	"time"

	"github.com/markstash/markstash/internal/domain"
	"github.com/markstash/markstash/internal/logger"
	"github.com/markstash/markstash/internal/state"
)

const (
	// DefaultRetention is the duration after which tombstones are purged (30 days)
	DefaultRetention = 30 * 24 * time.Hour
)

// TombstoneCollector handles cleanup of old deletion markers. Deleted
// entries stay in the tree as tombstones so merges can tell "deleted
// here" from "never seen"; once one is older than the retention window
// every replica has long since converged and the marker is dropped.
type TombstoneCollector struct {
	holder    *state.Holder
	logger    logger.Logger
	interval  time.Duration
	retention time.Duration
	stopCh    chan struct{}
}

// NewTombstoneCollector creates a new tombstone collector
func NewTombstoneCollector(
	holder *state.Holder,
	log logger.Logger,
	interval time.Duration,
	retention time.Duration,
) *TombstoneCollector {
	if retention == 0 {
		retention = DefaultRetention
	}

	return &TombstoneCollector{
		holder:    holder,
		logger:    log,
		interval:  interval,
		retention: retention,
		stopCh:    make(chan struct{}),
	}
}

// Start begins the periodic collection process
func (tc *TombstoneCollector) Start(ctx context.Context) error {
	// Run immediately on start
	if err := tc.Collect(ctx); err != nil {
		tc.logger.Warn("initial tombstone collection failed",
			logger.Error(err))
	}

	ticker := time.NewTicker(tc.interval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				if err := tc.Collect(ctx); err != nil {
					tc.logger.Error("tombstone collection failed",
						logger.Error(err))
				}
			case <-tc.stopCh:
				return
			case <-ctx.Done():
				return
			}
		}
	}()

	return nil
}

// Stop stops the collector
func (tc *TombstoneCollector) Stop() {
	close(tc.stopCh)
}

// Collect drops tombstones older than the retention window
func (tc *TombstoneCollector) Collect(ctx context.Context) error {
	cutoff := time.Now().UTC().Add(-tc.retention)

	purged := 0
	if _, err := tc.holder.Update(func(tree *domain.Root) (*domain.Root, error) {
		next, n := domain.PurgeTombstones(tree, cutoff)
		purged = n
		return next, nil
	}); err != nil {
		return err
	}

	if purged > 0 {
		tc.logger.Info("tombstone collection completed",
			logger.Int("purged", purged),
			logger.Time("cutoff", cutoff))
	} else {
		tc.logger.Debug("no tombstones to purge")
	}

	return nil
}
