package scheduler

import (
	"context"
	"sync"
	"time"

	"github.com/markstash/markstash/internal/logger"
)

// ChangeChecker answers whether the remote document moved past the
// version we hold, without downloading it.
type ChangeChecker interface {
	Changed(ctx context.Context) (bool, error)
}

// RemotePoller watches the remote document for edits made by other
// replicas and fires onChange when one lands. Checks are cheap
// conditional requests; a poll is skipped entirely while the suppress
// predicate holds, so a user resolving conflicts is never interrupted
// by a concurrent pull.
type RemotePoller struct {
	checker       ChangeChecker
	suppress      func() bool
	onChange      func(ctx context.Context)
	logger        logger.Logger
	interval      time.Duration
	stopCh        chan struct{}
	manualTrigger chan struct{}
	startOnce     sync.Once
	stopOnce      sync.Once
}

// NewRemotePoller creates a new remote poller. suppress may be nil;
// manualTrigger lets the API force a check outside the interval.
func NewRemotePoller(
	checker ChangeChecker,
	suppress func() bool,
	onChange func(ctx context.Context),
	log logger.Logger,
	interval time.Duration,
	manualTrigger chan struct{},
) *RemotePoller {
	return &RemotePoller{
		checker:       checker,
		suppress:      suppress,
		onChange:      onChange,
		logger:        log,
		interval:      interval,
		stopCh:        make(chan struct{}),
		manualTrigger: manualTrigger,
	}
}

// Start begins the periodic polling process. It does not poll
// immediately; the first check happens one interval in. Polls run
// sequentially in one goroutine, so they cannot overlap.
func (rp *RemotePoller) Start(ctx context.Context) error {
	rp.startOnce.Do(func() {
		ticker := time.NewTicker(rp.interval)
		go func() {
			defer ticker.Stop()
			for {
				select {
				case <-ticker.C:
					rp.poll(ctx)
				case <-rp.manualTrigger:
					rp.logger.Info("manual remote poll triggered")
					rp.poll(ctx)
				case <-rp.stopCh:
					return
				case <-ctx.Done():
					return
				}
			}
		}()
	})
	return nil
}

// Stop stops the poller
func (rp *RemotePoller) Stop() {
	rp.stopOnce.Do(func() {
		close(rp.stopCh)
	})
}

// poll runs one check and fires onChange when the remote moved
func (rp *RemotePoller) poll(ctx context.Context) {
	if rp.suppress != nil && rp.suppress() {
		rp.logger.Debug("remote poll skipped while conflicts are pending")
		return
	}

	changed, err := rp.checker.Changed(ctx)
	if err != nil {
		rp.logger.Warn("remote change check failed",
			logger.Error(err))
		return
	}
	if !changed {
		return
	}

	rp.logger.Info("remote document changed")
	rp.onChange(ctx)
}
