// Package sync owns the reconciliation loop between the in-memory tree
// and the remote gist document: pull, three-way merge, push when the
// merge moved past what the remote holds.
//
// All user operations funnel through Apply, which wraps the mutation in
// a sync-before / save-after cycle so edits always land on fresh state.
// A merge that cannot settle parks its conflicts; until they are
// resolved, mutations are rejected and background pulls stay away.
package sync

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/markstash/markstash/internal/domain"
	"github.com/markstash/markstash/internal/gist"
	"github.com/markstash/markstash/internal/logger"
	"github.com/markstash/markstash/internal/markdown"
	"github.com/markstash/markstash/internal/merge"
	"github.com/markstash/markstash/internal/state"
	redisstore "github.com/markstash/markstash/internal/store/redis"
)

const syncRetryMaxElapsed = 15 * time.Second

func newSyncRetryBackoff() backoff.BackOff {
	// BackOff implementations are stateful; always return a fresh instance.
	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = 100 * time.Millisecond
	bo.MaxElapsedTime = syncRetryMaxElapsed
	return bo
}

// Report summarizes one reconciliation pass.
type Report struct {
	At      time.Time `json:"at"`
	Pushed  bool      `json:"pushed"`
	Changed bool      `json:"changed"`

	// Conflicts is non-empty when the merge could not settle; nothing
	// was pushed or installed in that case.
	Conflicts []merge.Conflict `json:"conflicts,omitempty"`
}

// HasConflicts reports whether the pass parked conflicts instead of
// completing.
func (r Report) HasConflicts() bool {
	return len(r.Conflicts) > 0
}

// Status is the sync position as the API reports it.
type Status struct {
	LastSynced       time.Time `json:"last_synced"`
	ETag             string    `json:"etag"`
	PendingConflicts int       `json:"pending_conflicts"`
	Resolving        bool      `json:"resolving"`
}

// Params collects the orchestrator's dependencies.
type Params struct {
	Repo     *gist.Repository
	Holder   *state.Holder
	Store    *redisstore.Store // optional; skips persistence when nil
	Strategy merge.Strategy
	GistID   string
	Logger   logger.Logger
}

// Orchestrator serializes every exchange with the remote document. One
// flow runs at a time; the holder stays consistent throughout.
type Orchestrator struct {
	repo     *gist.Repository
	holder   *state.Holder
	store    *redisstore.Store
	strategy merge.Strategy
	gistID   string
	logger   logger.Logger

	mu sync.Mutex // one sync flow at a time

	stateMu   sync.RWMutex
	pending   []merge.Conflict
	resolving bool
}

// New creates an orchestrator.
func New(p Params) *Orchestrator {
	return &Orchestrator{
		repo:     p.Repo,
		holder:   p.Holder,
		store:    p.Store,
		strategy: p.Strategy,
		gistID:   p.GistID,
		logger:   p.Logger,
	}
}

// SyncNow runs one reconciliation pass: pull, merge, push if the merge
// moved past the remote. Conflicts come back in the report, not as an
// error; the local tree is untouched in that case.
func (o *Orchestrator) SyncNow(ctx context.Context) (Report, error) {
	o.mu.Lock()
	defer o.mu.Unlock()

	return o.syncWithRetry(ctx, nil)
}

// Apply runs op against the current tree inside a full cycle: sync
// first so the edit lands on fresh state, mutate, then sync again to
// push the result. It refuses to mutate while conflicts are pending.
//
// A trailing sync that fails or parks conflicts does not undo the
// operation; the edit stays local and the next successful cycle
// carries it.
func (o *Orchestrator) Apply(ctx context.Context, op func(*domain.Root) (*domain.Root, error)) (*domain.Root, error) {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.pendingCount() > 0 {
		return nil, ErrConflictsPending
	}

	rep, err := o.syncWithRetry(ctx, nil)
	if err != nil {
		return nil, err
	}
	if rep.HasConflicts() {
		return nil, ErrConflictsPending
	}

	if _, err := o.holder.Update(op); err != nil {
		return nil, err
	}

	rep, err = o.syncWithRetry(ctx, nil)
	switch {
	case err != nil:
		o.logger.Warn("operation applied locally but sync failed",
			logger.Error(err))
	case rep.HasConflicts():
		o.logger.Warn("operation applied locally, sync parked conflicts",
			logger.Int("conflicts", len(rep.Conflicts)))
	}

	return o.holder.Current(), nil
}

// Resolve re-runs the merge with the user's choices applied. The pass
// must settle every conflict; leftovers fail with ErrConflictsRemain
// and stay parked.
func (o *Orchestrator) Resolve(ctx context.Context, resolutions []merge.Resolution) (Report, error) {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.pendingCount() == 0 {
		return Report{}, ErrNoConflicts
	}

	o.setResolving(true)
	defer o.setResolving(false)

	prev := o.Conflicts()
	rep, err := o.syncWithRetry(ctx, resolutions)
	if err != nil {
		return rep, err
	}
	if rep.HasConflicts() {
		// An incomplete pass settles nothing; keep the full set parked
		// so the client retries with every verdict at once.
		o.setPending(prev)
		return rep, ErrConflictsRemain
	}

	o.bump(ctx, redisstore.CounterConflictsResolved, int64(len(resolutions)))
	return rep, nil
}

// Status reports the current sync position.
func (o *Orchestrator) Status() Status {
	o.stateMu.RLock()
	pending := len(o.pending)
	resolving := o.resolving
	o.stateMu.RUnlock()

	return Status{
		LastSynced:       o.holder.LastSynced(),
		ETag:             o.repo.ETag(),
		PendingConflicts: pending,
		Resolving:        resolving,
	}
}

// Conflicts returns the parked conflicts awaiting resolution.
func (o *Orchestrator) Conflicts() []merge.Conflict {
	o.stateMu.RLock()
	defer o.stateMu.RUnlock()

	return append([]merge.Conflict(nil), o.pending...)
}

// Suppressed reports whether background pulls should stay away: either
// conflicts are parked for the user or a resolution flow is open.
func (o *Orchestrator) Suppressed() bool {
	o.stateMu.RLock()
	defer o.stateMu.RUnlock()

	return len(o.pending) > 0 || o.resolving
}

// syncWithRetry re-enters the whole read-merge-write cycle when the
// remote document moves between our read and our write. Each attempt
// reads fresh, so the retried write is conditional on the new version.
func (o *Orchestrator) syncWithRetry(ctx context.Context, resolutions []merge.Resolution) (Report, error) {
	var rep Report
	bo := newSyncRetryBackoff()

	err := backoff.Retry(func() error {
		r, err := o.syncOnce(ctx, resolutions)
		if err != nil {
			if errors.Is(err, gist.ErrVersionConflict) {
				o.logger.Warn("remote moved during push, retrying cycle",
					logger.Error(err))
				return err
			}
			return backoff.Permanent(err)
		}
		rep = r
		return nil
	}, backoff.WithContext(bo, ctx))
	if err != nil {
		return Report{}, err
	}
	return rep, nil
}

// syncOnce is a single read-merge-write pass.
func (o *Orchestrator) syncOnce(ctx context.Context, resolutions []merge.Resolution) (Report, error) {
	local, lastSynced := o.holder.Snapshot()

	remote, err := o.repo.ReadAt(ctx, lastSynced)
	if err != nil {
		return Report{}, err
	}

	res, err := merge.Merge(local, remote, lastSynced, merge.Options{
		Strategy:    o.strategy,
		Resolutions: resolutions,
	})
	if err != nil {
		return Report{}, err
	}

	if res.HasConflicts {
		o.setPending(res.Conflicts)
		o.bump(ctx, redisstore.CounterConflictsSeen, int64(len(res.Conflicts)))
		o.logger.Warn("sync parked conflicts",
			logger.Int("conflicts", len(res.Conflicts)))
		return Report{Conflicts: res.Conflicts}, nil
	}

	pushed := false
	if !res.Root.EqualContent(remote) {
		if err := o.repo.Write(ctx, res.Root); err != nil {
			return Report{}, err
		}
		pushed = true
	}

	now := time.Now().UTC()
	o.holder.ReplaceSynced(domain.StampSynced(res.Root, now), now)
	o.clearPending()

	o.persist(ctx, now, res.Root)
	o.bump(ctx, redisstore.CounterSyncs, 1)
	if pushed {
		o.bump(ctx, redisstore.CounterPushes, 1)
	}

	o.logger.Info("sync completed",
		logger.Bool("pushed", pushed),
		logger.Bool("changed", res.Changed))

	return Report{At: now, Pushed: pushed, Changed: res.Changed}, nil
}

// persist saves the sync position and tree text to Redis, best effort.
func (o *Orchestrator) persist(ctx context.Context, at time.Time, tree *domain.Root) {
	if o.store == nil {
		return
	}
	st := redisstore.SyncState{LastSynced: at, ETag: o.repo.ETag()}
	if err := o.store.SaveSyncState(ctx, o.gistID, st, markdown.Encode(tree)); err != nil {
		o.logger.Warn("failed to persist sync state",
			logger.Error(err))
	}
}

func (o *Orchestrator) bump(ctx context.Context, name string, delta int64) {
	if o.store == nil || delta == 0 {
		return
	}
	if err := o.store.IncrCounter(ctx, o.gistID, name, delta); err != nil {
		o.logger.Warn("failed to update sync counter",
			logger.String("counter", name),
			logger.Error(err))
	}
}

func (o *Orchestrator) setPending(conflicts []merge.Conflict) {
	o.stateMu.Lock()
	defer o.stateMu.Unlock()

	o.pending = append([]merge.Conflict(nil), conflicts...)
}

func (o *Orchestrator) clearPending() {
	o.stateMu.Lock()
	defer o.stateMu.Unlock()

	o.pending = nil
}

func (o *Orchestrator) pendingCount() int {
	o.stateMu.RLock()
	defer o.stateMu.RUnlock()

	return len(o.pending)
}

func (o *Orchestrator) setResolving(v bool) {
	o.stateMu.Lock()
	defer o.stateMu.Unlock()

	o.resolving = v
}
