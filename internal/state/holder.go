// Package state holds the replica's working copy: the current bookmark
// tree and the moment it last agreed with the remote document.
package state

import (
	"sync"
	"time"

	"github.com/markstash/markstash/internal/domain"
)

// Holder guards the in-memory tree. Trees are immutable, so readers get
// the live pointer and writers swap in a replacement wholesale.
type Holder struct {
	mu         sync.RWMutex
	tree       *domain.Root
	lastSynced time.Time
}

// NewHolder creates a holder around an empty tree.
func NewHolder() *Holder {
	return &Holder{
		tree:       domain.NewRoot(),
		lastSynced: domain.Epoch,
	}
}

// Current returns the tree as of now.
func (h *Holder) Current() *domain.Root {
	h.mu.RLock()
	defer h.mu.RUnlock()

	return h.tree
}

// LastSynced returns the last successful sync point, domain.Epoch when
// the replica has never synced.
func (h *Holder) LastSynced() time.Time {
	h.mu.RLock()
	defer h.mu.RUnlock()

	return h.lastSynced
}

// Snapshot returns the tree and sync point as one consistent pair.
func (h *Holder) Snapshot() (*domain.Root, time.Time) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	return h.tree, h.lastSynced
}

// Update applies transform to the current tree under the write lock and
// installs the result. The transform must not mutate its input; on error
// the holder is left untouched.
func (h *Holder) Update(transform func(*domain.Root) (*domain.Root, error)) (*domain.Root, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	next, err := transform(h.tree)
	if err != nil {
		return nil, err
	}
	h.tree = next
	return next, nil
}

// Replace swaps in a new tree without touching the sync point.
func (h *Holder) Replace(tree *domain.Root) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.tree = tree
}

// ReplaceSynced swaps in a new tree and records at as the sync point.
// The sync flow calls this after a successful pull or push.
func (h *Holder) ReplaceSynced(tree *domain.Root, at time.Time) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.tree = tree
	h.lastSynced = at
}
