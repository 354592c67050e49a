// Package merge reconciles two bookmark trees against a shared last
// sync point. It is a three-way merge where the common ancestor is a
// timestamp rather than a full tree: a node modified after lastSynced
// diverged, a node modified at or before it is whatever both replicas
// last agreed on.
//
// Matching is by content key at every level: the name for categories
// and bundles, the (url, title) pair for bookmarks. Bookmark ids never
// participate. The function is pure: identical inputs produce identical
// output, including conflict order, so an interactive resolve-and-rerun
// flow converges.
package merge

import (
	"errors"
	"fmt"
	"time"

	"github.com/markstash/markstash/internal/domain"
)

// ErrUnknownStrategy is returned for a Strategy outside the known set.
var ErrUnknownStrategy = errors.New("unknown merge strategy")

// Merge reconciles local against remote. Disagreement is never an
// error: it comes back as Conflicts. The only error is a misconfigured
// strategy.
func Merge(local, remote *domain.Root, lastSynced time.Time, opts Options) (*Result, error) {
	strategy := opts.Strategy
	if strategy == "" {
		strategy = StrategyTimestamp
	}
	if !strategy.IsValid() {
		return nil, fmt.Errorf("%w: %q", ErrUnknownStrategy, opts.Strategy)
	}

	m := &merger{
		strategy:   strategy,
		lastSynced: lastSynced,
		res:        make(map[resolutionKey]Choice, len(opts.Resolutions)),
	}
	for _, r := range opts.Resolutions {
		m.res[resolutionKey{r.Category, r.Bundle, r.ID}] = r.Choice
	}

	merged := &domain.Root{
		Version:      local.Version,
		Categories:   m.mergeCategories(local.Categories, remote.Categories),
		LastModified: local.LastModified,
	}
	changed := !merged.EqualContent(local)
	if changed {
		merged.LastModified = laterTime(local.LastModified, remote.LastModified)
	}

	return &Result{
		Root:         merged,
		Conflicts:    m.conflicts,
		HasConflicts: len(m.conflicts) > 0,
		Changed:      changed,
	}, nil
}

type resolutionKey struct {
	category string
	bundle   string
	id       string
}

type merger struct {
	strategy   Strategy
	lastSynced time.Time
	res        map[resolutionKey]Choice
	conflicts  []Conflict

	curCategory string
	curBundle   string
}

// Output order is fixed for determinism: local entries in local order,
// then remote-only entries in remote order.

func (m *merger) mergeCategories(local, remote []*domain.Category) []*domain.Category {
	remoteIdx := make(map[domain.CategoryKey]int, len(remote))
	for i, r := range remote {
		remoteIdx[r.Key()] = i
	}
	used := make([]bool, len(remote))

	var out []*domain.Category
	for _, l := range local {
		ri, ok := remoteIdx[l.Key()]
		if !ok {
			if keepLocalOnly(l.Meta) {
				out = append(out, l)
			}
			continue
		}
		used[ri] = true
		if merged := m.mergeCategoryPair(l, remote[ri]); merged != nil {
			out = append(out, merged)
		}
	}
	for i, r := range remote {
		if used[i] || r.Meta.Deleted {
			continue
		}
		out = append(out, r)
	}
	return out
}

func (m *merger) mergeCategoryPair(l, r *domain.Category) *domain.Category {
	switch {
	case l.Meta.Deleted && r.Meta.Deleted:
		return nil
	case l.Meta.Deleted:
		if m.deletionWins(l.Meta, r.Meta) {
			return l
		}
		return r
	case r.Meta.Deleted:
		if m.deletionWins(r.Meta, l.Meta) {
			return r
		}
		return l
	}

	m.curCategory = l.Name
	merged := &domain.Category{
		Name:    l.Name,
		Bundles: m.mergeBundles(l.Bundles, r.Bundles),
		Meta:    l.Meta,
	}
	if !merged.EqualContent(l) {
		merged.Meta.LastModified = laterTime(l.Meta.LastModified, r.Meta.LastModified)
	}
	return merged
}

func (m *merger) mergeBundles(local, remote []*domain.Bundle) []*domain.Bundle {
	remoteIdx := make(map[domain.BundleKey]int, len(remote))
	for i, r := range remote {
		remoteIdx[r.Key()] = i
	}
	used := make([]bool, len(remote))

	var out []*domain.Bundle
	for _, l := range local {
		ri, ok := remoteIdx[l.Key()]
		if !ok {
			if keepLocalOnly(l.Meta) {
				out = append(out, l)
			}
			continue
		}
		used[ri] = true
		if merged := m.mergeBundlePair(l, remote[ri]); merged != nil {
			out = append(out, merged)
		}
	}
	for i, r := range remote {
		if used[i] || r.Meta.Deleted {
			continue
		}
		out = append(out, r)
	}
	return out
}

func (m *merger) mergeBundlePair(l, r *domain.Bundle) *domain.Bundle {
	switch {
	case l.Meta.Deleted && r.Meta.Deleted:
		return nil
	case l.Meta.Deleted:
		if m.deletionWins(l.Meta, r.Meta) {
			return l
		}
		return r
	case r.Meta.Deleted:
		if m.deletionWins(r.Meta, l.Meta) {
			return r
		}
		return l
	}

	m.curBundle = l.Name
	merged := &domain.Bundle{
		Name:      l.Name,
		Bookmarks: m.mergeBookmarks(l.Bookmarks, r.Bookmarks),
		Meta:      l.Meta,
	}
	if !merged.EqualContent(l) {
		merged.Meta.LastModified = laterTime(l.Meta.LastModified, r.Meta.LastModified)
	}
	return merged
}

func (m *merger) mergeBookmarks(local, remote []*domain.Bookmark) []*domain.Bookmark {
	remoteIdx := make(map[domain.BookmarkKey]int, len(remote))
	for i, r := range remote {
		remoteIdx[r.Key()] = i
	}
	used := make([]bool, len(remote))

	var out []*domain.Bookmark
	var fresh []int // positions in out holding never-synced local additions

	for _, l := range local {
		ri, ok := remoteIdx[l.Key()]
		if !ok {
			if !keepLocalOnly(l.Meta) {
				continue
			}
			if !l.Meta.Deleted {
				fresh = append(fresh, len(out))
			}
			out = append(out, l)
			continue
		}
		used[ri] = true
		if merged := m.mergeBookmarkPair(l, remote[ri]); merged != nil {
			out = append(out, merged)
		}
	}

	// Second pass: a remote bookmark whose exact key matched nothing may
	// still be the same link under a new name. Pairing leftover actives
	// by URL catches renames made on both sides, which would otherwise
	// come out as a silent duplicate instead of a conflict.
	paired := make(map[int]bool)
	for i, r := range remote {
		if used[i] || r.Meta.Deleted {
			continue
		}
		if pos, ok := pairByURL(out, fresh, paired, r.URL); ok {
			paired[pos] = true
			out[pos] = m.resolveDivergentTitles(out[pos], r)
			continue
		}
		out = append(out, r)
	}
	return out
}

func (m *merger) mergeBookmarkPair(l, r *domain.Bookmark) *domain.Bookmark {
	switch {
	case l.Meta.Deleted && r.Meta.Deleted:
		return nil
	case l.Meta.Deleted:
		if m.deletionWins(l.Meta, r.Meta) {
			return l
		}
		return withID(r, l.ID)
	case r.Meta.Deleted:
		if m.deletionWins(r.Meta, l.Meta) {
			return withID(r, l.ID)
		}
		return l
	}

	if l.EqualContent(r) {
		return l
	}
	if choice, ok := m.res[resolutionKey{m.curCategory, m.curBundle, l.ID}]; ok {
		if choice == ChoiceRemote {
			return withID(r, l.ID)
		}
		return l
	}

	switch m.strategy {
	case StrategyLocal:
		return l
	case StrategyRemote:
		return withID(r, l.ID)
	}

	switch {
	case l.Meta.LastModified.After(r.Meta.LastModified):
		return l
	case r.Meta.LastModified.After(l.Meta.LastModified):
		return withID(r, l.ID)
	}

	// exact tie with different content: a real disagreement
	m.conflict(l, r)
	return l
}

// resolveDivergentTitles settles a URL pair with differing titles. Both
// sides renamed the link since they last agreed, so under the default
// strategy this is always a conflict.
func (m *merger) resolveDivergentTitles(l, r *domain.Bookmark) *domain.Bookmark {
	if choice, ok := m.res[resolutionKey{m.curCategory, m.curBundle, l.ID}]; ok {
		if choice == ChoiceRemote {
			return withID(r, l.ID)
		}
		return l
	}
	switch m.strategy {
	case StrategyLocal:
		return l
	case StrategyRemote:
		return withID(r, l.ID)
	}
	m.conflict(l, r)
	return l
}

func (m *merger) conflict(l, r *domain.Bookmark) {
	m.conflicts = append(m.conflicts, Conflict{
		Category:       m.curCategory,
		Bundle:         m.curBundle,
		ID:             l.ID,
		Local:          l,
		Remote:         r,
		LocalModified:  l.Meta.LastModified,
		RemoteModified: r.Meta.LastModified,
	})
}

// deletionWins applies the deletion-then-content rule. A deletion made
// after the last sync point is a deliberate un-synced action and wins
// outright. A stale deletion only survives against an even older active
// side; on equal times the active side wins and the node resurrects.
func (m *merger) deletionWins(tomb, active domain.Meta) bool {
	if tomb.LastModified.After(m.lastSynced) {
		return true
	}
	return tomb.LastModified.After(active.LastModified)
}

// keepLocalOnly decides the fate of a node the remote has no key for.
// A never-synced node is a pending local change and stays, tombstones
// included. A synced active node is absent remotely because the other
// side deleted it, and a synced tombstone is one whose deletion already
// propagated; both go.
func keepLocalOnly(meta domain.Meta) bool {
	return !meta.Synced()
}

func pairByURL(out []*domain.Bookmark, fresh []int, paired map[int]bool, url string) (int, bool) {
	for _, pos := range fresh {
		if paired[pos] || out[pos].URL != url {
			continue
		}
		return pos, true
	}
	return 0, false
}

func withID(b *domain.Bookmark, id string) *domain.Bookmark {
	c := *b
	c.ID = id
	return &c
}

func laterTime(a, b time.Time) time.Time {
	if b.After(a) {
		return b
	}
	return a
}
