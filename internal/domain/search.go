package domain

import (
	"strings"
	"time"
)

// SearchResult locates a matching bookmark in the tree.
type SearchResult struct {
	Category string
	Bundle   string
	Bookmark *Bookmark
}

// Search returns active bookmarks whose title or URL contains the query,
// case-insensitively, in tree order. An empty query matches nothing.
func Search(root *Root, query string) []SearchResult {
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return nil
	}

	var results []SearchResult
	for _, cat := range root.Categories {
		if cat.Meta.Deleted {
			continue
		}
		for _, bun := range cat.Bundles {
			if bun.Meta.Deleted {
				continue
			}
			for _, bm := range bun.Bookmarks {
				if bm.Meta.Deleted {
					continue
				}
				if strings.Contains(strings.ToLower(bm.Title), q) ||
					strings.Contains(strings.ToLower(bm.URL), q) {
					results = append(results, SearchResult{
						Category: cat.Name,
						Bundle:   bun.Name,
						Bookmark: bm,
					})
				}
			}
		}
	}
	return results
}

// TreeStats counts nodes per level, split by liveness.
type TreeStats struct {
	Categories        int
	Bundles           int
	Bookmarks         int
	DeletedCategories int
	DeletedBundles    int
	DeletedBookmarks  int
}

// Stats walks the whole tree, tombstones included.
func Stats(root *Root) TreeStats {
	var s TreeStats
	for _, cat := range root.Categories {
		if cat.Meta.Deleted {
			s.DeletedCategories++
			continue
		}
		s.Categories++
		for _, bun := range cat.Bundles {
			if bun.Meta.Deleted {
				s.DeletedBundles++
				continue
			}
			s.Bundles++
			for _, bm := range bun.Bookmarks {
				if bm.Meta.Deleted {
					s.DeletedBookmarks++
				} else {
					s.Bookmarks++
				}
			}
		}
	}
	return s
}

// ActiveOnly returns a projection of the tree without tombstones, for
// rendering and export.
func ActiveOnly(root *Root) *Root {
	out := &Root{Version: root.Version, LastModified: root.LastModified}
	for _, cat := range root.Categories {
		if cat.Meta.Deleted {
			continue
		}
		nc := &Category{Name: cat.Name, Meta: cat.Meta}
		for _, bun := range cat.Bundles {
			if bun.Meta.Deleted {
				continue
			}
			nb := &Bundle{Name: bun.Name, Meta: bun.Meta}
			for _, bm := range bun.Bookmarks {
				if bm.Meta.Deleted {
					continue
				}
				nb.Bookmarks = append(nb.Bookmarks, bm)
			}
			nc.Bundles = append(nc.Bundles, nb)
		}
		out.Categories = append(out.Categories, nc)
	}
	return out
}

// StampSynced marks every node, tombstones included, as synchronized at
// t. Called after a successful exchange with the remote document;
// LastModified is left alone.
func StampSynced(root *Root, t time.Time) *Root {
	out := cloneRoot(root)
	for i, cat := range out.Categories {
		nc := cloneCategory(cat)
		nc.Meta.LastSynced = t
		for j, bun := range nc.Bundles {
			nb := cloneBundle(bun)
			nb.Meta.LastSynced = t
			for k, bm := range nb.Bookmarks {
				nm := cloneBookmark(bm)
				nm.Meta.LastSynced = t
				nb.Bookmarks[k] = nm
			}
			nc.Bundles[j] = nb
		}
		out.Categories[i] = nc
	}
	return out
}

// PurgeTombstones physically drops tombstones last modified before the
// cutoff and returns how many were removed. The input is returned
// unchanged when nothing qualifies.
func PurgeTombstones(root *Root, cutoff time.Time) (*Root, int) {
	purged := 0
	out := cloneRoot(root)
	cats := make([]*Category, 0, len(out.Categories))
	for _, cat := range out.Categories {
		if cat.Meta.Deleted {
			if cat.Meta.LastModified.Before(cutoff) {
				purged++
				continue
			}
			cats = append(cats, cat)
			continue
		}
		nc := cloneCategory(cat)
		bundles := make([]*Bundle, 0, len(nc.Bundles))
		for _, bun := range nc.Bundles {
			if bun.Meta.Deleted {
				if bun.Meta.LastModified.Before(cutoff) {
					purged++
					continue
				}
				bundles = append(bundles, bun)
				continue
			}
			nb := cloneBundle(bun)
			bookmarks := make([]*Bookmark, 0, len(nb.Bookmarks))
			for _, bm := range nb.Bookmarks {
				if bm.Meta.Deleted && bm.Meta.LastModified.Before(cutoff) {
					purged++
					continue
				}
				bookmarks = append(bookmarks, bm)
			}
			nb.Bookmarks = bookmarks
			bundles = append(bundles, nb)
		}
		nc.Bundles = bundles
		cats = append(cats, nc)
	}
	if purged == 0 {
		return root, 0
	}
	out.Categories = cats
	return out, purged
}

// AbsorbStats counts what an Absorb call created.
type AbsorbStats struct {
	Categories int
	Bundles    int
	Bookmarks  int
}

// Absorb unions the active content of other into root: missing
// categories and bundles are created, missing bookmarks are added, and
// existing entries are left alone. A tombstoned entry matching an
// imported one is revived. Used by the import flow; absorbed nodes are
// treated like fresh local additions.
func Absorb(root *Root, other *Root, now time.Time) (*Root, AbsorbStats) {
	var stats AbsorbStats
	out := root
	for _, cat := range other.Categories {
		if cat.Meta.Deleted {
			continue
		}
		if indexOfActiveCategory(out.Categories, cat.Name) < 0 {
			next, err := AddCategory(out, cat.Name, now)
			if err != nil {
				continue
			}
			out = next
			stats.Categories++
		}
		for _, bun := range cat.Bundles {
			if bun.Meta.Deleted {
				continue
			}
			if indexOfActiveBundle(out.Categories[indexOfActiveCategory(out.Categories, cat.Name)].Bundles, bun.Name) < 0 {
				next, err := AddBundle(out, cat.Name, bun.Name, now)
				if err != nil {
					continue
				}
				out = next
				stats.Bundles++
			}
			params := make([]BookmarkParams, 0, len(bun.Bookmarks))
			for _, bm := range bun.Bookmarks {
				if bm.Meta.Deleted {
					continue
				}
				params = append(params, BookmarkParams{
					Title: bm.Title,
					URL:   bm.URL,
					Notes: bm.Notes,
					Tags:  bm.Tags,
				})
			}
			next, added, err := AddBookmarks(out, cat.Name, bun.Name, params, now)
			if err != nil {
				continue
			}
			out = next
			stats.Bookmarks += added
		}
	}
	return out, stats
}
