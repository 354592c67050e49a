package domain

import "time"

// BookmarkPatch carries partial updates. Nil fields are left unchanged.
type BookmarkPatch struct {
	Title *string
	URL   *string
	Notes *string
	Tags  *[]string
}

// AddBookmark appends a bookmark to a bundle and returns the new tree
// along with the created entry.
func AddBookmark(root *Root, category, bundle string, p BookmarkParams, now time.Time) (*Root, *Bookmark, error) {
	bm := NewBookmark(p, now)
	if bm.Title == "" {
		return nil, nil, ErrEmptyTitle
	}
	if bm.URL == "" {
		return nil, nil, ErrEmptyURL
	}
	ci := indexOfActiveCategory(root.Categories, category)
	if ci < 0 {
		return nil, nil, ErrCategoryNotFound
	}
	bi := indexOfActiveBundle(root.Categories[ci].Bundles, bundle)
	if bi < 0 {
		return nil, nil, ErrBundleNotFound
	}
	bun := root.Categories[ci].Bundles[bi]
	ki := indexOfBookmarkKey(bun.Bookmarks, bm.Key())
	if ki >= 0 && !bun.Bookmarks[ki].Meta.Deleted {
		return nil, nil, ErrBookmarkExists
	}

	out := cloneRoot(root)
	nc := cloneCategory(out.Categories[ci])
	nb := cloneBundle(nc.Bundles[bi])
	if ki >= 0 {
		nb.Bookmarks[ki] = bm
	} else {
		nb.Bookmarks = append(nb.Bookmarks, bm)
	}
	nb.Meta.LastModified = now
	nc.Bundles[bi] = nb
	nc.Meta.LastModified = now
	out.Categories[ci] = nc
	out.LastModified = now
	return out, bm, nil
}

// AddBookmarks batch-adds bookmarks to a bundle. Entries whose content
// key already exists are skipped, so re-importing the same list is
// idempotent. Validation is atomic: one bad entry fails the whole batch.
// Returns the number of bookmarks actually added.
func AddBookmarks(root *Root, category, bundle string, params []BookmarkParams, now time.Time) (*Root, int, error) {
	ci := indexOfActiveCategory(root.Categories, category)
	if ci < 0 {
		return nil, 0, ErrCategoryNotFound
	}
	bi := indexOfActiveBundle(root.Categories[ci].Bundles, bundle)
	if bi < 0 {
		return nil, 0, ErrBundleNotFound
	}

	fresh := make([]*Bookmark, 0, len(params))
	for _, p := range params {
		bm := NewBookmark(p, now)
		if bm.Title == "" {
			return nil, 0, ErrEmptyTitle
		}
		if bm.URL == "" {
			return nil, 0, ErrEmptyURL
		}
		fresh = append(fresh, bm)
	}

	out := cloneRoot(root)
	nc := cloneCategory(out.Categories[ci])
	nb := cloneBundle(nc.Bundles[bi])

	added := 0
	for _, bm := range fresh {
		ki := indexOfBookmarkKey(nb.Bookmarks, bm.Key())
		if ki >= 0 && !nb.Bookmarks[ki].Meta.Deleted {
			continue
		}
		if ki >= 0 {
			nb.Bookmarks[ki] = bm
		} else {
			nb.Bookmarks = append(nb.Bookmarks, bm)
		}
		added++
	}
	if added == 0 {
		return root, 0, nil
	}

	nb.Meta.LastModified = now
	nc.Bundles[bi] = nb
	nc.Meta.LastModified = now
	out.Categories[ci] = nc
	out.LastModified = now
	return out, added, nil
}

// UpdateBookmark patches a bookmark found by its UI id. A patch that
// leaves the content unchanged returns the tree as-is without advancing
// any timestamp. A patch that changes URL or title changes the content
// key, so the old key is tombstoned and the entry restarts as
// never-synced.
func UpdateBookmark(root *Root, category, bundle, id string, patch BookmarkPatch, now time.Time) (*Root, *Bookmark, error) {
	ci := indexOfActiveCategory(root.Categories, category)
	if ci < 0 {
		return nil, nil, ErrCategoryNotFound
	}
	bi := indexOfActiveBundle(root.Categories[ci].Bundles, bundle)
	if bi < 0 {
		return nil, nil, ErrBundleNotFound
	}
	bun := root.Categories[ci].Bundles[bi]
	mi := indexOfActiveBookmarkID(bun.Bookmarks, id)
	if mi < 0 {
		return nil, nil, ErrBookmarkNotFound
	}
	old := bun.Bookmarks[mi]

	next := cloneBookmark(old)
	if patch.Title != nil {
		next.Title = Flatten(*patch.Title)
	}
	if patch.URL != nil {
		next.URL = Flatten(*patch.URL)
	}
	if patch.Notes != nil {
		next.Notes = Flatten(*patch.Notes)
	}
	if patch.Tags != nil {
		next.Tags = NormalizeTags(*patch.Tags)
	}
	if next.Title == "" {
		return nil, nil, ErrEmptyTitle
	}
	if next.URL == "" {
		return nil, nil, ErrEmptyURL
	}
	if next.EqualContent(old) {
		return root, old, nil
	}

	keyChanged := next.Key() != old.Key()
	di := -1
	if keyChanged {
		di = indexOfBookmarkKey(bun.Bookmarks, next.Key())
		if di >= 0 && !bun.Bookmarks[di].Meta.Deleted {
			return nil, nil, ErrBookmarkExists
		}
		next.Meta = Meta{LastModified: now, LastSynced: Epoch}
	} else {
		next.Meta = Meta{LastModified: now, LastSynced: old.Meta.LastSynced}
	}

	out := cloneRoot(root)
	nc := cloneCategory(out.Categories[ci])
	nb := cloneBundle(nc.Bundles[bi])

	if keyChanged {
		kept := make([]*Bookmark, 0, len(nb.Bookmarks)+1)
		for idx, b := range nb.Bookmarks {
			switch {
			case idx == mi:
				kept = append(kept, next)
			case di >= 0 && idx == di:
				// tombstone for the new key gives way to the update
			default:
				kept = append(kept, b)
			}
		}
		kept = append(kept, tombstoneBookmark(old, now))
		nb.Bookmarks = kept
	} else {
		nb.Bookmarks[mi] = next
	}

	nb.Meta.LastModified = now
	nc.Bundles[bi] = nb
	nc.Meta.LastModified = now
	out.Categories[ci] = nc
	out.LastModified = now
	return out, next, nil
}

// RemoveBookmark tombstones a bookmark found by its UI id.
func RemoveBookmark(root *Root, category, bundle, id string, now time.Time) (*Root, error) {
	ci := indexOfActiveCategory(root.Categories, category)
	if ci < 0 {
		return nil, ErrCategoryNotFound
	}
	bi := indexOfActiveBundle(root.Categories[ci].Bundles, bundle)
	if bi < 0 {
		return nil, ErrBundleNotFound
	}
	mi := indexOfActiveBookmarkID(root.Categories[ci].Bundles[bi].Bookmarks, id)
	if mi < 0 {
		return nil, ErrBookmarkNotFound
	}

	out := cloneRoot(root)
	nc := cloneCategory(out.Categories[ci])
	nb := cloneBundle(nc.Bundles[bi])
	nb.Bookmarks[mi] = tombstoneBookmark(nb.Bookmarks[mi], now)
	nb.Meta.LastModified = now
	nc.Bundles[bi] = nb
	nc.Meta.LastModified = now
	out.Categories[ci] = nc
	out.LastModified = now
	return out, nil
}

// MoveBookmark relocates a bookmark to another bundle, tombstoning it at
// the source. The moved entry keeps its id but restarts as never-synced
// under the new path.
func MoveBookmark(root *Root, id, fromCategory, fromBundle, toCategory, toBundle string, now time.Time) (*Root, error) {
	if fromCategory == toCategory && fromBundle == toBundle {
		return root, nil
	}
	fci := indexOfActiveCategory(root.Categories, fromCategory)
	if fci < 0 {
		return nil, ErrCategoryNotFound
	}
	fbi := indexOfActiveBundle(root.Categories[fci].Bundles, fromBundle)
	if fbi < 0 {
		return nil, ErrBundleNotFound
	}
	tci := indexOfActiveCategory(root.Categories, toCategory)
	if tci < 0 {
		return nil, ErrCategoryNotFound
	}
	tbi := indexOfActiveBundle(root.Categories[tci].Bundles, toBundle)
	if tbi < 0 {
		return nil, ErrBundleNotFound
	}
	mi := indexOfActiveBookmarkID(root.Categories[fci].Bundles[fbi].Bookmarks, id)
	if mi < 0 {
		return nil, ErrBookmarkNotFound
	}

	src := root.Categories[fci].Bundles[fbi].Bookmarks[mi]
	destBun := root.Categories[tci].Bundles[tbi]
	di := indexOfBookmarkKey(destBun.Bookmarks, src.Key())
	if di >= 0 && !destBun.Bookmarks[di].Meta.Deleted {
		return nil, ErrBookmarkExists
	}

	moved := cloneBookmark(src)
	moved.Meta = Meta{LastModified: now, LastSynced: Epoch}

	out := cloneRoot(root)

	from := cloneCategory(out.Categories[fci])
	fromBun := cloneBundle(from.Bundles[fbi])
	fromBun.Bookmarks[mi] = tombstoneBookmark(src, now)
	fromBun.Meta.LastModified = now
	from.Bundles[fbi] = fromBun
	from.Meta.LastModified = now
	out.Categories[fci] = from

	to := from
	if tci != fci {
		to = cloneCategory(out.Categories[tci])
	}
	toBun := cloneBundle(to.Bundles[tbi])
	if di >= 0 {
		toBun.Bookmarks[di] = moved
	} else {
		toBun.Bookmarks = append(toBun.Bookmarks, moved)
	}
	toBun.Meta.LastModified = now
	to.Bundles[tbi] = toBun
	to.Meta.LastModified = now
	out.Categories[tci] = to

	out.LastModified = now
	return out, nil
}
