package domain

import "time"

// Operations are pure: each one returns a new Root built by path-copy
// (only the ancestors of the touched node are copied, everything else is
// shared) and leaves its input untouched. Removals tombstone, renames
// and moves tombstone the old key and plant the content under the new
// one, so the next merge can tell a deliberate local change from state
// the remote simply never had.
//
// A level holds at most one node per content key, active or tombstoned.
// Adding over a tombstone replaces it.

// AddCategory appends an empty category.
func AddCategory(root *Root, name string, now time.Time) (*Root, error) {
	name = Flatten(name)
	if name == "" {
		return nil, ErrEmptyName
	}
	i := indexOfCategory(root.Categories, name)
	if i >= 0 && !root.Categories[i].Meta.Deleted {
		return nil, ErrCategoryExists
	}

	out := cloneRoot(root)
	fresh := NewCategory(name, now)
	if i >= 0 {
		out.Categories[i] = fresh
	} else {
		out.Categories = append(out.Categories, fresh)
	}
	out.LastModified = now
	return out, nil
}

// RemoveCategory tombstones a category. The subtree is dropped from the
// tombstone; only the key and deletion time matter from here on.
func RemoveCategory(root *Root, name string, now time.Time) (*Root, error) {
	i := indexOfActiveCategory(root.Categories, name)
	if i < 0 {
		return nil, ErrCategoryNotFound
	}

	out := cloneRoot(root)
	out.Categories[i] = tombstoneCategory(out.Categories[i], now)
	out.LastModified = now
	return out, nil
}

// RenameCategory moves the subtree under a new name and tombstones the
// old one. Descendants are marked never-synced because their paths
// changed.
func RenameCategory(root *Root, oldName, newName string, now time.Time) (*Root, error) {
	newName = Flatten(newName)
	if newName == "" {
		return nil, ErrEmptyName
	}
	oi := indexOfActiveCategory(root.Categories, oldName)
	if oi < 0 {
		return nil, ErrCategoryNotFound
	}
	if oldName == newName {
		return root, nil
	}
	ni := indexOfCategory(root.Categories, newName)
	if ni >= 0 && !root.Categories[ni].Meta.Deleted {
		return nil, ErrCategoryExists
	}

	old := root.Categories[oi]
	renamed := &Category{
		Name:    newName,
		Bundles: resetSyncedBundles(old.Bundles),
		Meta:    Meta{LastModified: now, LastSynced: Epoch},
	}

	out := cloneRoot(root)
	kept := make([]*Category, 0, len(out.Categories)+1)
	for idx, c := range out.Categories {
		switch {
		case idx == oi:
			kept = append(kept, renamed)
		case ni >= 0 && idx == ni:
			// stale tombstone for the new name gives way to the rename
		default:
			kept = append(kept, c)
		}
	}
	kept = append(kept, &Category{
		Name: oldName,
		Meta: Meta{LastModified: now, LastSynced: old.Meta.LastSynced, Deleted: true},
	})
	out.Categories = kept
	out.LastModified = now
	return out, nil
}

// AddBundle appends an empty bundle to a category.
func AddBundle(root *Root, category, name string, now time.Time) (*Root, error) {
	name = Flatten(name)
	if name == "" {
		return nil, ErrEmptyName
	}
	ci := indexOfActiveCategory(root.Categories, category)
	if ci < 0 {
		return nil, ErrCategoryNotFound
	}
	cat := root.Categories[ci]
	bi := indexOfBundle(cat.Bundles, name)
	if bi >= 0 && !cat.Bundles[bi].Meta.Deleted {
		return nil, ErrBundleExists
	}

	out := cloneRoot(root)
	nc := cloneCategory(cat)
	fresh := NewBundle(name, now)
	if bi >= 0 {
		nc.Bundles[bi] = fresh
	} else {
		nc.Bundles = append(nc.Bundles, fresh)
	}
	nc.Meta.LastModified = now
	out.Categories[ci] = nc
	out.LastModified = now
	return out, nil
}

// RemoveBundle tombstones a bundle.
func RemoveBundle(root *Root, category, name string, now time.Time) (*Root, error) {
	ci := indexOfActiveCategory(root.Categories, category)
	if ci < 0 {
		return nil, ErrCategoryNotFound
	}
	bi := indexOfActiveBundle(root.Categories[ci].Bundles, name)
	if bi < 0 {
		return nil, ErrBundleNotFound
	}

	out := cloneRoot(root)
	nc := cloneCategory(out.Categories[ci])
	nc.Bundles[bi] = tombstoneBundle(nc.Bundles[bi], now)
	nc.Meta.LastModified = now
	out.Categories[ci] = nc
	out.LastModified = now
	return out, nil
}

// RenameBundle renames a bundle within its category, tombstoning the old
// name.
func RenameBundle(root *Root, category, oldName, newName string, now time.Time) (*Root, error) {
	newName = Flatten(newName)
	if newName == "" {
		return nil, ErrEmptyName
	}
	ci := indexOfActiveCategory(root.Categories, category)
	if ci < 0 {
		return nil, ErrCategoryNotFound
	}
	cat := root.Categories[ci]
	oi := indexOfActiveBundle(cat.Bundles, oldName)
	if oi < 0 {
		return nil, ErrBundleNotFound
	}
	if oldName == newName {
		return root, nil
	}
	ni := indexOfBundle(cat.Bundles, newName)
	if ni >= 0 && !cat.Bundles[ni].Meta.Deleted {
		return nil, ErrBundleExists
	}

	old := cat.Bundles[oi]
	renamed := &Bundle{
		Name:      newName,
		Bookmarks: resetSyncedBookmarks(old.Bookmarks),
		Meta:      Meta{LastModified: now, LastSynced: Epoch},
	}

	out := cloneRoot(root)
	nc := cloneCategory(cat)
	kept := make([]*Bundle, 0, len(nc.Bundles)+1)
	for idx, b := range nc.Bundles {
		switch {
		case idx == oi:
			kept = append(kept, renamed)
		case ni >= 0 && idx == ni:
		default:
			kept = append(kept, b)
		}
	}
	kept = append(kept, &Bundle{
		Name: oldName,
		Meta: Meta{LastModified: now, LastSynced: old.Meta.LastSynced, Deleted: true},
	})
	nc.Bundles = kept
	nc.Meta.LastModified = now
	out.Categories[ci] = nc
	out.LastModified = now
	return out, nil
}

// MoveBundle relocates a bundle to another category, tombstoning it in
// the source. The moved subtree is marked never-synced under its new
// path.
func MoveBundle(root *Root, name, fromCategory, toCategory string, now time.Time) (*Root, error) {
	if fromCategory == toCategory {
		return root, nil
	}
	fi := indexOfActiveCategory(root.Categories, fromCategory)
	if fi < 0 {
		return nil, ErrCategoryNotFound
	}
	ti := indexOfActiveCategory(root.Categories, toCategory)
	if ti < 0 {
		return nil, ErrCategoryNotFound
	}
	bi := indexOfActiveBundle(root.Categories[fi].Bundles, name)
	if bi < 0 {
		return nil, ErrBundleNotFound
	}
	dest := root.Categories[ti]
	di := indexOfBundle(dest.Bundles, name)
	if di >= 0 && !dest.Bundles[di].Meta.Deleted {
		return nil, ErrBundleExists
	}

	src := root.Categories[fi].Bundles[bi]
	moved := &Bundle{
		Name:      name,
		Bookmarks: resetSyncedBookmarks(src.Bookmarks),
		Meta:      Meta{LastModified: now, LastSynced: Epoch},
	}

	out := cloneRoot(root)
	from := cloneCategory(out.Categories[fi])
	from.Bundles[bi] = tombstoneBundle(src, now)
	from.Meta.LastModified = now
	out.Categories[fi] = from

	to := cloneCategory(out.Categories[ti])
	if di >= 0 {
		to.Bundles[di] = moved
	} else {
		to.Bundles = append(to.Bundles, moved)
	}
	to.Meta.LastModified = now
	out.Categories[ti] = to

	out.LastModified = now
	return out, nil
}

// ─────────────────────────────────────────────────────────────────
// Lookup and tombstone helpers
// ─────────────────────────────────────────────────────────────────

func indexOfCategory(cats []*Category, name string) int {
	for i, c := range cats {
		if c.Name == name {
			return i
		}
	}
	return -1
}

func indexOfActiveCategory(cats []*Category, name string) int {
	i := indexOfCategory(cats, name)
	if i < 0 || cats[i].Meta.Deleted {
		return -1
	}
	return i
}

func indexOfBundle(bundles []*Bundle, name string) int {
	for i, b := range bundles {
		if b.Name == name {
			return i
		}
	}
	return -1
}

func indexOfActiveBundle(bundles []*Bundle, name string) int {
	i := indexOfBundle(bundles, name)
	if i < 0 || bundles[i].Meta.Deleted {
		return -1
	}
	return i
}

func indexOfBookmarkKey(bookmarks []*Bookmark, key BookmarkKey) int {
	for i, b := range bookmarks {
		if b.Key() == key {
			return i
		}
	}
	return -1
}

func indexOfActiveBookmarkID(bookmarks []*Bookmark, id string) int {
	for i, b := range bookmarks {
		if b.ID == id && !b.Meta.Deleted {
			return i
		}
	}
	return -1
}

func tombstoneCategory(c *Category, now time.Time) *Category {
	return &Category{
		Name: c.Name,
		Meta: Meta{LastModified: now, LastSynced: c.Meta.LastSynced, Deleted: true},
	}
}

func tombstoneBundle(b *Bundle, now time.Time) *Bundle {
	return &Bundle{
		Name: b.Name,
		Meta: Meta{LastModified: now, LastSynced: b.Meta.LastSynced, Deleted: true},
	}
}

func tombstoneBookmark(b *Bookmark, now time.Time) *Bookmark {
	out := cloneBookmark(b)
	out.Meta.Deleted = true
	out.Meta.LastModified = now
	return out
}

// resetSyncedBundles deep-copies bundles with LastSynced reset to Epoch,
// for subtrees whose path just changed.
func resetSyncedBundles(bundles []*Bundle) []*Bundle {
	if len(bundles) == 0 {
		return nil
	}
	out := make([]*Bundle, len(bundles))
	for i, b := range bundles {
		nb := cloneBundle(b)
		nb.Meta.LastSynced = Epoch
		nb.Bookmarks = resetSyncedBookmarks(b.Bookmarks)
		out[i] = nb
	}
	return out
}

func resetSyncedBookmarks(bookmarks []*Bookmark) []*Bookmark {
	if len(bookmarks) == 0 {
		return nil
	}
	out := make([]*Bookmark, len(bookmarks))
	for i, b := range bookmarks {
		nb := cloneBookmark(b)
		nb.Meta.LastSynced = Epoch
		out[i] = nb
	}
	return out
}
