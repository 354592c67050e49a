package domain

// Content keys identify nodes across two trees being merged. They are
// explicit value types so key equality is type-checked instead of built
// from ad hoc string concatenation.

// CategoryKey identifies a category among its siblings.
type CategoryKey struct {
	Name string
}

// BundleKey identifies a bundle within its category.
type BundleKey struct {
	Name string
}

// BookmarkKey identifies a bookmark within its bundle. The opaque ID is
// deliberately absent: two bookmarks with the same URL and title are the
// same node no matter which client created them.
type BookmarkKey struct {
	URL   string
	Title string
}

// Key returns the category's content key.
func (c *Category) Key() CategoryKey {
	return CategoryKey{Name: c.Name}
}

// Key returns the bundle's content key.
func (b *Bundle) Key() BundleKey {
	return BundleKey{Name: b.Name}
}

// Key returns the bookmark's content key.
func (b *Bookmark) Key() BookmarkKey {
	return BookmarkKey{URL: b.URL, Title: b.Title}
}
