package domain

// Content equality compares what a reader of the persisted document
// would see: active nodes only, in order, ignoring metadata and the
// opaque bookmark ID. Two trees that encode to the same text are
// content-equal.

// EqualContent reports whether two trees carry the same active content.
func (r *Root) EqualContent(other *Root) bool {
	if r == nil || other == nil {
		return r == other
	}
	a := activeCategories(r.Categories)
	b := activeCategories(other.Categories)
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if !a[i].EqualContent(b[i]) {
			return false
		}
	}
	return true
}

// EqualContent reports whether two categories carry the same name and
// the same active bundles.
func (c *Category) EqualContent(other *Category) bool {
	if c == nil || other == nil {
		return c == other
	}
	if c.Name != other.Name {
		return false
	}
	a := activeBundles(c.Bundles)
	b := activeBundles(other.Bundles)
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if !a[i].EqualContent(b[i]) {
			return false
		}
	}
	return true
}

// EqualContent reports whether two bundles carry the same name and the
// same active bookmarks.
func (b *Bundle) EqualContent(other *Bundle) bool {
	if b == nil || other == nil {
		return b == other
	}
	if b.Name != other.Name {
		return false
	}
	x := activeBookmarks(b.Bookmarks)
	y := activeBookmarks(other.Bookmarks)
	if len(x) != len(y) {
		return false
	}
	for i := range x {
		if !x[i].EqualContent(y[i]) {
			return false
		}
	}
	return true
}

// EqualContent reports whether two bookmarks carry the same content,
// ignoring Meta and ID. Tags are compared as sets (both sides are
// normalized at construction).
func (b *Bookmark) EqualContent(other *Bookmark) bool {
	if b == nil || other == nil {
		return b == other
	}
	if b.URL != other.URL || b.Title != other.Title || b.Notes != other.Notes {
		return false
	}
	if len(b.Tags) != len(other.Tags) {
		return false
	}
	for i := range b.Tags {
		if b.Tags[i] != other.Tags[i] {
			return false
		}
	}
	return true
}

func activeCategories(cats []*Category) []*Category {
	out := make([]*Category, 0, len(cats))
	for _, c := range cats {
		if !c.Meta.Deleted {
			out = append(out, c)
		}
	}
	return out
}

func activeBundles(bundles []*Bundle) []*Bundle {
	out := make([]*Bundle, 0, len(bundles))
	for _, b := range bundles {
		if !b.Meta.Deleted {
			out = append(out, b)
		}
	}
	return out
}

func activeBookmarks(bookmarks []*Bookmark) []*Bookmark {
	out := make([]*Bookmark, 0, len(bookmarks))
	for _, b := range bookmarks {
		if !b.Meta.Deleted {
			out = append(out, b)
		}
	}
	return out
}
