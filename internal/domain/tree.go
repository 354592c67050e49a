package domain

import (
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
)

// CurrentVersion is the tree schema version stamped on every Root built
// by this package or the markdown codec.
const CurrentVersion = 1

// Epoch marks "never synchronized". A node whose LastSynced equals Epoch
// has never been part of a successful exchange with the remote document.
var Epoch = time.Unix(0, 0).UTC()

// Meta carries the per-node synchronization state the merge engine works on.
type Meta struct {
	// LastModified advances only when the node's content actually changes,
	// never on a plain touch.
	LastModified time.Time `json:"last_modified"`

	// LastSynced is the last time this node was part of a successful
	// sync under its current content key. Epoch means never.
	LastSynced time.Time `json:"last_synced"`

	// Deleted marks a tombstone. Tombstoned nodes are retained locally
	// and never written to the remote document.
	Deleted bool `json:"deleted,omitempty"`
}

// Synced reports whether the node has ever been synchronized.
func (m Meta) Synced() bool {
	return m.LastSynced.After(Epoch)
}

// Root is the top of the bookmark tree. Trees are immutable: every
// operation returns a new Root sharing untouched subtrees with its input.
type Root struct {
	Version      int         `json:"version"`
	Categories   []*Category `json:"categories"`
	LastModified time.Time   `json:"last_modified"`
}

// Category groups bundles. Identity among siblings is the name.
type Category struct {
	Name    string    `json:"name"`
	Bundles []*Bundle `json:"bundles"`
	Meta    Meta      `json:"meta"`
}

// Bundle groups bookmarks within a category. Identity is the name.
type Bundle struct {
	Name      string      `json:"name"`
	Bookmarks []*Bookmark `json:"bookmarks"`
	Meta      Meta        `json:"meta"`
}

// Bookmark is a single entry.
type Bookmark struct {
	// ─────────────────────────────
	// Identity
	// ─────────────────────────────

	// ID is an opaque UI handle. It never participates in merge
	// matching or content equality; (URL, Title) is the real identity.
	ID string `json:"id"`

	// Title is the display text of the link.
	Title string `json:"title"`

	// URL is the link target.
	URL string `json:"url"`

	// ─────────────────────────────
	// Optional content
	// ─────────────────────────────

	// Notes is a free-form single line.
	Notes string `json:"notes,omitempty"`

	// Tags is a normalized set: sorted, deduplicated, no empties.
	Tags []string `json:"tags,omitempty"`

	// ─────────────────────────────
	// Synchronization state
	// ─────────────────────────────

	Meta Meta `json:"meta"`
}

// BookmarkParams is the input for creating a bookmark.
type BookmarkParams struct {
	Title string
	URL   string
	Notes string
	Tags  []string
}

// NewRoot returns an empty tree.
func NewRoot() *Root {
	return &Root{Version: CurrentVersion}
}

// NewCategory builds an empty category with complete metadata.
func NewCategory(name string, now time.Time) *Category {
	return &Category{
		Name: name,
		Meta: Meta{LastModified: now, LastSynced: Epoch},
	}
}

// NewBundle builds an empty bundle with complete metadata.
func NewBundle(name string, now time.Time) *Bundle {
	return &Bundle{
		Name: name,
		Meta: Meta{LastModified: now, LastSynced: Epoch},
	}
}

// NewBookmark builds a bookmark with a fresh ID and complete metadata.
// Inputs are normalized: fields are flattened to single lines and tags
// are sorted and deduplicated.
func NewBookmark(p BookmarkParams, now time.Time) *Bookmark {
	return &Bookmark{
		ID:    uuid.NewString(),
		Title: Flatten(p.Title),
		URL:   Flatten(p.URL),
		Notes: Flatten(p.Notes),
		Tags:  NormalizeTags(p.Tags),
		Meta:  Meta{LastModified: now, LastSynced: Epoch},
	}
}

// NormalizeTags returns a sorted, deduplicated copy of tags with empty
// entries removed.
func NormalizeTags(tags []string) []string {
	if len(tags) == 0 {
		return nil
	}
	seen := make(map[string]bool, len(tags))
	out := make([]string, 0, len(tags))
	for _, tag := range tags {
		tag = Flatten(tag)
		if tag == "" || seen[tag] {
			continue
		}
		seen[tag] = true
		out = append(out, tag)
	}
	if len(out) == 0 {
		return nil
	}
	sort.Strings(out)
	return out
}

// Flatten trims a value and collapses whitespace runs, including line
// breaks, so it can live on a single line of the persisted document.
func Flatten(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// clone helpers: shallow copies for path-copy updates. Children slices
// are copied, children themselves are shared.

func cloneRoot(r *Root) *Root {
	out := *r
	out.Categories = append([]*Category(nil), r.Categories...)
	return &out
}

func cloneCategory(c *Category) *Category {
	out := *c
	out.Bundles = append([]*Bundle(nil), c.Bundles...)
	return &out
}

func cloneBundle(b *Bundle) *Bundle {
	out := *b
	out.Bookmarks = append([]*Bookmark(nil), b.Bookmarks...)
	return &out
}

func cloneBookmark(b *Bookmark) *Bookmark {
	out := *b
	out.Tags = append([]string(nil), b.Tags...)
	return &out
}
