// Package markdown renders a bookmark tree to the plain markdown document
// stored in the gist, and parses such a document back into a tree.
//
// The format is two heading levels plus bullets:
//
//	# Category
//
//	## Bundle
//
//	- [Title](https://example.com)
//	    tags: go, web
//	    notes: free-form single line
//
// Tombstones are never rendered. Encode and Decode round-trip byte for
// byte on documents this package wrote itself.
package markdown

import (
	"strings"

	"github.com/markstash/markstash/internal/domain"
)

// Encode renders the active part of the tree as a canonical document.
// An empty tree encodes to the empty string.
func Encode(root *domain.Root) string {
	var b strings.Builder
	for _, cat := range root.Categories {
		if cat.Meta.Deleted {
			continue
		}
		if b.Len() > 0 {
			b.WriteString("\n")
		}
		b.WriteString("# " + cat.Name + "\n")
		for _, bun := range cat.Bundles {
			if bun.Meta.Deleted {
				continue
			}
			b.WriteString("\n## " + bun.Name + "\n")
			first := true
			for _, bm := range bun.Bookmarks {
				if bm.Meta.Deleted {
					continue
				}
				if first {
					b.WriteString("\n")
					first = false
				}
				b.WriteString("- [" + bm.Title + "](" + bm.URL + ")\n")
				if len(bm.Tags) > 0 {
					b.WriteString("    tags: " + strings.Join(bm.Tags, ", ") + "\n")
				}
				if bm.Notes != "" {
					b.WriteString("    notes: " + bm.Notes + "\n")
				}
			}
		}
	}
	return b.String()
}
