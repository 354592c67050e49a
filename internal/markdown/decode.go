package markdown

import (
	"bufio"
	"fmt"
	"strings"
	"time"

	"github.com/markstash/markstash/internal/domain"
)

// ParseError reports the first malformed line in a document.
type ParseError struct {
	Line   int    // 1-based
	Text   string // offending line, trimmed
	Reason string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("markdown: line %d: %s (%q)", e.Line, e.Reason, e.Text)
}

// Decode parses a document into a fresh tree stamped with the current time.
func Decode(content string) (*domain.Root, error) {
	return DecodeAt(content, time.Now().UTC())
}

// DecodeAt parses a document into a fresh tree. Every node gets a new id,
// lastModified = now and a zero lastSynced. Whitespace is tolerated around
// every element, but structure is strict: a bundle needs a category above
// it, a bookmark needs a bundle, and keys must be unique within a level.
func DecodeAt(content string, now time.Time) (*domain.Root, error) {
	root := domain.NewRoot()
	root.LastModified = now

	var (
		cat      *domain.Category
		bun      *domain.Bundle
		bm       *domain.Bookmark
		catNames = map[string]bool{}
		bunNames map[string]bool
		bmKeys   map[domain.BookmarkKey]bool
	)

	lineNo := 0
	scanner := bufio.NewScanner(strings.NewReader(content))
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())

		switch {
		case line == "":
			continue

		case strings.HasPrefix(line, "## "):
			name := domain.Flatten(line[3:])
			if name == "" {
				return nil, &ParseError{Line: lineNo, Text: line, Reason: "empty bundle name"}
			}
			if cat == nil {
				return nil, &ParseError{Line: lineNo, Text: line, Reason: "bundle before any category"}
			}
			if bunNames[name] {
				return nil, &ParseError{Line: lineNo, Text: line, Reason: "duplicate bundle " + name}
			}
			bunNames[name] = true
			bun = domain.NewBundle(name, now)
			bm = nil
			bmKeys = map[domain.BookmarkKey]bool{}
			cat.Bundles = append(cat.Bundles, bun)

		case strings.HasPrefix(line, "# "):
			name := domain.Flatten(line[2:])
			if name == "" {
				return nil, &ParseError{Line: lineNo, Text: line, Reason: "empty category name"}
			}
			if catNames[name] {
				return nil, &ParseError{Line: lineNo, Text: line, Reason: "duplicate category " + name}
			}
			catNames[name] = true
			cat = domain.NewCategory(name, now)
			bun = nil
			bm = nil
			bunNames = map[string]bool{}
			root.Categories = append(root.Categories, cat)

		case strings.HasPrefix(line, "- "):
			if bun == nil {
				return nil, &ParseError{Line: lineNo, Text: line, Reason: "bookmark before any bundle"}
			}
			title, url, ok := splitBullet(line[2:])
			if !ok {
				return nil, &ParseError{Line: lineNo, Text: line, Reason: "malformed bookmark, want - [title](url)"}
			}
			key := domain.BookmarkKey{URL: url, Title: title}
			if bmKeys[key] {
				return nil, &ParseError{Line: lineNo, Text: line, Reason: "duplicate bookmark " + title}
			}
			bmKeys[key] = true
			bm = domain.NewBookmark(domain.BookmarkParams{Title: title, URL: url}, now)
			bun.Bookmarks = append(bun.Bookmarks, bm)

		case strings.HasPrefix(line, "tags:"):
			if bm == nil {
				return nil, &ParseError{Line: lineNo, Text: line, Reason: "tags before any bookmark"}
			}
			bm.Tags = domain.NormalizeTags(strings.Split(line[len("tags:"):], ","))

		case strings.HasPrefix(line, "notes:"):
			if bm == nil {
				return nil, &ParseError{Line: lineNo, Text: line, Reason: "notes before any bookmark"}
			}
			bm.Notes = domain.Flatten(line[len("notes:"):])

		default:
			return nil, &ParseError{Line: lineNo, Text: line, Reason: "unrecognized line"}
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return root, nil
}

// splitBullet tears "[title](url)" apart. The separator search runs from
// the right so titles may contain brackets.
func splitBullet(s string) (title, url string, ok bool) {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "[") || !strings.HasSuffix(s, ")") {
		return "", "", false
	}
	sep := strings.LastIndex(s, "](")
	if sep < 1 {
		return "", "", false
	}
	title = domain.Flatten(s[1:sep])
	url = strings.TrimSpace(s[sep+2 : len(s)-1])
	if title == "" || url == "" {
		return "", "", false
	}
	return title, url, true
}
