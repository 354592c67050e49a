package domain

import (
	"testing"
	"time"
)

func demoTree(t *testing.T) *Root {
	t.Helper()
	root, _ := buildTree(t, t0)
	root, err := AddBundle(root, "Work", "Q2", t0)
	if err != nil {
		t.Fatalf("AddBundle() error = %v", err)
	}
	root, _, err = AddBookmark(root, "Work", "Q2", BookmarkParams{
		Title: "Go blog",
		URL:   "https://go.dev/blog",
	}, t0)
	if err != nil {
		t.Fatalf("AddBookmark() error = %v", err)
	}
	root, err = AddCategory(root, "Play", t0)
	if err != nil {
		t.Fatalf("AddCategory() error = %v", err)
	}
	root, err = AddBundle(root, "Play", "Games", t0)
	if err != nil {
		t.Fatalf("AddBundle() error = %v", err)
	}
	root, _, err = AddBookmark(root, "Play", "Games", BookmarkParams{
		Title: "Chess",
		URL:   "https://lichess.org",
	}, t0)
	if err != nil {
		t.Fatalf("AddBookmark() error = %v", err)
	}
	return root
}

func TestSearch(t *testing.T) {
	root := demoTree(t)

	tests := []struct {
		name   string
		query  string
		titles []string
	}{
		{name: "title match", query: "chess", titles: []string{"Chess"}},
		{name: "url match", query: "go.dev", titles: []string{"Go blog"}},
		{name: "case insensitive", query: "GO BLOG", titles: []string{"Go blog"}},
		{name: "url substring across entries", query: "https://", titles: []string{"A", "Go blog", "Chess"}},
		{name: "no match", query: "zzz", titles: nil},
		{name: "empty query", query: "  ", titles: nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			results := Search(root, tt.query)
			if len(results) != len(tt.titles) {
				t.Fatalf("Search(%q) returned %d results, want %d", tt.query, len(results), len(tt.titles))
			}
			for i, want := range tt.titles {
				if got := results[i].Bookmark.Title; got != want {
					t.Errorf("Search(%q)[%d] = %q, want %q", tt.query, i, got, want)
				}
			}
		})
	}
}

func TestSearchSkipsTombstones(t *testing.T) {
	root := demoTree(t)
	active := Search(root, "chess")
	if len(active) != 1 {
		t.Fatalf("Search() before delete = %d results, want 1", len(active))
	}

	root, err := RemoveBookmark(root, "Play", "Games", active[0].Bookmark.ID, t0.Add(time.Minute))
	if err != nil {
		t.Fatalf("RemoveBookmark() error = %v", err)
	}
	if got := Search(root, "chess"); len(got) != 0 {
		t.Errorf("Search() after delete = %d results, want 0", len(got))
	}
}

func TestStats(t *testing.T) {
	root := demoTree(t)
	root, err := RemoveBundle(root, "Work", "Q2", t0.Add(time.Minute))
	if err != nil {
		t.Fatalf("RemoveBundle() error = %v", err)
	}

	got := Stats(root)
	want := TreeStats{
		Categories:       2,
		Bundles:          2,
		Bookmarks:        2,
		DeletedBundles:   1,
		DeletedBookmarks: 0,
	}
	if got != want {
		t.Errorf("Stats() = %+v, want %+v", got, want)
	}
}

func TestActiveOnlyDropsTombstones(t *testing.T) {
	root := demoTree(t)
	root, err := RemoveCategory(root, "Play", t0.Add(time.Minute))
	if err != nil {
		t.Fatalf("RemoveCategory() error = %v", err)
	}

	clean := ActiveOnly(root)
	if len(clean.Categories) != 1 {
		t.Fatalf("ActiveOnly() categories = %d, want 1", len(clean.Categories))
	}
	if clean.Categories[0].Name != "Work" {
		t.Errorf("ActiveOnly() kept %q, want Work", clean.Categories[0].Name)
	}
	// the projection must not touch the source
	if len(root.Categories) != 2 {
		t.Error("ActiveOnly() mutated its input")
	}
}

func TestStampSynced(t *testing.T) {
	root := demoTree(t)
	root, err := RemoveBundle(root, "Work", "Q2", t0.Add(time.Minute))
	if err != nil {
		t.Fatalf("RemoveBundle() error = %v", err)
	}

	ts := t0.Add(time.Hour)
	stamped := StampSynced(root, ts)

	for _, cat := range stamped.Categories {
		if !cat.Meta.LastSynced.Equal(ts) {
			t.Errorf("StampSynced() category %q lastSynced = %v, want %v", cat.Name, cat.Meta.LastSynced, ts)
		}
		for _, bun := range cat.Bundles {
			if !bun.Meta.LastSynced.Equal(ts) {
				t.Errorf("StampSynced() bundle %q lastSynced = %v, want %v", bun.Name, bun.Meta.LastSynced, ts)
			}
			for _, bm := range bun.Bookmarks {
				if !bm.Meta.LastSynced.Equal(ts) {
					t.Errorf("StampSynced() bookmark %q lastSynced = %v, want %v", bm.Title, bm.Meta.LastSynced, ts)
				}
			}
		}
	}

	// tombstones get stamped too, lastModified stays put
	if !stamped.Categories[0].Bundles[1].Meta.Deleted {
		t.Fatal("StampSynced() lost a tombstone")
	}
	if stamped.Categories[0].Meta.LastModified.Equal(ts) {
		t.Error("StampSynced() must not touch lastModified")
	}
	if root.Categories[0].Meta.LastSynced.Equal(ts) {
		t.Error("StampSynced() mutated its input")
	}
}

func TestPurgeTombstones(t *testing.T) {
	root := demoTree(t)
	root, err := RemoveBundle(root, "Work", "Q2", t0.Add(time.Minute))
	if err != nil {
		t.Fatalf("RemoveBundle() error = %v", err)
	}
	root, err = RemoveCategory(root, "Play", t0.Add(2*time.Hour))
	if err != nil {
		t.Fatalf("RemoveCategory() error = %v", err)
	}

	// cutoff between the two deletions purges only the old one
	purged, n := PurgeTombstones(root, t0.Add(time.Hour))
	if n != 1 {
		t.Fatalf("PurgeTombstones() purged = %d, want 1", n)
	}
	if got := len(purged.Categories[0].Bundles); got != 1 {
		t.Errorf("PurgeTombstones() bundles = %d, want 1", got)
	}
	if got := len(purged.Categories); got != 2 {
		t.Errorf("PurgeTombstones() should keep the fresh category tombstone, got %d categories", got)
	}

	// nothing to purge returns the input unchanged
	same, n := PurgeTombstones(purged, t0.Add(time.Hour))
	if n != 0 || same != purged {
		t.Errorf("PurgeTombstones() no-op purged=%d, changed tree=%v", n, same != purged)
	}
}

func TestAbsorb(t *testing.T) {
	base := demoTree(t)

	other, err := AddCategory(NewRoot(), "Work", t0)
	if err != nil {
		t.Fatalf("AddCategory() error = %v", err)
	}
	other, err = AddBundle(other, "Work", "Q1", t0)
	if err != nil {
		t.Fatalf("AddBundle() error = %v", err)
	}
	other, _, err = AddBookmark(other, "Work", "Q1", BookmarkParams{Title: "A", URL: "https://a.com"}, t0)
	if err != nil {
		t.Fatalf("AddBookmark() error = %v", err)
	}
	other, _, err = AddBookmark(other, "Work", "Q1", BookmarkParams{Title: "New", URL: "https://new.com"}, t0)
	if err != nil {
		t.Fatalf("AddBookmark() error = %v", err)
	}
	other, err = AddCategory(other, "Extra", t0)
	if err != nil {
		t.Fatalf("AddCategory() error = %v", err)
	}
	other, err = AddBundle(other, "Extra", "Stuff", t0)
	if err != nil {
		t.Fatalf("AddBundle() error = %v", err)
	}
	other, _, err = AddBookmark(other, "Extra", "Stuff", BookmarkParams{Title: "S", URL: "https://s.com"}, t0)
	if err != nil {
		t.Fatalf("AddBookmark() error = %v", err)
	}

	merged, stats, err := Absorb(base, other, t0.Add(time.Hour))
	if err != nil {
		t.Fatalf("Absorb() error = %v", err)
	}
	if want := (AbsorbStats{Categories: 1, Bundles: 1, Bookmarks: 2}); stats != want {
		t.Errorf("Absorb() stats = %+v, want %+v", stats, want)
	}

	total := Stats(merged)
	if total.Categories != 3 || total.Bookmarks != 5 {
		t.Errorf("Absorb() totals = %+v, want 3 categories and 5 bookmarks", total)
	}

	// absorbing the same tree again changes nothing
	same, stats, err := Absorb(merged, other, t0.Add(2*time.Hour))
	if err != nil {
		t.Fatalf("Absorb() twice error = %v", err)
	}
	if stats != (AbsorbStats{}) || same != merged {
		t.Errorf("Absorb() twice stats = %+v, changed tree=%v", stats, same != merged)
	}
}
