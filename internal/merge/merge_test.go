package merge

import (
	"errors"
	"reflect"
	"testing"
	"time"

	"github.com/markstash/markstash/internal/domain"
	"github.com/markstash/markstash/internal/markdown"
)

var (
	tBase  = time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)
	tSync  = time.Date(2025, 6, 1, 11, 0, 0, 0, time.UTC)
	tLocal = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
)

// baseTree is Work -> Q1 -> [A] built at tBase.
func baseTree(t *testing.T) *domain.Root {
	t.Helper()
	root, err := domain.AddCategory(domain.NewRoot(), "Work", tBase)
	if err != nil {
		t.Fatalf("AddCategory() error = %v", err)
	}
	root, err = domain.AddBundle(root, "Work", "Q1", tBase)
	if err != nil {
		t.Fatalf("AddBundle() error = %v", err)
	}
	root, _, err = domain.AddBookmark(root, "Work", "Q1", domain.BookmarkParams{
		Title: "A",
		URL:   "https://a.com",
	}, tBase)
	if err != nil {
		t.Fatalf("AddBookmark() error = %v", err)
	}
	return root
}

// syncedTree returns baseTree as it looks on a replica that synced at
// tSync: every node stamped, content untouched.
func syncedTree(t *testing.T) *domain.Root {
	t.Helper()
	return domain.StampSynced(baseTree(t), tSync)
}

// asRemote runs a tree through the codec the way a fetch does: only
// active content survives and every node is restamped at the sync point.
func asRemote(t *testing.T, root *domain.Root) *domain.Root {
	t.Helper()
	return decodeRemote(t, markdown.Encode(root))
}

func decodeRemote(t *testing.T, text string) *domain.Root {
	t.Helper()
	root, err := markdown.DecodeAt(text, tSync)
	if err != nil {
		t.Fatalf("DecodeAt() error = %v", err)
	}
	return root
}

func mustMerge(t *testing.T, local, remote *domain.Root, opts Options) *Result {
	t.Helper()
	res, err := Merge(local, remote, tSync, opts)
	if err != nil {
		t.Fatalf("Merge() error = %v", err)
	}
	return res
}

// activeBookmark digs an active bookmark out by title, nil if absent.
func activeBookmark(root *domain.Root, cat, bun, title string) *domain.Bookmark {
	for _, c := range root.Categories {
		if c.Name != cat || c.Meta.Deleted {
			continue
		}
		for _, b := range c.Bundles {
			if b.Name != bun || b.Meta.Deleted {
				continue
			}
			for _, bm := range b.Bookmarks {
				if !bm.Meta.Deleted && bm.Title == title {
					return bm
				}
			}
		}
	}
	return nil
}

func TestMergeIdempotence(t *testing.T) {
	local := syncedTree(t)
	res := mustMerge(t, local, asRemote(t, local), Options{})

	if res.HasConflicts {
		t.Errorf("Merge(t, t) conflicts = %v", res.Conflicts)
	}
	if res.Changed {
		t.Error("Merge(t, t) should not report change")
	}
	if !res.Root.EqualContent(local) {
		t.Error("Merge(t, t) should be content-equal to the input")
	}
}

func TestMergeBothSidesAdd(t *testing.T) {
	// local added A after the last sync, remote independently added B
	local := baseTree(t)
	remote := decodeRemote(t, "# Work\n\n## Q1\n\n- [B](https://b.com)\n")

	res := mustMerge(t, local, remote, Options{})
	if res.HasConflicts {
		t.Fatalf("Merge() conflicts = %v", res.Conflicts)
	}
	if activeBookmark(res.Root, "Work", "Q1", "A") == nil {
		t.Error("Merge() lost the local addition")
	}
	if activeBookmark(res.Root, "Work", "Q1", "B") == nil {
		t.Error("Merge() lost the remote addition")
	}
	if !res.Changed {
		t.Error("Merge() picking up a remote addition should report change")
	}
}

func TestMergeDeletionWinsAfterSync(t *testing.T) {
	local := syncedTree(t)
	var bm *domain.Bookmark
	if bm = activeBookmark(local, "Work", "Q1", "A"); bm == nil {
		t.Fatal("fixture bookmark missing")
	}
	local, err := domain.RemoveBookmark(local, "Work", "Q1", bm.ID, tLocal)
	if err != nil {
		t.Fatalf("RemoveBookmark() error = %v", err)
	}

	// the remote side still carries A, last written before the deletion
	remote := decodeRemote(t, "# Work\n\n## Q1\n\n- [A](https://a.com)\n    notes: remote touch\n")

	res := mustMerge(t, local, remote, Options{})
	if res.HasConflicts {
		t.Fatalf("Merge() conflicts = %v", res.Conflicts)
	}
	if activeBookmark(res.Root, "Work", "Q1", "A") != nil {
		t.Error("Merge() resurrected a bookmark deleted after the last sync")
	}
}

func TestMergeStaleDeletionLosesToActive(t *testing.T) {
	// deletion happened before the sync point it is judged against
	local := baseTree(t)
	bm := activeBookmark(local, "Work", "Q1", "A")
	local, err := domain.RemoveBookmark(local, "Work", "Q1", bm.ID, tBase.Add(30*time.Minute))
	if err != nil {
		t.Fatalf("RemoveBookmark() error = %v", err)
	}
	local = domain.StampSynced(local, tSync)

	remote := decodeRemote(t, "# Work\n\n## Q1\n\n- [A](https://a.com)\n")

	res := mustMerge(t, local, remote, Options{})
	if activeBookmark(res.Root, "Work", "Q1", "A") == nil {
		t.Error("Merge() should resurrect over a stale deletion")
	}
}

func TestMergeTombstoneConvergence(t *testing.T) {
	local := syncedTree(t)
	bm := activeBookmark(local, "Work", "Q1", "A")
	local, err := domain.RemoveBookmark(local, "Work", "Q1", bm.ID, tLocal)
	if err != nil {
		t.Fatalf("RemoveBookmark() error = %v", err)
	}

	// remote replica tombstoned the same bookmark
	remote := syncedTree(t)
	rbm := activeBookmark(remote, "Work", "Q1", "A")
	remote, err = domain.RemoveBookmark(remote, "Work", "Q1", rbm.ID, tLocal.Add(time.Minute))
	if err != nil {
		t.Fatalf("RemoveBookmark() error = %v", err)
	}

	res := mustMerge(t, local, remote, Options{})
	for _, c := range res.Root.Categories {
		for _, b := range c.Bundles {
			for _, x := range b.Bookmarks {
				if x.Title == "A" {
					t.Error("Merge() should physically drop a bookmark tombstoned on both sides")
				}
			}
		}
	}
}

func TestMergeRemoteDeletionByOmission(t *testing.T) {
	local := baseTree(t)
	local, _, err := domain.AddBookmark(local, "Work", "Q1", domain.BookmarkParams{
		Title: "B", URL: "https://b.com",
	}, tBase)
	if err != nil {
		t.Fatalf("AddBookmark() error = %v", err)
	}
	local = domain.StampSynced(local, tSync)

	// the other replica deleted B and pushed: the document just omits it
	remote := decodeRemote(t, "# Work\n\n## Q1\n\n- [A](https://a.com)\n")

	res := mustMerge(t, local, remote, Options{})
	if res.HasConflicts {
		t.Fatalf("Merge() conflicts = %v", res.Conflicts)
	}
	if activeBookmark(res.Root, "Work", "Q1", "B") != nil {
		t.Error("Merge() should honor a deletion that arrives as omission")
	}
	for _, c := range res.Root.Categories {
		for _, b := range c.Bundles {
			for _, x := range b.Bookmarks {
				if x.Title == "B" {
					t.Error("Merge() should drop the node physically, not tombstone it")
				}
			}
		}
	}
	if activeBookmark(res.Root, "Work", "Q1", "A") == nil {
		t.Error("Merge() dropped too much")
	}
}

func TestMergeContentIdentityIgnoresID(t *testing.T) {
	// same (url, title) on both sides under different opaque ids
	local := baseTree(t)
	remote := asRemote(t, baseTree(t))

	lID := activeBookmark(local, "Work", "Q1", "A").ID
	rID := activeBookmark(remote, "Work", "Q1", "A").ID
	if lID == rID {
		t.Fatal("fixture should have distinct ids")
	}

	res := mustMerge(t, local, remote, Options{})
	if res.HasConflicts {
		t.Fatalf("Merge() conflicts = %v", res.Conflicts)
	}
	count := 0
	for _, c := range res.Root.Categories {
		for _, b := range c.Bundles {
			for _, x := range b.Bookmarks {
				if x.Title == "A" && !x.Meta.Deleted {
					count++
				}
			}
		}
	}
	if count != 1 {
		t.Errorf("Merge() kept %d copies of the bookmark, want 1", count)
	}
}

func TestMergeDivergentTitlesConflict(t *testing.T) {
	local := syncedTree(t)
	bm := activeBookmark(local, "Work", "Q1", "A")
	title := "Local Name"
	local, _, err := domain.UpdateBookmark(local, "Work", "Q1", bm.ID, domain.BookmarkPatch{Title: &title}, tLocal)
	if err != nil {
		t.Fatalf("UpdateBookmark() error = %v", err)
	}

	remote := decodeRemote(t, "# Work\n\n## Q1\n\n- [Remote Name](https://a.com)\n")

	res := mustMerge(t, local, remote, Options{})
	if !res.HasConflicts || len(res.Conflicts) != 1 {
		t.Fatalf("Merge() conflicts = %d, want exactly 1", len(res.Conflicts))
	}
	c := res.Conflicts[0]
	if c.Category != "Work" || c.Bundle != "Q1" {
		t.Errorf("Conflict location = %s/%s", c.Category, c.Bundle)
	}
	if c.Local.Title != "Local Name" || c.Remote.Title != "Remote Name" {
		t.Errorf("Conflict values = %q vs %q", c.Local.Title, c.Remote.Title)
	}

	// the placeholder keeps the local value and no duplicate appears
	if activeBookmark(res.Root, "Work", "Q1", "Local Name") == nil {
		t.Error("Merge() placeholder should keep the local value")
	}
	if activeBookmark(res.Root, "Work", "Q1", "Remote Name") != nil {
		t.Error("Merge() should not also keep the remote value")
	}
}

func TestMergeResolutionSettlesConflict(t *testing.T) {
	local := syncedTree(t)
	bm := activeBookmark(local, "Work", "Q1", "A")
	title := "Local Name"
	local, _, err := domain.UpdateBookmark(local, "Work", "Q1", bm.ID, domain.BookmarkPatch{Title: &title}, tLocal)
	if err != nil {
		t.Fatalf("UpdateBookmark() error = %v", err)
	}
	remote := decodeRemote(t, "# Work\n\n## Q1\n\n- [Remote Name](https://a.com)\n")

	first := mustMerge(t, local, remote, Options{})
	if len(first.Conflicts) != 1 {
		t.Fatalf("Merge() conflicts = %d, want 1", len(first.Conflicts))
	}
	c := first.Conflicts[0]

	res := mustMerge(t, local, remote, Options{
		Resolutions: []Resolution{{Category: c.Category, Bundle: c.Bundle, ID: c.ID, Choice: ChoiceRemote}},
	})
	if res.HasConflicts {
		t.Fatalf("Merge() with resolution still has conflicts: %v", res.Conflicts)
	}
	won := activeBookmark(res.Root, "Work", "Q1", "Remote Name")
	if won == nil {
		t.Fatal("Merge() resolution should pick the remote value")
	}
	if won.ID != c.ID {
		t.Error("Merge() should keep the local id across a remote-wins resolution")
	}
}

func TestMergeStrategies(t *testing.T) {
	build := func() (*domain.Root, *domain.Root) {
		local := syncedTree(t)
		bm := activeBookmark(local, "Work", "Q1", "A")
		title := "Local Name"
		local, _, err := domain.UpdateBookmark(local, "Work", "Q1", bm.ID, domain.BookmarkPatch{Title: &title}, tLocal)
		if err != nil {
			t.Fatalf("UpdateBookmark() error = %v", err)
		}
		return local, decodeRemote(t, "# Work\n\n## Q1\n\n- [Remote Name](https://a.com)\n")
	}

	local, remote := build()
	res := mustMerge(t, local, remote, Options{Strategy: StrategyLocal})
	if res.HasConflicts || activeBookmark(res.Root, "Work", "Q1", "Local Name") == nil {
		t.Error("StrategyLocal should settle toward local without conflicts")
	}

	local, remote = build()
	res = mustMerge(t, local, remote, Options{Strategy: StrategyRemote})
	if res.HasConflicts || activeBookmark(res.Root, "Work", "Q1", "Remote Name") == nil {
		t.Error("StrategyRemote should settle toward remote without conflicts")
	}
}

func TestMergeTimestampNewerWins(t *testing.T) {
	t.Run("local newer", func(t *testing.T) {
		local := syncedTree(t)
		bm := activeBookmark(local, "Work", "Q1", "A")
		notes := "edited locally"
		local, _, err := domain.UpdateBookmark(local, "Work", "Q1", bm.ID, domain.BookmarkPatch{Notes: &notes}, tLocal)
		if err != nil {
			t.Fatalf("UpdateBookmark() error = %v", err)
		}
		remote := decodeRemote(t, "# Work\n\n## Q1\n\n- [A](https://a.com)\n    notes: older remote\n")

		res := mustMerge(t, local, remote, Options{})
		if res.HasConflicts {
			t.Fatalf("Merge() conflicts = %v", res.Conflicts)
		}
		if got := activeBookmark(res.Root, "Work", "Q1", "A").Notes; got != "edited locally" {
			t.Errorf("Merge() notes = %q, want the newer local edit", got)
		}
	})

	t.Run("remote newer", func(t *testing.T) {
		local := syncedTree(t) // untouched since tSync, nodes modified at tBase
		lID := activeBookmark(local, "Work", "Q1", "A").ID
		remote := decodeRemote(t, "# Work\n\n## Q1\n\n- [A](https://a.com)\n    notes: remote edit\n")

		res := mustMerge(t, local, remote, Options{})
		if res.HasConflicts {
			t.Fatalf("Merge() conflicts = %v", res.Conflicts)
		}
		got := activeBookmark(res.Root, "Work", "Q1", "A")
		if got.Notes != "remote edit" {
			t.Errorf("Merge() notes = %q, want the remote edit", got.Notes)
		}
		if got.ID != lID {
			t.Error("Merge() should keep the local id when remote content wins")
		}
	})
}

func TestMergeExactTieConflicts(t *testing.T) {
	local := syncedTree(t)
	bm := activeBookmark(local, "Work", "Q1", "A")
	notes := "local edit"
	local, _, err := domain.UpdateBookmark(local, "Work", "Q1", bm.ID, domain.BookmarkPatch{Notes: &notes}, tSync)
	if err != nil {
		t.Fatalf("UpdateBookmark() error = %v", err)
	}
	remote := decodeRemote(t, "# Work\n\n## Q1\n\n- [A](https://a.com)\n    notes: remote edit\n")

	res := mustMerge(t, local, remote, Options{})
	if len(res.Conflicts) != 1 {
		t.Fatalf("Merge() conflicts = %d, want 1 on an exact timestamp tie", len(res.Conflicts))
	}
	if got := activeBookmark(res.Root, "Work", "Q1", "A").Notes; got != "local edit" {
		t.Errorf("Merge() placeholder notes = %q, want the local value", got)
	}
}

func TestMergeLocalRenamePropagates(t *testing.T) {
	local := syncedTree(t)
	bm := activeBookmark(local, "Work", "Q1", "A")
	title := "Alpha"
	local, _, err := domain.UpdateBookmark(local, "Work", "Q1", bm.ID, domain.BookmarkPatch{Title: &title}, tLocal)
	if err != nil {
		t.Fatalf("UpdateBookmark() error = %v", err)
	}

	// remote is unchanged and still carries the old title
	remote := decodeRemote(t, "# Work\n\n## Q1\n\n- [A](https://a.com)\n")

	res := mustMerge(t, local, remote, Options{})
	if res.HasConflicts {
		t.Fatalf("Merge() conflicts = %v", res.Conflicts)
	}
	if activeBookmark(res.Root, "Work", "Q1", "Alpha") == nil {
		t.Error("Merge() lost the rename")
	}
	if activeBookmark(res.Root, "Work", "Q1", "A") != nil {
		t.Error("Merge() kept the old title as a duplicate")
	}
}

func TestMergeRemoteRenamePropagates(t *testing.T) {
	local := syncedTree(t)
	remote := decodeRemote(t, "# Work\n\n## Q1\n\n- [Alpha](https://a.com)\n")

	res := mustMerge(t, local, remote, Options{})
	if res.HasConflicts {
		t.Fatalf("Merge() conflicts = %v", res.Conflicts)
	}
	if activeBookmark(res.Root, "Work", "Q1", "Alpha") == nil {
		t.Error("Merge() lost the remote rename")
	}
	if activeBookmark(res.Root, "Work", "Q1", "A") != nil {
		t.Error("Merge() kept the old title as a duplicate")
	}
}

func TestMergeCategoryDeletionWins(t *testing.T) {
	local := syncedTree(t)
	local, err := domain.RemoveCategory(local, "Work", tLocal)
	if err != nil {
		t.Fatalf("RemoveCategory() error = %v", err)
	}
	remote := asRemote(t, syncedTree(t))

	res := mustMerge(t, local, remote, Options{})
	if res.HasConflicts {
		t.Fatalf("Merge() conflicts = %v", res.Conflicts)
	}
	clean := domain.ActiveOnly(res.Root)
	if len(clean.Categories) != 0 {
		t.Error("Merge() should honor a category deletion made after the last sync")
	}
}

func TestMergeNeverSyncedTombstoneKept(t *testing.T) {
	// add and delete while offline: the tombstone was never synced and
	// must survive the merge untouched
	local := baseTree(t)
	bm := activeBookmark(local, "Work", "Q1", "A")
	local, err := domain.RemoveBookmark(local, "Work", "Q1", bm.ID, tBase.Add(time.Minute))
	if err != nil {
		t.Fatalf("RemoveBookmark() error = %v", err)
	}
	remote := decodeRemote(t, "# Work\n\n## Q1\n\n- [B](https://b.com)\n")

	res := mustMerge(t, local, remote, Options{})
	found := false
	for _, c := range res.Root.Categories {
		for _, b := range c.Bundles {
			for _, x := range b.Bookmarks {
				if x.Title == "A" && x.Meta.Deleted {
					found = true
				}
			}
		}
	}
	if !found {
		t.Error("Merge() should keep a never-synced tombstone")
	}
	if activeBookmark(res.Root, "Work", "Q1", "A") != nil {
		t.Error("Merge() should not resurrect a never-synced tombstone")
	}
}

func TestMergeFalseStalenessGuard(t *testing.T) {
	local := syncedTree(t)
	res := mustMerge(t, local, asRemote(t, local), Options{})

	got := res.Root.Categories[0].Meta.LastModified
	if !got.Equal(tBase) {
		t.Errorf("Merge() bumped an unchanged category to %v, want %v", got, tBase)
	}

	// a remote addition inside the bundle must bump the chain
	remote := decodeRemote(t, "# Work\n\n## Q1\n\n- [A](https://a.com)\n- [B](https://b.com)\n")
	res = mustMerge(t, local, remote, Options{})
	if got := res.Root.Categories[0].Meta.LastModified; !got.Equal(tSync) {
		t.Errorf("Merge() changed category lastModified = %v, want %v", got, tSync)
	}
}

func TestMergeDeterminism(t *testing.T) {
	local := syncedTree(t)
	bm := activeBookmark(local, "Work", "Q1", "A")
	title := "Local Name"
	local, _, err := domain.UpdateBookmark(local, "Work", "Q1", bm.ID, domain.BookmarkPatch{Title: &title}, tLocal)
	if err != nil {
		t.Fatalf("UpdateBookmark() error = %v", err)
	}
	remote := decodeRemote(t, "# Work\n\n## Q1\n\n- [Remote Name](https://a.com)\n- [B](https://b.com)\n")

	first := mustMerge(t, local, remote, Options{})
	second := mustMerge(t, local, remote, Options{})

	if !reflect.DeepEqual(first.Conflicts, second.Conflicts) {
		t.Error("Merge() conflicts differ across identical runs")
	}
	if markdown.Encode(first.Root) != markdown.Encode(second.Root) {
		t.Error("Merge() merged trees differ across identical runs")
	}
}

func TestMergeChangedFlagTracksLocalOnly(t *testing.T) {
	// local holds an unsynced addition the remote lacks: the merge
	// changes nothing locally even though a push is needed
	local := baseTree(t)
	remote := decodeRemote(t, "# Work\n\n## Q1\n")

	res := mustMerge(t, local, remote, Options{})
	if res.Changed {
		t.Error("Merge() Changed should track the local tree, not the remote")
	}
	if !res.Root.EqualContent(local) {
		t.Error("Merge() should keep the local content intact")
	}
}

func TestMergeUnknownStrategy(t *testing.T) {
	_, err := Merge(domain.NewRoot(), domain.NewRoot(), tSync, Options{Strategy: "newest-wins"})
	if !errors.Is(err, ErrUnknownStrategy) {
		t.Errorf("Merge() error = %v, want ErrUnknownStrategy", err)
	}
}
