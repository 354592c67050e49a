package sync

import "errors"

var (
	// ErrConflictsPending means an earlier merge parked conflicts;
	// mutations are blocked until they are resolved.
	ErrConflictsPending = errors.New("sync conflicts pending resolution")

	// ErrConflictsRemain means a resolution pass still left conflicts
	// open, usually because the resolutions did not cover all of them.
	ErrConflictsRemain = errors.New("conflicts remain after resolution")

	// ErrNoConflicts means Resolve was called with nothing parked.
	ErrNoConflicts = errors.New("no conflicts to resolve")
)
