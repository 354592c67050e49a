package merge

import (
	"time"

	"github.com/markstash/markstash/internal/domain"
)

// Choice picks a side when resolving a conflict.
type Choice string

const (
	ChoiceLocal  Choice = "local"
	ChoiceRemote Choice = "remote"
)

// Conflict reports one bookmark both replicas changed since the last
// sync point. The merged tree carries the local value as a placeholder
// until a Resolution settles it; a result with conflicts must never be
// pushed.
type Conflict struct {
	Category       string           `json:"category"`
	Bundle         string           `json:"bundle"`
	ID             string           `json:"id"`
	Local          *domain.Bookmark `json:"local"`
	Remote         *domain.Bookmark `json:"remote"`
	LocalModified  time.Time        `json:"local_modified"`
	RemoteModified time.Time        `json:"remote_modified"`
}

// Resolution is a user's verdict on one conflicted bookmark, addressed
// the way the Conflict named it.
type Resolution struct {
	Category string `json:"category"`
	Bundle   string `json:"bundle"`
	ID       string `json:"id"`
	Choice   Choice `json:"choice"`
}

// Options tune a single merge call.
type Options struct {
	Strategy    Strategy
	Resolutions []Resolution
}

// Result is the outcome of a merge.
type Result struct {
	// Root is the reconciled tree. With HasConflicts set it still
	// contains local placeholder values and must not be persisted.
	Root         *domain.Root
	Conflicts    []Conflict
	HasConflicts bool

	// Changed reports whether Root differs in content from the local
	// input. Whether the remote needs a push is a separate question the
	// caller answers by comparing against its remote snapshot.
	Changed bool
}
