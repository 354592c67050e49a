package scheduler

import (
	"context"

	"github.com/markstash/markstash/internal/domain"
	"github.com/markstash/markstash/internal/gist"
	"github.com/markstash/markstash/internal/logger"
	"github.com/markstash/markstash/internal/markdown"
	"github.com/markstash/markstash/internal/state"
	redisstore "github.com/markstash/markstash/internal/store/redis"
)

// StateRestorer rehydrates the in-memory tree from Redis on startup, so
// a restarted instance resumes from its last known-good state instead
// of an empty tree
type StateRestorer struct {
	store  *redisstore.Store
	repo   *gist.Repository
	holder *state.Holder
	gistID string
	logger logger.Logger
}

// NewStateRestorer creates a new state restorer
func NewStateRestorer(
	store *redisstore.Store,
	repo *gist.Repository,
	holder *state.Holder,
	gistID string,
	log logger.Logger,
) *StateRestorer {
	return &StateRestorer{
		store:  store,
		repo:   repo,
		holder: holder,
		gistID: gistID,
		logger: log,
	}
}

// Restore loads the saved tree and sync position from Redis and seeds
// the holder. A fresh instance with nothing saved is not an error.
func (sr *StateRestorer) Restore(ctx context.Context) error {
	sr.logger.Info("restoring sync state from redis")

	st, err := sr.store.LoadSyncState(ctx, sr.gistID)
	if err != nil {
		return err
	}
	text, ok, err := sr.store.LoadTree(ctx, sr.gistID)
	if err != nil {
		return err
	}
	if !ok || st.LastSynced.IsZero() {
		sr.logger.Info("no saved state in redis, starting fresh")
		return nil
	}

	// The saved text carries no timestamps. Nodes restore at the epoch
	// so anything the remote wrote since the marker reads as newer.
	root, err := markdown.DecodeAt(text, domain.Epoch)
	if err != nil {
		sr.logger.Warn("saved tree is unreadable, starting fresh",
			logger.Error(err))
		return nil
	}

	sr.holder.ReplaceSynced(domain.StampSynced(root, st.LastSynced), st.LastSynced)
	if st.ETag != "" {
		sr.repo.AdoptETag(st.ETag)
	}

	stats := domain.Stats(root)
	sr.logger.Info("restored state from redis",
		logger.Time("last_synced", st.LastSynced),
		logger.Int("categories", stats.Categories),
		logger.Int("bookmarks", stats.Bookmarks))

	return nil
}
