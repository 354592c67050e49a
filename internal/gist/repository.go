package gist

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/markstash/markstash/internal/domain"
	"github.com/markstash/markstash/internal/logger"
	"github.com/markstash/markstash/internal/markdown"
)

// Repository binds the client to one gist and tracks the version token
// across calls: Read remembers the ETag it saw, Write sends it back as a
// precondition. Safe for concurrent use.
type Repository struct {
	client *Client
	gistID string
	log    logger.Logger

	mu   sync.Mutex
	etag string
}

func NewRepository(client *Client, gistID string, log logger.Logger) *Repository {
	return &Repository{client: client, gistID: gistID, log: log}
}

// ReadAt fetches and parses the remote tree, stamping every decoded
// node with the given lastModified. The document itself carries no
// timestamps, so callers pass the last sync point: against that stamp
// a locally modified node reads as newer and an untouched one as
// older, which is what the merge comparisons need.
func (r *Repository) ReadAt(ctx context.Context, at time.Time) (*domain.Root, error) {
	doc, err := r.client.Fetch(ctx, r.gistID)
	if err != nil {
		return nil, err
	}

	root, err := markdown.DecodeAt(doc.Content, at)
	if err != nil {
		return nil, fmt.Errorf("remote document: %w", err)
	}

	r.mu.Lock()
	r.etag = doc.ETag
	r.mu.Unlock()

	r.log.Debug("fetched remote tree",
		logger.String("gist", r.gistID),
		logger.Int("bytes", len(doc.Content)),
		logger.String("etag", doc.ETag),
	)
	return root, nil
}

// Write renders the tree and pushes it, conditional on the version seen
// by the last ReadAt. Writing before any read fails with
// ErrVersionConflict so callers are forced through a read-merge cycle.
func (r *Repository) Write(ctx context.Context, root *domain.Root) error {
	r.mu.Lock()
	etag := r.etag
	r.mu.Unlock()
	if etag == "" {
		return fmt.Errorf("write before read: %w", ErrVersionConflict)
	}

	content := markdown.Encode(root)
	doc, err := r.client.Update(ctx, r.gistID, content, etag)
	if err != nil {
		return err
	}

	r.mu.Lock()
	r.etag = doc.ETag
	r.mu.Unlock()

	r.log.Debug("pushed remote tree",
		logger.String("gist", r.gistID),
		logger.Int("bytes", len(content)),
		logger.String("etag", doc.ETag),
	)
	return nil
}

// Changed reports whether the gist moved past the last version this
// repository saw. Before the first read it always reports true.
func (r *Repository) Changed(ctx context.Context) (bool, error) {
	r.mu.Lock()
	etag := r.etag
	r.mu.Unlock()
	return r.client.Changed(ctx, r.gistID, etag)
}

// ETag returns the version token of the last successful read or write.
func (r *Repository) ETag() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.etag
}

// AdoptETag seeds the version token, used when restoring persisted
// state so the first poll after a restart stays cheap.
func (r *Repository) AdoptETag(etag string) {
	r.mu.Lock()
	r.etag = etag
	r.mu.Unlock()
}
