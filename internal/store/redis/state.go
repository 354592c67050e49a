package redis

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

// Hash fields of the sync-state key
const (
	FieldLastSynced = "last_synced"
	FieldETag       = "etag"
)

// Counter names tracked per gist
const (
	CounterSyncs             = "syncs"
	CounterPushes            = "pushes"
	CounterConflictsSeen     = "conflicts_seen"
	CounterConflictsResolved = "conflicts_resolved"
)

// SyncState is the durable part of a replica's sync position: when it
// last agreed with the remote and which document version it saw.
type SyncState struct {
	LastSynced time.Time
	ETag       string
}

// Store persists sync state in Redis keyed by gist ID, so a restart can
// resume where the previous run left off
type Store struct {
	client *redis.Client
}

// NewStore creates a new Redis store
func NewStore(client *redis.Client) *Store {
	return &Store{
		client: client,
	}
}

// SaveSyncState writes the sync marker, version token and tree text in
// one pipeline. Called after every successful sync cycle.
func (s *Store) SaveSyncState(ctx context.Context, gistID string, st SyncState, tree string) error {
	pipe := s.client.Pipeline()

	pipe.HSet(ctx, StateKey(gistID),
		FieldLastSynced, st.LastSynced.UTC().Format(time.RFC3339Nano),
		FieldETag, st.ETag,
	)
	pipe.Set(ctx, TreeKey(gistID), tree, 0)

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to save sync state: %w", err)
	}
	return nil
}

// LoadSyncState retrieves the sync marker and version token. A gist that
// was never synced yields a zero SyncState, not an error.
func (s *Store) LoadSyncState(ctx context.Context, gistID string) (SyncState, error) {
	fields, err := s.client.HGetAll(ctx, StateKey(gistID)).Result()
	if err != nil {
		return SyncState{}, fmt.Errorf("failed to load sync state: %w", err)
	}

	var st SyncState
	if raw, ok := fields[FieldLastSynced]; ok && raw != "" {
		t, err := time.Parse(time.RFC3339Nano, raw)
		if err != nil {
			return SyncState{}, fmt.Errorf("failed to parse last-synced marker %q: %w", raw, err)
		}
		st.LastSynced = t
	}
	st.ETag = fields[FieldETag]
	return st, nil
}

// LoadTree retrieves the last known-good tree text. The second return
// reports whether anything was stored.
func (s *Store) LoadTree(ctx context.Context, gistID string) (string, bool, error) {
	text, err := s.client.Get(ctx, TreeKey(gistID)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", false, nil
		}
		return "", false, fmt.Errorf("failed to load tree: %w", err)
	}
	return text, true, nil
}

// IncrCounter bumps one sync counter
func (s *Store) IncrCounter(ctx context.Context, gistID, name string, delta int64) error {
	if err := s.client.HIncrBy(ctx, CountersKey(gistID), name, delta).Err(); err != nil {
		return fmt.Errorf("failed to increment counter %s: %w", name, err)
	}
	return nil
}

// Counters retrieves all sync counters for a gist
func (s *Store) Counters(ctx context.Context, gistID string) (map[string]int64, error) {
	fields, err := s.client.HGetAll(ctx, CountersKey(gistID)).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to get counters: %w", err)
	}

	counters := make(map[string]int64, len(fields))
	for name, raw := range fields {
		n, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			// Skip values something else wrote
			continue
		}
		counters[name] = n
	}
	return counters, nil
}
