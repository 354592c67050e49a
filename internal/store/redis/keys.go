package redis

const (
	// KeyPrefixState is the prefix for sync-state hashes
	KeyPrefixState = "markstash:state:"
	// KeyPrefixTree is the prefix for the last known-good tree text
	KeyPrefixTree = "markstash:tree:"
	// KeyPrefixCounters is the prefix for sync counter hashes
	KeyPrefixCounters = "markstash:counters:"
)

// StateKey returns the Redis key for a gist's sync-state hash
func StateKey(gistID string) string {
	return KeyPrefixState + gistID
}

// TreeKey returns the Redis key for a gist's saved tree text
func TreeKey(gistID string) string {
	return KeyPrefixTree + gistID
}

// CountersKey returns the Redis key for a gist's counter hash
func CountersKey(gistID string) string {
	return KeyPrefixCounters + gistID
}
