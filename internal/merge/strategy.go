package merge

// Strategy selects how the engine settles a bookmark both replicas
// changed since the last sync point.
type Strategy string

const (
	// StrategyTimestamp keeps the side with the strictly newer
	// modification time and surfaces a Conflict when neither is newer.
	// This is the default.
	StrategyTimestamp Strategy = "timestamp"

	// StrategyLocal settles every divergence toward the local tree.
	StrategyLocal Strategy = "local"

	// StrategyRemote settles every divergence toward the remote tree.
	StrategyRemote Strategy = "remote"
)

func (s Strategy) IsValid() bool {
	switch s {
	case StrategyTimestamp, StrategyLocal, StrategyRemote:
		return true
	}
	return false
}
