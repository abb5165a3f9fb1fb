// Package sync implements the bidirectional synchronization core: the
// outbound change queue, conflict detection, and conflict resolution.
package sync

// Strategy defines how a detected conflict is resolved.
type Strategy string

const (
	// StrategyAppWins keeps the local snapshot unconditionally.
	StrategyAppWins Strategy = "app_wins"

	// StrategyExternalWins keeps the remote snapshot unconditionally.
	StrategyExternalWins Strategy = "external_wins"

	// StrategyLastWriteWins keeps whichever side was modified more
	// recently; ties go to the external side.
	StrategyLastWriteWins Strategy = "last_write_wins"

	// StrategyMerge combines both snapshots field by field where the
	// fields allow it.
	StrategyMerge Strategy = "merge"

	// StrategyManual defers to a person; automatic resolution fails.
	StrategyManual Strategy = "manual"
)

// IsValid returns true if the strategy is recognized.
func (s Strategy) IsValid() bool {
	switch s {
	case StrategyAppWins, StrategyExternalWins, StrategyLastWriteWins, StrategyMerge, StrategyManual:
		return true
	default:
		return false
	}
}

// AllStrategies returns all supported resolution strategies.
func AllStrategies() []Strategy {
	return []Strategy{StrategyAppWins, StrategyExternalWins, StrategyLastWriteWins, StrategyMerge, StrategyManual}
}

// String returns the string representation of the strategy.
func (s Strategy) String() string {
	return string(s)
}

// Description returns a human-readable description of the strategy.
func (s Strategy) Description() string {
	switch s {
	case StrategyAppWins:
		return "Keep the app version, discarding external changes"
	case StrategyExternalWins:
		return "Keep the external version, discarding app changes"
	case StrategyLastWriteWins:
		return "Keep whichever side was modified most recently"
	case StrategyMerge:
		return "Combine both versions field by field"
	case StrategyManual:
		return "Ask the user to pick a resolution"
	default:
		return "Unknown strategy"
	}
}
