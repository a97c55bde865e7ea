// Package progression holds the pure gamification rules: the XP-to-level
// formula, the static badge registry with its eligibility evaluator, and the
// daily streak state machine. Nothing here performs I/O; persistence and
// event publication are the caller's concern.
package progression

// XPPerLevel is the uniform cost of every level.
const XPPerLevel = 1000

// Level returns the level for a cumulative XP total: floor(xp/1000)+1.
// xp must be non-negative; negative XP is rejected at the mutation boundary
// before this is ever called.
func Level(xp int) int {
	return xp/XPPerLevel + 1
}

// XPToNextLevel returns the XP remaining until the next level threshold.
func XPToNextLevel(xp int) int {
	return Level(xp)*XPPerLevel - xp
}

// ProgressFraction returns progress within the current level in [0,1).
func ProgressFraction(xp int) float64 {
	return float64(xp%XPPerLevel) / float64(XPPerLevel)
}
