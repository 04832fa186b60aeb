package domain

import "errors"

// ─── Sentinel Errors ────────────────────────────────────────────────────────
// Callers wrap these with context and match with errors.Is.

var (
	// ErrNotFound: the referenced profile, habit, task or subtask does not
	// exist or does not belong to the caller.
	ErrNotFound = errors.New("not found")

	// ErrInvalidArgument: unknown difficulty, theme or leaderboard type,
	// negative XP, non-positive focus duration.
	ErrInvalidArgument = errors.New("invalid argument")

	// ErrUnauthorized: no authenticated identity on the call.
	ErrUnauthorized = errors.New("unauthorized")
)
