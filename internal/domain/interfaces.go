package domain

import (
	"context"
	"time"
)

// ─── Service Interfaces ─────────────────────────────────────────────────────
// Infrastructure implements them; the engagement engine depends on them.

// LeaderboardCache holds recently computed leaderboards. A miss is reported
// as (nil, false, nil); errors are for transport failures only.
type LeaderboardCache interface {
	GetLeaderboard(ctx context.Context, kind LeaderboardKind, day time.Time) ([]LeaderboardEntry, bool, error)
	SetLeaderboard(ctx context.Context, kind LeaderboardKind, day time.Time, entries []LeaderboardEntry) error
}
