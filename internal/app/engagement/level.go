package engagement

import (
	"fmt"

	"github.com/focusquest/focusquest/internal/domain"
)

// LevelGrowth is the factor each successive level threshold grows by.
// Thresholds are truncated to integers after every step.
const LevelGrowth = 1.25

// LevelState is the level decomposition of a cumulative XP total.
type LevelState struct {
	Level          int   `json:"level"`
	CurrentLevelXP int64 `json:"current_level_xp"`
	XPForNextLevel int64 `json:"xp_for_next_level"`
}

// InitialLevel is the state at 0 XP.
func InitialLevel() LevelState {
	return LevelState{Level: 1, XPForNextLevel: domain.BaseXPForNextLevel}
}

// nextThreshold is floor(threshold * 1.25), computed in integers.
func nextThreshold(threshold int64) int64 {
	return threshold * 5 / 4
}

// ApplyXP adds increment to the current level and rolls over as many levels
// as the overflow pays for. Zero is a no-op; negative increments are rejected.
func ApplyXP(s LevelState, increment int64) (LevelState, error) {
	if increment < 0 {
		return s, fmt.Errorf("%w: xp increment must not be negative, got %d", domain.ErrInvalidArgument, increment)
	}
	if s.Level < 1 || s.XPForNextLevel <= 0 {
		s = InitialLevel()
	}

	s.CurrentLevelXP += increment
	for s.CurrentLevelXP >= s.XPForNextLevel {
		s.CurrentLevelXP -= s.XPForNextLevel
		s.Level++
		s.XPForNextLevel = nextThreshold(s.XPForNextLevel)
	}
	return s, nil
}

// LevelForTotal decomposes a cumulative XP total from scratch.
// For any sequence of ApplyXP calls summing to total it yields the same state.
func LevelForTotal(total int64) LevelState {
	s := InitialLevel()
	if total <= 0 {
		return s
	}
	s, _ = ApplyXP(s, total)
	return s
}

// ThresholdForLevel returns the XP needed to advance out of level.
func ThresholdForLevel(level int) int64 {
	threshold := domain.BaseXPForNextLevel
	for l := 1; l < level; l++ {
		threshold = nextThreshold(threshold)
	}
	return threshold
}

// ProgressPct returns progress toward the next level (0.0–100.0).
func (s LevelState) ProgressPct() float64 {
	if s.XPForNextLevel <= 0 {
		return 0
	}
	pct := float64(s.CurrentLevelXP) / float64(s.XPForNextLevel) * 100.0
	if pct < 0 {
		pct = 0
	}
	if pct > 100 {
		pct = 100
	}
	return pct
}

// levelOf extracts the level fields of a profile.
func levelOf(p domain.Profile) LevelState {
	return LevelState{Level: p.Level, CurrentLevelXP: p.CurrentLevelXP, XPForNextLevel: p.XPForNextLevel}
}

// withLevel writes s back into p.
func withLevel(p domain.Profile, s LevelState) domain.Profile {
	p.Level = s.Level
	p.CurrentLevelXP = s.CurrentLevelXP
	p.XPForNextLevel = s.XPForNextLevel
	return p
}
