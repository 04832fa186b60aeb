// Package domain holds the FocusQuest entities and the rules that belong to
// them alone. Nothing here touches storage or transport.
package domain

import (
	"strings"
	"time"
)

// ─── Themes ─────────────────────────────────────────────────────────────────

// Theme is a category tag shared by a user's preference and their items.
// The empty theme means "untagged".
type Theme string

const (
	ThemeNone       Theme = ""
	ThemeStudies    Theme = "studies"
	ThemeExercise   Theme = "exercise"
	ThemeHealth     Theme = "health"
	ThemeWork       Theme = "work"
	ThemeCreativity Theme = "creativity"
	ThemeMindful    Theme = "mindfulness"
)

var knownThemes = map[Theme]bool{
	ThemeStudies:    true,
	ThemeExercise:   true,
	ThemeHealth:     true,
	ThemeWork:       true,
	ThemeCreativity: true,
	ThemeMindful:    true,
}

// ParseTheme normalises s. An empty string is valid and yields ThemeNone.
func ParseTheme(s string) (Theme, bool) {
	t := Theme(strings.ToLower(strings.TrimSpace(s)))
	if t == ThemeNone {
		return ThemeNone, true
	}
	return t, knownThemes[t]
}

// ─── Difficulty ─────────────────────────────────────────────────────────────

// Difficulty is the tier an item is created with; it fixes the XP reward.
type Difficulty string

const (
	DifficultyEasy   Difficulty = "easy"
	DifficultyMedium Difficulty = "medium"
	DifficultyHard   Difficulty = "hard"
)

// DefaultXPReward is used for difficulties outside the known tiers.
const DefaultXPReward int64 = 10

var difficultyXP = map[Difficulty]int64{
	DifficultyEasy:   10,
	DifficultyMedium: 25,
	DifficultyHard:   50,
}

// ParseDifficulty reports whether s names a known tier.
func ParseDifficulty(s string) (Difficulty, bool) {
	d := Difficulty(strings.ToLower(strings.TrimSpace(s)))
	_, ok := difficultyXP[d]
	return d, ok
}

// XPReward maps a difficulty to its stored reward. Unknown tiers earn the default.
func (d Difficulty) XPReward() int64 {
	if xp, ok := difficultyXP[d]; ok {
		return xp
	}
	return DefaultXPReward
}

// Frequency is a habit's recurrence period.
type Frequency string

const (
	FrequencyDaily  Frequency = "daily"
	FrequencyWeekly Frequency = "weekly"
)

// ─── Profile ────────────────────────────────────────────────────────────────

// BaseXPForNextLevel is the level 1 → 2 threshold.
const BaseXPForNextLevel int64 = 100

// Profile is the per-user XP and preference record.
type Profile struct {
	UserID              string    `json:"user_id"`
	DisplayName         string    `json:"display_name"`
	Motivation          string    `json:"motivation"`
	TotalXP             int64     `json:"total_xp"`
	Level               int       `json:"level"`
	CurrentLevelXP      int64     `json:"current_level_xp"`
	XPForNextLevel      int64     `json:"xp_for_next_level"`
	PreferredTheme      Theme     `json:"preferred_theme"`
	XPEnabled           bool      `json:"xp_enabled"`
	StreaksEnabled      bool      `json:"streaks_enabled"`
	LeaderboardsEnabled bool      `json:"leaderboards_enabled"`
	CreatedAt           time.Time `json:"created_at"`
}

// NewProfile returns a level 1 profile with every feature switched on.
func NewProfile(userID, name string, theme Theme, now time.Time) Profile {
	return Profile{
		UserID:              userID,
		DisplayName:         name,
		Level:               1,
		XPForNextLevel:      BaseXPForNextLevel,
		PreferredTheme:      theme,
		XPEnabled:           true,
		StreaksEnabled:      true,
		LeaderboardsEnabled: true,
		CreatedAt:           now,
	}
}

// ─── Habits & Tasks ─────────────────────────────────────────────────────────

// Habit is a recurring item with streak state.
type Habit struct {
	ID            int64      `json:"id"`
	UserID        string     `json:"user_id"`
	Title         string     `json:"title"`
	Notes         string     `json:"notes"`
	Theme         Theme      `json:"theme"`
	Difficulty    Difficulty `json:"difficulty"`
	Frequency     Frequency  `json:"frequency"`
	XPReward      int64      `json:"xp_reward"`
	IsCompleted   bool       `json:"is_completed"`
	LastCompleted *time.Time `json:"last_completed_date,omitempty"`
	CurrentStreak int        `json:"current_streak"`
	LongestStreak int        `json:"longest_streak"`
}

// Task is a one-off item, optionally with a due date, a deadline and subtasks.
type Task struct {
	ID          int64      `json:"id"`
	UserID      string     `json:"user_id"`
	Title       string     `json:"title"`
	Notes       string     `json:"notes"`
	Theme       Theme      `json:"theme"`
	Difficulty  Difficulty `json:"difficulty"`
	XPReward    int64      `json:"xp_reward"`
	IsCompleted bool       `json:"is_completed"`
	DueDate     *time.Time `json:"due_date,omitempty"`
	Deadline    *time.Time `json:"deadline,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	Subtasks    []Subtask  `json:"subtasks"`
}

// Overdue reports whether the task is late at now. A deadline wins over a due date.
func (t Task) Overdue(now time.Time) bool {
	if t.Deadline != nil {
		return now.After(*t.Deadline)
	}
	if t.DueDate != nil {
		return DateOf(now, now.Location()).After(*t.DueDate)
	}
	return false
}

// Subtask belongs to exactly one task.
type Subtask struct {
	ID          int64  `json:"id"`
	TaskID      int64  `json:"task_id"`
	Description string `json:"description"`
	IsCompleted bool   `json:"is_completed"`
	Position    int    `json:"position"`
}

// FocusSession is a batch of timed focus blocks.
type FocusSession struct {
	ID                 int64     `json:"id"`
	UserID             string    `json:"user_id"`
	DurationMinutes    int       `json:"duration_minutes"`
	SessionsCompleted  int       `json:"sessions_completed"`
	XPEarned           int64     `json:"xp_earned"`
	MotivationSnapshot string    `json:"motivation_snapshot"`
	CreatedAt          time.Time `json:"created_at"`
}

// TotalMinutes is duration × sessions.
func (f FocusSession) TotalMinutes() int {
	return f.DurationMinutes * f.SessionsCompleted
}

// ─── Metrics ────────────────────────────────────────────────────────────────

// DailyMetrics is the per (user, date) aggregate. Weekly fields cache the
// trailing-window sums at the time of the last write.
type DailyMetrics struct {
	UserID             string    `json:"user_id"`
	Date               time.Time `json:"date"`
	FocusMinutes       int64     `json:"focus_minutes"`
	TasksCompleted     int64     `json:"tasks_completed"`
	HabitsCompleted    int64     `json:"habits_completed"`
	XPEarned           int64     `json:"xp_earned"`
	WeeklyXP           int64     `json:"weekly_xp"`
	WeeklyFocusMinutes int64     `json:"weekly_focus_minutes"`
}

// MetricsDelta is what one event contributes to a day.
type MetricsDelta struct {
	XP              int64
	FocusMinutes    int64
	TasksCompleted  int64
	HabitsCompleted int64
}

// LeaderboardKind selects what a leaderboard ranks.
type LeaderboardKind string

const (
	BoardXP     LeaderboardKind = "xp"
	BoardFocus  LeaderboardKind = "focus"
	BoardStreak LeaderboardKind = "streak"
)

// ParseLeaderboardKind reports whether s names a known board.
func ParseLeaderboardKind(s string) (LeaderboardKind, bool) {
	k := LeaderboardKind(strings.ToLower(strings.TrimSpace(s)))
	switch k {
	case BoardXP, BoardFocus, BoardStreak:
		return k, true
	}
	return k, false
}

// LeaderboardEntry is one ranked row.
type LeaderboardEntry struct {
	UserID string `json:"-"`
	Name   string `json:"name"`
	Value  int64  `json:"value"`
}

// ProgressPoint is one day of a user's trailing-week chart.
type ProgressPoint struct {
	Date         string `json:"date"`
	Label        string `json:"label"`
	WeeklyXP     int64  `json:"weekly_xp"`
	FocusMinutes int64  `json:"focus_minutes"`
	StreakProxy  int64  `json:"streak"`
}
