package domain

import (
	"testing"
	"time"
)

// ─── Difficulty ─────────────────────────────────────────────────────────────

func TestDifficulty_XPReward(t *testing.T) {
	tests := []struct {
		difficulty Difficulty
		want       int64
	}{
		{DifficultyEasy, 10},
		{DifficultyMedium, 25},
		{DifficultyHard, 50},
		{Difficulty("legendary"), 10},
		{Difficulty(""), 10},
	}
	for _, tt := range tests {
		t.Run(string(tt.difficulty), func(t *testing.T) {
			if got := tt.difficulty.XPReward(); got != tt.want {
				t.Errorf("XPReward() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestParseDifficulty(t *testing.T) {
	if d, ok := ParseDifficulty(" Hard "); !ok || d != DifficultyHard {
		t.Errorf("ParseDifficulty(Hard) = %q, %v", d, ok)
	}
	if _, ok := ParseDifficulty("extreme"); ok {
		t.Error("ParseDifficulty(extreme) should be rejected")
	}
}

func TestParseTheme(t *testing.T) {
	if th, ok := ParseTheme(""); !ok || th != ThemeNone {
		t.Errorf("empty theme = %q, %v; want none, true", th, ok)
	}
	if th, ok := ParseTheme("Studies"); !ok || th != ThemeStudies {
		t.Errorf("ParseTheme(Studies) = %q, %v", th, ok)
	}
	if _, ok := ParseTheme("gardening"); ok {
		t.Error("unknown theme should be rejected")
	}
}

func TestParseLeaderboardKind(t *testing.T) {
	for _, s := range []string{"xp", "focus", "streak", "XP"} {
		if _, ok := ParseLeaderboardKind(s); !ok {
			t.Errorf("ParseLeaderboardKind(%q) rejected", s)
		}
	}
	if _, ok := ParseLeaderboardKind("coins"); ok {
		t.Error("ParseLeaderboardKind(coins) should be rejected")
	}
}

// ─── Profile ────────────────────────────────────────────────────────────────

func TestNewProfile_Defaults(t *testing.T) {
	p := NewProfile("u1", "Ada", ThemeStudies, time.Now())
	if p.Level != 1 || p.XPForNextLevel != 100 || p.TotalXP != 0 || p.CurrentLevelXP != 0 {
		t.Errorf("unexpected level state: %+v", p)
	}
	if !p.XPEnabled || !p.StreaksEnabled || !p.LeaderboardsEnabled {
		t.Error("all features should default to enabled")
	}
}

// ─── Task.Overdue ───────────────────────────────────────────────────────────

func TestTask_Overdue(t *testing.T) {
	now := time.Date(2025, 7, 10, 15, 0, 0, 0, time.UTC)
	past := now.Add(-time.Hour)
	future := now.Add(time.Hour)
	yesterday := time.Date(2025, 7, 9, 0, 0, 0, 0, time.UTC)
	today := time.Date(2025, 7, 10, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name string
		task Task
		want bool
	}{
		{"no dates", Task{}, false},
		{"deadline passed", Task{Deadline: &past}, true},
		{"deadline ahead", Task{Deadline: &future}, false},
		{"due yesterday", Task{DueDate: &yesterday}, true},
		{"due today", Task{DueDate: &today}, false},
		{"deadline wins over due date", Task{Deadline: &future, DueDate: &yesterday}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.task.Overdue(now); got != tt.want {
				t.Errorf("Overdue() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestFocusSession_TotalMinutes(t *testing.T) {
	f := FocusSession{DurationMinutes: 25, SessionsCompleted: 4}
	if got := f.TotalMinutes(); got != 100 {
		t.Errorf("TotalMinutes() = %d, want 100", got)
	}
}

// ─── Dates ──────────────────────────────────────────────────────────────────

func TestDateOf_UsesLocation(t *testing.T) {
	loc := time.FixedZone("UTC+10", 10*3600)
	// 20:00 UTC on the 1st is already the 2nd in UTC+10.
	ts := time.Date(2025, 7, 1, 20, 0, 0, 0, time.UTC)
	got := DateOf(ts, loc)
	want := time.Date(2025, 7, 2, 0, 0, 0, 0, time.UTC)
	if !got.Equal(want) {
		t.Errorf("DateOf() = %v, want %v", got, want)
	}
}

func TestDaysBetween(t *testing.T) {
	a := time.Date(2025, 2, 27, 0, 0, 0, 0, time.UTC)
	b := time.Date(2025, 3, 2, 0, 0, 0, 0, time.UTC)
	if got := DaysBetween(a, b); got != 3 {
		t.Errorf("DaysBetween() = %d, want 3", got)
	}
	if got := DaysBetween(b, a); got != -3 {
		t.Errorf("DaysBetween() reversed = %d, want -3", got)
	}
}

func TestParseFormatDate(t *testing.T) {
	d, err := ParseDate("2025-07-04")
	if err != nil {
		t.Fatalf("ParseDate() error: %v", err)
	}
	if FormatDate(d) != "2025-07-04" {
		t.Errorf("FormatDate() = %q", FormatDate(d))
	}
	if _, err := ParseDate("04/07/2025"); err == nil {
		t.Error("ParseDate should reject non-ISO input")
	}
}

func TestISOWeek(t *testing.T) {
	// 2024-12-30 is Monday of ISO week 1 of 2025.
	d := time.Date(2024, 12, 30, 0, 0, 0, 0, time.UTC)
	if got := ISOWeek(d); got != "2025-W01" {
		t.Errorf("ISOWeek() = %q, want 2025-W01", got)
	}
}
