package engagement

import (
	"context"

	"github.com/focusquest/focusquest/internal/domain"
)

// Dashboard is a user's headline numbers.
type Dashboard struct {
	UserID          string       `json:"user_id"`
	DisplayName     string       `json:"display_name"`
	Motivation      string       `json:"motivation"`
	PreferredTheme  domain.Theme `json:"preferred_theme"`
	Level           int          `json:"level"`
	TotalXP         int64        `json:"total_xp"`
	CurrentLevelXP  int64        `json:"current_level_xp"`
	XPForNextLevel  int64        `json:"xp_for_next_level"`
	ProgressPct     float64      `json:"progress_pct"`
	TodayXP         int64        `json:"today_xp"`
	WeeklyXP        int64        `json:"weekly_xp"`
	WeeklyFocus     int64        `json:"weekly_focus_minutes"`
	HabitsDoneToday int64        `json:"habits_completed_today"`
	TasksDoneToday  int64        `json:"tasks_completed_today"`
}

// Dashboard returns the profile's level state plus today's and this window's
// activity. Weekly figures are summed from stored rows, not the cached columns.
func (s *Service) Dashboard(ctx context.Context, userID string) (Dashboard, error) {
	p, err := loadProfile(ctx, s.db.Queries, userID)
	if err != nil {
		return Dashboard{}, err
	}

	today := s.today()
	start, end := WeekWindow(today)
	rows, err := s.db.ListDailyMetrics(ctx, userID, start, end)
	if err != nil {
		return Dashboard{}, err
	}
	weeklyXP, weeklyFocus := WeeklyTotals(rows, today)

	d := Dashboard{
		UserID:         p.UserID,
		DisplayName:    p.DisplayName,
		Motivation:     p.Motivation,
		PreferredTheme: p.PreferredTheme,
		Level:          p.Level,
		TotalXP:        p.TotalXP,
		CurrentLevelXP: p.CurrentLevelXP,
		XPForNextLevel: p.XPForNextLevel,
		ProgressPct:    levelOf(p).ProgressPct(),
		WeeklyXP:       weeklyXP,
		WeeklyFocus:    weeklyFocus,
	}
	for _, r := range rows {
		if r.Date.Equal(today) {
			d.TodayXP = r.XPEarned
			d.HabitsDoneToday = r.HabitsCompleted
			d.TasksDoneToday = r.TasksCompleted
		}
	}
	return d, nil
}

// Progress returns one point per day of the trailing window ending today.
// Each point's weekly XP is itself a trailing-window sum, so rows reaching
// back two windows are loaded.
func (s *Service) Progress(ctx context.Context, userID string) ([]domain.ProgressPoint, error) {
	if _, err := loadProfile(ctx, s.db.Queries, userID); err != nil {
		return nil, err
	}

	today := s.today()
	first, _ := WeekWindow(today)
	from, _ := WeekWindow(first)
	rows, err := s.db.ListDailyMetrics(ctx, userID, from, today)
	if err != nil {
		return nil, err
	}
	return ProgressSeries(rows, today), nil
}
