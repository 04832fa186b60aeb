package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/focusquest/focusquest/internal/domain"
)

// ─── Daily Metrics ──────────────────────────────────────────────────────────

const metricsColumns = `user_id, metric_date, focus_minutes, tasks_completed, habits_completed,
	xp_earned, weekly_xp, weekly_focus_minutes`

// AddDailyMetrics adds d to the (user, day) row, creating it on first use.
func (q *Queries) AddDailyMetrics(ctx context.Context, userID string, day time.Time, d domain.MetricsDelta) error {
	_, err := q.q.ExecContext(ctx,
		`INSERT INTO daily_metrics (user_id, metric_date, focus_minutes, tasks_completed,
			habits_completed, xp_earned)
		 VALUES (?, ?, ?, ?, ?, ?)
		 ON CONFLICT(user_id, metric_date) DO UPDATE SET
			focus_minutes    = focus_minutes + excluded.focus_minutes,
			tasks_completed  = tasks_completed + excluded.tasks_completed,
			habits_completed = habits_completed + excluded.habits_completed,
			xp_earned        = xp_earned + excluded.xp_earned`,
		userID, day.Format(dateLayout), d.FocusMinutes, d.TasksCompleted, d.HabitsCompleted, d.XP,
	)
	return err
}

// SetWeeklyCache stores the trailing-window sums on the (user, day) row.
func (q *Queries) SetWeeklyCache(ctx context.Context, userID string, day time.Time, xp, focus int64) error {
	_, err := q.q.ExecContext(ctx,
		`UPDATE daily_metrics SET weekly_xp = ?, weekly_focus_minutes = ?
		 WHERE user_id = ? AND metric_date = ?`,
		xp, focus, userID, day.Format(dateLayout),
	)
	return err
}

// GetDailyMetrics retrieves one day's row. Returns nil if nothing happened that day.
func (q *Queries) GetDailyMetrics(ctx context.Context, userID string, day time.Time) (*domain.DailyMetrics, error) {
	row := q.q.QueryRowContext(ctx,
		`SELECT `+metricsColumns+` FROM daily_metrics WHERE user_id = ? AND metric_date = ?`,
		userID, day.Format(dateLayout))
	return scanMetrics(row)
}

// ListDailyMetrics returns a user's rows with from <= date <= to, oldest first.
func (q *Queries) ListDailyMetrics(ctx context.Context, userID string, from, to time.Time) ([]domain.DailyMetrics, error) {
	rows, err := q.q.QueryContext(ctx,
		`SELECT `+metricsColumns+` FROM daily_metrics
		 WHERE user_id = ? AND metric_date BETWEEN ? AND ?
		 ORDER BY metric_date ASC`,
		userID, from.Format(dateLayout), to.Format(dateLayout))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.DailyMetrics
	for rows.Next() {
		m, err := scanMetrics(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *m)
	}
	return out, rows.Err()
}

// leaderboardColumns whitelists the daily columns a window board may sum.
var leaderboardColumns = map[domain.LeaderboardKind]string{
	domain.BoardXP:    "xp_earned",
	domain.BoardFocus: "focus_minutes",
}

// WindowLeaderboard sums a daily column over [from, to] per leaderboard
// participant and returns the top rows, highest first. Ties break by name.
// Users with no metrics row in the window are left out.
func (q *Queries) WindowLeaderboard(ctx context.Context, kind domain.LeaderboardKind, from, to time.Time, limit int) ([]domain.LeaderboardEntry, error) {
	col, ok := leaderboardColumns[kind]
	if !ok {
		return nil, fmt.Errorf("%w: no window column for leaderboard %q", domain.ErrInvalidArgument, kind)
	}

	rows, err := q.q.QueryContext(ctx,
		`SELECT p.user_id, p.display_name, SUM(m.`+col+`) AS total
		 FROM daily_metrics m
		 JOIN profiles p ON p.user_id = m.user_id
		 WHERE p.leaderboards_enabled = 1 AND m.metric_date BETWEEN ? AND ?
		 GROUP BY p.user_id, p.display_name
		 ORDER BY total DESC, p.display_name ASC
		 LIMIT ?`,
		from.Format(dateLayout), to.Format(dateLayout), limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.LeaderboardEntry
	for rows.Next() {
		var e domain.LeaderboardEntry
		if err := rows.Scan(&e.UserID, &e.Name, &e.Value); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

func scanMetrics(s scanner) (*domain.DailyMetrics, error) {
	var m domain.DailyMetrics
	var day string
	err := s.Scan(&m.UserID, &day, &m.FocusMinutes, &m.TasksCompleted, &m.HabitsCompleted,
		&m.XPEarned, &m.WeeklyXP, &m.WeeklyFocusMinutes)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if m.Date, err = time.ParseInLocation(dateLayout, day, time.UTC); err != nil {
		return nil, fmt.Errorf("parse metric date %q: %w", day, err)
	}
	return &m, nil
}
