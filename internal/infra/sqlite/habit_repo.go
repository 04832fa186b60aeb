package sqlite

import (
	"context"
	"database/sql"

	"github.com/focusquest/focusquest/internal/domain"
)

// ─── Habits ─────────────────────────────────────────────────────────────────

const habitColumns = `id, user_id, title, notes, theme, difficulty, frequency, xp_reward,
	is_completed, last_completed_date, current_streak, longest_streak`

// InsertHabit creates a habit and returns its ID.
func (q *Queries) InsertHabit(ctx context.Context, h domain.Habit) (int64, error) {
	result, err := q.q.ExecContext(ctx,
		`INSERT INTO habits (user_id, title, notes, theme, difficulty, frequency, xp_reward,
			is_completed, last_completed_date, current_streak, longest_streak)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		h.UserID, h.Title, h.Notes, string(h.Theme), string(h.Difficulty), string(h.Frequency),
		h.XPReward, h.IsCompleted, nullableDate(h.LastCompleted), h.CurrentStreak, h.LongestStreak,
	)
	if err != nil {
		return 0, err
	}
	return result.LastInsertId()
}

// GetHabit retrieves a habit owned by userID. Returns nil if absent or owned by someone else.
func (q *Queries) GetHabit(ctx context.Context, userID string, id int64) (*domain.Habit, error) {
	row := q.q.QueryRowContext(ctx,
		`SELECT `+habitColumns+` FROM habits WHERE id = ? AND user_id = ?`, id, userID)
	return scanHabit(row)
}

// ListHabits returns a user's habits in creation order.
func (q *Queries) ListHabits(ctx context.Context, userID string) ([]domain.Habit, error) {
	rows, err := q.q.QueryContext(ctx,
		`SELECT `+habitColumns+` FROM habits WHERE user_id = ? ORDER BY id ASC`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectHabits(rows)
}

// ListLeaderboardHabits returns every habit of users who take part in
// leaderboards, plus the owner's display name.
func (q *Queries) ListLeaderboardHabits(ctx context.Context) ([]HabitOwner, error) {
	rows, err := q.q.QueryContext(ctx,
		`SELECT p.user_id, p.display_name, h.frequency, h.last_completed_date, h.current_streak
		 FROM profiles p
		 LEFT JOIN habits h ON h.user_id = p.user_id
		 WHERE p.leaderboards_enabled = 1
		 ORDER BY p.user_id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []HabitOwner
	for rows.Next() {
		var o HabitOwner
		var freq sql.NullString
		var last sql.NullString
		var streak sql.NullInt64
		if err := rows.Scan(&o.UserID, &o.Name, &freq, &last, &streak); err != nil {
			return nil, err
		}
		if freq.Valid {
			h := domain.Habit{
				UserID:        o.UserID,
				Frequency:     domain.Frequency(freq.String),
				CurrentStreak: int(streak.Int64),
			}
			lc, err := datePtr(last)
			if err != nil {
				return nil, err
			}
			h.LastCompleted = lc
			o.Habit = &h
		}
		out = append(out, o)
	}
	return out, rows.Err()
}

// HabitOwner pairs a leaderboard participant with one of their habits.
// Habit is nil for participants without habits.
type HabitOwner struct {
	UserID string
	Name   string
	Habit  *domain.Habit
}

// SaveHabit writes every mutable habit field.
func (q *Queries) SaveHabit(ctx context.Context, h domain.Habit) error {
	result, err := q.q.ExecContext(ctx,
		`UPDATE habits SET
			title = ?, notes = ?, theme = ?, difficulty = ?, frequency = ?, xp_reward = ?,
			is_completed = ?, last_completed_date = ?, current_streak = ?, longest_streak = ?
		 WHERE id = ? AND user_id = ?`,
		h.Title, h.Notes, string(h.Theme), string(h.Difficulty), string(h.Frequency), h.XPReward,
		h.IsCompleted, nullableDate(h.LastCompleted), h.CurrentStreak, h.LongestStreak,
		h.ID, h.UserID,
	)
	if err != nil {
		return err
	}
	n, _ := result.RowsAffected()
	if n == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// DeleteHabit removes a habit owned by userID.
func (q *Queries) DeleteHabit(ctx context.Context, userID string, id int64) error {
	result, err := q.q.ExecContext(ctx, `DELETE FROM habits WHERE id = ? AND user_id = ?`, id, userID)
	if err != nil {
		return err
	}
	n, _ := result.RowsAffected()
	if n == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func scanHabit(s scanner) (*domain.Habit, error) {
	var h domain.Habit
	var theme, difficulty, frequency string
	var last sql.NullString

	err := s.Scan(&h.ID, &h.UserID, &h.Title, &h.Notes, &theme, &difficulty, &frequency,
		&h.XPReward, &h.IsCompleted, &last, &h.CurrentStreak, &h.LongestStreak)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	h.Theme = domain.Theme(theme)
	h.Difficulty = domain.Difficulty(difficulty)
	h.Frequency = domain.Frequency(frequency)
	if h.LastCompleted, err = datePtr(last); err != nil {
		return nil, err
	}
	return &h, nil
}

func collectHabits(rows *sql.Rows) ([]domain.Habit, error) {
	var habits []domain.Habit
	for rows.Next() {
		h, err := scanHabit(rows)
		if err != nil {
			return nil, err
		}
		habits = append(habits, *h)
	}
	return habits, rows.Err()
}
