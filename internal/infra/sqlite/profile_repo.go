package sqlite

import (
	"context"
	"database/sql"
	"time"

	"github.com/focusquest/focusquest/internal/domain"
)

// ─── Profiles ───────────────────────────────────────────────────────────────

const profileColumns = `user_id, display_name, motivation, total_xp, level, current_level_xp,
	xp_for_next_level, preferred_theme, xp_enabled, streaks_enabled, leaderboards_enabled, created_at`

// InsertProfile creates a profile row.
func (q *Queries) InsertProfile(ctx context.Context, p domain.Profile) error {
	_, err := q.q.ExecContext(ctx,
		`INSERT INTO profiles (`+profileColumns+`)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		p.UserID, p.DisplayName, p.Motivation, p.TotalXP, p.Level, p.CurrentLevelXP,
		p.XPForNextLevel, string(p.PreferredTheme), p.XPEnabled, p.StreaksEnabled,
		p.LeaderboardsEnabled, p.CreatedAt.Unix(),
	)
	return err
}

// GetProfile retrieves a profile by user ID. Returns nil if absent.
func (q *Queries) GetProfile(ctx context.Context, userID string) (*domain.Profile, error) {
	row := q.q.QueryRowContext(ctx,
		`SELECT `+profileColumns+` FROM profiles WHERE user_id = ?`, userID)
	return scanProfile(row)
}

// SaveProfile writes every mutable profile field.
func (q *Queries) SaveProfile(ctx context.Context, p domain.Profile) error {
	result, err := q.q.ExecContext(ctx,
		`UPDATE profiles SET
			display_name = ?, motivation = ?, total_xp = ?, level = ?,
			current_level_xp = ?, xp_for_next_level = ?, preferred_theme = ?,
			xp_enabled = ?, streaks_enabled = ?, leaderboards_enabled = ?
		 WHERE user_id = ?`,
		p.DisplayName, p.Motivation, p.TotalXP, p.Level,
		p.CurrentLevelXP, p.XPForNextLevel, string(p.PreferredTheme),
		p.XPEnabled, p.StreaksEnabled, p.LeaderboardsEnabled,
		p.UserID,
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

// ListProfiles returns every profile ordered by display name.
func (q *Queries) ListProfiles(ctx context.Context) ([]domain.Profile, error) {
	rows, err := q.q.QueryContext(ctx,
		`SELECT `+profileColumns+` FROM profiles ORDER BY display_name ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var profiles []domain.Profile
	for rows.Next() {
		p, err := scanProfile(rows)
		if err != nil {
			return nil, err
		}
		profiles = append(profiles, *p)
	}
	return profiles, rows.Err()
}

func scanProfile(s scanner) (*domain.Profile, error) {
	var p domain.Profile
	var theme string
	var createdAt int64

	err := s.Scan(&p.UserID, &p.DisplayName, &p.Motivation, &p.TotalXP, &p.Level,
		&p.CurrentLevelXP, &p.XPForNextLevel, &theme, &p.XPEnabled, &p.StreaksEnabled,
		&p.LeaderboardsEnabled, &createdAt)
	if err == sql.ErrNoRows {
		return nil, nil // Not found, no error
	}
	if err != nil {
		return nil, err
	}

	p.PreferredTheme = domain.Theme(theme)
	p.CreatedAt = time.Unix(createdAt, 0).UTC()
	return &p, nil
}
