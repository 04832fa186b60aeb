package sqlite

import (
	"context"
	"time"

	"github.com/focusquest/focusquest/internal/domain"
)

// ─── Focus Sessions ─────────────────────────────────────────────────────────

// InsertFocusSession records a completed batch of focus blocks.
func (q *Queries) InsertFocusSession(ctx context.Context, f domain.FocusSession) (int64, error) {
	result, err := q.q.ExecContext(ctx,
		`INSERT INTO focus_sessions (user_id, duration_minutes, sessions_completed, xp_earned,
			motivation_snapshot, created_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		f.UserID, f.DurationMinutes, f.SessionsCompleted, f.XPEarned,
		f.MotivationSnapshot, f.CreatedAt.Unix(),
	)
	if err != nil {
		return 0, err
	}
	return result.LastInsertId()
}

// ListFocusSessions returns a user's most recent sessions, newest first.
// A limit <= 0 returns all of them.
func (q *Queries) ListFocusSessions(ctx context.Context, userID string, limit int) ([]domain.FocusSession, error) {
	if limit <= 0 {
		limit = -1 // SQLite: no limit
	}
	rows, err := q.q.QueryContext(ctx,
		`SELECT id, user_id, duration_minutes, sessions_completed, xp_earned, motivation_snapshot, created_at
		 FROM focus_sessions WHERE user_id = ?
		 ORDER BY created_at DESC, id DESC LIMIT ?`, userID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.FocusSession
	for rows.Next() {
		var f domain.FocusSession
		var createdAt int64
		if err := rows.Scan(&f.ID, &f.UserID, &f.DurationMinutes, &f.SessionsCompleted,
			&f.XPEarned, &f.MotivationSnapshot, &createdAt); err != nil {
			return nil, err
		}
		f.CreatedAt = time.Unix(createdAt, 0).UTC()
		out = append(out, f)
	}
	return out, rows.Err()
}
