package sqlite

import (
	"context"
	"database/sql"
	"time"

	"github.com/focusquest/focusquest/internal/domain"
)

// ─── Tasks ──────────────────────────────────────────────────────────────────

const taskColumns = `id, user_id, title, notes, theme, difficulty, xp_reward, is_completed,
	due_date, deadline, created_at`

// InsertTask creates a task and its subtasks, returning the task ID.
// Subtask positions follow slice order.
func (q *Queries) InsertTask(ctx context.Context, t domain.Task) (int64, error) {
	result, err := q.q.ExecContext(ctx,
		`INSERT INTO tasks (user_id, title, notes, theme, difficulty, xp_reward, is_completed,
			due_date, deadline, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		t.UserID, t.Title, t.Notes, string(t.Theme), string(t.Difficulty), t.XPReward,
		t.IsCompleted, nullableDate(t.DueDate), nullableUnix(t.Deadline), t.CreatedAt.Unix(),
	)
	if err != nil {
		return 0, err
	}
	id, err := result.LastInsertId()
	if err != nil {
		return 0, err
	}

	for i, st := range t.Subtasks {
		if _, err := q.q.ExecContext(ctx,
			`INSERT INTO subtasks (task_id, description, is_completed, position) VALUES (?, ?, ?, ?)`,
			id, st.Description, st.IsCompleted, i,
		); err != nil {
			return 0, err
		}
	}
	return id, nil
}

// GetTask retrieves a task with its subtasks. Returns nil if absent or owned by someone else.
func (q *Queries) GetTask(ctx context.Context, userID string, id int64) (*domain.Task, error) {
	row := q.q.QueryRowContext(ctx,
		`SELECT `+taskColumns+` FROM tasks WHERE id = ? AND user_id = ?`, id, userID)
	t, err := scanTask(row)
	if err != nil || t == nil {
		return t, err
	}

	subtasks, err := q.listSubtasks(ctx,
		`SELECT id, task_id, description, is_completed, position
		 FROM subtasks WHERE task_id = ? ORDER BY position, id`, id)
	if err != nil {
		return nil, err
	}
	t.Subtasks = subtasks
	return t, nil
}

// ListTasks returns a user's tasks with subtasks, newest first.
func (q *Queries) ListTasks(ctx context.Context, userID string) ([]domain.Task, error) {
	rows, err := q.q.QueryContext(ctx,
		`SELECT `+taskColumns+` FROM tasks WHERE user_id = ? ORDER BY created_at DESC, id DESC`, userID)
	if err != nil {
		return nil, err
	}
	var tasks []domain.Task
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			rows.Close()
			return nil, err
		}
		tasks = append(tasks, *t)
	}
	if err := rows.Close(); err != nil {
		return nil, err
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	// One round trip for all subtasks; rows above are closed first because
	// the pool has a single connection.
	subtasks, err := q.listSubtasks(ctx,
		`SELECT s.id, s.task_id, s.description, s.is_completed, s.position
		 FROM subtasks s JOIN tasks t ON t.id = s.task_id
		 WHERE t.user_id = ? ORDER BY s.task_id, s.position, s.id`, userID)
	if err != nil {
		return nil, err
	}
	byTask := make(map[int64][]domain.Subtask)
	for _, st := range subtasks {
		byTask[st.TaskID] = append(byTask[st.TaskID], st)
	}
	for i := range tasks {
		tasks[i].Subtasks = byTask[tasks[i].ID]
	}
	return tasks, nil
}

// SaveTask writes every mutable task field. Subtasks are not touched.
func (q *Queries) SaveTask(ctx context.Context, t domain.Task) error {
	result, err := q.q.ExecContext(ctx,
		`UPDATE tasks SET
			title = ?, notes = ?, theme = ?, difficulty = ?, xp_reward = ?, is_completed = ?,
			due_date = ?, deadline = ?
		 WHERE id = ? AND user_id = ?`,
		t.Title, t.Notes, string(t.Theme), string(t.Difficulty), t.XPReward, t.IsCompleted,
		nullableDate(t.DueDate), nullableUnix(t.Deadline),
		t.ID, t.UserID,
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

// DeleteTask removes a task; its subtasks go with it via ON DELETE CASCADE.
func (q *Queries) DeleteTask(ctx context.Context, userID string, id int64) error {
	result, err := q.q.ExecContext(ctx, `DELETE FROM tasks WHERE id = ? AND user_id = ?`, id, userID)
	if err != nil {
		return err
	}
	n, _ := result.RowsAffected()
	if n == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// ─── Subtasks ───────────────────────────────────────────────────────────────

// CompleteSubtasks marks every subtask of a task completed.
func (q *Queries) CompleteSubtasks(ctx context.Context, taskID int64) (int64, error) {
	result, err := q.q.ExecContext(ctx,
		`UPDATE subtasks SET is_completed = 1 WHERE task_id = ? AND is_completed = 0`, taskID)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

// InsertSubtask appends a subtask after the task's last one.
func (q *Queries) InsertSubtask(ctx context.Context, taskID int64, description string) (domain.Subtask, error) {
	var next int
	if err := q.q.QueryRowContext(ctx,
		`SELECT COALESCE(MAX(position) + 1, 0) FROM subtasks WHERE task_id = ?`, taskID,
	).Scan(&next); err != nil {
		return domain.Subtask{}, err
	}

	result, err := q.q.ExecContext(ctx,
		`INSERT INTO subtasks (task_id, description, is_completed, position) VALUES (?, ?, 0, ?)`,
		taskID, description, next)
	if err != nil {
		return domain.Subtask{}, err
	}
	id, err := result.LastInsertId()
	if err != nil {
		return domain.Subtask{}, err
	}
	return domain.Subtask{ID: id, TaskID: taskID, Description: description, Position: next}, nil
}

// GetSubtask retrieves a subtask whose parent task belongs to userID.
// Returns nil otherwise.
func (q *Queries) GetSubtask(ctx context.Context, userID string, id int64) (*domain.Subtask, error) {
	var st domain.Subtask
	err := q.q.QueryRowContext(ctx,
		`SELECT s.id, s.task_id, s.description, s.is_completed, s.position
		 FROM subtasks s JOIN tasks t ON t.id = s.task_id
		 WHERE s.id = ? AND t.user_id = ?`, id, userID,
	).Scan(&st.ID, &st.TaskID, &st.Description, &st.IsCompleted, &st.Position)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &st, nil
}

// SetSubtaskCompleted sets a subtask's completion flag.
func (q *Queries) SetSubtaskCompleted(ctx context.Context, id int64, completed bool) error {
	_, err := q.q.ExecContext(ctx, `UPDATE subtasks SET is_completed = ? WHERE id = ?`, completed, id)
	return err
}

func (q *Queries) listSubtasks(ctx context.Context, query string, args ...any) ([]domain.Subtask, error) {
	rows, err := q.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.Subtask
	for rows.Next() {
		var st domain.Subtask
		if err := rows.Scan(&st.ID, &st.TaskID, &st.Description, &st.IsCompleted, &st.Position); err != nil {
			return nil, err
		}
		out = append(out, st)
	}
	return out, rows.Err()
}

func scanTask(s scanner) (*domain.Task, error) {
	var t domain.Task
	var theme, difficulty string
	var due sql.NullString
	var deadline sql.NullInt64
	var createdAt int64

	err := s.Scan(&t.ID, &t.UserID, &t.Title, &t.Notes, &theme, &difficulty, &t.XPReward,
		&t.IsCompleted, &due, &deadline, &createdAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	t.Theme = domain.Theme(theme)
	t.Difficulty = domain.Difficulty(difficulty)
	t.Deadline = unixPtr(deadline)
	t.CreatedAt = time.Unix(createdAt, 0).UTC()
	if t.DueDate, err = datePtr(due); err != nil {
		return nil, err
	}
	return &t, nil
}
