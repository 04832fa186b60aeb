package engagement

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/focusquest/focusquest/internal/domain"
	"github.com/focusquest/focusquest/internal/infra/metrics"
	"github.com/focusquest/focusquest/internal/infra/sqlite"
)

// HabitInput describes a new habit.
type HabitInput struct {
	Title      string
	Notes      string
	Theme      string
	Difficulty string
	Frequency  string
}

// HabitPatch carries habit edits. Nil leaves a field as is.
type HabitPatch struct {
	Title      *string
	Notes      *string
	Theme      *string
	Difficulty *string
	Frequency  *string
}

// TaskInput describes a new task and its initial subtasks.
type TaskInput struct {
	Title      string
	Notes      string
	Theme      string
	Difficulty string
	DueDate    *time.Time
	Deadline   *time.Time
	Subtasks   []string
}

// TaskPatch carries task edits. Nil leaves a field as is.
type TaskPatch struct {
	Title      *string
	Notes      *string
	Theme      *string
	Difficulty *string
	DueDate    *time.Time
	Deadline   *time.Time
}

func parseTitle(s string) (string, error) {
	title := strings.TrimSpace(s)
	if title == "" {
		return "", fmt.Errorf("%w: title is required", domain.ErrInvalidArgument)
	}
	return title, nil
}

func parseTheme(s string) (domain.Theme, error) {
	t, ok := domain.ParseTheme(s)
	if !ok {
		return "", fmt.Errorf("%w: unknown theme %q", domain.ErrInvalidArgument, s)
	}
	return t, nil
}

// parseDifficulty accepts the known tiers only. The stored reward is fixed here.
func parseDifficulty(s string) (domain.Difficulty, error) {
	d, ok := domain.ParseDifficulty(s)
	if !ok {
		return "", fmt.Errorf("%w: unknown difficulty %q", domain.ErrInvalidArgument, s)
	}
	return d, nil
}

func parseFrequency(s string) (domain.Frequency, error) {
	switch f := domain.Frequency(strings.ToLower(strings.TrimSpace(s))); f {
	case "", domain.FrequencyDaily:
		return domain.FrequencyDaily, nil
	case domain.FrequencyWeekly:
		return f, nil
	default:
		return "", fmt.Errorf("%w: unknown frequency %q", domain.ErrInvalidArgument, s)
	}
}

// ─── Habits ─────────────────────────────────────────────────────────────────

// CreateHabit stores a habit with the reward its difficulty earns.
func (s *Service) CreateHabit(ctx context.Context, userID string, in HabitInput) (domain.Habit, error) {
	h := domain.Habit{UserID: userID, Notes: in.Notes}
	var err error
	if h.Title, err = parseTitle(in.Title); err != nil {
		return domain.Habit{}, err
	}
	if h.Theme, err = parseTheme(in.Theme); err != nil {
		return domain.Habit{}, err
	}
	if h.Difficulty, err = parseDifficulty(in.Difficulty); err != nil {
		return domain.Habit{}, err
	}
	if h.Frequency, err = parseFrequency(in.Frequency); err != nil {
		return domain.Habit{}, err
	}
	h.XPReward = h.Difficulty.XPReward()

	err = s.db.InTx(ctx, func(q *sqlite.Queries) error {
		if _, err := loadProfile(ctx, q, userID); err != nil {
			return err
		}
		id, err := q.InsertHabit(ctx, h)
		if err != nil {
			return err
		}
		h.ID = id
		return nil
	})
	if err != nil {
		return domain.Habit{}, err
	}
	return h, nil
}

// UpdateHabit edits a habit. Changing the difficulty re-fixes the reward.
func (s *Service) UpdateHabit(ctx context.Context, userID string, id int64, p HabitPatch) (domain.Habit, error) {
	var out domain.Habit
	err := s.db.InTx(ctx, func(q *sqlite.Queries) error {
		h, err := q.GetHabit(ctx, userID, id)
		if err != nil {
			return err
		}
		if h == nil {
			return fmt.Errorf("%w: habit %d", domain.ErrNotFound, id)
		}
		if p.Title != nil {
			if h.Title, err = parseTitle(*p.Title); err != nil {
				return err
			}
		}
		if p.Notes != nil {
			h.Notes = *p.Notes
		}
		if p.Theme != nil {
			if h.Theme, err = parseTheme(*p.Theme); err != nil {
				return err
			}
		}
		if p.Difficulty != nil {
			if h.Difficulty, err = parseDifficulty(*p.Difficulty); err != nil {
				return err
			}
			h.XPReward = h.Difficulty.XPReward()
		}
		if p.Frequency != nil {
			if h.Frequency, err = parseFrequency(*p.Frequency); err != nil {
				return err
			}
		}
		if err := q.SaveHabit(ctx, *h); err != nil {
			return err
		}
		out = *h
		return nil
	})
	return out, err
}

// DeleteHabit removes a habit.
func (s *Service) DeleteHabit(ctx context.Context, userID string, id int64) error {
	if err := s.db.DeleteHabit(ctx, userID, id); err != nil {
		return fmt.Errorf("habit %d: %w", id, err)
	}
	return nil
}

// ListHabits returns a user's habits reconciled to today. Reconciled state is
// written back in the same transaction so storage never shows a stale period.
func (s *Service) ListHabits(ctx context.Context, userID string) ([]domain.Habit, error) {
	today := s.today()
	var out []domain.Habit
	resets := 0

	err := s.db.InTx(ctx, func(q *sqlite.Queries) error {
		if _, err := loadProfile(ctx, q, userID); err != nil {
			return err
		}
		habits, err := q.ListHabits(ctx, userID)
		if err != nil {
			return err
		}
		out = make([]domain.Habit, 0, len(habits))
		for _, h := range habits {
			r, reset, err := reconcileStored(ctx, q, h, today)
			if err != nil {
				return err
			}
			if reset {
				resets++
			}
			out = append(out, r)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	metrics.StreakResets.Add(float64(resets))
	return out, nil
}

// GetHabit returns one habit reconciled to today.
func (s *Service) GetHabit(ctx context.Context, userID string, id int64) (domain.Habit, error) {
	today := s.today()
	var out domain.Habit
	reset := false

	err := s.db.InTx(ctx, func(q *sqlite.Queries) error {
		h, err := q.GetHabit(ctx, userID, id)
		if err != nil {
			return err
		}
		if h == nil {
			return fmt.Errorf("%w: habit %d", domain.ErrNotFound, id)
		}
		out, reset, err = reconcileStored(ctx, q, *h, today)
		return err
	})
	if err != nil {
		return domain.Habit{}, err
	}
	if reset {
		metrics.StreakResets.Inc()
	}
	return out, nil
}

// reconcileStored runs Reconcile and persists the result when it changed.
// reset reports whether a live streak was zeroed.
func reconcileStored(ctx context.Context, q *sqlite.Queries, h domain.Habit, today time.Time) (domain.Habit, bool, error) {
	r := Reconcile(h, today)
	if r == h {
		return h, false, nil
	}
	if err := q.SaveHabit(ctx, r); err != nil {
		return h, false, err
	}
	return r, h.CurrentStreak > 0 && r.CurrentStreak == 0, nil
}

// ─── Tasks ──────────────────────────────────────────────────────────────────

// CreateTask stores a task, its subtasks in order, and the reward its
// difficulty earns.
func (s *Service) CreateTask(ctx context.Context, userID string, in TaskInput) (domain.Task, error) {
	t := domain.Task{
		UserID:    userID,
		Notes:     in.Notes,
		Deadline:  in.Deadline,
		CreatedAt: s.now().UTC(),
	}
	var err error
	if t.Title, err = parseTitle(in.Title); err != nil {
		return domain.Task{}, err
	}
	if t.Theme, err = parseTheme(in.Theme); err != nil {
		return domain.Task{}, err
	}
	if t.Difficulty, err = parseDifficulty(in.Difficulty); err != nil {
		return domain.Task{}, err
	}
	t.XPReward = t.Difficulty.XPReward()
	if in.DueDate != nil {
		due := domain.DateOf(*in.DueDate, time.UTC)
		t.DueDate = &due
	}
	for _, desc := range in.Subtasks {
		desc = strings.TrimSpace(desc)
		if desc == "" {
			return domain.Task{}, fmt.Errorf("%w: subtask description is required", domain.ErrInvalidArgument)
		}
		t.Subtasks = append(t.Subtasks, domain.Subtask{Description: desc})
	}

	var out domain.Task
	err = s.db.InTx(ctx, func(q *sqlite.Queries) error {
		if _, err := loadProfile(ctx, q, userID); err != nil {
			return err
		}
		id, err := q.InsertTask(ctx, t)
		if err != nil {
			return err
		}
		created, err := q.GetTask(ctx, userID, id)
		if err != nil {
			return err
		}
		out = *created
		return nil
	})
	if err != nil {
		return domain.Task{}, err
	}
	return out, nil
}

// UpdateTask edits a task. Changing the difficulty re-fixes the reward.
func (s *Service) UpdateTask(ctx context.Context, userID string, id int64, p TaskPatch) (domain.Task, error) {
	var out domain.Task
	err := s.db.InTx(ctx, func(q *sqlite.Queries) error {
		t, err := q.GetTask(ctx, userID, id)
		if err != nil {
			return err
		}
		if t == nil {
			return fmt.Errorf("%w: task %d", domain.ErrNotFound, id)
		}
		if p.Title != nil {
			if t.Title, err = parseTitle(*p.Title); err != nil {
				return err
			}
		}
		if p.Notes != nil {
			t.Notes = *p.Notes
		}
		if p.Theme != nil {
			if t.Theme, err = parseTheme(*p.Theme); err != nil {
				return err
			}
		}
		if p.Difficulty != nil {
			if t.Difficulty, err = parseDifficulty(*p.Difficulty); err != nil {
				return err
			}
			t.XPReward = t.Difficulty.XPReward()
		}
		if p.DueDate != nil {
			due := domain.DateOf(*p.DueDate, time.UTC)
			t.DueDate = &due
		}
		if p.Deadline != nil {
			t.Deadline = p.Deadline
		}
		if err := q.SaveTask(ctx, *t); err != nil {
			return err
		}
		out = *t
		return nil
	})
	return out, err
}

// DeleteTask removes a task and its subtasks.
func (s *Service) DeleteTask(ctx context.Context, userID string, id int64) error {
	if err := s.db.DeleteTask(ctx, userID, id); err != nil {
		return fmt.Errorf("task %d: %w", id, err)
	}
	return nil
}

// ListTasks returns a user's tasks, newest first.
func (s *Service) ListTasks(ctx context.Context, userID string) ([]domain.Task, error) {
	if _, err := loadProfile(ctx, s.db.Queries, userID); err != nil {
		return nil, err
	}
	tasks, err := s.db.ListTasks(ctx, userID)
	if err != nil {
		return nil, err
	}
	if tasks == nil {
		tasks = []domain.Task{}
	}
	return tasks, nil
}

// GetTask returns one task with its subtasks.
func (s *Service) GetTask(ctx context.Context, userID string, id int64) (domain.Task, error) {
	t, err := s.db.GetTask(ctx, userID, id)
	if err != nil {
		return domain.Task{}, err
	}
	if t == nil {
		return domain.Task{}, fmt.Errorf("%w: task %d", domain.ErrNotFound, id)
	}
	return *t, nil
}

// AddSubtask appends a subtask to a task the user owns.
func (s *Service) AddSubtask(ctx context.Context, userID string, taskID int64, description string) (domain.Subtask, error) {
	desc := strings.TrimSpace(description)
	if desc == "" {
		return domain.Subtask{}, fmt.Errorf("%w: subtask description is required", domain.ErrInvalidArgument)
	}

	var out domain.Subtask
	err := s.db.InTx(ctx, func(q *sqlite.Queries) error {
		t, err := q.GetTask(ctx, userID, taskID)
		if err != nil {
			return err
		}
		if t == nil {
			return fmt.Errorf("%w: task %d", domain.ErrNotFound, taskID)
		}
		out, err = q.InsertSubtask(ctx, taskID, desc)
		return err
	})
	return out, err
}

// IsOverdue reports whether t is late right now.
func (s *Service) IsOverdue(t domain.Task) bool {
	return t.Overdue(s.now().In(s.loc))
}
