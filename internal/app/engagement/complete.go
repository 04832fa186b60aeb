package engagement

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/focusquest/focusquest/internal/domain"
	"github.com/focusquest/focusquest/internal/infra/metrics"
	"github.com/focusquest/focusquest/internal/infra/sqlite"
)

// HabitCompletion is the outcome of CompleteHabit.
type HabitCompletion struct {
	XPAwarded   int64 `json:"xp_awarded"`
	TotalXP     int64 `json:"total_xp"`
	Level       int   `json:"level"`
	HabitID     int64 `json:"habit_id"`
	IsCompleted bool  `json:"is_completed"`
}

// TaskCompletion is the outcome of CompleteTask.
type TaskCompletion struct {
	Message   string `json:"message"`
	XPAwarded int64  `json:"xp_awarded"`
	TotalXP   int64  `json:"total_xp"`
	Level     int    `json:"level"`
}

// SubtaskToggle is the outcome of ToggleSubtask.
type SubtaskToggle struct {
	ID          int64 `json:"id"`
	IsCompleted bool  `json:"is_completed"`
}

// FocusResult is the outcome of RecordFocusSession.
type FocusResult struct {
	XPEarned  int64 `json:"xp_earned"`
	SessionID int64 `json:"session_id"`
}

const (
	msgTaskCompleted        = "Task completed"
	msgTaskAlreadyCompleted = "Task already completed"
)

// outcome is what a committed completion reports to metrics and logs.
type outcome struct {
	kind        string
	awarded     int64
	levelBefore int
	levelAfter  int
	streakReset bool
}

func (s *Service) observe(userID string, o outcome) {
	if o.streakReset {
		metrics.StreakResets.Inc()
	}
	if o.kind == "" {
		return
	}
	metrics.Completions.WithLabelValues(o.kind).Inc()
	metrics.XPAwarded.WithLabelValues(o.kind).Add(float64(o.awarded))
	if gained := o.levelAfter - o.levelBefore; gained > 0 {
		metrics.LevelUps.Add(float64(gained))
		s.logger.Info("level_up",
			zap.String("user_id", userID),
			zap.Int("from", o.levelBefore),
			zap.Int("to", o.levelAfter),
		)
	}
}

// ─── Habits ─────────────────────────────────────────────────────────────────

// CompleteHabit marks a habit done for the current period and awards its XP.
// A habit already completed this period returns zero XP and the current totals.
func (s *Service) CompleteHabit(ctx context.Context, userID string, habitID int64) (HabitCompletion, error) {
	var res HabitCompletion
	var out outcome
	today := s.today()

	err := s.db.InTx(ctx, func(q *sqlite.Queries) error {
		p, err := loadProfile(ctx, q, userID)
		if err != nil {
			return err
		}
		h, err := q.GetHabit(ctx, userID, habitID)
		if err != nil {
			return err
		}
		if h == nil {
			return fmt.Errorf("%w: habit %d", domain.ErrNotFound, habitID)
		}

		reconciled := Reconcile(*h, today)
		out.streakReset = h.CurrentStreak > 0 && reconciled.CurrentStreak == 0

		if reconciled.IsCompleted {
			if reconciled != *h {
				if err := q.SaveHabit(ctx, reconciled); err != nil {
					return err
				}
			}
			res = HabitCompletion{TotalXP: p.TotalXP, Level: p.Level, HabitID: h.ID, IsCompleted: true}
			return nil
		}

		habit := reconciled
		habit.IsCompleted = true
		if p.StreaksEnabled {
			habit = AdvanceStreak(habit, today)
		} else {
			habit.LastCompleted = &today
		}

		awarded, updated, err := Award(p, habit.XPReward, habit.Theme)
		if err != nil {
			return err
		}
		if err := q.SaveHabit(ctx, habit); err != nil {
			return err
		}
		if err := q.SaveProfile(ctx, updated); err != nil {
			return err
		}
		if err := record(ctx, q, userID, today, domain.MetricsDelta{XP: awarded, HabitsCompleted: 1}); err != nil {
			return err
		}

		out.kind = "habit"
		out.awarded = awarded
		out.levelBefore, out.levelAfter = p.Level, updated.Level
		res = HabitCompletion{
			XPAwarded:   awarded,
			TotalXP:     updated.TotalXP,
			Level:       updated.Level,
			HabitID:     habit.ID,
			IsCompleted: true,
		}
		return nil
	})
	if err != nil {
		return HabitCompletion{}, err
	}

	s.observe(userID, out)
	s.logger.Info("habit_completed",
		zap.String("user_id", userID),
		zap.Int64("habit_id", habitID),
		zap.Int64("xp_awarded", res.XPAwarded),
		zap.Int("level", res.Level),
	)
	return res, nil
}

// ─── Tasks ──────────────────────────────────────────────────────────────────

// CompleteTask marks a task and all of its subtasks done and awards its XP.
func (s *Service) CompleteTask(ctx context.Context, userID string, taskID int64) (TaskCompletion, error) {
	var res TaskCompletion
	var out outcome
	today := s.today()

	err := s.db.InTx(ctx, func(q *sqlite.Queries) error {
		p, err := loadProfile(ctx, q, userID)
		if err != nil {
			return err
		}
		t, err := q.GetTask(ctx, userID, taskID)
		if err != nil {
			return err
		}
		if t == nil {
			return fmt.Errorf("%w: task %d", domain.ErrNotFound, taskID)
		}

		if t.IsCompleted {
			res = TaskCompletion{Message: msgTaskAlreadyCompleted, TotalXP: p.TotalXP, Level: p.Level}
			return nil
		}

		t.IsCompleted = true
		if err := q.SaveTask(ctx, *t); err != nil {
			return err
		}
		if _, err := q.CompleteSubtasks(ctx, t.ID); err != nil {
			return err
		}

		awarded, updated, err := Award(p, t.XPReward, t.Theme)
		if err != nil {
			return err
		}
		if err := q.SaveProfile(ctx, updated); err != nil {
			return err
		}
		if err := record(ctx, q, userID, today, domain.MetricsDelta{XP: awarded, TasksCompleted: 1}); err != nil {
			return err
		}

		out.kind = "task"
		out.awarded = awarded
		out.levelBefore, out.levelAfter = p.Level, updated.Level
		res = TaskCompletion{
			Message:   msgTaskCompleted,
			XPAwarded: awarded,
			TotalXP:   updated.TotalXP,
			Level:     updated.Level,
		}
		return nil
	})
	if err != nil {
		return TaskCompletion{}, err
	}

	s.observe(userID, out)
	s.logger.Info("task_completed",
		zap.String("user_id", userID),
		zap.Int64("task_id", taskID),
		zap.Int64("xp_awarded", res.XPAwarded),
	)
	return res, nil
}

// ToggleSubtask flips a subtask's completion flag. No XP is involved.
func (s *Service) ToggleSubtask(ctx context.Context, userID string, subtaskID int64) (SubtaskToggle, error) {
	var res SubtaskToggle
	err := s.db.InTx(ctx, func(q *sqlite.Queries) error {
		st, err := q.GetSubtask(ctx, userID, subtaskID)
		if err != nil {
			return err
		}
		if st == nil {
			return fmt.Errorf("%w: subtask %d", domain.ErrNotFound, subtaskID)
		}
		next := !st.IsCompleted
		if err := q.SetSubtaskCompleted(ctx, st.ID, next); err != nil {
			return err
		}
		res = SubtaskToggle{ID: st.ID, IsCompleted: next}
		return nil
	})
	if err != nil {
		return SubtaskToggle{}, err
	}
	return res, nil
}

// ─── Focus ──────────────────────────────────────────────────────────────────

// RecordFocusSession stores a batch of focus blocks and awards one XP per
// minute across the batch. There is no completion flag and no theme bonus.
// sessions <= 0 is treated as a single session.
func (s *Service) RecordFocusSession(ctx context.Context, userID string, minutes, sessions int) (FocusResult, error) {
	if minutes <= 0 {
		return FocusResult{}, fmt.Errorf("%w: duration must be positive, got %d", domain.ErrInvalidArgument, minutes)
	}
	if sessions <= 0 {
		sessions = 1
	}

	var res FocusResult
	var out outcome
	now := s.now()
	today := domain.DateOf(now, s.loc)

	err := s.db.InTx(ctx, func(q *sqlite.Queries) error {
		p, err := loadProfile(ctx, q, userID)
		if err != nil {
			return err
		}

		session := domain.FocusSession{
			UserID:             userID,
			DurationMinutes:    minutes,
			SessionsCompleted:  sessions,
			MotivationSnapshot: p.Motivation,
			CreatedAt:          now.UTC(),
		}
		total := int64(session.TotalMinutes())

		awarded, updated, err := Award(p, total, domain.ThemeNone)
		if err != nil {
			return err
		}
		session.XPEarned = awarded

		id, err := q.InsertFocusSession(ctx, session)
		if err != nil {
			return err
		}
		if err := q.SaveProfile(ctx, updated); err != nil {
			return err
		}
		if err := record(ctx, q, userID, today, domain.MetricsDelta{XP: awarded, FocusMinutes: total}); err != nil {
			return err
		}

		out.kind = "focus"
		out.awarded = awarded
		out.levelBefore, out.levelAfter = p.Level, updated.Level
		res = FocusResult{XPEarned: awarded, SessionID: id}
		return nil
	})
	if err != nil {
		return FocusResult{}, err
	}

	s.observe(userID, out)
	s.logger.Info("focus_recorded",
		zap.String("user_id", userID),
		zap.Int("minutes", minutes),
		zap.Int("sessions", sessions),
		zap.Int64("xp_earned", res.XPEarned),
	)
	return res, nil
}

// ListFocusSessions returns a user's recent sessions, newest first.
func (s *Service) ListFocusSessions(ctx context.Context, userID string, limit int) ([]domain.FocusSession, error) {
	if _, err := loadProfile(ctx, s.db.Queries, userID); err != nil {
		return nil, err
	}
	return s.db.ListFocusSessions(ctx, userID, limit)
}

// ─── Shared steps ───────────────────────────────────────────────────────────

func loadProfile(ctx context.Context, q *sqlite.Queries, userID string) (domain.Profile, error) {
	p, err := q.GetProfile(ctx, userID)
	if err != nil {
		return domain.Profile{}, err
	}
	if p == nil {
		return domain.Profile{}, fmt.Errorf("%w: profile %s", domain.ErrNotFound, userID)
	}
	return *p, nil
}

// record adds an event to the user's row for day and refreshes the row's
// cached trailing-window sums from the rows actually stored.
func record(ctx context.Context, q *sqlite.Queries, userID string, day time.Time, d domain.MetricsDelta) error {
	if err := q.AddDailyMetrics(ctx, userID, day, d); err != nil {
		return fmt.Errorf("record metrics: %w", err)
	}
	start, end := WeekWindow(day)
	rows, err := q.ListDailyMetrics(ctx, userID, start, end)
	if err != nil {
		return fmt.Errorf("load metrics window: %w", err)
	}
	xp, focus := WeeklyTotals(rows, day)
	if err := q.SetWeeklyCache(ctx, userID, day, xp, focus); err != nil {
		return fmt.Errorf("cache weekly totals: %w", err)
	}
	return nil
}
