package sqlite

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/focusquest/focusquest/internal/domain"
)

func newTestDB(t *testing.T) *DB {
	t.Helper()
	dir := t.TempDir()
	db, err := Open(dir)
	if err != nil {
		t.Fatalf("Open() error: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func seedProfile(t *testing.T, db *DB, id, name string) domain.Profile {
	t.Helper()
	p := domain.NewProfile(id, name, domain.ThemeStudies, time.Unix(1_700_000_000, 0).UTC())
	if err := db.InsertProfile(context.Background(), p); err != nil {
		t.Fatalf("InsertProfile(%s) error: %v", id, err)
	}
	return p
}

func day(s string) time.Time {
	d, err := domain.ParseDate(s)
	if err != nil {
		panic(err)
	}
	return d
}

// ─── Database Lifecycle ─────────────────────────────────────────────────────

func TestOpen_CreatesDatabase(t *testing.T) {
	dir := t.TempDir()
	db, err := Open(dir)
	if err != nil {
		t.Fatalf("Open() error: %v", err)
	}
	defer db.Close()

	if _, err := os.Stat(filepath.Join(dir, "focusquest.db")); os.IsNotExist(err) {
		t.Error("focusquest.db should exist")
	}
}

func TestOpen_Ping(t *testing.T) {
	db := newTestDB(t)
	if err := db.Ping(); err != nil {
		t.Fatalf("Ping() error: %v", err)
	}
}

func TestOpen_Reopen(t *testing.T) {
	dir := t.TempDir()
	db, err := Open(dir)
	if err != nil {
		t.Fatalf("Open() error: %v", err)
	}
	seedProfile(t, db, "u1", "Ada")
	db.Close()

	db, err = Open(dir)
	if err != nil {
		t.Fatalf("second Open() error: %v", err)
	}
	defer db.Close()

	got, err := db.GetProfile(context.Background(), "u1")
	if err != nil || got == nil {
		t.Fatalf("GetProfile after reopen = %v, %v", got, err)
	}
}

// ─── Profiles ───────────────────────────────────────────────────────────────

func TestProfile_RoundTrip(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	seedProfile(t, db, "u1", "Ada")

	got, err := db.GetProfile(ctx, "u1")
	if err != nil {
		t.Fatalf("GetProfile() error: %v", err)
	}
	if got == nil {
		t.Fatal("GetProfile() returned nil")
	}
	if got.Level != 1 || got.XPForNextLevel != 100 {
		t.Errorf("level state = %d/%d, want 1/100", got.Level, got.XPForNextLevel)
	}
	if !got.XPEnabled || !got.StreaksEnabled || !got.LeaderboardsEnabled {
		t.Error("feature toggles should default on")
	}
	if got.PreferredTheme != domain.ThemeStudies {
		t.Errorf("PreferredTheme = %q", got.PreferredTheme)
	}

	got.TotalXP = 130
	got.Level = 2
	got.CurrentLevelXP = 30
	got.XPForNextLevel = 125
	got.Motivation = "ship it"
	if err := db.SaveProfile(ctx, *got); err != nil {
		t.Fatalf("SaveProfile() error: %v", err)
	}

	again, _ := db.GetProfile(ctx, "u1")
	if again.TotalXP != 130 || again.Level != 2 || again.Motivation != "ship it" {
		t.Errorf("after save = %+v", again)
	}
}

func TestListProfiles(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	empty, err := db.ListProfiles(ctx)
	if err != nil || len(empty) != 0 {
		t.Fatalf("ListProfiles() on empty db = %v, %v", empty, err)
	}

	seedProfile(t, db, "u2", "Bob")
	seedProfile(t, db, "u1", "Ada")
	got, err := db.ListProfiles(ctx)
	if err != nil {
		t.Fatalf("ListProfiles() error: %v", err)
	}
	if len(got) != 2 || got[0].UserID != "u1" || got[1].UserID != "u2" {
		t.Errorf("ListProfiles() = %+v, want Ada then Bob", got)
	}
}

func TestGetProfile_NotFound(t *testing.T) {
	db := newTestDB(t)
	got, err := db.GetProfile(context.Background(), "nobody")
	if err != nil {
		t.Fatalf("GetProfile() error: %v", err)
	}
	if got != nil {
		t.Error("expected nil for missing profile")
	}
}

func TestSaveProfile_NotFound(t *testing.T) {
	db := newTestDB(t)
	p := domain.NewProfile("ghost", "Ghost", domain.ThemeNone, time.Now())
	if err := db.SaveProfile(context.Background(), p); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("SaveProfile() = %v, want ErrNotFound", err)
	}
}

func TestProfile_RejectsNegativeXP(t *testing.T) {
	db := newTestDB(t)
	p := seedProfile(t, db, "u1", "Ada")
	p.TotalXP = -1
	if err := db.SaveProfile(context.Background(), p); err == nil {
		t.Error("negative total_xp should violate CHECK")
	}
}

// ─── Habits ─────────────────────────────────────────────────────────────────

func TestHabit_CRUD(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	seedProfile(t, db, "u1", "Ada")

	h := domain.Habit{
		UserID:     "u1",
		Title:      "Read",
		Theme:      domain.ThemeStudies,
		Difficulty: domain.DifficultyHard,
		Frequency:  domain.FrequencyDaily,
		XPReward:   50,
	}
	id, err := db.InsertHabit(ctx, h)
	if err != nil {
		t.Fatalf("InsertHabit() error: %v", err)
	}

	got, err := db.GetHabit(ctx, "u1", id)
	if err != nil || got == nil {
		t.Fatalf("GetHabit() = %v, %v", got, err)
	}
	if got.LastCompleted != nil {
		t.Error("LastCompleted should start nil")
	}

	last := day("2024-03-10")
	got.IsCompleted = true
	got.LastCompleted = &last
	got.CurrentStreak = 3
	got.LongestStreak = 5
	if err := db.SaveHabit(ctx, *got); err != nil {
		t.Fatalf("SaveHabit() error: %v", err)
	}

	again, _ := db.GetHabit(ctx, "u1", id)
	if again.LastCompleted == nil || !again.LastCompleted.Equal(last) {
		t.Errorf("LastCompleted = %v, want %v", again.LastCompleted, last)
	}
	if again.CurrentStreak != 3 || again.LongestStreak != 5 || !again.IsCompleted {
		t.Errorf("streak state = %+v", again)
	}

	if err := db.DeleteHabit(ctx, "u1", id); err != nil {
		t.Fatalf("DeleteHabit() error: %v", err)
	}
	if err := db.DeleteHabit(ctx, "u1", id); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("second DeleteHabit() = %v, want ErrNotFound", err)
	}
}

func TestHabit_ScopedToOwner(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	seedProfile(t, db, "u1", "Ada")
	seedProfile(t, db, "u2", "Bob")

	id, _ := db.InsertHabit(ctx, domain.Habit{UserID: "u1", Title: "Run", Difficulty: "easy", Frequency: "daily", XPReward: 10})

	got, err := db.GetHabit(ctx, "u2", id)
	if err != nil {
		t.Fatalf("GetHabit() error: %v", err)
	}
	if got != nil {
		t.Error("another user's habit must not be visible")
	}
	if err := db.DeleteHabit(ctx, "u2", id); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("DeleteHabit(other user) = %v, want ErrNotFound", err)
	}
}

func TestHabit_LongestBelowCurrentRejected(t *testing.T) {
	db := newTestDB(t)
	seedProfile(t, db, "u1", "Ada")
	_, err := db.InsertHabit(context.Background(), domain.Habit{
		UserID: "u1", Title: "Bad", Difficulty: "easy", Frequency: "daily",
		CurrentStreak: 4, LongestStreak: 2,
	})
	if err == nil {
		t.Error("longest_streak < current_streak should violate CHECK")
	}
}

func TestListLeaderboardHabits(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	seedProfile(t, db, "u1", "Ada")
	p2 := seedProfile(t, db, "u2", "Bob")
	seedProfile(t, db, "u3", "Cy")

	db.InsertHabit(ctx, domain.Habit{UserID: "u1", Title: "a", Difficulty: "easy", Frequency: "daily", CurrentStreak: 2, LongestStreak: 2})
	db.InsertHabit(ctx, domain.Habit{UserID: "u1", Title: "b", Difficulty: "easy", Frequency: "daily", CurrentStreak: 4, LongestStreak: 4})
	db.InsertHabit(ctx, domain.Habit{UserID: "u2", Title: "c", Difficulty: "easy", Frequency: "daily", CurrentStreak: 9, LongestStreak: 9})

	p2.LeaderboardsEnabled = false
	db.SaveProfile(ctx, p2)

	owners, err := db.ListLeaderboardHabits(ctx)
	if err != nil {
		t.Fatalf("ListLeaderboardHabits() error: %v", err)
	}

	habits := map[string]int{}
	for _, o := range owners {
		if o.UserID == "u2" {
			t.Error("opted-out user must not appear")
		}
		if _, ok := habits[o.UserID]; !ok {
			habits[o.UserID] = 0
		}
		if o.Habit != nil {
			habits[o.UserID]++
		}
	}
	if habits["u1"] != 2 {
		t.Errorf("u1 habits = %d, want 2", habits["u1"])
	}
	if _, ok := habits["u3"]; !ok {
		t.Error("participant without habits should still be listed")
	}
}

// ─── Tasks & Subtasks ───────────────────────────────────────────────────────

func TestTask_WithSubtasks(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	seedProfile(t, db, "u1", "Ada")

	due := day("2024-04-01")
	id, err := db.InsertTask(ctx, domain.Task{
		UserID:     "u1",
		Title:      "Essay",
		Difficulty: domain.DifficultyMedium,
		XPReward:   25,
		DueDate:    &due,
		CreatedAt:  time.Unix(1_700_000_000, 0).UTC(),
		Subtasks: []domain.Subtask{
			{Description: "outline"},
			{Description: "draft"},
		},
	})
	if err != nil {
		t.Fatalf("InsertTask() error: %v", err)
	}

	got, err := db.GetTask(ctx, "u1", id)
	if err != nil || got == nil {
		t.Fatalf("GetTask() = %v, %v", got, err)
	}
	if len(got.Subtasks) != 2 {
		t.Fatalf("subtasks = %d, want 2", len(got.Subtasks))
	}
	if got.Subtasks[0].Description != "outline" || got.Subtasks[1].Position != 1 {
		t.Errorf("subtask order = %+v", got.Subtasks)
	}
	if got.DueDate == nil || !got.DueDate.Equal(due) {
		t.Errorf("DueDate = %v", got.DueDate)
	}
	if got.Deadline != nil {
		t.Error("Deadline should be nil")
	}

	st, err := db.InsertSubtask(ctx, id, "polish")
	if err != nil {
		t.Fatalf("InsertSubtask() error: %v", err)
	}
	if st.Position != 2 {
		t.Errorf("appended position = %d, want 2", st.Position)
	}

	n, err := db.CompleteSubtasks(ctx, id)
	if err != nil {
		t.Fatalf("CompleteSubtasks() error: %v", err)
	}
	if n != 3 {
		t.Errorf("completed = %d, want 3", n)
	}
	got, _ = db.GetTask(ctx, "u1", id)
	for _, s := range got.Subtasks {
		if !s.IsCompleted {
			t.Errorf("subtask %d not completed", s.ID)
		}
	}
}

func TestListTasks_AttachesSubtasks(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	seedProfile(t, db, "u1", "Ada")

	now := time.Unix(1_700_000_000, 0).UTC()
	a, _ := db.InsertTask(ctx, domain.Task{UserID: "u1", Title: "A", Difficulty: "easy", CreatedAt: now,
		Subtasks: []domain.Subtask{{Description: "a1"}}})
	b, _ := db.InsertTask(ctx, domain.Task{UserID: "u1", Title: "B", Difficulty: "easy", CreatedAt: now.Add(time.Hour)})

	tasks, err := db.ListTasks(ctx, "u1")
	if err != nil {
		t.Fatalf("ListTasks() error: %v", err)
	}
	if len(tasks) != 2 {
		t.Fatalf("tasks = %d, want 2", len(tasks))
	}
	if tasks[0].ID != b || tasks[1].ID != a {
		t.Errorf("order = %d,%d; want newest first", tasks[0].ID, tasks[1].ID)
	}
	if len(tasks[1].Subtasks) != 1 || len(tasks[0].Subtasks) != 0 {
		t.Errorf("subtasks attached wrongly: %+v", tasks)
	}
}

func TestDeleteTask_CascadesSubtasks(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	seedProfile(t, db, "u1", "Ada")

	id, _ := db.InsertTask(ctx, domain.Task{UserID: "u1", Title: "A", Difficulty: "easy", CreatedAt: time.Now(),
		Subtasks: []domain.Subtask{{Description: "a1"}}})
	task, _ := db.GetTask(ctx, "u1", id)
	subID := task.Subtasks[0].ID

	if err := db.DeleteTask(ctx, "u1", id); err != nil {
		t.Fatalf("DeleteTask() error: %v", err)
	}
	st, err := db.GetSubtask(ctx, "u1", subID)
	if err != nil {
		t.Fatalf("GetSubtask() error: %v", err)
	}
	if st != nil {
		t.Error("subtask should be deleted with its task")
	}
}

func TestGetSubtask_ScopedToTaskOwner(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	seedProfile(t, db, "u1", "Ada")
	seedProfile(t, db, "u2", "Bob")

	id, _ := db.InsertTask(ctx, domain.Task{UserID: "u1", Title: "A", Difficulty: "easy", CreatedAt: time.Now(),
		Subtasks: []domain.Subtask{{Description: "a1"}}})
	task, _ := db.GetTask(ctx, "u1", id)
	subID := task.Subtasks[0].ID

	if st, _ := db.GetSubtask(ctx, "u2", subID); st != nil {
		t.Error("subtask of another user's task must not be visible")
	}
	st, _ := db.GetSubtask(ctx, "u1", subID)
	if st == nil {
		t.Fatal("owner should see subtask")
	}
	if err := db.SetSubtaskCompleted(ctx, subID, true); err != nil {
		t.Fatalf("SetSubtaskCompleted() error: %v", err)
	}
	st, _ = db.GetSubtask(ctx, "u1", subID)
	if !st.IsCompleted {
		t.Error("subtask should be completed")
	}
}

// ─── Focus Sessions ─────────────────────────────────────────────────────────

func TestFocusSessions(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	seedProfile(t, db, "u1", "Ada")

	base := time.Unix(1_700_000_000, 0).UTC()
	for i := 0; i < 3; i++ {
		_, err := db.InsertFocusSession(ctx, domain.FocusSession{
			UserID: "u1", DurationMinutes: 25, SessionsCompleted: i + 1,
			XPEarned: int64(25 * (i + 1)), CreatedAt: base.Add(time.Duration(i) * time.Minute),
		})
		if err != nil {
			t.Fatalf("InsertFocusSession() error: %v", err)
		}
	}

	all, err := db.ListFocusSessions(ctx, "u1", 0)
	if err != nil {
		t.Fatalf("ListFocusSessions() error: %v", err)
	}
	if len(all) != 3 {
		t.Fatalf("sessions = %d, want 3", len(all))
	}
	if all[0].SessionsCompleted != 3 {
		t.Errorf("newest first: got %+v", all[0])
	}

	two, _ := db.ListFocusSessions(ctx, "u1", 2)
	if len(two) != 2 {
		t.Errorf("limited = %d, want 2", len(two))
	}
}

func TestFocusSession_RejectsZeroDuration(t *testing.T) {
	db := newTestDB(t)
	seedProfile(t, db, "u1", "Ada")
	_, err := db.InsertFocusSession(context.Background(), domain.FocusSession{
		UserID: "u1", DurationMinutes: 0, SessionsCompleted: 1, CreatedAt: time.Now(),
	})
	if err == nil {
		t.Error("zero duration should violate CHECK")
	}
}

// ─── Daily Metrics ──────────────────────────────────────────────────────────

func TestAddDailyMetrics_Accumulates(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	seedProfile(t, db, "u1", "Ada")
	d := day("2024-03-10")

	db.AddDailyMetrics(ctx, "u1", d, domain.MetricsDelta{XP: 50, HabitsCompleted: 1})
	db.AddDailyMetrics(ctx, "u1", d, domain.MetricsDelta{XP: 25, TasksCompleted: 1})
	db.AddDailyMetrics(ctx, "u1", d, domain.MetricsDelta{XP: 30, FocusMinutes: 30})

	m, err := db.GetDailyMetrics(ctx, "u1", d)
	if err != nil || m == nil {
		t.Fatalf("GetDailyMetrics() = %v, %v", m, err)
	}
	if m.XPEarned != 105 || m.FocusMinutes != 30 || m.TasksCompleted != 1 || m.HabitsCompleted != 1 {
		t.Errorf("metrics = %+v", m)
	}
	if !m.Date.Equal(d) {
		t.Errorf("Date = %v, want %v", m.Date, d)
	}

	if err := db.SetWeeklyCache(ctx, "u1", d, 200, 45); err != nil {
		t.Fatalf("SetWeeklyCache() error: %v", err)
	}
	m, _ = db.GetDailyMetrics(ctx, "u1", d)
	if m.WeeklyXP != 200 || m.WeeklyFocusMinutes != 45 {
		t.Errorf("weekly cache = %d/%d", m.WeeklyXP, m.WeeklyFocusMinutes)
	}

	var rows int
	db.db.QueryRow(`SELECT COUNT(*) FROM daily_metrics WHERE user_id = 'u1'`).Scan(&rows)
	if rows != 1 {
		t.Errorf("rows = %d, want 1 per (user, date)", rows)
	}
}

func TestListDailyMetrics_Range(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	seedProfile(t, db, "u1", "Ada")

	for _, s := range []string{"2024-03-01", "2024-03-05", "2024-03-09", "2024-03-12"} {
		db.AddDailyMetrics(ctx, "u1", day(s), domain.MetricsDelta{XP: 10})
	}

	rows, err := db.ListDailyMetrics(ctx, "u1", day("2024-03-05"), day("2024-03-11"))
	if err != nil {
		t.Fatalf("ListDailyMetrics() error: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("rows = %d, want 2", len(rows))
	}
	if domain.FormatDate(rows[0].Date) != "2024-03-05" || domain.FormatDate(rows[1].Date) != "2024-03-09" {
		t.Errorf("dates = %v, %v", rows[0].Date, rows[1].Date)
	}
}

func TestWindowLeaderboard(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	seedProfile(t, db, "a", "Ada")
	seedProfile(t, db, "b", "Bob")
	seedProfile(t, db, "c", "Cy")
	hidden := seedProfile(t, db, "d", "Dee")
	hidden.LeaderboardsEnabled = false
	db.SaveProfile(ctx, hidden)

	today := day("2024-03-10")
	db.AddDailyMetrics(ctx, "a", today, domain.MetricsDelta{XP: 40, FocusMinutes: 10})
	db.AddDailyMetrics(ctx, "a", day("2024-03-04"), domain.MetricsDelta{XP: 40})
	db.AddDailyMetrics(ctx, "a", day("2024-03-03"), domain.MetricsDelta{XP: 500}) // outside window
	db.AddDailyMetrics(ctx, "b", today, domain.MetricsDelta{XP: 80, FocusMinutes: 90})
	db.AddDailyMetrics(ctx, "c", today, domain.MetricsDelta{XP: 10})
	db.AddDailyMetrics(ctx, "d", today, domain.MetricsDelta{XP: 999})

	from, to := day("2024-03-04"), today
	xp, err := db.WindowLeaderboard(ctx, domain.BoardXP, from, to, 10)
	if err != nil {
		t.Fatalf("WindowLeaderboard(xp) error: %v", err)
	}
	want := []domain.LeaderboardEntry{
		{UserID: "a", Name: "Ada", Value: 80},
		{UserID: "b", Name: "Bob", Value: 80},
		{UserID: "c", Name: "Cy", Value: 10},
	}
	if len(xp) != len(want) {
		t.Fatalf("entries = %+v, want %+v", xp, want)
	}
	for i := range want {
		if xp[i] != want[i] {
			t.Errorf("entry[%d] = %+v, want %+v", i, xp[i], want[i])
		}
	}

	focus, _ := db.WindowLeaderboard(ctx, domain.BoardFocus, from, to, 1)
	if len(focus) != 1 || focus[0].Name != "Bob" || focus[0].Value != 90 {
		t.Errorf("focus board = %+v", focus)
	}

	if _, err := db.WindowLeaderboard(ctx, domain.BoardStreak, from, to, 10); !errors.Is(err, domain.ErrInvalidArgument) {
		t.Errorf("streak board via window = %v, want ErrInvalidArgument", err)
	}
}

// ─── Transactions ───────────────────────────────────────────────────────────

func TestInTx_RollsBackOnError(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	p := seedProfile(t, db, "u1", "Ada")

	boom := errors.New("metrics write failed")
	err := db.InTx(ctx, func(q *Queries) error {
		p.TotalXP = 50
		if err := q.SaveProfile(ctx, p); err != nil {
			return err
		}
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("InTx() = %v, want %v", err, boom)
	}

	got, _ := db.GetProfile(ctx, "u1")
	if got.TotalXP != 0 {
		t.Errorf("TotalXP = %d, want 0 after rollback", got.TotalXP)
	}
}

func TestInTx_Commits(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	p := seedProfile(t, db, "u1", "Ada")

	err := db.InTx(ctx, func(q *Queries) error {
		p.TotalXP = 50
		if err := q.SaveProfile(ctx, p); err != nil {
			return err
		}
		return q.AddDailyMetrics(ctx, "u1", day("2024-03-10"), domain.MetricsDelta{XP: 50})
	})
	if err != nil {
		t.Fatalf("InTx() error: %v", err)
	}

	got, _ := db.GetProfile(ctx, "u1")
	m, _ := db.GetDailyMetrics(ctx, "u1", day("2024-03-10"))
	if got.TotalXP != 50 || m == nil || m.XPEarned != 50 {
		t.Errorf("after commit profile=%d metrics=%+v", got.TotalXP, m)
	}
}
