package engagement

import (
	"time"

	"github.com/focusquest/focusquest/internal/domain"
)

// WindowDays is the length of the trailing window leaderboards rank over.
const WindowDays = 7

// WeekWindow returns the inclusive [start, end] of the trailing window ending on day.
func WeekWindow(day time.Time) (time.Time, time.Time) {
	return day.AddDate(0, 0, -(WindowDays - 1)), day
}

// ApplyDelta adds d to the running totals of m.
func ApplyDelta(m domain.DailyMetrics, d domain.MetricsDelta) domain.DailyMetrics {
	m.XPEarned += d.XP
	m.FocusMinutes += d.FocusMinutes
	m.TasksCompleted += d.TasksCompleted
	m.HabitsCompleted += d.HabitsCompleted
	return m
}

// WeeklyTotals sums XP and focus minutes over rows falling inside the
// trailing window ending on day. Rows outside the window are ignored, so the
// input may be any superset.
func WeeklyTotals(rows []domain.DailyMetrics, day time.Time) (xp, focus int64) {
	start, end := WeekWindow(day)
	for _, r := range rows {
		if r.Date.Before(start) || r.Date.After(end) {
			continue
		}
		xp += r.XPEarned
		focus += r.FocusMinutes
	}
	return xp, focus
}

// ProgressSeries builds one point per day of the trailing window ending on
// today. Each point's WeeklyXP is the trailing sum ending on that point's day;
// days without a row report zeros.
func ProgressSeries(rows []domain.DailyMetrics, today time.Time) []domain.ProgressPoint {
	byDate := make(map[string]domain.DailyMetrics, len(rows))
	for _, r := range rows {
		byDate[domain.FormatDate(r.Date)] = r
	}

	start, _ := WeekWindow(today)
	points := make([]domain.ProgressPoint, 0, WindowDays)
	for i := 0; i < WindowDays; i++ {
		day := start.AddDate(0, 0, i)
		key := domain.FormatDate(day)
		row := byDate[key]
		weeklyXP, _ := WeeklyTotals(rows, day)
		points = append(points, domain.ProgressPoint{
			Date:         key,
			Label:        day.Format("02 Jan"),
			WeeklyXP:     weeklyXP,
			FocusMinutes: row.FocusMinutes,
			StreakProxy:  row.HabitsCompleted,
		})
	}
	return points
}
