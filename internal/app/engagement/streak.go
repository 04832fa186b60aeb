// Package engagement implements the FocusQuest engagement engine:
// leveling, theme bonuses, the XP ledger, habit streaks, daily metrics and
// the completion orchestrator that sequences them in one transaction.
//
// The rules are plain functions over domain values; Service adds storage.
package engagement

import (
	"time"

	"github.com/focusquest/focusquest/internal/domain"
)

// AdvanceStreak records a completion of h on today (a domain.DateOf value).
//
// Daily habits count calendar days and weekly habits count ISO weeks. Same
// period: already counted, no change. The next period: the streak continues.
// Anything else, including a first completion: restart at 1.
func AdvanceStreak(h domain.Habit, today time.Time) domain.Habit {
	if h.LastCompleted != nil {
		gap := domain.DaysBetween(*h.LastCompleted, today)
		if h.Frequency == domain.FrequencyWeekly {
			gap = weeksBetween(*h.LastCompleted, today)
		}
		switch gap {
		case 0:
			return h
		case 1:
			h.CurrentStreak++
		default:
			h.CurrentStreak = 1
		}
	} else {
		h.CurrentStreak = 1
	}

	if h.CurrentStreak > h.LongestStreak {
		h.LongestStreak = h.CurrentStreak
	}
	day := today
	h.LastCompleted = &day
	return h
}

// weeksBetween counts ISO week boundaries crossed from one date to another.
func weeksBetween(from, to time.Time) int {
	return domain.DaysBetween(weekStart(from), weekStart(to)) / 7
}

// weekStart returns the Monday of d's ISO week.
func weekStart(d time.Time) time.Time {
	offset := (int(d.Weekday()) + 6) % 7
	return d.AddDate(0, 0, -offset)
}

// Reconcile brings a habit's period state up to asOf. It is idempotent and
// must run before a habit is shown or completed.
//
// Daily habits last completed before today are open again, and a gap of more
// than one day zeroes the streak immediately rather than at the next
// completion. Weekly habits reopen once the ISO week changes; their streak is
// left alone.
func Reconcile(h domain.Habit, asOf time.Time) domain.Habit {
	if h.LastCompleted == nil {
		return h
	}
	last := *h.LastCompleted

	switch h.Frequency {
	case domain.FrequencyWeekly:
		if domain.ISOWeek(last) != domain.ISOWeek(asOf) && last.Before(asOf) {
			h.IsCompleted = false
		}
	default:
		gap := domain.DaysBetween(last, asOf)
		if gap >= 1 {
			h.IsCompleted = false
		}
		if gap > 1 {
			h.CurrentStreak = 0
		}
	}
	return h
}

// EffectiveStreak is the streak Reconcile would leave on h at asOf.
func EffectiveStreak(h domain.Habit, asOf time.Time) int {
	return Reconcile(h, asOf).CurrentStreak
}
