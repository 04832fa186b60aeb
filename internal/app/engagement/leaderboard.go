package engagement

import (
	"context"
	"fmt"
	"sort"
	"time"

	"go.uber.org/zap"

	"github.com/focusquest/focusquest/internal/domain"
	"github.com/focusquest/focusquest/internal/infra/metrics"
)

// noCache is the LeaderboardCache used when none is configured.
type noCache struct{}

func (noCache) GetLeaderboard(context.Context, domain.LeaderboardKind, time.Time) ([]domain.LeaderboardEntry, bool, error) {
	return nil, false, nil
}

func (noCache) SetLeaderboard(context.Context, domain.LeaderboardKind, time.Time, []domain.LeaderboardEntry) error {
	return nil
}

// Leaderboard ranks leaderboard participants over the trailing window ending
// today. xp and focus sum daily metrics; streak takes each user's best
// current habit streak. Results are read through the cache, and concurrent
// misses for the same board share one database query.
func (s *Service) Leaderboard(ctx context.Context, kind string) ([]domain.LeaderboardEntry, error) {
	k, ok := domain.ParseLeaderboardKind(kind)
	if !ok {
		return nil, fmt.Errorf("%w: unknown leaderboard type %q", domain.ErrInvalidArgument, kind)
	}
	today := s.today()

	entries, hit, err := s.cache.GetLeaderboard(ctx, k, today)
	switch {
	case err != nil:
		metrics.LeaderboardCache.WithLabelValues("error").Inc()
		s.logger.Warn("leaderboard_cache_get_failed", zap.String("kind", string(k)), zap.Error(err))
	case hit:
		metrics.LeaderboardCache.WithLabelValues("hit").Inc()
		return entries, nil
	default:
		metrics.LeaderboardCache.WithLabelValues("miss").Inc()
	}

	key := string(k) + ":" + domain.FormatDate(today)
	// The shared call must outlive whichever caller started it.
	shared := context.WithoutCancel(ctx)
	v, err, _ := s.boards.Do(key, func() (any, error) {
		entries, err := s.computeLeaderboard(shared, k, today)
		if err != nil {
			return nil, err
		}
		if err := s.cache.SetLeaderboard(shared, k, today, entries); err != nil {
			s.logger.Warn("leaderboard_cache_set_failed", zap.String("kind", string(k)), zap.Error(err))
		}
		return entries, nil
	})
	if err != nil {
		return nil, err
	}
	return v.([]domain.LeaderboardEntry), nil
}

func (s *Service) computeLeaderboard(ctx context.Context, k domain.LeaderboardKind, today time.Time) ([]domain.LeaderboardEntry, error) {
	if k == domain.BoardStreak {
		return s.streakLeaderboard(ctx, today)
	}
	start, end := WeekWindow(today)
	entries, err := s.db.WindowLeaderboard(ctx, k, start, end, s.size)
	if err != nil {
		return nil, fmt.Errorf("%s leaderboard: %w", k, err)
	}
	if entries == nil {
		entries = []domain.LeaderboardEntry{}
	}
	return entries, nil
}

// streakLeaderboard reads stored streaks through Reconcile, so a streak
// broken by a missed day ranks as zero even if no one has listed the habit
// since.
func (s *Service) streakLeaderboard(ctx context.Context, today time.Time) ([]domain.LeaderboardEntry, error) {
	owners, err := s.db.ListLeaderboardHabits(ctx)
	if err != nil {
		return nil, fmt.Errorf("streak leaderboard: %w", err)
	}

	best := make(map[string]*domain.LeaderboardEntry)
	var order []string
	for _, o := range owners {
		if o.Habit == nil {
			continue // no habits, no streak to rank
		}
		e, ok := best[o.UserID]
		if !ok {
			e = &domain.LeaderboardEntry{UserID: o.UserID, Name: o.Name}
			best[o.UserID] = e
			order = append(order, o.UserID)
		}
		if v := int64(EffectiveStreak(*o.Habit, today)); v > e.Value {
			e.Value = v
		}
	}

	entries := make([]domain.LeaderboardEntry, 0, len(order))
	for _, id := range order {
		entries = append(entries, *best[id])
	}
	sort.SliceStable(entries, func(i, j int) bool {
		if entries[i].Value != entries[j].Value {
			return entries[i].Value > entries[j].Value
		}
		return entries[i].Name < entries[j].Name
	})
	if len(entries) > s.size {
		entries = entries[:s.size]
	}
	return entries, nil
}
