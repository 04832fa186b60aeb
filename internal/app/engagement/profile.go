package engagement

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/focusquest/focusquest/internal/domain"
	"github.com/focusquest/focusquest/internal/infra/sqlite"
)

// ProfileUpdate carries the user-editable profile fields. Nil leaves a field as is.
type ProfileUpdate struct {
	DisplayName         *string
	Motivation          *string
	PreferredTheme      *string
	XPEnabled           *bool
	StreaksEnabled      *bool
	LeaderboardsEnabled *bool
}

// CreateProfile registers a new user at level 1 and returns the profile.
func (s *Service) CreateProfile(ctx context.Context, displayName, theme string) (domain.Profile, error) {
	name := strings.TrimSpace(displayName)
	if name == "" {
		return domain.Profile{}, fmt.Errorf("%w: display name is required", domain.ErrInvalidArgument)
	}
	t, ok := domain.ParseTheme(theme)
	if !ok {
		return domain.Profile{}, fmt.Errorf("%w: unknown theme %q", domain.ErrInvalidArgument, theme)
	}

	p := domain.NewProfile(uuid.NewString(), name, t, s.now().UTC())
	if err := s.db.InsertProfile(ctx, p); err != nil {
		return domain.Profile{}, fmt.Errorf("insert profile: %w", err)
	}
	s.logger.Info("profile_created", zap.String("user_id", p.UserID))
	return p, nil
}

// GetProfile returns a user's profile.
func (s *Service) GetProfile(ctx context.Context, userID string) (domain.Profile, error) {
	return loadProfile(ctx, s.db.Queries, userID)
}

// ListProfiles returns every profile ordered by display name.
func (s *Service) ListProfiles(ctx context.Context) ([]domain.Profile, error) {
	profiles, err := s.db.ListProfiles(ctx)
	if err != nil {
		return nil, fmt.Errorf("list profiles: %w", err)
	}
	return profiles, nil
}

// UpdateProfile applies u. XP and level fields are never written from here.
func (s *Service) UpdateProfile(ctx context.Context, userID string, u ProfileUpdate) (domain.Profile, error) {
	var out domain.Profile
	err := s.db.InTx(ctx, func(q *sqlite.Queries) error {
		p, err := loadProfile(ctx, q, userID)
		if err != nil {
			return err
		}
		if u.DisplayName != nil {
			name := strings.TrimSpace(*u.DisplayName)
			if name == "" {
				return fmt.Errorf("%w: display name must not be empty", domain.ErrInvalidArgument)
			}
			p.DisplayName = name
		}
		if u.Motivation != nil {
			p.Motivation = *u.Motivation
		}
		if u.PreferredTheme != nil {
			t, ok := domain.ParseTheme(*u.PreferredTheme)
			if !ok {
				return fmt.Errorf("%w: unknown theme %q", domain.ErrInvalidArgument, *u.PreferredTheme)
			}
			p.PreferredTheme = t
		}
		if u.XPEnabled != nil {
			p.XPEnabled = *u.XPEnabled
		}
		if u.StreaksEnabled != nil {
			p.StreaksEnabled = *u.StreaksEnabled
		}
		if u.LeaderboardsEnabled != nil {
			p.LeaderboardsEnabled = *u.LeaderboardsEnabled
		}
		if err := q.SaveProfile(ctx, p); err != nil {
			return err
		}
		out = p
		return nil
	})
	return out, err
}

// RebuildProfile re-derives a profile's level fields from its total XP.
// It repairs rows whose level state drifted from the cumulative total.
func (s *Service) RebuildProfile(ctx context.Context, userID string) (domain.Profile, error) {
	var out domain.Profile
	err := s.db.InTx(ctx, func(q *sqlite.Queries) error {
		p, err := loadProfile(ctx, q, userID)
		if err != nil {
			return err
		}
		out = RebuildLevel(p)
		return q.SaveProfile(ctx, out)
	})
	if err != nil {
		return domain.Profile{}, err
	}
	s.logger.Info("profile_rebuilt", zap.String("user_id", userID), zap.Int("level", out.Level))
	return out, nil
}
