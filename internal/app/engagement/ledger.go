package engagement

import (
	"fmt"

	"github.com/focusquest/focusquest/internal/domain"
)

// Award applies a completion's base XP to a profile and returns the XP
// actually awarded with the updated profile. With XP tracking off it is a
// no-op. The caller persists the result inside the completion transaction.
func Award(p domain.Profile, base int64, itemTheme domain.Theme) (int64, domain.Profile, error) {
	if base < 0 {
		return 0, p, fmt.Errorf("%w: base xp must not be negative, got %d", domain.ErrInvalidArgument, base)
	}
	if !p.XPEnabled {
		return 0, p, nil
	}

	awarded := ResolveBonus(base, p.PreferredTheme, itemTheme)

	state, err := ApplyXP(levelOf(p), awarded)
	if err != nil {
		return 0, p, err
	}
	p = withLevel(p, state)
	p.TotalXP += awarded
	return awarded, p, nil
}

// RebuildLevel re-derives the level fields of p from its total XP.
func RebuildLevel(p domain.Profile) domain.Profile {
	return withLevel(p, LevelForTotal(p.TotalXP))
}
