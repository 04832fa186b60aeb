package engagement

import "github.com/focusquest/focusquest/internal/domain"

// ThemeBonusMultiplier applies when an item's theme matches the user's preference.
const ThemeBonusMultiplier = 1.5

// ResolveBonus returns the XP to award for base. Only a set item theme equal
// to the preferred theme earns the bonus; the result is truncated toward zero.
func ResolveBonus(base int64, preferred, item domain.Theme) int64 {
	if item == domain.ThemeNone || item != preferred {
		return base
	}
	// base * 1.5 without going through floats.
	return base * 3 / 2
}
