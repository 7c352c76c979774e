// Package profile содержит доменную модель профиля пользователя.
// Профилем владеет внешнее хранилище; движок рейтинга только читает его.
package profile

import (
	"strings"

	"github.com/alem-hub/focus-leaderboard/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// CONSTANTS
// ══════════════════════════════════════════════════════════════════════════════

const (
	// XPPerLevel - сколько очков опыта нужно для перехода на следующий уровень.
	// Поле xp обнуляется при каждом повышении уровня.
	XPPerLevel = 100

	// MinLevel - минимальный уровень пользователя.
	MinLevel = 1

	// DefaultDisplayName показывается, если пользователь не указал имя.
	DefaultDisplayName = "Anonymous"
)

// TotalXP возвращает каноническое сравнимое значение опыта.
// xp само по себе никогда не сравнивается между разными уровнями.
func TotalXP(level, xp int) int {
	return (level-MinLevel)*XPPerLevel + xp
}

// ══════════════════════════════════════════════════════════════════════════════
// USER PROFILE
// ══════════════════════════════════════════════════════════════════════════════

// UserProfile - профиль пользователя в том виде, в котором его видит рейтинг.
type UserProfile struct {
	ID         string
	Name       string
	Username   string
	Email      string
	Avatar     string
	Level      int
	XP         int
	Country    string
	StreakDays int
	BestStreak int
}

// Validate проверяет инварианты уровня и опыта.
func (p *UserProfile) Validate() error {
	if p.Level < MinLevel {
		return shared.ErrInvalidLevel
	}
	if p.XP < 0 || p.XP >= XPPerLevel {
		return shared.ErrInvalidXP
	}
	return nil
}

// TotalXP возвращает суммарный опыт профиля.
func (p *UserProfile) TotalXP() int {
	return TotalXP(p.Level, p.XP)
}

// DisplayName возвращает имя для отображения в таблице.
func (p *UserProfile) DisplayName() string {
	if name := strings.TrimSpace(p.Name); name != "" {
		return name
	}
	return DefaultDisplayName
}

// Handle возвращает никнейм, а если он не задан - локальную часть email.
func (p *UserProfile) Handle() string {
	if u := strings.TrimSpace(p.Username); u != "" {
		return u
	}
	local, _, found := strings.Cut(p.Email, "@")
	if !found {
		return ""
	}
	return local
}

// HasCountry сообщает, указана ли страна в профиле.
func (p *UserProfile) HasCountry() bool {
	return p != nil && strings.TrimSpace(p.Country) != ""
}
