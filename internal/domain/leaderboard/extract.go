package leaderboard

import "github.com/alem-hub/focus-leaderboard/internal/domain/profile"

// XPScore: level - главный ключ, xp внутри уровня - вторичный, totalXP - значение.
func XPScore(p *profile.UserProfile) Score {
	return Score{
		UserID:   p.ID,
		Primary:  int64(p.Level),
		TieBreak: int64(p.XP),
		Value:    int64(p.TotalXP()),
		XP:       p.XP,
	}
}

// StreakScore: лучшая серия - главный ключ, текущая - вторичный.
func StreakScore(p *profile.UserProfile) Score {
	return Score{
		UserID:        p.ID,
		Primary:       int64(p.BestStreak),
		TieBreak:      int64(p.StreakDays),
		Value:         int64(p.BestStreak),
		CurrentStreak: p.StreakDays,
	}
}

// ProfileScore выбирает извлечение по порядку выборки профилей.
func ProfileScore(p *profile.UserProfile, order ProfileOrder) Score {
	if order == OrderByStreak {
		return StreakScore(p)
	}
	return XPScore(p)
}

// FocusScore: сумма секунд; число сессий только для отображения.
func FocusScore(t FocusTotal) Score {
	return Score{
		UserID:       t.UserID,
		Primary:      t.Seconds,
		Value:        t.Seconds,
		SessionCount: t.Sessions,
	}
}

// TaskScore: число завершённых задач, без вторичного ключа.
func TaskScore(t TaskTotal) Score {
	return Score{
		UserID:  t.UserID,
		Primary: t.Completed,
		Value:   t.Completed,
	}
}
