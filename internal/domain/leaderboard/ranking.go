package leaderboard

import "sort"

// ══════════════════════════════════════════════════════════════════════════════
// RANK
// ══════════════════════════════════════════════════════════════════════════════

// Rank - позиция в рейтинге (1 = первое место).
type Rank int

// IsValid проверяет, что ранг положительный.
func (r Rank) IsValid() bool {
	return r > 0
}

// RankFromCount переводит число обгоняющих пользователей в ранг.
func RankFromCount(outranking int) Rank {
	return Rank(outranking + 1)
}

// RankedScore - оценка с присвоенным рангом.
type RankedScore struct {
	Rank  Rank
	Score Score
}

// ══════════════════════════════════════════════════════════════════════════════
// TOP-K
// ══════════════════════════════════════════════════════════════════════════════

// DefaultLimit - размер страницы рейтинга по умолчанию.
const DefaultLimit = 50

// RankScores сортирует оценки единым компаратором, присваивает плотные ранги
// rank = index + 1 и обрезает результат до limit. limit <= 0 означает DefaultLimit.
// Входной срез не изменяется.
func RankScores(scores []Score, limit int) []RankedScore {
	return RankScoresBy(scores, limit, Compare)
}

// RankScoresBy - то же, что RankScores, с явным компаратором стратегии.
func RankScoresBy(scores []Score, limit int, cmp func(a, b Score) int) []RankedScore {
	if limit <= 0 {
		limit = DefaultLimit
	}

	sorted := make([]Score, len(scores))
	copy(sorted, scores)
	sort.Slice(sorted, func(i, j int) bool {
		return cmp(sorted[i], sorted[j]) < 0
	})

	if len(sorted) > limit {
		sorted = sorted[:limit]
	}

	ranked := make([]RankedScore, len(sorted))
	for i, s := range sorted {
		ranked[i] = RankedScore{Rank: Rank(i + 1), Score: s}
	}
	return ranked
}

// FindUser ищет пользователя на странице.
func FindUser(page []RankedScore, userID string) (RankedScore, bool) {
	for _, rs := range page {
		if rs.Score.UserID == userID {
			return rs, true
		}
	}
	return RankedScore{}, false
}

// ══════════════════════════════════════════════════════════════════════════════
// RANK LOCATION
// ══════════════════════════════════════════════════════════════════════════════

// CountOutranking считает оценки из population, которые строго выше target.
// Запись самого target (по UserID) не учитывается.
func CountOutranking(population []Score, target Score) int {
	n := 0
	for _, s := range population {
		if s.UserID != target.UserID && Outranks(s, target) {
			n++
		}
	}
	return n
}

// LocateRank возвращает ранг target внутри population без сортировки.
// Результат совпадает с индексом+1, который target получил бы в RankScores.
func LocateRank(population []Score, target Score) Rank {
	return RankFromCount(CountOutranking(population, target))
}
