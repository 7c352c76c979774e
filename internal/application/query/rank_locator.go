package query

import (
	"context"
	"fmt"
	"time"

	"github.com/alem-hub/focus-leaderboard/internal/domain/leaderboard"
)

// ══════════════════════════════════════════════════════════════════════════════
// RANK LOCATOR
// Точный ранг пользователя вне страницы топ-K без материализации всего рейтинга:
// rank = (число допущенных пользователей, строго обгоняющих его) + 1.
// ══════════════════════════════════════════════════════════════════════════════

// RankLocator вычисляет ранг одного пользователя.
type RankLocator struct{}

// NewRankLocator создаёт локатор.
func NewRankLocator() *RankLocator {
	return &RankLocator{}
}

// Locate сначала получает собственную оценку пользователя, затем считает
// обгоняющих тем же предикатом, что и сортировка страницы.
func (l *RankLocator) Locate(
	ctx context.Context,
	strategy MetricStrategy,
	eligibility leaderboard.Eligibility,
	since time.Time,
	userID string,
) (leaderboard.RankedScore, error) {
	own, err := strategy.ScoreOf(ctx, userID, since)
	if err != nil {
		return leaderboard.RankedScore{}, err
	}

	q := leaderboard.AggregateQuery{Eligibility: eligibility, Since: since}
	above, err := strategy.CountOutranking(ctx, q, own)
	if err != nil {
		return leaderboard.RankedScore{}, err
	}

	rank := leaderboard.RankFromCount(above)
	if !rank.IsValid() {
		return leaderboard.RankedScore{}, fmt.Errorf("rank locator: store reported %d users above %s", above, userID)
	}
	return leaderboard.RankedScore{Rank: rank, Score: own}, nil
}
