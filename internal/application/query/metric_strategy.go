package query

import (
	"context"
	"errors"
	"time"

	"github.com/alem-hub/focus-leaderboard/internal/domain/leaderboard"
	"github.com/alem-hub/focus-leaderboard/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// METRIC STRATEGY
// Агрегатор метрики: одна стратегия на метрику вместо ветки switch в каждом
// месте вызова. Новая метрика = новый тип + одна строка в реестре.
// ══════════════════════════════════════════════════════════════════════════════

// MetricStrategy выполняет сырую агрегацию одной метрики.
type MetricStrategy interface {
	// Metric возвращает метрику, которую обслуживает стратегия.
	Metric() leaderboard.Metric

	// Aggregate возвращает оценки допущенных пользователей за окно q.Since.
	Aggregate(ctx context.Context, q leaderboard.AggregateQuery) ([]leaderboard.Score, error)

	// ScoreOf возвращает оценку одного пользователя тем же запросом.
	ScoreOf(ctx context.Context, userID string, since time.Time) (leaderboard.Score, error)

	// CountOutranking считает допущенных пользователей, строго обгоняющих s.
	CountOutranking(ctx context.Context, q leaderboard.AggregateQuery, s leaderboard.Score) (int, error)

	// Compare - порядок по убыванию, общий для ранжирования и подсчёта.
	Compare(a, b leaderboard.Score) int
}

// orderedByDefault встраивается в стратегии и даёт общий компаратор.
type orderedByDefault struct{}

func (orderedByDefault) Compare(a, b leaderboard.Score) int {
	return leaderboard.Compare(a, b)
}

// ──────────────────────────────────────────────────────────────────────────────
// Profile-backed metrics (xp, streak)
// ──────────────────────────────────────────────────────────────────────────────

type profileStrategy struct {
	orderedByDefault
	metric   leaderboard.Metric
	order    leaderboard.ProfileOrder
	profiles leaderboard.ProfileReader
}

// NewXPStrategy создаёт стратегию для метрики xp.
func NewXPStrategy(profiles leaderboard.ProfileReader) MetricStrategy {
	return &profileStrategy{metric: leaderboard.MetricXP, order: leaderboard.OrderByLevelXP, profiles: profiles}
}

// NewStreakStrategy создаёт стратегию для метрики streak.
func NewStreakStrategy(profiles leaderboard.ProfileReader) MetricStrategy {
	return &profileStrategy{metric: leaderboard.MetricStreak, order: leaderboard.OrderByStreak, profiles: profiles}
}

func (s *profileStrategy) Metric() leaderboard.Metric { return s.metric }

func (s *profileStrategy) Aggregate(ctx context.Context, q leaderboard.AggregateQuery) ([]leaderboard.Score, error) {
	rows, err := s.profiles.RankProfiles(ctx, q, s.order)
	if err != nil {
		return nil, shared.StoreFailure("leaderboard", "Aggregate", err)
	}
	scores := make([]leaderboard.Score, 0, len(rows))
	for _, p := range rows {
		scores = append(scores, leaderboard.ProfileScore(p, s.order))
	}
	return scores, nil
}

// ScoreOf для профильных метрик не зависит от окна: значение хранится в профиле.
func (s *profileStrategy) ScoreOf(ctx context.Context, userID string, _ time.Time) (leaderboard.Score, error) {
	p, err := s.profiles.GetProfile(ctx, userID)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return leaderboard.Score{}, err
		}
		return leaderboard.Score{}, shared.StoreFailure("leaderboard", "ScoreOf", err)
	}
	return leaderboard.ProfileScore(p, s.order), nil
}

func (s *profileStrategy) CountOutranking(ctx context.Context, q leaderboard.AggregateQuery, score leaderboard.Score) (int, error) {
	n, err := s.profiles.CountProfilesAbove(ctx, q, s.order, leaderboard.ThresholdOf(score))
	if err != nil {
		return 0, shared.StoreFailure("leaderboard", "CountOutranking", err)
	}
	return n, nil
}

// ──────────────────────────────────────────────────────────────────────────────
// focus_time
// ──────────────────────────────────────────────────────────────────────────────

type focusStrategy struct {
	orderedByDefault
	sessions leaderboard.FocusSessionReader
}

// NewFocusTimeStrategy создаёт стратегию для метрики focus_time.
func NewFocusTimeStrategy(sessions leaderboard.FocusSessionReader) MetricStrategy {
	return &focusStrategy{sessions: sessions}
}

func (s *focusStrategy) Metric() leaderboard.Metric { return leaderboard.MetricFocusTime }

func (s *focusStrategy) Aggregate(ctx context.Context, q leaderboard.AggregateQuery) ([]leaderboard.Score, error) {
	rows, err := s.sessions.SumFocus(ctx, q)
	if err != nil {
		return nil, shared.StoreFailure("leaderboard", "Aggregate", err)
	}
	scores := make([]leaderboard.Score, 0, len(rows))
	for _, t := range rows {
		scores = append(scores, leaderboard.FocusScore(t))
	}
	return scores, nil
}

func (s *focusStrategy) ScoreOf(ctx context.Context, userID string, since time.Time) (leaderboard.Score, error) {
	t, err := s.sessions.FocusTotalOf(ctx, userID, since)
	if err != nil {
		return leaderboard.Score{}, shared.StoreFailure("leaderboard", "ScoreOf", err)
	}
	t.UserID = userID
	return leaderboard.FocusScore(t), nil
}

func (s *focusStrategy) CountOutranking(ctx context.Context, q leaderboard.AggregateQuery, score leaderboard.Score) (int, error) {
	n, err := s.sessions.CountFocusAbove(ctx, q, leaderboard.ThresholdOf(score))
	if err != nil {
		return 0, shared.StoreFailure("leaderboard", "CountOutranking", err)
	}
	return n, nil
}

// ──────────────────────────────────────────────────────────────────────────────
// tasks_completed
// ──────────────────────────────────────────────────────────────────────────────

type tasksStrategy struct {
	orderedByDefault
	tasks leaderboard.TaskReader
}

// NewTasksCompletedStrategy создаёт стратегию для метрики tasks_completed.
func NewTasksCompletedStrategy(tasks leaderboard.TaskReader) MetricStrategy {
	return &tasksStrategy{tasks: tasks}
}

func (s *tasksStrategy) Metric() leaderboard.Metric { return leaderboard.MetricTasksCompleted }

func (s *tasksStrategy) Aggregate(ctx context.Context, q leaderboard.AggregateQuery) ([]leaderboard.Score, error) {
	rows, err := s.tasks.CountCompleted(ctx, q)
	if err != nil {
		return nil, shared.StoreFailure("leaderboard", "Aggregate", err)
	}
	scores := make([]leaderboard.Score, 0, len(rows))
	for _, t := range rows {
		scores = append(scores, leaderboard.TaskScore(t))
	}
	return scores, nil
}

func (s *tasksStrategy) ScoreOf(ctx context.Context, userID string, since time.Time) (leaderboard.Score, error) {
	t, err := s.tasks.CompletedOf(ctx, userID, since)
	if err != nil {
		return leaderboard.Score{}, shared.StoreFailure("leaderboard", "ScoreOf", err)
	}
	t.UserID = userID
	return leaderboard.TaskScore(t), nil
}

func (s *tasksStrategy) CountOutranking(ctx context.Context, q leaderboard.AggregateQuery, score leaderboard.Score) (int, error) {
	n, err := s.tasks.CountCompletedAbove(ctx, q, leaderboard.ThresholdOf(score))
	if err != nil {
		return 0, shared.StoreFailure("leaderboard", "CountOutranking", err)
	}
	return n, nil
}

// ══════════════════════════════════════════════════════════════════════════════
// REGISTRY
// ══════════════════════════════════════════════════════════════════════════════

// StrategyRegistry сопоставляет метрике её стратегию.
type StrategyRegistry struct {
	strategies map[leaderboard.Metric]MetricStrategy
}

// NewStrategyRegistry регистрирует переданные стратегии.
func NewStrategyRegistry(strategies ...MetricStrategy) *StrategyRegistry {
	r := &StrategyRegistry{strategies: make(map[leaderboard.Metric]MetricStrategy, len(strategies))}
	for _, s := range strategies {
		r.strategies[s.Metric()] = s
	}
	return r
}

// DefaultStrategies собирает реестр из четырёх встроенных метрик.
func DefaultStrategies(stores leaderboard.Stores) *StrategyRegistry {
	return NewStrategyRegistry(
		NewXPStrategy(stores.Profiles),
		NewFocusTimeStrategy(stores.Sessions),
		NewStreakStrategy(stores.Profiles),
		NewTasksCompletedStrategy(stores.Tasks),
	)
}

// Get возвращает стратегию или ErrUnknownMetric с переданным значением.
func (r *StrategyRegistry) Get(m leaderboard.Metric) (MetricStrategy, error) {
	s, ok := r.strategies[m]
	if !ok {
		return nil, shared.ErrUnknownMetric.WithValue(string(m))
	}
	return s, nil
}

// Metrics возвращает зарегистрированные метрики.
func (r *StrategyRegistry) Metrics() []leaderboard.Metric {
	out := make([]leaderboard.Metric, 0, len(r.strategies))
	for _, m := range leaderboard.AllMetrics() {
		if _, ok := r.strategies[m]; ok {
			out = append(out, m)
		}
	}
	return out
}
