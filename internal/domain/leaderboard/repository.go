package leaderboard

import (
	"context"
	"time"

	"github.com/alem-hub/focus-leaderboard/internal/domain/profile"
)

// ══════════════════════════════════════════════════════════════════════════════
// QUERY PRIMITIVES
// ══════════════════════════════════════════════════════════════════════════════

// AggregateQuery - параметры агрегирующего запроса к хранилищу.
type AggregateQuery struct {
	// Eligibility ограничивает множество пользователей.
	Eligibility Eligibility

	// Since - нижняя граница окна; нулевое значение означает all_time.
	Since time.Time

	// Limit ограничивает число строк (<= 0 - без ограничения).
	Limit int
}

// ProfileOrder - порядок выборки профилей для метрик, считаемых по профилю.
type ProfileOrder int

const (
	// OrderByLevelXP - level DESC, xp DESC, id ASC.
	OrderByLevelXP ProfileOrder = iota
	// OrderByStreak - best_streak DESC, streak_days DESC, id ASC.
	OrderByStreak
)

// FocusTotal - сумма завершённых фокус-сессий пользователя.
type FocusTotal struct {
	UserID   string
	Seconds  int64
	Sessions int
}

// TaskTotal - число завершённых задач пользователя.
type TaskTotal struct {
	UserID    string
	Completed int64
}

// ══════════════════════════════════════════════════════════════════════════════
// COLLABORATOR INTERFACES
// ══════════════════════════════════════════════════════════════════════════════
//
// Движок рейтинга - чистый потребитель этих интерфейсов. Реализации находятся
// в infrastructure слое (PostgreSQL, in-memory).

// ProfileReader читает профили пользователей.
type ProfileReader interface {
	// GetProfile возвращает профиль или shared.ErrProfileNotFound.
	GetProfile(ctx context.Context, userID string) (*profile.UserProfile, error)

	// GetProfiles возвращает найденные профили по идентификаторам.
	// Отсутствующие идентификаторы просто не попадают в результат.
	GetProfiles(ctx context.Context, userIDs []string) (map[string]*profile.UserProfile, error)

	// RankProfiles возвращает допущенные профили в порядке order.
	RankProfiles(ctx context.Context, q AggregateQuery, order ProfileOrder) ([]*profile.UserProfile, error)

	// CountProfilesAbove считает допущенные профили, строго обгоняющие порог.
	CountProfilesAbove(ctx context.Context, q AggregateQuery, order ProfileOrder, t Threshold) (int, error)

	// DistinctCountries возвращает непустые страны всех пользователей, по алфавиту.
	DistinctCountries(ctx context.Context) ([]string, error)
}

// FriendshipReader читает социальный граф.
type FriendshipReader interface {
	// AcceptedFriendIDs возвращает друзей пользователя по принятым связям.
	AcceptedFriendIDs(ctx context.Context, userID string) ([]string, error)
}

// FocusSessionReader агрегирует завершённые фокус-сессии (type=focus, completed).
type FocusSessionReader interface {
	// SumFocus группирует сессии по пользователю: seconds DESC, user_id ASC.
	SumFocus(ctx context.Context, q AggregateQuery) ([]FocusTotal, error)

	// FocusTotalOf возвращает сумму одного пользователя; нули, если сессий нет.
	FocusTotalOf(ctx context.Context, userID string, since time.Time) (FocusTotal, error)

	// CountFocusAbove считает допущенных пользователей, строго обгоняющих порог.
	CountFocusAbove(ctx context.Context, q AggregateQuery, t Threshold) (int, error)
}

// TaskReader агрегирует завершённые задачи (status=completed).
type TaskReader interface {
	// CountCompleted группирует задачи по пользователю: completed DESC, user_id ASC.
	CountCompleted(ctx context.Context, q AggregateQuery) ([]TaskTotal, error)

	// CompletedOf возвращает счётчик одного пользователя; ноль, если задач нет.
	CompletedOf(ctx context.Context, userID string, since time.Time) (TaskTotal, error)

	// CountCompletedAbove считает допущенных пользователей, строго обгоняющих порог.
	CountCompletedAbove(ctx context.Context, q AggregateQuery, t Threshold) (int, error)
}

// Stores объединяет всех внешних коллабораторов движка.
type Stores struct {
	Profiles    ProfileReader
	Friendships FriendshipReader
	Sessions    FocusSessionReader
	Tasks       TaskReader
}
