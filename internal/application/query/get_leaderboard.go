// Package query contains read operations following CQRS pattern.
// Queries never modify state - they only read and return data.
// Each query is a self-contained use case with its own request/response types.
package query

import (
	"context"
	"errors"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/alem-hub/focus-leaderboard/internal/domain/leaderboard"
	"github.com/alem-hub/focus-leaderboard/internal/domain/profile"
	"github.com/alem-hub/focus-leaderboard/internal/domain/shared"
	"github.com/alem-hub/focus-leaderboard/pkg/logger"
	"github.com/alem-hub/focus-leaderboard/pkg/timeutil"
)

// ══════════════════════════════════════════════════════════════════════════════
// GET LEADERBOARD QUERY
// Собирает страницу рейтинга, запись самого пользователя и список стран.
// Подзапросы выполняются параллельно и объединяются в конце.
// ══════════════════════════════════════════════════════════════════════════════

// GetLeaderboardQuery содержит параметры запроса рейтинга.
type GetLeaderboardQuery struct {
	// CallerID - аутентифицированный пользователь. Обязателен.
	CallerID string

	// Metric - xp, focus_time, streak, tasks_completed (по умолчанию xp).
	Metric string

	// Period - all_time, month, week (по умолчанию all_time).
	Period string

	// Scope - global, friends, country (по умолчанию global).
	Scope string

	// Country - явная страна; имеет смысл только при scope=country.
	Country string

	// Limit - размер страницы (<= 0 - значение по умолчанию).
	Limit int
}

// parsedQuery - провалидированный запрос.
type parsedQuery struct {
	callerID string
	metric   leaderboard.Metric
	period   leaderboard.Period
	scope    leaderboard.Scope
	country  string
	limit    int
}

// parse проверяет параметры и разбирает перечисления.
// Неизвестное значение возвращается как ошибка, а не заменяется значением по умолчанию.
func (q GetLeaderboardQuery) parse(limits Limits) (parsedQuery, error) {
	if q.CallerID == "" {
		return parsedQuery{}, shared.ErrNoCaller
	}
	metric, err := leaderboard.ParseMetric(q.Metric)
	if err != nil {
		return parsedQuery{}, err
	}
	period, err := leaderboard.ParsePeriod(q.Period)
	if err != nil {
		return parsedQuery{}, err
	}
	scope, err := leaderboard.ParseScope(q.Scope)
	if err != nil {
		return parsedQuery{}, err
	}
	return parsedQuery{
		callerID: q.CallerID,
		metric:   metric,
		period:   period,
		scope:    scope,
		country:  q.Country,
		limit:    limits.Apply(q.Limit),
	}, nil
}

// Limits задаёт размер страницы.
type Limits struct {
	Default int
	Max     int
}

// Apply нормализует запрошенный лимит.
func (l Limits) Apply(limit int) int {
	def := l.Default
	if def <= 0 {
		def = leaderboard.DefaultLimit
	}
	if limit <= 0 {
		limit = def
	}
	if l.Max > 0 && limit > l.Max {
		limit = l.Max
	}
	return limit
}

// LeaderboardEntryDTO - запись рейтинга в ответе.
type LeaderboardEntryDTO struct {
	Rank         int    `json:"rank"`
	UserID       string `json:"userId"`
	Name         string `json:"name"`
	Username     string `json:"username"`
	Avatar       string `json:"avatar"`
	Level        int    `json:"level"`
	Country      string `json:"country"`
	Metric       string `json:"metric"`
	Value        int64  `json:"value"`
	DisplayValue string `json:"displayValue"`

	// xp
	XP      *int `json:"xp,omitempty"`
	TotalXP *int `json:"totalXP,omitempty"`

	// focus_time
	SessionCount *int `json:"sessionCount,omitempty"`

	// streak
	CurrentStreak *int `json:"currentStreak,omitempty"`
	BestStreak    *int `json:"bestStreak,omitempty"`
}

// GetLeaderboardResult - итоговый ответ.
type GetLeaderboardResult struct {
	// Leaderboard - страница топ-K (никогда не nil).
	Leaderboard []LeaderboardEntryDTO `json:"leaderboard"`

	// CurrentUser - запись вызывающего; nil, если он вне множества
	// или его ранг не удалось вычислить.
	CurrentUser *LeaderboardEntryDTO `json:"currentUser"`

	Metric string `json:"metric"`
	Period string `json:"period"`
	Scope  string `json:"scope"`

	// Country - разрешённая страна при scope=country.
	Country string `json:"country,omitempty"`

	// TotalUsers - длина страницы.
	TotalUsers int `json:"totalUsers"`

	// AvailableCountries - непустые страны всех пользователей, по алфавиту.
	AvailableCountries []string `json:"availableCountries"`
}

// ══════════════════════════════════════════════════════════════════════════════
// HANDLER
// ══════════════════════════════════════════════════════════════════════════════

// GetLeaderboardHandler обрабатывает запросы рейтинга.
type GetLeaderboardHandler struct {
	profiles     leaderboard.ProfileReader
	resolver     *ScopeResolver
	strategies   *StrategyRegistry
	locator      *RankLocator
	clock        timeutil.Clock
	limits       Limits
	queryTimeout time.Duration
	log          *logger.Logger
}

// HandlerOption настраивает обработчик.
type HandlerOption func(*GetLeaderboardHandler)

// WithClock подменяет источник текущего времени.
func WithClock(c timeutil.Clock) HandlerOption {
	return func(h *GetLeaderboardHandler) {
		if c != nil {
			h.clock = c
		}
	}
}

// WithLimits задаёт размер страницы по умолчанию и максимум.
func WithLimits(l Limits) HandlerOption {
	return func(h *GetLeaderboardHandler) { h.limits = l }
}

// WithQueryTimeout ограничивает длительность всех подзапросов одного запроса.
func WithQueryTimeout(d time.Duration) HandlerOption {
	return func(h *GetLeaderboardHandler) { h.queryTimeout = d }
}

// WithLogger задаёт логгер.
func WithLogger(l *logger.Logger) HandlerOption {
	return func(h *GetLeaderboardHandler) {
		if l != nil {
			h.log = l
		}
	}
}

// WithStrategies подменяет реестр метрик.
func WithStrategies(r *StrategyRegistry) HandlerOption {
	return func(h *GetLeaderboardHandler) {
		if r != nil {
			h.strategies = r
		}
	}
}

// NewGetLeaderboardHandler создаёт обработчик поверх внешних хранилищ.
func NewGetLeaderboardHandler(stores leaderboard.Stores, opts ...HandlerOption) *GetLeaderboardHandler {
	h := &GetLeaderboardHandler{
		profiles:   stores.Profiles,
		resolver:   NewScopeResolver(stores.Profiles, stores.Friendships),
		strategies: DefaultStrategies(stores),
		locator:    NewRankLocator(),
		clock:      timeutil.SystemClock{},
		limits:     Limits{Default: leaderboard.DefaultLimit},
		log:        logger.Default(),
	}
	for _, opt := range opts {
		opt(h)
	}
	h.log = h.log.With(logger.Component("leaderboard"))
	return h
}

// Handle выполняет запрос.
//
// Порядок: валидация → разрешение области видимости → параллельно
// (a) топ-K, (b) список стран, (c→d) ранг вызывающего → объединение.
// Ошибка (c)/(d) не отменяет остальные подзапросы и даёт currentUser = nil.
func (h *GetLeaderboardHandler) Handle(ctx context.Context, query GetLeaderboardQuery) (*GetLeaderboardResult, error) {
	start := time.Now()

	q, err := query.parse(h.limits)
	if err != nil {
		return nil, err
	}
	strategy, err := h.strategies.Get(q.metric)
	if err != nil {
		return nil, err
	}

	if h.queryTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, h.queryTimeout)
		defer cancel()
	}

	scope, err := h.resolver.Resolve(ctx, q.callerID, q.scope, q.country)
	if err != nil {
		return nil, err
	}
	since := q.period.Since(h.clock.Now())

	var (
		page      []leaderboard.RankedScore
		display   map[string]*profile.UserProfile
		countries []string
		located   *leaderboard.RankedScore
	)

	g, gctx := errgroup.WithContext(ctx)

	// (b) список стран не зависит от области видимости
	g.Go(func() error {
		c, err := h.profiles.DistinctCountries(gctx)
		if err != nil {
			return shared.StoreFailure("leaderboard", "DistinctCountries", err)
		}
		countries = c
		return nil
	})

	if !scope.Eligibility.IsEmpty() {
		// (a) топ-K и подстановка полей профиля
		g.Go(func() error {
			var err error
			page, display, err = h.topK(gctx, strategy, scope.Eligibility, since, q.limit)
			return err
		})

		// (c→d) ранг вызывающего, если он сам допущен
		if scope.CallerEligible(q.callerID) {
			g.Go(func() error {
				rs, err := h.locator.Locate(gctx, strategy, scope.Eligibility, since, q.callerID)
				if err != nil {
					h.logLocatorFailure(gctx, q, err)
					return nil
				}
				located = &rs
				return nil
			})
		}
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	result := &GetLeaderboardResult{
		Leaderboard:        make([]LeaderboardEntryDTO, 0, len(page)),
		Metric:             q.metric.String(),
		Period:             q.period.String(),
		Scope:              q.scope.String(),
		Country:            scope.Country,
		AvailableCountries: countries,
	}
	if result.AvailableCountries == nil {
		result.AvailableCountries = []string{}
	}

	for _, rs := range page {
		result.Leaderboard = append(result.Leaderboard, toEntryDTO(q.metric, rs, display[rs.Score.UserID]))
	}
	result.TotalUsers = len(result.Leaderboard)
	result.CurrentUser = h.currentUser(q, scope, page, display, located)

	h.log.Debug("leaderboard assembled",
		logger.UserID(q.callerID),
		logger.Metric(q.metric.String()),
		logger.Scope(q.scope.String()),
		logger.Period(q.period.String()),
		logger.Int("entries", result.TotalUsers),
		logger.Bool("caller_located", result.CurrentUser != nil),
		logger.Latency(time.Since(start)),
	)

	return result, nil
}

// topK агрегирует, ранжирует и подгружает профили для страницы.
func (h *GetLeaderboardHandler) topK(
	ctx context.Context,
	strategy MetricStrategy,
	eligibility leaderboard.Eligibility,
	since time.Time,
	limit int,
) ([]leaderboard.RankedScore, map[string]*profile.UserProfile, error) {
	scores, err := strategy.Aggregate(ctx, leaderboard.AggregateQuery{
		Eligibility: eligibility,
		Since:       since,
		Limit:       limit,
	})
	if err != nil {
		return nil, nil, err
	}

	page := leaderboard.RankScoresBy(scores, limit, strategy.Compare)
	if len(page) == 0 {
		return page, nil, nil
	}

	ids := make([]string, len(page))
	for i, rs := range page {
		ids[i] = rs.Score.UserID
	}
	display, err := h.profiles.GetProfiles(ctx, ids)
	if err != nil {
		return nil, nil, shared.StoreFailure("leaderboard", "GetProfiles", err)
	}
	return page, display, nil
}

// currentUser берёт запись со страницы, а если вызывающего там нет - из локатора.
func (h *GetLeaderboardHandler) currentUser(
	q parsedQuery,
	scope ResolvedScope,
	page []leaderboard.RankedScore,
	display map[string]*profile.UserProfile,
	located *leaderboard.RankedScore,
) *LeaderboardEntryDTO {
	if rs, ok := leaderboard.FindUser(page, q.callerID); ok {
		dto := toEntryDTO(q.metric, rs, display[q.callerID])
		return &dto
	}
	if located == nil {
		return nil
	}
	dto := toEntryDTO(q.metric, *located, scope.Caller)
	return &dto
}

func (h *GetLeaderboardHandler) logLocatorFailure(ctx context.Context, q parsedQuery, err error) {
	if ctx.Err() != nil {
		// соседний подзапрос уже провалил весь запрос
		return
	}
	if errors.Is(err, shared.ErrNotFound) {
		h.log.Debug("caller has no profile, skipping rank", logger.UserID(q.callerID))
		return
	}
	h.log.Warn("rank locator failed, returning page without current user",
		logger.UserID(q.callerID),
		logger.Metric(q.metric.String()),
		logger.Scope(q.scope.String()),
		logger.Err(err),
	)
}

// toEntryDTO переводит ранжированную оценку и профиль в DTO.
// Отсутствующий профиль даёт значения по умолчанию.
func toEntryDTO(metric leaderboard.Metric, rs leaderboard.RankedScore, p *profile.UserProfile) LeaderboardEntryDTO {
	if p == nil {
		p = &profile.UserProfile{ID: rs.Score.UserID, Level: profile.MinLevel}
	}

	dto := LeaderboardEntryDTO{
		Rank:         int(rs.Rank),
		UserID:       rs.Score.UserID,
		Name:         p.DisplayName(),
		Username:     p.Handle(),
		Avatar:       p.Avatar,
		Level:        p.Level,
		Country:      p.Country,
		Metric:       metric.String(),
		Value:        rs.Score.Value,
		DisplayValue: leaderboard.FormatValue(metric, rs.Score),
	}

	switch metric {
	case leaderboard.MetricXP:
		xp, total := rs.Score.XP, int(rs.Score.Value)
		dto.XP, dto.TotalXP = &xp, &total
	case leaderboard.MetricFocusTime:
		sessions := rs.Score.SessionCount
		dto.SessionCount = &sessions
	case leaderboard.MetricStreak:
		current, best := rs.Score.CurrentStreak, int(rs.Score.Value)
		dto.CurrentStreak, dto.BestStreak = &current, &best
	}

	return dto
}
