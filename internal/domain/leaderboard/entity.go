// Package leaderboard содержит доменную модель рейтинга: метрики, периоды,
// области видимости, единый порядок сравнения и построение рангов.
// Пакет не выполняет ввода-вывода; доступ к данным описан в repository.go.
package leaderboard

import (
	"strings"
	"time"

	"github.com/alem-hub/focus-leaderboard/internal/domain/shared"
	"github.com/alem-hub/focus-leaderboard/pkg/timeutil"
)

// ══════════════════════════════════════════════════════════════════════════════
// METRIC
// ══════════════════════════════════════════════════════════════════════════════

// Metric - величина, по которой ранжируются пользователи.
type Metric string

const (
	MetricXP             Metric = "xp"
	MetricFocusTime      Metric = "focus_time"
	MetricStreak         Metric = "streak"
	MetricTasksCompleted Metric = "tasks_completed"

	// DefaultMetric используется, если метрика не указана.
	DefaultMetric = MetricXP
)

// AllMetrics возвращает все поддерживаемые метрики.
func AllMetrics() []Metric {
	return []Metric{MetricXP, MetricFocusTime, MetricStreak, MetricTasksCompleted}
}

// IsValid проверяет, что метрика известна.
func (m Metric) IsValid() bool {
	switch m {
	case MetricXP, MetricFocusTime, MetricStreak, MetricTasksCompleted:
		return true
	}
	return false
}

// String возвращает строковое представление метрики.
func (m Metric) String() string {
	return string(m)
}

// ParseMetric разбирает метрику из запроса.
// Пустая строка даёт метрику по умолчанию; неизвестное значение - ошибку
// с этим значением, а не подмену на другую метрику.
func ParseMetric(s string) (Metric, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return DefaultMetric, nil
	}
	m := Metric(s)
	if !m.IsValid() {
		return "", shared.ErrUnknownMetric.WithValue(s)
	}
	return m, nil
}

// ══════════════════════════════════════════════════════════════════════════════
// PERIOD
// ══════════════════════════════════════════════════════════════════════════════

// Period - временное окно агрегации.
type Period string

const (
	PeriodAllTime Period = "all_time"
	PeriodMonth   Period = "month"
	PeriodWeek    Period = "week"

	DefaultPeriod = PeriodAllTime
)

// IsValid проверяет, что период известен.
func (p Period) IsValid() bool {
	switch p {
	case PeriodAllTime, PeriodMonth, PeriodWeek:
		return true
	}
	return false
}

// String возвращает строковое представление периода.
func (p Period) String() string {
	return string(p)
}

// Since возвращает нижнюю границу окна относительно now.
// Для all_time возвращается нулевое время: нижней границы нет.
func (p Period) Since(now time.Time) time.Time {
	switch p {
	case PeriodWeek:
		return timeutil.DaysAgo(now, 7)
	case PeriodMonth:
		return timeutil.MonthsAgo(now, 1)
	default:
		return time.Time{}
	}
}

// ParsePeriod разбирает период из запроса.
func ParsePeriod(s string) (Period, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return DefaultPeriod, nil
	}
	p := Period(s)
	if !p.IsValid() {
		return "", shared.ErrUnknownPeriod.WithValue(s)
	}
	return p, nil
}

// ══════════════════════════════════════════════════════════════════════════════
// SCOPE
// ══════════════════════════════════════════════════════════════════════════════

// Scope - область видимости рейтинга.
type Scope string

const (
	ScopeGlobal  Scope = "global"
	ScopeFriends Scope = "friends"
	ScopeCountry Scope = "country"

	DefaultScope = ScopeGlobal
)

// IsValid проверяет, что область видимости известна.
func (s Scope) IsValid() bool {
	switch s {
	case ScopeGlobal, ScopeFriends, ScopeCountry:
		return true
	}
	return false
}

// String возвращает строковое представление области видимости.
func (s Scope) String() string {
	return string(s)
}

// ParseScope разбирает область видимости из запроса.
func ParseScope(s string) (Scope, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return DefaultScope, nil
	}
	sc := Scope(s)
	if !sc.IsValid() {
		return "", shared.ErrUnknownScope.WithValue(s)
	}
	return sc, nil
}
