package leaderboard

import (
	"fmt"

	"github.com/alem-hub/focus-leaderboard/pkg/timeutil"
)

// FormatValue возвращает человекочитаемое значение метрики.
func FormatValue(m Metric, s Score) string {
	switch m {
	case MetricXP:
		return fmt.Sprintf("%d XP", s.Value)
	case MetricFocusTime:
		return timeutil.FormatSeconds(s.Value)
	case MetricStreak:
		return fmt.Sprintf("%d %s", s.Value, timeutil.Plural(s.Value, "day", "days"))
	case MetricTasksCompleted:
		return fmt.Sprintf("%d %s", s.Value, timeutil.Plural(s.Value, "task", "tasks"))
	default:
		return fmt.Sprintf("%d", s.Value)
	}
}
