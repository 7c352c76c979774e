package leaderboard

import "strings"

// Score - сырой результат агрегации метрики для одного пользователя.
//
// Primary и TieBreak задают порядок; Value - значение, которое видит
// пользователь. Остальные поля вторичны и заполняются только своей метрикой.
type Score struct {
	UserID   string
	Primary  int64
	TieBreak int64
	Value    int64

	// focus_time
	SessionCount int

	// streak
	CurrentStreak int

	// xp: опыт внутри текущего уровня
	XP int
}

// Compare - единственный компаратор рейтинга.
// Возвращает отрицательное число, если a стоит выше b.
//
// Порядок: Primary по убыванию, затем TieBreak по убыванию, затем UserID по
// возрастанию. Последний ключ делает порядок полным, поэтому два разных
// пользователя никогда не получают одинаковый ранг.
func Compare(a, b Score) int {
	switch {
	case a.Primary != b.Primary:
		if a.Primary > b.Primary {
			return -1
		}
		return 1
	case a.TieBreak != b.TieBreak:
		if a.TieBreak > b.TieBreak {
			return -1
		}
		return 1
	default:
		return strings.Compare(a.UserID, b.UserID)
	}
}

// Outranks сообщает, стоит ли a строго выше b.
// Счётчик "кто выше меня" использует ровно этот предикат.
func Outranks(a, b Score) bool {
	return Compare(a, b) < 0
}

// Threshold - порог для подсчёта обгоняющих пользователей.
// Хранилища переводят его в условие запроса:
//
//	primary > P OR (primary = P AND tiebreak > T) OR (primary = P AND tiebreak = T AND user_id < U)
type Threshold struct {
	Primary  int64
	TieBreak int64
	UserID   string
}

// ThresholdOf строит порог из оценки пользователя.
func ThresholdOf(s Score) Threshold {
	return Threshold{Primary: s.Primary, TieBreak: s.TieBreak, UserID: s.UserID}
}

// Admits сообщает, обгоняет ли оценка s данный порог.
func (t Threshold) Admits(s Score) bool {
	return Outranks(s, Score{UserID: t.UserID, Primary: t.Primary, TieBreak: t.TieBreak})
}
