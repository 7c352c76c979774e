// Package activity содержит модели событий, из которых агрегируются метрики:
// фокус-сессии и задачи. Событиями владеют внешние хранилища.
package activity

import "time"

// SessionType - тип сессии таймера.
type SessionType string

const (
	// SessionFocus - рабочая сессия; только такие учитываются в focus_time.
	SessionFocus SessionType = "focus"
	SessionBreak SessionType = "break"
)

// FocusSession - одна сессия таймера.
type FocusSession struct {
	UserID    string
	Type      SessionType
	Completed bool
	Duration  int // секунды
	StartTime time.Time
}

// CountsTowardFocus сообщает, входит ли сессия в метрику focus_time
// для окна, начинающегося с since. Нулевое since означает "без нижней границы".
func (s FocusSession) CountsTowardFocus(since time.Time) bool {
	if s.Type != SessionFocus || !s.Completed {
		return false
	}
	return since.IsZero() || !s.StartTime.Before(since)
}

// TaskStatus - статус задачи.
type TaskStatus string

const (
	TaskTodo       TaskStatus = "todo"
	TaskInProgress TaskStatus = "in_progress"
	TaskCompleted  TaskStatus = "completed"
)

// Task - задача пользователя.
type Task struct {
	UserID    string
	Status    TaskStatus
	UpdatedAt time.Time
}

// CountsTowardCompleted сообщает, входит ли задача в метрику tasks_completed.
func (t Task) CountsTowardCompleted(since time.Time) bool {
	if t.Status != TaskCompleted {
		return false
	}
	return since.IsZero() || !t.UpdatedAt.Before(since)
}
