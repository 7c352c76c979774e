package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/alem-hub/focus-leaderboard/internal/domain/activity"
	"github.com/alem-hub/focus-leaderboard/internal/domain/leaderboard"
)

// ══════════════════════════════════════════════════════════════════════════════
// FOCUS SESSIONS
// ══════════════════════════════════════════════════════════════════════════════

// FocusSessionRepository implements leaderboard.FocusSessionReader over
// focus_sessions. Only completed sessions of type focus are counted.
type FocusSessionRepository struct {
	conn *Connection
}

var _ leaderboard.FocusSessionReader = (*FocusSessionRepository)(nil)

// NewFocusSessionRepository creates a new FocusSessionRepository.
func NewFocusSessionRepository(conn *Connection) *FocusSessionRepository {
	return &FocusSessionRepository{conn: conn}
}

func scanFocusTotal(row pgx.Row) (leaderboard.FocusTotal, error) {
	var t leaderboard.FocusTotal
	var sessions int64
	if err := row.Scan(&t.UserID, &t.Seconds, &sessions); err != nil {
		return t, err
	}
	t.Sessions = int(sessions)
	return t, nil
}

// SumFocus returns per-user totals in leaderboard order.
func (r *FocusSessionRepository) SumFocus(ctx context.Context, q leaderboard.AggregateQuery) ([]leaderboard.FocusTotal, error) {
	if q.Eligibility.IsEmpty() {
		return []leaderboard.FocusTotal{}, nil
	}
	sql, params := buildSumFocus(q)
	rows, err := queryRows(ctx, r.conn, sql, params, scanFocusTotal)
	if err != nil {
		return nil, fmt.Errorf("failed to sum focus time: %w", err)
	}
	return rows, nil
}

// FocusTotalOf returns one user's total; zeros when there are no sessions.
func (r *FocusSessionRepository) FocusTotalOf(ctx context.Context, userID string, since time.Time) (leaderboard.FocusTotal, error) {
	a := &args{}
	where := and(
		"s.user_id::text = "+a.add(userID),
		focusFilter(a),
		sinceClause(a, "s.start_time", since),
	)
	sql := `SELECT COALESCE(SUM(s.duration), 0)::bigint, COUNT(*) FROM focus_sessions s WHERE ` + where

	total := leaderboard.FocusTotal{UserID: userID}
	var sessions int64
	if err := r.conn.queryRow(ctx, sql, a.list(), &total.Seconds, &sessions); err != nil {
		return leaderboard.FocusTotal{}, fmt.Errorf("failed to get focus total: %w", err)
	}
	total.Sessions = int(sessions)
	return total, nil
}

// CountFocusAbove counts eligible users whose total strictly outranks t.
func (r *FocusSessionRepository) CountFocusAbove(ctx context.Context, q leaderboard.AggregateQuery, t leaderboard.Threshold) (int, error) {
	if q.Eligibility.IsEmpty() {
		return 0, nil
	}
	sql, params := buildCountFocusAbove(q, t)
	n, err := r.conn.queryCount(ctx, sql, params)
	if err != nil {
		return 0, fmt.Errorf("failed to count outranking focus totals: %w", err)
	}
	return n, nil
}

func focusFilter(a *args) string {
	return fmt.Sprintf("s.type = %s AND s.completed", a.add(string(activity.SessionFocus)))
}

// focusTotalsCTE groups before eligibility so a user's sum is never split.
func focusTotalsCTE(a *args, since time.Time) string {
	return fmt.Sprintf(`
		WITH totals AS (
			SELECT s.user_id::text AS user_id,
			       SUM(s.duration)::bigint AS seconds,
			       COUNT(*) AS sessions
			FROM focus_sessions s
			WHERE %s
			GROUP BY s.user_id
		)`, and(focusFilter(a), sinceClause(a, "s.start_time", since)))
}

func buildSumFocus(q leaderboard.AggregateQuery) (string, []any) {
	a := &args{}
	cte := focusTotalsCTE(a, q.Since)
	where := eligibilityClause(a, q.Eligibility, "t.user_id", "u.country")
	sql := fmt.Sprintf(`%s
		SELECT t.user_id, t.seconds, t.sessions
		FROM totals t LEFT JOIN users u ON u.id::text = t.user_id
		WHERE %s %s %s`,
		cte, where, orderBy("t.seconds", "", "t.user_id"), limitClause(a, q.Limit))
	return sql, a.list()
}

func buildCountFocusAbove(q leaderboard.AggregateQuery, t leaderboard.Threshold) (string, []any) {
	a := &args{}
	cte := focusTotalsCTE(a, q.Since)
	where := and(
		eligibilityClause(a, q.Eligibility, "t.user_id", "u.country"),
		outrankClause(a, "t.seconds", "", "t.user_id", t),
	)
	sql := fmt.Sprintf(`%s
		SELECT COUNT(*)
		FROM totals t LEFT JOIN users u ON u.id::text = t.user_id
		WHERE %s`, cte, where)
	return sql, a.list()
}

// ══════════════════════════════════════════════════════════════════════════════
// TASKS
// ══════════════════════════════════════════════════════════════════════════════

// TaskRepository implements leaderboard.TaskReader over tasks. A task counts
// when its status is completed; updated_at stands in for completion time.
type TaskRepository struct {
	conn *Connection
}

var _ leaderboard.TaskReader = (*TaskRepository)(nil)

// NewTaskRepository creates a new TaskRepository.
func NewTaskRepository(conn *Connection) *TaskRepository {
	return &TaskRepository{conn: conn}
}

func scanTaskTotal(row pgx.Row) (leaderboard.TaskTotal, error) {
	var t leaderboard.TaskTotal
	err := row.Scan(&t.UserID, &t.Completed)
	return t, err
}

// CountCompleted returns per-user completed counts in leaderboard order.
func (r *TaskRepository) CountCompleted(ctx context.Context, q leaderboard.AggregateQuery) ([]leaderboard.TaskTotal, error) {
	if q.Eligibility.IsEmpty() {
		return []leaderboard.TaskTotal{}, nil
	}
	sql, params := buildCountCompleted(q)
	rows, err := queryRows(ctx, r.conn, sql, params, scanTaskTotal)
	if err != nil {
		return nil, fmt.Errorf("failed to count completed tasks: %w", err)
	}
	return rows, nil
}

// CompletedOf returns one user's completed count; zero when there are none.
func (r *TaskRepository) CompletedOf(ctx context.Context, userID string, since time.Time) (leaderboard.TaskTotal, error) {
	a := &args{}
	where := and(
		"k.user_id::text = "+a.add(userID),
		taskFilter(a),
		sinceClause(a, "k.updated_at", since),
	)
	sql := `SELECT COUNT(*) FROM tasks k WHERE ` + where

	total := leaderboard.TaskTotal{UserID: userID}
	if err := r.conn.queryRow(ctx, sql, a.list(), &total.Completed); err != nil {
		return leaderboard.TaskTotal{}, fmt.Errorf("failed to get completed tasks: %w", err)
	}
	return total, nil
}

// CountCompletedAbove counts eligible users whose count strictly outranks t.
func (r *TaskRepository) CountCompletedAbove(ctx context.Context, q leaderboard.AggregateQuery, t leaderboard.Threshold) (int, error) {
	if q.Eligibility.IsEmpty() {
		return 0, nil
	}
	sql, params := buildCountCompletedAbove(q, t)
	n, err := r.conn.queryCount(ctx, sql, params)
	if err != nil {
		return 0, fmt.Errorf("failed to count outranking task totals: %w", err)
	}
	return n, nil
}

func taskFilter(a *args) string {
	return "k.status = " + a.add(string(activity.TaskCompleted))
}

func taskTotalsCTE(a *args, since time.Time) string {
	return fmt.Sprintf(`
		WITH totals AS (
			SELECT k.user_id::text AS user_id, COUNT(*) AS completed
			FROM tasks k
			WHERE %s
			GROUP BY k.user_id
		)`, and(taskFilter(a), sinceClause(a, "k.updated_at", since)))
}

func buildCountCompleted(q leaderboard.AggregateQuery) (string, []any) {
	a := &args{}
	cte := taskTotalsCTE(a, q.Since)
	where := eligibilityClause(a, q.Eligibility, "t.user_id", "u.country")
	sql := fmt.Sprintf(`%s
		SELECT t.user_id, t.completed
		FROM totals t LEFT JOIN users u ON u.id::text = t.user_id
		WHERE %s %s %s`,
		cte, where, orderBy("t.completed", "", "t.user_id"), limitClause(a, q.Limit))
	return sql, a.list()
}

func buildCountCompletedAbove(q leaderboard.AggregateQuery, t leaderboard.Threshold) (string, []any) {
	a := &args{}
	cte := taskTotalsCTE(a, q.Since)
	where := and(
		eligibilityClause(a, q.Eligibility, "t.user_id", "u.country"),
		outrankClause(a, "t.completed", "", "t.user_id", t),
	)
	sql := fmt.Sprintf(`%s
		SELECT COUNT(*)
		FROM totals t LEFT JOIN users u ON u.id::text = t.user_id
		WHERE %s`, cte, where)
	return sql, a.list()
}
