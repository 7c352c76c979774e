package postgres

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alem-hub/focus-leaderboard/internal/domain/leaderboard"
)

func TestEligibilityClause(t *testing.T) {
	a := &args{}
	assert.Equal(t, "TRUE", eligibilityClause(a, leaderboard.Everyone(), "u.id", "u.country"))
	assert.Equal(t, "FALSE", eligibilityClause(a, leaderboard.Nobody(), "u.id", "u.country"))
	assert.Empty(t, a.list())

	a = &args{}
	clause := eligibilityClause(a, leaderboard.Members("b", "a", "b"), "u.id", "u.country")
	assert.Equal(t, "u.id::text = ANY($1::text[])", clause)
	assert.Equal(t, []any{[]string{"a", "b"}}, a.list())

	a = &args{}
	clause = eligibilityClause(a, leaderboard.Country("KZ"), "u.id", "u.country")
	assert.Equal(t, "btrim(u.country) = $1", clause)
	assert.Equal(t, []any{"KZ"}, a.list())
}

func TestOutrankClause(t *testing.T) {
	th := leaderboard.Threshold{Primary: 3, TieBreak: 40, UserID: "u1"}

	a := &args{}
	clause := outrankClause(a, "u.level", "u.xp", "u.id", th)
	assert.Equal(t,
		`(u.level > $1 OR (u.level = $1 AND u.xp > $3) OR (u.level = $1 AND u.xp = $3 AND u.id::text COLLATE "C" < $2))`,
		clause)
	assert.Equal(t, []any{int64(3), "u1", int64(40)}, a.list())

	a = &args{}
	clause = outrankClause(a, "t.seconds", "", "t.user_id", th)
	assert.Equal(t, `(t.seconds > $1 OR (t.seconds = $1 AND t.user_id::text COLLATE "C" < $2))`, clause)
	assert.Equal(t, []any{int64(3), "u1"}, a.list())
}

func TestSinceAndLimit(t *testing.T) {
	a := &args{}
	assert.Equal(t, "TRUE", sinceClause(a, "s.start_time", time.Time{}))
	assert.Equal(t, "", limitClause(a, 0))
	assert.Empty(t, a.list())

	since := time.Date(2024, 6, 8, 0, 0, 0, 0, time.UTC)
	assert.Equal(t, "s.start_time >= $1", sinceClause(a, "s.start_time", since))
	assert.Equal(t, "LIMIT $2", limitClause(a, 10))
	assert.Equal(t, []any{since, 10}, a.list())
}

func TestAnd(t *testing.T) {
	assert.Equal(t, "TRUE", and())
	assert.Equal(t, "TRUE", and("TRUE", ""))
	assert.Equal(t, "a = 1 AND b = 2", and("a = 1", "TRUE", "b = 2"))
}

func TestOrderBy(t *testing.T) {
	assert.Equal(t, `ORDER BY u.level DESC, u.xp DESC, u.id::text COLLATE "C" ASC`, orderBy("u.level", "u.xp", "u.id"))
	assert.Equal(t, `ORDER BY t.seconds DESC, t.user_id::text COLLATE "C" ASC`, orderBy("t.seconds", "", "t.user_id"))
}

func TestBuildCountProfilesAbove(t *testing.T) {
	q := leaderboard.AggregateQuery{Eligibility: leaderboard.Country("KZ")}
	th := leaderboard.Threshold{Primary: 3, TieBreak: 40, UserID: "u1"}

	sql, params := buildCountProfilesAbove(q, leaderboard.OrderByLevelXP, th)
	assert.True(t, strings.HasPrefix(sql, "SELECT COUNT(*) FROM users u WHERE btrim(u.country) = $1 AND (u.level > $2"))
	assert.Equal(t, []any{"KZ", int64(3), "u1", int64(40)}, params)

	sql, _ = buildCountProfilesAbove(q, leaderboard.OrderByStreak, th)
	assert.Contains(t, sql, "COALESCE(u.best_streak, 0) > $2")
}

func TestBuildRankProfiles(t *testing.T) {
	q := leaderboard.AggregateQuery{Eligibility: leaderboard.Everyone(), Limit: 50}

	sql, params := buildRankProfiles(q, leaderboard.OrderByLevelXP)
	assert.Contains(t, sql, "WHERE TRUE ORDER BY u.level DESC, u.xp DESC")
	assert.True(t, strings.HasSuffix(sql, "LIMIT $1"))
	assert.Equal(t, []any{50}, params)
}

func TestBuildSumFocus(t *testing.T) {
	since := time.Date(2024, 6, 8, 0, 0, 0, 0, time.UTC)
	q := leaderboard.AggregateQuery{
		Eligibility: leaderboard.Members("me", "friend"),
		Since:       since,
		Limit:       5,
	}

	sql, params := buildSumFocus(q)
	require.Len(t, params, 4)
	assert.Equal(t, "focus", params[0])
	assert.Equal(t, since, params[1])
	assert.Equal(t, []string{"friend", "me"}, params[2])
	assert.Equal(t, 5, params[3])

	assert.Contains(t, sql, "s.type = $1 AND s.completed AND s.start_time >= $2")
	assert.Contains(t, sql, "GROUP BY s.user_id")
	assert.Contains(t, sql, "t.user_id::text = ANY($3::text[])")
	assert.Contains(t, sql, `ORDER BY t.seconds DESC, t.user_id::text COLLATE "C" ASC LIMIT $4`)
}

func TestBuildCountFocusAbove_AllTime(t *testing.T) {
	q := leaderboard.AggregateQuery{Eligibility: leaderboard.Everyone()}
	th := leaderboard.Threshold{Primary: 1800, UserID: "me"}

	sql, params := buildCountFocusAbove(q, th)
	assert.NotContains(t, sql, "start_time >=")
	assert.Contains(t, sql, "(t.seconds > $2 OR (t.seconds = $2 AND")
	assert.Equal(t, []any{"focus", int64(1800), "me"}, params)
}

func TestBuildCountCompleted(t *testing.T) {
	q := leaderboard.AggregateQuery{Eligibility: leaderboard.Country("DE"), Limit: 3}

	sql, params := buildCountCompleted(q)
	assert.Contains(t, sql, "k.status = $1")
	assert.Contains(t, sql, "btrim(u.country) = $2")
	assert.Equal(t, []any{"completed", "DE", 3}, params)

	sql, params = buildCountCompletedAbove(q, leaderboard.Threshold{Primary: 4, UserID: "x"})
	assert.Contains(t, sql, "SELECT COUNT(*)")
	assert.NotContains(t, sql, "LIMIT")
	assert.Equal(t, []any{"completed", "DE", int64(4), "x"}, params)
}
