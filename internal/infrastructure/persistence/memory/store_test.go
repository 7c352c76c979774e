package memory

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alem-hub/focus-leaderboard/internal/domain/leaderboard"
	"github.com/alem-hub/focus-leaderboard/internal/domain/shared"
)

const fixtureJSON = `{
  "profiles": [
    {"id": "alice", "name": "Alice", "level": 2, "xp": 50, "country": "KZ", "bestStreak": 4},
    {"id": "bob", "name": "Bob", "level": 2, "xp": 80, "country": " KZ", "email": "bob@example.com"},
    {"id": "carol", "level": 3, "xp": 0, "country": "DE"}
  ],
  "friendships": [
    {"userId": "alice", "friendId": "bob", "status": "accepted"},
    {"userId": "carol", "friendId": "alice", "status": "accepted"},
    {"userId": "bob", "friendId": "carol", "status": "pending"}
  ],
  "sessions": [
    {"userId": "alice", "type": "focus", "completed": true, "duration": 1500, "startTime": "2024-06-14T10:00:00Z"},
    {"userId": "ghost", "type": "focus", "completed": true, "duration": 9000, "startTime": "2024-06-14T10:00:00Z"}
  ],
  "tasks": [
    {"userId": "bob", "status": "completed", "updatedAt": "2024-06-14T10:00:00Z"}
  ]
}`

func loadFixture(t *testing.T) *Store {
	t.Helper()
	s := NewStore()
	require.NoError(t, s.LoadFixture(strings.NewReader(fixtureJSON)))
	return s
}

func TestLoadFixture(t *testing.T) {
	s := loadFixture(t)
	ctx := context.Background()

	p, err := s.GetProfile(ctx, "bob")
	require.NoError(t, err)
	assert.Equal(t, "bob", p.Handle())

	_, err = s.GetProfile(ctx, "nobody")
	assert.True(t, errors.Is(err, shared.ErrNotFound))

	profiles, err := s.GetProfiles(ctx, []string{"alice", "nobody"})
	require.NoError(t, err)
	assert.Len(t, profiles, 1)
}

func TestLoadFixture_RejectsInvalidProfile(t *testing.T) {
	s := NewStore()
	err := s.LoadFixture(strings.NewReader(`{"profiles":[{"id":"x","level":0}]}`))
	require.Error(t, err)
	assert.True(t, errors.Is(err, shared.ErrInvalidLevel))

	assert.Error(t, s.LoadFixture(strings.NewReader(`{not json`)))
}

func TestDistinctCountries_TrimsAndSorts(t *testing.T) {
	countries, err := loadFixture(t).DistinctCountries(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"DE", "KZ"}, countries)
}

func TestAcceptedFriendIDs(t *testing.T) {
	s := loadFixture(t)
	ctx := context.Background()

	ids, err := s.AcceptedFriendIDs(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, []string{"bob", "carol"}, ids)

	ids, err = s.AcceptedFriendIDs(ctx, "carol")
	require.NoError(t, err)
	assert.Equal(t, []string{"alice"}, ids)
}

func TestRankAndCountProfiles(t *testing.T) {
	s := loadFixture(t)
	ctx := context.Background()

	rows, err := s.RankProfiles(ctx, leaderboard.AggregateQuery{Eligibility: leaderboard.Everyone(), Limit: 2}, leaderboard.OrderByLevelXP)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "carol", rows[0].ID)
	assert.Equal(t, "bob", rows[1].ID)

	// stored " KZ" matches "KZ"
	rows, err = s.RankProfiles(ctx, leaderboard.AggregateQuery{Eligibility: leaderboard.Country("KZ")}, leaderboard.OrderByLevelXP)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "bob", rows[0].ID)
	assert.Equal(t, "alice", rows[1].ID)

	alice, err := s.GetProfile(ctx, "alice")
	require.NoError(t, err)
	n, err := s.CountProfilesAbove(ctx, leaderboard.AggregateQuery{Eligibility: leaderboard.Everyone()},
		leaderboard.OrderByLevelXP, leaderboard.ThresholdOf(leaderboard.XPScore(alice)))
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	n, err = s.CountProfilesAbove(ctx, leaderboard.AggregateQuery{Eligibility: leaderboard.Everyone()},
		leaderboard.OrderByStreak, leaderboard.ThresholdOf(leaderboard.StreakScore(alice)))
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestFocusAggregation(t *testing.T) {
	s := loadFixture(t)
	ctx := context.Background()
	since := time.Date(2024, 6, 8, 0, 0, 0, 0, time.UTC)

	rows, err := s.SumFocus(ctx, leaderboard.AggregateQuery{Eligibility: leaderboard.Everyone(), Since: since})
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "ghost", rows[0].UserID)

	// users without a profile never match a country predicate
	rows, err = s.SumFocus(ctx, leaderboard.AggregateQuery{Eligibility: leaderboard.Country("KZ"), Since: since})
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "alice", rows[0].UserID)

	total, err := s.FocusTotalOf(ctx, "alice", since)
	require.NoError(t, err)
	assert.Equal(t, int64(1500), total.Seconds)

	total, err = s.FocusTotalOf(ctx, "alice", time.Date(2024, 6, 15, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.Zero(t, total.Seconds)

	n, err := s.CountFocusAbove(ctx, leaderboard.AggregateQuery{Eligibility: leaderboard.Everyone(), Since: since},
		leaderboard.ThresholdOf(leaderboard.FocusScore(total)))
	require.NoError(t, err)
	assert.Equal(t, 2, n)
}

func TestTaskAggregation(t *testing.T) {
	s := loadFixture(t)
	ctx := context.Background()

	rows, err := s.CountCompleted(ctx, leaderboard.AggregateQuery{Eligibility: leaderboard.Members("bob", "alice")})
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, int64(1), rows[0].Completed)

	n, err := s.CountCompletedAbove(ctx, leaderboard.AggregateQuery{Eligibility: leaderboard.Everyone()},
		leaderboard.Threshold{UserID: "alice"})
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestReadsHonourCancellation(t *testing.T) {
	s := loadFixture(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := s.GetProfile(ctx, "alice")
	assert.ErrorIs(t, err, context.Canceled)
	_, err = s.SumFocus(ctx, leaderboard.AggregateQuery{Eligibility: leaderboard.Everyone()})
	assert.ErrorIs(t, err, context.Canceled)
}
