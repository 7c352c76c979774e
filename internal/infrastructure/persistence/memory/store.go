// Package memory implements the leaderboard collaborator interfaces over
// in-process maps. It backs STORE_DRIVER=memory and the application tests.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/alem-hub/focus-leaderboard/internal/domain/activity"
	"github.com/alem-hub/focus-leaderboard/internal/domain/leaderboard"
	"github.com/alem-hub/focus-leaderboard/internal/domain/profile"
	"github.com/alem-hub/focus-leaderboard/internal/domain/shared"
	"github.com/alem-hub/focus-leaderboard/internal/domain/social"
)

// Store holds profiles, friendships, focus sessions and tasks.
// All read methods are safe for concurrent use.
type Store struct {
	mu          sync.RWMutex
	profiles    map[string]*profile.UserProfile
	friendships []social.Friendship
	sessions    []activity.FocusSession
	tasks       []activity.Task
}

// Compile-time interface checks.
var (
	_ leaderboard.ProfileReader      = (*Store)(nil)
	_ leaderboard.FriendshipReader   = (*Store)(nil)
	_ leaderboard.FocusSessionReader = (*Store)(nil)
	_ leaderboard.TaskReader         = (*Store)(nil)
)

// NewStore creates an empty store.
func NewStore() *Store {
	return &Store{profiles: make(map[string]*profile.UserProfile)}
}

// Stores exposes the store as every leaderboard collaborator.
func (s *Store) Stores() leaderboard.Stores {
	return leaderboard.Stores{Profiles: s, Friendships: s, Sessions: s, Tasks: s}
}

// ══════════════════════════════════════════════════════════════════════════════
// WRITES (fixtures and tests)
// ══════════════════════════════════════════════════════════════════════════════

// PutProfile inserts or replaces a profile.
func (s *Store) PutProfile(p profile.UserProfile) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := p
	s.profiles[p.ID] = &cp
}

// AddFriendship records one edge.
func (s *Store) AddFriendship(f social.Friendship) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.friendships = append(s.friendships, f)
}

// AddSession records one focus session.
func (s *Store) AddSession(fs activity.FocusSession) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions = append(s.sessions, fs)
}

// AddTask records one task.
func (s *Store) AddTask(t activity.Task) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tasks = append(s.tasks, t)
}

// ══════════════════════════════════════════════════════════════════════════════
// PROFILE READER
// ══════════════════════════════════════════════════════════════════════════════

func (s *Store) GetProfile(ctx context.Context, userID string) (*profile.UserProfile, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.profiles[userID]
	if !ok {
		return nil, shared.ErrProfileNotFound
	}
	cp := *p
	return &cp, nil
}

func (s *Store) GetProfiles(ctx context.Context, userIDs []string) (map[string]*profile.UserProfile, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make(map[string]*profile.UserProfile, len(userIDs))
	for _, id := range userIDs {
		if p, ok := s.profiles[id]; ok {
			cp := *p
			out[id] = &cp
		}
	}
	return out, nil
}

func (s *Store) RankProfiles(ctx context.Context, q leaderboard.AggregateQuery, order leaderboard.ProfileOrder) ([]*profile.UserProfile, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows := make([]*profile.UserProfile, 0, len(s.profiles))
	for _, p := range s.profiles {
		if q.Eligibility.Admits(p.ID, p.Country) {
			cp := *p
			rows = append(rows, &cp)
		}
	}
	sort.Slice(rows, func(i, j int) bool {
		return leaderboard.Outranks(leaderboard.ProfileScore(rows[i], order), leaderboard.ProfileScore(rows[j], order))
	})
	return truncate(rows, q.Limit), nil
}

func (s *Store) CountProfilesAbove(ctx context.Context, q leaderboard.AggregateQuery, order leaderboard.ProfileOrder, t leaderboard.Threshold) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	n := 0
	for _, p := range s.profiles {
		if q.Eligibility.Admits(p.ID, p.Country) && t.Admits(leaderboard.ProfileScore(p, order)) {
			n++
		}
	}
	return n, nil
}

func (s *Store) DistinctCountries(ctx context.Context) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	seen := make(map[string]struct{})
	out := make([]string, 0)
	for _, p := range s.profiles {
		c := leaderboard.NormalizeCountry(p.Country)
		if c == "" {
			continue
		}
		if _, ok := seen[c]; ok {
			continue
		}
		seen[c] = struct{}{}
		out = append(out, c)
	}
	sort.Strings(out)
	return out, nil
}

// ══════════════════════════════════════════════════════════════════════════════
// FRIENDSHIP READER
// ══════════════════════════════════════════════════════════════════════════════

// AcceptedFriendIDs treats edges as symmetric: a row stored in either
// direction makes both users friends.
func (s *Store) AcceptedFriendIDs(ctx context.Context, userID string) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	seen := make(map[string]struct{})
	out := make([]string, 0)
	for _, f := range s.friendships {
		if !f.IsAccepted() {
			continue
		}
		other := f.Other(userID)
		if other == "" || other == userID {
			continue
		}
		if _, ok := seen[other]; ok {
			continue
		}
		seen[other] = struct{}{}
		out = append(out, other)
	}
	sort.Strings(out)
	return out, nil
}

// ══════════════════════════════════════════════════════════════════════════════
// FOCUS SESSION READER
// ══════════════════════════════════════════════════════════════════════════════

// focusTotals groups every qualifying session first, then applies eligibility.
func (s *Store) focusTotals(q leaderboard.AggregateQuery) []leaderboard.FocusTotal {
	byUser := make(map[string]*leaderboard.FocusTotal)
	for _, fs := range s.sessions {
		if !fs.CountsTowardFocus(q.Since) {
			continue
		}
		t, ok := byUser[fs.UserID]
		if !ok {
			t = &leaderboard.FocusTotal{UserID: fs.UserID}
			byUser[fs.UserID] = t
		}
		t.Seconds += int64(fs.Duration)
		t.Sessions++
	}

	out := make([]leaderboard.FocusTotal, 0, len(byUser))
	for id, t := range byUser {
		if s.admits(q.Eligibility, id) {
			out = append(out, *t)
		}
	}
	return out
}

func (s *Store) SumFocus(ctx context.Context, q leaderboard.AggregateQuery) ([]leaderboard.FocusTotal, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows := s.focusTotals(q)
	sort.Slice(rows, func(i, j int) bool {
		return leaderboard.Outranks(leaderboard.FocusScore(rows[i]), leaderboard.FocusScore(rows[j]))
	})
	return truncate(rows, q.Limit), nil
}

func (s *Store) FocusTotalOf(ctx context.Context, userID string, since time.Time) (leaderboard.FocusTotal, error) {
	if err := ctx.Err(); err != nil {
		return leaderboard.FocusTotal{}, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	total := leaderboard.FocusTotal{UserID: userID}
	for _, fs := range s.sessions {
		if fs.UserID == userID && fs.CountsTowardFocus(since) {
			total.Seconds += int64(fs.Duration)
			total.Sessions++
		}
	}
	return total, nil
}

func (s *Store) CountFocusAbove(ctx context.Context, q leaderboard.AggregateQuery, t leaderboard.Threshold) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	n := 0
	for _, row := range s.focusTotals(q) {
		if t.Admits(leaderboard.FocusScore(row)) {
			n++
		}
	}
	return n, nil
}

// ══════════════════════════════════════════════════════════════════════════════
// TASK READER
// ══════════════════════════════════════════════════════════════════════════════

func (s *Store) taskTotals(q leaderboard.AggregateQuery) []leaderboard.TaskTotal {
	byUser := make(map[string]int64)
	for _, t := range s.tasks {
		if t.CountsTowardCompleted(q.Since) {
			byUser[t.UserID]++
		}
	}

	out := make([]leaderboard.TaskTotal, 0, len(byUser))
	for id, n := range byUser {
		if s.admits(q.Eligibility, id) {
			out = append(out, leaderboard.TaskTotal{UserID: id, Completed: n})
		}
	}
	return out
}

func (s *Store) CountCompleted(ctx context.Context, q leaderboard.AggregateQuery) ([]leaderboard.TaskTotal, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows := s.taskTotals(q)
	sort.Slice(rows, func(i, j int) bool {
		return leaderboard.Outranks(leaderboard.TaskScore(rows[i]), leaderboard.TaskScore(rows[j]))
	})
	return truncate(rows, q.Limit), nil
}

func (s *Store) CompletedOf(ctx context.Context, userID string, since time.Time) (leaderboard.TaskTotal, error) {
	if err := ctx.Err(); err != nil {
		return leaderboard.TaskTotal{}, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	total := leaderboard.TaskTotal{UserID: userID}
	for _, t := range s.tasks {
		if t.UserID == userID && t.CountsTowardCompleted(since) {
			total.Completed++
		}
	}
	return total, nil
}

func (s *Store) CountCompletedAbove(ctx context.Context, q leaderboard.AggregateQuery, t leaderboard.Threshold) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	n := 0
	for _, row := range s.taskTotals(q) {
		if t.Admits(leaderboard.TaskScore(row)) {
			n++
		}
	}
	return n, nil
}

// ══════════════════════════════════════════════════════════════════════════════
// HELPERS
// ══════════════════════════════════════════════════════════════════════════════

// admits resolves the user's country from the profile table. Users without a
// profile only pass predicates that do not depend on the country.
func (s *Store) admits(e leaderboard.Eligibility, userID string) bool {
	country := ""
	if p, ok := s.profiles[userID]; ok {
		country = p.Country
	}
	return e.Admits(userID, country)
}

func truncate[T any](rows []T, limit int) []T {
	if limit > 0 && len(rows) > limit {
		return rows[:limit]
	}
	return rows
}
