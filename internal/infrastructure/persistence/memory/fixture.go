package memory

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/alem-hub/focus-leaderboard/internal/domain/activity"
	"github.com/alem-hub/focus-leaderboard/internal/domain/profile"
	"github.com/alem-hub/focus-leaderboard/internal/domain/social"
)

// Fixture is the JSON seed format accepted by LoadFixture.
type Fixture struct {
	Profiles []struct {
		ID         string `json:"id"`
		Name       string `json:"name"`
		Username   string `json:"username"`
		Email      string `json:"email"`
		Avatar     string `json:"avatar"`
		Level      int    `json:"level"`
		XP         int    `json:"xp"`
		Country    string `json:"country"`
		StreakDays int    `json:"streakDays"`
		BestStreak int    `json:"bestStreak"`
	} `json:"profiles"`

	Friendships []struct {
		UserID   string `json:"userId"`
		FriendID string `json:"friendId"`
		Status   string `json:"status"`
	} `json:"friendships"`

	Sessions []struct {
		UserID    string    `json:"userId"`
		Type      string    `json:"type"`
		Completed bool      `json:"completed"`
		Duration  int       `json:"duration"`
		StartTime time.Time `json:"startTime"`
	} `json:"sessions"`

	Tasks []struct {
		UserID    string    `json:"userId"`
		Status    string    `json:"status"`
		UpdatedAt time.Time `json:"updatedAt"`
	} `json:"tasks"`
}

// LoadFixtureFile reads a JSON fixture from disk into s.
func (s *Store) LoadFixtureFile(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("failed to open fixture: %w", err)
	}
	defer f.Close()
	return s.LoadFixture(f)
}

// LoadFixture decodes a JSON fixture into s. Invalid profiles are rejected.
func (s *Store) LoadFixture(r io.Reader) error {
	var fx Fixture
	if err := json.NewDecoder(r).Decode(&fx); err != nil {
		return fmt.Errorf("failed to decode fixture: %w", err)
	}

	for _, p := range fx.Profiles {
		up := profile.UserProfile{
			ID:         p.ID,
			Name:       p.Name,
			Username:   p.Username,
			Email:      p.Email,
			Avatar:     p.Avatar,
			Level:      p.Level,
			XP:         p.XP,
			Country:    p.Country,
			StreakDays: p.StreakDays,
			BestStreak: p.BestStreak,
		}
		if err := up.Validate(); err != nil {
			return fmt.Errorf("fixture profile %q: %w", p.ID, err)
		}
		s.PutProfile(up)
	}
	for _, f := range fx.Friendships {
		s.AddFriendship(social.Friendship{UserID: f.UserID, FriendID: f.FriendID, Status: social.FriendshipStatus(f.Status)})
	}
	for _, fs := range fx.Sessions {
		s.AddSession(activity.FocusSession{
			UserID:    fs.UserID,
			Type:      activity.SessionType(fs.Type),
			Completed: fs.Completed,
			Duration:  fs.Duration,
			StartTime: fs.StartTime,
		})
	}
	for _, t := range fx.Tasks {
		s.AddTask(activity.Task{UserID: t.UserID, Status: activity.TaskStatus(t.Status), UpdatedAt: t.UpdatedAt})
	}
	return nil
}
