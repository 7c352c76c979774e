package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/alem-hub/focus-leaderboard/internal/domain/leaderboard"
	"github.com/alem-hub/focus-leaderboard/internal/domain/social"
)

// FriendshipRepository implements leaderboard.FriendshipReader.
type FriendshipRepository struct {
	conn *Connection
}

var _ leaderboard.FriendshipReader = (*FriendshipRepository)(nil)

// NewFriendshipRepository creates a new FriendshipRepository.
func NewFriendshipRepository(conn *Connection) *FriendshipRepository {
	return &FriendshipRepository{conn: conn}
}

// A friendship row counts in both directions once accepted.
const acceptedFriendsSQL = `
	SELECT f.friend_id::text AS id FROM friendships f
	WHERE f.user_id::text = $1 AND f.status = $2
	UNION
	SELECT f.user_id::text AS id FROM friendships f
	WHERE f.friend_id::text = $1 AND f.status = $2
	ORDER BY id COLLATE "C"`

// AcceptedFriendIDs returns the user's accepted friends, sorted bytewise.
func (r *FriendshipRepository) AcceptedFriendIDs(ctx context.Context, userID string) ([]string, error) {
	ids, err := queryRows(ctx, r.conn, acceptedFriendsSQL,
		[]any{userID, string(social.FriendshipAccepted)},
		func(row pgx.Row) (string, error) {
			var id string
			err := row.Scan(&id)
			return id, err
		})
	if err != nil {
		return nil, fmt.Errorf("failed to list friends: %w", err)
	}

	out := ids[:0]
	for _, id := range ids {
		if id != userID {
			out = append(out, id)
		}
	}
	return out, nil
}
