// Package social содержит модель дружеских связей между пользователями.
// Связь симметрична; в рейтинг друзей попадают только принятые связи.
package social

// FriendshipStatus - статус заявки в друзья.
type FriendshipStatus string

const (
	FriendshipPending  FriendshipStatus = "pending"
	FriendshipAccepted FriendshipStatus = "accepted"
)

// Friendship - ребро социального графа.
type Friendship struct {
	UserID   string
	FriendID string
	Status   FriendshipStatus
}

// IsAccepted сообщает, учитывается ли связь в области видимости "друзья".
func (f Friendship) IsAccepted() bool {
	return f.Status == FriendshipAccepted
}

// Other возвращает второго участника связи относительно userID.
// Если userID не участвует в связи, возвращается пустая строка.
func (f Friendship) Other(userID string) string {
	switch userID {
	case f.UserID:
		return f.FriendID
	case f.FriendID:
		return f.UserID
	default:
		return ""
	}
}
