package model

// Follow means FollowerID follows FollowedID.
type Follow struct {
	FollowerID int64 `db:"follower_id"`
	FollowedID int64 `db:"followed_id"`
}

type Like struct {
	UserID    int64 `db:"user_id"`
	MessageID int64 `db:"message_id"`
}
