package repository

import (
	"context"

	"github.com/jmoiron/sqlx"

	"warbler/internal/model"
)

type FollowRepository interface {
	// Add inserts the edge follower -> followed. Adding an existing edge is a no-op.
	Add(ctx context.Context, followerID, followedID int64) error
	// Remove deletes the edge and reports whether it existed.
	Remove(ctx context.Context, followerID, followedID int64) (bool, error)
	Exists(ctx context.Context, followerID, followedID int64) (bool, error)
	// Following lists the users userID follows.
	Following(ctx context.Context, userID int64) ([]model.User, error)
	// Followers lists the users following userID.
	Followers(ctx context.Context, userID int64) ([]model.User, error)
	FollowingIDs(ctx context.Context, userID int64) ([]int64, error)
}

type postgresFollowRepository struct {
	db sqlx.ExtContext
}

func NewPostgresFollowRepository(db sqlx.ExtContext) FollowRepository {
	return &postgresFollowRepository{db: db}
}

func (r *postgresFollowRepository) Add(ctx context.Context, followerID, followedID int64) error {
	query := `INSERT INTO follows (follower_id, followed_id) VALUES ($1, $2) ON CONFLICT DO NOTHING`
	_, err := r.db.ExecContext(ctx, query, followerID, followedID)
	return translateError(err)
}

func (r *postgresFollowRepository) Remove(ctx context.Context, followerID, followedID int64) (bool, error) {
	query := `DELETE FROM follows WHERE follower_id = $1 AND followed_id = $2`
	res, err := r.db.ExecContext(ctx, query, followerID, followedID)
	if err != nil {
		return false, translateError(err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func (r *postgresFollowRepository) Exists(ctx context.Context, followerID, followedID int64) (bool, error) {
	var exists bool
	query := `SELECT EXISTS (SELECT 1 FROM follows WHERE follower_id = $1 AND followed_id = $2)`
	err := sqlx.GetContext(ctx, r.db, &exists, query, followerID, followedID)
	return exists, translateError(err)
}

func (r *postgresFollowRepository) Following(ctx context.Context, userID int64) ([]model.User, error) {
	users := []model.User{}
	query := `
		SELECT u.id, u.email, u.username, u.image_url, u.header_image_url, u.bio, u.password, u.created_at
		FROM follows f
		JOIN users u ON u.id = f.followed_id
		WHERE f.follower_id = $1
		ORDER BY u.username
	`
	err := sqlx.SelectContext(ctx, r.db, &users, query, userID)
	return users, translateError(err)
}

func (r *postgresFollowRepository) Followers(ctx context.Context, userID int64) ([]model.User, error) {
	users := []model.User{}
	query := `
		SELECT u.id, u.email, u.username, u.image_url, u.header_image_url, u.bio, u.password, u.created_at
		FROM follows f
		JOIN users u ON u.id = f.follower_id
		WHERE f.followed_id = $1
		ORDER BY u.username
	`
	err := sqlx.SelectContext(ctx, r.db, &users, query, userID)
	return users, translateError(err)
}

func (r *postgresFollowRepository) FollowingIDs(ctx context.Context, userID int64) ([]int64, error) {
	ids := []int64{}
	query := `SELECT followed_id FROM follows WHERE follower_id = $1 ORDER BY followed_id`
	err := sqlx.SelectContext(ctx, r.db, &ids, query, userID)
	return ids, translateError(err)
}
