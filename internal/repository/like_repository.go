package repository

import (
	"context"

	"github.com/jmoiron/sqlx"

	"warbler/internal/model"
)

type LikeRepository interface {
	// Add inserts the like edge. A duplicate fails with a unique violation
	// on likes_pkey.
	Add(ctx context.Context, userID, messageID int64) error
	Remove(ctx context.Context, userID, messageID int64) (bool, error)
	LikedMessages(ctx context.Context, userID int64) ([]model.MessageDetails, error)
	LikedMessageIDs(ctx context.Context, userID int64) ([]int64, error)
	CountForMessage(ctx context.Context, messageID int64) (int, error)
}

type postgresLikeRepository struct {
	db sqlx.ExtContext
}

func NewPostgresLikeRepository(db sqlx.ExtContext) LikeRepository {
	return &postgresLikeRepository{db: db}
}

func (r *postgresLikeRepository) Add(ctx context.Context, userID, messageID int64) error {
	_, err := r.db.ExecContext(ctx, `INSERT INTO likes (user_id, message_id) VALUES ($1, $2)`, userID, messageID)
	return translateError(err)
}

func (r *postgresLikeRepository) Remove(ctx context.Context, userID, messageID int64) (bool, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM likes WHERE user_id = $1 AND message_id = $2`, userID, messageID)
	if err != nil {
		return false, translateError(err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func (r *postgresLikeRepository) LikedMessages(ctx context.Context, userID int64) ([]model.MessageDetails, error) {
	messages := []model.MessageDetails{}
	query := `
		SELECT m.id, m.text, m.timestamp, m.user_id, u.username, u.image_url AS user_image_url
		FROM likes l
		JOIN messages m ON m.id = l.message_id
		JOIN users u ON u.id = m.user_id
		WHERE l.user_id = $1
		ORDER BY m.timestamp DESC, m.id DESC
	`
	err := sqlx.SelectContext(ctx, r.db, &messages, query, userID)
	return messages, translateError(err)
}

func (r *postgresLikeRepository) LikedMessageIDs(ctx context.Context, userID int64) ([]int64, error) {
	ids := []int64{}
	err := sqlx.SelectContext(ctx, r.db, &ids, `SELECT message_id FROM likes WHERE user_id = $1 ORDER BY message_id`, userID)
	return ids, translateError(err)
}

func (r *postgresLikeRepository) CountForMessage(ctx context.Context, messageID int64) (int, error) {
	var count int
	err := sqlx.GetContext(ctx, r.db, &count, `SELECT COUNT(*) FROM likes WHERE message_id = $1`, messageID)
	return count, translateError(err)
}
