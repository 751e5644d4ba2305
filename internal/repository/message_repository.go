package repository

import (
	"context"

	"github.com/jmoiron/sqlx"

	"warbler/internal/model"
)

type MessageRepository interface {
	Create(ctx context.Context, msg *model.Message) error
	FindByID(ctx context.Context, id int64) (*model.MessageDetails, error)
	ListByUser(ctx context.Context, userID int64, limit int) ([]model.MessageDetails, error)
	// Feed returns messages written by userID or by anyone userID follows.
	Feed(ctx context.Context, userID int64, limit int) ([]model.MessageDetails, error)
	Delete(ctx context.Context, id int64) error
}

type postgresMessageRepository struct {
	db sqlx.ExtContext
}

func NewPostgresMessageRepository(db sqlx.ExtContext) MessageRepository {
	return &postgresMessageRepository{db: db}
}

func (r *postgresMessageRepository) Create(ctx context.Context, msg *model.Message) error {
	query := `INSERT INTO messages (text, user_id) VALUES ($1, $2) RETURNING id, timestamp`
	err := r.db.QueryRowxContext(ctx, query, msg.Text, msg.UserID).Scan(&msg.ID, &msg.Timestamp)
	return translateError(err)
}

func (r *postgresMessageRepository) FindByID(ctx context.Context, id int64) (*model.MessageDetails, error) {
	var msg model.MessageDetails
	query := `
		SELECT m.id, m.text, m.timestamp, m.user_id, u.username, u.image_url AS user_image_url
		FROM messages m
		JOIN users u ON u.id = m.user_id
		WHERE m.id = $1
	`
	if err := sqlx.GetContext(ctx, r.db, &msg, query, id); err != nil {
		return nil, translateError(err)
	}

	return &msg, nil
}

func (r *postgresMessageRepository) ListByUser(ctx context.Context, userID int64, limit int) ([]model.MessageDetails, error) {
	messages := []model.MessageDetails{}
	query := `
		SELECT m.id, m.text, m.timestamp, m.user_id, u.username, u.image_url AS user_image_url
		FROM messages m
		JOIN users u ON u.id = m.user_id
		WHERE m.user_id = $1
		ORDER BY m.timestamp DESC, m.id DESC
		LIMIT $2
	`
	err := sqlx.SelectContext(ctx, r.db, &messages, query, userID, limit)
	return messages, translateError(err)
}

func (r *postgresMessageRepository) Feed(ctx context.Context, userID int64, limit int) ([]model.MessageDetails, error) {
	messages := []model.MessageDetails{}
	query := `
		SELECT m.id, m.text, m.timestamp, m.user_id, u.username, u.image_url AS user_image_url
		FROM messages m
		JOIN users u ON u.id = m.user_id
		WHERE m.user_id = $1
		   OR m.user_id IN (SELECT followed_id FROM follows WHERE follower_id = $1)
		ORDER BY m.timestamp DESC, m.id DESC
		LIMIT $2
	`
	err := sqlx.SelectContext(ctx, r.db, &messages, query, userID, limit)
	return messages, translateError(err)
}

func (r *postgresMessageRepository) Delete(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM messages WHERE id = $1`, id)
	if err != nil {
		return translateError(err)
	}

	return requireAffected(res)
}
