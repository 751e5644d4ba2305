package repository

import (
	"context"
	"strings"

	"github.com/jmoiron/sqlx"

	"warbler/internal/model"
)

type UserRepository interface {
	Create(ctx context.Context, user *model.User) (int64, error)
	FindByID(ctx context.Context, id int64) (*model.User, error)
	FindByUsername(ctx context.Context, username string) (*model.User, error)
	Search(ctx context.Context, query string) ([]model.User, error)
	Update(ctx context.Context, user *model.User) error
	Delete(ctx context.Context, id int64) error
	Stats(ctx context.Context, id int64) (*model.UserStats, error)
}

type postgresUserRepository struct {
	db sqlx.ExtContext
}

func NewPostgresUserRepository(db sqlx.ExtContext) UserRepository {
	return &postgresUserRepository{db: db}
}

func (r *postgresUserRepository) Create(ctx context.Context, user *model.User) (int64, error) {
	user.ApplyDefaults()
	query := `INSERT INTO users (email, username, image_url, header_image_url, bio, password) VALUES ($1, $2, $3, $4, $5, $6) RETURNING id, created_at`

	err := r.db.QueryRowxContext(ctx, query,
		user.Email, user.Username, user.ImageURL, user.HeaderImageURL, user.Bio, user.PasswordHash,
	).Scan(&user.ID, &user.CreatedAt)
	if err != nil {
		return 0, translateError(err)
	}

	return user.ID, nil
}

func (r *postgresUserRepository) FindByID(ctx context.Context, id int64) (*model.User, error) {
	var user model.User
	query := `SELECT id, email, username, image_url, header_image_url, bio, password, created_at FROM users WHERE id = $1`
	if err := sqlx.GetContext(ctx, r.db, &user, query, id); err != nil {
		return nil, translateError(err)
	}

	return &user, nil
}

func (r *postgresUserRepository) FindByUsername(ctx context.Context, username string) (*model.User, error) {
	var user model.User
	query := `SELECT id, email, username, image_url, header_image_url, bio, password, created_at FROM users WHERE username = $1`
	if err := sqlx.GetContext(ctx, r.db, &user, query, username); err != nil {
		return nil, translateError(err)
	}

	return &user, nil
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func (r *postgresUserRepository) Search(ctx context.Context, query string) ([]model.User, error) {
	users := []model.User{}

	if query == "" {
		err := sqlx.SelectContext(ctx, r.db, &users,
			`SELECT id, email, username, image_url, header_image_url, bio, password, created_at FROM users ORDER BY username`)
		return users, translateError(err)
	}

	err := sqlx.SelectContext(ctx, r.db, &users,
		`SELECT id, email, username, image_url, header_image_url, bio, password, created_at FROM users WHERE username ILIKE '%' || $1 || '%' ORDER BY username`,
		likeEscaper.Replace(query))
	return users, translateError(err)
}

func (r *postgresUserRepository) Update(ctx context.Context, user *model.User) error {
	query := `UPDATE users SET email = $1, username = $2, image_url = $3, header_image_url = $4, bio = $5 WHERE id = $6`
	res, err := r.db.ExecContext(ctx, query,
		user.Email, user.Username, user.ImageURL, user.HeaderImageURL, user.Bio, user.ID)
	if err != nil {
		return translateError(err)
	}

	return requireAffected(res)
}

func (r *postgresUserRepository) Delete(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM users WHERE id = $1`, id)
	if err != nil {
		return translateError(err)
	}

	return requireAffected(res)
}

func (r *postgresUserRepository) Stats(ctx context.Context, id int64) (*model.UserStats, error) {
	var stats model.UserStats
	query := `
		SELECT
			(SELECT COUNT(*) FROM messages WHERE user_id = $1) AS messages,
			(SELECT COUNT(*) FROM follows WHERE follower_id = $1) AS following,
			(SELECT COUNT(*) FROM follows WHERE followed_id = $1) AS followers,
			(SELECT COUNT(*) FROM likes WHERE user_id = $1) AS likes
	`
	if err := sqlx.GetContext(ctx, r.db, &stats, query, id); err != nil {
		return nil, translateError(err)
	}

	return &stats, nil
}
