package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
)

// Repositories is the set of table repositories bound to one database handle,
// either the pool or an open transaction.
type Repositories struct {
	Users    UserRepository
	Messages MessageRepository
	Follows  FollowRepository
	Likes    LikeRepository
}

type Store interface {
	// Repositories returns repositories bound to the connection pool.
	Repositories() Repositories
	// WithTx runs fn inside a single transaction. The transaction commits when
	// fn returns nil and rolls back on error or panic; panics are rethrown.
	WithTx(ctx context.Context, fn func(ctx context.Context, repos Repositories) error) error
}

type postgresStore struct {
	db *sqlx.DB
}

func NewPostgresStore(db *sqlx.DB) Store {
	return &postgresStore{db: db}
}

func newRepositories(db sqlx.ExtContext) Repositories {
	return Repositories{
		Users:    NewPostgresUserRepository(db),
		Messages: NewPostgresMessageRepository(db),
		Follows:  NewPostgresFollowRepository(db),
		Likes:    NewPostgresLikeRepository(db),
	}
}

func (s *postgresStore) Repositories() Repositories {
	return newRepositories(s.db)
}

func (s *postgresStore) WithTx(ctx context.Context, fn func(ctx context.Context, repos Repositories) error) (err error) {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}

	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
		if err != nil {
			_ = tx.Rollback()
			return
		}
		if commitErr := tx.Commit(); commitErr != nil {
			err = translateError(commitErr)
		}
	}()

	err = fn(ctx, newRepositories(tx))
	return err
}
