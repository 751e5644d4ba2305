package repository_test

import (
	"context"
	"database/sql"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/require"

	"warbler/internal/model"
	repo "warbler/internal/repository"
)

var messageColumns = []string{"id", "text", "timestamp", "user_id", "username", "user_image_url"}

func TestPostgresMessageRepository_Create(t *testing.T) {
	db, mock := newMock(t)
	r := repo.NewPostgresMessageRepository(db)

	ts := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	mock.ExpectQuery(regexp.QuoteMeta(`INSERT INTO messages (text, user_id) VALUES ($1, $2) RETURNING id, timestamp`)).
		WithArgs("hello", int64(1)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "timestamp"}).AddRow(int64(10), ts))

	msg := &model.Message{Text: "hello", UserID: 1}
	require.NoError(t, r.Create(context.Background(), msg))
	require.Equal(t, int64(10), msg.ID)
	require.Equal(t, ts, msg.Timestamp)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresMessageRepository_Create_UnknownUser(t *testing.T) {
	db, mock := newMock(t)
	r := repo.NewPostgresMessageRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta(`INSERT INTO messages`)).
		WillReturnError(&pgconn.PgError{Code: "23503", ConstraintName: "messages_user_id_fkey"})

	err := r.Create(context.Background(), &model.Message{Text: "hello", UserID: 99})
	require.ErrorIs(t, err, repo.ErrForeignKeyViolation)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresMessageRepository_FindByID(t *testing.T) {
	db, mock := newMock(t)
	r := repo.NewPostgresMessageRepository(db)

	rows := sqlmock.NewRows(messageColumns).AddRow(int64(3), "hi", time.Now(), int64(1), "alice", "/a.png")
	mock.ExpectQuery(regexp.QuoteMeta(`FROM messages m JOIN users u ON u.id = m.user_id WHERE m.id = $1`)).
		WithArgs(int64(3)).WillReturnRows(rows)

	msg, err := r.FindByID(context.Background(), 3)
	require.NoError(t, err)
	require.Equal(t, "hi", msg.Text)
	require.Equal(t, "alice", msg.Username)
	require.Equal(t, "/a.png", msg.UserImageURL)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresMessageRepository_FindByID_NotFound(t *testing.T) {
	db, mock := newMock(t)
	r := repo.NewPostgresMessageRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta(`WHERE m.id = $1`)).WithArgs(int64(3)).WillReturnError(sql.ErrNoRows)

	_, err := r.FindByID(context.Background(), 3)
	require.ErrorIs(t, err, repo.ErrNotFound)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresMessageRepository_Feed(t *testing.T) {
	db, mock := newMock(t)
	r := repo.NewPostgresMessageRepository(db)

	now := time.Now()
	rows := sqlmock.NewRows(messageColumns).
		AddRow(int64(5), "newest", now, int64(2), "bob", "/b.png").
		AddRow(int64(4), "older", now.Add(-time.Minute), int64(1), "alice", "/a.png")
	mock.ExpectQuery(regexp.QuoteMeta(`OR m.user_id IN (SELECT followed_id FROM follows WHERE follower_id = $1) ORDER BY m.timestamp DESC, m.id DESC LIMIT $2`)).
		WithArgs(int64(1), 100).WillReturnRows(rows)

	feed, err := r.Feed(context.Background(), 1, 100)
	require.NoError(t, err)
	require.Len(t, feed, 2)
	require.Equal(t, "newest", feed[0].Text)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresMessageRepository_ListByUser(t *testing.T) {
	db, mock := newMock(t)
	r := repo.NewPostgresMessageRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta(`WHERE m.user_id = $1 ORDER BY m.timestamp DESC, m.id DESC LIMIT $2`)).
		WithArgs(int64(1), 100).WillReturnRows(sqlmock.NewRows(messageColumns))

	messages, err := r.ListByUser(context.Background(), 1, 100)
	require.NoError(t, err)
	require.NotNil(t, messages)
	require.Empty(t, messages)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresMessageRepository_Delete(t *testing.T) {
	db, mock := newMock(t)
	r := repo.NewPostgresMessageRepository(db)

	mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM messages WHERE id = $1`)).
		WithArgs(int64(3)).WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, r.Delete(context.Background(), 3))
	require.NoError(t, mock.ExpectationsWereMet())
}
