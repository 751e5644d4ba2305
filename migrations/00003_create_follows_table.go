package migrations

import (
	"context"
	"database/sql"

	"github.com/pressly/goose/v3"
)

func init() {
	goose.AddMigrationContext(upCreateFollowsTable, downCreateFollowsTable)
}

func upCreateFollowsTable(ctx context.Context, tx *sql.Tx) error {
	query := `
	CREATE TABLE follows (
	  follower_id BIGINT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
	  followed_id BIGINT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
	  created_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT now(),
	  PRIMARY KEY (follower_id, followed_id),
	  CONSTRAINT follows_no_self_follow CHECK (follower_id <> followed_id)
	);

	CREATE INDEX idx_follows_followed ON follows (followed_id);
	`

	_, err := tx.ExecContext(ctx, query)
	return err
}

func downCreateFollowsTable(ctx context.Context, tx *sql.Tx) error {
	_, err := tx.ExecContext(ctx, `DROP TABLE IF EXISTS follows;`)
	return err
}
