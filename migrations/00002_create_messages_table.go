package migrations

import (
	"context"
	"database/sql"

	"github.com/pressly/goose/v3"
)

func init() {
	goose.AddMigrationContext(upCreateMessagesTable, downCreateMessagesTable)
}

func upCreateMessagesTable(ctx context.Context, tx *sql.Tx) error {
	query := `
	CREATE TABLE messages (
	  id BIGSERIAL PRIMARY KEY,
	  text VARCHAR(140) NOT NULL,
	  timestamp TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT now(),
	  user_id BIGINT NOT NULL REFERENCES users(id) ON DELETE CASCADE
	);

	CREATE INDEX idx_messages_user_timestamp ON messages (user_id, timestamp DESC);
	`

	_, err := tx.ExecContext(ctx, query)
	return err
}

func downCreateMessagesTable(ctx context.Context, tx *sql.Tx) error {
	_, err := tx.ExecContext(ctx, `DROP TABLE IF EXISTS messages;`)
	return err
}
