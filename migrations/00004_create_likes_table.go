package migrations

import (
	"database/sql"

	"github.com/pressly/goose/v3"
)

func init() {
	goose.AddMigration(upCreateLikesTable, downCreateLikesTable)
}

func upCreateLikesTable(tx *sql.Tx) error {
	_, err := tx.Exec(`
	CREATE TABLE likes (
	  user_id BIGINT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
	  message_id BIGINT NOT NULL REFERENCES messages(id) ON DELETE CASCADE,
	  PRIMARY KEY (user_id, message_id)
	);

	CREATE INDEX idx_likes_message ON likes (message_id);
	`)
	return err
}

func downCreateLikesTable(tx *sql.Tx) error {
	_, err := tx.Exec(`DROP TABLE IF EXISTS likes;`)
	return err
}
