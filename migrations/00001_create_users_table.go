package migrations

import (
	"context"
	"database/sql"

	"github.com/pressly/goose/v3"
)

func init() {
	goose.AddMigrationContext(upCreateUsersTable, downCreateUsersTable)
}

func upCreateUsersTable(ctx context.Context, tx *sql.Tx) error {
	query := `
	CREATE TABLE users (
	  id BIGSERIAL PRIMARY KEY,
	  email TEXT NOT NULL,
	  username TEXT NOT NULL,
	  image_url TEXT NOT NULL DEFAULT '/static/images/default-pic.png',
	  header_image_url TEXT NOT NULL DEFAULT '/static/images/warbler-hero.png',
	  bio TEXT,
	  password TEXT NOT NULL,
	  created_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT now(),
	  CONSTRAINT users_email_key UNIQUE (email),
	  CONSTRAINT users_username_key UNIQUE (username)
	);
	`

	_, err := tx.ExecContext(ctx, query)
	return err
}

func downCreateUsersTable(ctx context.Context, tx *sql.Tx) error {
	_, err := tx.ExecContext(ctx, `DROP TABLE IF EXISTS users;`)
	return err
}
