package repository_test

import (
	"context"
	"log"
	"os"
	"testing"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/jmoiron/sqlx"
	"github.com/pressly/goose/v3"
	"github.com/stretchr/testify/suite"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	repo "warbler/internal/repository"
	_ "warbler/migrations"
)

type PostgresStoreIntegrationTestSuite struct {
	suite.Suite
	db  *sqlx.DB
	pgc *postgres.PostgresContainer
	ctx context.Context
}

func (s *PostgresStoreIntegrationTestSuite) SetupSuite() {
	s.ctx = context.Background()

	pgc, err := postgres.Run(s.ctx,
		"postgres:15-alpine",
		postgres.WithDatabase("warbler-test"),
		postgres.WithUsername("user"),
		postgres.WithPassword("password"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second),
		),
	)
	if err != nil {
		log.Fatalf("could not start postgres container: %s", err)
	}
	s.pgc = pgc

	connStr, err := pgc.ConnectionString(s.ctx, "sslmode=disable")
	s.Require().NoError(err)

	db, err := sqlx.Connect("pgx", connStr)
	s.Require().NoError(err)
	s.db = db

	s.Require().NoError(goose.SetDialect("postgres"))
	s.Require().NoError(goose.Up(db.DB, "../../migrations"))
}

func (s *PostgresStoreIntegrationTestSuite) TearDownSuite() {
	s.db.Close()
	if err := s.pgc.Terminate(s.ctx); err != nil {
		log.Fatalf("failed to terminate pg container: %s", err)
	}
}

func (s *PostgresStoreIntegrationTestSuite) TestStoreContract() {
	runStoreContract(s.T(), func(t *testing.T) repo.Store {
		_, err := s.db.ExecContext(s.ctx, `TRUNCATE users, messages, follows, likes RESTART IDENTITY CASCADE`)
		s.Require().NoError(err)
		return repo.NewPostgresStore(s.db)
	})
}

func TestPostgresStoreIntegration(t *testing.T) {
	if os.Getenv("DOCKER_HOST") == "" {
		t.Skip("Docker is not available, skipping integration test.")
	}
	suite.Run(t, new(PostgresStoreIntegrationTestSuite))
}
