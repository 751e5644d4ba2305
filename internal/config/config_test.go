package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clearEnv(t *testing.T) {
	for _, key := range []string{
		"SERVICE_NAME", "APP_PORT", "LOG_LEVEL", "DB_DRIVER", "DB_USER", "DB_PASSWORD", "DB_HOST",
		"DB_PORT", "DB_NAME", "DB_SSLMODE", "SESSION_TTL", "BCRYPT_COST", "NATS_URL",
		"OTEL_EXPORTER_OTLP_ENDPOINT", "S3_ENDPOINT", "AWS_REGION", "S3_BUCKET_NAME",
		"AWS_ACCESS_KEY_ID", "AWS_SECRET_ACCESS_KEY", "S3_USE_PATH_STYLE", "S3_UPLOAD_EXPIRY",
	} {
		t.Setenv(key, "")
	}
}

func TestLoad_Defaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "8000", cfg.Port)
	assert.Equal(t, DriverPostgres, cfg.DBDriver)
	assert.Equal(t, slog.LevelInfo, cfg.LogLevel)
	assert.Equal(t, 24*time.Hour, cfg.SessionTTL)
	assert.Equal(t, 10, cfg.BcryptCost)
	assert.Equal(t, 15*time.Minute, cfg.S3.UploadExpiry)
	assert.False(t, cfg.S3.Enabled())
	assert.Equal(t, "postgres://postgres:@localhost:5432/warbler?sslmode=disable", cfg.DatabaseURL())
}

func TestLoad_FromEnv(t *testing.T) {
	clearEnv(t)
	t.Setenv("APP_PORT", "9090")
	t.Setenv("DB_DRIVER", "MEMORY")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("SESSION_TTL", "30m")
	t.Setenv("S3_BUCKET_NAME", "avatars")
	t.Setenv("S3_USE_PATH_STYLE", "true")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "9090", cfg.Port)
	assert.Equal(t, DriverMemory, cfg.DBDriver)
	assert.Equal(t, slog.LevelDebug, cfg.LogLevel)
	assert.Equal(t, 30*time.Minute, cfg.SessionTTL)
	assert.True(t, cfg.S3.Enabled())
	assert.True(t, cfg.S3.UsePathStyle)
}

func TestLoad_EnvFile(t *testing.T) {
	clearEnv(t)
	// godotenv only fills variables that are not set at all.
	require.NoError(t, os.Unsetenv("DB_NAME"))
	t.Setenv("APP_PORT", "7000")

	path := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(path, []byte("DB_NAME=fromfile\nAPP_PORT=1111\n"), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "fromfile", cfg.DBName)
	assert.Equal(t, "7000", cfg.Port)
}

func TestLoad_MissingEnvFileIgnored(t *testing.T) {
	clearEnv(t)

	_, err := Load(filepath.Join(t.TempDir(), "missing.env"))
	require.NoError(t, err)
}

func TestLoad_Invalid(t *testing.T) {
	tests := map[string]string{
		"DB_DRIVER":   "sqlite",
		"SESSION_TTL": "forever",
		"BCRYPT_COST": "high",
		"LOG_LEVEL":   "loud",
	}

	for key, value := range tests {
		t.Run(key, func(t *testing.T) {
			clearEnv(t)
			t.Setenv(key, value)

			_, err := Load()
			assert.Error(t, err)
		})
	}
}

func TestDatabaseURL_EscapesCredentials(t *testing.T) {
	cfg := Config{
		DBUser:     "war bler",
		DBPassword: "p@ss:w/rd?#%",
		DBHost:     "db.internal",
		DBPort:     "6543",
		DBName:     "warbler",
		DBSSLMode:  "require",
	}

	pgCfg, err := pgconn.ParseConfig(cfg.DatabaseURL())
	require.NoError(t, err)
	assert.Equal(t, "war bler", pgCfg.User)
	assert.Equal(t, "p@ss:w/rd?#%", pgCfg.Password)
	assert.Equal(t, "db.internal", pgCfg.Host)
	assert.Equal(t, uint16(6543), pgCfg.Port)
	assert.Equal(t, "warbler", pgCfg.Database)
	assert.NotNil(t, pgCfg.TLSConfig)
}
