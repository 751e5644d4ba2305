package config

import (
	"fmt"
	"log/slog"
	"net"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	DriverPostgres = "postgres"
	DriverMemory   = "memory"
)

type Config struct {
	ServiceName string
	Port        string
	LogLevel    slog.Level

	DBDriver   string
	DBUser     string
	DBPassword string
	DBHost     string
	DBPort     string
	DBName     string
	DBSSLMode  string

	SessionTTL time.Duration
	BcryptCost int

	NATSURL      string
	OTLPEndpoint string

	S3 S3Config
}

type S3Config struct {
	Endpoint     string
	Region       string
	Bucket       string
	AccessKey    string
	SecretKey    string
	UsePathStyle bool
	UploadExpiry time.Duration
}

// Enabled reports whether uploads can be presigned.
func (c S3Config) Enabled() bool {
	return c.Bucket != ""
}

// DatabaseURL is the pgx connection string.
func (c Config) DatabaseURL() string {
	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(c.DBUser, c.DBPassword),
		Host:     net.JoinHostPort(c.DBHost, c.DBPort),
		Path:     "/" + c.DBName,
		RawQuery: url.Values{"sslmode": {c.DBSSLMode}}.Encode(),
	}
	return u.String()
}

// Load reads the optional env files, then the process environment.
// Variables already set in the environment win over file values.
func Load(files ...string) (*Config, error) {
	for _, f := range files {
		if err := godotenv.Load(f); err != nil {
			slog.Debug("env file not loaded", "file", f, "error", err)
		}
	}

	cfg := &Config{
		ServiceName:  getEnv("SERVICE_NAME", "warbler"),
		Port:         getEnv("APP_PORT", "8000"),
		DBDriver:     strings.ToLower(getEnv("DB_DRIVER", DriverPostgres)),
		DBUser:       getEnv("DB_USER", "postgres"),
		DBPassword:   os.Getenv("DB_PASSWORD"),
		DBHost:       getEnv("DB_HOST", "localhost"),
		DBPort:       getEnv("DB_PORT", "5432"),
		DBName:       getEnv("DB_NAME", "warbler"),
		DBSSLMode:    getEnv("DB_SSLMODE", "disable"),
		NATSURL:      os.Getenv("NATS_URL"),
		OTLPEndpoint: os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT"),
		S3: S3Config{
			Endpoint:     os.Getenv("S3_ENDPOINT"),
			Region:       getEnv("AWS_REGION", "us-east-1"),
			Bucket:       os.Getenv("S3_BUCKET_NAME"),
			AccessKey:    os.Getenv("AWS_ACCESS_KEY_ID"),
			SecretKey:    os.Getenv("AWS_SECRET_ACCESS_KEY"),
			UsePathStyle: os.Getenv("S3_USE_PATH_STYLE") == "true",
		},
	}

	var err error
	if cfg.LogLevel, err = parseLevel(getEnv("LOG_LEVEL", "info")); err != nil {
		return nil, err
	}
	if cfg.SessionTTL, err = parseDuration("SESSION_TTL", "24h"); err != nil {
		return nil, err
	}
	if cfg.S3.UploadExpiry, err = parseDuration("S3_UPLOAD_EXPIRY", "15m"); err != nil {
		return nil, err
	}
	if cfg.BcryptCost, err = strconv.Atoi(getEnv("BCRYPT_COST", "10")); err != nil {
		return nil, fmt.Errorf("BCRYPT_COST: %w", err)
	}

	switch cfg.DBDriver {
	case DriverPostgres, DriverMemory:
	default:
		return nil, fmt.Errorf("DB_DRIVER: unsupported driver %q", cfg.DBDriver)
	}

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func parseDuration(key, fallback string) (time.Duration, error) {
	d, err := time.ParseDuration(getEnv(key, fallback))
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return d, nil
}

func parseLevel(s string) (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(s)); err != nil {
		return 0, fmt.Errorf("LOG_LEVEL: %w", err)
	}
	return level, nil
}
