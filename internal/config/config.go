package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Auth modes.
const (
	ModeDevelopment = "development"
	ModeProduction  = "production"
)

// Config caserma-alloggi (HTTP API) configuration.
type Config struct {
	HTTP struct {
		Addr string
	}
	DBEnabled bool
	Database  DatabaseConfig
	Redis     struct {
		Enabled  bool
		Addr     string
		Password string
		DB       int
	}
	Log struct {
		Level  string
		Format string
	}
	Auth      AuthConfig
	Directory DirectoryConfig
}

// DatabaseConfig Postgres connection settings.
type DatabaseConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	Database string
	SSLMode  string
	MaxConns int
	MaxIdle  int
}

// GetDSN builds the lib/pq connection string.
func (c *DatabaseConfig) GetDSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Database, c.SSLMode)
}

// AuthConfig identity-gate configuration, injected into the auth service
// instead of being read from ambient process state.
// Mode "development" stubs the identity with DevUsername; "production"
// requires the X-Authenticated-User header set by the IIS front.
type AuthConfig struct {
	Mode        string
	DevUsername string
	Domain      string
	AdminTTL    time.Duration
}

// DirectoryConfig personnel directory HTTP service settings. In
// development mode the client returns mock results and never dials out.
type DirectoryConfig struct {
	BaseURL string
	APIKey  string
	Timeout time.Duration
}

func Load() *Config {
	cfg := &Config{}
	cfg.HTTP.Addr = getEnv("HTTP_ADDR", ":8080")

	// Default to true for local dev: if the DB is unavailable the service
	// falls back to the in-memory store instead of refusing to start.
	cfg.DBEnabled = getEnv("DB_ENABLED", "true") == "true"
	cfg.Database.Host = getEnv("DB_HOST", "localhost")
	cfg.Database.Port = parseInt(getEnv("DB_PORT", "5432"), 5432)
	cfg.Database.User = getEnv("DB_USER", "postgres")
	cfg.Database.Password = getEnv("DB_PASSWORD", "postgres")
	cfg.Database.Database = getEnv("DB_NAME", "caserma")
	cfg.Database.SSLMode = getEnv("DB_SSLMODE", "disable")
	cfg.Database.MaxConns = parseInt(getEnv("DB_MAX_CONNS", "10"), 10)
	cfg.Database.MaxIdle = parseInt(getEnv("DB_MAX_IDLE", "5"), 5)

	cfg.Redis.Enabled = getEnv("REDIS_ENABLED", "false") == "true"
	cfg.Redis.Addr = getEnv("REDIS_ADDR", "localhost:6379")
	cfg.Redis.Password = getEnv("REDIS_PASSWORD", "")
	cfg.Redis.DB = 0

	cfg.Log.Level = getEnv("LOG_LEVEL", "info")
	cfg.Log.Format = getEnv("LOG_FORMAT", "json")

	cfg.Auth.Mode = getEnv("AUTH_MODE", ModeDevelopment)
	cfg.Auth.DevUsername = getEnv("DEV_USERNAME", "test.user")
	cfg.Auth.Domain = getEnv("AD_DOMAIN", "GDFNET")
	cfg.Auth.AdminTTL = time.Duration(parseInt(getEnv("ADMIN_CACHE_TTL_SECONDS", "300"), 300)) * time.Second

	cfg.Directory.BaseURL = getEnv("DIRECTORY_BASE_URL", "http://localhost:8090")
	cfg.Directory.APIKey = getEnv("DIRECTORY_API_KEY", "")
	cfg.Directory.Timeout = time.Duration(parseInt(getEnv("DIRECTORY_TIMEOUT_SECONDS", "10"), 10)) * time.Second

	return cfg
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func parseInt(s string, def int) int {
	i, err := strconv.Atoi(s)
	if err != nil {
		return def
	}
	return i
}
