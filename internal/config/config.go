package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config aggregates runtime configuration for the service.
type Config struct {
	App        AppConfig
	Credential CredentialConfig
	Token      TokenConfig
	Postgres   PostgresConfig
	Redis      RedisConfig
	Usage      UsageConfig
	Auth       AuthConfig
	CORS       CORSConfig
	Logger     LoggerConfig
}

// AppConfig controls server level behavior.
type AppConfig struct {
	Name                  string
	Env                   string
	Host                  string
	Port                  string
	Version               string
	RequestTimeoutSeconds int
}

// CredentialConfig is the signing app identity. Both values must be set for
// any token to be issued; the service starts without them but reports a
// configuration error on every signing attempt.
type CredentialConfig struct {
	AppID          string
	AppCertificate string
}

// TokenConfig holds issuance policy knobs.
type TokenConfig struct {
	// MaxTTLSeconds caps requested token lifetimes when positive. Zero
	// leaves lifetimes unbounded.
	MaxTTLSeconds int
}

// PostgresConfig holds DB connection values.
type PostgresConfig struct {
	DSN            string
	MaxConns       int32
	MinConns       int32
	RunMigrations  bool
	ConnMaxIdleSec int32
	ConnMaxLifeSec int32
}

// RedisConfig holds Redis connection values.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// UsageConfig controls the usage telemetry store.
type UsageConfig struct {
	// Backend selects the store implementation: postgres, redis or memory.
	Backend string
	// WindowMaxDays bounds how far back a usage read may reach.
	WindowMaxDays int
	// RetentionDays is how long redis counters are kept before expiring.
	RetentionDays int
}

// AuthConfig defines operator authentication parameters. Auth is enabled
// only when a JWT secret, an operator key and an operator secret (plain or
// bcrypt hash) are all present.
type AuthConfig struct {
	JWTSecret             string
	AccessTokenTTLMinutes int
	OperatorKey           string
	OperatorSecret        string
	OperatorSecretHash    string
	BcryptCost            int
}

// CORSConfig controls cross-origin response headers.
type CORSConfig struct {
	AllowOrigins string
}

// LoggerConfig configures logging behavior.
type LoggerConfig struct {
	Level string
}

// Load reads configuration from environment variables, applying defaults
// where possible.
func Load() (*Config, error) {
	_ = godotenv.Load()

	redisDB, err := strconv.Atoi(getEnv("REDIS_DB", "0"))
	if err != nil {
		return nil, fmt.Errorf("invalid REDIS_DB: %w", err)
	}

	cfg := &Config{
		App: AppConfig{
			Name:                  getEnv("APP_NAME", "channel-token-service"),
			Env:                   getEnv("APP_ENV", "development"),
			Host:                  getEnv("APP_HOST", "0.0.0.0"),
			Port:                  getEnv("APP_PORT", "8080"),
			Version:               getEnv("APP_VERSION", "dev"),
			RequestTimeoutSeconds: getEnvAsInt("HTTP_REQUEST_TIMEOUT_SECONDS", 30),
		},
		Credential: CredentialConfig{
			AppID:          os.Getenv("APP_ID"),
			AppCertificate: os.Getenv("APP_CERTIFICATE"),
		},
		Token: TokenConfig{
			MaxTTLSeconds: getEnvAsInt("TOKEN_MAX_TTL_SECONDS", 0),
		},
		Postgres: PostgresConfig{
			DSN:            os.Getenv("POSTGRES_DSN"),
			MaxConns:       int32(getEnvAsInt("POSTGRES_MAX_CONNS", 10)),
			MinConns:       int32(getEnvAsInt("POSTGRES_MIN_CONNS", 2)),
			RunMigrations:  getEnvAsBool("POSTGRES_RUN_MIGRATIONS", true),
			ConnMaxIdleSec: int32(getEnvAsInt("POSTGRES_CONN_MAX_IDLE_SECONDS", 30)),
			ConnMaxLifeSec: int32(getEnvAsInt("POSTGRES_CONN_MAX_LIFE_SECONDS", 300)),
		},
		Redis: RedisConfig{
			Addr:     getEnv("REDIS_ADDR", "127.0.0.1:6379"),
			Password: os.Getenv("REDIS_PASSWORD"),
			DB:       redisDB,
		},
		Usage: UsageConfig{
			Backend:       getEnv("USAGE_BACKEND", "postgres"),
			WindowMaxDays: getEnvAsInt("USAGE_WINDOW_MAX_DAYS", 90),
			RetentionDays: getEnvAsInt("USAGE_RETENTION_DAYS", 92),
		},
		Auth: AuthConfig{
			JWTSecret:             os.Getenv("AUTH_JWT_SECRET"),
			AccessTokenTTLMinutes: getEnvAsInt("AUTH_ACCESS_TOKEN_TTL_MINUTES", 60),
			OperatorKey:           os.Getenv("AUTH_OPERATOR_KEY"),
			OperatorSecret:        os.Getenv("AUTH_OPERATOR_SECRET"),
			OperatorSecretHash:    os.Getenv("AUTH_OPERATOR_SECRET_HASH"),
			BcryptCost:            getEnvAsInt("AUTH_BCRYPT_COST", 12),
		},
		CORS: CORSConfig{
			AllowOrigins: os.Getenv("CORS_ALLOW_ORIGINS"),
		},
		Logger: LoggerConfig{
			Level: getEnv("LOG_LEVEL", "info"),
		},
	}

	return cfg, nil
}

// Addr returns the HTTP bind address.
func (a AppConfig) Addr() string {
	return fmt.Sprintf("%s:%s", a.Host, a.Port)
}

// RequestTimeout returns the configured request timeout duration.
func (a AppConfig) RequestTimeout() time.Duration {
	if a.RequestTimeoutSeconds <= 0 {
		return 0
	}
	return time.Duration(a.RequestTimeoutSeconds) * time.Second
}

// Configured reports whether both halves of the signing credential are set.
func (c CredentialConfig) Configured() bool {
	return c.AppID != "" && c.AppCertificate != ""
}

// Enabled reports whether operator authentication can be wired up.
func (a AuthConfig) Enabled() bool {
	return a.JWTSecret != "" && a.OperatorKey != "" && (a.OperatorSecret != "" || a.OperatorSecretHash != "")
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(val)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvAsBool(key string, fallback bool) bool {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	parsed, err := strconv.ParseBool(val)
	if err != nil {
		return fallback
	}
	return parsed
}
