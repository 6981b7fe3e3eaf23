package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// ErrAuthNotConfigured is returned when neither an identity provider domain
// nor an explicit key set URL is available.
var ErrAuthNotConfigured = errors.New("auth domain and audience must be configured")

// Config captures the runtime configuration for the application.
type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Logging  LoggingConfig
	Auth     AuthConfig
	Redis    RedisConfig
}

// ServerConfig configures the HTTP server runtime behavior.
type ServerConfig struct {
	Addr              string
	ReadHeaderTimeout time.Duration
	ShutdownTimeout   time.Duration
}

// DatabaseConfig contains the database connection settings.
type DatabaseConfig struct {
	Driver          string
	URL             string
	MaxIdleConns    int
	MaxOpenConns    int
	ConnMaxLifetime time.Duration
	ConnMaxIdleTime time.Duration
	UseMock         bool
}

// LoggingConfig controls the global logger.
type LoggingConfig struct {
	Level  string
	Format string
}

// AuthConfig describes the external identity provider used to verify bearer tokens.
type AuthConfig struct {
	Domain      string
	Audience    string
	Algorithm   string
	Issuer      string
	JWKSURL     string
	JWKSTTL     time.Duration
	MinRefresh  time.Duration
	HTTPTimeout time.Duration
	Leeway      time.Duration
}

// RedisConfig enables sharing the fetched key set between replicas.
type RedisConfig struct {
	URL      string
	PoolSize int
}

// Load inspects the environment and builds a Config value. A .env file in the
// working directory is applied first when present; real environment
// variables win over it.
func Load() (Config, error) {
	_ = godotenv.Load()

	cfg := Config{}

	cfg.Server = ServerConfig{
		Addr: firstNonEmpty(
			os.Getenv("SERVER_ADDR"),
			os.Getenv("ADDR"),
			":8080",
		),
		ReadHeaderTimeout: parseDurationWithDefault(os.Getenv("SERVER_READ_HEADER_TIMEOUT"), 5*time.Second),
		ShutdownTimeout:   parseDurationWithDefault(os.Getenv("SERVER_SHUTDOWN_TIMEOUT"), 10*time.Second),
	}

	cfg.Database = DatabaseConfig{
		Driver: strings.ToLower(firstNonEmpty(
			os.Getenv("DATABASE_DRIVER"),
			"postgres",
		)),
		URL: firstNonEmpty(
			os.Getenv("DATABASE_URL"),
			os.Getenv("DB_URL"),
			"",
		),
		MaxIdleConns:    parseIntWithDefault(os.Getenv("DATABASE_MAX_IDLE_CONNS"), 0),
		MaxOpenConns:    parseIntWithDefault(os.Getenv("DATABASE_MAX_OPEN_CONNS"), 0),
		ConnMaxLifetime: parseDurationWithDefault(os.Getenv("DATABASE_CONN_MAX_LIFETIME"), 0),
		ConnMaxIdleTime: parseDurationWithDefault(os.Getenv("DATABASE_CONN_MAX_IDLE_TIME"), 0),
		UseMock:         parseBoolWithDefault(os.Getenv("DATABASE_USE_MOCK"), false),
	}

	cfg.Logging = LoggingConfig{
		Level:  firstNonEmpty(os.Getenv("LOG_LEVEL"), "info"),
		Format: strings.ToLower(firstNonEmpty(os.Getenv("LOG_FORMAT"), "text")),
	}

	domain := strings.TrimSuffix(strings.TrimPrefix(strings.TrimSpace(os.Getenv("AUTH0_DOMAIN")), "https://"), "/")
	cfg.Auth = AuthConfig{
		Domain:      domain,
		Audience:    firstNonEmpty(os.Getenv("API_AUDIENCE"), os.Getenv("AUTH_AUDIENCE")),
		Algorithm:   firstNonEmpty(os.Getenv("AUTH_ALGORITHM"), os.Getenv("ALGORITHMS"), "RS256"),
		Issuer:      firstNonEmpty(os.Getenv("AUTH_ISSUER"), issuerFor(domain)),
		JWKSURL:     firstNonEmpty(os.Getenv("AUTH_JWKS_URL"), jwksURLFor(domain)),
		JWKSTTL:     parseDurationWithDefault(os.Getenv("AUTH_JWKS_TTL"), 10*time.Minute),
		MinRefresh:  parseDurationWithDefault(os.Getenv("AUTH_JWKS_MIN_REFRESH"), 30*time.Second),
		HTTPTimeout: parseDurationWithDefault(os.Getenv("AUTH_HTTP_TIMEOUT"), 10*time.Second),
		Leeway:      parseDurationWithDefault(os.Getenv("AUTH_LEEWAY"), 0),
	}

	cfg.Redis = RedisConfig{
		URL:      strings.TrimSpace(os.Getenv("REDIS_URL")),
		PoolSize: parseIntWithDefault(os.Getenv("REDIS_POOL_SIZE"), 10),
	}

	if strings.TrimSpace(cfg.Server.Addr) == "" {
		return Config{}, fmt.Errorf("server address must not be empty")
	}

	return cfg, nil
}

// Validate reports whether the auth settings are sufficient to verify tokens.
func (c AuthConfig) Validate() error {
	if strings.TrimSpace(c.JWKSURL) == "" || strings.TrimSpace(c.Audience) == "" {
		return ErrAuthNotConfigured
	}
	return nil
}

func issuerFor(domain string) string {
	if domain == "" {
		return ""
	}
	return "https://" + domain + "/"
}

func jwksURLFor(domain string) string {
	if domain == "" {
		return ""
	}
	return "https://" + domain + "/.well-known/jwks.json"
}

func firstNonEmpty(values ...string) string {
	for _, value := range values {
		if strings.TrimSpace(value) != "" {
			return value
		}
	}
	return ""
}

func parseIntWithDefault(value string, def int) int {
	if strings.TrimSpace(value) == "" {
		return def
	}
	parsed, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil {
		return def
	}
	return parsed
}

func parseDurationWithDefault(value string, def time.Duration) time.Duration {
	if strings.TrimSpace(value) == "" {
		return def
	}
	parsed, err := time.ParseDuration(strings.TrimSpace(value))
	if err != nil {
		return def
	}
	return parsed
}

func parseBoolWithDefault(value string, def bool) bool {
	if strings.TrimSpace(value) == "" {
		return def
	}
	parsed, err := strconv.ParseBool(strings.TrimSpace(value))
	if err != nil {
		return def
	}
	return parsed
}
