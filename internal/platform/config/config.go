package config

import (
	"errors"
	"fmt"
	"net/netip"
	"os"
	"strconv"
	"strings"
	"time"

	"ekaa/pkg/platform/middleware/metadata"
)

// Store backends.
const (
	StoreSQLite   = "sqlite"
	StorePostgres = "postgres"
	StoreMemory   = "memory"
)

// Server captures process level configuration.
type Server struct {
	Addr        string
	MetricsAddr string
	LogLevel    string
	// TrustedProxies are the peers allowed to report the client address
	// through X-Forwarded-For. Empty means the socket peer is the client.
	TrustedProxies []netip.Prefix

	Store       string
	DatabaseURL string
	SQLitePath  string

	Admin   AdminConfig
	Session SessionConfig
	Lockout LockoutConfig
	Redis   RedisConfig
	Kafka   KafkaConfig
}

// AdminConfig holds the single administrator credential. Exactly one of
// PasswordHash (bcrypt) or Password (development only) is set.
type AdminConfig struct {
	Username     string
	PasswordHash string
	Password     string
}

type SessionConfig struct {
	// SigningKey is empty when none was configured; main then generates an
	// ephemeral key so sessions do not survive a restart.
	SigningKey   string
	TTL          time.Duration
	CookieSecure bool
}

// LockoutConfig limits failed logins per username and client IP
// (MaxFailures) and per username from any IP (MaxAccountFailures).
type LockoutConfig struct {
	MaxFailures        int
	MaxAccountFailures int
	Window             time.Duration
}

type RedisConfig struct {
	URL          string
	PoolSize     int
	MinIdleConns int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

type KafkaConfig struct {
	Brokers []string
	Topic   string
}

// Enabled reports whether registration events should be published to Kafka.
func (k KafkaConfig) Enabled() bool {
	return len(k.Brokers) > 0
}

// FromEnv builds a Server config from environment variables so main stays lean.
func FromEnv() (Server, error) {
	cfg := Server{
		Addr:        getenv("EKAA_ADDR", ":8080"),
		MetricsAddr: os.Getenv("METRICS_ADDR"),
		LogLevel:    getenv("LOG_LEVEL", "info"),
		Store:       strings.ToLower(getenv("STORE", StoreSQLite)),
		DatabaseURL: os.Getenv("DATABASE_URL"),
		SQLitePath:  getenv("SQLITE_PATH", "ekaa.db"),
		Admin: AdminConfig{
			Username:     strings.TrimSpace(os.Getenv("ADMIN_USERNAME")),
			PasswordHash: strings.TrimSpace(os.Getenv("ADMIN_PASSWORD_HASH")),
			Password:     os.Getenv("ADMIN_PASSWORD"),
		},
		Session: SessionConfig{
			SigningKey: os.Getenv("SESSION_SIGNING_KEY"),
		},
		Redis: RedisConfig{
			URL:          os.Getenv("REDIS_URL"),
			PoolSize:     10,
			MinIdleConns: 2,
			DialTimeout:  5 * time.Second,
			ReadTimeout:  3 * time.Second,
			WriteTimeout: 3 * time.Second,
		},
		Kafka: KafkaConfig{
			Brokers: splitList(os.Getenv("KAFKA_BROKERS")),
			Topic:   getenv("KAFKA_TOPIC", "ekaa.registrations"),
		},
	}
	if _, ok := os.LookupEnv("METRICS_ADDR"); !ok {
		cfg.MetricsAddr = ":9090"
	}

	var err error
	if cfg.Session.TTL, err = durationEnv("SESSION_TTL", 8*time.Hour); err != nil {
		return cfg, err
	}
	if cfg.Session.CookieSecure, err = boolEnv("COOKIE_SECURE", false); err != nil {
		return cfg, err
	}
	if cfg.Lockout.MaxFailures, err = intEnv("LOGIN_MAX_FAILURES", 5); err != nil {
		return cfg, err
	}
	if cfg.Lockout.MaxAccountFailures, err = intEnv("LOGIN_MAX_ACCOUNT_FAILURES", 20); err != nil {
		return cfg, err
	}
	if cfg.TrustedProxies, err = metadata.ParseTrustedProxies(splitList(os.Getenv("TRUSTED_PROXIES"))); err != nil {
		return cfg, fmt.Errorf("TRUSTED_PROXIES: %w", err)
	}
	if cfg.Lockout.Window, err = durationEnv("LOGIN_LOCKOUT_WINDOW", 15*time.Minute); err != nil {
		return cfg, err
	}

	return cfg, cfg.Validate()
}

// Validate checks cross-field requirements.
func (c Server) Validate() error {
	var errs []error
	switch c.Store {
	case StoreSQLite:
		if c.SQLitePath == "" {
			errs = append(errs, errors.New("SQLITE_PATH is required for the sqlite store"))
		}
	case StorePostgres:
		if c.DatabaseURL == "" {
			errs = append(errs, errors.New("DATABASE_URL is required for the postgres store"))
		}
	case StoreMemory:
	default:
		errs = append(errs, fmt.Errorf("STORE %q is not one of sqlite, postgres, memory", c.Store))
	}
	if c.Admin.Username == "" {
		errs = append(errs, errors.New("ADMIN_USERNAME is required"))
	}
	if c.Admin.PasswordHash == "" && c.Admin.Password == "" {
		errs = append(errs, errors.New("ADMIN_PASSWORD_HASH (or ADMIN_PASSWORD for development) is required"))
	}
	if c.Session.TTL <= 0 {
		errs = append(errs, errors.New("SESSION_TTL must be positive"))
	}
	if c.Lockout.MaxFailures <= 0 {
		errs = append(errs, errors.New("LOGIN_MAX_FAILURES must be positive"))
	}
	if c.Lockout.MaxAccountFailures < c.Lockout.MaxFailures {
		errs = append(errs, errors.New("LOGIN_MAX_ACCOUNT_FAILURES must be at least LOGIN_MAX_FAILURES"))
	}
	if c.Lockout.Window <= 0 {
		errs = append(errs, errors.New("LOGIN_LOCKOUT_WINDOW must be positive"))
	}
	return errors.Join(errs...)
}

func getenv(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}

func intEnv(key string, fallback int) (int, error) {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return fallback, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return v, nil
}

func boolEnv(key string, fallback bool) (bool, error) {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return fallback, nil
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return false, fmt.Errorf("%s: %w", key, err)
	}
	return v, nil
}

func durationEnv(key string, fallback time.Duration) (time.Duration, error) {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return fallback, nil
	}
	v, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return v, nil
}

func splitList(raw string) []string {
	var out []string
	for _, p := range strings.Split(raw, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
