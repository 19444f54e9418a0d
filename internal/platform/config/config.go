// Package config builds the process-wide configuration once at startup. The
// result is passed by value into component constructors; nothing else in the
// module reads the environment.
package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	pstrings "pedalgate/pkg/platform/strings"
)

// Config is the immutable configuration for one process.
type Config struct {
	Environment string
	LogLevel    string

	Server    Server
	Optimizer Optimizer
	Database  Database
	Redis     RedisConfig
	Auth      Auth
	Mail      Mail
	Health    Health
	Audit     Audit
}

// Server captures HTTP server level configuration.
type Server struct {
	Addr              string
	ReadHeaderTimeout time.Duration
	ReadTimeout       time.Duration
	WriteTimeout      time.Duration
	IdleTimeout       time.Duration
	ShutdownTimeout   time.Duration
	CORSAllowOrigin   string
}

// Optimizer locates and authenticates the upstream route optimizer. An empty
// BaseURL or Token leaves the optimizer unavailable.
type Optimizer struct {
	BaseURL string
	Token   string
	Timeout time.Duration
}

// Configured reports whether upstream calls may be attempted.
func (o Optimizer) Configured() bool {
	return strings.TrimSpace(o.BaseURL) != "" && strings.TrimSpace(o.Token) != ""
}

// Database configures the relational store used for audit rows and health
// probes. An empty URL disables both.
type Database struct {
	URL             string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

// RedisConfig configures the revoked-token list. An empty URL disables it.
type RedisConfig struct {
	URL          string
	PoolSize     int
	MinIdleConns int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// Auth configures validation of dashboard admin tokens.
type Auth struct {
	JWTSigningKey string
	Issuer        string
	AdminRoles    []string
}

// Mail configures the transactional email provider probed by /health.
type Mail struct {
	APIKey  string
	BaseURL string
}

// Health configures the aggregate health checks.
type Health struct {
	CheckTimeout time.Duration
}

// Audit configures the audit persister. A zero AsyncBuffer writes inline.
type Audit struct {
	AsyncBuffer int
}

// FromEnv builds a Config from environment variables, loading a .env file
// first when one is present.
func FromEnv() Config {
	_ = godotenv.Load()

	return Config{
		Environment: getEnv("APP_ENV", "development"),
		LogLevel:    getEnv("LOG_LEVEL", "info"),
		Server: Server{
			Addr:              getEnv("PEDALGATE_ADDR", ":8080"),
			ReadHeaderTimeout: getDuration("HTTP_READ_HEADER_TIMEOUT", 5*time.Second),
			ReadTimeout:       getDuration("HTTP_READ_TIMEOUT", 15*time.Second),
			// Must outlive the optimizer deadline.
			WriteTimeout:    getDuration("HTTP_WRITE_TIMEOUT", 30*time.Second),
			IdleTimeout:     getDuration("HTTP_IDLE_TIMEOUT", 60*time.Second),
			ShutdownTimeout: getDuration("HTTP_SHUTDOWN_TIMEOUT", 10*time.Second),
			CORSAllowOrigin: getEnv("CORS_ALLOW_ORIGIN", "*"),
		},
		Optimizer: Optimizer{
			BaseURL: strings.TrimRight(os.Getenv("OPTIMIZER_URL"), "/"),
			Token:   os.Getenv("OPTIMIZER_TOKEN"),
			Timeout: getDuration("OPTIMIZER_TIMEOUT", 10*time.Second),
		},
		Database: Database{
			URL:             os.Getenv("DATABASE_URL"),
			MaxOpenConns:    getInt("DB_MAX_OPEN_CONNS", 10),
			MaxIdleConns:    getInt("DB_MAX_IDLE_CONNS", 5),
			ConnMaxLifetime: getDuration("DB_CONN_MAX_LIFETIME", 30*time.Minute),
		},
		Redis: RedisConfig{
			URL:          os.Getenv("REDIS_URL"),
			PoolSize:     getInt("REDIS_POOL_SIZE", 10),
			MinIdleConns: getInt("REDIS_MIN_IDLE_CONNS", 2),
			DialTimeout:  getDuration("REDIS_DIAL_TIMEOUT", 2*time.Second),
			ReadTimeout:  getDuration("REDIS_READ_TIMEOUT", time.Second),
			WriteTimeout: getDuration("REDIS_WRITE_TIMEOUT", time.Second),
		},
		Auth: Auth{
			JWTSigningKey: os.Getenv("JWT_SIGNING_KEY"),
			Issuer:        os.Getenv("JWT_ISSUER"),
			AdminRoles:    pstrings.SplitTrimLower(getEnv("ADMIN_ROLES", "admin,super_admin")),
		},
		Mail: Mail{
			APIKey:  os.Getenv("RESEND_API_KEY"),
			BaseURL: strings.TrimRight(getEnv("MAIL_API_URL", "https://api.resend.com"), "/"),
		},
		Health: Health{
			CheckTimeout: getDuration("HEALTH_CHECK_TIMEOUT", 5*time.Second),
		},
		Audit: Audit{
			AsyncBuffer: getInt("AUDIT_ASYNC_BUFFER", 256),
		},
	}
}

func getEnv(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}

func getInt(key string, fallback int) int {
	if v, err := strconv.Atoi(strings.TrimSpace(os.Getenv(key))); err == nil {
		return v
	}
	return fallback
}

// getDuration accepts Go duration strings ("10s") or whole seconds ("10").
func getDuration(key string, fallback time.Duration) time.Duration {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return fallback
	}
	if d, err := time.ParseDuration(raw); err == nil && d > 0 {
		return d
	}
	if secs, err := strconv.Atoi(raw); err == nil && secs > 0 {
		return time.Duration(secs) * time.Second
	}
	return fallback
}
