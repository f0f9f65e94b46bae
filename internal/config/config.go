// Package config loads process configuration from the environment and an
// optional .env file.
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

const (
	DefaultMaxMessageLength = 1000
	DefaultMaxReportLength  = 500
	DefaultRematchDelay     = 750 * time.Millisecond
	DefaultSweepInterval    = 30 * time.Second
	DefaultAuditBuffer      = 1024
	DefaultAuditPage        = 50
	MaxAuditPage            = 100
)

// Config is the full process configuration.
type Config struct {
	Addr string
	Mode string

	DBDriver string
	DSN      string

	RedisAddr     string
	RedisPassword string
	RedisDB       int

	LogLevel      string
	LogFilename   string
	LogMaxSize    int
	LogMaxAge     int
	LogMaxBackups int

	MaxMessageLength int
	MaxReportLength  int
	RematchDelay     time.Duration
	SweepInterval    time.Duration

	AuditBuffer      int
	AuditPageDefault int
	AuditPageMax     int

	AllowedOrigins []string
}

// Load reads .env (when present) and the environment, applies defaults and
// validates the result.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}
	return FromEnv()
}

// FromEnv builds a Config from the current environment only.
func FromEnv() (*Config, error) {
	var errs []error
	cfg := &Config{
		Addr:             getString("ADDR", ":8080"),
		Mode:             getString("MODE", "development"),
		DBDriver:         strings.ToLower(getString("DB_DRIVER", "sqlite")),
		DSN:              getString("DSN", "file::memory:?cache=shared"),
		RedisAddr:        getString("REDIS_ADDR", ""),
		RedisPassword:    getString("REDIS_PASSWORD", ""),
		RedisDB:          getInt("REDIS_DB", 0, &errs),
		LogLevel:         getString("LOG_LEVEL", "info"),
		LogFilename:      getString("LOG_FILENAME", ""),
		LogMaxSize:       getInt("LOG_MAX_SIZE", 100, &errs),
		LogMaxAge:        getInt("LOG_MAX_AGE", 30, &errs),
		LogMaxBackups:    getInt("LOG_MAX_BACKUPS", 5, &errs),
		MaxMessageLength: getInt("MAX_MESSAGE_LENGTH", DefaultMaxMessageLength, &errs),
		MaxReportLength:  getInt("MAX_REPORT_LENGTH", DefaultMaxReportLength, &errs),
		RematchDelay:     getDuration("REMATCH_DELAY", DefaultRematchDelay, &errs),
		SweepInterval:    getDuration("SWEEP_INTERVAL", DefaultSweepInterval, &errs),
		AuditBuffer:      getInt("AUDIT_BUFFER", DefaultAuditBuffer, &errs),
		AuditPageDefault: getInt("AUDIT_PAGE_DEFAULT", DefaultAuditPage, &errs),
		AuditPageMax:     getInt("AUDIT_PAGE_MAX", MaxAuditPage, &errs),
		AllowedOrigins:   getList("ALLOWED_ORIGINS"),
	}
	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate rejects values the server cannot run with.
func (c *Config) Validate() error {
	switch c.DBDriver {
	case "sqlite", "postgres":
	default:
		return fmt.Errorf("DB_DRIVER %q: want sqlite or postgres", c.DBDriver)
	}
	if c.DSN == "" {
		return errors.New("DSN is empty")
	}
	if c.MaxMessageLength <= 0 {
		return fmt.Errorf("MAX_MESSAGE_LENGTH must be positive, got %d", c.MaxMessageLength)
	}
	if c.MaxReportLength <= 0 {
		return fmt.Errorf("MAX_REPORT_LENGTH must be positive, got %d", c.MaxReportLength)
	}
	if c.RematchDelay <= 0 {
		return fmt.Errorf("REMATCH_DELAY must be positive, got %s", c.RematchDelay)
	}
	if c.SweepInterval <= 0 {
		return fmt.Errorf("SWEEP_INTERVAL must be positive, got %s", c.SweepInterval)
	}
	if c.AuditBuffer <= 0 {
		return fmt.Errorf("AUDIT_BUFFER must be positive, got %d", c.AuditBuffer)
	}
	if c.AuditPageDefault <= 0 || c.AuditPageMax <= 0 || c.AuditPageDefault > c.AuditPageMax {
		return fmt.Errorf("audit page sizes out of range: default %d, max %d", c.AuditPageDefault, c.AuditPageMax)
	}
	return nil
}

// OriginAllowed reports whether a websocket Origin header may connect.
func (c *Config) OriginAllowed(origin string) bool {
	if len(c.AllowedOrigins) == 0 {
		return true
	}
	for _, o := range c.AllowedOrigins {
		if o == origin {
			return true
		}
	}
	return false
}

func getString(key, def string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return def
}

func getInt(key string, def int, errs *[]error) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		*errs = append(*errs, fmt.Errorf("%s: %w", key, err))
		return def
	}
	return n
}

func getDuration(key string, def time.Duration, errs *[]error) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		*errs = append(*errs, fmt.Errorf("%s: %w", key, err))
		return def
	}
	return d
}

func getList(key string) []string {
	var out []string
	for _, part := range strings.Split(os.Getenv(key), ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
