package config

import (
	"errors"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/spf13/pflag"
)

// Config holds all application configuration.
type Config struct {
	Addr   string `validate:"required"`
	DBPath string `validate:"required"`

	NVDURL         string        `validate:"required,url"`
	NVDAPIKey      string
	RetryAttempts  int           `validate:"min=1,max=10"`
	RetryDelay     time.Duration `validate:"min=0"`
	RequestTimeout time.Duration `validate:"gt=0"`
	// RequestInterval spaces outbound requests. Zero picks the public API
	// rate limit matching whether an API key is set.
	RequestInterval time.Duration `validate:"min=0"`

	PacingDelay         time.Duration `validate:"min=0"`
	BatchSize           int           `validate:"min=1"`
	SimilarityThreshold float64       `validate:"gt=0,lte=1"`
	Concurrency         int           `validate:"min=1,max=16"`

	ScheduleInterval time.Duration `validate:"gt=0"`
	RunOnStart       bool
	NotificationTTL  time.Duration `validate:"gt=0"`

	AllowedOrigins []string
	Trace          bool
	Debug          bool
	LogFormat      string `validate:"oneof=text json"`
}

var validate = validator.New()

// Load reads the .env files (default ".env", missing files are ignored) and
// the environment. Variables already set in the environment win over .env.
func Load(envFiles ...string) (*Config, error) {
	if len(envFiles) == 0 {
		envFiles = []string{".env"}
	}
	for _, f := range envFiles {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, err
		}
	}

	cfg := &Config{}
	cfg.Addr = getEnv("ASSETVULN_ADDR", ":3012")
	cfg.DBPath = getEnv("ASSETVULN_DB", "")
	cfg.NVDURL = getEnv("ASSETVULN_NVD_URL", "https://services.nvd.nist.gov/rest/json/cves/2.0")
	cfg.NVDAPIKey = getEnv("ASSETVULN_NVD_API_KEY", "")
	cfg.RetryAttempts = getEnvInt("ASSETVULN_RETRY_ATTEMPTS", 3)
	cfg.RetryDelay = getEnvDuration("ASSETVULN_RETRY_DELAY", 3*time.Second)
	cfg.RequestTimeout = getEnvDuration("ASSETVULN_REQUEST_TIMEOUT", 30*time.Second)
	cfg.RequestInterval = getEnvDuration("ASSETVULN_REQUEST_INTERVAL", 0)
	cfg.PacingDelay = getEnvDuration("ASSETVULN_PACING_DELAY", 3*time.Second)
	cfg.BatchSize = getEnvInt("ASSETVULN_BATCH_SIZE", 10)
	cfg.SimilarityThreshold = getEnvFloat("ASSETVULN_SIMILARITY_THRESHOLD", 0.4)
	cfg.Concurrency = getEnvInt("ASSETVULN_CONCURRENCY", 1)
	cfg.ScheduleInterval = getEnvDuration("ASSETVULN_SCHEDULE_INTERVAL", 72*time.Hour)
	cfg.RunOnStart = getEnvBool("ASSETVULN_RUN_ON_START", false)
	cfg.NotificationTTL = getEnvDuration("ASSETVULN_NOTIFICATION_TTL", 90*24*time.Hour)
	cfg.AllowedOrigins = getEnvList("ASSETVULN_ALLOWED_ORIGINS")
	cfg.Trace = getEnvBool("ASSETVULN_TRACE", false)
	cfg.Debug = getEnvBool("ASSETVULN_DEBUG", false)
	cfg.LogFormat = getEnv("ASSETVULN_LOG_FORMAT", "text")

	return cfg, nil
}

// BindFlags registers command line flags for the settings operators most
// often override. Flags take precedence over environment variables.
func (c *Config) BindFlags(flags *pflag.FlagSet) {
	flags.StringVar(&c.Addr, "addr", c.Addr, "HTTP server address")
	flags.StringVar(&c.DBPath, "db", c.DBPath, "Path to SQLite database (default ~/.assetvuln/assetvuln.db)")
	flags.StringVar(&c.NVDAPIKey, "nvd-api-key", c.NVDAPIKey, "NVD API key")
	flags.DurationVar(&c.PacingDelay, "pacing", c.PacingDelay, "Delay between vulnerability source requests")
	flags.IntVar(&c.Concurrency, "concurrency", c.Concurrency, "Assets reconciled in parallel")
	flags.BoolVar(&c.RunOnStart, "run-on-start", c.RunOnStart, "Reconcile all assets when the server starts")
	flags.BoolVar(&c.Trace, "trace", c.Trace, "Print OpenTelemetry spans to stdout")
	flags.BoolVar(&c.Debug, "debug", c.Debug, "Enable verbose debug logging")
	flags.StringVar(&c.LogFormat, "log-format", c.LogFormat, "Log format (text|json)")
}

// Validate checks the configuration and fills in the default database path.
func (c *Config) Validate() error {
	if c.DBPath == "" {
		c.DBPath = getDefaultDBPath()
	}
	return validate.Struct(c)
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if value, ok := os.LookupEnv(key); ok {
		if i, err := strconv.Atoi(strings.TrimSpace(value)); err == nil {
			return i
		}
		slog.Warn("ignoring invalid integer", "key", key, "value", value)
	}
	return fallback
}

func getEnvFloat(key string, fallback float64) float64 {
	if value, ok := os.LookupEnv(key); ok {
		if f, err := strconv.ParseFloat(strings.TrimSpace(value), 64); err == nil {
			return f
		}
		slog.Warn("ignoring invalid number", "key", key, "value", value)
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if value, ok := os.LookupEnv(key); ok {
		if b, err := strconv.ParseBool(strings.TrimSpace(value)); err == nil {
			return b
		}
		slog.Warn("ignoring invalid boolean", "key", key, "value", value)
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if value, ok := os.LookupEnv(key); ok {
		if d, err := time.ParseDuration(strings.TrimSpace(value)); err == nil {
			return d
		}
		slog.Warn("ignoring invalid duration", "key", key, "value", value)
	}
	return fallback
}

func getEnvList(key string) []string {
	var out []string
	for _, p := range strings.Split(os.Getenv(key), ",") {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

// getDefaultDBPath returns the default database path in user's home directory.
// Creates the directory if it doesn't exist.
func getDefaultDBPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		slog.Warn("could not get user home directory, using current dir", "err", err)
		return "assetvuln.db"
	}

	dir := filepath.Join(home, ".assetvuln")
	if err := os.MkdirAll(dir, 0755); err != nil {
		slog.Warn("could not create .assetvuln directory, using current dir", "err", err)
		return "assetvuln.db"
	}

	return filepath.Join(dir, "assetvuln.db")
}
