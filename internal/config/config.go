package config

import (
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// Config holds the application configuration, read from the environment.
type Config struct {
	BaseURL      string     // Upstream API base URL (required)
	APIKey       string     // Bearer token for the upstream API (optional)
	Model        string     // Model name sent to the upstream
	DefaultSize  string     // Image size used when the caller omits one
	Dialect      string     // Upstream dialect: "images", "chat" or "auto"
	OutputDir    string     // Default directory for saved images
	ProjectRoot  string     // Base for resolving relative output directories
	InlineBudget int64      // Max decoded bytes to attach inline; 0 disables
	TimeoutMs    int        // Per-upstream-call timeout in milliseconds
	LogLevel     slog.Level // Derived from IMAGEGEN_DEBUG
	ErrorLogPath string     // Optional file for detailed error records
}

// ErrBaseURLMissing indicates the required IMAGEGEN_BASE_URL variable was not set.
var ErrBaseURLMissing = errors.New("required environment variable IMAGEGEN_BASE_URL is missing")

const (
	defaultModel        = "gpt-image-1"
	defaultSize         = "1024x1024"
	defaultDialect      = "auto"
	defaultInlineBudget = 512 * 1024
	defaultTimeoutMs    = 120000
	minTimeoutMs        = 5000
	maxTimeoutMs        = 600000
)

// LoadConfig loads configuration from the environment, honoring a local
// .env file when present. It returns an error if IMAGEGEN_BASE_URL is
// missing or IMAGEGEN_DIALECT holds an unknown value.
func LoadConfig() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		// Missing .env is the normal case when everything comes from the
		// real environment.
		slog.Debug("No .env file loaded", "error", err)
	}

	cfg := &Config{
		BaseURL:      strings.TrimSpace(os.Getenv("IMAGEGEN_BASE_URL")),
		APIKey:       strings.TrimSpace(os.Getenv("IMAGEGEN_API_KEY")),
		Model:        getEnv("IMAGEGEN_MODEL", defaultModel),
		DefaultSize:  getEnv("IMAGEGEN_DEFAULT_SIZE", defaultSize),
		Dialect:      strings.ToLower(getEnv("IMAGEGEN_DIALECT", defaultDialect)),
		ProjectRoot:  getEnv("IMAGEGEN_PROJECT_ROOT", ""),
		InlineBudget: getEnvInt64("IMAGEGEN_INLINE_BUDGET", defaultInlineBudget),
		TimeoutMs:    getEnvInt("IMAGEGEN_TIMEOUT_MS", defaultTimeoutMs),
		ErrorLogPath: os.Getenv("IMAGEGEN_ERROR_LOG"),
	}

	if cfg.BaseURL == "" {
		return nil, ErrBaseURLMissing
	}

	switch cfg.Dialect {
	case "images", "chat", "auto":
	default:
		return nil, errors.New("IMAGEGEN_DIALECT must be one of: images, chat, auto")
	}

	if cfg.ProjectRoot == "" {
		if wd, err := os.Getwd(); err == nil {
			cfg.ProjectRoot = wd
		} else {
			cfg.ProjectRoot = os.TempDir()
		}
	}
	cfg.OutputDir = getEnv("IMAGEGEN_OUTPUT_DIR", filepath.Join(cfg.ProjectRoot, "generated-images"))

	// Timeout is clamped rather than rejected; out-of-range values are a
	// tuning mistake, not a reason to refuse startup.
	if cfg.TimeoutMs < minTimeoutMs {
		cfg.TimeoutMs = minTimeoutMs
	}
	if cfg.TimeoutMs > maxTimeoutMs {
		cfg.TimeoutMs = maxTimeoutMs
	}
	if cfg.InlineBudget < 0 {
		cfg.InlineBudget = 0
	}

	cfg.LogLevel = slog.LevelInfo
	if isTruthy(os.Getenv("IMAGEGEN_DEBUG")) {
		cfg.LogLevel = slog.LevelDebug
	}

	return cfg, nil
}

// getEnv returns the value of key, or defaultValue when unset or blank.
func getEnv(key, defaultValue string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return defaultValue
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		slog.Warn("Ignoring non-numeric environment value", "key", key, "value", v)
		return defaultValue
	}
	return n
}

func getEnvInt64(key string, defaultValue int64) int64 {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return defaultValue
	}
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		slog.Warn("Ignoring non-numeric environment value", "key", key, "value", v)
		return defaultValue
	}
	return n
}

func isTruthy(v string) bool {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "1", "true", "yes", "on":
		return true
	}
	return false
}
