// Package config provides application configuration management with support for environment variables, command-line flags, and .env files.
package config

import (
	"bufio"
	"errors"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

// Limiter backends for admission rate limiting.
const (
	LimiterMemory = "memory"
	LimiterBadger = "badger"
)

// Config holds the application configuration.
type Config struct {
	App       AppConfig
	Logger    LoggerConfig
	Data      DataConfig
	Server    ServerConfig
	Auth      AuthConfig
	TMDB      TMDBConfig
	Sync      SyncConfig
	Admission AdmissionConfig
}

// AppConfig holds application-level configuration.
type AppConfig struct {
	Environment string
}

// LoggerConfig holds logging configuration.
type LoggerConfig struct {
	Level string
	// File enables a rotating log file next to stdout output. Empty disables it.
	File       string
	MaxSizeMB  int
	MaxBackups int
	MaxAgeDays int
}

// DataConfig holds on-disk storage locations.
type DataConfig struct {
	BasePath string
}

// DatabasePath is the SQLite file inside the data directory.
func (d DataConfig) DatabasePath() string {
	return filepath.Join(d.BasePath, "hive.db")
}

// ServerConfig holds server configuration.
type ServerConfig struct {
	Port         string        // Server port (default: 8080)
	ReadTimeout  time.Duration // HTTP read timeout (default: 15s)
	WriteTimeout time.Duration // HTTP write timeout (default: 15s)
	IdleTimeout  time.Duration // HTTP idle timeout (default: 60s)
	CORSOrigins  []string
	// IPRequestsPerMinute throttles every route per client IP. 0 disables it.
	IPRequestsPerMinute int
}

// AuthConfig holds authentication configuration.
type AuthConfig struct {
	// AccessTokenKey is the hex-encoded PASETO v4 key. When empty the key is
	// loaded from (or generated into) the data directory.
	AccessTokenKey string
}

// TMDBConfig holds catalog client configuration.
type TMDBConfig struct {
	BaseURL         string
	ImageBaseURL    string
	APIKey          string
	Timeout         time.Duration
	RPS             float64
	Burst           int
	BreakerFailures int
	BreakerTimeout  time.Duration
	NegativeTTL     time.Duration
}

// SyncConfig holds title refresh configuration.
type SyncConfig struct {
	// StaleAfter is how old a stored title may be before an admission refreshes it.
	StaleAfter time.Duration
}

// AdmissionConfig holds the per-user admission rate limit.
type AdmissionConfig struct {
	Limit   int
	Window  time.Duration
	Backend string
	// BadgerPath is the limiter database directory (default: {data}/ratelimit).
	BadgerPath string
}

// LoadConfig loads configuration from multiple sources with precedence:
// 1. Command-line flags (highest priority).
// 2. Environment variables.
// 3. .env file.
// 4. Default values (lowest priority).
func LoadConfig() (*Config, error) {
	env := flag.String("env", "", "Environment (development, staging, production)")
	logLevel := flag.String("log-level", "", "Log level (debug, info, warn, error)")
	logFile := flag.String("log-file", "", "Path to a rotating log file")
	dataPath := flag.String("data-path", "", "Base path for the database and limiter state")

	// Server flags
	serverPort := flag.String("port", "", "Server port (default: 8080)")
	readTimeout := flag.String("read-timeout", "", "HTTP read timeout (default: 15s)")
	writeTimeout := flag.String("write-timeout", "", "HTTP write timeout (default: 15s)")
	idleTimeout := flag.String("idle-timeout", "", "HTTP idle timeout (default: 60s)")
	corsOrigins := flag.String("cors-origins", "", "Comma-separated allowed CORS origins (default: *)")
	ipRPM := flag.String("ip-requests-per-minute", "", "Per-IP request limit (default: 300)")

	// Catalog flags
	tmdbAPIKey := flag.String("tmdb-api-key", "", "TMDB API key or read access token")
	tmdbTimeout := flag.String("tmdb-timeout", "", "TMDB request timeout (default: 5s)")
	staleAfter := flag.String("stale-after", "", "Refresh titles older than this (default: 24h)")

	// Admission flags
	admissionLimit := flag.String("admission-limit", "", "Admissions per user per window (default: 30)")
	admissionWindow := flag.String("admission-window", "", "Admission rate window (default: 1m)")
	admissionBackend := flag.String("admission-backend", "", "Admission limiter backend: memory or badger (default: memory)")

	envFile := flag.String("env-file", ".env", "Path to .env file")

	// Parse flags but don't exit on error - we want to handle it gracefully.
	flag.Parse()

	// Load .env file if it exists (silently ignore if not found).
	_ = loadEnvFile(*envFile)

	cfg := &Config{
		App: AppConfig{
			Environment: getConfigValue(*env, "ENV", "development"),
		},
		Logger: LoggerConfig{
			Level:      getConfigValue(*logLevel, "LOG_LEVEL", "info"),
			File:       getConfigValue(*logFile, "LOG_FILE", ""),
			MaxSizeMB:  getIntConfigValue("", "LOG_MAX_SIZE_MB", 50),
			MaxBackups: getIntConfigValue("", "LOG_MAX_BACKUPS", 5),
			MaxAgeDays: getIntConfigValue("", "LOG_MAX_AGE_DAYS", 28),
		},
		Data: DataConfig{
			BasePath: getConfigValue(*dataPath, "DATA_PATH", ""),
		},
		Server: ServerConfig{
			Port:                getConfigValue(*serverPort, "SERVER_PORT", "8080"),
			CORSOrigins:         splitList(getConfigValue(*corsOrigins, "CORS_ORIGINS", "*")),
			IPRequestsPerMinute: getIntConfigValue(*ipRPM, "IP_REQUESTS_PER_MINUTE", 300),
		},
		Auth: AuthConfig{
			AccessTokenKey: getConfigValue("", "ACCESS_TOKEN_KEY", ""),
		},
		TMDB: TMDBConfig{
			BaseURL:         getConfigValue("", "TMDB_BASE_URL", ""),
			ImageBaseURL:    getConfigValue("", "TMDB_IMAGE_BASE_URL", ""),
			APIKey:          getConfigValue(*tmdbAPIKey, "TMDB_API_KEY", ""),
			RPS:             getFloatConfigValue("", "TMDB_RPS", 20),
			Burst:           getIntConfigValue("", "TMDB_BURST", 10),
			BreakerFailures: getIntConfigValue("", "TMDB_BREAKER_FAILURES", 5),
		},
		Admission: AdmissionConfig{
			Limit:      getIntConfigValue(*admissionLimit, "ADMISSION_LIMIT", 30),
			Backend:    strings.ToLower(getConfigValue(*admissionBackend, "ADMISSION_BACKEND", LimiterMemory)),
			BadgerPath: getConfigValue("", "ADMISSION_BADGER_PATH", ""),
		},
	}

	durations := []struct {
		dst      *time.Duration
		flag     string
		envKey   string
		fallback string
	}{
		{&cfg.Server.ReadTimeout, *readTimeout, "SERVER_READ_TIMEOUT", "15s"},
		{&cfg.Server.WriteTimeout, *writeTimeout, "SERVER_WRITE_TIMEOUT", "15s"},
		{&cfg.Server.IdleTimeout, *idleTimeout, "SERVER_IDLE_TIMEOUT", "60s"},
		{&cfg.TMDB.Timeout, *tmdbTimeout, "TMDB_TIMEOUT", "5s"},
		{&cfg.TMDB.BreakerTimeout, "", "TMDB_BREAKER_TIMEOUT", "30s"},
		{&cfg.TMDB.NegativeTTL, "", "TMDB_NEGATIVE_TTL", "10m"},
		{&cfg.Sync.StaleAfter, *staleAfter, "STALE_AFTER", "24h"},
		{&cfg.Admission.Window, *admissionWindow, "ADMISSION_WINDOW", "1m"},
	}
	for _, d := range durations {
		v, err := getDurationConfigValue(d.flag, d.envKey, d.fallback)
		if err != nil {
			return nil, err
		}
		*d.dst = v
	}

	// Expand and validate data path.
	if err := cfg.expandDataPath(); err != nil {
		return nil, fmt.Errorf("invalid data path: %w", err)
	}

	// Expand limiter path (defaults to {data}/ratelimit).
	if err := cfg.expandBadgerPath(); err != nil {
		return nil, fmt.Errorf("invalid admission badger path: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// Validate checks that all required config values are present and valid.
func (c *Config) Validate() error {
	if c.App.Environment == "" {
		return errors.New("ENV is required")
	}

	validEnvs := map[string]bool{
		"development": true,
		"staging":     true,
		"production":  true,
	}
	if !validEnvs[c.App.Environment] {
		return fmt.Errorf("invalid environment: %s (must be development, staging, or production)", c.App.Environment)
	}

	validLevels := map[string]bool{
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}
	if !validLevels[strings.ToLower(c.Logger.Level)] {
		return fmt.Errorf("invalid log level: %s (must be debug, info, warn, or error)", c.Logger.Level)
	}

	if c.Data.BasePath == "" {
		return errors.New("data base path cannot be empty after expansion")
	}

	if c.TMDB.APIKey == "" {
		return errors.New("TMDB_API_KEY is required")
	}

	if c.Admission.Limit < 1 {
		return fmt.Errorf("invalid admission limit: %d (must be at least 1)", c.Admission.Limit)
	}
	if c.Admission.Window <= 0 {
		return fmt.Errorf("invalid admission window: %s", c.Admission.Window)
	}
	switch c.Admission.Backend {
	case LimiterMemory, LimiterBadger:
	default:
		return fmt.Errorf("invalid admission backend: %s (must be %s or %s)", c.Admission.Backend, LimiterMemory, LimiterBadger)
	}

	if c.Sync.StaleAfter <= 0 {
		return fmt.Errorf("invalid stale-after: %s", c.Sync.StaleAfter)
	}

	return nil
}

// IsProduction reports whether the server runs in production mode.
func (c *Config) IsProduction() bool {
	return c.App.Environment == "production"
}

// expandPath expands ~ and makes the path absolute.
// If path is empty and defaultPath is provided, uses the default.
func expandPath(path, defaultPath string) (string, error) {
	if path == "" {
		return defaultPath, nil
	}

	// Expand tilde.
	if strings.HasPrefix(path, "~/") {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("failed to get home directory: %w", err)
		}
		path = filepath.Join(homeDir, path[2:])
	}

	// Make absolute if needed.
	if !filepath.IsAbs(path) {
		absPath, err := filepath.Abs(path)
		if err != nil {
			return "", fmt.Errorf("failed to get absolute path: %w", err)
		}
		path = absPath
	}

	return filepath.Clean(path), nil
}

// expandDataPath expands ~ and makes the path absolute.
func (c *Config) expandDataPath() error {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return fmt.Errorf("failed to get home directory: %w", err)
	}
	defaultPath := filepath.Join(homeDir, "Hive", "data")

	expanded, err := expandPath(c.Data.BasePath, defaultPath)
	if err != nil {
		return err
	}
	c.Data.BasePath = expanded
	return nil
}

// expandBadgerPath defaults the limiter directory to {data}/ratelimit.
func (c *Config) expandBadgerPath() error {
	defaultPath := filepath.Join(c.Data.BasePath, "ratelimit")

	expanded, err := expandPath(c.Admission.BadgerPath, defaultPath)
	if err != nil {
		return err
	}
	c.Admission.BadgerPath = expanded
	return nil
}

// getConfigValue returns the first non-empty value from flag, env var, or default.
func getConfigValue(flagValue, envKey, defaultValue string) string {
	// Priority 1: Command-line flag.
	if flagValue != "" {
		return flagValue
	}

	// Priority 2: Environment variable.
	if envValue := os.Getenv(envKey); envValue != "" {
		return envValue
	}

	// Priority 3: Default value.
	return defaultValue
}

// getIntConfigValue returns an int from flag, env var, or default.
func getIntConfigValue(flagValue, envKey string, defaultValue int) int {
	strValue := getConfigValue(flagValue, envKey, "")
	if strValue == "" {
		return defaultValue
	}
	result, err := strconv.Atoi(strValue)
	if err != nil {
		return defaultValue
	}
	return result
}

// getFloatConfigValue returns a float from flag, env var, or default.
func getFloatConfigValue(flagValue, envKey string, defaultValue float64) float64 {
	strValue := getConfigValue(flagValue, envKey, "")
	if strValue == "" {
		return defaultValue
	}
	result, err := strconv.ParseFloat(strValue, 64)
	if err != nil {
		return defaultValue
	}
	return result
}

// getDurationConfigValue parses a duration from flag, env var, or default.
// Unlike the numeric getters a malformed value is an error.
func getDurationConfigValue(flagValue, envKey, defaultValue string) (time.Duration, error) {
	strValue := getConfigValue(flagValue, envKey, defaultValue)
	d, err := time.ParseDuration(strValue)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", strings.ToLower(envKey), strValue, err)
	}
	return d, nil
}

// splitList splits a comma-separated value, dropping blanks.
func splitList(s string) []string {
	var out []string
	for part := range strings.SplitSeq(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// loadEnvFile loads environment variables from a .env file.
// Format: KEY=value (one per line, # for comments).
func loadEnvFile(path string) error {
	file, err := os.Open(path) //#nosec G304 -- Config file path from user input is expected
	if err != nil {
		return err
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	lineNum := 0

	for scanner.Scan() {
		lineNum++
		line := strings.TrimSpace(scanner.Text())

		// Skip empty lines and comments.
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		key, value, ok := strings.Cut(line, "=")
		if !ok {
			return fmt.Errorf("invalid format at line %d: %s", lineNum, line)
		}

		key = strings.TrimSpace(key)
		value = strings.Trim(strings.TrimSpace(value), `"'`)

		// Only set if not already set (env vars take precedence over .env file).
		if os.Getenv(key) == "" {
			if err := os.Setenv(key, value); err != nil {
				return fmt.Errorf("failed to set env var %s: %w", key, err)
			}
		}
	}

	return scanner.Err()
}
