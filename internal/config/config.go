package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/cmlabs-hris/attendance-engine/internal/domain/attendance"
	"github.com/cmlabs-hris/attendance-engine/internal/pkg/validator"
	"github.com/joho/godotenv"
)

type Config struct {
	Database DatabaseConfig
	JWT      JWTConfig
	App      AppConfig
	CORS     CORSConfig
	Engine   EngineConfig
	Cron     CronConfig
}

type DatabaseConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	Name     string
	SSLMode  string
	MaxConns int32
	MinConns int32
}

// JWTConfig holds JWT configuration
type JWTConfig struct {
	Secret           string
	AccessExpiration string
}

// AppConfig holds application configuration
type AppConfig struct {
	Port     int
	Env      string
	LogLevel string
	Timezone string
}

type CORSConfig struct {
	AllowedOrigins []string
}

// EngineConfig tunes reconciliation and auto-submission.
type EngineConfig struct {
	DefaultShiftEnd         time.Duration
	SinglePunchPolicy       string
	SinglePunchLookbackDays int
	GapLookbackDays         int
	Workers                 int
	SweepBatchLimit         int

	// Fallback thresholds used when the settings row cannot be read.
	DefaultSettings attendance.Settings
}

type CronConfig struct {
	ReconcileInterval  time.Duration
	AutoSubmitInterval time.Duration
	ReconcileDays      int
}

const (
	SinglePunchLookback = "lookback"
	SinglePunchSameAsIn = "same_as_in"
)

func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		slog.Debug("No .env file loaded, using process environment", "error", err)
	}

	config := &Config{}

	// Database configuration
	dbPort, err := strconv.Atoi(getEnv("DB_PORT", "5432"))
	if err != nil {
		return nil, fmt.Errorf("invalid DB_PORT: %w", err)
	}
	maxConns, err := strconv.Atoi(getEnv("DB_MAX_CONNS", "25"))
	if err != nil {
		return nil, fmt.Errorf("invalid DB_MAX_CONNS: %w", err)
	}
	minConns, err := strconv.Atoi(getEnv("DB_MIN_CONNS", "5"))
	if err != nil {
		return nil, fmt.Errorf("invalid DB_MIN_CONNS: %w", err)
	}

	config.Database = DatabaseConfig{
		Host:     getEnv("DB_HOST", "localhost"),
		Port:     dbPort,
		User:     getEnv("DB_USER", "postgres"),
		Password: getEnv("DB_PASSWORD", ""),
		Name:     getEnv("DB_NAME", "attendance"),
		SSLMode:  getEnv("DB_SSL_MODE", "disable"),
		MaxConns: int32(maxConns),
		MinConns: int32(minConns),
	}

	// Application configuration
	appPort, err := strconv.Atoi(getEnv("APP_PORT", "8080"))
	if err != nil {
		return nil, fmt.Errorf("invalid APP_PORT: %w", err)
	}

	config.App = AppConfig{
		Port:     appPort,
		Env:      getEnv("APP_ENV", "development"),
		LogLevel: getEnv("LOG_LEVEL", "info"),
		Timezone: getEnv("APP_TIMEZONE", "UTC"),
	}

	config.JWT = JWTConfig{
		Secret:           getEnv("JWT_SECRET_KEY", ""),
		AccessExpiration: getEnv("JWT_ACCESS_EXPIRATION_TIME", "1h"),
	}

	config.CORS = CORSConfig{
		AllowedOrigins: getEnvSlice("CORS_ALLOWED_ORIGINS"),
	}

	// Engine configuration
	shiftEnd, ok := validator.ParseClock(getEnv("DEFAULT_SHIFT_END", "18:30"))
	if !ok {
		return nil, fmt.Errorf("invalid DEFAULT_SHIFT_END: must be HH:MM or HH:MM:SS")
	}

	defaults := attendance.DefaultSettings()
	minHours, err := getEnvFloat("MIN_WORKING_HOURS", defaults.MinWorkingHours)
	if err != nil {
		return nil, err
	}
	buffer, err := getEnvFloat("AUTO_SUBMIT_BUFFER_HOURS", defaults.AutoSubmitBufferHours)
	if err != nil {
		return nil, err
	}
	window, err := getEnvFloat("REGULARIZATION_WINDOW_HOURS", defaults.RegularizationWindowHours)
	if err != nil {
		return nil, err
	}

	config.Engine = EngineConfig{
		DefaultShiftEnd:         shiftEnd,
		SinglePunchPolicy:       strings.ToLower(getEnv("SINGLE_PUNCH_POLICY", SinglePunchLookback)),
		SinglePunchLookbackDays: getEnvInt("SINGLE_PUNCH_LOOKBACK_DAYS", 7),
		GapLookbackDays:         getEnvInt("GAP_LOOKBACK_DAYS", 7),
		Workers:                 getEnvInt("RECONCILE_WORKERS", 4),
		SweepBatchLimit:         getEnvInt("SWEEP_BATCH_LIMIT", 1000),
		DefaultSettings: attendance.Settings{
			MinWorkingHours:           minHours,
			EnableRegularization:      getEnvBool("ENABLE_REGULARIZATION", defaults.EnableRegularization),
			AutoSubmitBufferHours:     buffer,
			RegularizationWindowHours: window,
		},
	}

	// Cron configuration
	reconcileInterval, err := time.ParseDuration(getEnv("CRON_RECONCILE_INTERVAL", "30m"))
	if err != nil {
		return nil, fmt.Errorf("invalid CRON_RECONCILE_INTERVAL: %w", err)
	}
	autoSubmitInterval, err := time.ParseDuration(getEnv("CRON_AUTO_SUBMIT_INTERVAL", "30m"))
	if err != nil {
		return nil, fmt.Errorf("invalid CRON_AUTO_SUBMIT_INTERVAL: %w", err)
	}

	config.Cron = CronConfig{
		ReconcileInterval:  reconcileInterval,
		AutoSubmitInterval: autoSubmitInterval,
		ReconcileDays:      getEnvInt("CRON_RECONCILE_DAYS", 2),
	}

	// Validate required fields
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return config, nil
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.Database.Password == "" {
		return fmt.Errorf("DB_PASSWORD is required")
	}
	if _, err := time.LoadLocation(c.App.Timezone); err != nil {
		return fmt.Errorf("APP_TIMEZONE is invalid: %w", err)
	}
	if c.Engine.SinglePunchPolicy != SinglePunchLookback && c.Engine.SinglePunchPolicy != SinglePunchSameAsIn {
		return fmt.Errorf("SINGLE_PUNCH_POLICY must be %q or %q", SinglePunchLookback, SinglePunchSameAsIn)
	}
	if c.Engine.Workers < 1 {
		return fmt.Errorf("RECONCILE_WORKERS must be at least 1")
	}
	if c.Engine.DefaultSettings.MinWorkingHours < 0 {
		return fmt.Errorf("MIN_WORKING_HOURS must not be negative")
	}
	if c.Cron.ReconcileInterval <= 0 || c.Cron.AutoSubmitInterval <= 0 {
		return fmt.Errorf("cron intervals must be positive")
	}
	return nil
}

// RequireJWT checks the settings needed to issue or verify operator tokens.
func (c *Config) RequireJWT() error {
	if c.JWT.Secret == "" {
		return fmt.Errorf("JWT_SECRET_KEY is required")
	}
	if _, err := time.ParseDuration(c.JWT.AccessExpiration); err != nil {
		return fmt.Errorf("invalid JWT_ACCESS_EXPIRATION_TIME: %w", err)
	}
	return nil
}

// Location returns the zone in which civil attendance dates are computed.
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.App.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// SlogLevel maps LOG_LEVEL to a slog level.
func (c *Config) SlogLevel() slog.Level {
	switch strings.ToLower(c.App.LogLevel) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// DatabaseURL returns the PostgreSQL connection string
func (c *Config) DatabaseURL() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s",
		c.Database.User,
		c.Database.Password,
		c.Database.Host,
		c.Database.Port,
		c.Database.Name,
		c.Database.SSLMode,
	)
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 0 {
		return fallback
	}
	return n
}

func getEnvFloat(key string, fallback float64) (float64, error) {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback, nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return f, nil
}

func getEnvBool(key string, fallback bool) bool {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback
	}
	return strings.EqualFold(v, "true") || v == "1"
}

func getEnvSlice(env string) []string {
	value := getEnv(env, "")
	if value == "" {
		return []string{}
	}
	parts := strings.Split(value, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}
