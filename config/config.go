// Package config loads server configuration from .env, the environment and
// command-line flags, in increasing order of precedence.
package config

import (
	"errors"
	"flag"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

type Config struct {
	App      AppConfig
	Database DatabaseConfig
	Log      LogConfig
	HTTP     HTTPConfig
}

type AppConfig struct {
	Port     int
	Timezone string // zone used for "today" when checking repeat end dates
}

type DatabaseConfig struct {
	Path string // SQLite path, ":memory:" for an in-memory database
}

type LogConfig struct {
	Level  string
	Format string
}

type HTTPConfig struct {
	AllowedOrigins []string
	RateLimit      int // requests per minute per IP, 0 disables
}

// Load reads .env files (missing files are fine), then RL_* environment
// variables, then flags from args.
func Load(args []string, envFiles ...string) (*Config, error) {
	if err := godotenv.Load(envFiles...); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load env file: %w", err)
	}

	port, err := strconv.Atoi(getEnv("RL_PORT", "8080"))
	if err != nil {
		return nil, fmt.Errorf("invalid RL_PORT: %w", err)
	}
	rate, err := strconv.Atoi(getEnv("RL_RATE_LIMIT", "120"))
	if err != nil {
		return nil, fmt.Errorf("invalid RL_RATE_LIMIT: %w", err)
	}

	cfg := &Config{
		App: AppConfig{
			Port:     port,
			Timezone: getEnv("RL_TIMEZONE", "UTC"),
		},
		Database: DatabaseConfig{
			Path: getEnv("RL_DB_PATH", "leaves.db"),
		},
		Log: LogConfig{
			Level:  getEnv("RL_LOG_LEVEL", "info"),
			Format: getEnv("RL_LOG_FORMAT", "console"),
		},
		HTTP: HTTPConfig{
			AllowedOrigins: splitList(getEnv("RL_ALLOWED_ORIGINS", "http://localhost:5173,http://localhost:8080")),
			RateLimit:      rate,
		},
	}

	fset := flag.NewFlagSet("server", flag.ContinueOnError)
	fset.IntVar(&cfg.App.Port, "port", cfg.App.Port, "HTTP server port")
	fset.StringVar(&cfg.Database.Path, "db", cfg.Database.Path, "SQLite database path")
	fset.StringVar(&cfg.Log.Level, "log-level", cfg.Log.Level, "log level (debug, info, warn, error)")
	if err := fset.Parse(args); err != nil {
		return nil, err
	}

	if cfg.App.Port <= 0 || cfg.App.Port > 65535 {
		return nil, fmt.Errorf("invalid port %d", cfg.App.Port)
	}
	return cfg, nil
}

func getEnv(key, defaultVal string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultVal
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
