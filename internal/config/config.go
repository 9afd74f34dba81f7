package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all service settings, populated from environment variables.
type Config struct {
	TelegramToken string
	PollTimeout   time.Duration

	WeatherstackToken string
	WeatherstackUnits string // "m" metric, "s" scientific, "f" imperial
	WeatherstackHTTPS bool

	DatabasePath    string
	DatabaseEnabled bool
	ShowStats       bool
	StatsDir        string

	ScratchDir    string
	AssetDir      string
	BackgroundDir string
	IconDir       string
	CodesPath     string
	FontPath      string

	HTTPAddr        string
	LogLevel        string
	LogFormat       string
	ShutdownTimeout time.Duration
}

// Load reads configuration from the environment (and an optional .env
// file), applying defaults where unset.
func Load() (*Config, error) {
	// Absence of a .env file is the normal production case.
	_ = godotenv.Load()

	pollTimeout, err := parseDuration("POLL_TIMEOUT", "2s")
	if err != nil {
		return nil, err
	}
	shutdownTimeout, err := parseDuration("SHUTDOWN_TIMEOUT", "10s")
	if err != nil {
		return nil, err
	}

	assetDir := envOrDefault("ASSET_DIR", "assets")

	cfg := &Config{
		TelegramToken: os.Getenv("TELEGRAM_TOKEN"),
		PollTimeout:   pollTimeout,

		WeatherstackToken: os.Getenv("WEATHERSTACK_TOKEN"),
		WeatherstackUnits: envOrDefault("WEATHERSTACK_UNITS", "m"),
		WeatherstackHTTPS: envBool("WEATHERSTACK_HTTPS", true),

		DatabasePath:    envOrDefault("DATABASE_PATH", "weatherbot.db"),
		DatabaseEnabled: envBool("DATABASE_ENABLED", true),
		ShowStats:       envBool("SHOW_STATS", false),
		StatsDir:        envOrDefault("STATS_DIR", "stat"),

		ScratchDir:    envOrDefault("SCRATCH_DIR", ".tmp"),
		AssetDir:      assetDir,
		BackgroundDir: envOrDefault("BACKGROUND_DIR", filepath.Join(assetDir, "backgrounds")),
		IconDir:       envOrDefault("ICON_DIR", filepath.Join(assetDir, "icons")),
		CodesPath:     envOrDefault("CONDITION_CODES_PATH", filepath.Join(assetDir, "condition_codes.xml")),
		FontPath:      envOrDefault("FONT_PATH", filepath.Join(assetDir, "Ubuntu-Regular.ttf")),

		HTTPAddr:        envOrDefault("HTTP_ADDR", ":8080"),
		LogLevel:        envOrDefault("LOG_LEVEL", "info"),
		LogFormat:       envOrDefault("LOG_FORMAT", "json"),
		ShutdownTimeout: shutdownTimeout,
	}

	if cfg.TelegramToken == "" {
		return nil, errors.New("TELEGRAM_TOKEN is required")
	}
	if cfg.WeatherstackToken == "" {
		return nil, errors.New("WEATHERSTACK_TOKEN is required")
	}
	switch cfg.WeatherstackUnits {
	case "m", "s", "f":
	default:
		return nil, fmt.Errorf("invalid WEATHERSTACK_UNITS %q (valid: m, s, f)", cfg.WeatherstackUnits)
	}
	if cfg.ShowStats && !cfg.DatabaseEnabled {
		return nil, errors.New("SHOW_STATS requires DATABASE_ENABLED")
	}

	return cfg, nil
}

func envOrDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func envBool(key string, def bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return def
}

func parseDuration(key, def string) (time.Duration, error) {
	d, err := time.ParseDuration(envOrDefault(key, def))
	if err != nil || d <= 0 {
		return 0, fmt.Errorf("invalid %s", key)
	}
	return d, nil
}
