// Package config loads node settings from the environment. An optional .env file is read
// first; variables already set in the environment take precedence over it.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Port          int
	JWTSecret     string
	GenesisConfig string
	ReadTimeout   time.Duration
	WriteTimeout  time.Duration
	DemoTimeline  bool
	LogLevel      slog.Level
	LogFormat     string
}

// Load reads envFile (when non-empty and present) and then the TAXCHAIN_* variables.
func Load(envFile string) (Config, error) {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return Config{}, fmt.Errorf("load %s: %w", envFile, err)
		}
	}

	var errs []error
	getInt := func(key string, def int) int {
		val := os.Getenv(key)
		if val == "" {
			return def
		}
		n, err := strconv.Atoi(val)
		if err != nil {
			errs = append(errs, fmt.Errorf("invalid %s=%q", key, val))
			return def
		}
		return n
	}
	getBool := func(key string, def bool) bool {
		val := os.Getenv(key)
		if val == "" {
			return def
		}
		b, err := strconv.ParseBool(val)
		if err != nil {
			errs = append(errs, fmt.Errorf("invalid %s=%q", key, val))
			return def
		}
		return b
	}
	getDuration := func(key string, def time.Duration) time.Duration {
		val := os.Getenv(key)
		if val == "" {
			return def
		}
		d, err := time.ParseDuration(val)
		if err != nil {
			errs = append(errs, fmt.Errorf("invalid %s=%q", key, val))
			return def
		}
		return d
	}

	cfg := Config{
		Port:          getInt("TAXCHAIN_PORT", 8080),
		JWTSecret:     os.Getenv("TAXCHAIN_JWT_SECRET"),
		GenesisConfig: os.Getenv("TAXCHAIN_GENESIS_CONFIG"),
		ReadTimeout:   getDuration("TAXCHAIN_READ_TIMEOUT", 5*time.Second),
		WriteTimeout:  getDuration("TAXCHAIN_WRITE_TIMEOUT", 10*time.Second),
		DemoTimeline:  getBool("TAXCHAIN_DEMO_TIMELINE", false),
		LogFormat:     strings.ToLower(os.Getenv("LOG_FORMAT")),
	}
	if lvl := os.Getenv("LOG_LEVEL"); lvl != "" {
		if err := cfg.LogLevel.UnmarshalText([]byte(lvl)); err != nil {
			errs = append(errs, fmt.Errorf("invalid LOG_LEVEL=%q", lvl))
		}
	}

	if cfg.Port <= 0 || cfg.Port > 65535 {
		errs = append(errs, fmt.Errorf("TAXCHAIN_PORT out of range: %d", cfg.Port))
	}
	if cfg.LogFormat != "json" {
		cfg.LogFormat = "text"
	}
	return cfg, errors.Join(errs...)
}

// Addr is the listen address for the HTTP server.
func (c Config) Addr() string {
	return fmt.Sprintf(":%d", c.Port)
}

// AuthEnabled reports whether mutating routes require a bearer token.
func (c Config) AuthEnabled() bool {
	return c.JWTSecret != ""
}

// Logger builds the process logger from LogLevel and LogFormat.
func (c Config) Logger() *slog.Logger {
	opts := &slog.HandlerOptions{Level: c.LogLevel}
	if c.LogFormat == "json" {
		return slog.New(slog.NewJSONHandler(os.Stderr, opts))
	}
	return slog.New(slog.NewTextHandler(os.Stderr, opts))
}
