// Package config loads server settings from the environment and flags.
package config

import (
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/caarlos0/env/v11"

	"github.com/tkahng/war"
)

// Config holds the server configuration.
type Config struct {
	Port               int      `env:"WAR_PORT" envDefault:"8080"`
	Addr               string   `env:"WAR_ADDR"`
	MaxRounds          int      `env:"WAR_MAX_ROUNDS" envDefault:"10000"`
	MaxConcurrentGames int      `env:"WAR_MAX_CONCURRENT_GAMES" envDefault:"100"`
	DBPath             string   `env:"WAR_DB_PATH"`
	AllowedOrigins     []string `env:"WAR_ALLOWED_ORIGINS" envSeparator:"," envDefault:"http://localhost:3000"`
	LogLevel           string   `env:"WAR_LOG_LEVEL" envDefault:"info"`
	OTelEndpoint       string   `env:"WAR_OTEL_ENDPOINT"`
	OTelEnabled        bool     `env:"WAR_OTEL_ENABLED" envDefault:"true"`
}

// ParseEnv loads configuration from environment variables.
func ParseEnv(target any) error {
	if err := env.Parse(target); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}
	return nil
}

// Parse loads defaults from the environment, then applies flags from args.
func Parse(fs *flag.FlagSet, args []string) (Config, error) {
	if fs == nil {
		return Config{}, errors.New("flag parser is required")
	}
	var cfg Config
	if err := ParseEnv(&cfg); err != nil {
		return Config{}, err
	}
	fs.IntVar(&cfg.Port, "port", cfg.Port, "The server port")
	fs.StringVar(&cfg.Addr, "addr", cfg.Addr, "The server listen address (overrides -port)")
	fs.IntVar(&cfg.MaxRounds, "max-rounds", cfg.MaxRounds, "Round limit for a single game")
	fs.IntVar(&cfg.MaxConcurrentGames, "max-games", cfg.MaxConcurrentGames, "Maximum games played at once")
	fs.StringVar(&cfg.DBPath, "db", cfg.DBPath, "SQLite database path (empty keeps scores in memory)")
	fs.StringVar(&cfg.LogLevel, "log-level", cfg.LogLevel, "Log level: debug, info, warn or error")
	fs.StringVar(&cfg.OTelEndpoint, "otel-endpoint", cfg.OTelEndpoint, "OTLP/HTTP trace endpoint URL (empty disables tracing)")
	fs.BoolVar(&cfg.OTelEnabled, "otel-enabled", cfg.OTelEnabled, "Export traces when an endpoint is set")
	if args == nil {
		args = []string{}
	}
	if err := fs.Parse(args); err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks value ranges.
func (c Config) Validate() error {
	var errs []error
	if c.Addr == "" && (c.Port < 1 || c.Port > 65535) {
		errs = append(errs, fmt.Errorf("port %d out of range", c.Port))
	}
	if c.MaxRounds <= 0 {
		errs = append(errs, fmt.Errorf("max rounds must be positive, got %d", c.MaxRounds))
	}
	if c.MaxConcurrentGames <= 0 {
		errs = append(errs, fmt.Errorf("max concurrent games must be positive, got %d", c.MaxConcurrentGames))
	}
	if _, err := c.Level(); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

// ListenAddr returns Addr, or ":<Port>" when Addr is empty.
func (c Config) ListenAddr() string {
	if c.Addr != "" {
		return c.Addr
	}
	return ":" + strconv.Itoa(c.Port)
}

// Level converts LogLevel to a slog.Level.
func (c Config) Level() (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(strings.TrimSpace(c.LogLevel))); err != nil {
		return slog.LevelInfo, fmt.Errorf("log level: %w", err)
	}
	return level, nil
}

// Engine returns the game engine configured by c.
func (c Config) Engine() war.Engine {
	return war.Engine{MaxRounds: c.MaxRounds}
}
