package config

import (
	"flag"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tkahng/war"
)

func TestParseDefaults(t *testing.T) {
	fs := flag.NewFlagSet("war", flag.ContinueOnError)
	cfg, err := Parse(fs, nil)
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Port)
	assert.Empty(t, cfg.Addr)
	assert.Equal(t, war.DefaultMaxRounds, cfg.MaxRounds)
	assert.Equal(t, 100, cfg.MaxConcurrentGames)
	assert.Empty(t, cfg.DBPath)
	assert.Equal(t, []string{"http://localhost:3000"}, cfg.AllowedOrigins)
	assert.Equal(t, ":8080", cfg.ListenAddr())
	assert.Equal(t, war.Engine{MaxRounds: war.DefaultMaxRounds}, cfg.Engine())
	assert.Empty(t, cfg.OTelEndpoint)
	assert.True(t, cfg.OTelEnabled)

	level, err := cfg.Level()
	require.NoError(t, err)
	assert.Equal(t, slog.LevelInfo, level)
}

func TestParseEnvAndFlags(t *testing.T) {
	t.Setenv("WAR_PORT", "9001")
	t.Setenv("WAR_MAX_ROUNDS", "500")
	t.Setenv("WAR_ALLOWED_ORIGINS", "http://a.test,http://b.test")
	t.Setenv("WAR_LOG_LEVEL", "debug")

	fs := flag.NewFlagSet("war", flag.ContinueOnError)
	cfg, err := Parse(fs, []string{"-addr", "127.0.0.1:9999", "-db", "/tmp/war.db", "-max-games", "4"})
	require.NoError(t, err)

	assert.Equal(t, 9001, cfg.Port)
	assert.Equal(t, "127.0.0.1:9999", cfg.ListenAddr())
	assert.Equal(t, 500, cfg.MaxRounds)
	assert.Equal(t, 4, cfg.MaxConcurrentGames)
	assert.Equal(t, "/tmp/war.db", cfg.DBPath)
	assert.Equal(t, []string{"http://a.test", "http://b.test"}, cfg.AllowedOrigins)

	level, err := cfg.Level()
	require.NoError(t, err)
	assert.Equal(t, slog.LevelDebug, level)
}

func TestParseTracing(t *testing.T) {
	tests := []struct {
		name         string
		env          map[string]string
		args         []string
		wantEndpoint string
		wantEnabled  bool
	}{
		{
			name:         "endpoint from env",
			env:          map[string]string{"WAR_OTEL_ENDPOINT": "http://collector:4318"},
			wantEndpoint: "http://collector:4318",
			wantEnabled:  true,
		},
		{
			name:         "disabled from env",
			env:          map[string]string{"WAR_OTEL_ENDPOINT": "http://collector:4318", "WAR_OTEL_ENABLED": "false"},
			wantEndpoint: "http://collector:4318",
			wantEnabled:  false,
		},
		{
			name:         "flags override env",
			env:          map[string]string{"WAR_OTEL_ENDPOINT": "http://collector:4318", "WAR_OTEL_ENABLED": "false"},
			args:         []string{"-otel-endpoint", "http://other:4318", "-otel-enabled=true"},
			wantEndpoint: "http://other:4318",
			wantEnabled:  true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			cfg, err := Parse(flag.NewFlagSet("war", flag.ContinueOnError), tt.args)
			require.NoError(t, err)
			assert.Equal(t, tt.wantEndpoint, cfg.OTelEndpoint)
			assert.Equal(t, tt.wantEnabled, cfg.OTelEnabled)
		})
	}
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
		args []string
	}{
		{name: "bad env int", env: map[string]string{"WAR_PORT": "not-an-int"}},
		{name: "bad env bool", env: map[string]string{"WAR_OTEL_ENABLED": "maybe"}},
		{name: "zero rounds", args: []string{"-max-rounds", "0"}},
		{name: "negative games", args: []string{"-max-games", "-1"}},
		{name: "port out of range", args: []string{"-port", "70000"}},
		{name: "unknown log level", args: []string{"-log-level", "chatty"}},
		{name: "unknown flag", args: []string{"-nope"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			fs := flag.NewFlagSet("war", flag.ContinueOnError)
			fs.SetOutput(nopWriter{})
			_, err := Parse(fs, tt.args)
			assert.Error(t, err)
		})
	}
}

func TestParseRequiresFlagSet(t *testing.T) {
	_, err := Parse(nil, nil)
	assert.Error(t, err)
}

type nopWriter struct{}

func (nopWriter) Write(p []byte) (int, error) { return len(p), nil }
