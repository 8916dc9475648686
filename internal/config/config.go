// internal/config/config.go

// Package config collects the service's environment-driven settings in one
// place. Values come from the process environment (a .env file is autoloaded
// in main); every knob has a default suitable for local development.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config is the resolved service configuration.
type Config struct {
	// Addr is the HTTP listen address, e.g. ":8080".
	Addr string

	// QuestionsPath is the JSON question bank location.
	QuestionsPath string

	// TimerTick is the question timeout scan interval.
	TimerTick time.Duration

	// CleanupTick is the expired-room scan interval.
	CleanupTick time.Duration

	// LobbyTTL evicts rooms idle in the lobby this long.
	LobbyTTL time.Duration

	// InProgressTTL evicts started (or finished) rooms idle this long.
	InProgressTTL time.Duration

	// RedisAddr enables the event journal when non-empty.
	RedisAddr string
}

// Load reads the environment and validates the result.
func Load() (Config, error) {
	cfg := Config{
		Addr:          ":" + getEnv("PORT", "8080"),
		QuestionsPath: getEnv("QUESTIONS_PATH", "data/questions.json"),
		TimerTick:     time.Duration(getEnvInt("TIMER_TICK_MS", 250)) * time.Millisecond,
		CleanupTick:   time.Duration(getEnvInt("CLEANUP_TICK_SECONDS", 60)) * time.Second,
		LobbyTTL:      time.Duration(getEnvInt("LOBBY_TTL_MINUTES", 20)) * time.Minute,
		InProgressTTL: time.Duration(getEnvInt("IN_PROGRESS_TTL_MINUTES", 60)) * time.Minute,
		RedisAddr:     os.Getenv("REDIS_ADDR"),
	}
	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) validate() error {
	if c.TimerTick < 50*time.Millisecond || c.TimerTick > 10*time.Second {
		return fmt.Errorf("config: TIMER_TICK_MS must be between 50 and 10000, got %s", c.TimerTick)
	}
	if c.CleanupTick < 5*time.Second || c.CleanupTick > time.Hour {
		return fmt.Errorf("config: CLEANUP_TICK_SECONDS must be between 5 and 3600, got %s", c.CleanupTick)
	}
	if c.LobbyTTL < time.Minute || c.LobbyTTL > 24*time.Hour {
		return fmt.Errorf("config: LOBBY_TTL_MINUTES must be between 1 and 1440, got %s", c.LobbyTTL)
	}
	if c.InProgressTTL < time.Minute || c.InProgressTTL > 24*time.Hour {
		return fmt.Errorf("config: IN_PROGRESS_TTL_MINUTES must be between 1 and 1440, got %s", c.InProgressTTL)
	}
	return nil
}

// getEnv reads an environment variable or returns a default value.
func getEnv(key, def string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return def
}

// getEnvInt parses an environment variable as an integer, else a default.
func getEnvInt(key string, def int) int {
	s := os.Getenv(key)
	if s == "" {
		return def
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		return def
	}
	return v
}
