// Package config loads environment variables and provides a typed Config used across the service.
// It applies sensible defaults so the binary can run locally with minimal setup.
// Test mode (OVERLAY_TEST_MODE) replaces both live transports with the synthetic generator.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

type Config struct {
	// Twitch (Transport A). Username/OAuth are optional; without them the
	// IRC client connects anonymously, which is all a read-only overlay needs.
	TwitchChannel    string
	TwitchUsername   string
	TwitchOAuthToken string

	// Streamlabs (Transport B). Empty token leaves the adapter inert.
	StreamlabsToken string

	// Test mode disables both live transports and runs the generator.
	TestMode bool

	// HTTP
	HTTPAddr string

	// Overlay tunables
	MaxMessages     int           // visible chat message cap
	TypingWindow    int           // newest messages that get the typewriter reveal
	MessageLifetime time.Duration // time from insertion to removal
	AlertDuration   time.Duration // total on-screen time per alert
	RevealRate      time.Duration // typewriter speed, per character

	// Streamlabs reconnect delay (fixed, no backoff)
	ReconnectDelay time.Duration
}

// Load reads environment variables and applies defaults. It doesn't fail if the
// channel is missing; use ValidateLive() when live ingestion is required.
func Load() (*Config, error) {
	cfg := &Config{}

	cfg.TwitchChannel = os.Getenv("TWITCH_CHANNEL")
	cfg.TwitchUsername = os.Getenv("TWITCH_USERNAME")
	cfg.TwitchOAuthToken = os.Getenv("TWITCH_OAUTH_TOKEN")
	cfg.StreamlabsToken = os.Getenv("STREAMLABS_TOKEN")

	switch os.Getenv("OVERLAY_TEST_MODE") {
	case "1", "true", "yes":
		cfg.TestMode = true
	}

	cfg.HTTPAddr = os.Getenv("HTTP_ADDR")
	if cfg.HTTPAddr == "" {
		cfg.HTTPAddr = ":8080"
	}

	cfg.MaxMessages = envInt("OVERLAY_MAX_MESSAGES", 50)
	if cfg.MaxMessages < 1 {
		return nil, fmt.Errorf("OVERLAY_MAX_MESSAGES must be >= 1, got %d", cfg.MaxMessages)
	}
	cfg.TypingWindow = envInt("OVERLAY_TYPING_WINDOW", 5)
	if cfg.TypingWindow < 0 {
		return nil, fmt.Errorf("OVERLAY_TYPING_WINDOW must be >= 0, got %d", cfg.TypingWindow)
	}

	var err error
	if cfg.MessageLifetime, err = envDuration("OVERLAY_MESSAGE_LIFETIME", 18*time.Second); err != nil {
		return nil, err
	}
	if cfg.AlertDuration, err = envDuration("OVERLAY_ALERT_DURATION", 8*time.Second); err != nil {
		return nil, err
	}
	if cfg.RevealRate, err = envDuration("OVERLAY_REVEAL_RATE", 25*time.Millisecond); err != nil {
		return nil, err
	}
	if cfg.ReconnectDelay, err = envDuration("STREAMLABS_RECONNECT_DELAY", 5*time.Second); err != nil {
		return nil, err
	}

	return cfg, nil
}

// ValidateLive checks required fields when live ingestion is enabled
// (i.e. test mode is off).
func (c *Config) ValidateLive() error {
	if c.TestMode {
		return nil
	}
	if c.TwitchChannel == "" {
		return fmt.Errorf("missing twitch env: require TWITCH_CHANNEL (or set OVERLAY_TEST_MODE=1)")
	}
	return nil
}

// StreamlabsEnabled reports whether Transport B should connect.
func (c *Config) StreamlabsEnabled() bool {
	return !c.TestMode && c.StreamlabsToken != ""
}

func envInt(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}

func envDuration(key string, def time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s (duration): %w", key, err)
	}
	if d <= 0 {
		return 0, fmt.Errorf("%s must be positive, got %s", key, d)
	}
	return d, nil
}
