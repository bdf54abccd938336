// Package config loads runtime settings from the environment and an
// optional YAML file.
package config

import (
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds all configuration values.
type Config struct {
	// Source API
	APIURL        string
	SessionKey    string
	ClientTimeout time.Duration

	// Export
	OutputDir   string
	SettleDelay time.Duration

	// Bridge
	BridgeAddr string

	// Logging
	LogFile  string
	LogLevel slog.Level
}

// fileConfig mirrors Config in the YAML overlay. Empty fields keep the
// environment value.
type fileConfig struct {
	APIURL        string `yaml:"api_url"`
	SessionKey    string `yaml:"session_key"`
	ClientTimeout string `yaml:"client_timeout"`
	OutputDir     string `yaml:"output_dir"`
	SettleDelay   string `yaml:"settle_delay"`
	BridgeAddr    string `yaml:"bridge_addr"`
	LogFile       string `yaml:"log_file"`
	LogLevel      string `yaml:"log_level"`
}

// Load reads configuration from environment variables, then applies the
// YAML file named by CHATEXPORT_CONFIG if set.
func Load() (Config, error) {
	cfg := Config{
		APIURL:        getEnv("CHATEXPORT_API_URL", "https://claude.ai/api"),
		SessionKey:    getEnv("CHATEXPORT_SESSION_KEY", ""),
		ClientTimeout: parseDuration(getEnv("CHATEXPORT_CLIENT_TIMEOUT", ""), 30*time.Second),

		OutputDir:   getEnv("CHATEXPORT_OUTPUT_DIR", "."),
		SettleDelay: parseDuration(getEnv("CHATEXPORT_SETTLE_DELAY", ""), 3*time.Second),

		BridgeAddr: getEnv("CHATEXPORT_BRIDGE_ADDR", "127.0.0.1:8765"),

		LogFile:  getEnv("CHATEXPORT_LOG_FILE", "/tmp/chatexport.log"),
		LogLevel: parseLogLevel(getEnv("CHATEXPORT_LOG_LEVEL", "INFO")),
	}

	if path := os.Getenv("CHATEXPORT_CONFIG"); path != "" {
		if err := cfg.applyFile(path); err != nil {
			return Config{}, err
		}
	}
	return cfg, nil
}

func (c *Config) applyFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config %s: %w", path, err)
	}
	var fc fileConfig
	if err := yaml.Unmarshal(data, &fc); err != nil {
		return fmt.Errorf("parse config %s: %w", path, err)
	}

	setString(&c.APIURL, fc.APIURL)
	setString(&c.SessionKey, fc.SessionKey)
	setString(&c.OutputDir, fc.OutputDir)
	setString(&c.BridgeAddr, fc.BridgeAddr)
	setString(&c.LogFile, fc.LogFile)
	if fc.LogLevel != "" {
		c.LogLevel = parseLogLevel(fc.LogLevel)
	}
	if fc.ClientTimeout != "" {
		d, err := time.ParseDuration(fc.ClientTimeout)
		if err != nil {
			return fmt.Errorf("parse client_timeout: %w", err)
		}
		c.ClientTimeout = d
	}
	if fc.SettleDelay != "" {
		d, err := time.ParseDuration(fc.SettleDelay)
		if err != nil {
			return fmt.Errorf("parse settle_delay: %w", err)
		}
		c.SettleDelay = d
	}
	return nil
}

func setString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}

func getEnv(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

// parseDuration falls back to def for empty or malformed values.
func parseDuration(s string, def time.Duration) time.Duration {
	if s == "" {
		return def
	}
	d, err := time.ParseDuration(s)
	if err != nil || d < 0 {
		return def
	}
	return d
}

func parseLogLevel(s string) slog.Level {
	switch strings.ToUpper(s) {
	case "DEBUG":
		return slog.LevelDebug
	case "INFO":
		return slog.LevelInfo
	case "WARN", "WARNING":
		return slog.LevelWarn
	case "ERROR":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
