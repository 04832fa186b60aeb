// Package daemon manages the FocusQuest server lifecycle and configuration.
package daemon

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/BurntSushi/toml"
)

// Config holds all server configuration.
type Config struct {
	API       APIConfig       `toml:"api"`
	Auth      AuthConfig      `toml:"auth"`
	Engine    EngineConfig    `toml:"engine"`
	Storage   StorageConfig   `toml:"storage"`
	Cache     CacheConfig     `toml:"cache"`
	Logging   LoggingConfig   `toml:"logging"`
	Telemetry TelemetryConfig `toml:"telemetry"`
}

// APIConfig controls the HTTP API server.
type APIConfig struct {
	Host           string   `toml:"host"`
	Port           int      `toml:"port"`
	CORSOrigins    []string `toml:"cors_origins"`
	RequestTimeout string   `toml:"request_timeout"`
}

// AuthConfig controls bearer token signing and verification.
type AuthConfig struct {
	JWTSecret string `toml:"jwt_secret"`
	TokenTTL  string `toml:"token_ttl"`
	Issuer    string `toml:"issuer"`
}

// EngineConfig tunes the engagement engine.
type EngineConfig struct {
	Timezone        string `toml:"timezone"`
	LeaderboardSize int    `toml:"leaderboard_size"`
}

// StorageConfig locates the SQLite database.
type StorageConfig struct {
	Dir string `toml:"dir"`
}

// CacheConfig controls the Redis leaderboard cache. An empty address disables it.
type CacheConfig struct {
	RedisAddr      string `toml:"redis_addr"`
	RedisPassword  string `toml:"redis_password"`
	RedisDB        int    `toml:"redis_db"`
	LeaderboardTTL string `toml:"leaderboard_ttl"`
}

// LoggingConfig controls logging behavior.
type LoggingConfig struct {
	Level      string `toml:"level"`
	Format     string `toml:"format"` // json | console
	File       string `toml:"file"`
	MaxSizeMB  int    `toml:"max_size_mb"`
	MaxFiles   int    `toml:"max_files"`
	MaxAgeDays int    `toml:"max_age_days"`
	Compress   bool   `toml:"compress"`
}

// TelemetryConfig controls metrics exposition.
type TelemetryConfig struct {
	Prometheus bool `toml:"prometheus"`
}

// DefaultConfig returns a sensible default configuration.
func DefaultConfig() Config {
	homeDir := focusquestHome()
	return Config{
		API: APIConfig{
			Host:           "127.0.0.1",
			Port:           8420,
			CORSOrigins:    []string{"*"},
			RequestTimeout: "15s",
		},
		Auth: AuthConfig{
			TokenTTL: "720h",
			Issuer:   "focusquest",
		},
		Engine: EngineConfig{
			Timezone:        "UTC",
			LeaderboardSize: 10,
		},
		Storage: StorageConfig{
			Dir: homeDir,
		},
		Cache: CacheConfig{
			LeaderboardTTL: "5s",
		},
		Logging: LoggingConfig{
			Level:      "info",
			Format:     "json",
			File:       filepath.Join(homeDir, "focusquest.log"),
			MaxSizeMB:  50,
			MaxFiles:   7,
			MaxAgeDays: 14,
			Compress:   true,
		},
		Telemetry: TelemetryConfig{
			Prometheus: true,
		},
	}
}

// LoadConfig reads config from $FOCUSQUEST_HOME/config.toml, falling back to
// defaults. FOCUSQUEST_JWT_SECRET overrides the file's secret.
func LoadConfig() (Config, error) {
	cfg := DefaultConfig()
	path := ConfigPath()

	if _, err := os.Stat(path); err == nil {
		if _, err := toml.DecodeFile(path, &cfg); err != nil {
			return cfg, fmt.Errorf("parse config: %w", err)
		}
	} else if !os.IsNotExist(err) {
		return cfg, fmt.Errorf("stat config: %w", err)
	}

	if secret := os.Getenv("FOCUSQUEST_JWT_SECRET"); secret != "" {
		cfg.Auth.JWTSecret = secret
	}
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// SaveConfig writes the config to $FOCUSQUEST_HOME/config.toml.
func SaveConfig(cfg Config) error {
	path := ConfigPath()
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return err
	}

	f, err := os.OpenFile(path, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0600)
	if err != nil {
		return err
	}
	defer f.Close()

	encoder := toml.NewEncoder(f)
	return encoder.Encode(cfg)
}

// Validate checks values that would otherwise fail late at startup.
func (c Config) Validate() error {
	var errs []error
	if c.API.Port <= 0 || c.API.Port > 65535 {
		errs = append(errs, fmt.Errorf("api.port %d out of range", c.API.Port))
	}
	if _, err := time.LoadLocation(c.Engine.Timezone); err != nil {
		errs = append(errs, fmt.Errorf("engine.timezone: %w", err))
	}
	if c.Engine.LeaderboardSize <= 0 {
		errs = append(errs, fmt.Errorf("engine.leaderboard_size must be positive, got %d", c.Engine.LeaderboardSize))
	}
	for name, v := range map[string]string{
		"api.request_timeout":   c.API.RequestTimeout,
		"auth.token_ttl":        c.Auth.TokenTTL,
		"cache.leaderboard_ttl": c.Cache.LeaderboardTTL,
	} {
		if v == "" {
			continue
		}
		if _, err := time.ParseDuration(v); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", name, err))
		}
	}
	return errors.Join(errs...)
}

// Location returns the engine timezone, UTC if unset or unknown.
func (c Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.Engine.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// RequestTimeout returns the per-request deadline.
func (c Config) RequestTimeout() time.Duration {
	return parseDuration(c.API.RequestTimeout, 15*time.Second)
}

// TokenTTL returns how long issued tokens stay valid.
func (c Config) TokenTTL() time.Duration {
	return parseDuration(c.Auth.TokenTTL, 30*24*time.Hour)
}

// LeaderboardTTL returns how long cached leaderboards are served.
func (c Config) LeaderboardTTL() time.Duration {
	return parseDuration(c.Cache.LeaderboardTTL, 5*time.Second)
}

// parseDuration parses s, returning def for empty or malformed input.
func parseDuration(s string, def time.Duration) time.Duration {
	if s == "" {
		return def
	}
	d, err := time.ParseDuration(s)
	if err != nil || d <= 0 {
		return def
	}
	return d
}

// ConfigPath returns the config file location.
func ConfigPath() string {
	return filepath.Join(focusquestHome(), "config.toml")
}

// focusquestHome returns the FocusQuest data directory.
func focusquestHome() string {
	if env := os.Getenv("FOCUSQUEST_HOME"); env != "" {
		return env
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".focusquest")
}

// Home is exported for use by other packages.
func Home() string {
	return focusquestHome()
}
