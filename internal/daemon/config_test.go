package daemon

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestDefaultConfig(t *testing.T) {
	t.Setenv("FOCUSQUEST_HOME", t.TempDir())
	cfg := DefaultConfig()

	if cfg.API.Host != "127.0.0.1" {
		t.Errorf("API.Host = %q, want %q", cfg.API.Host, "127.0.0.1")
	}
	if cfg.API.Port != 8420 {
		t.Errorf("API.Port = %d, want %d", cfg.API.Port, 8420)
	}
	if cfg.Engine.LeaderboardSize != 10 {
		t.Errorf("Engine.LeaderboardSize = %d, want 10", cfg.Engine.LeaderboardSize)
	}
	if cfg.Cache.RedisAddr != "" {
		t.Error("cache should be off by default")
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("default config invalid: %v", err)
	}
}

func TestLoadConfig_NoFile(t *testing.T) {
	home := t.TempDir()
	t.Setenv("FOCUSQUEST_HOME", home)
	t.Setenv("FOCUSQUEST_JWT_SECRET", "")

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig() error: %v", err)
	}
	if cfg.Storage.Dir != home {
		t.Errorf("Storage.Dir = %q, want %q", cfg.Storage.Dir, home)
	}
}

func TestSaveLoad_RoundTrip(t *testing.T) {
	t.Setenv("FOCUSQUEST_HOME", t.TempDir())
	t.Setenv("FOCUSQUEST_JWT_SECRET", "")

	cfg := DefaultConfig()
	cfg.API.Port = 9000
	cfg.Engine.Timezone = "Europe/Berlin"
	cfg.Cache.RedisAddr = "localhost:6379"
	cfg.Auth.JWTSecret = "s3cret"
	if err := SaveConfig(cfg); err != nil {
		t.Fatalf("SaveConfig() error: %v", err)
	}

	info, err := os.Stat(ConfigPath())
	if err != nil {
		t.Fatalf("config file missing: %v", err)
	}
	if info.Mode().Perm() != 0600 {
		t.Errorf("config perms = %v, want 0600", info.Mode().Perm())
	}

	got, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig() error: %v", err)
	}
	if got.API.Port != 9000 || got.Cache.RedisAddr != "localhost:6379" || got.Auth.JWTSecret != "s3cret" {
		t.Errorf("round trip = %+v", got)
	}
	if got.Location().String() != "Europe/Berlin" {
		t.Errorf("Location() = %v", got.Location())
	}
}

func TestLoadConfig_EnvSecretWins(t *testing.T) {
	t.Setenv("FOCUSQUEST_HOME", t.TempDir())
	cfg := DefaultConfig()
	cfg.Auth.JWTSecret = "from-file"
	if err := SaveConfig(cfg); err != nil {
		t.Fatalf("SaveConfig() error: %v", err)
	}
	t.Setenv("FOCUSQUEST_JWT_SECRET", "from-env")

	got, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig() error: %v", err)
	}
	if got.Auth.JWTSecret != "from-env" {
		t.Errorf("JWTSecret = %q, want from-env", got.Auth.JWTSecret)
	}
}

func TestLoadConfig_Invalid(t *testing.T) {
	home := t.TempDir()
	t.Setenv("FOCUSQUEST_HOME", home)
	body := "[engine]\ntimezone = \"Mars/Olympus\"\nleaderboard_size = 0\n"
	if err := os.WriteFile(filepath.Join(home, "config.toml"), []byte(body), 0600); err != nil {
		t.Fatal(err)
	}

	_, err := LoadConfig()
	if err == nil {
		t.Fatal("expected validation error")
	}
	for _, want := range []string{"engine.timezone", "engine.leaderboard_size"} {
		if !strings.Contains(err.Error(), want) {
			t.Errorf("error %q should mention %s", err, want)
		}
	}
}

func TestDurations(t *testing.T) {
	tests := []struct {
		input string
		def   time.Duration
		want  time.Duration
	}{
		{"5s", time.Second, 5 * time.Second},
		{"", time.Second, time.Second},
		{"garbage", time.Minute, time.Minute},
		{"-3s", time.Minute, time.Minute},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			if got := parseDuration(tt.input, tt.def); got != tt.want {
				t.Errorf("parseDuration(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}

	cfg := DefaultConfig()
	if cfg.LeaderboardTTL() != 5*time.Second || cfg.RequestTimeout() != 15*time.Second || cfg.TokenTTL() != 720*time.Hour {
		t.Errorf("durations = %v %v %v", cfg.LeaderboardTTL(), cfg.RequestTimeout(), cfg.TokenTTL())
	}
}
