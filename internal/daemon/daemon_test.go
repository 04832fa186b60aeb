package daemon

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"testing"
	"time"
)

func testConfig(t *testing.T) Config {
	t.Helper()
	t.Setenv("FOCUSQUEST_HOME", t.TempDir())
	cfg := DefaultConfig()
	cfg.Logging.Level = "error"
	cfg.Auth.JWTSecret = "test-secret"
	return cfg
}

func freePort(t *testing.T) int {
	t.Helper()
	l, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	defer l.Close()
	return l.Addr().(*net.TCPAddr).Port
}

func TestNewWithConfig(t *testing.T) {
	cfg := testConfig(t)
	d, err := NewWithConfig(context.Background(), cfg)
	if err != nil {
		t.Fatalf("NewWithConfig() error: %v", err)
	}
	defer d.Close()

	if d.DB == nil || d.Engagement == nil || d.Server == nil || d.Auth == nil || d.Health == nil {
		t.Fatalf("daemon not fully wired: %+v", d)
	}
	if d.Cache != nil {
		t.Error("cache should stay off without redis_addr")
	}
}

func TestNewWithConfig_UnreachableRedis(t *testing.T) {
	cfg := testConfig(t)
	l, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatal(err)
	}
	cfg.Cache.RedisAddr = l.Addr().String()
	l.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	d, err := NewWithConfig(ctx, cfg)
	if err != nil {
		t.Fatalf("unreachable redis should not be fatal: %v", err)
	}
	defer d.Close()
	if d.Cache != nil {
		t.Error("cache should be disabled when redis is unreachable")
	}
}

func TestServe_RequiresSecret(t *testing.T) {
	cfg := testConfig(t)
	cfg.Auth.JWTSecret = ""
	d, err := NewWithConfig(context.Background(), cfg)
	if err != nil {
		t.Fatal(err)
	}
	defer d.Close()

	if err := d.Serve(context.Background()); !errors.Is(err, ErrNoSecret) {
		t.Errorf("Serve() = %v, want ErrNoSecret", err)
	}
}

func TestServe_GracefulShutdown(t *testing.T) {
	cfg := testConfig(t)
	cfg.API.Port = freePort(t)
	d, err := NewWithConfig(context.Background(), cfg)
	if err != nil {
		t.Fatal(err)
	}
	defer d.Close()

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- d.Serve(ctx) }()

	url := fmt.Sprintf("http://127.0.0.1:%d/health", cfg.API.Port)
	var resp *http.Response
	for i := 0; i < 50; i++ {
		resp, err = http.Get(url)
		if err == nil {
			break
		}
		time.Sleep(20 * time.Millisecond)
	}
	if err != nil {
		t.Fatalf("server never came up: %v", err)
	}
	body, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("health = %d %s", resp.StatusCode, body)
	}

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Errorf("Serve() = %v, want nil after cancel", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Serve() did not return after cancel")
	}
}
