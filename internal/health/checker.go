// Package health runs periodic dependency checks and reports the latest results.
package health

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"go.uber.org/zap"
)

// DefaultInterval is how often Run repeats the checks.
const DefaultInterval = 30 * time.Second

// Check is a single named probe.
type Check struct {
	Name    string
	CheckFn func(ctx context.Context) error
}

// Status represents the result of a health check.
type Status struct {
	Name      string    `json:"name"`
	Healthy   bool      `json:"healthy"`
	Error     string    `json:"error,omitempty"`
	CheckedAt time.Time `json:"checked_at"`
}

// Checker runs checks on an interval and caches their results.
type Checker struct {
	mu       sync.RWMutex
	checks   []Check
	statuses []Status
	interval time.Duration
	timeout  time.Duration
	logger   *zap.Logger
}

// NewChecker creates a checker. A non-positive interval uses DefaultInterval.
func NewChecker(interval time.Duration, logger *zap.Logger, checks ...Check) *Checker {
	if interval <= 0 {
		interval = DefaultInterval
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Checker{
		checks:   checks,
		interval: interval,
		timeout:  5 * time.Second,
		logger:   logger,
	}
}

// Add registers another check. Not safe once Run has started.
func (c *Checker) Add(check Check) {
	c.checks = append(c.checks, check)
}

// Run starts the health check loop. Call in a goroutine.
func (c *Checker) Run(ctx context.Context) {
	// Run immediately on start
	c.RunOnce(ctx)

	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			c.RunOnce(ctx)
		}
	}
}

// RunOnce runs every check once and stores the results.
func (c *Checker) RunOnce(ctx context.Context) {
	statuses := make([]Status, len(c.checks))
	for i, check := range c.checks {
		s := Status{
			Name:      check.Name,
			CheckedAt: time.Now().UTC(),
		}
		checkCtx, cancel := context.WithTimeout(ctx, c.timeout)
		err := check.CheckFn(checkCtx)
		cancel()
		if err != nil {
			s.Error = err.Error()
			c.logger.Warn("health_check_failed", zap.String("check", check.Name), zap.Error(err))
		} else {
			s.Healthy = true
		}
		statuses[i] = s
	}

	c.mu.Lock()
	c.statuses = statuses
	c.mu.Unlock()
}

// Statuses returns the latest health check results.
func (c *Checker) Statuses() []Status {
	c.mu.RLock()
	defer c.mu.RUnlock()
	result := make([]Status, len(c.statuses))
	copy(result, c.statuses)
	return result
}

// IsHealthy returns true if all checks pass. Before the first run it
// reports true.
func (c *Checker) IsHealthy() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	for _, s := range c.statuses {
		if !s.Healthy {
			return false
		}
	}
	return true
}

// ─── Check Constructors ─────────────────────────────────────────────────────

// Pinger is anything with a context-free liveness probe, like *sqlite.DB.
type Pinger interface {
	Ping() error
}

// PingCheck wraps a Pinger.
func PingCheck(name string, p Pinger) Check {
	return Check{
		Name:    name,
		CheckFn: func(context.Context) error { return p.Ping() },
	}
}

// DirCheck verifies that dir exists and accepts new files.
func DirCheck(name, dir string) Check {
	return Check{
		Name: name,
		CheckFn: func(context.Context) error {
			return checkWritableDir(dir)
		},
	}
}

func checkWritableDir(dir string) error {
	info, err := os.Stat(dir)
	if err != nil {
		return fmt.Errorf("check dir: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("%s is not a directory", dir)
	}
	f, err := os.CreateTemp(dir, ".health-*")
	if err != nil {
		return fmt.Errorf("dir %s not writable: %w", dir, err)
	}
	name := f.Name()
	f.Close()
	return os.Remove(filepath.Clean(name))
}
