// Package shutdown provides idle monitoring for scale-to-zero deployments.
package shutdown

import (
	"log/slog"
	"net/http"
	"strings"
	"sync/atomic"
	"time"
)

// BusyCheck reports whether background work is in progress. While it returns
// true the idle timer keeps resetting.
type BusyCheck func() bool

// IdleMonitor signals shutdown once no HTTP requests and no background work
// have been seen for the configured timeout. A zero timeout disables it.
type IdleMonitor struct {
	timeout      time.Duration
	logger       *slog.Logger
	excludePaths []string
	busyCheck    BusyCheck

	activeRequests atomic.Int64
	lastActivity   atomic.Int64 // unix nanos

	idle chan struct{}
	stop chan struct{}
}

// Config holds idle monitor settings.
type Config struct {
	Timeout      time.Duration
	ExcludePaths []string // request paths that never count as activity
	BusyCheck    BusyCheck
	Logger       *slog.Logger
}

// NewIdleMonitor creates an idle monitor.
func NewIdleMonitor(cfg Config) *IdleMonitor {
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	m := &IdleMonitor{
		timeout:      cfg.Timeout,
		logger:       cfg.Logger,
		excludePaths: cfg.ExcludePaths,
		busyCheck:    cfg.BusyCheck,
		idle:         make(chan struct{}),
		stop:         make(chan struct{}),
	}
	m.touch()
	return m
}

// Start begins watching for idle periods. No-op when the timeout is zero.
func (m *IdleMonitor) Start() {
	if m.timeout <= 0 {
		return
	}
	m.logger.Info("idle monitoring started", "timeout", m.timeout)
	go m.run()
}

// Stop halts the monitor without signaling idle.
func (m *IdleMonitor) Stop() {
	if m.timeout <= 0 {
		return
	}
	close(m.stop)
}

// Idle returns a channel that is closed once the idle timeout elapses.
func (m *IdleMonitor) Idle() <-chan struct{} {
	return m.idle
}

// Middleware tracks request activity, skipping excluded paths such as
// health probes.
func (m *IdleMonitor) Middleware(next http.Handler) http.Handler {
	if m.timeout <= 0 {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !m.excluded(r.URL.Path) {
			m.activeRequests.Add(1)
			m.touch()
			defer func() {
				m.activeRequests.Add(-1)
				m.touch()
			}()
		}
		next.ServeHTTP(w, r)
	})
}

func (m *IdleMonitor) excluded(path string) bool {
	for _, p := range m.excludePaths {
		if strings.HasPrefix(path, p) {
			return true
		}
	}
	return false
}

func (m *IdleMonitor) touch() {
	m.lastActivity.Store(time.Now().UnixNano())
}

func (m *IdleMonitor) run() {
	// Check often enough to be responsive without busy-waiting
	interval := m.timeout / 6
	if interval < time.Second {
		interval = time.Second
	}
	if interval > 30*time.Second {
		interval = 30 * time.Second
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-m.stop:
			return
		case <-ticker.C:
			busy := m.activeRequests.Load() > 0 || (m.busyCheck != nil && m.busyCheck())
			if busy {
				m.touch()
				continue
			}
			idleFor := time.Since(time.Unix(0, m.lastActivity.Load()))
			if idleFor >= m.timeout {
				m.logger.Info("idle timeout reached, signaling shutdown", "idle_for", idleFor)
				close(m.idle)
				return
			}
		}
	}
}
