// Package antispam throttles repeated connection attempts from one remote
// host.
package antispam

import (
	"sync"
	"time"
)

// Config holds the throttling settings
type Config struct {
	Enabled     bool          // Whether throttling is enabled
	MaxAttempts int           // Max attempts allowed per host in the time window
	TimeWindow  time.Duration // Time window for rate limiting
}

// DefaultConfig returns sensible defaults
func DefaultConfig() Config {
	return Config{
		Enabled:     true,
		MaxAttempts: 10,
		TimeWindow:  time.Minute,
	}
}

// ConfigFromYAML creates a Config from YAML-loaded values. Zero keeps the
// default, a negative attempt count disables throttling.
func ConfigFromYAML(maxAttempts, timeWindowSeconds int) Config {
	cfg := DefaultConfig()
	if maxAttempts < 0 {
		cfg.Enabled = false
	}
	if maxAttempts > 0 {
		cfg.MaxAttempts = maxAttempts
	}
	if timeWindowSeconds > 0 {
		cfg.TimeWindow = time.Duration(timeWindowSeconds) * time.Second
	}
	return cfg
}

// Limiter tracks connection attempts per host
type Limiter struct {
	mu       sync.Mutex
	config   Config
	attempts map[string][]time.Time // host -> timestamps of recent attempts
	now      func() time.Time
}

// NewLimiter creates a new limiter with the given config
func NewLimiter(config Config) *Limiter {
	return &Limiter{
		config:   config,
		attempts: make(map[string][]time.Time),
		now:      time.Now,
	}
}

// CheckResult contains the result of a check
type CheckResult struct {
	Allowed     bool
	WaitSeconds int // How long to wait before trying again (if not allowed)
}

// Allow records an attempt from host and reports whether it may proceed
func (l *Limiter) Allow(host string) CheckResult {
	if !l.config.Enabled {
		return CheckResult{Allowed: true}
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	l.cleanup(now)

	times := l.attempts[host]
	if len(times) >= l.config.MaxAttempts {
		// Find when the oldest attempt will expire
		remaining := times[0].Add(l.config.TimeWindow).Sub(now)
		return CheckResult{
			Allowed:     false,
			WaitSeconds: int(remaining.Seconds()) + 1,
		}
	}

	l.attempts[host] = append(times, now)
	return CheckResult{Allowed: true}
}

// cleanup removes expired entries
func (l *Limiter) cleanup(now time.Time) {
	cutoff := now.Add(-l.config.TimeWindow)
	for host, times := range l.attempts {
		kept := times[:0]
		for _, t := range times {
			if t.After(cutoff) {
				kept = append(kept, t)
			}
		}
		if len(kept) == 0 {
			delete(l.attempts, host)
		} else {
			l.attempts[host] = kept
		}
	}
}

// Hosts returns the number of hosts with recent attempts
func (l *Limiter) Hosts() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.attempts)
}

// Reset clears all tracking data
func (l *Limiter) Reset() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.attempts = make(map[string][]time.Time)
}
