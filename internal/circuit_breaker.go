package internal

import (
	"slices"
	"sync"
	"time"

	"go.uber.org/zap"
)

// CircuitBreaker opens after threshold sink failures within window and
// stays open for openDuration. A nil breaker never opens.
type CircuitBreaker struct {
	mu           sync.Mutex
	failures     []time.Time
	threshold    int
	window       time.Duration
	openUntil    time.Time
	openDuration time.Duration
	now          func() time.Time
}

// NewCircuitBreaker creates a configured circuit breaker. A threshold of
// zero returns nil, which never opens.
func NewCircuitBreaker(threshold int, window, openDuration time.Duration) *CircuitBreaker {
	if threshold <= 0 {
		return nil
	}
	return &CircuitBreaker{
		threshold:    threshold,
		window:       window,
		openDuration: openDuration,
		failures:     make([]time.Time, 0, threshold),
		now:          time.Now,
	}
}

// RecordFailure notes a failed write and opens the breaker once threshold
// failures fall inside the window.
func (cb *CircuitBreaker) RecordFailure() {
	if cb == nil {
		return
	}
	cb.mu.Lock()
	defer cb.mu.Unlock()

	now := cb.now()
	cutoff := now.Add(-cb.window)
	if i := slices.IndexFunc(cb.failures, func(t time.Time) bool { return t.After(cutoff) }); i < 0 {
		cb.failures = cb.failures[:0]
	} else if i > 0 {
		cb.failures = slices.Delete(cb.failures, 0, i)
	}
	cb.failures = append(cb.failures, now)

	if len(cb.failures) >= cb.threshold {
		wasOpen := now.Before(cb.openUntil)
		cb.openUntil = now.Add(cb.openDuration)
		if !wasOpen {
			zap.S().Warnw("sink circuit breaker opened",
				"failures", len(cb.failures), "window", cb.window, "openUntil", cb.openUntil)
		}
	}
}

// RecordSuccess resets failure history when operations succeed.
func (cb *CircuitBreaker) RecordSuccess() {
	if cb == nil {
		return
	}
	cb.mu.Lock()
	defer cb.mu.Unlock()
	cb.failures = cb.failures[:0]
	cb.openUntil = time.Time{}
}

// IsOpen returns true if the breaker is currently open.
func (cb *CircuitBreaker) IsOpen() bool {
	if cb == nil {
		return false
	}
	cb.mu.Lock()
	defer cb.mu.Unlock()
	return cb.now().Before(cb.openUntil)
}

// OpenUntil returns when the breaker closes again; zero when it is closed.
func (cb *CircuitBreaker) OpenUntil() time.Time {
	if cb == nil {
		return time.Time{}
	}
	cb.mu.Lock()
	defer cb.mu.Unlock()
	if !cb.now().Before(cb.openUntil) {
		return time.Time{}
	}
	return cb.openUntil
}
