package devlog

import (
	"sync"
	"time"
)

// LoginLimiter rate-limits failed admin login attempts per IP address.
type LoginLimiter struct {
	mu       sync.Mutex
	attempts map[string][]time.Time
	max      int
	window   time.Duration
	now      func() time.Time
	done     chan struct{}
	once     sync.Once
}

// NewLoginLimiter creates a LoginLimiter that allows max attempts per window.
// Close stops its background cleanup.
func NewLoginLimiter(max int, window time.Duration) *LoginLimiter {
	l := newLoginLimiter(max, window, time.Now)
	go l.cleanup()
	return l
}

func newLoginLimiter(max int, window time.Duration, now func() time.Time) *LoginLimiter {
	return &LoginLimiter{
		attempts: make(map[string][]time.Time),
		max:      max,
		window:   window,
		now:      now,
		done:     make(chan struct{}),
	}
}

func (l *LoginLimiter) cleanup() {
	ticker := time.NewTicker(l.window)
	defer ticker.Stop()
	for {
		select {
		case <-l.done:
			return
		case <-ticker.C:
			l.prune()
		}
	}
}

func (l *LoginLimiter) prune() {
	cutoff := l.now().Add(-l.window)
	l.mu.Lock()
	defer l.mu.Unlock()
	for ip := range l.attempts {
		if kept := l.recent(ip, cutoff); len(kept) == 0 {
			delete(l.attempts, ip)
		}
	}
}

// recent drops attempts older than cutoff. l.mu must be held.
func (l *LoginLimiter) recent(ip string, cutoff time.Time) []time.Time {
	hits := l.attempts[ip]
	kept := hits[:0]
	for _, t := range hits {
		if t.After(cutoff) {
			kept = append(kept, t)
		}
	}
	if len(kept) > 0 {
		l.attempts[ip] = kept
	}
	return kept
}

// Allow checks the limit and records an attempt in one step.
func (l *LoginLimiter) Allow(ip string) bool {
	if !l.Check(ip) {
		return false
	}
	l.Record(ip)
	return true
}

// Check reports whether ip is below the limit. It does not record anything.
func (l *LoginLimiter) Check(ip string) bool {
	cutoff := l.now().Add(-l.window)
	l.mu.Lock()
	defer l.mu.Unlock()
	kept := l.recent(ip, cutoff)
	if len(kept) == 0 {
		delete(l.attempts, ip)
	}
	return len(kept) < l.max
}

// Record registers a failed login attempt for ip.
func (l *LoginLimiter) Record(ip string) {
	l.mu.Lock()
	l.attempts[ip] = append(l.attempts[ip], l.now())
	l.mu.Unlock()
}

// Close stops the cleanup goroutine. It is safe to call more than once.
func (l *LoginLimiter) Close() {
	l.once.Do(func() { close(l.done) })
}
