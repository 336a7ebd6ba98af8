package auth

import (
	"sync"
	"time"
)

const (
	maxLoginAttempts = 5
	loginWindow      = 5 * time.Minute
	loginBlock       = 15 * time.Minute
	loginEntryMaxAge = 30 * time.Minute
)

// LoginRateLimiter implements rate limiting for login attempts
type LoginRateLimiter struct {
	attempts map[string]*loginAttempt
	mu       sync.Mutex
	now      func() time.Time
}

type loginAttempt struct {
	count     int
	firstTry  time.Time
	blockedAt *time.Time
}

// NewLoginRateLimiter creates a new rate limiter
func NewLoginRateLimiter() *LoginRateLimiter {
	return &LoginRateLimiter{
		attempts: make(map[string]*loginAttempt),
		now:      time.Now,
	}
}

// Allow checks if a login attempt is allowed and returns the remaining attempts,
// or how long the key stays blocked
func (rl *LoginRateLimiter) Allow(key string) (bool, int, time.Duration) {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	attempt, exists := rl.attempts[key]

	if !exists {
		rl.attempts[key] = &loginAttempt{count: 1, firstTry: now}
		return true, maxLoginAttempts - 1, 0
	}

	if attempt.blockedAt != nil {
		if elapsed := now.Sub(*attempt.blockedAt); elapsed < loginBlock {
			return false, 0, loginBlock - elapsed
		}
		// Block expired, reset
		attempt.count = 1
		attempt.firstTry = now
		attempt.blockedAt = nil
		return true, maxLoginAttempts - 1, 0
	}

	if now.Sub(attempt.firstTry) > loginWindow {
		attempt.count = 1
		attempt.firstTry = now
		return true, maxLoginAttempts - 1, 0
	}

	attempt.count++
	if attempt.count > maxLoginAttempts {
		attempt.blockedAt = &now
		return false, 0, loginBlock
	}

	return true, maxLoginAttempts - attempt.count, 0
}

// Reset resets the attempts for a key (on successful login)
func (rl *LoginRateLimiter) Reset(key string) {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	delete(rl.attempts, key)
}

// Sweep removes entries that are no longer blocking anything and returns how many went
func (rl *LoginRateLimiter) Sweep() int {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	removed := 0
	for key, attempt := range rl.attempts {
		if attempt.blockedAt != nil && now.Sub(*attempt.blockedAt) < loginBlock {
			continue
		}
		if now.Sub(attempt.firstTry) > loginEntryMaxAge {
			delete(rl.attempts, key)
			removed++
		}
	}
	return removed
}
