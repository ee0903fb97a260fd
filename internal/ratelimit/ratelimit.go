// Package ratelimit enforces a daily budget on summarizer calls so a noisy
// feed day cannot burn through the API quota.
package ratelimit

import (
	"sync"
	"time"

	"w3watch/internal/logger"
)

type Limiter struct {
	mu        sync.Mutex
	count     int
	max       int // 0 means unlimited
	resetTime time.Time
}

func NewLimiter(maxPerDay int) *Limiter {
	return &Limiter{
		max:       maxPerDay,
		resetTime: time.Now().Add(24 * time.Hour),
	}
}

// CanUse reports whether another call fits in today's budget.
func (rl *Limiter) CanUse() bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	rl.checkReset()

	if rl.max > 0 && rl.count >= rl.max {
		logger.Warn("AI request budget exhausted", "used", rl.count, "max", rl.max)
		return false
	}
	return true
}

// Use records one call against the budget.
func (rl *Limiter) Use() {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	rl.checkReset()
	rl.count++
}

func (rl *Limiter) checkReset() {
	if time.Now().After(rl.resetTime) {
		rl.count = 0
		rl.resetTime = time.Now().Add(24 * time.Hour)
		logger.Info("AI request budget reset")
	}
}

// Stats reports budget usage for the monitoring endpoints.
func (rl *Limiter) Stats() map[string]interface{} {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	return map[string]interface{}{
		"used":     rl.count,
		"max":      rl.max,
		"reset_at": rl.resetTime.Format(time.RFC3339),
	}
}
