package session

import (
	"math"
	"math/rand"
	"time"
)

// NextBackoffDelay returns the wait before retry attempt N (1-based).
// Jitter scales the delay by a factor in [0.5, 1.5).
func NextBackoffDelay(cfg BackoffConfig, attempt int, rng *rand.Rand) time.Duration {
	if cfg.InitialDelay <= 0 {
		return 0
	}
	if attempt <= 1 {
		return cfg.InitialDelay
	}
	mult := math.Max(cfg.Multiplier, 1.0)
	delay := float64(cfg.InitialDelay) * math.Pow(mult, float64(attempt-1))
	if cfg.MaxDelay > 0 {
		delay = math.Min(delay, float64(cfg.MaxDelay))
	}
	if !cfg.Jitter {
		return time.Duration(delay)
	}
	f := 0.5
	if rng != nil {
		f += rng.Float64()
	}
	return time.Duration(delay * f)
}
