package random

import (
	"math"
	"math/rand/v2"
	"time"
)

// Randomize applies ±percent randomization to value
// Example: Randomize(100, 1.0) returns value in range [99, 101]
func Randomize(value float64, percent float64) float64 {
	if percent <= 0 {
		return value
	}

	variance := value * (percent / 100.0)

	// offset in [-variance, +variance]
	offset := (rand.Float64()*2 - 1) * variance

	result := value + offset
	return math.Round(result*100) / 100
}

// Jitter applies ±percent randomization to d, never returning a negative duration
func Jitter(d time.Duration, percent float64) time.Duration {
	if d <= 0 || percent <= 0 {
		return d
	}
	if percent > 100 {
		percent = 100
	}

	variance := float64(d) * (percent / 100.0)
	offset := (rand.Float64()*2 - 1) * variance

	result := time.Duration(math.Round(float64(d) + offset))
	if result < 0 {
		return 0
	}
	return result
}

// Backoff returns the jittered linear backoff delay for a 1-based retry attempt
func Backoff(base time.Duration, attempt int, percent float64) time.Duration {
	if attempt < 1 {
		attempt = 1
	}
	return Jitter(base*time.Duration(attempt), percent)
}
