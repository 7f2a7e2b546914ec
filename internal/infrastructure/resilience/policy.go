package resilience

import "time"

// Config bounds the retry schedule and tunes when a breaker trips.
// Zero values fall back to the defaults during normalize.
type Config struct {
	RetryMaxAttempts    int
	RetryInitialBackoff time.Duration
	RetryMaxBackoff     time.Duration
	RetryMultiplier     float64

	BreakerEnabled          bool
	BreakerMinRequests      uint32
	BreakerFailureRatio     float64
	BreakerOpenTimeout      time.Duration
	BreakerHalfOpenMaxCalls uint32
}

func DefaultConfig() Config {
	return Config{
		RetryMaxAttempts:    3,
		RetryInitialBackoff: 200 * time.Millisecond,
		RetryMaxBackoff:     2 * time.Second,
		RetryMultiplier:     2.0,

		BreakerEnabled:          true,
		BreakerMinRequests:      8,
		BreakerFailureRatio:     0.5,
		BreakerOpenTimeout:      20 * time.Second,
		BreakerHalfOpenMaxCalls: 2,
	}
}

func (c Config) normalize() Config {
	def := DefaultConfig()

	if c.RetryMaxAttempts <= 0 {
		c.RetryMaxAttempts = def.RetryMaxAttempts
	}
	if c.RetryInitialBackoff <= 0 {
		c.RetryInitialBackoff = def.RetryInitialBackoff
	}
	if c.RetryMaxBackoff < c.RetryInitialBackoff {
		c.RetryMaxBackoff = c.RetryInitialBackoff
	}
	if c.RetryMultiplier < 1.0 {
		c.RetryMultiplier = def.RetryMultiplier
	}

	if c.BreakerMinRequests == 0 {
		c.BreakerMinRequests = def.BreakerMinRequests
	}
	if c.BreakerFailureRatio <= 0 || c.BreakerFailureRatio > 1 {
		c.BreakerFailureRatio = def.BreakerFailureRatio
	}
	if c.BreakerOpenTimeout <= 0 {
		c.BreakerOpenTimeout = def.BreakerOpenTimeout
	}
	if c.BreakerHalfOpenMaxCalls == 0 {
		c.BreakerHalfOpenMaxCalls = def.BreakerHalfOpenMaxCalls
	}

	return c
}
