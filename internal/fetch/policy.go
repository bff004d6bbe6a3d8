package fetch

import (
	"time"

	"github.com/tigerroll/flightprep/internal/config"
	"github.com/tigerroll/flightprep/internal/exception"
)

// RetryPolicy defines the retry behaviour for transient download failures.
type RetryPolicy interface {
	// ShouldRetry determines if a given error is retryable.
	ShouldRetry(err error) bool
	// BackoffInterval returns the waiting time before the given attempt
	// (attempt numbering starts at 1 for the first retry).
	BackoffInterval(attempt int) time.Duration
	// MaxAttempts returns the fixed attempt budget (initial try included).
	MaxAttempts() int
}

// exponentialRetryPolicy doubles the interval between attempts (or multiplies
// by the configured factor) up to a cap.
type exponentialRetryPolicy struct {
	maxAttempts     int
	initialInterval time.Duration
	maxInterval     time.Duration
	factor          float64
}

// NewRetryPolicy builds an exponential-backoff policy from the retry
// configuration. Zero or negative settings fall back to safe values.
func NewRetryPolicy(cfg config.RetryConfig) RetryPolicy {
	p := &exponentialRetryPolicy{
		maxAttempts:     cfg.MaxAttempts,
		initialInterval: time.Duration(cfg.InitialInterval) * time.Millisecond,
		maxInterval:     time.Duration(cfg.MaxInterval) * time.Millisecond,
		factor:          cfg.Factor,
	}
	if p.maxAttempts < 1 {
		p.maxAttempts = 1
	}
	if p.initialInterval <= 0 {
		p.initialInterval = time.Second
	}
	if p.maxInterval <= 0 {
		p.maxInterval = 30 * time.Second
	}
	if p.factor < 1 {
		p.factor = 2.0
	}
	return p
}

func (p *exponentialRetryPolicy) MaxAttempts() int {
	return p.maxAttempts
}

func (p *exponentialRetryPolicy) ShouldRetry(err error) bool {
	return exception.IsTemporary(err)
}

func (p *exponentialRetryPolicy) BackoffInterval(attempt int) time.Duration {
	interval := p.initialInterval
	for i := 1; i < attempt; i++ {
		interval = time.Duration(float64(interval) * p.factor)
		if interval >= p.maxInterval {
			return p.maxInterval
		}
	}
	if interval > p.maxInterval {
		return p.maxInterval
	}
	return interval
}

var _ RetryPolicy = (*exponentialRetryPolicy)(nil)
