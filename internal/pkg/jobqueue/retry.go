package jobqueue

import (
	"errors"
	"time"
)

// RetryPolicy spaces out delivery attempts while a mail provider is unavailable
type RetryPolicy struct {
	MaxAttempts int
	BaseDelay   time.Duration
	MaxDelay    time.Duration
}

// DefaultRetryPolicy gives a provider outage about eight minutes before a certificate email is dropped
var DefaultRetryPolicy = RetryPolicy{
	MaxAttempts: 5,
	BaseDelay:   30 * time.Second,
	MaxDelay:    15 * time.Minute,
}

// Backoff is the wait after the given failed attempt (1-based): base, 2*base, 4*base ... capped at MaxDelay
func (p RetryPolicy) Backoff(attempt int) time.Duration {
	if attempt < 1 {
		attempt = 1
	}
	d := p.BaseDelay
	for i := 1; i < attempt; i++ {
		d *= 2
		if p.MaxDelay > 0 && d >= p.MaxDelay {
			return p.MaxDelay
		}
	}
	if p.MaxDelay > 0 && d > p.MaxDelay {
		return p.MaxDelay
	}
	return d
}

type permanentError struct{ err error }

func (e *permanentError) Error() string { return e.err.Error() }
func (e *permanentError) Unwrap() error { return e.err }

// Permanent marks err as not worth retrying, e.g. a payload that cannot be decoded
func Permanent(err error) error {
	if err == nil {
		return nil
	}
	return &permanentError{err: err}
}

// IsPermanent reports whether err or anything it wraps was marked Permanent
func IsPermanent(err error) bool {
	var p *permanentError
	return errors.As(err, &p)
}
