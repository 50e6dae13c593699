package entities

import (
	"errors"
	"fmt"
	"time"
)

// RateLimitError marks a send rejected by the delivery platform's flood
// control. The cycle runner abandons the whole session for the rest of the
// cycle when it sees one.
type RateLimitError struct {
	RetryAfter time.Duration
	Err        error
}

func (e *RateLimitError) Error() string {
	if e.RetryAfter > 0 {
		return fmt.Sprintf("rate limited, retry after %s", e.RetryAfter)
	}
	return "rate limited"
}

func (e *RateLimitError) Unwrap() error { return e.Err }

// IsRateLimit reports whether err is a rate-limit-class delivery error.
func IsRateLimit(err error) bool {
	var rl *RateLimitError
	return errors.As(err, &rl)
}
