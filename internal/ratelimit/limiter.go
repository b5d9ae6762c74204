// Package ratelimit throttles repeated attempts per key, such as logins per client IP or per email.
package ratelimit

import (
	"context"
	"errors"
)

// ErrUnavailable wraps failures of the backing counter store.
var ErrUnavailable = errors.New("rate limit backend unavailable")

// Limiter reports whether another attempt for key fits in the configured budget.
// Every call counts as an attempt.
type Limiter interface {
	Allow(ctx context.Context, key string) (bool, error)
}

// Noop allows everything. Used when throttling is disabled.
type Noop struct{}

// Allow always admits the attempt.
func (Noop) Allow(context.Context, string) (bool, error) { return true, nil }
