package rate

import "errors"

var (
	// ErrRateLimited is returned when a counter exceeds its budget.
	ErrRateLimited = errors.New("rate limited")
	// ErrRedisUnavailable wraps transport failures against the counter store.
	ErrRedisUnavailable = errors.New("redis unavailable")
)
