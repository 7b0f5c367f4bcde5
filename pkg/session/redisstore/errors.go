package redisstore

import "errors"

// ErrStoreFailed wraps Redis command failures.
var ErrStoreFailed = errors.New("session.store_failed")
