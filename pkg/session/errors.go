package session

import "errors"

var (
	// ErrSessionNotFound indicates the store holds no record for the id
	ErrSessionNotFound = errors.New("session.not_found")

	// ErrStaleHandle indicates a handle was used after its session rotated
	ErrStaleHandle = errors.New("session.stale_handle")

	// ErrTokenGeneration indicates identifier generation failed
	ErrTokenGeneration = errors.New("session.token_generation_failed")

	// ErrLoadFailed wraps store failures while resolving the request session
	ErrLoadFailed = errors.New("session.load_failed")

	// ErrInvalidRecord indicates a stored record could not be decoded
	ErrInvalidRecord = errors.New("session.invalid_record")
)
