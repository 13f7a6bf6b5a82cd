package tracking

import "errors"

var (
	// ErrMalformedInput marks a request body that is not valid JSON.
	ErrMalformedInput = errors.New("malformed input")

	// ErrNotFound is returned when a token resolves to no project. It is
	// also returned for origin mismatches so callers cannot tell the two
	// apart.
	ErrNotFound = errors.New("project not found")

	// ErrOriginNotPermitted marks an origin rejected by the allowlist or
	// by a project's allowed origins.
	ErrOriginNotPermitted = errors.New("origin not permitted")

	// ErrUpstream wraps failures of the configuration store or event log.
	ErrUpstream = errors.New("upstream failure")
)
