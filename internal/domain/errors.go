package domain

import "errors"

// Error taxonomy for the evaluation pipeline.
//
// ErrInvalidInput is fatal: the evaluation aborts with no partial
// result. Capability outages are not fatal: callers degrade to
// conservative defaults instead of propagating them. ErrInternal is
// surfaced to transports as a generic failure, never swallowed.
var (
	ErrInvalidInput          = errors.New("invalid input")
	ErrCapabilityUnavailable = errors.New("capability unavailable")
	ErrNotFound              = errors.New("record not found")
	ErrInternal              = errors.New("internal error")
)
