package eval

import "errors"

// ErrEntityDepthExceeded is returned when hierarchy traversal for an "in"
// test exceeds the configured depth limit.
var ErrEntityDepthExceeded = errors.New("entity graph depth limit exceeded")

// Limits configures resource limits for policy evaluation. Zero values
// indicate no limit.
type Limits struct {
	// MaxEntityGraphDepth limits how deep entity hierarchy traversal can go
	// when evaluating "in" operators. Default 0 means unlimited.
	MaxEntityGraphDepth int
}

// DefaultLimits returns conservative limits suitable for evaluating policies
// over untrusted entity data.
func DefaultLimits() Limits {
	return Limits{
		MaxEntityGraphDepth: 100,
	}
}

// NoLimits returns a Limits configuration with all limits disabled.
func NoLimits() Limits {
	return Limits{}
}
