package wiring

import "errors"

// ErrUsage reports malformed or disallowed use of the construction API.
var ErrUsage = errors.New("usage error")

// ErrWidth reports a value supplied with the wrong bit width.
var ErrWidth = errors.New("width mismatch")
