package lua

import "errors"

// Errors for Lua plugins.
var (
	// ErrStateClosed is returned when operating on a closed state.
	ErrStateClosed = errors.New("lua state is closed")

	// ErrExecutionTimeout is returned when a call outlives its deadline.
	ErrExecutionTimeout = errors.New("lua execution timeout")

	// ErrNoFunction is returned when a script lacks the called function.
	ErrNoFunction = errors.New("lua function not defined")

	// ErrBadResult is returned when render returns something other than a
	// string.
	ErrBadResult = errors.New("lua render must return a string")
)
