package plugin

import "errors"

// Plugin errors.
var (
	// ErrUnknownCard is returned when no card is registered under a name
	// and no fallback handler is set.
	ErrUnknownCard = errors.New("unknown card")

	// ErrUnknownAtom is returned when no atom is registered under a name
	// and no fallback handler is set.
	ErrUnknownAtom = errors.New("unknown atom")

	// ErrAlreadyRegistered is returned when a name is registered twice.
	ErrAlreadyRegistered = errors.New("plugin already registered")

	// ErrInvalidName is returned for an empty plugin name.
	ErrInvalidName = errors.New("invalid plugin name")

	// ErrNotSupported is returned by Env actions the host did not provide.
	ErrNotSupported = errors.New("action not supported")
)
