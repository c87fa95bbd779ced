package history

import "errors"

// Errors returned by history operations.
var (
	ErrNothingToUndo = errors.New("nothing to undo")
	ErrNothingToRedo = errors.New("nothing to redo")

	// ErrNoSerializer indicates a History built without a serializer.
	ErrNoSerializer = errors.New("history has no serializer")
)
