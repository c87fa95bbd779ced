package postedit

import "errors"

// Errors returned by PostEditor operations.
var (
	// ErrAlreadyCompleted indicates a call on an editor that was completed or aborted.
	ErrAlreadyCompleted = errors.New("post editor already completed")

	// ErrNotMarkerable indicates a position or section that cannot hold markers.
	ErrNotMarkerable = errors.New("section is not markerable")

	// ErrInvalidPosition indicates a blank, detached or out-of-bounds position,
	// or one that belongs to a different post.
	ErrInvalidPosition = errors.New("invalid position")

	// ErrNotInPost indicates a section that is not attached to the edited post.
	ErrNotInPost = errors.New("section is not in the post")

	// ErrInvalidSection indicates a section kind that cannot go where it was put,
	// such as a list item at the top level.
	ErrInvalidSection = errors.New("invalid section for this container")
)
