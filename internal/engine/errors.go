package engine

import (
	"errors"

	"github.com/dshills/quire/internal/engine/history"
)

// Errors returned by engine operations.
var (
	// ErrInvalidOption indicates an option value outside its allowed range.
	ErrInvalidOption = errors.New("invalid option")

	// ErrConflictingContent indicates both WithPost and WithMobiledoc were given.
	ErrConflictingContent = errors.New("conflicting initial content")

	// ErrRangeNotInPost indicates a range whose sections are not in the
	// engine's post.
	ErrRangeNotInPost = errors.New("range is not in the post")

	// ErrNoView indicates Render was called without a view.
	ErrNoView = errors.New("engine has no view")

	// ErrCardRemoved indicates a plugin action on a card that is no
	// longer in the post.
	ErrCardRemoved = errors.New("card is no longer in the post")

	// ErrAtomRemoved indicates a plugin action on an atom that is no
	// longer in the post.
	ErrAtomRemoved = errors.New("atom is no longer in the post")

	// ErrNothingToUndo indicates the undo stack is empty or undo is disabled.
	ErrNothingToUndo = history.ErrNothingToUndo

	// ErrNothingToRedo indicates the redo stack is empty or undo is disabled.
	ErrNothingToRedo = history.ErrNothingToRedo
)
