package model

import "errors"

// Errors returned by document tree operations.
var (
	// ErrAtomicSplit indicates an attempt to split an atomic unit (atom, card
	// or image) at an interior offset.
	ErrAtomicSplit = errors.New("cannot split atomic unit at interior offset")

	// ErrCannotJoin indicates two nodes of incompatible kinds were joined.
	ErrCannotJoin = errors.New("nodes cannot be joined")

	// ErrInvalidTag indicates a tag name outside the whitelist for its kind.
	ErrInvalidTag = errors.New("invalid tag name")

	// ErrInvalidAttribute indicates an attribute name or value that is not allowed.
	ErrInvalidAttribute = errors.New("invalid attribute")

	// ErrOffsetOutOfRange indicates an offset outside 0..length.
	ErrOffsetOutOfRange = errors.New("offset out of range")
)
