// Package cursor provides document positions and ranges.
//
// A Position addresses a point inside a leaf section of a post: a section
// and a rune offset in 0..section.Len(). Cards and images have length 1, so
// their only positions are before (0) and after (1).
//
// Range Model:
//
// A Range spans Head..Tail with Head never after Tail in document order.
// Direction records which end the user is moving:
//   - Forward: Tail is the focus, Head the anchor
//   - Backward: Head is the focus, Tail the anchor
//   - None: the range has not been extended yet
//
// Movement steps over grapheme clusters, so a combining sequence or an
// emoji with modifiers is crossed in one step. Atoms are single units.
// Crossing a section edge consumes one step and lands on the adjacent leaf
// section, descending into lists transparently.
//
// Basic usage:
//
//	pos := cursor.Head(section)
//	rng := cursor.Collapsed(pos).Extend(3) // select three graphemes
//	word := pos.MoveWord(cursor.Forward)
//
// Thread Safety:
//
// Position and Range are immutable value types, but they reference
// document nodes that are not safe for concurrent use.
package cursor
