package cursor

import (
	"fmt"

	"github.com/dshills/quire/internal/engine/model"
)

// Range is a span between two positions. Head is never after Tail.
// Direction tells which end is the focus.
// Range is an immutable value type.
type Range struct {
	Head      Position
	Tail      Position
	Direction Direction
}

// NewRange creates a range from head to tail. If head is after tail the
// ends are swapped and the direction is flipped.
func NewRange(head, tail Position, dir Direction) Range {
	if head.After(tail) {
		return Range{Head: tail, Tail: head, Direction: -dir}
	}
	return Range{Head: head, Tail: tail, Direction: dir}
}

// Collapsed creates a zero-width range at pos.
func Collapsed(pos Position) Range {
	return Range{Head: pos, Tail: pos}
}

// SectionRange covers the whole of a leaf section.
func SectionRange(section model.Section) Range {
	return Range{Head: Head(section), Tail: Tail(section)}
}

// BlankRange returns a range with blank ends.
func BlankRange() Range { return Range{} }

// IsBlank reports whether both ends are blank.
func (r Range) IsBlank() bool { return r.Head.IsBlank() && r.Tail.IsBlank() }

// IsCollapsed reports whether head and tail are the same point.
func (r Range) IsCollapsed() bool { return r.Head.Equal(r.Tail) }

// Focus returns the end that moves when the range is extended.
func (r Range) Focus() Position {
	if r.Direction == Backward {
		return r.Head
	}
	return r.Tail
}

// Anchor returns the end that stays put when the range is extended.
func (r Range) Anchor() Position {
	if r.Direction == Backward {
		return r.Tail
	}
	return r.Head
}

// Extend moves the focus by units grapheme clusters. A range without a
// direction takes it from the sign of units. If the focus crosses the
// anchor the ends swap and the direction flips.
func (r Range) Extend(units int) Range {
	if units == 0 {
		return r
	}
	switch r.Direction {
	case Forward:
		return NewRange(r.Head, r.Tail.Move(units), Forward)
	case Backward:
		return NewRange(r.Head.Move(units), r.Tail, Backward)
	default:
		dir := Forward
		if units < 0 {
			dir = Backward
		}
		return Range{Head: r.Head, Tail: r.Tail, Direction: dir}.Extend(units)
	}
}

// Move collapses the range. A collapsed range moves its focus one unit in
// dir; otherwise the range collapses to the end in dir.
func (r Range) Move(dir Direction) Range {
	if r.IsCollapsed() {
		return Collapsed(r.Focus().Move(int(dir)))
	}
	if dir == Backward {
		return Collapsed(r.Head)
	}
	return Collapsed(r.Tail)
}

// TrimTo restricts the range to the part inside section.
func (r Range) TrimTo(section model.Section) Range {
	head, tail := 0, section.Len()
	if r.Head.section == section {
		head = min(r.Head.offset, tail)
	}
	if r.Tail.section == section {
		tail = min(r.Tail.offset, tail)
	}
	return NewRange(Position{section: section, offset: head}, Position{section: section, offset: tail}, r.Direction)
}

// ExpandByMarker grows the range over the run of adjacent inlines matching
// pred at each end. Both ends must be in the same markerable section;
// otherwise the range is returned unchanged.
func (r Range) ExpandByMarker(pred func(model.Inline) bool) Range {
	section, ok := r.Head.Markerable()
	if !ok || r.Head.section != r.Tail.section {
		return r
	}

	head := r.Head
	if m, inner := r.Head.Marker(); m != nil {
		if inner == m.Len() && m.Next() != nil {
			m = m.Next()
		}
		if pred(m) {
			for m.Prev() != nil && pred(m.Prev()) {
				m = m.Prev()
			}
			head = Position{section: section, offset: section.OffsetOfMarker(m)}
		}
	}

	tail := r.Tail
	if m, _ := r.Tail.Marker(); m != nil && pred(m) {
		for m.Next() != nil && pred(m.Next()) {
			m = m.Next()
		}
		tail = Position{section: section, offset: section.OffsetOfMarker(m) + m.Len()}
	}
	return NewRange(head, tail, r.Direction)
}

// WalkLeafSections calls fn for each leaf section from head to tail,
// inclusive, until fn returns false.
func (r Range) WalkLeafSections(fn func(model.Section) bool) {
	if r.Head.IsBlank() {
		return
	}
	for s := r.Head.section; s != nil; s = model.NextLeaf(s) {
		if !fn(s) || s == r.Tail.section {
			return
		}
	}
}

// Equal reports whether both ends and the direction match.
func (r Range) Equal(other Range) bool {
	return r.Head.Equal(other.Head) && r.Tail.Equal(other.Tail) && r.Direction == other.Direction
}

// String returns a string representation of the range.
func (r Range) String() string {
	if r.IsCollapsed() {
		return fmt.Sprintf("Range(%s)", r.Head)
	}
	return fmt.Sprintf("Range(%s..%s, %s)", r.Head, r.Tail, r.Direction)
}
