package cursor

import (
	"cmp"
	"fmt"

	"github.com/dshills/quire/internal/engine/model"
)

// Position is a point inside a leaf section.
// The zero value is the blank position, which addresses nothing.
// Position is an immutable value type.
type Position struct {
	section model.Section
	offset  int
}

// Blank returns the blank position.
func Blank() Position { return Position{} }

// At returns the position at offset in section. It panics if section is not
// a leaf or offset is outside 0..section.Len(); use Clamp for untrusted input.
func At(section model.Section, offset int) Position {
	if section == nil || !section.IsLeaf() {
		panic("cursor: position requires a leaf section")
	}
	if offset < 0 || offset > section.Len() {
		panic(fmt.Sprintf("cursor: offset %d outside 0..%d", offset, section.Len()))
	}
	return Position{section: section, offset: offset}
}

// Clamp returns the position in section nearest to offset. A list section
// resolves to its first item; an empty list or nil section is blank.
func Clamp(section model.Section, offset int) Position {
	section = leafOf(section, true)
	if section == nil {
		return Blank()
	}
	return Position{section: section, offset: max(0, min(offset, section.Len()))}
}

// Head returns the position at the start of section.
func Head(section model.Section) Position {
	section = leafOf(section, true)
	if section == nil {
		return Blank()
	}
	return Position{section: section}
}

// Tail returns the position at the end of section.
func Tail(section model.Section) Position {
	section = leafOf(section, false)
	if section == nil {
		return Blank()
	}
	return Position{section: section, offset: section.Len()}
}

// PostHead returns the first position in post, or blank for an empty post.
func PostHead(post *model.Post) Position { return Head(post.FirstLeaf()) }

// PostTail returns the last position in post, or blank for an empty post.
func PostTail(post *model.Post) Position { return Tail(post.LastLeaf()) }

func leafOf(section model.Section, first bool) model.Section {
	l, ok := section.(*model.ListSection)
	if !ok {
		return section
	}
	if first {
		return l.Items().Head()
	}
	return l.Items().Tail()
}

// Section returns the leaf section, or nil for the blank position.
func (p Position) Section() model.Section { return p.section }

// Offset returns the rune offset within the section.
func (p Position) Offset() int { return p.offset }

// IsBlank reports whether p is the blank position.
func (p Position) IsBlank() bool { return p.section == nil }

// Markerable returns the section as a markerable section, if it is one.
func (p Position) Markerable() (model.Markerable, bool) {
	m, ok := p.section.(model.Markerable)
	return m, ok
}

// IsMarkerable reports whether the section holds markers.
func (p Position) IsMarkerable() bool {
	_, ok := p.Markerable()
	return ok
}

// Marker returns the inline containing p and the offset inside it, using
// the same left bias as Markerable.MarkerPositionAtOffset. Non-markerable
// and empty sections return nil.
func (p Position) Marker() (model.Inline, int) {
	m, ok := p.Markerable()
	if !ok {
		return nil, 0
	}
	return m.MarkerPositionAtOffset(p.offset)
}

// Post returns the post that contains the position's section, or nil when
// the section is detached.
func (p Position) Post() *model.Post {
	if p.section == nil {
		return nil
	}
	parent := p.section.Parent()
	if l, ok := parent.(*model.ListSection); ok {
		parent = l.Parent()
	}
	post, _ := parent.(*model.Post)
	return post
}

// LeafIndex returns the document-order index of the section, or -1.
func (p Position) LeafIndex() int {
	post := p.Post()
	if post == nil {
		return -1
	}
	return post.LeafIndexOf(p.section)
}

// Valid reports whether p addresses an attached leaf section within bounds.
func (p Position) Valid() bool {
	return p.section != nil && p.Post() != nil &&
		p.offset >= 0 && p.offset <= p.section.Len()
}

// IsHead reports whether p is at the start of its section.
func (p Position) IsHead() bool { return p.section != nil && p.offset == 0 }

// IsTail reports whether p is at the end of its section.
func (p Position) IsTail() bool { return p.section != nil && p.offset == p.section.Len() }

// IsHeadOfPost reports whether p is the first position of the post.
func (p Position) IsHeadOfPost() bool {
	return p.IsHead() && model.PrevLeaf(p.section) == nil
}

// IsTailOfPost reports whether p is the last position of the post.
func (p Position) IsTailOfPost() bool {
	return p.IsTail() && model.NextLeaf(p.section) == nil
}

// Equal reports whether p and other address the same point.
func (p Position) Equal(other Position) bool {
	return p.section == other.section && p.offset == other.offset
}

// Compare orders positions in document order: -1 if p is before other,
// 1 if after, 0 if equal. Blank positions sort first.
func (p Position) Compare(other Position) int {
	if p.section == other.section {
		return cmp.Compare(p.offset, other.offset)
	}
	if p.IsBlank() || other.IsBlank() {
		return cmp.Compare(btoi(!p.IsBlank()), btoi(!other.IsBlank()))
	}
	return cmp.Compare(p.LeafIndex(), other.LeafIndex())
}

// Before reports whether p is before other.
func (p Position) Before(other Position) bool { return p.Compare(other) < 0 }

// After reports whether p is after other.
func (p Position) After(other Position) bool { return p.Compare(other) > 0 }

// String returns a string representation of the position.
func (p Position) String() string {
	if p.IsBlank() {
		return "Position(blank)"
	}
	return fmt.Sprintf("Position(%s#%d, %d)", p.section.Type(), p.LeafIndex(), p.offset)
}

func btoi(b bool) int {
	if b {
		return 1
	}
	return 0
}
