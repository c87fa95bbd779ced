package model

import (
	"fmt"
	"maps"
	"slices"
	"unicode/utf8"

	"github.com/dshills/quire/internal/engine/linked"
)

// ObjectReplacement stands in for an atom in section text so that rune
// offsets in Markerable.Text line up with section offsets.
const ObjectReplacement = '\uFFFC'

// Inline is a member of a markerable section's marker list: a Marker or an Atom.
type Inline interface {
	Node
	Links() *linked.Links[Inline]

	// Section returns the owning section, or nil when detached.
	Section() Markerable
	Next() Inline
	Prev() Inline

	Len() int
	IsAtom() bool
	IsBlank() bool
	// Text returns the marker value, or ObjectReplacement for an atom.
	Text() string

	Markups() []*Markup
	HasMarkup(m *Markup) bool
	MarkupWithTag(t MarkupTag) *Markup
	AddMarkup(m *Markup)
	AddMarkupAt(m *Markup, index int)
	RemoveMarkup(m *Markup) bool
	// OpenedMarkups returns the markups that are not on the previous inline.
	OpenedMarkups() []*Markup
	// ClosedMarkups returns the markups that are not on the next inline.
	ClosedMarkups() []*Markup

	Clone() Inline
	CanJoin(other Inline) bool
	// SplitAtOffset splits the inline in two at offset. Either side may be blank.
	SplitAtOffset(offset int) (Inline, Inline, error)

	setSection(s Markerable)
}

type inlineBase struct {
	renderLink
	links   linked.Links[Inline]
	section Markerable
	markups []*Markup
}

func (b *inlineBase) Links() *linked.Links[Inline] { return &b.links }
func (b *inlineBase) Section() Markerable          { return b.section }
func (b *inlineBase) setSection(s Markerable)      { b.section = s }
func (b *inlineBase) Next() Inline                 { return b.links.Next() }
func (b *inlineBase) Prev() Inline                 { return b.links.Prev() }

// Markups returns the open markups in nesting order.
func (b *inlineBase) Markups() []*Markup { return slices.Clone(b.markups) }

func (b *inlineBase) HasMarkup(m *Markup) bool { return slices.Contains(b.markups, m) }

func (b *inlineBase) MarkupWithTag(t MarkupTag) *Markup {
	for _, m := range b.markups {
		if m.tag == t {
			return m
		}
	}
	return nil
}

func (b *inlineBase) AddMarkup(m *Markup) {
	if !b.HasMarkup(m) {
		b.markups = append(b.markups, m)
	}
}

func (b *inlineBase) AddMarkupAt(m *Markup, index int) {
	if b.HasMarkup(m) {
		return
	}
	index = max(0, min(index, len(b.markups)))
	b.markups = slices.Insert(b.markups, index, m)
}

func (b *inlineBase) RemoveMarkup(m *Markup) bool {
	i := slices.Index(b.markups, m)
	if i < 0 {
		return false
	}
	b.markups = slices.Delete(b.markups, i, i+1)
	return true
}

func (b *inlineBase) OpenedMarkups() []*Markup {
	return markupDifference(b.markups, b.links.Prev())
}

func (b *inlineBase) ClosedMarkups() []*Markup {
	return markupDifference(b.markups, b.links.Next())
}

func markupDifference(markups []*Markup, other Inline) []*Markup {
	if other == nil {
		return slices.Clone(markups)
	}
	var out []*Markup
	for _, m := range markups {
		if !other.HasMarkup(m) {
			out = append(out, m)
		}
	}
	return out
}

// ============================================================================
// Marker
// ============================================================================

// Marker is a run of text with a set of open markups.
type Marker struct {
	inlineBase
	value string
}

func newMarker(value string, markups []*Markup) *Marker {
	return &Marker{
		inlineBase: inlineBase{markups: dedupe(markups)},
		value:      value,
	}
}

func dedupe(markups []*Markup) []*Markup {
	out := make([]*Markup, 0, len(markups))
	for _, m := range markups {
		if m != nil && !slices.Contains(out, m) {
			out = append(out, m)
		}
	}
	return out
}

func (m *Marker) Type() NodeType { return TypeMarker }
func (m *Marker) IsAtom() bool   { return false }
func (m *Marker) Text() string   { return m.value }

// Value returns the marker text.
func (m *Marker) Value() string { return m.value }

// Len returns the length in runes.
func (m *Marker) Len() int { return utf8.RuneCountInString(m.value) }

// IsBlank reports whether the marker has no text.
func (m *Marker) IsBlank() bool { return m.value == "" }

// Clone returns a detached copy sharing the same markup pointers.
func (m *Marker) Clone() Inline { return m.CloneMarker() }

// CloneMarker is Clone with a concrete result type.
func (m *Marker) CloneMarker() *Marker { return newMarker(m.value, m.markups) }

// CanJoin reports whether other is a marker with the same markup set.
func (m *Marker) CanJoin(other Inline) bool {
	o, ok := other.(*Marker)
	return ok && SameMarkups(m.markups, o.markups)
}

// Join returns a new marker with other's text appended and m's markups.
func (m *Marker) Join(other *Marker) *Marker {
	return newMarker(m.value+other.value, m.markups)
}

// Split returns three detached markers covering [0,offset), [offset,end)
// and [end,len).
func (m *Marker) Split(offset, end int) (pre, mid, post *Marker, err error) {
	n := m.Len()
	if offset < 0 || end > n || offset > end {
		return nil, nil, nil, fmt.Errorf("split marker [%d,%d) of length %d: %w", offset, end, n, ErrOffsetOutOfRange)
	}
	runes := []rune(m.value)
	pre = newMarker(string(runes[:offset]), m.markups)
	mid = newMarker(string(runes[offset:end]), m.markups)
	post = newMarker(string(runes[end:]), m.markups)
	return pre, mid, post, nil
}

// SplitAtOffset returns two detached markers split at offset.
func (m *Marker) SplitAtOffset(offset int) (Inline, Inline, error) {
	pre, mid, _, err := m.Split(offset, m.Len())
	if err != nil {
		return nil, nil, err
	}
	return pre, mid, nil
}

// Slice returns a detached marker holding the runes in [from,to).
func (m *Marker) Slice(from, to int) *Marker {
	runes := []rune(m.value)
	from = max(0, min(from, len(runes)))
	to = max(from, min(to, len(runes)))
	return newMarker(string(runes[from:to]), m.markups)
}

// ============================================================================
// Atom
// ============================================================================

// Atom is an indivisible inline unit with length 1.
type Atom struct {
	inlineBase
	name    string
	value   string
	payload map[string]any
}

func (a *Atom) Type() NodeType { return TypeAtom }
func (a *Atom) IsAtom() bool   { return true }
func (a *Atom) IsBlank() bool  { return false }
func (a *Atom) Len() int       { return 1 }
func (a *Atom) Text() string   { return string(ObjectReplacement) }

// Name returns the atom plugin name.
func (a *Atom) Name() string { return a.name }

// Value returns the atom's display value.
func (a *Atom) Value() string { return a.value }

// Payload returns a copy of the atom payload.
func (a *Atom) Payload() map[string]any { return maps.Clone(a.payload) }

// SetPayload replaces the payload.
func (a *Atom) SetPayload(p map[string]any) { a.payload = maps.Clone(p) }

// Clone returns a detached copy.
func (a *Atom) Clone() Inline {
	return &Atom{
		inlineBase: inlineBase{markups: slices.Clone(a.markups)},
		name:       a.name,
		value:      a.value,
		payload:    maps.Clone(a.payload),
	}
}

// CanJoin is always false: atoms never coalesce.
func (a *Atom) CanJoin(Inline) bool { return false }

// SplitAtOffset splits off a blank marker before (offset 0) or after
// (offset 1) the atom. Any other offset is ErrAtomicSplit.
func (a *Atom) SplitAtOffset(offset int) (Inline, Inline, error) {
	switch offset {
	case 0:
		return newMarker("", a.markups), a.Clone(), nil
	case 1:
		return a.Clone(), newMarker("", a.markups), nil
	default:
		return nil, nil, fmt.Errorf("atom %q at offset %d: %w", a.name, offset, ErrAtomicSplit)
	}
}
