package model

import (
	"fmt"
	"strings"

	"github.com/dshills/quire/internal/engine/linked"
)

// Markerable is a leaf section that owns a run of markers and atoms:
// *MarkupSection or *ListItem.
type Markerable interface {
	Section
	TagName() string
	Markers() *linked.List[Inline]
	Text() string

	// MarkerPositionAtOffset converts a section offset into the marker that
	// contains it and the offset inside that marker. At a boundary the
	// marker ending there is returned, except at offset 0.
	MarkerPositionAtOffset(offset int) (Inline, int)
	// SplitMarkerAtOffset makes offset fall on a marker boundary, splitting
	// the straddling marker in place. A section without markers gets a
	// blank marker so there is always an insertion anchor.
	SplitMarkerAtOffset(offset int) (MarkerEdit, error)
	// MarkersInRange reports every inline overlapping [head,tail).
	MarkersInRange(head, tail int, fn func(m Inline, r MarkerRange))
	OffsetOfMarker(m Inline) int
	// MarkersFor returns detached copies of the content in [head,tail).
	MarkersFor(head, tail int) []Inline
	// InsertionPoint returns the inline that content inserted at offset
	// must go before, or nil to append. Offset must be a marker boundary.
	InsertionPoint(offset int) Inline
	// Join appends clones of other's non-blank inlines and returns the
	// last pre-existing inline and the first appended one.
	Join(other Markerable) (before, after Inline)
	SplitAtOffset(offset int) (Markerable, Markerable, error)

	container() *markerContainer
}

// MarkerEdit reports the inlines added and removed by a marker split.
type MarkerEdit struct {
	Added   []Inline
	Removed []Inline
}

// MarkerRange describes how an inline overlaps a section range.
type MarkerRange struct {
	// Head and Tail are offsets inside the inline.
	Head int
	Tail int
	// Contained is true when the whole inline is inside the range.
	Contained bool
}

type markerContainer struct {
	owner   Markerable
	markers *linked.List[Inline]
}

func newMarkerContainer(owner Markerable) markerContainer {
	return markerContainer{
		owner: owner,
		markers: linked.New(
			linked.WithAdopt(func(m Inline) { m.setSection(owner) }),
			linked.WithFree(func(m Inline) { m.setSection(nil) }),
		),
	}
}

func (c *markerContainer) container() *markerContainer { return c }

// Markers returns the owned inline list.
func (c *markerContainer) Markers() *linked.List[Inline] { return c.markers }

// Text concatenates marker values; atoms contribute ObjectReplacement.
func (c *markerContainer) Text() string {
	var sb strings.Builder
	for m := range c.markers.All() {
		sb.WriteString(m.Text())
	}
	return sb.String()
}

// Len sums the inline lengths.
func (c *markerContainer) Len() int {
	n := 0
	for m := range c.markers.All() {
		n += m.Len()
	}
	return n
}

// IsBlank reports whether every inline is blank (or there are none).
func (c *markerContainer) IsBlank() bool {
	return c.markers.Every(func(m Inline) bool { return m.IsBlank() })
}

func (c *markerContainer) MarkerPositionAtOffset(offset int) (Inline, int) {
	remaining := offset
	var found Inline
	cur := 0
	c.markers.Detect(func(m Inline) bool {
		cur = min(remaining, m.Len())
		remaining -= cur
		if remaining == 0 {
			found = m
			return true
		}
		return false
	}, nil, false)
	return found, cur
}

func (c *markerContainer) SplitMarkerAtOffset(offset int) (MarkerEdit, error) {
	var edit MarkerEdit
	if offset < 0 || offset > c.Len() {
		return edit, fmt.Errorf("split %s at %d: %w", c.owner.Type(), offset, ErrOffsetOutOfRange)
	}
	if c.markers.IsEmpty() {
		blank := newMarker("", nil)
		c.markers.Append(blank)
		edit.Added = append(edit.Added, blank)
		return edit, nil
	}

	m, inner := c.MarkerPositionAtOffset(offset)
	if m == nil || inner == 0 || inner == m.Len() {
		return edit, nil
	}

	before, after, err := m.SplitAtOffset(inner)
	if err != nil {
		return edit, err
	}
	var replacement []Inline
	for _, part := range []Inline{before, after} {
		if !part.IsBlank() {
			replacement = append(replacement, part)
		}
	}
	c.markers.Splice(m, 1, replacement)
	edit.Removed = append(edit.Removed, m)
	edit.Added = append(edit.Added, replacement...)
	return edit, nil
}

func (c *markerContainer) MarkersInRange(head, tail int, fn func(m Inline, r MarkerRange)) {
	type hit struct {
		m Inline
		r MarkerRange
	}
	var hits []hit
	curHead, curTail := 0, 0
	for m := range c.markers.All() {
		n := m.Len()
		curTail += n
		if curTail > head && curHead < tail {
			mh := max(head-curHead, 0)
			mt := n - max(curTail-tail, 0)
			hits = append(hits, hit{m, MarkerRange{Head: mh, Tail: mt, Contained: mh == 0 && mt == n}})
		}
		curHead += n
		if curHead > tail {
			break
		}
	}
	for _, h := range hits {
		fn(h.m, h.r)
	}
}

func (c *markerContainer) OffsetOfMarker(target Inline) int {
	offset := 0
	for m := range c.markers.All() {
		if m == target {
			return offset
		}
		offset += m.Len()
	}
	return offset
}

func (c *markerContainer) MarkersFor(head, tail int) []Inline {
	var out []Inline
	c.MarkersInRange(head, tail, func(m Inline, r MarkerRange) {
		switch v := m.(type) {
		case *Marker:
			if r.Contained {
				out = append(out, v.Clone())
			} else {
				out = append(out, v.Slice(r.Head, r.Tail))
			}
		default:
			out = append(out, m.Clone())
		}
	})
	return out
}

func (c *markerContainer) InsertionPoint(offset int) Inline {
	acc := 0
	for m := range c.markers.All() {
		if acc >= offset {
			return m
		}
		acc += m.Len()
	}
	return nil
}

func (c *markerContainer) Join(other Markerable) (before, after Inline) {
	before = c.markers.Tail()
	for m := range other.Markers().All() {
		if m.IsBlank() {
			continue
		}
		clone := m.Clone()
		c.markers.Append(clone)
		if after == nil {
			after = clone
		}
	}
	return before, after
}

// cloneMarkersInto appends clones of every non-blank inline to dst.
func (c *markerContainer) cloneMarkersInto(dst *markerContainer) {
	for m := range c.markers.All() {
		if !m.IsBlank() {
			dst.markers.Append(m.Clone())
		}
	}
}

// redistribute clones markers into before/after, splitting the marker that
// straddles offset.
func (c *markerContainer) redistribute(before, after *markerContainer, offset int) error {
	if offset < 0 || offset > c.Len() {
		return fmt.Errorf("split %s at %d: %w", c.owner.Type(), offset, ErrOffsetOutOfRange)
	}
	acc := 0
	for m := range c.markers.All() {
		n := m.Len()
		switch {
		case acc+n <= offset:
			before.markers.Append(m.Clone())
		case acc >= offset:
			after.markers.Append(m.Clone())
		default:
			pre, post, err := m.SplitAtOffset(offset - acc)
			if err != nil {
				return err
			}
			before.markers.Append(pre)
			after.markers.Append(post)
		}
		acc += n
	}
	return nil
}
