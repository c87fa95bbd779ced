package postedit

import (
	"slices"

	"github.com/dshills/quire/internal/engine/cursor"
	"github.com/dshills/quire/internal/engine/model"
)

// SplitMarkers makes both ends of r fall on marker boundaries and returns
// every inline wholly inside r, in document order.
func (pe *PostEditor) SplitMarkers(r cursor.Range) ([]model.Inline, error) {
	if err := pe.checkRange(r); err != nil {
		return nil, err
	}
	return pe.splitMarkers(r), nil
}

func (pe *PostEditor) splitMarkers(r cursor.Range) []model.Inline {
	if m, ok := r.Head.Markerable(); ok {
		// Offsets come from a checked range, so the split cannot fail.
		_ = pe.splitSectionMarkerAtOffset(m, r.Head.Offset())
	}
	if m, ok := r.Tail.Markerable(); ok {
		_ = pe.splitSectionMarkerAtOffset(m, r.Tail.Offset())
	}
	return markersContainedBy(r)
}

// markersContainedBy returns every inline wholly inside r.
func markersContainedBy(r cursor.Range) []model.Inline {
	var out []model.Inline
	r.WalkLeafSections(func(s model.Section) bool {
		m, ok := s.(model.Markerable)
		if !ok {
			return true
		}
		t := r.TrimTo(s)
		m.MarkersInRange(t.Head.Offset(), t.Tail.Offset(), func(in model.Inline, mr model.MarkerRange) {
			if mr.Contained {
				out = append(out, in)
			}
		})
		return true
	})
	return out
}

// AddMarkupToRange applies markup to every inline in r. The markup is
// inserted at the same stack index in every inline: after the markups
// that are open across the whole range.
func (pe *PostEditor) AddMarkupToRange(r cursor.Range, markup *model.Markup) error {
	if err := pe.checkRange(r); err != nil {
		return err
	}
	if r.IsCollapsed() {
		return nil
	}
	markers := pe.splitMarkers(r)
	if len(markers) == 0 {
		return nil
	}
	common := markers[0].Markups()
	for _, m := range markers[1:] {
		common = model.CommonPrefix(common, m.Markups())
	}
	index := len(common)
	for _, m := range markers {
		m.AddMarkupAt(markup, index)
		pe.markDirty(m)
	}
	return nil
}

// RemoveMarkupFromRange removes every markup matching match from the
// inlines in r.
func (pe *PostEditor) RemoveMarkupFromRange(r cursor.Range, match func(*model.Markup) bool) error {
	if err := pe.checkRange(r); err != nil {
		return err
	}
	if r.IsCollapsed() {
		return nil
	}
	for _, m := range pe.splitMarkers(r) {
		removed := false
		for _, markup := range m.Markups() {
			if match(markup) && m.RemoveMarkup(markup) {
				removed = true
			}
		}
		if removed {
			pe.markDirty(m)
		}
	}
	return nil
}

// ToggleMarkup removes markup's tag from r when every inline in r already
// carries it, and adds markup otherwise. A collapsed range is left alone.
// The range is set to r.
func (pe *PostEditor) ToggleMarkup(r cursor.Range, markup *model.Markup) error {
	if err := pe.checkRange(r); err != nil {
		return err
	}
	if r.IsCollapsed() {
		return nil
	}
	tag := markup.Tag()
	hasTag := func(m *model.Markup) bool { return m.HasTag(tag) }

	var err error
	if EveryInlineHas(r, tag) {
		err = pe.RemoveMarkupFromRange(r, hasTag)
	} else {
		err = pe.AddMarkupToRange(r, markup)
	}
	if err != nil {
		return err
	}
	pe.SetRange(r)
	return nil
}

// EveryInlineHas reports whether r covers at least one inline and every
// covered inline carries a markup with tag.
func EveryInlineHas(r cursor.Range, tag model.MarkupTag) bool {
	found := false
	every := true
	walkInlines(r, func(m model.Inline) {
		found = true
		if m.MarkupWithTag(tag) == nil {
			every = false
		}
	})
	return found && every
}

// MarkupsInRange returns the markups carried by every inline overlapping
// r, in the stack order of the first inline. A collapsed range reports the
// markups of the inline that text typed at the position would inherit.
func MarkupsInRange(r cursor.Range) []*model.Markup {
	if r.IsBlank() {
		return nil
	}
	if r.IsCollapsed() {
		if m, _ := r.Head.Marker(); m != nil {
			return m.Markups()
		}
		return nil
	}
	var out []*model.Markup
	first := true
	walkInlines(r, func(m model.Inline) {
		if first {
			out = m.Markups()
			first = false
			return
		}
		out = slices.DeleteFunc(out, func(mk *model.Markup) bool { return !m.HasMarkup(mk) })
	})
	return out
}

// walkInlines calls fn for every inline overlapping r with non-zero width.
func walkInlines(r cursor.Range, fn func(model.Inline)) {
	r.WalkLeafSections(func(s model.Section) bool {
		m, ok := s.(model.Markerable)
		if !ok {
			return true
		}
		t := r.TrimTo(s)
		m.MarkersInRange(t.Head.Offset(), t.Tail.Offset(), func(in model.Inline, mr model.MarkerRange) {
			if mr.Tail > mr.Head {
				fn(in)
			}
		})
		return true
	})
}
