package postedit

import (
	"fmt"

	"github.com/dshills/quire/internal/engine/cursor"
	"github.com/dshills/quire/internal/engine/model"
)

// InsertMarkers inserts detached inlines at pos and returns the position at
// the end of the inserted run. The range is collapsed there.
func (pe *PostEditor) InsertMarkers(pos cursor.Position, markers ...model.Inline) (cursor.Position, error) {
	if err := pe.checkPosition(pos); err != nil {
		return pos, err
	}
	section, ok := pos.Markerable()
	if !ok {
		return pos, fmt.Errorf("insert markers into %s: %w", describe(pos.Section()), ErrNotMarkerable)
	}
	for _, m := range markers {
		if m == nil || m.Section() != nil {
			return pos, fmt.Errorf("insert markers: marker must be detached: %w", ErrInvalidSection)
		}
	}

	if err := pe.splitSectionMarkerAtOffset(section, pos.Offset()); err != nil {
		return pos, err
	}
	ref := section.InsertionPoint(pos.Offset())
	offset := pos.Offset()
	for _, m := range markers {
		section.Markers().InsertBefore(m, ref)
		offset += m.Len()
	}
	pe.markDirty(section)

	end := cursor.At(section, offset)
	pe.SetRange(cursor.Collapsed(end))
	return end, nil
}

// InsertText inserts text at pos with the markups of the marker at pos.
// Non-markerable positions return ErrNotMarkerable.
func (pe *PostEditor) InsertText(pos cursor.Position, text string) (cursor.Position, error) {
	if err := pe.checkPosition(pos); err != nil {
		return pos, err
	}
	var markups []*model.Markup
	if m, _ := pos.Marker(); m != nil {
		markups = m.Markups()
	}
	return pe.InsertTextWithMarkups(pos, text, markups...)
}

// InsertTextWithMarkups inserts text at pos with exactly markups.
func (pe *PostEditor) InsertTextWithMarkups(pos cursor.Position, text string, markups ...*model.Markup) (cursor.Position, error) {
	if err := pe.checkPosition(pos); err != nil {
		return pos, err
	}
	if !pos.IsMarkerable() {
		return pos, fmt.Errorf("insert text into %s: %w", describe(pos.Section()), ErrNotMarkerable)
	}
	if text == "" {
		return pos, nil
	}
	return pe.InsertMarkers(pos, pe.builder.Marker(text, markups...))
}

// InsertAtom inserts a new atom at pos, carrying the markups of the marker
// at pos, and returns the position after it.
func (pe *PostEditor) InsertAtom(pos cursor.Position, name, value string, payload map[string]any) (cursor.Position, error) {
	if err := pe.checkPosition(pos); err != nil {
		return pos, err
	}
	var markups []*model.Markup
	if m, _ := pos.Marker(); m != nil {
		markups = m.Markups()
	}
	return pe.InsertMarkers(pos, pe.builder.Atom(name, value, payload, markups...))
}

// splitSectionMarkerAtOffset splits the marker at offset and records the
// render side effects.
func (pe *PostEditor) splitSectionMarkerAtOffset(section model.Markerable, offset int) error {
	edit, err := section.SplitMarkerAtOffset(offset)
	if err != nil {
		return fmt.Errorf("split %s markers: %w", describe(section), err)
	}
	for _, m := range edit.Removed {
		pe.scheduleForRemoval(m)
	}
	if len(edit.Added) > 0 || len(edit.Removed) > 0 {
		pe.markDirty(section)
	}
	return nil
}
