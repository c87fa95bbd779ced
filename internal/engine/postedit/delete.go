package postedit

import (
	"github.com/dshills/quire/internal/engine/cursor"
	"github.com/dshills/quire/internal/engine/model"
)

// DeleteRange removes the content of r and returns the position where the
// content was. Sections wholly inside r are removed, the partial head and
// tail sections are cut and, when both are markerable, joined. A post left
// without sections gets one blank default section.
func (pe *PostEditor) DeleteRange(r cursor.Range) (cursor.Position, error) {
	if err := pe.checkRange(r); err != nil {
		return r.Head, err
	}
	if r.IsCollapsed() {
		return r.Head, nil
	}

	headSection, tailSection := r.Head.Section(), r.Tail.Section()
	var next cursor.Position
	if headSection == tailSection {
		next = pe.cutSection(headSection, r.Head, r.Tail)
	} else {
		middle := model.NextLeaf(headSection)
		headPos := pe.cutSection(headSection, r.Head, cursor.Tail(headSection))
		headSection = headPos.Section()
		next = headPos

		for middle != nil && middle != tailSection {
			s := middle
			middle = model.NextLeaf(middle)
			pe.removeSection(s)
		}

		tailPos := pe.cutSection(tailSection, cursor.Head(tailSection), r.Tail)
		tailSection = tailPos.Section()

		headM, headOK := headSection.(model.Markerable)
		tailM, tailOK := tailSection.(model.Markerable)
		switch {
		case tailSection.IsBlank():
			pe.removeSection(tailSection)
		case headOK && tailOK:
			headM.Join(tailM)
			pe.markDirty(headM)
			pe.removeSection(tailSection)
		case headSection.IsBlank():
			pe.removeSection(headSection)
			next = cursor.Head(tailSection)
		}
	}

	if pe.post.IsBlank() {
		blank := pe.builder.MarkupSection(model.DefaultSectionTag)
		pe.insertSectionBefore(pe.post, blank, nil)
		next = cursor.Head(blank)
	}
	return next, nil
}

// CutSection removes the content of section between head and tail, which
// are trimmed to section. A card or image is replaced by a blank section
// only when the cut spans it entirely. It returns the position where the
// cut content was.
func (pe *PostEditor) CutSection(section model.Section, head, tail cursor.Position) (cursor.Position, error) {
	if err := pe.checkSection(section); err != nil {
		return head, err
	}
	if !section.IsLeaf() {
		return head, ErrInvalidPosition
	}
	return pe.cutSection(section, head, tail), nil
}

func (pe *PostEditor) cutSection(section model.Section, head, tail cursor.Position) cursor.Position {
	r := cursor.NewRange(head, tail, cursor.None).TrimTo(section)
	if section.IsBlank() || r.IsCollapsed() {
		return r.Head
	}

	m, ok := section.(model.Markerable)
	if !ok {
		if r.Head.Offset() != 0 || r.Tail.Offset() != section.Len() {
			return r.Head
		}
		blank := pe.builder.MarkupSection(model.DefaultSectionTag)
		pe.replaceSection(section, blank)
		return cursor.Head(blank)
	}

	for _, marker := range pe.splitMarkers(r) {
		pe.removeMarker(marker)
	}
	pe.markDirty(m)
	return r.Head
}

// DeleteAtPosition deletes one unit next to pos in dir and returns the
// resulting position.
//
// Backward from the head of a list item turns the item into a markup
// section. At a section edge next to a card or image, a blank section is
// removed in favor of the card; otherwise the card itself is removed.
func (pe *PostEditor) DeleteAtPosition(pos cursor.Position, dir cursor.Direction, unit Unit) (cursor.Position, error) {
	if err := pe.checkPosition(pos); err != nil {
		return pos, err
	}
	if dir == cursor.Backward {
		return pe.deleteBackward(pos, unit)
	}
	return pe.deleteForward(pos, unit)
}

func (pe *PostEditor) deleteBackward(pos cursor.Position, unit Unit) (cursor.Position, error) {
	section := pos.Section()
	if pos.IsHead() {
		if item, ok := section.(*model.ListItem); ok {
			converted, err := pe.changeSectionFromListItem(item, model.DefaultSectionTag)
			if err != nil {
				return pos, err
			}
			return cursor.Head(converted), nil
		}
		prev := model.PrevLeaf(section)
		if prev == nil {
			return pos, nil
		}
		if !prev.IsMarkerable() && section.IsMarkerable() {
			if section.IsBlank() {
				pe.removeSection(section)
				return cursor.Tail(prev), nil
			}
			pe.removeSection(prev)
			return cursor.Head(section), nil
		}
	}

	from := pos.MoveLeft()
	if unit == UnitWord {
		from = pos.MoveWord(cursor.Backward)
	}
	return pe.DeleteRange(cursor.NewRange(from, pos, cursor.Backward))
}

func (pe *PostEditor) deleteForward(pos cursor.Position, unit Unit) (cursor.Position, error) {
	section := pos.Section()
	if pos.IsTail() {
		next := model.NextLeaf(section)
		if next == nil {
			return pos, nil
		}
		if !next.IsMarkerable() && section.IsMarkerable() {
			if section.IsBlank() {
				pe.removeSection(section)
				return cursor.Head(next), nil
			}
			pe.removeSection(next)
			return pos, nil
		}
	}

	to := pos.MoveRight()
	if unit == UnitWord {
		to = pos.MoveWord(cursor.Forward)
	}
	return pe.DeleteRange(cursor.NewRange(pos, to, cursor.Forward))
}
