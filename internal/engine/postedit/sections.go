package postedit

import (
	"fmt"

	"github.com/dshills/quire/internal/engine/cursor"
	"github.com/dshills/quire/internal/engine/model"
)

// ============================================================================
// Insertion and removal
// ============================================================================

// InsertSectionBefore inserts section into parent before the section
// before, or at the end when before is nil. Parent is the post or a list
// section of the post; lists only take list items and the post never does.
func (pe *PostEditor) InsertSectionBefore(parent model.Container, section, before model.Section) error {
	if err := pe.checkActive(); err != nil {
		return err
	}
	if section == nil || section.Parent() != nil {
		return fmt.Errorf("insert %s: section must be detached: %w", describe(section), ErrInvalidSection)
	}
	if err := pe.checkContainer(parent); err != nil {
		return err
	}
	_, isItem := section.(*model.ListItem)
	_, inList := parent.(*model.ListSection)
	if isItem != inList {
		return fmt.Errorf("insert %s into %s: %w", describe(section), parent.Type(), ErrInvalidSection)
	}
	if before != nil && before.Parent() != parent {
		return fmt.Errorf("insert before %s: %w", describe(before), ErrNotInPost)
	}
	pe.insertSectionBefore(parent, section, before)
	return nil
}

func (pe *PostEditor) checkContainer(parent model.Container) error {
	switch c := parent.(type) {
	case *model.Post:
		if c != pe.post {
			return fmt.Errorf("insert into another post: %w", ErrNotInPost)
		}
	case *model.ListSection:
		if postOf(c) != pe.post {
			return fmt.Errorf("insert into detached list: %w", ErrNotInPost)
		}
	default:
		return fmt.Errorf("insert into %T: %w", parent, ErrInvalidSection)
	}
	return nil
}

func (pe *PostEditor) insertSectionBefore(parent model.Container, section, before model.Section) {
	parent.Children().InsertBefore(section, before)
	pe.markDirty(parent)
	pe.markDirty(section)
}

// InsertSectionAtEnd appends a top-level section to the post.
func (pe *PostEditor) InsertSectionAtEnd(section model.Section) error {
	return pe.InsertSectionBefore(pe.post, section, nil)
}

// InsertSection inserts a top-level section at pos. A blank section at pos
// is replaced; otherwise the section goes before or after the section at
// pos, splitting it (or its list) when pos is in the middle. The range is
// set to the tail of the inserted section.
func (pe *PostEditor) InsertSection(pos cursor.Position, section model.Section) error {
	if err := pe.checkActive(); err != nil {
		return err
	}
	if section == nil || section.Parent() != nil {
		return fmt.Errorf("insert %s: section must be detached: %w", describe(section), ErrInvalidSection)
	}
	if _, ok := section.(*model.ListItem); ok {
		return fmt.Errorf("insert list item at top level: %w", ErrInvalidSection)
	}
	defer func() {
		if section.Parent() != nil {
			pe.SetRange(cursor.Collapsed(cursor.Tail(section)))
		}
	}()

	if pos.IsBlank() && pe.post.IsBlank() {
		pe.insertSectionBefore(pe.post, section, nil)
		return nil
	}
	if err := pe.checkPosition(pos); err != nil {
		return err
	}

	leaf := pos.Section()
	if item, ok := leaf.(*model.ListItem); ok {
		return pe.insertSectionInList(item, pos, section)
	}
	switch {
	case leaf.IsBlank():
		pe.replaceSection(leaf, section)
	case pos.IsHead():
		pe.insertSectionBefore(pe.post, section, leaf)
	case pos.IsTail():
		pe.insertSectionBefore(pe.post, section, leaf.Next())
	default:
		_, after, err := pe.SplitSection(pos)
		if err != nil {
			return err
		}
		pe.insertSectionBefore(pe.post, section, after)
	}
	return nil
}

func (pe *PostEditor) insertSectionInList(item *model.ListItem, pos cursor.Position, section model.Section) error {
	list := item.List()
	switch {
	case pos.IsHead() && item.Prev() == nil:
		pe.insertSectionBefore(pe.post, section, list)
		return nil
	case pos.IsTail() && item.Next() == nil:
		pe.insertSectionBefore(pe.post, section, list.Next())
		return nil
	}

	target := item
	if !pos.IsHead() {
		if pos.IsTail() {
			target = item.Next().(*model.ListItem)
		} else {
			_, after, err := pe.SplitSection(pos)
			if err != nil {
				return err
			}
			target = after.(*model.ListItem)
		}
	}
	_, mid, _ := pe.splitListAtItem(target.List(), target)
	pe.insertSectionBefore(pe.post, section, mid)
	return nil
}

// RemoveSection detaches section from its parent and schedules its render
// node for removal. Lists left empty are pruned at completion.
func (pe *PostEditor) RemoveSection(section model.Section) error {
	if err := pe.checkSection(section); err != nil {
		return err
	}
	pe.removeSection(section)
	return nil
}

func (pe *PostEditor) removeSection(section model.Section) {
	parent := section.Parent()
	pe.scheduleForRemoval(section)
	parent.Children().Remove(section)
	pe.markDirty(parent)
}

// RemoveAllSections removes every top-level section.
func (pe *PostEditor) RemoveAllSections() error {
	if err := pe.checkActive(); err != nil {
		return err
	}
	for s := range pe.post.Sections().All() {
		pe.removeSection(s)
	}
	return nil
}

// MigrateSectionsFromPost moves every top-level section of other to the
// end of the edited post. Other must come from the same builder.
func (pe *PostEditor) MigrateSectionsFromPost(other *model.Post) error {
	if err := pe.checkActive(); err != nil {
		return err
	}
	if other == pe.post {
		return fmt.Errorf("migrate post into itself: %w", ErrInvalidSection)
	}
	for s := range other.Sections().All() {
		other.Sections().Remove(s)
		pe.insertSectionBefore(pe.post, s, nil)
	}
	return nil
}

// ReplaceSection puts replacement where section was. A list item replaced
// by a non-item splits its list around it.
func (pe *PostEditor) ReplaceSection(section, replacement model.Section) error {
	if err := pe.checkActive(); err != nil {
		return err
	}
	if replacement == nil || replacement.Parent() != nil {
		return fmt.Errorf("replace with %s: section must be detached: %w", describe(replacement), ErrInvalidSection)
	}
	if section == nil {
		return pe.InsertSectionAtEnd(replacement)
	}
	if err := pe.checkSection(section); err != nil {
		return err
	}
	_, newIsItem := replacement.(*model.ListItem)
	_, oldIsItem := section.(*model.ListItem)
	if newIsItem && !oldIsItem {
		return fmt.Errorf("replace %s with list item: %w", describe(section), ErrInvalidSection)
	}
	pe.replaceSection(section, replacement)
	return nil
}

func (pe *PostEditor) replaceSection(section, replacement model.Section) {
	if item, ok := section.(*model.ListItem); ok {
		if _, same := replacement.(*model.ListItem); !same {
			_, mid, _ := pe.splitListAtItem(item.List(), item)
			section = mid
		}
	}
	pe.replaceWith(section, replacement)
}

// replaceWith inserts sections where section was and removes it.
func (pe *PostEditor) replaceWith(section model.Section, sections ...model.Section) {
	parent := section.Parent()
	next := section.Next()
	for _, s := range sections {
		pe.insertSectionBefore(parent, s, next)
	}
	pe.removeSection(section)
}

// RemoveMarker detaches an inline from its section.
func (pe *PostEditor) RemoveMarker(m model.Inline) error {
	if err := pe.checkActive(); err != nil {
		return err
	}
	if m == nil || m.Section() == nil || postOf(m.Section()) != pe.post {
		return fmt.Errorf("remove detached marker: %w", ErrNotInPost)
	}
	pe.removeMarker(m)
	return nil
}

func (pe *PostEditor) removeMarker(m model.Inline) {
	section := m.Section()
	pe.scheduleForRemoval(m)
	section.Markers().Remove(m)
	pe.markDirty(section)
}

// ============================================================================
// Moving
// ============================================================================

// MoveSectionUp swaps section with its previous sibling and returns the
// moved copy. A first section is returned unchanged.
func (pe *PostEditor) MoveSectionUp(section model.Section) (model.Section, error) {
	if err := pe.checkSection(section); err != nil {
		return nil, err
	}
	prev := section.Prev()
	if prev == nil {
		return section, nil
	}
	return pe.moveSectionBefore(section, prev), nil
}

// MoveSectionDown swaps section with its next sibling and returns the moved
// copy. A last section is returned unchanged.
func (pe *PostEditor) MoveSectionDown(section model.Section) (model.Section, error) {
	if err := pe.checkSection(section); err != nil {
		return nil, err
	}
	next := section.Next()
	if next == nil {
		return section, nil
	}
	return pe.moveSectionBefore(section, next.Next()), nil
}

// moveSectionBefore re-inserts a clone of section before before in the
// same parent. The range follows the moved section.
func (pe *PostEditor) moveSectionBefore(section, before model.Section) model.Section {
	parent := section.Parent()
	moved := section.Clone()
	head, headMoved := follow(pe.rng.Head, section, moved)
	tail, tailMoved := follow(pe.rng.Tail, section, moved)
	pe.removeSection(section)
	pe.insertSectionBefore(parent, moved, before)
	if headMoved || tailMoved {
		pe.SetRange(cursor.NewRange(head, tail, pe.rng.Direction))
	}
	return moved
}

// follow maps pos from old to its clone moved. It reports false and
// returns pos unchanged when pos is not inside old.
func follow(pos cursor.Position, old, moved model.Section) (cursor.Position, bool) {
	s := pos.Section()
	if s == nil {
		return pos, false
	}
	if s == old {
		return cursor.Clamp(moved, pos.Offset()), true
	}
	oldList, ok := old.(*model.ListSection)
	if !ok {
		return pos, false
	}
	idx := oldList.Items().IndexOf(s)
	if idx < 0 {
		return pos, false
	}
	return cursor.Clamp(moved.(*model.ListSection).Items().At(idx), pos.Offset()), true
}

// ============================================================================
// Splitting
// ============================================================================

// SplitSection splits the leaf section at pos and returns the sections on
// either side. The range is set to the head of the second section.
//
// A card or image only splits at its edges: offset 0 inserts a blank
// section before it, offset 1 after it. A blank last list item becomes a
// blank markup section after the list and before is nil.
func (pe *PostEditor) SplitSection(pos cursor.Position) (before, after model.Section, err error) {
	if err := pe.checkPosition(pos); err != nil {
		return nil, nil, err
	}
	defer func() {
		if err == nil && after != nil {
			pe.SetRange(cursor.Collapsed(cursor.Head(after)))
		}
	}()

	section := pos.Section()
	switch s := section.(type) {
	case *model.CardSection, *model.ImageSection:
		return pe.splitAtomicSection(s, pos.Offset())
	case *model.ListItem:
		if s.IsBlank() && s.Next() == nil {
			list := s.List()
			blank := pe.builder.MarkupSection(model.DefaultSectionTag)
			pe.removeSection(s)
			pe.insertSectionBefore(pe.post, blank, list.Next())
			return nil, blank, nil
		}
	}

	m := section.(model.Markerable)
	pre, post, err := m.SplitAtOffset(pos.Offset())
	if err != nil {
		return nil, nil, fmt.Errorf("split %s: %w", describe(section), err)
	}
	pe.replaceWith(section, pre, post)
	return pre, post, nil
}

func (pe *PostEditor) splitAtomicSection(section model.Section, offset int) (model.Section, model.Section, error) {
	insertBefore, err := model.SplitAtomic(section, offset)
	if err != nil {
		return nil, nil, err
	}
	blank := pe.builder.MarkupSection(model.DefaultSectionTag)
	if insertBefore {
		pe.insertSectionBefore(section.Parent(), blank, section)
		return blank, section, nil
	}
	pe.insertSectionBefore(section.Parent(), blank, section.Next())
	return section, blank, nil
}

// splitListAtItem breaks list around item. Items before item move into a
// new list inserted before; item moves into its own new list; items after
// stay in list, which is removed if nothing is left. Empty parts are nil.
// The returned middle list holds a copy of item.
func (pe *PostEditor) splitListAtItem(list *model.ListSection, item *model.ListItem) (pre, mid, post *model.ListSection) {
	pre = pe.builder.ListSection(list.Tag())
	mid = pe.builder.ListSection(list.Tag())
	for _, name := range list.AttributeNames() {
		v, _ := list.Attribute(name)
		_ = pre.SetAttribute(name, v)
		_ = mid.SetAttribute(name, v)
	}

	for _, it := range list.ItemSlice() {
		if it == item {
			mid.Items().Append(it.CloneItem())
			pe.removeSection(it)
			break
		}
		pre.Items().Append(it.CloneItem())
		pe.removeSection(it)
	}

	if !pre.IsBlank() {
		pe.insertSectionBefore(pe.post, pre, list)
	} else {
		pre = nil
	}
	pe.insertSectionBefore(pe.post, mid, list)
	post = list
	if list.IsBlank() {
		pe.removeSection(list)
		post = nil
	}
	return pre, mid, post
}
