package postedit

import (
	"fmt"
	"strings"

	"github.com/dshills/quire/internal/engine/cursor"
	"github.com/dshills/quire/internal/engine/model"
)

// ChangeSectionTagName retags a markerable section and returns the section
// that now holds its content. A list tag (ul, ol) turns the section into a
// list item of such a list; a markup section tag turns a list item back
// into a markup section.
func (pe *PostEditor) ChangeSectionTagName(section model.Markerable, tagName string) (model.Markerable, error) {
	if err := pe.checkSection(section); err != nil {
		return nil, err
	}
	name := strings.ToLower(strings.TrimSpace(tagName))
	if lt, err := model.ParseListTag(name); err == nil {
		return pe.changeSectionToListItem(section, lt), nil
	}
	st, err := model.ParseSectionTag(name)
	if err != nil {
		return nil, err
	}
	switch s := section.(type) {
	case *model.ListItem:
		return pe.changeSectionFromListItem(s, st)
	case *model.MarkupSection:
		if s.Tag() != st {
			if err := s.SetTag(st); err != nil {
				return nil, err
			}
			pe.markDirty(s)
		}
		return s, nil
	default:
		return nil, fmt.Errorf("retag %s: %w", describe(section), ErrNotMarkerable)
	}
}

func (pe *PostEditor) changeSectionToListItem(section model.Markerable, tag model.ListTag) model.Markerable {
	if item, ok := section.(*model.ListItem); ok && item.List().Tag() == tag {
		return item
	}
	list := pe.builder.ListSection(tag)
	if _, err := list.Join(section); err != nil {
		panic("postedit: wrapping a markerable section in a list: " + err.Error())
	}
	target := model.Section(section)
	if item, ok := section.(*model.ListItem); ok {
		_, mid, _ := pe.splitListAtItem(item.List(), item)
		target = mid
	}
	pe.replaceWith(target, list)
	return list.Items().Head().(*model.ListItem)
}

func (pe *PostEditor) changeSectionFromListItem(item *model.ListItem, tag model.SectionTag) (model.Markerable, error) {
	if !tag.Valid() {
		return nil, fmt.Errorf("retag list item as %q: %w", tag, model.ErrInvalidTag)
	}
	_, mid, _ := pe.splitListAtItem(item.List(), item)
	section := pe.builder.MarkupSection(tag)
	section.Join(mid.Items().Head().(*model.ListItem))
	pe.replaceWith(mid, section)
	return section, nil
}

// ToggleSection sets every markerable section in r to tagName, or to the
// default section tag when they all have it already. For list tags a list
// item counts as having the tag of its list. The range is retargeted to the
// changed sections.
func (pe *PostEditor) ToggleSection(r cursor.Range, tagName string) error {
	if err := pe.checkRange(r); err != nil {
		return err
	}
	name := strings.ToLower(strings.TrimSpace(tagName))
	if _, err := model.ParseListTag(name); err != nil {
		if _, err := model.ParseSectionTag(name); err != nil {
			return err
		}
	}

	var sections []model.Markerable
	r.WalkLeafSections(func(s model.Section) bool {
		if m, ok := s.(model.Markerable); ok {
			sections = append(sections, m)
		}
		return true
	})
	if len(sections) == 0 {
		return nil
	}

	every := true
	for _, s := range sections {
		if !hasSectionTag(s, name) {
			every = false
			break
		}
	}
	target := name
	if every {
		target = string(model.DefaultSectionTag)
	}

	changed := make([]model.Markerable, 0, len(sections))
	for _, s := range sections {
		c, err := pe.ChangeSectionTagName(s, target)
		if err != nil {
			return err
		}
		changed = append(changed, c)
	}

	head, tail := r.Head, r.Tail
	if head.Section() == sections[0] {
		head = cursor.Clamp(changed[0], head.Offset())
	} else {
		head = cursor.Head(changed[0])
	}
	last := len(changed) - 1
	if tail.Section() == sections[last] {
		tail = cursor.Clamp(changed[last], tail.Offset())
	} else {
		tail = cursor.Tail(changed[last])
	}
	pe.SetRange(cursor.NewRange(head, tail, r.Direction))
	return nil
}

func hasSectionTag(s model.Markerable, name string) bool {
	if item, ok := s.(*model.ListItem); ok {
		return string(item.List().Tag()) == name
	}
	return s.TagName() == name
}

// ============================================================================
// Attributes
// ============================================================================

// attributeTargets returns the sections whose attributes r covers: markup
// sections and the lists of covered list items, each once.
func attributeTargets(r cursor.Range) []model.Section {
	var out []model.Section
	seen := make(map[model.Section]bool)
	r.WalkLeafSections(func(s model.Section) bool {
		var target model.Section
		switch v := s.(type) {
		case *model.MarkupSection:
			target = v
		case *model.ListItem:
			target = v.List()
		default:
			return true
		}
		if !seen[target] {
			seen[target] = true
			out = append(out, target)
		}
		return true
	})
	return out
}

type attributed interface {
	model.Section
	Attribute(name string) (string, bool)
	SetAttribute(name, value string) error
	RemoveAttribute(name string) bool
}

// SetAttribute sets a section attribute on every section covered by r.
func (pe *PostEditor) SetAttribute(r cursor.Range, name, value string) error {
	if err := pe.checkRange(r); err != nil {
		return err
	}
	if err := model.ValidateSectionAttribute(name, value); err != nil {
		return err
	}
	for _, s := range attributeTargets(r) {
		a := s.(attributed)
		if v, ok := a.Attribute(name); ok && v == value {
			continue
		}
		if err := a.SetAttribute(name, value); err != nil {
			return err
		}
		pe.markDirty(s)
	}
	pe.SetRange(r)
	return nil
}

// RemoveAttribute removes a section attribute from every section covered by r.
func (pe *PostEditor) RemoveAttribute(r cursor.Range, name string) error {
	if err := pe.checkRange(r); err != nil {
		return err
	}
	for _, s := range attributeTargets(r) {
		if s.(attributed).RemoveAttribute(name) {
			pe.markDirty(s)
		}
	}
	pe.SetRange(r)
	return nil
}

// ToggleAttribute removes the attribute when every covered section already
// has value for it, and sets it everywhere otherwise.
func (pe *PostEditor) ToggleAttribute(r cursor.Range, name, value string) error {
	if err := pe.checkRange(r); err != nil {
		return err
	}
	targets := attributeTargets(r)
	every := len(targets) > 0
	for _, s := range targets {
		if v, ok := s.(attributed).Attribute(name); !ok || v != value {
			every = false
			break
		}
	}
	if every {
		return pe.RemoveAttribute(r, name)
	}
	return pe.SetAttribute(r, name, value)
}
