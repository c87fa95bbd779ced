package model

import (
	"fmt"
	"maps"
	"slices"
	"strings"
)

// SectionTag is the tag of a markup section.
type SectionTag string

// Markup section tags.
const (
	TagP          SectionTag = "p"
	TagH1         SectionTag = "h1"
	TagH2         SectionTag = "h2"
	TagH3         SectionTag = "h3"
	TagH4         SectionTag = "h4"
	TagH5         SectionTag = "h5"
	TagH6         SectionTag = "h6"
	TagBlockquote SectionTag = "blockquote"
	TagAside      SectionTag = "aside"
	TagPullQuote  SectionTag = "pull-quote"
)

// DefaultSectionTag is used for sections the editor creates on its own.
const DefaultSectionTag = TagP

var sectionTags = map[SectionTag]bool{
	TagP: true, TagH1: true, TagH2: true, TagH3: true, TagH4: true, TagH5: true,
	TagH6: true, TagBlockquote: true, TagAside: true, TagPullQuote: true,
}

// Valid reports whether t is a whitelisted markup section tag.
func (t SectionTag) Valid() bool { return sectionTags[t] }

// IsHeading reports whether t is one of h1..h6.
func (t SectionTag) IsHeading() bool {
	return len(t) == 2 && t[0] == 'h' && t[1] >= '1' && t[1] <= '6'
}

// ParseSectionTag normalizes and validates a markup section tag.
func ParseSectionTag(s string) (SectionTag, error) {
	t := SectionTag(strings.ToLower(strings.TrimSpace(s)))
	if !t.Valid() {
		return "", fmt.Errorf("markup section %q: %w", s, ErrInvalidTag)
	}
	return t, nil
}

// ListTag is the tag of a list section.
type ListTag string

// List section tags.
const (
	TagUL ListTag = "ul"
	TagOL ListTag = "ol"
)

// Valid reports whether t is a list tag.
func (t ListTag) Valid() bool { return t == TagUL || t == TagOL }

// ParseListTag normalizes and validates a list section tag.
func ParseListTag(s string) (ListTag, error) {
	t := ListTag(strings.ToLower(strings.TrimSpace(s)))
	if !t.Valid() {
		return "", fmt.Errorf("list section %q: %w", s, ErrInvalidTag)
	}
	return t, nil
}

// ListItemTag is the fixed tag of list items.
const ListItemTag = "li"

// MarkupTag is the tag of an inline markup.
type MarkupTag string

// Markup tags.
const (
	MarkupA      MarkupTag = "a"
	MarkupB      MarkupTag = "b"
	MarkupCode   MarkupTag = "code"
	MarkupEm     MarkupTag = "em"
	MarkupI      MarkupTag = "i"
	MarkupS      MarkupTag = "s"
	MarkupStrong MarkupTag = "strong"
	MarkupSub    MarkupTag = "sub"
	MarkupSup    MarkupTag = "sup"
	MarkupU      MarkupTag = "u"
)

// markupAttributes lists the attributes kept for each markup tag.
var markupAttributes = map[MarkupTag][]string{
	MarkupA:      {"href", "rel", "target"},
	MarkupB:      nil,
	MarkupCode:   nil,
	MarkupEm:     nil,
	MarkupI:      nil,
	MarkupS:      nil,
	MarkupStrong: nil,
	MarkupSub:    nil,
	MarkupSup:    nil,
	MarkupU:      nil,
}

// Valid reports whether t is a whitelisted markup tag.
func (t MarkupTag) Valid() bool {
	_, ok := markupAttributes[t]
	return ok
}

// ParseMarkupTag normalizes and validates a markup tag.
func ParseMarkupTag(s string) (MarkupTag, error) {
	t := MarkupTag(strings.ToLower(strings.TrimSpace(s)))
	if !t.Valid() {
		return "", fmt.Errorf("markup %q: %w", s, ErrInvalidTag)
	}
	return t, nil
}

// filterMarkupAttributes drops attributes not allowed for tag and
// lower-cases attribute names.
func filterMarkupAttributes(tag MarkupTag, attrs map[string]string) map[string]string {
	allowed := markupAttributes[tag]
	if len(allowed) == 0 || len(attrs) == 0 {
		return nil
	}
	out := make(map[string]string)
	for k, v := range attrs {
		name := strings.ToLower(k)
		if slices.Contains(allowed, name) {
			out[name] = v
		}
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

// AttrTextAlign is the only section attribute.
const AttrTextAlign = "data-md-text-align"

var textAlignValues = []string{"left", "center", "right", "justify"}

// ValidateSectionAttribute checks a section attribute name/value pair.
func ValidateSectionAttribute(name, value string) error {
	if name != AttrTextAlign {
		return fmt.Errorf("section attribute %q: %w", name, ErrInvalidAttribute)
	}
	if !slices.Contains(textAlignValues, value) {
		return fmt.Errorf("section attribute %s=%q: %w", name, value, ErrInvalidAttribute)
	}
	return nil
}

// attributes is the attribute bag shared by markup and list sections.
type attributes struct {
	attrs map[string]string
}

// Attribute returns the value of name and whether it is set.
func (a *attributes) Attribute(name string) (string, bool) {
	v, ok := a.attrs[name]
	return v, ok
}

// Attributes returns a copy of the attribute bag.
func (a *attributes) Attributes() map[string]string {
	return maps.Clone(a.attrs)
}

// AttributeNames returns the set attribute names in sorted order.
func (a *attributes) AttributeNames() []string {
	return slices.Sorted(maps.Keys(a.attrs))
}

// SetAttribute validates and sets an attribute.
func (a *attributes) SetAttribute(name, value string) error {
	if err := ValidateSectionAttribute(name, value); err != nil {
		return err
	}
	if a.attrs == nil {
		a.attrs = make(map[string]string)
	}
	a.attrs[name] = value
	return nil
}

// RemoveAttribute deletes an attribute; it reports whether it was set.
func (a *attributes) RemoveAttribute(name string) bool {
	if _, ok := a.attrs[name]; !ok {
		return false
	}
	delete(a.attrs, name)
	return true
}

func (a *attributes) cloneAttributes() attributes {
	return attributes{attrs: maps.Clone(a.attrs)}
}
