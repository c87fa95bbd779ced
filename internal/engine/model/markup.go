package model

import (
	"maps"
	"slices"
	"strings"
)

// Markup is an immutable inline style. Markups are interned by the Builder,
// so two markups with the same tag and attributes are the same pointer and
// identity comparison is used for membership checks.
type Markup struct {
	tag   MarkupTag
	attrs map[string]string
	key   string
}

// Tag returns the markup tag.
func (m *Markup) Tag() MarkupTag { return m.tag }

// Attribute returns an attribute value.
func (m *Markup) Attribute(name string) (string, bool) {
	v, ok := m.attrs[name]
	return v, ok
}

// Attributes returns a copy of the attributes.
func (m *Markup) Attributes() map[string]string { return maps.Clone(m.attrs) }

// AttributeNames returns the attribute names in sorted order.
func (m *Markup) AttributeNames() []string {
	return slices.Sorted(maps.Keys(m.attrs))
}

// HasTag reports whether the markup has tag t.
func (m *Markup) HasTag(t MarkupTag) bool { return m.tag == t }

// String returns the cache key, e.g. `a[href=http://x]`.
func (m *Markup) String() string { return m.key }

func markupKey(tag MarkupTag, attrs map[string]string) string {
	if len(attrs) == 0 {
		return string(tag)
	}
	var sb strings.Builder
	sb.WriteString(string(tag))
	for _, k := range slices.Sorted(maps.Keys(attrs)) {
		sb.WriteByte('[')
		sb.WriteString(k)
		sb.WriteByte('=')
		sb.WriteString(attrs[k])
		sb.WriteByte(']')
	}
	return sb.String()
}

// SameMarkups reports whether a and b hold the same markups, ignoring order.
func SameMarkups(a, b []*Markup) bool {
	if len(a) != len(b) {
		return false
	}
	for _, m := range a {
		if !slices.Contains(b, m) {
			return false
		}
	}
	return true
}

// CommonPrefix returns the longest shared prefix of two markup stacks.
func CommonPrefix(a, b []*Markup) []*Markup {
	n := 0
	for n < len(a) && n < len(b) && a[n] == b[n] {
		n++
	}
	return a[:n:n]
}
