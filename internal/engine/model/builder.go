package model

import (
	"fmt"
	"maps"
	"sync"
)

// Builder creates document nodes. It owns the markup cache, so every post
// built from the same Builder shares markup identity. A Builder is safe for
// concurrent use; the nodes it returns are not.
type Builder struct {
	mu      sync.Mutex
	markups map[string]*Markup
}

// NewBuilder returns a Builder with an empty markup cache.
func NewBuilder() *Builder {
	return &Builder{markups: make(map[string]*Markup)}
}

// Post creates an empty post.
func (b *Builder) Post(sections ...Section) *Post {
	p := newPost()
	for _, s := range sections {
		p.sections.Append(s)
	}
	return p
}

// MarkupSection creates a markup section holding inlines.
// An invalid tag panics; use ParseSectionTag for external input.
func (b *Builder) MarkupSection(tag SectionTag, inlines ...Inline) *MarkupSection {
	if !tag.Valid() {
		panic(fmt.Sprintf("model: invalid markup section tag %q", tag))
	}
	s := newMarkupSection(tag)
	for _, m := range inlines {
		s.markers.Append(m)
	}
	return s
}

// ListSection creates a list section holding items.
func (b *Builder) ListSection(tag ListTag, items ...*ListItem) *ListSection {
	if !tag.Valid() {
		panic(fmt.Sprintf("model: invalid list tag %q", tag))
	}
	l := newListSection(tag)
	for _, item := range items {
		l.items.Append(item)
	}
	return l
}

// ListItem creates a list item holding inlines.
func (b *Builder) ListItem(inlines ...Inline) *ListItem {
	item := newListItem()
	for _, m := range inlines {
		item.markers.Append(m)
	}
	return item
}

// Marker creates a text marker.
func (b *Builder) Marker(text string, markups ...*Markup) *Marker {
	return newMarker(text, markups)
}

// Atom creates an atom.
func (b *Builder) Atom(name, value string, payload map[string]any, markups ...*Markup) *Atom {
	return &Atom{
		inlineBase: inlineBase{markups: dedupe(markups)},
		name:       name,
		value:      value,
		payload:    maps.Clone(payload),
	}
}

// Card creates a card section.
func (b *Builder) Card(name string, payload map[string]any) *CardSection {
	return &CardSection{name: name, payload: maps.Clone(payload)}
}

// Image creates an image section.
func (b *Builder) Image(src string) *ImageSection {
	return &ImageSection{src: src}
}

// Markup returns the interned markup for tag and the allowed subset of
// attrs. An invalid tag panics; use ParseMarkupTag for external input.
func (b *Builder) Markup(tag MarkupTag, attrs map[string]string) *Markup {
	if !tag.Valid() {
		panic(fmt.Sprintf("model: invalid markup tag %q", tag))
	}
	filtered := filterMarkupAttributes(tag, attrs)
	key := markupKey(tag, filtered)

	b.mu.Lock()
	defer b.mu.Unlock()
	if m, ok := b.markups[key]; ok {
		return m
	}
	m := &Markup{tag: tag, attrs: filtered, key: key}
	b.markups[key] = m
	return m
}

// MarkupCount returns the number of cached markups.
func (b *Builder) MarkupCount() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.markups)
}

// Attach installs a pre-built section as the last top-level section.
func (b *Builder) Attach(p *Post, s Section) { p.sections.Append(s) }
