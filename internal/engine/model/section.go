package model

import (
	"fmt"
	"maps"

	"github.com/dshills/quire/internal/engine/linked"
)

// Section is a block-level node. The set of implementations is closed:
// *MarkupSection, *ListSection, *ListItem, *CardSection and *ImageSection.
type Section interface {
	Node
	Links() *linked.Links[Section]

	// Parent returns the owning post or list section, or nil when detached.
	// It is a back-link maintained by the owning list, never an ownership edge.
	Parent() Container
	Next() Section
	Prev() Section

	// Len is the character count for markerable sections and 1 for atomic
	// sections. List sections report 0; positions never address them.
	Len() int
	IsBlank() bool
	// IsLeaf reports whether the section holds position offsets directly.
	IsLeaf() bool
	IsMarkerable() bool

	// Clone returns a detached copy that shares markup pointers but no
	// render linkage.
	Clone() Section
	CanJoin(other Section) bool

	setParent(c Container)
}

type sectionBase struct {
	renderLink
	links  linked.Links[Section]
	parent Container
}

func (s *sectionBase) Links() *linked.Links[Section] { return &s.links }
func (s *sectionBase) Parent() Container             { return s.parent }
func (s *sectionBase) setParent(c Container)         { s.parent = c }
func (s *sectionBase) Next() Section                 { return s.links.Next() }
func (s *sectionBase) Prev() Section                 { return s.links.Prev() }

// IsNested reports whether s lives inside a list section.
func IsNested(s Section) bool {
	_, ok := s.Parent().(*ListSection)
	return ok
}

// ============================================================================
// Markup section and list item
// ============================================================================

// MarkupSection is a paragraph-like section with a tag such as p or h2.
type MarkupSection struct {
	sectionBase
	markerContainer
	attributes
	tag SectionTag
}

func (s *MarkupSection) Type() NodeType     { return TypeMarkupSection }
func (s *MarkupSection) IsLeaf() bool       { return true }
func (s *MarkupSection) IsMarkerable() bool { return true }

// Tag returns the section tag.
func (s *MarkupSection) Tag() SectionTag { return s.tag }

// TagName implements Markerable.
func (s *MarkupSection) TagName() string { return string(s.tag) }

// SetTag changes the section tag. Invalid tags return ErrInvalidTag.
func (s *MarkupSection) SetTag(t SectionTag) error {
	if !t.Valid() {
		return fmt.Errorf("markup section %q: %w", t, ErrInvalidTag)
	}
	s.tag = t
	return nil
}

// Clone returns a detached copy with cloned markers.
func (s *MarkupSection) Clone() Section {
	c := newMarkupSection(s.tag)
	c.attributes = s.cloneAttributes()
	s.cloneMarkersInto(&c.markerContainer)
	return c
}

// CanJoin reports whether other is a markup section with the same tag.
func (s *MarkupSection) CanJoin(other Section) bool {
	o, ok := other.(*MarkupSection)
	return ok && o.tag == s.tag
}

// SplitAtOffset splits into two new detached sections. The trailing section
// keeps the tag, except that splitting a heading at its tail yields a p.
func (s *MarkupSection) SplitAtOffset(offset int) (Markerable, Markerable, error) {
	afterTag := s.tag
	if s.tag.IsHeading() && offset == s.Len() {
		afterTag = DefaultSectionTag
	}
	before := newMarkupSection(s.tag)
	before.attributes = s.cloneAttributes()
	after := newMarkupSection(afterTag)
	if err := s.redistribute(&before.markerContainer, &after.markerContainer, offset); err != nil {
		return nil, nil, err
	}
	return before, after, nil
}

func newMarkupSection(tag SectionTag) *MarkupSection {
	s := &MarkupSection{tag: tag}
	s.markerContainer = newMarkerContainer(s)
	return s
}

// ListItem is a markerable leaf inside a list section.
type ListItem struct {
	sectionBase
	markerContainer
}

func (s *ListItem) Type() NodeType     { return TypeListItem }
func (s *ListItem) IsLeaf() bool       { return true }
func (s *ListItem) IsMarkerable() bool { return true }

// TagName implements Markerable; list items are always li.
func (s *ListItem) TagName() string { return ListItemTag }

// List returns the owning list section, or nil when detached.
func (s *ListItem) List() *ListSection {
	l, _ := s.parent.(*ListSection)
	return l
}

// Clone returns a detached copy with cloned markers.
func (s *ListItem) Clone() Section { return s.CloneItem() }

// CloneItem is Clone with a concrete result type.
func (s *ListItem) CloneItem() *ListItem {
	c := newListItem()
	s.cloneMarkersInto(&c.markerContainer)
	return c
}

// CanJoin reports whether other is a list item.
func (s *ListItem) CanJoin(other Section) bool {
	_, ok := other.(*ListItem)
	return ok
}

// SplitAtOffset splits into two new detached list items.
func (s *ListItem) SplitAtOffset(offset int) (Markerable, Markerable, error) {
	before, after := newListItem(), newListItem()
	if err := s.redistribute(&before.markerContainer, &after.markerContainer, offset); err != nil {
		return nil, nil, err
	}
	return before, after, nil
}

func newListItem() *ListItem {
	s := &ListItem{}
	s.markerContainer = newMarkerContainer(s)
	return s
}

// ============================================================================
// List section
// ============================================================================

// ListSection is a container of list items.
type ListSection struct {
	sectionBase
	attributes
	tag   ListTag
	items *linked.List[Section]
}

func newListSection(tag ListTag) *ListSection {
	l := &ListSection{tag: tag}
	l.items = linked.New(
		linked.WithAdopt(func(s Section) {
			if _, ok := s.(*ListItem); !ok {
				panic(fmt.Sprintf("model: list section cannot hold %s", s.Type()))
			}
			s.setParent(l)
		}),
		linked.WithFree(func(s Section) { s.setParent(nil) }),
	)
	return l
}

func (l *ListSection) Type() NodeType     { return TypeListSection }
func (l *ListSection) IsLeaf() bool       { return false }
func (l *ListSection) IsMarkerable() bool { return false }
func (l *ListSection) Len() int           { return 0 }

// IsBlank reports whether the list has no items.
func (l *ListSection) IsBlank() bool { return l.items.IsEmpty() }

// Tag returns the list tag.
func (l *ListSection) Tag() ListTag { return l.tag }

// SetTag changes the list tag.
func (l *ListSection) SetTag(t ListTag) error {
	if !t.Valid() {
		return fmt.Errorf("list section %q: %w", t, ErrInvalidTag)
	}
	l.tag = t
	return nil
}

// Items returns the owned item list; every member is a *ListItem.
func (l *ListSection) Items() *linked.List[Section] { return l.items }

// Children implements Container.
func (l *ListSection) Children() *linked.List[Section] { return l.items }

// ItemSlice returns the items with their concrete type.
func (l *ListSection) ItemSlice() []*ListItem {
	out := make([]*ListItem, 0, l.items.Len())
	for s := range l.items.All() {
		out = append(out, s.(*ListItem))
	}
	return out
}

// Clone returns a detached copy with cloned items.
func (l *ListSection) Clone() Section {
	c := newListSection(l.tag)
	c.attributes = l.cloneAttributes()
	for _, item := range l.ItemSlice() {
		c.items.Append(item.CloneItem())
	}
	return c
}

// CanJoin reports whether other is a list with the same tag.
func (l *ListSection) CanJoin(other Section) bool {
	o, ok := other.(*ListSection)
	return ok && o.tag == l.tag
}

// Join appends clones of other's content. A list contributes its items; a
// markerable section is wrapped as a new item. It returns the added items.
func (l *ListSection) Join(other Section) ([]*ListItem, error) {
	var added []*ListItem
	switch o := other.(type) {
	case *ListSection:
		for _, item := range o.ItemSlice() {
			c := item.CloneItem()
			l.items.Append(c)
			added = append(added, c)
		}
	case Markerable:
		item := newListItem()
		o.container().cloneMarkersInto(&item.markerContainer)
		l.items.Append(item)
		added = append(added, item)
	default:
		return nil, fmt.Errorf("join %s into list section: %w", other.Type(), ErrCannotJoin)
	}
	return added, nil
}

// ============================================================================
// Atomic sections
// ============================================================================

// CardSection is an atomic section rendered by a named card plugin.
type CardSection struct {
	sectionBase
	name    string
	payload map[string]any
}

func (c *CardSection) Type() NodeType     { return TypeCardSection }
func (c *CardSection) IsLeaf() bool       { return true }
func (c *CardSection) IsMarkerable() bool { return false }
func (c *CardSection) IsBlank() bool      { return false }
func (c *CardSection) Len() int           { return 1 }

// Name returns the card plugin name.
func (c *CardSection) Name() string { return c.name }

// Payload returns a copy of the card payload.
func (c *CardSection) Payload() map[string]any { return maps.Clone(c.payload) }

// SetPayload replaces the payload.
func (c *CardSection) SetPayload(p map[string]any) { c.payload = maps.Clone(p) }

// Clone returns a detached copy.
func (c *CardSection) Clone() Section {
	return &CardSection{name: c.name, payload: maps.Clone(c.payload)}
}

// CanJoin is always false.
func (c *CardSection) CanJoin(Section) bool { return false }

// ImageSection is an atomic section referencing an image source.
type ImageSection struct {
	sectionBase
	src string
}

func (i *ImageSection) Type() NodeType     { return TypeImageSection }
func (i *ImageSection) IsLeaf() bool       { return true }
func (i *ImageSection) IsMarkerable() bool { return false }
func (i *ImageSection) IsBlank() bool      { return false }
func (i *ImageSection) Len() int           { return 1 }

// Src returns the image source.
func (i *ImageSection) Src() string { return i.src }

// SetSrc replaces the image source.
func (i *ImageSection) SetSrc(src string) { i.src = src }

// Clone returns a detached copy.
func (i *ImageSection) Clone() Section { return &ImageSection{src: i.src} }

// CanJoin is always false.
func (i *ImageSection) CanJoin(Section) bool { return false }

// SplitAtomic rejects splitting an atomic section. Offsets 0 and 1 are
// boundaries and are reported as such with a nil error; the caller inserts
// a new section before or after. Anything else is ErrAtomicSplit.
func SplitAtomic(s Section, offset int) (before bool, err error) {
	switch offset {
	case 0:
		return true, nil
	case 1:
		return false, nil
	default:
		return false, fmt.Errorf("%s at offset %d: %w", s.Type(), offset, ErrAtomicSplit)
	}
}
