package model

import "github.com/dshills/quire/internal/engine/linked"

// Post is the document root. It owns the top-level sections.
type Post struct {
	renderLink
	sections *linked.List[Section]
}

func newPost() *Post {
	p := &Post{}
	p.sections = linked.New(
		linked.WithAdopt(func(s Section) {
			if _, ok := s.(*ListItem); ok {
				panic("model: list item cannot be a top-level section")
			}
			s.setParent(p)
		}),
		linked.WithFree(func(s Section) { s.setParent(nil) }),
	)
	return p
}

// Type implements Node.
func (p *Post) Type() NodeType { return TypePost }

// Sections returns the top-level section list.
func (p *Post) Sections() *linked.List[Section] { return p.sections }

// Children implements Container.
func (p *Post) Children() *linked.List[Section] { return p.sections }

// IsBlank reports whether the post has no sections.
func (p *Post) IsBlank() bool { return p.sections.IsEmpty() }

// LeafSections returns every leaf section in document order. List sections
// are replaced by their items.
func (p *Post) LeafSections() []Section {
	var out []Section
	p.WalkLeafSections(func(s Section) bool {
		out = append(out, s)
		return true
	})
	return out
}

// WalkLeafSections calls fn for every leaf section in order until fn
// returns false.
func (p *Post) WalkLeafSections(fn func(s Section) bool) {
	for s := range p.sections.All() {
		if l, ok := s.(*ListSection); ok {
			for item := range l.items.All() {
				if !fn(item) {
					return
				}
			}
			continue
		}
		if !fn(s) {
			return
		}
	}
}

// WalkMarkerableSections calls fn for every markerable leaf in order.
func (p *Post) WalkMarkerableSections(fn func(s Markerable) bool) {
	p.WalkLeafSections(func(s Section) bool {
		if m, ok := s.(Markerable); ok {
			return fn(m)
		}
		return true
	})
}

// LeafSectionAt returns the leaf section at index in document order, or nil.
func (p *Post) LeafSectionAt(index int) Section {
	if index < 0 {
		return nil
	}
	var found Section
	i := 0
	p.WalkLeafSections(func(s Section) bool {
		if i == index {
			found = s
			return false
		}
		i++
		return true
	})
	return found
}

// LeafIndexOf returns the document-order index of a leaf section, or -1.
func (p *Post) LeafIndexOf(target Section) int {
	index := -1
	i := 0
	p.WalkLeafSections(func(s Section) bool {
		if s == target {
			index = i
			return false
		}
		i++
		return true
	})
	return index
}

// LeafCount returns the number of leaf sections.
func (p *Post) LeafCount() int {
	n := 0
	p.WalkLeafSections(func(Section) bool {
		n++
		return true
	})
	return n
}

// FirstLeaf returns the first leaf section, or nil.
func (p *Post) FirstLeaf() Section { return p.LeafSectionAt(0) }

// LastLeaf returns the last leaf section, or nil.
func (p *Post) LastLeaf() Section {
	for s := range p.sections.Backward() {
		if l, ok := s.(*ListSection); ok {
			if tail := l.items.Tail(); tail != nil {
				return tail
			}
			continue
		}
		return s
	}
	return nil
}

// Clone returns a detached deep copy without render linkage.
func (p *Post) Clone() *Post {
	c := newPost()
	for s := range p.sections.All() {
		c.sections.Append(s.Clone())
	}
	return c
}

// Text joins the text of every leaf section with newlines. Cards and images
// contribute ObjectReplacement.
func (p *Post) Text() string {
	var out []rune
	first := true
	p.WalkLeafSections(func(s Section) bool {
		if !first {
			out = append(out, '\n')
		}
		first = false
		if m, ok := s.(Markerable); ok {
			out = append(out, []rune(m.Text())...)
		} else {
			out = append(out, ObjectReplacement)
		}
		return true
	})
	return string(out)
}

// NextLeaf returns the leaf section after s in document order, descending
// into and climbing out of list sections. Empty lists are skipped.
func NextLeaf(s Section) Section {
	if s == nil {
		return nil
	}
	next := s.Next()
	if next == nil {
		if l, ok := s.Parent().(*ListSection); ok {
			return firstLeafFrom(l.Next())
		}
		return nil
	}
	return firstLeafFrom(next)
}

// PrevLeaf returns the leaf section before s in document order.
func PrevLeaf(s Section) Section {
	if s == nil {
		return nil
	}
	prev := s.Prev()
	if prev == nil {
		if l, ok := s.Parent().(*ListSection); ok {
			return lastLeafFrom(l.Prev())
		}
		return nil
	}
	return lastLeafFrom(prev)
}

func firstLeafFrom(s Section) Section {
	for ; s != nil; s = s.Next() {
		if l, ok := s.(*ListSection); ok {
			if head := l.items.Head(); head != nil {
				return head
			}
			continue
		}
		return s
	}
	return nil
}

func lastLeafFrom(s Section) Section {
	for ; s != nil; s = s.Prev() {
		if l, ok := s.(*ListSection); ok {
			if tail := l.items.Tail(); tail != nil {
				return tail
			}
			continue
		}
		return s
	}
	return nil
}

// TopLevel returns the top-level section holding s: s itself, or its list
// when s is a list item.
func TopLevel(s Section) Section {
	if l, ok := s.Parent().(*ListSection); ok {
		return l
	}
	return s
}
