// Package linked provides an intrusive, owner-aware doubly linked list.
//
// Every ordered collection in the document tree (sections in a post, items
// in a list section, markers in a section, render nodes under a parent) is a
// List. Items embed a Links record and expose it through a Links method:
//
//	type section struct{ links linked.Links[*section] }
//
//	func (s *section) Links() *linked.Links[*section] { return &s.links }
//
//	l := linked.New[*section]()
//	l.Append(&section{})
//
// An item belongs to at most one list. Adopt and free hooks run when an item
// enters or leaves a list; the document tree uses them to maintain its
// non-owning parent back-links.
package linked
