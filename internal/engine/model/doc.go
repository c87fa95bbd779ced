// Package model defines the rich-text document tree.
//
// A Post owns an ordered list of sections. Sections come in a closed set of
// kinds:
//
//   - MarkupSection: paragraph-like text with a tag such as p, h1 or blockquote
//   - ListSection: an ordered (ol) or unordered (ul) list of ListItems
//   - ListItem: a text section that lives only inside a ListSection
//   - CardSection: an atomic block rendered by a named card plugin
//   - ImageSection: an atomic block referencing an image source
//
// MarkupSection and ListItem are Markerable: they own a list of inlines,
// each either a Marker (a run of text with markups) or an Atom (an
// indivisible inline of length 1).
//
// Offsets are counted in runes. Cards, images and atoms have length 1.
//
// # Ownership
//
// Every parent owns its children through a linked.List. Back-links from a
// child to its parent (Section.Parent, Inline.Section) are maintained by the
// owning list's hooks and never outlive membership. Nodes also carry an
// optional RenderHook installed by the render tree; clones never copy it.
//
// # Markups
//
// Markups are interned by a Builder, so membership tests compare pointers.
// Posts that are joined or migrated between each other must come from the
// same Builder.
//
// Nodes are not safe for concurrent use.
package model
