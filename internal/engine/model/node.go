package model

import "github.com/dshills/quire/internal/engine/linked"

// NodeType tags every node kind in the document tree. The set is closed.
type NodeType uint8

const (
	TypePost NodeType = iota
	TypeMarkupSection
	TypeListSection
	TypeListItem
	TypeCardSection
	TypeImageSection
	TypeMarker
	TypeAtom
)

// String returns the node type name.
func (t NodeType) String() string {
	switch t {
	case TypePost:
		return "post"
	case TypeMarkupSection:
		return "markup-section"
	case TypeListSection:
		return "list-section"
	case TypeListItem:
		return "list-item"
	case TypeCardSection:
		return "card-section"
	case TypeImageSection:
		return "image-section"
	case TypeMarker:
		return "marker"
	case TypeAtom:
		return "atom"
	default:
		return "unknown"
	}
}

// RenderHook is the non-owning link from a document node to the view-node
// that mirrors it. The render tree installs it; the editor drives it.
type RenderHook interface {
	MarkDirty()
	ScheduleForRemoval()
	IsRemoved() bool
}

// Node is implemented by every document tree node.
type Node interface {
	Type() NodeType
	RenderNode() RenderHook
	SetRenderNode(h RenderHook)
}

// Container is a node that owns an ordered list of sections:
// the post (top-level sections) or a list section (its items).
type Container interface {
	Node
	Children() *linked.List[Section]
}

type renderLink struct {
	render RenderHook
}

// RenderNode returns the render hook, or nil when the node was never rendered.
func (r *renderLink) RenderNode() RenderHook { return r.render }

// SetRenderNode installs or clears the render hook.
func (r *renderLink) SetRenderNode(h RenderHook) { r.render = h }

// MarkDirty marks the node's render node dirty if it has one.
// It reports whether a render node was present.
func MarkDirty(n Node) bool {
	if h := n.RenderNode(); h != nil {
		h.MarkDirty()
		return true
	}
	return false
}

// ScheduleForRemoval flags the node's render node for removal if it has one.
func ScheduleForRemoval(n Node) bool {
	if h := n.RenderNode(); h != nil {
		h.ScheduleForRemoval()
		return true
	}
	return false
}
