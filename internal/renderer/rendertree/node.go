package rendertree

import (
	"github.com/dshills/quire/internal/engine/linked"
	"github.com/dshills/quire/internal/engine/model"
)

// Node mirrors one document node in the view.
type Node struct {
	links    linked.Links[*Node]
	doc      model.Node
	parent   *Node
	children *linked.List[*Node]

	dirty   bool
	removed bool

	// Handle is owned by the View.
	Handle any
}

func newNode(doc model.Node) *Node {
	n := &Node{doc: doc, dirty: true}
	n.children = linked.New(
		linked.WithAdopt(func(c *Node) { c.parent = n }),
		linked.WithFree(func(c *Node) { c.parent = nil }),
	)
	doc.SetRenderNode(n)
	return n
}

// Links returns the sibling links.
func (n *Node) Links() *linked.Links[*Node] { return &n.links }

// Doc returns the mirrored document node, or nil once destroyed.
func (n *Node) Doc() model.Node { return n.doc }

// Parent returns the parent render node.
func (n *Node) Parent() *Node { return n.parent }

// Children returns the child render nodes in document order.
func (n *Node) Children() *linked.List[*Node] { return n.children }

// Prev returns the previous sibling.
func (n *Node) Prev() *Node { return n.links.Prev() }

// Next returns the next sibling.
func (n *Node) Next() *Node { return n.links.Next() }

// IsDirty reports whether the node must be visited on the next render.
func (n *Node) IsDirty() bool { return n.dirty }

// IsRemoved reports whether the node is waiting to be destroyed.
func (n *Node) IsRemoved() bool { return n.removed }

// MarkDirty flags the node and all of its ancestors.
func (n *Node) MarkDirty() {
	for p := n; p != nil; p = p.parent {
		p.dirty = true
	}
}

// ScheduleForRemoval flags the node for destruction on the next render and
// dirties its parent so the render reaches it.
func (n *Node) ScheduleForRemoval() {
	n.removed = true
	if n.parent != nil {
		n.parent.MarkDirty()
	}
}

var _ model.RenderHook = (*Node)(nil)
