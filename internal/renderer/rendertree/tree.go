package rendertree

import (
	"fmt"
	"io"
	"log/slog"

	"github.com/dshills/quire/internal/engine/model"
)

// Stats reports the work done by one Render call.
type Stats struct {
	Visited int
	Built   int
	Removed int
}

// Tree is the render tree of one post.
type Tree struct {
	post   *model.Post
	root   *Node
	queue  []*Node
	logger *slog.Logger
}

// Option configures a Tree.
type Option func(*Tree)

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(t *Tree) {
		if l != nil {
			t.logger = l
		}
	}
}

// New creates the render tree of post with a dirty root, so the first
// Render builds everything.
func New(post *model.Post, opts ...Option) *Tree {
	t := &Tree{
		post:   post,
		root:   newNode(post),
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Root returns the render node of the post.
func (t *Tree) Root() *Node { return t.root }

// IsDirty reports whether the next Render has work to do.
func (t *Tree) IsDirty() bool { return t.root.dirty }

// Render reconciles the tree with v. On error the failing node and every
// node not yet visited stay dirty, so a later Render retries them.
func (t *Tree) Render(v View) (Stats, error) {
	var st Stats
	if !t.root.dirty {
		return st, nil
	}
	t.queue = append(t.queue[:0], t.root)
	for len(t.queue) > 0 {
		n := t.queue[0]
		t.queue = t.queue[1:]

		st.Removed += t.purge(n, v)
		if err := dispatch(v, n); err != nil {
			t.queue = nil
			n.MarkDirty()
			return st, fmt.Errorf("render %s: %w", n.doc.Type(), err)
		}
		next, built := t.visitChildren(n)
		st.Built += built
		n.dirty = false
		st.Visited++
		t.queue = append(next, t.queue...)
	}
	t.logger.Debug("rendered", "visited", st.Visited, "built", st.Built, "removed", st.Removed)
	return st, nil
}

// visitChildren gives every document child of n a render node and returns
// the dirty ones in document order.
func (t *Tree) visitChildren(n *Node) ([]*Node, int) {
	var dirty []*Node
	var prev *Node
	built := 0
	for _, doc := range children(n.doc) {
		c, _ := doc.RenderNode().(*Node)
		if c == nil || c.removed {
			c = newNode(doc)
			n.children.InsertAfter(c, prev)
			built++
		}
		if c.dirty {
			dirty = append(dirty, c)
		}
		prev = c
	}
	return dirty, built
}

// purge destroys the removed children of n and returns how many nodes were
// destroyed, descendants included.
func (t *Tree) purge(n *Node, v View) int {
	count := 0
	for c := range n.children.All() {
		if c.removed {
			count += t.destroy(c, v)
		}
	}
	return count
}

// destroy tears down n and its subtree, deepest first.
func (t *Tree) destroy(n *Node, v View) int {
	count := 0
	for c := range n.children.All() {
		count += t.destroy(c, v)
	}
	v.Destroy(n)
	if n.doc != nil && n.doc.RenderNode() == n {
		n.doc.SetRenderNode(nil)
	}
	n.doc = nil
	n.Handle = nil
	if n.parent != nil {
		n.parent.children.Remove(n)
	}
	return count + 1
}
