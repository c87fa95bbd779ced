// Package rendertree keeps a shadow tree of render nodes, one per rendered
// document node, and reconciles it against a View.
//
// The document tree holds a non-owning link to each node's render node and
// drives it through model.RenderHook: edits mark render nodes dirty, which
// propagates to the root, and removals flag the render node for removal.
// Tree.Render then walks only the dirty part of the tree:
//
//	tree := rendertree.New(post)
//	stats, err := tree.Render(view) // first render builds every node
//	// ... edits ...
//	stats, err = tree.Render(view)  // visits only dirty nodes
//
// Each visited node first has its removed children destroyed, deepest
// first, so the View can tear down their handles. Document children
// without a render node get one, inserted after the render node of the
// previous sibling, and are visited because new nodes start dirty.
// Visits happen in document order.
package rendertree
