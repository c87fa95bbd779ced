package rendertree

import "github.com/dshills/quire/internal/engine/model"

// View is the collaborator that displays the document. Each render method
// is called when its node is new or dirty; n.Handle is nil the first time
// and keeps whatever the view stores in it. A node's parent and previous
// sibling are rendered before it.
type View interface {
	RenderPost(n *Node, p *model.Post) error
	RenderMarkupSection(n *Node, s *model.MarkupSection) error
	RenderListSection(n *Node, s *model.ListSection) error
	RenderListItem(n *Node, s *model.ListItem) error
	RenderCardSection(n *Node, s *model.CardSection) error
	RenderImageSection(n *Node, s *model.ImageSection) error
	RenderMarker(n *Node, m *model.Marker) error
	RenderAtom(n *Node, a *model.Atom) error

	// Destroy tears down the handle of a removed node. Children are
	// destroyed before their parent.
	Destroy(n *Node)
}

// dispatch calls the render method for n's document node.
func dispatch(v View, n *Node) error {
	switch d := n.doc.(type) {
	case *model.Post:
		return v.RenderPost(n, d)
	case *model.MarkupSection:
		return v.RenderMarkupSection(n, d)
	case *model.ListSection:
		return v.RenderListSection(n, d)
	case *model.ListItem:
		return v.RenderListItem(n, d)
	case *model.CardSection:
		return v.RenderCardSection(n, d)
	case *model.ImageSection:
		return v.RenderImageSection(n, d)
	case *model.Marker:
		return v.RenderMarker(n, d)
	case *model.Atom:
		return v.RenderAtom(n, d)
	default:
		panic("rendertree: unknown document node " + n.doc.Type().String())
	}
}

// children returns the document children of a node in order.
func children(doc model.Node) []model.Node {
	var out []model.Node
	switch d := doc.(type) {
	case *model.Post:
		for s := range d.Sections().All() {
			out = append(out, s)
		}
	case *model.ListSection:
		for s := range d.Items().All() {
			out = append(out, s)
		}
	case model.Markerable:
		for m := range d.Markers().All() {
			out = append(out, m)
		}
	}
	return out
}
