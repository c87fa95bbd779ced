// Package backend provides the tcell terminal view of a document.
//
// TerminalView implements rendertree.View. Render calls store a block or
// span in each render node's handle; Draw lays the render tree out as one
// line per leaf section and paints it on a tcell.Screen:
//
//	screen, _ := tcell.NewScreen()
//	view, _ := backend.NewTerminalView(screen)
//	tree := rendertree.New(post)
//	tree.Render(view)
//	view.Draw()
//
// Tests use tcell.NewSimulationScreen.
package backend
