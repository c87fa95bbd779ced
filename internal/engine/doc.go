// Package engine provides the editing facade for quire posts.
//
// The engine package ties together the document model, the PostEditor
// transactions that change it, the snapshot undo history and the render
// tree that keeps a view in step with the post.
//
// # Architecture
//
// The engine is built on several sub-packages:
//
//   - linked: owner-aware doubly linked lists used for every child list
//   - model: posts, sections, markers, atoms, markups and the Builder
//   - cursor: positions, ranges and grapheme-aware movement
//   - postedit: the PostEditor transaction and its callback queues
//   - history: undo and redo stacks of serialized snapshots
//
// # Transactions
//
// Every change goes through Run, which opens a PostEditor on the post,
// runs the callback and completes the editor. Completion coalesces the
// touched sections, re-renders dirty nodes, applies the new range and
// records an undo step:
//
//	err := e.Run(func(pe *postedit.PostEditor) error {
//		pos, err := pe.InsertText(e.Range().Head, "hello")
//		if err != nil {
//			return err
//		}
//		pe.SetRange(cursor.Collapsed(pos))
//		return nil
//	})
//
// If the callback fails the transaction is aborted: no queued callback
// runs and nothing is stored. Changes already made are not rolled back.
//
// The convenience methods (InsertText, DeleteAtCursor, ToggleMarkup and
// the rest) are single transactions over the current selection.
//
// # Undo and Redo
//
// Each stored transaction pushes the state before it onto the undo stack,
// unless it has the same action as the previous one and follows it within
// the undo block timeout; consecutive typing is undone as one step.
//
//	e.InsertText("a")
//	e.InsertText("b")
//	e.Undo() // removes "ab"
//
// # Cards and Atoms
//
// Cards and atoms are rendered by plugins found in the registry. CardEnv
// and AtomEnv give a plugin its environment, whose Save and Remove
// actions edit the post. Actions requested during a render are queued
// and run after it.
//
// # Thread Safety
//
// All Engine operations are serialized by a mutex. Hooks registered with
// OnPostDidChange, OnCursorDidChange and OnDidRender run after the mutex
// is released.
package engine
