// Package postedit implements transactional mutation of a post.
//
// A PostEditor is created for one transaction. Structural calls such as
// InsertText, DeleteRange or SplitSection mutate the document tree
// immediately and mark the touched nodes dirty. Derived work is deferred to
// three callback queues that Complete drains in order:
//
//   - BeforeComplete: pruning empty lists, joining contiguous lists of the
//     same tag and coalescing markers of every touched section
//   - Complete: re-render and did-update notifications
//   - AfterComplete: applying the final range
//
// A callback may schedule more callbacks into any queue; they still run
// before Complete returns.
//
// Precondition violations (a card where text was expected, a position from
// another post, an interior offset on an atomic unit) return wrapped
// sentinel errors. A failed call may already have mutated the tree; the
// caller must Abort the transaction and treat earlier positions as stale.
// Broken internal invariants panic.
//
// Basic usage:
//
//	pe := postedit.New(post, builder, postedit.WithRange(rng))
//	pos, err := pe.InsertText(rng.Head, "hello")
//	if err != nil {
//		pe.Abort()
//		return err
//	}
//	pe.SetRange(cursor.Collapsed(pos))
//	return pe.Complete()
package postedit
