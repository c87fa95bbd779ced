// Package history provides snapshot-based undo/redo for the document engine.
//
// Each undo step is a full serialized copy of the post, produced by a
// Serializer, plus the selection captured as leaf section indexes and
// offsets. Restoring a step parses the copy into fresh sections, moves them
// into the live post through a PostEditor and retargets the selection by
// index, since none of the old section objects survive.
//
// # Snapshot lifecycle
//
// A pending snapshot holds the state after the last stored transaction:
//
//	h.Reset(post, rng)            // initial pending snapshot
//
//	h.Snapshot(rng)               // before a transaction: refresh selection
//	// ... run the transaction ...
//	h.Store(post, rng, action)    // push pending, take a new one
//
// Store pushes the pending snapshot unless it groups with the transaction
// being stored: the transaction that produced it carried the same non-empty
// action and finished within the grouping window. Rapid typing therefore undoes as one
// step while a delete after an insert undoes separately.
//
// # Undo and redo
//
// StepBackward and StepForward run inside a transaction. Each pops a
// snapshot, pushes the current state on the opposite stack and replaces
// the post's sections with the parsed copy. Both drop the pending
// snapshot so that the restoring transaction is not itself recorded.
package history
