package history

import (
	"time"

	"github.com/dshills/quire/internal/engine/cursor"
	"github.com/dshills/quire/internal/engine/model"
	"github.com/dshills/quire/internal/engine/postedit"
	"github.com/google/uuid"
)

// Serializer converts posts to and from an opaque byte form.
type Serializer interface {
	Render(post *model.Post) ([]byte, error)
	Parse(b *model.Builder, data []byte) (*model.Post, error)
}

// Selection is a range captured as leaf section indexes and offsets.
type Selection struct {
	HeadIndex  int
	HeadOffset int
	TailIndex  int
	TailOffset int
	Direction  cursor.Direction
}

// CaptureSelection records r by leaf index. A blank range yields nil.
func CaptureSelection(r cursor.Range) *Selection {
	if r.IsBlank() || r.Head.LeafIndex() < 0 || r.Tail.LeafIndex() < 0 {
		return nil
	}
	return &Selection{
		HeadIndex:  r.Head.LeafIndex(),
		HeadOffset: r.Head.Offset(),
		TailIndex:  r.Tail.LeafIndex(),
		TailOffset: r.Tail.Offset(),
		Direction:  r.Direction,
	}
}

// Range maps the selection onto post. Indexes and offsets past the end are
// clamped to the last leaf and its length. It reports false when s is nil
// or post has no leaf sections.
func (s *Selection) Range(post *model.Post) (cursor.Range, bool) {
	if s == nil {
		return cursor.BlankRange(), false
	}
	count := post.LeafCount()
	if count == 0 {
		return cursor.BlankRange(), false
	}
	head := cursor.Clamp(post.LeafSectionAt(min(max(s.HeadIndex, 0), count-1)), s.HeadOffset)
	tail := cursor.Clamp(post.LeafSectionAt(min(max(s.TailIndex, 0), count-1)), s.TailOffset)
	return cursor.NewRange(head, tail, s.Direction), true
}

// Snapshot is one undo step.
type Snapshot struct {
	ID        uuid.UUID
	Data      []byte
	Selection *Selection
	Action    postedit.Action
	TakenAt   time.Time
}

// groupsWith reports whether a transaction tagged action, stored at at,
// extends the undo step that s closes: s was stored by a transaction with
// the same non-empty action less than window before.
func (s *Snapshot) groupsWith(action postedit.Action, at time.Time, window time.Duration) bool {
	if action == postedit.ActionNone {
		return false
	}
	return s.Action == action && at.Sub(s.TakenAt) < window
}

// Info describes a snapshot without its data.
type Info struct {
	ID      uuid.UUID
	Action  postedit.Action
	TakenAt time.Time
}

func (s *Snapshot) info() Info {
	return Info{ID: s.ID, Action: s.Action, TakenAt: s.TakenAt}
}
