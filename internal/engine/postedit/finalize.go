package postedit

import (
	"github.com/dshills/quire/internal/engine/cursor"
	"github.com/dshills/quire/internal/engine/model"
)

// finalize runs once in the BeforeComplete queue of a transaction that
// changed the post.
func (pe *PostEditor) finalize() {
	pe.pruneEmptyLists()
	pe.joinContiguousLists()
	pe.coalesceTouched()
}

// pruneEmptyLists removes every list section that has no items.
func (pe *PostEditor) pruneEmptyLists() {
	for s := range pe.post.Sections().All() {
		if l, ok := s.(*model.ListSection); ok && l.IsBlank() {
			pe.removeSection(l)
			pe.logger.Debug("pruned empty list", "tag", l.Tag())
		}
	}
}

// joinContiguousLists merges runs of adjacent list sections with the same
// tag into the first list of the run. Leaf order and count are unchanged,
// so the range is retargeted by leaf index.
func (pe *PostEditor) joinContiguousLists() {
	var groups [][]*model.ListSection
	var current []*model.ListSection
	var prev *model.ListSection
	for s := range pe.post.Sections().All() {
		l, ok := s.(*model.ListSection)
		if ok && prev != nil && prev.CanJoin(l) {
			if current == nil {
				current = []*model.ListSection{prev}
			}
			current = append(current, l)
		} else if current != nil {
			groups = append(groups, current)
			current = nil
		}
		prev = l
	}
	if current != nil {
		groups = append(groups, current)
	}
	if len(groups) == 0 {
		return
	}

	saved := captureRange(pe.rng)
	for _, group := range groups {
		base := group[0]
		for _, next := range group[1:] {
			added, err := base.Join(next)
			if err != nil {
				panic("postedit: joining lists with the same tag: " + err.Error())
			}
			for _, item := range added {
				pe.touch(item)
			}
			pe.markDirty(base)
			pe.removeSection(next)
		}
		pe.logger.Debug("joined contiguous lists", "tag", base.Tag(), "count", len(group))
	}
	if !pe.rng.IsBlank() {
		pe.rng = saved.restore(pe.post)
	}
}

// coalesceTouched removes blank markers and joins adjacent markers with the
// same markup set in every attached section touched by the transaction.
func (pe *PostEditor) coalesceTouched() {
	for _, s := range pe.touched {
		if postOf(s) != pe.post {
			continue
		}
		pe.coalesceMarkers(s)
	}
}

func (pe *PostEditor) coalesceMarkers(s model.Markerable) {
	for m := range s.Markers().All() {
		if m.IsBlank() {
			pe.removeMarker(m)
		}
	}
	markers := s.Markers()
	for m := markers.Head(); m != nil && m.Next() != nil; {
		next := m.Next()
		a, aok := m.(*model.Marker)
		b, bok := next.(*model.Marker)
		if !aok || !bok || !a.CanJoin(b) {
			m = next
			continue
		}
		joined := a.Join(b)
		markers.InsertBefore(joined, a)
		pe.removeMarker(a)
		pe.removeMarker(b)
		m = joined
	}
	model.MarkDirty(s)
}

// savedRange is a range captured as leaf indexes and offsets.
type savedRange struct {
	headIndex, headOffset int
	tailIndex, tailOffset int
	direction             cursor.Direction
}

func captureRange(r cursor.Range) savedRange {
	return savedRange{
		headIndex:  r.Head.LeafIndex(),
		headOffset: r.Head.Offset(),
		tailIndex:  r.Tail.LeafIndex(),
		tailOffset: r.Tail.Offset(),
		direction:  r.Direction,
	}
}

func (s savedRange) restore(post *model.Post) cursor.Range {
	head := cursor.Clamp(post.LeafSectionAt(s.headIndex), s.headOffset)
	tail := cursor.Clamp(post.LeafSectionAt(s.tailIndex), s.tailOffset)
	if head.IsBlank() || tail.IsBlank() {
		return cursor.Collapsed(cursor.PostHead(post))
	}
	return cursor.NewRange(head, tail, s.direction)
}
