package postedit

import (
	"fmt"
	"io"
	"log/slog"

	"github.com/dshills/quire/internal/engine/cursor"
	"github.com/dshills/quire/internal/engine/model"
)

// Queue identifies one of the callback queues drained by Complete.
type Queue int

const (
	BeforeComplete Queue = iota
	Complete
	AfterComplete

	queueCount = 3
)

// String returns the queue name.
func (q Queue) String() string {
	switch q {
	case BeforeComplete:
		return "before-complete"
	case Complete:
		return "complete"
	case AfterComplete:
		return "after-complete"
	default:
		return fmt.Sprintf("queue(%d)", int(q))
	}
}

// Action tags a transaction for undo grouping.
type Action string

// Edit actions.
const (
	ActionNone       Action = ""
	ActionInsertText Action = "insert-text"
	ActionDelete     Action = "delete"
)

// Unit is the granularity of DeleteAtPosition.
type Unit int

const (
	UnitChar Unit = iota
	UnitWord
)

type state int

const (
	stateActive state = iota
	stateCompleting
	stateCompleted
	stateAborted
)

// PostEditor is a single mutation transaction over a post.
// It is not safe for concurrent use.
type PostEditor struct {
	post    *model.Post
	builder *model.Builder
	logger  *slog.Logger

	state     state
	queues    [queueCount][]func()
	scheduled map[string]bool

	rng      cursor.Range
	rangeSet bool
	action   Action
	changed  bool

	touched   []model.Markerable
	touchedIn map[model.Markerable]bool

	onRerender  func()
	onDidUpdate func()
	onRange     func(cursor.Range)
}

// Option configures a PostEditor.
type Option func(*PostEditor)

// WithRange sets the range active when the transaction begins.
func WithRange(r cursor.Range) Option {
	return func(pe *PostEditor) {
		pe.rng = r
	}
}

// WithLogger sets the logger for finalization diagnostics.
func WithLogger(l *slog.Logger) Option {
	return func(pe *PostEditor) {
		if l != nil {
			pe.logger = l
		}
	}
}

// OnRerender sets the callback run in the Complete queue when the post changed.
func OnRerender(fn func()) Option {
	return func(pe *PostEditor) {
		pe.onRerender = fn
	}
}

// OnDidUpdate sets the callback run in the Complete queue after a re-render.
func OnDidUpdate(fn func()) Option {
	return func(pe *PostEditor) {
		pe.onDidUpdate = fn
	}
}

// OnRange sets the callback that receives the final range in the
// AfterComplete queue. It only runs if SetRange was called.
func OnRange(fn func(cursor.Range)) Option {
	return func(pe *PostEditor) {
		pe.onRange = fn
	}
}

// New begins a transaction over post. Nodes created by the editor come from
// builder, which must be the builder post was built with.
func New(post *model.Post, builder *model.Builder, opts ...Option) *PostEditor {
	pe := &PostEditor{
		post:      post,
		builder:   builder,
		logger:    slog.New(slog.NewTextHandler(io.Discard, nil)),
		scheduled: make(map[string]bool),
		touchedIn: make(map[model.Markerable]bool),
	}
	for _, opt := range opts {
		opt(pe)
	}
	return pe
}

// Post returns the post being edited.
func (pe *PostEditor) Post() *model.Post { return pe.post }

// Builder returns the node factory.
func (pe *PostEditor) Builder() *model.Builder { return pe.builder }

// Range returns the current range.
func (pe *PostEditor) Range() cursor.Range { return pe.rng }

// RangeSet reports whether SetRange was called during the transaction.
func (pe *PostEditor) RangeSet() bool { return pe.rangeSet }

// Action returns the edit action tag.
func (pe *PostEditor) Action() Action { return pe.action }

// Changed reports whether any structural call mutated the post.
func (pe *PostEditor) Changed() bool { return pe.changed }

// Done reports whether the transaction was completed or aborted.
func (pe *PostEditor) Done() bool { return pe.state >= stateCompleted }

// SetEditAction tags the transaction for undo grouping.
func (pe *PostEditor) SetEditAction(a Action) { pe.action = a }

// SetRange sets the range applied when the transaction completes.
func (pe *PostEditor) SetRange(r cursor.Range) {
	pe.rng = r
	pe.rangeSet = true
	pe.scheduleOnce(AfterComplete, "range", func() {
		if pe.onRange != nil {
			pe.onRange(pe.rng)
		}
	})
}

// Schedule adds fn to queue. Callbacks run in scheduling order.
func (pe *PostEditor) Schedule(q Queue, fn func()) error {
	if pe.state >= stateCompleted {
		return ErrAlreadyCompleted
	}
	if q < BeforeComplete || q > AfterComplete {
		return fmt.Errorf("schedule on %s: unknown queue", q)
	}
	pe.queues[q] = append(pe.queues[q], fn)
	return nil
}

// ScheduleOnce adds fn to queue unless a callback with the same key was
// already scheduled in this transaction.
func (pe *PostEditor) ScheduleOnce(q Queue, key string, fn func()) error {
	if pe.state >= stateCompleted {
		return ErrAlreadyCompleted
	}
	pe.scheduleOnce(q, key, fn)
	return nil
}

func (pe *PostEditor) scheduleOnce(q Queue, key string, fn func()) {
	if pe.scheduled[key] {
		return
	}
	pe.scheduled[key] = true
	pe.queues[q] = append(pe.queues[q], fn)
}

// ScheduleRerender schedules the re-render callback.
func (pe *PostEditor) ScheduleRerender() {
	pe.scheduleOnce(Complete, "rerender", func() {
		if pe.onRerender != nil {
			pe.onRerender()
		}
	})
}

// ScheduleDidUpdate schedules the did-update callback.
func (pe *PostEditor) ScheduleDidUpdate() {
	pe.scheduleOnce(Complete, "did-update", func() {
		if pe.onDidUpdate != nil {
			pe.onDidUpdate()
		}
	})
}

// Complete finishes the transaction, draining the callback queues in order.
// Calling it twice returns ErrAlreadyCompleted.
func (pe *PostEditor) Complete() error {
	if pe.state != stateActive {
		return ErrAlreadyCompleted
	}
	pe.state = stateCompleting
	if pe.changed {
		pe.ScheduleRerender()
		pe.ScheduleDidUpdate()
	}
	for {
		fn, ok := pe.next()
		if !ok {
			break
		}
		fn()
	}
	pe.state = stateCompleted
	return nil
}

// next pops the first callback of the lowest non-empty queue.
func (pe *PostEditor) next() (func(), bool) {
	for q := range pe.queues {
		if len(pe.queues[q]) > 0 {
			fn := pe.queues[q][0]
			pe.queues[q] = pe.queues[q][1:]
			return fn, true
		}
	}
	return nil, false
}

// Abort ends the transaction without running any queued callback.
func (pe *PostEditor) Abort() error {
	if pe.state != stateActive {
		return ErrAlreadyCompleted
	}
	pe.state = stateAborted
	for q := range pe.queues {
		pe.queues[q] = nil
	}
	return nil
}

// ============================================================================
// Internal helpers
// ============================================================================

func (pe *PostEditor) checkActive() error {
	if pe.state == stateCompleted || pe.state == stateAborted {
		return ErrAlreadyCompleted
	}
	return nil
}

// checkPosition verifies that pos addresses a leaf section of this post.
func (pe *PostEditor) checkPosition(pos cursor.Position) error {
	if err := pe.checkActive(); err != nil {
		return err
	}
	if !pos.Valid() || pos.Post() != pe.post {
		return fmt.Errorf("%s: %w", pos, ErrInvalidPosition)
	}
	return nil
}

func (pe *PostEditor) checkRange(r cursor.Range) error {
	if err := pe.checkPosition(r.Head); err != nil {
		return err
	}
	return pe.checkPosition(r.Tail)
}

// checkSection verifies that s is attached to this post.
func (pe *PostEditor) checkSection(s model.Section) error {
	if err := pe.checkActive(); err != nil {
		return err
	}
	if s == nil || postOf(s) != pe.post {
		return fmt.Errorf("%v: %w", describe(s), ErrNotInPost)
	}
	return nil
}

func postOf(s model.Section) *model.Post {
	if s == nil {
		return nil
	}
	parent := s.Parent()
	if l, ok := parent.(*model.ListSection); ok {
		parent = l.Parent()
	}
	p, _ := parent.(*model.Post)
	return p
}

func describe(s model.Section) string {
	if s == nil {
		return "nil section"
	}
	return s.Type().String()
}

// markDirty flags n for re-render and, for markerable sections, for
// marker coalescing at completion.
func (pe *PostEditor) markDirty(n model.Node) {
	pe.changed = true
	model.MarkDirty(n)
	switch v := n.(type) {
	case model.Markerable:
		pe.touch(v)
	case model.Inline:
		if s := v.Section(); s != nil {
			pe.touch(s)
		}
	}
	pe.scheduleOnce(BeforeComplete, "finalize", pe.finalize)
}

func (pe *PostEditor) touch(s model.Markerable) {
	if pe.touchedIn[s] {
		return
	}
	pe.touchedIn[s] = true
	pe.touched = append(pe.touched, s)
}

func (pe *PostEditor) scheduleForRemoval(n model.Node) {
	pe.changed = true
	model.ScheduleForRemoval(n)
}
