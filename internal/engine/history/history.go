package history

import (
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/dshills/quire/internal/engine/cursor"
	"github.com/dshills/quire/internal/engine/model"
	"github.com/dshills/quire/internal/engine/postedit"
	"github.com/google/uuid"
)

// Defaults for a new History.
const (
	DefaultDepth       = 5
	DefaultGroupWindow = 5 * time.Second
)

// History manages the undo and redo stacks of one post.
type History struct {
	mu sync.Mutex

	serializer Serializer
	builder    *model.Builder

	undo    stack
	redo    stack
	pending *Snapshot

	window time.Duration
	now    func() time.Time
	logger *slog.Logger
}

// Option configures a History.
type Option func(*History)

// WithDepth sets the capacity of each stack. Values below one are ignored.
func WithDepth(n int) Option {
	return func(h *History) {
		if n > 0 {
			h.undo.max = n
			h.redo.max = n
		}
	}
}

// WithGroupWindow sets how close in time two snapshots with the same
// action must be to form one undo step.
func WithGroupWindow(d time.Duration) Option {
	return func(h *History) {
		if d >= 0 {
			h.window = d
		}
	}
}

// WithClock sets the time source used to stamp snapshots.
func WithClock(now func() time.Time) Option {
	return func(h *History) {
		if now != nil {
			h.now = now
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(h *History) {
		if l != nil {
			h.logger = l
		}
	}
}

// New creates a history that serializes posts with s. Parsed posts are
// built with b, which must be the builder of the live post.
func New(s Serializer, b *model.Builder, opts ...Option) *History {
	h := &History{
		serializer: s,
		builder:    b,
		undo:       newStack(DefaultDepth),
		redo:       newStack(DefaultDepth),
		window:     DefaultGroupWindow,
		now:        time.Now,
		logger:     slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

func (h *History) take(post *model.Post, rng cursor.Range, action postedit.Action) (*Snapshot, error) {
	if h.serializer == nil {
		return nil, ErrNoSerializer
	}
	data, err := h.serializer.Render(post)
	if err != nil {
		return nil, fmt.Errorf("snapshot post: %w", err)
	}
	return &Snapshot{
		ID:        uuid.New(),
		Data:      data,
		Selection: CaptureSelection(rng),
		Action:    action,
		TakenAt:   h.now(),
	}, nil
}

// Reset clears both stacks and takes the initial pending snapshot.
func (h *History) Reset(post *model.Post, rng cursor.Range) error {
	snap, err := h.take(post, rng, postedit.ActionNone)
	if err != nil {
		return err
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	h.undo.clear()
	h.redo.clear()
	h.pending = snap
	return nil
}

// Snapshot refreshes the selection of the pending snapshot. The engine
// calls it before each transaction, since the cursor may have moved since
// the last one was stored.
func (h *History) Snapshot(rng cursor.Range) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.pending != nil {
		h.pending.Selection = CaptureSelection(rng)
	}
}

// Store records a completed transaction tagged action. The pending
// snapshot is pushed unless the previous transaction had the same action
// and was stored within the grouping window. The redo stack is cleared and
// the post's new state becomes pending. Without a pending snapshot nothing
// is pushed and the redo stack is kept.
func (h *History) Store(post *model.Post, rng cursor.Range, action postedit.Action) error {
	next, err := h.take(post, rng, action)
	if err != nil {
		return err
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	if snap := h.pending; snap != nil {
		if snap.groupsWith(action, next.TakenAt, h.window) {
			h.logger.Debug("grouped undo snapshot", "action", action)
		} else if dropped := h.undo.push(snap); dropped > 0 {
			h.logger.Debug("dropped oldest undo snapshot", "count", dropped)
		}
		h.redo.clear()
	}
	h.pending = next
	return nil
}

// Cancel drops the pending snapshot so the next Store records nothing.
func (h *History) Cancel() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.pending = nil
}

// StepBackward restores the most recent undo snapshot into the post of pe.
// The current state moves to the redo stack.
func (h *History) StepBackward(pe *postedit.PostEditor) error {
	h.mu.Lock()
	snap := h.undo.pop()
	h.mu.Unlock()
	if snap == nil {
		return ErrNothingToUndo
	}
	if err := h.step(pe, snap, &h.redo); err != nil {
		h.mu.Lock()
		h.undo.push(snap)
		h.mu.Unlock()
		return err
	}
	h.logger.Debug("undo", "snapshot", snap.ID, "action", snap.Action)
	return nil
}

// StepForward restores the most recent redo snapshot into the post of pe.
// The current state moves to the undo stack.
func (h *History) StepForward(pe *postedit.PostEditor) error {
	h.mu.Lock()
	snap := h.redo.pop()
	h.mu.Unlock()
	if snap == nil {
		return ErrNothingToRedo
	}
	if err := h.step(pe, snap, &h.undo); err != nil {
		h.mu.Lock()
		h.redo.push(snap)
		h.mu.Unlock()
		return err
	}
	h.logger.Debug("redo", "snapshot", snap.ID, "action", snap.Action)
	return nil
}

// step saves the current state onto opposite and restores snap. The
// pending snapshot is dropped so the restoring transaction is not stored.
func (h *History) step(pe *postedit.PostEditor, snap *Snapshot, opposite *stack) error {
	post := pe.Post()
	current, err := h.take(post, pe.Range(), postedit.ActionNone)
	if err != nil {
		return err
	}
	restored, err := h.serializer.Parse(h.builder, snap.Data)
	if err != nil {
		return fmt.Errorf("restore snapshot %s: %w", snap.ID, err)
	}
	if err := pe.RemoveAllSections(); err != nil {
		return err
	}
	if err := pe.MigrateSectionsFromPost(restored); err != nil {
		return err
	}
	if rng, ok := snap.Selection.Range(post); ok {
		pe.SetRange(rng)
	}

	h.mu.Lock()
	opposite.push(current)
	h.pending = nil
	h.mu.Unlock()
	return nil
}

// CanUndo reports whether an undo step is available.
func (h *History) CanUndo() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.undo.len() > 0
}

// CanRedo reports whether a redo step is available.
func (h *History) CanRedo() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.redo.len() > 0
}

// UndoCount returns the number of undo steps.
func (h *History) UndoCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.undo.len()
}

// RedoCount returns the number of redo steps.
func (h *History) RedoCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.redo.len()
}

// UndoInfo describes the undo stack, oldest first.
func (h *History) UndoInfo() []Info {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.undo.infos()
}

// RedoInfo describes the redo stack, oldest first.
func (h *History) RedoInfo() []Info {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.redo.infos()
}

// PeekUndo describes the next undo step without removing it.
func (h *History) PeekUndo() (Info, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if s := h.undo.top(); s != nil {
		return s.info(), true
	}
	return Info{}, false
}

// Depth returns the capacity of each stack.
func (h *History) Depth() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.undo.max
}

// SetDepth changes the capacity of both stacks, dropping the oldest
// entries that no longer fit. Values below one are ignored.
func (h *History) SetDepth(n int) {
	if n <= 0 {
		return
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	h.undo.max = n
	h.redo.max = n
	h.undo.trim()
	h.redo.trim()
}

// Clear empties both stacks and drops the pending snapshot.
func (h *History) Clear() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.undo.clear()
	h.redo.clear()
	h.pending = nil
}
