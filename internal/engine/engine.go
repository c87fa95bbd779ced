package engine

import (
	"fmt"
	"io"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/dshills/quire/internal/engine/cursor"
	"github.com/dshills/quire/internal/engine/history"
	"github.com/dshills/quire/internal/engine/model"
	"github.com/dshills/quire/internal/engine/postedit"
	"github.com/dshills/quire/internal/format/mobiledoc"
	"github.com/dshills/quire/internal/plugin"
	"github.com/dshills/quire/internal/renderer/rendertree"
)

// Engine owns a post and applies edits to it in transactions, keeping the
// undo history and the render tree in step.
//
// Operations are safe to call from multiple goroutines. Hooks run after
// the engine lock is released, so they may call back into the engine.
type Engine struct {
	mu sync.Mutex

	// Core components
	builder  *model.Builder
	post     *model.Post
	rng      cursor.Range
	history  *history.History
	tree     *rendertree.Tree
	view     rendertree.View
	registry *plugin.Registry
	logger   *slog.Logger
	now      func() time.Time

	// Configuration
	undoDepth     int
	undoWindow    time.Duration
	initMobiledoc []byte
	cards         []plugin.Card
	atoms         []plugin.Atom
	unknownCard   plugin.Card
	unknownAtom   plugin.Atom

	// Hooks
	onPostDidChange   []func()
	onCursorDidChange []func(cursor.Range)
	onDidRender       []func(rendertree.Stats)

	// Plugin actions requested while a transaction or render is running.
	busy     atomic.Bool
	deferMu  sync.Mutex
	deferred []func() error

	modesMu sync.Mutex
	modes   map[*model.CardSection]plugin.Mode
}

// New creates an engine. Without WithPost or WithMobiledoc the post holds
// one blank paragraph.
func New(opts ...Option) (*Engine, error) {
	e := &Engine{
		undoDepth:  DefaultUndoDepth,
		undoWindow: DefaultUndoBlockTimeout,
		logger:     slog.New(slog.NewTextHandler(io.Discard, nil)),
		now:        time.Now,
		modes:      make(map[*model.CardSection]plugin.Mode),
	}
	for _, opt := range opts {
		opt(e)
	}

	if e.undoDepth < 0 {
		return nil, fmt.Errorf("undo depth %d: %w", e.undoDepth, ErrInvalidOption)
	}
	if e.undoWindow < 0 {
		return nil, fmt.Errorf("undo block timeout %s: %w", e.undoWindow, ErrInvalidOption)
	}

	switch {
	case e.post != nil && e.initMobiledoc != nil:
		return nil, ErrConflictingContent
	case e.post != nil:
		if e.builder == nil {
			return nil, fmt.Errorf("post without builder: %w", ErrInvalidOption)
		}
	case e.initMobiledoc != nil:
		e.builder = model.NewBuilder()
		post, err := mobiledoc.Parse(e.builder, e.initMobiledoc)
		if err != nil {
			return nil, fmt.Errorf("load mobiledoc: %w", err)
		}
		e.post = post
	default:
		e.builder = model.NewBuilder()
		e.post = e.builder.Post(e.builder.MarkupSection(model.DefaultSectionTag))
	}
	e.initMobiledoc = nil

	if e.registry == nil {
		e.registry = plugin.NewRegistry(plugin.WithLogger(e.logger))
	}
	if e.unknownCard != nil {
		e.registry.SetUnknownCardHandler(e.unknownCard)
	}
	if e.unknownAtom != nil {
		e.registry.SetUnknownAtomHandler(e.unknownAtom)
	}
	if err := e.registry.RegisterCard(e.cards...); err != nil {
		return nil, err
	}
	if err := e.registry.RegisterAtom(e.atoms...); err != nil {
		return nil, err
	}

	e.rng = headRange(e.post)
	if e.undoDepth > 0 {
		e.history = history.New(mobiledoc.Serializer{}, e.builder,
			history.WithDepth(e.undoDepth),
			history.WithGroupWindow(e.undoWindow),
			history.WithClock(e.now),
			history.WithLogger(e.logger),
		)
		if err := e.history.Reset(e.post, e.rng); err != nil {
			return nil, fmt.Errorf("history: %w", err)
		}
	}
	if e.view != nil {
		e.tree = rendertree.New(e.post, rendertree.WithLogger(e.logger))
	}
	return e, nil
}

func headRange(post *model.Post) cursor.Range {
	if post.LeafCount() == 0 {
		return cursor.BlankRange()
	}
	return cursor.Collapsed(cursor.PostHead(post))
}

func tailRange(post *model.Post) cursor.Range {
	if post.LeafCount() == 0 {
		return cursor.BlankRange()
	}
	return cursor.Collapsed(cursor.PostTail(post))
}

// ============================================================================
// Transactions
// ============================================================================

// events records what a transaction did, for the hooks.
type events struct {
	postChanged  bool
	rangeChanged bool
	rendered     bool
	stats        rendertree.Stats
}

// hooks is a copy of the registered hooks taken under the lock.
type hooks struct {
	post   []func()
	cursor []func(cursor.Range)
	render []func(rendertree.Stats)
	rng    cursor.Range
}

func (e *Engine) hooksLocked() hooks {
	return hooks{
		post:   append([]func(){}, e.onPostDidChange...),
		cursor: append([]func(cursor.Range){}, e.onCursorDidChange...),
		render: append([]func(rendertree.Stats){}, e.onDidRender...),
		rng:    e.rng,
	}
}

func (h hooks) fire(ev events) {
	if ev.rendered {
		for _, fn := range h.render {
			fn(ev.stats)
		}
	}
	if ev.postChanged {
		for _, fn := range h.post {
			fn()
		}
	}
	if ev.rangeChanged {
		for _, fn := range h.cursor {
			fn(h.rng)
		}
	}
}

// Run applies fn as one transaction. If fn returns an error the
// transaction is aborted: its callbacks do not run, no undo step is
// stored and the view is not updated. Changes fn already made stay.
//
// fn must not call back into the engine.
func (e *Engine) Run(fn func(pe *postedit.PostEditor) error) error {
	return e.transact(postedit.ActionNone, fn)
}

func (e *Engine) transact(action postedit.Action, fn func(pe *postedit.PostEditor) error) error {
	e.mu.Lock()
	e.busy.Store(true)
	ev, err := e.runLocked(action, fn)
	h := e.hooksLocked()
	e.busy.Store(false)
	e.mu.Unlock()

	h.fire(ev)
	e.drainDeferred()
	return err
}

func (e *Engine) runLocked(action postedit.Action, fn func(pe *postedit.PostEditor) error) (events, error) {
	var (
		ev        events
		renderErr error
	)
	if e.history != nil {
		e.history.Snapshot(e.rng)
	}
	pe := postedit.New(e.post, e.builder,
		postedit.WithRange(e.rng),
		postedit.WithLogger(e.logger),
		postedit.OnRerender(func() {
			ev.stats, ev.rendered, renderErr = e.renderLocked()
		}),
		postedit.OnDidUpdate(func() {
			ev.postChanged = true
		}),
		postedit.OnRange(func(r cursor.Range) {
			if !r.Equal(e.rng) {
				ev.rangeChanged = true
			}
			e.rng = r
		}),
	)
	pe.SetEditAction(action)

	if err := fn(pe); err != nil {
		_ = pe.Abort()
		e.logger.Debug("transaction aborted", "action", action, "error", err)
		return events{}, err
	}
	if err := pe.Complete(); err != nil {
		return ev, err
	}
	if e.fixRangeLocked() {
		ev.rangeChanged = true
	}
	if !pe.Changed() {
		return ev, renderErr
	}

	e.pruneModesLocked()
	if e.history != nil {
		if err := e.history.Store(e.post, e.rng, pe.Action()); err != nil {
			return ev, fmt.Errorf("store undo snapshot: %w", err)
		}
	}
	return ev, renderErr
}

// fixRangeLocked moves a range left in removed sections to the end of the
// post. It reports whether the range changed.
func (e *Engine) fixRangeLocked() bool {
	if e.rng.IsBlank() {
		return false
	}
	if e.inPost(e.rng.Head) && e.inPost(e.rng.Tail) {
		return false
	}
	e.rng = tailRange(e.post)
	return true
}

func (e *Engine) inPost(p cursor.Position) bool {
	return p.Valid() && p.Post() == e.post
}

func (e *Engine) renderLocked() (rendertree.Stats, bool, error) {
	if e.tree == nil {
		return rendertree.Stats{}, false, nil
	}
	stats, err := e.tree.Render(e.view)
	if err != nil {
		return stats, false, fmt.Errorf("render: %w", err)
	}
	return stats, true, nil
}

// Render draws every dirty node on the view. The first call draws the
// whole post.
func (e *Engine) Render() (rendertree.Stats, error) {
	e.mu.Lock()
	if e.tree == nil {
		e.mu.Unlock()
		return rendertree.Stats{}, ErrNoView
	}
	e.busy.Store(true)
	stats, rendered, err := e.renderLocked()
	h := e.hooksLocked()
	e.busy.Store(false)
	e.mu.Unlock()

	h.fire(events{rendered: rendered, stats: stats})
	e.drainDeferred()
	return stats, err
}

// act runs fn now, or after the running transaction when the engine is
// busy, which is the case for plugin actions called during a render.
func (e *Engine) act(fn func() error) error {
	if e.busy.Load() {
		e.deferMu.Lock()
		e.deferred = append(e.deferred, fn)
		e.deferMu.Unlock()
		return nil
	}
	return fn()
}

func (e *Engine) drainDeferred() {
	for {
		e.deferMu.Lock()
		if len(e.deferred) == 0 {
			e.deferMu.Unlock()
			return
		}
		fn := e.deferred[0]
		e.deferred = e.deferred[1:]
		e.deferMu.Unlock()

		if err := fn(); err != nil {
			e.logger.Warn("deferred plugin action failed", "error", err)
		}
	}
}

// ============================================================================
// Editing
// ============================================================================

// collapse deletes the selection and returns the insertion point. Without
// a range the point is the end of the post; a post without leaf sections
// first gets a blank paragraph.
func (e *Engine) collapse(pe *postedit.PostEditor) (cursor.Position, error) {
	r := pe.Range()
	switch {
	case r.IsBlank() && e.post.LeafCount() == 0:
		p := pe.Builder().MarkupSection(model.DefaultSectionTag)
		if err := pe.InsertSectionAtEnd(p); err != nil {
			return cursor.Blank(), err
		}
		return cursor.Head(p), nil
	case r.IsBlank():
		return cursor.PostTail(e.post), nil
	case r.IsCollapsed():
		return r.Head, nil
	}
	pos, err := pe.DeleteRange(r)
	if err != nil {
		return pos, err
	}
	pe.SetRange(cursor.Collapsed(pos))
	return pos, nil
}

// InsertText replaces the selection with text and places the cursor after
// it. Consecutive insertions group into one undo step.
func (e *Engine) InsertText(text string) error {
	return e.transact(postedit.ActionInsertText, func(pe *postedit.PostEditor) error {
		pos, err := e.collapse(pe)
		if err != nil {
			return err
		}
		end, err := pe.InsertText(pos, text)
		if err != nil {
			return err
		}
		pe.SetRange(cursor.Collapsed(end))
		return nil
	})
}

// InsertAtom replaces the selection with an atom.
func (e *Engine) InsertAtom(name, value string, payload map[string]any) error {
	return e.Run(func(pe *postedit.PostEditor) error {
		pos, err := e.collapse(pe)
		if err != nil {
			return err
		}
		end, err := pe.InsertAtom(pos, name, value, payload)
		if err != nil {
			return err
		}
		pe.SetRange(cursor.Collapsed(end))
		return nil
	})
}

// InsertCard replaces the selection with a card section, splitting the
// section at the cursor when needed.
func (e *Engine) InsertCard(name string, payload map[string]any) error {
	return e.Run(func(pe *postedit.PostEditor) error {
		pos, err := e.collapse(pe)
		if err != nil {
			return err
		}
		return pe.InsertSection(pos, pe.Builder().Card(name, payload))
	})
}

// DeleteSelection deletes the selected content. A collapsed selection is
// left alone.
func (e *Engine) DeleteSelection() error {
	return e.transact(postedit.ActionDelete, func(pe *postedit.PostEditor) error {
		if r := pe.Range(); r.IsBlank() || r.IsCollapsed() {
			return nil
		}
		_, err := e.collapse(pe)
		return err
	})
}

// DeleteAtCursor deletes the selection, or one unit in dir from a
// collapsed cursor.
func (e *Engine) DeleteAtCursor(dir cursor.Direction, unit postedit.Unit) error {
	return e.transact(postedit.ActionDelete, func(pe *postedit.PostEditor) error {
		r := pe.Range()
		if r.IsBlank() {
			return nil
		}
		if !r.IsCollapsed() {
			_, err := e.collapse(pe)
			return err
		}
		pos, err := pe.DeleteAtPosition(r.Head, dir, unit)
		if err != nil {
			return err
		}
		pe.SetRange(cursor.Collapsed(pos))
		return nil
	})
}

// ToggleMarkup adds the markup to the selection, or removes markups with
// its tag when the whole selection already has one.
func (e *Engine) ToggleMarkup(tag model.MarkupTag, attrs map[string]string) error {
	return e.Run(func(pe *postedit.PostEditor) error {
		r := pe.Range()
		if r.IsBlank() {
			return nil
		}
		return pe.ToggleMarkup(r, pe.Builder().Markup(tag, attrs))
	})
}

// ToggleSection sets the selected sections to tagName, or back to the
// default paragraph when they all have it already.
func (e *Engine) ToggleSection(tagName string) error {
	return e.Run(func(pe *postedit.PostEditor) error {
		r := pe.Range()
		if r.IsBlank() {
			return nil
		}
		return pe.ToggleSection(r, tagName)
	})
}

// SplitAtCursor deletes the selection and splits the section at the
// cursor, as pressing enter does.
func (e *Engine) SplitAtCursor() error {
	return e.Run(func(pe *postedit.PostEditor) error {
		pos, err := e.collapse(pe)
		if err != nil {
			return err
		}
		_, _, err = pe.SplitSection(pos)
		return err
	})
}

// ============================================================================
// Undo/Redo
// ============================================================================

// Undo restores the state before the last undo step.
func (e *Engine) Undo() error {
	if e.history == nil {
		return ErrNothingToUndo
	}
	return e.transact(postedit.ActionNone, e.history.StepBackward)
}

// Redo reapplies the last undone step.
func (e *Engine) Redo() error {
	if e.history == nil {
		return ErrNothingToRedo
	}
	return e.transact(postedit.ActionNone, e.history.StepForward)
}

// CanUndo reports whether Undo would do anything.
func (e *Engine) CanUndo() bool {
	return e.history != nil && e.history.CanUndo()
}

// CanRedo reports whether Redo would do anything.
func (e *Engine) CanRedo() bool {
	return e.history != nil && e.history.CanRedo()
}

// UndoCount returns the number of undo steps.
func (e *Engine) UndoCount() int {
	if e.history == nil {
		return 0
	}
	return e.history.UndoCount()
}

// ============================================================================
// Selection
// ============================================================================

// Range returns the current selection.
func (e *Engine) Range() cursor.Range {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.rng
}

// SelectRange sets the selection. Both ends must be in the post, unless
// r is blank.
func (e *Engine) SelectRange(r cursor.Range) error {
	e.mu.Lock()
	if !r.IsBlank() && !(e.inPost(r.Head) && e.inPost(r.Tail)) {
		e.mu.Unlock()
		return ErrRangeNotInPost
	}
	changed := !r.Equal(e.rng)
	e.rng = r
	h := e.hooksLocked()
	e.mu.Unlock()

	h.fire(events{rangeChanged: changed})
	return nil
}

// ActiveMarkups returns the markups that text typed at the selection
// would carry, or that every inline in it has.
func (e *Engine) ActiveMarkups() []*model.Markup {
	e.mu.Lock()
	defer e.mu.Unlock()
	return postedit.MarkupsInRange(e.rng)
}

// ============================================================================
// Content
// ============================================================================

// Post returns the engine's post. It must only be changed through Run.
func (e *Engine) Post() *model.Post {
	return e.post
}

// Builder returns the builder the post was built with.
func (e *Engine) Builder() *model.Builder {
	return e.builder
}

// Registry returns the card and atom registry.
func (e *Engine) Registry() *plugin.Registry {
	return e.registry
}

// Text returns the plain text of the post, one line per leaf section.
func (e *Engine) Text() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.post.Text()
}

// Serialize returns the post as a mobiledoc of the latest version.
func (e *Engine) Serialize() ([]byte, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return mobiledoc.Render(e.post, mobiledoc.LatestVersion)
}

// ============================================================================
// Hooks
// ============================================================================

// OnPostDidChange registers fn to run after each transaction that changed
// the post.
func (e *Engine) OnPostDidChange(fn func()) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.onPostDidChange = append(e.onPostDidChange, fn)
}

// OnCursorDidChange registers fn to run when the selection changes.
func (e *Engine) OnCursorDidChange(fn func(cursor.Range)) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.onCursorDidChange = append(e.onCursorDidChange, fn)
}

// OnDidRender registers fn to run after each render.
func (e *Engine) OnDidRender(fn func(rendertree.Stats)) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.onDidRender = append(e.onDidRender, fn)
}
