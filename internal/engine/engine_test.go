package engine

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/dshills/quire/internal/engine/cursor"
	"github.com/dshills/quire/internal/engine/model"
	"github.com/dshills/quire/internal/engine/postedit"
	"github.com/dshills/quire/internal/format/mobiledoc"
	"github.com/dshills/quire/internal/plugin"
	"github.com/dshills/quire/internal/renderer/rendertree"
)

// countingView records how many nodes of each kind were rendered.
type countingView struct {
	rendered  int
	destroyed int
	onCard    func(c *model.CardSection)
}

func (v *countingView) rec() error { v.rendered++; return nil }

func (v *countingView) RenderPost(*rendertree.Node, *model.Post) error                   { return v.rec() }
func (v *countingView) RenderMarkupSection(*rendertree.Node, *model.MarkupSection) error { return v.rec() }
func (v *countingView) RenderListSection(*rendertree.Node, *model.ListSection) error     { return v.rec() }
func (v *countingView) RenderListItem(*rendertree.Node, *model.ListItem) error           { return v.rec() }
func (v *countingView) RenderImageSection(*rendertree.Node, *model.ImageSection) error   { return v.rec() }
func (v *countingView) RenderMarker(*rendertree.Node, *model.Marker) error               { return v.rec() }
func (v *countingView) RenderAtom(*rendertree.Node, *model.Atom) error                   { return v.rec() }
func (v *countingView) Destroy(*rendertree.Node)                                         { v.destroyed++ }

func (v *countingView) RenderCardSection(_ *rendertree.Node, c *model.CardSection) error {
	if v.onCard != nil {
		v.onCard(c)
	}
	return v.rec()
}

// newText returns an engine holding one paragraph per text.
func newText(t *testing.T, texts []string, opts ...Option) *Engine {
	t.Helper()
	b := model.NewBuilder()
	var sections []model.Section
	for _, s := range texts {
		var inlines []model.Inline
		if s != "" {
			inlines = append(inlines, b.Marker(s))
		}
		sections = append(sections, b.MarkupSection(model.TagP, inlines...))
	}
	e, err := New(append([]Option{WithPost(b.Post(sections...), b)}, opts...)...)
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}
	return e
}

func selectRange(t *testing.T, e *Engine, head, tail cursor.Position) {
	t.Helper()
	if err := e.SelectRange(cursor.NewRange(head, tail, cursor.Forward)); err != nil {
		t.Fatalf("SelectRange() error: %v", err)
	}
}

func firstCard(e *Engine) *model.CardSection {
	for s := range e.Post().Sections().All() {
		if c, ok := s.(*model.CardSection); ok {
			return c
		}
	}
	return nil
}

// ============================================================================
// Creation
// ============================================================================

func TestNew(t *testing.T) {
	e, err := New()
	if err != nil {
		t.Fatal(err)
	}
	if e.Text() != "" {
		t.Errorf("expected empty text, got %q", e.Text())
	}
	if n := e.Post().LeafCount(); n != 1 {
		t.Errorf("expected one blank section, got %d", n)
	}
	if r := e.Range(); !r.IsCollapsed() || !r.Head.IsHeadOfPost() {
		t.Errorf("expected cursor at head of post, got %s", r)
	}
}

func TestNewErrors(t *testing.T) {
	b := model.NewBuilder()
	post := b.Post(b.MarkupSection(model.TagP))

	tests := []struct {
		name string
		opts []Option
		err  error
	}{
		{"negative undo depth", []Option{WithUndoDepth(-1)}, ErrInvalidOption},
		{"negative block timeout", []Option{WithUndoBlockTimeout(-time.Second)}, ErrInvalidOption},
		{"post and mobiledoc", []Option{WithPost(post, b), WithMobiledoc([]byte(`{}`))}, ErrConflictingContent},
		{"post without builder", []Option{WithPost(post, nil)}, ErrInvalidOption},
		{"bad mobiledoc", []Option{WithMobiledoc([]byte(`{"version":"9.9.9"}`))}, mobiledoc.ErrUnsupportedVersion},
		{
			"duplicate card",
			[]Option{WithCards(plugin.CardFunc("hr", nil), plugin.CardFunc("hr", nil))},
			plugin.ErrAlreadyRegistered,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(tt.opts...)
			if !errors.Is(err, tt.err) {
				t.Errorf("expected %v, got %v", tt.err, err)
			}
		})
	}
}

func TestNewWithMobiledoc(t *testing.T) {
	src := newText(t, []string{"one", "two"})
	data, err := src.Serialize()
	if err != nil {
		t.Fatal(err)
	}

	e, err := New(WithMobiledoc(data))
	if err != nil {
		t.Fatal(err)
	}
	if got := e.Text(); got != "one\ntwo" {
		t.Errorf("expected %q, got %q", "one\ntwo", got)
	}
}

// ============================================================================
// Editing
// ============================================================================

func TestInsertText(t *testing.T) {
	e, _ := New()
	if err := e.InsertText("Hello"); err != nil {
		t.Fatal(err)
	}
	if err := e.InsertText(", World!"); err != nil {
		t.Fatal(err)
	}
	if got := e.Text(); got != "Hello, World!" {
		t.Errorf("expected %q, got %q", "Hello, World!", got)
	}
	if off := e.Range().Head.Offset(); off != 13 {
		t.Errorf("expected cursor at 13, got %d", off)
	}
}

func TestInsertTextReplacesSelection(t *testing.T) {
	e := newText(t, []string{"abc", "def"})
	first := e.Post().FirstLeaf()
	selectRange(t, e, cursor.At(first, 1), cursor.At(first.Next(), 2))

	if err := e.InsertText("X"); err != nil {
		t.Fatal(err)
	}
	if got := e.Text(); got != "aXf" {
		t.Errorf("expected %q, got %q", "aXf", got)
	}
}

func TestInsertIntoEmptyPost(t *testing.T) {
	b := model.NewBuilder()
	e, err := New(WithPost(b.Post(), b))
	if err != nil {
		t.Fatal(err)
	}
	if !e.Range().IsBlank() {
		t.Fatalf("expected blank range, got %s", e.Range())
	}
	if err := e.InsertText("hi"); err != nil {
		t.Fatal(err)
	}
	if got := e.Text(); got != "hi" {
		t.Errorf("expected %q, got %q", "hi", got)
	}
}

func TestDeleteAtCursor(t *testing.T) {
	tests := []struct {
		name   string
		offset int
		dir    cursor.Direction
		unit   postedit.Unit
		want   string
	}{
		{"backward char", 11, cursor.Backward, postedit.UnitChar, "hello worl"},
		{"forward char", 0, cursor.Forward, postedit.UnitChar, "ello world"},
		{"backward word", 11, cursor.Backward, postedit.UnitWord, "hello "},
		{"at head of post", 0, cursor.Backward, postedit.UnitChar, "hello world"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := newText(t, []string{"hello world"})
			pos := cursor.At(e.Post().FirstLeaf(), tt.offset)
			selectRange(t, e, pos, pos)

			if err := e.DeleteAtCursor(tt.dir, tt.unit); err != nil {
				t.Fatal(err)
			}
			if got := e.Text(); got != tt.want {
				t.Errorf("expected %q, got %q", tt.want, got)
			}
		})
	}
}

func TestDeleteSelection(t *testing.T) {
	e := newText(t, []string{"abc", "def"})
	first := e.Post().FirstLeaf()
	selectRange(t, e, cursor.At(first, 2), cursor.At(first.Next(), 1))

	if err := e.DeleteSelection(); err != nil {
		t.Fatal(err)
	}
	if got := e.Text(); got != "abef" {
		t.Errorf("expected %q, got %q", "abef", got)
	}
	if r := e.Range(); !r.IsCollapsed() || r.Head.Offset() != 2 {
		t.Errorf("expected cursor at 2, got %s", r)
	}

	// A collapsed selection deletes nothing.
	if err := e.DeleteSelection(); err != nil {
		t.Fatal(err)
	}
	if got := e.Text(); got != "abef" {
		t.Errorf("expected %q, got %q", "abef", got)
	}
}

func TestToggleMarkup(t *testing.T) {
	e := newText(t, []string{"abc"})
	s := e.Post().FirstLeaf()
	selectRange(t, e, cursor.Head(s), cursor.Tail(s))

	if err := e.ToggleMarkup(model.MarkupStrong, nil); err != nil {
		t.Fatal(err)
	}
	active := e.ActiveMarkups()
	if len(active) != 1 || active[0].Tag() != model.MarkupStrong {
		t.Fatalf("expected strong to be active, got %v", active)
	}

	if err := e.ToggleMarkup(model.MarkupStrong, nil); err != nil {
		t.Fatal(err)
	}
	if active := e.ActiveMarkups(); len(active) != 0 {
		t.Errorf("expected no active markups, got %v", active)
	}
}

func TestToggleSection(t *testing.T) {
	e := newText(t, []string{"title"})

	if err := e.ToggleSection("h2"); err != nil {
		t.Fatal(err)
	}
	if tag := e.Post().FirstLeaf().(model.Markerable).TagName(); tag != "h2" {
		t.Errorf("expected h2, got %s", tag)
	}
	if err := e.ToggleSection("h2"); err != nil {
		t.Fatal(err)
	}
	if tag := e.Post().FirstLeaf().(model.Markerable).TagName(); tag != "p" {
		t.Errorf("expected p, got %s", tag)
	}
	if err := e.ToggleSection("marquee"); !errors.Is(err, model.ErrInvalidTag) {
		t.Errorf("expected ErrInvalidTag, got %v", err)
	}
}

func TestSplitAtCursor(t *testing.T) {
	e := newText(t, []string{"abcd"})
	pos := cursor.At(e.Post().FirstLeaf(), 2)
	selectRange(t, e, pos, pos)

	if err := e.SplitAtCursor(); err != nil {
		t.Fatal(err)
	}
	if got := e.Text(); got != "ab\ncd" {
		t.Errorf("expected %q, got %q", "ab\ncd", got)
	}
	if r := e.Range(); r.Head.LeafIndex() != 1 || r.Head.Offset() != 0 {
		t.Errorf("expected cursor at head of second section, got %s", r)
	}
}

func TestRunAbort(t *testing.T) {
	e := newText(t, []string{"abc"})
	changes := 0
	e.OnPostDidChange(func() { changes++ })

	boom := errors.New("boom")
	err := e.Run(func(pe *postedit.PostEditor) error {
		if _, err := pe.InsertText(cursor.Head(e.Post().FirstLeaf()), "x"); err != nil {
			return err
		}
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("expected boom, got %v", err)
	}
	if changes != 0 {
		t.Errorf("aborted transaction should not notify, got %d", changes)
	}
	if e.CanUndo() {
		t.Error("aborted transaction should not store an undo step")
	}
}

// ============================================================================
// Undo/Redo
// ============================================================================

func TestUndoRedo(t *testing.T) {
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	e, _ := New(WithClock(func() time.Time { return now }), WithUndoBlockTimeout(time.Second))

	e.InsertText("a")
	e.InsertText("b")
	now = now.Add(2 * time.Second)
	e.InsertText("c")

	if n := e.UndoCount(); n != 2 {
		t.Fatalf("expected 2 undo steps, got %d", n)
	}
	if err := e.Undo(); err != nil {
		t.Fatal(err)
	}
	if got := e.Text(); got != "ab" {
		t.Errorf("expected %q after first undo, got %q", "ab", got)
	}
	if err := e.Undo(); err != nil {
		t.Fatal(err)
	}
	if got := e.Text(); got != "" {
		t.Errorf("expected empty text after second undo, got %q", got)
	}
	if err := e.Undo(); !errors.Is(err, ErrNothingToUndo) {
		t.Errorf("expected ErrNothingToUndo, got %v", err)
	}

	if err := e.Redo(); err != nil {
		t.Fatal(err)
	}
	if got := e.Text(); got != "ab" {
		t.Errorf("expected %q after redo, got %q", "ab", got)
	}
	if off := e.Range().Head.Offset(); off != 2 {
		t.Errorf("expected cursor restored at 2, got %d", off)
	}

	// A new edit clears the redo stack.
	e.InsertText("z")
	if e.CanRedo() {
		t.Error("expected redo stack to be cleared")
	}
	if err := e.Redo(); !errors.Is(err, ErrNothingToRedo) {
		t.Errorf("expected ErrNothingToRedo, got %v", err)
	}
}

func TestUndoDisabled(t *testing.T) {
	e, err := New(WithUndoDepth(0))
	if err != nil {
		t.Fatal(err)
	}
	e.InsertText("a")
	if e.CanUndo() {
		t.Error("undo should be disabled")
	}
	if err := e.Undo(); !errors.Is(err, ErrNothingToUndo) {
		t.Errorf("expected ErrNothingToUndo, got %v", err)
	}
}

// ============================================================================
// Selection and hooks
// ============================================================================

func TestSelectRangeOutsidePost(t *testing.T) {
	e := newText(t, []string{"abc"})
	other := model.NewBuilder()
	detached := other.MarkupSection(model.TagP, other.Marker("x"))
	other.Post(detached)

	err := e.SelectRange(cursor.Collapsed(cursor.Head(detached)))
	if !errors.Is(err, ErrRangeNotInPost) {
		t.Errorf("expected ErrRangeNotInPost, got %v", err)
	}
	if err := e.SelectRange(cursor.BlankRange()); err != nil {
		t.Errorf("blank range should be accepted: %v", err)
	}
}

func TestHooks(t *testing.T) {
	view := &countingView{}
	e := newText(t, []string{"abc"}, WithView(view))

	var (
		changes int
		ranges  []cursor.Range
		renders []rendertree.Stats
	)
	e.OnPostDidChange(func() { changes++ })
	e.OnCursorDidChange(func(r cursor.Range) {
		ranges = append(ranges, r)
		// Hooks run outside the lock.
		_ = e.Range()
	})
	e.OnDidRender(func(s rendertree.Stats) { renders = append(renders, s) })

	if _, err := e.Render(); err != nil {
		t.Fatal(err)
	}
	if len(renders) != 1 || renders[0].Visited == 0 {
		t.Fatalf("expected one full render, got %v", renders)
	}

	if err := e.InsertText("d"); err != nil {
		t.Fatal(err)
	}
	if changes != 1 {
		t.Errorf("expected 1 change, got %d", changes)
	}
	if len(ranges) != 1 || ranges[0].Head.Offset() != 1 {
		t.Errorf("expected cursor hook at offset 1, got %v", ranges)
	}
	if len(renders) != 2 {
		t.Errorf("expected a render after the edit, got %d", len(renders))
	}

	pos := cursor.At(e.Post().FirstLeaf(), 3)
	selectRange(t, e, pos, pos)
	selectRange(t, e, pos, pos)
	if len(ranges) != 2 {
		t.Errorf("selecting the same range twice should notify once, got %d", len(ranges))
	}
}

func TestRenderWithoutView(t *testing.T) {
	e, _ := New()
	if _, err := e.Render(); !errors.Is(err, ErrNoView) {
		t.Errorf("expected ErrNoView, got %v", err)
	}
}

// ============================================================================
// Plugins
// ============================================================================

func TestCardEnv(t *testing.T) {
	e := newText(t, []string{"abc"})
	pos := cursor.Tail(e.Post().FirstLeaf())
	selectRange(t, e, pos, pos)

	if err := e.InsertCard("chart", map[string]any{"n": 1}); err != nil {
		t.Fatal(err)
	}
	card := firstCard(e)
	if card == nil {
		t.Fatal("card not inserted")
	}
	env := e.CardEnv(card)
	if env.Name() != "chart" || env.Mode() != plugin.ModeDisplay {
		t.Errorf("unexpected env %s/%s", env.Name(), env.Mode())
	}

	if err := env.Save(map[string]any{"n": 2}); err != nil {
		t.Fatal(err)
	}
	if got := firstCard(e).Payload()["n"]; got != 2 {
		t.Errorf("expected saved payload, got %v", got)
	}

	if err := env.Edit(); err != nil {
		t.Fatal(err)
	}
	if m := e.CardMode(firstCard(e)); m != plugin.ModeEdit {
		t.Errorf("expected edit mode, got %s", m)
	}

	if err := env.Remove(); err != nil {
		t.Fatal(err)
	}
	if firstCard(e) != nil {
		t.Error("card should be removed")
	}
	if err := env.Remove(); !errors.Is(err, ErrCardRemoved) {
		t.Errorf("expected ErrCardRemoved, got %v", err)
	}
	if err := e.Undo(); err != nil {
		t.Fatal(err)
	}
	if firstCard(e) == nil {
		t.Error("undo should restore the card")
	}
}

func TestRemoveOnlyCard(t *testing.T) {
	b := model.NewBuilder()
	card := b.Card("hr", nil)
	e, err := New(WithPost(b.Post(card), b))
	if err != nil {
		t.Fatal(err)
	}
	if err := e.CardEnv(card).Remove(); err != nil {
		t.Fatal(err)
	}
	leaf := e.Post().FirstLeaf()
	if _, ok := leaf.(*model.MarkupSection); !ok || !leaf.IsBlank() {
		t.Errorf("expected a blank paragraph, got %v", leaf)
	}
	if r := e.Range(); r.Head.Section() != leaf {
		t.Errorf("expected cursor in the paragraph, got %s", r)
	}
}

func TestAtomEnv(t *testing.T) {
	e := newText(t, []string{"hi "})
	pos := cursor.Tail(e.Post().FirstLeaf())
	selectRange(t, e, pos, pos)

	if err := e.InsertAtom("mention", "bob", map[string]any{"id": 1}); err != nil {
		t.Fatal(err)
	}
	atom := func() *model.Atom {
		for m := range e.Post().FirstLeaf().(model.Markerable).Markers().All() {
			if a, ok := m.(*model.Atom); ok {
				return a
			}
		}
		return nil
	}
	env := e.AtomEnv(atom())
	if err := env.Save(map[string]any{"id": 2}); err != nil {
		t.Fatal(err)
	}
	if got := atom().Payload()["id"]; got != 2 {
		t.Errorf("expected saved payload, got %v", got)
	}
	if err := env.Remove(); err != nil {
		t.Fatal(err)
	}
	if atom() != nil {
		t.Error("atom should be removed")
	}
	if got := e.Text(); got != "hi " {
		t.Errorf("expected %q, got %q", "hi ", got)
	}
}

func TestPluginActionDuringRenderIsDeferred(t *testing.T) {
	view := &countingView{}
	b := model.NewBuilder()
	e, err := New(WithPost(b.Post(b.Card("counter", nil)), b), WithView(view))
	if err != nil {
		t.Fatal(err)
	}
	view.onCard = func(c *model.CardSection) {
		if _, seen := c.Payload()["seen"]; seen {
			return
		}
		if err := e.CardEnv(c).Save(map[string]any{"seen": true}); err != nil {
			t.Errorf("Save() during render: %v", err)
		}
	}

	if _, err := e.Render(); err != nil {
		t.Fatal(err)
	}
	if _, seen := firstCard(e).Payload()["seen"]; !seen {
		t.Error("deferred save should have run after the render")
	}
	if view.destroyed == 0 {
		t.Error("replaced card should have been destroyed")
	}
}

func TestRegistryOptions(t *testing.T) {
	hr := plugin.CardFunc("hr", nil)
	fallback := plugin.AtomFunc("", nil)
	e, err := New(WithCards(hr), WithUnknownAtomHandler(fallback))
	if err != nil {
		t.Fatal(err)
	}
	if !e.Registry().HasCard("hr") {
		t.Error("card not registered")
	}
	if a, err := e.Registry().Atom("anything"); err != nil || a != fallback {
		t.Errorf("expected fallback atom, got %v, %v", a, err)
	}
}

// ============================================================================
// Thread Safety
// ============================================================================

func TestConcurrentInsert(t *testing.T) {
	e, _ := New()
	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := e.InsertText("x"); err != nil {
				t.Error(err)
			}
		}()
	}
	wg.Wait()
	if got := e.Text(); got != "xxxxxxxxxx" {
		t.Errorf("expected 10 x, got %q", got)
	}
}
