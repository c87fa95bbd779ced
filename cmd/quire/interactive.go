package main

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"github.com/gdamore/tcell/v2"

	"github.com/dshills/quire/internal/engine"
	"github.com/dshills/quire/internal/engine/cursor"
	"github.com/dshills/quire/internal/engine/model"
	"github.com/dshills/quire/internal/engine/postedit"
	"github.com/dshills/quire/internal/format/mobiledoc"
	"github.com/dshills/quire/internal/format/text"
	"github.com/dshills/quire/internal/renderer/backend"
	"github.com/dshills/quire/internal/renderer/rendertree"
)

// reloadRequest is posted to the event loop when the input file changed.
type reloadRequest struct{}

// editor handles key events for a post shown in a terminal view.
type editor struct {
	s       *session
	ctx     context.Context
	e       *engine.Engine
	v       *backend.TerminalView
	message string
}

func (s *session) view(ctx context.Context) error {
	screen, err := tcell.NewScreen()
	if err != nil {
		return fmt.Errorf("create terminal: %w", err)
	}
	return s.viewOn(ctx, screen)
}

// viewOn runs the editing loop on screen until the user quits or ctx ends.
func (s *session) viewOn(ctx context.Context, screen tcell.Screen) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	b := model.NewBuilder()
	post, err := s.read(b)
	if errors.Is(err, fs.ErrNotExist) {
		post, err = b.Post(b.MarkupSection(model.DefaultSectionTag)), nil
	}
	if err != nil {
		return err
	}

	ed := &editor{s: s, ctx: ctx}
	ed.v, err = backend.NewTerminalView(screen,
		backend.WithLogger(s.logger),
		backend.WithCardText(ed.cardText),
		backend.WithAtomText(ed.atomText),
	)
	if err != nil {
		return err
	}
	defer ed.v.Close()

	opts := append(s.cfg.EngineOptions(s.logger, s.registry), engine.WithPost(post, b), engine.WithView(ed.v))
	if ed.e, err = engine.New(opts...); err != nil {
		return err
	}
	ed.e.OnDidRender(func(rendertree.Stats) { ed.draw() })
	ed.e.OnCursorDidChange(func(cursor.Range) { ed.draw() })
	if _, err := ed.e.Render(); err != nil {
		return err
	}

	if s.opts.Watch {
		go func() {
			err := s.watch(ctx, func() {
				_ = screen.PostEvent(tcell.NewEventInterrupt(reloadRequest{}))
			})
			if err != nil && !errors.Is(err, context.Canceled) {
				s.logger.Warn("watch stopped", "error", err)
			}
		}()
	}
	go func() {
		<-ctx.Done()
		_ = screen.PostEvent(tcell.NewEventInterrupt(ctx.Err()))
	}()

	for {
		switch ev := screen.PollEvent().(type) {
		case nil:
			return nil
		case *tcell.EventResize:
			screen.Sync()
			ed.draw()
		case *tcell.EventKey:
			quit, err := ed.handleKey(ev)
			if quit {
				return nil
			}
			ed.report(err)
		case *tcell.EventInterrupt:
			switch data := ev.Data().(type) {
			case reloadRequest:
				ed.report(ed.reload())
			case error:
				return data
			}
		}
	}
}

func (ed *editor) cardText(c *model.CardSection) (string, error) {
	card, err := ed.s.registry.Card(c.Name())
	if err != nil {
		return "", err
	}
	return card.Render(ed.ctx, ed.e.CardEnv(c), c.Payload())
}

func (ed *editor) atomText(a *model.Atom) (string, error) {
	atom, err := ed.s.registry.Atom(a.Name())
	if err != nil {
		return "", err
	}
	return atom.Render(ed.ctx, ed.e.AtomEnv(a), a.Value(), a.Payload())
}

// report shows err on the status line. Empty undo or redo stacks are not
// worth a message.
func (ed *editor) report(err error) {
	if err == nil || errors.Is(err, engine.ErrNothingToUndo) || errors.Is(err, engine.ErrNothingToRedo) {
		return
	}
	ed.s.logger.Warn("edit failed", "error", err)
	ed.message = err.Error()
	ed.draw()
}

func (ed *editor) draw() {
	ed.v.SetStatus(ed.status())
	ed.v.Draw()
	ed.v.ShowCursor(ed.e.Range().Focus())
}

func (ed *editor) status() string {
	if ed.message != "" {
		msg := ed.message
		ed.message = ""
		return msg
	}
	var tags []string
	for _, m := range ed.e.ActiveMarkups() {
		tags = append(tags, string(m.Tag()))
	}
	return fmt.Sprintf(" %s  undo:%d  [%s]  ^S save  ^Q quit",
		displayName(ed.s.opts.In), ed.e.UndoCount(), strings.Join(tags, ","))
}

// handleKey applies one key press. It reports whether the user asked to
// quit.
func (ed *editor) handleKey(ev *tcell.EventKey) (bool, error) {
	e := ed.e
	switch ev.Key() {
	case tcell.KeyCtrlQ, tcell.KeyEscape:
		return true, nil
	case tcell.KeyRune:
		return false, e.InsertText(string(ev.Rune()))
	case tcell.KeyEnter:
		return false, e.SplitAtCursor()
	case tcell.KeyBackspace, tcell.KeyBackspace2:
		return false, e.DeleteAtCursor(cursor.Backward, unitFor(ev))
	case tcell.KeyDelete:
		return false, e.DeleteAtCursor(cursor.Forward, unitFor(ev))
	case tcell.KeyLeft:
		return false, ed.move(ev, cursor.Backward)
	case tcell.KeyRight:
		return false, ed.move(ev, cursor.Forward)
	case tcell.KeyUp:
		return false, ed.moveLine(model.PrevLeaf)
	case tcell.KeyDown:
		return false, ed.moveLine(model.NextLeaf)
	case tcell.KeyHome:
		return false, ed.moveTo(func(p cursor.Position) cursor.Position { return cursor.Head(p.Section()) })
	case tcell.KeyEnd:
		return false, ed.moveTo(func(p cursor.Position) cursor.Position { return cursor.Tail(p.Section()) })
	case tcell.KeyCtrlZ:
		return false, e.Undo()
	case tcell.KeyCtrlY:
		return false, e.Redo()
	case tcell.KeyCtrlB:
		return false, e.ToggleMarkup(model.MarkupStrong, nil)
	case tcell.KeyCtrlE:
		return false, e.ToggleMarkup(model.MarkupEm, nil)
	case tcell.KeyCtrlK:
		return false, e.ToggleMarkup(model.MarkupCode, nil)
	case tcell.KeyCtrlG:
		return false, e.ToggleSection("h2")
	case tcell.KeyCtrlL:
		return false, e.ToggleSection("ul")
	case tcell.KeyCtrlO:
		return false, e.ToggleSection("ol")
	case tcell.KeyCtrlS:
		return false, ed.save()
	}
	return false, nil
}

func unitFor(ev *tcell.EventKey) postedit.Unit {
	if ev.Modifiers()&(tcell.ModAlt|tcell.ModCtrl) != 0 {
		return postedit.UnitWord
	}
	return postedit.UnitChar
}

// move collapses or moves the cursor one unit in dir. Shift extends the
// selection; Ctrl moves by word.
func (ed *editor) move(ev *tcell.EventKey, dir cursor.Direction) error {
	r := ed.e.Range()
	if r.IsBlank() {
		return nil
	}
	switch mods := ev.Modifiers(); {
	case mods&tcell.ModShift != 0:
		r = r.Extend(int(dir))
	case mods&tcell.ModCtrl != 0:
		r = cursor.Collapsed(r.Focus().MoveWord(dir))
	default:
		r = r.Move(dir)
	}
	return ed.e.SelectRange(r)
}

// moveLine moves the cursor to the same offset in the leaf section found
// by next, clamped to its length.
func (ed *editor) moveLine(next func(model.Section) model.Section) error {
	return ed.moveTo(func(p cursor.Position) cursor.Position {
		if s := next(p.Section()); s != nil {
			return cursor.Clamp(s, p.Offset())
		}
		return p
	})
}

func (ed *editor) moveTo(fn func(cursor.Position) cursor.Position) error {
	r := ed.e.Range()
	if r.IsBlank() {
		return nil
	}
	return ed.e.SelectRange(cursor.Collapsed(fn(r.Focus())))
}

// save writes the post back to the input file in its format.
func (ed *editor) save() error {
	path := ed.s.opts.In
	if path == "" {
		return errors.New("no input file to save to")
	}
	var (
		data []byte
		err  error
	)
	switch format := formatOf(path, ed.s.cfg.Editor.Format); format {
	case formatMobiledoc:
		if data, err = ed.e.Serialize(); err == nil {
			data = mobiledoc.Pretty(data)
		}
	case formatText:
		var s string
		if s, err = text.Render(ed.ctx, ed.e.Post(), ed.s.registry); err == nil {
			data = []byte(s + "\n")
		}
	default:
		return fmt.Errorf("cannot save %s files", format)
	}
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return err
	}
	ed.message = "saved " + path
	ed.draw()
	return nil
}

// reload replaces the post with the input file's content as one undoable
// transaction. Content equal to the post is ignored, which covers the
// change event caused by save.
func (ed *editor) reload() error {
	post, err := ed.s.read(ed.e.Builder())
	if err != nil {
		return err
	}
	next, err := mobiledoc.Render(post, mobiledoc.LatestVersion)
	if err != nil {
		return err
	}
	if cur, err := ed.e.Serialize(); err == nil && bytes.Equal(cur, next) {
		return nil
	}
	ed.s.logger.Info("reloading", "path", ed.s.opts.In)
	return ed.e.Run(func(pe *postedit.PostEditor) error {
		if err := pe.RemoveAllSections(); err != nil {
			return err
		}
		return pe.MigrateSectionsFromPost(post)
	})
}
