package main

import (
	"bytes"
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/gdamore/tcell/v2"

	"github.com/dshills/quire/internal/config"
	"github.com/dshills/quire/internal/engine"
	"github.com/dshills/quire/internal/engine/model"
	"github.com/dshills/quire/internal/format/mobiledoc"
	"github.com/dshills/quire/internal/renderer/backend"
)

func TestFormatOf(t *testing.T) {
	tests := []struct {
		path string
		want string
	}{
		{"post.json", formatMobiledoc},
		{"post.MD", formatMarkdown},
		{"notes.txt", formatText},
		{"README", formatText},
		{"", formatText},
	}
	for _, tt := range tests {
		if got := formatOf(tt.path, formatText); got != tt.want {
			t.Errorf("formatOf(%q) = %q, want %q", tt.path, got, tt.want)
		}
	}
}

func TestExecuteConvert(t *testing.T) {
	dir := t.TempDir()
	in := filepath.Join(dir, "post.md")
	if err := os.WriteFile(in, []byte("# Title\n\n- one\n- two\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	noConfig := filepath.Join(dir, "missing.toml")

	t.Run("text", func(t *testing.T) {
		var out bytes.Buffer
		opts := options{ConfigPath: noConfig, In: in, Out: formatText}
		if err := execute(context.Background(), opts, nil, &out, io.Discard); err != nil {
			t.Fatal(err)
		}
		if want := "Title\n* one\n* two\n"; out.String() != want {
			t.Errorf("expected %q, got %q", want, out.String())
		}
	})

	t.Run("mobiledoc", func(t *testing.T) {
		var out bytes.Buffer
		opts := options{ConfigPath: noConfig, In: in, Out: formatMobiledoc, Pretty: true}
		if err := execute(context.Background(), opts, nil, &out, io.Discard); err != nil {
			t.Fatal(err)
		}
		post, err := mobiledoc.Parse(model.NewBuilder(), out.Bytes())
		if err != nil {
			t.Fatalf("output is not a mobiledoc: %v", err)
		}
		if got := post.Text(); got != "Title\none\ntwo" {
			t.Errorf("expected round trip text, got %q", got)
		}
	})

	t.Run("stdin", func(t *testing.T) {
		var out bytes.Buffer
		opts := options{ConfigPath: noConfig, InFormat: formatText, Out: formatText}
		if err := execute(context.Background(), opts, strings.NewReader("a\n* b\n"), &out, io.Discard); err != nil {
			t.Fatal(err)
		}
		if want := "a\n* b\n"; out.String() != want {
			t.Errorf("expected %q, got %q", want, out.String())
		}
	})

	t.Run("markdown output", func(t *testing.T) {
		opts := options{ConfigPath: noConfig, In: in, Out: formatMarkdown}
		if err := execute(context.Background(), opts, nil, io.Discard, io.Discard); err == nil {
			t.Error("expected an error for markdown output")
		}
	})

	t.Run("watch without input", func(t *testing.T) {
		opts := options{ConfigPath: noConfig, Watch: true, InFormat: formatText, Out: formatText}
		if err := execute(context.Background(), opts, strings.NewReader(""), io.Discard, io.Discard); err == nil {
			t.Error("expected an error")
		}
	})
}

func TestLoadConfigOverrides(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte("[editor]\nundo_depth = 2\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	cfg, err := loadConfig(options{ConfigPath: path, LogLevel: "debug"})
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Editor.UndoDepth != 2 || cfg.Logging.Level != "debug" {
		t.Errorf("unexpected config %+v", cfg)
	}
	if _, err := loadConfig(options{ConfigPath: path, LogLevel: "loud"}); err == nil {
		t.Error("expected invalid log level to fail")
	}
}

// newEditor returns an editor over a simulated terminal holding the post
// read from in.
func newEditor(t *testing.T, in string) *editor {
	t.Helper()
	cfg := config.Default()
	logger := cfg.Logger(io.Discard)
	s := &session{
		opts:     options{In: in},
		cfg:      cfg,
		logger:   logger,
		registry: cfg.Registry(logger),
	}

	b := model.NewBuilder()
	post, err := s.read(b)
	if err != nil {
		t.Fatal(err)
	}
	ed := &editor{s: s, ctx: context.Background()}
	ed.v, err = backend.NewTerminalView(tcell.NewSimulationScreen("UTF-8"),
		backend.WithCardText(ed.cardText), backend.WithAtomText(ed.atomText))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(ed.v.Close)

	ed.e, err = engine.New(append(cfg.EngineOptions(logger, s.registry), engine.WithPost(post, b), engine.WithView(ed.v))...)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := ed.e.Render(); err != nil {
		t.Fatal(err)
	}
	return ed
}

func writeTemp(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func press(t *testing.T, ed *editor, keys ...*tcell.EventKey) {
	t.Helper()
	for _, k := range keys {
		quit, err := ed.handleKey(k)
		if err != nil {
			t.Fatalf("key %s: %v", k.Name(), err)
		}
		if quit {
			t.Fatalf("key %s quit", k.Name())
		}
	}
}

func key(k tcell.Key, mod tcell.ModMask) *tcell.EventKey {
	return tcell.NewEventKey(k, 0, mod)
}

func runes(s string) []*tcell.EventKey {
	var keys []*tcell.EventKey
	for _, r := range s {
		keys = append(keys, tcell.NewEventKey(tcell.KeyRune, r, tcell.ModNone))
	}
	return keys
}

func TestHandleKeyEditing(t *testing.T) {
	ed := newEditor(t, writeTemp(t, "post.txt", ""))

	press(t, ed, runes("hello")...)
	press(t, ed, key(tcell.KeyEnter, tcell.ModNone))
	press(t, ed, runes("world")...)
	if got := ed.e.Text(); got != "hello\nworld" {
		t.Fatalf("expected %q, got %q", "hello\nworld", got)
	}

	// Select "ld" and make it bold.
	press(t, ed, key(tcell.KeyLeft, tcell.ModShift), key(tcell.KeyLeft, tcell.ModShift))
	press(t, ed, key(tcell.KeyCtrlB, tcell.ModCtrl))
	if active := ed.e.ActiveMarkups(); len(active) != 1 || active[0].Tag() != model.MarkupStrong {
		t.Errorf("expected strong selection, got %v", active)
	}

	press(t, ed, key(tcell.KeyUp, tcell.ModNone), key(tcell.KeyEnd, tcell.ModNone))
	press(t, ed, key(tcell.KeyBackspace2, tcell.ModNone))
	if got := ed.e.Text(); got != "hell\nworld" {
		t.Errorf("expected %q, got %q", "hell\nworld", got)
	}

	press(t, ed, key(tcell.KeyCtrlG, tcell.ModCtrl))
	if lines := ed.v.Lines(); len(lines) != 2 || lines[0] != "## hell" {
		t.Errorf("expected heading line, got %q", lines)
	}

	quit, err := ed.handleKey(key(tcell.KeyCtrlQ, tcell.ModCtrl))
	if err != nil || !quit {
		t.Errorf("expected quit, got %v, %v", quit, err)
	}
}

func TestHandleKeyUndo(t *testing.T) {
	ed := newEditor(t, writeTemp(t, "post.txt", "abc"))

	press(t, ed, key(tcell.KeyEnd, tcell.ModNone))
	press(t, ed, runes("d")...)
	press(t, ed, key(tcell.KeyCtrlZ, tcell.ModCtrl))
	if got := ed.e.Text(); got != "abc" {
		t.Errorf("expected %q after undo, got %q", "abc", got)
	}
	press(t, ed, key(tcell.KeyCtrlY, tcell.ModCtrl))
	if got := ed.e.Text(); got != "abcd" {
		t.Errorf("expected %q after redo, got %q", "abcd", got)
	}
	if _, err := ed.handleKey(key(tcell.KeyCtrlY, tcell.ModCtrl)); err == nil {
		t.Error("expected nothing to redo")
	}
}

// writeMobiledoc writes a one paragraph mobiledoc holding text to path.
func writeMobiledoc(t *testing.T, path, text string) {
	t.Helper()
	e, err := engine.New()
	if err != nil {
		t.Fatal(err)
	}
	if err := e.InsertText(text); err != nil {
		t.Fatal(err)
	}
	data, err := e.Serialize()
	if err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatal(err)
	}
}

func TestSaveAndReload(t *testing.T) {
	path := writeTemp(t, "post.json", "")
	writeMobiledoc(t, path, "first")

	ed := newEditor(t, path)
	press(t, ed, key(tcell.KeyEnd, tcell.ModNone))
	press(t, ed, runes("!")...)
	if err := ed.save(); err != nil {
		t.Fatal(err)
	}
	saved, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	post, err := mobiledoc.Parse(model.NewBuilder(), saved)
	if err != nil {
		t.Fatal(err)
	}
	if got := post.Text(); got != "first!" {
		t.Fatalf("saved file holds %q", got)
	}

	// Reloading the file just saved changes nothing.
	undo := ed.e.UndoCount()
	if err := ed.reload(); err != nil {
		t.Fatal(err)
	}
	if ed.e.UndoCount() != undo {
		t.Error("reload of unchanged content should not add an undo step")
	}

	writeMobiledoc(t, path, "second")
	if err := ed.reload(); err != nil {
		t.Fatal(err)
	}
	if got := ed.e.Text(); got != "second" {
		t.Errorf("expected reloaded text, got %q", got)
	}
	if err := ed.e.Undo(); err != nil {
		t.Fatal(err)
	}
	if got := ed.e.Text(); got != "first!" {
		t.Errorf("expected undo to restore %q, got %q", "first!", got)
	}
}
