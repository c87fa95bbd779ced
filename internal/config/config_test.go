package config

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
	"testing/fstest"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dshills/quire/internal/engine"
	"github.com/dshills/quire/internal/plugin"
)

func TestDefaultIsValid(t *testing.T) {
	require.NoError(t, Default().Validate())
}

func TestLoad(t *testing.T) {
	fsys := fstest.MapFS{
		"config.toml": {Data: []byte(`
[editor]
undo_depth = 20
undo_block_timeout = "250ms"
unknown_atom = "error"

[plugins]
dir = "plugins"
timeout = "2s"

[logging]
level = "debug"
format = "json"
`)},
		"config.yaml": {Data: []byte(`
editor:
  undo_depth: 3
  format: markdown
plugins:
  timeout: 100ms
`)},
		"empty.yml": {Data: []byte("")},
	}

	t.Run("toml", func(t *testing.T) {
		cfg, err := Load(fsys, "config.toml")
		require.NoError(t, err)
		assert.Equal(t, 20, cfg.Editor.UndoDepth)
		assert.Equal(t, 250*time.Millisecond, cfg.Editor.UndoBlockTimeout.Std())
		assert.Equal(t, UnknownPlaceholder, cfg.Editor.UnknownCard)
		assert.Equal(t, UnknownError, cfg.Editor.UnknownAtom)
		assert.Equal(t, "plugins", cfg.Plugins.Dir)
		assert.Equal(t, 2*time.Second, cfg.Plugins.Timeout.Std())
		assert.Equal(t, LoggingConfig{Level: "debug", Format: "json"}, cfg.Logging)
	})

	t.Run("yaml", func(t *testing.T) {
		cfg, err := Load(fsys, "config.yaml")
		require.NoError(t, err)
		assert.Equal(t, 3, cfg.Editor.UndoDepth)
		assert.Equal(t, "markdown", cfg.Editor.Format)
		assert.Equal(t, 100*time.Millisecond, cfg.Plugins.Timeout.Std())
		assert.Equal(t, Default().Editor.UndoBlockTimeout, cfg.Editor.UndoBlockTimeout)
	})

	t.Run("empty yaml", func(t *testing.T) {
		cfg, err := Load(fsys, "empty.yml")
		require.NoError(t, err)
		assert.Equal(t, Default(), cfg)
	})

	t.Run("missing file", func(t *testing.T) {
		cfg, err := Load(fsys, "nope.toml")
		require.NoError(t, err)
		assert.Equal(t, Default(), cfg)
	})
}

func TestLoadErrors(t *testing.T) {
	fsys := fstest.MapFS{
		"syntax.toml":  {Data: []byte("[editor\nundo_depth = 1\n")},
		"unknown.toml": {Data: []byte("[editor]\ncolor = \"red\"\n")},
		"unknown.yaml": {Data: []byte("editor:\n  color: red\n")},
		"invalid.toml": {Data: []byte("[editor]\nundo_depth = -1\nformat = \"rtf\"\n")},
		"config.ini":   {Data: []byte("x=1")},
	}

	t.Run("syntax error has position", func(t *testing.T) {
		_, err := Load(fsys, "syntax.toml")
		var pe *ParseError
		require.ErrorAs(t, err, &pe)
		assert.Equal(t, "syntax.toml", pe.Path)
		assert.Positive(t, pe.Line)
	})

	t.Run("unknown toml key", func(t *testing.T) {
		_, err := Load(fsys, "unknown.toml")
		var pe *ParseError
		require.ErrorAs(t, err, &pe)
		assert.Contains(t, pe.Message, "color")
		assert.Equal(t, 2, pe.Line)
	})

	t.Run("unknown yaml key", func(t *testing.T) {
		_, err := Load(fsys, "unknown.yaml")
		var pe *ParseError
		require.ErrorAs(t, err, &pe)
		assert.Contains(t, pe.Error(), "color")
	})

	t.Run("invalid values", func(t *testing.T) {
		_, err := Load(fsys, "invalid.toml")
		require.ErrorIs(t, err, ErrValidationFailed)
		assert.Contains(t, err.Error(), "editor.undo_depth")
		assert.Contains(t, err.Error(), "editor.format")
	})

	t.Run("unknown format", func(t *testing.T) {
		_, err := Load(fsys, "config.ini")
		assert.ErrorIs(t, err, ErrUnknownFormat)
	})
}

func TestApplyEnv(t *testing.T) {
	env := map[string]string{
		"QUIRE_UNDO_DEPTH":         "9",
		"QUIRE_UNDO_BLOCK_TIMEOUT": "1s",
		"QUIRE_PLUGIN_DIR":         "/tmp/p",
		"QUIRE_LOG_LEVEL":          "warn",
	}
	lookup := func(k string) (string, bool) {
		v, ok := env[k]
		return v, ok
	}

	cfg := Default()
	require.NoError(t, cfg.ApplyEnv(lookup))
	assert.Equal(t, 9, cfg.Editor.UndoDepth)
	assert.Equal(t, time.Second, cfg.Editor.UndoBlockTimeout.Std())
	assert.Equal(t, "/tmp/p", cfg.Plugins.Dir)
	assert.Equal(t, "warn", cfg.Logging.Level)
	assert.Equal(t, "text", cfg.Logging.Format)

	env["QUIRE_UNDO_DEPTH"] = "many"
	assert.Error(t, Default().ApplyEnv(lookup))

	env["QUIRE_UNDO_DEPTH"] = "1"
	env["QUIRE_LOG_FORMAT"] = "xml"
	assert.ErrorIs(t, Default().ApplyEnv(lookup), ErrValidationFailed)
}

func TestLogger(t *testing.T) {
	var buf bytes.Buffer
	cfg := Default()
	cfg.Logging = LoggingConfig{Level: "warn", Format: "json"}
	logger := cfg.Logger(&buf)

	logger.Info("hidden")
	logger.Warn("shown", "k", 1)
	out := buf.String()
	assert.NotContains(t, out, "hidden")
	assert.True(t, strings.HasPrefix(out, "{"), out)
	assert.Contains(t, out, `"k":1`)
}

func TestRegistry(t *testing.T) {
	ctx := context.Background()
	logger := Default().Logger(&bytes.Buffer{})

	cfg := Default()
	r := cfg.Registry(logger)
	card, err := r.Card("chart")
	require.NoError(t, err)
	got, err := card.Render(ctx, plugin.NewEnv("chart", plugin.ModeDisplay, plugin.Actions{}), nil)
	require.NoError(t, err)
	assert.Equal(t, "[chart]", got)

	atom, err := r.Atom("mention")
	require.NoError(t, err)
	got, err = atom.Render(ctx, plugin.NewEnv("mention", plugin.ModeDisplay, plugin.Actions{}), "@amy", nil)
	require.NoError(t, err)
	assert.Equal(t, "@amy", got)

	cfg.Editor.UnknownCard = UnknownError
	_, err = cfg.Registry(logger).Card("chart")
	assert.True(t, errors.Is(err, plugin.ErrUnknownCard), err)
}

func TestLoadPluginsDisabled(t *testing.T) {
	cfg := Default()
	set, err := cfg.LoadPlugins(context.Background(), plugin.NewRegistry(), cfg.Logger(&bytes.Buffer{}))
	require.NoError(t, err)
	assert.Empty(t, set.Cards)
	assert.Empty(t, set.Atoms)
}

func TestLoadPluginsFromDir(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, writeFile(dir, "cards/hr.lua", `function render() return "---" end`))

	cfg := Default()
	cfg.Plugins.Dir = dir
	r := plugin.NewRegistry()
	set, err := cfg.LoadPlugins(context.Background(), r, cfg.Logger(&bytes.Buffer{}))
	require.NoError(t, err)
	defer set.Close()
	assert.True(t, r.HasCard("hr"))
}

func TestEngineOptions(t *testing.T) {
	cfg := Default()
	cfg.Editor.UndoDepth = 0
	logger := cfg.Logger(&bytes.Buffer{})
	r := cfg.Registry(logger)

	e, err := engine.New(cfg.EngineOptions(logger, r)...)
	require.NoError(t, err)
	require.NoError(t, e.InsertText("x"))
	assert.False(t, e.CanUndo())
	assert.Same(t, r, e.Registry())
}
