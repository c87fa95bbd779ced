package config

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"

	"github.com/dshills/quire/internal/engine"
	"github.com/dshills/quire/internal/plugin"
	"github.com/dshills/quire/internal/plugin/lua"
)

// Unknown card and atom handling modes.
const (
	// UnknownPlaceholder renders unknown cards as "[name]" and unknown
	// atoms as their text value.
	UnknownPlaceholder = "placeholder"
	// UnknownError fails rendering of unknown cards and atoms.
	UnknownError = "error"
)

// Config holds the resolved settings.
type Config struct {
	Editor  EditorConfig  `toml:"editor" yaml:"editor"`
	Plugins PluginsConfig `toml:"plugins" yaml:"plugins"`
	Logging LoggingConfig `toml:"logging" yaml:"logging"`
}

// EditorConfig configures the editing engine.
type EditorConfig struct {
	// UndoDepth is the number of undo steps kept. Zero disables undo.
	UndoDepth int `toml:"undo_depth" yaml:"undo_depth"`
	// UndoBlockTimeout groups same-kind edits closer together than this
	// into one undo step.
	UndoBlockTimeout Duration `toml:"undo_block_timeout" yaml:"undo_block_timeout"`
	// Format is the default file format: mobiledoc, markdown or text.
	Format string `toml:"format" yaml:"format"`
	// UnknownCard is UnknownPlaceholder or UnknownError.
	UnknownCard string `toml:"unknown_card" yaml:"unknown_card"`
	// UnknownAtom is UnknownPlaceholder or UnknownError.
	UnknownAtom string `toml:"unknown_atom" yaml:"unknown_atom"`
}

// PluginsConfig configures Lua card and atom plugins.
type PluginsConfig struct {
	// Dir holds cards/*.lua and atoms/*.lua. Empty disables plugins.
	Dir string `toml:"dir" yaml:"dir"`
	// Timeout bounds a single plugin render.
	Timeout Duration `toml:"timeout" yaml:"timeout"`
}

// LoggingConfig configures the slog handler.
type LoggingConfig struct {
	Level  string `toml:"level" yaml:"level"`
	Format string `toml:"format" yaml:"format"`
}

// Duration is a time.Duration written as a Go duration string.
type Duration time.Duration

// UnmarshalText parses strings like "500ms" or "3s".
func (d *Duration) UnmarshalText(b []byte) error {
	v, err := time.ParseDuration(string(b))
	if err != nil {
		return err
	}
	*d = Duration(v)
	return nil
}

// MarshalText implements encoding.TextMarshaler.
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(time.Duration(d).String()), nil
}

// Std returns d as a time.Duration.
func (d Duration) Std() time.Duration { return time.Duration(d) }

// Default returns the built-in settings.
func Default() *Config {
	return &Config{
		Editor: EditorConfig{
			UndoDepth:        5,
			UndoBlockTimeout: Duration(5 * time.Second),
			Format:           "mobiledoc",
			UnknownCard:      UnknownPlaceholder,
			UnknownAtom:      UnknownPlaceholder,
		},
		Plugins: PluginsConfig{
			Timeout: Duration(time.Second),
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// Validate reports every invalid setting, joined.
func (c *Config) Validate() error {
	var errs []error
	bad := func(path, msg string, v any) {
		errs = append(errs, &ValidationError{Path: path, Message: msg, Value: v})
	}
	if c.Editor.UndoDepth < 0 {
		bad("editor.undo_depth", "must not be negative", c.Editor.UndoDepth)
	}
	if c.Editor.UndoBlockTimeout < 0 {
		bad("editor.undo_block_timeout", "must not be negative", c.Editor.UndoBlockTimeout.Std())
	}
	switch c.Editor.Format {
	case "mobiledoc", "markdown", "text":
	default:
		bad("editor.format", "must be mobiledoc, markdown or text", c.Editor.Format)
	}
	if v := c.Editor.UnknownCard; v != UnknownPlaceholder && v != UnknownError {
		bad("editor.unknown_card", "must be placeholder or error", v)
	}
	if v := c.Editor.UnknownAtom; v != UnknownPlaceholder && v != UnknownError {
		bad("editor.unknown_atom", "must be placeholder or error", v)
	}
	if c.Plugins.Timeout <= 0 {
		bad("plugins.timeout", "must be positive", c.Plugins.Timeout.Std())
	}
	if _, err := parseLevel(c.Logging.Level); err != nil {
		bad("logging.level", err.Error(), c.Logging.Level)
	}
	if c.Logging.Format != "text" && c.Logging.Format != "json" {
		bad("logging.format", "must be text or json", c.Logging.Format)
	}
	return errors.Join(errs...)
}

// Load reads the file at path from fsys over the defaults. A missing file
// yields the defaults. The format follows the extension.
func Load(fsys FileSystem, path string) (*Config, error) {
	cfg := Default()
	data, err := fsys.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return cfg, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}

	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".toml":
		err = decodeTOML(path, data, cfg)
	case ".yaml", ".yml":
		err = decodeYAML(path, data, cfg)
	default:
		return nil, fmt.Errorf("%s: %w %q", path, ErrUnknownFormat, ext)
	}
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

func decodeTOML(path string, data []byte, cfg *Config) error {
	dec := toml.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(cfg); err != nil {
		pe := &ParseError{Path: path, Message: err.Error(), Err: err}
		var de *toml.DecodeError
		if errors.As(err, &de) {
			pe.Line, pe.Column = de.Position()
		}
		var se *toml.StrictMissingError
		if errors.As(err, &se) && len(se.Errors) > 0 {
			pe.Line, pe.Column = se.Errors[0].Position()
			pe.Message = "unknown key " + strings.Join(se.Errors[0].Key(), ".")
		}
		return pe
	}
	return nil
}

func decodeYAML(path string, data []byte, cfg *Config) error {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return &ParseError{Path: path, Message: err.Error(), Err: err}
	}
	return nil
}

// EngineOptions returns the engine options for the editor settings.
func (c *Config) EngineOptions(logger *slog.Logger, r *plugin.Registry) []engine.Option {
	return []engine.Option{
		engine.WithUndoDepth(c.Editor.UndoDepth),
		engine.WithUndoBlockTimeout(c.Editor.UndoBlockTimeout.Std()),
		engine.WithLogger(logger),
		engine.WithRegistry(r),
	}
}

// Logger builds a slog logger writing to w.
func (c *Config) Logger(w io.Writer) *slog.Logger {
	level, _ := parseLevel(c.Logging.Level)
	opts := &slog.HandlerOptions{Level: level}
	if c.Logging.Format == "json" {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}

func parseLevel(s string) (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(s)); err != nil {
		return slog.LevelInfo, fmt.Errorf("unknown level %q", s)
	}
	return level, nil
}

// Registry builds a plugin registry with the configured handlers for
// unknown cards and atoms.
func (c *Config) Registry(logger *slog.Logger) *plugin.Registry {
	opts := []plugin.RegistryOption{plugin.WithLogger(logger)}
	if c.Editor.UnknownCard == UnknownPlaceholder {
		opts = append(opts, plugin.WithUnknownCardHandler(plugin.CardFunc("", placeholderCard)))
	}
	if c.Editor.UnknownAtom == UnknownPlaceholder {
		opts = append(opts, plugin.WithUnknownAtomHandler(plugin.AtomFunc("", placeholderAtom)))
	}
	return plugin.NewRegistry(opts...)
}

func placeholderCard(_ context.Context, env *plugin.Env, _ map[string]any) (string, error) {
	return "[" + env.Name() + "]", nil
}

func placeholderAtom(_ context.Context, _ *plugin.Env, value string, _ map[string]any) (string, error) {
	return value, nil
}

// LoadPlugins loads Lua plugins from the configured directory into r.
// It returns an empty set when no directory is configured.
func (c *Config) LoadPlugins(ctx context.Context, r *plugin.Registry, logger *slog.Logger) (*lua.Set, error) {
	if c.Plugins.Dir == "" {
		return &lua.Set{}, nil
	}
	dir := expandHome(c.Plugins.Dir)
	set, err := lua.LoadDir(ctx, os.DirFS(dir), r,
		lua.WithExecutionTimeout(c.Plugins.Timeout.Std()),
		lua.WithLogger(logger),
	)
	if err != nil {
		return nil, fmt.Errorf("plugins %s: %w", dir, err)
	}
	logger.Debug("plugins loaded", "dir", dir, "cards", len(set.Cards), "atoms", len(set.Atoms))
	return set, nil
}

func expandHome(path string) string {
	if rest, ok := strings.CutPrefix(path, "~/"); ok {
		if home, err := os.UserHomeDir(); err == nil {
			return filepath.Join(home, rest)
		}
	}
	return path
}
