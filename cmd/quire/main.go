// Package main is the entry point for the quire document tool.
//
// quire converts posts between formats, and can show a post in the
// terminal for editing:
//
//	quire -in post.md -out mobiledoc
//	quire -in post.json -view
//	quire -in post.json -out text -watch
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/dshills/quire/internal/config"
	"github.com/dshills/quire/internal/engine/model"
	"github.com/dshills/quire/internal/plugin"
	"github.com/dshills/quire/internal/watch"
)

// Version information (set via ldflags during build).
var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

// options holds the parsed command line.
type options struct {
	ConfigPath string
	In         string
	InFormat   string
	Out        string
	Pretty     bool
	View       bool
	Watch      bool
	LogLevel   string
}

func main() {
	os.Exit(run())
}

func run() int {
	opts := parseFlags()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := execute(ctx, opts, os.Stdin, os.Stdout, os.Stderr); err != nil {
		if errors.Is(err, context.Canceled) {
			return 0
		}
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	return 0
}

func parseFlags() options {
	var opts options
	var showVersion bool
	var showHelp bool

	flag.StringVar(&opts.ConfigPath, "config", "", "Path to configuration file")
	flag.StringVar(&opts.ConfigPath, "c", "", "Path to configuration file (shorthand)")
	flag.StringVar(&opts.In, "in", "", "Input file (stdin when empty)")
	flag.StringVar(&opts.In, "i", "", "Input file (shorthand)")
	flag.StringVar(&opts.InFormat, "from", "", "Input format when the extension does not tell (mobiledoc, markdown, text)")
	flag.StringVar(&opts.Out, "out", formatMobiledoc, "Output format (mobiledoc, text)")
	flag.StringVar(&opts.Out, "o", formatMobiledoc, "Output format (shorthand)")
	flag.BoolVar(&opts.Pretty, "pretty", false, "Indent mobiledoc output")
	flag.BoolVar(&opts.View, "view", false, "Show the post in the terminal for editing")
	flag.BoolVar(&opts.Watch, "watch", false, "Reload the input file when it changes")
	flag.BoolVar(&opts.Watch, "w", false, "Reload the input file when it changes (shorthand)")
	flag.StringVar(&opts.LogLevel, "log-level", "", "Log level (debug, info, warn, error)")
	flag.BoolVar(&showVersion, "version", false, "Show version information")
	flag.BoolVar(&showVersion, "v", false, "Show version information (shorthand)")
	flag.BoolVar(&showHelp, "help", false, "Show help message")
	flag.BoolVar(&showHelp, "h", false, "Show help message (shorthand)")

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "quire - rich-text post editor\n\n")
		fmt.Fprintf(os.Stderr, "Usage: quire [options]\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		flag.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nExamples:\n")
		fmt.Fprintf(os.Stderr, "  quire -in post.md                Convert markdown to mobiledoc\n")
		fmt.Fprintf(os.Stderr, "  quire -in post.json -out text    Print a post as plain text\n")
		fmt.Fprintf(os.Stderr, "  quire -in post.json -view        Edit a post in the terminal\n")
		fmt.Fprintf(os.Stderr, "  quire -in post.json -view -w     Edit and reload on change\n")
	}

	flag.Parse()

	if showHelp {
		flag.Usage()
		os.Exit(0)
	}

	if showVersion {
		fmt.Printf("quire %s\n", version)
		fmt.Printf("Commit: %s\n", commit)
		fmt.Printf("Built: %s\n", date)
		os.Exit(0)
	}

	return opts
}

// loadConfig reads the configuration file, the environment and the
// command line overrides.
func loadConfig(opts options) (*config.Config, error) {
	path := opts.ConfigPath
	if path == "" {
		if dir, err := os.UserConfigDir(); err == nil {
			path = filepath.Join(dir, "quire", "config.toml")
		}
	}
	cfg := config.Default()
	if path != "" {
		var err error
		if cfg, err = config.Load(config.DefaultFS(), path); err != nil {
			return nil, err
		}
	}
	if err := cfg.ApplyEnv(nil); err != nil {
		return nil, err
	}
	if opts.LogLevel != "" {
		cfg.Logging.Level = opts.LogLevel
		if err := cfg.Validate(); err != nil {
			return nil, err
		}
	}
	return cfg, nil
}

// session is what the command works on: the settings, the plugins and
// where the post comes from.
type session struct {
	opts     options
	cfg      *config.Config
	logger   *slog.Logger
	registry *plugin.Registry
	stdin    io.Reader
	stdout   io.Writer
}

func execute(ctx context.Context, opts options, stdin io.Reader, stdout, stderr io.Writer) error {
	cfg, err := loadConfig(opts)
	if err != nil {
		return err
	}
	logger := cfg.Logger(stderr)
	registry := cfg.Registry(logger)
	plugins, err := cfg.LoadPlugins(ctx, registry, logger)
	if err != nil {
		return err
	}
	defer plugins.Close()

	s := &session{opts: opts, cfg: cfg, logger: logger, registry: registry, stdin: stdin, stdout: stdout}
	if opts.Watch && opts.In == "" {
		return errors.New("-watch needs an input file")
	}

	if opts.View {
		return s.view(ctx)
	}
	if err := s.convert(ctx); err != nil {
		return err
	}
	if !opts.Watch {
		return nil
	}
	return s.watch(ctx, func() {
		if err := s.convert(ctx); err != nil {
			logger.Error("reload failed", "path", opts.In, "error", err)
		}
	})
}

// read loads the input post with b.
func (s *session) read(b *model.Builder) (*model.Post, error) {
	format := s.opts.InFormat
	if format == "" {
		format = formatOf(s.opts.In, s.cfg.Editor.Format)
	}
	var (
		data []byte
		err  error
	)
	if s.opts.In == "" {
		data, err = io.ReadAll(s.stdin)
	} else {
		data, err = os.ReadFile(s.opts.In)
	}
	if err != nil {
		return nil, err
	}
	post, err := parseDocument(b, data, format)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", displayName(s.opts.In), err)
	}
	return post, nil
}

func (s *session) convert(ctx context.Context) error {
	post, err := s.read(model.NewBuilder())
	if err != nil {
		return err
	}
	return writeDocument(ctx, s.stdout, post, s.opts.Out, s.registry, s.opts.Pretty)
}

// watch calls reload after each change to the input file until ctx ends.
func (s *session) watch(ctx context.Context, reload func()) error {
	w, err := watch.New(s.opts.In, watch.WithLogger(s.logger))
	if err != nil {
		return err
	}
	defer w.Close()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case ev, ok := <-w.Events():
			if !ok {
				return nil
			}
			s.logger.Debug("input changed", "path", ev.Path, "op", ev.Op.String())
			if ev.Op&watch.OpRemove != 0 && ev.Op&watch.OpCreate == 0 {
				continue
			}
			reload()
		case err, ok := <-w.Errors():
			if !ok {
				return nil
			}
			s.logger.Warn("watch error", "error", err)
		}
	}
}

func displayName(path string) string {
	if path == "" {
		return "stdin"
	}
	return path
}
