package main

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/dshills/quire/internal/engine/model"
	"github.com/dshills/quire/internal/format/markdown"
	"github.com/dshills/quire/internal/format/mobiledoc"
	"github.com/dshills/quire/internal/format/text"
	"github.com/dshills/quire/internal/plugin"
)

// Document formats.
const (
	formatMobiledoc = "mobiledoc"
	formatMarkdown  = "markdown"
	formatText      = "text"
)

// formatOf returns the format for path by extension, or fallback.
func formatOf(path, fallback string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json", ".mobiledoc":
		return formatMobiledoc
	case ".md", ".markdown":
		return formatMarkdown
	case ".txt":
		return formatText
	default:
		return fallback
	}
}

// parseDocument builds a post from data in format.
func parseDocument(b *model.Builder, data []byte, format string) (*model.Post, error) {
	switch format {
	case formatMobiledoc:
		return mobiledoc.Parse(b, data)
	case formatMarkdown:
		return markdown.Parse(b, data)
	case formatText:
		return text.Parse(b, string(data)), nil
	default:
		return nil, fmt.Errorf("unknown input format %q", format)
	}
}

// writeDocument writes post to w in format. Markdown is import only.
func writeDocument(ctx context.Context, w io.Writer, post *model.Post, format string, r *plugin.Registry, pretty bool) error {
	var out []byte
	switch format {
	case formatMobiledoc:
		data, err := mobiledoc.Render(post, mobiledoc.LatestVersion)
		if err != nil {
			return err
		}
		if pretty {
			data = mobiledoc.Pretty(data)
		} else {
			data = append(data, '\n')
		}
		out = data
	case formatText:
		s, err := text.Render(ctx, post, r)
		if err != nil {
			return err
		}
		out = []byte(s + "\n")
	default:
		return fmt.Errorf("unknown output format %q", format)
	}
	_, err := w.Write(out)
	return err
}
