// Package text converts posts to and from plain text.
//
// Each leaf section is one line. List items are written with a "* " or
// "N. " prefix and parsed back into lists; every other line becomes a p
// section. Input is normalized to NFC before parsing.
package text

import (
	"context"
	"errors"
	"strconv"
	"strings"

	"golang.org/x/text/unicode/norm"

	"github.com/dshills/quire/internal/engine/model"
	"github.com/dshills/quire/internal/plugin"
)

// Render writes post as plain text. Cards and atoms are rendered through
// r in display mode; a nil registry or an unknown name falls back to the
// card name in brackets or the atom value.
func Render(ctx context.Context, post *model.Post, r *plugin.Registry) (string, error) {
	var lines []string
	for s := range post.Sections().All() {
		switch s := s.(type) {
		case *model.MarkupSection:
			line, err := inlineText(ctx, s, r)
			if err != nil {
				return "", err
			}
			lines = append(lines, line)
		case *model.ListSection:
			for i, item := range s.ItemSlice() {
				line, err := inlineText(ctx, item, r)
				if err != nil {
					return "", err
				}
				prefix := "* "
				if s.Tag() == model.TagOL {
					prefix = strconv.Itoa(i+1) + ". "
				}
				lines = append(lines, prefix+line)
			}
		case *model.CardSection:
			line, err := cardText(ctx, s, r)
			if err != nil {
				return "", err
			}
			lines = append(lines, line)
		case *model.ImageSection:
			lines = append(lines, s.Src())
		}
	}
	return strings.Join(lines, "\n"), nil
}

func inlineText(ctx context.Context, s model.Markerable, r *plugin.Registry) (string, error) {
	var sb strings.Builder
	for m := range s.Markers().All() {
		atom, ok := m.(*model.Atom)
		if !ok {
			sb.WriteString(m.Text())
			continue
		}
		text, err := atomText(ctx, atom, r)
		if err != nil {
			return "", err
		}
		sb.WriteString(text)
	}
	return sb.String(), nil
}

func cardText(ctx context.Context, c *model.CardSection, r *plugin.Registry) (string, error) {
	if r == nil {
		return "[" + c.Name() + "]", nil
	}
	card, err := r.Card(c.Name())
	if errors.Is(err, plugin.ErrUnknownCard) {
		return "[" + c.Name() + "]", nil
	}
	if err != nil {
		return "", err
	}
	return card.Render(ctx, plugin.NewEnv(c.Name(), plugin.ModeDisplay, plugin.Actions{}), c.Payload())
}

func atomText(ctx context.Context, a *model.Atom, r *plugin.Registry) (string, error) {
	if r == nil {
		return a.Value(), nil
	}
	atom, err := r.Atom(a.Name())
	if errors.Is(err, plugin.ErrUnknownAtom) {
		return a.Value(), nil
	}
	if err != nil {
		return "", err
	}
	return atom.Render(ctx, plugin.NewEnv(a.Name(), plugin.ModeDisplay, plugin.Actions{}), a.Value(), a.Payload())
}

// Parse builds a post from plain text with b. Blank lines become blank p
// sections; a trailing newline does not add one.
func Parse(b *model.Builder, s string) *model.Post {
	s = norm.NFC.String(strings.ReplaceAll(s, "\r\n", "\n"))
	s = strings.TrimSuffix(s, "\n")
	post := b.Post()
	if s == "" {
		return post
	}

	var list *model.ListSection
	for _, line := range strings.Split(s, "\n") {
		tag, rest, ok := listPrefix(line)
		if !ok {
			list = nil
			b.Attach(post, b.MarkupSection(model.TagP, markers(b, line)...))
			continue
		}
		if list == nil || list.Tag() != tag {
			list = b.ListSection(tag)
			b.Attach(post, list)
		}
		list.Items().Append(b.ListItem(markers(b, rest)...))
	}
	return post
}

func markers(b *model.Builder, text string) []model.Inline {
	if text == "" {
		return nil
	}
	return []model.Inline{b.Marker(text)}
}

// listPrefix recognizes "* ", "- " and "N. " item prefixes.
func listPrefix(line string) (model.ListTag, string, bool) {
	for _, p := range []string{"* ", "- "} {
		if rest, ok := strings.CutPrefix(line, p); ok {
			return model.TagUL, rest, true
		}
	}
	digits := 0
	for digits < len(line) && line[digits] >= '0' && line[digits] <= '9' {
		digits++
	}
	if digits > 0 {
		if rest, ok := strings.CutPrefix(line[digits:], ". "); ok {
			return model.TagOL, rest, true
		}
	}
	return "", "", false
}
