// Package markdown imports CommonMark documents into posts.
//
// Headings, paragraphs, block quotes and lists map to markup and list
// sections. Emphasis, strong emphasis, strikethrough, code spans and links
// become markups. Images become image sections, splitting the paragraph
// that holds them. Thematic breaks become "hr" cards, code blocks "code"
// cards with language and code payload fields, and HTML blocks "html"
// cards. Nested lists are flattened into their parent list.
package markdown

import (
	"fmt"
	"slices"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	east "github.com/yuin/goldmark/extension/ast"
	"github.com/yuin/goldmark/text"

	"github.com/dshills/quire/internal/engine/model"
)

// Card names produced by Parse.
const (
	CardHR   = "hr"
	CardCode = "code"
	CardHTML = "html"
)

var md = goldmark.New(goldmark.WithExtensions(extension.Strikethrough))

// piece is a run of inline content: text under a markup stack, or an
// image that interrupts the section.
type piece struct {
	text    string
	markups []*model.Markup
	image   string
}

type converter struct {
	b      *model.Builder
	source []byte
	post   *model.Post
}

// Parse converts src to a post built with b.
func Parse(b *model.Builder, src []byte) (*model.Post, error) {
	doc := md.Parser().Parse(text.NewReader(src))
	c := &converter{b: b, source: src, post: b.Post()}
	for n := doc.FirstChild(); n != nil; n = n.NextSibling() {
		if err := c.block(n); err != nil {
			return nil, err
		}
	}
	return c.post, nil
}

func (c *converter) block(n ast.Node) error {
	switch n := n.(type) {
	case *ast.Heading:
		tag, err := model.ParseSectionTag(fmt.Sprintf("h%d", n.Level))
		if err != nil {
			return err
		}
		c.markupSections(tag, c.inlines(n, nil))
	case *ast.Paragraph, *ast.TextBlock:
		c.markupSections(model.TagP, c.inlines(n, nil))
	case *ast.Blockquote:
		for child := n.FirstChild(); child != nil; child = child.NextSibling() {
			c.markupSections(model.TagBlockquote, c.inlines(child, nil))
		}
	case *ast.List:
		tag := model.TagUL
		if n.IsOrdered() {
			tag = model.TagOL
		}
		list := c.b.ListSection(tag)
		c.listItems(list, n)
		if !list.IsBlank() {
			c.b.Attach(c.post, list)
		}
	case *ast.ThematicBreak:
		c.b.Attach(c.post, c.b.Card(CardHR, nil))
	case *ast.FencedCodeBlock:
		c.b.Attach(c.post, c.b.Card(CardCode, map[string]any{
			"language": string(n.Language(c.source)),
			"code":     c.lines(n),
		}))
	case *ast.CodeBlock:
		c.b.Attach(c.post, c.b.Card(CardCode, map[string]any{"language": "", "code": c.lines(n)}))
	case *ast.HTMLBlock:
		c.b.Attach(c.post, c.b.Card(CardHTML, map[string]any{"html": c.lines(n)}))
	}
	return nil
}

// listItems appends one item per list item of n, joining the item's
// paragraphs with a space and flattening nested lists after it.
func (c *converter) listItems(list *model.ListSection, n *ast.List) {
	for item := n.FirstChild(); item != nil; item = item.NextSibling() {
		var (
			pieces []piece
			nested []*ast.List
		)
		for child := item.FirstChild(); child != nil; child = child.NextSibling() {
			if sub, ok := child.(*ast.List); ok {
				nested = append(nested, sub)
				continue
			}
			if len(pieces) > 0 {
				pieces = append(pieces, piece{text: " "})
			}
			pieces = append(pieces, c.inlines(child, nil)...)
		}
		list.Items().Append(c.b.ListItem(c.markers(withoutImages(pieces))...))
		for _, sub := range nested {
			c.listItems(list, sub)
		}
	}
}

func (c *converter) lines(n ast.Node) string {
	var sb strings.Builder
	lines := n.Lines()
	for i := 0; i < lines.Len(); i++ {
		seg := lines.At(i)
		sb.Write(seg.Value(c.source))
	}
	return sb.String()
}

// markupSections attaches sections of tag holding pieces, with an image
// section wherever an image occurs.
func (c *converter) markupSections(tag model.SectionTag, pieces []piece) {
	var run []piece
	flush := func() {
		if markers := c.markers(run); len(markers) > 0 {
			c.b.Attach(c.post, c.b.MarkupSection(tag, markers...))
		}
		run = nil
	}
	images := false
	for _, p := range pieces {
		if p.image != "" {
			flush()
			c.b.Attach(c.post, c.b.Image(p.image))
			images = true
			continue
		}
		run = append(run, p)
	}
	if !images && len(c.markers(run)) == 0 {
		c.b.Attach(c.post, c.b.MarkupSection(tag))
		return
	}
	flush()
}

// markers builds coalesced markers: adjacent pieces with the same markups
// share one marker and blank text is dropped.
func (c *converter) markers(pieces []piece) []model.Inline {
	var out []model.Inline
	var (
		text    strings.Builder
		markups []*model.Markup
	)
	emit := func() {
		if text.Len() > 0 {
			out = append(out, c.b.Marker(text.String(), markups...))
		}
		text.Reset()
	}
	for _, p := range pieces {
		if p.text == "" {
			continue
		}
		if !slices.Equal(p.markups, markups) {
			emit()
			markups = p.markups
		}
		text.WriteString(p.text)
	}
	emit()
	return out
}

func withoutImages(pieces []piece) []piece {
	return slices.DeleteFunc(pieces, func(p piece) bool { return p.image != "" })
}

// inlines flattens the inline children of n under the markup stack.
func (c *converter) inlines(n ast.Node, stack []*model.Markup) []piece {
	var out []piece
	push := func(m *model.Markup) []*model.Markup {
		return append(slices.Clip(stack), m)
	}
	for child := n.FirstChild(); child != nil; child = child.NextSibling() {
		switch child := child.(type) {
		case *ast.Text:
			s := string(child.Segment.Value(c.source))
			if child.SoftLineBreak() || child.HardLineBreak() {
				s += " "
			}
			out = append(out, piece{text: s, markups: stack})
		case *ast.String:
			out = append(out, piece{text: string(child.Value), markups: stack})
		case *ast.CodeSpan:
			out = append(out, piece{text: c.plain(child), markups: push(c.b.Markup(model.MarkupCode, nil))})
		case *ast.Emphasis:
			tag := model.MarkupEm
			if child.Level >= 2 {
				tag = model.MarkupStrong
			}
			out = append(out, c.inlines(child, push(c.b.Markup(tag, nil)))...)
		case *east.Strikethrough:
			out = append(out, c.inlines(child, push(c.b.Markup(model.MarkupS, nil)))...)
		case *ast.Link:
			link := c.b.Markup(model.MarkupA, map[string]string{"href": string(child.Destination)})
			out = append(out, c.inlines(child, push(link))...)
		case *ast.AutoLink:
			link := c.b.Markup(model.MarkupA, map[string]string{"href": string(child.URL(c.source))})
			out = append(out, piece{text: string(child.Label(c.source)), markups: push(link)})
		case *ast.Image:
			out = append(out, piece{image: string(child.Destination)})
		case *ast.RawHTML:
		default:
			out = append(out, c.inlines(child, stack)...)
		}
	}
	return out
}

// plain returns the text of n's descendants without markups.
func (c *converter) plain(n ast.Node) string {
	var sb strings.Builder
	for _, p := range c.inlines(n, nil) {
		sb.WriteString(p.text)
	}
	return sb.String()
}
