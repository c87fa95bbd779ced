package backend

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"strings"
	"sync"

	"github.com/gdamore/tcell/v2"
	"github.com/rivo/uniseg"

	"github.com/dshills/quire/internal/engine/cursor"
	"github.com/dshills/quire/internal/engine/model"
	"github.com/dshills/quire/internal/renderer/rendertree"
)

// ErrNoScreen is returned when a view is created without a screen.
var ErrNoScreen = errors.New("terminal view needs a screen")

// block is the handle of a section render node.
type block struct {
	prefix string
	text   string
	style  tcell.Style
}

// span is the handle of an inline render node. Its style is resolved
// against the section style at layout time.
type span struct {
	text    string
	markups []*model.Markup
	atom    bool
}

// Span is a run of text with one style.
type Span struct {
	Text  string
	Style tcell.Style
}

// Line is one laid out row: a leaf section with its prefix.
type Line struct {
	Leaf   model.Section
	Prefix Span
	Spans  []Span
}

// Text returns the plain text of the line, prefix included.
func (l Line) Text() string {
	var sb strings.Builder
	sb.WriteString(l.Prefix.Text)
	for _, s := range l.Spans {
		sb.WriteString(s.Text)
	}
	return sb.String()
}

// TerminalView displays a render tree on a tcell screen.
type TerminalView struct {
	mu     sync.Mutex
	screen tcell.Screen
	theme  Theme
	logger *slog.Logger

	cardText func(*model.CardSection) (string, error)
	atomText func(*model.Atom) (string, error)

	root      *rendertree.Node
	status    string
	destroyed int
}

// ViewOption configures a TerminalView.
type ViewOption func(*TerminalView)

// WithTheme sets the styles.
func WithTheme(th Theme) ViewOption {
	return func(v *TerminalView) { v.theme = th }
}

// WithCardText sets how card sections are displayed. Without it a card
// shows its name.
func WithCardText(fn func(*model.CardSection) (string, error)) ViewOption {
	return func(v *TerminalView) { v.cardText = fn }
}

// WithAtomText sets how atoms are displayed. Without it an atom shows its
// value.
func WithAtomText(fn func(*model.Atom) (string, error)) ViewOption {
	return func(v *TerminalView) { v.atomText = fn }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) ViewOption {
	return func(v *TerminalView) {
		if l != nil {
			v.logger = l
		}
	}
}

// NewTerminalView initializes screen and returns a view drawing on it.
func NewTerminalView(screen tcell.Screen, opts ...ViewOption) (*TerminalView, error) {
	if screen == nil {
		return nil, ErrNoScreen
	}
	if err := screen.Init(); err != nil {
		return nil, fmt.Errorf("init screen: %w", err)
	}
	v := &TerminalView{
		screen: screen,
		theme:  DefaultTheme(),
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(v)
	}
	return v, nil
}

// Screen returns the underlying screen, for polling events.
func (v *TerminalView) Screen() tcell.Screen { return v.screen }

// Close restores the terminal.
func (v *TerminalView) Close() {
	v.screen.Fini()
}

// Destroyed returns how many render nodes the view has torn down.
func (v *TerminalView) Destroyed() int {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.destroyed
}

// SetStatus sets the text of the bottom status line.
func (v *TerminalView) SetStatus(s string) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.status = s
}

// ============================================================================
// rendertree.View
// ============================================================================

func (v *TerminalView) RenderPost(n *rendertree.Node, _ *model.Post) error {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.root = n
	if n.Handle == nil {
		n.Handle = &block{}
	}
	return nil
}

func (v *TerminalView) RenderMarkupSection(n *rendertree.Node, s *model.MarkupSection) error {
	v.mu.Lock()
	defer v.mu.Unlock()
	n.Handle = &block{prefix: sectionPrefix(s.Tag()), style: v.theme.sectionStyle(s.Tag())}
	return nil
}

func (v *TerminalView) RenderListSection(n *rendertree.Node, l *model.ListSection) error {
	v.mu.Lock()
	defer v.mu.Unlock()
	n.Handle = &block{prefix: string(l.Tag()), style: v.theme.Bullet}
	return nil
}

func (v *TerminalView) RenderListItem(n *rendertree.Node, _ *model.ListItem) error {
	v.mu.Lock()
	defer v.mu.Unlock()
	n.Handle = &block{style: v.theme.Text}
	return nil
}

func (v *TerminalView) RenderCardSection(n *rendertree.Node, c *model.CardSection) error {
	text := "[" + c.Name() + "]"
	if v.cardText != nil {
		t, err := v.cardText(c)
		if err != nil {
			return fmt.Errorf("card %q: %w", c.Name(), err)
		}
		text = t
	}
	v.mu.Lock()
	defer v.mu.Unlock()
	n.Handle = &block{text: text, style: v.theme.Card}
	return nil
}

func (v *TerminalView) RenderImageSection(n *rendertree.Node, i *model.ImageSection) error {
	v.mu.Lock()
	defer v.mu.Unlock()
	n.Handle = &block{text: "[image " + i.Src() + "]", style: v.theme.Card}
	return nil
}

func (v *TerminalView) RenderMarker(n *rendertree.Node, m *model.Marker) error {
	v.mu.Lock()
	defer v.mu.Unlock()
	n.Handle = &span{text: m.Value(), markups: m.Markups()}
	return nil
}

func (v *TerminalView) RenderAtom(n *rendertree.Node, a *model.Atom) error {
	text := a.Value()
	if v.atomText != nil {
		t, err := v.atomText(a)
		if err != nil {
			return fmt.Errorf("atom %q: %w", a.Name(), err)
		}
		text = t
	}
	v.mu.Lock()
	defer v.mu.Unlock()
	n.Handle = &span{text: text, markups: a.Markups(), atom: true}
	return nil
}

func (v *TerminalView) Destroy(n *rendertree.Node) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.destroyed++
	if n == v.root {
		v.root = nil
	}
}

var _ rendertree.View = (*TerminalView)(nil)

// ============================================================================
// Layout and drawing
// ============================================================================

// Layout returns one line per rendered leaf section.
func (v *TerminalView) Layout() []Line {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.layout()
}

func (v *TerminalView) layout() []Line {
	if v.root == nil {
		return nil
	}
	var lines []Line
	for n := range v.root.Children().All() {
		b, ok := n.Handle.(*block)
		if !ok {
			continue
		}
		switch doc := n.Doc().(type) {
		case *model.MarkupSection:
			lines = append(lines, Line{
				Leaf:   doc,
				Prefix: Span{Text: b.prefix, Style: b.style},
				Spans:  v.inlineSpans(n, b.style),
			})
		case *model.ListSection:
			index := 1
			for item := range n.Children().All() {
				prefix := "• "
				if doc.Tag() == model.TagOL {
					prefix = strconv.Itoa(index) + ". "
				}
				lines = append(lines, Line{
					Leaf:   item.Doc().(model.Section),
					Prefix: Span{Text: prefix, Style: b.style},
					Spans:  v.inlineSpans(item, v.theme.Text),
				})
				index++
			}
		case model.Section:
			lines = append(lines, Line{Leaf: doc, Spans: []Span{{Text: b.text, Style: b.style}}})
		}
	}
	return lines
}

func (v *TerminalView) inlineSpans(section *rendertree.Node, base tcell.Style) []Span {
	var out []Span
	for n := range section.Children().All() {
		s, ok := n.Handle.(*span)
		if !ok || s.text == "" {
			continue
		}
		style := base
		if s.atom {
			style = v.theme.Atom
		}
		out = append(out, Span{Text: s.text, Style: v.theme.applyMarkups(style, s.markups)})
	}
	return out
}

// Lines returns the plain text of every laid out line.
func (v *TerminalView) Lines() []string {
	lines := v.Layout()
	out := make([]string, len(lines))
	for i, l := range lines {
		out[i] = l.Text()
	}
	return out
}

// Draw paints the current layout and the status line, then shows the
// screen. Lines past the screen edge are clipped.
func (v *TerminalView) Draw() {
	v.mu.Lock()
	defer v.mu.Unlock()

	v.screen.Clear()
	w, h := v.screen.Size()
	rows := h
	if v.status != "" {
		rows--
	}
	for y, line := range v.layout() {
		if y >= rows {
			break
		}
		x := v.drawText(0, y, w, line.Prefix.Text, line.Prefix.Style)
		for _, s := range line.Spans {
			x = v.drawText(x, y, w, s.Text, s.Style)
		}
	}
	if v.status != "" && h > 0 {
		x := v.drawText(0, h-1, w, v.status, v.theme.StatusLine)
		for ; x < w; x++ {
			v.screen.SetContent(x, h-1, ' ', nil, v.theme.StatusLine)
		}
	}
	v.screen.Show()
}

// drawText draws text from x by grapheme cluster and returns the next
// column. Clusters that do not fit before maxX are dropped.
func (v *TerminalView) drawText(x, y, maxX int, text string, style tcell.Style) int {
	g := uniseg.NewGraphemes(text)
	for g.Next() {
		runes := g.Runes()
		width := g.Width()
		if width == 0 {
			continue
		}
		if x+width > maxX {
			return x
		}
		v.screen.SetContent(x, y, runes[0], runes[1:], style)
		x += width
	}
	return x
}

// CursorCell maps pos to a screen cell. It reports false when pos is not
// on a laid out line.
func (v *TerminalView) CursorCell(pos cursor.Position) (x, y int, ok bool) {
	v.mu.Lock()
	defer v.mu.Unlock()

	if pos.IsBlank() {
		return 0, 0, false
	}
	for row, line := range v.layout() {
		if line.Leaf != pos.Section() {
			continue
		}
		x = uniseg.StringWidth(line.Prefix.Text)
		m, ok := line.Leaf.(model.Markerable)
		if !ok {
			if pos.Offset() > 0 {
				x += uniseg.StringWidth(line.Text())
			}
			return x, row, true
		}
		return x + inlineWidth(m, pos.Offset()), row, true
	}
	return 0, 0, false
}

// inlineWidth returns the display width of the first offset units of s.
func inlineWidth(s model.Markerable, offset int) int {
	width := 0
	remaining := offset
	for m := range s.Markers().All() {
		if remaining <= 0 {
			break
		}
		text := m.Text()
		if node, ok := m.RenderNode().(*rendertree.Node); ok && m.IsAtom() {
			if sp, ok := node.Handle.(*span); ok {
				text = sp.text
			}
		}
		if m.IsAtom() {
			width += uniseg.StringWidth(text)
			remaining--
			continue
		}
		runes := []rune(text)
		n := min(remaining, len(runes))
		width += uniseg.StringWidth(string(runes[:n]))
		remaining -= n
	}
	return width
}

// ShowCursor places the terminal cursor at pos, or hides it when pos is
// not visible.
func (v *TerminalView) ShowCursor(pos cursor.Position) {
	x, y, ok := v.CursorCell(pos)
	v.mu.Lock()
	defer v.mu.Unlock()
	if !ok {
		v.screen.HideCursor()
		return
	}
	v.screen.ShowCursor(x, y)
	v.screen.Show()
}
