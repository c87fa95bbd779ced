package mobiledoc

import (
	"fmt"

	"github.com/tidwall/pretty"
	"github.com/tidwall/sjson"

	"github.com/dshills/quire/internal/engine/model"
)

// Versions understood by the codec.
const (
	Version020 = "0.2.0"
	Version030 = "0.3.0"
	Version031 = "0.3.1"
	Version032 = "0.3.2"

	// LatestVersion is the only version Render writes.
	LatestVersion = Version032
)

// Section and marker type identifiers.
const (
	typeMarkupSection = 1
	typeImageSection  = 2
	typeListSection   = 3
	typeCardSection   = 10

	markerText = 0
	markerAtom = 1
)

// writer accumulates the lookup tables while sections are rendered.
type writer struct {
	markups   []any
	markupIdx map[*model.Markup]int
	atoms     []any
	cards     []any
}

// Render serializes post as a mobiledoc of the given version.
func Render(post *model.Post, version string) ([]byte, error) {
	if version != LatestVersion {
		return nil, fmt.Errorf("render %q: %w", version, ErrUnsupportedVersion)
	}
	w := &writer{
		markups:   []any{},
		markupIdx: make(map[*model.Markup]int),
		atoms:     []any{},
		cards:     []any{},
	}
	sections := []any{}
	for s := range post.Sections().All() {
		sec, err := w.section(s)
		if err != nil {
			return nil, err
		}
		sections = append(sections, sec)
	}

	doc := []byte(`{}`)
	var err error
	for _, field := range []struct {
		path  string
		value any
	}{
		{"version", version},
		{"atoms", w.atoms},
		{"cards", w.cards},
		{"markups", w.markups},
		{"sections", sections},
	} {
		if doc, err = sjson.SetBytes(doc, field.path, field.value); err != nil {
			return nil, fmt.Errorf("write %s: %w", field.path, err)
		}
	}
	return doc, nil
}

// Pretty indents a rendered mobiledoc for display.
func Pretty(data []byte) []byte {
	return pretty.Pretty(data)
}

// Compact removes insignificant whitespace.
func Compact(data []byte) []byte {
	return pretty.Ugly(data)
}

func (w *writer) section(s model.Section) (any, error) {
	switch s := s.(type) {
	case *model.MarkupSection:
		out := []any{typeMarkupSection, string(s.Tag()), w.markers(s)}
		if attrs := flatten(s.AttributeNames(), s.Attribute); len(attrs) > 0 {
			out = append(out, attrs)
		}
		return out, nil
	case *model.ListSection:
		items := []any{}
		for _, item := range s.ItemSlice() {
			items = append(items, w.markers(item))
		}
		out := []any{typeListSection, string(s.Tag()), items}
		if attrs := flatten(s.AttributeNames(), s.Attribute); len(attrs) > 0 {
			out = append(out, attrs)
		}
		return out, nil
	case *model.CardSection:
		w.cards = append(w.cards, []any{s.Name(), payloadOf(s.Payload())})
		return []any{typeCardSection, len(w.cards) - 1}, nil
	case *model.ImageSection:
		return []any{typeImageSection, s.Src()}, nil
	default:
		return nil, fmt.Errorf("render %s section: %w", s.Type(), ErrMalformed)
	}
}

// markers renders the inlines of s. Markups open and close in stack order:
// a marker keeps the prefix it shares with its predecessor and opens the
// rest, then closes everything its successor does not share.
func (w *writer) markers(s model.Markerable) []any {
	var inlines []model.Inline
	for m := range s.Markers().All() {
		if !m.IsBlank() {
			inlines = append(inlines, m)
		}
	}

	out := []any{}
	var prev []*model.Markup
	for i, m := range inlines {
		markups := m.Markups()
		opened := []int{}
		for _, mk := range markups[len(model.CommonPrefix(prev, markups)):] {
			opened = append(opened, w.markup(mk))
		}
		var next []*model.Markup
		if i+1 < len(inlines) {
			next = inlines[i+1].Markups()
		}
		closed := len(markups) - len(model.CommonPrefix(markups, next))

		if atom, ok := m.(*model.Atom); ok {
			w.atoms = append(w.atoms, []any{atom.Name(), atom.Value(), payloadOf(atom.Payload())})
			out = append(out, []any{markerAtom, opened, closed, len(w.atoms) - 1})
		} else {
			out = append(out, []any{markerText, opened, closed, m.Text()})
		}
		prev = markups
	}
	return out
}

func (w *writer) markup(m *model.Markup) int {
	if i, ok := w.markupIdx[m]; ok {
		return i
	}
	entry := []any{string(m.Tag())}
	if attrs := flatten(m.AttributeNames(), m.Attribute); len(attrs) > 0 {
		entry = append(entry, attrs)
	}
	w.markups = append(w.markups, entry)
	w.markupIdx[m] = len(w.markups) - 1
	return len(w.markups) - 1
}

// flatten turns sorted attribute names into a [name, value, ...] list.
func flatten(names []string, get func(string) (string, bool)) []string {
	var out []string
	for _, name := range names {
		v, _ := get(name)
		out = append(out, name, v)
	}
	return out
}

func payloadOf(p map[string]any) map[string]any {
	if p == nil {
		return map[string]any{}
	}
	return p
}
