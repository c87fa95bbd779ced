package mobiledoc

import (
	"fmt"
	"slices"

	"github.com/tidwall/gjson"

	"github.com/dshills/quire/internal/engine/model"
)

type atomDef struct {
	name    string
	value   string
	payload map[string]any
}

type cardDef struct {
	name    string
	payload map[string]any
}

// reader holds the lookup tables of the mobiledoc being parsed.
type reader struct {
	b       *model.Builder
	version string
	markups []*model.Markup
	atoms   []atomDef
	cards   []cardDef
}

// Version returns the declared version of a mobiledoc without parsing it.
func Version(data []byte) (string, error) {
	if !gjson.ValidBytes(data) {
		return "", &ParseError{Message: "invalid JSON", Err: ErrMalformed}
	}
	v := gjson.GetBytes(data, "version")
	if v.Type != gjson.String {
		return "", &ParseError{Path: "version", Message: "missing version", Err: ErrMalformed}
	}
	return v.String(), nil
}

// Parse builds a post from a mobiledoc of any supported version. Nodes are
// created with b, so markups are shared with other posts of the builder.
func Parse(b *model.Builder, data []byte) (*model.Post, error) {
	version, err := Version(data)
	if err != nil {
		return nil, err
	}
	root := gjson.ParseBytes(data)
	if !root.IsObject() {
		return nil, &ParseError{Version: version, Message: "not an object", Err: ErrMalformed}
	}
	r := &reader{b: b, version: version}

	switch version {
	case Version020:
		return r.parse020(root)
	case Version030, Version031, Version032:
		return r.parse03(root)
	default:
		return nil, &ParseError{
			Version: version,
			Path:    "version",
			Message: fmt.Sprintf("cannot read version %q", version),
			Err:     ErrUnsupportedVersion,
		}
	}
}

func (r *reader) fail(path string, err error, format string, args ...any) error {
	return &ParseError{Version: r.version, Path: path, Message: fmt.Sprintf(format, args...), Err: err}
}

// parse03 reads the 0.3.x layout: top-level markup, atom and card tables.
func (r *reader) parse03(root gjson.Result) (*model.Post, error) {
	if err := r.readMarkups("markups", root.Get("markups")); err != nil {
		return nil, err
	}
	if err := r.readAtoms(root.Get("atoms")); err != nil {
		return nil, err
	}
	if err := r.readCards(root.Get("cards")); err != nil {
		return nil, err
	}
	return r.readSections("sections", root.Get("sections"))
}

// parse020 reads the 0.2.0 layout, where "sections" is a pair of the
// markup table and the section list.
func (r *reader) parse020(root gjson.Result) (*model.Post, error) {
	pair := root.Get("sections")
	if !pair.IsArray() || len(pair.Array()) != 2 {
		return nil, r.fail("sections", ErrMalformed, "expected [markups, sections]")
	}
	if err := r.readMarkups("sections.0", pair.Get("0")); err != nil {
		return nil, err
	}
	return r.readSections("sections.1", pair.Get("1"))
}

func (r *reader) readMarkups(path string, v gjson.Result) error {
	for i, entry := range v.Array() {
		p := fmt.Sprintf("%s.%d", path, i)
		fields := entry.Array()
		if len(fields) == 0 {
			return r.fail(p, ErrMalformed, "empty markup")
		}
		tag, err := model.ParseMarkupTag(fields[0].String())
		if err != nil {
			return r.fail(p+".0", err, "%v", err)
		}
		var attrs map[string]string
		if len(fields) > 1 {
			if attrs, err = r.pairs(p+".1", fields[1]); err != nil {
				return err
			}
		}
		r.markups = append(r.markups, r.b.Markup(tag, attrs))
	}
	return nil
}

func (r *reader) readAtoms(v gjson.Result) error {
	for i, entry := range v.Array() {
		fields := entry.Array()
		if len(fields) < 2 {
			return r.fail(fmt.Sprintf("atoms.%d", i), ErrMalformed, "expected [name, value, payload]")
		}
		def := atomDef{name: fields[0].String(), value: fields[1].String()}
		if len(fields) > 2 {
			def.payload = payload(fields[2])
		}
		r.atoms = append(r.atoms, def)
	}
	return nil
}

func (r *reader) readCards(v gjson.Result) error {
	for i, entry := range v.Array() {
		fields := entry.Array()
		if len(fields) == 0 {
			return r.fail(fmt.Sprintf("cards.%d", i), ErrMalformed, "expected [name, payload]")
		}
		def := cardDef{name: fields[0].String()}
		if len(fields) > 1 {
			def.payload = payload(fields[1])
		}
		r.cards = append(r.cards, def)
	}
	return nil
}

func (r *reader) readSections(path string, v gjson.Result) (*model.Post, error) {
	if v.Exists() && !v.IsArray() {
		return nil, r.fail(path, ErrMalformed, "sections must be an array")
	}
	post := r.b.Post()
	for i, entry := range v.Array() {
		s, err := r.section(fmt.Sprintf("%s.%d", path, i), entry)
		if err != nil {
			return nil, err
		}
		r.b.Attach(post, s)
	}
	return post, nil
}

func (r *reader) section(path string, v gjson.Result) (model.Section, error) {
	fields := v.Array()
	if len(fields) < 2 {
		return nil, r.fail(path, ErrMalformed, "section too short")
	}

	switch kind := fields[0].Int(); kind {
	case typeMarkupSection:
		if len(fields) < 3 {
			return nil, r.fail(path, ErrMalformed, "markup section needs [1, tag, markers]")
		}
		tag, err := model.ParseSectionTag(fields[1].String())
		if err != nil {
			return nil, r.fail(path+".1", err, "%v", err)
		}
		inlines, err := r.markers(path+".2", fields[2])
		if err != nil {
			return nil, err
		}
		s := r.b.MarkupSection(tag, inlines...)
		if len(fields) > 3 {
			if err := r.attributes(path+".3", fields[3], s.SetAttribute); err != nil {
				return nil, err
			}
		}
		return s, nil

	case typeListSection:
		if len(fields) < 3 {
			return nil, r.fail(path, ErrMalformed, "list section needs [3, tag, items]")
		}
		tag, err := model.ParseListTag(fields[1].String())
		if err != nil {
			return nil, r.fail(path+".1", err, "%v", err)
		}
		var items []*model.ListItem
		for j, item := range fields[2].Array() {
			inlines, err := r.markers(fmt.Sprintf("%s.2.%d", path, j), item)
			if err != nil {
				return nil, err
			}
			items = append(items, r.b.ListItem(inlines...))
		}
		l := r.b.ListSection(tag, items...)
		if len(fields) > 3 {
			if err := r.attributes(path+".3", fields[3], l.SetAttribute); err != nil {
				return nil, err
			}
		}
		return l, nil

	case typeImageSection:
		return r.b.Image(fields[1].String()), nil

	case typeCardSection:
		if r.version == Version020 {
			var p map[string]any
			if len(fields) > 2 {
				p = payload(fields[2])
			}
			return r.b.Card(fields[1].String(), p), nil
		}
		idx := int(fields[1].Int())
		if fields[1].Type != gjson.Number || idx < 0 || idx >= len(r.cards) {
			return nil, r.fail(path+".1", ErrMalformed, "card index %s out of range", fields[1].Raw)
		}
		def := r.cards[idx]
		return r.b.Card(def.name, def.payload), nil

	default:
		return nil, r.fail(path+".0", ErrMalformed, "unknown section type %d", kind)
	}
}

// markers reads a marker list, replaying the markup stack. In 0.2.0 a
// marker is [opened, closed, text]; later versions prefix the kind.
func (r *reader) markers(path string, v gjson.Result) ([]model.Inline, error) {
	var (
		stack []*model.Markup
		out   []model.Inline
	)
	for i, entry := range v.Array() {
		p := fmt.Sprintf("%s.%d", path, i)
		fields := entry.Array()
		if r.version == Version020 {
			if len(fields) < 3 {
				return nil, r.fail(p, ErrMalformed, "marker needs [opened, closed, text]")
			}
			fields = append([]gjson.Result{{Type: gjson.Number, Num: markerText, Raw: "0"}}, fields...)
		}
		if len(fields) < 4 {
			return nil, r.fail(p, ErrMalformed, "marker needs [kind, opened, closed, value]")
		}

		for j, idx := range fields[1].Array() {
			n := int(idx.Int())
			if n < 0 || n >= len(r.markups) {
				return nil, r.fail(fmt.Sprintf("%s.1.%d", p, j), ErrMalformed, "markup index %d out of range", n)
			}
			stack = append(stack, r.markups[n])
		}
		markups := slices.Clone(stack)

		switch fields[0].Int() {
		case markerText:
			if text := fields[3].String(); text != "" {
				out = append(out, r.b.Marker(text, markups...))
			}
		case markerAtom:
			n := int(fields[3].Int())
			if n < 0 || n >= len(r.atoms) {
				return nil, r.fail(p+".3", ErrMalformed, "atom index %d out of range", n)
			}
			def := r.atoms[n]
			out = append(out, r.b.Atom(def.name, def.value, def.payload, markups...))
		default:
			return nil, r.fail(p+".0", ErrMalformed, "unknown marker type %s", fields[0].Raw)
		}

		closed := int(fields[2].Int())
		if closed < 0 || closed > len(stack) {
			return nil, r.fail(p+".2", ErrMalformed, "closes %d of %d open markups", closed, len(stack))
		}
		stack = stack[:len(stack)-closed]
	}
	return out, nil
}

// attributes applies a [name, value, ...] list through set.
func (r *reader) attributes(path string, v gjson.Result, set func(name, value string) error) error {
	attrs, err := r.pairs(path, v)
	if err != nil {
		return err
	}
	names := make([]string, 0, len(attrs))
	for name := range attrs {
		names = append(names, name)
	}
	slices.Sort(names)
	for _, name := range names {
		if err := set(name, attrs[name]); err != nil {
			return r.fail(path, err, "%v", err)
		}
	}
	return nil
}

func (r *reader) pairs(path string, v gjson.Result) (map[string]string, error) {
	list := v.Array()
	if len(list)%2 != 0 {
		return nil, r.fail(path, ErrMalformed, "odd attribute list")
	}
	if len(list) == 0 {
		return nil, nil
	}
	out := make(map[string]string, len(list)/2)
	for i := 0; i < len(list); i += 2 {
		out[list[i].String()] = list[i+1].String()
	}
	return out, nil
}

func payload(v gjson.Result) map[string]any {
	if m, ok := v.Value().(map[string]any); ok {
		return m
	}
	return nil
}
