package model

import (
	"errors"
	"slices"
	"testing"
)

type stubHook struct {
	dirty, removed bool
}

func (h *stubHook) MarkDirty()          { h.dirty = true }
func (h *stubHook) ScheduleForRemoval() { h.removed = true }
func (h *stubHook) IsRemoved() bool     { return h.removed }

func texts(s Markerable) []string {
	var out []string
	for m := range s.Markers().All() {
		out = append(out, m.Text())
	}
	return out
}

// Builder Tests

func TestBuilderMarkupInterned(t *testing.T) {
	b := NewBuilder()

	if b.Markup(MarkupB, nil) != b.Markup(MarkupB, nil) {
		t.Error("same tag should return the same markup")
	}
	link1 := b.Markup(MarkupA, map[string]string{"href": "http://x", "onclick": "evil()"})
	link2 := b.Markup(MarkupA, map[string]string{"HREF": "http://x"})
	if link1 != link2 {
		t.Error("disallowed attributes should be filtered before interning")
	}
	if _, ok := link1.Attribute("onclick"); ok {
		t.Error("onclick should have been dropped")
	}
	if b.Markup(MarkupA, map[string]string{"href": "http://y"}) == link1 {
		t.Error("different attributes should be a different markup")
	}
	if b.MarkupCount() != 3 {
		t.Errorf("expected 3 cached markups, got %d", b.MarkupCount())
	}
	if link1.String() != "a[href=http://x]" {
		t.Errorf("unexpected key %q", link1.String())
	}
}

func TestBuilderInvalidTagPanics(t *testing.T) {
	b := NewBuilder()
	defer func() {
		if recover() == nil {
			t.Error("expected panic for invalid tag")
		}
	}()
	b.MarkupSection(SectionTag("div"))
}

func TestParseTags(t *testing.T) {
	tests := []struct {
		in      string
		want    SectionTag
		wantErr bool
	}{
		{"p", TagP, false},
		{" H2 ", TagH2, false},
		{"pull-quote", TagPullQuote, false},
		{"div", "", true},
		{"h7", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseSectionTag(tt.in)
			if tt.wantErr {
				if !errors.Is(err, ErrInvalidTag) {
					t.Errorf("expected ErrInvalidTag, got %v", err)
				}
				return
			}
			if err != nil || got != tt.want {
				t.Errorf("ParseSectionTag(%q) = %q, %v", tt.in, got, err)
			}
		})
	}

	if _, err := ParseListTag("dl"); !errors.Is(err, ErrInvalidTag) {
		t.Errorf("expected ErrInvalidTag for dl, got %v", err)
	}
	if _, err := ParseMarkupTag("span"); !errors.Is(err, ErrInvalidTag) {
		t.Errorf("expected ErrInvalidTag for span, got %v", err)
	}
}

// Marker Tests

func TestMarkerSplit(t *testing.T) {
	b := NewBuilder()
	bold := b.Markup(MarkupB, nil)
	m := b.Marker("héllo", bold)

	tests := []struct {
		name          string
		offset, end   int
		pre, mid, pst string
		wantErr       bool
	}{
		{"middle", 1, 3, "h", "él", "lo", false},
		{"head", 0, 0, "", "", "héllo", false},
		{"tail", 5, 5, "héllo", "", "", false},
		{"whole", 0, 5, "", "héllo", "", false},
		{"past end", 2, 6, "", "", "", true},
		{"inverted", 3, 2, "", "", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pre, mid, post, err := m.Split(tt.offset, tt.end)
			if tt.wantErr {
				if !errors.Is(err, ErrOffsetOutOfRange) {
					t.Errorf("expected ErrOffsetOutOfRange, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if pre.Value() != tt.pre || mid.Value() != tt.mid || post.Value() != tt.pst {
				t.Errorf("got %q %q %q", pre.Value(), mid.Value(), post.Value())
			}
			if !mid.HasMarkup(bold) {
				t.Error("split parts should keep markups")
			}
		})
	}
}

func TestMarkerCanJoin(t *testing.T) {
	b := NewBuilder()
	bold, em := b.Markup(MarkupB, nil), b.Markup(MarkupEm, nil)

	if !b.Marker("a", bold, em).CanJoin(b.Marker("b", em, bold)) {
		t.Error("markers with the same markup set should join regardless of order")
	}
	if b.Marker("a", bold).CanJoin(b.Marker("b")) {
		t.Error("markers with different markups should not join")
	}
	if b.Marker("a").CanJoin(b.Atom("mention", "@x", nil)) {
		t.Error("a marker should not join an atom")
	}
	joined := b.Marker("ab", bold).Join(b.Marker("cd", bold))
	if joined.Value() != "abcd" || !joined.HasMarkup(bold) {
		t.Errorf("unexpected join result %q", joined.Value())
	}
}

func TestAtomSplitAtOffset(t *testing.T) {
	b := NewBuilder()
	a := b.Atom("mention", "@bob", map[string]any{"id": 1})

	pre, post, err := a.SplitAtOffset(0)
	if err != nil {
		t.Fatalf("split at 0: %v", err)
	}
	if !pre.IsBlank() || !post.IsAtom() {
		t.Error("split at 0 should yield a blank marker then the atom")
	}

	pre, post, err = a.SplitAtOffset(1)
	if err != nil {
		t.Fatalf("split at 1: %v", err)
	}
	if !pre.IsAtom() || !post.IsBlank() {
		t.Error("split at 1 should yield the atom then a blank marker")
	}

	if _, _, err := a.SplitAtOffset(2); !errors.Is(err, ErrAtomicSplit) {
		t.Errorf("expected ErrAtomicSplit, got %v", err)
	}
	if a.Text() != string(ObjectReplacement) || a.Len() != 1 {
		t.Error("atom should count as one replacement character")
	}
}

func TestOpenedClosedMarkups(t *testing.T) {
	b := NewBuilder()
	bold, em := b.Markup(MarkupB, nil), b.Markup(MarkupEm, nil)
	m1 := b.Marker("a", bold)
	m2 := b.Marker("b", bold, em)
	b.MarkupSection(TagP, m1, m2)

	if got := m2.OpenedMarkups(); !slices.Equal(got, []*Markup{em}) {
		t.Errorf("m2 opened = %v", got)
	}
	if got := m1.ClosedMarkups(); len(got) != 0 {
		t.Errorf("m1 closed = %v", got)
	}
	if got := m2.ClosedMarkups(); !slices.Equal(got, []*Markup{bold, em}) {
		t.Errorf("m2 closed = %v", got)
	}
}

func TestMarkupHelpers(t *testing.T) {
	b := NewBuilder()
	bold, em, code := b.Markup(MarkupB, nil), b.Markup(MarkupEm, nil), b.Markup(MarkupCode, nil)

	if !SameMarkups([]*Markup{bold, em}, []*Markup{em, bold}) {
		t.Error("SameMarkups should ignore order")
	}
	if SameMarkups([]*Markup{bold}, []*Markup{bold, em}) {
		t.Error("SameMarkups should compare lengths")
	}
	if got := CommonPrefix([]*Markup{bold, em, code}, []*Markup{bold, em}); len(got) != 2 {
		t.Errorf("expected prefix of 2, got %d", len(got))
	}
	if got := CommonPrefix([]*Markup{em}, []*Markup{bold}); len(got) != 0 {
		t.Errorf("expected empty prefix, got %d", len(got))
	}
}

// Markerable Tests

func TestMarkerPositionAtOffset(t *testing.T) {
	b := NewBuilder()
	m1, m2 := b.Marker("abc"), b.Marker("def")
	s := b.MarkupSection(TagP, m1, m2)

	tests := []struct {
		offset int
		marker Inline
		inner  int
	}{
		{0, m1, 0},
		{2, m1, 2},
		{3, m1, 3},
		{4, m2, 1},
		{6, m2, 3},
	}
	for _, tt := range tests {
		m, inner := s.MarkerPositionAtOffset(tt.offset)
		if m != tt.marker || inner != tt.inner {
			t.Errorf("offset %d: got (%v, %d), want (%v, %d)", tt.offset, m.Text(), inner, tt.marker.Text(), tt.inner)
		}
	}
}

func TestSplitMarkerAtOffset(t *testing.T) {
	b := NewBuilder()
	s := b.MarkupSection(TagP, b.Marker("abcdef"))

	edit, err := s.SplitMarkerAtOffset(2)
	if err != nil {
		t.Fatalf("split: %v", err)
	}
	if got := texts(s); !slices.Equal(got, []string{"ab", "cdef"}) {
		t.Errorf("markers after split = %v", got)
	}
	if len(edit.Removed) != 1 || len(edit.Added) != 2 {
		t.Errorf("unexpected edit %+v", edit)
	}

	edit, err = s.SplitMarkerAtOffset(2)
	if err != nil || len(edit.Added) != 0 || len(edit.Removed) != 0 {
		t.Errorf("split at a boundary should be a no-op, got %+v %v", edit, err)
	}

	if _, err := s.SplitMarkerAtOffset(7); !errors.Is(err, ErrOffsetOutOfRange) {
		t.Errorf("expected ErrOffsetOutOfRange, got %v", err)
	}

	empty := b.MarkupSection(TagP)
	edit, err = empty.SplitMarkerAtOffset(0)
	if err != nil || len(edit.Added) != 1 || empty.Markers().Len() != 1 {
		t.Errorf("empty section should gain a blank marker, got %+v %v", edit, err)
	}
	if empty.Markers().Head().Section() != empty {
		t.Error("added marker should point back to its section")
	}
}

func TestMarkersInRange(t *testing.T) {
	b := NewBuilder()
	m1, m2 := b.Marker("abc"), b.Marker("def")
	s := b.MarkupSection(TagP, m1, m2)

	var got []MarkerRange
	var hit []Inline
	s.MarkersInRange(2, 4, func(m Inline, r MarkerRange) {
		hit = append(hit, m)
		got = append(got, r)
	})
	want := []MarkerRange{{Head: 2, Tail: 3}, {Head: 0, Tail: 1}}
	if !slices.Equal(hit, []Inline{m1, m2}) || !slices.Equal(got, want) {
		t.Errorf("got %v", got)
	}

	got = nil
	s.MarkersInRange(0, 6, func(_ Inline, r MarkerRange) { got = append(got, r) })
	if len(got) != 2 || !got[0].Contained || !got[1].Contained {
		t.Errorf("whole range should contain both markers, got %v", got)
	}
}

func TestMarkersFor(t *testing.T) {
	b := NewBuilder()
	bold := b.Markup(MarkupB, nil)
	s := b.MarkupSection(TagP, b.Marker("abc", bold), b.Atom("mention", "@x", nil), b.Marker("def"))

	out := s.MarkersFor(1, 6)
	var got []string
	for _, m := range out {
		got = append(got, m.Text())
		if m.Section() != nil {
			t.Error("extracted markers should be detached")
		}
	}
	want := []string{"bc", string(ObjectReplacement), "de"}
	if !slices.Equal(got, want) {
		t.Errorf("got %q, want %q", got, want)
	}
	if !out[0].HasMarkup(bold) {
		t.Error("extracted marker should keep markups")
	}
}

func TestSectionTextAndLen(t *testing.T) {
	b := NewBuilder()
	s := b.MarkupSection(TagP, b.Marker("ab"), b.Atom("x", "", nil), b.Marker(""))

	if s.Len() != 3 {
		t.Errorf("expected len 3, got %d", s.Len())
	}
	if s.Text() != "ab"+string(ObjectReplacement) {
		t.Errorf("unexpected text %q", s.Text())
	}
	if s.IsBlank() {
		t.Error("section with text should not be blank")
	}
	if !b.MarkupSection(TagP, b.Marker("")).IsBlank() {
		t.Error("section with only blank markers should be blank")
	}
}

func TestMarkupSectionSplitAtOffset(t *testing.T) {
	b := NewBuilder()
	tests := []struct {
		name      string
		tag       SectionTag
		offset    int
		before    string
		after     string
		afterTag  SectionTag
		keepAlign bool
	}{
		{"paragraph middle", TagP, 2, "ab", "cd", TagP, true},
		{"heading middle", TagH2, 1, "a", "bcd", TagH2, true},
		{"heading tail", TagH2, 4, "abcd", "", TagP, true},
		{"heading head", TagH2, 0, "", "abcd", TagH2, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := b.MarkupSection(tt.tag, b.Marker("ab"), b.Marker("cd"))
			if err := s.SetAttribute(AttrTextAlign, "center"); err != nil {
				t.Fatal(err)
			}
			before, after, err := s.SplitAtOffset(tt.offset)
			if err != nil {
				t.Fatalf("split: %v", err)
			}
			if before.Text() != tt.before || after.Text() != tt.after {
				t.Errorf("got %q|%q", before.Text(), after.Text())
			}
			if got := after.(*MarkupSection).Tag(); got != tt.afterTag {
				t.Errorf("after tag = %s, want %s", got, tt.afterTag)
			}
			if v, _ := before.(*MarkupSection).Attribute(AttrTextAlign); v != "center" {
				t.Error("before section should keep attributes")
			}
		})
	}
}

func TestMarkupSectionJoin(t *testing.T) {
	b := NewBuilder()
	m1 := b.Marker("ab")
	s1 := b.MarkupSection(TagP, m1)
	s2 := b.MarkupSection(TagP, b.Marker(""), b.Marker("cd"))

	before, after := s1.Join(s2)
	if before != m1 {
		t.Error("before should be the last original marker")
	}
	if after == nil || after.Text() != "cd" || after.Section() != s1 {
		t.Error("after should be the first joined, non-blank marker")
	}
	if s1.Text() != "abcd" || s1.Markers().Len() != 2 {
		t.Errorf("unexpected joined section %q", s1.Text())
	}
	if s2.Markers().Len() != 2 {
		t.Error("join should not consume the source")
	}
}

func TestSectionAttributes(t *testing.T) {
	b := NewBuilder()
	s := b.MarkupSection(TagP)

	if err := s.SetAttribute(AttrTextAlign, "justify"); err != nil {
		t.Fatalf("set: %v", err)
	}
	if err := s.SetAttribute(AttrTextAlign, "middle"); !errors.Is(err, ErrInvalidAttribute) {
		t.Errorf("expected ErrInvalidAttribute for bad value, got %v", err)
	}
	if err := s.SetAttribute("style", "color:red"); !errors.Is(err, ErrInvalidAttribute) {
		t.Errorf("expected ErrInvalidAttribute for bad name, got %v", err)
	}
	if v, ok := s.Attribute(AttrTextAlign); !ok || v != "justify" {
		t.Errorf("attribute = %q, %v", v, ok)
	}
	if !s.RemoveAttribute(AttrTextAlign) || s.RemoveAttribute(AttrTextAlign) {
		t.Error("RemoveAttribute should report whether it removed something")
	}
}

// List Tests

func TestListSectionHoldsOnlyItems(t *testing.T) {
	b := NewBuilder()
	l := b.ListSection(TagUL)
	defer func() {
		if recover() == nil {
			t.Error("appending a markup section to a list should panic")
		}
	}()
	l.Items().Append(b.MarkupSection(TagP))
}

func TestListSectionJoin(t *testing.T) {
	b := NewBuilder()
	l := b.ListSection(TagUL, b.ListItem(b.Marker("one")))
	other := b.ListSection(TagUL, b.ListItem(b.Marker("two")), b.ListItem(b.Marker("three")))

	added, err := l.Join(other)
	if err != nil {
		t.Fatalf("join list: %v", err)
	}
	if len(added) != 2 || l.Items().Len() != 3 || other.Items().Len() != 2 {
		t.Errorf("unexpected join: added=%d len=%d", len(added), l.Items().Len())
	}
	if added[0].List() != l {
		t.Error("joined item should point back to its list")
	}

	added, err = l.Join(b.MarkupSection(TagH1, b.Marker("four")))
	if err != nil || len(added) != 1 || added[0].Text() != "four" {
		t.Errorf("joining a markup section should wrap it as an item, got %v %v", added, err)
	}

	if _, err := l.Join(b.Card("hr", nil)); !errors.Is(err, ErrCannotJoin) {
		t.Errorf("expected ErrCannotJoin, got %v", err)
	}
}

func TestSplitAtomic(t *testing.T) {
	card := NewBuilder().Card("hr", nil)
	if before, err := SplitAtomic(card, 0); err != nil || !before {
		t.Error("offset 0 should insert before")
	}
	if before, err := SplitAtomic(card, 1); err != nil || before {
		t.Error("offset 1 should insert after")
	}
	if _, err := SplitAtomic(card, 2); !errors.Is(err, ErrAtomicSplit) {
		t.Errorf("expected ErrAtomicSplit, got %v", err)
	}
}

// Post Tests

func newWalkPost(b *Builder) (*Post, []Section) {
	p1 := b.MarkupSection(TagP, b.Marker("a"))
	li1 := b.ListItem(b.Marker("b"))
	li2 := b.ListItem(b.Marker("c"))
	card := b.Card("hr", nil)
	post := b.Post(p1, b.ListSection(TagUL, li1, li2), b.ListSection(TagOL), card)
	return post, []Section{p1, li1, li2, card}
}

func TestPostLeafSections(t *testing.T) {
	b := NewBuilder()
	post, leaves := newWalkPost(b)

	if got := post.LeafSections(); !slices.Equal(got, leaves) {
		t.Errorf("unexpected leaves %v", got)
	}
	if post.LeafCount() != 4 {
		t.Errorf("expected 4 leaves, got %d", post.LeafCount())
	}
	if post.LeafSectionAt(2) != leaves[2] || post.LeafSectionAt(4) != nil {
		t.Error("LeafSectionAt returned the wrong section")
	}
	if post.LeafIndexOf(leaves[3]) != 3 {
		t.Errorf("LeafIndexOf(card) = %d", post.LeafIndexOf(leaves[3]))
	}
	if post.FirstLeaf() != leaves[0] || post.LastLeaf() != leaves[3] {
		t.Error("FirstLeaf/LastLeaf mismatch")
	}
	if post.Text() != "a\nb\nc\n"+string(ObjectReplacement) {
		t.Errorf("unexpected post text %q", post.Text())
	}

	var markerable int
	post.WalkMarkerableSections(func(Markerable) bool {
		markerable++
		return true
	})
	if markerable != 3 {
		t.Errorf("expected 3 markerable sections, got %d", markerable)
	}
}

func TestNextPrevLeaf(t *testing.T) {
	b := NewBuilder()
	_, leaves := newWalkPost(b)

	for i := range leaves {
		var wantNext, wantPrev Section
		if i+1 < len(leaves) {
			wantNext = leaves[i+1]
		}
		if i > 0 {
			wantPrev = leaves[i-1]
		}
		if got := NextLeaf(leaves[i]); got != wantNext {
			t.Errorf("NextLeaf(%d) = %v", i, got)
		}
		if got := PrevLeaf(leaves[i]); got != wantPrev {
			t.Errorf("PrevLeaf(%d) = %v", i, got)
		}
	}
	if TopLevel(leaves[1]).Type() != TypeListSection || TopLevel(leaves[0]) != leaves[0] {
		t.Error("TopLevel should return the enclosing list for items")
	}
}

func TestPostCloneDropsRenderLinks(t *testing.T) {
	b := NewBuilder()
	post, leaves := newWalkPost(b)
	hook := &stubHook{}
	leaves[0].SetRenderNode(hook)

	c := post.Clone()
	if c.Text() != post.Text() {
		t.Errorf("clone text %q != %q", c.Text(), post.Text())
	}
	if c.FirstLeaf().RenderNode() != nil {
		t.Error("clone should not copy render links")
	}
	if c.FirstLeaf().Parent() != c {
		t.Error("cloned section should point at the cloned post")
	}

	if !MarkDirty(leaves[0]) || !hook.dirty {
		t.Error("MarkDirty should reach the render hook")
	}
	if MarkDirty(c.FirstLeaf()) {
		t.Error("MarkDirty without a render node should report false")
	}
}

func TestSectionParentLinks(t *testing.T) {
	b := NewBuilder()
	s := b.MarkupSection(TagP)
	post := b.Post(s)

	if s.Parent() != post || IsNested(s) {
		t.Error("top-level section should point at the post")
	}
	post.Sections().Remove(s)
	if s.Parent() != nil {
		t.Error("removed section should be detached")
	}

	defer func() {
		if recover() == nil {
			t.Error("a list item at the top level should panic")
		}
	}()
	post.Sections().Append(b.ListItem())
}
