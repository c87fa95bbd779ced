package text

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dshills/quire/internal/engine/model"
	"github.com/dshills/quire/internal/plugin"
)

func TestRender(t *testing.T) {
	b := model.NewBuilder()
	post := b.Post(
		b.MarkupSection(model.TagH1, b.Marker("Title")),
		b.MarkupSection(model.TagP, b.Marker("hi "), b.Atom("mention", "bob", nil), b.Marker("!")),
		b.ListSection(model.TagOL, b.ListItem(b.Marker("a")), b.ListItem(b.Marker("b"))),
		b.ListSection(model.TagUL, b.ListItem(b.Marker("c"))),
		b.Card("hr", nil),
		b.Image("cat.png"),
		b.MarkupSection(model.TagP),
	)

	t.Run("without registry", func(t *testing.T) {
		got, err := Render(context.Background(), post, nil)
		require.NoError(t, err)
		assert.Equal(t, "Title\nhi bob!\n1. a\n2. b\n* c\n[hr]\ncat.png\n", got)
	})

	t.Run("with registry", func(t *testing.T) {
		r := plugin.NewRegistry()
		require.NoError(t, r.RegisterCard(plugin.CardFunc("hr", func(context.Context, *plugin.Env, map[string]any) (string, error) {
			return "----", nil
		})))
		require.NoError(t, r.RegisterAtom(plugin.AtomFunc("mention", func(_ context.Context, _ *plugin.Env, v string, _ map[string]any) (string, error) {
			return "@" + v, nil
		})))
		got, err := Render(context.Background(), post, r)
		require.NoError(t, err)
		assert.Equal(t, "Title\nhi @bob!\n1. a\n2. b\n* c\n----\ncat.png\n", got)
	})
}

func TestParse(t *testing.T) {
	b := model.NewBuilder()
	post := Parse(b, "first\r\n* one\n- two\n1. x\n12. y\n\nlast\n")

	var got []string
	for s := range post.Sections().All() {
		switch s := s.(type) {
		case *model.MarkupSection:
			got = append(got, string(s.Tag())+":"+s.Text())
		case *model.ListSection:
			for _, item := range s.ItemSlice() {
				got = append(got, string(s.Tag())+":"+item.Text())
			}
		}
	}
	assert.Equal(t, []string{"p:first", "ul:one", "ul:two", "ol:x", "ol:y", "p:", "p:last"}, got)
	assert.Equal(t, 5, post.Sections().Len(), "adjacent items share a list")
}

func TestParseNormalizesNFC(t *testing.T) {
	post := Parse(model.NewBuilder(), "cafe\u0301")
	s := post.Sections().Head().(*model.MarkupSection)
	assert.Equal(t, "caf\u00e9", s.Text())
	assert.Equal(t, 4, s.Len())
}

func TestParseEmpty(t *testing.T) {
	assert.True(t, Parse(model.NewBuilder(), "").IsBlank())
	assert.True(t, Parse(model.NewBuilder(), "\n").IsBlank())
}

func TestRoundTrip(t *testing.T) {
	in := "intro\n* a\n* b\n1. c\noutro"
	out, err := Render(context.Background(), Parse(model.NewBuilder(), in), nil)
	require.NoError(t, err)
	assert.Equal(t, in, out)
}
