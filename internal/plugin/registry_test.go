package plugin

import (
	"context"
	"errors"
	"slices"
	"testing"
)

func textCard(name, text string) Card {
	return CardFunc(name, func(context.Context, *Env, map[string]any) (string, error) {
		return text, nil
	})
}

func TestRegistryLookup(t *testing.T) {
	r := NewRegistry()
	if err := r.RegisterCard(textCard("hr", "---"), textCard("code", "{}")); err != nil {
		t.Fatal(err)
	}
	if err := r.RegisterAtom(AtomFunc("mention", func(_ context.Context, _ *Env, v string, _ map[string]any) (string, error) {
		return "@" + v, nil
	})); err != nil {
		t.Fatal(err)
	}

	c, err := r.Card("hr")
	if err != nil {
		t.Fatal(err)
	}
	if got, _ := c.Render(context.Background(), NewEnv("hr", ModeDisplay, Actions{}), nil); got != "---" {
		t.Errorf("Render() = %q", got)
	}
	a, err := r.Atom("mention")
	if err != nil {
		t.Fatal(err)
	}
	if got, _ := a.Render(context.Background(), NewEnv("mention", ModeDisplay, Actions{}), "bob", nil); got != "@bob" {
		t.Errorf("Render() = %q", got)
	}

	if got := r.CardNames(); !slices.Equal(got, []string{"code", "hr"}) {
		t.Errorf("CardNames() = %v", got)
	}
	if !r.HasAtom("mention") || r.HasCard("mention") {
		t.Error("Has* should only see registered kinds")
	}
}

func TestRegistryErrors(t *testing.T) {
	r := NewRegistry()
	_ = r.RegisterCard(textCard("hr", ""))

	tests := []struct {
		name string
		err  error
		want error
	}{
		{"duplicate", r.RegisterCard(textCard("hr", "")), ErrAlreadyRegistered},
		{"empty name", r.RegisterCard(textCard("", "")), ErrInvalidName},
		{"unknown card", func() error { _, err := r.Card("video"); return err }(), ErrUnknownCard},
		{"unknown atom", func() error { _, err := r.Atom("tag"); return err }(), ErrUnknownAtom},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if !errors.Is(tt.err, tt.want) {
				t.Errorf("expected %v, got %v", tt.want, tt.err)
			}
		})
	}
}

func TestRegistryFallback(t *testing.T) {
	fallback := CardFunc("unknown", func(_ context.Context, env *Env, _ map[string]any) (string, error) {
		return "[" + env.Name() + "?]", nil
	})
	r := NewRegistry(WithUnknownCardHandler(fallback))

	c, err := r.Card("video")
	if err != nil {
		t.Fatal(err)
	}
	got, _ := c.Render(context.Background(), NewEnv("video", ModeDisplay, Actions{}), nil)
	if got != "[video?]" {
		t.Errorf("fallback Render() = %q", got)
	}
	if r.HasCard("video") {
		t.Error("fallback should not register the name")
	}

	r.SetUnknownAtomHandler(AtomFunc("unknown", func(context.Context, *Env, string, map[string]any) (string, error) {
		return "?", nil
	}))
	if _, err := r.Atom("tag"); err != nil {
		t.Errorf("atom fallback should be used, got %v", err)
	}
}

func TestEnvActions(t *testing.T) {
	var saved map[string]any
	removed := false
	env := NewEnv("code", ModeDisplay, Actions{
		Save:    func(p map[string]any) error { saved = p; return nil },
		Remove:  func() error { removed = true; return nil },
		SetMode: func(Mode) error { return nil },
	})

	payload := map[string]any{"src": "x"}
	if err := env.Save(payload); err != nil {
		t.Fatal(err)
	}
	payload["src"] = "changed"
	if saved["src"] != "x" {
		t.Error("Save should copy the payload")
	}
	if err := env.Remove(); err != nil || !removed {
		t.Error("Remove should call the host")
	}
	if err := env.Edit(); err != nil || env.Mode() != ModeEdit {
		t.Errorf("Edit() = %v, mode %v", err, env.Mode())
	}
	if err := env.Display(); err != nil || env.Mode() != ModeDisplay {
		t.Errorf("Display() = %v, mode %v", err, env.Mode())
	}

	bare := NewEnv("code", ModeDisplay, Actions{})
	if err := bare.Save(nil); !errors.Is(err, ErrNotSupported) {
		t.Errorf("expected ErrNotSupported, got %v", err)
	}
	if err := bare.Edit(); !errors.Is(err, ErrNotSupported) || bare.Mode() != ModeDisplay {
		t.Error("failed mode change should keep the mode")
	}
}
