package plugin

import (
	"context"
	"maps"
)

// Mode is how a card is presented.
type Mode int

// Card modes.
const (
	ModeDisplay Mode = iota
	ModeEdit
)

// String returns the mode name.
func (m Mode) String() string {
	if m == ModeEdit {
		return "edit"
	}
	return "display"
}

// Card renders card sections with one name.
type Card interface {
	Name() string
	Render(ctx context.Context, env *Env, payload map[string]any) (string, error)
}

// Atom renders atoms with one name.
type Atom interface {
	Name() string
	Render(ctx context.Context, env *Env, value string, payload map[string]any) (string, error)
}

type cardFunc struct {
	name string
	fn   func(ctx context.Context, env *Env, payload map[string]any) (string, error)
}

// CardFunc adapts a function to the Card interface.
func CardFunc(name string, fn func(ctx context.Context, env *Env, payload map[string]any) (string, error)) Card {
	return &cardFunc{name: name, fn: fn}
}

func (c *cardFunc) Name() string { return c.name }

func (c *cardFunc) Render(ctx context.Context, env *Env, payload map[string]any) (string, error) {
	return c.fn(ctx, env, payload)
}

type atomFunc struct {
	name string
	fn   func(ctx context.Context, env *Env, value string, payload map[string]any) (string, error)
}

// AtomFunc adapts a function to the Atom interface.
func AtomFunc(name string, fn func(ctx context.Context, env *Env, value string, payload map[string]any) (string, error)) Atom {
	return &atomFunc{name: name, fn: fn}
}

func (a *atomFunc) Name() string { return a.name }

func (a *atomFunc) Render(ctx context.Context, env *Env, value string, payload map[string]any) (string, error) {
	return a.fn(ctx, env, value, payload)
}

// Actions are the host callbacks behind an Env. Nil actions report
// ErrNotSupported.
type Actions struct {
	Save    func(payload map[string]any) error
	Remove  func() error
	SetMode func(Mode) error
}

// Env is what a plugin sees of the section or atom it renders.
type Env struct {
	name    string
	mode    Mode
	actions Actions
}

// NewEnv creates an Env for the plugin called name.
func NewEnv(name string, mode Mode, actions Actions) *Env {
	return &Env{name: name, mode: mode, actions: actions}
}

// Name returns the card or atom name. For a fallback handler this is the
// unknown name being rendered.
func (e *Env) Name() string { return e.name }

// Mode returns the current mode.
func (e *Env) Mode() Mode { return e.mode }

// Save replaces the payload.
func (e *Env) Save(payload map[string]any) error {
	if e.actions.Save == nil {
		return ErrNotSupported
	}
	return e.actions.Save(maps.Clone(payload))
}

// Remove deletes the card section or atom.
func (e *Env) Remove() error {
	if e.actions.Remove == nil {
		return ErrNotSupported
	}
	return e.actions.Remove()
}

// Edit switches to edit mode.
func (e *Env) Edit() error { return e.setMode(ModeEdit) }

// Display switches to display mode.
func (e *Env) Display() error { return e.setMode(ModeDisplay) }

func (e *Env) setMode(m Mode) error {
	if e.actions.SetMode == nil {
		return ErrNotSupported
	}
	if err := e.actions.SetMode(m); err != nil {
		return err
	}
	e.mode = m
	return nil
}
