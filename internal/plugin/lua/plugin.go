package lua

import (
	"context"
	"fmt"

	lua "github.com/yuin/gopher-lua"

	"github.com/dshills/quire/internal/plugin"
)

// script is a loaded plugin source with its own state.
type script struct {
	name  string
	state *State
}

func load(ctx context.Context, name, source string, opts []Option) (*script, error) {
	s := NewState(opts...)
	if err := s.DoString(ctx, source); err != nil {
		s.Close()
		return nil, fmt.Errorf("load %s: %w", name, err)
	}
	if s.L.GetGlobal("render").Type() != lua.LTFunction {
		s.Close()
		return nil, fmt.Errorf("load %s: render: %w", name, ErrNoFunction)
	}
	return &script{name: name, state: s}, nil
}

// render calls the script's render function with an env table followed by
// args.
func (sc *script) render(ctx context.Context, env *plugin.Env, args ...any) (string, error) {
	st := sc.state
	st.mu.Lock()
	defer st.mu.Unlock()
	if st.closed {
		return "", ErrStateClosed
	}

	ret, err := st.call(ctx, "render", func(L *lua.LState) []lua.LValue {
		values := []lua.LValue{envTable(L, env)}
		for _, a := range args {
			values = append(values, ToLua(L, a))
		}
		return values
	})
	if err != nil {
		return "", fmt.Errorf("%s: %w", sc.name, err)
	}
	switch v := ret.(type) {
	case lua.LString:
		return string(v), nil
	case lua.LNumber:
		return v.String(), nil
	default:
		return "", fmt.Errorf("%s returned %s: %w", sc.name, ret.Type(), ErrBadResult)
	}
}

// envTable exposes env to the script. Host errors are raised as Lua
// errors so they abort render.
func envTable(L *lua.LState, env *plugin.Env) *lua.LTable {
	t := L.NewTable()
	t.RawSetString("name", lua.LString(env.Name()))
	t.RawSetString("mode", lua.LString(env.Mode().String()))

	action := func(fn func() error) *lua.LFunction {
		return L.NewFunction(func(L *lua.LState) int {
			if err := fn(); err != nil {
				L.RaiseError("%v", err)
			}
			return 0
		})
	}
	t.RawSetString("save", L.NewFunction(func(L *lua.LState) int {
		payload, ok := ToGo(L.CheckTable(1)).(map[string]any)
		if !ok {
			L.ArgError(1, "payload must have string keys")
			return 0
		}
		if err := env.Save(payload); err != nil {
			L.RaiseError("%v", err)
		}
		return 0
	}))
	t.RawSetString("remove", action(env.Remove))
	t.RawSetString("edit", action(env.Edit))
	t.RawSetString("display", action(env.Display))
	return t
}

// Card is a card plugin backed by a Lua script.
type Card struct {
	*script
}

// NewCard loads source as the card called name.
func NewCard(ctx context.Context, name, source string, opts ...Option) (*Card, error) {
	sc, err := load(ctx, name, source, opts)
	if err != nil {
		return nil, err
	}
	return &Card{sc}, nil
}

// Name returns the card name.
func (c *Card) Name() string { return c.name }

// Render calls render(env, payload).
func (c *Card) Render(ctx context.Context, env *plugin.Env, payload map[string]any) (string, error) {
	return c.render(ctx, env, payload)
}

// Close releases the script's state.
func (c *Card) Close() error { return c.state.Close() }

// Atom is an atom plugin backed by a Lua script.
type Atom struct {
	*script
}

// NewAtom loads source as the atom called name.
func NewAtom(ctx context.Context, name, source string, opts ...Option) (*Atom, error) {
	sc, err := load(ctx, name, source, opts)
	if err != nil {
		return nil, err
	}
	return &Atom{sc}, nil
}

// Name returns the atom name.
func (a *Atom) Name() string { return a.name }

// Render calls render(env, value, payload).
func (a *Atom) Render(ctx context.Context, env *plugin.Env, value string, payload map[string]any) (string, error) {
	return a.render(ctx, env, value, payload)
}

// Close releases the script's state.
func (a *Atom) Close() error { return a.state.Close() }

var (
	_ plugin.Card = (*Card)(nil)
	_ plugin.Atom = (*Atom)(nil)
)
