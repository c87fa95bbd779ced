package lua

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"path"
	"strings"

	"github.com/dshills/quire/internal/plugin"
)

// Set is the plugins loaded by LoadDir.
type Set struct {
	Cards []*Card
	Atoms []*Atom
}

// Close releases every loaded script.
func (s *Set) Close() error {
	var errs []error
	for _, c := range s.Cards {
		errs = append(errs, c.Close())
	}
	for _, a := range s.Atoms {
		errs = append(errs, a.Close())
	}
	return errors.Join(errs...)
}

// LoadDir loads cards/*.lua and atoms/*.lua from fsys and registers them
// with r. The file name without its extension is the plugin name. On error
// the scripts loaded so far are closed.
func LoadDir(ctx context.Context, fsys fs.FS, r *plugin.Registry, opts ...Option) (*Set, error) {
	set := &Set{}
	fail := func(err error) (*Set, error) {
		set.Close()
		return nil, err
	}

	cards, err := fs.Glob(fsys, "cards/*.lua")
	if err != nil {
		return fail(err)
	}
	for _, file := range cards {
		src, err := fs.ReadFile(fsys, file)
		if err != nil {
			return fail(fmt.Errorf("read %s: %w", file, err))
		}
		c, err := NewCard(ctx, pluginName(file), string(src), opts...)
		if err != nil {
			return fail(err)
		}
		set.Cards = append(set.Cards, c)
		if err := r.RegisterCard(c); err != nil {
			return fail(err)
		}
	}

	atoms, err := fs.Glob(fsys, "atoms/*.lua")
	if err != nil {
		return fail(err)
	}
	for _, file := range atoms {
		src, err := fs.ReadFile(fsys, file)
		if err != nil {
			return fail(fmt.Errorf("read %s: %w", file, err))
		}
		a, err := NewAtom(ctx, pluginName(file), string(src), opts...)
		if err != nil {
			return fail(err)
		}
		set.Atoms = append(set.Atoms, a)
		if err := r.RegisterAtom(a); err != nil {
			return fail(err)
		}
	}
	return set, nil
}

func pluginName(file string) string {
	return strings.TrimSuffix(path.Base(file), path.Ext(file))
}
