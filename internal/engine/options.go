package engine

import (
	"log/slog"
	"time"

	"github.com/dshills/quire/internal/engine/history"
	"github.com/dshills/quire/internal/engine/model"
	"github.com/dshills/quire/internal/plugin"
	"github.com/dshills/quire/internal/renderer/rendertree"
)

// Default configuration values.
const (
	DefaultUndoDepth        = history.DefaultDepth
	DefaultUndoBlockTimeout = 5 * time.Second
)

// Option configures an Engine during creation.
type Option func(*Engine)

// WithPost sets the initial post. It must have been built with b.
func WithPost(post *model.Post, b *model.Builder) Option {
	return func(e *Engine) {
		e.post = post
		e.builder = b
	}
}

// WithMobiledoc sets the initial post from a serialized mobiledoc.
func WithMobiledoc(data []byte) Option {
	return func(e *Engine) {
		e.initMobiledoc = data
	}
}

// WithView sets the view the render tree draws on.
func WithView(v rendertree.View) Option {
	return func(e *Engine) {
		e.view = v
	}
}

// WithRegistry sets the card and atom registry. Cards and atoms given by
// WithCards and WithAtoms are added to it.
func WithRegistry(r *plugin.Registry) Option {
	return func(e *Engine) {
		e.registry = r
	}
}

// WithCards registers card plugins.
func WithCards(cards ...plugin.Card) Option {
	return func(e *Engine) {
		e.cards = append(e.cards, cards...)
	}
}

// WithAtoms registers atom plugins.
func WithAtoms(atoms ...plugin.Atom) Option {
	return func(e *Engine) {
		e.atoms = append(e.atoms, atoms...)
	}
}

// WithUnknownCardHandler sets the card used for unregistered card names.
func WithUnknownCardHandler(c plugin.Card) Option {
	return func(e *Engine) {
		e.unknownCard = c
	}
}

// WithUnknownAtomHandler sets the atom used for unregistered atom names.
func WithUnknownAtomHandler(a plugin.Atom) Option {
	return func(e *Engine) {
		e.unknownAtom = a
	}
}

// WithUndoDepth sets how many undo steps are kept. Zero disables undo.
func WithUndoDepth(n int) Option {
	return func(e *Engine) {
		e.undoDepth = n
	}
}

// WithUndoBlockTimeout sets the window within which consecutive edits of
// the same kind form one undo step.
func WithUndoBlockTimeout(d time.Duration) Option {
	return func(e *Engine) {
		e.undoWindow = d
	}
}

// WithLogger sets the logger. The default discards.
func WithLogger(l *slog.Logger) Option {
	return func(e *Engine) {
		if l != nil {
			e.logger = l
		}
	}
}

// WithClock sets the time source used for undo grouping.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) {
		if now != nil {
			e.now = now
		}
	}
}
