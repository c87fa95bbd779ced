package plugin

import (
	"fmt"
	"io"
	"log/slog"
	"slices"
	"sync"
)

// Registry maps card and atom names to plugins.
type Registry struct {
	mu    sync.RWMutex
	cards map[string]Card
	atoms map[string]Atom

	unknownCard Card
	unknownAtom Atom
	logger      *slog.Logger
}

// RegistryOption configures a Registry.
type RegistryOption func(*Registry)

// WithUnknownCardHandler sets the card used for unregistered card names.
func WithUnknownCardHandler(c Card) RegistryOption {
	return func(r *Registry) { r.unknownCard = c }
}

// WithUnknownAtomHandler sets the atom used for unregistered atom names.
func WithUnknownAtomHandler(a Atom) RegistryOption {
	return func(r *Registry) { r.unknownAtom = a }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) RegistryOption {
	return func(r *Registry) {
		if l != nil {
			r.logger = l
		}
	}
}

// NewRegistry creates an empty registry.
func NewRegistry(opts ...RegistryOption) *Registry {
	r := &Registry{
		cards:  make(map[string]Card),
		atoms:  make(map[string]Atom),
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// SetUnknownCardHandler replaces the card fallback handler.
func (r *Registry) SetUnknownCardHandler(c Card) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.unknownCard = c
}

// SetUnknownAtomHandler replaces the atom fallback handler.
func (r *Registry) SetUnknownAtomHandler(a Atom) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.unknownAtom = a
}

// RegisterCard adds cards. A name can only be registered once.
func (r *Registry) RegisterCard(cards ...Card) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, c := range cards {
		name := c.Name()
		if name == "" {
			return fmt.Errorf("card: %w", ErrInvalidName)
		}
		if _, ok := r.cards[name]; ok {
			return fmt.Errorf("card %q: %w", name, ErrAlreadyRegistered)
		}
		r.cards[name] = c
	}
	return nil
}

// RegisterAtom adds atoms. A name can only be registered once.
func (r *Registry) RegisterAtom(atoms ...Atom) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, a := range atoms {
		name := a.Name()
		if name == "" {
			return fmt.Errorf("atom: %w", ErrInvalidName)
		}
		if _, ok := r.atoms[name]; ok {
			return fmt.Errorf("atom %q: %w", name, ErrAlreadyRegistered)
		}
		r.atoms[name] = a
	}
	return nil
}

// Card returns the card registered as name, or the fallback handler.
func (r *Registry) Card(name string) (Card, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if c, ok := r.cards[name]; ok {
		return c, nil
	}
	if r.unknownCard != nil {
		r.logger.Warn("unknown card, using fallback", "name", name)
		return r.unknownCard, nil
	}
	return nil, fmt.Errorf("card %q: %w", name, ErrUnknownCard)
}

// Atom returns the atom registered as name, or the fallback handler.
func (r *Registry) Atom(name string) (Atom, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if a, ok := r.atoms[name]; ok {
		return a, nil
	}
	if r.unknownAtom != nil {
		r.logger.Warn("unknown atom, using fallback", "name", name)
		return r.unknownAtom, nil
	}
	return nil, fmt.Errorf("atom %q: %w", name, ErrUnknownAtom)
}

// HasCard reports whether name is registered, ignoring the fallback.
func (r *Registry) HasCard(name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.cards[name]
	return ok
}

// HasAtom reports whether name is registered, ignoring the fallback.
func (r *Registry) HasAtom(name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.atoms[name]
	return ok
}

// CardNames returns the registered card names in sorted order.
func (r *Registry) CardNames() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.cards))
	for name := range r.cards {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// AtomNames returns the registered atom names in sorted order.
func (r *Registry) AtomNames() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.atoms))
	for name := range r.atoms {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}
