package engine

import (
	"github.com/dshills/quire/internal/engine/cursor"
	"github.com/dshills/quire/internal/engine/model"
	"github.com/dshills/quire/internal/engine/postedit"
	"github.com/dshills/quire/internal/plugin"
)

// CardEnv returns the plugin environment for card. Its actions edit the
// post through the engine. Actions called while the engine is rendering
// run once the render has finished.
func (e *Engine) CardEnv(card *model.CardSection) *plugin.Env {
	cur := card
	return plugin.NewEnv(card.Name(), e.CardMode(card), plugin.Actions{
		Save: func(payload map[string]any) error {
			return e.act(func() error {
				return e.Run(func(pe *postedit.PostEditor) error {
					if cur.Parent() != e.post {
						return ErrCardRemoved
					}
					next := pe.Builder().Card(cur.Name(), payload)
					if err := pe.ReplaceSection(cur, next); err != nil {
						return err
					}
					e.modesMu.Lock()
					if m, ok := e.modes[cur]; ok {
						e.modes[next] = m
						delete(e.modes, cur)
					}
					e.modesMu.Unlock()
					cur = next
					return nil
				})
			})
		},
		Remove: func() error {
			return e.act(func() error {
				return e.Run(func(pe *postedit.PostEditor) error {
					if cur.Parent() != e.post {
						return ErrCardRemoved
					}
					return e.removeCard(pe, cur)
				})
			})
		},
		SetMode: func(m plugin.Mode) error {
			return e.act(func() error {
				return e.Run(func(pe *postedit.PostEditor) error {
					if cur.Parent() != e.post {
						return ErrCardRemoved
					}
					e.modesMu.Lock()
					e.modes[cur] = m
					e.modesMu.Unlock()
					model.MarkDirty(cur)
					pe.ScheduleRerender()
					return nil
				})
			})
		},
	})
}

// removeCard removes card and moves a cursor on it to the neighbouring
// section. The last section of a post is replaced by a blank paragraph.
func (e *Engine) removeCard(pe *postedit.PostEditor, card *model.CardSection) error {
	r := pe.Range()
	onCard := r.Head.Section() == card || r.Tail.Section() == card

	if e.post.Sections().Len() == 1 {
		blank := pe.Builder().MarkupSection(model.DefaultSectionTag)
		if err := pe.ReplaceSection(card, blank); err != nil {
			return err
		}
		pe.SetRange(cursor.Collapsed(cursor.Head(blank)))
		return nil
	}

	prev, next := model.PrevLeaf(card), model.NextLeaf(card)
	if err := pe.RemoveSection(card); err != nil {
		return err
	}
	if onCard {
		if prev != nil {
			pe.SetRange(cursor.Collapsed(cursor.Tail(prev)))
		} else if next != nil {
			pe.SetRange(cursor.Collapsed(cursor.Head(next)))
		}
	}
	return nil
}

// CardMode returns the mode card was last set to by its environment.
func (e *Engine) CardMode(card *model.CardSection) plugin.Mode {
	e.modesMu.Lock()
	defer e.modesMu.Unlock()
	return e.modes[card]
}

// pruneModesLocked forgets the modes of cards no longer in the post.
func (e *Engine) pruneModesLocked() {
	e.modesMu.Lock()
	defer e.modesMu.Unlock()
	for card := range e.modes {
		if card.Parent() != e.post {
			delete(e.modes, card)
		}
	}
}

// AtomEnv returns the plugin environment for atom. Save replaces the atom
// with a copy holding the new payload.
func (e *Engine) AtomEnv(atom *model.Atom) *plugin.Env {
	cur := atom
	return plugin.NewEnv(atom.Name(), plugin.ModeDisplay, plugin.Actions{
		Save: func(payload map[string]any) error {
			return e.act(func() error {
				return e.Run(func(pe *postedit.PostEditor) error {
					pos, ok := e.atomPosition(cur)
					if !ok {
						return ErrAtomRemoved
					}
					next := pe.Builder().Atom(cur.Name(), cur.Value(), payload, cur.Markups()...)
					if err := pe.RemoveMarker(cur); err != nil {
						return err
					}
					if _, err := pe.InsertMarkers(pos, next); err != nil {
						return err
					}
					cur = next
					return nil
				})
			})
		},
		Remove: func() error {
			return e.act(func() error {
				return e.Run(func(pe *postedit.PostEditor) error {
					pos, ok := e.atomPosition(cur)
					if !ok {
						return ErrAtomRemoved
					}
					if err := pe.RemoveMarker(cur); err != nil {
						return err
					}
					pe.SetRange(cursor.Collapsed(pos))
					return nil
				})
			})
		},
	})
}

// atomPosition returns the position just before atom.
func (e *Engine) atomPosition(atom *model.Atom) (cursor.Position, bool) {
	section := atom.Section()
	if section == nil {
		return cursor.Blank(), false
	}
	pos := cursor.At(section, section.OffsetOfMarker(atom))
	return pos, e.inPost(pos)
}
