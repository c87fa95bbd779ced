package cursor

import (
	"unicode"

	"github.com/rivo/uniseg"

	"github.com/dshills/quire/internal/engine/model"
)

// Direction is the direction of movement or of a range's focus.
type Direction int8

const (
	// None means no direction has been established.
	None Direction = 0
	// Forward moves towards the end of the post.
	Forward Direction = 1
	// Backward moves towards the start of the post.
	Backward Direction = -1
)

// String returns the direction name.
func (d Direction) String() string {
	switch d {
	case Forward:
		return "forward"
	case Backward:
		return "backward"
	default:
		return "none"
	}
}

// Move returns the position units grapheme clusters away. Positive units
// move forward, negative backward. Movement saturates at the post edges.
func (p Position) Move(units int) Position {
	for ; units > 0; units-- {
		p = p.MoveRight()
	}
	for ; units < 0; units++ {
		p = p.MoveLeft()
	}
	return p
}

// MoveRight returns the position one grapheme cluster forward. At the end
// of a section it moves to the head of the next leaf section.
func (p Position) MoveRight() Position {
	if p.IsBlank() {
		return p
	}
	if p.IsTail() {
		next := model.NextLeaf(p.section)
		if next == nil {
			return p
		}
		return Head(next)
	}
	m, ok := p.Markerable()
	if !ok {
		return Position{section: p.section, offset: p.offset + 1}
	}
	for _, b := range graphemeBoundaries(m.Text()) {
		if b > p.offset {
			return Position{section: p.section, offset: b}
		}
	}
	return Tail(p.section)
}

// MoveLeft returns the position one grapheme cluster backward. At the start
// of a section it moves to the tail of the previous leaf section.
func (p Position) MoveLeft() Position {
	if p.IsBlank() {
		return p
	}
	if p.IsHead() {
		prev := model.PrevLeaf(p.section)
		if prev == nil {
			return p
		}
		return Tail(prev)
	}
	m, ok := p.Markerable()
	if !ok {
		return Position{section: p.section, offset: p.offset - 1}
	}
	bounds := graphemeBoundaries(m.Text())
	for i := len(bounds) - 1; i >= 0; i-- {
		if bounds[i] < p.offset {
			return Position{section: p.section, offset: bounds[i]}
		}
	}
	return Head(p.section)
}

// MoveWord moves to the next word boundary in direction. Word characters
// are letters, marks, digits and connector punctuation; an atom counts as
// a whole word. At a section edge it moves one unit into the adjacent
// section instead.
func (p Position) MoveWord(dir Direction) Position {
	if p.IsBlank() || dir == None {
		return p
	}
	if (dir == Forward && p.IsTail()) || (dir == Backward && p.IsHead()) {
		return p.Move(int(dir))
	}
	m, ok := p.Markerable()
	if !ok {
		return p.Move(int(dir))
	}

	runes := []rune(m.Text())
	i := p.offset
	if dir == Forward {
		for i < len(runes) && !isWordRune(runes[i]) && runes[i] != model.ObjectReplacement {
			i++
		}
		if i < len(runes) && runes[i] == model.ObjectReplacement {
			i++
		} else {
			for i < len(runes) && isWordRune(runes[i]) {
				i++
			}
		}
	} else {
		for i > 0 && !isWordRune(runes[i-1]) && runes[i-1] != model.ObjectReplacement {
			i--
		}
		if i > 0 && runes[i-1] == model.ObjectReplacement {
			i--
		} else {
			for i > 0 && isWordRune(runes[i-1]) {
				i--
			}
		}
	}
	return Position{section: p.section, offset: i}
}

func isWordRune(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsMark(r) || unicode.IsDigit(r) ||
		unicode.Is(unicode.Pc, r)
}

// graphemeBoundaries returns the rune offsets at which grapheme clusters of
// text end, in increasing order.
func graphemeBoundaries(text string) []int {
	var bounds []int
	offset := 0
	g := uniseg.NewGraphemes(text)
	for g.Next() {
		offset += len(g.Runes())
		bounds = append(bounds, offset)
	}
	return bounds
}
