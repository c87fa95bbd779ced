package backend

import (
	"github.com/gdamore/tcell/v2"

	"github.com/dshills/quire/internal/engine/model"
)

// Theme holds the base styles of the terminal view.
type Theme struct {
	Text       tcell.Style
	Heading    tcell.Style
	Quote      tcell.Style
	Bullet     tcell.Style
	Card       tcell.Style
	Atom       tcell.Style
	Link       tcell.Style
	StatusLine tcell.Style
}

// DefaultTheme returns the theme used when none is configured.
func DefaultTheme() Theme {
	return Theme{
		Text:       tcell.StyleDefault,
		Heading:    tcell.StyleDefault.Bold(true),
		Quote:      tcell.StyleDefault.Italic(true).Dim(true),
		Bullet:     tcell.StyleDefault.Foreground(tcell.ColorTeal),
		Card:       tcell.StyleDefault.Foreground(tcell.ColorOlive),
		Atom:       tcell.StyleDefault.Foreground(tcell.ColorBlue).Underline(true),
		Link:       tcell.StyleDefault.Foreground(tcell.ColorBlue).Underline(true),
		StatusLine: tcell.StyleDefault.Reverse(true),
	}
}

// sectionStyle returns the base style of a markup section tag.
func (th Theme) sectionStyle(tag model.SectionTag) tcell.Style {
	switch {
	case tag.IsHeading():
		return th.Heading
	case tag == model.TagBlockquote, tag == model.TagPullQuote, tag == model.TagAside:
		return th.Quote
	default:
		return th.Text
	}
}

// applyMarkups layers inline markups over base.
func (th Theme) applyMarkups(base tcell.Style, markups []*model.Markup) tcell.Style {
	style := base
	for _, m := range markups {
		switch m.Tag() {
		case model.MarkupB, model.MarkupStrong:
			style = style.Bold(true)
		case model.MarkupI, model.MarkupEm:
			style = style.Italic(true)
		case model.MarkupU:
			style = style.Underline(true)
		case model.MarkupS:
			style = style.StrikeThrough(true)
		case model.MarkupCode:
			style = style.Reverse(true)
		case model.MarkupSub, model.MarkupSup:
			style = style.Dim(true)
		case model.MarkupA:
			fg, _, _ := th.Link.Decompose()
			style = style.Foreground(fg).Underline(true)
		}
	}
	return style
}

// sectionPrefix returns the text drawn before a markup section's content.
func sectionPrefix(tag model.SectionTag) string {
	switch tag {
	case model.TagH1:
		return "# "
	case model.TagH2:
		return "## "
	case model.TagH3:
		return "### "
	case model.TagH4:
		return "#### "
	case model.TagH5:
		return "##### "
	case model.TagH6:
		return "###### "
	case model.TagBlockquote, model.TagPullQuote:
		return "> "
	case model.TagAside:
		return "| "
	default:
		return ""
	}
}
