package home

import (
	"charm.land/lipgloss/v2"

	"github.com/dex/lingbook/internal/ui/theme"
)

// MascotVariant selects which owl to display.
type MascotVariant int

const (
	MascotIdle     MascotVariant = iota
	MascotCheering               // a lesson finished in the last day
	MascotSleepy                 // nothing finished yet
)

const owlIdle = `╭─────────╮
│ ╭─╮ ╭─╮ │
│ │●│ │●│ │
│ ╰─╯▼╰─╯ │
╰──╨───╨──╯`

const owlCheering = `╲╭─────────╮╱
 │ ╭─╮ ╭─╮ │
 │ │★│ │★│ │
 │ ╰─╯▼╰─╯ │
 ╰──╨───╨──╯`

const owlSleepy = `╭─────────╮ z
│ ╭─╮ ╭─╮ │z
│ │─│ │─│ │
│ ╰─╯▼╰─╯ │
╰──╨───╨──╯`

// RenderMascot returns the owl art for the given variant.
func RenderMascot(v MascotVariant) string {
	art := owlIdle
	fg := theme.Primary

	switch v {
	case MascotCheering:
		art = owlCheering
		fg = theme.Accent
	case MascotSleepy:
		art = owlSleepy
		fg = theme.TextDim
	}

	return lipgloss.NewStyle().
		Foreground(fg).
		Render(art)
}
