package components

import (
	"charm.land/lipgloss/v2"

	"github.com/dex/lingbook/internal/ui/theme"
)

// Tiles renders words as a row of boxed tiles. active is the highlighted
// index, -1 for none.
func Tiles(words []string, active int, placed bool) string {
	if len(words) == 0 {
		return theme.Hint.Render("  (empty)")
	}
	rendered := make([]string, len(words))
	for i, w := range words {
		style := theme.Tile
		switch {
		case i == active:
			style = theme.TileActive
		case placed:
			style = theme.TilePlaced
		}
		rendered[i] = style.Render(w)
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, rendered...)
}
