package welcome

import (
	"charm.land/lipgloss/v2"

	"github.com/dex/lingbook/internal/ui/theme"
)

const bannerArt = `
 ██╗     ██╗███╗   ██╗ ██████╗ ██████╗  ██████╗  ██████╗ ██╗  ██╗
 ██║     ██║████╗  ██║██╔════╝ ██╔══██╗██╔═══██╗██╔═══██╗██║ ██╔╝
 ██║     ██║██╔██╗ ██║██║  ███╗██████╔╝██║   ██║██║   ██║█████╔╝
 ██║     ██║██║╚██╗██║██║   ██║██╔══██╗██║   ██║██║   ██║██╔═██╗
 ███████╗██║██║ ╚████║╚██████╔╝██████╔╝╚██████╔╝╚██████╔╝██║  ██╗
 ╚══════╝╚═╝╚═╝  ╚═══╝ ╚═════╝ ╚═════╝  ╚═════╝  ╚═════╝ ╚═╝  ╚═╝`

const bannerCompact = "L I N G B O O K"

// bannerMinWidth is the narrowest terminal that fits the block letters.
const bannerMinWidth = 68

// RenderBanner returns the LingBook banner in the primary color, or the
// spaced-out word on narrow terminals.
func RenderBanner(width int) string {
	style := lipgloss.NewStyle().
		Foreground(theme.Primary).
		Bold(true)

	if width < bannerMinWidth {
		return style.Render(bannerCompact)
	}
	return style.Render(bannerArt)
}
