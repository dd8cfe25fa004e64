package welcome

import (
	"charm.land/lipgloss/v2"

	"github.com/labinot-bajgora/ECK-safety/internal/ui/theme"
)

const bannerArt = `
 ███████╗ █████╗ ███████╗███████╗████████╗██╗   ██╗██╗  ██╗██╗   ██╗██████╗
 ██╔════╝██╔══██╗██╔════╝██╔════╝╚══██╔══╝╚██╗ ██╔╝██║  ██║██║   ██║██╔══██╗
 ███████╗███████║█████╗  █████╗     ██║    ╚████╔╝ ███████║██║   ██║██████╔╝
 ╚════██║██╔══██║██╔══╝  ██╔══╝     ██║     ╚██╔╝  ██╔══██║██║   ██║██╔══██╗
 ███████║██║  ██║██║     ███████╗   ██║      ██║   ██║  ██║╚██████╔╝██████╔╝
 ╚══════╝╚═╝  ╚═╝╚═╝     ╚══════╝   ╚═╝      ╚═╝   ╚═╝  ╚═╝ ╚═════╝ ╚═════╝`

const bannerCompact = "S A F E T Y H U B"

// bannerMinWidth is the narrowest terminal that fits bannerArt.
const bannerMinWidth = 78

// RenderBanner returns the SAFETYHUB banner styled in the primary color.
// Uses a compact fallback for terminals narrower than bannerMinWidth.
func RenderBanner(width int) string {
	style := lipgloss.NewStyle().
		Foreground(theme.Primary).
		Bold(true)

	if width < bannerMinWidth {
		return style.Render(bannerCompact)
	}
	return style.Render(bannerArt)
}
