package colors

import "github.com/charmbracelet/lipgloss"

// === Color Palette ===
// Neon accents for dark mode, high contrast for light mode. theme.Apply
// picks the side of each AdaptiveColor.
var (
	NeonPurple = lipgloss.AdaptiveColor{Light: "#5d40c9", Dark: "#bd93f9"}
	NeonPink   = lipgloss.AdaptiveColor{Light: "#d10074", Dark: "#ff79c6"}
	NeonCyan   = lipgloss.AdaptiveColor{Light: "#0073a8", Dark: "#8be9fd"}
	Gray       = lipgloss.AdaptiveColor{Light: "#d0d0d0", Dark: "#44475a"} // Borders
	LightGray  = lipgloss.AdaptiveColor{
		Light: "#4a4a4a",
		Dark:  "#a9b1d6",
	} // Secondary text
	White = lipgloss.AdaptiveColor{Light: "#1a1a1a", Dark: "#f8f8f2"}
)

// === Alert Colors ===
var (
	AlertError = lipgloss.AdaptiveColor{
		Light: "#d32f2f",
		Dark:  "#ff5555",
	}
	AlertWarn = lipgloss.AdaptiveColor{
		Light: "#f57c00",
		Dark:  "#ffb86c",
	}
	AlertOK = lipgloss.AdaptiveColor{
		Light: "#2e7d32",
		Dark:  "#50fa7b",
	}
	AlertInfo = NeonCyan
)

// === Logo Gradient ===
var (
	LogoStart = lipgloss.AdaptiveColor{Light: "#d10074", Dark: "#ff79c6"} // Pink
	LogoEnd   = lipgloss.AdaptiveColor{Light: "#7b1fa2", Dark: "#bd93f9"} // Purple
)
