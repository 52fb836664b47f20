package tui

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// ApplyGradient colours each line of text on a vertical gradient between
// two adaptive colours, using the side that matches the current theme.
func ApplyGradient(text string, start, end lipgloss.AdaptiveColor) string {
	lines := strings.Split(text, "\n")
	height := len(lines)
	if height == 0 {
		return text
	}

	pick := func(c lipgloss.AdaptiveColor) string {
		if lipgloss.HasDarkBackground() {
			return c.Dark
		}
		return c.Light
	}
	startRGB, err1 := hexToRGB(pick(start))
	endRGB, err2 := hexToRGB(pick(end))
	if err1 != nil || err2 != nil {
		return lipgloss.NewStyle().Bold(true).Render(text)
	}

	colored := make([]string, 0, height)
	for i, line := range lines {
		t := 0.0
		if height > 1 {
			t = float64(i) / float64(height-1)
		}

		r := uint8(math.Round(lerp(float64(startRGB.r), float64(endRGB.r), t)))
		g := uint8(math.Round(lerp(float64(startRGB.g), float64(endRGB.g), t)))
		b := uint8(math.Round(lerp(float64(startRGB.b), float64(endRGB.b), t)))

		color := lipgloss.Color(fmt.Sprintf("#%02x%02x%02x", r, g, b))
		colored = append(colored, lipgloss.NewStyle().Foreground(color).Bold(true).Render(line))
	}

	return strings.Join(colored, "\n")
}

type rgb struct {
	r, g, b uint8
}

func hexToRGB(hex string) (rgb, error) {
	hex = strings.TrimPrefix(hex, "#")

	// Short form, e.g. "FFF"
	if len(hex) == 3 {
		hex = string([]byte{hex[0], hex[0], hex[1], hex[1], hex[2], hex[2]})
	}

	if len(hex) != 6 {
		return rgb{}, fmt.Errorf("invalid hex color: %s", hex)
	}

	val, err := strconv.ParseUint(hex, 16, 32)
	if err != nil {
		return rgb{}, err
	}

	return rgb{
		r: uint8(val >> 16),
		g: uint8((val >> 8) & 0xFF),
		b: uint8(val & 0xFF),
	}, nil
}

func lerp(a, b, t float64) float64 {
	return a + (b-a)*t
}
