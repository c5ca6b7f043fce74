package ui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/vanderheijden86/todoq/pkg/model"
)

// ══════════════════════════════════════════════════════════════════════════════
// COLOR PALETTE - Adaptive colors for light and dark terminals
// ══════════════════════════════════════════════════════════════════════════════

var (
	ColorBgSubtle    = lipgloss.AdaptiveColor{Light: "#E8E8E8", Dark: "#363949"}
	ColorBgHighlight = lipgloss.AdaptiveColor{Light: "#D0D0D0", Dark: "#44475A"}
	ColorMuted       = lipgloss.AdaptiveColor{Light: "#666666", Dark: "#6272A4"}

	ColorPrimary = lipgloss.AdaptiveColor{Light: "#6B47D9", Dark: "#BD93F9"}
	ColorInfo    = lipgloss.AdaptiveColor{Light: "#006080", Dark: "#8BE9FD"}
	ColorSuccess = lipgloss.AdaptiveColor{Light: "#007700", Dark: "#50FA7B"}
	ColorWarning = lipgloss.AdaptiveColor{Light: "#B06800", Dark: "#FFB86C"}
	ColorDanger  = lipgloss.AdaptiveColor{Light: "#CC0000", Dark: "#FF5555"}

	// Priority colors, A through C; D and below share the low color
	ColorPrioA   = lipgloss.AdaptiveColor{Light: "#CC0000", Dark: "#FF5555"}
	ColorPrioB   = lipgloss.AdaptiveColor{Light: "#B06800", Dark: "#FFB86C"}
	ColorPrioC   = lipgloss.AdaptiveColor{Light: "#808000", Dark: "#F1FA8C"}
	ColorPrioLow = lipgloss.AdaptiveColor{Light: "#007700", Dark: "#50FA7B"}

	ColorPrioABg   = lipgloss.AdaptiveColor{Light: "#F8D7DA", Dark: "#3D1A1A"}
	ColorPrioBBg   = lipgloss.AdaptiveColor{Light: "#FFE8CC", Dark: "#3D2A1A"}
	ColorPrioCBg   = lipgloss.AdaptiveColor{Light: "#FFF3CD", Dark: "#3D3D1A"}
	ColorPrioLowBg = lipgloss.AdaptiveColor{Light: "#D4EDDA", Dark: "#1A3D2A"}
)

// ══════════════════════════════════════════════════════════════════════════════
// PANEL STYLES - For split view layouts
// ══════════════════════════════════════════════════════════════════════════════

var (
	// PanelStyle is the default style for unfocused panels
	PanelStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(ColorBgHighlight)

	// FocusedPanelStyle is the style for focused panels
	FocusedPanelStyle = lipgloss.NewStyle().
				Border(lipgloss.RoundedBorder()).
				BorderForeground(ColorPrimary)
)

// RenderPriorityBadge returns a styled one-letter priority badge, or a
// blank cell for tasks without priority.
func RenderPriorityBadge(p rune) string {
	if p == model.PriorityNone {
		return " "
	}
	var fg, bg lipgloss.AdaptiveColor
	switch p {
	case 'A':
		fg, bg = ColorPrioA, ColorPrioABg
	case 'B':
		fg, bg = ColorPrioB, ColorPrioBBg
	case 'C':
		fg, bg = ColorPrioC, ColorPrioCBg
	default:
		fg, bg = ColorPrioLow, ColorPrioLowBg
	}
	return lipgloss.NewStyle().
		Foreground(fg).
		Background(bg).
		Bold(true).
		Render(string(p))
}

// RenderDueBadge returns a short marker for the due state.
func RenderDueBadge(s model.DueState) string {
	switch s {
	case model.DueOverdue:
		return lipgloss.NewStyle().Foreground(ColorDanger).Render("!")
	case model.DueToday:
		return lipgloss.NewStyle().Foreground(ColorWarning).Render("•")
	case model.DueFuture:
		return lipgloss.NewStyle().Foreground(ColorInfo).Render("›")
	default:
		return " "
	}
}

// RenderDivider renders a horizontal divider line
func RenderDivider(width int) string {
	if width <= 0 {
		return ""
	}
	return lipgloss.NewStyle().
		Foreground(ColorBgHighlight).
		Render(strings.Repeat("─", width))
}
