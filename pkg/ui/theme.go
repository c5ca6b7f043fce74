package ui

import (
	"os"

	"github.com/charmbracelet/colorprofile"
	"github.com/charmbracelet/lipgloss"

	"github.com/vanderheijden86/todoq/pkg/model"
)

// TermProfile holds the detected terminal color profile. Computed once at
// package init so every style helper can branch without re-detecting.
var TermProfile colorprofile.Profile

func init() {
	TermProfile = colorprofile.Detect(os.Stdout, os.Environ())
}

// ThemeFg returns the given hex color for ANSI256+ terminals and a safe
// ANSI white (color 7) for 16-color or lower terminals.
func ThemeFg(hex string) lipgloss.TerminalColor {
	if TermProfile < colorprofile.ANSI256 {
		return lipgloss.ANSIColor(7)
	}
	return lipgloss.Color(hex)
}

type Theme struct {
	Renderer *lipgloss.Renderer

	// Colors
	Primary   lipgloss.AdaptiveColor
	Secondary lipgloss.AdaptiveColor
	Subtext   lipgloss.AdaptiveColor

	// Due states
	Overdue lipgloss.AdaptiveColor
	Today   lipgloss.AdaptiveColor
	Future  lipgloss.AdaptiveColor

	// Tags
	Project lipgloss.AdaptiveColor
	Context lipgloss.AdaptiveColor

	// UI Elements
	Border    lipgloss.AdaptiveColor
	Highlight lipgloss.AdaptiveColor
	Muted     lipgloss.AdaptiveColor

	// Styles
	Base     lipgloss.Style
	Selected lipgloss.Style
	Header   lipgloss.Style

	// Pre-computed row styles, created once instead of per frame
	DoneText    lipgloss.Style
	OverdueText lipgloss.Style
	TodayText   lipgloss.Style
	MutedText   lipgloss.Style
	ErrorText   lipgloss.Style
	InfoText    lipgloss.Style
	PrimaryBold lipgloss.Style
	FacetMark   lipgloss.Style
}

// DefaultTheme returns the standard Dracula-inspired theme (adaptive)
func DefaultTheme(r *lipgloss.Renderer) Theme {
	t := Theme{
		Renderer: r,

		Primary:   lipgloss.AdaptiveColor{Light: "#6B47D9", Dark: "#BD93F9"}, // Purple
		Secondary: lipgloss.AdaptiveColor{Light: "#555555", Dark: "#6272A4"}, // Gray
		Subtext:   lipgloss.AdaptiveColor{Light: "#666666", Dark: "#BFBFBF"}, // Dim

		Overdue: lipgloss.AdaptiveColor{Light: "#CC0000", Dark: "#FF5555"}, // Red
		Today:   lipgloss.AdaptiveColor{Light: "#B06800", Dark: "#FFB86C"}, // Amber
		Future:  lipgloss.AdaptiveColor{Light: "#006080", Dark: "#8BE9FD"}, // Cyan

		Project: lipgloss.AdaptiveColor{Light: "#2684FF", Dark: "#4C9AFF"}, // Blue
		Context: lipgloss.AdaptiveColor{Light: "#36B37E", Dark: "#57D9A3"}, // Green

		Border:    lipgloss.AdaptiveColor{Light: "#AAAAAA", Dark: "#44475A"},
		Highlight: lipgloss.AdaptiveColor{Light: "#E0E0E0", Dark: "#44475A"},
		Muted:     lipgloss.AdaptiveColor{Light: "#555555", Dark: "#6272A4"},
	}

	t.Base = r.NewStyle().Foreground(lipgloss.AdaptiveColor{Light: "#000000", Dark: "#F8F8F2"})

	t.Selected = r.NewStyle().
		Background(t.Highlight).
		Bold(true)

	t.Header = r.NewStyle().
		Background(t.Primary).
		Foreground(lipgloss.AdaptiveColor{Light: "#FFFFFF", Dark: "#282A36"}).
		Bold(true).
		Padding(0, 1)

	t.DoneText = r.NewStyle().Foreground(t.Muted).Faint(true)
	t.OverdueText = r.NewStyle().Foreground(t.Overdue)
	t.TodayText = r.NewStyle().Foreground(t.Today)
	t.MutedText = r.NewStyle().Foreground(ColorMuted)
	t.ErrorText = r.NewStyle().Foreground(ColorDanger).Bold(true)
	t.InfoText = r.NewStyle().Foreground(ColorInfo)
	t.PrimaryBold = r.NewStyle().Foreground(t.Primary).Bold(true)
	t.FacetMark = r.NewStyle().Foreground(ThemeFg("#50FA7B")).Bold(true)

	return t
}

// RowStyle picks the style of a task line: done tasks are dimmed, open
// tasks are colored by due state.
func (t Theme) RowStyle(task *model.Task) lipgloss.Style {
	if task.IsDone() {
		return t.DoneText
	}
	switch task.DueStatus() {
	case model.DueOverdue:
		return t.OverdueText
	case model.DueToday:
		return t.TodayText
	default:
		return t.Base
	}
}

// TestTheme returns a theme suitable for use in tests.
func TestTheme() Theme {
	return DefaultTheme(lipgloss.NewRenderer(os.Stdout))
}
