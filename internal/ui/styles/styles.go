// Package styles centralizes the lipgloss colors and styles shared by
// the static, progress, and prompt components.
package styles

import "charm.land/lipgloss/v2"

// Colors used throughout the UI. SetTheme replaces them from the
// user's config before any command renders output.
var (
	// Accent marks fixed outcomes and positive results (green)
	Accent = lipgloss.Color("10")

	// Warning marks warning-severity issues (yellow)
	Warning = lipgloss.Color("11")

	// Error marks critical issues and failed fixes (red)
	Error = lipgloss.Color("9")

	// Muted is used for secondary text like byte counts and paths (gray)
	Muted = lipgloss.Color("240")
)

// Common styles, rebuilt by SetTheme.
var (
	Bold = lipgloss.NewStyle().Bold(true)

	AccentStyle  = lipgloss.NewStyle().Foreground(Accent)
	WarningStyle = lipgloss.NewStyle().Foreground(Warning)
	ErrorStyle   = lipgloss.NewStyle().Foreground(Error)
	MutedStyle   = lipgloss.NewStyle().Foreground(Muted)
)

// SetTheme replaces the palette with the configured colors. Empty
// values keep the defaults.
func SetTheme(accent, warning, errColor, muted string) {
	if accent != "" {
		Accent = lipgloss.Color(accent)
	}
	if warning != "" {
		Warning = lipgloss.Color(warning)
	}
	if errColor != "" {
		Error = lipgloss.Color(errColor)
	}
	if muted != "" {
		Muted = lipgloss.Color(muted)
	}
	AccentStyle = lipgloss.NewStyle().Foreground(Accent)
	WarningStyle = lipgloss.NewStyle().Foreground(Warning)
	ErrorStyle = lipgloss.NewStyle().Foreground(Error)
	MutedStyle = lipgloss.NewStyle().Foreground(Muted)
}
