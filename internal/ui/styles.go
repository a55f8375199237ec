package ui

import "github.com/charmbracelet/lipgloss"

// Colors used throughout the TUI.
var (
	ColorRed     = lipgloss.Color("#FF0000")
	ColorYellow  = lipgloss.Color("#FFFF00")
	ColorCyan    = lipgloss.Color("#00FFFF")
	ColorGray    = lipgloss.Color("#666666")
	ColorDimGray = lipgloss.Color("#444444")
	ColorWhite   = lipgloss.Color("#FFFFFF")
	ColorMagenta = lipgloss.Color("#FF00FF")
	ColorIndigo  = lipgloss.Color("#5C6BC0")
)

// moodColors maps the color tokens stored on entries to terminal colors.
var moodColors = map[string]lipgloss.Color{
	"indigo": ColorIndigo,
	"cyan":   ColorCyan,
	"yellow": ColorYellow,
}

// MoodColor returns the terminal color for a stored color token. Unknown
// tokens fall back to white.
func MoodColor(token string) lipgloss.Color {
	if c, ok := moodColors[token]; ok {
		return c
	}
	return ColorWhite
}

// MoodStyle renders a mood label in its color.
func MoodStyle(token string) lipgloss.Style {
	return lipgloss.NewStyle().Foreground(MoodColor(token))
}

// Base styles reused by UI components.
var (
	TitleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(ColorCyan)

	RecordingDotStyle = lipgloss.NewStyle().
				Foreground(ColorRed).
				Bold(true)

	IdleDotStyle = lipgloss.NewStyle().
			Foreground(ColorGray)

	ProcessingDotStyle = lipgloss.NewStyle().
				Foreground(ColorMagenta).
				Bold(true)

	ErrorStyle = lipgloss.NewStyle().
			Foreground(ColorRed).
			Bold(true)

	ErrorTextStyle = lipgloss.NewStyle().
			Foreground(ColorRed)

	// TentativeTextStyle marks transcript text the recognizer may still revise.
	TentativeTextStyle = lipgloss.NewStyle().
				Foreground(ColorYellow).
				Italic(true)

	TimestampStyle = lipgloss.NewStyle().
			Foreground(ColorGray)

	PanelTitleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(ColorWhite)

	SelectedStyle = lipgloss.NewStyle().
			Foreground(ColorCyan).
			Bold(true)

	DimStyle = lipgloss.NewStyle().
			Foreground(ColorGray)

	FooterKeyStyle = lipgloss.NewStyle().
			Foreground(ColorYellow).
			Bold(true)

	FooterDescStyle = lipgloss.NewStyle().
			Foreground(ColorGray)

	DividerStyle = lipgloss.NewStyle().
			Foreground(ColorDimGray)

	MeterFullStyle = lipgloss.NewStyle().
			Foreground(ColorCyan)

	MeterEmptyStyle = lipgloss.NewStyle().
			Foreground(ColorDimGray)
)
