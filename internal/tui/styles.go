package tui

import "github.com/charmbracelet/lipgloss"

// Colors used throughout the TUI.
var (
	ColorGreen  = lipgloss.Color("#2ecc71")
	ColorOrange = lipgloss.Color("#f39c12")
	ColorRed    = lipgloss.Color("#e74c3c")
	ColorCyan   = lipgloss.Color("#00FFFF")
	ColorGray   = lipgloss.Color("#666666")
	ColorWhite  = lipgloss.Color("#FFFFFF")
)

var (
	TitleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(ColorGreen)

	TabStyle = lipgloss.NewStyle().
			Foreground(ColorGray).
			Padding(0, 1)

	ActiveTabStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(ColorWhite).
			Background(lipgloss.Color("#1e8449")).
			Padding(0, 1)

	DimStyle = lipgloss.NewStyle().
			Foreground(ColorGray)

	HeadingStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(ColorCyan)

	InputStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(ColorGray).
			Padding(0, 1)

	ErrorStyle = lipgloss.NewStyle().
			Foreground(ColorRed).
			Bold(true)

	UserStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(ColorCyan)

	AssistantStyle = lipgloss.NewStyle().
			Foreground(ColorWhite)

	RecommendStyle = lipgloss.NewStyle().
			Border(lipgloss.NormalBorder()).
			BorderForeground(ColorGreen).
			Padding(0, 1)
)

// levelStyles colour impacts like the web badges.
var levelStyles = map[string]lipgloss.Style{
	"low":     lipgloss.NewStyle().Foreground(ColorGreen),
	"medium":  lipgloss.NewStyle().Foreground(ColorOrange),
	"high":    lipgloss.NewStyle().Foreground(ColorRed),
	"unknown": DimStyle,
}
