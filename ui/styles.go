package ui

import (
	"github.com/charmbracelet/lipgloss"

	"planboard/engine"
)

const (
	dateWidth   = 11
	laneWidth   = 14
	spacerWidth = 2
)

var (
	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FF0000")).
			Bold(true)

	statusStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#00AA00"))

	titleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#00FFFF")).
			Bold(true)

	headerStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#888888")).
			Bold(true)

	todayStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FFAA00")).
			Bold(true)

	freeStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#444444"))

	cellStyle = lipgloss.NewStyle().
			Background(lipgloss.Color("#006400"))
)

// borderColors mirror the ticket states: fixed, delivered, stand-by, other.
var borderColors = map[engine.CellStyle]lipgloss.Color{
	engine.StyleDefault:   lipgloss.Color("#FFFFFF"),
	engine.StyleFixed:     lipgloss.Color("#FF0000"),
	engine.StyleDelivered: lipgloss.Color("#FFA500"),
	engine.StyleStandBy:   lipgloss.Color("#4169E1"),
}

func styleFor(v engine.CellView) lipgloss.Style {
	return cellStyle.Foreground(borderColors[v.Style])
}
