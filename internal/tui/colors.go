package tui

import (
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
)

// StackColors is the palette stacks cycle through in listings
var StackColors = []lipgloss.Color{
	"#4CCBF1", // Light blue
	"#4DCA7D", // Green
	"#F5C800", // Yellow
	"#F89048", // Orange
	"#EB82BC", // Pink
	"#9F83E4", // Purple
	"#5084F3", // Blue
}

func init() {
	if termenv.EnvNoColor() {
		lipgloss.SetColorProfile(termenv.Ascii)
	}
}

// StackColor returns the color for the stack at position i
func StackColor(i int) lipgloss.Color {
	return StackColors[i%len(StackColors)]
}

// ColorRed colors text red
func ColorRed(text string) string {
	return lipgloss.NewStyle().Foreground(lipgloss.Color("1")).Render(text)
}

// ColorYellow colors text yellow
func ColorYellow(text string) string {
	return lipgloss.NewStyle().Foreground(lipgloss.Color("3")).Render(text)
}

// ColorGreen colors text green
func ColorGreen(text string) string {
	return lipgloss.NewStyle().Foreground(lipgloss.Color("2")).Render(text)
}

// ColorCyan colors text cyan
func ColorCyan(text string) string {
	return lipgloss.NewStyle().Foreground(lipgloss.Color("6")).Render(text)
}

// ColorDim renders text faint
func ColorDim(text string) string {
	return lipgloss.NewStyle().Faint(true).Render(text)
}
