package components

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/Rorical/rorigreet/ui/styles"
)

// RenderInput draws a labelled input field.
func RenderInput(label, view string, width int) string {
	return lipgloss.JoinVertical(lipgloss.Left,
		styles.LabelStyle().Render(label),
		styles.InputStyle(width).Render(view),
	)
}
