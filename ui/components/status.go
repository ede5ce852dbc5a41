package components

import (
	"github.com/Rorical/rorigreet/ui/styles"
)

func RenderStatus(status string, busy bool, spinner, session, language string, width int) string {
	statusContent := status
	if busy {
		statusContent = spinner + " " + statusContent
	}
	if session != "" {
		statusContent += "  ·  session: " + session
	}
	if language != "" {
		statusContent += "  ·  " + language
	}
	return styles.StatusStyle(width).Render(statusContent)
}
