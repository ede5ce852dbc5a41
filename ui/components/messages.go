package components

import (
	"strings"

	"github.com/Rorical/rorigreet/internal/models"
	"github.com/Rorical/rorigreet/ui/styles"
)

func RenderLines(lines []models.Line) string {
	var b strings.Builder

	infoStyle := styles.InfoStyle()
	errorStyle := styles.ErrorStyle()

	for _, l := range lines {
		text := l.Text
		if l.Title != "" {
			text = l.Title + ": " + text
		}
		switch l.Kind {
		case models.LineInfo:
			b.WriteString(infoStyle.Render(text) + "\n")
		case models.LineError:
			b.WriteString(errorStyle.Render(text) + "\n")
		}
	}

	return b.String()
}
