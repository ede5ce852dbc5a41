package components

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/Rorical/rorigreet/internal/models"
	"github.com/Rorical/rorigreet/ui/styles"
)

func RenderDialog(d *models.Dialog, width int) string {
	var b strings.Builder
	b.WriteString(styles.TitleStyle().Width(width).Render(d.Title))
	b.WriteString("\n\n")
	if d.Body != "" {
		b.WriteString(d.Body)
		b.WriteString("\n")
	}
	for _, f := range d.Fields {
		b.WriteString("\n")
		b.WriteString(styles.LabelStyle().Render(f.Label))
		b.WriteString("  ")
		b.WriteString(f.Value)
	}
	b.WriteString("\n\n")

	var buttons string
	if d.Kind == models.DialogNotice {
		buttons = styles.ButtonStyle(true).Render(label(d.OKLabel, "OK"))
	} else {
		buttons = lipgloss.JoinHorizontal(lipgloss.Top,
			styles.ButtonStyle(d.Yes).Render(label(d.YesLabel, "Yes")),
			styles.ButtonStyle(!d.Yes).Render(label(d.NoLabel, "No")),
		)
	}
	b.WriteString(lipgloss.PlaceHorizontal(width, lipgloss.Center, buttons))
	return styles.DialogStyle(width).Render(b.String())
}

// RenderPasswordDialog draws the password change box around the response
// input.
func RenderPasswordDialog(snap models.Snapshot, prompt, input string, width int) string {
	title := snap.PasswordTitle
	if title == "" {
		title = "Changing Password"
	}
	var b strings.Builder
	b.WriteString(styles.TitleStyle().Width(width).Render(title))
	b.WriteString("\n\n")
	b.WriteString(RenderInput(label(prompt, "Password"), input, width))
	if snap.StatusLine != "" {
		b.WriteString("\n\n")
		b.WriteString(styles.InfoStyle().Render(snap.StatusLine))
	}
	return styles.DialogStyle(width).Render(b.String())
}

func label(s, fallback string) string {
	if s == "" {
		return fallback
	}
	return s
}
