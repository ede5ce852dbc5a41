package components

import (
	"strings"

	"github.com/Rorical/rorigreet/internal/models"
	"github.com/Rorical/rorigreet/ui/styles"
)

const keyHelp = "enter submit · esc cancel · ctrl+u switch user · f2/f3 session · f4 guest · f5 language · ctrl+c quit"

// RenderForm draws the login panel for the current attempt.
func RenderForm(m *models.AppModel, width int) string {
	var b strings.Builder
	b.WriteString(styles.TitleStyle().Width(width).Render("Welcome"))
	b.WriteString("\n\n")

	if m.IdentityEntry() {
		b.WriteString(RenderInput("User", m.Identity.View(), width))
	} else {
		b.WriteString(styles.LabelStyle().Render("User"))
		b.WriteString("  ")
		b.WriteString(identityText(m.Snapshot.Identity, m.Identity.Value()))
		if m.Snapshot.AwaitingInput {
			b.WriteString("\n\n")
			b.WriteString(RenderInput(label(m.Prompt, "Password"), m.Response.View(), width))
		}
	}

	if len(m.Lines) > 0 {
		b.WriteString("\n\n")
		b.WriteString(strings.TrimRight(RenderLines(m.Lines), "\n"))
	}
	b.WriteString("\n\n")
	b.WriteString(styles.HintStyle().Render(keyHelp))
	return styles.PanelStyle(width).Render(b.String())
}

func identityText(identity, typed string) string {
	switch identity {
	case "*guest":
		return "Guest"
	case "*other", "":
		if typed != "" {
			return typed
		}
		return "Other user"
	}
	return identity
}
