package app

import (
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/Rorical/rorigreet/internal/dispatcher"
	"github.com/Rorical/rorigreet/internal/models"
	"github.com/Rorical/rorigreet/internal/update"
	"github.com/Rorical/rorigreet/ui/components"
)

// AppModel is the Bubble Tea front-end.
type AppModel struct {
	appModel   models.AppModel
	dispatcher *dispatcher.EventDispatcher
}

func NewAppModel(d *dispatcher.EventDispatcher, identity string, languages []string) *AppModel {
	return &AppModel{appModel: update.NewAppModel(identity, languages...), dispatcher: d}
}

func (m *AppModel) Init() tea.Cmd {
	return m.dispatcher.ListenForCoreEvents()
}

func (m *AppModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	// Keep listening after every core event
	if coreEvent, ok := msg.(dispatcher.CoreEventMsg); ok {
		cmd := update.HandleCoreEvent(&m.appModel, coreEvent)
		return m, tea.Batch(cmd, m.dispatcher.ListenForCoreEvents())
	}

	cmd := update.HandleUpdate(&m.appModel, msg, m.dispatcher)
	return m, cmd
}

func (m *AppModel) View() string {
	width := m.appModel.Width
	if width <= 0 {
		width = 80
	}
	panel := width / 2
	if panel < 40 {
		panel = width - 4
	}

	var body string
	switch {
	case m.appModel.Dialog != nil:
		body = components.RenderDialog(m.appModel.Dialog, panel)
	case m.appModel.Snapshot.ChangingPassword():
		body = components.RenderPasswordDialog(m.appModel.Snapshot, m.appModel.Prompt, m.appModel.Response.View(), panel)
	default:
		body = components.RenderForm(&m.appModel, panel)
	}

	height := m.appModel.Height - 1
	if height < lipgloss.Height(body) {
		height = lipgloss.Height(body)
	}

	var b strings.Builder
	b.WriteString(lipgloss.Place(width, height, lipgloss.Center, lipgloss.Center, body))
	b.WriteString("\n")
	b.WriteString(components.RenderStatus(
		m.appModel.Status,
		m.appModel.Snapshot.Busy,
		m.appModel.Spinner.View(),
		m.appModel.SessionName(),
		m.appModel.Snapshot.Selection.Language,
		width,
	))
	return b.String()
}

// Launched reports whether the greeter quit because a session started.
func (m *AppModel) Launched() bool {
	return m.appModel.Done
}
