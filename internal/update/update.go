package update

import (
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/Rorical/rorigreet/internal/dispatcher"
	"github.com/Rorical/rorigreet/internal/eventbus"
	"github.com/Rorical/rorigreet/internal/models"
)

// Sender delivers front-end requests to the core.
type Sender interface {
	Send(event eventbus.UIEvent) error
}

func HandleUpdate(appModel *models.AppModel, msg tea.Msg, s Sender) tea.Cmd {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return HandleKeyMsg(appModel, msg, s)
	case tea.WindowSizeMsg:
		HandleWindowSizeMsg(appModel, msg)
		return nil
	case spinner.TickMsg:
		return HandleSpinnerTick(appModel, msg)
	case dispatcher.CoreEventMsg:
		return HandleCoreEvent(appModel, msg)
	case dispatcher.BusClosedMsg:
		return tea.Quit
	}
	return nil
}
