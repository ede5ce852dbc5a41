package update

import (
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/Rorical/rorigreet/internal/classifier"
	"github.com/Rorical/rorigreet/internal/core"
	"github.com/Rorical/rorigreet/internal/dispatcher"
	"github.com/Rorical/rorigreet/internal/eventbus"
	"github.com/Rorical/rorigreet/internal/models"
)

// NewAppModel prepares the inputs. identity pre-fills the user entry;
// languages are offered with f5.
func NewAppModel(identity string, languages ...string) models.AppModel {
	id := textinput.New()
	id.Placeholder = "user name"
	id.Prompt = ""
	id.CharLimit = 64
	id.SetValue(identity)
	id.Focus()

	resp := textinput.New()
	resp.Prompt = ""
	resp.EchoMode = textinput.EchoPassword
	resp.EchoCharacter = '•'

	sp := spinner.New()
	sp.Spinner = spinner.Dot

	return models.AppModel{
		Languages: languages,
		Identity:  id,
		Response:  resp,
		Spinner:   sp,
		Status:    "Ready",
	}
}

// HandleKeyMsg handles keyboard input
func HandleKeyMsg(appModel *models.AppModel, keyMsg tea.KeyMsg, s Sender) tea.Cmd {
	if keyMsg.String() == "ctrl+c" {
		return tea.Quit
	}
	if appModel.Dialog != nil {
		return handleDialogKey(appModel, keyMsg, s)
	}

	switch keyMsg.String() {
	case "esc":
		if appModel.EditingIdentity {
			appModel.EditingIdentity = false
			focus(appModel)
			return nil
		}
		send(appModel, s, eventbus.CancelEvent{})
		return nil
	case "ctrl+u":
		appModel.EditingIdentity = true
		appModel.Identity.SetValue("")
		focus(appModel)
		return nil
	case "f2":
		selectSession(appModel, s, 1)
		return nil
	case "f3":
		selectSession(appModel, s, -1)
		return nil
	case "f5":
		if lang := appModel.NextLanguage(); lang != "" {
			send(appModel, s, eventbus.SelectLanguageEvent{Language: lang})
		}
		return nil
	case "f4":
		appModel.EditingIdentity = false
		send(appModel, s, eventbus.StartEvent{Identity: core.IdentityGuest})
		return nil
	case "enter":
		return submit(appModel, s)
	}

	var cmd tea.Cmd
	switch {
	case appModel.IdentityEntry():
		appModel.Identity, cmd = appModel.Identity.Update(keyMsg)
	case appModel.Snapshot.AcceptsInput():
		appModel.Response, cmd = appModel.Response.Update(keyMsg)
	}
	return cmd
}

func submit(appModel *models.AppModel, s Sender) tea.Cmd {
	if appModel.IdentityEntry() {
		name := strings.TrimSpace(appModel.Identity.Value())
		if name == "" {
			name = core.IdentityOther
		}
		appModel.EditingIdentity = false
		appModel.Lines = nil
		send(appModel, s, eventbus.StartEvent{Identity: name})
		return nil
	}
	if appModel.Snapshot.AcceptsInput() {
		text := appModel.Response.Value()
		appModel.Response.Reset()
		send(appModel, s, eventbus.SubmitResponseEvent{Text: text})
	}
	return nil
}

func handleDialogKey(appModel *models.AppModel, keyMsg tea.KeyMsg, s Sender) tea.Cmd {
	d := appModel.Dialog
	if d.Kind == models.DialogNotice {
		switch keyMsg.String() {
		case "enter", "esc", " ":
			appModel.Dialog = nil
			send(appModel, s, eventbus.AcknowledgeEvent{ID: d.ID})
		}
		return nil
	}

	switch keyMsg.String() {
	case "left", "right", "tab", "shift+tab", "h", "l":
		d.Yes = !d.Yes
	case "y":
		answer(appModel, s, true)
	case "n", "esc":
		answer(appModel, s, false)
	case "enter":
		answer(appModel, s, d.Yes)
	}
	return nil
}

func answer(appModel *models.AppModel, s Sender, yes bool) {
	id := appModel.Dialog.ID
	appModel.Dialog = nil
	send(appModel, s, eventbus.ConfirmAnswerEvent{ID: id, Yes: yes})
}

func selectSession(appModel *models.AppModel, s Sender, step int) {
	if key := appModel.NextSession(step); key != "" {
		send(appModel, s, eventbus.SelectSessionEvent{Key: key})
	}
}

func send(appModel *models.AppModel, s Sender, event eventbus.UIEvent) {
	if err := s.Send(event); err != nil {
		appModel.Status = "Error: " + err.Error()
	}
}

// focus moves the cursor to whichever input takes typing.
func focus(appModel *models.AppModel) {
	if appModel.IdentityEntry() {
		appModel.Identity.Focus()
		appModel.Response.Blur()
		return
	}
	appModel.Identity.Blur()
	if appModel.Snapshot.AcceptsInput() {
		appModel.Response.Focus()
	} else {
		appModel.Response.Blur()
	}
}

// HandleCoreEvent processes events from the core
func HandleCoreEvent(appModel *models.AppModel, msg dispatcher.CoreEventMsg) tea.Cmd {
	switch event := msg.Event.(type) {
	case eventbus.StateUpdateEvent:
		return applySnapshot(appModel, event)
	case eventbus.DirectiveEvent:
		applyDirective(appModel, event.Directive)
	case eventbus.SessionsEvent:
		appModel.Sessions = event.Sessions
	}
	return nil
}

func applySnapshot(appModel *models.AppModel, event eventbus.StateUpdateEvent) tea.Cmd {
	wasBusy := appModel.Snapshot.Busy
	snap := event.Snapshot
	appModel.Snapshot = snap

	if !snap.DialogPending {
		appModel.Dialog = nil
	}
	if snap.PromptKind == models.PromptSecret {
		appModel.Response.EchoMode = textinput.EchoPassword
	} else {
		appModel.Response.EchoMode = textinput.EchoNormal
	}
	switch snap.State {
	case models.StateAwaitingUsername:
		appModel.Prompt = "Username"
	case models.StateChangingPassword:
		if snap.PasswordLabel != "" {
			appModel.Prompt = snap.PasswordLabel
		}
	case models.StateIdle, models.StateFailed:
		appModel.Prompt = ""
	}
	if snap.Identity != "" && !strings.HasPrefix(snap.Identity, "*") && !appModel.EditingIdentity {
		appModel.Identity.SetValue(snap.Identity)
	}
	focus(appModel)

	switch {
	case event.Error != nil:
		appModel.Status = "Error: " + event.Error.Error()
	case snap.State == models.StateFailed && snap.FailureReason != "":
		appModel.Status = snap.FailureReason
	default:
		appModel.Status = statusText(snap)
	}

	if snap.State == models.StateAuthenticated {
		appModel.Done = true
		return tea.Quit
	}
	if snap.Busy && !wasBusy {
		return appModel.Spinner.Tick
	}
	return nil
}

func statusText(snap models.Snapshot) string {
	switch snap.State {
	case models.StateAuthenticating:
		return "Authenticating"
	case models.StateAwaitingUsername, models.StateAwaitingResponse:
		if snap.InputBlocked {
			return "Checking"
		}
		return "Ready"
	case models.StateChangingPassword:
		return "Changing password"
	case models.StateAuthenticated:
		return "Starting session"
	case models.StateFailed:
		return "Failed"
	}
	return "Ready"
}

func applyDirective(appModel *models.AppModel, d classifier.Directive) {
	switch d := d.(type) {
	case classifier.Info:
		appModel.AddLine(models.Line{Kind: models.LineInfo, Text: d.Text})
	case classifier.Error:
		appModel.AddLine(models.Line{Kind: models.LineError, Title: d.Title, Text: d.Text})
	case classifier.RawPrompt:
		appModel.Prompt = strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(d.Text), ":"))
	case classifier.PasswordStepPrompt:
		appModel.Prompt = d.Label
		if appModel.Prompt == "" {
			appModel.Prompt = strings.TrimSpace(d.Text)
		}
	case classifier.ConfirmRequest:
		appModel.Dialog = &models.Dialog{
			Kind:     models.DialogConfirm,
			ID:       d.ID,
			Title:    d.Title,
			Body:     d.Body,
			YesLabel: d.YesLabel,
			NoLabel:  d.NoLabel,
			Yes:      true,
		}
	case classifier.Notice:
		fields := make([]models.DialogField, len(d.Fields))
		for i, f := range d.Fields {
			fields[i] = models.DialogField{Label: f.Label, Value: f.Value}
		}
		appModel.Dialog = &models.Dialog{
			Kind:    models.DialogNotice,
			ID:      d.ID,
			Title:   d.Title,
			Body:    d.Body,
			Fields:  fields,
			OKLabel: d.OKLabel,
		}
	}
	focus(appModel)
}

func HandleWindowSizeMsg(appModel *models.AppModel, sizeMsg tea.WindowSizeMsg) {
	appModel.Width = sizeMsg.Width
	appModel.Height = sizeMsg.Height
	w := sizeMsg.Width/2 - 8
	if w < 16 {
		w = 16
	}
	appModel.Identity.Width = w
	appModel.Response.Width = w
}

// HandleSpinnerTick animates the busy indicator while the attempt timer runs.
func HandleSpinnerTick(appModel *models.AppModel, tick spinner.TickMsg) tea.Cmd {
	if !appModel.Snapshot.Busy {
		return nil
	}
	var cmd tea.Cmd
	appModel.Spinner, cmd = appModel.Spinner.Update(tick)
	return cmd
}
