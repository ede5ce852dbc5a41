// Package console is a line-oriented front-end: it turns core events into
// questions on a terminal and sends the answers back.
package console

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/Rorical/rorigreet/internal/classifier"
	"github.com/Rorical/rorigreet/internal/core"
	"github.com/Rorical/rorigreet/internal/eventbus"
	"github.com/Rorical/rorigreet/internal/models"
)

// ErrQuit is returned by an Asker when the user gives up.
var ErrQuit = errors.New("console: quit")

// Asker talks to the person at the terminal.
type Asker interface {
	Ask(label string, secret bool) (string, error)
	Confirm(title, body, yes, no string) (bool, error)
	Acknowledge(title, body, ok string) error
	Print(line string)
}

// Dispatcher is the console's link to the core.
type Dispatcher interface {
	Next(ctx context.Context) (eventbus.CoreEvent, error)
	Send(event eventbus.UIEvent) error
}

// Console keeps what it has been told about the attempt in progress.
type Console struct {
	asker    Asker
	prompt   string
	snap     models.Snapshot
	answered *models.Snapshot
}

func New(asker Asker) *Console {
	return &Console{asker: asker}
}

// Run handles events until a session starts, the user quits or ctx ends.
// It reports whether a session was started.
func (c *Console) Run(ctx context.Context, d Dispatcher) (bool, error) {
	for {
		event, err := d.Next(ctx)
		if err != nil {
			if errors.Is(err, context.Canceled) {
				return false, nil
			}
			return false, err
		}
		done, err := c.handle(event, d)
		if errors.Is(err, ErrQuit) {
			return false, nil
		}
		if err != nil {
			return false, err
		}
		if done {
			return true, nil
		}
	}
}

func (c *Console) handle(event eventbus.CoreEvent, d Dispatcher) (bool, error) {
	switch e := event.(type) {
	case eventbus.DirectiveEvent:
		return false, c.directive(e.Directive, d)
	case eventbus.SessionsEvent:
		names := make([]string, len(e.Sessions))
		for i, s := range e.Sessions {
			names[i] = s.Key
		}
		c.asker.Print("sessions: " + strings.Join(names, ", "))
		return false, nil
	case eventbus.StateUpdateEvent:
		return c.state(e, d)
	}
	return false, nil
}

func (c *Console) directive(dir classifier.Directive, d Dispatcher) error {
	switch dir := dir.(type) {
	case classifier.Info:
		c.asker.Print(dir.Text)
	case classifier.Error:
		if dir.Title != "" {
			c.asker.Print(dir.Title + ": " + dir.Text)
		} else {
			c.asker.Print(dir.Text)
		}
	case classifier.RawPrompt:
		c.prompt = dir.Text
	case classifier.PasswordStepPrompt:
		if dir.Title != "" {
			c.asker.Print(dir.Title)
		}
		c.prompt = dir.Label
		if c.prompt == "" {
			c.prompt = dir.Text
		}
	case classifier.ConfirmRequest:
		yes, err := c.asker.Confirm(dir.Title, dir.Body, dir.YesLabel, dir.NoLabel)
		if err != nil {
			return err
		}
		return d.Send(eventbus.ConfirmAnswerEvent{ID: dir.ID, Yes: yes})
	case classifier.Notice:
		if err := c.asker.Acknowledge(dir.Title, dir.Text(), dir.OKLabel); err != nil {
			return err
		}
		return d.Send(eventbus.AcknowledgeEvent{ID: dir.ID})
	}
	return nil
}

func (c *Console) state(e eventbus.StateUpdateEvent, d Dispatcher) (bool, error) {
	snap := e.Snapshot
	c.snap = snap
	if e.Error != nil {
		c.asker.Print("error: " + e.Error.Error())
		c.answered = nil
	}
	if snap.StatusLine != "" && snap.ChangingPassword() {
		c.asker.Print(snap.StatusLine)
	}

	switch {
	case snap.State == models.StateAuthenticated:
		c.asker.Print(fmt.Sprintf("starting %s for %s", orDefault(snap.Selection.Session, "session"), snap.Identity))
		return true, nil
	case snap.DialogPending:
		return false, nil
	case c.answered != nil && *c.answered == snap:
		// Still the snapshot we last answered.
		return false, nil
	}

	switch {
	case snap.State == models.StateAwaitingUsername && snap.AcceptsInput():
		return false, c.ask("Username", false, d, func(text string) eventbus.UIEvent {
			return eventbus.SubmitResponseEvent{Text: text}
		})
	case snap.AcceptsInput():
		label := strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(c.prompt), ":"))
		return false, c.ask(orDefault(label, "Password"), snap.PromptKind == models.PromptSecret, d, func(text string) eventbus.UIEvent {
			return eventbus.SubmitResponseEvent{Text: text}
		})
	case (snap.State == models.StateIdle || snap.State == models.StateFailed) && !snap.AwaitingInput:
		if snap.FailureReason != "" {
			c.asker.Print(snap.FailureReason)
		}
		return false, c.ask("Login", false, d, func(text string) eventbus.UIEvent {
			name := strings.TrimSpace(text)
			if name == "" {
				name = core.IdentityOther
			}
			return eventbus.StartEvent{Identity: name}
		})
	}
	return false, nil
}

func (c *Console) ask(label string, secret bool, d Dispatcher, event func(string) eventbus.UIEvent) error {
	text, err := c.asker.Ask(label, secret)
	if err != nil {
		return err
	}
	snap := c.snap
	c.answered = &snap
	c.prompt = ""
	return d.Send(event(text))
}

func orDefault(s, fallback string) string {
	if s == "" {
		return fallback
	}
	return s
}
