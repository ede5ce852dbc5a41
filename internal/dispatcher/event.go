package dispatcher

import (
	"context"
	"errors"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/Rorical/rorigreet/internal/eventbus"
)

// CoreEventMsg wraps a core event for Bubble Tea.
type CoreEventMsg struct {
	Event eventbus.CoreEvent
}

// BusClosedMsg is delivered once the core side of the bus is closed.
type BusClosedMsg struct{}

// EventDispatcher routes events between the core and a front-end
type EventDispatcher struct {
	eventBus *eventbus.EventBus
}

func NewEventDispatcher(eventBus *eventbus.EventBus) *EventDispatcher {
	return &EventDispatcher{eventBus: eventBus}
}

// ListenForCoreEvents waits for the next core event. Re-issue it after
// every CoreEventMsg.
func (ed *EventDispatcher) ListenForCoreEvents() tea.Cmd {
	return func() tea.Msg {
		event, ok := <-ed.eventBus.CoreToUI()
		if !ok {
			return BusClosedMsg{}
		}
		return CoreEventMsg{Event: event}
	}
}

// ErrClosed is returned by Next once the bus is closed.
var ErrClosed = errors.New("dispatcher: event bus closed")

// Next blocks for the next core event.
func (ed *EventDispatcher) Next(ctx context.Context) (eventbus.CoreEvent, error) {
	select {
	case event, ok := <-ed.eventBus.CoreToUI():
		if !ok {
			return nil, ErrClosed
		}
		return event, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Send forwards a front-end request to the core.
func (ed *EventDispatcher) Send(event eventbus.UIEvent) error {
	return ed.eventBus.SendToCore(event)
}

func (ed *EventDispatcher) GetEventBus() *eventbus.EventBus {
	return ed.eventBus
}
