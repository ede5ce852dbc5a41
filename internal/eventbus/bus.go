package eventbus

import (
	"errors"
	"sync"
	"time"

	"github.com/Rorical/rorigreet/internal/classifier"
	"github.com/Rorical/rorigreet/internal/models"
)

// UIEvent represents events sent from a front-end to Core
type UIEvent interface {
	UIEvent()
}

// CoreEvent represents events sent from Core to a front-end
type CoreEvent interface {
	CoreEvent()
}

// StartEvent - front-end picks an identity (user name, "*guest" or "*other")
type StartEvent struct {
	Identity string
}

// LoginEvent - start and answer the first secret prompt in one go
type LoginEvent struct {
	Identity string
	Password string
}

// SubmitResponseEvent - answer to the prompt currently shown
type SubmitResponseEvent struct {
	Text string
}

type CancelEvent struct{}

// ConfirmAnswerEvent - answer to a ConfirmRequest directive
type ConfirmAnswerEvent struct {
	ID  string // Must match the ID of the ConfirmRequest
	Yes bool
}

// AcknowledgeEvent - dismissal of a Notice directive
type AcknowledgeEvent struct {
	ID string
}

type SelectSessionEvent struct {
	Key string
}

type SelectLanguageEvent struct {
	Language string
}

func (e StartEvent) UIEvent()          {}
func (e LoginEvent) UIEvent()          {}
func (e SubmitResponseEvent) UIEvent() {}
func (e CancelEvent) UIEvent()         {}
func (e ConfirmAnswerEvent) UIEvent()  {}
func (e AcknowledgeEvent) UIEvent()    {}
func (e SelectSessionEvent) UIEvent()  {}
func (e SelectLanguageEvent) UIEvent() {}

// StateUpdateEvent - Core pushes state changes to the front-end
type StateUpdateEvent struct {
	Snapshot models.Snapshot
	Error    error // result of the last front-end request, if it failed
}

// DirectiveEvent - something the front-end must display or ask
type DirectiveEvent struct {
	Directive classifier.Directive
}

// SessionsEvent - the installed session list changed
type SessionsEvent struct {
	Sessions []models.SessionInfo
}

func (e StateUpdateEvent) CoreEvent() {}
func (e DirectiveEvent) CoreEvent()   {}
func (e SessionsEvent) CoreEvent()    {}

var (
	ErrBusFull   = errors.New("channel is full")
	ErrBusClosed = errors.New("event bus is closed")
)

// EventBusError represents errors in event processing
type EventBusError struct {
	Operation string
	Err       error
	Timestamp time.Time
}

func (e EventBusError) Error() string {
	return e.Operation + ": " + e.Err.Error()
}

func (e EventBusError) Unwrap() error {
	return e.Err
}

// EventBus handles communication between front-ends and Core
type EventBus struct {
	uiToCore      chan UIEvent
	coreToUI      chan CoreEvent
	errorCallback func(EventBusError)

	mu     sync.RWMutex
	closed bool
}

func NewEventBus() *EventBus {
	return &EventBus{
		uiToCore: make(chan UIEvent, 100),
		coreToUI: make(chan CoreEvent, 100),
	}
}

func (eb *EventBus) SetErrorCallback(callback func(EventBusError)) {
	eb.errorCallback = callback
}

func (eb *EventBus) reportError(operation string, err error) error {
	busError := EventBusError{
		Operation: operation,
		Err:       err,
		Timestamp: time.Now(),
	}
	if eb.errorCallback != nil {
		eb.errorCallback(busError)
	}
	return busError
}

func (eb *EventBus) SendToCore(event UIEvent) error {
	eb.mu.RLock()
	defer eb.mu.RUnlock()
	if eb.closed {
		return eb.reportError("SendToCore", ErrBusClosed)
	}

	select {
	case eb.uiToCore <- event:
		return nil
	default:
		return eb.reportError("SendToCore", ErrBusFull)
	}
}

func (eb *EventBus) SendToUI(event CoreEvent) error {
	eb.mu.RLock()
	defer eb.mu.RUnlock()
	if eb.closed {
		return eb.reportError("SendToUI", ErrBusClosed)
	}

	select {
	case eb.coreToUI <- event:
		return nil
	default:
		return eb.reportError("SendToUI", ErrBusFull)
	}
}

func (eb *EventBus) UIToCore() <-chan UIEvent {
	return eb.uiToCore
}

func (eb *EventBus) CoreToUI() <-chan CoreEvent {
	return eb.coreToUI
}

// Close is safe to call more than once.
func (eb *EventBus) Close() {
	eb.mu.Lock()
	defer eb.mu.Unlock()
	if eb.closed {
		return
	}
	eb.closed = true
	close(eb.uiToCore)
	close(eb.coreToUI)
}
