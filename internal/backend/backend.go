// Package backend defines the contract between the greeter and the service
// that conducts the actual credential conversation.
//
// Calls are fire-and-forget: results arrive later as Events on the channel
// returned by Events. Implementations run their own goroutines but must never
// call into the controller directly.
package backend

import (
	"errors"
	"time"

	"github.com/Rorical/rorigreet/internal/models"
)

var (
	// ErrUnsupported is returned for operations the backend cannot perform,
	// such as guest sessions on PAM.
	ErrUnsupported = errors.New("backend: operation not supported")
	// ErrNotInAuthentication is returned by Respond when no conversation is
	// running.
	ErrNotInAuthentication = errors.New("backend: not in authentication")
	// ErrClosed is returned after Close.
	ErrClosed = errors.New("backend: closed")
)

// Event is a callback delivered to the controller's event loop.
type Event interface {
	backendEvent()
}

// PromptEvent asks for input.
type PromptEvent struct {
	Text string
	Kind models.PromptKind
}

// MessageEvent carries an informational or error notice.
type MessageEvent struct {
	Text     string
	Severity models.Severity
}

// CompleteEvent ends an authentication round.
type CompleteEvent struct {
	Success bool
}

// AutologinTimerEvent fires when the configured autologin delay elapses.
type AutologinTimerEvent struct{}

func (PromptEvent) backendEvent()         {}
func (MessageEvent) backendEvent()        {}
func (CompleteEvent) backendEvent()       {}
func (AutologinTimerEvent) backendEvent() {}

// Hints are the display-manager supplied defaults.
type Hints struct {
	DefaultSession   string
	LockHint         bool
	AutologinGuest   bool
	AutologinUser    string
	AutologinTimeout time.Duration
	HasGuestAccount  bool
}

// Backend is the credential backend contract.
type Backend interface {
	// Authenticate starts a conversation for user. An empty user lets the
	// backend ask for the name through a prompt.
	Authenticate(user string) error
	AuthenticateAsGuest() error
	AuthenticateAutologin() error
	// Respond answers the most recent prompt.
	Respond(text string) error
	CancelAuthentication() error

	IsAuthenticated() bool
	InAuthentication() bool
	AuthenticationUser() string
	Hints() Hints

	Events() <-chan Event
	Close() error
}
