package core

import (
	"context"
	"time"

	"github.com/Rorical/rorigreet/internal/classifier"
	"github.com/Rorical/rorigreet/internal/models"
	"github.com/Rorical/rorigreet/internal/users"
)

// Store persists greeter state between runs.
type Store interface {
	GetString(section, key string) (string, bool)
	SetString(section, key, value string) error
}

// UserDirectory resolves a login name to the user's stored preferences.
type UserDirectory interface {
	Lookup(ctx context.Context, name string) (users.User, error)
}

// SessionCatalog lists the installed session keys in display order.
type SessionCatalog interface {
	Keys() []string
}

// Launcher performs the hand-off to the user's desktop session.
type Launcher interface {
	StartSession(ctx context.Context, user, session, language string) error
}

// Notifier receives everything a front-end needs to render.
type Notifier interface {
	Directive(d classifier.Directive)
	State(s models.Snapshot)
}

// Stopper cancels a scheduled callback.
type Stopper interface {
	Stop() bool
}

// Scheduler runs fn on the controller's event loop after d.
type Scheduler func(d time.Duration, fn func()) Stopper

const (
	sectionGreeter = "greeter"
	keyLastUser    = "last-user"
	keyLastSession = "last-session"
	keySession     = "session"
	keyLanguage    = "language"

	IdentityGuest = "*guest"
	IdentityOther = "*other"
)

func userSection(name string) string {
	return "user:" + name
}

// awaiting is the kind of human input the drain stopped for.
type awaiting int

const (
	awaitNone awaiting = iota
	awaitPrompt
	awaitUsername
	awaitDialog
)

// Snapshot returns the current read-only view of the controller.
func (s *AuthSession) Snapshot() models.Snapshot {
	snap := models.Snapshot{
		State:         s.state,
		Identity:      s.identity,
		PromptKind:    s.promptKind,
		FailureReason: s.failure,
		Selection:     s.selection,
		AwaitingInput: s.awaiting == awaitPrompt || s.awaiting == awaitUsername,
		DialogPending: s.awaiting == awaitDialog,
		InputBlocked:  s.inputBlocked,
		Busy:          s.attemptTimer != nil,
		StatusLine:    s.statusLine,
	}
	if s.pw.active {
		snap.PasswordStep = s.pw.step
		snap.PasswordTitle = s.pw.title
		snap.PasswordLabel = s.pw.label
	}
	return snap
}

func (s *AuthSession) publish() {
	s.notify.State(s.Snapshot())
}

func (s *AuthSession) emit(d classifier.Directive) {
	s.notify.Directive(d)
}
