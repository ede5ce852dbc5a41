package core

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/Rorical/rorigreet/internal/backend"
	"github.com/Rorical/rorigreet/internal/classifier"
	"github.com/Rorical/rorigreet/internal/eventbus"
	"github.com/Rorical/rorigreet/internal/models"
)

// SessionSource is a SessionCatalog that can describe its entries and
// report when they change.
type SessionSource interface {
	SessionCatalog
	List() []models.SessionInfo
	Changes() <-chan struct{}
}

// Service owns an AuthSession and feeds it from the event bus and the
// backend on a single goroutine.
type Service struct {
	session  *AuthSession
	backend  backend.Backend
	eventBus *eventbus.EventBus
	sessions SessionSource
	log      *zap.Logger
	ctx      context.Context
	cancel   context.CancelFunc
	posted   chan func()
	lastErr  error
	initial  string
}

// ServiceOptions configures NewService. Notifier and Scheduler in Options
// are provided by the service itself.
type ServiceOptions struct {
	Options
	Sessions SessionSource
	// Identity, when set, starts an attempt as soon as the loop runs.
	Identity string
}

func NewService(eb *eventbus.EventBus, opts ServiceOptions) *Service {
	ctx, cancel := context.WithCancel(context.Background())
	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}
	s := &Service{
		backend:  opts.Backend,
		eventBus: eb,
		sessions: opts.Sessions,
		log:      log,
		ctx:      ctx,
		cancel:   cancel,
		posted:   make(chan func(), 16),
		initial:  opts.Identity,
	}
	sessionOpts := opts.Options
	sessionOpts.Notifier = s
	sessionOpts.Scheduler = s.after
	if opts.Sessions != nil && sessionOpts.Sessions == nil {
		sessionOpts.Sessions = opts.Sessions
	}
	s.session = NewAuthSession(ctx, sessionOpts)
	return s
}

// Run processes events until ctx is cancelled, Stop is called or the bus
// is closed.
func (s *Service) Run(ctx context.Context) error {
	defer s.cancel()

	var changes <-chan struct{}
	if s.sessions != nil {
		changes = s.sessions.Changes()
		s.send(eventbus.SessionsEvent{Sessions: s.sessions.List()})
	}
	if s.initial != "" {
		s.record(s.session.Start(s.initial))
	}
	s.session.publish()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-s.ctx.Done():
			return nil
		case event, ok := <-s.eventBus.UIToCore():
			if !ok {
				return nil
			}
			s.handleUIEvent(event)
		case event, ok := <-s.backend.Events():
			if !ok {
				return backend.ErrClosed
			}
			s.handleBackendEvent(event)
		case fn := <-s.posted:
			fn()
		case _, ok := <-changes:
			if !ok {
				changes = nil
				continue
			}
			s.send(eventbus.SessionsEvent{Sessions: s.sessions.List()})
		}
	}
}

func (s *Service) Stop() {
	s.cancel()
}

func (s *Service) handleUIEvent(event eventbus.UIEvent) {
	var err error
	switch e := event.(type) {
	case eventbus.StartEvent:
		err = s.session.Start(e.Identity)
	case eventbus.LoginEvent:
		err = s.session.Login(e.Identity, e.Password)
	case eventbus.SubmitResponseEvent:
		err = s.session.SubmitResponse(e.Text)
	case eventbus.CancelEvent:
		err = s.session.Cancel()
	case eventbus.ConfirmAnswerEvent:
		err = s.session.AnswerConfirm(e.ID, e.Yes)
	case eventbus.AcknowledgeEvent:
		err = s.session.AcknowledgeNotice(e.ID)
	case eventbus.SelectSessionEvent:
		err = s.session.SelectSession(e.Key)
	case eventbus.SelectLanguageEvent:
		err = s.session.SelectLanguage(e.Language)
	}
	if err != nil {
		s.log.Debug("request rejected", zap.Error(err))
		s.record(err)
		s.session.publish()
	}
}

func (s *Service) handleBackendEvent(event backend.Event) {
	switch e := event.(type) {
	case backend.PromptEvent:
		s.log.Debug("backend prompt", zap.Stringer("kind", e.Kind))
		s.session.OnPrompt(e.Text, e.Kind)
	case backend.MessageEvent:
		s.log.Debug("backend message", zap.Stringer("severity", e.Severity))
		s.session.OnMessage(e.Text, e.Severity)
	case backend.CompleteEvent:
		s.session.OnAuthComplete(e.Success)
	case backend.AutologinTimerEvent:
		s.session.OnAutologinTimerExpired()
	}
}

// record remembers a rejected request so the next state update carries it.
func (s *Service) record(err error) {
	if err != nil {
		s.lastErr = err
	}
}

// Directive implements Notifier.
func (s *Service) Directive(d classifier.Directive) {
	s.send(eventbus.DirectiveEvent{Directive: d})
}

// State implements Notifier.
func (s *Service) State(snap models.Snapshot) {
	err := s.lastErr
	s.lastErr = nil
	s.send(eventbus.StateUpdateEvent{Snapshot: snap, Error: err})
}

func (s *Service) send(event eventbus.CoreEvent) {
	if err := s.eventBus.SendToUI(event); err != nil {
		s.log.Warn("dropping core event", zap.Error(err))
	}
}

// after schedules fn onto the loop.
func (s *Service) after(d time.Duration, fn func()) Stopper {
	return time.AfterFunc(d, func() {
		select {
		case s.posted <- fn:
		case <-s.ctx.Done():
		}
	})
}
