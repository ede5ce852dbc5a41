package core

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/Rorical/rorigreet/internal/backend"
	"github.com/Rorical/rorigreet/internal/classifier"
	"github.com/Rorical/rorigreet/internal/eventbus"
	"github.com/Rorical/rorigreet/internal/models"
)

type fakeSource struct {
	catalog
	changes chan struct{}
}

func (f fakeSource) List() []models.SessionInfo {
	out := make([]models.SessionInfo, 0, len(f.catalog))
	for _, k := range f.catalog {
		out = append(out, models.SessionInfo{Key: k, Name: k})
	}
	return out
}

func (f fakeSource) Changes() <-chan struct{} { return f.changes }

// next waits for the first core event matching pred.
func next(t *testing.T, bus *eventbus.EventBus, pred func(eventbus.CoreEvent) bool) eventbus.CoreEvent {
	t.Helper()
	deadline := time.After(2 * time.Second)
	for {
		select {
		case e := <-bus.CoreToUI():
			if pred(e) {
				return e
			}
		case <-deadline:
			t.Fatal("timed out waiting for core event")
			return nil
		}
	}
}

func stateIs(state models.AuthState) func(eventbus.CoreEvent) bool {
	return func(e eventbus.CoreEvent) bool {
		u, ok := e.(eventbus.StateUpdateEvent)
		return ok && u.Snapshot.State == state
	}
}

func TestService_EndToEnd(t *testing.T) {
	defer goleak.VerifyNone(t)

	bus := eventbus.NewEventBus()
	b := newFakeBackend()
	l := &fakeLauncher{}
	src := fakeSource{catalog: catalog{"gnome"}, changes: make(chan struct{}, 1)}
	svc := NewService(bus, ServiceOptions{
		Options:  Options{Backend: b, Launcher: l, Store: memStore{}},
		Sessions: src,
	})

	done := make(chan error, 1)
	go func() { done <- svc.Run(context.Background()) }()

	list := next(t, bus, func(e eventbus.CoreEvent) bool {
		_, ok := e.(eventbus.SessionsEvent)
		return ok
	}).(eventbus.SessionsEvent)
	require.Len(t, list.Sessions, 1)

	require.NoError(t, bus.SendToCore(eventbus.StartEvent{Identity: "bob"}))
	next(t, bus, stateIs(models.StateAuthenticating))

	b.events <- backend.PromptEvent{Text: "Password: ", Kind: models.PromptSecret}
	d := next(t, bus, func(e eventbus.CoreEvent) bool {
		_, ok := e.(eventbus.DirectiveEvent)
		return ok
	}).(eventbus.DirectiveEvent)
	assert.Equal(t, classifier.RawPrompt{Kind: models.PromptSecret, Text: "Password: "}, d.Directive)

	require.NoError(t, bus.SendToCore(eventbus.SubmitResponseEvent{Text: "pw"}))
	next(t, bus, stateIs(models.StateAuthenticating))

	b.finish(true)
	b.events <- backend.CompleteEvent{Success: true}
	next(t, bus, stateIs(models.StateAuthenticated))

	src.changes <- struct{}{}
	next(t, bus, func(e eventbus.CoreEvent) bool {
		_, ok := e.(eventbus.SessionsEvent)
		return ok
	})

	svc.Stop()
	require.NoError(t, <-done)
	require.Len(t, l.launches, 1)
	assert.Equal(t, launch{"bob", "gnome", ""}, l.launches[0])
}

func TestService_RejectedRequestIsReported(t *testing.T) {
	defer goleak.VerifyNone(t)

	bus := eventbus.NewEventBus()
	svc := NewService(bus, ServiceOptions{Options: Options{Backend: newFakeBackend()}})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- svc.Run(ctx) }()

	require.NoError(t, bus.SendToCore(eventbus.SubmitResponseEvent{Text: "early"}))
	u := next(t, bus, func(e eventbus.CoreEvent) bool {
		u, ok := e.(eventbus.StateUpdateEvent)
		return ok && u.Error != nil
	}).(eventbus.StateUpdateEvent)
	assert.ErrorIs(t, u.Error, ErrNoPendingPrompt)

	cancel()
	require.NoError(t, <-done)
}

func TestService_InitialIdentity(t *testing.T) {
	defer goleak.VerifyNone(t)

	bus := eventbus.NewEventBus()
	b := newFakeBackend()
	svc := NewService(bus, ServiceOptions{Options: Options{Backend: b}, Identity: "carol"})

	done := make(chan error, 1)
	go func() { done <- svc.Run(context.Background()) }()
	next(t, bus, stateIs(models.StateAuthenticating))

	svc.Stop()
	require.NoError(t, <-done)
	assert.Equal(t, []string{"carol"}, b.calls())
}

func TestService_TimerPostsOntoLoop(t *testing.T) {
	defer goleak.VerifyNone(t)

	bus := eventbus.NewEventBus()
	b := newFakeBackend()
	svc := NewService(bus, ServiceOptions{
		Options: Options{Backend: b, LoginTimeout: 10 * time.Millisecond},
	})

	done := make(chan error, 1)
	go func() { done <- svc.Run(context.Background()) }()

	require.NoError(t, bus.SendToCore(eventbus.StartEvent{Identity: "bob"}))
	next(t, bus, stateIs(models.StateAuthenticating))
	b.events <- backend.PromptEvent{Text: "Password: ", Kind: models.PromptSecret}
	next(t, bus, stateIs(models.StateAwaitingResponse))
	require.NoError(t, bus.SendToCore(eventbus.SubmitResponseEvent{Text: "pw"}))

	next(t, bus, func(e eventbus.CoreEvent) bool {
		u, ok := e.(eventbus.StateUpdateEvent)
		return ok && u.Snapshot.State == models.StateAuthenticating && !u.Snapshot.Busy && !u.Snapshot.InputBlocked
	})

	svc.Stop()
	require.NoError(t, <-done)
}
