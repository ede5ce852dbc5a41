package core

import (
	"context"
	"sync"
	"time"

	"github.com/Rorical/rorigreet/internal/backend"
	"github.com/Rorical/rorigreet/internal/classifier"
	"github.com/Rorical/rorigreet/internal/models"
)

type fakeBackend struct {
	mu            sync.Mutex
	authCalls     []string
	guestCalls    int
	autologins    int
	responses     []string
	cancels       int
	inAuth        bool
	authenticated bool
	user          string
	hints         backend.Hints
	authErr       error
	events        chan backend.Event
}

func newFakeBackend() *fakeBackend {
	return &fakeBackend{events: make(chan backend.Event, 16)}
}

func (b *fakeBackend) Authenticate(user string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.authCalls = append(b.authCalls, user)
	if b.authErr != nil {
		return b.authErr
	}
	b.inAuth = true
	b.authenticated = false
	b.user = user
	return nil
}

func (b *fakeBackend) AuthenticateAsGuest() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.guestCalls++
	b.inAuth = true
	b.user = ""
	return nil
}

func (b *fakeBackend) AuthenticateAutologin() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.autologins++
	return nil
}

// Respond treats the first answer of a nameless conversation as the user
// name, the way PAM does.
func (b *fakeBackend) Respond(text string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if !b.inAuth {
		return backend.ErrNotInAuthentication
	}
	if b.user == "" {
		b.user = text
	}
	b.responses = append(b.responses, text)
	return nil
}

func (b *fakeBackend) CancelAuthentication() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.cancels++
	b.inAuth = false
	return nil
}

func (b *fakeBackend) IsAuthenticated() bool      { return b.authenticated }
func (b *fakeBackend) InAuthentication() bool     { return b.inAuth }
func (b *fakeBackend) AuthenticationUser() string { return b.user }
func (b *fakeBackend) Hints() backend.Hints       { return b.hints }
func (b *fakeBackend) Events() <-chan backend.Event {
	return b.events
}
func (b *fakeBackend) Close() error { return nil }

// finish ends the conversation the way a backend does before reporting it.
func (b *fakeBackend) finish(success bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.inAuth = false
	b.authenticated = success
}

func (b *fakeBackend) calls() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]string(nil), b.authCalls...)
}

type recorder struct {
	directives []classifier.Directive
	states     []models.Snapshot
}

func (r *recorder) Directive(d classifier.Directive) { r.directives = append(r.directives, d) }
func (r *recorder) State(s models.Snapshot)          { r.states = append(r.states, s) }

func (r *recorder) errors() []classifier.Error {
	var out []classifier.Error
	for _, d := range r.directives {
		if e, ok := d.(classifier.Error); ok {
			out = append(out, e)
		}
	}
	return out
}

func (r *recorder) last() classifier.Directive {
	if len(r.directives) == 0 {
		return nil
	}
	return r.directives[len(r.directives)-1]
}

type launch struct {
	user, session, language string
}

type fakeLauncher struct {
	launches []launch
	err      error
}

func (l *fakeLauncher) StartSession(_ context.Context, user, session, language string) error {
	if l.err != nil {
		return l.err
	}
	l.launches = append(l.launches, launch{user, session, language})
	return nil
}

type memStore map[string]string

func (m memStore) GetString(section, key string) (string, bool) {
	v, ok := m[section+"/"+key]
	return v, ok
}

func (m memStore) SetString(section, key, value string) error {
	m[section+"/"+key] = value
	return nil
}

type catalog []string

func (c catalog) Keys() []string { return c }

type manualTimer struct {
	fn      func()
	stopped bool
}

func (t *manualTimer) Stop() bool {
	was := !t.stopped
	t.stopped = true
	return was
}

type manualClock struct {
	timers []*manualTimer
}

func (c *manualClock) schedule(_ time.Duration, fn func()) Stopper {
	t := &manualTimer{fn: fn}
	c.timers = append(c.timers, t)
	return t
}

func (c *manualClock) pending() int {
	n := 0
	for _, t := range c.timers {
		if !t.stopped {
			n++
		}
	}
	return n
}

func (c *manualClock) fire() {
	for _, t := range c.timers {
		if !t.stopped {
			t.stopped = true
			t.fn()
		}
	}
}
