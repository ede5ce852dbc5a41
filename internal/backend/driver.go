package backend

import (
	"errors"
	"sync"
	"time"

	"github.com/Rorical/rorigreet/internal/models"
)

// ErrBusy is returned by Respond when the previous answer was not consumed.
var ErrBusy = errors.New("backend: previous response not consumed")

// Driver keeps the state every conversation-per-goroutine backend needs:
// the current conversation, the event channel and the autologin timer.
// Embedding it supplies Respond, CancelAuthentication, IsAuthenticated,
// InAuthentication, AuthenticationUser, Events and Close.
type Driver struct {
	events chan Event
	done   chan struct{}
	wg     sync.WaitGroup

	mu            sync.Mutex
	conv          *Conv
	user          string
	authenticated bool
	closed        bool
	timer         *time.Timer
	onClose       func()
}

// NewDriver starts the autologin timer when h asks for one.
func NewDriver(h Hints) *Driver {
	d := &Driver{
		events: make(chan Event, 16),
		done:   make(chan struct{}),
	}
	if h.AutologinTimeout > 0 && (h.AutologinUser != "" || h.AutologinGuest) {
		d.timer = time.AfterFunc(h.AutologinTimeout, func() {
			select {
			case d.events <- AutologinTimerEvent{}:
			case <-d.done:
			}
		})
	}
	return d
}

// Conv is one running conversation.
type Conv struct {
	d       *Driver
	replies chan string
	cancel  chan struct{}
}

// Begin cancels any running conversation and runs fn for a new one on its
// own goroutine. fn must end with Finish unless the conversation was
// cancelled.
func (d *Driver) Begin(user string, fn func(c *Conv)) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return ErrClosed
	}
	d.cancelLocked()

	c := &Conv{d: d, replies: make(chan string, 1), cancel: make(chan struct{})}
	d.conv = c
	d.user = user
	d.authenticated = false

	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		fn(c)
	}()
	return nil
}

// Done is closed when the conversation is cancelled or the driver closes.
func (c *Conv) Done() <-chan struct{} {
	return c.cancel
}

// Cancelled reports whether the conversation was abandoned.
func (c *Conv) Cancelled() bool {
	select {
	case <-c.cancel:
		return true
	default:
		return false
	}
}

// Post delivers ev unless the conversation was cancelled.
func (c *Conv) Post(ev Event) bool {
	if c.Cancelled() {
		return false
	}
	select {
	case c.d.events <- ev:
		return true
	case <-c.cancel:
		return false
	}
}

// Message posts an informational or error line.
func (c *Conv) Message(text string, severity models.Severity) bool {
	return c.Post(MessageEvent{Text: text, Severity: severity})
}

// Ask posts a prompt and blocks for the answer.
func (c *Conv) Ask(text string, kind models.PromptKind) (string, bool) {
	if !c.Post(PromptEvent{Text: text, Kind: kind}) {
		return "", false
	}
	select {
	case answer := <-c.replies:
		return answer, true
	case <-c.cancel:
		return "", false
	}
}

// SetUser records the name learnt during the conversation.
func (c *Conv) SetUser(name string) {
	c.d.mu.Lock()
	defer c.d.mu.Unlock()
	if c.d.conv == c {
		c.d.user = name
	}
}

// Finish ends the conversation and reports the result. It is a no-op for a
// conversation that was cancelled or replaced.
func (c *Conv) Finish(success bool) {
	d := c.d
	d.mu.Lock()
	if d.conv != c {
		d.mu.Unlock()
		return
	}
	d.conv = nil
	d.authenticated = success
	d.mu.Unlock()

	select {
	case d.events <- CompleteEvent{Success: success}:
	case <-d.done:
	}
}

func (d *Driver) Respond(text string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.conv == nil {
		return ErrNotInAuthentication
	}
	select {
	case d.conv.replies <- text:
		return nil
	default:
		return ErrBusy
	}
}

func (d *Driver) CancelAuthentication() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.cancelLocked()
	return nil
}

func (d *Driver) cancelLocked() {
	if d.conv != nil {
		close(d.conv.cancel)
		d.conv = nil
	}
}

func (d *Driver) IsAuthenticated() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.authenticated
}

func (d *Driver) InAuthentication() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.conv != nil
}

func (d *Driver) AuthenticationUser() string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.user
}

func (d *Driver) Events() <-chan Event {
	return d.events
}

// OnClose registers fn to run once Close has stopped every conversation.
func (d *Driver) OnClose(fn func()) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.onClose = fn
}

// Close cancels the running conversation and waits for its goroutine. The
// event channel stays open.
func (d *Driver) Close() error {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return nil
	}
	d.closed = true
	d.cancelLocked()
	if d.timer != nil {
		d.timer.Stop()
	}
	close(d.done)
	onClose := d.onClose
	d.mu.Unlock()

	d.wg.Wait()
	if onClose != nil {
		onClose()
	}
	return nil
}
