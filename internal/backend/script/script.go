// Package script is a backend that replays a conversation described in YAML.
// It stands in for PAM in demos and front-end development, and lets the
// sentinel messages of pam-gooroom be exercised without the module.
package script

import (
	"fmt"
	"os"
	"time"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/Rorical/rorigreet/internal/backend"
	"github.com/Rorical/rorigreet/internal/models"
)

// Step is one exchange of a scripted conversation. Exactly one of Prompt,
// Info, Error or Fail should be set.
type Step struct {
	Prompt string `yaml:"prompt,omitempty"`
	Secret bool   `yaml:"secret,omitempty"`
	// Expect fails the conversation when the answer differs.
	Expect string `yaml:"expect,omitempty"`
	// Branches continues with the steps keyed by the answer. Answers with
	// no branch fall through to the following steps.
	Branches map[string][]Step `yaml:"branches,omitempty"`

	Info  string `yaml:"info,omitempty"`
	Error string `yaml:"error,omitempty"`
	Fail  bool   `yaml:"fail,omitempty"`
}

type Hints struct {
	DefaultSession   string        `yaml:"default_session"`
	LockHint         bool          `yaml:"lock_hint"`
	AutologinGuest   bool          `yaml:"autologin_guest"`
	AutologinUser    string        `yaml:"autologin_user"`
	AutologinTimeout time.Duration `yaml:"autologin_timeout"`
}

// Script is the whole YAML document.
type Script struct {
	Hints Hints `yaml:"hints"`
	// UsernamePrompt is asked when authentication starts without a user.
	UsernamePrompt string            `yaml:"username_prompt"`
	Users          map[string][]Step `yaml:"users"`
	// Default runs for users without their own entry. A nil Default
	// rejects unknown users.
	Default []Step `yaml:"default"`
	// Guest enables guest sessions.
	Guest []Step `yaml:"guest"`
}

// Load reads a script file.
func Load(path string) (Script, error) {
	f, err := os.Open(path)
	if err != nil {
		return Script{}, fmt.Errorf("open script: %w", err)
	}
	defer f.Close()

	var s Script
	dec := yaml.NewDecoder(f)
	dec.KnownFields(true)
	if err := dec.Decode(&s); err != nil {
		return Script{}, fmt.Errorf("parse script %s: %w", path, err)
	}
	return s, nil
}

// Backend replays a Script.
type Backend struct {
	*backend.Driver
	script Script
	log    *zap.Logger
}

func New(s Script, log *zap.Logger) *Backend {
	if log == nil {
		log = zap.NewNop()
	}
	if s.UsernamePrompt == "" {
		s.UsernamePrompt = "login: "
	}
	b := &Backend{script: s, log: log}
	b.Driver = backend.NewDriver(b.Hints())
	return b
}

// rejectAll fails whatever password is typed.
var rejectAll = []Step{{Prompt: "Password: ", Secret: true, Expect: "\x00"}}

func (b *Backend) Authenticate(user string) error {
	if user == "" {
		return b.Begin("", func(c *backend.Conv) {
			name, ok := c.Ask(b.script.UsernamePrompt, models.PromptEcho)
			if !ok {
				return
			}
			c.SetUser(name)
			b.play(c, b.stepsFor(name))
		})
	}
	steps := b.stepsFor(user)
	return b.Begin(user, func(c *backend.Conv) { b.play(c, steps) })
}

func (b *Backend) AuthenticateAsGuest() error {
	if b.script.Guest == nil {
		return backend.ErrUnsupported
	}
	return b.Begin("", func(c *backend.Conv) { b.play(c, b.script.Guest) })
}

// AuthenticateAutologin succeeds at once for the hinted user.
func (b *Backend) AuthenticateAutologin() error {
	h := b.script.Hints
	switch {
	case h.AutologinUser != "":
		return b.Begin(h.AutologinUser, func(c *backend.Conv) { b.play(c, nil) })
	case h.AutologinGuest:
		return b.Begin("", func(c *backend.Conv) { b.play(c, nil) })
	}
	return backend.ErrUnsupported
}

func (b *Backend) stepsFor(user string) []Step {
	if steps, ok := b.script.Users[user]; ok {
		return steps
	}
	if b.script.Default != nil {
		return b.script.Default
	}
	return rejectAll
}

func (b *Backend) play(c *backend.Conv, steps []Step) {
	if success, finished := b.run(c, steps); finished {
		c.Finish(success)
	}
}

// run plays steps. finished is false when the conversation was cancelled.
func (b *Backend) run(c *backend.Conv, steps []Step) (success, finished bool) {
	for _, st := range steps {
		switch {
		case st.Fail:
			return false, true
		case st.Info != "":
			if !c.Message(st.Info, models.SeverityInfo) {
				return false, false
			}
		case st.Error != "":
			if !c.Message(st.Error, models.SeverityError) {
				return false, false
			}
		case st.Prompt != "":
			kind := models.PromptEcho
			if st.Secret {
				kind = models.PromptSecret
			}
			answer, ok := c.Ask(st.Prompt, kind)
			if !ok {
				return false, false
			}
			if st.Expect != "" && answer != st.Expect {
				b.log.Debug("scripted answer mismatch", zap.String("prompt", st.Prompt))
				return false, true
			}
			if branch, ok := st.Branches[answer]; ok {
				return b.run(c, branch)
			}
		}
	}
	return true, true
}

func (b *Backend) Hints() backend.Hints {
	h := b.script.Hints
	return backend.Hints{
		DefaultSession:   h.DefaultSession,
		LockHint:         h.LockHint,
		AutologinGuest:   h.AutologinGuest,
		AutologinUser:    h.AutologinUser,
		AutologinTimeout: h.AutologinTimeout,
		HasGuestAccount:  b.script.Guest != nil,
	}
}
