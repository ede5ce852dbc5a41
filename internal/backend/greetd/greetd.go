// Package greetd talks to the greetd daemon over its JSON IPC socket.
//
// greetd has no notion of an unnamed conversation, so Authenticate("") asks
// for the user name locally before creating the session.
package greetd

import (
	"context"
	"errors"
	"fmt"
	"net"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/Rorical/rorigreet/internal/backend"
	"github.com/Rorical/rorigreet/internal/models"
)

// ErrNoSession is returned by StartSession before a successful
// authentication.
var ErrNoSession = errors.New("greetd: no authenticated session")

type Config struct {
	Socket         string
	UsernamePrompt string
	DialTimeout    time.Duration
	Hints          backend.Hints
}

type Backend struct {
	*backend.Driver
	cfg Config
	log *zap.Logger

	mu    sync.Mutex
	ready net.Conn // authenticated, waiting for start_session
}

func New(cfg Config, log *zap.Logger) *Backend {
	if cfg.UsernamePrompt == "" {
		cfg.UsernamePrompt = "login: "
	}
	if cfg.DialTimeout <= 0 {
		cfg.DialTimeout = 5 * time.Second
	}
	if log == nil {
		log = zap.NewNop()
	}
	b := &Backend{Driver: backend.NewDriver(cfg.Hints), cfg: cfg, log: log}
	b.OnClose(func() { b.dropReady() })
	return b
}

func (b *Backend) Authenticate(user string) error {
	if b.cfg.Socket == "" {
		return errors.New("greetd: socket path not set")
	}
	b.dropReady()
	return b.Begin(user, func(c *backend.Conv) {
		name := user
		if name == "" {
			answer, ok := c.Ask(b.cfg.UsernamePrompt, models.PromptEcho)
			if !ok {
				return
			}
			name = answer
			c.SetUser(name)
		}
		b.converse(c, name)
	})
}

func (b *Backend) AuthenticateAsGuest() error {
	return backend.ErrUnsupported
}

// AuthenticateAutologin runs an ordinary conversation for the hinted user;
// greetd's initial_session handles password-less logins before we start.
func (b *Backend) AuthenticateAutologin() error {
	if b.cfg.Hints.AutologinUser == "" {
		return backend.ErrUnsupported
	}
	return b.Authenticate(b.cfg.Hints.AutologinUser)
}

func (b *Backend) Hints() backend.Hints {
	return b.cfg.Hints
}

func (b *Backend) converse(c *backend.Conv, user string) {
	log := b.log.With(zap.String("user", user))
	conn, err := net.DialTimeout("unix", b.cfg.Socket, b.cfg.DialTimeout)
	if err != nil {
		log.Error("connect to greetd", zap.Error(err))
		c.Message("Failed to connect to greetd", models.SeverityError)
		c.Finish(false)
		return
	}

	// Unblock reads when the conversation is abandoned.
	stop := make(chan struct{})
	watcher := make(chan struct{})
	go func() {
		defer close(watcher)
		select {
		case <-c.Done():
			conn.SetDeadline(time.Now())
		case <-stop:
		}
	}()
	watching := true
	stopWatching := func() {
		if watching {
			watching = false
			close(stop)
			<-watcher
		}
	}
	keep := false
	defer func() {
		stopWatching()
		if !keep {
			conn.Close()
		}
	}()

	resp, err := roundTrip(conn, request{Type: msgCreateSession, Username: user})
	for err == nil {
		switch resp.Type {
		case respSuccess:
			stopWatching()
			conn.SetDeadline(time.Time{})
			b.mu.Lock()
			b.ready = conn
			b.mu.Unlock()
			keep = true
			log.Info("authentication succeeded")
			c.Finish(true)
			return

		case respError:
			log.Info("authentication failed", zap.Error(resp.err()))
			if resp.ErrorType != errorTypeAuthFailed && resp.Description != "" {
				c.Message(resp.Description, models.SeverityError)
			}
			// Leave greetd ready for the next attempt.
			_, _ = roundTrip(conn, request{Type: msgCancelSession})
			if !c.Cancelled() {
				c.Finish(false)
			}
			return

		case respAuthMessage:
			var answer *string
			switch resp.AuthMessageType {
			case authVisible, authSecret:
				kind := models.PromptEcho
				if resp.AuthMessageType == authSecret {
					kind = models.PromptSecret
				}
				text, ok := c.Ask(resp.AuthMessage, kind)
				if !ok {
					stopWatching()
					conn.SetDeadline(time.Now().Add(time.Second))
					_, _ = roundTrip(conn, request{Type: msgCancelSession})
					return
				}
				answer = &text
			case authInfo:
				c.Message(resp.AuthMessage, models.SeverityInfo)
			case authError:
				c.Message(resp.AuthMessage, models.SeverityError)
			}
			resp, err = roundTrip(conn, request{Type: msgPostResponse, Response: answer})

		default:
			err = fmt.Errorf("unexpected greetd reply %q", resp.Type)
		}
	}

	if c.Cancelled() {
		log.Debug("conversation cancelled")
		return
	}
	log.Error("greetd conversation failed", zap.Error(err))
	c.Message("Lost connection to greetd", models.SeverityError)
	c.Finish(false)
}

// StartSession asks greetd to run cmd once the greeter exits.
func (b *Backend) StartSession(ctx context.Context, cmd, env []string) error {
	b.mu.Lock()
	conn := b.ready
	b.ready = nil
	b.mu.Unlock()
	if conn == nil {
		return ErrNoSession
	}
	defer conn.Close()

	if deadline, ok := ctx.Deadline(); ok {
		conn.SetDeadline(deadline)
	}
	resp, err := roundTrip(conn, request{Type: msgStartSession, Cmd: cmd, Env: env})
	if err != nil {
		return err
	}
	if err := resp.err(); err != nil {
		return err
	}
	b.log.Info("session scheduled", zap.Strings("cmd", cmd))
	return nil
}

func (b *Backend) dropReady() {
	b.mu.Lock()
	conn := b.ready
	b.ready = nil
	b.mu.Unlock()
	if conn != nil {
		_, _ = roundTrip(conn, request{Type: msgCancelSession})
		conn.Close()
	}
}
