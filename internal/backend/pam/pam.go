// Package pam runs the credential conversation through Linux-PAM.
package pam

import (
	"errors"
	"fmt"
	"strings"

	"github.com/msteinert/pam"
	"go.uber.org/zap"

	"github.com/Rorical/rorigreet/internal/backend"
	"github.com/Rorical/rorigreet/internal/models"
)

// pam_strerror text for PAM_NEW_AUTHTOK_REQD.
const newAuthtokRequired = "Authentication token is no longer valid; new one required"

var errCancelled = errors.New("conversation cancelled")

type Config struct {
	// Service is the PAM stack used for interactive logins.
	Service string
	// AutologinService is the password-less stack used by autologin.
	AutologinService string
	// Tty is set as PAM_TTY, which pam_unix's nullok_secure checks.
	Tty   string
	Hints backend.Hints
}

// Transaction is the subset of *pam.Transaction the backend drives.
type Transaction interface {
	Authenticate(pam.Flags) error
	AcctMgmt(pam.Flags) error
	ChangeAuthTok(pam.Flags) error
	SetItem(pam.Item, string) error
}

// StartFunc opens a transaction. The default is pam.StartFunc.
type StartFunc func(service, user string, conv func(pam.Style, string) (string, error)) (Transaction, error)

func defaultStart(service, user string, conv func(pam.Style, string) (string, error)) (Transaction, error) {
	return pam.StartFunc(service, user, conv)
}

type Backend struct {
	*backend.Driver
	cfg   Config
	log   *zap.Logger
	start StartFunc
}

func New(cfg Config, log *zap.Logger) *Backend {
	return NewWithStart(cfg, log, defaultStart)
}

// NewWithStart is New with a custom transaction opener.
func NewWithStart(cfg Config, log *zap.Logger, start StartFunc) *Backend {
	if cfg.Service == "" {
		cfg.Service = "login"
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Backend{
		Driver: backend.NewDriver(cfg.Hints),
		cfg:    cfg,
		log:    log,
		start:  start,
	}
}

func (b *Backend) Authenticate(user string) error {
	return b.Begin(user, func(c *backend.Conv) { b.converse(c, b.cfg.Service, user) })
}

// AuthenticateAsGuest is not available: PAM has no notion of a guest account.
func (b *Backend) AuthenticateAsGuest() error {
	return backend.ErrUnsupported
}

func (b *Backend) AuthenticateAutologin() error {
	user := b.cfg.Hints.AutologinUser
	if user == "" || b.cfg.AutologinService == "" {
		return backend.ErrUnsupported
	}
	return b.Begin(user, func(c *backend.Conv) { b.converse(c, b.cfg.AutologinService, user) })
}

func (b *Backend) Hints() backend.Hints {
	return b.cfg.Hints
}

func (b *Backend) converse(c *backend.Conv, service, user string) {
	log := b.log.With(zap.String("service", service), zap.String("user", user))
	named := user != ""

	tx, err := b.start(service, user, func(style pam.Style, msg string) (string, error) {
		switch style {
		case pam.PromptEchoOff, pam.PromptEchoOn:
			kind := models.PromptEcho
			if style == pam.PromptEchoOff {
				kind = models.PromptSecret
			}
			answer, ok := c.Ask(msg, kind)
			if !ok {
				return "", errCancelled
			}
			if !named && kind == models.PromptEcho {
				named = true
				c.SetUser(answer)
			}
			return answer, nil
		case pam.ErrorMsg:
			if msg != "" {
				c.Message(msg, models.SeverityError)
			}
			return "", nil
		case pam.TextInfo:
			if msg != "" {
				c.Message(msg, models.SeverityInfo)
			}
			return "", nil
		}
		return "", fmt.Errorf("unexpected style: %v", style)
	})
	if err != nil {
		log.Error("failed to start pam", zap.Error(err))
		c.Message(err.Error(), models.SeverityError)
		c.Finish(false)
		return
	}

	if b.cfg.Tty != "" {
		if err := tx.SetItem(pam.Tty, b.cfg.Tty); err != nil {
			log.Warn("failed to set tty", zap.Error(err))
		}
	}

	err = tx.Authenticate(0)
	if err == nil {
		err = tx.AcctMgmt(0)
		if err != nil && strings.Contains(err.Error(), newAuthtokRequired) {
			log.Info("password expired, changing")
			err = tx.ChangeAuthTok(pam.ChangeExpiredAuthtok)
		}
	}
	if c.Cancelled() {
		log.Debug("conversation cancelled")
		return
	}
	if err != nil {
		log.Info("authentication failed", zap.Error(err))
		c.Finish(false)
		return
	}
	log.Info("authentication succeeded")
	c.Finish(true)
}
