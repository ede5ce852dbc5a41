// Package launcher hands an authenticated user over to their desktop session.
package launcher

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"

	"go.uber.org/zap"

	"github.com/Rorical/rorigreet/internal/sessions"
)

var ErrUnknownSession = errors.New("launcher: unknown session")

// Catalog resolves a session key to its desktop entry.
type Catalog interface {
	Lookup(key string) (sessions.Session, bool)
}

// SessionStarter is the greetd side of a launch.
type SessionStarter interface {
	StartSession(ctx context.Context, cmd, env []string) error
}

// Greetd schedules the session through greetd's start_session request.
type Greetd struct {
	starter SessionStarter
	catalog Catalog
	log     *zap.Logger
}

func NewGreetd(starter SessionStarter, catalog Catalog, log *zap.Logger) *Greetd {
	if log == nil {
		log = zap.NewNop()
	}
	return &Greetd{starter: starter, catalog: catalog, log: log}
}

func (g *Greetd) StartSession(ctx context.Context, user, session, language string) error {
	s, ok := g.catalog.Lookup(session)
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownSession, session)
	}
	cmd := s.Command()
	if len(cmd) == 0 {
		return fmt.Errorf("session %q has an empty Exec", session)
	}
	g.log.Info("starting session",
		zap.String("user", user), zap.String("session", session), zap.String("language", language))
	return g.starter.StartSession(ctx, cmd, sessionEnv(s, language))
}

func sessionEnv(s sessions.Session, language string) []string {
	env := []string{
		"XDG_SESSION_TYPE=" + s.Type,
		"XDG_SESSION_DESKTOP=" + s.Key,
	}
	if language != "" {
		env = append(env, "LANG="+language)
	}
	return env
}

// Command runs a session wrapper with the choice in its environment:
// RORIGREET_USER, RORIGREET_SESSION, RORIGREET_LANGUAGE and
// RORIGREET_SESSION_EXEC. The wrapper must detach the session and exit.
type Command struct {
	argv    []string
	catalog Catalog
	log     *zap.Logger
}

func NewCommand(argv []string, catalog Catalog, log *zap.Logger) (*Command, error) {
	if len(argv) == 0 {
		return nil, errors.New("launcher: command not configured")
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Command{argv: argv, catalog: catalog, log: log}, nil
}

func (c *Command) StartSession(ctx context.Context, user, session, language string) error {
	s, ok := c.catalog.Lookup(session)
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownSession, session)
	}

	cmd := exec.CommandContext(ctx, c.argv[0], c.argv[1:]...)
	cmd.Env = append(os.Environ(), sessionEnv(s, language)...)
	cmd.Env = append(cmd.Env,
		"RORIGREET_USER="+user,
		"RORIGREET_SESSION="+session,
		"RORIGREET_LANGUAGE="+language,
		"RORIGREET_SESSION_EXEC="+s.Exec,
	)
	out, err := cmd.CombinedOutput()
	if err != nil {
		c.log.Error("session command failed",
			zap.Strings("argv", c.argv), zap.ByteString("output", out), zap.Error(err))
		return fmt.Errorf("run session command: %w", err)
	}
	c.log.Info("session started", zap.String("user", user), zap.String("session", session))
	return nil
}
