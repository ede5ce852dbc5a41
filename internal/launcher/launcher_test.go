package launcher

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Rorical/rorigreet/internal/sessions"
)

type catalog map[string]sessions.Session

func (c catalog) Lookup(key string) (sessions.Session, bool) {
	s, ok := c[key]
	return s, ok
}

type starter struct {
	cmd, env []string
	err      error
}

func (s *starter) StartSession(_ context.Context, cmd, env []string) error {
	s.cmd, s.env = cmd, env
	return s.err
}

var installed = catalog{
	"sway": {Key: "sway", Name: "Sway", Exec: "sway --unsupported-gpu", Type: "wayland"},
}

func TestGreetd_StartSession(t *testing.T) {
	st := &starter{}
	g := NewGreetd(st, installed, nil)

	require.NoError(t, g.StartSession(context.Background(), "bob", "sway", "ko_KR.UTF-8"))
	assert.Equal(t, []string{"sway", "--unsupported-gpu"}, st.cmd)
	assert.Equal(t, []string{
		"XDG_SESSION_TYPE=wayland",
		"XDG_SESSION_DESKTOP=sway",
		"LANG=ko_KR.UTF-8",
	}, st.env)
}

func TestGreetd_UnknownSession(t *testing.T) {
	g := NewGreetd(&starter{}, installed, nil)
	err := g.StartSession(context.Background(), "bob", "kde", "")
	assert.ErrorIs(t, err, ErrUnknownSession)
}

func TestCommand_PassesChoiceInEnvironment(t *testing.T) {
	out := filepath.Join(t.TempDir(), "env")
	c, err := NewCommand([]string{"/bin/sh", "-c", "env > " + out}, installed, nil)
	require.NoError(t, err)

	require.NoError(t, c.StartSession(context.Background(), "bob", "sway", "de_DE.UTF-8"))
	data, err := os.ReadFile(out)
	require.NoError(t, err)
	env := strings.Split(string(data), "\n")
	assert.Contains(t, env, "RORIGREET_USER=bob")
	assert.Contains(t, env, "RORIGREET_SESSION=sway")
	assert.Contains(t, env, "RORIGREET_LANGUAGE=de_DE.UTF-8")
	assert.Contains(t, env, "RORIGREET_SESSION_EXEC=sway --unsupported-gpu")
}

func TestCommand_Failure(t *testing.T) {
	c, err := NewCommand([]string{"/bin/sh", "-c", "exit 3"}, installed, nil)
	require.NoError(t, err)
	assert.Error(t, c.StartSession(context.Background(), "bob", "sway", ""))

	_, err = NewCommand(nil, installed, nil)
	assert.Error(t, err)
}
