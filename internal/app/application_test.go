package app

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/Rorical/rorigreet/internal/config"
	"github.com/Rorical/rorigreet/internal/console"
	"github.com/Rorical/rorigreet/internal/dispatcher"
	"github.com/Rorical/rorigreet/internal/users"
)

type answers struct {
	queue []string
	asked []string
}

func (a *answers) Ask(label string, secret bool) (string, error) {
	a.asked = append(a.asked, label)
	if len(a.queue) == 0 {
		return "", console.ErrQuit
	}
	next := a.queue[0]
	a.queue = a.queue[1:]
	return next, nil
}

func (a *answers) Confirm(title, body, yes, no string) (bool, error) { return false, console.ErrQuit }
func (a *answers) Acknowledge(title, body, ok string) error          { return nil }
func (a *answers) Print(string)                                      {}

const bobScript = `
users:
  bob:
    - info: "Welcome"
    - prompt: "Password: "
      secret: true
      expect: hunter2
`

func settings(t *testing.T) (*config.Settings, string) {
	t.Helper()
	dir := t.TempDir()
	sessions := filepath.Join(dir, "xsessions")
	require.NoError(t, os.MkdirAll(sessions, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(sessions, "openbox.desktop"),
		[]byte("[Desktop Entry]\nName=Openbox\nExec=openbox-session\n"), 0o644))
	scriptPath := filepath.Join(dir, "bob.yaml")
	require.NoError(t, os.WriteFile(scriptPath, []byte(bobScript), 0o644))

	out := filepath.Join(dir, "launched")
	cfg := config.Default()
	cfg.Backend = "script"
	cfg.Script = scriptPath
	cfg.SessionsDirs = []string{sessions}
	cfg.Users = config.UserSettings{Source: "static", Static: []users.User{{Name: "bob"}}}
	cfg.Launcher = config.LauncherSettings{Kind: "command", Command: []string{"/bin/sh", "-c", `echo "$RORIGREET_USER $RORIGREET_SESSION" > ` + out}}
	cfg.StateFile = filepath.Join(dir, "state.json")
	cfg.Locale = "C"
	require.NoError(t, cfg.Validate())
	return cfg, out
}

func TestApplication_ConsoleLogin(t *testing.T) {
	defer goleak.VerifyNone(t)
	cfg, out := settings(t)

	a, err := NewApplication(Options{Settings: cfg})
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	asker := &answers{queue: []string{"bob", "hunter2"}}
	var launched bool
	err = a.RunWith(ctx, func(ctx context.Context, d *dispatcher.EventDispatcher) error {
		var runErr error
		launched, runErr = console.New(asker).Run(ctx, d)
		return runErr
	})
	a.Stop()
	require.NoError(t, err)

	assert.True(t, launched)
	assert.Equal(t, []string{"Login", "Password"}, asker.asked)
	data, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.Equal(t, "bob openbox", strings.TrimSpace(string(data)))

	last, ok := a.Store().GetString("greeter", "last-user")
	assert.True(t, ok)
	assert.Equal(t, "bob", last)
}

func TestApplication_Rejects(t *testing.T) {
	cfg, _ := settings(t)
	cfg.Script = filepath.Join(t.TempDir(), "missing.yaml")
	_, err := NewApplication(Options{Settings: cfg})
	assert.Error(t, err)

	_, err = NewApplication(Options{})
	assert.Error(t, err)
}
