package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_CreatesDefaults(t *testing.T) {
	home := t.TempDir()
	t.Setenv("RORIGREET_HOME", home)
	t.Setenv("GREETD_SOCK", "")

	s, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "pam", s.Backend)
	assert.Equal(t, "lightdm", s.PAM.Service)
	assert.Equal(t, 60*time.Second, s.LoginTimeout)
	assert.True(t, s.ShowUsernameEntry)
	assert.Equal(t, "none", s.LauncherKind())
	assert.FileExists(t, filepath.Join(home, "greeter.yaml"))
	assert.Equal(t, filepath.Join(home, "state.json"), s.StatePath())
}

func TestLoad_FileAndEnvOverride(t *testing.T) {
	path := filepath.Join(t.TempDir(), "greeter.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
backend: greetd
launcher:
  kind: greetd
login_timeout: 30s
show_username_entry: false
numeric_id_prefix: "gr"
hints:
  autologin_user: kiosk
  autologin_timeout: 5s
users:
  source: static
  static:
    - name: bob
      session: sway
`), 0o644))
	t.Setenv("GREETD_SOCK", "/run/greetd.sock")

	s, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "greetd", s.Backend)
	assert.Equal(t, "greetd", s.LauncherKind())
	assert.Equal(t, "/run/greetd.sock", s.Greetd.Socket)
	assert.Equal(t, 30*time.Second, s.LoginTimeout)
	assert.False(t, s.ShowUsernameEntry)
	assert.Equal(t, "gr", s.NumericIDPrefix)
	assert.Equal(t, 5*time.Second, s.Hints.AutologinTimeout)
	require.Len(t, s.Users.Static, 1)
	assert.Equal(t, "sway", s.Users.Static[0].Session)
	// Unset keys keep their defaults.
	assert.Equal(t, "lightdm", s.PAM.Service)
}

func TestLoad_Rejects(t *testing.T) {
	for name, body := range map[string]string{
		"unknown field":    "bakend: pam\n",
		"unknown backend":  "backend: ldap\n",
		"script no path":   "backend: script\nlauncher: {kind: none}\n",
		"greetd launcher":  "backend: pam\nlauncher: {kind: greetd}\n",
		"empty command":    "launcher: {kind: command}\n",
		"negative timeout": "login_timeout: -1s\nlauncher: {kind: none}\n",
		"static no users":  "users: {source: static}\n",
	} {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "greeter.yaml")
			require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
			_, err := Load(path)
			assert.Error(t, err)
		})
	}
}

func TestStore_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state", "state.json")
	s, err := OpenStore(path)
	require.NoError(t, err)

	_, ok := s.GetString("greeter", "last-user")
	assert.False(t, ok)
	require.NoError(t, s.SetString("greeter", "last-user", "bob"))
	require.NoError(t, s.SetString("user:bob", "session", "sway"))
	require.NoError(t, s.SetString("user:bob", "language", ""))

	again, err := OpenStore(path)
	require.NoError(t, err)
	v, ok := again.GetString("greeter", "last-user")
	assert.True(t, ok)
	assert.Equal(t, "bob", v)
	v, ok = again.GetString("user:bob", "language")
	assert.True(t, ok)
	assert.Empty(t, v)
	assert.Equal(t, []string{"greeter", "user:bob"}, again.Sections())

	sec, err := again.Section("user:bob")
	require.NoError(t, err)
	assert.Equal(t, "sway", sec["session"])

	require.NoError(t, again.Forget("user:bob"))
	assert.ErrorIs(t, again.Forget("user:bob"), ErrNoSection)
	_, err = again.Section("user:bob")
	assert.ErrorIs(t, err, ErrNoSection)
}

func TestStore_Corrupt(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.json")
	require.NoError(t, os.WriteFile(path, []byte("{"), 0o600))
	_, err := OpenStore(path)
	assert.Error(t, err)
}
