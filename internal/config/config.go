package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/Rorical/rorigreet/internal/users"
)

const (
	settingsFile = "greeter.yaml"
	stateFile    = "state.json"
)

type PAMSettings struct {
	Service          string `yaml:"service"`
	AutologinService string `yaml:"autologin_service,omitempty"`
	Tty              string `yaml:"tty,omitempty"`
}

type GreetdSettings struct {
	Socket         string `yaml:"socket,omitempty"`
	UsernamePrompt string `yaml:"username_prompt,omitempty"`
}

type HintSettings struct {
	DefaultSession   string        `yaml:"default_session,omitempty"`
	LockHint         bool          `yaml:"lock_hint,omitempty"`
	AutologinUser    string        `yaml:"autologin_user,omitempty"`
	AutologinGuest   bool          `yaml:"autologin_guest,omitempty"`
	AutologinTimeout time.Duration `yaml:"autologin_timeout,omitempty"`
}

type UserSettings struct {
	// Source is "accounts" (AccountsService over D-Bus) or "static".
	Source string       `yaml:"source"`
	Static []users.User `yaml:"static,omitempty"`
}

type LauncherSettings struct {
	// Kind is "auto", "greetd", "command" or "none". Auto picks greetd
	// with the greetd backend and none otherwise.
	Kind    string   `yaml:"kind"`
	Command []string `yaml:"command,omitempty"`
}

type LogSettings struct {
	File    string `yaml:"file,omitempty"`
	Verbose bool   `yaml:"verbose,omitempty"`
}

type Settings struct {
	// Backend is "pam", "greetd" or "script".
	Backend      string         `yaml:"backend"`
	PAM          PAMSettings    `yaml:"pam"`
	Greetd       GreetdSettings `yaml:"greetd"`
	Script       string         `yaml:"script,omitempty"`
	SessionsDirs []string       `yaml:"sessions_dirs"`
	Hints        HintSettings   `yaml:"hints"`

	LoginTimeout      time.Duration `yaml:"login_timeout"`
	ShowUsernameEntry bool          `yaml:"show_username_entry"`
	NumericIDPrefix   string        `yaml:"numeric_id_prefix,omitempty"`

	Users    UserSettings     `yaml:"users"`
	Launcher LauncherSettings `yaml:"launcher"`

	Locale string `yaml:"locale,omitempty"`
	// Languages are offered for selection on the login screen.
	Languages    []string                     `yaml:"languages,omitempty"`
	Translations map[string]map[string]string `yaml:"translations,omitempty"`

	Log       LogSettings `yaml:"log"`
	StateFile string      `yaml:"state_file,omitempty"`

	path string
}

func Default() *Settings {
	return &Settings{
		Backend:           "pam",
		PAM:               PAMSettings{Service: "lightdm"},
		SessionsDirs:      []string{"/usr/share/xsessions", "/usr/share/wayland-sessions"},
		LoginTimeout:      60 * time.Second,
		ShowUsernameEntry: true,
		Users:             UserSettings{Source: "accounts"},
		Launcher:          LauncherSettings{Kind: "auto"},
	}
}

// Dir is $RORIGREET_HOME, or ~/.rorigreet.
func Dir() (string, error) {
	if home := os.Getenv("RORIGREET_HOME"); home != "" {
		return home, nil
	}
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(homeDir, ".rorigreet"), nil
}

// Load reads the settings at path, or greeter.yaml under Dir when path is
// empty. A missing file is created with the defaults.
func Load(path string) (*Settings, error) {
	if path == "" {
		dir, err := Dir()
		if err != nil {
			return nil, fmt.Errorf("failed to get config path: %w", err)
		}
		path = filepath.Join(dir, settingsFile)
	}

	if err := ensureConfigDir(path); err != nil {
		return nil, fmt.Errorf("failed to create config directory: %w", err)
	}

	s, err := loadSettingsFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	s.path = path

	if sock := os.Getenv("GREETD_SOCK"); sock != "" {
		s.Greetd.Socket = sock
	}
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return s, nil
}

func ensureConfigDir(path string) error {
	return os.MkdirAll(filepath.Dir(path), 0o755)
}

func loadSettingsFile(path string) (*Settings, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		s := Default()
		if err := saveSettings(s, path); err != nil {
			return nil, err
		}
		return s, nil
	}
	if err != nil {
		return nil, err
	}

	s := Default()
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(s); err != nil && !errors.Is(err, io.EOF) {
		return nil, err
	}
	return s, nil
}

func saveSettings(s *Settings, path string) error {
	data, err := yaml.Marshal(s)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

func (s *Settings) Save() error {
	if s.path == "" {
		return fmt.Errorf("settings were not loaded from a file")
	}
	return saveSettings(s, s.path)
}

// LauncherKind resolves "auto".
func (s *Settings) LauncherKind() string {
	if s.Launcher.Kind != "auto" {
		return s.Launcher.Kind
	}
	if s.Backend == "greetd" {
		return "greetd"
	}
	return "none"
}

// Path is the file the settings were loaded from.
func (s *Settings) Path() string {
	return s.path
}

// StatePath resolves state_file, relative to the settings directory.
func (s *Settings) StatePath() string {
	name := s.StateFile
	if name == "" {
		name = stateFile
	}
	if filepath.IsAbs(name) {
		return name
	}
	return filepath.Join(filepath.Dir(s.path), name)
}

// LogPath resolves log.file, defaulting to greeter.log beside the settings.
func (s *Settings) LogPath() string {
	name := s.Log.File
	if name == "" {
		name = "greeter.log"
	}
	if filepath.IsAbs(name) {
		return name
	}
	return filepath.Join(filepath.Dir(s.path), name)
}

func (s *Settings) Validate() error {
	switch s.Backend {
	case "pam", "greetd":
	case "script":
		if s.Script == "" {
			return fmt.Errorf("backend script needs a script path")
		}
	default:
		return fmt.Errorf("unknown backend %q", s.Backend)
	}
	switch s.Users.Source {
	case "accounts", "static":
	default:
		return fmt.Errorf("unknown user source %q", s.Users.Source)
	}
	switch s.Launcher.Kind {
	case "greetd":
		if s.Backend != "greetd" {
			return fmt.Errorf("launcher greetd needs the greetd backend")
		}
	case "command":
		if len(s.Launcher.Command) == 0 {
			return fmt.Errorf("launcher command is empty")
		}
	case "auto", "none":
	default:
		return fmt.Errorf("unknown launcher %q", s.Launcher.Kind)
	}
	if s.Users.Source == "static" && len(s.Users.Static) == 0 {
		return fmt.Errorf("static user source has no users")
	}
	if s.LoginTimeout < 0 {
		return fmt.Errorf("login_timeout must not be negative")
	}
	return nil
}
