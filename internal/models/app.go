package models

import (
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
)

type LineKind int

const (
	LineInfo LineKind = iota
	LineError
)

// Line is one message shown under the login form.
type Line struct {
	Kind  LineKind
	Title string
	Text  string
}

type DialogKind int

const (
	DialogConfirm DialogKind = iota
	DialogNotice
)

type DialogField struct {
	Label string
	Value string
}

// Dialog is a confirm or notice box waiting for the user.
type Dialog struct {
	Kind     DialogKind
	ID       string
	Title    string
	Body     string
	Fields   []DialogField
	YesLabel string
	NoLabel  string
	OKLabel  string
	Yes      bool // confirm cursor
}

// AppModel is the TUI's view state. Everything about the attempt itself
// comes from the latest Snapshot.
type AppModel struct {
	Snapshot  Snapshot
	Sessions  []SessionInfo
	Languages []string
	Lines     []Line
	Dialog    *Dialog

	Identity textinput.Model
	Response textinput.Model
	Prompt   string
	// EditingIdentity shows the user entry while an attempt is running.
	EditingIdentity bool

	Status  string
	Spinner spinner.Model

	Width  int
	Height int
	// Done is set once a session was started; the greeter quits.
	Done bool
}

// IdentityEntry reports whether typing goes to the user entry.
func (m *AppModel) IdentityEntry() bool {
	if m.Dialog != nil {
		return false
	}
	if m.EditingIdentity {
		return true
	}
	switch m.Snapshot.State {
	case StateIdle, StateFailed:
		return !m.Snapshot.AwaitingInput
	}
	return false
}

// MaxLines bounds the message history under the form.
const MaxLines = 6

// AddLine appends l, dropping the oldest lines past MaxLines.
func (m *AppModel) AddLine(l Line) {
	m.Lines = append(m.Lines, l)
	if len(m.Lines) > MaxLines {
		m.Lines = m.Lines[len(m.Lines)-MaxLines:]
	}
}

// SessionName is the display name of the selected session.
func (m *AppModel) SessionName() string {
	for _, s := range m.Sessions {
		if s.Key == m.Snapshot.Selection.Session {
			return s.Name
		}
	}
	return m.Snapshot.Selection.Session
}

// NextLanguage is the configured language after the selected one.
func (m *AppModel) NextLanguage() string {
	if len(m.Languages) == 0 {
		return ""
	}
	for i, l := range m.Languages {
		if l == m.Snapshot.Selection.Language {
			return m.Languages[(i+1)%len(m.Languages)]
		}
	}
	return m.Languages[0]
}

// NextSession is the key after the selected one, wrapping around.
func (m *AppModel) NextSession(step int) string {
	n := len(m.Sessions)
	if n == 0 {
		return ""
	}
	cur := -1
	for i, s := range m.Sessions {
		if s.Key == m.Snapshot.Selection.Session {
			cur = i
			break
		}
	}
	next := ((cur+step)%n + n) % n
	if cur < 0 && step < 0 {
		next = n - 1
	}
	return m.Sessions[next].Key
}
