package models

import "fmt"

type AuthState int

const (
	StateIdle AuthState = iota
	StateAuthenticating
	StateAwaitingUsername
	StateAwaitingResponse
	StateChangingPassword
	StateAuthenticated
	StateFailed
)

var authStateNames = map[AuthState]string{
	StateIdle:             "idle",
	StateAuthenticating:   "authenticating",
	StateAwaitingUsername: "awaiting-username",
	StateAwaitingResponse: "awaiting-response",
	StateChangingPassword: "changing-password",
	StateAuthenticated:    "authenticated",
	StateFailed:           "failed",
}

func (s AuthState) String() string {
	if name, ok := authStateNames[s]; ok {
		return name
	}
	return fmt.Sprintf("state(%d)", int(s))
}

// Selection is the session and language chosen for the current attempt.
// Empty strings mean nothing is selected.
type Selection struct {
	Session  string
	Language string
}

// Snapshot is the read-only view of the controller pushed to front-ends after
// every transition.
type Snapshot struct {
	State         AuthState
	Identity      string
	PromptKind    PromptKind // valid in StateAwaitingResponse
	FailureReason string     // valid in StateFailed
	Selection     Selection

	// Password change sub-flow. Step is 0 until a step prompt was recognised.
	PasswordStep  int
	PasswordTitle string
	PasswordLabel string
	StatusLine    string

	AwaitingInput bool // a prompt or the username entry waits for typing
	DialogPending bool // a confirm or notice dialog waits for an answer
	InputBlocked  bool // a response was sent and the backend has not asked again
	Busy          bool // the attempt timer is running
}

// AcceptsInput reports whether the front-end should accept typed input.
func (s Snapshot) AcceptsInput() bool {
	return s.AwaitingInput && !s.InputBlocked
}

// ChangingPassword reports whether the password dialog should be visible.
func (s Snapshot) ChangingPassword() bool {
	return s.State == StateChangingPassword
}
