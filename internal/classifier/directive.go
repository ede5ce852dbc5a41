package classifier

import "github.com/Rorical/rorigreet/internal/models"

// Directive is the action the controller must take for one conversation
// message.
type Directive interface {
	directive()
}

// Info is a non-blocking informational line.
type Info struct {
	Text string
}

// Error is a user-visible failure. Terminal errors end the attempt: the
// controller must not restart authentication automatically afterwards.
type Error struct {
	Rule     string
	Title    string
	Text     string
	Terminal bool
}

// ConfirmRequest is a yes/no dialog whose answer is sent to the backend as a
// canned token rather than free text. It opens the password change sub-flow
// when answered yes.
type ConfirmRequest struct {
	ID        string
	Rule      string
	Title     string
	Body      string
	YesLabel  string
	NoLabel   string
	CannedYes string
	CannedNo  string
}

// Field is one labelled value parsed from a structured message tail.
type Field struct {
	Label string
	Value string
}

// Notice is a one-button acknowledgement. CannedAck, when set, is sent to the
// backend once the user acknowledges.
type Notice struct {
	ID        string
	Rule      string
	Title     string
	Body      string
	Fields    []Field
	OKLabel   string
	CannedAck string
}

// PasswordStepPrompt routes a prompt to the password change dialog. Step is
// 0 when the prompt could not be identified.
type PasswordStepPrompt struct {
	Step  int
	Title string
	Label string
	Text  string
}

// RawPrompt is an unrecognised prompt shown as a credential entry.
type RawPrompt struct {
	Kind models.PromptKind
	Text string
}

func (Info) directive()               {}
func (Error) directive()              {}
func (ConfirmRequest) directive()     {}
func (Notice) directive()             {}
func (PasswordStepPrompt) directive() {}
func (RawPrompt) directive()          {}

// NeedsAnswer reports whether the directive halts the drain until the user
// answers a dialog.
func NeedsAnswer(d Directive) bool {
	switch d.(type) {
	case ConfirmRequest, Notice:
		return true
	}
	return false
}
