package models

type PromptKind int

const (
	PromptEcho PromptKind = iota
	PromptSecret
)

func (k PromptKind) String() string {
	if k == PromptSecret {
		return "secret"
	}
	return "echo"
}

type Severity int

const (
	SeverityInfo Severity = iota
	SeverityError
)

func (s Severity) String() string {
	if s == SeverityError {
		return "error"
	}
	return "info"
}

// ConversationMessage is one event emitted by the credential backend, either a
// request for input (prompt) or a notice. It is never mutated after creation.
type ConversationMessage struct {
	IsPrompt   bool
	PromptKind PromptKind // valid when IsPrompt
	Severity   Severity   // valid when !IsPrompt
	Text       string
}

func NewPrompt(text string, kind PromptKind) ConversationMessage {
	return ConversationMessage{IsPrompt: true, PromptKind: kind, Text: text}
}

func NewMessage(text string, severity Severity) ConversationMessage {
	return ConversationMessage{Severity: severity, Text: text}
}

// IsSecretPrompt reports whether the message asks for hidden input.
func (m ConversationMessage) IsSecretPrompt() bool {
	return m.IsPrompt && m.PromptKind == PromptSecret
}

// SessionInfo describes one installed desktop session.
type SessionInfo struct {
	Key     string
	Name    string
	Comment string
	Type    string // "x11" or "wayland"
}
