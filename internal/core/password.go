package core

import (
	"github.com/Rorical/rorigreet/internal/classifier"
	"github.com/Rorical/rorigreet/internal/locale"
)

type passwordStep struct {
	n      int
	prompt string
	title  string
	label  string
	failed string
}

// Checked in this order: a translated retype prompt may contain the
// translated new password prompt.
var passwordSteps = []passwordStep{
	{
		n:      1,
		prompt: locale.CurrentPasswordPrompt,
		title:  "Changing Password - [Step 1]",
		label:  "Enter current password",
		failed: "Changing password is terminated because\nthe current password does not match.\nPlease try again later.",
	},
	{
		n:      3,
		prompt: locale.RetypePasswordPrompt,
		title:  "Changing Password - [Step 3]",
		label:  "Confirm new password",
		failed: "In Confirm New Password, the password did not match,\nso the change of password is terminated.\nPlease try again later.",
	},
	{
		n:      2,
		prompt: locale.NewPasswordPrompt,
		title:  "Changing Password - [Step 2]",
		label:  "Enter new password",
		failed: "New password violates the security conformity,\nso the change of the password is terminated.\nPlease try again later.",
	},
}

const passwordChangeFailed = "Failed to change password.\nPlease try again later."

// passwordChange tracks the three prompt password change that follows an
// accepted ConfirmRequest.
type passwordChange struct {
	tr     locale.Translator
	active bool
	step   int
	title  string
	label  string
}

func (p *passwordChange) begin() {
	p.active = true
	p.step = 0
	p.title, p.label = "", ""
}

func (p *passwordChange) reset() {
	p.active = false
	p.step = 0
	p.title, p.label = "", ""
}

// prompt identifies which step text asks for. An unknown prompt clears the
// title and label but keeps the last step for failure reporting.
func (p *passwordChange) prompt(text string) classifier.PasswordStepPrompt {
	for _, st := range passwordSteps {
		if locale.ContainsAny(p.tr, text, st.prompt) {
			p.step, p.title, p.label = st.n, st.title, st.label
			return classifier.PasswordStepPrompt{Step: st.n, Title: st.title, Label: st.label, Text: text}
		}
	}
	p.title, p.label = "", ""
	return classifier.PasswordStepPrompt{Text: text}
}

func (p *passwordChange) failureText() string {
	for _, st := range passwordSteps {
		if st.n == p.step {
			return st.failed
		}
	}
	return passwordChangeFailed
}
