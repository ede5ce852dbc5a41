// Package classifier decodes the sentinel sub-protocol that pam-gooroom and
// friends embed in otherwise human-readable PAM conversation text.
//
// Rules are evaluated in table order and the first match wins. Several
// needles are prefixes of others ("Account Expiration" and "Account
// Expiration Warning"), so the more specific rule must come first.
package classifier

import (
	"strings"

	"github.com/Rorical/rorigreet/internal/locale"
	"github.com/Rorical/rorigreet/internal/models"
)

// Canned replies understood by the backend's scripted conversation.
const (
	ReplyChangePasswordYes = "chpasswd_yes"
	ReplyChangePasswordNo  = "chpasswd_no"
	ReplyAccountExpiryOK   = "acct_exp_ok"
	ReplyDivisionExpiryOK  = "dept_exp_ok"
	ReplyPasswordExpiryOK  = "pass_exp_ok"
	ReplyDuplicateLoginOK  = "duplicate_login_ok"
	ReplyTrialLoginOK      = "trial_login_ok"
)

type MatchMode int

const (
	Prefix MatchMode = iota
	Substring
)

func (m MatchMode) String() string {
	if m == Substring {
		return "substring"
	}
	return "prefix"
}

// Rule is one entry of the classification table.
type Rule struct {
	Name    string
	Mode    MatchMode
	Needles []string
	// Translated rules also match the active locale's form of each needle.
	Translated bool
	Terminal   bool
	build      func(r Rule, text string) Directive
}

func (r Rule) matches(tr locale.Translator, text string) bool {
	for _, needle := range r.Needles {
		forms := []string{needle}
		if r.Translated {
			forms = locale.Forms(tr, needle)
		}
		for _, form := range forms {
			if r.Mode == Prefix && strings.HasPrefix(text, form) {
				return true
			}
			if r.Mode == Substring && strings.Contains(text, form) {
				return true
			}
		}
	}
	return false
}

// Classifier maps conversation text to directives. It is stateless apart from
// the translator and safe for concurrent use.
type Classifier struct {
	tr    locale.Translator
	rules []Rule
}

func New(tr locale.Translator) *Classifier {
	return &Classifier{tr: tr, rules: table}
}

// Rules returns a copy of the classification table in evaluation order.
func Rules() []Rule {
	out := make([]Rule, len(table))
	copy(out, table)
	return out
}

// Match returns the directive of the first rule matching text.
func (c *Classifier) Match(text string) (Directive, bool) {
	d, _, ok := c.MatchRule(text)
	return d, ok
}

// MatchRule is Match that also reports which rule fired.
func (c *Classifier) MatchRule(text string) (Directive, Rule, bool) {
	for _, r := range c.rules {
		if r.matches(c.tr, text) {
			return r.build(r, text), r, true
		}
	}
	return nil, Rule{}, false
}

// Classify never fails: unmatched prompts become RawPrompt and unmatched
// messages keep the backend's severity.
func (c *Classifier) Classify(msg models.ConversationMessage) Directive {
	if d, ok := c.Match(msg.Text); ok {
		return d
	}
	if msg.IsPrompt {
		return RawPrompt{Kind: msg.PromptKind, Text: msg.Text}
	}
	if msg.Severity == models.SeverityError {
		return Error{Text: msg.Text}
	}
	return Info{Text: msg.Text}
}

// Text flattens a notice body and its fields the way dialogs print them.
func (n Notice) Text() string {
	if len(n.Fields) == 0 {
		return n.Body
	}
	var b strings.Builder
	b.WriteString(n.Body)
	b.WriteString("\n")
	for _, f := range n.Fields {
		b.WriteString("\n")
		b.WriteString(f.Label)
		b.WriteString(" : ")
		b.WriteString(f.Value)
	}
	return b.String()
}
