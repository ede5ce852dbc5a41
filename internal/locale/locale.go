// Package locale resolves the greeter's UI locale and translates the handful of
// backend strings the classifier must recognise in both their untranslated
// and localized forms.
package locale

import (
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/message/catalog"
)

// Strings emitted by Linux-PAM, libpwquality and pam-gooroom that the
// controller matches on.
const (
	CurrentPasswordPrompt  = "Current password: "
	NewPasswordPrompt      = "New password: "
	RetypePasswordPrompt   = "Retype new password: "
	ForcedChangeAdmin      = "You are required to change your password immediately (administrator enforced)"
	ForcedChangeExpired    = "You are required to change your password immediately (password expired)"
	PasswordWillExpireText = "your password will expire in"
)

// builtin holds translations shipped with the greeter. Settings may add more.
var builtin = map[string]map[string]string{
	"ko": {
		CurrentPasswordPrompt: "현재 비밀번호: ",
		NewPasswordPrompt:     "새 비밀번호: ",
		RetypePasswordPrompt:  "새 비밀번호 재입력: ",
	},
}

// Translator maps an untranslated string to its form in the active locale.
type Translator interface {
	Translate(s string) string
}

// Matcher translates through an x/text catalog for one locale.
type Matcher struct {
	tag     language.Tag
	printer *message.Printer
}

// New builds a Matcher for the POSIX or BCP 47 locale name (for example
// "ko_KR.UTF-8"). extra adds or overrides translations keyed by language.
func New(name string, extra map[string]map[string]string) (*Matcher, error) {
	tag := Parse(name)

	b := catalog.NewBuilder(catalog.Fallback(language.English))
	for _, table := range []map[string]map[string]string{builtin, extra} {
		for lang, entries := range table {
			t, err := language.Parse(normalize(lang))
			if err != nil {
				return nil, err
			}
			for key, value := range entries {
				if err := b.SetString(t, key, value); err != nil {
					return nil, err
				}
			}
		}
	}

	return &Matcher{
		tag:     tag,
		printer: message.NewPrinter(tag, message.Catalog(b)),
	}, nil
}

// Untranslated returns a Matcher that never translates.
func Untranslated() *Matcher {
	return &Matcher{tag: language.Und}
}

func (m *Matcher) Tag() language.Tag {
	return m.tag
}

func (m *Matcher) Translate(s string) string {
	if m == nil || m.printer == nil {
		return s
	}
	return m.printer.Sprintf(s)
}

// Forms returns s followed by its translation when the two differ.
func Forms(tr Translator, s string) []string {
	if tr == nil {
		return []string{s}
	}
	if translated := tr.Translate(s); translated != "" && translated != s {
		return []string{s, translated}
	}
	return []string{s}
}

// ContainsAny reports whether text contains s or its translation.
func ContainsAny(tr Translator, text, s string) bool {
	for _, form := range Forms(tr, s) {
		if strings.Contains(text, form) {
			return true
		}
	}
	return false
}

// Parse converts a POSIX locale name into a language tag. Unknown or "C"
// locales map to language.Und.
func Parse(name string) language.Tag {
	n := normalize(name)
	if n == "" || n == "C" || n == "POSIX" {
		return language.Und
	}
	tag, err := language.Parse(n)
	if err != nil {
		return language.Und
	}
	return tag
}

// Canonical validates a language selection. It returns the BCP 47 form and
// false when the name cannot be parsed.
func Canonical(name string) (string, bool) {
	tag := Parse(name)
	if tag == language.Und {
		return "", false
	}
	return tag.String(), true
}

func normalize(name string) string {
	if i := strings.IndexAny(name, ".@"); i >= 0 {
		name = name[:i]
	}
	return strings.ReplaceAll(strings.TrimSpace(name), "_", "-")
}
