package sessions

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strings"
)

var errNotASession = errors.New("not an application entry")

// Session is one installed desktop session.
type Session struct {
	Key     string
	Name    string
	Comment string
	Exec    string
	TryExec string
	Type    string // "x11" or "wayland"
	Hidden  bool
}

// Command splits Exec into argv. Field codes are dropped; quoting follows
// the desktop entry specification.
func (s Session) Command() []string {
	var (
		args    []string
		cur     strings.Builder
		quoted  bool
		escaped bool
		started bool
	)
	for _, r := range s.Exec {
		switch {
		case escaped:
			cur.WriteRune(r)
			escaped = false
		case r == '\\' && quoted:
			escaped = true
		case r == '"':
			quoted = !quoted
			started = true
		case (r == ' ' || r == '\t') && !quoted:
			if started {
				args = append(args, cur.String())
				cur.Reset()
				started = false
			}
		default:
			cur.WriteRune(r)
			started = true
		}
	}
	if started {
		args = append(args, cur.String())
	}
	out := args[:0]
	for _, a := range args {
		if len(a) == 2 && a[0] == '%' {
			continue
		}
		out = append(out, a)
	}
	return out
}

// parseDesktop reads the [Desktop Entry] group of a .desktop file. lang
// selects localized Name and Comment keys such as Name[ko].
func parseDesktop(r io.Reader, lang string) (Session, error) {
	var (
		s       Session
		inEntry bool
		kind    string
		names   = map[string]string{}
	)
	sc := bufio.NewScanner(r)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		if strings.HasPrefix(line, "[") {
			inEntry = line == "[Desktop Entry]"
			continue
		}
		if !inEntry {
			continue
		}
		key, value, ok := strings.Cut(line, "=")
		if !ok {
			continue
		}
		key, value = strings.TrimSpace(key), strings.TrimSpace(value)
		switch key {
		case "Type":
			kind = value
		case "Exec":
			s.Exec = value
		case "TryExec":
			s.TryExec = value
		case "Hidden", "NoDisplay":
			s.Hidden = s.Hidden || value == "true"
		default:
			names[key] = value
		}
	}
	if err := sc.Err(); err != nil {
		return Session{}, err
	}
	if kind != "" && kind != "Application" && kind != "XSession" {
		return Session{}, errNotASession
	}
	s.Name = localized(names, "Name", lang)
	s.Comment = localized(names, "Comment", lang)
	if s.Name == "" || s.Exec == "" {
		return Session{}, fmt.Errorf("missing Name or Exec")
	}
	return s, nil
}

// localized picks key[ll_CC], key[ll], then key.
func localized(values map[string]string, key, lang string) string {
	if lang != "" {
		if i := strings.IndexAny(lang, ".@"); i >= 0 {
			lang = lang[:i]
		}
		if v, ok := values[key+"["+lang+"]"]; ok {
			return v
		}
		if short, _, ok := strings.Cut(lang, "_"); ok {
			if v, ok := values[key+"["+short+"]"]; ok {
				return v
			}
		}
	}
	return values[key]
}
