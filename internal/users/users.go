// Package users looks up per-user session and language preferences.
package users

import (
	"context"
	"errors"
)

// ErrNotFound is returned when the directory has no record of the user.
var ErrNotFound = errors.New("users: user not found")

// User is a directory entry. Empty preference fields mean the user never
// chose one.
type User struct {
	Name     string `yaml:"name"`
	RealName string `yaml:"real_name"`
	Session  string `yaml:"session"`
	Language string `yaml:"language"`
}

// DisplayName prefers the real name.
func (u User) DisplayName() string {
	if u.RealName != "" {
		return u.RealName
	}
	return u.Name
}

// Static is a directory backed by a fixed list, typically from settings.
type Static struct {
	users map[string]User
	order []string
}

func NewStatic(list []User) *Static {
	s := &Static{users: make(map[string]User, len(list))}
	for _, u := range list {
		if u.Name == "" {
			continue
		}
		if _, dup := s.users[u.Name]; !dup {
			s.order = append(s.order, u.Name)
		}
		s.users[u.Name] = u
	}
	return s
}

func (s *Static) Lookup(_ context.Context, name string) (User, error) {
	u, ok := s.users[name]
	if !ok {
		return User{}, ErrNotFound
	}
	return u, nil
}

// List returns the users in the order they were configured.
func (s *Static) List(context.Context) ([]User, error) {
	out := make([]User, 0, len(s.order))
	for _, name := range s.order {
		out = append(out, s.users[name])
	}
	return out, nil
}
