package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"sort"
	"sync"
)

var ErrNoSection = errors.New("config: no such section")

// Store is the greeter's persisted state: string values in named sections,
// written through to a JSON file on every change.
type Store struct {
	path string

	mu   sync.RWMutex
	data map[string]map[string]string
}

// OpenStore reads path. A missing file is an empty store.
func OpenStore(path string) (*Store, error) {
	s := &Store{path: path, data: map[string]map[string]string{}}
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return s, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read state: %w", err)
	}
	if len(data) == 0 {
		return s, nil
	}
	if err := json.Unmarshal(data, &s.data); err != nil {
		return nil, fmt.Errorf("failed to parse state %s: %w", path, err)
	}
	if s.data == nil {
		s.data = map[string]map[string]string{}
	}
	return s, nil
}

func (s *Store) GetString(section, key string) (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.data[section][key]
	return v, ok
}

func (s *Store) SetString(section, key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if old, ok := s.data[section][key]; ok && old == value {
		return nil
	}
	if s.data[section] == nil {
		s.data[section] = map[string]string{}
	}
	s.data[section][key] = value
	return s.saveLocked()
}

// Sections lists the section names in order.
func (s *Store) Sections() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	names := make([]string, 0, len(s.data))
	for name := range s.data {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Section returns a copy of one section.
func (s *Store) Section(name string) (map[string]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sec, ok := s.data[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNoSection, name)
	}
	out := make(map[string]string, len(sec))
	for k, v := range sec {
		out[k] = v
	}
	return out, nil
}

// Forget removes a whole section.
func (s *Store) Forget(name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.data[name]; !ok {
		return fmt.Errorf("%w: %s", ErrNoSection, name)
	}
	delete(s.data, name)
	return s.saveLocked()
}

func (s *Store) saveLocked() error {
	if err := ensureConfigDir(s.path); err != nil {
		return err
	}
	data, err := json.MarshalIndent(s.data, "", "  ")
	if err != nil {
		return err
	}
	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return err
	}
	return os.Rename(tmp, s.path)
}
