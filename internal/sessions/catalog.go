// Package sessions discovers the desktop sessions installed on the system
// and keeps the list current while the greeter runs.
package sessions

import (
	"context"
	"errors"
	"os"
	"os/exec"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"

	"github.com/Rorical/rorigreet/internal/models"
)

var DefaultDirs = []string{"/usr/share/xsessions", "/usr/share/wayland-sessions"}

// Catalog is the set of sessions found in a list of directories. Earlier
// directories win when two define the same key.
type Catalog struct {
	dirs    []string
	lang    string
	log     *zap.Logger
	changes chan struct{}

	mu       sync.RWMutex
	sessions []Session
}

func NewCatalog(dirs []string, lang string, log *zap.Logger) *Catalog {
	if len(dirs) == 0 {
		dirs = DefaultDirs
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Catalog{dirs: dirs, lang: lang, log: log, changes: make(chan struct{}, 1)}
}

// Load is NewCatalog followed by Reload.
func Load(dirs []string, lang string, log *zap.Logger) (*Catalog, error) {
	c := NewCatalog(dirs, lang, log)
	return c, c.Reload()
}

// Reload rescans every directory. Missing directories are skipped.
func (c *Catalog) Reload() error {
	seen := map[string]bool{}
	var found []Session
	for _, dir := range c.dirs {
		entries, err := os.ReadDir(dir)
		if errors.Is(err, os.ErrNotExist) {
			continue
		}
		if err != nil {
			return err
		}
		kind := "x11"
		if strings.Contains(filepath.Base(dir), "wayland") {
			kind = "wayland"
		}
		var batch []Session
		for _, e := range entries {
			name := e.Name()
			key, ok := strings.CutSuffix(name, ".desktop")
			if !ok || e.IsDir() || seen[key] {
				continue
			}
			s, err := c.read(filepath.Join(dir, name))
			if err != nil {
				c.log.Debug("skipping session file", zap.String("file", name), zap.Error(err))
				continue
			}
			if s.Hidden || !available(s.TryExec) {
				continue
			}
			s.Key, s.Type = key, kind
			seen[key] = true
			batch = append(batch, s)
		}
		sort.Slice(batch, func(i, j int) bool { return batch[i].Name < batch[j].Name })
		found = append(found, batch...)
	}

	c.mu.Lock()
	c.sessions = found
	c.mu.Unlock()
	c.log.Debug("sessions loaded", zap.Int("count", len(found)))
	return nil
}

func (c *Catalog) read(path string) (Session, error) {
	f, err := os.Open(path)
	if err != nil {
		return Session{}, err
	}
	defer f.Close()
	return parseDesktop(f, c.lang)
}

func available(tryExec string) bool {
	if tryExec == "" {
		return true
	}
	if filepath.IsAbs(tryExec) {
		_, err := os.Stat(tryExec)
		return err == nil
	}
	_, err := exec.LookPath(tryExec)
	return err == nil
}

func (c *Catalog) Keys() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	keys := make([]string, len(c.sessions))
	for i, s := range c.sessions {
		keys[i] = s.Key
	}
	return keys
}

func (c *Catalog) List() []models.SessionInfo {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]models.SessionInfo, len(c.sessions))
	for i, s := range c.sessions {
		out[i] = models.SessionInfo{Key: s.Key, Name: s.Name, Comment: s.Comment, Type: s.Type}
	}
	return out
}

func (c *Catalog) Lookup(key string) (Session, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	for _, s := range c.sessions {
		if s.Key == key {
			return s, true
		}
	}
	return Session{}, false
}

// Changes receives a value after every reload triggered by Watch.
func (c *Catalog) Changes() <-chan struct{} {
	return c.changes
}

// Watch reloads the catalog whenever a session directory changes, until ctx
// is done.
func (c *Catalog) Watch(ctx context.Context) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer w.Close()

	watched := 0
	for _, dir := range c.dirs {
		if err := w.Add(dir); err != nil {
			c.log.Debug("not watching session dir", zap.String("dir", dir), zap.Error(err))
			continue
		}
		watched++
	}
	if watched == 0 {
		<-ctx.Done()
		return nil
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			if !strings.HasSuffix(ev.Name, ".desktop") {
				continue
			}
			if err := c.Reload(); err != nil {
				c.log.Warn("reload sessions", zap.Error(err))
				continue
			}
			select {
			case c.changes <- struct{}{}:
			default:
			}
		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			c.log.Warn("session watcher", zap.Error(err))
		}
	}
}
