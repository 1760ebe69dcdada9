// SPDX-License-Identifier: AGPL-3.0-only
package storage

import (
	"context"
	stderrors "errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/jolks/mcp-tasklist/internal/errors"
	"github.com/jolks/mcp-tasklist/internal/model"
)

// JSONStorage persists the snapshot to <dir>/<key>.json and watches it for changes.
type JSONStorage struct {
	key     string
	path    string
	mu      sync.RWMutex
	watcher *fsnotify.Watcher
}

// NewJSONStorage creates a JSON storage for key inside dir.
func NewJSONStorage(dir, key string) (*JSONStorage, error) {
	abs, err := filepath.Abs(filepath.Join(dir, key+".json"))
	if err != nil {
		return nil, err
	}
	return &JSONStorage{key: key, path: abs}, nil
}

// Path returns the snapshot file path.
func (s *JSONStorage) Path() string {
	return s.path
}

// Load implements Storage.Load.
func (s *JSONStorage) Load(ctx context.Context) ([]*model.Task, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	b, err := os.ReadFile(s.path)
	if err != nil {
		if stderrors.Is(err, os.ErrNotExist) {
			return nil, errors.NotFound("snapshot", s.key)
		}
		return nil, errors.Storage("read snapshot", err)
	}
	return DecodeSnapshot(b)
}

// Save implements Storage.Save.
func (s *JSONStorage) Save(ctx context.Context, tasks []*model.Task) error {
	b, err := EncodeSnapshot(tasks)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return errors.Storage("create storage dir", err)
	}
	tmp := s.path + ".tmp"
	f, err := os.OpenFile(tmp, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0o644)
	if err != nil {
		return errors.Storage("open temp file", err)
	}
	if _, err := f.Write(b); err != nil {
		f.Close()
		return errors.Storage("write temp file", err)
	}
	if err := f.Sync(); err != nil { // ensure contents flushed for atomic rename
		f.Close()
		return errors.Storage("sync temp file", err)
	}
	if err := f.Close(); err != nil {
		return errors.Storage("close temp file", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return errors.Storage("replace snapshot", err)
	}
	return nil
}

// Clear implements Storage.Clear.
func (s *JSONStorage) Clear(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.Remove(s.path); err != nil && !stderrors.Is(err, os.ErrNotExist) {
		return errors.Storage("remove snapshot", err)
	}
	return nil
}

// Watch implements Storage.Watch.
func (s *JSONStorage) Watch(ctx context.Context) (<-chan Event, error) {
	// Ensure directory exists to watch
	dir := filepath.Dir(s.path)
	if _, err := os.Stat(dir); stderrors.Is(err, os.ErrNotExist) {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("mkdir storage dir: %w", err)
		}
	}

	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create watcher: %w", err)
	}
	if err := w.Add(dir); err != nil {
		_ = w.Close()
		return nil, fmt.Errorf("watch dir: %w", err)
	}
	s.mu.Lock()
	s.watcher = w
	s.mu.Unlock()

	ch := make(chan Event)

	go func() {
		defer close(ch)
		defer w.Close()

		// Debounce events for the target file to avoid duplicate reloads during atomic save
		const debounce = 200 * time.Millisecond
		var timer *time.Timer
		var timerC <-chan time.Time
		var pending bool

		stopTimer := func() {
			if timer != nil {
				if !timer.Stop() {
					select {
					case <-timer.C:
					default:
					}
				}
				timer = nil
				timerC = nil
			}
		}

		startTimer := func() {
			if timer == nil {
				timer = time.NewTimer(debounce)
				timerC = timer.C
				return
			}
			if !timer.Stop() {
				select {
				case <-timer.C:
				default:
				}
			}
			timer.Reset(debounce)
		}

		for {
			select {
			case <-ctx.Done():
				stopTimer()
				return
			case evt, ok := <-w.Events:
				if !ok {
					stopTimer()
					return
				}
				if filepath.Clean(evt.Name) != s.path {
					continue
				}
				if evt.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename|fsnotify.Remove) != 0 {
					pending = true
					startTimer()
				}
			case <-timerC:
				if pending {
					select {
					case ch <- Event{}:
					case <-ctx.Done():
						stopTimer()
						return
					}
					pending = false
				}
				stopTimer()
			case _, ok := <-w.Errors:
				if !ok {
					stopTimer()
					return
				}
				// ignore error
			}
		}
	}()

	return ch, nil
}

// Close implements Storage.Close.
func (s *JSONStorage) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.watcher != nil {
		err := s.watcher.Close()
		s.watcher = nil
		return err
	}
	return nil
}
