// SPDX-License-Identifier: AGPL-3.0-only
package tasks

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/jolks/mcp-tasklist/internal/errors"
	"github.com/jolks/mcp-tasklist/internal/logging"
	"github.com/jolks/mcp-tasklist/internal/model"
	"github.com/jolks/mcp-tasklist/internal/storage"
)

// Notification messages
const (
	msgSaveFailed  = "Error saving tasks to storage"
	msgLoadFailed  = "Error loading tasks from storage"
	msgClearFailed = "Error clearing tasks from storage"
	msgCleared     = "All tasks cleared successfully!"
)

// Store owns the ordered task collection and persists it on every mutation
type Store struct {
	mu          sync.RWMutex
	tasks       []*model.Task
	editing     *model.Task
	filter      model.FilterMode
	store       storage.Storage
	notifier    Notifier
	watch       bool
	cancelWatch context.CancelFunc
	stopOnce    sync.Once
	done        chan struct{}
	// gen counts mutations; a reload that raced one is discarded
	gen uint64
	now         func() time.Time
	logger      *logging.Logger
}

// Option configures a Store
type Option func(*Store)

// WithWatch reloads the collection whenever the storage reports a change
func WithWatch(watch bool) Option {
	return func(s *Store) { s.watch = watch }
}

// WithClock overrides the clock used to assign task ids
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// WithLogger overrides the default logger
func WithLogger(logger *logging.Logger) Option {
	return func(s *Store) { s.logger = logger }
}

// NewStore creates a task store backed by store that reports to notifier
func NewStore(store storage.Storage, notifier Notifier, opts ...Option) *Store {
	s := &Store{
		filter:   model.FilterAll,
		store:    store,
		notifier: notifier,
		now:      time.Now,
		logger:   logging.GetDefaultLogger(),
		done:     make(chan struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Initialize loads the persisted snapshot, falling back to the sample tasks
// when it is missing or unusable. The fallback is not persisted until the
// next mutation.
func (s *Store) Initialize(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	loaded, err := s.store.Load(ctx)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.editing = nil

	switch {
	case err == nil:
		s.tasks = loaded
		s.logger.Infof("Loaded %d tasks from storage", len(loaded))
	case errors.IsNotFound(err):
		s.tasks = model.DefaultTasks()
		s.logger.Infof("No saved tasks, using defaults")
	case errors.IsParse(err):
		s.tasks = model.DefaultTasks()
		s.logger.Warnf("Error loading tasks from storage: %v", err)
	default:
		s.tasks = model.DefaultTasks()
		s.logger.Errorf("Error loading tasks from storage: %v", err)
		s.notifier.Push(msgLoadFailed, model.NotificationError)
	}
	return nil
}

// Add appends a new pending task
func (s *Store) Add(ctx context.Context, title, description string, priority model.Priority) (model.Task, error) {
	if strings.TrimSpace(title) == "" {
		return model.Task{}, errors.InvalidInput("task title is required")
	}
	if priority == "" {
		priority = model.PriorityMedium
	}
	if !priority.Valid() {
		return model.Task{}, errors.InvalidInput(fmt.Sprintf("unknown priority: %s", priority))
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	t := &model.Task{
		ID:          s.nextIDLocked(),
		Title:       title,
		Description: description,
		Completed:   false,
		Priority:    priority,
	}
	s.tasks = append(s.tasks, t)
	s.notifier.Push(fmt.Sprintf("Task \"%s\" created successfully!", t.Title), model.NotificationSuccess)
	s.persistLocked(ctx)

	return *t, nil
}

// Toggle flips the completion flag of a task
func (s *Store) Toggle(ctx context.Context, id int64) (model.Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexLocked(id)
	if i < 0 {
		return model.Task{}, s.notFoundLocked(id)
	}
	t := s.tasks[i]
	t.Completed = !t.Completed
	s.notifier.Push(fmt.Sprintf("Task \"%s\" marked as %s!", t.Title, t.StatusLabel()), model.NotificationInfo)
	s.persistLocked(ctx)

	return *t, nil
}

// Update replaces the task with the same id by edited
func (s *Store) Update(ctx context.Context, edited model.Task) (model.Task, error) {
	if strings.TrimSpace(edited.Title) == "" {
		return model.Task{}, errors.InvalidInput("task title is required")
	}
	if !edited.Priority.Valid() {
		return model.Task{}, errors.InvalidInput(fmt.Sprintf("unknown priority: %s", edited.Priority))
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexLocked(edited.ID)
	if i < 0 {
		return model.Task{}, s.notFoundLocked(edited.ID)
	}
	t := edited
	s.tasks[i] = &t
	s.editing = nil
	s.notifier.Push(fmt.Sprintf("Task \"%s\" updated successfully!", t.Title), model.NotificationSuccess)
	s.persistLocked(ctx)

	return t, nil
}

// Remove deletes a task
func (s *Store) Remove(ctx context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexLocked(id)
	if i < 0 {
		return s.notFoundLocked(id)
	}
	removed := s.tasks[i]
	s.tasks = append(s.tasks[:i], s.tasks[i+1:]...)
	if s.editing != nil && s.editing.ID == id {
		s.editing = nil
	}
	s.notifier.Push(fmt.Sprintf("Task \"%s\" deleted successfully!", removed.Title), model.NotificationWarning)
	s.persistLocked(ctx)

	return nil
}

// ClearAll empties the collection and deletes the snapshot. It is a no-op on an empty collection.
func (s *Store) ClearAll(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.tasks) == 0 {
		return nil
	}
	s.tasks = []*model.Task{}
	s.editing = nil
	s.gen++

	if err := s.store.Clear(ctx); err != nil {
		s.logger.Errorf("Error clearing tasks from storage: %v", err)
		s.notifier.Push(msgClearFailed, model.NotificationError)
		return nil
	}
	s.notifier.Push(msgCleared, model.NotificationWarning)
	return nil
}

// List returns the tasks matching mode in insertion order
func (s *Store) List(mode model.FilterMode) []model.Task {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return Filter(s.snapshotLocked(), mode)
}

// Get returns one task by id
func (s *Store) Get(id int64) (model.Task, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	i := s.indexLocked(id)
	if i < 0 {
		return model.Task{}, errors.NotFound("task", id)
	}
	return *s.tasks[i], nil
}

// BeginEdit selects a task for editing and returns a copy of it
func (s *Store) BeginEdit(id int64) (model.Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.indexLocked(id)
	if i < 0 {
		return model.Task{}, errors.NotFound("task", id)
	}
	t := *s.tasks[i]
	s.editing = &t
	return t, nil
}

// CancelEdit clears the editing selection
func (s *Store) CancelEdit() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.editing = nil
}

// Editing returns the task being edited, if any
func (s *Store) Editing() (model.Task, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.editing == nil {
		return model.Task{}, false
	}
	return *s.editing, true
}

// SetFilter changes the active filter. The empty mode means all.
func (s *Store) SetFilter(mode model.FilterMode) error {
	parsed, err := model.ParseFilterMode(string(mode))
	if err != nil {
		return errors.InvalidInput(err.Error())
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.filter = parsed
	return nil
}

// State returns the full presentation state
func (s *Store) State() State {
	s.mu.RLock()
	all := s.snapshotLocked()
	st := State{
		Tasks:   all,
		Filter:  s.filter,
		Visible: Filter(all, s.filter),
	}
	if s.editing != nil {
		t := *s.editing
		st.Editing = &t
	}
	s.mu.RUnlock()

	st.Notifications = s.notifier.List()
	return st
}

// Notifications returns the live notifications
func (s *Store) Notifications() []model.Notification {
	return s.notifier.List()
}

// DismissNotification removes a notification before it expires
func (s *Store) DismissNotification(id string) error {
	return s.notifier.Dismiss(id)
}

// Start begins notification expiry and, when enabled, watching storage
func (s *Store) Start(ctx context.Context) {
	if l, ok := s.notifier.(interface{ Start() }); ok {
		l.Start()
	}
	if s.watch {
		s.startWatch(ctx)
	}

	go func() {
		select {
		case <-ctx.Done():
			if err := s.Stop(); err != nil {
				s.logger.Errorf("Error stopping task store: %v", err)
			}
		case <-s.done:
		}
	}()
}

// Stop halts the watcher and notification expiry and closes the storage
func (s *Store) Stop() error {
	var err error
	s.stopOnce.Do(func() {
		close(s.done)
		s.mu.Lock()
		cancel := s.cancelWatch
		s.mu.Unlock()
		if cancel != nil {
			cancel()
		}
		if l, ok := s.notifier.(interface{ Stop() }); ok {
			l.Stop()
		}
		err = s.store.Close()
	})
	return err
}

// nextIDLocked derives an id from the clock, bumped past every existing id
func (s *Store) nextIDLocked() int64 {
	id := s.now().UnixMilli()
	for _, t := range s.tasks {
		if t.ID >= id {
			id = t.ID + 1
		}
	}
	return id
}

func (s *Store) indexLocked(id int64) int {
	for i, t := range s.tasks {
		if t.ID == id {
			return i
		}
	}
	return -1
}

func (s *Store) notFoundLocked(id int64) error {
	s.notifier.Push(fmt.Sprintf("Task %d not found", id), model.NotificationError)
	return errors.NotFound("task", id)
}

// sameAsLocked reports whether loaded matches the collection in memory
func (s *Store) sameAsLocked(loaded []*model.Task) bool {
	if len(loaded) != len(s.tasks) {
		return false
	}
	for i, t := range loaded {
		if *t != *s.tasks[i] {
			return false
		}
	}
	return true
}

func (s *Store) snapshotLocked() []model.Task {
	out := make([]model.Task, 0, len(s.tasks))
	for _, t := range s.tasks {
		out = append(out, *t)
	}
	return out
}

// persistLocked writes the whole collection, empty or not. Caller must hold s.mu.
// A failed write is reported as a notification; the in-memory state stays authoritative.
func (s *Store) persistLocked(ctx context.Context) {
	s.gen++
	tasks := make([]*model.Task, 0, len(s.tasks))
	for _, t := range s.tasks {
		tt := *t
		tasks = append(tasks, &tt)
	}
	if err := s.store.Save(ctx, tasks); err != nil {
		s.logger.Errorf("Error saving tasks to storage: %v", err)
		s.notifier.Push(msgSaveFailed, model.NotificationError)
	}
}

// reload replaces the collection with the stored snapshot after an external change.
// A mutation made while the snapshot was being read wins: its save is newer
// than what was read, so the read is dropped.
func (s *Store) reload(ctx context.Context) {
	s.mu.RLock()
	gen := s.gen
	s.mu.RUnlock()

	loaded, err := s.store.Load(ctx)

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.gen != gen {
		s.logger.Debugf("Skipping reload that raced a local change")
		return
	}
	switch {
	case err == nil:
		if s.sameAsLocked(loaded) {
			// our own save coming back
			return
		}
		s.tasks = loaded
	case errors.IsNotFound(err):
		s.tasks = []*model.Task{}
	default:
		s.logger.Warnf("Ignoring unreadable snapshot change: %v", err)
		return
	}
	if s.editing != nil && s.indexLocked(s.editing.ID) < 0 {
		s.editing = nil
	}
	s.logger.Debugf("Reloaded %d tasks from storage", len(s.tasks))
}

// startWatch reloads on every storage change event until ctx is done
func (s *Store) startWatch(parent context.Context) {
	ctx, cancel := context.WithCancel(parent)
	s.mu.Lock()
	s.cancelWatch = cancel
	s.mu.Unlock()

	ch, err := s.store.Watch(ctx)
	if err != nil {
		// if watcher cannot start, just ignore watching.
		s.logger.Errorf("Failed to start storage watcher: %v", err)
		return
	}
	go func() {
		for range ch {
			s.reload(ctx)
		}
	}()
}
