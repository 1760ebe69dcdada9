// SPDX-License-Identifier: AGPL-3.0-only
package notify

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jolks/mcp-tasklist/internal/errors"
	"github.com/jolks/mcp-tasklist/internal/logging"
	"github.com/jolks/mcp-tasklist/internal/model"
	"github.com/robfig/cron/v3"
)

// DefaultTTL is how long a notification lives unless dismissed
const DefaultTTL = 3000 * time.Millisecond

// onceSchedule fires a single time: at `at`, or right away when first
// evaluated after `at` (entries pushed before the scheduler started).
// Returning the zero time afterwards parks the cron entry until it is removed.
// Next is only called from the cron run goroutine.
type onceSchedule struct {
	at    time.Time
	armed bool
}

func (s *onceSchedule) Next(t time.Time) time.Time {
	if s.armed {
		return time.Time{}
	}
	s.armed = true
	if t.Before(s.at) {
		return s.at
	}
	return t
}

// Queue holds the live notifications and expires each one after its TTL
type Queue struct {
	mu      sync.Mutex
	items   []*model.Notification
	entries map[string]cron.EntryID
	cron    *cron.Cron
	ttl     time.Duration
	now     func() time.Time
	logger  *logging.Logger
}

// NewQueue creates a queue whose notifications expire after ttl
func NewQueue(ttl time.Duration) *Queue {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	logger := logging.GetDefaultLogger()
	cronLogger := cron.PrintfLogger(logger)
	return &Queue{
		entries: make(map[string]cron.EntryID),
		cron: cron.New(
			cron.WithLogger(cronLogger),
			cron.WithChain(cron.Recover(cronLogger)),
		),
		ttl:    ttl,
		now:    time.Now,
		logger: logger,
	}
}

// Start begins delivering expiries
func (q *Queue) Start() {
	q.cron.Start()
}

// Stop halts expiry delivery and waits for running removals to finish
func (q *Queue) Stop() {
	<-q.cron.Stop().Done()
}

// TTL returns the configured lifetime
func (q *Queue) TTL() time.Duration {
	return q.ttl
}

// Push appends a notification and schedules its removal
func (q *Queue) Push(message string, typ model.NotificationType) model.Notification {
	now := q.now()
	n := &model.Notification{
		ID:        uuid.Must(uuid.NewV7()).String(),
		Message:   message,
		Type:      typ,
		CreatedAt: now,
		ExpiresAt: now.Add(q.ttl),
	}

	// hold the lock across Schedule so expire cannot run before the entry id is recorded
	q.mu.Lock()
	defer q.mu.Unlock()
	q.items = append(q.items, n)
	id := n.ID
	q.entries[id] = q.cron.Schedule(&onceSchedule{at: n.ExpiresAt}, cron.FuncJob(func() {
		q.expire(id)
	}))

	q.logger.Debugf("notification %s (%s): %s", id, typ, message)
	return *n
}

// Dismiss removes a notification immediately and cancels its expiry
func (q *Queue) Dismiss(id string) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	if !q.removeLocked(id) {
		return errors.NotFound("notification", id)
	}
	return nil
}

// List returns the live notifications, oldest first
func (q *Queue) List() []model.Notification {
	q.mu.Lock()
	defer q.mu.Unlock()
	out := make([]model.Notification, 0, len(q.items))
	for _, n := range q.items {
		out = append(out, *n)
	}
	return out
}

// Len returns the number of live notifications
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}

func (q *Queue) expire(id string) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.removeLocked(id) {
		q.logger.Debugf("notification %s expired", id)
	}
}

// removeLocked drops the notification and its cron entry. Caller must hold q.mu.
func (q *Queue) removeLocked(id string) bool {
	if entryID, ok := q.entries[id]; ok {
		q.cron.Remove(entryID)
		delete(q.entries, id)
	}
	for i, n := range q.items {
		if n.ID == id {
			q.items = append(q.items[:i], q.items[i+1:]...)
			return true
		}
	}
	return false
}
