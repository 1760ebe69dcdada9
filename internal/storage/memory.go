// SPDX-License-Identifier: AGPL-3.0-only
package storage

import (
	"context"
	"sync"

	"github.com/jolks/mcp-tasklist/internal/errors"
	"github.com/jolks/mcp-tasklist/internal/model"
)

// MemoryStorage keeps the snapshot bytes in process. It backs the memory
// backend and doubles as a fault-injecting store in tests.
type MemoryStorage struct {
	key  string
	mu   sync.RWMutex
	data map[string][]byte
	subs map[chan Event]struct{}

	// Error injection for testing
	LoadErr  error
	SaveErr  error
	ClearErr error
}

// NewMemoryStorage creates an empty in-memory storage for key.
func NewMemoryStorage(key string) *MemoryStorage {
	return &MemoryStorage{
		key:  key,
		data: make(map[string][]byte),
		subs: make(map[chan Event]struct{}),
	}
}

// SetRaw stores raw bytes under the key, bypassing encoding.
func (s *MemoryStorage) SetRaw(b []byte) {
	s.mu.Lock()
	s.data[s.key] = append([]byte(nil), b...)
	s.mu.Unlock()
	s.broadcast()
}

// Raw returns the stored bytes and whether the key is present.
func (s *MemoryStorage) Raw() ([]byte, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	b, ok := s.data[s.key]
	return append([]byte(nil), b...), ok
}

// Load implements Storage.Load.
func (s *MemoryStorage) Load(ctx context.Context) ([]*model.Task, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.LoadErr != nil {
		return nil, errors.Storage("read snapshot", s.LoadErr)
	}
	b, ok := s.data[s.key]
	if !ok {
		return nil, errors.NotFound("snapshot", s.key)
	}
	return DecodeSnapshot(b)
}

// Save implements Storage.Save.
func (s *MemoryStorage) Save(ctx context.Context, tasks []*model.Task) error {
	b, err := EncodeSnapshot(tasks)
	if err != nil {
		return err
	}
	s.mu.Lock()
	if s.SaveErr != nil {
		s.mu.Unlock()
		return errors.Storage("write snapshot", s.SaveErr)
	}
	s.data[s.key] = b
	s.mu.Unlock()
	s.broadcast()
	return nil
}

// Clear implements Storage.Clear.
func (s *MemoryStorage) Clear(ctx context.Context) error {
	s.mu.Lock()
	if s.ClearErr != nil {
		s.mu.Unlock()
		return errors.Storage("remove snapshot", s.ClearErr)
	}
	delete(s.data, s.key)
	s.mu.Unlock()
	s.broadcast()
	return nil
}

// Watch implements Storage.Watch.
func (s *MemoryStorage) Watch(ctx context.Context) (<-chan Event, error) {
	sub := make(chan Event, 1)
	s.mu.Lock()
	s.subs[sub] = struct{}{}
	s.mu.Unlock()

	out := make(chan Event)
	go func() {
		defer close(out)
		defer func() {
			s.mu.Lock()
			delete(s.subs, sub)
			s.mu.Unlock()
		}()
		for {
			select {
			case <-ctx.Done():
				return
			case <-sub:
				select {
				case out <- Event{}:
				case <-ctx.Done():
					return
				}
			}
		}
	}()
	return out, nil
}

// Close implements Storage.Close.
func (s *MemoryStorage) Close() error {
	return nil
}

func (s *MemoryStorage) broadcast() {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for ch := range s.subs {
		select {
		case ch <- Event{}:
		default:
			// a reload is already pending for this subscriber
		}
	}
}
