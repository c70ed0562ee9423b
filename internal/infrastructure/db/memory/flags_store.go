// Package memory holds an in-process flags store for tests and single-node
// development runs.
package memory

import (
	"context"
	"sync"

	"github.com/xplr/session-gateway/internal/core/ports"
)

const subscriberBuffer = 16

// FlagsStore keeps flags in process memory. Change notifications are
// delivered to subscribers of the same scope; a slow subscriber misses
// changes rather than blocking writers.
type FlagsStore struct {
	mu     sync.RWMutex
	scopes map[string]map[string]string
	subs   map[string]map[chan ports.FlagChange]struct{}
}

func NewFlagsStore() *FlagsStore {
	return &FlagsStore{
		scopes: make(map[string]map[string]string),
		subs:   make(map[string]map[chan ports.FlagChange]struct{}),
	}
}

func (s *FlagsStore) Read(_ context.Context, scope, key string) (string, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.scopes[scope][key]
	return v, ok, nil
}

func (s *FlagsStore) Write(_ context.Context, scope, key, value string) error {
	s.mu.Lock()
	flags, ok := s.scopes[scope]
	if !ok {
		flags = make(map[string]string)
		s.scopes[scope] = flags
	}
	flags[key] = value
	s.mu.Unlock()

	s.notify(ports.FlagChange{Scope: scope, Key: key})
	return nil
}

func (s *FlagsStore) Remove(_ context.Context, scope string, keys ...string) error {
	s.mu.Lock()
	flags := s.scopes[scope]
	for _, k := range keys {
		delete(flags, k)
	}
	s.mu.Unlock()

	for _, k := range keys {
		s.notify(ports.FlagChange{Scope: scope, Key: k, Removed: true})
	}
	return nil
}

// Subscribe registers a listener for scope until ctx is done.
func (s *FlagsStore) Subscribe(ctx context.Context, scope string) (<-chan ports.FlagChange, error) {
	ch := make(chan ports.FlagChange, subscriberBuffer)

	s.mu.Lock()
	if s.subs[scope] == nil {
		s.subs[scope] = make(map[chan ports.FlagChange]struct{})
	}
	s.subs[scope][ch] = struct{}{}
	s.mu.Unlock()

	go func() {
		<-ctx.Done()
		s.mu.Lock()
		delete(s.subs[scope], ch)
		s.mu.Unlock()
		close(ch)
	}()
	return ch, nil
}

func (s *FlagsStore) notify(change ports.FlagChange) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for ch := range s.subs[change.Scope] {
		select {
		case ch <- change:
		default:
		}
	}
}
