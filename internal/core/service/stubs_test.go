package service

import (
	"context"
	"encoding/json"
	"errors"
	"sync"

	"github.com/xplr/session-gateway/internal/core/domain"
	"github.com/xplr/session-gateway/internal/core/ports"
)

var errStoreDown = errors.New("store down")

// failingStore wraps a real store and fails the operations switched on.
type failingStore struct {
	ports.FlagsStore
	failRead  bool
	failWrite map[string]bool
	writes    int
}

func (s *failingStore) Read(ctx context.Context, scope, key string) (string, bool, error) {
	if s.failRead {
		return "", false, errStoreDown
	}
	return s.FlagsStore.Read(ctx, scope, key)
}

func (s *failingStore) Write(ctx context.Context, scope, key, value string) error {
	if s.failWrite[key] {
		return errStoreDown
	}
	s.writes++
	return s.FlagsStore.Write(ctx, scope, key, value)
}

type recordingSink struct {
	mu     sync.Mutex
	events []domain.SessionEvent
}

func (r *recordingSink) Publish(ev domain.SessionEvent) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, ev)
}

func (r *recordingSink) types() []domain.SessionEventType {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]domain.SessionEventType, len(r.events))
	for i, ev := range r.events {
		out[i] = ev.Type
	}
	return out
}

type stubBackend struct {
	rates    domain.Rates
	ratesErr error
}

func (b *stubBackend) Login(context.Context, string, string) (*ports.AuthResult, error) {
	return nil, errors.New("not implemented")
}

func (b *stubBackend) Register(context.Context, string, string) (*ports.AuthResult, error) {
	return nil, errors.New("not implemented")
}

func (b *stubBackend) CurrentUser(context.Context, ports.TokenSource) (*ports.BackendUser, error) {
	return nil, errors.New("not implemented")
}

func (b *stubBackend) Cards(context.Context, ports.TokenSource) (json.RawMessage, error) {
	return nil, errors.New("not implemented")
}

func (b *stubBackend) Teams(context.Context, ports.TokenSource) (json.RawMessage, error) {
	return nil, errors.New("not implemented")
}

func (b *stubBackend) ReferralStats(context.Context, ports.TokenSource) (json.RawMessage, error) {
	return nil, errors.New("not implemented")
}

func (b *stubBackend) Grade(context.Context, ports.TokenSource) (json.RawMessage, error) {
	return nil, errors.New("not implemented")
}

func (b *stubBackend) Rates(context.Context, ports.TokenSource) (domain.Rates, error) {
	return b.rates, b.ratesErr
}

func (b *stubBackend) Forward(context.Context, ports.TokenSource, ports.ForwardRequest) (*ports.ForwardResponse, error) {
	return nil, errors.New("not implemented")
}
