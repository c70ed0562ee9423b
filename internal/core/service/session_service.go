package service

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/xplr/session-gateway/internal/core/ports"
)

// SessionService opens session contexts against a shared flags store.
type SessionService struct {
	store  ports.FlagsStore
	events ports.EventSink
	log    zerolog.Logger
}

// NewSessionService returns a SessionService. events may be nil.
func NewSessionService(store ports.FlagsStore, events ports.EventSink, log zerolog.Logger) *SessionService {
	return &SessionService{store: store, events: events, log: log}
}

// Open builds a context for deviceID and hydrates it from storage.
func (s *SessionService) Open(ctx context.Context, deviceID string) (*SessionContext, error) {
	sc := NewSessionContext(s.store, deviceID, s.events, s.log)
	if err := sc.Initialize(ctx); err != nil {
		return nil, err
	}
	return sc, nil
}
