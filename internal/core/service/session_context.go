package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/xplr/session-gateway/internal/core/domain"
	"github.com/xplr/session-gateway/internal/core/ports"
	"github.com/xplr/session-gateway/pkg/logger"
)

// ErrWatchUnsupported is returned by Watch when the store cannot announce changes.
var ErrWatchUnsupported = errors.New("flags store does not support change notifications")

// SessionContext is the in-memory session of one device, backed by the
// flags store. The cached Session is only ever replaced after the full
// record has been written, so memory and storage cannot diverge on a
// failed write.
type SessionContext struct {
	store    ports.FlagsStore
	deviceID string
	events   ports.EventSink
	log      zerolog.Logger
	now      func() time.Time

	mu      sync.RWMutex
	session domain.Session
}

// NewSessionContext returns a context holding the default session. Call
// Initialize to hydrate it from storage.
func NewSessionContext(store ports.FlagsStore, deviceID string, events ports.EventSink, log zerolog.Logger) *SessionContext {
	return &SessionContext{
		store:    store,
		deviceID: deviceID,
		events:   events,
		log:      logger.ForDevice(log, deviceID),
		now:      time.Now,
		session:  domain.DefaultSession(),
	}
}

func (sc *SessionContext) DeviceID() string { return sc.deviceID }

// Initialize reads the persisted session record. An absent or undecodable
// record yields the default session.
func (sc *SessionContext) Initialize(ctx context.Context) error {
	raw, ok, err := sc.store.Read(ctx, sc.deviceID, ports.FlagSession)
	if err != nil {
		return fmt.Errorf("initialize session: %w", err)
	}

	s := domain.DefaultSession()
	if ok {
		var decoded domain.Session
		if err := json.Unmarshal([]byte(raw), &decoded); err != nil {
			sc.log.Warn().Err(err).Msg("discarding undecodable session record")
		} else {
			s = decoded.Normalize()
		}
	}

	sc.mu.Lock()
	sc.session = s
	sc.mu.Unlock()
	return nil
}

// Session returns a snapshot of the cached session.
func (sc *SessionContext) Session() domain.Session {
	sc.mu.RLock()
	defer sc.mu.RUnlock()
	return sc.session
}

func (sc *SessionContext) IsOwner() bool  { return sc.Session().IsOwner() }
func (sc *SessionContext) IsMember() bool { return sc.Session().IsMember() }

// TokenPresent reads the token flag fresh from storage.
func (sc *SessionContext) TokenPresent(ctx context.Context) bool {
	_, ok := sc.Token(ctx)
	return ok
}

// Token returns the stored bearer credential. A read failure is reported
// as no token.
func (sc *SessionContext) Token(ctx context.Context) (string, bool) {
	token, ok, err := sc.store.Read(ctx, sc.deviceID, ports.FlagToken)
	if err != nil {
		sc.log.Warn().Err(err).Msg("token read failed, treating as signed out")
		return "", false
	}
	if !ok || token == "" {
		return "", false
	}
	return token, true
}

// ClearToken drops the stored credential without touching the session record.
func (sc *SessionContext) ClearToken(ctx context.Context) error {
	token, _ := sc.Token(ctx)
	if err := sc.store.Remove(ctx, sc.deviceID, ports.FlagToken); err != nil {
		return fmt.Errorf("clear token: %w", err)
	}
	sc.emit(domain.EventTokenCleared, sc.Session(), token)
	return nil
}

// SignIn stores a credential issued by the backend together with the role
// the backend reported.
func (sc *SessionContext) SignIn(ctx context.Context, token string, role domain.Role) error {
	if token == "" {
		return domain.ErrUnauthorized
	}
	parsed, err := domain.ParseRole(string(role))
	if err != nil {
		return err
	}
	prev, hadPrev := sc.Token(ctx)
	if err := sc.store.Write(ctx, sc.deviceID, ports.FlagToken, token); err != nil {
		return fmt.Errorf("store token: %w", err)
	}
	err = sc.update(ctx, domain.EventLogin, token, func(s *domain.Session) {
		s.Role = parsed
	})
	if err != nil {
		sc.restoreToken(ctx, prev, hadPrev)
		return err
	}
	return nil
}

// restoreToken puts back the credential that was stored before a sign-in
// whose session write failed, so token and role never come from different
// sign-ins.
func (sc *SessionContext) restoreToken(ctx context.Context, prev string, hadPrev bool) {
	var err error
	if hadPrev {
		err = sc.store.Write(ctx, sc.deviceID, ports.FlagToken, prev)
	} else {
		err = sc.store.Remove(ctx, sc.deviceID, ports.FlagToken)
	}
	if err != nil {
		sc.log.Error().Err(err).Msg("sign-in rollback failed")
	}
}

// CompleteOnboarding records the chosen mode and marks onboarding done.
// Repeating the call with the same mode leaves the session unchanged.
func (sc *SessionContext) CompleteOnboarding(ctx context.Context, mode domain.Mode) error {
	parsed, err := domain.ParseMode(string(mode))
	if err != nil {
		return err
	}
	return sc.update(ctx, domain.EventOnboardingCompleted, "", func(s *domain.Session) {
		s.UserMode = parsed
		s.OnboardingComplete = true
	})
}

// SetUserMode switches mode without touching the onboarding flag.
func (sc *SessionContext) SetUserMode(ctx context.Context, mode domain.Mode) error {
	parsed, err := domain.ParseMode(string(mode))
	if err != nil {
		return err
	}
	return sc.update(ctx, domain.EventModeChanged, "", func(s *domain.Session) {
		s.UserMode = parsed
	})
}

// ToggleMode flips between personal and business mode.
func (sc *SessionContext) ToggleMode(ctx context.Context) error {
	return sc.update(ctx, domain.EventModeChanged, "", func(s *domain.Session) {
		s.UserMode = s.UserMode.Other()
	})
}

// Logout removes the credential and the session record and resets the
// cached session to defaults. The backend is not contacted.
func (sc *SessionContext) Logout(ctx context.Context) error {
	token, _ := sc.Token(ctx)

	sc.mu.Lock()
	if err := sc.store.Remove(ctx, sc.deviceID, ports.FlagToken, ports.FlagSession); err != nil {
		sc.mu.Unlock()
		return fmt.Errorf("logout: %w", err)
	}
	sc.session = domain.DefaultSession()
	s := sc.session
	sc.mu.Unlock()

	sc.emit(domain.EventLogout, s, token)
	return nil
}

// Watch re-reads the session record whenever another context sharing the
// store changes it. It returns once the subscription is established; the
// refresh loop runs until ctx is cancelled.
func (sc *SessionContext) Watch(ctx context.Context) error {
	notifier, ok := sc.store.(ports.FlagsNotifier)
	if !ok {
		return ErrWatchUnsupported
	}
	changes, err := notifier.Subscribe(ctx, sc.deviceID)
	if err != nil {
		return fmt.Errorf("watch session: %w", err)
	}

	go func() {
		for change := range changes {
			if change.Key != ports.FlagSession {
				continue
			}
			if err := sc.Initialize(ctx); err != nil {
				sc.log.Warn().Err(err).Msg("session refresh failed")
			}
		}
	}()
	return nil
}

// update applies fn to a copy of the session, persists the whole record in
// one write and only then commits the copy.
func (sc *SessionContext) update(ctx context.Context, typ domain.SessionEventType, token string, fn func(*domain.Session)) error {
	sc.mu.Lock()
	next := sc.session
	fn(&next)

	payload, err := json.Marshal(next)
	if err != nil {
		sc.mu.Unlock()
		return fmt.Errorf("encode session: %w", err)
	}
	if err := sc.store.Write(ctx, sc.deviceID, ports.FlagSession, string(payload)); err != nil {
		sc.mu.Unlock()
		return fmt.Errorf("persist session: %w", err)
	}
	sc.session = next
	sc.mu.Unlock()

	if token == "" {
		token, _ = sc.Token(ctx)
	}
	sc.emit(typ, next, token)
	return nil
}

func (sc *SessionContext) emit(typ domain.SessionEventType, s domain.Session, token string) {
	if sc.events == nil {
		return
	}
	sc.events.Publish(domain.SessionEvent{
		DeviceID:         sc.deviceID,
		Type:             typ,
		Role:             s.Role,
		Mode:             s.UserMode,
		Onboarded:        s.OnboardingComplete,
		TokenFingerprint: Fingerprint(token),
		OccurredAt:       sc.now().UTC(),
	})
}
