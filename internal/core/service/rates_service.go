package service

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/xplr/session-gateway/internal/core/domain"
	"github.com/xplr/session-gateway/internal/core/ports"
)

// RatesService keeps the display exchange rates of a device in the flags
// store, refreshing them from the backend on demand.
type RatesService struct {
	store   ports.FlagsStore
	backend ports.Backend
	log     zerolog.Logger
}

func NewRatesService(store ports.FlagsStore, backend ports.Backend, log zerolog.Logger) *RatesService {
	return &RatesService{store: store, backend: backend, log: log}
}

// Get returns the cached rates for scope, or the defaults when nothing
// usable is cached.
func (s *RatesService) Get(ctx context.Context, scope string) domain.Rates {
	raw, ok, err := s.store.Read(ctx, scope, ports.FlagRates)
	if err != nil {
		s.log.Warn().Err(err).Str("device_id", scope).Msg("rates read failed")
		return domain.DefaultRates()
	}
	if !ok {
		return domain.DefaultRates()
	}
	var r domain.Rates
	if err := json.Unmarshal([]byte(raw), &r); err != nil || !r.Valid() {
		return domain.DefaultRates()
	}
	return r
}

// Set overwrites the cached rates.
func (s *RatesService) Set(ctx context.Context, scope string, r domain.Rates) error {
	if !r.Valid() {
		return fmt.Errorf("set rates: %w", domain.ErrInvalidRates)
	}
	payload, err := json.Marshal(r)
	if err != nil {
		return fmt.Errorf("encode rates: %w", err)
	}
	if err := s.store.Write(ctx, scope, ports.FlagRates, string(payload)); err != nil {
		return fmt.Errorf("persist rates: %w", err)
	}
	return nil
}

// Refresh fetches current rates from the backend. On any failure the
// cached value is kept and returned.
func (s *RatesService) Refresh(ctx context.Context, sc *SessionContext) domain.Rates {
	scope := sc.DeviceID()
	fresh, err := s.backend.Rates(ctx, sc)
	if err != nil || !fresh.Valid() {
		s.log.Debug().Err(err).Str("device_id", scope).Msg("rates refresh skipped")
		return s.Get(ctx, scope)
	}
	if err := s.Set(ctx, scope, fresh); err != nil {
		s.log.Warn().Err(err).Str("device_id", scope).Msg("rates not cached")
	}
	return fresh
}
