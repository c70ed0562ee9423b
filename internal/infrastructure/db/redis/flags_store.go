package redis

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/xplr/session-gateway/internal/core/ports"
)

const (
	keyPrefix     = "xplr:flags"
	removedMarker = "!"
)

// FlagsStore persists device flags in Redis.
// Key format:     xplr:flags:<scope>:<key>
// Change channel: xplr:flags:<scope>   (payload "<key>" or "!<key>" on removal)
type FlagsStore struct {
	client *redis.Client
	log    zerolog.Logger
}

// NewFlagsStore wraps the given Redis client.
func NewFlagsStore(client *redis.Client, log zerolog.Logger) *FlagsStore {
	return &FlagsStore{client: client, log: log}
}

func (s *FlagsStore) Read(ctx context.Context, scope, key string) (string, bool, error) {
	v, err := s.client.Get(ctx, s.key(scope, key)).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("flags read %s: %w", key, err)
	}
	return v, true, nil
}

// Write stores the value without expiry and announces the change.
func (s *FlagsStore) Write(ctx context.Context, scope, key, value string) error {
	_, err := s.client.TxPipelined(ctx, func(p redis.Pipeliner) error {
		p.Set(ctx, s.key(scope, key), value, 0)
		p.Publish(ctx, s.channel(scope), key)
		return nil
	})
	if err != nil {
		return fmt.Errorf("flags write %s: %w", key, err)
	}
	return nil
}

func (s *FlagsStore) Remove(ctx context.Context, scope string, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	full := make([]string, len(keys))
	for i, k := range keys {
		full[i] = s.key(scope, k)
	}
	_, err := s.client.TxPipelined(ctx, func(p redis.Pipeliner) error {
		p.Del(ctx, full...)
		for _, k := range keys {
			p.Publish(ctx, s.channel(scope), removedMarker+k)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("flags remove: %w", err)
	}
	return nil
}

// Subscribe listens on the scope's change channel until ctx is cancelled.
func (s *FlagsStore) Subscribe(ctx context.Context, scope string) (<-chan ports.FlagChange, error) {
	sub := s.client.Subscribe(ctx, s.channel(scope))
	if _, err := sub.Receive(ctx); err != nil {
		_ = sub.Close()
		return nil, fmt.Errorf("flags subscribe: %w", err)
	}

	out := make(chan ports.FlagChange)
	go func() {
		defer close(out)
		defer sub.Close()
		defer s.log.Debug().Str("device_id", scope).Msg("flags subscription closed")

		msgs := sub.Channel()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-msgs:
				if !ok {
					return
				}
				change := ports.FlagChange{Scope: scope, Key: msg.Payload}
				if strings.HasPrefix(msg.Payload, removedMarker) {
					change.Key = strings.TrimPrefix(msg.Payload, removedMarker)
					change.Removed = true
				}
				select {
				case out <- change:
				case <-ctx.Done():
					return
				}
			}
		}
	}()
	return out, nil
}

// Ping reports whether Redis is reachable.
func (s *FlagsStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

func (s *FlagsStore) key(scope, key string) string {
	return keyPrefix + ":" + scope + ":" + key
}

func (s *FlagsStore) channel(scope string) string {
	return keyPrefix + ":" + scope
}
