package redis

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/xplr/session-gateway/internal/core/ports"
)

// Set RUN_REDIS_INTEGRATION=1 and REDIS_ADDR to run against a live server.
func newIntegrationStore(t *testing.T) *FlagsStore {
	t.Helper()
	if os.Getenv("RUN_REDIS_INTEGRATION") == "" {
		t.Skip("RUN_REDIS_INTEGRATION not set")
	}
	addr := os.Getenv("REDIS_ADDR")
	if addr == "" {
		addr = "localhost:6379"
	}
	client, err := Connect(context.Background(), Config{Addr: addr})
	if err != nil {
		t.Fatalf("connect: %v", err)
	}
	t.Cleanup(func() { _ = client.Close() })
	return NewFlagsStore(client, zerolog.Nop())
}

func TestFlagsStore_KeyLayout(t *testing.T) {
	s := &FlagsStore{}
	if got := s.key("dev-1", ports.FlagToken); got != "xplr:flags:dev-1:token" {
		t.Fatalf("unexpected key %q", got)
	}
	if got := s.channel("dev-1"); got != "xplr:flags:dev-1" {
		t.Fatalf("unexpected channel %q", got)
	}
}

func TestFlagsStore_Integration(t *testing.T) {
	s := newIntegrationStore(t)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	scope := uuid.NewString()
	t.Cleanup(func() { _ = s.Remove(context.Background(), scope, ports.FlagToken, ports.FlagSession) })

	changes, err := s.Subscribe(ctx, scope)
	if err != nil {
		t.Fatalf("Subscribe returned error: %v", err)
	}

	if err := s.Write(ctx, scope, ports.FlagToken, "tok"); err != nil {
		t.Fatalf("Write returned error: %v", err)
	}
	if v, ok, err := s.Read(ctx, scope, ports.FlagToken); err != nil || !ok || v != "tok" {
		t.Fatalf("Read = %q %v %v", v, ok, err)
	}
	if err := s.Remove(ctx, scope, ports.FlagToken); err != nil {
		t.Fatalf("Remove returned error: %v", err)
	}
	if _, ok, _ := s.Read(ctx, scope, ports.FlagToken); ok {
		t.Fatalf("token should be removed")
	}

	want := []ports.FlagChange{
		{Scope: scope, Key: ports.FlagToken},
		{Scope: scope, Key: ports.FlagToken, Removed: true},
	}
	for _, w := range want {
		select {
		case got := <-changes:
			if got != w {
				t.Fatalf("change = %+v, want %+v", got, w)
			}
		case <-ctx.Done():
			t.Fatalf("timed out waiting for %+v", w)
		}
	}
}
