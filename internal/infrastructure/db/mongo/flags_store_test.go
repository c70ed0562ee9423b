package mongo

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/xplr/session-gateway/internal/core/domain"
	"github.com/xplr/session-gateway/internal/core/ports"
)

// Set RUN_MONGO_INTEGRATION=1 and MONGO_URI to run against a live server.
func integrationDB(t *testing.T) (*FlagsStore, *AuditRepository) {
	t.Helper()
	if os.Getenv("RUN_MONGO_INTEGRATION") == "" {
		t.Skip("RUN_MONGO_INTEGRATION not set")
	}
	uri := os.Getenv("MONGO_URI")
	if uri == "" {
		uri = "mongodb://localhost:27017"
	}
	client, db, err := Connect(context.Background(), Config{URI: uri, Database: "xplr_gateway_test"})
	if err != nil {
		t.Fatalf("connect: %v", err)
	}
	t.Cleanup(func() { _ = client.Disconnect(context.Background()) })

	flags := NewFlagsStore(db)
	audit := NewAuditRepository(db)
	if err := flags.EnsureIndexes(context.Background()); err != nil {
		t.Fatalf("EnsureIndexes: %v", err)
	}
	if err := audit.EnsureIndexes(context.Background()); err != nil {
		t.Fatalf("EnsureIndexes: %v", err)
	}
	return flags, audit
}

func TestFlagsStore_Integration(t *testing.T) {
	flags, _ := integrationDB(t)
	ctx := context.Background()
	scope := uuid.NewString()

	if err := flags.Write(ctx, scope, ports.FlagSession, `{"role":"OWNER"}`); err != nil {
		t.Fatalf("Write returned error: %v", err)
	}
	if err := flags.Write(ctx, scope, ports.FlagSession, `{"role":"MEMBER"}`); err != nil {
		t.Fatalf("second Write returned error: %v", err)
	}
	v, ok, err := flags.Read(ctx, scope, ports.FlagSession)
	if err != nil || !ok || v != `{"role":"MEMBER"}` {
		t.Fatalf("Read = %q %v %v", v, ok, err)
	}
	if err := flags.Remove(ctx, scope, ports.FlagSession, ports.FlagToken); err != nil {
		t.Fatalf("Remove returned error: %v", err)
	}
	if _, ok, _ := flags.Read(ctx, scope, ports.FlagSession); ok {
		t.Fatalf("flag should be removed")
	}
}

func TestAuditRepository_Integration(t *testing.T) {
	_, audit := integrationDB(t)
	ctx := context.Background()
	device := uuid.NewString()
	base := time.Now().UTC().Truncate(time.Millisecond)

	for i, typ := range []domain.SessionEventType{domain.EventLogin, domain.EventLogout} {
		ev := domain.SessionEvent{DeviceID: device, Type: typ, Role: domain.RoleOwner, OccurredAt: base.Add(time.Duration(i) * time.Second)}
		if err := audit.Insert(ctx, ev); err != nil {
			t.Fatalf("Insert returned error: %v", err)
		}
	}

	got, err := audit.ListByDevice(ctx, device, 10)
	if err != nil {
		t.Fatalf("ListByDevice returned error: %v", err)
	}
	if len(got) != 2 || got[0].Type != domain.EventLogout {
		t.Fatalf("unexpected events %+v", got)
	}
}
