package ports

import (
	"context"

	"github.com/xplr/session-gateway/internal/core/domain"
)

// EventSink receives session events after mutations. Implementations must
// not block the caller for long.
type EventSink interface {
	Publish(event domain.SessionEvent)
}

// AuditRepository persists session events.
type AuditRepository interface {
	Insert(ctx context.Context, event domain.SessionEvent) error
	// ListByDevice returns the most recent events for a device, newest first.
	ListByDevice(ctx context.Context, deviceID string, limit int) ([]domain.SessionEvent, error)
}
