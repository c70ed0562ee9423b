package memory

import (
	"context"
	"sync"

	"github.com/xplr/session-gateway/internal/core/domain"
)

// AuditRepository keeps session events in memory, newest last.
type AuditRepository struct {
	mu     sync.RWMutex
	events []domain.SessionEvent
}

func NewAuditRepository() *AuditRepository {
	return &AuditRepository{}
}

func (r *AuditRepository) Insert(_ context.Context, event domain.SessionEvent) error {
	r.mu.Lock()
	r.events = append(r.events, event)
	r.mu.Unlock()
	return nil
}

func (r *AuditRepository) ListByDevice(_ context.Context, deviceID string, limit int) ([]domain.SessionEvent, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]domain.SessionEvent, 0)
	for i := len(r.events) - 1; i >= 0; i-- {
		if r.events[i].DeviceID != deviceID {
			continue
		}
		out = append(out, r.events[i])
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out, nil
}
