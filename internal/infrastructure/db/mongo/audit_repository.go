package mongo

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/xplr/session-gateway/internal/core/domain"
)

const (
	auditCollection = "session_events"
	maxAuditPage    = 100
)

// AuditRepository stores session events in MongoDB.
type AuditRepository struct {
	coll *mongo.Collection
}

// NewAuditRepository creates a new AuditRepository.
func NewAuditRepository(db *mongo.Database) *AuditRepository {
	return &AuditRepository{coll: db.Collection(auditCollection)}
}

// EnsureIndexes creates the (device_id, occurred_at) index used by listings.
func (r *AuditRepository) EnsureIndexes(ctx context.Context) error {
	_, err := r.coll.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "device_id", Value: 1}, {Key: "occurred_at", Value: -1}},
	})
	if err != nil {
		return fmt.Errorf("ensure audit indexes: %w", err)
	}
	return nil
}

// Insert appends an event to the session_events collection.
func (r *AuditRepository) Insert(ctx context.Context, event domain.SessionEvent) error {
	event.OccurredAt = event.OccurredAt.UTC()
	if _, err := r.coll.InsertOne(ctx, event); err != nil {
		return fmt.Errorf("insert session event: %w", err)
	}
	return nil
}

// ListByDevice returns up to limit events for deviceID, newest first.
func (r *AuditRepository) ListByDevice(ctx context.Context, deviceID string, limit int) ([]domain.SessionEvent, error) {
	if limit <= 0 || limit > maxAuditPage {
		limit = maxAuditPage
	}
	opts := options.Find().
		SetSort(bson.D{{Key: "occurred_at", Value: -1}}).
		SetLimit(int64(limit))

	cur, err := r.coll.Find(ctx, bson.M{"device_id": deviceID}, opts)
	if err != nil {
		return nil, fmt.Errorf("find session events: %w", err)
	}
	defer cur.Close(ctx)

	events := make([]domain.SessionEvent, 0, limit)
	if err := cur.All(ctx, &events); err != nil {
		return nil, fmt.Errorf("decode session events: %w", err)
	}
	return events, nil
}
