package webhooks

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	database "github.com/atlvibes/atl-vibes-views/internal/db"
)

var _ EventLedger = (*EventRepository)(nil)

// EventLedger records which processor events have already been applied.
type EventLedger interface {
	IsProcessed(ctx context.Context, eventID string) (bool, error)
	MarkProcessed(ctx context.Context, eventID, eventType string) error
}

type EventRepository struct {
	logger *zap.Logger
	db     database.DBTX
}

func NewEventRepository(db database.DBTX, logger *zap.Logger) *EventRepository {
	return &EventRepository{
		logger: logger,
		db:     db,
	}
}

func (r *EventRepository) IsProcessed(ctx context.Context, eventID string) (bool, error) {
	query := `SELECT EXISTS (SELECT 1 FROM processed_webhook_events WHERE event_id = $1)`

	var exists bool
	if err := r.db.QueryRow(ctx, query, eventID).Scan(&exists); err != nil {
		r.logger.Error("Failed to check processed event", zap.String("event_id", eventID), zap.Error(err))
		return false, fmt.Errorf("failed to check processed event: %w", err)
	}
	return exists, nil
}

// MarkProcessed is safe to call concurrently for the same event; the first insert wins.
func (r *EventRepository) MarkProcessed(ctx context.Context, eventID, eventType string) error {
	query := `
        INSERT INTO processed_webhook_events (event_id, event_type)
        VALUES ($1, $2)
        ON CONFLICT (event_id) DO NOTHING
    `
	if _, err := r.db.Exec(ctx, query, eventID, eventType); err != nil {
		r.logger.Error("Failed to record processed event", zap.String("event_id", eventID), zap.Error(err))
		return fmt.Errorf("failed to record processed event: %w", err)
	}
	return nil
}
