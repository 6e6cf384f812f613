package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/kleinod-atelier/storefront/internal/domain"
)

type eventRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewEventRepository creates a new tracked event repository
func NewEventRepository(db *sql.DB, logger *zap.Logger) *eventRepository {
	return &eventRepository{
		db:     db,
		logger: logger,
	}
}

func (r *eventRepository) Create(ctx context.Context, event *domain.TrackedEvent) error {
	query := `
		INSERT INTO tracked_events (id, event_id, name, payload, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`

	if event.ID == uuid.Nil {
		event.ID = uuid.New()
	}
	if event.CreatedAt.IsZero() {
		event.CreatedAt = time.Now()
	}

	var payloadJSON []byte
	var err error
	if event.Payload != nil {
		payloadJSON, err = json.Marshal(event.Payload)
		if err != nil {
			return err
		}
	}

	_, err = r.db.ExecContext(ctx, query,
		event.ID,
		event.EventID,
		event.Name,
		payloadJSON,
		event.CreatedAt,
	)
	if err != nil {
		r.logger.Error("Failed to create tracked event", zap.Error(err))
		return err
	}

	return nil
}

func (r *eventRepository) CountByName(ctx context.Context, name string) (int64, error) {
	var count int64
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM tracked_events WHERE name = $1`, name).Scan(&count)
	if err != nil {
		r.logger.Error("Failed to count tracked events", zap.String("name", name), zap.Error(err))
		return 0, err
	}
	return count, nil
}
