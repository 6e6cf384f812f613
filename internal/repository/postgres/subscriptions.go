package postgres

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/kleinod-atelier/storefront/internal/domain"
)

type subscriptionRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewSubscriptionRepository creates a new newsletter subscription repository
func NewSubscriptionRepository(db *sql.DB, logger *zap.Logger) *subscriptionRepository {
	return &subscriptionRepository{
		db:     db,
		logger: logger,
	}
}

func (r *subscriptionRepository) Create(ctx context.Context, sub *domain.Subscription) error {
	query := `
		INSERT INTO newsletter_subscriptions (id, email, list_id, locale, status, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`

	if sub.ID == uuid.Nil {
		sub.ID = uuid.New()
	}
	if sub.CreatedAt.IsZero() {
		sub.CreatedAt = time.Now()
	}

	_, err := r.db.ExecContext(ctx, query,
		sub.ID,
		sub.Email,
		sub.ListID,
		sub.Locale,
		sub.Status,
		sub.CreatedAt,
	)
	if err != nil {
		r.logger.Error("Failed to create newsletter subscription", zap.Error(err))
		return err
	}

	return nil
}

func (r *subscriptionRepository) ListRecent(ctx context.Context, limit int) ([]*domain.Subscription, error) {
	query := `
		SELECT id, email, list_id, locale, status, created_at
		FROM newsletter_subscriptions
		ORDER BY created_at DESC
		LIMIT $1
	`

	rows, err := r.db.QueryContext(ctx, query, limit)
	if err != nil {
		r.logger.Error("Failed to list newsletter subscriptions", zap.Error(err))
		return nil, err
	}
	defer rows.Close()

	var subs []*domain.Subscription
	for rows.Next() {
		var sub domain.Subscription
		if err := rows.Scan(
			&sub.ID,
			&sub.Email,
			&sub.ListID,
			&sub.Locale,
			&sub.Status,
			&sub.CreatedAt,
		); err != nil {
			return nil, err
		}
		subs = append(subs, &sub)
	}

	return subs, rows.Err()
}
