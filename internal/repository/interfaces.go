package repository

import (
	"context"

	"github.com/kleinod-atelier/storefront/internal/domain"
)

// SubscriptionRepository records newsletter signup attempts
type SubscriptionRepository interface {
	Create(ctx context.Context, sub *domain.Subscription) error
	ListRecent(ctx context.Context, limit int) ([]*domain.Subscription, error)
}

// EventRepository records relayed analytics events
type EventRepository interface {
	Create(ctx context.Context, event *domain.TrackedEvent) error
	CountByName(ctx context.Context, name string) (int64, error)
}

// Repositories aggregates all repositories
type Repositories struct {
	Subscription SubscriptionRepository
	Event        EventRepository
}
