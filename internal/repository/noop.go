package repository

import (
	"context"

	"github.com/kleinod-atelier/storefront/internal/domain"
)

// NewNoop returns repositories that accept writes and store nothing; used
// when no database is configured
func NewNoop() *Repositories {
	return &Repositories{
		Subscription: noopSubscriptions{},
		Event:        noopEvents{},
	}
}

type noopSubscriptions struct{}

func (noopSubscriptions) Create(context.Context, *domain.Subscription) error { return nil }

func (noopSubscriptions) ListRecent(context.Context, int) ([]*domain.Subscription, error) {
	return nil, nil
}

type noopEvents struct{}

func (noopEvents) Create(context.Context, *domain.TrackedEvent) error { return nil }

func (noopEvents) CountByName(context.Context, string) (int64, error) { return 0, nil }
