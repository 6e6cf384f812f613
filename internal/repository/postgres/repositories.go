package postgres

import (
	"database/sql"

	"go.uber.org/zap"

	"github.com/kleinod-atelier/storefront/internal/repository"
)

// NewRepositories creates a new set of repositories
func NewRepositories(db *sql.DB, logger *zap.Logger) *repository.Repositories {
	return &repository.Repositories{
		Subscription: NewSubscriptionRepository(db, logger),
		Event:        NewEventRepository(db, logger),
	}
}
