package domain

import (
	"time"

	"github.com/google/uuid"
)

// SubscriptionStatus records the outcome of a newsletter signup attempt
type SubscriptionStatus string

const (
	SubscriptionStatusSubscribed SubscriptionStatus = "SUBSCRIBED"
	SubscriptionStatusFailed     SubscriptionStatus = "FAILED"
)

// Subscription is a newsletter signup attempt
type Subscription struct {
	ID        uuid.UUID
	Email     string
	ListID    string
	Locale    string
	Status    SubscriptionStatus
	CreatedAt time.Time
}

// TrackedEvent is an analytics event relayed server-side
type TrackedEvent struct {
	ID        uuid.UUID
	EventID   string
	Name      string
	Payload   map[string]interface{} // JSONB
	CreatedAt time.Time
}
