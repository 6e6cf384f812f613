// Package analytics relays client-side tracking events to the first-party
// collection endpoint.
package analytics

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/kleinod-atelier/storefront/internal/domain"
	"github.com/kleinod-atelier/storefront/internal/repository"
)

const (
	relayTimeout = 10 * time.Second
	eventIDKey   = "event_id"
	eventNameKey = "event"
)

// Relay records events and forwards them without blocking the request
type Relay struct {
	relayURL   string
	repo       repository.EventRepository
	httpClient *http.Client
	logger     *zap.Logger
	wg         sync.WaitGroup
}

func NewRelay(relayURL string, repo repository.EventRepository, logger *zap.Logger) *Relay {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Relay{
		relayURL:   relayURL,
		repo:       repo,
		httpClient: &http.Client{Timeout: relayTimeout},
		logger:     logger,
	}
}

// Track stamps payload with an event id when it has none, records it, and
// forwards it in the background. It returns the event id.
func (r *Relay) Track(ctx context.Context, payload map[string]interface{}) string {
	eventID, _ := payload[eventIDKey].(string)
	if eventID == "" {
		eventID = uuid.NewString()
		payload[eventIDKey] = eventID
	}
	name, _ := payload[eventNameKey].(string)

	if r.repo != nil {
		event := &domain.TrackedEvent{EventID: eventID, Name: name, Payload: payload}
		if err := r.repo.Create(ctx, event); err != nil {
			r.logger.Warn("Failed to record analytics event", zap.String("event_id", eventID), zap.Error(err))
		}
	}

	if r.relayURL == "" {
		return eventID
	}
	body, err := json.Marshal(payload)
	if err != nil {
		r.logger.Warn("Analytics: failed to marshal payload", zap.Error(err))
		return eventID
	}
	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		r.forward(body, eventID)
	}()
	return eventID
}

func (r *Relay) forward(body []byte, eventID string) {
	ctx, cancel := context.WithTimeout(context.Background(), relayTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.relayURL, bytes.NewReader(body))
	if err != nil {
		r.logger.Warn("Analytics: failed to create request", zap.String("url", r.relayURL), zap.Error(err))
		return
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := r.httpClient.Do(req)
	if err != nil {
		r.logger.Warn("Analytics: relay request failed", zap.String("event_id", eventID), zap.Error(err))
		return
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		r.logger.Warn("Analytics: relay returned non-2xx",
			zap.String("event_id", eventID), zap.Int("status", resp.StatusCode))
		return
	}
	r.logger.Debug("Analytics: event relayed", zap.String("event_id", eventID))
}

// Wait blocks until in-flight forwards finish; called on shutdown
func (r *Relay) Wait() {
	r.wg.Wait()
}
