// Package newsletter handles the signup form: input validation, the Klaviyo
// list subscription and a local record of every attempt.
package newsletter

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/kleinod-atelier/storefront/internal/config"
	"github.com/kleinod-atelier/storefront/internal/domain"
	"github.com/kleinod-atelier/storefront/internal/repository"
	apperrors "github.com/kleinod-atelier/storefront/pkg/errors"
)

const (
	MsgInvalidEmail  = "Please provide an valid email address."
	MsgNotConfigured = "Newsletter service is not configured."
	MsgFailed        = "Failed to subscribe. Please try again later."
	MsgSubscribed    = "You are subscribed!"
)

// Subscriber is the list provider; *Client implements it
type Subscriber interface {
	Subscribe(ctx context.Context, listID, email string) error
}

type Service struct {
	subscriber Subscriber
	listID     string
	repo       repository.SubscriptionRepository
	logger     *zap.Logger
}

// NewService wires the form to Klaviyo. With an incomplete configuration
// every attempt is rejected with MsgNotConfigured.
func NewService(cfg config.NewsletterConfig, repo repository.SubscriptionRepository, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Service{repo: repo, logger: logger}
	if cfg.Configured() {
		s.subscriber = NewClient(cfg.BaseURL, cfg.APIKey, logger)
		s.listID = cfg.ListID
	}
	return s
}

// NewServiceWithSubscriber is used by tests and tools that bring their own provider
func NewServiceWithSubscriber(sub Subscriber, listID string, repo repository.SubscriptionRepository, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{subscriber: sub, listID: listID, repo: repo, logger: logger}
}

// Subscribe subscribes an address the form binding has already checked.
// Every returned error is an *errors.ErrValidation whose message is safe to
// show in the form.
func (s *Service) Subscribe(ctx context.Context, email, localeLabel string) error {
	email = strings.TrimSpace(email)
	if email == "" {
		return &apperrors.ErrValidation{Message: MsgInvalidEmail, Fields: map[string]string{"email": "required"}}
	}
	if s.subscriber == nil {
		s.logger.Warn("Newsletter signup rejected: Klaviyo is not configured")
		return &apperrors.ErrValidation{Message: MsgNotConfigured}
	}

	sub := &domain.Subscription{
		Email:  email,
		ListID: s.listID,
		Locale: localeLabel,
		Status: domain.SubscriptionStatusSubscribed,
	}
	subErr := s.subscriber.Subscribe(ctx, s.listID, email)
	if subErr != nil {
		sub.Status = domain.SubscriptionStatusFailed
		s.logger.Warn("Newsletter signup failed", zap.Error(subErr))
	}

	if s.repo != nil {
		if err := s.repo.Create(ctx, sub); err != nil {
			s.logger.Warn("Failed to record newsletter signup", zap.Error(err))
		}
	}

	if subErr != nil {
		return &apperrors.ErrValidation{Message: MsgFailed}
	}
	s.logger.Info("Newsletter signup", zap.String("locale", localeLabel))
	return nil
}
