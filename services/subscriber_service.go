package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/bardan8586/Fancy-Enterprise/apperrors"
	"github.com/bardan8586/Fancy-Enterprise/models"
	"github.com/bardan8586/Fancy-Enterprise/repository"
	"go.uber.org/zap"
)

const subscribedMessage = "Successfully subscribed to the newsletter!"

type SubscriberService struct {
	repo   repository.SubscriberRepository
	logger *zap.Logger
}

func NewSubscriberService(repo repository.SubscriberRepository, logger *zap.Logger) *SubscriberService {
	return &SubscriberService{repo: repo, logger: logger}
}

func (s *SubscriberService) Subscribe(ctx context.Context, email string) (string, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		return "", apperrors.Validation("Email is required")
	}

	exists, err := s.repo.ExistsByEmail(ctx, email)
	if err != nil {
		return "", apperrors.Internal("Server Error", err)
	}
	if exists {
		return "", apperrors.Validation("email is already subscribed")
	}

	if err := s.repo.Create(ctx, &models.Subscriber{Email: email, SubscribedAt: time.Now().UTC()}); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return "", apperrors.Validation("email is already subscribed")
		}
		return "", apperrors.Internal("Server Error", err)
	}

	s.logger.Info("newsletter subscription", zap.String("email", email))
	return subscribedMessage, nil
}
