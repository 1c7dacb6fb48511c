package services

import (
	"context"
	"time"

	"github.com/bardan8586/Fancy-Enterprise/apperrors"
	"github.com/bardan8586/Fancy-Enterprise/mailer"
	"github.com/bardan8586/Fancy-Enterprise/models"
	"github.com/bardan8586/Fancy-Enterprise/repository"
	"go.uber.org/zap"
)

type NotificationListResponse struct {
	Notifications []models.NotificationLog `json:"notifications"`
	Meta          models.PageMeta          `json:"meta"`
}

// NotificationService sends email and keeps a delivery log in Postgres.
type NotificationService struct {
	sender mailer.Sender
	logs   repository.NotificationRepository
	logger *zap.Logger
}

func NewNotificationService(sender mailer.Sender, logs repository.NotificationRepository, logger *zap.Logger) *NotificationService {
	return &NotificationService{sender: sender, logs: logs, logger: logger}
}

// Send delivers msg and records the outcome. A failed log write never fails
// the send.
func (s *NotificationService) Send(ctx context.Context, template, to string, msg mailer.Message) error {
	res, sendErr := s.sender.Send(ctx, to, msg.Subject, msg.Body)

	entry := &models.NotificationLog{
		Channel:   models.NotificationChannelEmail,
		Recipient: to,
		Subject:   msg.Subject,
		Template:  template,
		Status:    models.NotificationStatusSent,
	}
	if sendErr != nil {
		entry.Status = models.NotificationStatusFailed
		entry.Error = sendErr.Error()
		s.logger.Warn("email delivery failed",
			zap.String("template", template),
			zap.String("to", to),
			zap.Error(sendErr),
		)
	} else {
		sentAt := res.SentAt
		entry.SentAt = &sentAt
	}

	if s.logs != nil {
		if err := s.logs.Create(ctx, entry); err != nil {
			s.logger.Error("failed to record notification", zap.String("template", template), zap.Error(err))
		}
	}
	return sendErr
}

// SendAsync is Send on a detached context, for best-effort mails.
func (s *NotificationService) SendAsync(template, to string, msg mailer.Message) {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		_ = s.Send(ctx, template, to, msg)
	}()
}

func (s *NotificationService) List(ctx context.Context, status string, page, limit int) (*NotificationListResponse, error) {
	if status != "" && status != models.NotificationStatusSent && status != models.NotificationStatusFailed {
		return nil, apperrors.Validation("status must be sent or failed")
	}
	page, limit = NormalizePage(page, limit)

	logs, total, err := s.logs.List(ctx, status, page, limit)
	if err != nil {
		return nil, apperrors.Internal("Failed to fetch notifications", err)
	}
	return &NotificationListResponse{Notifications: logs, Meta: models.NewPageMeta(page, limit, total)}, nil
}
