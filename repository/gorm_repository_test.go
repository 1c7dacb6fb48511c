package repository_test

import (
	"context"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/bardan8586/Fancy-Enterprise/models"
	"github.com/bardan8586/Fancy-Enterprise/repository"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func setupMockDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)

	gormDB, err := gorm.Open(postgres.New(postgres.Config{Conn: db}), &gorm.Config{})
	require.NoError(t, err)
	return gormDB, mock
}

func TestSubscriberCreate_NormalizesEmail(t *testing.T) {
	gormDB, mock := setupMockDB(t)
	repo := repository.NewSubscriberRepository(gormDB)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta(`INSERT INTO "subscribers"`)).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(1))
	mock.ExpectCommit()

	sub := &models.Subscriber{Email: "  Shopper@Example.COM ", SubscribedAt: time.Now()}
	err := repo.Create(context.Background(), sub)

	assert.NoError(t, err)
	assert.Equal(t, "shopper@example.com", sub.Email)
	assert.Equal(t, uint(1), sub.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSubscriberExistsByEmail(t *testing.T) {
	gormDB, mock := setupMockDB(t)
	repo := repository.NewSubscriberRepository(gormDB)

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT count(*) FROM "subscribers" WHERE LOWER(email) = $1`)).
		WithArgs("shopper@example.com").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))

	exists, err := repo.ExistsByEmail(context.Background(), "Shopper@example.com")
	assert.NoError(t, err)
	assert.True(t, exists)
}

func TestSubscriberExistsByEmail_None(t *testing.T) {
	gormDB, mock := setupMockDB(t)
	repo := repository.NewSubscriberRepository(gormDB)

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT count(*) FROM "subscribers"`)).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))

	exists, err := repo.ExistsByEmail(context.Background(), "new@example.com")
	assert.NoError(t, err)
	assert.False(t, exists)
}

func TestNotificationCreate(t *testing.T) {
	gormDB, mock := setupMockDB(t)
	repo := repository.NewNotificationRepository(gormDB)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta(`INSERT INTO "notification_logs"`)).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(7))
	mock.ExpectCommit()

	now := time.Now()
	entry := &models.NotificationLog{
		Channel:   models.NotificationChannelEmail,
		Recipient: "a@b.com",
		Subject:   "Reset your password",
		Template:  models.TemplatePasswordReset,
		Status:    models.NotificationStatusSent,
		SentAt:    &now,
	}
	assert.NoError(t, repo.Create(context.Background(), entry))
	assert.Equal(t, uint(7), entry.ID)
}

func TestNotificationList_FiltersByStatus(t *testing.T) {
	gormDB, mock := setupMockDB(t)
	repo := repository.NewNotificationRepository(gormDB)

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT count(*) FROM "notification_logs" WHERE status = $1`)).
		WithArgs(models.NotificationStatusFailed).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))

	now := time.Now()
	rows := sqlmock.NewRows([]string{"id", "channel", "recipient", "subject", "template", "status", "error", "sent_at", "created_at"}).
		AddRow(3, "email", "a@b.com", "Your order", models.TemplateOrderConfirmation, models.NotificationStatusFailed, "dial tcp: timeout", nil, now)
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "notification_logs" WHERE status = $1 ORDER BY created_at DESC`)).
		WillReturnRows(rows)

	logs, total, err := repo.List(context.Background(), models.NotificationStatusFailed, 1, 20)
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	require.Len(t, logs, 1)
	assert.Equal(t, "dial tcp: timeout", logs[0].Error)
	assert.Nil(t, logs[0].SentAt)
}
