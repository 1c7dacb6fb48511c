package repository

import (
	"context"
	"errors"
	"strings"

	"github.com/bardan8586/Fancy-Enterprise/models"
	"gorm.io/gorm"
)

type GormSubscriberRepository struct {
	db *gorm.DB
}

func NewSubscriberRepository(db *gorm.DB) *GormSubscriberRepository {
	return &GormSubscriberRepository{db: db}
}

func (r *GormSubscriberRepository) Create(ctx context.Context, sub *models.Subscriber) error {
	sub.Email = strings.ToLower(strings.TrimSpace(sub.Email))
	err := r.db.WithContext(ctx).Create(sub).Error
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return ErrDuplicate
	}
	return err
}

func (r *GormSubscriberRepository) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.Subscriber{}).
		Where("LOWER(email) = ?", strings.ToLower(strings.TrimSpace(email))).
		Count(&count).Error
	return count > 0, err
}
