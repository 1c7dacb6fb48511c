package models

import "time"

const (
	NotificationChannelEmail = "email"

	NotificationStatusSent   = "sent"
	NotificationStatusFailed = "failed"

	TemplatePasswordReset     = "password_reset"
	TemplateOrderConfirmation = "order_confirmation"
	TemplateOrderStatus       = "order_status"
)

type NotificationLog struct {
	ID        uint       `json:"id" gorm:"primaryKey"`
	Channel   string     `json:"channel" gorm:"type:varchar(20);not null"`
	Recipient string     `json:"recipient" gorm:"type:varchar(255);not null"`
	Subject   string     `json:"subject" gorm:"type:varchar(255)"`
	Template  string     `json:"template" gorm:"type:varchar(64);not null"`
	Status    string     `json:"status" gorm:"type:varchar(20);not null"`
	Error     string     `json:"error,omitempty" gorm:"type:text"`
	SentAt    *time.Time `json:"sentAt,omitempty"`
	CreatedAt time.Time  `json:"createdAt" gorm:"autoCreateTime"`
}

func (NotificationLog) TableName() string { return "notification_logs" }
