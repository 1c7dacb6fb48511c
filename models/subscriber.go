package models

import "time"

type Subscriber struct {
	ID           uint      `json:"id" gorm:"primaryKey"`
	Email        string    `json:"email" gorm:"type:varchar(255);not null"`
	SubscribedAt time.Time `json:"subscribedAt" gorm:"not null"`
	CreatedAt    time.Time `json:"createdAt" gorm:"autoCreateTime"`
	UpdatedAt    time.Time `json:"updatedAt" gorm:"autoUpdateTime"`
}

type SubscribeRequest struct {
	Email string `json:"email"`
}
