package model

import (
	"time"

	"github.com/google/uuid"
)

// Device stores an FCM registration token for push notifications
type Device struct {
	ID         uint      `json:"id" gorm:"primaryKey"`
	UserID     uuid.UUID `json:"user_id" gorm:"type:uuid;index;not null"`
	FCMToken   string    `json:"fcm_token" gorm:"size:500;uniqueIndex;not null"`
	DeviceType string    `json:"device_type" gorm:"size:20"`
	CreatedAt  time.Time `json:"created_at"`
}
