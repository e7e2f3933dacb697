package model

import (
	"time"

	"github.com/google/uuid"
)

// User is the local record of a marketplace account. Registration and
// authentication live in the surrounding marketplace; the chat subsystem
// only resolves ids to display data and device tokens.
type User struct {
	ID       uuid.UUID `json:"id" gorm:"type:uuid;primaryKey"`
	Name     string    `json:"name" gorm:"size:100;not null"`
	Email    string    `json:"email" gorm:"uniqueIndex;not null;size:255"`
	Password string    `json:"-" gorm:"size:255"`
	Avatar   string    `json:"avatar" gorm:"size:500;default:''"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// UserProfile is the narrow identity view the chat exposes: id, display
// name and avatar URL. Never persisted beyond request scope.
type UserProfile struct {
	ID     uuid.UUID `json:"id"`
	Name   string    `json:"name"`
	Avatar string    `json:"avatar"`
}

// Profile converts a User to its narrow identity view.
func (u *User) Profile() UserProfile {
	return UserProfile{ID: u.ID, Name: u.Name, Avatar: u.Avatar}
}
