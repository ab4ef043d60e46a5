package models

import (
	"time"

	"github.com/google/uuid"
)

type User struct {
	Model
	// Email is stored lowercase. Invitations are matched against it
	// case-insensitively.
	Email string  `json:"email" gorm:"type:text;unique;not null;index"`
	Name  *string `json:"name" gorm:"type:text"`
}

func (u User) TableName() string {
	return "users"
}

func (u User) DisplayName() string {
	if u.Name != nil && *u.Name != "" {
		return *u.Name
	}
	if u.Email != "" {
		return u.Email
	}
	return u.ID.String()
}

type Session struct {
	Model
	Token     string    `json:"-" gorm:"type:text;unique;not null;index"`
	UserID    uuid.UUID `json:"userId" gorm:"type:uuid;not null"`
	User      User      `json:"-"`
	ExpiresAt time.Time `json:"expiresAt"`
}

func (s Session) TableName() string {
	return "sessions"
}

func (s Session) Expired(now time.Time) bool {
	return !now.Before(s.ExpiresAt)
}

// LoginToken backs the email sign-in link. Single use, short lived.
type LoginToken struct {
	Model
	Email      string     `json:"email" gorm:"type:text;not null;index"`
	Token      string     `json:"-" gorm:"type:text;unique;not null;index"`
	ExpiresAt  time.Time  `json:"expiresAt"`
	ConsumedAt *time.Time `json:"consumedAt"`
}

func (l LoginToken) TableName() string {
	return "login_tokens"
}

func (l LoginToken) Usable(now time.Time) bool {
	return l.ConsumedAt == nil && now.Before(l.ExpiresAt)
}
