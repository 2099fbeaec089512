package models

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// User is an account synced from the external identity provider.
// ExternalID is the provider-side subject; everything else may be patched
// by provider webhooks, profile edits and presence pings.
type User struct {
	ID         string  `gorm:"primaryKey" json:"id"`
	ExternalID string  `gorm:"uniqueIndex;not null" json:"-"`
	Email      string  `gorm:"not null" json:"email"`
	Name       string  `json:"name"`
	Username   *string `gorm:"uniqueIndex" json:"username,omitempty"`
	AvatarURL  string  `json:"avatarUrl,omitempty"`
	IsOnline   bool    `json:"isOnline"`
	// LastSeen is bumped on every presence ping. "Approximately live" is
	// the correctness bar, not a heartbeat protocol.
	LastSeen  time.Time `json:"lastSeen"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"-"`
}

// BeforeCreate is a GORM hook that assigns a fresh UUID when the ID is
// not set yet.
func (u *User) BeforeCreate(tx *gorm.DB) (err error) {
	if u.ID == "" {
		u.ID = uuid.New().String()
	}
	return
}

// FirstName returns the leading word of the display name. The conversation
// list uses it to label a group's last sender.
func (u *User) FirstName() string {
	if i := strings.IndexByte(u.Name, ' '); i >= 0 {
		return u.Name[:i]
	}
	return u.Name
}
