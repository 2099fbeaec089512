package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Message is one entry in a conversation's ledger. Rows are never hard
// deleted: a delete replaces the body with a tombstone and keeps the row
// so replies and ordering stay intact.
//
// IsRead is a single boolean, not a per-recipient receipt. That is exact
// for 1:1 chats and intentionally approximate for groups (kept product
// behavior, not a bug to fix here).
type Message struct {
	ID             string `gorm:"primaryKey" json:"id"`
	ConversationID string `gorm:"index;not null" json:"conversationId"`
	SenderID       string `gorm:"not null" json:"senderId"`
	Body           string `gorm:"type:text" json:"text"`
	IsRead         bool   `gorm:"not null;default:false" json:"isRead"`
	IsDeleted      bool   `gorm:"not null;default:false" json:"isDeleted"`
	IsEdited       bool   `gorm:"not null;default:false" json:"isEdited"`
	// IsSystem marks membership-change announcements authored by no human.
	IsSystem  bool      `gorm:"not null;default:false" json:"isSystem"`
	ReplyToID *string   `json:"replyTo,omitempty"`
	CreatedAt time.Time `gorm:"index" json:"createdAt"`
	UpdatedAt time.Time `json:"-"`
}

func (m *Message) BeforeCreate(tx *gorm.DB) (err error) {
	if m.ID == "" {
		m.ID = uuid.New().String()
	}
	return
}

// Reaction is one (emoji, reactor) pair on a message, unique per pair.
// Toggling the same pair twice restores the original state.
type Reaction struct {
	ID        uint      `gorm:"primaryKey" json:"-"`
	MessageID string    `gorm:"index;uniqueIndex:idx_msg_user_emoji;not null" json:"-"`
	UserID    string    `gorm:"uniqueIndex:idx_msg_user_emoji;not null" json:"userId"`
	Emoji     string    `gorm:"uniqueIndex:idx_msg_user_emoji;not null" json:"emoji"`
	CreatedAt time.Time `json:"-"`
}

// ReplySnapshot is the read-time view of a replied-to message. Text always
// reflects the original's current state, so a reply preview shows the
// tombstone once the original is deleted.
type ReplySnapshot struct {
	ID         string `json:"id"`
	Text       string `json:"text"`
	SenderName string `json:"senderName"`
}

// MessageView is a Message annotated for one viewer, with the sender's
// profile denormalized at read time to spare clients an N+1 fetch.
type MessageView struct {
	Message
	IsMe           bool           `json:"isMe"`
	SenderName     string         `json:"senderName"`
	SenderImage    string         `json:"senderImage"`
	Reactions      []Reaction     `json:"reactions"`
	ReplyToMessage *ReplySnapshot `json:"replyToMessage,omitempty"`
}
