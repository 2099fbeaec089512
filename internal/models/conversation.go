package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Conversation is either a 1:1 direct chat or a group chat. The shape is
// chosen at creation and never changes.
//
// Direct conversations carry the two participant ids plus PairKey, the
// canonical sorted-pair key. The unique index on PairKey is what enforces
// "at most one direct conversation per unordered pair" — a concurrent
// double-create loses with a unique violation instead of racing a probe.
type Conversation struct {
	ID      string `gorm:"primaryKey" json:"id"`
	IsGroup bool   `gorm:"not null;default:false" json:"isGroup"`

	// Direct fields
	Participant1ID *string `gorm:"index" json:"participant1,omitempty"`
	Participant2ID *string `gorm:"index" json:"participant2,omitempty"`
	PairKey        *string `gorm:"uniqueIndex" json:"-"`

	// Group fields
	Name        string  `json:"name,omitempty"`
	Description string  `json:"description,omitempty"`
	AdminID     *string `json:"adminId,omitempty"`

	// Shared denormalized pointers consumed by conversation listings.
	LastMessageID *string   `json:"lastMessageId,omitempty"`
	LastActivity  time.Time `gorm:"index;not null" json:"lastActivity"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"-"`
}

func (c *Conversation) BeforeCreate(tx *gorm.DB) (err error) {
	if c.ID == "" {
		c.ID = uuid.New().String()
	}
	return
}

// DirectPairKey builds the canonical key for an unordered user pair.
// Both orderings of the same two ids map to the same key.
func DirectPairKey(a, b string) string {
	if a < b {
		return a + "|" + b
	}
	return b + "|" + a
}

// PartnerID returns the other participant of a direct conversation, or ""
// when userID is not a participant (or the conversation is a group).
func (c *Conversation) PartnerID(userID string) string {
	if c.IsGroup || c.Participant1ID == nil || c.Participant2ID == nil {
		return ""
	}
	switch userID {
	case *c.Participant1ID:
		return *c.Participant2ID
	case *c.Participant2ID:
		return *c.Participant1ID
	}
	return ""
}

// Membership links one user to one group conversation. Directs do not use
// membership rows. The userID index turns "which groups am I in" into an
// indexed lookup instead of a table scan.
type Membership struct {
	ID             uint      `gorm:"primaryKey" json:"-"`
	ConversationID string    `gorm:"index;uniqueIndex:idx_conv_member;not null" json:"conversationId"`
	UserID         string    `gorm:"index;uniqueIndex:idx_conv_member;not null" json:"userId"`
	JoinedAt       time.Time `gorm:"not null" json:"joinedAt"`
}
