package models

import "time"

// TypingIndicator is a per-(conversation, user) typing flag, upserted on
// every keystroke event. There is at most one row per pair, ever.
//
// Rows are never expired by a background job. Readers filter on UpdatedAt
// instead: a row older than the liveness window counts as "not typing",
// so a client that crashes mid-keystroke simply ages out of view.
type TypingIndicator struct {
	ID             uint      `gorm:"primaryKey" json:"-"`
	ConversationID string    `gorm:"index;uniqueIndex:idx_conv_typist;not null" json:"conversationId"`
	UserID         string    `gorm:"uniqueIndex:idx_conv_typist;not null" json:"userId"`
	IsTyping       bool      `gorm:"not null" json:"isTyping"`
	UpdatedAt      time.Time `gorm:"not null" json:"updatedAt"`
}

// FreshAt reports whether the indicator still counts as live at instant
// now, given the liveness window.
func (t *TypingIndicator) FreshAt(now time.Time, window time.Duration) bool {
	return now.Sub(t.UpdatedAt) < window
}
