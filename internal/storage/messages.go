package storage

import (
	"time"

	"chatterbox/backend/internal/models"

	"gorm.io/gorm"
)

func (s *Service) FindMessageByID(id string) (*models.Message, error) {
	return firstOrNil[models.Message](s.DB.Where("id = ?", id))
}

// CreateMessage inserts the message and bumps the conversation's
// last-message pointer and last-activity timestamp in one transaction.
// No reader ever sees the pointer ahead of the row it points to.
func (s *Service) CreateMessage(msg *models.Message) error {
	return s.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(msg).Error; err != nil {
			return err
		}
		return tx.Model(&models.Conversation{}).
			Where("id = ?", msg.ConversationID).
			Updates(map[string]interface{}{
				"last_message_id": msg.ID,
				"last_activity":   time.Now(),
			}).Error
	})
}

func (s *Service) SaveMessage(msg *models.Message) error {
	return s.DB.Save(msg).Error
}

// SoftDeleteMessage tombstones the body and clears every reaction in one
// transaction. Reactions on a deleted message must not linger in read
// views.
func (s *Service) SoftDeleteMessage(id, tombstone string) error {
	return s.DB.Transaction(func(tx *gorm.DB) error {
		err := tx.Model(&models.Message{}).
			Where("id = ?", id).
			Updates(map[string]interface{}{
				"body":       tombstone,
				"is_deleted": true,
			}).Error
		if err != nil {
			return err
		}
		return tx.Where("message_id = ?", id).Delete(&models.Reaction{}).Error
	})
}

// ListMessages returns a conversation's full ledger in creation order.
func (s *Service) ListMessages(conversationID string) ([]models.Message, error) {
	var msgs []models.Message
	err := s.DB.Where("conversation_id = ?", conversationID).
		Order("created_at asc").
		Find(&msgs).Error
	if err != nil {
		return nil, err
	}
	return msgs, nil
}

// MarkConversationRead flips every unread message not authored by the
// reader. A batch update, invoked on conversation-open.
func (s *Service) MarkConversationRead(conversationID, readerID string) error {
	return s.DB.Model(&models.Message{}).
		Where("conversation_id = ? AND sender_id <> ? AND is_read = ?", conversationID, readerID, false).
		Update("is_read", true).Error
}

// CountUnread computes the unread count fresh from source rows. There is
// deliberately no maintained counter to drift.
func (s *Service) CountUnread(conversationID, viewerID string) (int64, error) {
	var n int64
	err := s.DB.Model(&models.Message{}).
		Where("conversation_id = ? AND sender_id <> ? AND is_read = ?", conversationID, viewerID, false).
		Count(&n).Error
	return n, err
}

// ToggleReaction removes the (emoji, user) pair when present, otherwise
// appends it. Returns whether the pair was added.
func (s *Service) ToggleReaction(messageID, userID, emoji string) (bool, error) {
	added := false
	err := s.DB.Transaction(func(tx *gorm.DB) error {
		res := tx.Where("message_id = ? AND user_id = ? AND emoji = ?", messageID, userID, emoji).
			Delete(&models.Reaction{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected > 0 {
			return nil
		}
		added = true
		return tx.Create(&models.Reaction{
			MessageID: messageID,
			UserID:    userID,
			Emoji:     emoji,
		}).Error
	})
	return added, err
}

// ListReactions loads the reactions for a batch of messages, oldest first.
func (s *Service) ListReactions(messageIDs []string) ([]models.Reaction, error) {
	if len(messageIDs) == 0 {
		return nil, nil
	}
	var reactions []models.Reaction
	err := s.DB.Where("message_id IN ?", messageIDs).
		Order("created_at asc").
		Find(&reactions).Error
	if err != nil {
		return nil, err
	}
	return reactions, nil
}
