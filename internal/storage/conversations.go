package storage

import (
	"errors"
	"time"

	"chatterbox/backend/internal/models"

	"gorm.io/gorm"
)

func (s *Service) FindConversationByID(id string) (*models.Conversation, error) {
	return firstOrNil[models.Conversation](s.DB.Where("id = ?", id))
}

// FindDirectByPairKey looks up the unique direct conversation for a
// canonical sorted-pair key. One indexed probe replaces the two ordered
// probes a single-field participant index would need.
func (s *Service) FindDirectByPairKey(pairKey string) (*models.Conversation, error) {
	return firstOrNil[models.Conversation](s.DB.Where("pair_key = ?", pairKey))
}

// CreateDirect inserts a direct conversation. The unique index on
// pair_key arbitrates concurrent creators: the loser gets
// ErrDuplicatePair and is expected to re-probe.
func (s *Service) CreateDirect(conv *models.Conversation) error {
	if err := s.DB.Create(conv).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return ErrDuplicatePair
		}
		return err
	}
	return nil
}

// CreateGroupWithMembers inserts the conversation, its membership rows
// (admin first, preserving join order) and the creation announcement in
// one transaction, leaving the last-message pointer already consistent.
func (s *Service) CreateGroupWithMembers(conv *models.Conversation, memberIDs []string, announcement *models.Message) error {
	return s.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(conv).Error; err != nil {
			return err
		}
		joined := time.Now()
		for i, uid := range memberIDs {
			m := models.Membership{
				ConversationID: conv.ID,
				UserID:         uid,
				// Join order is creation order; spread the timestamps so
				// the ordering survives a sort on joined_at.
				JoinedAt: joined.Add(time.Duration(i) * time.Microsecond),
			}
			if err := tx.Create(&m).Error; err != nil {
				return err
			}
		}
		return appendAnnouncement(tx, conv, announcement)
	})
}

func (s *Service) SaveConversation(conv *models.Conversation) error {
	return s.DB.Save(conv).Error
}

func (s *Service) ListDirectsForUser(userID string) ([]models.Conversation, error) {
	var convs []models.Conversation
	err := s.DB.Where("is_group = ?", false).
		Where("participant1_id = ? OR participant2_id = ?", userID, userID).
		Find(&convs).Error
	if err != nil {
		return nil, err
	}
	return convs, nil
}

// ListGroupsForUser resolves group membership through the junction table,
// an indexed lookup on user_id.
func (s *Service) ListGroupsForUser(userID string) ([]models.Conversation, error) {
	var convs []models.Conversation
	err := s.DB.
		Joins("JOIN memberships ON memberships.conversation_id = conversations.id").
		Where("memberships.user_id = ?", userID).
		Where("conversations.is_group = ?", true).
		Find(&convs).Error
	if err != nil {
		return nil, err
	}
	return convs, nil
}

// MemberIDs returns a conversation's member ids ordered by join time.
// For directs it returns the two participants.
func (s *Service) MemberIDs(conversationID string) ([]string, error) {
	conv, err := s.FindConversationByID(conversationID)
	if err != nil || conv == nil {
		return nil, err
	}
	if !conv.IsGroup {
		var ids []string
		if conv.Participant1ID != nil {
			ids = append(ids, *conv.Participant1ID)
		}
		if conv.Participant2ID != nil {
			ids = append(ids, *conv.Participant2ID)
		}
		return ids, nil
	}
	var ids []string
	err = s.DB.Model(&models.Membership{}).
		Where("conversation_id = ?", conversationID).
		Order("joined_at asc").
		Pluck("user_id", &ids).Error
	if err != nil {
		return nil, err
	}
	return ids, nil
}

func (s *Service) IsMember(conversationID, userID string) (bool, error) {
	var n int64
	err := s.DB.Model(&models.Membership{}).
		Where("conversation_id = ? AND user_id = ?", conversationID, userID).
		Count(&n).Error
	return n > 0, err
}

// AddMember appends the membership row and the system announcement in one
// transaction and resurfaces the conversation.
func (s *Service) AddMember(conversationID, userID string, announcement *models.Message) error {
	return s.DB.Transaction(func(tx *gorm.DB) error {
		m := models.Membership{
			ConversationID: conversationID,
			UserID:         userID,
			JoinedAt:       time.Now(),
		}
		if err := tx.Create(&m).Error; err != nil {
			return err
		}
		var conv models.Conversation
		if err := tx.First(&conv, "id = ?", conversationID).Error; err != nil {
			return err
		}
		return appendAnnouncement(tx, &conv, announcement)
	})
}

// RemoveMember deletes the membership row and appends the announcement in
// one transaction.
func (s *Service) RemoveMember(conversationID, userID string, announcement *models.Message) error {
	return s.DB.Transaction(func(tx *gorm.DB) error {
		err := tx.Where("conversation_id = ? AND user_id = ?", conversationID, userID).
			Delete(&models.Membership{}).Error
		if err != nil {
			return err
		}
		var conv models.Conversation
		if err := tx.First(&conv, "id = ?", conversationID).Error; err != nil {
			return err
		}
		return appendAnnouncement(tx, &conv, announcement)
	})
}

// appendAnnouncement inserts a system message and moves the conversation's
// last-message pointer and last-activity timestamp with it.
func appendAnnouncement(tx *gorm.DB, conv *models.Conversation, msg *models.Message) error {
	msg.ConversationID = conv.ID
	msg.IsSystem = true
	if err := tx.Create(msg).Error; err != nil {
		return err
	}
	return tx.Model(conv).Updates(map[string]interface{}{
		"last_message_id": msg.ID,
		"last_activity":   time.Now(),
	}).Error
}
