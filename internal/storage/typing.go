package storage

import (
	"time"

	"chatterbox/backend/internal/models"

	"gorm.io/gorm/clause"
)

// UpsertTyping writes the (conversation, user) typing flag, creating the
// row on first keystroke and updating it afterwards. The unique index on
// the pair guarantees at most one row, ever.
func (s *Service) UpsertTyping(ind *models.TypingIndicator) error {
	ind.UpdatedAt = time.Now()
	return s.DB.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "conversation_id"}, {Name: "user_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"is_typing", "updated_at"}),
	}).Create(ind).Error
}

// ListTyping returns the rows currently flagged as typing. Staleness
// filtering is a read-side concern and happens in the typing service,
// where the clock can be controlled in tests.
func (s *Service) ListTyping(conversationID string) ([]models.TypingIndicator, error) {
	var inds []models.TypingIndicator
	err := s.DB.Where("conversation_id = ? AND is_typing = ?", conversationID, true).
		Find(&inds).Error
	if err != nil {
		return nil, err
	}
	return inds, nil
}
