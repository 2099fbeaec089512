package storage

import (
	"context"
	"errors"

	"chatterbox/backend/internal/models"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// ErrDuplicatePair is returned by CreateDirect when another transaction
// already inserted the conversation for the same unordered user pair.
// Callers re-probe and adopt the winner.
var ErrDuplicatePair = errors.New("direct conversation already exists for this pair")

// Storage is the persistence boundary of the consistency core. Every
// mutation method runs as one transaction: a reader never observes a
// conversation whose last-message pointer references an invisible row.
//
// Lookup methods return (nil, nil) when the entity simply does not exist;
// a non-nil error always means the store itself failed.
type Storage interface {
	// Users
	FindUserByID(id string) (*models.User, error)
	FindUserByExternalID(externalID string) (*models.User, error)
	FindUserByUsername(username string) (*models.User, error)
	ListUsers() ([]models.User, error)
	CreateUser(user *models.User) error
	SaveUser(user *models.User) error
	DeleteUserByExternalID(externalID string) error

	// Conversations
	FindConversationByID(id string) (*models.Conversation, error)
	FindDirectByPairKey(pairKey string) (*models.Conversation, error)
	CreateDirect(conv *models.Conversation) error
	CreateGroupWithMembers(conv *models.Conversation, memberIDs []string, announcement *models.Message) error
	SaveConversation(conv *models.Conversation) error
	ListDirectsForUser(userID string) ([]models.Conversation, error)
	ListGroupsForUser(userID string) ([]models.Conversation, error)
	MemberIDs(conversationID string) ([]string, error)
	IsMember(conversationID, userID string) (bool, error)
	AddMember(conversationID, userID string, announcement *models.Message) error
	RemoveMember(conversationID, userID string, announcement *models.Message) error

	// Messages
	FindMessageByID(id string) (*models.Message, error)
	CreateMessage(msg *models.Message) error
	SaveMessage(msg *models.Message) error
	SoftDeleteMessage(id, tombstone string) error
	ListMessages(conversationID string) ([]models.Message, error)
	MarkConversationRead(conversationID, readerID string) error
	CountUnread(conversationID, viewerID string) (int64, error)

	// Reactions
	ToggleReaction(messageID, userID, emoji string) (added bool, err error)
	ListReactions(messageIDs []string) ([]models.Reaction, error)

	// Typing
	UpsertTyping(ind *models.TypingIndicator) error
	ListTyping(conversationID string) ([]models.TypingIndicator, error)

	// Push invalidation
	PublishEvent(ev models.Event) error
}

// Service implements Storage over PostgreSQL (gorm) and Redis.
type Service struct {
	DB    *gorm.DB
	Redis *redis.Client
	Ctx   context.Context
}

// NewService constructor.
func NewService(db *gorm.DB, rdb *redis.Client) *Service {
	return &Service{
		DB:    db,
		Redis: rdb,
		Ctx:   context.Background(),
	}
}

// firstOrNil collapses gorm's ErrRecordNotFound into (nil, nil).
func firstOrNil[T any](tx *gorm.DB) (*T, error) {
	var out T
	if err := tx.First(&out).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &out, nil
}
