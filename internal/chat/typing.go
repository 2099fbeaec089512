package chat

import (
	"log"
	"time"

	"chatterbox/backend/internal/config"
	"chatterbox/backend/internal/identity"
	"chatterbox/backend/internal/models"
	"chatterbox/backend/internal/storage"
)

// Typing maintains the short-lived per-user-per-conversation typing
// flags. Nothing here ever expires a row: readers filter on recency, so
// a client that stops sending keepalives ages out of every view within
// the liveness window on its own.
type Typing struct {
	store    storage.Storage
	resolver *identity.Resolver
	window   time.Duration

	// Now is the clock used for the staleness filter; tests pin it.
	Now func() time.Time
}

func NewTyping(store storage.Storage, resolver *identity.Resolver) *Typing {
	return &Typing{
		store:    store,
		resolver: resolver,
		window:   config.TypingLivenessWindow,
		Now:      time.Now,
	}
}

// SetTyping upserts the caller's typing flag for the conversation.
// Best-effort by contract: an unresolved identity is a silent no-op,
// because failing to register a typing pulse must never block sending.
func (t *Typing) SetTyping(id *identity.Identity, conversationID string, isTyping bool) error {
	me, err := t.resolver.ResolveOrNil(id)
	if err != nil || me == nil {
		return err
	}

	err = t.store.UpsertTyping(&models.TypingIndicator{
		ConversationID: conversationID,
		UserID:         me.ID,
		IsTyping:       isTyping,
	})
	if err != nil {
		return err
	}

	if pubErr := t.store.PublishEvent(models.Event{
		Scope:          models.EventScopeTyping,
		ConversationID: conversationID,
	}); pubErr != nil {
		log.Printf("WARN: failed to publish typing event for %s: %v", conversationID, pubErr)
	}
	return nil
}

// TypingUsers returns who is typing in the conversation right now, from
// the reader's point of view: flagged rows, minus the caller, minus
// anything older than the liveness window.
func (t *Typing) TypingUsers(id *identity.Identity, conversationID string) ([]models.TypingIndicator, error) {
	me, err := t.resolver.ResolveOrNil(id)
	if err != nil {
		return nil, err
	}
	if me == nil {
		return []models.TypingIndicator{}, nil
	}

	rows, err := t.store.ListTyping(conversationID)
	if err != nil {
		return nil, err
	}

	now := t.Now()
	out := make([]models.TypingIndicator, 0, len(rows))
	for _, row := range rows {
		if row.UserID == me.ID {
			continue
		}
		if !row.FreshAt(now, t.window) {
			continue
		}
		out = append(out, row)
	}
	return out, nil
}
