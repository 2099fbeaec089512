package chat

import (
	"log"
	"strings"

	"chatterbox/backend/internal/apperr"
	"chatterbox/backend/internal/config"
	"chatterbox/backend/internal/identity"
	"chatterbox/backend/internal/models"
	"chatterbox/backend/internal/storage"
)

// Ledger appends, edits, soft-deletes and reacts to messages.
type Ledger struct {
	store    storage.Storage
	resolver *identity.Resolver
}

func NewLedger(store storage.Storage, resolver *identity.Resolver) *Ledger {
	return &Ledger{store: store, resolver: resolver}
}

// Send appends a message to a conversation. The message insert and the
// conversation's last-message/last-activity bump happen in one storage
// transaction, so no reader sees a pointer to an invisible message.
func (l *Ledger) Send(id *identity.Identity, conversationID, body string, replyTo *string) (*models.Message, error) {
	me, err := l.resolver.Resolve(id)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(body) == "" {
		return nil, apperr.Validation("message text cannot be empty")
	}
	conv, err := l.store.FindConversationByID(conversationID)
	if err != nil {
		return nil, err
	}
	if conv == nil {
		return nil, apperr.NotFound("conversation")
	}

	msg := &models.Message{
		ConversationID: conv.ID,
		SenderID:       me.ID,
		Body:           body,
		ReplyToID:      replyTo,
	}
	if err := l.store.CreateMessage(msg); err != nil {
		return nil, err
	}

	l.notify(conv.ID)
	return msg, nil
}

// Edit replaces a message's text. Only the original sender may edit, and
// a deleted message stays deleted.
func (l *Ledger) Edit(id *identity.Identity, messageID, newText string) (*models.Message, error) {
	me, err := l.resolver.Resolve(id)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(newText) == "" {
		return nil, apperr.Validation("message text cannot be empty")
	}
	msg, err := l.store.FindMessageByID(messageID)
	if err != nil {
		return nil, err
	}
	if msg == nil {
		return nil, apperr.NotFound("message")
	}
	if msg.SenderID != me.ID {
		return nil, apperr.Forbidden("only the sender can edit a message")
	}
	if msg.IsDeleted {
		return nil, apperr.InvalidState("cannot edit a deleted message")
	}

	msg.Body = newText
	msg.IsEdited = true
	if err := l.store.SaveMessage(msg); err != nil {
		return nil, err
	}

	l.notify(msg.ConversationID)
	return msg, nil
}

// Delete soft-deletes a message: the body becomes the tombstone, the
// deleted flag is set and every reaction is cleared. The row survives so
// replies and ordering stay intact.
func (l *Ledger) Delete(id *identity.Identity, messageID string) error {
	me, err := l.resolver.Resolve(id)
	if err != nil {
		return err
	}
	msg, err := l.store.FindMessageByID(messageID)
	if err != nil {
		return err
	}
	if msg == nil {
		return apperr.NotFound("message")
	}
	if msg.SenderID != me.ID {
		return apperr.Forbidden("only the sender can delete a message")
	}

	if err := l.store.SoftDeleteMessage(msg.ID, config.DeletedMessageText); err != nil {
		return err
	}

	l.notify(msg.ConversationID)
	return nil
}

// ToggleReaction adds the (emoji, caller) pair when absent and removes it
// when present. Applying it twice restores the original state, which is
// what makes client retries safe. Any authenticated participant may
// react, including to someone else's message.
func (l *Ledger) ToggleReaction(id *identity.Identity, messageID, emoji string) (added bool, err error) {
	me, err := l.resolver.Resolve(id)
	if err != nil {
		return false, err
	}
	if emoji == "" {
		return false, apperr.Validation("emoji cannot be empty")
	}
	msg, err := l.store.FindMessageByID(messageID)
	if err != nil {
		return false, err
	}
	if msg == nil {
		return false, apperr.NotFound("message")
	}

	added, err = l.store.ToggleReaction(msg.ID, me.ID, emoji)
	if err != nil {
		return false, err
	}

	l.notify(msg.ConversationID)
	return added, nil
}

// MarkRead flips every unread message in the conversation that the
// caller did not send. Degrades to a no-op when the caller has no user
// record yet.
func (l *Ledger) MarkRead(id *identity.Identity, conversationID string) error {
	if id == nil {
		return apperr.Unauthenticated()
	}
	me, err := l.resolver.ResolveOrNil(id)
	if err != nil || me == nil {
		return err
	}
	if err := l.store.MarkConversationRead(conversationID, me.ID); err != nil {
		return err
	}

	l.notify(conversationID)
	return nil
}

// List returns the conversation's messages annotated for the viewer:
// ownership, sender profile, reactions and a live snapshot of any
// replied-to message. An unresolved caller still gets the list, just
// without the "mine" annotation.
func (l *Ledger) List(id *identity.Identity, conversationID string) ([]models.MessageView, error) {
	if id == nil {
		return nil, apperr.Unauthenticated()
	}
	viewer, err := l.resolver.ResolveOrNil(id)
	if err != nil {
		return nil, err
	}

	msgs, err := l.store.ListMessages(conversationID)
	if err != nil {
		return nil, err
	}

	ids := make([]string, 0, len(msgs))
	for _, m := range msgs {
		ids = append(ids, m.ID)
	}
	reactions, err := l.store.ListReactions(ids)
	if err != nil {
		return nil, err
	}
	byMessage := make(map[string][]models.Reaction, len(msgs))
	for _, r := range reactions {
		byMessage[r.MessageID] = append(byMessage[r.MessageID], r)
	}

	// Profiles and reply originals are resolved at read time, so the
	// views always reflect current state (a reply preview shows the
	// tombstone once the original is deleted).
	userCache := map[string]*models.User{}
	lookupUser := func(userID string) *models.User {
		if u, ok := userCache[userID]; ok {
			return u
		}
		u, err := l.store.FindUserByID(userID)
		if err != nil {
			u = nil
		}
		userCache[userID] = u
		return u
	}

	views := make([]models.MessageView, 0, len(msgs))
	for _, m := range msgs {
		view := models.MessageView{
			Message:     m,
			IsMe:        viewer != nil && m.SenderID == viewer.ID,
			SenderName:  "User",
			SenderImage: "",
			Reactions:   byMessage[m.ID],
		}
		if view.Reactions == nil {
			view.Reactions = []models.Reaction{}
		}
		if sender := lookupUser(m.SenderID); sender != nil {
			view.SenderName = sender.Name
			view.SenderImage = sender.AvatarURL
		}
		if m.ReplyToID != nil {
			if original, err := l.store.FindMessageByID(*m.ReplyToID); err == nil && original != nil {
				snapshot := &models.ReplySnapshot{
					ID:         original.ID,
					Text:       original.Body,
					SenderName: "User",
				}
				if original.IsDeleted {
					snapshot.Text = config.DeletedMessageText
				}
				if sender := lookupUser(original.SenderID); sender != nil {
					snapshot.SenderName = sender.Name
				}
				view.ReplyToMessage = snapshot
			}
		}
		views = append(views, view)
	}
	return views, nil
}

func (l *Ledger) notify(conversationID string) {
	ids, err := l.store.MemberIDs(conversationID)
	if err != nil {
		log.Printf("WARN: failed to resolve members of %s: %v", conversationID, err)
		return
	}
	err = l.store.PublishEvent(models.Event{
		Scope:          models.EventScopeMessage,
		ConversationID: conversationID,
		UserIDs:        ids,
	})
	if err != nil {
		log.Printf("WARN: failed to publish message event for %s: %v", conversationID, err)
	}
}
