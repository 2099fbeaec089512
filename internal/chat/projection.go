package chat

import (
	"chatterbox/backend/internal/apperr"
	"chatterbox/backend/internal/identity"
	"chatterbox/backend/internal/models"
	"chatterbox/backend/internal/storage"
)

// Projector composes the denormalized conversation views clients
// subscribe to. Pure read-side work: it issues several dependent reads
// that are not atomic as a whole, which is fine — the result is advisory
// UI state, recomputed on the next push to any dependency.
type Projector struct {
	store     storage.Storage
	resolver  *identity.Resolver
	directory *Directory
}

func NewProjector(store storage.Storage, resolver *identity.Resolver, directory *Directory) *Projector {
	return &Projector{store: store, resolver: resolver, directory: directory}
}

// ListConversations builds the sidebar projection for the caller. Every
// referenced entity may have been concurrently deleted or altered; the
// projection omits the field instead of failing.
func (p *Projector) ListConversations(id *identity.Identity) ([]models.ConversationView, error) {
	viewer, err := p.resolver.ResolveOrNil(id)
	if err != nil {
		return nil, err
	}
	if viewer == nil {
		return []models.ConversationView{}, nil
	}

	convs, err := p.directory.ListForUser(viewer.ID)
	if err != nil {
		return nil, err
	}

	views := make([]models.ConversationView, 0, len(convs))
	for _, conv := range convs {
		view := models.ConversationView{Conversation: conv}

		if !conv.IsGroup {
			if partnerID := conv.PartnerID(viewer.ID); partnerID != "" {
				// Dangling partner (provider-deleted account) stays nil.
				if partner, err := p.store.FindUserByID(partnerID); err == nil {
					view.Partner = partner
				}
			}
		}

		var lastMsg *models.Message
		if conv.LastMessageID != nil {
			if m, err := p.store.FindMessageByID(*conv.LastMessageID); err == nil {
				lastMsg = m
			}
		}
		view.LastMessage = lastMsg

		if conv.IsGroup {
			if ids, err := p.store.MemberIDs(conv.ID); err == nil {
				view.MemberCount = len(ids)
			}
			if lastMsg != nil && !lastMsg.IsSystem && !lastMsg.IsDeleted {
				if sender, err := p.store.FindUserByID(lastMsg.SenderID); err == nil && sender != nil {
					view.LastSenderFirstName = sender.FirstName()
				}
			}
		}

		unread, err := p.store.CountUnread(conv.ID, viewer.ID)
		if err != nil {
			return nil, err
		}
		view.UnreadCount = unread

		views = append(views, view)
	}
	return views, nil
}

// GetGroup returns a group conversation with member profiles hydrated in
// join order. Deleted members are skipped rather than failing the view.
func (p *Projector) GetGroup(id *identity.Identity, conversationID string) (*models.GroupView, error) {
	if _, err := p.resolver.Resolve(id); err != nil {
		return nil, err
	}
	conv, err := p.store.FindConversationByID(conversationID)
	if err != nil {
		return nil, err
	}
	if conv == nil || !conv.IsGroup {
		return nil, apperr.NotFound("group conversation")
	}

	ids, err := p.store.MemberIDs(conv.ID)
	if err != nil {
		return nil, err
	}
	members := make([]models.User, 0, len(ids))
	for _, uid := range ids {
		if u, err := p.store.FindUserByID(uid); err == nil && u != nil {
			members = append(members, *u)
		}
	}
	return &models.GroupView{Conversation: *conv, Members: members}, nil
}
