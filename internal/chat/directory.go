// Package chat implements the conversation/message consistency core:
// which conversation a message belongs to, how unread state and
// last-message pointers stay consistent under concurrent writes, and how
// typing liveness is derived without expiry jobs.
package chat

import (
	"fmt"
	"log"
	"sort"
	"strings"
	"time"

	"chatterbox/backend/internal/apperr"
	"chatterbox/backend/internal/config"
	"chatterbox/backend/internal/identity"
	"chatterbox/backend/internal/models"
	"chatterbox/backend/internal/storage"
)

// Directory finds or creates direct conversations and manages group
// conversations and their membership.
type Directory struct {
	store    storage.Storage
	resolver *identity.Resolver
}

func NewDirectory(store storage.Storage, resolver *identity.Resolver) *Directory {
	return &Directory{store: store, resolver: resolver}
}

// FindDirect returns the unique direct conversation between the caller
// and otherUserID, or nil when none exists yet.
func (d *Directory) FindDirect(id *identity.Identity, otherUserID string) (*models.Conversation, error) {
	me, err := d.resolver.Resolve(id)
	if err != nil {
		return nil, err
	}
	return d.store.FindDirectByPairKey(models.DirectPairKey(me.ID, otherUserID))
}

// GetOrCreateDirect is the idempotent entry point for starting a 1:1
// chat. The probe-then-insert is raced by the pair-key unique index: when
// both participants click "start chat" at once, exactly one insert wins
// and the loser adopts the winner's conversation.
func (d *Directory) GetOrCreateDirect(id *identity.Identity, otherUserID string) (*models.Conversation, error) {
	me, err := d.resolver.Resolve(id)
	if err != nil {
		return nil, err
	}
	other, err := d.store.FindUserByID(otherUserID)
	if err != nil {
		return nil, err
	}
	if other == nil {
		return nil, apperr.NotFound("user")
	}

	pairKey := models.DirectPairKey(me.ID, other.ID)
	if existing, err := d.store.FindDirectByPairKey(pairKey); err != nil || existing != nil {
		return existing, err
	}

	// Canonical ordering: caller as participant 1.
	meID, otherID := me.ID, other.ID
	conv := &models.Conversation{
		Participant1ID: &meID,
		Participant2ID: &otherID,
		PairKey:        &pairKey,
		LastActivity:   time.Now(),
	}
	if err := d.store.CreateDirect(conv); err != nil {
		if err == storage.ErrDuplicatePair {
			return d.store.FindDirectByPairKey(pairKey)
		}
		return nil, err
	}

	d.notify(models.EventScopeConversation, conv.ID, []string{me.ID, other.ID})
	return conv, nil
}

// CreateGroup creates a group conversation with the caller as admin.
// memberIDs are the other members; the total including the admin must be
// at least three.
func (d *Directory) CreateGroup(id *identity.Identity, name, description string, memberIDs []string) (*models.Conversation, error) {
	me, err := d.resolver.Resolve(id)
	if err != nil {
		return nil, err
	}

	name = strings.TrimSpace(name)
	if name == "" {
		return nil, apperr.Validation("group name cannot be empty")
	}

	others := dedupeExcluding(memberIDs, me.ID)
	if len(others) < config.MinGroupOtherMembers {
		return nil, apperr.Validation(
			fmt.Sprintf("a group needs at least %d members besides you", config.MinGroupOtherMembers))
	}

	adminID := me.ID
	conv := &models.Conversation{
		IsGroup:     true,
		Name:        name,
		Description: strings.TrimSpace(description),
		AdminID:     &adminID,
	}
	announcement := &models.Message{
		SenderID: me.ID,
		Body:     fmt.Sprintf("%s created the group %q", me.Name, name),
	}
	members := append([]string{me.ID}, others...)
	if err := d.store.CreateGroupWithMembers(conv, members, announcement); err != nil {
		return nil, err
	}

	d.notify(models.EventScopeConversation, conv.ID, members)
	return conv, nil
}

// UpdateGroupInfo renames or re-describes a group. Admin only.
func (d *Directory) UpdateGroupInfo(id *identity.Identity, conversationID string, name, description *string) (*models.Conversation, error) {
	_, conv, err := d.requireAdmin(id, conversationID)
	if err != nil {
		return nil, err
	}

	if name != nil {
		trimmed := strings.TrimSpace(*name)
		if trimmed == "" {
			return nil, apperr.Validation("group name cannot be empty")
		}
		conv.Name = trimmed
	}
	if description != nil {
		conv.Description = strings.TrimSpace(*description)
	}
	if err := d.store.SaveConversation(conv); err != nil {
		return nil, err
	}

	d.notifyMembers(models.EventScopeConversation, conv.ID)
	return conv, nil
}

// AddMember adds a user to a group, announcing it with a system message.
// Admin only.
func (d *Directory) AddMember(id *identity.Identity, conversationID, userID string) error {
	me, conv, err := d.requireAdmin(id, conversationID)
	if err != nil {
		return err
	}

	target, err := d.store.FindUserByID(userID)
	if err != nil {
		return err
	}
	if target == nil {
		return apperr.NotFound("user")
	}
	already, err := d.store.IsMember(conv.ID, target.ID)
	if err != nil {
		return err
	}
	if already {
		return apperr.AlreadyMember()
	}

	announcement := &models.Message{
		SenderID: me.ID,
		Body:     fmt.Sprintf("%s added %s", me.Name, target.Name),
	}
	if err := d.store.AddMember(conv.ID, target.ID, announcement); err != nil {
		return err
	}

	d.notifyMembers(models.EventScopeConversation, conv.ID)
	return nil
}

// RemoveMember removes a non-admin member from a group. Admin only; the
// admin themselves can only leave through an admin-transfer path that is
// out of scope here.
func (d *Directory) RemoveMember(id *identity.Identity, conversationID, userID string) error {
	me, conv, err := d.requireAdmin(id, conversationID)
	if err != nil {
		return err
	}
	if conv.AdminID != nil && userID == *conv.AdminID {
		return apperr.CannotRemoveAdmin()
	}
	member, err := d.store.IsMember(conv.ID, userID)
	if err != nil {
		return err
	}
	if !member {
		return apperr.NotFound("member")
	}

	targetName := "a member"
	if target, err := d.store.FindUserByID(userID); err == nil && target != nil {
		targetName = target.Name
	}
	announcement := &models.Message{
		SenderID: me.ID,
		Body:     fmt.Sprintf("%s removed %s", me.Name, targetName),
	}
	if err := d.store.RemoveMember(conv.ID, userID, announcement); err != nil {
		return err
	}

	// Include the removed user so their own listing drops the group.
	ids, err := d.store.MemberIDs(conv.ID)
	if err != nil {
		log.Printf("WARN: failed to resolve members of %s: %v", conv.ID, err)
	}
	d.notify(models.EventScopeConversation, conv.ID, append(ids, userID))
	return nil
}

// ListForUser returns every conversation the user participates in,
// sorted by last activity, newest first. Directs come from the two
// participant columns, groups from the membership index.
func (d *Directory) ListForUser(userID string) ([]models.Conversation, error) {
	directs, err := d.store.ListDirectsForUser(userID)
	if err != nil {
		return nil, err
	}
	groups, err := d.store.ListGroupsForUser(userID)
	if err != nil {
		return nil, err
	}

	all := append(directs, groups...)
	sort.Slice(all, func(i, j int) bool {
		return all[i].LastActivity.After(all[j].LastActivity)
	})
	return all, nil
}

// requireAdmin loads a group conversation and checks the caller is its
// admin.
func (d *Directory) requireAdmin(id *identity.Identity, conversationID string) (*models.User, *models.Conversation, error) {
	me, err := d.resolver.Resolve(id)
	if err != nil {
		return nil, nil, err
	}
	conv, err := d.store.FindConversationByID(conversationID)
	if err != nil {
		return nil, nil, err
	}
	if conv == nil || !conv.IsGroup {
		return nil, nil, apperr.NotFound("group conversation")
	}
	if conv.AdminID == nil || *conv.AdminID != me.ID {
		return nil, nil, apperr.Forbidden("only the group admin can do this")
	}
	return me, conv, nil
}

// notify publishes a best-effort invalidation event. Push failures never
// fail the mutation that triggered them.
func (d *Directory) notify(scope, conversationID string, userIDs []string) {
	err := d.store.PublishEvent(models.Event{
		Scope:          scope,
		ConversationID: conversationID,
		UserIDs:        userIDs,
	})
	if err != nil {
		log.Printf("WARN: failed to publish %s event for %s: %v", scope, conversationID, err)
	}
}

func (d *Directory) notifyMembers(scope, conversationID string) {
	ids, err := d.store.MemberIDs(conversationID)
	if err != nil {
		log.Printf("WARN: failed to resolve members of %s: %v", conversationID, err)
		return
	}
	d.notify(scope, conversationID, ids)
}

// dedupeExcluding drops duplicates and the excluded id while keeping the
// original order.
func dedupeExcluding(ids []string, exclude string) []string {
	seen := map[string]bool{exclude: true}
	var out []string
	for _, id := range ids {
		if id == "" || seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, id)
	}
	return out
}
