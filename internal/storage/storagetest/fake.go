// Package storagetest provides an in-memory storage.Storage used by
// service and handler tests. It mirrors the transactional semantics of
// the real implementation closely enough that behavioral properties
// (pair uniqueness, toggle inversion, tombstoning) can be tested for
// real instead of through call expectations.
package storagetest

import (
	"sort"
	"sync"
	"time"

	"chatterbox/backend/internal/models"
	"chatterbox/backend/internal/storage"

	"github.com/google/uuid"
)

// Fake is an in-memory Storage. Safe for concurrent use.
type Fake struct {
	mu sync.Mutex

	Users         map[string]*models.User
	Conversations map[string]*models.Conversation
	Memberships   []models.Membership
	Messages      map[string]*models.Message
	Reactions     []models.Reaction
	Typing        map[string]*models.TypingIndicator

	// Events records everything published, newest last.
	Events []models.Event

	seq  int
	base time.Time
}

func NewFake() *Fake {
	return &Fake{
		Users:         make(map[string]*models.User),
		Conversations: make(map[string]*models.Conversation),
		Messages:      make(map[string]*models.Message),
		Typing:        make(map[string]*models.TypingIndicator),
		base:          time.Now().Add(-time.Hour),
	}
}

var _ storage.Storage = (*Fake)(nil)

// tick returns a strictly increasing timestamp so creation order is
// always observable.
func (f *Fake) tick() time.Time {
	f.seq++
	return f.base.Add(time.Duration(f.seq) * time.Millisecond)
}

// AddUser seeds a user and returns it.
func (f *Fake) AddUser(externalID, name string) *models.User {
	u := &models.User{
		ID:         uuid.New().String(),
		ExternalID: externalID,
		Email:      externalID + "@example.com",
		Name:       name,
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Users[u.ID] = u
	return u
}

// --- Users ---

func (f *Fake) FindUserByID(id string) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if u, ok := f.Users[id]; ok {
		cp := *u
		return &cp, nil
	}
	return nil, nil
}

func (f *Fake) FindUserByExternalID(externalID string) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, u := range f.Users {
		if u.ExternalID == externalID {
			cp := *u
			return &cp, nil
		}
	}
	return nil, nil
}

func (f *Fake) FindUserByUsername(username string) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, u := range f.Users {
		if u.Username != nil && *u.Username == username {
			cp := *u
			return &cp, nil
		}
	}
	return nil, nil
}

func (f *Fake) ListUsers() ([]models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]models.User, 0, len(f.Users))
	for _, u := range f.Users {
		out = append(out, *u)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (f *Fake) CreateUser(user *models.User) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if user.ID == "" {
		user.ID = uuid.New().String()
	}
	user.CreatedAt = f.tick()
	cp := *user
	f.Users[user.ID] = &cp
	return nil
}

func (f *Fake) SaveUser(user *models.User) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	cp := *user
	f.Users[user.ID] = &cp
	return nil
}

func (f *Fake) DeleteUserByExternalID(externalID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for id, u := range f.Users {
		if u.ExternalID == externalID {
			delete(f.Users, id)
		}
	}
	return nil
}

// --- Conversations ---

func (f *Fake) FindConversationByID(id string) (*models.Conversation, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if c, ok := f.Conversations[id]; ok {
		cp := *c
		return &cp, nil
	}
	return nil, nil
}

func (f *Fake) FindDirectByPairKey(pairKey string) (*models.Conversation, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.findByPairKeyLocked(pairKey), nil
}

func (f *Fake) findByPairKeyLocked(pairKey string) *models.Conversation {
	for _, c := range f.Conversations {
		if c.PairKey != nil && *c.PairKey == pairKey {
			cp := *c
			return &cp
		}
	}
	return nil
}

func (f *Fake) CreateDirect(conv *models.Conversation) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if conv.PairKey != nil && f.findByPairKeyLocked(*conv.PairKey) != nil {
		return storage.ErrDuplicatePair
	}
	if conv.ID == "" {
		conv.ID = uuid.New().String()
	}
	conv.CreatedAt = f.tick()
	cp := *conv
	f.Conversations[conv.ID] = &cp
	return nil
}

func (f *Fake) CreateGroupWithMembers(conv *models.Conversation, memberIDs []string, announcement *models.Message) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if conv.ID == "" {
		conv.ID = uuid.New().String()
	}
	conv.CreatedAt = f.tick()
	cp := *conv
	f.Conversations[conv.ID] = &cp
	for _, uid := range memberIDs {
		f.Memberships = append(f.Memberships, models.Membership{
			ConversationID: conv.ID,
			UserID:         uid,
			JoinedAt:       f.tick(),
		})
	}
	f.appendAnnouncementLocked(conv.ID, announcement)
	*conv = *f.Conversations[conv.ID]
	return nil
}

func (f *Fake) SaveConversation(conv *models.Conversation) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	cp := *conv
	f.Conversations[conv.ID] = &cp
	return nil
}

func (f *Fake) ListDirectsForUser(userID string) ([]models.Conversation, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.Conversation
	for _, c := range f.Conversations {
		if c.IsGroup {
			continue
		}
		if (c.Participant1ID != nil && *c.Participant1ID == userID) ||
			(c.Participant2ID != nil && *c.Participant2ID == userID) {
			out = append(out, *c)
		}
	}
	return out, nil
}

func (f *Fake) ListGroupsForUser(userID string) ([]models.Conversation, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.Conversation
	for _, m := range f.Memberships {
		if m.UserID != userID {
			continue
		}
		if c, ok := f.Conversations[m.ConversationID]; ok && c.IsGroup {
			out = append(out, *c)
		}
	}
	return out, nil
}

func (f *Fake) MemberIDs(conversationID string) ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	c, ok := f.Conversations[conversationID]
	if !ok {
		return nil, nil
	}
	if !c.IsGroup {
		var ids []string
		if c.Participant1ID != nil {
			ids = append(ids, *c.Participant1ID)
		}
		if c.Participant2ID != nil {
			ids = append(ids, *c.Participant2ID)
		}
		return ids, nil
	}
	members := make([]models.Membership, 0)
	for _, m := range f.Memberships {
		if m.ConversationID == conversationID {
			members = append(members, m)
		}
	}
	sort.Slice(members, func(i, j int) bool { return members[i].JoinedAt.Before(members[j].JoinedAt) })
	ids := make([]string, 0, len(members))
	for _, m := range members {
		ids = append(ids, m.UserID)
	}
	return ids, nil
}

func (f *Fake) IsMember(conversationID, userID string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, m := range f.Memberships {
		if m.ConversationID == conversationID && m.UserID == userID {
			return true, nil
		}
	}
	return false, nil
}

func (f *Fake) AddMember(conversationID, userID string, announcement *models.Message) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Memberships = append(f.Memberships, models.Membership{
		ConversationID: conversationID,
		UserID:         userID,
		JoinedAt:       f.tick(),
	})
	f.appendAnnouncementLocked(conversationID, announcement)
	return nil
}

func (f *Fake) RemoveMember(conversationID, userID string, announcement *models.Message) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	kept := f.Memberships[:0]
	for _, m := range f.Memberships {
		if !(m.ConversationID == conversationID && m.UserID == userID) {
			kept = append(kept, m)
		}
	}
	f.Memberships = kept
	f.appendAnnouncementLocked(conversationID, announcement)
	return nil
}

func (f *Fake) appendAnnouncementLocked(conversationID string, msg *models.Message) {
	msg.ConversationID = conversationID
	msg.IsSystem = true
	f.createMessageLocked(msg)
}

// --- Messages ---

func (f *Fake) FindMessageByID(id string) (*models.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if m, ok := f.Messages[id]; ok {
		cp := *m
		return &cp, nil
	}
	return nil, nil
}

func (f *Fake) createMessageLocked(msg *models.Message) {
	if msg.ID == "" {
		msg.ID = uuid.New().String()
	}
	msg.CreatedAt = f.tick()
	cp := *msg
	f.Messages[msg.ID] = &cp
	if conv, ok := f.Conversations[msg.ConversationID]; ok {
		id := msg.ID
		conv.LastMessageID = &id
		conv.LastActivity = msg.CreatedAt
	}
}

func (f *Fake) CreateMessage(msg *models.Message) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.createMessageLocked(msg)
	return nil
}

func (f *Fake) SaveMessage(msg *models.Message) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	cp := *msg
	f.Messages[msg.ID] = &cp
	return nil
}

func (f *Fake) SoftDeleteMessage(id, tombstone string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	m, ok := f.Messages[id]
	if !ok {
		return nil
	}
	m.Body = tombstone
	m.IsDeleted = true
	kept := f.Reactions[:0]
	for _, r := range f.Reactions {
		if r.MessageID != id {
			kept = append(kept, r)
		}
	}
	f.Reactions = kept
	return nil
}

func (f *Fake) ListMessages(conversationID string) ([]models.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.Message
	for _, m := range f.Messages {
		if m.ConversationID == conversationID {
			out = append(out, *m)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (f *Fake) MarkConversationRead(conversationID, readerID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, m := range f.Messages {
		if m.ConversationID == conversationID && m.SenderID != readerID && !m.IsRead {
			m.IsRead = true
		}
	}
	return nil
}

func (f *Fake) CountUnread(conversationID, viewerID string) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var n int64
	for _, m := range f.Messages {
		if m.ConversationID == conversationID && m.SenderID != viewerID && !m.IsRead {
			n++
		}
	}
	return n, nil
}

// --- Reactions ---

func (f *Fake) ToggleReaction(messageID, userID, emoji string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i, r := range f.Reactions {
		if r.MessageID == messageID && r.UserID == userID && r.Emoji == emoji {
			f.Reactions = append(f.Reactions[:i], f.Reactions[i+1:]...)
			return false, nil
		}
	}
	f.Reactions = append(f.Reactions, models.Reaction{
		MessageID: messageID,
		UserID:    userID,
		Emoji:     emoji,
		CreatedAt: f.tick(),
	})
	return true, nil
}

func (f *Fake) ListReactions(messageIDs []string) ([]models.Reaction, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	want := make(map[string]bool, len(messageIDs))
	for _, id := range messageIDs {
		want[id] = true
	}
	var out []models.Reaction
	for _, r := range f.Reactions {
		if want[r.MessageID] {
			out = append(out, r)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

// --- Typing ---

func (f *Fake) UpsertTyping(ind *models.TypingIndicator) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if ind.UpdatedAt.IsZero() {
		ind.UpdatedAt = time.Now()
	}
	key := ind.ConversationID + "|" + ind.UserID
	cp := *ind
	f.Typing[key] = &cp
	return nil
}

func (f *Fake) ListTyping(conversationID string) ([]models.TypingIndicator, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.TypingIndicator
	for _, t := range f.Typing {
		if t.ConversationID == conversationID && t.IsTyping {
			out = append(out, *t)
		}
	}
	return out, nil
}

// --- Push ---

func (f *Fake) PublishEvent(ev models.Event) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Events = append(f.Events, ev)
	return nil
}
