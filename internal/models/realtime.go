package models

// Event is a push invalidation notice fanned out to subscribed clients.
// It tells a client which slice of its view went stale; it never carries
// authoritative state — the client refetches through the normal queries.
type Event struct {
	// Scope is one of "conversation", "message", "typing", "presence".
	Scope          string   `json:"scope"`
	ConversationID string   `json:"conversationId,omitempty"`
	// UserIDs lists the users whose subscriptions should be poked.
	// Empty means broadcast (presence changes).
	UserIDs []string `json:"userIds,omitempty"`
}

const (
	EventScopeConversation = "conversation"
	EventScopeMessage      = "message"
	EventScopeTyping       = "typing"
	EventScopePresence     = "presence"
)

// ConversationView is one row of the conversation list projection: the
// conversation itself plus everything the sidebar needs, composed fresh
// on every read. Any dangling reference becomes a nil field rather than
// a failed projection.
type ConversationView struct {
	Conversation
	Partner             *User    `json:"partner,omitempty"`
	LastMessage         *Message `json:"lastMessage,omitempty"`
	UnreadCount         int64    `json:"unreadCount"`
	MemberCount         int      `json:"memberCount,omitempty"`
	LastSenderFirstName string   `json:"lastSenderFirstName,omitempty"`
}

// GroupView is the detail view of a group conversation with member
// profiles hydrated.
type GroupView struct {
	Conversation
	Members []User `json:"members"`
}
