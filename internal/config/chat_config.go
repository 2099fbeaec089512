package config

import "time"

const (
	// Typing presence
	// A typing row older than this is treated as "not typing" by every
	// reader. Liveness is derived from recency of the last upsert, so no
	// background sweep is needed to clear stuck indicators.
	TypingLivenessWindow = 5000 * time.Millisecond

	// Messages
	DeletedMessageText = "This message was deleted"

	// Groups
	// Minimum members besides the creating admin.
	MinGroupOtherMembers = 2
)
