package chat_test

import (
	"testing"
	"time"

	"chatterbox/backend/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTypingUsersExcludesCaller(t *testing.T) {
	e := newEnv()
	ada, adaID := e.addUser("user_a", "Ada")
	bob, bobID := e.addUser("user_b", "Bob")
	conv, err := e.directory.GetOrCreateDirect(adaID, bob.ID)
	require.NoError(t, err)

	require.NoError(t, e.typing.SetTyping(adaID, conv.ID, true))
	require.NoError(t, e.typing.SetTyping(bobID, conv.ID, true))

	rows, err := e.typing.TypingUsers(adaID, conv.ID)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, bob.ID, rows[0].UserID)

	rows, err = e.typing.TypingUsers(bobID, conv.ID)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, ada.ID, rows[0].UserID)
}

func TestTypingFlagsAgeOut(t *testing.T) {
	e := newEnv()
	_, adaID := e.addUser("user_a", "Ada")
	bob, bobID := e.addUser("user_b", "Bob")
	conv, err := e.directory.GetOrCreateDirect(adaID, bob.ID)
	require.NoError(t, err)

	require.NoError(t, e.typing.SetTyping(bobID, conv.ID, true))

	rows, err := e.typing.TypingUsers(adaID, conv.ID)
	require.NoError(t, err)
	assert.Len(t, rows, 1)

	// No expiry job runs; the row simply stops being fresh once the
	// reader's clock has moved past the liveness window.
	e.typing.Now = func() time.Time { return time.Now().Add(6 * time.Second) }

	rows, err = e.typing.TypingUsers(adaID, conv.ID)
	require.NoError(t, err)
	assert.Empty(t, rows)

	// A fresh keepalive revives the flag.
	e.typing.Now = time.Now
	require.NoError(t, e.typing.SetTyping(bobID, conv.ID, true))
	rows, err = e.typing.TypingUsers(adaID, conv.ID)
	require.NoError(t, err)
	assert.Len(t, rows, 1)
}

func TestSetTypingFalseClearsTheFlag(t *testing.T) {
	e := newEnv()
	_, adaID := e.addUser("user_a", "Ada")
	bob, bobID := e.addUser("user_b", "Bob")
	conv, err := e.directory.GetOrCreateDirect(adaID, bob.ID)
	require.NoError(t, err)

	require.NoError(t, e.typing.SetTyping(bobID, conv.ID, true))
	require.NoError(t, e.typing.SetTyping(bobID, conv.ID, false))

	rows, err := e.typing.TypingUsers(adaID, conv.ID)
	require.NoError(t, err)
	assert.Empty(t, rows)
}

func TestSetTypingUnresolvedIsNoOp(t *testing.T) {
	e := newEnv()

	assert.NoError(t, e.typing.SetTyping(&identityStub, "conv", true))
	assert.NoError(t, e.typing.SetTyping(nil, "conv", true))

	rows, err := e.typing.TypingUsers(nil, "conv")
	require.NoError(t, err)
	assert.Empty(t, rows)
}

func TestSetTypingPublishesEvent(t *testing.T) {
	e := newEnv()
	_, adaID := e.addUser("user_a", "Ada")
	bob, _ := e.addUser("user_b", "Bob")
	conv, err := e.directory.GetOrCreateDirect(adaID, bob.ID)
	require.NoError(t, err)

	require.NoError(t, e.typing.SetTyping(adaID, conv.ID, true))

	last := e.store.Events[len(e.store.Events)-1]
	assert.Equal(t, models.EventScopeTyping, last.Scope)
	assert.Equal(t, conv.ID, last.ConversationID)
}
