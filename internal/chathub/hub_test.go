package chathub_test

import (
	"testing"
	"time"

	"chatterbox/backend/internal/chathub"
	"chatterbox/backend/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// mockClient records deliveries through a buffered channel.
type mockClient struct {
	userID string
	send   chan models.Event
	closed chan struct{}
}

func newMockClient(userID string, buffer int) *mockClient {
	return &mockClient{
		userID: userID,
		send:   make(chan models.Event, buffer),
		closed: make(chan struct{}),
	}
}

func (c *mockClient) GetUserID() string                   { return c.userID }
func (c *mockClient) GetSendChannel() chan<- models.Event { return c.send }
func (c *mockClient) Run()                                {}
func (c *mockClient) Close()                              { close(c.closed) }

func receive(t *testing.T, c *mockClient) models.Event {
	t.Helper()
	select {
	case ev := <-c.send:
		return ev
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for event")
		return models.Event{}
	}
}

func assertNothingDelivered(t *testing.T, c *mockClient) {
	t.Helper()
	select {
	case ev := <-c.send:
		t.Fatalf("unexpected event delivered: %+v", ev)
	case <-time.After(50 * time.Millisecond):
	}
}

// newRunningHub starts a hub without a store, so tests drive EventCh
// directly.
func newRunningHub() *chathub.Hub {
	hub := chathub.NewHub(nil, nil)
	go hub.Run()
	return hub
}

func TestHubDeliversToTargetedUsers(t *testing.T) {
	hub := newRunningHub()

	ada := newMockClient("user-ada", 8)
	bob := newMockClient("user-bob", 8)
	cat := newMockClient("user-cat", 8)
	hub.RegisterCh <- ada
	hub.RegisterCh <- bob
	hub.RegisterCh <- cat

	ev := models.Event{
		Scope:          models.EventScopeMessage,
		ConversationID: "conv-1",
		UserIDs:        []string{"user-ada", "user-bob"},
	}
	hub.EventCh <- ev

	assert.Equal(t, ev, receive(t, ada))
	assert.Equal(t, ev, receive(t, bob))
	assertNothingDelivered(t, cat)
}

func TestHubBroadcastsWhenNoRecipientsNamed(t *testing.T) {
	hub := newRunningHub()

	ada := newMockClient("user-ada", 8)
	bob := newMockClient("user-bob", 8)
	hub.RegisterCh <- ada
	hub.RegisterCh <- bob

	ev := models.Event{Scope: models.EventScopePresence}
	hub.EventCh <- ev

	assert.Equal(t, ev, receive(t, ada))
	assert.Equal(t, ev, receive(t, bob))
}

func TestHubDeliversToEverySubscriptionOfAUser(t *testing.T) {
	hub := newRunningHub()

	tab1 := newMockClient("user-ada", 8)
	tab2 := newMockClient("user-ada", 8)
	hub.RegisterCh <- tab1
	hub.RegisterCh <- tab2

	ev := models.Event{Scope: models.EventScopeMessage, UserIDs: []string{"user-ada"}}
	hub.EventCh <- ev

	assert.Equal(t, ev, receive(t, tab1))
	assert.Equal(t, ev, receive(t, tab2))
}

func TestHubUnregisterStopsDelivery(t *testing.T) {
	hub := newRunningHub()

	ada := newMockClient("user-ada", 8)
	hub.RegisterCh <- ada
	hub.UnregisterCh <- ada

	hub.EventCh <- models.Event{Scope: models.EventScopeMessage, UserIDs: []string{"user-ada"}}
	assertNothingDelivered(t, ada)
}

func TestHubDropsSlowSubscribers(t *testing.T) {
	hub := newRunningHub()

	// Zero buffer and nobody reading: the first delivery cannot be
	// accepted, so the hub drops the subscription instead of blocking.
	slow := newMockClient("user-slow", 0)
	healthy := newMockClient("user-healthy", 8)
	hub.RegisterCh <- slow
	hub.RegisterCh <- healthy

	ev := models.Event{Scope: models.EventScopePresence}
	hub.EventCh <- ev

	assert.Equal(t, ev, receive(t, healthy))
	select {
	case <-slow.closed:
	case <-time.After(time.Second):
		t.Fatal("slow client was not closed")
	}

	// Later events no longer reach the dropped client.
	hub.EventCh <- models.Event{Scope: models.EventScopePresence}
	assert.Equal(t, models.Event{Scope: models.EventScopePresence}, receive(t, healthy))
	require.Empty(t, slow.send)
}

func TestHubDropMidDeliveryReachesRemainingSubscriptions(t *testing.T) {
	hub := newRunningHub()

	// Three subscriptions for one user, the first of them slow. Dropping
	// it must not disturb delivery to the other two.
	slow := newMockClient("user-ada", 0)
	tab2 := newMockClient("user-ada", 8)
	tab3 := newMockClient("user-ada", 8)
	hub.RegisterCh <- slow
	hub.RegisterCh <- tab2
	hub.RegisterCh <- tab3

	ev := models.Event{Scope: models.EventScopeMessage, UserIDs: []string{"user-ada"}}
	hub.EventCh <- ev

	assert.Equal(t, ev, receive(t, tab2))
	assert.Equal(t, ev, receive(t, tab3))
	assertNothingDelivered(t, tab2)
	assertNothingDelivered(t, tab3)

	select {
	case <-slow.closed:
	case <-time.After(time.Second):
		t.Fatal("slow client was not closed")
	}
}

func TestHubDropsSeveralSlowSubscribersInOneDelivery(t *testing.T) {
	hub := newRunningHub()

	// Two slow subscriptions around a healthy one. Both must be dropped
	// and closed exactly once; mockClient.Close panics on a second call.
	slow1 := newMockClient("user-ada", 0)
	healthy := newMockClient("user-ada", 8)
	slow2 := newMockClient("user-ada", 0)
	hub.RegisterCh <- slow1
	hub.RegisterCh <- healthy
	hub.RegisterCh <- slow2

	ev := models.Event{Scope: models.EventScopeMessage, UserIDs: []string{"user-ada"}}
	hub.EventCh <- ev

	assert.Equal(t, ev, receive(t, healthy))
	for _, dropped := range []*mockClient{slow1, slow2} {
		select {
		case <-dropped.closed:
		case <-time.After(time.Second):
			t.Fatal("slow client was not closed")
		}
	}

	// The dispatcher survived and still serves the healthy subscription.
	hub.EventCh <- ev
	assert.Equal(t, ev, receive(t, healthy))
}
