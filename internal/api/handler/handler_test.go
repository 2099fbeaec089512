package handler_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"chatterbox/backend/internal/api/handler"
	"chatterbox/backend/internal/chat"
	"chatterbox/backend/internal/chathub"
	"chatterbox/backend/internal/identity"
	"chatterbox/backend/internal/models"
	"chatterbox/backend/internal/storage/storagetest"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testSecret = []byte("handler-test-secret")

func init() {
	gin.SetMode(gin.TestMode)
}

type testServer struct {
	router *gin.Engine
	store  *storagetest.Fake
}

func newTestServer() *testServer {
	store := storagetest.NewFake()
	resolver := identity.NewResolver(store)
	profiles := identity.NewProfiles(store, resolver)
	directory := chat.NewDirectory(store, resolver)
	ledger := chat.NewLedger(store, resolver)
	typing := chat.NewTyping(store, resolver)
	projector := chat.NewProjector(store, resolver, directory)
	hub := chathub.NewHub(nil, nil)

	router := gin.New()
	h := handler.NewHandler(resolver, profiles, directory, ledger, typing, projector, hub, nil, testSecret)
	h.RegisterRoutes(router)

	return &testServer{router: router, store: store}
}

// do issues a request, optionally authenticated as the given subject.
func (s *testServer) do(t *testing.T, method, path, subject string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if subject != "" {
		token, err := identity.MintToken(testSecret, identity.Identity{Subject: subject}, time.Hour)
		require.NoError(t, err)
		req.Header.Set("Authorization", "Bearer "+token)
	}

	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
	return out
}

func TestSyncAndCurrentUser(t *testing.T) {
	s := newTestServer()

	w := s.do(t, http.MethodPost, "/api/users/sync", "user_a", nil)
	require.Equal(t, http.StatusOK, w.Code)
	created := decode[models.User](t, w)
	require.NotEmpty(t, created.ID)

	record, err := s.store.FindUserByExternalID("user_a")
	require.NoError(t, err)
	require.NotNil(t, record)
	assert.Equal(t, created.ID, record.ID)

	w = s.do(t, http.MethodGet, "/api/users/me", "user_a", nil)
	require.Equal(t, http.StatusOK, w.Code)
	me := decode[models.User](t, w)
	assert.Equal(t, created.ID, me.ID)
}

func TestCurrentUserWithoutTokenIsNull(t *testing.T) {
	s := newTestServer()

	w := s.do(t, http.MethodGet, "/api/users/me", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "null", w.Body.String())
}

func TestDirectMessagingFlow(t *testing.T) {
	s := newTestServer()
	s.store.AddUser("user_a", "Ada")
	bob := s.store.AddUser("user_b", "Bob")

	// Before any conversation exists the probe returns null.
	w := s.do(t, http.MethodGet, "/api/conversations/direct/"+bob.ID, "user_a", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "null", w.Body.String())

	w = s.do(t, http.MethodPost, "/api/conversations/direct", "user_a", gin.H{"userId": bob.ID})
	require.Equal(t, http.StatusOK, w.Code)
	conv := decode[models.Conversation](t, w)
	require.NotEmpty(t, conv.ID)

	w = s.do(t, http.MethodPost, "/api/conversations/"+conv.ID+"/messages", "user_a", gin.H{"text": "hello"})
	require.Equal(t, http.StatusCreated, w.Code)
	msg := decode[models.Message](t, w)
	assert.Equal(t, "hello", msg.Body)

	w = s.do(t, http.MethodGet, "/api/conversations/"+conv.ID+"/messages", "user_b", nil)
	require.Equal(t, http.StatusOK, w.Code)
	views := decode[[]models.MessageView](t, w)
	require.Len(t, views, 1)
	assert.Equal(t, "Ada", views[0].SenderName)
	assert.False(t, views[0].IsMe)

	w = s.do(t, http.MethodPost, "/api/conversations/"+conv.ID+"/read", "user_b", nil)
	require.Equal(t, http.StatusOK, w.Code)

	w = s.do(t, http.MethodGet, "/api/conversations", "user_b", nil)
	require.Equal(t, http.StatusOK, w.Code)
	sidebar := decode[[]models.ConversationView](t, w)
	require.Len(t, sidebar, 1)
	assert.Equal(t, int64(0), sidebar[0].UnreadCount)
}

func TestGroupLifecycleOverHTTP(t *testing.T) {
	s := newTestServer()
	s.store.AddUser("user_a", "Ada")
	bob := s.store.AddUser("user_b", "Bob")
	cat := s.store.AddUser("user_c", "Cat")
	dan := s.store.AddUser("user_d", "Dan")

	w := s.do(t, http.MethodPost, "/api/groups", "user_a", gin.H{
		"name":      "Book Club",
		"memberIds": []string{bob.ID, cat.ID},
	})
	require.Equal(t, http.StatusCreated, w.Code)
	conv := decode[models.Conversation](t, w)

	w = s.do(t, http.MethodPost, "/api/groups/"+conv.ID+"/members", "user_a", gin.H{"userId": dan.ID})
	require.Equal(t, http.StatusOK, w.Code)

	// Duplicate add conflicts.
	w = s.do(t, http.MethodPost, "/api/groups/"+conv.ID+"/members", "user_a", gin.H{"userId": dan.ID})
	require.Equal(t, http.StatusConflict, w.Code)
	resp := decode[map[string]string](t, w)
	assert.Equal(t, "ALREADY_MEMBER", resp["code"])

	// Non-admin cannot remove members.
	w = s.do(t, http.MethodDelete, "/api/groups/"+conv.ID+"/members/"+cat.ID, "user_b", nil)
	require.Equal(t, http.StatusForbidden, w.Code)

	w = s.do(t, http.MethodGet, "/api/groups/"+conv.ID, "user_a", nil)
	require.Equal(t, http.StatusOK, w.Code)
	view := decode[models.GroupView](t, w)
	assert.Len(t, view.Members, 4)
}

func TestErrorStatusMapping(t *testing.T) {
	s := newTestServer()
	s.store.AddUser("user_a", "Ada")
	bob := s.store.AddUser("user_b", "Bob")

	w := s.do(t, http.MethodPost, "/api/conversations/direct", "user_a", gin.H{"userId": bob.ID})
	require.Equal(t, http.StatusOK, w.Code)
	conv := decode[models.Conversation](t, w)

	// No token on a mutation: 401.
	w = s.do(t, http.MethodPost, "/api/conversations/"+conv.ID+"/messages", "", gin.H{"text": "hi"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	// Token without a user record: 404 with the transient-state code.
	w = s.do(t, http.MethodPost, "/api/conversations/"+conv.ID+"/messages", "user_ghost", gin.H{"text": "hi"})
	assert.Equal(t, http.StatusNotFound, w.Code)
	resp := decode[map[string]string](t, w)
	assert.Equal(t, "USER_NOT_FOUND", resp["code"])

	// Blank text: 400.
	w = s.do(t, http.MethodPost, "/api/conversations/"+conv.ID+"/messages", "user_a", gin.H{"text": "  "})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	// Editing someone else's message: 403.
	w = s.do(t, http.MethodPost, "/api/conversations/"+conv.ID+"/messages", "user_a", gin.H{"text": "mine"})
	require.Equal(t, http.StatusCreated, w.Code)
	msg := decode[models.Message](t, w)
	w = s.do(t, http.MethodPatch, "/api/messages/"+msg.ID, "user_b", gin.H{"text": "hijack"})
	assert.Equal(t, http.StatusForbidden, w.Code)

	// Editing a deleted message: 409.
	w = s.do(t, http.MethodDelete, "/api/messages/"+msg.ID, "user_a", nil)
	require.Equal(t, http.StatusOK, w.Code)
	w = s.do(t, http.MethodPatch, "/api/messages/"+msg.ID, "user_a", gin.H{"text": "undelete"})
	assert.Equal(t, http.StatusConflict, w.Code)

	// Unknown group: 404.
	w = s.do(t, http.MethodGet, "/api/groups/missing", "user_a", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestIdentityWebhook(t *testing.T) {
	s := newTestServer()

	w := s.do(t, http.MethodPost, "/webhooks/identity", "", gin.H{
		"type": "user.created",
		"data": gin.H{
			"id":              "user_hook",
			"first_name":      "Grace",
			"last_name":       "Hopper",
			"email_addresses": []gin.H{{"email_address": "grace@example.com"}},
		},
	})
	require.Equal(t, http.StatusOK, w.Code)

	user, err := s.store.FindUserByExternalID("user_hook")
	require.NoError(t, err)
	require.NotNil(t, user)
	assert.Equal(t, "Grace Hopper", user.Name)

	w = s.do(t, http.MethodPost, "/webhooks/identity", "", gin.H{
		"type": "user.deleted",
		"data": gin.H{"id": "user_hook"},
	})
	require.Equal(t, http.StatusOK, w.Code)

	user, err = s.store.FindUserByExternalID("user_hook")
	require.NoError(t, err)
	assert.Nil(t, user)
}

func TestTypingOverHTTP(t *testing.T) {
	s := newTestServer()
	s.store.AddUser("user_a", "Ada")
	bob := s.store.AddUser("user_b", "Bob")

	w := s.do(t, http.MethodPost, "/api/conversations/direct", "user_a", gin.H{"userId": bob.ID})
	require.Equal(t, http.StatusOK, w.Code)
	conv := decode[models.Conversation](t, w)

	w = s.do(t, http.MethodPost, "/api/conversations/"+conv.ID+"/typing", "user_b", gin.H{"isTyping": true})
	require.Equal(t, http.StatusOK, w.Code)

	w = s.do(t, http.MethodGet, "/api/conversations/"+conv.ID+"/typing", "user_a", nil)
	require.Equal(t, http.StatusOK, w.Code)
	rows := decode[[]models.TypingIndicator](t, w)
	require.Len(t, rows, 1)
	assert.Equal(t, bob.ID, rows[0].UserID)
}
