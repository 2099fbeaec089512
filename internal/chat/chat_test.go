package chat_test

import (
	"chatterbox/backend/internal/chat"
	"chatterbox/backend/internal/identity"
	"chatterbox/backend/internal/models"
	"chatterbox/backend/internal/storage/storagetest"
)

// identityStub is a verified identity with no user record behind it.
var identityStub = identity.Identity{Subject: "user_ghost"}

// env wires the chat services over an in-memory store for behavioral
// tests.
type env struct {
	store     *storagetest.Fake
	resolver  *identity.Resolver
	directory *chat.Directory
	ledger    *chat.Ledger
	typing    *chat.Typing
	projector *chat.Projector
}

func newEnv() *env {
	store := storagetest.NewFake()
	resolver := identity.NewResolver(store)
	directory := chat.NewDirectory(store, resolver)
	return &env{
		store:     store,
		resolver:  resolver,
		directory: directory,
		ledger:    chat.NewLedger(store, resolver),
		typing:    chat.NewTyping(store, resolver),
		projector: chat.NewProjector(store, resolver, directory),
	}
}

// addUser seeds a user and returns both the record and the identity that
// resolves to it.
func (e *env) addUser(externalID, name string) (*models.User, *identity.Identity) {
	u := e.store.AddUser(externalID, name)
	return u, &identity.Identity{Subject: externalID, Name: name}
}
