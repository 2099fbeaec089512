// Package identity maps verified caller identities onto internal user
// records and keeps those records in sync with the external provider.
package identity

import (
	"strings"
	"time"

	"chatterbox/backend/internal/apperr"
	"chatterbox/backend/internal/models"
	"chatterbox/backend/internal/storage"
)

// Resolver turns an Identity into the internal User every other service
// keys on.
type Resolver struct {
	store storage.Storage
}

func NewResolver(store storage.Storage) *Resolver {
	return &Resolver{store: store}
}

// Resolve returns the user record for id. A nil identity fails with
// Unauthenticated; a valid identity with no record yet fails with
// UserNotFound — a normal transient state between provider signup and the
// first sync. Mutating operations use this and fail hard.
func (r *Resolver) Resolve(id *Identity) (*models.User, error) {
	if id == nil {
		return nil, apperr.Unauthenticated()
	}
	user, err := r.store.FindUserByExternalID(id.Subject)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, apperr.UserNotFound()
	}
	return user, nil
}

// ResolveOrNil is the personalization variant: reads that only use the
// caller to annotate results ("is this message mine") treat a missing
// user as an anonymous viewer instead of failing the whole read.
func (r *Resolver) ResolveOrNil(id *Identity) (*models.User, error) {
	if id == nil {
		return nil, nil
	}
	user, err := r.store.FindUserByExternalID(id.Subject)
	if err != nil {
		return nil, err
	}
	return user, nil
}

// Sync creates the user record on first authenticated access, filling the
// profile from token claims. Idempotent: an existing record is returned
// untouched.
func (r *Resolver) Sync(id *Identity) (*models.User, error) {
	if id == nil {
		return nil, apperr.Unauthenticated()
	}
	existing, err := r.store.FindUserByExternalID(id.Subject)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return existing, nil
	}

	user := &models.User{
		ExternalID: id.Subject,
		Email:      id.Email,
		Name:       id.Name,
		AvatarURL:  id.PictureURL,
		IsOnline:   true,
		LastSeen:   time.Now(),
	}
	if user.Name == "" {
		user.Name = "Anonymous"
	}
	if uname := usernameFromIdentity(id); uname != "" {
		user.Username = &uname
	}
	if err := r.store.CreateUser(user); err != nil {
		return nil, err
	}
	return user, nil
}

// usernameFromIdentity falls back to the tail of the provider subject
// ("user_2ab…" -> "2ab…") when the token carries no nickname.
func usernameFromIdentity(id *Identity) string {
	if id.Nickname != "" {
		return id.Nickname
	}
	if _, tail, ok := strings.Cut(id.Subject, "_"); ok && tail != "" {
		return tail
	}
	return ""
}
