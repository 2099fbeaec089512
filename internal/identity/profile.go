package identity

import (
	"strings"
	"time"

	"chatterbox/backend/internal/apperr"
	"chatterbox/backend/internal/models"
	"chatterbox/backend/internal/storage"
)

// Profiles serves the user-directory reads and the profile/presence
// writes of the catalog.
type Profiles struct {
	store    storage.Storage
	resolver *Resolver
}

func NewProfiles(store storage.Storage, resolver *Resolver) *Profiles {
	return &Profiles{store: store, resolver: resolver}
}

// CurrentUser returns the caller's record, or nil for an unresolved
// identity — this read personalizes, it never gates.
func (p *Profiles) CurrentUser(id *Identity) (*models.User, error) {
	return p.resolver.ResolveOrNil(id)
}

// ListUsers returns every known user except the caller.
func (p *Profiles) ListUsers(id *Identity) ([]models.User, error) {
	if id == nil {
		return []models.User{}, nil
	}
	users, err := p.store.ListUsers()
	if err != nil {
		return nil, err
	}
	out := make([]models.User, 0, len(users))
	for _, u := range users {
		if u.ExternalID != id.Subject {
			out = append(out, u)
		}
	}
	return out, nil
}

// GetUser resolves any user by internal id.
func (p *Profiles) GetUser(userID string) (*models.User, error) {
	user, err := p.store.FindUserByID(userID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, apperr.NotFound("user")
	}
	return user, nil
}

// UpdatePresence flips the caller's online flag and bumps last-seen.
// Degrades to a no-op for unresolved identities: a presence ping must
// never surface an error to the client.
func (p *Profiles) UpdatePresence(id *Identity, isOnline bool) error {
	user, err := p.resolver.ResolveOrNil(id)
	if err != nil || user == nil {
		return err
	}
	user.IsOnline = isOnline
	user.LastSeen = time.Now()
	if err := p.store.SaveUser(user); err != nil {
		return err
	}
	return p.store.PublishEvent(models.Event{Scope: models.EventScopePresence})
}

// UpdateProfile patches the caller's display name and username. Usernames
// are globally unique; taking another user's name fails with a
// ValidationError.
func (p *Profiles) UpdateProfile(id *Identity, name, username *string) (*models.User, error) {
	user, err := p.resolver.Resolve(id)
	if err != nil {
		return nil, err
	}

	if name != nil {
		trimmed := strings.TrimSpace(*name)
		if trimmed == "" {
			return nil, apperr.Validation("display name cannot be empty")
		}
		user.Name = trimmed
	}
	if username != nil {
		trimmed := strings.TrimSpace(*username)
		if trimmed == "" {
			return nil, apperr.Validation("username cannot be empty")
		}
		holder, err := p.store.FindUserByUsername(trimmed)
		if err != nil {
			return nil, err
		}
		if holder != nil && holder.ID != user.ID {
			return nil, apperr.Validation("username already taken")
		}
		user.Username = &trimmed
	}

	if err := p.store.SaveUser(user); err != nil {
		return nil, err
	}
	if err := p.store.PublishEvent(models.Event{Scope: models.EventScopePresence}); err != nil {
		return nil, err
	}
	return user, nil
}
