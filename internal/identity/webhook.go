package identity

import (
	"fmt"
	"strings"
	"time"

	"chatterbox/backend/internal/models"
)

// ProviderEvent is the webhook payload delivered by the identity
// provider's event feed.
type ProviderEvent struct {
	Type string            `json:"type"`
	Data ProviderEventData `json:"data"`
}

type ProviderEventData struct {
	ID             string                 `json:"id"`
	EmailAddresses []ProviderEmailAddress `json:"email_addresses"`
	FirstName      string                 `json:"first_name"`
	LastName       string                 `json:"last_name"`
	ImageURL       string                 `json:"image_url"`
	Username       string                 `json:"username"`
}

type ProviderEmailAddress struct {
	EmailAddress string `json:"email_address"`
}

const (
	EventUserCreated = "user.created"
	EventUserUpdated = "user.updated"
	EventUserDeleted = "user.deleted"
)

// ApplyProviderEvent reacts to one provider event: created/updated become
// an idempotent upsert by external id, deleted removes the record.
// Unknown event types are ignored.
func (r *Resolver) ApplyProviderEvent(ev ProviderEvent) error {
	switch ev.Type {
	case EventUserCreated, EventUserUpdated:
		return r.upsertFromProvider(ev.Data)
	case EventUserDeleted:
		if ev.Data.ID == "" {
			return fmt.Errorf("user.deleted event without id")
		}
		return r.store.DeleteUserByExternalID(ev.Data.ID)
	}
	return nil
}

func (r *Resolver) upsertFromProvider(data ProviderEventData) error {
	email := ""
	if len(data.EmailAddresses) > 0 {
		email = data.EmailAddresses[0].EmailAddress
	}
	name := strings.TrimSpace(strings.Join(
		nonEmpty(data.FirstName, data.LastName), " "))
	if name == "" {
		name = "User"
	}

	existing, err := r.store.FindUserByExternalID(data.ID)
	if err != nil {
		return err
	}
	if existing != nil {
		existing.Email = email
		existing.Name = name
		existing.AvatarURL = data.ImageURL
		if data.Username != "" {
			existing.Username = &data.Username
		}
		existing.IsOnline = true
		existing.LastSeen = time.Now()
		return r.store.SaveUser(existing)
	}

	user := &models.User{
		ExternalID: data.ID,
		Email:      email,
		Name:       name,
		AvatarURL:  data.ImageURL,
		IsOnline:   true,
		LastSeen:   time.Now(),
	}
	if data.Username != "" {
		user.Username = &data.Username
	}
	return r.store.CreateUser(user)
}

func nonEmpty(parts ...string) []string {
	out := parts[:0:0]
	for _, p := range parts {
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}
