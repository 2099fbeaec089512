package storage

import (
	"encoding/json"

	"chatterbox/backend/internal/models"

	"github.com/redis/go-redis/v9"
)

// EventChannel is the Redis pub/sub channel carrying push invalidation
// events between server instances.
const EventChannel = "chatterbox:events"

// PublishEvent fans an invalidation event out through Redis so every
// instance's hub can poke its local subscribers.
func (s *Service) PublishEvent(ev models.Event) error {
	payload, err := json.Marshal(ev)
	if err != nil {
		return err
	}
	return s.Redis.Publish(s.Ctx, EventChannel, payload).Err()
}

// SubscribeEvents opens the pub/sub subscription consumed by the hub.
func (s *Service) SubscribeEvents() *redis.PubSub {
	return s.Redis.Subscribe(s.Ctx, EventChannel)
}
