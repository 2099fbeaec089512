// Package chathub fans push invalidation events out to subscribed
// clients. Mutations publish events through Redis; every instance's hub
// receives them and pokes its local websocket subscribers. Delivery is
// best-effort — an event only tells a client to refetch.
package chathub

import (
	"encoding/json"
	"log"

	"chatterbox/backend/internal/metrics"
	"chatterbox/backend/internal/models"
	"chatterbox/backend/internal/storage"
)

// Hub tracks the live subscriptions of this instance, keyed by user id.
// A user may hold several subscriptions at once (multiple tabs/devices).
// All state is owned by the Run goroutine; everything else talks to it
// through the channels.
type Hub struct {
	Clients map[string][]Client

	RegisterCh   chan Client
	UnregisterCh chan Client
	EventCh      chan models.Event

	store   *storage.Service
	metrics *metrics.Collector
}

func NewHub(store *storage.Service, collector *metrics.Collector) *Hub {
	return &Hub{
		Clients:      make(map[string][]Client),
		RegisterCh:   make(chan Client),
		UnregisterCh: make(chan Client),
		EventCh:      make(chan models.Event, 64),
		store:        store,
		metrics:      collector,
	}
}

// Run is the hub's main dispatcher loop.
func (h *Hub) Run() {
	h.startEventListener()

	for {
		select {
		case client := <-h.RegisterCh:
			uid := client.GetUserID()
			h.Clients[uid] = append(h.Clients[uid], client)
			if h.metrics != nil {
				h.metrics.ClientConnected()
			}

		case client := <-h.UnregisterCh:
			h.removeClient(client)

		case ev := <-h.EventCh:
			h.dispatch(ev)
		}
	}
}

// startEventListener subscribes to the Redis event channel and feeds the
// dispatcher. Skipped when no store is wired (tests drive EventCh
// directly).
func (h *Hub) startEventListener() {
	if h.store == nil {
		return
	}
	go func() {
		pubsub := h.store.SubscribeEvents()
		defer pubsub.Close()

		for msg := range pubsub.Channel() {
			var ev models.Event
			if err := json.Unmarshal([]byte(msg.Payload), &ev); err != nil {
				log.Printf("ERROR: bad event payload on %s: %v", storage.EventChannel, err)
				continue
			}
			h.EventCh <- ev
		}
	}()
}

// dispatch delivers one event to its recipients. An empty recipient list
// means broadcast (presence changes concern everyone's contact list).
func (h *Hub) dispatch(ev models.Event) {
	if len(ev.UserIDs) == 0 {
		for uid := range h.Clients {
			h.deliverToUser(uid, ev)
		}
		return
	}
	for _, uid := range ev.UserIDs {
		h.deliverToUser(uid, ev)
	}
}

func (h *Hub) deliverToUser(userID string, ev models.Event) {
	// Iterate over a snapshot: removeClient compacts the live slice in
	// place, which would skip and revisit entries mid-loop.
	clients := append([]Client(nil), h.Clients[userID]...)
	for _, client := range clients {
		select {
		case client.GetSendChannel() <- ev:
		default:
			// Slow or dead subscriber: drop it rather than stall the
			// dispatcher.
			h.removeClient(client)
			client.Close()
		}
	}
}

func (h *Hub) removeClient(client Client) {
	uid := client.GetUserID()
	clients := h.Clients[uid]
	for i, c := range clients {
		if c == client {
			h.Clients[uid] = append(clients[:i], clients[i+1:]...)
			if h.metrics != nil {
				h.metrics.ClientDisconnected()
			}
			break
		}
	}
	if len(h.Clients[uid]) == 0 {
		delete(h.Clients, uid)
	}
}
