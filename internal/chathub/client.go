package chathub

import "chatterbox/backend/internal/models"

// Client is the interface for one subscribed connection. It abstracts the
// transport so the hub can fan events out without caring what is on the
// other end (a websocket in production, a buffered channel in tests).
type Client interface {
	// GetUserID returns the internal user id this subscription belongs to.
	GetUserID() string

	// GetSendChannel returns the channel the hub pushes invalidation
	// events into. Send-only from the hub's point of view.
	GetSendChannel() chan<- models.Event

	// Run starts the connection's read and write pumps.
	Run()
	// Close shuts the connection down and releases its channels.
	Close()
}
