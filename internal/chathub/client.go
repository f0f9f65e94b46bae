package chathub

import "strangerchat/backend/internal/models"

// Client is the interface for any type of connection the hub delivers to.
// It abstracts the underlying transport so the hub can manage clients uniformly.
type Client interface {
	// GetID returns the registry identifier of the connection.
	GetID() string

	// GetSendChannel returns the channel the hub writes outbound events to.
	// The hub never blocks on it; a full channel drops the client.
	GetSendChannel() chan<- models.OutboundEvent

	// Ping asks the transport to check liveness. It must not block.
	Ping()

	// Run starts the client's read and write pumps.
	Run()
	// Close shuts the client down. The hub calls it at most once per
	// client, from its own goroutine.
	Close()
}
