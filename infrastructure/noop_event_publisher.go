package infrastructure

import (
	"piggyvault/domain/events"
)

// NoopEventPublisher is an event publisher that does nothing.
// Used by offline admin commands that must not require a NATS connection.
type NoopEventPublisher struct{}

// NewNoopEventPublisher creates a new no-op event publisher
func NewNoopEventPublisher() *NoopEventPublisher {
	return &NoopEventPublisher{}
}

// Publish does nothing with the event
func (n *NoopEventPublisher) Publish(event events.Event) error {
	return nil
}
