package pubsub

import (
	"context"
	"encoding/json"
)

// Topic names used by the analyzer
const (
	// TopicStatus carries analysis progress updates
	TopicStatus = "status"
	// TopicResult carries completed analysis results
	TopicResult = "result"
)

// Event represents a pub/sub event
type Event struct {
	Topic   string          `json:"topic"`
	Type    string          `json:"type"` // e.g., "scanning", "analyzing", "ready"
	Data    json.RawMessage `json:"data"`
	Version int             `json:"version"` // per-topic sequence number
}

// Subscription represents a client subscription to a topic
type Subscription interface {
	// Topic returns the subscription topic
	Topic() string

	// Events returns a channel for receiving events
	Events() <-chan Event

	// Close closes the subscription
	Close() error
}

// Publisher manages pub/sub subscriptions and event publishing
type Publisher interface {
	// Subscribe creates a new subscription to a topic.
	// Context cancellation closes the subscription.
	Subscribe(ctx context.Context, topic string) (Subscription, error)

	// Publish sends an event to all subscribers of a topic
	Publish(topic string, eventType string, data interface{}) error

	// Close shuts down the publisher and all subscriptions
	Close() error
}

// AnalysisStatus is the payload published on TopicStatus
type AnalysisStatus struct {
	State   string `json:"state"` // scanning, analyzing, ready, error
	Message string `json:"message"`
	Modules int    `json:"modules"`
	Cycles  int    `json:"cycles"`
}
