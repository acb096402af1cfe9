// Package mqtt defines the broker-facing event feed used by the service.
package mqtt

import (
	"errors"

	"github.com/kilianp07/ridesim/core/events"
)

// ErrPublishFailed is returned when an event could not be delivered after
// every retry.
var ErrPublishFailed = errors.New("mqtt publish failed")

// Publisher forwards simulation events to a message broker.
type Publisher interface {
	PublishEvent(ev events.Event) error
	Close()
}

// Message is the JSON envelope written to the broker.
type Message struct {
	MessageID string       `json:"message_id"`
	Type      string       `json:"type"`
	Tick      uint64       `json:"tick"`
	Time      int64        `json:"time"`
	Payload   events.Event `json:"payload"`
}

// EventTopic returns the topic an event of the given kind is published to.
func EventTopic(prefix, kind string) string {
	return prefix + "/events/" + kind
}

// StatusTopic carries the retained online/offline presence of the service.
func StatusTopic(prefix string) string {
	return prefix + "/status"
}
