// Package mqtt wraps the Paho client behind a small interface and names the
// wellbeing topic tree.
package mqtt

import "context"

// Client is the broker connection used by agents
type Client interface {
	Connect(ctx context.Context) error
	Disconnect()

	// Subscribe registers handler for topic; wildcards are allowed
	Subscribe(topic string, qos byte, handler MessageHandler) error

	Publish(topic string, qos byte, retained bool, payload []byte) error

	IsConnected() bool
}

// MessageHandler is called for every message on a subscribed topic
type MessageHandler func(Message)

// Message is one inbound MQTT message
type Message interface {
	Topic() string
	Payload() []byte

	// Ack acknowledges the message (for QoS > 0)
	Ack()
}
