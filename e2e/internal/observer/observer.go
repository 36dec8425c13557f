// Package observer records every wellbeing message seen on the broker during
// a scenario run.
package observer

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/saaga0h/jeeves-wellbeing/pkg/mqtt"
)

// TopicAll is the filter the observer subscribes to
const TopicAll = "wellbeing/#"

// CapturedMessage represents a single MQTT message captured during observation
type CapturedMessage struct {
	Timestamp time.Time   `json:"timestamp"`
	Elapsed   float64     `json:"elapsed"`
	Topic     string      `json:"topic"`
	Payload   interface{} `json:"payload"`
}

// Observer captures wellbeing MQTT traffic for later analysis
type Observer struct {
	client    mqtt.Client
	messages  []CapturedMessage
	startTime time.Time
	mutex     sync.RWMutex
	now       func() time.Time
	logger    *slog.Logger
}

// NewObserver creates an observer on an already connected client
func NewObserver(client mqtt.Client, logger *slog.Logger) *Observer {
	return &Observer{
		client: client,
		now:    time.Now,
		logger: logger,
	}
}

// Start subscribes to the wellbeing topic tree
func (o *Observer) Start() error {
	o.startTime = o.now()

	if err := o.client.Subscribe(TopicAll, 0, o.messageHandler); err != nil {
		return fmt.Errorf("failed to subscribe to %s: %w", TopicAll, err)
	}

	o.logger.Info("Observer subscribed", "topic", TopicAll)
	return nil
}

func (o *Observer) messageHandler(msg mqtt.Message) {
	now := o.now()

	var payload interface{}
	if err := json.Unmarshal(msg.Payload(), &payload); err != nil {
		payload = string(msg.Payload())
	}

	captured := CapturedMessage{
		Timestamp: now,
		Elapsed:   now.Sub(o.startTime).Seconds(),
		Topic:     msg.Topic(),
		Payload:   payload,
	}

	o.mutex.Lock()
	o.messages = append(o.messages, captured)
	o.mutex.Unlock()

	o.logger.Debug("Captured message", "elapsed", fmt.Sprintf("%.2fs", captured.Elapsed), "topic", msg.Topic(), "size", len(msg.Payload()))
}

// GetAllMessages returns a copy of all captured messages
func (o *Observer) GetAllMessages() []CapturedMessage {
	o.mutex.RLock()
	defer o.mutex.RUnlock()

	messages := make([]CapturedMessage, len(o.messages))
	copy(messages, o.messages)
	return messages
}

// GetMessageCount returns the number of captured messages
func (o *Observer) GetMessageCount() int {
	o.mutex.RLock()
	defer o.mutex.RUnlock()
	return len(o.messages)
}

// GetStartTime returns when observation started
func (o *Observer) GetStartTime() time.Time {
	return o.startTime
}

// SaveCapture writes all captured messages to filename as JSON
func (o *Observer) SaveCapture(filename string) error {
	messages := o.GetAllMessages()

	data, err := json.MarshalIndent(messages, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal messages: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(filename), 0755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}

	if err := os.WriteFile(filename, data, 0644); err != nil {
		return fmt.Errorf("failed to save capture: %w", err)
	}

	o.logger.Info("Saved capture", "messages", len(messages), "file", filename)
	return nil
}
