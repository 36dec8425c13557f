// Package executor replays scenario events against a running wellbeing stack
// and checks the expectations.
package executor

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/saaga0h/jeeves-wellbeing/e2e/internal/checker"
	"github.com/saaga0h/jeeves-wellbeing/e2e/internal/observer"
	"github.com/saaga0h/jeeves-wellbeing/e2e/internal/scenario"
	"github.com/saaga0h/jeeves-wellbeing/pkg/mqtt"
)

// Payload tokens resolved at publish time
const (
	refPrefix  = "$ref:"
	tokenToday = "$today"
	tokenNow   = "$now"
)

// Player publishes raw wellbeing messages
type Player struct {
	client mqtt.Client
	now    func() time.Time
	logger *slog.Logger
}

// NewPlayer creates a player on an already connected client
func NewPlayer(client mqtt.Client, logger *slog.Logger) *Player {
	return &Player{client: client, now: time.Now, logger: logger}
}

// PublishEvent resolves tokens in the event payload and publishes it to
// wellbeing/raw/{kind}/{source} at QoS 1.
//
// String values are resolved as follows:
//
//	$today                 current UTC date, 2006-01-02
//	$now, $now+2h, $now-1h current time shifted by a duration, RFC 3339
//	$ref:<topic>:<path>    value at path in the latest captured message on topic
func (p *Player) PublishEvent(event scenario.Event, captured []observer.CapturedMessage) (string, error) {
	resolved, err := p.resolve(event.Payload, captured)
	if err != nil {
		return "", err
	}

	data, err := json.Marshal(resolved)
	if err != nil {
		return "", fmt.Errorf("failed to marshal payload: %w", err)
	}

	topic := mqtt.RawTopic(event.Kind, event.Source)
	if err := p.client.Publish(topic, 1, false, data); err != nil {
		return "", fmt.Errorf("failed to publish to %s: %w", topic, err)
	}

	p.logger.Debug("Published event", "topic", topic, "payload", string(data))
	return topic, nil
}

func (p *Player) resolve(value interface{}, captured []observer.CapturedMessage) (interface{}, error) {
	switch v := value.(type) {
	case map[string]interface{}:
		out := make(map[string]interface{}, len(v))
		for key, item := range v {
			r, err := p.resolve(item, captured)
			if err != nil {
				return nil, fmt.Errorf("field %q: %w", key, err)
			}
			out[key] = r
		}
		return out, nil
	case []interface{}:
		out := make([]interface{}, len(v))
		for i, item := range v {
			r, err := p.resolve(item, captured)
			if err != nil {
				return nil, fmt.Errorf("element %d: %w", i, err)
			}
			out[i] = r
		}
		return out, nil
	case string:
		return p.resolveString(v, captured)
	default:
		return value, nil
	}
}

func (p *Player) resolveString(s string, captured []observer.CapturedMessage) (interface{}, error) {
	switch {
	case s == tokenToday:
		return p.now().UTC().Format("2006-01-02"), nil

	case strings.HasPrefix(s, refPrefix):
		// The topic filter never contains ':'
		filter, path, found := strings.Cut(strings.TrimPrefix(s, refPrefix), ":")
		if !found {
			return nil, fmt.Errorf("reference %q must be $ref:<topic>:<path>", s)
		}
		return checker.LatestValue(captured, expandToday(filter, p.now()), path)

	case strings.HasPrefix(s, tokenNow):
		offset := strings.TrimPrefix(s, tokenNow)
		if offset == "" {
			return p.now().UTC().Format(time.RFC3339), nil
		}
		if offset[0] != '+' && offset[0] != '-' {
			return s, nil
		}
		d, err := time.ParseDuration(offset)
		if err != nil {
			return nil, fmt.Errorf("invalid time token %q: %w", s, err)
		}
		return p.now().UTC().Add(d).Format(time.RFC3339), nil
	}
	return s, nil
}

// expandToday replaces $today in expectation keys and queries
func expandToday(s string, now time.Time) string {
	return strings.ReplaceAll(s, tokenToday, now.UTC().Format("2006-01-02"))
}
