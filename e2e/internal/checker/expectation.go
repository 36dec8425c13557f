package checker

import (
	"fmt"

	"github.com/saaga0h/jeeves-wellbeing/e2e/internal/observer"
	"github.com/saaga0h/jeeves-wellbeing/e2e/internal/scenario"
)

// CheckExpectation validates an MQTT expectation against captured messages.
// The latest message on a matching topic is compared against the payload.
func CheckExpectation(exp scenario.Expectation, messages []observer.CapturedMessage) (bool, string, interface{}) {
	var matching []observer.CapturedMessage
	for _, msg := range messages {
		if TopicMatches(exp.Topic, msg.Topic) {
			matching = append(matching, msg)
		}
	}

	if len(matching) == 0 {
		return false, fmt.Sprintf("no messages found for topic %q", exp.Topic), nil
	}

	if exp.MinCount > 0 && len(matching) < exp.MinCount {
		return false, fmt.Sprintf("expected at least %d messages on %q, got %d", exp.MinCount, exp.Topic, len(matching)), len(matching)
	}

	latest := matching[len(matching)-1]
	if len(exp.Payload) == 0 {
		return true, "", latest.Payload
	}

	payload, ok := latest.Payload.(map[string]interface{})
	if !ok {
		return false, fmt.Sprintf("payload is not a JSON object, got %T", latest.Payload), latest.Payload
	}

	if ok, reason := Match(payload, exp.Payload); !ok {
		return false, reason, latest.Payload
	}

	return true, "", latest.Payload
}

// LatestValue resolves path in the latest captured message whose topic
// matches filter
func LatestValue(messages []observer.CapturedMessage, filter, path string) (interface{}, error) {
	for i := len(messages) - 1; i >= 0; i-- {
		if !TopicMatches(filter, messages[i].Topic) {
			continue
		}
		value, ok := LookupPath(messages[i].Payload, path)
		if !ok {
			return nil, fmt.Errorf("path %q not found in latest message on %s", path, messages[i].Topic)
		}
		return value, nil
	}
	return nil, fmt.Errorf("no messages captured on %q", filter)
}
