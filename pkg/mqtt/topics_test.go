package mqtt

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseRawTopic(t *testing.T) {
	tests := []struct {
		topic      string
		wantKind   string
		wantSource string
		wantErr    bool
	}{
		{"wellbeing/raw/day/phone", "day", "phone", false},
		{"wellbeing/raw/action/app", "action", "app", false},
		{"wellbeing/raw/observed/watch", "observed", "watch", false},
		{"wellbeing/event/day_scored/2024-06-01", "", "", true},
		{"wellbeing/raw/day", "", "", true},
		{"wellbeing/raw//phone", "", "", true},
		{"automation/raw/motion/study", "", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.topic, func(t *testing.T) {
			kind, source, err := ParseRawTopic(tt.topic)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			assert.NoError(t, err)
			assert.Equal(t, tt.wantKind, kind)
			assert.Equal(t, tt.wantSource, source)
		})
	}
}

func TestTopicBuilders(t *testing.T) {
	assert.Equal(t, "wellbeing/raw/day/phone", RawTopic("day", "phone"))
	assert.Equal(t, "wellbeing/event/level_up/default", EventTopic(EventLevelUp, "default"))
}
