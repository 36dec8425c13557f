package checker

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/saaga0h/jeeves-wellbeing/e2e/internal/observer"
	"github.com/saaga0h/jeeves-wellbeing/e2e/internal/scenario"
)

func TestMatch(t *testing.T) {
	tests := []struct {
		name     string
		actual   interface{}
		expected interface{}
		want     bool
	}{
		{"both nil", nil, nil, true},
		{"nil actual", nil, "x", false},
		{"string equal", "heavy_rain", "heavy_rain", true},
		{"string differs", "rain", "heavy_rain", false},
		{"wildcard", "anything", "*", true},
		{"regex", "Indoor Exercise", "~^Indoor~", true},
		{"regex miss", "Reading", "~^Indoor~", false},
		{"greater", 0.8, ">0.5", true},
		{"less or equal", 1.0, "<=1", true},
		{"less fails", 1.2, "<1", false},
		{"comparison on text number", "3", ">=1", true},
		{"int vs float", 2400.0, 2400, true},
		{"number mismatch", 2399.0, 2400, false},
		{"number vs string", "2400", 2400, true},
		{"text scalar", 12.0, "12", true},
		{"bool", true, true, true},
		{"bool type mismatch", "true", true, false},
		{"map subset", map[string]interface{}{"kind": "day_scored", "extra": 1.0}, map[string]interface{}{"kind": "day_scored"}, true},
		{"map missing key", map[string]interface{}{"kind": "x"}, map[string]interface{}{"data": "*"}, false},
		{"nested", map[string]interface{}{"data": map[string]interface{}{"steps": 9000.0}}, map[string]interface{}{"data": map[string]interface{}{"steps": ">5000"}}, true},
		{"slice", []interface{}{"a", 1.0}, []interface{}{"a", 1}, true},
		{"slice length", []interface{}{"a"}, []interface{}{"a", "b"}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, reason := Match(tt.actual, tt.expected)
			assert.Equal(t, tt.want, got, reason)
			if !tt.want {
				assert.NotEmpty(t, reason)
			}
		})
	}
}

func TestTopicMatches(t *testing.T) {
	assert.True(t, TopicMatches("wellbeing/#", "wellbeing/event/level_up/default"))
	assert.True(t, TopicMatches("wellbeing/event/+/default", "wellbeing/event/level_up/default"))
	assert.True(t, TopicMatches("wellbeing/raw/day/phone", "wellbeing/raw/day/phone"))
	assert.False(t, TopicMatches("wellbeing/event/+", "wellbeing/event/level_up/default"))
	assert.False(t, TopicMatches("wellbeing/raw/day/+", "wellbeing/raw/action/phone"))
}

func TestLookupPath(t *testing.T) {
	payload := map[string]interface{}{
		"data": []interface{}{
			map[string]interface{}{"id": "abc"},
		},
	}

	v, ok := LookupPath(payload, "data.0.id")
	assert.True(t, ok)
	assert.Equal(t, "abc", v)

	_, ok = LookupPath(payload, "data.1.id")
	assert.False(t, ok)
	_, ok = LookupPath(payload, "data.x")
	assert.False(t, ok)
	_, ok = LookupPath("scalar", "a")
	assert.False(t, ok)

	v, ok = LookupPath(payload, "")
	assert.True(t, ok)
	assert.Equal(t, payload, v)
}

func TestCheckExpectation(t *testing.T) {
	messages := []observer.CapturedMessage{
		{Topic: "wellbeing/event/recommendations/2024-10-14", Payload: map[string]interface{}{"kind": "recommendations", "n": 1.0}},
		{Topic: "wellbeing/event/day_scored/2024-10-14", Payload: map[string]interface{}{"kind": "day_scored"}},
		{Topic: "wellbeing/event/recommendations/2024-10-15", Payload: map[string]interface{}{"kind": "recommendations", "n": 2.0}},
	}

	ok, reason, actual := CheckExpectation(scenario.Expectation{
		Topic:   "wellbeing/event/recommendations/+",
		Payload: map[string]interface{}{"n": 2},
	}, messages)
	assert.True(t, ok, reason)
	assert.Equal(t, 2.0, actual.(map[string]interface{})["n"])

	ok, _, _ = CheckExpectation(scenario.Expectation{Topic: "wellbeing/event/recommendations/+", MinCount: 3}, messages)
	assert.False(t, ok)

	ok, reason, _ = CheckExpectation(scenario.Expectation{Topic: "wellbeing/event/level_up/+", MinCount: 1}, messages)
	assert.False(t, ok)
	assert.Contains(t, reason, "no messages")

	v, err := LatestValue(messages, "wellbeing/event/recommendations/+", "n")
	assert.NoError(t, err)
	assert.Equal(t, 2.0, v)

	_, err = LatestValue(messages, "wellbeing/event/goal_completed/+", "id")
	assert.Error(t, err)
}

func TestCompareApproximate(t *testing.T) {
	assert.NoError(t, compareApproximate(int64(11), "10"))
	assert.NoError(t, compareApproximate("8", "10"))
	assert.Error(t, compareApproximate(13.0, "10"))
	assert.Error(t, compareApproximate(10.0, "ten"))
}
