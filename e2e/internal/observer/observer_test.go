package observer

import (
	"encoding/json"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/saaga0h/jeeves-wellbeing/pkg/mqtt"
)

func TestObserverCapturesWellbeingTraffic(t *testing.T) {
	client := mqtt.NewMockClient()
	obs := NewObserver(client, slog.New(slog.NewTextHandler(io.Discard, nil)))

	start := time.Date(2024, 6, 15, 12, 0, 0, 0, time.UTC)
	clock := start
	obs.now = func() time.Time { return clock }

	require.NoError(t, obs.Start())

	clock = start.Add(1500 * time.Millisecond)
	assert.True(t, client.Deliver("wellbeing/event/day_scored/2024-06-15", []byte(`{"kind":"day_scored","data":{"steps":9000}}`)))
	assert.True(t, client.Deliver("wellbeing/raw/day/phone", []byte("not json")))
	assert.False(t, client.Deliver("automation/raw/motion/hall", []byte(`{}`)))

	msgs := obs.GetAllMessages()
	require.Len(t, msgs, 2)
	assert.Equal(t, 2, obs.GetMessageCount())
	assert.Equal(t, start, obs.GetStartTime())

	assert.Equal(t, 1.5, msgs[0].Elapsed)
	payload, ok := msgs[0].Payload.(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, "day_scored", payload["kind"])
	assert.Equal(t, "not json", msgs[1].Payload)

	path := filepath.Join(t.TempDir(), "captures", "run.json")
	require.NoError(t, obs.SaveCapture(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	var saved []CapturedMessage
	require.NoError(t, json.Unmarshal(data, &saved))
	assert.Len(t, saved, 2)
	assert.Equal(t, "wellbeing/raw/day/phone", saved[1].Topic)
}
