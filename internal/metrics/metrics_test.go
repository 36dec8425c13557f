package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCounters(t *testing.T) {
	m := New()

	m.DayScored(72.5)
	m.DayScored(64)
	m.AchievementUnlocked("GOLD")
	m.LevelUp(2)
	m.LevelUp(0)
	m.Conflict("goal")

	assert.Equal(t, 2.0, testutil.ToFloat64(m.daysScored))
	assert.Equal(t, 64.0, testutil.ToFloat64(m.wellbeing))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.unlocks.WithLabelValues("GOLD")))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.levelUps))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.conflicts.WithLabelValues("goal")))
}

func TestNilMetricsIsSafe(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.DayScored(1)
		m.Message("day", "ok")
		m.CacheHit()
		m.PredictionValidated("GOOD")
	})
}

func TestWrapHandlerAndExposition(t *testing.T) {
	m := New()
	h := m.WrapHandler("/api/level", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	}))

	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/api/level", nil))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.httpRequests.WithLabelValues("/api/level", "418")))

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), "wellbeing_http_requests_total")
}
