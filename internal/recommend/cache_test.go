package recommend

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/saaga0h/jeeves-wellbeing/internal/types"
	"github.com/saaga0h/jeeves-wellbeing/pkg/redis"
)

func TestCache_RoundTrip(t *testing.T) {
	ctx := context.Background()
	mem := redis.NewMockClient()
	cache := NewCache(mem, 24*time.Hour, testLogger())

	_, ok, err := cache.Get(ctx, testNow)
	require.NoError(t, err)
	assert.False(t, ok)

	g := NewGenerator(2, 0, testLogger())
	recs, err := g.Generate(types.DayRecord{Date: testNow}, Forecast{{Time: testNow.Add(time.Hour), Weather: sunny()}}, nil, testNow)
	require.NoError(t, err)

	require.NoError(t, cache.Put(ctx, testNow.Add(5*time.Hour), recs))
	assert.Equal(t, 24*time.Hour, mem.TTL(redis.RecommendationsKey("2024-06-15")))

	got, ok, err := cache.Get(ctx, testNow)
	require.NoError(t, err)
	require.True(t, ok)
	require.Len(t, got, 2)
	assert.Equal(t, recs[0].ID, got[0].ID)
	assert.Equal(t, recs[0].ActivityType, got[0].ActivityType)
	assert.InDelta(t, recs[0].OverallScore, got[0].OverallScore, 1e-12)

	require.NoError(t, cache.Invalidate(ctx, testNow))
	_, ok, err = cache.Get(ctx, testNow)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestCache_CorruptEntry(t *testing.T) {
	mem := redis.NewMockClient()
	mem.Put(redis.RecommendationsKey("2024-06-15"), "{not json")
	cache := NewCache(mem, time.Hour, testLogger())

	_, ok, err := cache.Get(context.Background(), testNow)
	assert.Error(t, err)
	assert.False(t, ok)
}
