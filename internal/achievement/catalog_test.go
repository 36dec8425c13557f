package achievement

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/saaga0h/jeeves-wellbeing/internal/types"
)

func TestLoadDefaultCatalog(t *testing.T) {
	catalog, err := LoadCatalog("")
	require.NoError(t, err)
	require.NotEmpty(t, catalog)

	registry := NewRegistry()
	for _, a := range catalog {
		assert.Equal(t, a.Tier.Points(), a.PointsValue, a.Key)
		assert.False(t, a.IsUnlocked, a.Key)
		if a.Type == types.AchievementSpecial {
			_, ok := registry.Lookup(a.Key)
			assert.True(t, ok, "special achievement %s has no predicate", a.Key)
		}
	}
}

func TestLoadCatalogFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "catalog.yaml")
	content := `
achievements:
  - key: custom
    title: Custom
    type: Cumulative
    category: fitness
    tier: diamond
    target: 5
    metric: photo_count
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	catalog, err := LoadCatalog(path)
	require.NoError(t, err)
	require.Len(t, catalog, 1)
	assert.Equal(t, types.AchievementCumulative, catalog[0].Type)
	assert.Equal(t, 200, catalog[0].PointsValue)
	assert.Equal(t, types.MetricPhotoCount, catalog[0].Metric)
}

func TestLoadCatalogRejectsInvalidEntries(t *testing.T) {
	tests := []struct {
		name     string
		yaml     string
		wantEnum bool
	}{
		{
			name: "unknown tier",
			yaml: `
achievements:
  - {key: a, type: milestone, category: fitness, tier: copper, target: 1}
`,
			wantEnum: true,
		},
		{
			name: "unknown metric",
			yaml: `
achievements:
  - {key: a, type: milestone, category: fitness, tier: gold, target: 1, metric: heartbeats}
`,
			wantEnum: true,
		},
		{
			name: "streak without requirement",
			yaml: `
achievements:
  - {key: a, type: streak, category: fitness, tier: gold}
`,
		},
		{
			name: "duplicate key",
			yaml: `
achievements:
  - {key: a, type: special, category: weather, tier: gold}
  - {key: a, type: special, category: weather, tier: gold}
`,
		},
		{
			name: "missing key",
			yaml: `
achievements:
  - {type: special, category: weather, tier: gold}
`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadCatalogFromBytes([]byte(tt.yaml))
			require.Error(t, err)
			var enumErr *types.UnknownEnumVariantError
			assert.Equal(t, tt.wantEnum, errors.As(err, &enumErr))
		})
	}
}

func TestRegistryEvaluate(t *testing.T) {
	registry := NewRegistry()

	t.Run("special unlocks when predicate holds", func(t *testing.T) {
		rain := 12.0
		a := types.NewAchievement("rain_or_shine", "Rain or Shine", "", types.AchievementSpecial, types.CategoryWeather, types.TierGold, 1)
		history := []types.DayRecord{
			{Date: day(0), Steps: 15000, Condition: types.ConditionClear},
			{Date: day(1), Steps: 11000, Condition: types.ConditionRain, Temperature: &rain},
		}

		got, changed, unlocked := registry.Evaluate(a, history, testNow)
		assert.True(t, changed)
		assert.True(t, unlocked)
		assert.True(t, got.IsUnlocked)
	})

	t.Run("special without predicate is left alone", func(t *testing.T) {
		a := types.NewAchievement("unknown_special", "?", "", types.AchievementSpecial, types.CategoryWeather, types.TierGold, 1)
		got, changed, unlocked := registry.Evaluate(a, []types.DayRecord{{Date: day(0)}}, testNow)
		assert.False(t, changed)
		assert.False(t, unlocked)
		assert.Equal(t, a, got)
	})

	t.Run("registered predicate replaces builtin", func(t *testing.T) {
		r := NewRegistry()
		r.Register("digital_detox", func([]types.DayRecord) bool { return false })
		a := types.NewAchievement("digital_detox", "Detox", "", types.AchievementSpecial, types.CategoryProductivity, types.TierGold, 1)
		_, _, unlocked := r.Evaluate(a, []types.DayRecord{{Date: day(0), Steps: 100, ScreenTimeMinutes: 10}}, testNow)
		assert.False(t, unlocked)
	})

	t.Run("metric progress reports change without unlock", func(t *testing.T) {
		a := types.NewAchievement("c", "C", "", types.AchievementCumulative, types.CategoryFitness, types.TierGold, 100000)
		a.Metric = types.MetricSteps
		got, changed, unlocked := registry.Evaluate(a, []types.DayRecord{{Date: day(0), Steps: 5000}}, testNow)
		assert.True(t, changed)
		assert.False(t, unlocked)
		assert.Equal(t, 5000.0, got.CurrentProgress)

		_, changed, _ = registry.Evaluate(got, []types.DayRecord{{Date: day(0), Steps: 5000}}, testNow)
		assert.False(t, changed)
	})
}
