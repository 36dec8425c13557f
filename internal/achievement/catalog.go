package achievement

import (
	_ "embed"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/saaga0h/jeeves-wellbeing/internal/types"
)

//go:embed catalog.yaml
var defaultCatalog []byte

// Definition is one catalog entry as written in YAML
type Definition struct {
	Key               string  `yaml:"key"`
	Title             string  `yaml:"title"`
	Description       string  `yaml:"description"`
	Type              string  `yaml:"type"`
	Category          string  `yaml:"category"`
	Tier              string  `yaml:"tier"`
	Target            float64 `yaml:"target"`
	StreakRequirement int     `yaml:"streak_requirement"`
	Metric            string  `yaml:"metric"`
	Threshold         float64 `yaml:"threshold"`
	Hidden            bool    `yaml:"hidden"`
}

type catalogFile struct {
	Achievements []Definition `yaml:"achievements"`
}

// LoadCatalog reads the catalog at path, or the embedded default when path
// is empty
func LoadCatalog(path string) ([]types.Achievement, error) {
	data := defaultCatalog
	if path != "" {
		var err error
		data, err = os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read achievement catalog: %w", err)
		}
	}
	return LoadCatalogFromBytes(data)
}

// LoadCatalogFromBytes parses and validates a YAML catalog
func LoadCatalogFromBytes(data []byte) ([]types.Achievement, error) {
	var file catalogFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse achievement catalog: %w", err)
	}

	seen := make(map[string]bool, len(file.Achievements))
	out := make([]types.Achievement, 0, len(file.Achievements))
	for i, def := range file.Achievements {
		if def.Key == "" {
			return nil, fmt.Errorf("achievement %d: missing key", i)
		}
		if seen[def.Key] {
			return nil, fmt.Errorf("achievement %s: duplicate key", def.Key)
		}
		seen[def.Key] = true

		a, err := def.Achievement()
		if err != nil {
			return nil, fmt.Errorf("achievement %s: %w", def.Key, err)
		}
		out = append(out, a)
	}
	return out, nil
}

// Achievement converts the definition into a fresh, locked achievement
func (d Definition) Achievement() (types.Achievement, error) {
	typ, err := types.ParseAchievementType(d.Type)
	if err != nil {
		return types.Achievement{}, err
	}
	category, err := types.ParseAchievementCategory(d.Category)
	if err != nil {
		return types.Achievement{}, err
	}
	tier, err := types.ParseAchievementTier(d.Tier)
	if err != nil {
		return types.Achievement{}, err
	}

	switch typ {
	case types.AchievementStreak:
		if d.StreakRequirement <= 0 {
			return types.Achievement{}, fmt.Errorf("streak achievement needs a positive streak_requirement")
		}
	case types.AchievementMilestone, types.AchievementCumulative, types.AchievementSocial:
		if d.Target <= 0 {
			return types.Achievement{}, fmt.Errorf("%s achievement needs a positive target", typ)
		}
	}

	metric := types.Metric(d.Metric)
	if metric != "" {
		if _, ok := (types.DayRecord{}).Metric(metric); !ok {
			return types.Achievement{}, &types.UnknownEnumVariantError{Enum: "metric", Value: d.Metric}
		}
	}

	a := types.NewAchievement(d.Key, d.Title, d.Description, typ, category, tier, d.Target)
	a.StreakRequirement = d.StreakRequirement
	a.Metric = metric
	a.Threshold = d.Threshold
	a.IsHidden = d.Hidden
	return a, nil
}
