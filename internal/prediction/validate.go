// Package prediction validates activity predictions against observed
// activity and produces new predictions through an LLM classifier.
package prediction

import (
	"time"

	"github.com/saaga0h/jeeves-wellbeing/internal/types"
)

// Accuracy scores an observed activity against a prediction: 1 for the
// predicted activity, 0.5 for one of the alternatives, 0 otherwise.
func Accuracy(p types.PredictionResult, observed types.ActivityType) float64 {
	if observed == p.PredictedActivity {
		return 1.0
	}
	for _, alt := range p.Alternatives {
		if alt == observed {
			return 0.5
		}
	}
	return 0.0
}

// QualityFor maps an accuracy to its quality label
func QualityFor(accuracy float64) types.PredictionQuality {
	switch {
	case accuracy >= 0.8:
		return types.QualityExcellent
	case accuracy >= 0.6:
		return types.QualityGood
	case accuracy >= 0.4:
		return types.QualityFair
	default:
		return types.QualityPoor
	}
}

// Quality returns the prediction's label, UNVALIDATED until it is validated
func Quality(p types.PredictionResult) types.PredictionQuality {
	if !p.IsValidated {
		return types.QualityUnvalidated
	}
	return QualityFor(p.PredictionAccuracy)
}

// Validate records the observed activity on p. Validation happens once: a
// second call returns *types.DoubleValidationError and leaves p unchanged.
func Validate(p types.PredictionResult, observed types.ActivityType, now time.Time) (types.PredictionResult, error) {
	if p.IsValidated {
		return p, &types.DoubleValidationError{PredictionID: p.ID.String()}
	}
	observed, err := types.ParseActivityType(string(observed))
	if err != nil {
		return p, err
	}

	p.IsValidated = true
	p.ActualActivity = observed
	p.PredictionAccuracy = Accuracy(p, observed)
	p.ValidatedAt = &now
	return p, nil
}

// Observation is an activity seen at a point in time
type Observation struct {
	Activity types.ActivityType `json:"activity"`
	At       time.Time          `json:"at"`
}

// ValidateDue validates every unvalidated prediction whose target time has
// passed and lies within window of the observation. Only the predictions it
// validated are returned.
func ValidateDue(preds []types.PredictionResult, obs Observation, window time.Duration, now time.Time) []types.PredictionResult {
	var out []types.PredictionResult
	for _, p := range preds {
		if p.IsValidated || p.TargetTime.After(now) {
			continue
		}
		gap := p.TargetTime.Sub(obs.At)
		if gap < 0 {
			gap = -gap
		}
		if gap > window {
			continue
		}
		validated, err := Validate(p, obs.Activity, now)
		if err != nil {
			continue
		}
		out = append(out, validated)
	}
	return out
}

// Summary aggregates accuracy over a set of predictions
type Summary struct {
	Total        int                             `json:"total"`
	Validated    int                             `json:"validated"`
	MeanAccuracy float64                         `json:"mean_accuracy"`
	ByQuality    map[types.PredictionQuality]int `json:"by_quality"`
}

// AccuracySummary computes the mean accuracy of the validated predictions
// and counts every prediction by quality
func AccuracySummary(preds []types.PredictionResult) Summary {
	s := Summary{
		Total:     len(preds),
		ByQuality: make(map[types.PredictionQuality]int),
	}
	sum := 0.0
	for _, p := range preds {
		s.ByQuality[Quality(p)]++
		if p.IsValidated {
			s.Validated++
			sum += p.PredictionAccuracy
		}
	}
	if s.Validated > 0 {
		s.MeanAccuracy = sum / float64(s.Validated)
	}
	return s
}
