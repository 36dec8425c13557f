package types

import (
	"time"

	"github.com/google/uuid"
)

// AccuracyUnset marks a prediction that has not been validated yet
const AccuracyUnset = -1.0

// PredictionQuality labels a validated prediction's accuracy
type PredictionQuality string

const (
	QualityExcellent   PredictionQuality = "EXCELLENT"
	QualityGood        PredictionQuality = "GOOD"
	QualityFair        PredictionQuality = "FAIR"
	QualityPoor        PredictionQuality = "POOR"
	QualityUnvalidated PredictionQuality = "UNVALIDATED"
)

// PredictionResult is an activity prediction for a target time, validated at
// most once against the observed activity.
type PredictionResult struct {
	ID                 uuid.UUID      `json:"id"`
	PredictedActivity  ActivityType   `json:"predicted_activity"`
	Alternatives       []ActivityType `json:"alternatives,omitempty"`
	Confidence         float64        `json:"confidence"`
	Reasoning          string         `json:"reasoning,omitempty"`
	TargetTime         time.Time      `json:"target_time"`
	CreatedAt          time.Time      `json:"created_at"`
	IsValidated        bool           `json:"is_validated"`
	ActualActivity     ActivityType   `json:"actual_activity,omitempty"`
	PredictionAccuracy float64        `json:"prediction_accuracy"`
	ValidatedAt        *time.Time     `json:"validated_at,omitempty"`
	Version            int64          `json:"version"`
}

// NewPredictionResult builds an unvalidated prediction
func NewPredictionResult(predicted ActivityType, alternatives []ActivityType, confidence float64, target, now time.Time) PredictionResult {
	return PredictionResult{
		ID:                 uuid.New(),
		PredictedActivity:  predicted,
		Alternatives:       alternatives,
		Confidence:         confidence,
		TargetTime:         target,
		CreatedAt:          now,
		PredictionAccuracy: AccuracyUnset,
	}
}
