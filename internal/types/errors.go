package types

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrConflict is returned by stores when an optimistic version check fails.
	// The caller should reload the entity and retry the read-modify-write.
	ErrConflict = errors.New("concurrent modification")

	// ErrNotFound is returned when a requested entity does not exist
	ErrNotFound = errors.New("not found")

	// ErrAlreadyActedUpon is returned when a recommendation is acted upon twice
	ErrAlreadyActedUpon = errors.New("already acted upon")

	// ErrStaleRecommendation is returned when acting on a recommendation more
	// than a day after it was made
	ErrStaleRecommendation = errors.New("recommendation is stale")
)

// InvalidMetricError reports a raw input outside its physically valid range
type InvalidMetricError struct {
	Field  string
	Value  float64
	Reason string
}

func (e *InvalidMetricError) Error() string {
	return fmt.Sprintf("invalid metric %s=%v: %s", e.Field, e.Value, e.Reason)
}

// MissingWeatherDataError lists the weather dimensions that were replaced by a
// neutral sub-score. It is informational: the accompanying score is still valid.
type MissingWeatherDataError struct {
	Dimensions []string
}

func (e *MissingWeatherDataError) Error() string {
	return fmt.Sprintf("missing weather data, neutral fallback used for: %s", strings.Join(e.Dimensions, ", "))
}

// InsufficientDataError is returned when a statistic cannot be computed
type InsufficientDataError struct {
	Metric  string
	Samples int
	Reason  string
}

func (e *InsufficientDataError) Error() string {
	if e.Metric == "" {
		return fmt.Sprintf("insufficient data (%d samples): %s", e.Samples, e.Reason)
	}
	return fmt.Sprintf("insufficient data for %s (%d samples): %s", e.Metric, e.Samples, e.Reason)
}

// DoubleValidationError is returned when a prediction is validated a second time
type DoubleValidationError struct {
	PredictionID string
}

func (e *DoubleValidationError) Error() string {
	return fmt.Sprintf("prediction %s already validated", e.PredictionID)
}

// UnknownEnumVariantError reports a value outside one of the closed enums
type UnknownEnumVariantError struct {
	Enum  string
	Value string
}

func (e *UnknownEnumVariantError) Error() string {
	return fmt.Sprintf("unknown %s: %q", e.Enum, e.Value)
}

// IsRetryable reports whether err is a concurrency conflict worth retrying
func IsRetryable(err error) bool {
	return errors.Is(err, ErrConflict)
}
