package types

import "strings"

// ActivityType is the closed set of activity kinds the engine can recommend
type ActivityType string

const (
	ActivityOutdoorExercise  ActivityType = "outdoor_exercise"
	ActivityIndoorExercise   ActivityType = "indoor_exercise"
	ActivitySocial           ActivityType = "social"
	ActivityWork             ActivityType = "work"
	ActivityRecreational     ActivityType = "recreational"
	ActivityRelaxation       ActivityType = "relaxation"
	ActivityTravel           ActivityType = "travel"
	ActivityPhotography      ActivityType = "photography"
	ActivityIndoorActivities ActivityType = "indoor_activities"
	ActivityOutdoorLeisure   ActivityType = "outdoor_leisure"
)

var allActivityTypes = []ActivityType{
	ActivityOutdoorExercise,
	ActivityIndoorExercise,
	ActivitySocial,
	ActivityWork,
	ActivityRecreational,
	ActivityRelaxation,
	ActivityTravel,
	ActivityPhotography,
	ActivityIndoorActivities,
	ActivityOutdoorLeisure,
}

var activityDisplayNames = map[ActivityType]string{
	ActivityOutdoorExercise:  "Outdoor Exercise",
	ActivityIndoorExercise:   "Indoor Exercise",
	ActivitySocial:           "Social",
	ActivityWork:             "Work",
	ActivityRecreational:     "Recreational",
	ActivityRelaxation:       "Relaxation",
	ActivityTravel:           "Travel",
	ActivityPhotography:      "Photography",
	ActivityIndoorActivities: "Indoor Activities",
	ActivityOutdoorLeisure:   "Outdoor Leisure",
}

// AllActivityTypes returns every activity type in declaration order
func AllActivityTypes() []ActivityType {
	out := make([]ActivityType, len(allActivityTypes))
	copy(out, allActivityTypes)
	return out
}

// ParseActivityType accepts the canonical value case-insensitively
func ParseActivityType(s string) (ActivityType, error) {
	normalized := ActivityType(strings.ToLower(strings.TrimSpace(s)))
	if _, ok := activityDisplayNames[normalized]; ok {
		return normalized, nil
	}
	return "", &UnknownEnumVariantError{Enum: "activity type", Value: s}
}

// DisplayName returns a human readable label
func (a ActivityType) DisplayName() string {
	if name, ok := activityDisplayNames[a]; ok {
		return name
	}
	return string(a)
}

// IsIndoor reports whether the activity benefits from poor outdoor weather
func (a ActivityType) IsIndoor() bool {
	return a == ActivityIndoorExercise || a == ActivityIndoorActivities
}
