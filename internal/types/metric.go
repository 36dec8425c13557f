package types

// Metric names a numeric field of a DayRecord that goals and achievements can
// be bound to
type Metric string

const (
	MetricSteps             Metric = "steps"
	MetricDistanceKm        Metric = "distance_km"
	MetricActiveMinutes     Metric = "active_minutes"
	MetricPlacesVisited     Metric = "places_visited"
	MetricScreenTimeMinutes Metric = "screen_time_minutes"
	MetricPhotoCount        Metric = "photo_count"
	MetricMediaMinutes      Metric = "media_minutes"
	MetricDaylightHours     Metric = "daylight_hours"
	MetricPhysicalScore     Metric = "physical_activity_score"
	MetricSocialScore       Metric = "social_activity_score"
	MetricProductivityScore Metric = "productivity_score"
	MetricPhotoScore        Metric = "photo_activity_score"
	MetricMediaScore        Metric = "media_consumption_score"
	MetricWellbeingScore    Metric = "wellbeing_score"
)

// Metric returns the value of a named metric. ok is false for unknown names
// and for weather values the day does not have.
func (d DayRecord) Metric(name Metric) (float64, bool) {
	switch name {
	case MetricSteps:
		return float64(d.Steps), true
	case MetricDistanceKm:
		return d.DistanceKm, true
	case MetricActiveMinutes:
		return d.ActiveMinutes, true
	case MetricPlacesVisited:
		return float64(d.PlacesVisited), true
	case MetricScreenTimeMinutes:
		return d.ScreenTimeMinutes, true
	case MetricPhotoCount:
		return float64(d.PhotoCount), true
	case MetricMediaMinutes:
		return d.MediaConsumptionMinutes(), true
	case MetricDaylightHours:
		return d.DaylightHours, true
	case MetricPhysicalScore:
		return d.PhysicalActivityScore, true
	case MetricSocialScore:
		return d.SocialActivityScore, true
	case MetricProductivityScore:
		return d.ProductivityScore, true
	case MetricPhotoScore:
		return d.PhotoActivityScore, true
	case MetricMediaScore:
		return d.MediaConsumptionScore, true
	case MetricWellbeingScore:
		return d.OverallWellbeingScore, true
	}
	return 0, false
}
