package types

import (
	"strings"
	"time"
)

// DateLayout is the canonical day key format
const DateLayout = "2006-01-02"

// MediaType classifies media consumption minutes
type MediaType string

const (
	MediaVideo   MediaType = "video"
	MediaMusic   MediaType = "music"
	MediaPodcast MediaType = "podcast"
	MediaReading MediaType = "reading"
	MediaGaming  MediaType = "gaming"
)

// ParseMediaType validates a media type value
func ParseMediaType(s string) (MediaType, error) {
	switch m := MediaType(strings.ToLower(strings.TrimSpace(s))); m {
	case MediaVideo, MediaMusic, MediaPodcast, MediaReading, MediaGaming:
		return m, nil
	}
	return "", &UnknownEnumVariantError{Enum: "media type", Value: s}
}

// DayRecord is the system of record for one calendar day: raw behavioural
// and environmental inputs plus the scores derived from them.
type DayRecord struct {
	Date time.Time `json:"date"`

	// Behavioural inputs
	Steps               int                   `json:"steps"`
	DistanceKm          float64               `json:"distance_km"`
	ActiveMinutes       float64               `json:"active_minutes"`
	PlacesVisited       int                   `json:"places_visited"`
	VisitCount          int                   `json:"visit_count"` // repeat visits beyond distinct places
	ScreenTimeMinutes   float64               `json:"screen_time_minutes"`
	BatteryUsagePercent float64               `json:"battery_usage_percent"`
	PhotoCount          int                   `json:"photo_count"`
	PhotoScoreOverride  *float64              `json:"photo_score_override,omitempty"`
	MediaMinutes        map[MediaType]float64 `json:"media_minutes,omitempty"`

	// Environmental inputs
	Temperature      *float64         `json:"temperature,omitempty"`
	Humidity         *float64         `json:"humidity,omitempty"`
	WindSpeed        *float64         `json:"wind_speed,omitempty"`
	Condition        WeatherCondition `json:"condition,omitempty"`
	AirQualityIndex  *float64         `json:"air_quality_index,omitempty"`
	UVIndex          *float64         `json:"uv_index,omitempty"`
	MoonPhase        float64          `json:"moon_phase"`        // 0 new, 0.5 full
	MoonIllumination float64          `json:"moon_illumination"` // lit fraction
	DaylightHours    float64          `json:"daylight_hours"`
	CircadianPhase   string           `json:"circadian_phase,omitempty"`

	// Impact factors supplied by environmental collaborators. Zero means unset.
	AirQualityImpact   float64 `json:"air_quality_impact"`
	MoonPhaseImpact    float64 `json:"moon_phase_impact"`
	UVImpact           float64 `json:"uv_impact"`
	CircadianAlignment float64 `json:"circadian_alignment"`

	// Derived scores
	PhysicalActivityScore   float64 `json:"physical_activity_score"`
	SocialActivityScore     float64 `json:"social_activity_score"`
	ScreenTimeScore         float64 `json:"screen_time_score"`
	ProductivityScore       float64 `json:"productivity_score"`
	PhotoActivityScore      float64 `json:"photo_activity_score"`
	MediaConsumptionScore   float64 `json:"media_consumption_score"`
	EnvironmentalMultiplier float64 `json:"environmental_multiplier"`
	OverallWellbeingScore   float64 `json:"overall_wellbeing_score"`

	UpdatedAt time.Time `json:"updated_at"`
}

// NormalizeDate truncates t to UTC midnight
func NormalizeDate(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// DateKey returns the record's date as YYYY-MM-DD
func (d DayRecord) DateKey() string {
	return d.Date.UTC().Format(DateLayout)
}

// ActivityScore is an alias for the overall wellbeing score
func (d DayRecord) ActivityScore() float64 {
	return d.OverallWellbeingScore
}

// MediaConsumptionMinutes sums media minutes across all media types
func (d DayRecord) MediaConsumptionMinutes() float64 {
	total := 0.0
	for _, m := range d.MediaMinutes {
		total += m
	}
	return total
}

// Weather returns the day's weather as a snapshot for suitability scoring
func (d DayRecord) Weather() Weather {
	return Weather{
		Temperature: d.Temperature,
		Condition:   d.Condition,
		Humidity:    d.Humidity,
		WindSpeed:   d.WindSpeed,
		UVIndex:     d.UVIndex,
	}
}

// FeatureDimensions is the length of the vector returned by Features
const FeatureDimensions = 6

// Features returns the environmental feature vector used for similar-day
// search. Each component is scaled to roughly [0,1]; missing values sit at 0.5.
func (d DayRecord) Features() []float32 {
	scaled := func(v *float64, lo, hi float64) float32 {
		if v == nil {
			return 0.5
		}
		x := (*v - lo) / (hi - lo)
		if x < 0 {
			x = 0
		}
		if x > 1 {
			x = 1
		}
		return float32(x)
	}
	daylight := d.DaylightHours
	return []float32{
		scaled(d.Temperature, -20, 40),
		scaled(d.Humidity, 0, 100),
		scaled(d.WindSpeed, 0, 60),
		scaled(d.UVIndex, 0, 11),
		scaled(d.AirQualityIndex, 0, 300),
		scaled(&daylight, 0, 24),
	}
}
